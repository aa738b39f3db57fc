package tokenizer

import (
	"crypto/ed25519"

	"github.com/serfrae/lysergic-tokenizer/pkg/solana/binary"
)

// PositionSize is the serialized size of a Position record.
const PositionSize = (1 + // bump
	32 + // authority
	32 + // principal_token_mint
	32 + // yield_token_mint
	32 + // underlying_mint
	32 + // underlying_vault
	8 + // expiry_date
	8) // fixed_apy

// Position is the persistent record binding a vault, a principal mint, a
// yield mint and an expiry date into a single atomic position. One record
// exists per (underlying_mint, expiry_date) pair, stored at the derived
// position address.
type Position struct {
	// The bump seed of the position address derivation.
	Bump uint8
	// The signer that initialized the position and may terminate it.
	Authority ed25519.PublicKey
	// The mint of the principal token. The position is its sole authority.
	PrincipalTokenMint ed25519.PublicKey
	// The mint of the yield token. The position is its sole authority.
	YieldTokenMint ed25519.PublicKey
	// The externally defined asset being tokenized.
	UnderlyingMint ed25519.PublicKey
	// The token account holding deposited underlying, owned by the position.
	UnderlyingVault ed25519.PublicKey
	// UTC unix seconds, normalized to start of day.
	ExpiryDate int64
	// Reserved.
	FixedAPY uint64
}

func (p *Position) Marshal() []byte {
	b := make([]byte, PositionSize)

	var offset int
	binary.PutUint8(b, p.Bump, &offset)
	binary.PutKey32(b[offset:], p.Authority, &offset)
	binary.PutKey32(b[offset:], p.PrincipalTokenMint, &offset)
	binary.PutKey32(b[offset:], p.YieldTokenMint, &offset)
	binary.PutKey32(b[offset:], p.UnderlyingMint, &offset)
	binary.PutKey32(b[offset:], p.UnderlyingVault, &offset)
	binary.PutInt64(b[offset:], p.ExpiryDate, &offset)
	binary.PutUint64(b[offset:], p.FixedAPY, &offset)

	return b
}

func (p *Position) Unmarshal(b []byte) bool {
	if len(b) != PositionSize {
		return false
	}

	var offset int
	binary.GetUint8(b, &p.Bump, &offset)
	binary.GetKey32(b[offset:], &p.Authority, &offset)
	binary.GetKey32(b[offset:], &p.PrincipalTokenMint, &offset)
	binary.GetKey32(b[offset:], &p.YieldTokenMint, &offset)
	binary.GetKey32(b[offset:], &p.UnderlyingMint, &offset)
	binary.GetKey32(b[offset:], &p.UnderlyingVault, &offset)
	binary.GetInt64(b[offset:], &p.ExpiryDate, &offset)
	binary.GetUint64(b[offset:], &p.FixedAPY, &offset)

	return true
}
