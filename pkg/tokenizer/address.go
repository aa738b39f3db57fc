package tokenizer

import (
	"crypto/ed25519"
	"encoding/binary"

	"github.com/serfrae/lysergic-tokenizer/pkg/solana"
)

// Derivation seed prefixes. These are part of the external interface; the
// CLI and the processor must agree on them byte for byte or the derived
// accounts become unspendable.
var (
	positionPrefix      = []byte("tokenizer")
	principalMintPrefix = []byte("principal")
	yieldMintPrefix     = []byte("yield")
)

type GetPositionAddressArgs struct {
	UnderlyingMint ed25519.PublicKey
	ExpiryDate     int64
}

type GetPrincipalMintAddressArgs struct {
	Position ed25519.PublicKey
}

type GetYieldMintAddressArgs struct {
	Position ed25519.PublicKey
}

func GetPositionAddress(args *GetPositionAddressArgs) (ed25519.PublicKey, uint8, error) {
	return solana.FindProgramAddressAndBump(
		ProgramKey,
		positionPrefix,
		args.UnderlyingMint,
		expiryDateSeed(args.ExpiryDate),
	)
}

func GetPrincipalMintAddress(args *GetPrincipalMintAddressArgs) (ed25519.PublicKey, uint8, error) {
	return solana.FindProgramAddressAndBump(
		ProgramKey,
		principalMintPrefix,
		args.Position,
	)
}

func GetYieldMintAddress(args *GetYieldMintAddressArgs) (ed25519.PublicKey, uint8, error) {
	return solana.FindProgramAddressAndBump(
		ProgramKey,
		yieldMintPrefix,
		args.Position,
	)
}

// GetPositionSignerSeeds returns the full seed set, bump included, used to
// sign for the position address.
func GetPositionSignerSeeds(underlyingMint ed25519.PublicKey, expiryDate int64, bump uint8) [][]byte {
	return [][]byte{
		positionPrefix,
		underlyingMint,
		expiryDateSeed(expiryDate),
		{bump},
	}
}

// GetPrincipalMintSignerSeeds returns the full seed set, bump included, used
// to sign for the principal mint address.
func GetPrincipalMintSignerSeeds(position ed25519.PublicKey, bump uint8) [][]byte {
	return [][]byte{
		principalMintPrefix,
		position,
		{bump},
	}
}

// GetYieldMintSignerSeeds returns the full seed set, bump included, used to
// sign for the yield mint address.
func GetYieldMintSignerSeeds(position ed25519.PublicKey, bump uint8) [][]byte {
	return [][]byte{
		yieldMintPrefix,
		position,
		{bump},
	}
}

// Two's-complement little-endian, matching the persisted expiry_date field.
func expiryDateSeed(expiryDate int64) []byte {
	seed := make([]byte, 8)
	binary.LittleEndian.PutUint64(seed, uint64(expiryDate))
	return seed
}
