package tokenizer

import (
	"crypto/ed25519"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/serfrae/lysergic-tokenizer/pkg/solana"
)

func TestGetPositionAddress_Deterministic(t *testing.T) {
	mint, _, err := ed25519.GenerateKey(nil)
	require.NoError(t, err)

	expiryDate, ok := ExpiryTwelveMonths.ToExpiryDate(1_680_000_000)
	require.True(t, ok)

	a, bumpA, err := GetPositionAddress(&GetPositionAddressArgs{
		UnderlyingMint: mint,
		ExpiryDate:     expiryDate,
	})
	require.NoError(t, err)
	b, bumpB, err := GetPositionAddress(&GetPositionAddressArgs{
		UnderlyingMint: mint,
		ExpiryDate:     expiryDate,
	})
	require.NoError(t, err)

	assert.EqualValues(t, a, b)
	assert.Equal(t, bumpA, bumpB)

	// A different expiry maps to a different position.
	other, _, err := GetPositionAddress(&GetPositionAddressArgs{
		UnderlyingMint: mint,
		ExpiryDate:     expiryDate + secondsPerDay,
	})
	require.NoError(t, err)
	assert.NotEqual(t, a, other)
}

func TestGetMintAddresses_Distinct(t *testing.T) {
	position, _, err := ed25519.GenerateKey(nil)
	require.NoError(t, err)

	principal, _, err := GetPrincipalMintAddress(&GetPrincipalMintAddressArgs{Position: position})
	require.NoError(t, err)
	yield, _, err := GetYieldMintAddress(&GetYieldMintAddressArgs{Position: position})
	require.NoError(t, err)

	assert.NotEqual(t, principal, yield)
	assert.NotEqual(t, position, ed25519.PublicKey(principal))
	assert.NotEqual(t, position, ed25519.PublicKey(yield))
}

func TestSignerSeeds_RecreateAddresses(t *testing.T) {
	mint, _, err := ed25519.GenerateKey(nil)
	require.NoError(t, err)

	expiryDate, ok := ExpiryTwentyFourMonths.ToExpiryDate(1_680_000_000)
	require.True(t, ok)

	position, bump, err := GetPositionAddress(&GetPositionAddressArgs{
		UnderlyingMint: mint,
		ExpiryDate:     expiryDate,
	})
	require.NoError(t, err)

	recreated, err := solana.CreateProgramAddress(ProgramKey, GetPositionSignerSeeds(mint, expiryDate, bump)...)
	require.NoError(t, err)
	assert.EqualValues(t, position, recreated)

	principal, principalBump, err := GetPrincipalMintAddress(&GetPrincipalMintAddressArgs{Position: position})
	require.NoError(t, err)
	recreated, err = solana.CreateProgramAddress(ProgramKey, GetPrincipalMintSignerSeeds(position, principalBump)...)
	require.NoError(t, err)
	assert.EqualValues(t, principal, recreated)

	yield, yieldBump, err := GetYieldMintAddress(&GetYieldMintAddressArgs{Position: position})
	require.NoError(t, err)
	recreated, err = solana.CreateProgramAddress(ProgramKey, GetYieldMintSignerSeeds(position, yieldBump)...)
	require.NoError(t, err)
	assert.EqualValues(t, yield, recreated)
}
