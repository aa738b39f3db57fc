package system

import (
	"crypto/ed25519"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/serfrae/lysergic-tokenizer/pkg/solana"
)

func testKey(t *testing.T) ed25519.PublicKey {
	pub, _, err := ed25519.GenerateKey(nil)
	require.NoError(t, err)
	return pub
}

func TestCreateAccount(t *testing.T) {
	funder := testKey(t)
	address := testKey(t)
	owner := testKey(t)

	txn := solana.NewTransaction(funder, CreateAccount(funder, address, owner, 12_345, 128))

	decompiled, err := DecompileCreateAccount(txn.Message, 0)
	require.NoError(t, err)
	assert.EqualValues(t, funder, decompiled.Funder)
	assert.EqualValues(t, address, decompiled.Address)
	assert.EqualValues(t, owner, decompiled.Owner)
	assert.EqualValues(t, 12_345, decompiled.Lamports)
	assert.EqualValues(t, 128, decompiled.Size)

	_, err = DecompileTransfer(txn.Message, 0)
	assert.Equal(t, solana.ErrIncorrectInstruction, err)
	_, err = DecompileCreateAccount(txn.Message, 1)
	assert.Error(t, err)
}

func TestTransfer(t *testing.T) {
	sender := testKey(t)
	recipient := testKey(t)

	txn := solana.NewTransaction(sender, Transfer(sender, recipient, 555))

	decompiled, err := DecompileTransfer(txn.Message, 0)
	require.NoError(t, err)
	assert.EqualValues(t, sender, decompiled.Sender)
	assert.EqualValues(t, recipient, decompiled.Recipient)
	assert.EqualValues(t, 555, decompiled.Lamports)

	_, err = DecompileCreateAccount(txn.Message, 0)
	assert.Equal(t, solana.ErrIncorrectInstruction, err)
}
