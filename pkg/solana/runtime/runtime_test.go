package runtime

import (
	"crypto/ed25519"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/serfrae/lysergic-tokenizer/pkg/solana"
	"github.com/serfrae/lysergic-tokenizer/pkg/solana/system"
	"github.com/serfrae/lysergic-tokenizer/pkg/solana/token"
)

type testProgram struct {
	execute func(ctx *Context, data []byte) error
}

func (p *testProgram) Execute(ctx *Context, data []byte) error {
	return p.execute(ctx, data)
}

func generateKey(t *testing.T) (ed25519.PublicKey, ed25519.PrivateKey) {
	pub, priv, err := ed25519.GenerateKey(nil)
	require.NoError(t, err)
	return pub, priv
}

func execute(t *testing.T, rt *Runtime, signers []ed25519.PrivateKey, instructions ...solana.Instruction) error {
	txn := solana.NewTransaction(signers[0].Public().(ed25519.PublicKey), instructions...)
	require.NoError(t, txn.Sign(signers...))
	return rt.Execute(txn)
}

func customError(t *testing.T, err error) solana.CustomError {
	ie, ok := err.(*solana.InstructionError)
	require.True(t, ok, "unexpected error: %v", err)
	require.NotNil(t, ie.CustomError(), "unexpected error: %v", err)
	return *ie.CustomError()
}

func instructionErr(t *testing.T, err error) error {
	ie, ok := err.(*solana.InstructionError)
	require.True(t, ok, "unexpected error: %v", err)
	return ie.Err
}

func TestRuntime_CreateAccount(t *testing.T) {
	rt := New()

	funder, funderKey := generateKey(t)
	address, addressKey := generateKey(t)
	owner, _ := generateKey(t)

	rt.Account(funder).Lamports = 10_000_000_000

	err := execute(t, rt,
		[]ed25519.PrivateKey{funderKey, addressKey},
		system.CreateAccount(funder, address, owner, rt.Rent(128), 128),
	)
	require.NoError(t, err)

	acc, ok := rt.Lookup(address)
	require.True(t, ok)
	assert.Equal(t, rt.Rent(128), acc.Lamports)
	assert.Len(t, acc.Data, 128)
	assert.EqualValues(t, owner, acc.Owner)
	assert.Equal(t, 10_000_000_000-rt.Rent(128), rt.Account(funder).Lamports)

	// The address is taken now.
	err = execute(t, rt,
		[]ed25519.PrivateKey{funderKey, addressKey},
		system.CreateAccount(funder, address, owner, rt.Rent(128), 128),
	)
	assert.Equal(t, systemErrorAccountAlreadyInUse, customError(t, err))
}

func TestRuntime_Transfer(t *testing.T) {
	rt := New()

	sender, senderKey := generateKey(t)
	recipient, _ := generateKey(t)

	rt.Account(sender).Lamports = 100

	err := execute(t, rt,
		[]ed25519.PrivateKey{senderKey},
		system.Transfer(sender, recipient, 60),
	)
	require.NoError(t, err)
	assert.EqualValues(t, 40, rt.Account(sender).Lamports)
	assert.EqualValues(t, 60, rt.Account(recipient).Lamports)

	err = execute(t, rt,
		[]ed25519.PrivateKey{senderKey},
		system.Transfer(sender, recipient, 41),
	)
	assert.Equal(t, systemErrorResultWithNegativeLamports, customError(t, err))
	assert.EqualValues(t, 40, rt.Account(sender).Lamports)
}

func TestRuntime_Rollback(t *testing.T) {
	rt := New()

	sender, senderKey := generateKey(t)
	recipient, _ := generateKey(t)

	rt.Account(sender).Lamports = 100

	// The first transfer is fine in isolation, but the second overdraws, so
	// the transaction must leave no trace.
	err := execute(t, rt,
		[]ed25519.PrivateKey{senderKey},
		system.Transfer(sender, recipient, 60),
		system.Transfer(sender, recipient, 60),
	)
	require.Error(t, err)
	assert.Equal(t, 1, err.(*solana.InstructionError).Index)

	assert.EqualValues(t, 100, rt.Account(sender).Lamports)
	_, ok := rt.Lookup(recipient)
	assert.False(t, ok)
}

func TestRuntime_TokenLifecycle(t *testing.T) {
	rt := New()

	wallet, walletKey := generateKey(t)
	mint, mintKey := generateKey(t)
	mintAuthority, mintAuthorityKey := generateKey(t)

	rt.Account(wallet).Lamports = 10_000_000_000

	err := execute(t, rt,
		[]ed25519.PrivateKey{walletKey, mintKey},
		system.CreateAccount(wallet, mint, token.ProgramKey, rt.Rent(token.MintSize), token.MintSize),
		token.InitializeMint(mint, mintAuthority, 6),
	)
	require.NoError(t, err)

	createAccount, tokenAccount, err := token.CreateAssociatedTokenAccount(wallet, wallet, mint)
	require.NoError(t, err)
	err = execute(t, rt,
		[]ed25519.PrivateKey{walletKey, mintAuthorityKey},
		createAccount,
		token.MintTo(mint, tokenAccount, mintAuthority, 500),
	)
	require.NoError(t, err)

	var mintState token.Mint
	require.True(t, mintState.Unmarshal(rt.Account(mint).Data))
	assert.EqualValues(t, 500, mintState.Supply)

	var accountState token.Account
	require.True(t, accountState.Unmarshal(rt.Account(tokenAccount).Data))
	assert.EqualValues(t, 500, accountState.Amount)

	// Transfers owned by someone else are refused.
	other, otherKey := generateKey(t)
	rt.Account(other).Lamports = 10_000_000_000
	createOther, otherAccount, err := token.CreateAssociatedTokenAccount(other, other, mint)
	require.NoError(t, err)
	require.NoError(t, execute(t, rt, []ed25519.PrivateKey{otherKey}, createOther))

	err = execute(t, rt,
		[]ed25519.PrivateKey{otherKey},
		token.Transfer(tokenAccount, otherAccount, other, 100),
	)
	assert.Equal(t, token.ErrorOwnerMismatch, customError(t, err))

	err = execute(t, rt,
		[]ed25519.PrivateKey{walletKey},
		token.Transfer(tokenAccount, otherAccount, wallet, 501),
	)
	assert.Equal(t, token.ErrorInsufficientFunds, customError(t, err))

	require.NoError(t, execute(t, rt,
		[]ed25519.PrivateKey{walletKey},
		token.Transfer(tokenAccount, otherAccount, wallet, 100),
	))

	// Closing an account with a balance is refused.
	err = execute(t, rt,
		[]ed25519.PrivateKey{walletKey},
		token.CloseAccount(tokenAccount, wallet, wallet),
	)
	assert.Equal(t, token.ErrorNonNativeHasBalance, customError(t, err))

	require.NoError(t, execute(t, rt,
		[]ed25519.PrivateKey{walletKey},
		token.Burn(tokenAccount, mint, wallet, 400),
	))
	require.NoError(t, execute(t, rt,
		[]ed25519.PrivateKey{walletKey},
		token.CloseAccount(tokenAccount, wallet, wallet),
	))

	acc, ok := rt.Lookup(tokenAccount)
	require.True(t, ok)
	assert.Empty(t, acc.Data)
	assert.EqualValues(t, 0, acc.Lamports)
}

func TestRuntime_CloseMint(t *testing.T) {
	rt := New()

	wallet, walletKey := generateKey(t)
	mint, mintKey := generateKey(t)
	mintAuthority, mintAuthorityKey := generateKey(t)

	rt.Account(wallet).Lamports = 10_000_000_000

	require.NoError(t, execute(t, rt,
		[]ed25519.PrivateKey{walletKey, mintKey},
		system.CreateAccount(wallet, mint, token.ProgramKey, rt.Rent(token.MintSize), token.MintSize),
		token.InitializeMint(mint, mintAuthority, 6),
	))

	createAccount, tokenAccount, err := token.CreateAssociatedTokenAccount(wallet, wallet, mint)
	require.NoError(t, err)
	require.NoError(t, execute(t, rt,
		[]ed25519.PrivateKey{walletKey, mintAuthorityKey},
		createAccount,
		token.MintTo(mint, tokenAccount, mintAuthority, 10),
	))

	// A mint with outstanding supply cannot be closed.
	err = execute(t, rt,
		[]ed25519.PrivateKey{mintAuthorityKey},
		token.CloseAccount(mint, wallet, mintAuthority),
	)
	assert.Equal(t, token.ErrorNonNativeHasBalance, customError(t, err))

	require.NoError(t, execute(t, rt,
		[]ed25519.PrivateKey{walletKey},
		token.Burn(tokenAccount, mint, wallet, 10),
	))

	// Only the mint authority may close it.
	err = execute(t, rt,
		[]ed25519.PrivateKey{walletKey},
		token.CloseAccount(mint, wallet, wallet),
	)
	assert.Equal(t, token.ErrorOwnerMismatch, customError(t, err))

	require.NoError(t, execute(t, rt,
		[]ed25519.PrivateKey{mintAuthorityKey},
		token.CloseAccount(mint, wallet, mintAuthority),
	))

	acc, ok := rt.Lookup(mint)
	require.True(t, ok)
	assert.Empty(t, acc.Data)
}

func TestRuntime_SetAuthority(t *testing.T) {
	rt := New()

	wallet, walletKey := generateKey(t)
	mint, mintKey := generateKey(t)
	mintAuthority, mintAuthorityKey := generateKey(t)
	newMintAuthority, newMintAuthorityKey := generateKey(t)

	rt.Account(wallet).Lamports = 10_000_000_000

	require.NoError(t, execute(t, rt,
		[]ed25519.PrivateKey{walletKey, mintKey},
		system.CreateAccount(wallet, mint, token.ProgramKey, rt.Rent(token.MintSize), token.MintSize),
		token.InitializeMint(mint, mintAuthority, 6),
	))

	createAccount, tokenAccount, err := token.CreateAssociatedTokenAccount(wallet, wallet, mint)
	require.NoError(t, err)
	require.NoError(t, execute(t, rt, []ed25519.PrivateKey{walletKey}, createAccount))

	// Only the current mint authority may reassign it.
	err = execute(t, rt,
		[]ed25519.PrivateKey{walletKey},
		token.SetAuthority(mint, wallet, newMintAuthority, token.AuthorityTypeMintTokens),
	)
	assert.Equal(t, token.ErrorOwnerMismatch, customError(t, err))

	err = execute(t, rt,
		[]ed25519.PrivateKey{mintAuthorityKey},
		token.SetAuthority(mint, mintAuthority, newMintAuthority, token.AuthorityTypeFreezeAccount),
	)
	assert.Equal(t, token.ErrorAuthorityTypeNotSupported, customError(t, err))

	require.NoError(t, execute(t, rt,
		[]ed25519.PrivateKey{mintAuthorityKey},
		token.SetAuthority(mint, mintAuthority, newMintAuthority, token.AuthorityTypeMintTokens),
	))

	// The old authority can no longer mint, the new one can.
	err = execute(t, rt,
		[]ed25519.PrivateKey{mintAuthorityKey},
		token.MintTo(mint, tokenAccount, mintAuthority, 10),
	)
	assert.Equal(t, token.ErrorOwnerMismatch, customError(t, err))
	require.NoError(t, execute(t, rt,
		[]ed25519.PrivateKey{newMintAuthorityKey},
		token.MintTo(mint, tokenAccount, newMintAuthority, 10),
	))

	// Hand the token account to a new owner.
	other, otherKey := generateKey(t)
	require.NoError(t, execute(t, rt,
		[]ed25519.PrivateKey{walletKey},
		token.SetAuthority(tokenAccount, wallet, other, token.AuthorityTypeAccountHolder),
	))

	err = execute(t, rt,
		[]ed25519.PrivateKey{walletKey},
		token.Burn(tokenAccount, mint, wallet, 10),
	)
	assert.Equal(t, token.ErrorOwnerMismatch, customError(t, err))
	require.NoError(t, execute(t, rt,
		[]ed25519.PrivateKey{otherKey},
		token.Burn(tokenAccount, mint, other, 10),
	))

	// A close authority may close the account without owning it.
	closer, closerKey := generateKey(t)
	require.NoError(t, execute(t, rt,
		[]ed25519.PrivateKey{otherKey},
		token.SetAuthority(tokenAccount, other, closer, token.AuthorityTypeCloseAccount),
	))
	require.NoError(t, execute(t, rt,
		[]ed25519.PrivateKey{closerKey},
		token.CloseAccount(tokenAccount, wallet, closer),
	))

	acc, ok := rt.Lookup(tokenAccount)
	require.True(t, ok)
	assert.Empty(t, acc.Data)
}

func TestRuntime_SeededSigner(t *testing.T) {
	rt := New()

	program, _ := generateKey(t)
	wallet, walletKey := generateKey(t)
	mint, mintKey := generateKey(t)

	rt.Account(wallet).Lamports = 10_000_000_000

	seeds := [][]byte{[]byte("vault"), mint}
	derived, bump, err := solana.FindProgramAddressAndBump(program, seeds...)
	require.NoError(t, err)
	signerSeeds := append(seeds, []byte{bump})

	// The program mints with its derived address as authority, which has no
	// private key. Only the seeded signature path can authorize it.
	rt.Register(program, &testProgram{
		execute: func(ctx *Context, data []byte) error {
			account, err := ctx.Account(0)
			if err != nil {
				return err
			}

			in := token.MintTo(mint, account.Key(), derived, 25)
			if len(data) > 0 && data[0] == 1 {
				return ctx.Invoke(in, signerSeeds)
			}
			return ctx.Invoke(in)
		},
	})

	require.NoError(t, execute(t, rt,
		[]ed25519.PrivateKey{walletKey, mintKey},
		system.CreateAccount(wallet, mint, token.ProgramKey, rt.Rent(token.MintSize), token.MintSize),
		token.InitializeMint(mint, derived, 0),
	))

	createAccount, tokenAccount, err := token.CreateAssociatedTokenAccount(wallet, wallet, mint)
	require.NoError(t, err)
	require.NoError(t, execute(t, rt, []ed25519.PrivateKey{walletKey}, createAccount))

	mintDirect := solana.NewInstruction(program, []byte{0},
		solana.NewAccountMeta(tokenAccount, false),
	)
	err = execute(t, rt, []ed25519.PrivateKey{walletKey}, mintDirect)
	assert.Equal(t, ErrMissingRequiredSignature, instructionErr(t, err))

	mintSeeded := solana.NewInstruction(program, []byte{1},
		solana.NewAccountMeta(tokenAccount, false),
	)
	require.NoError(t, execute(t, rt, []ed25519.PrivateKey{walletKey}, mintSeeded))

	var accountState token.Account
	require.True(t, accountState.Unmarshal(rt.Account(tokenAccount).Data))
	assert.EqualValues(t, 25, accountState.Amount)
}

func TestRuntime_UnknownProgram(t *testing.T) {
	rt := New()

	program, _ := generateKey(t)
	payer, payerKey := generateKey(t)

	in := solana.NewInstruction(program, nil, solana.NewAccountMeta(payer, true))
	err := execute(t, rt, []ed25519.PrivateKey{payerKey}, in)
	assert.Equal(t, ErrUnsupportedProgram, instructionErr(t, err))
}

func TestRuntime_Clock(t *testing.T) {
	rt := New()
	assert.EqualValues(t, 0, rt.Clock())
	rt.SetClock(1_700_000_000)
	assert.EqualValues(t, 1_700_000_000, rt.Clock())
}
