package tokenizer

import (
	"crypto/ed25519"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/serfrae/lysergic-tokenizer/pkg/solana"
	"github.com/serfrae/lysergic-tokenizer/pkg/solana/runtime"
	"github.com/serfrae/lysergic-tokenizer/pkg/solana/system"
	"github.com/serfrae/lysergic-tokenizer/pkg/solana/token"
)

const (
	testAnchor        = int64(1_700_000_000)
	initialUnderlying = uint64(1_000)
	initialLamports   = uint64(10_000_000_000)
)

type testEnv struct {
	t  *testing.T
	rt *runtime.Runtime

	authority     ed25519.PrivateKey
	user          ed25519.PrivateKey
	mintAuthority ed25519.PrivateKey

	underlyingMint ed25519.PublicKey
	position       ed25519.PublicKey
	vault          ed25519.PublicKey
	principalMint  ed25519.PublicKey
	yieldMint      ed25519.PublicKey
	expiryDate     int64

	userUnderlying ed25519.PublicKey
	userPrincipal  ed25519.PublicKey
	userYield      ed25519.PublicKey
}

func newTestEnv(t *testing.T) *testEnv {
	env := &testEnv{
		t:  t,
		rt: runtime.New(),
	}
	env.rt.Register(ProgramKey, NewProcessor())
	env.rt.SetClock(testAnchor)

	env.authority = generatePrivateKey(t)
	env.user = generatePrivateKey(t)
	env.mintAuthority = generatePrivateKey(t)

	env.rt.Account(pub(env.authority)).Lamports = initialLamports
	env.rt.Account(pub(env.user)).Lamports = initialLamports

	// The underlying mint is external to the program. Write it into the
	// ledger directly, with an independent mint authority.
	env.underlyingMint = pub(generatePrivateKey(t))
	underlying := env.rt.Account(env.underlyingMint)
	underlying.Owner = token.ProgramKey
	underlying.Lamports = env.rt.Rent(token.MintSize)
	underlying.Data = (&token.Mint{
		MintAuthority: pub(env.mintAuthority),
		Decimals:      mintDecimals,
		IsInitialized: true,
	}).Marshal()

	var ok bool
	env.expiryDate, ok = ExpiryTwelveMonths.ToExpiryDate(testAnchor)
	require.True(t, ok)

	var err error
	env.position, _, err = GetPositionAddress(&GetPositionAddressArgs{
		UnderlyingMint: env.underlyingMint,
		ExpiryDate:     env.expiryDate,
	})
	require.NoError(t, err)
	env.vault, err = token.GetAssociatedAccount(env.position, env.underlyingMint)
	require.NoError(t, err)
	env.principalMint, _, err = GetPrincipalMintAddress(&GetPrincipalMintAddressArgs{Position: env.position})
	require.NoError(t, err)
	env.yieldMint, _, err = GetYieldMintAddress(&GetYieldMintAddressArgs{Position: env.position})
	require.NoError(t, err)

	env.userUnderlying, err = token.GetAssociatedAccount(pub(env.user), env.underlyingMint)
	require.NoError(t, err)
	env.userPrincipal, err = token.GetAssociatedAccount(pub(env.user), env.principalMint)
	require.NoError(t, err)
	env.userYield, err = token.GetAssociatedAccount(pub(env.user), env.yieldMint)
	require.NoError(t, err)

	createUserUnderlying, _, err := token.CreateAssociatedTokenAccount(pub(env.user), pub(env.user), env.underlyingMint)
	require.NoError(t, err)
	require.NoError(t, env.submit(
		[]ed25519.PrivateKey{env.user, env.mintAuthority},
		createUserUnderlying,
		token.MintTo(env.underlyingMint, env.userUnderlying, pub(env.mintAuthority), initialUnderlying),
	))

	return env
}

func (env *testEnv) initialize() {
	in, err := InitializePositionAndMints(pub(env.authority), env.underlyingMint, ExpiryTwelveMonths, env.rt.Clock(), 0)
	require.NoError(env.t, err)
	require.NoError(env.t, env.submit([]ed25519.PrivateKey{env.authority}, in))
}

func (env *testEnv) submit(signers []ed25519.PrivateKey, instructions ...solana.Instruction) error {
	txn := solana.NewTransaction(pub(signers[0]), instructions...)
	require.NoError(env.t, txn.Sign(signers...))
	return env.rt.Execute(txn)
}

func (env *testEnv) tokenBalance(account ed25519.PublicKey) uint64 {
	acc, ok := env.rt.Lookup(account)
	if !ok {
		return 0
	}

	var state token.Account
	if !state.Unmarshal(acc.Data) {
		return 0
	}
	return state.Amount
}

func (env *testEnv) mintSupply(mint ed25519.PublicKey) uint64 {
	acc, ok := env.rt.Lookup(mint)
	if !ok {
		return 0
	}

	var state token.Mint
	if !state.Unmarshal(acc.Data) {
		return 0
	}
	return state.Supply
}

type balanceSummary struct {
	vault          uint64
	principal      uint64
	yield          uint64
	userUnderlying uint64
	userPrincipal  uint64
	userYield      uint64
}

func (env *testEnv) balances() balanceSummary {
	return balanceSummary{
		vault:          env.tokenBalance(env.vault),
		principal:      env.mintSupply(env.principalMint),
		yield:          env.mintSupply(env.yieldMint),
		userUnderlying: env.tokenBalance(env.userUnderlying),
		userPrincipal:  env.tokenBalance(env.userPrincipal),
		userYield:      env.tokenBalance(env.userYield),
	}
}

func (env *testEnv) depositAndTokenize(amount uint64) {
	in, err := DepositAndTokenize(pub(env.user), env.position, env.underlyingMint, amount)
	require.NoError(env.t, err)
	require.NoError(env.t, env.submit([]ed25519.PrivateKey{env.user}, in))
}

func generatePrivateKey(t *testing.T) ed25519.PrivateKey {
	_, priv, err := ed25519.GenerateKey(nil)
	require.NoError(t, err)
	return priv
}

func pub(priv ed25519.PrivateKey) ed25519.PublicKey {
	return priv.Public().(ed25519.PublicKey)
}

func assertCustomError(t *testing.T, err error, expected solana.CustomError) {
	instructionErr, ok := err.(*solana.InstructionError)
	require.True(t, ok, "unexpected error: %v", err)
	require.NotNil(t, instructionErr.CustomError(), "unexpected error: %v", err)
	assert.Equal(t, expected, *instructionErr.CustomError())
}

func TestProcessor_InitializePositionAndMints(t *testing.T) {
	env := newTestEnv(t)
	env.initialize()

	acc, ok := env.rt.Lookup(env.position)
	require.True(t, ok)
	assert.EqualValues(t, ProgramKey, acc.Owner)

	var state Position
	require.True(t, state.Unmarshal(acc.Data))

	// The on-chain record agrees byte for byte with the off-chain
	// derivations.
	assert.EqualValues(t, pub(env.authority), state.Authority)
	assert.EqualValues(t, env.underlyingMint, state.UnderlyingMint)
	assert.EqualValues(t, env.vault, state.UnderlyingVault)
	assert.EqualValues(t, env.principalMint, state.PrincipalTokenMint)
	assert.EqualValues(t, env.yieldMint, state.YieldTokenMint)
	assert.Equal(t, env.expiryDate, state.ExpiryDate)

	vault, ok := env.rt.Lookup(env.vault)
	require.True(t, ok)
	var vaultState token.Account
	require.True(t, vaultState.Unmarshal(vault.Data))
	assert.EqualValues(t, env.underlyingMint, vaultState.Mint)
	assert.EqualValues(t, env.position, vaultState.Owner)

	for _, mint := range []ed25519.PublicKey{env.principalMint, env.yieldMint} {
		acc, ok := env.rt.Lookup(mint)
		require.True(t, ok)

		var mintState token.Mint
		require.True(t, mintState.Unmarshal(acc.Data))
		assert.True(t, mintState.IsInitialized)
		assert.EqualValues(t, env.position, mintState.MintAuthority)
		assert.EqualValues(t, mintDecimals, mintState.Decimals)
		assert.EqualValues(t, 0, mintState.Supply)
	}

	// Re-initializing is rejected.
	in, err := InitializePositionAndMints(pub(env.authority), env.underlyingMint, ExpiryTwelveMonths, env.rt.Clock(), 0)
	require.NoError(t, err)
	assertCustomError(t, env.submit([]ed25519.PrivateKey{env.authority}, in), ErrorAlreadyInitialized)
}

func TestProcessor_InitializeInTwoSteps(t *testing.T) {
	env := newTestEnv(t)

	initPosition, err := InitializePosition(pub(env.authority), env.underlyingMint, ExpiryTwelveMonths, env.rt.Clock(), 0)
	require.NoError(t, err)
	require.NoError(t, env.submit([]ed25519.PrivateKey{env.authority}, initPosition))

	initMints, err := InitializeMints(pub(env.authority), env.underlyingMint, ExpiryTwelveMonths, env.rt.Clock())
	require.NoError(t, err)
	require.NoError(t, env.submit([]ed25519.PrivateKey{env.authority}, initMints))

	assert.EqualValues(t, 0, env.mintSupply(env.principalMint))
	assert.EqualValues(t, 0, env.mintSupply(env.yieldMint))

	// Re-creating the mints runs into the platform's account-in-use check.
	err = env.submit([]ed25519.PrivateKey{env.authority}, initMints)
	require.Error(t, err)

	env.depositAndTokenize(10)
	assert.EqualValues(t, 10, env.tokenBalance(env.vault))
}

func TestProcessor_InvalidExpiry(t *testing.T) {
	env := newTestEnv(t)

	_, err := InitializePositionAndMints(pub(env.authority), env.underlyingMint, Expiry(99), env.rt.Clock(), 0)
	assert.Equal(t, ErrorInvalidExpiryDate, err)
}

func TestProcessor_TokenizeAndRedeemRoundTrip(t *testing.T) {
	env := newTestEnv(t)
	env.initialize()

	env.depositAndTokenize(100)

	assert.Equal(t, balanceSummary{
		vault:          100,
		principal:      100,
		yield:          100,
		userUnderlying: initialUnderlying - 100,
		userPrincipal:  100,
		userYield:      100,
	}, env.balances())

	env.rt.SetClock(env.expiryDate + 1)

	in, err := RedeemPrincipalAndYield(pub(env.user), env.position, env.underlyingMint, 100)
	require.NoError(t, err)
	require.NoError(t, env.submit([]ed25519.PrivateKey{env.user}, in))

	assert.Equal(t, balanceSummary{
		userUnderlying: initialUnderlying,
	}, env.balances())
}

func TestProcessor_EarlyRedeemRejected(t *testing.T) {
	env := newTestEnv(t)
	env.initialize()
	env.depositAndTokenize(100)

	before := env.balances()

	in, err := RedeemMaturePrincipal(pub(env.user), env.position, env.underlyingMint, 50)
	require.NoError(t, err)
	assertCustomError(t, env.submit([]ed25519.PrivateKey{env.user}, in), ErrorExpiryNotElapsed)

	in, err = ClaimYield(pub(env.user), env.position, env.underlyingMint, 50)
	require.NoError(t, err)
	assertCustomError(t, env.submit([]ed25519.PrivateKey{env.user}, in), ErrorExpiryNotElapsed)

	assert.Equal(t, before, env.balances())
}

func TestProcessor_LateMintRejected(t *testing.T) {
	env := newTestEnv(t)
	env.initialize()
	env.depositAndTokenize(100)

	env.rt.SetClock(env.expiryDate)
	before := env.balances()

	in, err := TokenizePrincipal(pub(env.user), env.position, 1)
	require.NoError(t, err)
	assertCustomError(t, env.submit([]ed25519.PrivateKey{env.user}, in), ErrorExpiryElapsed)

	in, err = Deposit(pub(env.user), env.position, env.underlyingMint, 1)
	require.NoError(t, err)
	assertCustomError(t, env.submit([]ed25519.PrivateKey{env.user}, in), ErrorExpiryElapsed)

	assert.Equal(t, before, env.balances())
}

func TestProcessor_SplitPath(t *testing.T) {
	env := newTestEnv(t)
	env.initialize()

	deposit, err := Deposit(pub(env.user), env.position, env.underlyingMint, 100)
	require.NoError(t, err)
	tokenizePrincipal, err := TokenizePrincipal(pub(env.user), env.position, 60)
	require.NoError(t, err)
	tokenizeYield, err := TokenizeYield(pub(env.user), env.position, 60)
	require.NoError(t, err)

	require.NoError(t, env.submit([]ed25519.PrivateKey{env.user}, deposit))
	require.NoError(t, env.submit([]ed25519.PrivateKey{env.user}, tokenizePrincipal))
	require.NoError(t, env.submit([]ed25519.PrivateKey{env.user}, tokenizeYield))

	// The un-tokenized 40 remains in the vault without derivative backing.
	assert.Equal(t, balanceSummary{
		vault:          100,
		principal:      60,
		yield:          60,
		userUnderlying: initialUnderlying - 100,
		userPrincipal:  60,
		userYield:      60,
	}, env.balances())
}

func TestProcessor_Conservation(t *testing.T) {
	env := newTestEnv(t)
	env.initialize()

	env.depositAndTokenize(100)

	deposit, err := Deposit(pub(env.user), env.position, env.underlyingMint, 50)
	require.NoError(t, err)
	require.NoError(t, env.submit([]ed25519.PrivateKey{env.user}, deposit))

	env.rt.SetClock(env.expiryDate + 1)

	redeem, err := RedeemMaturePrincipal(pub(env.user), env.position, env.underlyingMint, 40)
	require.NoError(t, err)
	require.NoError(t, env.submit([]ed25519.PrivateKey{env.user}, redeem))

	claim, err := ClaimYield(pub(env.user), env.position, env.underlyingMint, 30)
	require.NoError(t, err)
	require.NoError(t, env.submit([]ed25519.PrivateKey{env.user}, claim))

	// vault == deposits - redemptions - claims
	assert.Equal(t, balanceSummary{
		vault:          150 - 40 - 30,
		principal:      60,
		yield:          70,
		userUnderlying: initialUnderlying - 150 + 40 + 30,
		userPrincipal:  60,
		userYield:      70,
	}, env.balances())
}

func TestProcessor_ConservationOverRandomTraces(t *testing.T) {
	env := newTestEnv(t)
	env.initialize()

	// Extra underlying so deposits never run dry mid-trace.
	require.NoError(t, env.submit(
		[]ed25519.PrivateKey{env.mintAuthority},
		token.MintTo(env.underlyingMint, env.userUnderlying, pub(env.mintAuthority), 100_000),
	))

	rng := rand.New(rand.NewSource(42))

	var deposited, redeemed, claimed uint64
	check := func() {
		require.Equal(t, deposited-redeemed-claimed, env.tokenBalance(env.vault),
			"deposited=%d redeemed=%d claimed=%d", deposited, redeemed, claimed)
	}

	// Before expiry only deposits and tokenization are possible.
	for i := 0; i < 40; i++ {
		amount := uint64(rng.Intn(100)) + 1
		switch rng.Intn(3) {
		case 0:
			in, err := Deposit(pub(env.user), env.position, env.underlyingMint, amount)
			require.NoError(t, err)
			require.NoError(t, env.submit([]ed25519.PrivateKey{env.user}, in))
			deposited += amount
		case 1:
			env.depositAndTokenize(amount)
			deposited += amount
		case 2:
			// Tokenization alone never moves underlying.
			in, err := TokenizePrincipal(pub(env.user), env.position, amount)
			require.NoError(t, err)
			require.NoError(t, env.submit([]ed25519.PrivateKey{env.user}, in))
			in, err = TokenizeYield(pub(env.user), env.position, amount)
			require.NoError(t, err)
			require.NoError(t, env.submit([]ed25519.PrivateKey{env.user}, in))
		}
		check()
	}

	env.rt.SetClock(env.expiryDate + 1)

	for i := 0; i < 60; i++ {
		b := env.balances()
		switch rng.Intn(3) {
		case 0:
			limit := min(b.userPrincipal, b.vault)
			if limit == 0 {
				continue
			}
			amount := uint64(rng.Int63n(int64(limit))) + 1
			in, err := RedeemMaturePrincipal(pub(env.user), env.position, env.underlyingMint, amount)
			require.NoError(t, err)
			require.NoError(t, env.submit([]ed25519.PrivateKey{env.user}, in))
			redeemed += amount
		case 1:
			if b.userYield == 0 {
				continue
			}
			amount := uint64(rng.Int63n(int64(b.userYield))) + 1
			in, err := ClaimYield(pub(env.user), env.position, env.underlyingMint, amount)
			require.NoError(t, err)
			require.NoError(t, env.submit([]ed25519.PrivateKey{env.user}, in))
			// The payout of a claim is capped at the vault balance.
			claimed += min(amount, b.vault)
		case 2:
			limit := min(b.userPrincipal, b.userYield, b.vault)
			if limit == 0 {
				continue
			}
			amount := uint64(rng.Int63n(int64(limit))) + 1
			in, err := RedeemPrincipalAndYield(pub(env.user), env.position, env.underlyingMint, amount)
			require.NoError(t, err)
			require.NoError(t, env.submit([]ed25519.PrivateKey{env.user}, in))
			redeemed += amount
			claimed += min(amount, b.vault-amount)
		}
		check()
	}
}

func TestProcessor_MintParityOverRandomTraces(t *testing.T) {
	env := newTestEnv(t)
	env.initialize()

	rng := rand.New(rand.NewSource(7))

	// Depositing and tokenizing in one transaction keeps the supplies of
	// both derivative mints locked to the vault balance at every step.
	var total uint64
	for i := 0; i < 25; i++ {
		remaining := env.tokenBalance(env.userUnderlying)
		if remaining == 0 {
			break
		}
		amount := uint64(rng.Int63n(int64(min(remaining, 50)))) + 1
		env.depositAndTokenize(amount)
		total += amount

		b := env.balances()
		assert.Equal(t, total, b.vault)
		assert.Equal(t, total, b.principal)
		assert.Equal(t, total, b.yield)
		assert.Equal(t, total, b.userPrincipal)
		assert.Equal(t, total, b.userYield)
	}
}

func TestProcessor_TokenizeWithoutBacking(t *testing.T) {
	env := newTestEnv(t)
	env.initialize()

	// Minting is not checked against the vault balance. Unbacked principal
	// simply cannot be redeemed once the vault runs dry.
	in, err := TokenizePrincipal(pub(env.user), env.position, 25)
	require.NoError(t, err)
	require.NoError(t, env.submit([]ed25519.PrivateKey{env.user}, in))

	assert.Equal(t, balanceSummary{
		principal:      25,
		userPrincipal:  25,
		userUnderlying: initialUnderlying,
	}, env.balances())

	env.rt.SetClock(env.expiryDate + 1)

	redeem, err := RedeemMaturePrincipal(pub(env.user), env.position, env.underlyingMint, 25)
	require.NoError(t, err)
	assertCustomError(t, env.submit([]ed25519.PrivateKey{env.user}, redeem), token.ErrorInsufficientFunds)
}

func TestProcessor_ClaimYieldCappedAtVaultBalance(t *testing.T) {
	env := newTestEnv(t)
	env.initialize()
	env.depositAndTokenize(100)

	env.rt.SetClock(env.expiryDate + 1)

	redeem, err := RedeemMaturePrincipal(pub(env.user), env.position, env.underlyingMint, 100)
	require.NoError(t, err)
	require.NoError(t, env.submit([]ed25519.PrivateKey{env.user}, redeem))
	assert.EqualValues(t, 0, env.tokenBalance(env.vault))

	// The vault is drained: the claim burns the yield tokens but pays
	// nothing.
	claim, err := ClaimYield(pub(env.user), env.position, env.underlyingMint, 100)
	require.NoError(t, err)
	require.NoError(t, env.submit([]ed25519.PrivateKey{env.user}, claim))

	assert.Equal(t, balanceSummary{
		userUnderlying: initialUnderlying,
	}, env.balances())
}

func TestProcessor_DepositAndTokenizeAtomicity(t *testing.T) {
	env := newTestEnv(t)
	env.initialize()

	before := env.balances()

	in, err := DepositAndTokenize(pub(env.user), env.position, env.underlyingMint, initialUnderlying+1)
	require.NoError(t, err)
	assertCustomError(t, env.submit([]ed25519.PrivateKey{env.user}, in), token.ErrorInsufficientFunds)

	assert.Equal(t, before, env.balances())

	// The failed tokenize legs must not have left derivative accounts
	// behind.
	_, ok := env.rt.Lookup(env.userPrincipal)
	assert.False(t, ok)
	_, ok = env.rt.Lookup(env.userYield)
	assert.False(t, ok)
}

func TestProcessor_RedeemAtomicity(t *testing.T) {
	env := newTestEnv(t)
	env.initialize()
	env.depositAndTokenize(100)

	env.rt.SetClock(env.expiryDate + 1)
	before := env.balances()

	// The principal leg overdraws the vault, so the whole composite rolls
	// back.
	in, err := RedeemPrincipalAndYield(pub(env.user), env.position, env.underlyingMint, 150)
	require.NoError(t, err)
	assertCustomError(t, env.submit([]ed25519.PrivateKey{env.user}, in), token.ErrorInsufficientFunds)

	assert.Equal(t, before, env.balances())
}

func TestProcessor_AuthorityGate(t *testing.T) {
	env := newTestEnv(t)
	env.initialize()

	env.rt.SetClock(env.expiryDate + 1)
	before := env.balances()

	terminate, err := Terminate(pub(env.user), env.position, env.underlyingMint)
	require.NoError(t, err)
	assertCustomError(t, env.submit([]ed25519.PrivateKey{env.user}, terminate), ErrorUnauthorised)

	terminateMints, err := TerminateMints(pub(env.user), env.position)
	require.NoError(t, err)
	assertCustomError(t, env.submit([]ed25519.PrivateKey{env.user}, terminateMints), ErrorUnauthorised)

	assert.Equal(t, before, env.balances())
}

func TestProcessor_TerminateRefusesNonEmptyVault(t *testing.T) {
	env := newTestEnv(t)
	env.initialize()

	deposit, err := Deposit(pub(env.user), env.position, env.underlyingMint, 10)
	require.NoError(t, err)
	require.NoError(t, env.submit([]ed25519.PrivateKey{env.user}, deposit))

	env.rt.SetClock(env.expiryDate + 1)

	terminate, err := Terminate(pub(env.authority), env.position, env.underlyingMint)
	require.NoError(t, err)
	assertCustomError(t, env.submit([]ed25519.PrivateKey{env.authority}, terminate), ErrorVaultNotEmpty)

	// The mint closures of the first sub-op were rolled back.
	assert.EqualValues(t, 10, env.tokenBalance(env.vault))
	mint, ok := env.rt.Lookup(env.principalMint)
	require.True(t, ok)
	assert.Len(t, mint.Data, token.MintSize)
}

func TestProcessor_TerminateBeforeExpiryRejected(t *testing.T) {
	env := newTestEnv(t)
	env.initialize()

	terminate, err := Terminate(pub(env.authority), env.position, env.underlyingMint)
	require.NoError(t, err)
	assertCustomError(t, env.submit([]ed25519.PrivateKey{env.authority}, terminate), ErrorExpiryNotElapsed)
}

func TestProcessor_Terminate(t *testing.T) {
	env := newTestEnv(t)
	env.initialize()
	env.depositAndTokenize(100)

	env.rt.SetClock(env.expiryDate + 1)

	redeem, err := RedeemPrincipalAndYield(pub(env.user), env.position, env.underlyingMint, 100)
	require.NoError(t, err)
	require.NoError(t, env.submit([]ed25519.PrivateKey{env.user}, redeem))

	authorityLamports := env.rt.Account(pub(env.authority)).Lamports

	terminate, err := Terminate(pub(env.authority), env.position, env.underlyingMint)
	require.NoError(t, err)
	require.NoError(t, env.submit([]ed25519.PrivateKey{env.authority}, terminate))

	// Vault, both mints and the position record are closed, with all
	// reclaimed lamports forwarded to the authority.
	for _, key := range []ed25519.PublicKey{env.position, env.vault, env.principalMint, env.yieldMint} {
		acc, ok := env.rt.Lookup(key)
		require.True(t, ok)
		assert.Empty(t, acc.Data)
		assert.EqualValues(t, 0, acc.Lamports)
		assert.EqualValues(t, system.SystemAccount, acc.Owner)
	}
	assert.Greater(t, env.rt.Account(pub(env.authority)).Lamports, authorityLamports)

	// Post-termination operations find no position.
	deposit, err := Deposit(pub(env.user), env.position, env.underlyingMint, 1)
	require.NoError(t, err)
	assertCustomError(t, env.submit([]ed25519.PrivateKey{env.user}, deposit), ErrorNotInitialized)
}

func TestProcessor_UnauthorizedMint(t *testing.T) {
	env := newTestEnv(t)
	env.initialize()
	env.depositAndTokenize(100)

	// Minting directly, without the position's seeded signature, fails at
	// the token program.
	in := token.MintTo(env.principalMint, env.userPrincipal, pub(env.user), 10)
	assertCustomError(t, env.submit([]ed25519.PrivateKey{env.user}, in), token.ErrorOwnerMismatch)

	assert.EqualValues(t, 100, env.mintSupply(env.principalMint))
}

func TestProcessor_AccountBindingChecks(t *testing.T) {
	env := newTestEnv(t)
	env.initialize()

	// A user token account that is not the wallet's associated account for
	// the underlying mint is rejected.
	in := solana.NewInstruction(
		ProgramKey,
		MarshalDeposit(10),
		solana.NewReadonlyAccountMeta(env.position, false),
		solana.NewAccountMeta(env.vault, false),
		solana.NewReadonlyAccountMeta(pub(env.user), true),
		solana.NewAccountMeta(env.userPrincipal, false),
		solana.NewReadonlyAccountMeta(token.ProgramKey, false),
	)
	assertCustomError(t, env.submit([]ed25519.PrivateKey{env.user}, in), ErrorInvalidUserAccount)

	// A vault account that is not the position's underlying vault is
	// rejected.
	in = solana.NewInstruction(
		ProgramKey,
		MarshalDeposit(10),
		solana.NewReadonlyAccountMeta(env.position, false),
		solana.NewAccountMeta(env.userUnderlying, false),
		solana.NewReadonlyAccountMeta(pub(env.user), true),
		solana.NewAccountMeta(env.userUnderlying, false),
		solana.NewReadonlyAccountMeta(token.ProgramKey, false),
	)
	assertCustomError(t, env.submit([]ed25519.PrivateKey{env.user}, in), ErrorIncorrectVaultAddress)
}

func TestProcessor_UninitializedPosition(t *testing.T) {
	env := newTestEnv(t)

	deposit, err := Deposit(pub(env.user), env.position, env.underlyingMint, 10)
	require.NoError(t, err)
	assertCustomError(t, env.submit([]ed25519.PrivateKey{env.user}, deposit), ErrorNotInitialized)
}

func TestProcessor_InvalidInstruction(t *testing.T) {
	env := newTestEnv(t)

	in := solana.NewInstruction(
		ProgramKey,
		[]byte{0xff, 0xff, 0xff, 0xff},
		solana.NewReadonlyAccountMeta(env.position, false),
	)
	assertCustomError(t, env.submit([]ed25519.PrivateKey{env.user}, in), ErrorInvalidInstruction)

	in = solana.NewInstruction(
		ProgramKey,
		MarshalDeposit(10)[:6],
		solana.NewReadonlyAccountMeta(env.position, false),
	)
	assertCustomError(t, env.submit([]ed25519.PrivateKey{env.user}, in), ErrorInvalidInstruction)
}
