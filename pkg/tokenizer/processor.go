package tokenizer

import (
	"bytes"
	"crypto/ed25519"

	"github.com/sirupsen/logrus"

	"github.com/serfrae/lysergic-tokenizer/pkg/solana"
	"github.com/serfrae/lysergic-tokenizer/pkg/solana/runtime"
	"github.com/serfrae/lysergic-tokenizer/pkg/solana/system"
	"github.com/serfrae/lysergic-tokenizer/pkg/solana/token"
)

const mintDecimals = 6

// Processor is the on-chain state machine of the tokenizer program. Every
// caller-supplied account is untrusted and is bound back to the position's
// identity before any state change; composite operations re-enter the
// single-operation handlers with rebuilt account slices so each sub-op runs
// the full validation contract.
type Processor struct {
	log *logrus.Entry
}

func NewProcessor() *Processor {
	return &Processor{
		log: logrus.StandardLogger().WithField("type", "tokenizer/processor"),
	}
}

// Execute implements runtime.Program.
func (p *Processor) Execute(ctx *runtime.Context, data []byte) error {
	instructionType, err := GetInstructionType(data)
	if err != nil {
		return err
	}

	accounts := make([]*runtime.BorrowedAccount, ctx.Len())
	for i := 0; i < ctx.Len(); i++ {
		accounts[i], err = ctx.Account(i)
		if err != nil {
			return err
		}
	}

	err = p.process(ctx, instructionType, accounts, data)
	if err != nil {
		log := p.log.WithField("instruction", instructionType.String())
		if custom, ok := err.(solana.CustomError); ok && ErrorString(custom) != "" {
			log = log.WithField("reason", ErrorString(custom))
		}
		log.WithError(err).Warn("instruction failed")
	}
	return err
}

func (p *Processor) process(ctx *runtime.Context, instructionType InstructionType, accounts []*runtime.BorrowedAccount, data []byte) error {
	switch instructionType {
	case InstructionInitializePosition:
		args, err := UnmarshalInitializePositionArgs(data)
		if err != nil {
			return err
		}
		return p.initializePosition(ctx, accounts, args)
	case InstructionInitializeMints:
		args, err := UnmarshalInitializeMintsArgs(data)
		if err != nil {
			return err
		}
		return p.initializeMints(ctx, accounts, args)
	case InstructionInitializePositionAndMints:
		args, err := UnmarshalInitializePositionArgs(data)
		if err != nil {
			return err
		}
		return p.initializePositionAndMints(ctx, accounts, args)
	case InstructionDeposit:
		amount, err := UnmarshalAmount(data)
		if err != nil {
			return err
		}
		return p.deposit(ctx, accounts, amount)
	case InstructionTokenizePrincipal:
		amount, err := UnmarshalAmount(data)
		if err != nil {
			return err
		}
		return p.tokenizePrincipal(ctx, accounts, amount)
	case InstructionTokenizeYield:
		amount, err := UnmarshalAmount(data)
		if err != nil {
			return err
		}
		return p.tokenizeYield(ctx, accounts, amount)
	case InstructionDepositAndTokenize:
		amount, err := UnmarshalAmount(data)
		if err != nil {
			return err
		}
		return p.depositAndTokenize(ctx, accounts, amount)
	case InstructionRedeemPrincipalAndYield:
		amount, err := UnmarshalAmount(data)
		if err != nil {
			return err
		}
		return p.redeemPrincipalAndYield(ctx, accounts, amount)
	case InstructionRedeemMaturePrincipal:
		amount, err := UnmarshalAmount(data)
		if err != nil {
			return err
		}
		return p.redeemMaturePrincipal(ctx, accounts, amount)
	case InstructionClaimYield:
		amount, err := UnmarshalAmount(data)
		if err != nil {
			return err
		}
		return p.claimYield(ctx, accounts, amount)
	case InstructionTerminate:
		if len(data) != discriminantSize {
			return ErrorInvalidInstruction
		}
		return p.terminate(ctx, accounts)
	case InstructionTerminatePosition:
		if len(data) != discriminantSize {
			return ErrorInvalidInstruction
		}
		return p.terminatePosition(ctx, accounts)
	case InstructionTerminateMints:
		if len(data) != discriminantSize {
			return ErrorInvalidInstruction
		}
		return p.terminateMints(ctx, accounts)
	}

	return ErrorInvalidInstruction
}

// Accounts:
//
//	0. position, 1. authority, 2. vault, 3. underlying mint,
//	4. token program, 5. associated token account program, 6. system program
func (p *Processor) initializePosition(ctx *runtime.Context, accounts []*runtime.BorrowedAccount, args *InitializePositionArgs) error {
	if len(accounts) < 7 {
		return runtime.ErrNotEnoughAccountKeys
	}

	position := accounts[0]
	authority := accounts[1]
	vault := accounts[2]
	underlyingMint := accounts[3]

	if err := verifyPrograms(accounts[4:7], token.ProgramKey, token.AssociatedTokenAccountProgramKey, system.SystemAccount); err != nil {
		return err
	}
	if err := verifySigner(authority); err != nil {
		return err
	}

	if !bytes.Equal(underlyingMint.Key(), args.UnderlyingMint) {
		return ErrorIncorrectUnderlyingMintAddress
	}

	expiryDate, ok := args.Expiry.ToExpiryDate(ctx.Clock())
	if !ok {
		return ErrorInvalidExpiryDate
	}

	derivedPosition, bump, err := GetPositionAddress(&GetPositionAddressArgs{
		UnderlyingMint: args.UnderlyingMint,
		ExpiryDate:     expiryDate,
	})
	if err != nil {
		return err
	}
	if !bytes.Equal(position.Key(), derivedPosition) {
		return ErrorIncorrectPositionAddress
	}

	derivedVault, err := token.GetAssociatedAccount(derivedPosition, args.UnderlyingMint)
	if err != nil {
		return err
	}
	if !bytes.Equal(vault.Key(), derivedVault) || !bytes.Equal(args.UnderlyingVault, derivedVault) {
		return ErrorIncorrectVaultAddress
	}

	derivedPrincipalMint, _, err := GetPrincipalMintAddress(&GetPrincipalMintAddressArgs{Position: derivedPosition})
	if err != nil {
		return err
	}
	if !bytes.Equal(args.PrincipalTokenMint, derivedPrincipalMint) {
		return ErrorIncorrectPrincipalMintAddress
	}
	derivedYieldMint, _, err := GetYieldMintAddress(&GetYieldMintAddressArgs{Position: derivedPosition})
	if err != nil {
		return err
	}
	if !bytes.Equal(args.YieldTokenMint, derivedYieldMint) {
		return ErrorIncorrectYieldMintAddress
	}

	if bytes.Equal(position.Owner(), ProgramKey) {
		return ErrorAlreadyInitialized
	}

	err = ctx.Invoke(
		system.CreateAccount(
			authority.Key(),
			position.Key(),
			ProgramKey,
			ctx.Rent(PositionSize),
			PositionSize,
		),
		GetPositionSignerSeeds(args.UnderlyingMint, expiryDate, bump),
	)
	if err != nil {
		return err
	}

	createVault, _, err := token.CreateAssociatedTokenAccount(authority.Key(), position.Key(), args.UnderlyingMint)
	if err != nil {
		return err
	}
	if err := ctx.Invoke(createVault); err != nil {
		return err
	}

	state := Position{
		Bump:               bump,
		Authority:          authority.Key(),
		PrincipalTokenMint: derivedPrincipalMint,
		YieldTokenMint:     derivedYieldMint,
		UnderlyingMint:     args.UnderlyingMint,
		UnderlyingVault:    derivedVault,
		ExpiryDate:         expiryDate,
		FixedAPY:           args.FixedAPY,
	}
	return position.SetData(state.Marshal())
}

// Accounts:
//
//	0. position, 1. authority, 2. underlying mint, 3. principal mint,
//	4. yield mint, 5. token program, 6. system program
func (p *Processor) initializeMints(ctx *runtime.Context, accounts []*runtime.BorrowedAccount, args *InitializeMintsArgs) error {
	if len(accounts) < 7 {
		return runtime.ErrNotEnoughAccountKeys
	}

	position := accounts[0]
	authority := accounts[1]
	underlyingMint := accounts[2]
	principalMint := accounts[3]
	yieldMint := accounts[4]

	if err := verifyPrograms(accounts[5:7], token.ProgramKey, system.SystemAccount); err != nil {
		return err
	}
	if err := verifySigner(authority); err != nil {
		return err
	}

	if !bytes.Equal(underlyingMint.Key(), args.UnderlyingMint) {
		return ErrorIncorrectUnderlyingMintAddress
	}

	// The position record may not exist yet when the mints are created in a
	// companion call before InitializePosition. With a record the addresses
	// are checked against it; without one they are checked against the
	// derivation anchored at the current block time.
	var expectedPrincipal, expectedYield ed25519.PublicKey
	if state, err := loadPosition(position); err == nil {
		if !bytes.Equal(state.UnderlyingMint, args.UnderlyingMint) {
			return ErrorIncorrectUnderlyingMintAddress
		}
		expectedPrincipal = state.PrincipalTokenMint
		expectedYield = state.YieldTokenMint
	} else {
		expiryDate, ok := args.Expiry.ToExpiryDate(ctx.Clock())
		if !ok {
			return ErrorInvalidExpiryDate
		}

		derivedPosition, _, err := GetPositionAddress(&GetPositionAddressArgs{
			UnderlyingMint: args.UnderlyingMint,
			ExpiryDate:     expiryDate,
		})
		if err != nil {
			return err
		}
		if !bytes.Equal(position.Key(), derivedPosition) {
			return ErrorIncorrectPositionAddress
		}

		expectedPrincipal, _, err = GetPrincipalMintAddress(&GetPrincipalMintAddressArgs{Position: derivedPosition})
		if err != nil {
			return err
		}
		expectedYield, _, err = GetYieldMintAddress(&GetYieldMintAddressArgs{Position: derivedPosition})
		if err != nil {
			return err
		}
	}

	if !bytes.Equal(principalMint.Key(), expectedPrincipal) {
		return ErrorIncorrectPrincipalMintAddress
	}
	if !bytes.Equal(yieldMint.Key(), expectedYield) {
		return ErrorIncorrectYieldMintAddress
	}

	_, principalBump, err := GetPrincipalMintAddress(&GetPrincipalMintAddressArgs{Position: position.Key()})
	if err != nil {
		return err
	}
	_, yieldBump, err := GetYieldMintAddress(&GetYieldMintAddressArgs{Position: position.Key()})
	if err != nil {
		return err
	}

	err = p.createMint(
		ctx,
		authority.Key(),
		principalMint.Key(),
		position.Key(),
		GetPrincipalMintSignerSeeds(position.Key(), principalBump),
	)
	if err != nil {
		return err
	}
	return p.createMint(
		ctx,
		authority.Key(),
		yieldMint.Key(),
		position.Key(),
		GetYieldMintSignerSeeds(position.Key(), yieldBump),
	)
}

// Accounts:
//
//	0. position, 1. authority, 2. vault, 3. underlying mint,
//	4. principal mint, 5. yield mint, 6. token program,
//	7. associated token account program, 8. system program
func (p *Processor) initializePositionAndMints(ctx *runtime.Context, accounts []*runtime.BorrowedAccount, args *InitializePositionArgs) error {
	if len(accounts) < 9 {
		return runtime.ErrNotEnoughAccountKeys
	}

	err := p.initializePosition(ctx, subAccounts(accounts, 0, 1, 2, 3, 6, 7, 8), args)
	if err != nil {
		return err
	}
	return p.initializeMints(ctx, subAccounts(accounts, 0, 1, 3, 4, 5, 6, 8), &InitializeMintsArgs{
		UnderlyingMint: args.UnderlyingMint,
		Expiry:         args.Expiry,
	})
}

// Accounts:
//
//	0. position, 1. vault, 2. user, 3. user underlying account,
//	4. token program
func (p *Processor) deposit(ctx *runtime.Context, accounts []*runtime.BorrowedAccount, amount uint64) error {
	if len(accounts) < 5 {
		return runtime.ErrNotEnoughAccountKeys
	}

	position := accounts[0]
	vault := accounts[1]
	user := accounts[2]
	userUnderlying := accounts[3]

	if err := verifyPrograms(accounts[4:5], token.ProgramKey); err != nil {
		return err
	}
	if err := verifySigner(user); err != nil {
		return err
	}

	state, err := loadPosition(position)
	if err != nil {
		return err
	}
	if !bytes.Equal(vault.Key(), state.UnderlyingVault) {
		return ErrorIncorrectVaultAddress
	}
	if err := verifyAssociatedAccount(userUnderlying, user.Key(), state.UnderlyingMint); err != nil {
		return err
	}

	if ctx.Clock() >= state.ExpiryDate {
		return ErrorExpiryElapsed
	}

	return ctx.Invoke(token.Transfer(userUnderlying.Key(), vault.Key(), user.Key(), amount))
}

// Accounts:
//
//	0. position, 1. principal mint, 2. user, 3. user principal account,
//	4. token program, 5. associated token account program, 6. system program
func (p *Processor) tokenizePrincipal(ctx *runtime.Context, accounts []*runtime.BorrowedAccount, amount uint64) error {
	return p.tokenize(ctx, accounts, amount, func(state *Position) (ed25519.PublicKey, solana.CustomError) {
		return state.PrincipalTokenMint, ErrorIncorrectPrincipalMintAddress
	})
}

// Accounts:
//
//	0. position, 1. yield mint, 2. user, 3. user yield account,
//	4. token program, 5. associated token account program, 6. system program
func (p *Processor) tokenizeYield(ctx *runtime.Context, accounts []*runtime.BorrowedAccount, amount uint64) error {
	return p.tokenize(ctx, accounts, amount, func(state *Position) (ed25519.PublicKey, solana.CustomError) {
		return state.YieldTokenMint, ErrorIncorrectYieldMintAddress
	})
}

func (p *Processor) tokenize(ctx *runtime.Context, accounts []*runtime.BorrowedAccount, amount uint64, boundMint func(*Position) (ed25519.PublicKey, solana.CustomError)) error {
	if len(accounts) < 7 {
		return runtime.ErrNotEnoughAccountKeys
	}

	position := accounts[0]
	mint := accounts[1]
	user := accounts[2]
	userAccount := accounts[3]

	if err := verifyPrograms(accounts[4:7], token.ProgramKey, token.AssociatedTokenAccountProgramKey, system.SystemAccount); err != nil {
		return err
	}
	if err := verifySigner(user); err != nil {
		return err
	}

	state, err := loadPosition(position)
	if err != nil {
		return err
	}

	expectedMint, mismatchErr := boundMint(state)
	if !bytes.Equal(mint.Key(), expectedMint) {
		return mismatchErr
	}
	if err := verifyAssociatedAccount(userAccount, user.Key(), expectedMint); err != nil {
		return err
	}

	if ctx.Clock() >= state.ExpiryDate {
		return ErrorExpiryElapsed
	}

	if err := p.ensureAssociatedAccount(ctx, userAccount, user.Key(), expectedMint); err != nil {
		return err
	}

	return ctx.Invoke(
		token.MintTo(mint.Key(), userAccount.Key(), position.Key(), amount),
		GetPositionSignerSeeds(state.UnderlyingMint, state.ExpiryDate, state.Bump),
	)
}

// Accounts:
//
//	0. position, 1. vault, 2. principal mint, 3. yield mint, 4. user,
//	5. user underlying account, 6. user principal account,
//	7. user yield account, 8. token program,
//	9. associated token account program, 10. system program
func (p *Processor) depositAndTokenize(ctx *runtime.Context, accounts []*runtime.BorrowedAccount, amount uint64) error {
	if len(accounts) < 11 {
		return runtime.ErrNotEnoughAccountKeys
	}

	if err := p.deposit(ctx, subAccounts(accounts, 0, 1, 4, 5, 8), amount); err != nil {
		return err
	}
	if err := p.tokenizePrincipal(ctx, subAccounts(accounts, 0, 2, 4, 6, 8, 9, 10), amount); err != nil {
		return err
	}
	return p.tokenizeYield(ctx, subAccounts(accounts, 0, 3, 4, 7, 8, 9, 10), amount)
}

// Accounts:
//
//	0. position, 1. vault, 2. underlying mint, 3. principal mint, 4. user,
//	5. user underlying account, 6. user principal account,
//	7. token program, 8. associated token account program, 9. system program
func (p *Processor) redeemMaturePrincipal(ctx *runtime.Context, accounts []*runtime.BorrowedAccount, amount uint64) error {
	return p.redeem(ctx, accounts, amount, false, func(state *Position) (ed25519.PublicKey, solana.CustomError) {
		return state.PrincipalTokenMint, ErrorIncorrectPrincipalMintAddress
	})
}

// Accounts:
//
//	0. position, 1. vault, 2. underlying mint, 3. yield mint, 4. user,
//	5. user underlying account, 6. user yield account,
//	7. token program, 8. associated token account program, 9. system program
func (p *Processor) claimYield(ctx *runtime.Context, accounts []*runtime.BorrowedAccount, amount uint64) error {
	return p.redeem(ctx, accounts, amount, true, func(state *Position) (ed25519.PublicKey, solana.CustomError) {
		return state.YieldTokenMint, ErrorIncorrectYieldMintAddress
	})
}

// Transfers underlying from the vault to the user under the position's
// seeded signature, then burns the matching derivative tokens.
//
// Principal redemption pays out exactly amount. A yield claim burns amount
// yield tokens but its payout is capped at the vault's remaining balance:
// there is no on-chain accrual model, so the claimable yield is whatever
// underlying the vault holds beyond outstanding principal.
func (p *Processor) redeem(ctx *runtime.Context, accounts []*runtime.BorrowedAccount, amount uint64, capped bool, boundMint func(*Position) (ed25519.PublicKey, solana.CustomError)) error {
	if len(accounts) < 10 {
		return runtime.ErrNotEnoughAccountKeys
	}

	position := accounts[0]
	vault := accounts[1]
	underlyingMint := accounts[2]
	mint := accounts[3]
	user := accounts[4]
	userUnderlying := accounts[5]
	userDerivative := accounts[6]

	if err := verifyPrograms(accounts[7:10], token.ProgramKey, token.AssociatedTokenAccountProgramKey, system.SystemAccount); err != nil {
		return err
	}
	if err := verifySigner(user); err != nil {
		return err
	}

	state, err := loadPosition(position)
	if err != nil {
		return err
	}
	if !bytes.Equal(vault.Key(), state.UnderlyingVault) {
		return ErrorIncorrectVaultAddress
	}
	if !bytes.Equal(underlyingMint.Key(), state.UnderlyingMint) {
		return ErrorIncorrectUnderlyingMintAddress
	}

	expectedMint, mismatchErr := boundMint(state)
	if !bytes.Equal(mint.Key(), expectedMint) {
		return mismatchErr
	}
	if err := verifyAssociatedAccount(userUnderlying, user.Key(), state.UnderlyingMint); err != nil {
		return err
	}
	if err := verifyAssociatedAccount(userDerivative, user.Key(), expectedMint); err != nil {
		return err
	}

	if ctx.Clock() < state.ExpiryDate {
		return ErrorExpiryNotElapsed
	}

	if err := p.ensureAssociatedAccount(ctx, userUnderlying, user.Key(), state.UnderlyingMint); err != nil {
		return err
	}

	payout := amount
	if capped {
		var vaultState token.Account
		if !vaultState.Unmarshal(vault.Data()) {
			return runtime.ErrInvalidAccountData
		}
		if vaultState.Amount < payout {
			payout = vaultState.Amount
		}
	}

	err = ctx.Invoke(
		token.Transfer(vault.Key(), userUnderlying.Key(), position.Key(), payout),
		GetPositionSignerSeeds(state.UnderlyingMint, state.ExpiryDate, state.Bump),
	)
	if err != nil {
		return err
	}

	return ctx.Invoke(token.Burn(userDerivative.Key(), mint.Key(), user.Key(), amount))
}

// Accounts:
//
//	0. position, 1. vault, 2. underlying mint, 3. principal mint,
//	4. yield mint, 5. user, 6. user underlying account,
//	7. user principal account, 8. user yield account, 9. token program,
//	10. associated token account program, 11. system program
func (p *Processor) redeemPrincipalAndYield(ctx *runtime.Context, accounts []*runtime.BorrowedAccount, amount uint64) error {
	if len(accounts) < 12 {
		return runtime.ErrNotEnoughAccountKeys
	}

	if err := p.redeemMaturePrincipal(ctx, subAccounts(accounts, 0, 1, 2, 3, 5, 6, 7, 9, 10, 11), amount); err != nil {
		return err
	}
	return p.claimYield(ctx, subAccounts(accounts, 0, 1, 2, 4, 5, 6, 8, 9, 10, 11), amount)
}

// Accounts:
//
//	0. position, 1. authority, 2. vault, 3. principal mint, 4. yield mint,
//	5. token program, 6. system program
func (p *Processor) terminate(ctx *runtime.Context, accounts []*runtime.BorrowedAccount) error {
	if len(accounts) < 7 {
		return runtime.ErrNotEnoughAccountKeys
	}

	if err := p.terminateMints(ctx, subAccounts(accounts, 0, 1, 3, 4, 5, 6)); err != nil {
		return err
	}
	return p.terminatePosition(ctx, subAccounts(accounts, 0, 1, 2, 5, 6))
}

// Accounts:
//
//	0. position, 1. authority, 2. vault, 3. token program, 4. system program
func (p *Processor) terminatePosition(ctx *runtime.Context, accounts []*runtime.BorrowedAccount) error {
	if len(accounts) < 5 {
		return runtime.ErrNotEnoughAccountKeys
	}

	position := accounts[0]
	authority := accounts[1]
	vault := accounts[2]

	if err := verifyPrograms(accounts[3:5], token.ProgramKey, system.SystemAccount); err != nil {
		return err
	}

	state, err := loadPosition(position)
	if err != nil {
		return err
	}
	if err := verifyAuthority(authority, state); err != nil {
		return err
	}
	if !bytes.Equal(vault.Key(), state.UnderlyingVault) {
		return ErrorIncorrectVaultAddress
	}

	if ctx.Clock() < state.ExpiryDate {
		return ErrorExpiryNotElapsed
	}

	var vaultState token.Account
	if !vaultState.Unmarshal(vault.Data()) {
		return runtime.ErrInvalidAccountData
	}
	if vaultState.Amount > 0 {
		return ErrorVaultNotEmpty
	}

	err = ctx.Invoke(
		token.CloseAccount(vault.Key(), authority.Key(), position.Key()),
		GetPositionSignerSeeds(state.UnderlyingMint, state.ExpiryDate, state.Bump),
	)
	if err != nil {
		return err
	}

	// Reclaim the position account itself: forward the residual lamports to
	// the authority, zero the record, and hand the account back to the
	// system program.
	lamports := position.Lamports()
	if err := position.SubLamports(lamports); err != nil {
		return err
	}
	if err := authority.AddLamports(lamports); err != nil {
		return err
	}
	if err := position.SetData(nil); err != nil {
		return err
	}
	return position.SetOwner(system.SystemAccount)
}

// Accounts:
//
//	0. position, 1. authority, 2. principal mint, 3. yield mint,
//	4. token program, 5. system program
func (p *Processor) terminateMints(ctx *runtime.Context, accounts []*runtime.BorrowedAccount) error {
	if len(accounts) < 6 {
		return runtime.ErrNotEnoughAccountKeys
	}

	position := accounts[0]
	authority := accounts[1]
	principalMint := accounts[2]
	yieldMint := accounts[3]

	if err := verifyPrograms(accounts[4:6], token.ProgramKey, system.SystemAccount); err != nil {
		return err
	}

	state, err := loadPosition(position)
	if err != nil {
		return err
	}
	if err := verifyAuthority(authority, state); err != nil {
		return err
	}
	if !bytes.Equal(principalMint.Key(), state.PrincipalTokenMint) {
		return ErrorIncorrectPrincipalMintAddress
	}
	if !bytes.Equal(yieldMint.Key(), state.YieldTokenMint) {
		return ErrorIncorrectYieldMintAddress
	}

	if ctx.Clock() < state.ExpiryDate {
		return ErrorExpiryNotElapsed
	}

	seeds := GetPositionSignerSeeds(state.UnderlyingMint, state.ExpiryDate, state.Bump)

	err = ctx.Invoke(token.CloseAccount(principalMint.Key(), authority.Key(), position.Key()), seeds)
	if err != nil {
		return err
	}
	return ctx.Invoke(token.CloseAccount(yieldMint.Key(), authority.Key(), position.Key()), seeds)
}

// Creates a rent-exempt mint account at a derived address and initializes it
// with the position as sole authority.
func (p *Processor) createMint(ctx *runtime.Context, funder, mint, authority ed25519.PublicKey, signerSeeds [][]byte) error {
	err := ctx.Invoke(
		system.CreateAccount(
			funder,
			mint,
			token.ProgramKey,
			ctx.Rent(token.MintSize),
			token.MintSize,
		),
		signerSeeds,
	)
	if err != nil {
		return err
	}
	return ctx.Invoke(token.InitializeMint(mint, authority, mintDecimals))
}

// Lazily creates the user's associated token account, paid for by the user.
func (p *Processor) ensureAssociatedAccount(ctx *runtime.Context, account *runtime.BorrowedAccount, wallet, mint ed25519.PublicKey) error {
	if bytes.Equal(account.Owner(), token.ProgramKey) {
		return nil
	}

	create, _, err := token.CreateAssociatedTokenAccount(wallet, wallet, mint)
	if err != nil {
		return err
	}
	return ctx.Invoke(create)
}

// The position record is only valid on an account owned by this program
// whose address matches the derivation over its own contents.
func loadPosition(account *runtime.BorrowedAccount) (*Position, error) {
	if !bytes.Equal(account.Owner(), ProgramKey) {
		return nil, ErrorNotInitialized
	}

	var state Position
	if !state.Unmarshal(account.Data()) {
		return nil, ErrorNotInitialized
	}

	derived, err := solana.CreateProgramAddress(
		ProgramKey,
		GetPositionSignerSeeds(state.UnderlyingMint, state.ExpiryDate, state.Bump)...,
	)
	if err != nil || !bytes.Equal(derived, account.Key()) {
		return nil, ErrorIncorrectPositionAddress
	}

	return &state, nil
}

func verifyAuthority(authority *runtime.BorrowedAccount, state *Position) error {
	if !bytes.Equal(authority.Key(), state.Authority) || !authority.IsSigner {
		return ErrorUnauthorised
	}
	return nil
}

func verifySigner(account *runtime.BorrowedAccount) error {
	if !account.IsSigner {
		return runtime.ErrMissingRequiredSignature
	}
	return nil
}

func verifyPrograms(accounts []*runtime.BorrowedAccount, expected ...ed25519.PublicKey) error {
	for i, account := range accounts {
		if !bytes.Equal(account.Key(), expected[i]) {
			return runtime.ErrIncorrectProgramID
		}
	}
	return nil
}

func verifyAssociatedAccount(account *runtime.BorrowedAccount, wallet, mint ed25519.PublicKey) error {
	expected, err := token.GetAssociatedAccount(wallet, mint)
	if err != nil {
		return err
	}
	if !bytes.Equal(account.Key(), expected) {
		return ErrorInvalidUserAccount
	}
	return nil
}

func subAccounts(accounts []*runtime.BorrowedAccount, indices ...int) []*runtime.BorrowedAccount {
	out := make([]*runtime.BorrowedAccount, len(indices))
	for i, index := range indices {
		out[i] = accounts[index]
	}
	return out
}
