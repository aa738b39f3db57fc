package runtime

import (
	"bytes"
	"crypto/ed25519"
	"encoding/binary"

	"github.com/serfrae/lysergic-tokenizer/pkg/solana"
	"github.com/serfrae/lysergic-tokenizer/pkg/solana/system"
	"github.com/serfrae/lysergic-tokenizer/pkg/solana/token"
)

func tokenProgramKey() ed25519.PublicKey {
	return token.ProgramKey
}

func associatedTokenProgramKey() ed25519.PublicKey {
	return token.AssociatedTokenAccountProgramKey
}

type tokenProgram struct{}

func (p *tokenProgram) Execute(ctx *Context, data []byte) error {
	if len(data) == 0 {
		return token.ErrorInvalidInstruction
	}

	switch token.Command(data[0]) {
	case token.CommandInitializeMint:
		return p.initializeMint(ctx, data)
	case token.CommandInitializeAccount:
		return p.initializeAccount(ctx)
	case token.CommandTransfer:
		return p.transfer(ctx, data)
	case token.CommandMintTo:
		return p.mintTo(ctx, data)
	case token.CommandBurn:
		return p.burn(ctx, data)
	case token.CommandCloseAccount:
		return p.closeAccount(ctx)
	case token.CommandSetAuthority:
		return p.setAuthority(ctx, data)
	default:
		return token.ErrorInvalidInstruction
	}
}

func (p *tokenProgram) initializeMint(ctx *Context, data []byte) error {
	if len(data) < 1+1+32+1 {
		return token.ErrorInvalidInstruction
	}

	account, err := ctx.Account(0)
	if err != nil {
		return err
	}

	if !bytes.Equal(account.Owner(), tokenProgramKey()) {
		return ErrIncorrectProgramID
	}
	if len(account.Data()) != token.MintSize {
		return ErrInvalidAccountData
	}

	var mint token.Mint
	if mint.Unmarshal(account.Data()) && mint.IsInitialized {
		return token.ErrorAlreadyInUse
	}
	if account.Lamports() < ctx.Rent(token.MintSize) {
		return token.ErrorNotRentExempt
	}

	mint = token.Mint{
		MintAuthority: data[2 : 2+32],
		Decimals:      data[1],
		IsInitialized: true,
	}
	return account.SetData(mint.Marshal())
}

func (p *tokenProgram) initializeAccount(ctx *Context) error {
	account, err := ctx.Account(0)
	if err != nil {
		return err
	}
	mintAccount, err := ctx.Account(1)
	if err != nil {
		return err
	}
	owner, err := ctx.Account(2)
	if err != nil {
		return err
	}

	if !bytes.Equal(account.Owner(), tokenProgramKey()) {
		return ErrIncorrectProgramID
	}
	if len(account.Data()) != token.AccountSize {
		return ErrInvalidAccountData
	}

	var existing token.Account
	if existing.Unmarshal(account.Data()) && existing.State != token.AccountStateUninitialized {
		return token.ErrorAlreadyInUse
	}
	if account.Lamports() < ctx.Rent(token.AccountSize) {
		return token.ErrorNotRentExempt
	}

	var mint token.Mint
	if !mint.Unmarshal(mintAccount.Data()) || !mint.IsInitialized {
		return token.ErrorInvalidMint
	}

	tokenAccount := token.Account{
		Mint:  mintAccount.Key(),
		Owner: owner.Key(),
		State: token.AccountStateInitialized,
	}
	return account.SetData(tokenAccount.Marshal())
}

func (p *tokenProgram) transfer(ctx *Context, data []byte) error {
	if len(data) != 9 {
		return token.ErrorInvalidInstruction
	}
	amount := binary.LittleEndian.Uint64(data[1:])

	source, err := ctx.Account(0)
	if err != nil {
		return err
	}
	dest, err := ctx.Account(1)
	if err != nil {
		return err
	}
	owner, err := ctx.Account(2)
	if err != nil {
		return err
	}

	var src, dst token.Account
	if err := unmarshalTokenAccount(source, &src); err != nil {
		return err
	}
	if err := unmarshalTokenAccount(dest, &dst); err != nil {
		return err
	}

	if !bytes.Equal(src.Mint, dst.Mint) {
		return token.ErrorMintMismatch
	}
	if !bytes.Equal(src.Owner, owner.Key()) {
		return token.ErrorOwnerMismatch
	}
	if !owner.IsSigner {
		return ErrMissingRequiredSignature
	}
	if amount > src.Amount {
		return token.ErrorInsufficientFunds
	}
	if dst.Amount+amount < dst.Amount {
		return token.ErrorOverflow
	}

	src.Amount -= amount

	// Self transfers short circuit after the balance check.
	if bytes.Equal(source.Key(), dest.Key()) {
		return nil
	}

	dst.Amount += amount

	if err := source.SetData(src.Marshal()); err != nil {
		return err
	}
	return dest.SetData(dst.Marshal())
}

func (p *tokenProgram) mintTo(ctx *Context, data []byte) error {
	if len(data) != 9 {
		return token.ErrorInvalidInstruction
	}
	amount := binary.LittleEndian.Uint64(data[1:])

	mintAccount, err := ctx.Account(0)
	if err != nil {
		return err
	}
	dest, err := ctx.Account(1)
	if err != nil {
		return err
	}
	authority, err := ctx.Account(2)
	if err != nil {
		return err
	}

	var mint token.Mint
	if !mint.Unmarshal(mintAccount.Data()) || !mint.IsInitialized {
		return token.ErrorInvalidMint
	}

	var dst token.Account
	if err := unmarshalTokenAccount(dest, &dst); err != nil {
		return err
	}

	if !bytes.Equal(dst.Mint, mintAccount.Key()) {
		return token.ErrorMintMismatch
	}
	if len(mint.MintAuthority) == 0 {
		return token.ErrorFixedSupply
	}
	if !bytes.Equal(mint.MintAuthority, authority.Key()) {
		return token.ErrorOwnerMismatch
	}
	if !authority.IsSigner {
		return ErrMissingRequiredSignature
	}
	if mint.Supply+amount < mint.Supply || dst.Amount+amount < dst.Amount {
		return token.ErrorOverflow
	}

	mint.Supply += amount
	dst.Amount += amount

	if err := mintAccount.SetData(mint.Marshal()); err != nil {
		return err
	}
	return dest.SetData(dst.Marshal())
}

func (p *tokenProgram) burn(ctx *Context, data []byte) error {
	if len(data) != 9 {
		return token.ErrorInvalidInstruction
	}
	amount := binary.LittleEndian.Uint64(data[1:])

	account, err := ctx.Account(0)
	if err != nil {
		return err
	}
	mintAccount, err := ctx.Account(1)
	if err != nil {
		return err
	}
	owner, err := ctx.Account(2)
	if err != nil {
		return err
	}

	var src token.Account
	if err := unmarshalTokenAccount(account, &src); err != nil {
		return err
	}

	var mint token.Mint
	if !mint.Unmarshal(mintAccount.Data()) || !mint.IsInitialized {
		return token.ErrorInvalidMint
	}

	if !bytes.Equal(src.Mint, mintAccount.Key()) {
		return token.ErrorMintMismatch
	}
	if !bytes.Equal(src.Owner, owner.Key()) {
		return token.ErrorOwnerMismatch
	}
	if !owner.IsSigner {
		return ErrMissingRequiredSignature
	}
	if amount > src.Amount {
		return token.ErrorInsufficientFunds
	}
	if amount > mint.Supply {
		return token.ErrorOverflow
	}

	src.Amount -= amount
	mint.Supply -= amount

	if err := account.SetData(src.Marshal()); err != nil {
		return err
	}
	return mintAccount.SetData(mint.Marshal())
}

func (p *tokenProgram) closeAccount(ctx *Context) error {
	account, err := ctx.Account(0)
	if err != nil {
		return err
	}
	dest, err := ctx.Account(1)
	if err != nil {
		return err
	}
	owner, err := ctx.Account(2)
	if err != nil {
		return err
	}

	if !owner.IsSigner {
		return ErrMissingRequiredSignature
	}

	switch len(account.Data()) {
	case token.AccountSize:
		var src token.Account
		if err := unmarshalTokenAccount(account, &src); err != nil {
			return err
		}
		if src.Amount != 0 {
			return token.ErrorNonNativeHasBalance
		}

		closeAuthority := src.Owner
		if len(src.CloseAuthority) > 0 {
			closeAuthority = src.CloseAuthority
		}
		if !bytes.Equal(closeAuthority, owner.Key()) {
			return token.ErrorOwnerMismatch
		}
	case token.MintSize:
		// The runtime extends the token program to allow closing a mint,
		// provided the mint authority signs and no supply is outstanding.
		var mint token.Mint
		if !mint.Unmarshal(account.Data()) || !mint.IsInitialized {
			return token.ErrorInvalidMint
		}
		if mint.Supply != 0 {
			return token.ErrorNonNativeHasBalance
		}
		if !bytes.Equal(mint.MintAuthority, owner.Key()) {
			return token.ErrorOwnerMismatch
		}
	default:
		return ErrInvalidAccountData
	}

	if err := dest.AddLamports(account.Lamports()); err != nil {
		return err
	}
	if err := account.SetLamports(0); err != nil {
		return err
	}
	if err := account.SetData(nil); err != nil {
		return err
	}
	return account.SetOwner(systemProgramKey())
}

func (p *tokenProgram) setAuthority(ctx *Context, data []byte) error {
	if len(data) < 3 {
		return token.ErrorInvalidInstruction
	}

	account, err := ctx.Account(0)
	if err != nil {
		return err
	}
	authority, err := ctx.Account(1)
	if err != nil {
		return err
	}

	if !authority.IsSigner {
		return ErrMissingRequiredSignature
	}

	var newAuthority ed25519.PublicKey
	if data[2] == 1 {
		if len(data) != 3+ed25519.PublicKeySize {
			return token.ErrorInvalidInstruction
		}
		newAuthority = data[3:]
	}

	switch len(account.Data()) {
	case token.MintSize:
		var mint token.Mint
		if !mint.Unmarshal(account.Data()) || !mint.IsInitialized {
			return token.ErrorInvalidMint
		}
		if token.AuthorityType(data[1]) != token.AuthorityTypeMintTokens {
			return token.ErrorAuthorityTypeNotSupported
		}
		if !bytes.Equal(mint.MintAuthority, authority.Key()) {
			return token.ErrorOwnerMismatch
		}

		mint.MintAuthority = newAuthority
		return account.SetData(mint.Marshal())
	case token.AccountSize:
		var src token.Account
		if err := unmarshalTokenAccount(account, &src); err != nil {
			return err
		}
		switch token.AuthorityType(data[1]) {
		case token.AuthorityTypeAccountHolder:
			if !bytes.Equal(src.Owner, authority.Key()) {
				return token.ErrorOwnerMismatch
			}
			src.Owner = newAuthority
		case token.AuthorityTypeCloseAccount:
			if !bytes.Equal(src.Owner, authority.Key()) {
				return token.ErrorOwnerMismatch
			}
			src.CloseAuthority = newAuthority
		default:
			return token.ErrorAuthorityTypeNotSupported
		}
		return account.SetData(src.Marshal())
	default:
		return ErrInvalidAccountData
	}
}

func unmarshalTokenAccount(b *BorrowedAccount, out *token.Account) error {
	if !bytes.Equal(b.Owner(), tokenProgramKey()) {
		return ErrIncorrectProgramID
	}
	if !out.Unmarshal(b.Data()) {
		return ErrInvalidAccountData
	}
	if out.State == token.AccountStateUninitialized {
		return token.ErrorUninitializedState
	}
	return nil
}

// associatedTokenProgram implements the create instruction of the associated
// token account program.
//
// Reference: https://github.com/solana-labs/solana-program-library/blob/0639953c7dd0f5228c3ceda3ba68fece3b46ff1d/associated-token-account/program/src/processor.rs
type associatedTokenProgram struct{}

func (p *associatedTokenProgram) Execute(ctx *Context, data []byte) error {
	if len(data) != 0 {
		return ErrInvalidInstructionData
	}

	funder, err := ctx.Account(0)
	if err != nil {
		return err
	}
	address, err := ctx.Account(1)
	if err != nil {
		return err
	}
	wallet, err := ctx.Account(2)
	if err != nil {
		return err
	}
	mint, err := ctx.Account(3)
	if err != nil {
		return err
	}

	if !funder.IsSigner {
		return ErrMissingRequiredSignature
	}

	expected, bump, err := solana.FindProgramAddressAndBump(
		associatedTokenProgramKey(),
		wallet.Key(),
		tokenProgramKey(),
		mint.Key(),
	)
	if err != nil {
		return ErrInvalidSeeds
	}
	if !bytes.Equal(expected, address.Key()) {
		return ErrInvalidSeeds
	}

	// Creating an existing associated account is a no-op so that the create
	// instruction is idempotent.
	if bytes.Equal(address.Owner(), tokenProgramKey()) {
		return nil
	}

	seeds := [][]byte{wallet.Key(), tokenProgramKey(), mint.Key(), {bump}}

	err = ctx.Invoke(
		system.CreateAccount(
			funder.Key(),
			address.Key(),
			tokenProgramKey(),
			ctx.Rent(token.AccountSize),
			token.AccountSize,
		),
		seeds,
	)
	if err != nil {
		return err
	}

	return ctx.Invoke(
		token.InitializeAccount(address.Key(), mint.Key(), wallet.Key()),
		seeds,
	)
}
