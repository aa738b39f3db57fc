package tokenizer

import (
	"crypto/ed25519"

	"github.com/serfrae/lysergic-tokenizer/pkg/solana"
	"github.com/serfrae/lysergic-tokenizer/pkg/solana/system"
	"github.com/serfrae/lysergic-tokenizer/pkg/solana/token"
)

// InitializePosition creates the position account and its underlying vault.
//
// The anchor timestamp must be the chain's current block time so the derived
// position address matches the processor's recomputation.
func InitializePosition(authority, underlyingMint ed25519.PublicKey, expiry Expiry, anchor int64, fixedAPY uint64) (solana.Instruction, error) {
	derived, err := deriveAll(underlyingMint, expiry, anchor)
	if err != nil {
		return solana.Instruction{}, err
	}

	// Accounts expected by this instruction:
	//
	//   0. `[writable]` The position account.
	//   1. `[writable,signer]` The authority funding the position.
	//   2. `[writable]` The underlying vault.
	//   3. `[]` The underlying mint.
	//   4. `[]` The token program.
	//   5. `[]` The associated token account program.
	//   6. `[]` The system program.
	return solana.NewInstruction(
		ProgramKey,
		MarshalInitializePosition(&InitializePositionArgs{
			UnderlyingVault:    derived.vault,
			UnderlyingMint:     underlyingMint,
			PrincipalTokenMint: derived.principalMint,
			YieldTokenMint:     derived.yieldMint,
			Expiry:             expiry,
			FixedAPY:           fixedAPY,
		}),
		solana.NewAccountMeta(derived.position, false),
		solana.NewAccountMeta(authority, true),
		solana.NewAccountMeta(derived.vault, false),
		solana.NewReadonlyAccountMeta(underlyingMint, false),
		solana.NewReadonlyAccountMeta(token.ProgramKey, false),
		solana.NewReadonlyAccountMeta(token.AssociatedTokenAccountProgramKey, false),
		solana.NewReadonlyAccountMeta(system.SystemAccount, false),
	), nil
}

// InitializeMints creates the principal and yield mints with the position as
// sole authority.
func InitializeMints(authority, underlyingMint ed25519.PublicKey, expiry Expiry, anchor int64) (solana.Instruction, error) {
	derived, err := deriveAll(underlyingMint, expiry, anchor)
	if err != nil {
		return solana.Instruction{}, err
	}

	// Accounts expected by this instruction:
	//
	//   0. `[]` The position account.
	//   1. `[writable,signer]` The authority funding the mints.
	//   2. `[]` The underlying mint.
	//   3. `[writable]` The principal token mint.
	//   4. `[writable]` The yield token mint.
	//   5. `[]` The token program.
	//   6. `[]` The system program.
	return solana.NewInstruction(
		ProgramKey,
		MarshalInitializeMints(&InitializeMintsArgs{
			UnderlyingMint: underlyingMint,
			Expiry:         expiry,
		}),
		solana.NewReadonlyAccountMeta(derived.position, false),
		solana.NewAccountMeta(authority, true),
		solana.NewReadonlyAccountMeta(underlyingMint, false),
		solana.NewAccountMeta(derived.principalMint, false),
		solana.NewAccountMeta(derived.yieldMint, false),
		solana.NewReadonlyAccountMeta(token.ProgramKey, false),
		solana.NewReadonlyAccountMeta(system.SystemAccount, false),
	), nil
}

// InitializePositionAndMints creates the position, its vault, and both
// derivative mints in a single atomic instruction.
func InitializePositionAndMints(authority, underlyingMint ed25519.PublicKey, expiry Expiry, anchor int64, fixedAPY uint64) (solana.Instruction, error) {
	derived, err := deriveAll(underlyingMint, expiry, anchor)
	if err != nil {
		return solana.Instruction{}, err
	}

	// Accounts expected by this instruction:
	//
	//   0. `[writable]` The position account.
	//   1. `[writable,signer]` The authority funding the position.
	//   2. `[writable]` The underlying vault.
	//   3. `[]` The underlying mint.
	//   4. `[writable]` The principal token mint.
	//   5. `[writable]` The yield token mint.
	//   6. `[]` The token program.
	//   7. `[]` The associated token account program.
	//   8. `[]` The system program.
	return solana.NewInstruction(
		ProgramKey,
		MarshalInitializePositionAndMints(&InitializePositionArgs{
			UnderlyingVault:    derived.vault,
			UnderlyingMint:     underlyingMint,
			PrincipalTokenMint: derived.principalMint,
			YieldTokenMint:     derived.yieldMint,
			Expiry:             expiry,
			FixedAPY:           fixedAPY,
		}),
		solana.NewAccountMeta(derived.position, false),
		solana.NewAccountMeta(authority, true),
		solana.NewAccountMeta(derived.vault, false),
		solana.NewReadonlyAccountMeta(underlyingMint, false),
		solana.NewAccountMeta(derived.principalMint, false),
		solana.NewAccountMeta(derived.yieldMint, false),
		solana.NewReadonlyAccountMeta(token.ProgramKey, false),
		solana.NewReadonlyAccountMeta(token.AssociatedTokenAccountProgramKey, false),
		solana.NewReadonlyAccountMeta(system.SystemAccount, false),
	), nil
}

// Deposit transfers underlying from the user's associated account to the
// position's vault.
func Deposit(user, position, underlyingMint ed25519.PublicKey, amount uint64) (solana.Instruction, error) {
	vault, err := token.GetAssociatedAccount(position, underlyingMint)
	if err != nil {
		return solana.Instruction{}, err
	}
	userUnderlying, err := token.GetAssociatedAccount(user, underlyingMint)
	if err != nil {
		return solana.Instruction{}, err
	}

	// Accounts expected by this instruction:
	//
	//   0. `[]` The position account.
	//   1. `[writable]` The underlying vault.
	//   2. `[signer]` The depositing user.
	//   3. `[writable]` The user's underlying token account.
	//   4. `[]` The token program.
	return solana.NewInstruction(
		ProgramKey,
		MarshalDeposit(amount),
		solana.NewReadonlyAccountMeta(position, false),
		solana.NewAccountMeta(vault, false),
		solana.NewReadonlyAccountMeta(user, true),
		solana.NewAccountMeta(userUnderlying, false),
		solana.NewReadonlyAccountMeta(token.ProgramKey, false),
	), nil
}

// TokenizePrincipal mints principal tokens to the user's associated
// principal token account, creating it first if absent.
func TokenizePrincipal(user, position ed25519.PublicKey, amount uint64) (solana.Instruction, error) {
	principalMint, _, err := GetPrincipalMintAddress(&GetPrincipalMintAddressArgs{Position: position})
	if err != nil {
		return solana.Instruction{}, err
	}
	userPrincipal, err := token.GetAssociatedAccount(user, principalMint)
	if err != nil {
		return solana.Instruction{}, err
	}

	// Accounts expected by this instruction:
	//
	//   0. `[]` The position account.
	//   1. `[writable]` The principal token mint.
	//   2. `[writable,signer]` The user receiving principal tokens.
	//   3. `[writable]` The user's principal token account.
	//   4. `[]` The token program.
	//   5. `[]` The associated token account program.
	//   6. `[]` The system program.
	return solana.NewInstruction(
		ProgramKey,
		MarshalTokenizePrincipal(amount),
		solana.NewReadonlyAccountMeta(position, false),
		solana.NewAccountMeta(principalMint, false),
		solana.NewAccountMeta(user, true),
		solana.NewAccountMeta(userPrincipal, false),
		solana.NewReadonlyAccountMeta(token.ProgramKey, false),
		solana.NewReadonlyAccountMeta(token.AssociatedTokenAccountProgramKey, false),
		solana.NewReadonlyAccountMeta(system.SystemAccount, false),
	), nil
}

// TokenizeYield mints yield tokens to the user's associated yield token
// account, creating it first if absent.
func TokenizeYield(user, position ed25519.PublicKey, amount uint64) (solana.Instruction, error) {
	yieldMint, _, err := GetYieldMintAddress(&GetYieldMintAddressArgs{Position: position})
	if err != nil {
		return solana.Instruction{}, err
	}
	userYield, err := token.GetAssociatedAccount(user, yieldMint)
	if err != nil {
		return solana.Instruction{}, err
	}

	// Accounts expected by this instruction:
	//
	//   0. `[]` The position account.
	//   1. `[writable]` The yield token mint.
	//   2. `[writable,signer]` The user receiving yield tokens.
	//   3. `[writable]` The user's yield token account.
	//   4. `[]` The token program.
	//   5. `[]` The associated token account program.
	//   6. `[]` The system program.
	return solana.NewInstruction(
		ProgramKey,
		MarshalTokenizeYield(amount),
		solana.NewReadonlyAccountMeta(position, false),
		solana.NewAccountMeta(yieldMint, false),
		solana.NewAccountMeta(user, true),
		solana.NewAccountMeta(userYield, false),
		solana.NewReadonlyAccountMeta(token.ProgramKey, false),
		solana.NewReadonlyAccountMeta(token.AssociatedTokenAccountProgramKey, false),
		solana.NewReadonlyAccountMeta(system.SystemAccount, false),
	), nil
}

// DepositAndTokenize atomically deposits underlying and mints an equal
// amount of principal and yield tokens.
func DepositAndTokenize(user, position, underlyingMint ed25519.PublicKey, amount uint64) (solana.Instruction, error) {
	vault, err := token.GetAssociatedAccount(position, underlyingMint)
	if err != nil {
		return solana.Instruction{}, err
	}
	principalMint, _, err := GetPrincipalMintAddress(&GetPrincipalMintAddressArgs{Position: position})
	if err != nil {
		return solana.Instruction{}, err
	}
	yieldMint, _, err := GetYieldMintAddress(&GetYieldMintAddressArgs{Position: position})
	if err != nil {
		return solana.Instruction{}, err
	}
	userUnderlying, err := token.GetAssociatedAccount(user, underlyingMint)
	if err != nil {
		return solana.Instruction{}, err
	}
	userPrincipal, err := token.GetAssociatedAccount(user, principalMint)
	if err != nil {
		return solana.Instruction{}, err
	}
	userYield, err := token.GetAssociatedAccount(user, yieldMint)
	if err != nil {
		return solana.Instruction{}, err
	}

	// Accounts expected by this instruction:
	//
	//   0. `[]` The position account.
	//   1. `[writable]` The underlying vault.
	//   2. `[writable]` The principal token mint.
	//   3. `[writable]` The yield token mint.
	//   4. `[writable,signer]` The depositing user.
	//   5. `[writable]` The user's underlying token account.
	//   6. `[writable]` The user's principal token account.
	//   7. `[writable]` The user's yield token account.
	//   8. `[]` The token program.
	//   9. `[]` The associated token account program.
	//  10. `[]` The system program.
	return solana.NewInstruction(
		ProgramKey,
		MarshalDepositAndTokenize(amount),
		solana.NewReadonlyAccountMeta(position, false),
		solana.NewAccountMeta(vault, false),
		solana.NewAccountMeta(principalMint, false),
		solana.NewAccountMeta(yieldMint, false),
		solana.NewAccountMeta(user, true),
		solana.NewAccountMeta(userUnderlying, false),
		solana.NewAccountMeta(userPrincipal, false),
		solana.NewAccountMeta(userYield, false),
		solana.NewReadonlyAccountMeta(token.ProgramKey, false),
		solana.NewReadonlyAccountMeta(token.AssociatedTokenAccountProgramKey, false),
		solana.NewReadonlyAccountMeta(system.SystemAccount, false),
	), nil
}

// RedeemMaturePrincipal redeems principal tokens for underlying after
// expiry.
func RedeemMaturePrincipal(user, position, underlyingMint ed25519.PublicKey, amount uint64) (solana.Instruction, error) {
	vault, err := token.GetAssociatedAccount(position, underlyingMint)
	if err != nil {
		return solana.Instruction{}, err
	}
	principalMint, _, err := GetPrincipalMintAddress(&GetPrincipalMintAddressArgs{Position: position})
	if err != nil {
		return solana.Instruction{}, err
	}
	userUnderlying, err := token.GetAssociatedAccount(user, underlyingMint)
	if err != nil {
		return solana.Instruction{}, err
	}
	userPrincipal, err := token.GetAssociatedAccount(user, principalMint)
	if err != nil {
		return solana.Instruction{}, err
	}

	// Accounts expected by this instruction:
	//
	//   0. `[]` The position account.
	//   1. `[writable]` The underlying vault.
	//   2. `[]` The underlying mint.
	//   3. `[writable]` The principal token mint.
	//   4. `[writable,signer]` The redeeming user.
	//   5. `[writable]` The user's underlying token account.
	//   6. `[writable]` The user's principal token account.
	//   7. `[]` The token program.
	//   8. `[]` The associated token account program.
	//   9. `[]` The system program.
	return solana.NewInstruction(
		ProgramKey,
		MarshalRedeemMaturePrincipal(amount),
		solana.NewReadonlyAccountMeta(position, false),
		solana.NewAccountMeta(vault, false),
		solana.NewReadonlyAccountMeta(underlyingMint, false),
		solana.NewAccountMeta(principalMint, false),
		solana.NewAccountMeta(user, true),
		solana.NewAccountMeta(userUnderlying, false),
		solana.NewAccountMeta(userPrincipal, false),
		solana.NewReadonlyAccountMeta(token.ProgramKey, false),
		solana.NewReadonlyAccountMeta(token.AssociatedTokenAccountProgramKey, false),
		solana.NewReadonlyAccountMeta(system.SystemAccount, false),
	), nil
}

// ClaimYield claims underlying denominated yield against yield tokens after
// expiry.
func ClaimYield(user, position, underlyingMint ed25519.PublicKey, amount uint64) (solana.Instruction, error) {
	vault, err := token.GetAssociatedAccount(position, underlyingMint)
	if err != nil {
		return solana.Instruction{}, err
	}
	yieldMint, _, err := GetYieldMintAddress(&GetYieldMintAddressArgs{Position: position})
	if err != nil {
		return solana.Instruction{}, err
	}
	userUnderlying, err := token.GetAssociatedAccount(user, underlyingMint)
	if err != nil {
		return solana.Instruction{}, err
	}
	userYield, err := token.GetAssociatedAccount(user, yieldMint)
	if err != nil {
		return solana.Instruction{}, err
	}

	// Accounts expected by this instruction:
	//
	//   0. `[]` The position account.
	//   1. `[writable]` The underlying vault.
	//   2. `[]` The underlying mint.
	//   3. `[writable]` The yield token mint.
	//   4. `[writable,signer]` The claiming user.
	//   5. `[writable]` The user's underlying token account.
	//   6. `[writable]` The user's yield token account.
	//   7. `[]` The token program.
	//   8. `[]` The associated token account program.
	//   9. `[]` The system program.
	return solana.NewInstruction(
		ProgramKey,
		MarshalClaimYield(amount),
		solana.NewReadonlyAccountMeta(position, false),
		solana.NewAccountMeta(vault, false),
		solana.NewReadonlyAccountMeta(underlyingMint, false),
		solana.NewAccountMeta(yieldMint, false),
		solana.NewAccountMeta(user, true),
		solana.NewAccountMeta(userUnderlying, false),
		solana.NewAccountMeta(userYield, false),
		solana.NewReadonlyAccountMeta(token.ProgramKey, false),
		solana.NewReadonlyAccountMeta(token.AssociatedTokenAccountProgramKey, false),
		solana.NewReadonlyAccountMeta(system.SystemAccount, false),
	), nil
}

// RedeemPrincipalAndYield atomically redeems principal and claims yield for
// the same amount.
func RedeemPrincipalAndYield(user, position, underlyingMint ed25519.PublicKey, amount uint64) (solana.Instruction, error) {
	vault, err := token.GetAssociatedAccount(position, underlyingMint)
	if err != nil {
		return solana.Instruction{}, err
	}
	principalMint, _, err := GetPrincipalMintAddress(&GetPrincipalMintAddressArgs{Position: position})
	if err != nil {
		return solana.Instruction{}, err
	}
	yieldMint, _, err := GetYieldMintAddress(&GetYieldMintAddressArgs{Position: position})
	if err != nil {
		return solana.Instruction{}, err
	}
	userUnderlying, err := token.GetAssociatedAccount(user, underlyingMint)
	if err != nil {
		return solana.Instruction{}, err
	}
	userPrincipal, err := token.GetAssociatedAccount(user, principalMint)
	if err != nil {
		return solana.Instruction{}, err
	}
	userYield, err := token.GetAssociatedAccount(user, yieldMint)
	if err != nil {
		return solana.Instruction{}, err
	}

	// Accounts expected by this instruction:
	//
	//   0. `[]` The position account.
	//   1. `[writable]` The underlying vault.
	//   2. `[]` The underlying mint.
	//   3. `[writable]` The principal token mint.
	//   4. `[writable]` The yield token mint.
	//   5. `[writable,signer]` The redeeming user.
	//   6. `[writable]` The user's underlying token account.
	//   7. `[writable]` The user's principal token account.
	//   8. `[writable]` The user's yield token account.
	//   9. `[]` The token program.
	//  10. `[]` The associated token account program.
	//  11. `[]` The system program.
	return solana.NewInstruction(
		ProgramKey,
		MarshalRedeemPrincipalAndYield(amount),
		solana.NewReadonlyAccountMeta(position, false),
		solana.NewAccountMeta(vault, false),
		solana.NewReadonlyAccountMeta(underlyingMint, false),
		solana.NewAccountMeta(principalMint, false),
		solana.NewAccountMeta(yieldMint, false),
		solana.NewAccountMeta(user, true),
		solana.NewAccountMeta(userUnderlying, false),
		solana.NewAccountMeta(userPrincipal, false),
		solana.NewAccountMeta(userYield, false),
		solana.NewReadonlyAccountMeta(token.ProgramKey, false),
		solana.NewReadonlyAccountMeta(token.AssociatedTokenAccountProgramKey, false),
		solana.NewReadonlyAccountMeta(system.SystemAccount, false),
	), nil
}

// Terminate dismantles the position entirely, closing both mints, the vault
// and the position account, with all reclaimed lamports paid to the
// authority.
func Terminate(authority, position, underlyingMint ed25519.PublicKey) (solana.Instruction, error) {
	vault, err := token.GetAssociatedAccount(position, underlyingMint)
	if err != nil {
		return solana.Instruction{}, err
	}
	principalMint, _, err := GetPrincipalMintAddress(&GetPrincipalMintAddressArgs{Position: position})
	if err != nil {
		return solana.Instruction{}, err
	}
	yieldMint, _, err := GetYieldMintAddress(&GetYieldMintAddressArgs{Position: position})
	if err != nil {
		return solana.Instruction{}, err
	}

	// Accounts expected by this instruction:
	//
	//   0. `[writable]` The position account.
	//   1. `[writable,signer]` The position authority.
	//   2. `[writable]` The underlying vault.
	//   3. `[writable]` The principal token mint.
	//   4. `[writable]` The yield token mint.
	//   5. `[]` The token program.
	//   6. `[]` The system program.
	return solana.NewInstruction(
		ProgramKey,
		MarshalTerminate(),
		solana.NewAccountMeta(position, false),
		solana.NewAccountMeta(authority, true),
		solana.NewAccountMeta(vault, false),
		solana.NewAccountMeta(principalMint, false),
		solana.NewAccountMeta(yieldMint, false),
		solana.NewReadonlyAccountMeta(token.ProgramKey, false),
		solana.NewReadonlyAccountMeta(system.SystemAccount, false),
	), nil
}

// TerminatePosition closes the vault and the position account, forwarding
// residual lamports to the authority.
func TerminatePosition(authority, position, underlyingMint ed25519.PublicKey) (solana.Instruction, error) {
	vault, err := token.GetAssociatedAccount(position, underlyingMint)
	if err != nil {
		return solana.Instruction{}, err
	}

	// Accounts expected by this instruction:
	//
	//   0. `[writable]` The position account.
	//   1. `[writable,signer]` The position authority.
	//   2. `[writable]` The underlying vault.
	//   3. `[]` The token program.
	//   4. `[]` The system program.
	return solana.NewInstruction(
		ProgramKey,
		MarshalTerminatePosition(),
		solana.NewAccountMeta(position, false),
		solana.NewAccountMeta(authority, true),
		solana.NewAccountMeta(vault, false),
		solana.NewReadonlyAccountMeta(token.ProgramKey, false),
		solana.NewReadonlyAccountMeta(system.SystemAccount, false),
	), nil
}

// TerminateMints closes both derivative mints, forwarding their lamports to
// the authority.
func TerminateMints(authority, position ed25519.PublicKey) (solana.Instruction, error) {
	principalMint, _, err := GetPrincipalMintAddress(&GetPrincipalMintAddressArgs{Position: position})
	if err != nil {
		return solana.Instruction{}, err
	}
	yieldMint, _, err := GetYieldMintAddress(&GetYieldMintAddressArgs{Position: position})
	if err != nil {
		return solana.Instruction{}, err
	}

	// Accounts expected by this instruction:
	//
	//   0. `[]` The position account.
	//   1. `[writable,signer]` The position authority.
	//   2. `[writable]` The principal token mint.
	//   3. `[writable]` The yield token mint.
	//   4. `[]` The token program.
	//   5. `[]` The system program.
	return solana.NewInstruction(
		ProgramKey,
		MarshalTerminateMints(),
		solana.NewReadonlyAccountMeta(position, false),
		solana.NewAccountMeta(authority, true),
		solana.NewAccountMeta(principalMint, false),
		solana.NewAccountMeta(yieldMint, false),
		solana.NewReadonlyAccountMeta(token.ProgramKey, false),
		solana.NewReadonlyAccountMeta(system.SystemAccount, false),
	), nil
}

type derivedAddresses struct {
	position      ed25519.PublicKey
	vault         ed25519.PublicKey
	principalMint ed25519.PublicKey
	yieldMint     ed25519.PublicKey
}

func deriveAll(underlyingMint ed25519.PublicKey, expiry Expiry, anchor int64) (*derivedAddresses, error) {
	expiryDate, ok := expiry.ToExpiryDate(anchor)
	if !ok {
		return nil, ErrorInvalidExpiryDate
	}

	position, _, err := GetPositionAddress(&GetPositionAddressArgs{
		UnderlyingMint: underlyingMint,
		ExpiryDate:     expiryDate,
	})
	if err != nil {
		return nil, err
	}
	vault, err := token.GetAssociatedAccount(position, underlyingMint)
	if err != nil {
		return nil, err
	}
	principalMint, _, err := GetPrincipalMintAddress(&GetPrincipalMintAddressArgs{Position: position})
	if err != nil {
		return nil, err
	}
	yieldMint, _, err := GetYieldMintAddress(&GetYieldMintAddressArgs{Position: position})
	if err != nil {
		return nil, err
	}

	return &derivedAddresses{
		position:      position,
		vault:         vault,
		principalMint: principalMint,
		yieldMint:     yieldMint,
	}, nil
}
