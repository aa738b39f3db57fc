package tokenizer

import (
	"github.com/serfrae/lysergic-tokenizer/pkg/solana"
)

// Custom errors raised by the tokenizer program. The numeric values are part
// of the wire contract and surface to clients through the transaction error
// channel.
const (
	ErrorInvalidInstruction solana.CustomError = iota
	ErrorAlreadyInitialized
	ErrorNotInitialized
	ErrorInvalidUserAccount
	ErrorIncorrectPositionAddress
	ErrorIncorrectVaultAddress
	ErrorIncorrectUnderlyingMintAddress
	ErrorIncorrectPrincipalMintAddress
	ErrorIncorrectYieldMintAddress
	ErrorInvalidExpiryDate
	ErrorExpiryElapsed
	ErrorExpiryNotElapsed
	ErrorUnauthorised
	ErrorInsufficientFunds
	ErrorVaultNotEmpty
)

var errorStrings = map[solana.CustomError]string{
	ErrorInvalidInstruction:             "invalid instruction",
	ErrorAlreadyInitialized:             "position already initialized",
	ErrorNotInitialized:                 "position not initialized",
	ErrorInvalidUserAccount:             "user account is not the associated token account",
	ErrorIncorrectPositionAddress:       "incorrect position address",
	ErrorIncorrectVaultAddress:          "incorrect vault address",
	ErrorIncorrectUnderlyingMintAddress: "incorrect underlying mint address",
	ErrorIncorrectPrincipalMintAddress:  "incorrect principal mint address",
	ErrorIncorrectYieldMintAddress:      "incorrect yield mint address",
	ErrorInvalidExpiryDate:              "invalid expiry date",
	ErrorExpiryElapsed:                  "expiry date has elapsed",
	ErrorExpiryNotElapsed:               "expiry date has not elapsed",
	ErrorUnauthorised:                   "unauthorised",
	ErrorInsufficientFunds:              "insufficient funds",
	ErrorVaultNotEmpty:                  "vault is not empty",
}

// ErrorString maps a tokenizer custom error to its log message. Unknown
// codes return an empty string.
func ErrorString(err solana.CustomError) string {
	return errorStrings[err]
}
