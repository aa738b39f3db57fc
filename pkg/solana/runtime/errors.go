package runtime

import (
	"github.com/pkg/errors"

	"github.com/serfrae/lysergic-tokenizer/pkg/solana"
)

// Instruction level errors mirror the keys reported by a validator so that
// callers can match on solana.InstructionError.ErrorKey().
var (
	ErrInvalidArgument           = instructionError(solana.InstructionErrorInvalidArgument)
	ErrInvalidInstructionData    = instructionError(solana.InstructionErrorInvalidInstructionData)
	ErrInvalidAccountData        = instructionError(solana.InstructionErrorInvalidAccountData)
	ErrAccountDataTooSmall       = instructionError(solana.InstructionErrorAccountDataTooSmall)
	ErrInsufficientFunds         = instructionError(solana.InstructionErrorInsufficientFunds)
	ErrIncorrectProgramID        = instructionError(solana.InstructionErrorIncorrectProgramID)
	ErrMissingRequiredSignature  = instructionError(solana.InstructionErrorMissingRequiredSignature)
	ErrAccountAlreadyInitialized = instructionError(solana.InstructionErrorAccountAlreadyInitialized)
	ErrUninitializedAccount      = instructionError(solana.InstructionErrorUninitializedAccount)
	ErrNotEnoughAccountKeys      = instructionError(solana.InstructionErrorNotEnoughAccountKeys)
	ErrReadonlyLamportChange     = instructionError(solana.InstructionErrorReadonlyLamportChange)
	ErrReadonlyDataModified      = instructionError(solana.InstructionErrorReadonlyDataModified)
	ErrCallDepth                 = instructionError(solana.InstructionErrorCallDepth)
	ErrMissingAccount            = instructionError(solana.InstructionErrorMissingAccount)
	ErrMaxSeedLengthExceeded     = instructionError(solana.InstructionErrorMaxSeedLengthExceeded)
	ErrInvalidSeeds              = instructionError(solana.InstructionErrorInvalidSeeds)

	ErrArithmeticOverflow = instructionError(solana.InstructionErrorGenericError)

	ErrUnsupportedProgram = errors.New("UnsupportedProgramId")
)

func instructionError(key solana.InstructionErrorKey) error {
	return errors.New(string(key))
}
