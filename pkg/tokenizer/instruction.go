package tokenizer

import (
	"crypto/ed25519"
	"encoding/binary"

	solanabinary "github.com/serfrae/lysergic-tokenizer/pkg/solana/binary"
)

// InstructionType is the u32 little-endian discriminant identifying a
// tokenizer instruction. Parameters follow in declaration order.
type InstructionType uint32

const (
	InstructionInitializePosition InstructionType = iota
	InstructionInitializeMints
	InstructionInitializePositionAndMints
	InstructionDeposit
	InstructionTokenizePrincipal
	InstructionTokenizeYield
	InstructionDepositAndTokenize
	InstructionRedeemPrincipalAndYield
	InstructionRedeemMaturePrincipal
	InstructionClaimYield
	InstructionTerminate
	InstructionTerminatePosition
	InstructionTerminateMints
)

func (t InstructionType) String() string {
	switch t {
	case InstructionInitializePosition:
		return "initialize_position"
	case InstructionInitializeMints:
		return "initialize_mints"
	case InstructionInitializePositionAndMints:
		return "initialize_position_and_mints"
	case InstructionDeposit:
		return "deposit"
	case InstructionTokenizePrincipal:
		return "tokenize_principal"
	case InstructionTokenizeYield:
		return "tokenize_yield"
	case InstructionDepositAndTokenize:
		return "deposit_and_tokenize"
	case InstructionRedeemPrincipalAndYield:
		return "redeem_principal_and_yield"
	case InstructionRedeemMaturePrincipal:
		return "redeem_mature_principal"
	case InstructionClaimYield:
		return "claim_yield"
	case InstructionTerminate:
		return "terminate"
	case InstructionTerminatePosition:
		return "terminate_position"
	case InstructionTerminateMints:
		return "terminate_mints"
	}
	return "unknown"
}

const (
	discriminantSize = 4

	initializePositionArgsSize = discriminantSize + 4*ed25519.PublicKeySize + 4 + 8
	initializeMintsArgsSize    = discriminantSize + ed25519.PublicKeySize + 4
	amountArgsSize             = discriminantSize + 8
)

// GetInstructionType decodes the discriminant of an instruction. Decoding
// failure surfaces as ErrorInvalidInstruction with no partial commit.
func GetInstructionType(data []byte) (InstructionType, error) {
	if len(data) < discriminantSize {
		return 0, ErrorInvalidInstruction
	}
	return InstructionType(binary.LittleEndian.Uint32(data)), nil
}

type InitializePositionArgs struct {
	UnderlyingVault    ed25519.PublicKey
	UnderlyingMint     ed25519.PublicKey
	PrincipalTokenMint ed25519.PublicKey
	YieldTokenMint     ed25519.PublicKey
	Expiry             Expiry
	FixedAPY           uint64
}

type InitializeMintsArgs struct {
	UnderlyingMint ed25519.PublicKey
	Expiry         Expiry
}

func MarshalInitializePosition(args *InitializePositionArgs) []byte {
	return marshalInitializePositionArgs(InstructionInitializePosition, args)
}

func MarshalInitializePositionAndMints(args *InitializePositionArgs) []byte {
	return marshalInitializePositionArgs(InstructionInitializePositionAndMints, args)
}

func MarshalInitializeMints(args *InitializeMintsArgs) []byte {
	data := make([]byte, initializeMintsArgsSize)

	offset := discriminantSize
	binary.LittleEndian.PutUint32(data, uint32(InstructionInitializeMints))
	solanabinary.PutKey32(data[offset:], args.UnderlyingMint, &offset)
	solanabinary.PutUint32(data[offset:], uint32(args.Expiry), &offset)

	return data
}

func MarshalDeposit(amount uint64) []byte {
	return marshalAmount(InstructionDeposit, amount)
}

func MarshalTokenizePrincipal(amount uint64) []byte {
	return marshalAmount(InstructionTokenizePrincipal, amount)
}

func MarshalTokenizeYield(amount uint64) []byte {
	return marshalAmount(InstructionTokenizeYield, amount)
}

func MarshalDepositAndTokenize(amount uint64) []byte {
	return marshalAmount(InstructionDepositAndTokenize, amount)
}

func MarshalRedeemPrincipalAndYield(amount uint64) []byte {
	return marshalAmount(InstructionRedeemPrincipalAndYield, amount)
}

func MarshalRedeemMaturePrincipal(principalAmount uint64) []byte {
	return marshalAmount(InstructionRedeemMaturePrincipal, principalAmount)
}

func MarshalClaimYield(yieldAmount uint64) []byte {
	return marshalAmount(InstructionClaimYield, yieldAmount)
}

func MarshalTerminate() []byte {
	return marshalEmpty(InstructionTerminate)
}

func MarshalTerminatePosition() []byte {
	return marshalEmpty(InstructionTerminatePosition)
}

func MarshalTerminateMints() []byte {
	return marshalEmpty(InstructionTerminateMints)
}

// UnmarshalInitializePositionArgs decodes the parameters of an
// InitializePosition or InitializePositionAndMints instruction.
func UnmarshalInitializePositionArgs(data []byte) (*InitializePositionArgs, error) {
	if len(data) != initializePositionArgsSize {
		return nil, ErrorInvalidInstruction
	}

	var args InitializePositionArgs
	var expiry uint32

	offset := discriminantSize
	solanabinary.GetKey32(data[offset:], &args.UnderlyingVault, &offset)
	solanabinary.GetKey32(data[offset:], &args.UnderlyingMint, &offset)
	solanabinary.GetKey32(data[offset:], &args.PrincipalTokenMint, &offset)
	solanabinary.GetKey32(data[offset:], &args.YieldTokenMint, &offset)
	solanabinary.GetUint32(data[offset:], &expiry, &offset)
	solanabinary.GetUint64(data[offset:], &args.FixedAPY, &offset)

	args.Expiry = Expiry(expiry)
	return &args, nil
}

// UnmarshalInitializeMintsArgs decodes the parameters of an InitializeMints
// instruction.
func UnmarshalInitializeMintsArgs(data []byte) (*InitializeMintsArgs, error) {
	if len(data) != initializeMintsArgsSize {
		return nil, ErrorInvalidInstruction
	}

	var args InitializeMintsArgs
	var expiry uint32

	offset := discriminantSize
	solanabinary.GetKey32(data[offset:], &args.UnderlyingMint, &offset)
	solanabinary.GetUint32(data[offset:], &expiry, &offset)

	args.Expiry = Expiry(expiry)
	return &args, nil
}

// UnmarshalAmount decodes the single u64 parameter carried by the deposit,
// tokenize, redeem and claim instructions.
func UnmarshalAmount(data []byte) (uint64, error) {
	if len(data) != amountArgsSize {
		return 0, ErrorInvalidInstruction
	}
	return binary.LittleEndian.Uint64(data[discriminantSize:]), nil
}

func marshalInitializePositionArgs(instructionType InstructionType, args *InitializePositionArgs) []byte {
	data := make([]byte, initializePositionArgsSize)

	offset := discriminantSize
	binary.LittleEndian.PutUint32(data, uint32(instructionType))
	solanabinary.PutKey32(data[offset:], args.UnderlyingVault, &offset)
	solanabinary.PutKey32(data[offset:], args.UnderlyingMint, &offset)
	solanabinary.PutKey32(data[offset:], args.PrincipalTokenMint, &offset)
	solanabinary.PutKey32(data[offset:], args.YieldTokenMint, &offset)
	solanabinary.PutUint32(data[offset:], uint32(args.Expiry), &offset)
	solanabinary.PutUint64(data[offset:], args.FixedAPY, &offset)

	return data
}

func marshalAmount(instructionType InstructionType, amount uint64) []byte {
	data := make([]byte, amountArgsSize)
	binary.LittleEndian.PutUint32(data, uint32(instructionType))
	binary.LittleEndian.PutUint64(data[discriminantSize:], amount)
	return data
}

func marshalEmpty(instructionType InstructionType) []byte {
	data := make([]byte, discriminantSize)
	binary.LittleEndian.PutUint32(data, uint32(instructionType))
	return data
}
