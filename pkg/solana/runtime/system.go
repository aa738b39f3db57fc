package runtime

import (
	"bytes"
	"crypto/ed25519"
	"encoding/binary"

	"github.com/serfrae/lysergic-tokenizer/pkg/solana"
	"github.com/serfrae/lysergic-tokenizer/pkg/solana/system"
)

// System program errors.
//
// Reference: https://github.com/solana-labs/solana/blob/f02a78d8fff2dd7297dc6ce6eb5a68a3002f5359/sdk/program/src/system_instruction.rs#L20-L38
const (
	systemErrorAccountAlreadyInUse solana.CustomError = iota
	systemErrorResultWithNegativeLamports
	systemErrorInvalidProgramID
	systemErrorInvalidAccountDataLength
)

func systemProgramKey() ed25519.PublicKey {
	return system.ProgramKey[:]
}

type systemProgram struct{}

func (p *systemProgram) Execute(ctx *Context, data []byte) error {
	if len(data) < 4 {
		return ErrInvalidInstructionData
	}

	switch binary.LittleEndian.Uint32(data) {
	case system.CommandCreateAccount:
		return p.createAccount(ctx, data)
	case system.CommandAssign:
		return p.assign(ctx, data)
	case system.CommandTransfer:
		return p.transfer(ctx, data)
	default:
		return ErrInvalidInstructionData
	}
}

func (p *systemProgram) createAccount(ctx *Context, data []byte) error {
	if len(data) != 4+2*8+32 {
		return ErrInvalidInstructionData
	}

	lamports := binary.LittleEndian.Uint64(data[4:])
	size := binary.LittleEndian.Uint64(data[4+8:])
	owner := ed25519.PublicKey(data[4+2*8:])

	funder, err := ctx.Account(0)
	if err != nil {
		return err
	}
	account, err := ctx.Account(1)
	if err != nil {
		return err
	}

	if !funder.IsSigner || !account.IsSigner {
		return ErrMissingRequiredSignature
	}
	if account.Lamports() > 0 || len(account.Data()) > 0 || !bytes.Equal(account.Owner(), systemProgramKey()) {
		return systemErrorAccountAlreadyInUse
	}

	if err := funder.SubLamports(lamports); err != nil {
		return systemErrorResultWithNegativeLamports
	}
	if err := account.AddLamports(lamports); err != nil {
		return err
	}
	if err := account.Allocate(size); err != nil {
		return err
	}
	return account.SetOwner(owner)
}

func (p *systemProgram) assign(ctx *Context, data []byte) error {
	if len(data) != 4+32 {
		return ErrInvalidInstructionData
	}

	account, err := ctx.Account(0)
	if err != nil {
		return err
	}
	if !account.IsSigner {
		return ErrMissingRequiredSignature
	}

	return account.SetOwner(data[4:])
}

func (p *systemProgram) transfer(ctx *Context, data []byte) error {
	if len(data) != 4+8 {
		return ErrInvalidInstructionData
	}

	lamports := binary.LittleEndian.Uint64(data[4:])

	sender, err := ctx.Account(0)
	if err != nil {
		return err
	}
	recipient, err := ctx.Account(1)
	if err != nil {
		return err
	}

	if !sender.IsSigner {
		return ErrMissingRequiredSignature
	}
	if len(sender.Data()) > 0 {
		return ErrInvalidArgument
	}
	if lamports > sender.Lamports() {
		return systemErrorResultWithNegativeLamports
	}

	if err := sender.SubLamports(lamports); err != nil {
		return err
	}
	return recipient.AddLamports(lamports)
}
