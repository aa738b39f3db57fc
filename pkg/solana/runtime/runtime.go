// Package runtime provides a deterministic, in-memory implementation of the
// Solana transaction runtime.
//
// It executes compiled transactions against a set of native Go program
// implementations, with the same privilege, ownership and atomicity rules a
// validator applies. It exists so that on-chain program logic can be driven
// end to end without a test validator.
package runtime

import (
	"crypto/ed25519"

	"github.com/mr-tron/base58"
	"github.com/sirupsen/logrus"

	"github.com/serfrae/lysergic-tokenizer/pkg/solana"
)

const maxInvokeDepth = 5

// Program is a native implementation of an on-chain program.
type Program interface {
	Execute(ctx *Context, data []byte) error
}

// Runtime holds the ledger state (accounts) and the registered programs.
//
// A Runtime is not safe for concurrent use.
type Runtime struct {
	log      *logrus.Entry
	accounts map[string]*Account
	programs map[string]Program
	clock    int64
}

// New returns a Runtime with the system, token and associated token account
// programs registered.
func New() *Runtime {
	r := &Runtime{
		log:      logrus.StandardLogger().WithField("type", "solana/runtime"),
		accounts: make(map[string]*Account),
		programs: make(map[string]Program),
	}

	r.Register(systemProgramKey(), &systemProgram{})
	r.Register(tokenProgramKey(), &tokenProgram{})
	r.Register(associatedTokenProgramKey(), &associatedTokenProgram{})

	return r
}

// Register installs a native program at the provided address.
func (r *Runtime) Register(program ed25519.PublicKey, p Program) {
	r.programs[string(program)] = p

	acc := r.Account(program)
	acc.Executable = true
}

// SetClock sets the unix timestamp reported to executing programs.
func (r *Runtime) SetClock(unixTime int64) {
	r.clock = unixTime
}

// Clock returns the unix timestamp reported to executing programs.
func (r *Runtime) Clock() int64 {
	return r.clock
}

// Rent returns the minimum balance for rent exemption of an account of the
// provided data size.
//
// Reference: https://github.com/solana-labs/solana/blob/12d0b0e9c0ae866467e27830249d9f42bbb70969/sdk/program/src/rent.rs#L32-L37
func (r *Runtime) Rent(dataSize uint64) uint64 {
	return (dataSize + 128) * 3480 * 2
}

// Account returns the account at the provided address, creating a zeroed
// system owned account if none exists.
func (r *Runtime) Account(key ed25519.PublicKey) *Account {
	if acc, ok := r.accounts[string(key)]; ok {
		return acc
	}

	acc := &Account{
		Key:   append(ed25519.PublicKey{}, key...),
		Owner: make(ed25519.PublicKey, ed25519.PublicKeySize),
	}
	r.accounts[string(key)] = acc
	return acc
}

// Lookup returns the account at the provided address, if it exists.
func (r *Runtime) Lookup(key ed25519.PublicKey) (*Account, bool) {
	acc, ok := r.accounts[string(key)]
	return acc, ok
}

// Execute processes every instruction of the transaction in order. If any
// instruction fails, all state changes are rolled back and an
// *solana.InstructionError identifying the failed instruction is returned.
//
// Signatures are not verified. Signer privileges are taken from the message
// header, matching a validator's view after signature verification.
func (r *Runtime) Execute(txn solana.Transaction) error {
	m := txn.Message

	signers := make(map[string]struct{})
	for i := 0; i < int(m.Header.NumSignatures) && i < len(m.Accounts); i++ {
		signers[string(m.Accounts[i])] = struct{}{}
	}

	snapshot := r.snapshot()

	for i, ci := range m.Instructions {
		if int(ci.ProgramIndex) >= len(m.Accounts) {
			r.restore(snapshot)
			return &solana.InstructionError{Index: i, Err: ErrMissingAccount}
		}

		program := m.Accounts[ci.ProgramIndex]

		metas := make([]solana.AccountMeta, len(ci.Accounts))
		for j, accountIndex := range ci.Accounts {
			if int(accountIndex) >= len(m.Accounts) {
				r.restore(snapshot)
				return &solana.InstructionError{Index: i, Err: ErrMissingAccount}
			}

			key := m.Accounts[accountIndex]
			_, isSigner := signers[string(key)]
			metas[j] = solana.AccountMeta{
				PublicKey:  key,
				IsSigner:   isSigner,
				IsWritable: isWritable(m, int(accountIndex)),
			}
		}

		if err := r.executeInstruction(program, metas, ci.Data, signers, 1); err != nil {
			r.restore(snapshot)
			return &solana.InstructionError{Index: i, Err: err}
		}
	}

	return nil
}

func (r *Runtime) executeInstruction(program ed25519.PublicKey, metas []solana.AccountMeta, data []byte, signers map[string]struct{}, depth int) error {
	if depth > maxInvokeDepth {
		return ErrCallDepth
	}

	p, ok := r.programs[string(program)]
	if !ok {
		return ErrUnsupportedProgram
	}

	childSigners := make(map[string]struct{})

	accounts := make([]*BorrowedAccount, len(metas))
	for i, meta := range metas {
		if meta.IsSigner {
			if _, ok := signers[string(meta.PublicKey)]; !ok {
				r.log.WithField("account", base58.Encode(meta.PublicKey)).Warn("missing signer privilege")
				return ErrMissingRequiredSignature
			}
			childSigners[string(meta.PublicKey)] = struct{}{}
		}

		accounts[i] = &BorrowedAccount{
			account:    r.Account(meta.PublicKey),
			IsSigner:   meta.IsSigner,
			IsWritable: meta.IsWritable,
		}
	}

	ctx := &Context{
		rt:       r,
		program:  program,
		accounts: accounts,
		signers:  childSigners,
		depth:    depth,
	}

	return p.Execute(ctx, data)
}

func (r *Runtime) snapshot() map[string]*Account {
	snapshot := make(map[string]*Account, len(r.accounts))
	for k, v := range r.accounts {
		snapshot[k] = v.clone()
	}
	return snapshot
}

func (r *Runtime) restore(snapshot map[string]*Account) {
	r.accounts = snapshot
}

// isWritable applies the account ordering rules of a compiled message.
//
// Reference: https://docs.solana.com/transaction#account-addresses-format
func isWritable(m solana.Message, index int) bool {
	numSignatures := int(m.Header.NumSignatures)
	if index < numSignatures {
		return index < numSignatures-int(m.Header.NumReadonlySigned)
	}
	return index < len(m.Accounts)-int(m.Header.NumReadOnly)
}

// Context is the view of a single executing instruction.
type Context struct {
	rt       *Runtime
	program  ed25519.PublicKey
	accounts []*BorrowedAccount
	signers  map[string]struct{}
	depth    int
}

// Program returns the address the current program is executing as.
func (c *Context) Program() ed25519.PublicKey {
	return c.program
}

// Account returns the borrowed account at the provided instruction index.
func (c *Context) Account(index int) (*BorrowedAccount, error) {
	if index >= len(c.accounts) {
		return nil, ErrNotEnoughAccountKeys
	}
	return c.accounts[index], nil
}

// Len returns the number of accounts passed to the instruction.
func (c *Context) Len() int {
	return len(c.accounts)
}

// Clock returns the unix timestamp of the runtime clock.
func (c *Context) Clock() int64 {
	return c.rt.clock
}

// Rent returns the minimum balance for rent exemption.
func (c *Context) Rent(dataSize uint64) uint64 {
	return c.rt.Rent(dataSize)
}

// Invoke executes the instruction as a cross-program invocation. Each seed
// group derives a program address of the calling program which is granted
// signer privilege for the inner instruction.
func (c *Context) Invoke(in solana.Instruction, signerSeeds ...[][]byte) error {
	signers := make(map[string]struct{}, len(c.signers)+len(signerSeeds))
	for k := range c.signers {
		signers[k] = struct{}{}
	}

	for _, seeds := range signerSeeds {
		derived, err := solana.CreateProgramAddress(c.program, seeds...)
		if err != nil {
			return ErrInvalidSeeds
		}
		signers[string(derived)] = struct{}{}
	}

	return c.rt.executeInstruction(in.Program, in.Accounts, in.Data, signers, c.depth+1)
}
