package runtime

import (
	"crypto/ed25519"
)

// Account is the ledger state of a single address.
type Account struct {
	Key        ed25519.PublicKey
	Lamports   uint64
	Owner      ed25519.PublicKey
	Data       []byte
	Executable bool
}

func (a *Account) clone() *Account {
	data := make([]byte, len(a.Data))
	copy(data, a.Data)

	return &Account{
		Key:        a.Key,
		Lamports:   a.Lamports,
		Owner:      append(ed25519.PublicKey{}, a.Owner...),
		Data:       data,
		Executable: a.Executable,
	}
}

// BorrowedAccount is an account borrowed by an executing instruction, along
// with the privileges the instruction holds over it.
type BorrowedAccount struct {
	account *Account

	IsSigner   bool
	IsWritable bool
}

func (b *BorrowedAccount) Key() ed25519.PublicKey {
	return b.account.Key
}

func (b *BorrowedAccount) Lamports() uint64 {
	return b.account.Lamports
}

func (b *BorrowedAccount) Owner() ed25519.PublicKey {
	return b.account.Owner
}

func (b *BorrowedAccount) Data() []byte {
	return b.account.Data
}

func (b *BorrowedAccount) SetLamports(lamports uint64) error {
	if !b.IsWritable {
		return ErrReadonlyLamportChange
	}

	b.account.Lamports = lamports
	return nil
}

func (b *BorrowedAccount) AddLamports(lamports uint64) error {
	if b.account.Lamports+lamports < b.account.Lamports {
		return ErrArithmeticOverflow
	}

	return b.SetLamports(b.account.Lamports + lamports)
}

func (b *BorrowedAccount) SubLamports(lamports uint64) error {
	if lamports > b.account.Lamports {
		return ErrInsufficientFunds
	}

	return b.SetLamports(b.account.Lamports - lamports)
}

func (b *BorrowedAccount) SetOwner(owner ed25519.PublicKey) error {
	if !b.IsWritable {
		return ErrReadonlyDataModified
	}

	b.account.Owner = append(ed25519.PublicKey{}, owner...)
	return nil
}

func (b *BorrowedAccount) SetData(data []byte) error {
	if !b.IsWritable {
		return ErrReadonlyDataModified
	}

	b.account.Data = data
	return nil
}

// Allocate sets the account data to a zeroed buffer of the requested size.
func (b *BorrowedAccount) Allocate(size uint64) error {
	if !b.IsWritable {
		return ErrReadonlyDataModified
	}

	b.account.Data = make([]byte, size)
	return nil
}
