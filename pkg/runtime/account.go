package runtime

import (
	"bytes"
	"crypto/ed25519"
	"fmt"

	"github.com/mr-tron/base58"

	"github.com/code-payments/token-vesting/pkg/solana"
)

// AccountInfo is a program's view of one account for the duration of a single
// invocation. Programs mutate Lamports, Data and Owner in place; the host
// decides whether the mutation is allowed once the program returns.
type AccountInfo struct {
	Key      ed25519.PublicKey
	Owner    ed25519.PublicKey
	Lamports uint64
	Data     []byte

	IsSigner   bool
	IsWritable bool
	Executable bool
}

// IsOwnedBy reports whether the account is owned by program.
func (a *AccountInfo) IsOwnedBy(program ed25519.PublicKey) bool {
	return bytes.Equal(a.Owner, program)
}

// Is reports whether the account's address is key.
func (a *AccountInfo) Is(key ed25519.PublicKey) bool {
	return bytes.Equal(a.Key, key)
}

// Meta returns the AccountMeta that passes this account, with the same
// privileges, into a cross-program invocation.
func (a *AccountInfo) Meta() solana.AccountMeta {
	if a.IsWritable {
		return solana.NewAccountMeta(a.Key, a.IsSigner)
	}
	return solana.NewReadonlyAccountMeta(a.Key, a.IsSigner)
}

func (a *AccountInfo) String() string {
	return fmt.Sprintf(
		"AccountInfo{key=%s,owner=%s,lamports=%d,data_len=%d,signer=%v,writable=%v}",
		base58.Encode(a.Key),
		base58.Encode(a.Owner),
		a.Lamports,
		len(a.Data),
		a.IsSigner,
		a.IsWritable,
	)
}

// AccountIterator hands out a program's accounts in the order the instruction
// declared them.
type AccountIterator struct {
	accounts []*AccountInfo
	next     int
}

func NewAccountIterator(accounts []*AccountInfo) *AccountIterator {
	return &AccountIterator{accounts: accounts}
}

// Next returns the next account, or solana.ErrNotEnoughAccountKeys once the
// accounts are exhausted.
func (it *AccountIterator) Next() (*AccountInfo, error) {
	if it.next >= len(it.accounts) {
		return nil, solana.ErrNotEnoughAccountKeys
	}

	info := it.accounts[it.next]
	it.next++
	return info, nil
}

// Remaining returns the number of accounts not yet consumed.
func (it *AccountIterator) Remaining() int {
	return len(it.accounts) - it.next
}

// NextAccountInfos consumes the next n accounts at once.
func NextAccountInfos(it *AccountIterator, n int) ([]*AccountInfo, error) {
	if it.Remaining() < n {
		return nil, solana.ErrNotEnoughAccountKeys
	}

	infos := it.accounts[it.next : it.next+n]
	it.next += n
	return infos, nil
}
