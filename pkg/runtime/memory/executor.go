package memory

import (
	"bytes"
	"crypto/ed25519"

	"github.com/code-payments/token-vesting/pkg/runtime"
	"github.com/code-payments/token-vesting/pkg/solana"
)

// MaxInvokeDepth is the deepest instruction stack allowed, including the
// top level instruction.
const MaxInvokeDepth = 5

// executor runs the instructions of a single transaction over a working copy
// of the accounts it loaded.
type executor struct {
	ledger   *Ledger
	accounts map[string]*Account
	stack    []ed25519.PublicKey
}

// invoke runs program with the provided accounts, whose privileges the caller
// has already validated. On success, the program's account changes are
// checked and applied to the working copy.
func (e *executor) invoke(programID ed25519.PublicKey, metas []solana.AccountMeta, data []byte) error {
	if len(e.stack) >= MaxInvokeDepth {
		return solana.ErrCallDepth
	}
	for i, caller := range e.stack {
		// Only direct recursion is allowed.
		if bytes.Equal(caller, programID) && i != len(e.stack)-1 {
			return solana.ErrReentrancyNotAllowed
		}
	}

	program, ok := e.ledger.programs[string(programID)]
	if !ok {
		return solana.ErrUnsupportedProgramID
	}

	inv := &invocation{
		exec:      e,
		programID: programID,
		byKey:     make(map[string]*runtime.AccountInfo, len(metas)),
	}
	for _, meta := range metas {
		if info, ok := inv.byKey[string(meta.PublicKey)]; ok {
			info.IsSigner = info.IsSigner || meta.IsSigner
			info.IsWritable = info.IsWritable || meta.IsWritable
			inv.infos = append(inv.infos, info)
			continue
		}

		account, ok := e.accounts[string(meta.PublicKey)]
		if !ok {
			return solana.ErrMissingAccount
		}

		info := &runtime.AccountInfo{
			Key:        meta.PublicKey,
			Owner:      cloneBytes(account.Owner),
			Lamports:   account.Lamports,
			Data:       cloneBytes(account.Data),
			IsSigner:   meta.IsSigner,
			IsWritable: meta.IsWritable,
			Executable: account.Executable,
		}
		inv.byKey[string(meta.PublicKey)] = info
		inv.infos = append(inv.infos, info)
		inv.unique = append(inv.unique, info)
	}
	inv.snapshot()

	e.stack = append(e.stack, programID)
	err := program.Process(inv, inv.infos, data)
	e.stack = e.stack[:len(e.stack)-1]
	if err != nil {
		return err
	}

	return inv.commit()
}

// invocation is the runtime.Context of one program invocation.
type invocation struct {
	exec      *executor
	programID ed25519.PublicKey

	infos  []*runtime.AccountInfo
	unique []*runtime.AccountInfo
	byKey  map[string]*runtime.AccountInfo
	pre    []Account
}

// ProgramID implements runtime.Context.
func (inv *invocation) ProgramID() ed25519.PublicKey {
	return inv.programID
}

// Invoke implements runtime.Context.
func (inv *invocation) Invoke(ix solana.Instruction, signers ...solana.DerivedAuthority) error {
	if _, ok := inv.byKey[string(ix.Program)]; !ok {
		return solana.ErrMissingAccount
	}

	metas := make([]solana.AccountMeta, len(ix.Accounts))
	for i, meta := range ix.Accounts {
		info, ok := inv.byKey[string(meta.PublicKey)]
		if !ok {
			return solana.ErrMissingAccount
		}
		if meta.IsWritable && !info.IsWritable {
			return solana.ErrPrivilegeEscalation
		}
		if meta.IsSigner && !info.IsSigner && !inv.derivesSigner(meta.PublicKey, signers) {
			return solana.ErrMissingRequiredSignature
		}

		metas[i] = meta
	}

	// The callee must observe everything the caller has done so far.
	if err := inv.commit(); err != nil {
		return err
	}

	if err := inv.exec.invoke(ix.Program, metas, ix.Data); err != nil {
		return err
	}

	inv.refresh()
	return nil
}

func (inv *invocation) derivesSigner(key ed25519.PublicKey, signers []solana.DerivedAuthority) bool {
	for _, signer := range signers {
		if !bytes.Equal(signer.ProgramID, inv.programID) {
			continue
		}
		if signer.Controls(key) {
			return true
		}
	}
	return false
}

func (inv *invocation) snapshot() {
	inv.pre = make([]Account, len(inv.unique))
	for i, info := range inv.unique {
		inv.pre[i] = Account{
			Owner:      cloneBytes(info.Owner),
			Lamports:   info.Lamports,
			Data:       cloneBytes(info.Data),
			Executable: info.Executable,
		}
	}
}

// commit validates the changes made to the invocation's accounts since the
// last snapshot and applies them to the working copy.
func (inv *invocation) commit() error {
	var preTotal, postTotal uint64
	for i, info := range inv.unique {
		pre := &inv.pre[i]
		if err := inv.verify(pre, info); err != nil {
			return err
		}

		preTotal += pre.Lamports
		postTotal += info.Lamports
	}
	if preTotal != postTotal {
		return solana.ErrUnbalancedInstruction
	}

	for _, info := range inv.unique {
		account := inv.exec.accounts[string(info.Key)]
		account.Owner = cloneBytes(info.Owner)
		account.Lamports = info.Lamports
		account.Data = cloneBytes(info.Data)
	}

	inv.snapshot()
	return nil
}

// Reference: https://github.com/solana-labs/solana/blob/f02a78d8fff2dd7297dc6ce6eb5a68a3002f5359/runtime/src/message_processor.rs#L74-L166
func (inv *invocation) verify(pre *Account, post *runtime.AccountInfo) error {
	ownedByProgram := bytes.Equal(pre.Owner, inv.programID)
	dataChanged := !bytes.Equal(pre.Data, post.Data) || len(pre.Data) != len(post.Data)

	if !bytes.Equal(pre.Owner, post.Owner) {
		if !post.IsWritable || !ownedByProgram || pre.Executable || !isZero(post.Data) {
			return solana.ErrModifiedProgramID
		}
	}

	if pre.Executable && (dataChanged || pre.Lamports != post.Lamports) {
		return solana.ErrExecutableModified
	}

	if pre.Lamports != post.Lamports {
		if !post.IsWritable {
			return solana.ErrReadonlyLamportChange
		}
		if post.Lamports < pre.Lamports && !ownedByProgram {
			return solana.ErrExternalAccountLamportSpend
		}
	}

	if dataChanged {
		if !post.IsWritable {
			return solana.ErrReadonlyDataModified
		}
		if !ownedByProgram {
			return solana.ErrExternalAccountDataModified
		}
	}

	return nil
}

// refresh reloads the invocation's accounts from the working copy after a
// cross-program invocation. Data is copied into the existing buffer when the
// size is unchanged, so slices the program already holds stay valid.
func (inv *invocation) refresh() {
	for _, info := range inv.unique {
		account := inv.exec.accounts[string(info.Key)]

		info.Owner = cloneBytes(account.Owner)
		info.Lamports = account.Lamports
		if len(info.Data) == len(account.Data) {
			copy(info.Data, account.Data)
		} else {
			info.Data = cloneBytes(account.Data)
		}
	}
	inv.snapshot()
}

func isZero(b []byte) bool {
	for _, v := range b {
		if v != 0 {
			return false
		}
	}
	return true
}
