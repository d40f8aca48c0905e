package token

import (
	"github.com/code-payments/token-vesting/pkg/runtime"
	"github.com/code-payments/token-vesting/pkg/solana"
)

// Processor is a native implementation of the subset of the SPL token program
// the vesting program depends on. Only Transfer is supported.
type Processor struct{}

func NewProcessor() *Processor {
	return &Processor{}
}

// Process implements runtime.Program.
func (p *Processor) Process(_ runtime.Context, accounts []*runtime.AccountInfo, data []byte) error {
	amount, ok := decodeTransfer(data)
	if !ok {
		return ErrorInvalidInstruction
	}

	infos, err := runtime.NextAccountInfos(runtime.NewAccountIterator(accounts), 3)
	if err != nil {
		return err
	}

	return p.transfer(infos[0], infos[1], infos[2], amount)
}

// Reference: https://github.com/solana-labs/solana-program-library/blob/b011698251981b5a12088acba18fad1d41c3719a/token/program/src/processor.rs#L206
func (p *Processor) transfer(sourceInfo, destInfo, authorityInfo *runtime.AccountInfo, amount uint64) error {
	if !sourceInfo.IsWritable || !destInfo.IsWritable {
		return solana.ErrInvalidArgument
	}
	if !sourceInfo.IsOwnedBy(ProgramKey) || !destInfo.IsOwnedBy(ProgramKey) {
		return solana.ErrIncorrectProgramID
	}

	var source, dest Account
	if !source.Unmarshal(sourceInfo.Data) || !dest.Unmarshal(destInfo.Data) {
		return solana.ErrInvalidAccountData
	}

	if !source.IsInitialized() || !dest.IsInitialized() {
		return ErrorUninitializedState
	}
	if source.IsFrozen() || dest.IsFrozen() {
		return ErrorAccountFrozen
	}
	if !source.Mint.Equal(dest.Mint) {
		return ErrorMintMismatch
	}

	isOwner := authorityInfo.Is(source.Owner)
	isDelegate := len(source.Delegate) > 0 && authorityInfo.Is(source.Delegate)
	if !isOwner && !isDelegate {
		return ErrorOwnerMismatch
	}
	if !authorityInfo.IsSigner {
		return solana.ErrMissingRequiredSignature
	}

	available := source.Amount
	if !isOwner && source.DelegatedAmount < available {
		available = source.DelegatedAmount
	}
	if amount > available {
		return ErrorInsufficientFunds
	}

	if sourceInfo.Is(destInfo.Key) {
		return nil
	}

	if dest.Amount+amount < dest.Amount {
		return ErrorOverflow
	}

	source.Amount -= amount
	dest.Amount += amount
	if !isOwner {
		source.DelegatedAmount -= amount
		if source.DelegatedAmount == 0 {
			source.Delegate = nil
		}
	}

	copy(sourceInfo.Data, source.Marshal())
	copy(destInfo.Data, dest.Marshal())

	return nil
}
