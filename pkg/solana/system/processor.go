package system

import (
	"bytes"

	"github.com/code-payments/token-vesting/pkg/runtime"
	"github.com/code-payments/token-vesting/pkg/solana"
)

// Processor is a native implementation of the subset of the system program
// the vesting program depends on. Only CreateAccount is supported.
type Processor struct{}

func NewProcessor() *Processor {
	return &Processor{}
}

// Process implements runtime.Program.
func (p *Processor) Process(_ runtime.Context, accounts []*runtime.AccountInfo, data []byte) error {
	decoded, err := decodeCreateAccount(data)
	if err != nil {
		return solana.ErrInvalidInstructionData
	}

	it := runtime.NewAccountIterator(accounts)
	funder, err := it.Next()
	if err != nil {
		return err
	}
	account, err := it.Next()
	if err != nil {
		return err
	}

	return p.createAccount(funder, account, decoded)
}

func (p *Processor) createAccount(funder, account *runtime.AccountInfo, args *DecompiledCreateAccount) error {
	if !funder.IsSigner || !account.IsSigner {
		return solana.ErrMissingRequiredSignature
	}
	if !funder.IsWritable || !account.IsWritable {
		return solana.ErrInvalidArgument
	}

	if account.Lamports > 0 || len(account.Data) > 0 || !bytes.Equal(account.Owner, ProgramKey[:]) {
		return ErrorAccountAlreadyInUse
	}
	if args.Size > MaxPermittedDataLength {
		return ErrorInvalidAccountDataLength
	}
	if funder.Lamports < args.Lamports {
		return ErrorResultWithNegativeLamports
	}

	funder.Lamports -= args.Lamports
	account.Lamports += args.Lamports
	account.Data = make([]byte, args.Size)
	account.Owner = args.Owner

	return nil
}
