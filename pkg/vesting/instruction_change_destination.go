package vesting

import (
	"crypto/ed25519"

	"github.com/code-payments/token-vesting/pkg/solana"
)

var changeDestinationInstructionLayout = layout{
	seedField,
}

type ChangeDestinationInstructionArgs struct {
	Seed [32]byte
}

type ChangeDestinationInstructionAccounts struct {
	Escrow                  ed25519.PublicKey
	CurrentDestinationToken ed25519.PublicKey
	CurrentDestinationOwner ed25519.PublicKey
	NewDestinationToken     ed25519.PublicKey
}

func (*ChangeDestinationInstructionArgs) Type() InstructionType {
	return InstructionTypeChangeDestination
}

func (args *ChangeDestinationInstructionArgs) Marshal() []byte {
	return changeDestinationInstructionLayout.join(InstructionTypeChangeDestination, [][]byte{args.Seed[:]}, nil)
}

func decodeChangeDestinationInstruction(fields [][]byte, _ []byte) Instruction {
	return &ChangeDestinationInstructionArgs{
		Seed: getSeed(fields[0]),
	}
}

// NewChangeDestinationInstruction redirects future releases to a new
// destination token account. It must be signed by the owner of the current
// destination.
func NewChangeDestinationInstruction(
	program ed25519.PublicKey,
	accounts *ChangeDestinationInstructionAccounts,
	args *ChangeDestinationInstructionArgs,
) solana.Instruction {
	return solana.NewInstruction(
		program,
		args.Marshal(),
		solana.NewAccountMeta(accounts.Escrow, false),
		solana.NewReadonlyAccountMeta(accounts.CurrentDestinationToken, false),
		solana.NewReadonlyAccountMeta(accounts.CurrentDestinationOwner, true),
		solana.NewReadonlyAccountMeta(accounts.NewDestinationToken, false),
	)
}
