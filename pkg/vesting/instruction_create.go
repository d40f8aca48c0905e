package vesting

import (
	"crypto/ed25519"

	"github.com/code-payments/token-vesting/pkg/solana"
	"github.com/code-payments/token-vesting/pkg/solana/token"
)

var createInstructionLayout = layout{
	seedField,
	keyField("mint"),
	keyField("destination"),
}

type CreateInstructionArgs struct {
	Seed        [32]byte
	Mint        ed25519.PublicKey
	Destination ed25519.PublicKey
	Schedules   []Schedule
}

type CreateInstructionAccounts struct {
	Escrow      ed25519.PublicKey
	EscrowToken ed25519.PublicKey
	SourceOwner ed25519.PublicKey
	SourceToken ed25519.PublicKey
}

func (*CreateInstructionArgs) Type() InstructionType {
	return InstructionTypeCreate
}

func (args *CreateInstructionArgs) Marshal() []byte {
	return createInstructionLayout.join(
		InstructionTypeCreate,
		[][]byte{args.Seed[:], args.Mint, args.Destination},
		MarshalSchedules(args.Schedules),
	)
}

func decodeCreateInstruction(fields [][]byte, rest []byte) Instruction {
	return &CreateInstructionArgs{
		Seed:        getSeed(fields[0]),
		Mint:        getKey(fields[1]),
		Destination: getKey(fields[2]),
		Schedules:   UnmarshalSchedules(rest),
	}
}

// NewCreateInstruction funds an initialized escrow with the sum of
// args.Schedules, moved out of the source token account.
func NewCreateInstruction(
	program ed25519.PublicKey,
	accounts *CreateInstructionAccounts,
	args *CreateInstructionArgs,
) solana.Instruction {
	return solana.NewInstruction(
		program,
		args.Marshal(),
		solana.NewReadonlyAccountMeta(token.ProgramKey, false),
		solana.NewAccountMeta(accounts.Escrow, false),
		solana.NewAccountMeta(accounts.EscrowToken, false),
		solana.NewReadonlyAccountMeta(accounts.SourceOwner, true),
		solana.NewAccountMeta(accounts.SourceToken, false),
	)
}
