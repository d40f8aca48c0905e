package vesting

import (
	"crypto/ed25519"

	"github.com/code-payments/token-vesting/pkg/solana"
	"github.com/code-payments/token-vesting/pkg/solana/system"
	"github.com/code-payments/token-vesting/pkg/solana/token"
)

var unlockInstructionLayout = layout{
	seedField,
}

type UnlockInstructionArgs struct {
	Seed [32]byte
}

type UnlockInstructionAccounts struct {
	Escrow           ed25519.PublicKey
	EscrowToken      ed25519.PublicKey
	DestinationToken ed25519.PublicKey
}

func (*UnlockInstructionArgs) Type() InstructionType {
	return InstructionTypeUnlock
}

func (args *UnlockInstructionArgs) Marshal() []byte {
	return unlockInstructionLayout.join(InstructionTypeUnlock, [][]byte{args.Seed[:]}, nil)
}

func decodeUnlockInstruction(fields [][]byte, _ []byte) Instruction {
	return &UnlockInstructionArgs{
		Seed: getSeed(fields[0]),
	}
}

// NewUnlockInstruction releases every matured schedule to the escrow's
// destination.
func NewUnlockInstruction(
	program ed25519.PublicKey,
	accounts *UnlockInstructionAccounts,
	args *UnlockInstructionArgs,
) solana.Instruction {
	return solana.NewInstruction(
		program,
		args.Marshal(),
		solana.NewReadonlyAccountMeta(token.ProgramKey, false),
		solana.NewReadonlyAccountMeta(system.ClockSysVar, false),
		solana.NewAccountMeta(accounts.Escrow, false),
		solana.NewAccountMeta(accounts.EscrowToken, false),
		solana.NewAccountMeta(accounts.DestinationToken, false),
	)
}
