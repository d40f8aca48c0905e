package vesting

import (
	"crypto/ed25519"
	"encoding/binary"
	"strings"
	"unicode/utf8"

	"github.com/mr-tron/base58"

	"github.com/code-payments/token-vesting/pkg/solana"
	"github.com/code-payments/token-vesting/pkg/solana/system"
)

const targetAccountHintKey = "target_account:"

var initializeInstructionLayout = layout{
	seedField,
	{"schedule_count", 4},
}

type InitializeInstructionArgs struct {
	Seed          [32]byte
	ScheduleCount uint32

	// TargetAccount is an optional hint carried after the fixed fields as
	// "target_account:<base58>|". It is advisory only.
	TargetAccount ed25519.PublicKey
}

type InitializeInstructionAccounts struct {
	Payer  ed25519.PublicKey
	Escrow ed25519.PublicKey
}

func (*InitializeInstructionArgs) Type() InstructionType {
	return InstructionTypeInitialize
}

func (args *InitializeInstructionArgs) Marshal() []byte {
	count := make([]byte, 4)
	binary.LittleEndian.PutUint32(count, args.ScheduleCount)

	var hint []byte
	if len(args.TargetAccount) > 0 {
		hint = []byte(targetAccountHintKey + base58.Encode(args.TargetAccount) + "|")
	}

	return initializeInstructionLayout.join(
		InstructionTypeInitialize,
		[][]byte{args.Seed[:], count},
		hint,
	)
}

func decodeInitializeInstruction(fields [][]byte, rest []byte) Instruction {
	return &InitializeInstructionArgs{
		Seed:          getSeed(fields[0]),
		ScheduleCount: binary.LittleEndian.Uint32(fields[1]),
		TargetAccount: parseTargetAccountHint(rest),
	}
}

// parseTargetAccountHint extracts the target account hint from the trailing
// text of an Initialize instruction. Any malformed hint is ignored.
func parseTargetAccountHint(b []byte) ed25519.PublicKey {
	if len(b) == 0 || !utf8.Valid(b) {
		return nil
	}

	text := string(b)
	start := strings.Index(text, targetAccountHintKey)
	if start < 0 {
		return nil
	}
	text = text[start+len(targetAccountHintKey):]

	end := strings.IndexByte(text, '|')
	if end < 0 {
		return nil
	}

	decoded, err := base58.Decode(text[:end])
	if err != nil || len(decoded) != ed25519.PublicKeySize {
		return nil
	}
	return decoded
}

// NewInitializeInstruction allocates the escrow account for args.ScheduleCount
// schedules, funded by the payer.
func NewInitializeInstruction(
	program ed25519.PublicKey,
	accounts *InitializeInstructionAccounts,
	args *InitializeInstructionArgs,
) solana.Instruction {
	return solana.NewInstruction(
		program,
		args.Marshal(),
		solana.NewReadonlyAccountMeta(system.ProgramKey[:], false),
		solana.NewReadonlyAccountMeta(system.RentSysVar, false),
		solana.NewAccountMeta(accounts.Payer, true),
		solana.NewAccountMeta(accounts.Escrow, false),
	)
}
