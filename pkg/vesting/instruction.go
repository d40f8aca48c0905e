package vesting

import (
	"crypto/ed25519"
)

type InstructionType uint8

const (
	InstructionTypeInitialize InstructionType = iota
	InstructionTypeCreate
	InstructionTypeUnlock
	InstructionTypeChangeDestination
)

func (t InstructionType) String() string {
	switch t {
	case InstructionTypeInitialize:
		return "initialize"
	case InstructionTypeCreate:
		return "create"
	case InstructionTypeUnlock:
		return "unlock"
	case InstructionTypeChangeDestination:
		return "change_destination"
	}

	return "unknown"
}

// Instruction is the decoded form of the data of one vesting program
// instruction. It is one of *InitializeInstructionArgs,
// *CreateInstructionArgs, *UnlockInstructionArgs or
// *ChangeDestinationInstructionArgs.
type Instruction interface {
	Type() InstructionType
	Marshal() []byte
}

// field is a fixed width field of an instruction's data.
type field struct {
	name string
	size int
}

var (
	seedField = field{"seed", 32}
)

func keyField(name string) field {
	return field{name, ed25519.PublicKeySize}
}

// layout lists the fixed width fields that follow an instruction's tag, in
// order. Any bytes after the last field are the variable length remainder.
type layout []field

func (l layout) size() int {
	var size int
	for _, f := range l {
		size += f.size
	}
	return size
}

// split slices b into the layout's fields and whatever follows them. ok is
// false if b is too short for the fixed fields.
func (l layout) split(b []byte) (fields [][]byte, rest []byte, ok bool) {
	if len(b) < l.size() {
		return nil, nil, false
	}

	var offset int
	fields = make([][]byte, len(l))
	for i, f := range l {
		fields[i] = b[offset : offset+f.size]
		offset += f.size
	}
	return fields, b[offset:], true
}

// join is the inverse of split, prefixed by the instruction tag. Each value
// is copied into its field, so short values are zero padded.
func (l layout) join(t InstructionType, values [][]byte, rest []byte) []byte {
	b := make([]byte, 1+l.size(), 1+l.size()+len(rest))
	b[0] = byte(t)

	offset := 1
	for i, f := range l {
		copy(b[offset:offset+f.size], values[i])
		offset += f.size
	}
	return append(b, rest...)
}

type instructionCodec struct {
	layout layout
	decode func(fields [][]byte, rest []byte) Instruction
}

var instructionCodecs = map[InstructionType]instructionCodec{
	InstructionTypeInitialize:        {initializeInstructionLayout, decodeInitializeInstruction},
	InstructionTypeCreate:            {createInstructionLayout, decodeCreateInstruction},
	InstructionTypeUnlock:            {unlockInstructionLayout, decodeUnlockInstruction},
	InstructionTypeChangeDestination: {changeDestinationInstructionLayout, decodeChangeDestinationInstruction},
}

// UnmarshalInstruction decodes instruction data addressed to the vesting
// program. ErrBadInstruction is returned if the tag is unknown or the data is
// too short for the tag's fixed fields.
func UnmarshalInstruction(data []byte) (Instruction, error) {
	if len(data) == 0 {
		return nil, ErrBadInstruction
	}

	codec, ok := instructionCodecs[InstructionType(data[0])]
	if !ok {
		return nil, ErrBadInstruction
	}

	fields, rest, ok := codec.layout.split(data[1:])
	if !ok {
		return nil, ErrBadInstruction
	}

	return codec.decode(fields, rest), nil
}

func getSeed(src []byte) [32]byte {
	var seed [32]byte
	copy(seed[:], src)
	return seed
}

func getKey(src []byte) ed25519.PublicKey {
	key := make(ed25519.PublicKey, ed25519.PublicKeySize)
	copy(key, src)
	return key
}
