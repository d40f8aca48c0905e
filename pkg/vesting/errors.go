package vesting

import "github.com/code-payments/token-vesting/pkg/solana"

const (
	// ErrBadInstruction is returned for instruction data with an unknown tag,
	// or that is too short for its tag's fixed fields.
	ErrBadInstruction solana.CustomError = iota

	// ErrMalformedData is returned when a schedule is decoded from fewer than
	// ScheduleSize bytes.
	ErrMalformedData
)
