package vesting

import (
	"crypto/ed25519"
	"fmt"
	"math"
	"strings"

	"github.com/mr-tron/base58"

	"github.com/code-payments/token-vesting/pkg/solana"
	"github.com/code-payments/token-vesting/pkg/solana/binary"
)

const EscrowHeaderSize = (32 + // destination
	32 + // mint
	1) // is_initialized

const (
	destinationOffset   = 0
	isInitializedOffset = EscrowHeaderSize - 1
)

// EscrowHeader is the fixed prefix of an escrow account.
type EscrowHeader struct {
	Destination   ed25519.PublicKey
	Mint          ed25519.PublicKey
	IsInitialized bool
}

func (h *EscrowHeader) Marshal() []byte {
	b := make([]byte, EscrowHeaderSize)
	h.MarshalInto(b)
	return b
}

// MarshalInto writes the header into the first EscrowHeaderSize bytes of dst.
func (h *EscrowHeader) MarshalInto(dst []byte) {
	var isInitialized uint8
	if h.IsInitialized {
		isInitialized = 1
	}

	var offset int
	binary.PutKey32(dst, h.Destination, &offset)
	binary.PutKey32(dst[offset:], h.Mint, &offset)
	binary.PutUint8(dst[offset:], isInitialized, &offset)
}

// Unmarshal decodes the first EscrowHeaderSize bytes of b.
func (h *EscrowHeader) Unmarshal(b []byte) error {
	if len(b) < EscrowHeaderSize {
		return solana.ErrInvalidAccountData
	}

	var offset int
	var isInitialized uint8
	binary.GetKey32(b, &h.Destination, &offset)
	binary.GetKey32(b[offset:], &h.Mint, &offset)
	binary.GetUint8(b[offset:], &isInitialized, &offset)
	h.IsInitialized = isInitialized == 1

	return nil
}

// EscrowAccount is the full contents of an escrow account: a header followed
// by the schedules fixed when the account was allocated.
type EscrowAccount struct {
	Header    EscrowHeader
	Schedules []Schedule
}

// EscrowSize returns the size of an escrow account holding n schedules.
func EscrowSize(n int) int {
	return EscrowHeaderSize + n*ScheduleSize
}

// ScheduleCount returns the number of schedules held by an escrow account of
// the given size, or solana.ErrInvalidAccountData if no count fits the size.
func ScheduleCount(size int) (int, error) {
	if size < EscrowHeaderSize || (size-EscrowHeaderSize)%ScheduleSize != 0 {
		return 0, solana.ErrInvalidAccountData
	}
	return (size - EscrowHeaderSize) / ScheduleSize, nil
}

func (a *EscrowAccount) Marshal() []byte {
	b := make([]byte, EscrowSize(len(a.Schedules)))
	a.Header.MarshalInto(b)
	copy(b[EscrowHeaderSize:], MarshalSchedules(a.Schedules))
	return b
}

// Unmarshal decodes an escrow account, failing with
// solana.ErrInvalidAccountData unless len(b) is EscrowSize(n) for some n.
func (a *EscrowAccount) Unmarshal(b []byte) error {
	if _, err := ScheduleCount(len(b)); err != nil {
		return err
	}

	if err := a.Header.Unmarshal(b); err != nil {
		return err
	}
	a.Schedules = UnmarshalSchedules(b[EscrowHeaderSize:])

	return nil
}

// Locked returns the amount not yet released.
// Locked returns the amount still held by the schedules, saturating at
// math.MaxUint64.
func (a *EscrowAccount) Locked() uint64 {
	locked, err := TotalAmount(a.Schedules)
	if err != nil {
		return math.MaxUint64
	}
	return locked
}

func (a *EscrowAccount) String() string {
	schedules := make([]string, len(a.Schedules))
	for i, s := range a.Schedules {
		schedules[i] = fmt.Sprintf("{release_time=%d,amount=%d}", s.ReleaseTime, s.Amount)
	}

	return fmt.Sprintf(
		"EscrowAccount{destination=%s,mint=%s,is_initialized=%v,schedules=[%s]}",
		base58.Encode(a.Header.Destination),
		base58.Encode(a.Header.Mint),
		a.Header.IsInitialized,
		strings.Join(schedules, ","),
	)
}

// IsEscrowInitialized reports whether the initialized flag of the escrow
// account data is set.
func IsEscrowInitialized(data []byte) bool {
	return len(data) >= EscrowHeaderSize && data[isInitializedOffset] != 0
}

// PatchDestination overwrites the destination of the escrow account data in
// place, leaving every other byte untouched.
func PatchDestination(data []byte, destination ed25519.PublicKey) error {
	if len(data) < EscrowHeaderSize || len(destination) != ed25519.PublicKeySize {
		return solana.ErrInvalidAccountData
	}

	var offset int
	binary.PutKey32(data[destinationOffset:], destination, &offset)
	return nil
}

// PatchScheduleAmount overwrites the amount of the schedule at index in
// place, leaving every other byte untouched.
func PatchScheduleAmount(data []byte, index int, amount uint64) error {
	count, err := ScheduleCount(len(data))
	if err != nil {
		return err
	}
	if index < 0 || index >= count {
		return solana.ErrInvalidAccountData
	}

	offset := EscrowSize(index) + 8
	binary.PutUint64(data[offset:], amount, &offset)
	return nil
}
