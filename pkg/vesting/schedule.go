package vesting

import (
	"github.com/code-payments/token-vesting/pkg/solana"
	"github.com/code-payments/token-vesting/pkg/solana/binary"
)

const ScheduleSize = (8 + // release_time
	8) // amount

// Schedule releases Amount tokens once the ledger clock reaches ReleaseTime.
type Schedule struct {
	ReleaseTime uint64
	Amount      uint64
}

func (s *Schedule) Marshal() []byte {
	b := make([]byte, ScheduleSize)
	s.MarshalInto(b)
	return b
}

// MarshalInto writes the schedule into the first ScheduleSize bytes of dst.
func (s *Schedule) MarshalInto(dst []byte) {
	var offset int
	binary.PutUint64(dst, s.ReleaseTime, &offset)
	binary.PutUint64(dst[offset:], s.Amount, &offset)
}

// Unmarshal decodes the first ScheduleSize bytes of b.
func (s *Schedule) Unmarshal(b []byte) error {
	if len(b) < ScheduleSize {
		return ErrMalformedData
	}

	var offset int
	binary.GetUint64(b, &s.ReleaseTime, &offset)
	binary.GetUint64(b[offset:], &s.Amount, &offset)

	return nil
}

// IsMatured reports whether the schedule can be released at the unix
// timestamp now. Nothing matures before the epoch.
func (s *Schedule) IsMatured(now int64) bool {
	return now >= 0 && uint64(now) >= s.ReleaseTime
}

// UnmarshalSchedules decodes consecutive schedules from b. Trailing bytes
// that do not form a complete schedule are ignored.
func UnmarshalSchedules(b []byte) []Schedule {
	if len(b) < ScheduleSize {
		return nil
	}

	schedules := make([]Schedule, len(b)/ScheduleSize)
	for i := range schedules {
		// Cannot fail, every chunk is ScheduleSize bytes.
		_ = schedules[i].Unmarshal(b[i*ScheduleSize:])
	}
	return schedules
}

func MarshalSchedules(schedules []Schedule) []byte {
	b := make([]byte, len(schedules)*ScheduleSize)
	for i := range schedules {
		schedules[i].MarshalInto(b[i*ScheduleSize:])
	}
	return b
}

// TotalAmount sums the amounts of all schedules, returning
// solana.ErrInvalidInstructionData if the sum overflows.
func TotalAmount(schedules []Schedule) (uint64, error) {
	var total uint64
	for _, s := range schedules {
		next := total + s.Amount
		if next < total {
			return 0, solana.ErrInvalidInstructionData
		}
		total = next
	}
	return total, nil
}
