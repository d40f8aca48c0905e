package system

import (
	"crypto/ed25519"
	"math"

	"github.com/mr-tron/base58"
	"github.com/pkg/errors"

	"github.com/code-payments/token-vesting/pkg/solana/binary"
)

// https://explorer.solana.com/address/11111111111111111111111111111111
var SystemAccount ed25519.PublicKey

// RentSysVar points to the system variable "Rent"
//
// Source: https://github.com/solana-labs/solana/blob/f02a78d8fff2dd7297dc6ce6eb5a68a3002f5359/sdk/src/sysvar/rent.rs#L11
var RentSysVar ed25519.PublicKey

// ClockSysVar points to the system variable "Clock"
//
// Source: https://github.com/solana-labs/solana/blob/f02a78d8fff2dd7297dc6ce6eb5a68a3002f5359/sdk/program/src/sysvar/clock.rs#L7
var ClockSysVar ed25519.PublicKey

// SysvarOwner is the owner of every sysvar account.
var SysvarOwner ed25519.PublicKey

// NativeLoader owns builtin program accounts.
var NativeLoader ed25519.PublicKey

func init() {
	var err error

	RentSysVar, err = base58.Decode("SysvarRent111111111111111111111111111111111")
	if err != nil {
		panic(err)
	}

	ClockSysVar, err = base58.Decode("SysvarC1ock11111111111111111111111111111111")
	if err != nil {
		panic(err)
	}

	SysvarOwner, err = base58.Decode("Sysvar1111111111111111111111111111111111111")
	if err != nil {
		panic(err)
	}

	NativeLoader, err = base58.Decode("NativeLoader1111111111111111111111111111111")
	if err != nil {
		panic(err)
	}

	SystemAccount, err = base58.Decode("11111111111111111111111111111111")
	if err != nil {
		panic(err)
	}
}

// ClockSize is the serialized size of the Clock sysvar.
const ClockSize = 5 * 8

// Clock is the Clock sysvar.
//
// Reference: https://github.com/solana-labs/solana/blob/f02a78d8fff2dd7297dc6ce6eb5a68a3002f5359/sdk/program/src/clock.rs#L94-L113
type Clock struct {
	Slot                uint64
	EpochStartTimestamp int64
	Epoch               uint64
	LeaderScheduleEpoch uint64
	// Approximate wall clock time, in unix seconds.
	UnixTimestamp int64
}

func (c *Clock) Marshal() []byte {
	b := make([]byte, ClockSize)

	var offset int
	binary.PutUint64(b[offset:], c.Slot, &offset)
	binary.PutInt64(b[offset:], c.EpochStartTimestamp, &offset)
	binary.PutUint64(b[offset:], c.Epoch, &offset)
	binary.PutUint64(b[offset:], c.LeaderScheduleEpoch, &offset)
	binary.PutInt64(b[offset:], c.UnixTimestamp, &offset)

	return b
}

func (c *Clock) Unmarshal(b []byte) error {
	if err := binary.CheckSize(b, ClockSize); err != nil {
		return errors.Wrap(err, "invalid clock sysvar")
	}

	var offset int
	binary.GetUint64(b[offset:], &c.Slot, &offset)
	binary.GetInt64(b[offset:], &c.EpochStartTimestamp, &offset)
	binary.GetUint64(b[offset:], &c.Epoch, &offset)
	binary.GetUint64(b[offset:], &c.LeaderScheduleEpoch, &offset)
	binary.GetInt64(b[offset:], &c.UnixTimestamp, &offset)

	return nil
}

// RentSize is the serialized size of the Rent sysvar.
const RentSize = 8 + 8 + 1

// AccountStorageOverhead is the number of bytes charged for every account in
// addition to its data.
const AccountStorageOverhead = 128

const (
	DefaultLamportsPerByteYear = 3480
	DefaultExemptionThreshold  = 2.0
	DefaultBurnPercent         = 50
)

// Rent is the Rent sysvar.
//
// Reference: https://github.com/solana-labs/solana/blob/f02a78d8fff2dd7297dc6ce6eb5a68a3002f5359/sdk/program/src/rent.rs#L10-L20
type Rent struct {
	LamportsPerByteYear uint64
	ExemptionThreshold  float64
	BurnPercent         uint8
}

// DefaultRent returns the rent parameters used by mainnet.
func DefaultRent() Rent {
	return Rent{
		LamportsPerByteYear: DefaultLamportsPerByteYear,
		ExemptionThreshold:  DefaultExemptionThreshold,
		BurnPercent:         DefaultBurnPercent,
	}
}

// MinimumBalance returns the minimum lamports an account holding size bytes of
// data needs to be rent exempt.
func (r *Rent) MinimumBalance(size uint64) uint64 {
	n := float64(AccountStorageOverhead + size)
	balance := n * float64(r.LamportsPerByteYear) * r.ExemptionThreshold
	if balance >= math.MaxUint64 {
		return math.MaxUint64
	}
	return uint64(balance)
}

func (r *Rent) Marshal() []byte {
	b := make([]byte, RentSize)

	var offset int
	binary.PutUint64(b[offset:], r.LamportsPerByteYear, &offset)
	binary.PutFloat64(b[offset:], r.ExemptionThreshold, &offset)
	binary.PutUint8(b[offset:], r.BurnPercent, &offset)

	return b
}

func (r *Rent) Unmarshal(b []byte) error {
	if err := binary.CheckSize(b, RentSize); err != nil {
		return errors.Wrap(err, "invalid rent sysvar")
	}

	var offset int
	binary.GetUint64(b[offset:], &r.LamportsPerByteYear, &offset)
	binary.GetFloat64(b[offset:], &r.ExemptionThreshold, &offset)
	binary.GetUint8(b[offset:], &r.BurnPercent, &offset)

	return nil
}
