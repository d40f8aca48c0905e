package vesting

import (
	"bytes"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/code-payments/token-vesting/pkg/solana"
	"github.com/code-payments/token-vesting/pkg/testutil"
)

func newTestEscrow(t *testing.T) *EscrowAccount {
	keys := testutil.GenerateSolanaKeys(t, 2)
	return &EscrowAccount{
		Header: EscrowHeader{
			Destination:   keys[0],
			Mint:          keys[1],
			IsInitialized: true,
		},
		Schedules: []Schedule{
			{ReleaseTime: 100, Amount: 1},
			{ReleaseTime: 200, Amount: 2},
			{ReleaseTime: 300, Amount: 3},
		},
	}
}

func TestEscrowHeader_Codec(t *testing.T) {
	escrow := newTestEscrow(t)

	b := escrow.Header.Marshal()
	require.Len(t, b, EscrowHeaderSize)
	assert.EqualValues(t, escrow.Header.Destination, b[:32])
	assert.EqualValues(t, escrow.Header.Mint, b[32:64])
	assert.EqualValues(t, 1, b[64])

	var actual EscrowHeader
	require.NoError(t, actual.Unmarshal(b))
	assert.Equal(t, escrow.Header, actual)

	escrow.Header.IsInitialized = false
	b = escrow.Header.Marshal()
	assert.EqualValues(t, 0, b[64])
	require.NoError(t, actual.Unmarshal(b))
	assert.False(t, actual.IsInitialized)

	assert.Equal(t, solana.ErrInvalidAccountData, actual.Unmarshal(b[:EscrowHeaderSize-1]))
}

func TestEscrowAccount_Codec(t *testing.T) {
	escrow := newTestEscrow(t)

	b := escrow.Marshal()
	require.Len(t, b, EscrowSize(3))
	assert.Equal(t, escrow.Header.Marshal(), b[:EscrowHeaderSize])
	assert.Equal(t, MarshalSchedules(escrow.Schedules), b[EscrowHeaderSize:])

	var actual EscrowAccount
	require.NoError(t, actual.Unmarshal(b))
	assert.Equal(t, escrow, &actual)
	assert.EqualValues(t, 6, actual.Locked())

	actual.Schedules = []Schedule{
		{ReleaseTime: 1, Amount: math.MaxUint64},
		{ReleaseTime: 2, Amount: 2},
	}
	assert.EqualValues(t, uint64(math.MaxUint64), actual.Locked())

	// The length must be exactly a header plus whole schedules.
	for _, size := range []int{0, EscrowHeaderSize - 1, EscrowHeaderSize + 1, EscrowSize(2) + ScheduleSize - 1, EscrowSize(3) + 1} {
		data := make([]byte, size)
		copy(data, b)
		assert.Equal(t, solana.ErrInvalidAccountData, actual.Unmarshal(data), "size=%d", size)
	}

	// An allocated but unfunded account is valid and uninitialized.
	require.NoError(t, actual.Unmarshal(make([]byte, EscrowSize(2))))
	assert.False(t, actual.Header.IsInitialized)
	assert.Len(t, actual.Schedules, 2)

	assert.Contains(t, escrow.String(), "{release_time=200,amount=2}")
}

func TestScheduleCount(t *testing.T) {
	for n := 0; n < 5; n++ {
		count, err := ScheduleCount(EscrowSize(n))
		require.NoError(t, err)
		assert.Equal(t, n, count)

		_, err = ScheduleCount(EscrowSize(n) + 1)
		assert.Equal(t, solana.ErrInvalidAccountData, err)
	}

	_, err := ScheduleCount(EscrowHeaderSize - 1)
	assert.Equal(t, solana.ErrInvalidAccountData, err)
}

func TestIsEscrowInitialized(t *testing.T) {
	data := make([]byte, EscrowSize(1))
	assert.False(t, IsEscrowInitialized(data))

	data[EscrowHeaderSize-1] = 1
	assert.True(t, IsEscrowInitialized(data))

	data[EscrowHeaderSize-1] = 2
	assert.True(t, IsEscrowInitialized(data))

	assert.False(t, IsEscrowInitialized(data[:EscrowHeaderSize-1]))
}

func TestPatchDestination(t *testing.T) {
	escrow := newTestEscrow(t)
	data := escrow.Marshal()
	original := bytes.Clone(data)

	destination := testutil.GenerateSolanaKeys(t, 1)[0]
	require.NoError(t, PatchDestination(data, destination))

	assert.EqualValues(t, destination, data[:32])
	assert.Equal(t, original[32:], data[32:])

	assert.Equal(t, solana.ErrInvalidAccountData, PatchDestination(data[:EscrowHeaderSize-1], destination))
	assert.Equal(t, solana.ErrInvalidAccountData, PatchDestination(data, destination[:31]))
}

func TestPatchScheduleAmount(t *testing.T) {
	escrow := newTestEscrow(t)
	data := escrow.Marshal()
	original := bytes.Clone(data)

	require.NoError(t, PatchScheduleAmount(data, 1, 0))

	var actual EscrowAccount
	require.NoError(t, actual.Unmarshal(data))
	assert.Equal(t, escrow.Header, actual.Header)
	assert.Equal(t, []Schedule{
		{ReleaseTime: 100, Amount: 1},
		{ReleaseTime: 200, Amount: 0},
		{ReleaseTime: 300, Amount: 3},
	}, actual.Schedules)

	// Only the amount bytes of the patched schedule changed.
	amountOffset := EscrowSize(1) + 8
	assert.Equal(t, original[:amountOffset], data[:amountOffset])
	assert.Equal(t, original[amountOffset+8:], data[amountOffset+8:])

	assert.Equal(t, solana.ErrInvalidAccountData, PatchScheduleAmount(data, 3, 0))
	assert.Equal(t, solana.ErrInvalidAccountData, PatchScheduleAmount(data, -1, 0))
	assert.Equal(t, solana.ErrInvalidAccountData, PatchScheduleAmount(data[:len(data)-1], 0, 0))
}
