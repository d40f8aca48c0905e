package system

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSysVarKeys(t *testing.T) {
	assert.EqualValues(t, ProgramKey[:], SystemAccount)
	assert.Len(t, RentSysVar, 32)
	assert.Len(t, ClockSysVar, 32)
	assert.NotEqual(t, RentSysVar, ClockSysVar)
}

func TestClock_RoundTrip(t *testing.T) {
	expected := Clock{
		Slot:                100,
		EpochStartTimestamp: -5,
		Epoch:               2,
		LeaderScheduleEpoch: 3,
		UnixTimestamp:       1700000000,
	}

	b := expected.Marshal()
	require.Len(t, b, ClockSize)
	assert.EqualValues(t, 1700000000, int64(b[32])|int64(b[33])<<8|int64(b[34])<<16|int64(b[35])<<24)

	var actual Clock
	require.NoError(t, actual.Unmarshal(b))
	assert.Equal(t, expected, actual)

	assert.Error(t, actual.Unmarshal(b[:ClockSize-1]))
}

func TestRent(t *testing.T) {
	rent := DefaultRent()

	var actual Rent
	require.NoError(t, actual.Unmarshal(rent.Marshal()))
	assert.Equal(t, rent, actual)
	assert.Error(t, actual.Unmarshal(make([]byte, RentSize+1)))

	// Known mainnet values.
	assert.EqualValues(t, 890880, rent.MinimumBalance(0))
	assert.EqualValues(t, 2039280, rent.MinimumBalance(165))
	assert.EqualValues(t, (128+65+16*3)*3480*2, rent.MinimumBalance(65+16*3))

	rent.LamportsPerByteYear = math.MaxUint64
	assert.EqualValues(t, uint64(math.MaxUint64), rent.MinimumBalance(1))
}
