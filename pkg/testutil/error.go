package testutil

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/code-payments/token-vesting/pkg/solana"
)

// AssertInstructionError verifies that err is a transaction error raised by the
// instruction at index, caused by expected.
func AssertInstructionError(t *testing.T, err error, index int, expected error) {
	require.Error(t, err)

	var txErr *solana.TransactionError
	require.True(t, errors.As(err, &txErr), "not a transaction error: %v", err)
	require.NotNil(t, txErr.InstructionError(), "not an instruction error: %v", err)
	assert.Equal(t, index, txErr.InstructionError().Index)
	assert.True(t, errors.Is(err, expected), "expected %v, got %v", expected, err)
}
