package env

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/code-payments/token-vesting/pkg/config"
)

func TestConfig(t *testing.T) {
	const key = "ENV_CONFIG_TEST_VAR"
	ctx := context.Background()

	c := NewConfig(key)

	_, err := c.Get(ctx)
	assert.Equal(t, config.ErrNoValue, err)

	t.Setenv(key, "  value ")
	v, err := c.Get(ctx)
	assert.NoError(t, err)
	assert.Equal(t, []byte("value"), v)

	t.Setenv(key, "   ")
	_, err = c.Get(ctx)
	assert.Equal(t, config.ErrNoValue, err)

	t.Setenv(key, "updated")
	v, err = NewConfig("env_config_test_var").Get(ctx)
	assert.NoError(t, err)
	assert.Equal(t, []byte("updated"), v)
}

func TestTypedConfigs(t *testing.T) {
	const (
		uintEnv     = "ENV_CONFIG_TEST_UINT"
		floatEnv    = "ENV_CONFIG_TEST_FLOAT"
		durationEnv = "ENV_CONFIG_TEST_DURATION"
		boolEnv     = "ENV_CONFIG_TEST_BOOL"
	)
	t.Setenv(uintEnv, " 1000 ")
	t.Setenv(floatEnv, "1.5")

	ctx := context.Background()
	assert.EqualValues(t, 1000, NewUint64Config(uintEnv, 1).Get(ctx))
	assert.Equal(t, 1.5, NewFloat64Config(floatEnv, 2.0).Get(ctx))
	assert.Equal(t, time.Second, NewDurationConfig(durationEnv, time.Second).Get(ctx))
	assert.True(t, NewBoolConfig(boolEnv, true).Get(ctx))

	verify := NewBoolConfig(boolEnv, true)
	t.Setenv(boolEnv, "false")
	assert.False(t, verify.Get(ctx))
}
