// Package env provides configs backed by environment variables.
package env

import (
	"context"
	"os"
	"strings"
	"time"

	"github.com/code-payments/token-vesting/pkg/config"
	"github.com/code-payments/token-vesting/pkg/config/wrapper"
)

type variable string

// NewConfig returns a config backed by the environment variable key, upper
// cased. The variable is looked up on every Get, and surrounding whitespace is
// ignored.
func NewConfig(key string) config.Config {
	return variable(strings.ToUpper(key))
}

func (v variable) Get(_ context.Context) (interface{}, error) {
	val, ok := os.LookupEnv(string(v))
	val = strings.TrimSpace(val)
	if !ok || len(val) == 0 {
		return nil, config.ErrNoValue
	}
	return []byte(val), nil
}

func (variable) Shutdown() {}

func NewUint64Config(key string, defaultValue uint64) config.Uint64 {
	return wrapper.NewUint64Config(NewConfig(key), defaultValue)
}

func NewFloat64Config(key string, defaultValue float64) config.Float64 {
	return wrapper.NewFloat64Config(NewConfig(key), defaultValue)
}

func NewBoolConfig(key string, defaultValue bool) config.Bool {
	return wrapper.NewBoolConfig(NewConfig(key), defaultValue)
}

func NewDurationConfig(key string, defaultValue time.Duration) config.Duration {
	return wrapper.NewDurationConfig(NewConfig(key), defaultValue)
}
