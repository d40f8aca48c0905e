// Package memory provides a config.Config whose value is set in code. Values
// can be changed while the config is in use.
package memory

import (
	"context"
	"sync"

	"github.com/code-payments/token-vesting/pkg/config"
)

type Config struct {
	mu     sync.RWMutex
	value  interface{}
	err    error
	closed bool
}

// NewConfig returns a config holding value. A nil value means unset.
func NewConfig(value interface{}) *Config {
	return &Config{value: value}
}

// Get implements config.Config.Get.
func (c *Config) Get(_ context.Context) (interface{}, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	switch {
	case c.closed:
		return nil, config.ErrShutdown
	case c.err != nil:
		return nil, c.err
	case c.value == nil:
		return nil, config.ErrNoValue
	}
	return c.value, nil
}

// Shutdown implements config.Config.Shutdown.
func (c *Config) Shutdown() {
	c.mu.Lock()
	c.closed = true
	c.mu.Unlock()
}

// Set replaces the value returned by subsequent Gets.
func (c *Config) Set(value interface{}) {
	c.mu.Lock()
	c.value = value
	c.mu.Unlock()
}

// Clear unsets the value; Get returns config.ErrNoValue until the next Set.
func (c *Config) Clear() {
	c.Set(nil)
}

// Fail makes Get return err until Fail(nil) is called.
func (c *Config) Fail(err error) {
	c.mu.Lock()
	c.err = err
	c.mu.Unlock()
}
