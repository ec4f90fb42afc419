// Package chain supplies block heights to the pricing engine. Heights drive
// the EMA decay and stamp every ledger entry.
package chain

import (
	"errors"
	"sync"
	"time"
)

var ErrInvalidInterval = errors.New("chain: block interval must be positive")

// Clock reports the current block height.
type Clock interface {
	Height() uint64
}

// TimeClock derives heights from wall time: one block per Interval since
// Genesis, starting at height 1.
type TimeClock struct {
	Genesis  time.Time
	Interval time.Duration
	now      func() time.Time
}

// NewTimeClock creates a clock anchored at genesis.
func NewTimeClock(genesis time.Time, interval time.Duration) (*TimeClock, error) {
	if interval <= 0 {
		return nil, ErrInvalidInterval
	}
	return &TimeClock{Genesis: genesis, Interval: interval, now: time.Now}, nil
}

// Height returns 1 + the number of whole intervals elapsed since genesis.
// Times before genesis report height 1.
func (c *TimeClock) Height() uint64 {
	elapsed := c.now().Sub(c.Genesis)
	if elapsed < 0 {
		return 1
	}
	return 1 + uint64(elapsed/c.Interval)
}

// ManualClock is a settable clock for tests and simulations.
type ManualClock struct {
	mu     sync.Mutex
	height uint64
}

// NewManualClock creates a clock at height.
func NewManualClock(height uint64) *ManualClock {
	return &ManualClock{height: height}
}

func (c *ManualClock) Height() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.height
}

// Set moves the clock to height.
func (c *ManualClock) Set(height uint64) {
	c.mu.Lock()
	c.height = height
	c.mu.Unlock()
}

// Advance moves the clock forward by n blocks and returns the new height.
func (c *ManualClock) Advance(n uint64) uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.height += n
	return c.height
}
