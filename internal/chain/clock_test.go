package chain

import (
	"testing"
	"time"
)

func TestTimeClock_Height(t *testing.T) {
	genesis := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	c, err := NewTimeClock(genesis, 6*time.Second)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	tests := []struct {
		at   time.Time
		want uint64
	}{
		{genesis.Add(-time.Hour), 1},
		{genesis, 1},
		{genesis.Add(5 * time.Second), 1},
		{genesis.Add(6 * time.Second), 2},
		{genesis.Add(time.Hour), 601},
	}
	for _, tc := range tests {
		at := tc.at
		c.now = func() time.Time { return at }
		if got := c.Height(); got != tc.want {
			t.Errorf("at %v: expected height %d, got %d", tc.at, tc.want, got)
		}
	}
}

func TestNewTimeClock_InvalidInterval(t *testing.T) {
	if _, err := NewTimeClock(time.Now(), 0); err != ErrInvalidInterval {
		t.Errorf("expected ErrInvalidInterval, got %v", err)
	}
}

func TestManualClock(t *testing.T) {
	c := NewManualClock(10)
	if c.Height() != 10 {
		t.Errorf("expected 10, got %d", c.Height())
	}
	if got := c.Advance(600); got != 610 {
		t.Errorf("expected 610, got %d", got)
	}
	c.Set(3)
	if c.Height() != 3 {
		t.Errorf("expected 3, got %d", c.Height())
	}
}
