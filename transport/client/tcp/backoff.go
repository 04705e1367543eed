package tcp

import (
	"math/rand"
	"time"
)

// ReconnectConfig parameterises the client's reconnection behaviour.
type ReconnectConfig struct {
	Enable        bool
	MaxAttempts   int // 0 means infinite
	InitialDelay  time.Duration
	MaxDelay      time.Duration
	BackoffFactor float64
	Randomize     bool // apply up to +/-25% jitter
}

// defaultReconnectConfig matches the teacher's habit of supplying sane
// defaults when the caller doesn't opt into reconnection tuning.
func defaultReconnectConfig() ReconnectConfig {
	return ReconnectConfig{
		Enable:        false,
		MaxAttempts:   0,
		InitialDelay:  200 * time.Millisecond,
		MaxDelay:      30 * time.Second,
		BackoffFactor: 2.0,
		Randomize:     true,
	}
}

// nextDelay computes the backoff delay for the given attempt (1-based),
// capping at MaxDelay and applying +/-25% jitter when Randomize is set.
func (c ReconnectConfig) nextDelay(attempt int) time.Duration {
	factor := c.BackoffFactor
	if factor <= 0 {
		factor = 1
	}
	delay := float64(c.InitialDelay)
	for i := 1; i < attempt; i++ {
		delay *= factor
	}
	max := float64(c.MaxDelay)
	if max > 0 && delay > max {
		delay = max
	}
	if c.Randomize {
		jitter := (rand.Float64()*2 - 1) * 0.25 // +/-25%
		delay += delay * jitter
	}
	if delay < 0 {
		delay = 0
	}
	return time.Duration(delay)
}
