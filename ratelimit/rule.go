// Package ratelimit implements the advanced per-key rate limiter from spec
// §4.10: a rule table matched by prefix glob + priority, backing four
// algorithms (fixed window, sliding window, token bucket, leaky bucket),
// with an optional dynamic tightening/relaxing mode.
package ratelimit

import (
	"strings"
	"time"
)

// Algorithm names one of the four supported rate-limiting strategies.
type Algorithm string

const (
	FixedWindow   Algorithm = "fixed_window"
	SlidingWindow Algorithm = "sliding_window"
	TokenBucket   Algorithm = "token_bucket"
	LeakyBucket   Algorithm = "leaky_bucket"
)

// KeyType names which request attribute a rule's key is derived from.
type KeyType string

const (
	KeyIP     KeyType = "ip"
	KeyUser   KeyType = "user"
	KeyAPIKey KeyType = "api_key"
	KeyCustom KeyType = "custom"
)

// Rule is one entry in the limiter's rule table.
type Rule struct {
	KeyType   KeyType
	KeyGlob   string // prefix glob, e.g. "svc:*"
	Algorithm Algorithm
	Priority  int

	Max        int           // fixed/sliding window max count
	Window     time.Duration // fixed/sliding window size
	Rate       float64       // token bucket refill rate (tokens/sec), leaky bucket leak rate (units/sec)
	MaxTokens  float64       // token bucket capacity
	BurstLevel float64       // leaky bucket burst capacity
}

// matches reports whether key satisfies the rule's prefix glob. A glob of
// "*" or "" matches everything; otherwise the pattern up to a trailing "*"
// must prefix-match key.
func (r Rule) matches(key string) bool {
	g := r.KeyGlob
	if g == "" || g == "*" {
		return true
	}
	if strings.HasSuffix(g, "*") {
		return strings.HasPrefix(key, strings.TrimSuffix(g, "*"))
	}
	return g == key
}
