package ratelimit

import (
	"time"

	"golang.org/x/time/rate"
)

// entry is the RateLimitEntry from spec §3: either a window counter or a
// bucket's fractional level, depending on which algorithm owns it.
type entry struct {
	// window algorithms
	windowStart  int64
	count        int
	prevCount    int
	prevWindow   int64

	// leaky bucket
	level        float64
	lastDrain    time.Time

	// token bucket, backed by x/time/rate instead of hand-rolled refill math
	limiter *rate.Limiter

	// rule points back into Limiter.rules so a dynamic-mode rate change can
	// be pushed into an already-created limiter via SetLimit.
	rule *Rule
}

func newTokenBucketEntry(r *Rule) *entry {
	return &entry{limiter: rate.NewLimiter(rate.Limit(r.Rate), int(r.MaxTokens)), rule: r}
}

func (e *entry) allowFixedWindow(now time.Time, r Rule) bool {
	w := now.UnixNano() / int64(r.Window)
	if w != e.windowStart {
		e.windowStart = w
		e.count = 0
	}
	if e.count >= r.Max {
		return false
	}
	e.count++
	return true
}

// allowSlidingWindow approximates a sliding window by weighting the
// previous fixed window's count by the fraction of it still "inside" the
// sliding frame, per spec's "weighted previous+current window counts".
func (e *entry) allowSlidingWindow(now time.Time, r Rule) bool {
	w := now.UnixNano() / int64(r.Window)
	if w != e.windowStart {
		e.prevWindow = e.windowStart
		e.prevCount = e.count
		e.windowStart = w
		e.count = 0
	}
	elapsedInWindow := time.Duration(now.UnixNano() % int64(r.Window))
	weight := 1.0 - float64(elapsedInWindow)/float64(r.Window)
	if weight < 0 {
		weight = 0
	}
	estimate := float64(e.prevCount)*weight + float64(e.count)
	if estimate >= float64(r.Max) {
		return false
	}
	e.count++
	return true
}

func (e *entry) allowTokenBucket() bool {
	return e.limiter.Allow()
}

func (e *entry) allowLeakyBucket(now time.Time, r Rule) bool {
	if e.lastDrain.IsZero() {
		e.lastDrain = now
	}
	elapsed := now.Sub(e.lastDrain).Seconds()
	e.level -= elapsed * r.Rate
	if e.level < 0 {
		e.level = 0
	}
	e.lastDrain = now
	if e.level >= r.BurstLevel {
		return false
	}
	e.level++
	return true
}
