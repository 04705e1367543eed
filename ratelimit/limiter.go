package ratelimit

import (
	"context"
	"sort"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/viant/jsonrpc/internal/collection"
)

// DynamicConfig enables the optional tightening/relaxing mode: when the
// recent denial rate exceeds ThresholdTighten, every bucket-algorithm
// rule's rate is halved; when it drops back below ThresholdRelax, rates
// are restored to their configured values.
type DynamicConfig struct {
	Enabled         bool
	ThresholdTighten float64
	ThresholdRelax   float64
	SampleWindow     time.Duration
}

// Limiter is the advanced rate limiter from spec §4.10.
type Limiter struct {
	mu    sync.Mutex
	rules []Rule

	entries *collection.SyncMap[string, *entry]

	dynamic   DynamicConfig
	tightened bool

	sampleStart    time.Time
	allowedInSample int
	deniedInSample  int

	// store, when set, externalizes fixed-window counters (e.g. to Redis) so
	// several Limiter instances enforce one shared quota instead of each
	// counting independently.
	store Store
}

// Option configures a Limiter.
type Option func(*Limiter)

// WithStore externalizes fixed-window counters to store.
func WithStore(store Store) Option {
	return func(l *Limiter) { l.store = store }
}

// New creates a Limiter with rules sorted by descending priority (first
// match wins, per spec).
func New(rules []Rule, dyn DynamicConfig, opts ...Option) *Limiter {
	sorted := append([]Rule(nil), rules...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Priority > sorted[j].Priority })
	l := &Limiter{
		rules:       sorted,
		entries:     collection.NewSyncMap[string, *entry](),
		dynamic:     dyn,
		sampleStart: time.Time{},
	}
	for _, o := range opts {
		o(l)
	}
	return l
}

// Allow checks whether a request identified by (keyType, key) is permitted.
// It returns (allowed, matched) — matched is false if no rule applies, in
// which case the caller's policy decides the default (spec leaves this to
// the dispatcher's configured default-allow/deny).
func (l *Limiter) Allow(keyType KeyType, key string) (allowed bool, matched bool) {
	l.mu.Lock()
	var rule *Rule
	for i := range l.rules {
		if l.rules[i].KeyType == keyType && l.rules[i].matches(key) {
			rule = &l.rules[i]
			break
		}
	}
	l.mu.Unlock()
	if rule == nil {
		return true, false
	}

	now := time.Now()
	renderedKey := string(keyType) + ":" + key
	e := l.entries.GetOrCreate(renderedKey, func() *entry {
		if rule.Algorithm == TokenBucket {
			return newTokenBucketEntry(rule)
		}
		return &entry{}
	})

	var ok bool
	switch rule.Algorithm {
	case FixedWindow:
		if l.store != nil {
			ok = l.allowFixedWindowRemote(renderedKey, *rule)
		} else {
			ok = e.allowFixedWindow(now, *rule)
		}
	case SlidingWindow:
		ok = e.allowSlidingWindow(now, *rule)
	case TokenBucket:
		ok = e.allowTokenBucket()
	case LeakyBucket:
		ok = e.allowLeakyBucket(now, *rule)
	default:
		ok = true
	}

	if l.dynamic.Enabled {
		l.recordSample(ok)
	}
	return ok, true
}

// allowFixedWindowRemote enforces a fixed-window rule against the shared
// Store instead of the local in-memory entry, so the quota is honored
// across every Limiter instance pointed at the same store.
func (l *Limiter) allowFixedWindowRemote(renderedKey string, r Rule) bool {
	count, err := l.store.Incr(context.Background(), renderedKey, r.Window)
	if err != nil {
		// Store unavailable: fail open rather than block every request.
		return true
	}
	return count <= int64(r.Max)
}

// recordSample tracks the rolling allow/deny ratio and flips dynamic
// tightening on or off when the thresholds are crossed.
func (l *Limiter) recordSample(allowed bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := time.Now()
	if l.sampleStart.IsZero() || now.Sub(l.sampleStart) > l.dynamic.SampleWindow {
		l.sampleStart = now
		l.allowedInSample = 0
		l.deniedInSample = 0
	}
	if allowed {
		l.allowedInSample++
	} else {
		l.deniedInSample++
	}

	total := l.allowedInSample + l.deniedInSample
	if total < 10 {
		return
	}
	denialRate := float64(l.deniedInSample) / float64(total)

	if !l.tightened && denialRate > l.dynamic.ThresholdTighten {
		l.tightened = true
		l.scaleBucketRates(0.5)
	} else if l.tightened && denialRate < l.dynamic.ThresholdRelax {
		l.tightened = false
		l.scaleBucketRates(2.0)
	}
}

// scaleBucketRates multiplies every bucket-algorithm rule's configured rate
// by factor, then pushes the new rate into any already-created entry for
// that rule — leaky bucket entries re-read rule.Rate on every Allow call so
// the rules-table update alone is enough, but a token bucket entry caches
// its rate inside a *rate.Limiter at creation time, so those need an
// explicit SetLimit or tightening/relaxing would be a no-op for any key
// that already has an active limiter.
func (l *Limiter) scaleBucketRates(factor float64) {
	for i := range l.rules {
		if l.rules[i].Algorithm == TokenBucket || l.rules[i].Algorithm == LeakyBucket {
			l.rules[i].Rate *= factor
		}
	}
	l.entries.Range(func(_ string, e *entry) bool {
		if e.limiter != nil && e.rule != nil {
			e.limiter.SetLimit(rate.Limit(e.rule.Rate))
		}
		return true
	})
}
