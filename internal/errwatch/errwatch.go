// Package errwatch throttles user-visible error reporting. A scan loop
// can hit the same failure dozens of times per second; the user needs to
// see it once or twice, not on every hover.
package errwatch

import (
	"log/slog"
	"sync"
)

// DefaultThreshold is how many times an identical error (same kind and
// message) is surfaced before further reports go quiet.
const DefaultThreshold = 3

// Reporter counts errors and decides which ones still get surfaced.
// Suppressed errors keep counting; Stats exposes the totals.
type Reporter struct {
	mu        sync.Mutex
	threshold int
	counts    map[string]int
	byKind    map[string]int
	logger    *slog.Logger
}

// New creates a Reporter. threshold <= 0 selects DefaultThreshold.
func New(threshold int, logger *slog.Logger) *Reporter {
	if threshold <= 0 {
		threshold = DefaultThreshold
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Reporter{
		threshold: threshold,
		counts:    make(map[string]int),
		byKind:    make(map[string]int),
		logger:    logger,
	}
}

// Report records one occurrence and returns whether it should still be
// surfaced to the user. Every occurrence is logged at debug level either
// way.
func (r *Reporter) Report(kind string, err error) bool {
	if err == nil {
		return false
	}
	key := kind + "|" + err.Error()

	r.mu.Lock()
	r.counts[key]++
	r.byKind[kind]++
	n := r.counts[key]
	r.mu.Unlock()

	r.logger.Debug("errwatch: error recorded", "kind", kind, "count", n, "error", err)
	if n == r.threshold+1 {
		r.logger.Info("errwatch: suppressing further reports", "kind", kind, "error", err)
	}
	return n <= r.threshold
}

// Count returns the total occurrences recorded for a kind.
func (r *Reporter) Count(kind string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.byKind[kind]
}

// Reset clears all counters, re-arming suppressed errors.
func (r *Reporter) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.counts = make(map[string]int)
	r.byKind = make(map[string]int)
}
