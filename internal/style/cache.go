// Package style reads, caches, and categorizes computed and inline CSS
// for inspected elements.
package style

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/hazyhaar/domspect/internal/dom"
)

// Snapshot is an immutable view of an element's resolved styles at a
// point in time. Callers must not mutate Props.
type Snapshot struct {
	Props   map[string]string `json:"props"`
	TakenAt time.Time         `json:"taken_at"`
}

// SelectorFunc computes a best-effort CSS selector for an element.
type SelectorFunc func(ctx context.Context, ref dom.ElementRef) string

// CacheConfig tunes the style cache.
type CacheConfig struct {
	// SnapshotTTL is the maximum age of a cached snapshot. Default: 30s.
	SnapshotTTL time.Duration
	// CleanupEvery bounds how long entries survive without an explicit
	// Clear: PeriodicCleanup drops everything once this much time has
	// passed since the last clear. Default: 60s.
	CleanupEvery time.Duration

	Logger *slog.Logger
}

func (c *CacheConfig) defaults() {
	if c.SnapshotTTL <= 0 {
		c.SnapshotTTL = 30 * time.Second
	}
	if c.CleanupEvery <= 0 {
		c.CleanupEvery = 60 * time.Second
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
}

// Cache memoizes per-element snapshots and selectors, keyed by the
// element's backend node ID. Snapshots expire after SnapshotTTL;
// selectors live until the next Clear. Page nodes come and go outside
// our control, so cleanup is coarse-grained: PeriodicCleanup wipes the
// whole cache instead of tracking individual node lifetimes.
type Cache struct {
	cfg  CacheConfig
	sess dom.Session

	mu        sync.Mutex
	snapshots map[int64]Snapshot
	selectors map[int64]string
	lastClear time.Time

	// now is swapped in tests.
	now func() time.Time

	// reads counts actual platform queries, for tests and stats.
	reads int64
}

// NewCache creates a Cache reading through the given session.
func NewCache(sess dom.Session, cfg CacheConfig) *Cache {
	cfg.defaults()
	return &Cache{
		cfg:       cfg,
		sess:      sess,
		snapshots: make(map[int64]Snapshot),
		selectors: make(map[int64]string),
		lastClear: time.Now(),
		now:       time.Now,
	}
}

// Snapshot returns the element's style snapshot, served from cache when
// present and younger than SnapshotTTL, recomputed otherwise. A failing
// platform read (e.g. the node detached mid-hover) yields an empty
// snapshot rather than an error; the failure is not cached, so the next
// hover retries.
func (c *Cache) Snapshot(ctx context.Context, ref dom.ElementRef) Snapshot {
	now := c.now()

	c.mu.Lock()
	if snap, ok := c.snapshots[ref.NodeID]; ok && now.Sub(snap.TakenAt) < c.cfg.SnapshotTTL {
		c.mu.Unlock()
		return snap
	}
	c.mu.Unlock()

	props, err := c.sess.ComputedStyle(ctx, ref, AllowedProperties)
	c.mu.Lock()
	c.reads++
	c.mu.Unlock()
	if err != nil {
		c.cfg.Logger.Debug("style: computed read failed", "tag", ref.Tag, "error", err)
		return Snapshot{Props: map[string]string{}, TakenAt: now}
	}

	snap := Snapshot{Props: props, TakenAt: now}
	c.mu.Lock()
	c.snapshots[ref.NodeID] = snap
	c.mu.Unlock()
	return snap
}

// Selector returns the element's cached selector, computing it with gen
// on a miss. Selectors have no age limit; only Clear discards them.
func (c *Cache) Selector(ctx context.Context, ref dom.ElementRef, gen SelectorFunc) string {
	c.mu.Lock()
	if sel, ok := c.selectors[ref.NodeID]; ok {
		c.mu.Unlock()
		return sel
	}
	c.mu.Unlock()

	sel := gen(ctx, ref)
	c.mu.Lock()
	c.selectors[ref.NodeID] = sel
	c.mu.Unlock()
	return sel
}

// Clear discards all cached entries.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.snapshots = make(map[int64]Snapshot)
	c.selectors = make(map[int64]string)
	c.lastClear = c.now()
}

// PeriodicCleanup clears everything if more than CleanupEvery has passed
// since the last clear. Called from the scan loop; cheap when nothing is
// due.
func (c *Cache) PeriodicCleanup() {
	c.mu.Lock()
	due := c.now().Sub(c.lastClear) > c.cfg.CleanupEvery
	c.mu.Unlock()
	if due {
		c.Clear()
	}
}

// Reads returns how many platform style queries the cache has issued.
func (c *Cache) Reads() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.reads
}
