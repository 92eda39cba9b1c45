package cache

import (
	"context"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/hrygo/todoc/ai/metrics"
)

// DefaultSweepInterval is how often the janitor drops expired entries.
const DefaultSweepInterval = 5 * time.Minute

// Expirer is a cache that can drop its expired entries in bulk.
type Expirer interface {
	CleanupExpired() int
	Stats() Stats
}

// Janitor sweeps expired entries out of a set of named caches and reports
// their sizes. Entries otherwise only expire when they are read again.
type Janitor struct {
	interval time.Duration
	metrics  metrics.Recorder

	mu     sync.Mutex
	caches map[string]Expirer
}

// NewJanitor creates a janitor. A non-positive interval uses DefaultSweepInterval.
func NewJanitor(interval time.Duration, recorder metrics.Recorder) *Janitor {
	if interval <= 0 {
		interval = DefaultSweepInterval
	}
	if recorder == nil {
		recorder = metrics.Noop{}
	}
	return &Janitor{
		interval: interval,
		metrics:  recorder,
		caches:   make(map[string]Expirer),
	}
}

// Add registers c under name. A nil cache is ignored.
func (j *Janitor) Add(name string, c Expirer) {
	if c == nil {
		return
	}
	j.mu.Lock()
	defer j.mu.Unlock()
	j.caches[name] = c
}

// Sweep runs one pass over every cache and returns the number of entries removed.
func (j *Janitor) Sweep() int {
	j.mu.Lock()
	names := make([]string, 0, len(j.caches))
	for name := range j.caches {
		names = append(names, name)
	}
	caches := make(map[string]Expirer, len(j.caches))
	for name, c := range j.caches {
		caches[name] = c
	}
	j.mu.Unlock()
	sort.Strings(names)

	total := 0
	for _, name := range names {
		c := caches[name]
		removed := c.CleanupExpired()
		stats := c.Stats()
		j.metrics.RecordCacheSize(name, stats.Size)
		total += removed
		slog.Debug("cache swept",
			"cache", name,
			"removed", removed,
			"size", stats.Size,
			"hits", stats.Hits,
			"misses", stats.Misses,
		)
	}
	return total
}

// Run sweeps every interval until ctx is done.
func (j *Janitor) Run(ctx context.Context) {
	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			j.Sweep()
		}
	}
}
