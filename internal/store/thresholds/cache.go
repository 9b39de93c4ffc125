package thresholds

import (
	"context"
	"sync"

	"github.com/quakewatch/quakewatch/internal/models"
)

// Cache wraps Store with an in-memory map so domainmatch's ThresholdLookup
// never blocks the notice-dispatch hot path on a database round trip. New
// scopes are faulted in from the store lazily and Observe()s accumulate
// in memory until FlushAll persists them.
type Cache struct {
	store    *Store
	sigmaMul float64

	mu      sync.Mutex
	entries map[string]*models.Threshold
}

// NewCache builds a Cache backed by store, seeding any never-before-seen
// scope's sigma multiplier from sigmaMul (the deployment's tuned default)
// rather than models.NewThreshold's hardcoded 1.0.
func NewCache(store *Store, sigmaMul float64) *Cache {
	if sigmaMul <= 0 {
		sigmaMul = 1.0
	}
	return &Cache{store: store, sigmaMul: sigmaMul, entries: make(map[string]*models.Threshold)}
}

func (c *Cache) get(ctx context.Context, scope string) *models.Threshold {
	c.mu.Lock()
	t, ok := c.entries[scope]
	c.mu.Unlock()
	if ok {
		return t
	}

	loaded, err := c.store.Load(ctx, scope)
	if err != nil || loaded == nil {
		loaded = models.NewThreshold(scope)
		loaded.SigmaMul = c.sigmaMul
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if existing, ok := c.entries[scope]; ok {
		return existing
	}
	c.entries[scope] = loaded
	return loaded
}

// Lookup satisfies domainmatch.ThresholdLookup.
func (c *Cache) Lookup(scope string, hour int) (float64, bool) {
	t := c.get(context.Background(), scope)
	c.mu.Lock()
	count := t.Counts[((hour%24)+24)%24]
	c.mu.Unlock()
	if count == 0 {
		return 0, false
	}
	return t.Minimum(hour), true
}

// Observe folds score into scope's hour bucket, faulting the scope in from
// the store first if this is the first time the process has seen it.
func (c *Cache) Observe(scope string, hour int, score float64) {
	t := c.get(context.Background(), scope)
	c.mu.Lock()
	t.Observe(hour, score)
	c.mu.Unlock()
}

// FlushAll persists every cached scope, called periodically from a
// maintenance worker rather than per-Observe to keep the write rate down.
func (c *Cache) FlushAll(ctx context.Context) error {
	c.mu.Lock()
	snapshot := make([]*models.Threshold, 0, len(c.entries))
	for _, t := range c.entries {
		snapshot = append(snapshot, t)
	}
	c.mu.Unlock()

	for _, t := range snapshot {
		if err := c.store.Save(ctx, t); err != nil {
			return err
		}
	}
	return nil
}
