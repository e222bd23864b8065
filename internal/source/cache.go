package source

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"pcpsucata/internal/infrastructure"
	"pcpsucata/internal/scrap"
)

// CachedSource keeps the last grid for a short TTL so that the several
// requests a dashboard page makes share one sheet read. Concurrent misses
// are collapsed into a single fetch. Failed fetches are never cached.
type CachedSource struct {
	next    Source
	ttl     time.Duration
	now     func() time.Time
	metrics *infrastructure.BusinessMetrics
	logger  *slog.Logger

	mu        sync.RWMutex
	grid      scrap.Grid
	fetchedAt time.Time
	hitCount  int64
	missCount int64

	group singleflight.Group
}

// Cache wraps next with a TTL cache. A non-positive TTL returns next as is.
func Cache(next Source, ttl time.Duration, logger *slog.Logger, metrics *infrastructure.BusinessMetrics) Source {
	if ttl <= 0 {
		return next
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &CachedSource{
		next:    next,
		ttl:     ttl,
		now:     time.Now,
		metrics: metrics,
		logger:  logger.With(slog.String("component", "source_cache")),
	}
}

func (c *CachedSource) Name() string { return c.next.Name() }

// Fetch returns the cached grid while it is fresh. A caller whose context
// ends while waiting for a shared fetch returns early; the fetch itself keeps
// running for the other waiters.
func (c *CachedSource) Fetch(ctx context.Context) (scrap.Grid, error) {
	if grid, ok := c.lookup(); ok {
		infrastructure.RecordCacheLookup(ctx, c.metrics, c.Name(), true)
		return grid, nil
	}
	infrastructure.RecordCacheLookup(ctx, c.metrics, c.Name(), false)

	fetchCtx := context.WithoutCancel(ctx)
	ch := c.group.DoChan("grid", func() (interface{}, error) {
		grid, err := c.next.Fetch(fetchCtx)
		if err != nil {
			return nil, err
		}
		c.store(grid)
		return grid, nil
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(scrap.Grid), nil
	case <-ctx.Done():
		return nil, wrapErr(c.Name(), "fetch", ctx.Err())
	}
}

func (c *CachedSource) lookup() (scrap.Grid, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.grid != nil && c.now().Sub(c.fetchedAt) < c.ttl {
		c.hitCount++
		return c.grid, true
	}
	c.missCount++
	return nil, false
}

func (c *CachedSource) store(grid scrap.Grid) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.grid = grid
	c.fetchedAt = c.now()
}

// Stats returns hit and miss counters and the age of the cached grid.
func (c *CachedSource) Stats() map[string]interface{} {
	c.mu.RLock()
	defer c.mu.RUnlock()

	total := c.hitCount + c.missCount
	hitRatio := float64(0)
	if total > 0 {
		hitRatio = float64(c.hitCount) / float64(total)
	}

	var age float64
	if c.grid != nil {
		age = c.now().Sub(c.fetchedAt).Seconds()
	}

	return map[string]interface{}{
		"cached":      c.grid != nil,
		"age_seconds": age,
		"hit_count":   c.hitCount,
		"miss_count":  c.missCount,
		"hit_ratio":   hitRatio,
		"ttl_seconds": c.ttl.Seconds(),
	}
}
