package source

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pcpsucata/internal/scrap"
	"pcpsucata/internal/shared/testutil"
)

// blockingSource holds every fetch until release is closed.
type blockingSource struct {
	release chan struct{}
	started chan struct{}
	once    sync.Once
	mu      sync.Mutex
	calls   int
}

func newBlockingSource() *blockingSource {
	return &blockingSource{release: make(chan struct{}), started: make(chan struct{})}
}

func (b *blockingSource) Name() string { return "blocking" }

func (b *blockingSource) Fetch(ctx context.Context) (scrap.Grid, error) {
	b.mu.Lock()
	b.calls++
	b.mu.Unlock()
	b.once.Do(func() { close(b.started) })

	select {
	case <-b.release:
		return scrap.Grid{{"Data"}}, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (b *blockingSource) Calls() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.calls
}

func newTestCache(t *testing.T, next Source, ttl time.Duration) (*CachedSource, *time.Time) {
	t.Helper()
	logger, _ := testutil.NewTestLogger(t)
	c, ok := Cache(next, ttl, logger, nil).(*CachedSource)
	require.True(t, ok)

	now := time.Date(2024, 7, 1, 8, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }
	return c, &now
}

func TestCache_ZeroTTLIsPassThrough(t *testing.T) {
	mem := NewMemorySource(nil)
	assert.Same(t, mem, Cache(mem, 0, nil, nil))
}

func TestCache_ServesFreshGrid(t *testing.T) {
	mem := NewMemorySource(testutil.SampleSheet())
	c, now := newTestCache(t, mem, 30*time.Second)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := c.Fetch(ctx)
		require.NoError(t, err)
	}
	assert.Equal(t, 1, mem.Calls())

	*now = now.Add(31 * time.Second)
	_, err := c.Fetch(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, mem.Calls(), "expired entry is refetched")

	stats := c.Stats()
	assert.Equal(t, int64(2), stats["hit_count"])
	assert.Equal(t, int64(2), stats["miss_count"])
	assert.Equal(t, true, stats["cached"])
	assert.Equal(t, "memory", c.Name())
}

func TestCache_ErrorsAreNotCached(t *testing.T) {
	mem := NewMemorySource(testutil.SampleSheet())
	mem.SetError(errors.New("503 backend error"))
	c, _ := newTestCache(t, mem, time.Minute)

	_, err := c.Fetch(context.Background())
	assert.ErrorIs(t, err, ErrUnavailable)

	mem.SetError(nil)
	grid, err := c.Fetch(context.Background())
	require.NoError(t, err)
	assert.NotEmpty(t, grid)
	assert.Equal(t, 2, mem.Calls())
}

func TestCache_CollapsesConcurrentMisses(t *testing.T) {
	blocking := newBlockingSource()
	c, _ := newTestCache(t, blocking, time.Minute)

	const callers = 8
	var wg sync.WaitGroup
	errs := make(chan error, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := c.Fetch(context.Background())
			errs <- err
		}()
	}

	<-blocking.started
	// give the remaining callers time to join the in-flight fetch
	time.Sleep(50 * time.Millisecond)
	close(blocking.release)
	wg.Wait()
	close(errs)

	for err := range errs {
		assert.NoError(t, err)
	}
	assert.Equal(t, 1, blocking.Calls())
}

func TestCache_CallerCancellation(t *testing.T) {
	blocking := newBlockingSource()
	c, _ := newTestCache(t, blocking, time.Minute)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		_, err := c.Fetch(ctx)
		done <- err
	}()

	<-blocking.started
	cancel()
	err := <-done
	assert.ErrorIs(t, err, context.Canceled)

	close(blocking.release)
	require.Eventually(t, func() bool {
		_, ok := c.lookup()
		return ok
	}, time.Second, 10*time.Millisecond, "the shared fetch completes and fills the cache")
}
