package source

import (
	"context"
	"sync"

	"pcpsucata/internal/scrap"
)

// MemorySource serves a fixed grid. It is safe for concurrent use.
type MemorySource struct {
	mu    sync.RWMutex
	grid  scrap.Grid
	err   error
	calls int
}

// NewMemorySource returns a source serving grid.
func NewMemorySource(grid scrap.Grid) *MemorySource {
	return &MemorySource{grid: grid}
}

func (m *MemorySource) Name() string { return "memory" }

func (m *MemorySource) Fetch(ctx context.Context) (scrap.Grid, error) {
	m.mu.Lock()
	m.calls++
	grid, err := m.grid, m.err
	m.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return nil, wrapErr(m.Name(), "fetch", err)
	}
	if err != nil {
		return nil, wrapErr(m.Name(), "fetch", err)
	}
	return grid, nil
}

// SetGrid replaces the served grid.
func (m *MemorySource) SetGrid(grid scrap.Grid) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.grid = grid
}

// SetError makes subsequent fetches fail with err; nil restores the grid.
func (m *MemorySource) SetError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

// Calls reports how many times Fetch ran.
func (m *MemorySource) Calls() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.calls
}
