package engine

import "sync"

// Aggregator accumulates the scalars returned by pipeline joins.
type Aggregator struct {
	mu    sync.Mutex
	total int64
}

// Add adds n to the running total.
func (a *Aggregator) Add(n int64) {
	a.mu.Lock()
	a.total += n
	a.mu.Unlock()
}

// Total returns the running total.
func (a *Aggregator) Total() int64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.total
}
