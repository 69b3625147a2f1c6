// Package fanout bounds concurrent per-candidate work across all requests.
package fanout

import (
	"context"
	"fmt"
	"sync"

	"github.com/panjf2000/ants/v2"
)

// Pool runs indexed tasks on a shared goroutine pool.
type Pool struct {
	pool *ants.Pool
}

// New creates a pool with at most size concurrent workers. size < 1 means 1.
func New(size int) (*Pool, error) {
	if size < 1 {
		size = 1
	}
	p, err := ants.NewPool(size)
	if err != nil {
		return nil, fmt.Errorf("create worker pool: %w", err)
	}
	return &Pool{pool: p}, nil
}

// Run calls fn(ctx, i) for i in [0, n) and waits for all calls to return.
// Tasks not yet started when ctx is done are skipped. Each fn writes only its own slot.
func (p *Pool) Run(ctx context.Context, n int, fn func(ctx context.Context, i int)) {
	var wg sync.WaitGroup
	for i := range n {
		if ctx.Err() != nil {
			break
		}
		wg.Add(1)
		task := func() {
			defer wg.Done()
			if ctx.Err() != nil {
				return
			}
			fn(ctx, i)
		}
		if err := p.pool.Submit(task); err != nil {
			// pool released: degrade to inline execution
			task()
		}
	}
	wg.Wait()
}

// Running reports the number of busy workers.
func (p *Pool) Running() int {
	return p.pool.Running()
}

// Release stops the pool. Run keeps working afterwards by executing inline.
func (p *Pool) Release() {
	p.pool.Release()
}
