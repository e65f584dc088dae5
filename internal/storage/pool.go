package storage

import (
	"fmt"
	"sync"

	"go.uber.org/atomic"
)

// Pool recycles chunk buffers across chunk lifetimes. Buffers are reset when
// they are returned, so anything handed out is blank. Safe for concurrent use:
// generation takes block arrays on a background goroutine while the main loop
// returns buffers of evicted chunks.
type Pool struct {
	mu      sync.Mutex
	blocks  []*BlockArray
	opacity []*OpacityArray
	maxIdle int

	allocated atomic.Int64
	reused    atomic.Int64
	released  atomic.Int64
}

// PoolStats is a snapshot of pool counters.
type PoolStats struct {
	Allocated   int64 // buffers created because the pool was empty
	Reused      int64 // buffers handed out from the pool
	Released    int64 // buffers returned to the pool
	IdleBlocks  int
	IdleOpacity int
}

// NewPool creates a pool keeping at most maxIdle buffers of each type
// (0 means unbounded).
func NewPool(maxIdle int) *Pool {
	return &Pool{maxIdle: maxIdle}
}

// Blocks returns a blank block array.
func (p *Pool) Blocks() *BlockArray {
	p.mu.Lock()
	n := len(p.blocks)
	if n == 0 {
		p.mu.Unlock()
		p.allocated.Inc()
		return newBlockArray()
	}
	a := p.blocks[n-1]
	p.blocks[n-1] = nil
	p.blocks = p.blocks[:n-1]
	p.mu.Unlock()
	p.reused.Inc()
	return a
}

// PutBlocks resets a and makes it available again.
func (p *Pool) PutBlocks(a *BlockArray) {
	if a == nil {
		return
	}
	if a.Len() != Volume {
		panic(fmt.Sprintf("storage: block array of %d cells returned to pool, want %d", a.Len(), Volume))
	}
	a.reset()
	p.released.Inc()
	p.mu.Lock()
	if p.maxIdle == 0 || len(p.blocks) < p.maxIdle {
		p.blocks = append(p.blocks, a)
	}
	p.mu.Unlock()
}

// Opacity returns a blank opacity array.
func (p *Pool) Opacity() *OpacityArray {
	p.mu.Lock()
	n := len(p.opacity)
	if n == 0 {
		p.mu.Unlock()
		p.allocated.Inc()
		return newOpacityArray()
	}
	a := p.opacity[n-1]
	p.opacity[n-1] = nil
	p.opacity = p.opacity[:n-1]
	p.mu.Unlock()
	p.reused.Inc()
	return a
}

// PutOpacity resets a and makes it available again.
func (p *Pool) PutOpacity(a *OpacityArray) {
	if a == nil {
		return
	}
	if a.Len() != Volume {
		panic(fmt.Sprintf("storage: opacity array of %d cells returned to pool, want %d", a.Len(), Volume))
	}
	a.reset()
	p.released.Inc()
	p.mu.Lock()
	if p.maxIdle == 0 || len(p.opacity) < p.maxIdle {
		p.opacity = append(p.opacity, a)
	}
	p.mu.Unlock()
}

func (p *Pool) Stats() PoolStats {
	p.mu.Lock()
	idleB, idleO := len(p.blocks), len(p.opacity)
	p.mu.Unlock()
	return PoolStats{
		Allocated:   p.allocated.Load(),
		Reused:      p.reused.Load(),
		Released:    p.released.Load(),
		IdleBlocks:  idleB,
		IdleOpacity: idleO,
	}
}
