// Package memutil provides the narrow pool the core keeps for the small
// fixed-size structures the original server pooled by hand (affect entries,
// reset-context scratch objects). Go's garbage collector makes manual
// pooling a throughput optimization rather than a safety requirement here.
// The pool is a thin wrapper over sync.Pool, which is safe for concurrent
// use; it keeps no mutex or free list of its own.
package memutil

import "sync"

// Pool is a typed wrapper over sync.Pool with an explicit reset hook so
// reused values never leak state between borrowers.
type Pool[T any] struct {
	pool sync.Pool
}

func NewPool[T any](new func() *T) *Pool[T] {
	p := &Pool[T]{}
	p.pool.New = func() any { return new() }
	return p
}

func (p *Pool[T]) Get() *T { return p.pool.Get().(*T) }

func (p *Pool[T]) Put(v *T, reset func(*T)) {
	if reset != nil {
		reset(v)
	}
	p.pool.Put(v)
}
