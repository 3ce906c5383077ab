package scope

import (
	"sync"
	"sync/atomic"
)

// Env is one goroutine's execution environment: the owner of its scope
// stack. An Env is not safe for concurrent use; create one per goroutine
// and Close it at goroutine teardown so that cached scopes and their pools
// are released promptly.
type Env struct {
	id     uint64
	root   *HeapScope
	cur    Scope
	closed bool
}

var envSeq atomic.Uint64

// envs is the process-wide registry of live environments, for diagnostics
// and enumeration. Entries for closed environments are swept opportunistically
// whenever the registry is written.
var envs struct {
	sync.Mutex
	m map[uint64]*Env
}

// NewEnv creates an environment rooted in a heap scope and registers it.
func NewEnv() *Env {
	e := &Env{id: envSeq.Add(1), root: &HeapScope{}}
	e.root.base().owner = e
	e.cur = e.root

	envs.Lock()
	if envs.m == nil {
		envs.m = make(map[uint64]*Env)
	}
	sweepLocked()
	envs.m[e.id] = e
	envs.Unlock()
	return e
}

// sweepLocked removes registry entries whose environment has been closed.
// Callers hold envs.Mutex.
func sweepLocked() {
	for id, e := range envs.m {
		if e.closed {
			delete(envs.m, id)
		}
	}
}

// Close disposes every scope this environment has used, cached inner scopes
// included, and removes the environment from the registry. Objects still
// held in pools become ordinary garbage. Close is idempotent.
func (e *Env) Close() {
	if e.closed {
		return
	}
	// Unwind anything still on the stack without recycling semantics; the
	// dispose below drops all pool contents anyway.
	for e.cur != e.root {
		b := e.cur.base()
		next := b.outer
		ownershipMu.Lock()
		b.owner = nil
		b.outer = nil
		ownershipMu.Unlock()
		e.cur = next
	}
	disposeTree(e.root)
	e.closed = true

	envs.Lock()
	delete(envs.m, e.id)
	sweepLocked()
	envs.Unlock()
}

// LiveEnvs returns the number of registered environments.
func LiveEnvs() int {
	envs.Lock()
	defer envs.Unlock()
	sweepLocked()
	return len(envs.m)
}

// Current returns the environment's current scope.
func (e *Env) Current() Scope { return e.cur }

// EnterPool enters a pool scope: factory allocations are drawn from the
// scope's pools and bulk-recycled by ExitPool.
func (e *Env) EnterPool() { e.enterKind(KindPool) }

// ExitPool exits the current pool scope, recycling every pool it used.
func (e *Env) ExitPool() error { return e.exitKind(KindPool) }

// EnterHeap enters a heap scope: factory allocations bypass pooling.
func (e *Env) EnterHeap() { e.enterKind(KindHeap) }

// ExitHeap exits the current heap scope.
func (e *Env) ExitHeap() error { return e.exitKind(KindHeap) }

// EnterLocal enters a local scope for locally scoped settings.
func (e *Env) EnterLocal() { e.enterKind(KindLocal) }

// ExitLocal exits the current local scope, dropping its settings.
func (e *Env) ExitLocal() error { return e.exitKind(KindLocal) }

// EnterConcurrent enters a concurrent scope. Work submitted with Submit is
// executed by persistent workers and/or the calling goroutine no later than
// ExitConcurrent.
func (e *Env) EnterConcurrent() { e.enterKind(KindConcurrent) }

// ExitConcurrent drains the current concurrent scope, blocks until every
// submitted entry has completed and surfaces the first failure wrapped in
// ErrTaskFailed.
func (e *Env) ExitConcurrent() error {
	cs, ok := e.cur.(*ConcurrentScope)
	if !ok {
		return e.exitKind(KindConcurrent)
	}
	if err := e.exitKind(KindConcurrent); err != nil {
		return err
	}
	if e.cur == Scope(cs) {
		// Redundant exit; the outermost one drains and reports.
		return nil
	}
	return cs.takeError()
}

// currentPoolScope returns the nearest enclosing pool scope, or nil when the
// environment executes under a heap scope.
func (e *Env) currentPoolScope() *PoolScope { return e.cur.base().poolScope }

// currentLocalScope returns the nearest enclosing local scope, or nil.
func (e *Env) currentLocalScope() *LocalScope { return e.cur.base().localScope }
