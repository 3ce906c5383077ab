package scope

import (
	"fmt"
	"runtime/debug"
	"sync"
)

// concurrentQueueCap bounds the pending-entry queue of a concurrent scope.
// A full queue makes Submit drain inline, so submission can never allocate
// unboundedly.
const concurrentQueueCap = 256

// Logic is one unit of work submitted to a concurrent scope. It runs on
// some environment (a persistent worker's or the submitter's) under a
// dedicated pool scope that is bulk-recycled after the entry completes, so
// objects it wants to return must be exported or moved to the heap.
type Logic func(e *Env, args ...any) error

type task struct {
	fn   Logic
	args []any
}

// ConcurrentScope fans submitted entries out to persistent workers and
// joins them on exit. Entries may execute in any order and concurrently
// with the submitter; ExitConcurrent blocks until every entry has
// completed and surfaces the first failure.
type ConcurrentScope struct {
	scopeBase

	mu   sync.Mutex
	done *sync.Cond

	queue []task

	// claims counts workers that accepted this scope's current drain;
	// finished counts completed drainers (claimed workers plus the scope
	// owner). The join condition is finished == claims+1.
	claims   int
	finished int

	firstErr error
}

func newConcurrentScope() *ConcurrentScope {
	cs := &ConcurrentScope{}
	cs.done = sync.NewCond(&cs.mu)
	cs.queue = make([]task, 0, concurrentQueueCap)
	return cs
}

// Kind implements Scope.
func (*ConcurrentScope) Kind() Kind { return KindConcurrent }

func (cs *ConcurrentScope) enterHook(*Env) {
	// Covers application-owned instances pushed with Attach.
	if cs.done == nil {
		cs.done = sync.NewCond(&cs.mu)
	}
}

func (cs *ConcurrentScope) exitHook(e *Env) {
	cs.drain(e)
}

func (cs *ConcurrentScope) dispose() {
	cs.queue = nil
	cs.firstErr = nil
}

// Submit queues one entry on the environment's current concurrent scope.
// Execution may begin immediately and is guaranteed to have completed by
// the time ExitConcurrent returns. When the queue is full Submit first
// drains it inline. Fails with ErrScopeMismatch when the current scope is
// not concurrent.
func (e *Env) Submit(fn Logic, args ...any) error {
	cs, ok := e.cur.(*ConcurrentScope)
	if !ok {
		return ErrScopeMismatch
	}
	cs.mu.Lock()
	if len(cs.queue) >= concurrentQueueCap {
		cs.mu.Unlock()
		cs.drain(e)
		cs.mu.Lock()
	}
	cs.queue = append(cs.queue, task{fn: fn, args: args})
	cs.mu.Unlock()
	return nil
}

// drain offers the queue to idle workers, then works it down on the
// calling environment and blocks until every claimed worker has finished.
func (cs *ConcurrentScope) drain(e *Env) {
	cs.mu.Lock()
	empty := len(cs.queue) == 0 && cs.claims == 0
	cs.mu.Unlock()
	if empty {
		return
	}

	if Parallel(e) {
		claimed := offerWorkers(cs, e.currentLocalScope())
		if claimed > 0 {
			cs.mu.Lock()
			cs.claims += claimed
			cs.mu.Unlock()
		}
	}

	e.EnterPool()
	inner := e.cur.(*PoolScope)
	for {
		t, ok := cs.pop()
		if !ok {
			break
		}
		cs.run(e, t)
		inner.recyclePools()
	}
	_ = e.ExitPool()

	cs.mu.Lock()
	cs.finished++
	cs.done.Broadcast()
	for cs.finished < cs.claims+1 {
		cs.done.Wait()
	}
	cs.claims = 0
	cs.finished = 0
	cs.mu.Unlock()
}

// pop takes one pending entry, if any.
func (cs *ConcurrentScope) pop() (task, bool) {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	k := len(cs.queue)
	if k == 0 {
		return task{}, false
	}
	t := cs.queue[k-1]
	cs.queue[k-1] = task{}
	cs.queue = cs.queue[:k-1]
	return t, true
}

// run executes one entry, converting a panic into a recorded failure so a
// single bad entry cannot take down a worker or leave the join hanging.
func (cs *ConcurrentScope) run(e *Env, t task) {
	defer func() {
		if r := recover(); r != nil {
			cs.setError(fmt.Errorf("panic: %v\n%s", r, debug.Stack()))
		}
	}()
	if err := t.fn(e, t.args...); err != nil {
		cs.setError(err)
	}
}

// setError records the first failure; later failures are dropped.
func (cs *ConcurrentScope) setError(err error) {
	cs.mu.Lock()
	if cs.firstErr == nil {
		cs.firstErr = err
	}
	cs.mu.Unlock()
}

// workerDone is called by a worker after it has run out of entries for
// this scope.
func (cs *ConcurrentScope) workerDone() {
	cs.mu.Lock()
	cs.finished++
	cs.done.Broadcast()
	cs.mu.Unlock()
}

// takeError returns the recorded first failure wrapped in ErrTaskFailed,
// clearing it for the scope's next use.
func (cs *ConcurrentScope) takeError() error {
	cs.mu.Lock()
	err := cs.firstErr
	cs.firstErr = nil
	cs.mu.Unlock()
	if err == nil {
		return nil
	}
	return fmt.Errorf("%w: %w", ErrTaskFailed, err)
}
