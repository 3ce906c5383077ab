// Package scope implements region-based object allocation with stack
// discipline, explicit escape operations and a small fork-join dispatcher
// built on top of it.
//
// # Overview
//
// Programs that churn through short-lived objects can avoid per-object
// reclaim cost by allocating them out of per-region pools instead of the
// managed heap. A region ("pool scope") is entered and exited like a stack
// frame; every object drawn from a factory while the scope is active is
// bulk-recycled on exit, in O(1) per pool rather than per object. Objects
// that must outlive their scope are escaped explicitly (exported, preserved
// or moved to the heap) before the scope exits.
//
// # Environments
//
// Go offers no usable thread-local storage, so the caller affinity of the
// scope stack is an explicit handle: an [Env] owns one goroutine's stack of
// scopes and is not safe for concurrent use. Create one per goroutine:
//
//	env := scope.NewEnv()
//	defer env.Close()
//
//	env.EnterPool()
//	v := vectorFactory.New(env)
//	// ... use v; recycled automatically below
//	err := env.ExitPool()
//
// # Scope kinds
//
// Four kinds of scope nest like parentheses on an Env:
//
//   - Pool scope: factory allocations come from per-factory pools owned by
//     the scope and are bulk-recycled on exit.
//   - Heap scope: factory allocations bypass pooling entirely.
//   - Local scope: holds locally scoped settings ([LocalRef]) inherited by
//     nested scopes.
//   - Concurrent scope: queues work for a fixed pool of persistent workers;
//     exit blocks until every queued entry has run and surfaces the first
//     failure.
//
// Exiting a kind other than the current one fails with [ErrScopeMismatch];
// exiting with no enclosing scope fails with [ErrScopeUnderflow]. Exited
// scopes are cached on their outer scope and reused by later enters, so a
// steady-state enter/exit cycle allocates nothing.
//
// # Factories and the move protocol
//
// A [Factory] is the sole producer of one pooled type, registered once in a
// bounded process-wide table. Pooled types embed [Node] and implement
// [Movable]; the four transitions (export, move-to-heap, preserve,
// unpreserve) relocate an object between its scope's pool, the outer pool
// and the heap without copying. Composite types forward transitions to their
// pool-resident parts, typically via [MoveAll]:
//
//	type Pair struct {
//	    scope.Node
//	    Left, Right *Vec
//	}
//
//	func (p *Pair) Move(e *scope.Env, s scope.Space) bool {
//	    if !p.Node.Move(e, s) {
//	        return false
//	    }
//	    scope.MoveAll(e, s, p.Left, p.Right)
//	    return true
//	}
//
// # Thread safety
//
// A pool is single-writer while its owning scope is active; the framework's
// own discipline (one owner per scope, inner scopes for workers) makes local
// operations lock-free. Only operations that cross an ownership boundary
// (outer-pool fetches, the escape transitions, worker claims) synchronize.
//
// # Related packages
//
//   - github.com/joshuapare/scopekit/profile: allocation-profile persistence
//     and factory pre-allocation.
package scope
