package scope

import "sync"

// Scope is a nested, environment-owned region of execution with a defined
// allocation regime. Concrete scopes are *PoolScope, *HeapScope, *LocalScope
// and *ConcurrentScope; all of them embed scopeBase.
//
// A scope has at most one owner environment at a time. Scopes created
// implicitly by the Enter* methods are cached on their outer scope when
// exited and reused by later enters of the same kind.
type Scope interface {
	// Kind returns the allocation regime of this scope.
	Kind() Kind

	base() *scopeBase
	enterHook(e *Env)
	exitHook(e *Env)
	dispose()
}

// ownershipMu guards the owner/outer hand-off fields of every scope. These
// fields are written exactly once per enter/exit, by the thread performing
// the transition.
var ownershipMu sync.Mutex

// scopeBase carries the stack links shared by every scope kind.
type scopeBase struct {
	// owner is the environment that entered this scope and has not yet
	// exited it, or nil.
	owner *Env

	// outer is the scope that was current when this one was entered, or nil
	// when the scope is not on a stack.
	outer Scope

	// children caches previously used inner scopes for reuse, most recent
	// last. Entries are detached before being re-linked under a new current
	// scope.
	children []Scope

	// reenter counts redundant enters of the kind already current; such
	// enters are cheap no-ops rather than new nesting levels.
	reenter int

	// poolScope is the nearest enclosing pool scope (including self), or nil
	// under a heap scope.
	poolScope *PoolScope

	// localScope is the nearest enclosing local scope (including self), or
	// nil.
	localScope *LocalScope
}

func (b *scopeBase) base() *scopeBase { return b }

// inherit copies the pool and local shortcuts down from the outer scope.
// Kinds that redefine one of them do so in their enterHook.
func (b *scopeBase) inherit(outer Scope) {
	ob := outer.base()
	b.poolScope = ob.poolScope
	b.localScope = ob.localScope
}

// takeChild detaches and returns a previously used scope of the wanted kind
// from the cached inner chain, or nil. The search walks the whole cached
// tree; a match is detached from wherever it sits before being re-linked
// under the new current scope.
func (b *scopeBase) takeChild(k Kind) Scope {
	for i := len(b.children) - 1; i >= 0; i-- {
		if c := b.children[i]; c.Kind() == k {
			b.children = append(b.children[:i], b.children[i+1:]...)
			return c
		}
	}
	for _, c := range b.children {
		if s := c.base().takeChild(k); s != nil {
			return s
		}
	}
	return nil
}

// enter pushes s as e's current scope. s must not be owned.
func (e *Env) enter(s Scope) {
	b := s.base()
	ownershipMu.Lock()
	b.owner = e
	b.outer = e.cur
	ownershipMu.Unlock()
	b.inherit(e.cur)
	e.cur = s
	s.enterHook(e)
}

// enterKind reuses or allocates a scope of kind k and pushes it.
func (e *Env) enterKind(k Kind) Scope {
	cur := e.cur
	if cur.Kind() == k && cur != e.root {
		cur.base().reenter++
		return cur
	}
	s := cur.base().takeChild(k)
	if s == nil {
		s = newScope(k)
	}
	// Most recent last: detaching and re-appending the cached child stays
	// within the slice's capacity, so the steady state allocates nothing.
	cur.base().children = append(cur.base().children, s)
	e.enter(s)
	return s
}

// exitKind pops the current scope after checking that it is of kind k and
// that an enclosing scope owned by the same environment exists.
func (e *Env) exitKind(k Kind) error {
	cur := e.cur
	if cur.Kind() != k {
		return ErrScopeMismatch
	}
	if cur == e.root {
		return ErrScopeUnderflow
	}
	b := cur.base()
	if b.reenter > 0 {
		b.reenter--
		return nil
	}
	if b.outer == nil || b.outer.base().owner != e {
		return ErrScopeUnderflow
	}
	cur.exitHook(e)
	e.cur = b.outer
	ownershipMu.Lock()
	b.owner = nil
	b.outer = nil
	ownershipMu.Unlock()
	return nil
}

func newScope(k Kind) Scope {
	switch k {
	case KindPool:
		return &PoolScope{}
	case KindHeap:
		return &HeapScope{}
	case KindLocal:
		return &LocalScope{}
	case KindConcurrent:
		return newConcurrentScope()
	default:
		panic("scope: unknown kind")
	}
}

// disposeTree disposes s and every cached inner scope below it.
func disposeTree(s Scope) {
	for _, c := range s.base().children {
		disposeTree(c)
	}
	s.base().children = nil
	s.dispose()
}

// Attach pushes an application-owned scope instance onto e's stack. Unlike
// the Enter* methods the instance is supplied by the caller (for example a
// long-lived pool scope shared by repeated operations) and is not cached on
// the outer scope when detached.
func (e *Env) Attach(s Scope) error {
	ownershipMu.Lock()
	if s.base().owner != nil {
		ownershipMu.Unlock()
		return ErrScopeInUse
	}
	s.base().owner = e
	s.base().outer = e.cur
	ownershipMu.Unlock()
	s.base().inherit(e.cur)
	e.cur = s
	s.enterHook(e)
	return nil
}

// Detach pops an application-owned scope pushed with Attach.
func (e *Env) Detach(s Scope) error {
	if e.cur != s {
		return ErrScopeMismatch
	}
	b := s.base()
	if b.owner != e {
		return ErrScopeInUse
	}
	if b.outer == nil {
		return ErrScopeUnderflow
	}
	s.exitHook(e)
	e.cur = b.outer
	ownershipMu.Lock()
	b.owner = nil
	b.outer = nil
	ownershipMu.Unlock()
	return nil
}
