package scope

import "sync"

// PoolScope is a scope whose factory allocations are drawn from per-factory
// pools owned by the scope. On exit every pool used during the scope's
// lifetime is bulk-recycled: all still-active objects become available again
// in O(1) per pool. Objects that must survive the exit are escaped first
// (see Export, Preserve and MoveToHeap).
type PoolScope struct {
	scopeBase

	// pools is indexed by factory index; slots are created on first use.
	pools []*Pool

	// inUse lists the pools touched since the last recycle.
	inUse []*Pool
}

// poolAttachMu guards pool creation, in-use marking and outer-pool linking.
// These are the only pool-table operations that may cross an ownership
// boundary (a nested scope, possibly on a worker, fetching from an outer
// scope's table).
var poolAttachMu sync.Mutex

// Kind implements Scope.
func (*PoolScope) Kind() Kind { return KindPool }

func (ps *PoolScope) enterHook(e *Env) {
	ps.scopeBase.poolScope = ps
	// Pools of the enclosing pool scope are no longer local: an inner scope
	// (or a worker draining it) may now touch them.
	if outer := ps.outerPoolScope(); outer != nil {
		outer.setInUseLocal(nil)
	}
}

func (ps *PoolScope) exitHook(e *Env) {
	ps.recyclePools()
	if outer := ps.outerPoolScope(); outer != nil {
		outer.setInUseLocal(outer.owner)
	}
}

func (ps *PoolScope) dispose() {
	for _, p := range ps.pools {
		if p != nil {
			p.clearAll()
		}
	}
	ps.pools = nil
	ps.inUse = nil
}

// outerPoolScope returns the nearest pool scope strictly enclosing this one.
func (ps *PoolScope) outerPoolScope() *PoolScope {
	if ps.outer == nil {
		return nil
	}
	return ps.outer.base().poolScope
}

// setInUseLocal marks every in-use pool as local to the given environment
// (nil marks them non-local).
func (ps *PoolScope) setInUseLocal(user *Env) {
	for _, p := range ps.inUse {
		p.user = user
	}
}

// pool returns this scope's pool for the factory, creating and linking it on
// first use and marking it local to the scope owner.
func (ps *PoolScope) pool(f *Factory) *Pool {
	if f.index < len(ps.pools) {
		if p := ps.pools[f.index]; p != nil && p.user != nil {
			return p
		}
	}
	poolAttachMu.Lock()
	p := ps.getPoolLocked(f)
	poolAttachMu.Unlock()
	p.user = ps.owner
	return p
}

// getPoolLocked fetches (creating if absent) the factory's pool slot, marks
// it in-use and links its outer pool. Callers hold poolAttachMu; the method
// recurses up the scope nesting under that single lock.
func (ps *PoolScope) getPoolLocked(f *Factory) *Pool {
	if f.index >= len(ps.pools) {
		grown := make([]*Pool, f.index+1)
		copy(grown, ps.pools)
		ps.pools = grown
	}
	p := ps.pools[f.index]
	if p == nil {
		p = newPool(f)
		ps.pools[f.index] = p
	}
	if !p.inUse {
		p.inUse = true
		ps.inUse = append(ps.inUse, p)
		if outer := ps.outerPoolScope(); outer != nil {
			p.outer = outer.getPoolLocked(f)
		} else {
			p.outer = nil
		}
	}
	return p
}

// recyclePools bulk-recycles every in-use pool and empties the in-use list.
// Called on scope exit and by workers after each drained entry.
func (ps *PoolScope) recyclePools() {
	for i := len(ps.inUse) - 1; i >= 0; i-- {
		p := ps.inUse[i]
		p.recycleAll()
		p.user = nil
		p.inUse = false
		ps.inUse[i] = nil
	}
	ps.inUse = ps.inUse[:0]
}
