package scope

// Movable is anything that can migrate between object spaces. Composites
// override Move to forward the migration to their parts (typically via
// MoveAll) after moving themselves.
type Movable interface {
	// Move migrates the object to the given space. It returns true when the
	// migration changed the object's residency, signalling composites that
	// their parts must follow.
	Move(e *Env, s Space) bool
}

// Pooled is a pool-managed object: a Movable carrying an embedded Node.
// Embed Node in a struct to satisfy this interface.
type Pooled interface {
	Movable
	node() *Node
}

// Node is the per-object pooling handle. It records which pool currently
// owns the object (nil for heap residents), a generation-checked slot
// handle into that pool's arena, and the preservation count.
//
// Embed Node as the first field of pooled object types. The embedded
// methods provide the default migration behaviour; types with pooled parts
// override Move and forward with MoveAll.
type Node struct {
	pool *Pool
	slot int32
	gen  uint32

	// held counts Preserve calls not yet undone by Unpreserve. While
	// positive the object sits on its pool's hold list.
	held int32

	// self is the object this node is embedded in, set when a pool first
	// adopts it. Needed so list surgery can re-home the full object.
	self Pooled
}

func (n *Node) node() *Node { return n }

// Pool returns the pool currently owning the object, or nil for a heap
// resident.
func (n *Node) Pool() *Pool { return n.pool }

// Held reports whether the object is currently preserved.
func (n *Node) Held() bool { return n.held > 0 }

// Move implements the default space transitions for a leaf object. The
// boolean result reports whether residency changed, so composite overrides
// know when to forward the move to their parts.
func (n *Node) Move(e *Env, s Space) bool {
	switch s {
	case SpaceOuter:
		return n.export(e)
	case SpaceHeap:
		return n.moveHeap()
	case SpaceHold:
		return n.preserve()
	case SpaceLocal:
		return n.unpreserve()
	}
	return false
}

// export detaches the object from the pool local to e and re-homes it in
// the outer pool. When the outer regime is the heap the object becomes a
// heap resident instead. Not-local objects (heap residents, objects owned
// elsewhere) are left alone.
func (n *Node) export(e *Env) bool {
	p := n.pool
	if p == nil || p.user != e {
		return false
	}
	held := n.held > 0
	if !held && !p.isActive(n.slot) {
		// Already recycled; its identity belongs to the pool again.
		return false
	}
	outer := p.outer
	if outer == nil {
		return n.moveHeap()
	}
	p.detach(n.slot)
	p.releaseSlot(n.slot)
	if held {
		p.nHold--
	} else {
		p.nActive--
	}
	outer.mu.Lock()
	// Trade a free outer object back to the local pool so exporting does
	// not slowly drain the outer pool's capacity.
	if !held {
		if head := outer.slots[sentAvailHead].next; head != sentAvailTail {
			spare := outer.slots[head].obj
			outer.detach(head)
			outer.releaseSlot(head)
			outer.nAvail--
			p.adoptAvail(spare)
		}
	}
	if held {
		outer.adoptHold(n.self)
	} else {
		outer.adoptActive(n.self)
	}
	outer.mu.Unlock()
	return true
}

// moveHeap detaches the object from whatever pool owns it, making it a
// permanent heap resident. Idempotent for heap residents.
func (n *Node) moveHeap() bool {
	p := n.pool
	if p == nil {
		return false
	}
	p.mu.Lock()
	p.detach(n.slot)
	switch {
	case n.held > 0:
		p.nHold--
	case p.isActive(n.slot):
		p.nActive--
	default:
		p.nAvail--
	}
	p.releaseSlot(n.slot)
	p.mu.Unlock()
	n.pool = nil
	n.slot = 0
	n.gen = 0
	return true
}

// preserve increments the hold count. On the 0 -> 1 transition the object
// moves from its pool's active list to the hold list, shielding it from
// bulk recycling until a matching unpreserve. Objects already recycled back
// to the avail list are not preservable.
func (n *Node) preserve() bool {
	p := n.pool
	if p == nil {
		return false
	}
	if n.held > 0 {
		n.held++
		return false
	}
	p.mu.Lock()
	if !p.isActive(n.slot) {
		p.mu.Unlock()
		return false
	}
	n.held = 1
	p.detach(n.slot)
	p.insertBefore(n.slot, sentHoldTail)
	p.slots[n.slot].tag = tagHold
	p.nActive--
	p.nHold++
	p.mu.Unlock()
	return true
}

// unpreserve decrements the hold count. On the 1 -> 0 transition the
// object rejoins the active list and becomes recyclable again. Calls
// without a matching preserve are no-ops.
func (n *Node) unpreserve() bool {
	if n.held == 0 {
		return false
	}
	n.held--
	if n.held != 0 {
		return false
	}
	if p := n.pool; p != nil {
		p.mu.Lock()
		p.detach(n.slot)
		p.insertBefore(n.slot, sentActiveTail)
		p.slots[n.slot].tag = tagActive
		p.slots[n.slot].epoch = p.epoch
		p.nHold--
		p.nActive++
		p.mu.Unlock()
	}
	return true
}

// Export moves an object allocated in the current pool scope to the outer
// scope's pool (or to the heap when the outer regime is the heap), so it
// survives the scope exit. Reports whether residency changed.
func Export(e *Env, m Movable) bool { return m.Move(e, SpaceOuter) }

// MoveToHeap permanently detaches an object from pooling.
func MoveToHeap(e *Env, m Movable) bool { return m.Move(e, SpaceHeap) }

// Preserve shields an object from bulk recycling until a matching
// Unpreserve. Calls nest.
func Preserve(e *Env, m Movable) bool { return m.Move(e, SpaceHold) }

// Unpreserve undoes one Preserve.
func Unpreserve(e *Env, m Movable) bool { return m.Move(e, SpaceLocal) }

// MoveAll forwards a migration to each non-nil part. Composite types call
// it from their Move override after the embedded Node has moved:
//
//	func (p *Pair) Move(e *scope.Env, s scope.Space) bool {
//	    if !p.Node.Move(e, s) {
//	        return false
//	    }
//	    scope.MoveAll(e, s, p.First, p.Second)
//	    return true
//	}
func MoveAll(e *Env, s Space, parts ...Movable) {
	for _, m := range parts {
		if m != nil {
			m.Move(e, s)
		}
	}
}
