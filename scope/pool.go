package scope

import "sync"

// Arena slot indices 0..5 are the list sentinels; real objects start at
// slot numSentinels. Sentinel-bounded lists make detach/splice pure index
// surgery with no head/tail special cases.
const (
	sentActiveHead = 0
	sentActiveTail = 1
	sentAvailHead  = 2
	sentAvailTail  = 3
	sentHoldHead   = 4
	sentHoldTail   = 5
	numSentinels   = 6
)

// defaultPoolCap is the initial arena capacity beyond the sentinels.
const defaultPoolCap = 32

// List membership tags. tagActive is only valid together with the pool's
// current recycle epoch: bulk recycling advances the epoch instead of
// retagging every slot, so an active tag from an older epoch reads as
// recycled.
const (
	tagNone uint8 = iota
	tagActive
	tagAvail
	tagHold
)

// slot is one arena cell. Links are indices into the same arena; gen is
// bumped every time the slot is vacated so stale handles can be detected.
type slot struct {
	obj        Pooled
	next, prev int32
	gen        uint32
	tag        uint8
	epoch      uint32
}

// Pool is the per-scope, per-factory container of produced objects. Three
// sentinel-bounded intrusive lists partition the arena: active (handed out),
// avail (recycled, ready for reuse) and hold (preserved against bulk
// recycling). A vacated slot joins an internal freelist.
//
// A pool is local (single-writer, lock-free) to the environment owning its
// scope; mu guards only the operations that may cross ownership boundaries
// (outer fetches and the escape transitions).
type Pool struct {
	factory *Factory

	// outer is the pool for the same factory in the nearest enclosing pool
	// scope, or nil when the outer regime is the heap.
	outer *Pool

	// user is the environment the pool is currently local to, or nil.
	user *Env

	// inUse reports whether the owning scope has touched this pool since its
	// last bulk recycle.
	inUse bool

	mu sync.Mutex

	slots  []slot
	vacant int32 // head of the vacant-slot freelist, -1 if none

	// epoch is advanced by every bulk recycle, invalidating all tagActive
	// tags in O(1).
	epoch uint32

	nActive, nAvail, nHold int
}

func newPool(f *Factory) *Pool {
	p := &Pool{factory: f, vacant: -1}
	p.slots = make([]slot, numSentinels, numSentinels+defaultPoolCap)
	p.resetLists()
	return p
}

func (p *Pool) resetLists() {
	p.slots[sentActiveHead].next = sentActiveTail
	p.slots[sentActiveTail].prev = sentActiveHead
	p.slots[sentAvailHead].next = sentAvailTail
	p.slots[sentAvailTail].prev = sentAvailHead
	p.slots[sentHoldHead].next = sentHoldTail
	p.slots[sentHoldTail].prev = sentHoldHead
}

// Factory returns the factory whose products this pool holds.
func (p *Pool) Factory() *Factory { return p.factory }

// Outer returns the outer pool, or nil when the outer is the heap.
func (p *Pool) Outer() *Pool { return p.outer }

// Active returns the number of objects currently handed out.
func (p *Pool) Active() int { return p.nActive }

// Available returns the number of recycled objects ready for reuse.
func (p *Pool) Available() int { return p.nAvail }

// Held returns the number of objects preserved against bulk recycling.
func (p *Pool) Held() int { return p.nHold }

func (p *Pool) insertBefore(i, next int32) {
	prev := p.slots[next].prev
	p.slots[i].prev = prev
	p.slots[i].next = next
	p.slots[prev].next = i
	p.slots[next].prev = i
}

func (p *Pool) detach(i int32) {
	p.slots[p.slots[i].prev].next = p.slots[i].next
	p.slots[p.slots[i].next].prev = p.slots[i].prev
}

func (p *Pool) allocSlot(obj Pooled) int32 {
	var i int32
	if p.vacant >= 0 {
		i = p.vacant
		p.vacant = p.slots[i].next
	} else {
		p.slots = append(p.slots, slot{})
		i = int32(len(p.slots) - 1)
	}
	p.slots[i].obj = obj
	return i
}

// releaseSlot vacates a slot, invalidating any handle still pointing at it.
func (p *Pool) releaseSlot(i int32) {
	p.slots[i].obj = nil
	p.slots[i].gen++
	p.slots[i].tag = tagNone
	p.slots[i].next = p.vacant
	p.vacant = i
}

// owns reports whether the handle in n designates a live slot of this pool.
func (p *Pool) owns(n *Node) bool {
	return n.pool == p && int(n.slot) < len(p.slots) && p.slots[n.slot].gen == n.gen
}

// isActive reports whether the slot is on the active list. An active tag
// from before the last bulk recycle does not count.
func (p *Pool) isActive(i int32) bool {
	return p.slots[i].tag == tagActive && p.slots[i].epoch == p.epoch
}

// next returns the next object from this pool: a recycled one when
// available, else one fetched from the outer pool, else a freshly
// constructed one. The object ends up at the tail of the active list.
func (p *Pool) next() Pooled {
	if head := p.slots[sentAvailHead].next; head != sentAvailTail {
		p.detach(head)
		p.insertBefore(head, sentActiveTail)
		p.slots[head].tag = tagActive
		p.slots[head].epoch = p.epoch
		p.nAvail--
		p.nActive++
		return p.slots[head].obj
	}
	return p.allocate()
}

func (p *Pool) allocate() Pooled {
	var obj Pooled
	if p.outer != nil {
		p.outer.mu.Lock()
		obj = p.outer.next()
		n := obj.node()
		p.outer.detach(n.slot)
		p.outer.releaseSlot(n.slot)
		p.outer.nActive--
		p.outer.mu.Unlock()
	} else {
		obj = p.factory.construct()
	}
	p.adoptActive(obj)
	return obj
}

// adoptActive takes ownership of obj, placing it at the active tail.
func (p *Pool) adoptActive(obj Pooled) {
	i := p.allocSlot(obj)
	p.insertBefore(i, sentActiveTail)
	p.slots[i].tag = tagActive
	p.slots[i].epoch = p.epoch
	p.nActive++
	n := obj.node()
	n.pool = p
	n.slot = i
	n.gen = p.slots[i].gen
	n.self = obj
}

// adoptAvail takes ownership of obj, placing it on the avail list.
func (p *Pool) adoptAvail(obj Pooled) {
	i := p.allocSlot(obj)
	p.insertBefore(i, sentAvailTail)
	p.slots[i].tag = tagAvail
	p.nAvail++
	n := obj.node()
	n.pool = p
	n.slot = i
	n.gen = p.slots[i].gen
	n.self = obj
}

// adoptHold takes ownership of obj, placing it on the hold list.
func (p *Pool) adoptHold(obj Pooled) {
	i := p.allocSlot(obj)
	p.insertBefore(i, sentHoldTail)
	p.slots[i].tag = tagHold
	p.nHold++
	n := obj.node()
	n.pool = p
	n.slot = i
	n.gen = p.slots[i].gen
	n.self = obj
}

// recycleOne moves a single object from the active list back to the avail
// list, running the factory cleanup hook first. Preserved and
// already-recycled objects are left where they are. Fails with
// ErrObjectNotOwned when obj does not currently belong to this pool.
func (p *Pool) recycleOne(obj Pooled) error {
	n := obj.node()
	if !p.owns(n) {
		return ErrObjectNotOwned
	}
	if n.held > 0 {
		return nil
	}
	if !p.isActive(n.slot) {
		return nil
	}
	p.factory.clean(obj)
	p.detach(n.slot)
	p.insertBefore(n.slot, sentAvailTail)
	p.slots[n.slot].tag = tagAvail
	p.nActive--
	p.nAvail++
	return nil
}

// recycleAll runs cleanup on every active object, then splices the whole
// active list onto the avail list in O(1). Held objects are untouched.
func (p *Pool) recycleAll() {
	first := p.slots[sentActiveHead].next
	if first == int32(sentActiveTail) {
		return
	}
	if p.factory.cleanup != nil {
		for i := first; i != sentActiveTail; i = p.slots[i].next {
			p.factory.cleanup(p.slots[i].obj)
		}
	}
	last := p.slots[sentActiveTail].prev
	p.slots[sentActiveHead].next = sentActiveTail
	p.slots[sentActiveTail].prev = sentActiveHead
	prev := p.slots[sentAvailTail].prev
	p.slots[prev].next = first
	p.slots[first].prev = prev
	p.slots[last].next = sentAvailTail
	p.slots[sentAvailTail].prev = last
	p.epoch++
	p.nAvail += p.nActive
	p.nActive = 0
}

// clearAll drops every object, hold list included, leaving them
// heap-resident. Called when the owning scope is disposed.
func (p *Pool) clearAll() {
	for i := numSentinels; i < len(p.slots); i++ {
		if obj := p.slots[i].obj; obj != nil {
			n := obj.node()
			n.pool = nil
			n.slot = 0
			n.gen = 0
			p.slots[i].obj = nil
		}
	}
	p.slots = p.slots[:numSentinels]
	p.resetLists()
	p.vacant = -1
	p.epoch = 0
	p.nActive, p.nAvail, p.nHold = 0, 0, 0
}
