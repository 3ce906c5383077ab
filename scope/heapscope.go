package scope

// HeapScope is a scope whose factory allocations bypass pooling entirely:
// products are constructed on demand and reclaimed by the garbage collector.
// Every environment's root is a heap scope.
type HeapScope struct {
	scopeBase
}

// Kind implements Scope.
func (*HeapScope) Kind() Kind { return KindHeap }

func (h *HeapScope) enterHook(*Env) {
	// Shadow any enclosing pool scope: factories resolve to the heap.
	h.scopeBase.poolScope = nil
}

func (*HeapScope) exitHook(*Env) {}

func (*HeapScope) dispose() {}
