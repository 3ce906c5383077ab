package scope

// Kind identifies the allocation regime of a scope. The set is closed:
// entering and exiting scopes dispatches on Kind rather than on dynamic type.
type Kind uint8

const (
	// KindHeap allocates factory products directly from the managed heap.
	KindHeap Kind = iota

	// KindPool allocates factory products from per-factory pools that are
	// bulk-recycled when the scope exits.
	KindPool

	// KindLocal holds locally scoped settings inherited by nested scopes.
	KindLocal

	// KindConcurrent queues work for execution by persistent workers before
	// its exit returns.
	KindConcurrent
)

func (k Kind) String() string {
	switch k {
	case KindHeap:
		return "heap"
	case KindPool:
		return "pool"
	case KindLocal:
		return "local"
	case KindConcurrent:
		return "concurrent"
	default:
		return "unknown"
	}
}

// Space identifies the destination of an object move transition.
type Space uint8

const (
	// SpaceOuter moves an object to its pool's outer pool (export).
	SpaceOuter Space = iota

	// SpaceHeap detaches an object from pooling permanently.
	SpaceHeap

	// SpaceHold protects an object from bulk recycling (preserve).
	SpaceHold

	// SpaceLocal releases one level of hold protection (unpreserve).
	SpaceLocal
)

func (s Space) String() string {
	switch s {
	case SpaceOuter:
		return "outer"
	case SpaceHeap:
		return "heap"
	case SpaceHold:
		return "hold"
	case SpaceLocal:
		return "local"
	default:
		return "unknown"
	}
}
