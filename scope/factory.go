package scope

import (
	"sort"
	"sync"
)

// MaxFactories bounds the process-wide factory table. Pool tables are
// indexed by factory index, so the bound keeps per-scope pool slices small
// and allocation-free to grow into.
const MaxFactories = 1024

// Factory produces and recycles objects of a single kind. Allocation goes
// through New: under a pool scope the product comes from (and returns to)
// the scope's pool for this factory, under a heap scope it is constructed
// on demand and left to the garbage collector.
//
// Factories also carry the demand accounting used by the profile package:
// how many objects were constructed since the last preallocation, the
// high-water mark across the process lifetime, and the standby set built
// by Preallocate.
type Factory struct {
	name    string
	index   int
	create  func() Pooled
	cleanup func(Pooled)

	mu sync.Mutex

	// standby holds preconstructed objects consumed before create is called.
	standby []Pooled

	// demand counts constructions since the last Preallocate or Reset.
	demand int64

	// high is the largest demand observed across preallocation cycles.
	high int64

	// target is the preallocation count, usually installed from a profile.
	target int

	// targetCap is the initial capacity hint for array products.
	targetCap int

	// overflowed is set once per cycle when demand exceeds target.
	overflowed bool

	// capHigh tracks the largest array capacity requested (array factories).
	capHigh int64
}

// FactoryOption configures a factory at registration.
type FactoryOption func(*Factory)

// WithCleanup installs a hook run on each object as it is recycled, before
// it becomes available for reuse. Use it to drop references the object
// holds so pooled objects do not pin garbage.
func WithCleanup(fn func(Pooled)) FactoryOption {
	return func(f *Factory) { f.cleanup = fn }
}

// registry is the process-wide factory table. Registration is expected at
// package init time; lookup is read-mostly.
var registry struct {
	sync.RWMutex
	byName map[string]*Factory
	all    []*Factory
}

// overflow is the handler invoked (at most once per preallocation cycle
// and factory) when a factory's demand exceeds its preallocated target.
var overflow struct {
	sync.Mutex
	fn func(*Factory)
}

// SetOverflowHandler installs the handler called when any factory's demand
// first exceeds its preallocated target in the current cycle. A nil handler
// disables the callback.
func SetOverflowHandler(fn func(*Factory)) {
	overflow.Lock()
	overflow.fn = fn
	overflow.Unlock()
}

// Register adds a factory to the process-wide table. The name must be
// unique; it is the stable identity used by allocation profiles. Fails with
// ErrFactoryExists for a duplicate name and ErrFactoryLimit when the table
// is full.
func Register(name string, create func() Pooled, opts ...FactoryOption) (*Factory, error) {
	registry.Lock()
	defer registry.Unlock()
	if registry.byName == nil {
		registry.byName = make(map[string]*Factory)
	}
	if _, dup := registry.byName[name]; dup {
		return nil, ErrFactoryExists
	}
	if len(registry.all) >= MaxFactories {
		return nil, ErrFactoryLimit
	}
	f := &Factory{name: name, index: len(registry.all), create: create}
	for _, opt := range opts {
		opt(f)
	}
	registry.byName[name] = f
	registry.all = append(registry.all, f)
	return f, nil
}

// MustRegister is Register for package init paths where a duplicate name
// is a programming error.
func MustRegister(name string, create func() Pooled, opts ...FactoryOption) *Factory {
	f, err := Register(name, create, opts...)
	if err != nil {
		panic("scope: " + name + ": " + err.Error())
	}
	return f
}

// Lookup returns the factory registered under name.
func Lookup(name string) (*Factory, bool) {
	registry.RLock()
	f, ok := registry.byName[name]
	registry.RUnlock()
	return f, ok
}

// Factories returns a snapshot of all registered factories, sorted by name.
func Factories() []*Factory {
	registry.RLock()
	out := make([]*Factory, len(registry.all))
	copy(out, registry.all)
	registry.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].name < out[j].name })
	return out
}

// Name returns the factory's registered name.
func (f *Factory) Name() string { return f.name }

// New returns an object for use under the environment's current scope.
// Under a pool scope the object comes from the scope's pool and will be
// bulk-recycled on scope exit; under a heap scope it is an ordinary heap
// object.
func (f *Factory) New(e *Env) Pooled {
	if ps := e.currentPoolScope(); ps != nil {
		return ps.pool(f).next()
	}
	return f.construct()
}

// NewHeap returns a heap-resident object regardless of the current scope.
func (f *Factory) NewHeap() Pooled { return f.construct() }

// Recycle returns an object to its pool ahead of the scope exit, making it
// immediately available for reuse. Heap residents are left to the garbage
// collector. Fails with ErrObjectNotOwned when the object's pool handle is
// stale.
func (f *Factory) Recycle(obj Pooled) error {
	n := obj.node()
	p := n.pool
	if p == nil {
		return nil
	}
	return p.recycleOne(obj)
}

// construct produces one object, preferring the preallocated standby set,
// and updates the demand accounting.
func (f *Factory) construct() Pooled {
	f.mu.Lock()
	f.demand++
	if f.demand > f.high {
		f.high = f.demand
	}
	fire := false
	if f.target > 0 && !f.overflowed && f.demand > int64(f.target) {
		f.overflowed = true
		fire = true
	}
	var obj Pooled
	if k := len(f.standby); k > 0 {
		obj = f.standby[k-1]
		f.standby[k-1] = nil
		f.standby = f.standby[:k-1]
	}
	f.mu.Unlock()

	if fire {
		overflow.Lock()
		fn := overflow.fn
		overflow.Unlock()
		if fn != nil {
			fn(f)
		}
	}
	if obj == nil {
		obj = f.create()
	}
	return obj
}

// clean runs the cleanup hook, if any.
func (f *Factory) clean(obj Pooled) {
	if f.cleanup != nil {
		f.cleanup(obj)
	}
}

// SetTarget installs the preallocation target (and, for array factories,
// the initial capacity hint) for the next Preallocate. Profiles call this
// when loaded.
func (f *Factory) SetTarget(count, capacity int) {
	f.mu.Lock()
	f.target = count
	f.targetCap = capacity
	f.mu.Unlock()
}

// Preallocate tops the standby set up to the factory's target and starts a
// new demand cycle. Typically called at a quiet point (startup, between
// requests) so that steady-state allocation never constructs.
func (f *Factory) Preallocate() {
	f.mu.Lock()
	need := f.target - len(f.standby)
	f.demand = 0
	f.overflowed = false
	f.mu.Unlock()
	for i := 0; i < need; i++ {
		obj := f.create()
		f.mu.Lock()
		f.standby = append(f.standby, obj)
		f.mu.Unlock()
	}
}

// Reset drops the standby set and zeroes all demand accounting, target
// included.
func (f *Factory) Reset() {
	f.mu.Lock()
	f.standby = nil
	f.demand = 0
	f.high = 0
	f.target = 0
	f.targetCap = 0
	f.overflowed = false
	f.capHigh = 0
	f.mu.Unlock()
}

// FactoryOf wraps a Factory with a typed allocation surface.
type FactoryOf[T Pooled] struct {
	*Factory
}

// RegisterOf registers a factory whose products are a concrete type,
// returning a typed wrapper so call sites skip the interface assertion.
func RegisterOf[T Pooled](name string, create func() T, opts ...FactoryOption) (*FactoryOf[T], error) {
	f, err := Register(name, func() Pooled { return create() }, opts...)
	if err != nil {
		return nil, err
	}
	return &FactoryOf[T]{f}, nil
}

// MustRegisterOf is RegisterOf for package init paths.
func MustRegisterOf[T Pooled](name string, create func() T, opts ...FactoryOption) *FactoryOf[T] {
	tf, err := RegisterOf(name, create, opts...)
	if err != nil {
		panic("scope: " + name + ": " + err.Error())
	}
	return tf
}

// New returns a typed object for use under the environment's current scope.
func (f *FactoryOf[T]) New(e *Env) T { return f.Factory.New(e).(T) }

// NewHeap returns a typed heap-resident object.
func (f *FactoryOf[T]) NewHeap() T { return f.Factory.NewHeap().(T) }
