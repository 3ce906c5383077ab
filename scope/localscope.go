package scope

// LocalScope is a scope holding locally scoped settings, bound and read
// through LocalRef. Settings are visible to the owning environment and to
// every scope nested below until the local scope exits; workers draining a
// concurrent scope see the settings of the submitting environment.
type LocalScope struct {
	scopeBase

	// parent is the next-outer local scope at the time of entry, or nil.
	parent *LocalScope

	values map[any]any
}

// Kind implements Scope.
func (*LocalScope) Kind() Kind { return KindLocal }

func (l *LocalScope) enterHook(*Env) {
	// inherit already installed the outer chain's nearest local scope; that
	// becomes our parent before we shadow it.
	l.parent = l.scopeBase.localScope
	l.scopeBase.localScope = l
}

func (l *LocalScope) exitHook(*Env) {
	clear(l.values)
	l.parent = nil
}

func (l *LocalScope) dispose() {
	l.values = nil
	l.parent = nil
}

// LocalRef is a locally scoped setting. Get walks the nearest local-scope
// chain of the environment and falls back to the default; Set binds the
// value in the current local scope.
//
// The zero value of LocalRef is usable and has the zero value of T as its
// default.
type LocalRef[T any] struct {
	def T
}

// NewLocalRef returns a reference with the given default value.
func NewLocalRef[T any](def T) *LocalRef[T] {
	return &LocalRef[T]{def: def}
}

// Get returns the value bound in the nearest enclosing local scope, or the
// default when no scope binds this reference.
func (r *LocalRef[T]) Get(e *Env) T {
	for l := e.currentLocalScope(); l != nil; l = l.parent {
		if v, ok := l.values[r]; ok {
			return v.(T)
		}
	}
	return r.def
}

// Set binds the value in the current local scope. It fails with
// ErrNoLocalScope when the environment has no local scope active.
func (r *LocalRef[T]) Set(e *Env, v T) error {
	l := e.currentLocalScope()
	if l == nil {
		return ErrNoLocalScope
	}
	if l.values == nil {
		l.values = make(map[any]any)
	}
	l.values[r] = v
	return nil
}
