package scope

import "errors"

var (
	// ErrScopeMismatch indicates an exit of a scope kind different from the
	// kind currently active on the environment.
	ErrScopeMismatch = errors.New("scope: exit kind does not match current scope")

	// ErrScopeUnderflow indicates an exit with no enclosing scope owned by the
	// same environment (the stack is already at its root).
	ErrScopeUnderflow = errors.New("scope: no enclosing scope to exit")

	// ErrScopeInUse indicates an attach of a scope instance that is already
	// owned by another environment.
	ErrScopeInUse = errors.New("scope: scope is owned by another environment")

	// ErrObjectNotOwned indicates a recycle of an object into a pool it does
	// not currently belong to (pool-corruption guard).
	ErrObjectNotOwned = errors.New("scope: object does not belong to this pool")

	// ErrFactoryExists indicates a duplicate factory registration under an
	// already-taken name.
	ErrFactoryExists = errors.New("scope: factory already registered")

	// ErrFactoryLimit indicates that the global factory table is full
	// (MaxFactories reached).
	ErrFactoryLimit = errors.New("scope: factory limit reached")

	// ErrTaskFailed wraps the first error raised by an entry executed inside a
	// concurrent scope; surfaced by the exit of that scope.
	ErrTaskFailed = errors.New("scope: concurrent task failed")

	// ErrNoLocalScope indicates a LocalRef set with no local scope active.
	ErrNoLocalScope = errors.New("scope: no local scope active")

	// ErrWorkersStarted indicates a concurrency change after the worker pool
	// has already been started.
	ErrWorkersStarted = errors.New("scope: worker pool already started")
)
