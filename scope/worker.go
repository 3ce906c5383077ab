package scope

import (
	"runtime"
	"sync"
)

// parallelRef toggles worker fan-out for concurrent scopes. When false in
// the submitting environment's local settings, entries run inline on the
// submitter only. Defaults to true.
var parallelRef = NewLocalRef[bool](true)

// SetParallel binds the worker fan-out toggle in the environment's current
// local scope. Fails with ErrNoLocalScope when no local scope is active.
func SetParallel(e *Env, enabled bool) error {
	return parallelRef.Set(e, enabled)
}

// Parallel reports whether concurrent scopes entered under the
// environment's current settings fan work out to workers.
func Parallel(e *Env) bool {
	return parallelRef.Get(e)
}

// assignment hands one concurrent scope to a worker, along with the
// submitter's local settings so entries observe them.
type assignment struct {
	cs    *ConcurrentScope
	local *LocalScope
}

// workers is the process-wide pool of persistent helper goroutines. They
// are started lazily on the first parallel drain and live for the rest of
// the process; each keeps its own environment and a private pool scope
// reused across assignments.
var workers struct {
	mu      sync.Mutex
	n       int
	nSet    bool // n was configured explicitly
	started bool

	idle chan *worker
}

// SetConcurrency fixes the number of persistent workers. It must be called
// before any concurrent scope has drained in parallel; afterwards it fails
// with ErrWorkersStarted. The default is runtime.GOMAXPROCS(0)-1, so the
// submitter plus the workers saturate the processors without oversubscribing.
func SetConcurrency(n int) error {
	workers.mu.Lock()
	defer workers.mu.Unlock()
	if workers.started {
		return ErrWorkersStarted
	}
	if n < 0 {
		n = 0
	}
	workers.n = n
	workers.nSet = true
	return nil
}

// Concurrency returns the worker count that parallel drains will use.
func Concurrency() int {
	workers.mu.Lock()
	defer workers.mu.Unlock()
	if workers.nSet {
		return workers.n
	}
	return defaultConcurrency()
}

func defaultConcurrency() int {
	n := runtime.GOMAXPROCS(0) - 1
	if n < 0 {
		n = 0
	}
	return n
}

// startWorkers spawns the pool on first use.
func startWorkers() {
	workers.mu.Lock()
	defer workers.mu.Unlock()
	if workers.started {
		return
	}
	if !workers.nSet {
		workers.n = defaultConcurrency()
	}
	workers.idle = make(chan *worker, workers.n)
	for i := 0; i < workers.n; i++ {
		w := &worker{
			env:    NewEnv(),
			assign: make(chan assignment, 1),
		}
		go w.run()
	}
	workers.started = true
}

// offerWorkers hands the scope to every currently idle worker and returns
// how many accepted. Non-blocking: a busy pool means the caller just drains
// more of the queue itself.
func offerWorkers(cs *ConcurrentScope, local *LocalScope) int {
	startWorkers()
	claimed := 0
	for {
		select {
		case w := <-workers.idle:
			w.assign <- assignment{cs: cs, local: local}
			claimed++
		default:
			return claimed
		}
	}
}

// worker is one persistent helper goroutine with its own environment.
type worker struct {
	env    *Env
	assign chan assignment
}

func (w *worker) run() {
	for {
		workers.idle <- w
		a, ok := <-w.assign
		if !ok {
			return
		}
		w.execute(a)
	}
}

// execute drains entries from the assigned scope under the worker's own
// pool scope, recycling after each entry so one entry's garbage never
// reaches the next. The submitter's local settings are adopted for the
// duration and dropped afterwards.
func (w *worker) execute(a assignment) {
	w.env.root.scopeBase.localScope = a.local
	w.env.EnterPool()
	inner := w.env.cur.(*PoolScope)
	for {
		t, ok := a.cs.pop()
		if !ok {
			break
		}
		a.cs.run(w.env, t)
		inner.recyclePools()
	}
	_ = w.env.ExitPool()
	w.env.root.scopeBase.localScope = nil
	a.cs.workerDone()
}
