package scope_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joshuapare/scopekit/internal/testutil"
	"github.com/joshuapare/scopekit/scope"
)

func TestPoolRecycleIdentity(t *testing.T) {
	e := testutil.NewEnv(t)
	f, err := newWidgetFactory(testutil.FactoryName(t))
	require.NoError(t, err)

	e.EnterPool()
	first := f.New(e)
	require.NoError(t, e.ExitPool())

	e.EnterPool()
	second := f.New(e)
	require.NoError(t, e.ExitPool())

	assert.Same(t, first, second, "scope exit must make the object available again")
}

func TestPoolCleanupRunsOnRecycle(t *testing.T) {
	e := testutil.NewEnv(t)
	f, err := newWidgetFactory(testutil.FactoryName(t))
	require.NoError(t, err)

	e.EnterPool()
	w := f.New(e)
	w.notes = append(w.notes, "transient")
	require.NoError(t, e.ExitPool())

	e.EnterPool()
	reused := f.New(e)
	require.Same(t, w, reused)
	assert.Empty(t, reused.notes, "cleanup hook must have reset the object")
	require.NoError(t, e.ExitPool())
}

func TestExplicitRecycle(t *testing.T) {
	e := testutil.NewEnv(t)
	f, err := newWidgetFactory(testutil.FactoryName(t))
	require.NoError(t, err)

	e.EnterPool()
	a := f.New(e)
	require.NoError(t, f.Recycle(a))
	b := f.New(e)
	assert.Same(t, a, b, "explicitly recycled object must be reused before constructing")
	require.NoError(t, e.ExitPool())

	// Heap residents are not pool-managed; Recycle is a no-op.
	h := f.NewHeap()
	assert.NoError(t, f.Recycle(h))
}

func TestRecycleStaleHandle(t *testing.T) {
	e := testutil.NewEnv(t)
	f, err := newWidgetFactory(testutil.FactoryName(t))
	require.NoError(t, err)

	e.EnterPool()
	e.EnterPool() // nested scope with its own pool
	w := f.New(e)
	p := w.Pool()
	require.NoError(t, e.ExitPool())

	// The nested pool recycled w; its handle still points there, so a
	// recycle through the outer scope's view must not corrupt anything.
	_ = p
	e.EnterPool()
	again := f.New(e)
	require.Same(t, w, again)
	require.NoError(t, e.ExitPool())
	require.NoError(t, e.ExitPool())
}

func TestNestedScopeFetchesFromOuterPool(t *testing.T) {
	e := testutil.NewEnv(t)
	f, err := newWidgetFactory(testutil.FactoryName(t))
	require.NoError(t, err)

	e.EnterPool()
	outerObj := f.New(e)
	require.NoError(t, f.Recycle(outerObj)) // now available in the outer pool

	e.EnterPool()
	innerObj := f.New(e)
	assert.Same(t, outerObj, innerObj, "inner pool must fetch from the outer pool before constructing")
	require.NoError(t, e.ExitPool())
	require.NoError(t, e.ExitPool())
}

func TestDistinctObjectsWithinScope(t *testing.T) {
	e := testutil.NewEnv(t)
	f, err := newWidgetFactory(testutil.FactoryName(t))
	require.NoError(t, err)

	e.EnterPool()
	seen := make(map[*widget]bool)
	for i := 0; i < 100; i++ {
		w := f.New(e)
		require.False(t, seen[w], "active objects must be distinct")
		seen[w] = true
	}
	require.NoError(t, e.ExitPool())

	// The second pass reuses the same hundred objects.
	e.EnterPool()
	for i := 0; i < 100; i++ {
		w := f.New(e)
		assert.True(t, seen[w], "object %d not drawn from the recycled set", i)
	}
	require.NoError(t, e.ExitPool())
}

func TestDoubleRecycleIsNoOp(t *testing.T) {
	e := testutil.NewEnv(t)
	f, err := newWidgetFactory(testutil.FactoryName(t))
	require.NoError(t, err)

	e.EnterPool()
	a := f.New(e)
	b := f.New(e)
	p := a.Pool()

	require.NoError(t, f.Recycle(a))
	require.NoError(t, f.Recycle(a))
	require.NoError(t, f.Recycle(a))
	assert.Equal(t, 1, p.Active(), "repeat recycles must not drain the active count")
	assert.Equal(t, 1, p.Available())

	// a is reusable exactly once; the next allocation constructs.
	c := f.New(e)
	assert.Same(t, a, c)
	d := f.New(e)
	assert.NotSame(t, a, d)
	assert.NotSame(t, b, d)
	require.NoError(t, e.ExitPool())
}

func TestRecycleAfterBulkRecycleIsNoOp(t *testing.T) {
	e := testutil.NewEnv(t)
	f, err := newWidgetFactory(testutil.FactoryName(t))
	require.NoError(t, err)

	e.EnterPool()
	a := f.New(e)
	require.NoError(t, e.ExitPool())

	// The exit already moved a to the recycled set; a late recycle through
	// its still-valid handle must not double-count it.
	e.EnterPool()
	p := a.Pool()
	require.NoError(t, f.Recycle(a))
	assert.Equal(t, 0, p.Active())
	assert.Equal(t, 1, p.Available())

	got := f.New(e)
	assert.Same(t, a, got)
	require.NoError(t, e.ExitPool())
}

func TestPoolCounters(t *testing.T) {
	e := testutil.NewEnv(t)
	f, err := newWidgetFactory(testutil.FactoryName(t))
	require.NoError(t, err)

	e.EnterPool()
	a := f.New(e)
	b := f.New(e)
	p := a.Pool()
	require.Same(t, p, b.Pool())
	assert.Equal(t, 2, p.Active())
	assert.Equal(t, 0, p.Available())

	require.NoError(t, f.Recycle(a))
	assert.Equal(t, 1, p.Active())
	assert.Equal(t, 1, p.Available())

	scope.Preserve(e, b)
	assert.Equal(t, 0, p.Active())
	assert.Equal(t, 1, p.Held())

	scope.Unpreserve(e, b)
	assert.Equal(t, 1, p.Active())
	assert.Equal(t, 0, p.Held())

	require.NoError(t, e.ExitPool())
}
