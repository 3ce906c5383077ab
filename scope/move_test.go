package scope_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joshuapare/scopekit/internal/testutil"
	"github.com/joshuapare/scopekit/scope"
)

func TestExportSurvivesScopeExit(t *testing.T) {
	e := testutil.NewEnv(t)
	f, err := newWidgetFactory(testutil.FactoryName(t))
	require.NoError(t, err)

	e.EnterPool()
	e.EnterPool()
	w := f.New(e)
	w.notes = append(w.notes, "result")
	require.True(t, scope.Export(e, w))
	require.NoError(t, e.ExitPool())

	// The inner exit recycled the inner pool; the exported object is now
	// active in the outer pool, untouched.
	assert.Equal(t, []string{"result"}, w.notes)
	got := f.New(e)
	assert.NotSame(t, w, got, "exported object must not be handed out again")

	require.NoError(t, e.ExitPool())
}

func TestExportAtOutermostPoolGoesToHeap(t *testing.T) {
	e := testutil.NewEnv(t)
	f, err := newWidgetFactory(testutil.FactoryName(t))
	require.NoError(t, err)

	e.EnterPool()
	w := f.New(e)
	require.True(t, scope.Export(e, w))
	assert.Nil(t, w.Pool(), "no outer pool means the object becomes a heap resident")
	require.NoError(t, e.ExitPool())
}

func TestExportIgnoresForeignObjects(t *testing.T) {
	e := testutil.NewEnv(t)
	f, err := newWidgetFactory(testutil.FactoryName(t))
	require.NoError(t, err)

	h := f.NewHeap()
	assert.False(t, scope.Export(e, h), "heap residents have nothing to export")

	e.EnterPool()
	w := f.New(e)
	other := scope.NewEnv()
	defer other.Close()
	assert.False(t, scope.Export(other, w), "objects local to another environment are left alone")
	require.NoError(t, e.ExitPool())
}

func TestExportAfterRecycleIsNoOp(t *testing.T) {
	e := testutil.NewEnv(t)
	f, err := newWidgetFactory(testutil.FactoryName(t))
	require.NoError(t, err)

	e.EnterPool()
	e.EnterPool()
	w := f.New(e)
	p := w.Pool()
	require.NoError(t, f.Recycle(w))

	assert.False(t, scope.Export(e, w), "a recycled object's identity belongs to the pool again")
	assert.Equal(t, 1, p.Available())
	assert.Equal(t, 0, p.Active())
	require.NoError(t, e.ExitPool())
	require.NoError(t, e.ExitPool())
}

func TestMoveToHeapDetaches(t *testing.T) {
	e := testutil.NewEnv(t)
	f, err := newWidgetFactory(testutil.FactoryName(t))
	require.NoError(t, err)

	e.EnterPool()
	w := f.New(e)
	require.True(t, scope.MoveToHeap(e, w))
	assert.Nil(t, w.Pool())
	assert.False(t, scope.MoveToHeap(e, w), "idempotent on heap residents")
	require.NoError(t, e.ExitPool())

	e.EnterPool()
	got := f.New(e)
	assert.NotSame(t, w, got, "detached object must never return to the pool")
	require.NoError(t, e.ExitPool())
}

func TestPreserveShieldsFromBulkRecycle(t *testing.T) {
	e := testutil.NewEnv(t)
	f, err := newWidgetFactory(testutil.FactoryName(t))
	require.NoError(t, err)

	e.EnterPool()
	w := f.New(e)
	w.notes = append(w.notes, "kept")
	require.True(t, scope.Preserve(e, w))
	require.NoError(t, e.ExitPool())

	e.EnterPool()
	got := f.New(e)
	require.NotSame(t, w, got, "preserved object must not be recycled")
	assert.Equal(t, []string{"kept"}, w.notes)

	require.True(t, scope.Unpreserve(e, w))
	require.NoError(t, e.ExitPool())

	// After unpreserve the exit recycled it; it is available again.
	e.EnterPool()
	seen := map[*widget]bool{f.New(e): true, f.New(e): true}
	assert.True(t, seen[w], "unpreserved object must rejoin the recyclable set")
	require.NoError(t, e.ExitPool())
}

func TestPreserveNests(t *testing.T) {
	e := testutil.NewEnv(t)
	f, err := newWidgetFactory(testutil.FactoryName(t))
	require.NoError(t, err)

	e.EnterPool()
	w := f.New(e)
	require.True(t, scope.Preserve(e, w))
	require.False(t, scope.Preserve(e, w), "nested preserve only bumps the count")
	require.False(t, scope.Unpreserve(e, w))
	require.True(t, w.Held())
	require.True(t, scope.Unpreserve(e, w))
	require.False(t, w.Held())
	assert.False(t, scope.Unpreserve(e, w), "unmatched unpreserve is a no-op")
	require.NoError(t, e.ExitPool())
}

func TestCompositeMoveForwardsToParts(t *testing.T) {
	e := testutil.NewEnv(t)
	wf, err := newWidgetFactory(testutil.FactoryName(t))
	require.NoError(t, err)
	pf, err := scope.RegisterOf(testutil.FactoryName(t), func() *pair { return &pair{} })
	require.NoError(t, err)

	e.EnterPool()
	e.EnterPool()
	p := pf.New(e)
	p.left = wf.New(e)
	p.right = wf.New(e)
	require.True(t, scope.Export(e, p))
	require.NoError(t, e.ExitPool())

	// Parts followed the composite to the outer pool.
	inner := wf.New(e)
	assert.NotSame(t, p.left, inner)
	assert.NotSame(t, p.right, inner)
	require.NoError(t, e.ExitPool())
}

func TestMoveAllSkipsNilParts(t *testing.T) {
	e := testutil.NewEnv(t)
	pf, err := scope.RegisterOf(testutil.FactoryName(t), func() *pair { return &pair{} })
	require.NoError(t, err)

	e.EnterPool()
	p := pf.New(e)
	p.left = nil
	p.right = nil
	assert.NotPanics(t, func() { scope.MoveToHeap(e, p) })
	require.NoError(t, e.ExitPool())
}
