package scope_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joshuapare/scopekit/internal/testutil"
	"github.com/joshuapare/scopekit/scope"
)

func TestEnterExitNesting(t *testing.T) {
	e := testutil.NewEnv(t)

	require.Equal(t, scope.KindHeap, e.Current().Kind())

	e.EnterPool()
	require.Equal(t, scope.KindPool, e.Current().Kind())

	e.EnterLocal()
	require.Equal(t, scope.KindLocal, e.Current().Kind())

	require.NoError(t, e.ExitLocal())
	require.Equal(t, scope.KindPool, e.Current().Kind())

	require.NoError(t, e.ExitPool())
	require.Equal(t, scope.KindHeap, e.Current().Kind())
}

func TestExitKindMismatch(t *testing.T) {
	e := testutil.NewEnv(t)

	e.EnterPool()
	assert.ErrorIs(t, e.ExitLocal(), scope.ErrScopeMismatch)
	assert.ErrorIs(t, e.ExitHeap(), scope.ErrScopeMismatch)
	require.NoError(t, e.ExitPool())
}

func TestExitUnderflow(t *testing.T) {
	e := testutil.NewEnv(t)

	// The root is a heap scope but cannot be exited.
	assert.ErrorIs(t, e.ExitHeap(), scope.ErrScopeUnderflow)
	assert.ErrorIs(t, e.ExitPool(), scope.ErrScopeMismatch)
}

func TestScopeReuse(t *testing.T) {
	e := testutil.NewEnv(t)

	e.EnterPool()
	first := e.Current()
	require.NoError(t, e.ExitPool())

	e.EnterPool()
	second := e.Current()
	require.NoError(t, e.ExitPool())

	assert.Same(t, first, second, "exited scope should be cached and reused")
}

func TestRedundantEnterIsNoOp(t *testing.T) {
	e := testutil.NewEnv(t)

	e.EnterPool()
	inner := e.Current()
	e.EnterPool()
	assert.Same(t, inner, e.Current(), "re-entering the current kind must not nest")

	require.NoError(t, e.ExitPool())
	assert.Same(t, inner, e.Current(), "matching exit of a redundant enter must not pop")
	require.NoError(t, e.ExitPool())
	require.Equal(t, scope.KindHeap, e.Current().Kind())
}

func TestHeapScopeShadowsPooling(t *testing.T) {
	e := testutil.NewEnv(t)
	f, err := newWidgetFactory(testutil.FactoryName(t))
	require.NoError(t, err)

	e.EnterPool()
	pooled := f.New(e)
	require.NotNil(t, pooled.Pool())

	e.EnterHeap()
	heapObj := f.New(e)
	assert.Nil(t, heapObj.Pool(), "allocation under a heap scope must bypass pools")
	require.NoError(t, e.ExitHeap())

	require.NoError(t, e.ExitPool())
}

func TestAttachDetach(t *testing.T) {
	e := testutil.NewEnv(t)

	ps := &scope.PoolScope{}
	require.NoError(t, e.Attach(ps))
	assert.Same(t, scope.Scope(ps), e.Current())

	e2 := scope.NewEnv()
	defer e2.Close()
	assert.ErrorIs(t, e2.Attach(ps), scope.ErrScopeInUse)

	require.NoError(t, e.Detach(ps))
	require.Equal(t, scope.KindHeap, e.Current().Kind())

	// Free again: another environment may now use it.
	require.NoError(t, e2.Attach(ps))
	require.NoError(t, e2.Detach(ps))
}

func TestSteadyStateEnterExitAllocatesNothing(t *testing.T) {
	e := testutil.NewEnv(t)

	// Warm the cache so the cycle below reuses one scope instance.
	e.EnterPool()
	require.NoError(t, e.ExitPool())

	allocs := testing.AllocsPerRun(100, func() {
		e.EnterPool()
		if err := e.ExitPool(); err != nil {
			t.Errorf("ExitPool: %v", err)
		}
	})
	assert.Zero(t, allocs, "cached scope reuse must not allocate")
}

func TestCloseUnwindsAndDeregisters(t *testing.T) {
	before := scope.LiveEnvs()
	e := scope.NewEnv()
	e.EnterPool()
	e.EnterLocal()
	e.Close()
	e.Close() // idempotent
	assert.Equal(t, before, scope.LiveEnvs())
}
