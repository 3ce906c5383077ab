package scope_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joshuapare/scopekit/internal/testutil"
	"github.com/joshuapare/scopekit/scope"
)

func TestLocalRefDefault(t *testing.T) {
	e := testutil.NewEnv(t)
	ref := scope.NewLocalRef("fallback")
	assert.Equal(t, "fallback", ref.Get(e))
}

func TestLocalRefSetRequiresScope(t *testing.T) {
	e := testutil.NewEnv(t)
	ref := scope.NewLocalRef(0)
	assert.ErrorIs(t, ref.Set(e, 1), scope.ErrNoLocalScope)
}

func TestLocalRefBindAndRevert(t *testing.T) {
	e := testutil.NewEnv(t)
	ref := scope.NewLocalRef(10)

	e.EnterLocal()
	require.NoError(t, ref.Set(e, 20))
	assert.Equal(t, 20, ref.Get(e))

	e.EnterLocal()
	// Inner scope inherits until it shadows.
	assert.Equal(t, 20, ref.Get(e))
	require.NoError(t, ref.Set(e, 30))
	assert.Equal(t, 30, ref.Get(e))
	require.NoError(t, e.ExitLocal())

	assert.Equal(t, 20, ref.Get(e), "inner binding must vanish on exit")
	require.NoError(t, e.ExitLocal())
	assert.Equal(t, 10, ref.Get(e), "outer binding must vanish on exit")
}

func TestLocalRefVisibleUnderNestedScopes(t *testing.T) {
	e := testutil.NewEnv(t)
	ref := scope.NewLocalRef(false)

	e.EnterLocal()
	require.NoError(t, ref.Set(e, true))

	e.EnterPool()
	assert.True(t, ref.Get(e), "settings reach through nested scopes of other kinds")
	require.NoError(t, e.ExitPool())

	require.NoError(t, e.ExitLocal())
}

func TestLocalRefsAreIndependent(t *testing.T) {
	e := testutil.NewEnv(t)
	a := scope.NewLocalRef(1)
	b := scope.NewLocalRef(1)

	e.EnterLocal()
	require.NoError(t, a.Set(e, 2))
	assert.Equal(t, 2, a.Get(e))
	assert.Equal(t, 1, b.Get(e))
	require.NoError(t, e.ExitLocal())
}
