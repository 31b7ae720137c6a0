package resolve_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/importonly/pkg/resolve"
)

func TestStatic_ImportModule(t *testing.T) {
	t.Parallel()

	r := resolve.NewStatic("a.b.c", "x", "")

	res := r.ImportModule("", "a.b", 0)
	require.Equal(t, resolve.Resolved, res.Outcome)
	assert.True(t, res.Module.Package)

	res = r.ImportModule("", "a.b.c", 0)
	require.Equal(t, resolve.Resolved, res.Outcome)
	assert.False(t, res.Module.Package)

	res = r.ImportModule("", "y", 0)
	assert.Equal(t, resolve.BuildFailed, res.Outcome)
	require.ErrorIs(t, res.Err, resolve.ErrModuleNotFound)
}

func TestStatic_Submodule(t *testing.T) {
	t.Parallel()

	r := resolve.NewStatic("a.b.c", "a.d")

	a := r.ImportModule("", "a", 0)
	require.Equal(t, resolve.Resolved, a.Outcome)

	assert.Equal(t, resolve.Resolved, r.Submodule(a.Module, "b").Outcome)
	assert.Equal(t, resolve.Resolved, r.Submodule(a.Module, "d").Outcome)
	assert.Equal(t, resolve.NotAModule, r.Submodule(a.Module, "func").Outcome)

	d := r.Submodule(a.Module, "d")
	assert.Equal(t, resolve.NotAModule, r.Submodule(d.Module, "x").Outcome)
}

func TestStatic_Relative(t *testing.T) {
	t.Parallel()

	r := resolve.NewStatic("pkg.sub", "pkg.mod", "pkg.inner.deep")

	here := r.ImportModule("pkg.mod", "", 1)
	require.Equal(t, resolve.Resolved, here.Outcome)
	assert.Equal(t, ".", here.Module.Name)

	sub := r.Submodule(here.Module, "sub")
	require.Equal(t, resolve.Resolved, sub.Outcome)
	assert.Equal(t, ".sub", sub.Module.Name)

	up := r.ImportModule("pkg.inner.deep", "sub", 2)
	require.Equal(t, resolve.Resolved, up.Outcome)
	assert.Equal(t, "..sub", up.Module.Name)

	beyond := r.ImportModule("pkg.mod", "x", 3)
	assert.Equal(t, resolve.BuildFailed, beyond.Outcome)
	require.ErrorIs(t, beyond.Err, resolve.ErrBeyondTopLevel)
}

func TestStatic_PathOrigins(t *testing.T) {
	t.Parallel()

	r := resolve.NewStatic("pkg.sub", "pkg.mod")

	fromInit := r.ImportModule("pkg/__init__.py", "sub", 1)
	require.Equal(t, resolve.Resolved, fromInit.Outcome)
	assert.Equal(t, "pkg.sub", fromInit.Module.Path)

	fromMod := r.ImportModule("./pkg/mod.pyi", "", 1)
	require.Equal(t, resolve.Resolved, fromMod.Outcome)
	assert.Equal(t, "pkg", fromMod.Module.Path)
}
