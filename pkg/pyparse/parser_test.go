package pyparse_test

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/importonly/pkg/pyparse"
	"github.com/Sumatoshi-tech/importonly/pkg/pytree"
)

func parse(t *testing.T, src string) *pytree.File {
	t.Helper()

	file, err := pyparse.New().Parse(context.Background(), "test.py", []byte(src))
	require.NoError(t, err)
	require.NotNil(t, file.Root)

	return file
}

func findKind(root *pytree.Node, kind pytree.Kind) []*pytree.Node {
	return pytree.Find(root, func(n *pytree.Node) bool { return n.Kind == kind })
}

func TestParse_Empty(t *testing.T) {
	t.Parallel()

	file := parse(t, "")

	assert.Equal(t, pytree.KindModule, file.Root.Kind)
	assert.Empty(t, file.Root.Children)
	assert.False(t, file.HasErrors)
	assert.Equal(t, "test.py", file.Path)
}

func TestParse_Import(t *testing.T) {
	t.Parallel()

	file := parse(t, "import os, a.b.c as abc\n")

	imports := findKind(file.Root, pytree.KindImport)
	require.Len(t, imports, 1)

	assert.Equal(t, []pytree.Alias{
		{Name: "os"},
		{Name: "a.b.c", AsName: "abc"},
	}, imports[0].Names)
	assert.Equal(t, pytree.Point{Line: 1, Col: 1, Offset: 0}, imports[0].Pos)
}

func TestParse_ImportFrom(t *testing.T) {
	t.Parallel()

	file := parse(t, "x = 1\nfrom pkg.sub import foo, bar as baz\n")

	froms := findKind(file.Root, pytree.KindImportFrom)
	require.Len(t, froms, 1)

	node := froms[0]
	assert.Equal(t, "pkg.sub", node.Module)
	assert.Equal(t, 0, node.Level)
	assert.Equal(t, []pytree.Alias{{Name: "foo"}, {Name: "bar", AsName: "baz"}}, node.Names)
	assert.Equal(t, uint(2), node.Pos.Line)
	assert.Equal(t, uint(1), node.Pos.Col)
}

func TestParse_ImportFromParenthesized(t *testing.T) {
	t.Parallel()

	file := parse(t, "from m import (\n    a,  # first\n    b as c,\n)\n")

	froms := findKind(file.Root, pytree.KindImportFrom)
	require.Len(t, froms, 1)
	assert.Equal(t, []pytree.Alias{{Name: "a"}, {Name: "b", AsName: "c"}}, froms[0].Names)
	assert.Equal(t, "# first", file.Comments[2])
}

func TestParse_Relative(t *testing.T) {
	t.Parallel()

	tests := []struct {
		src    string
		module string
		level  int
		names  []string
	}{
		{"from . import sub\n", "", 1, []string{"sub"}},
		{"from .. import x\n", "", 2, []string{"x"}},
		{"from ..pkg.inner import y\n", "pkg.inner", 2, []string{"y"}},
		{"from .mod import *\n", "mod", 1, []string{"*"}},
	}

	for _, tt := range tests {
		froms := findKind(parse(t, tt.src).Root, pytree.KindImportFrom)
		require.Len(t, froms, 1, tt.src)

		node := froms[0]
		assert.Equal(t, tt.module, node.Module, tt.src)
		assert.Equal(t, tt.level, node.Level, tt.src)

		names := make([]string, 0, len(node.Names))
		for _, alias := range node.Names {
			names = append(names, alias.Name)
		}

		assert.Equal(t, tt.names, names, tt.src)
	}
}

func TestParse_Wildcard(t *testing.T) {
	t.Parallel()

	froms := findKind(parse(t, "from os.path import *\n").Root, pytree.KindImportFrom)
	require.Len(t, froms, 1)
	assert.Equal(t, "os.path", froms[0].Module)
	assert.Equal(t, []pytree.Alias{{Name: "*"}}, froms[0].Names)
}

func TestParse_Future(t *testing.T) {
	t.Parallel()

	froms := findKind(parse(t, "from __future__ import annotations\n").Root, pytree.KindImportFrom)
	require.Len(t, froms, 1)
	assert.Equal(t, "__future__", froms[0].Module)
	assert.Equal(t, []pytree.Alias{{Name: "annotations"}}, froms[0].Names)
}

func TestParse_Attribute(t *testing.T) {
	t.Parallel()

	file := parse(t, "import a\nprint(a.b.c)\n")

	attrs := findKind(file.Root, pytree.KindAttribute)
	require.Len(t, attrs, 2)

	outer, inner := attrs[0], attrs[1]
	assert.Equal(t, "c", outer.Attr)
	assert.Same(t, inner, outer.Object)
	assert.Equal(t, "b", inner.Attr)
	require.NotNil(t, inner.Object)
	assert.Equal(t, pytree.KindName, inner.Object.Kind)
	assert.Equal(t, "a", inner.Object.Ident)
	assert.Equal(t, pytree.Point{Line: 2, Col: 7, Offset: 15}, inner.Pos)
}

func TestParse_AttributeOnCall(t *testing.T) {
	t.Parallel()

	attrs := findKind(parse(t, "f().x\n").Root, pytree.KindAttribute)
	require.Len(t, attrs, 1)
	assert.Equal(t, "x", attrs[0].Attr)
	assert.NotEqual(t, pytree.KindName, attrs[0].Object.Kind)
}

func TestParse_AttributeStoreTargets(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		src   string
		store []bool
	}{
		{"load", "x = a.b\n", []bool{false}},
		{"assignment", "a.b = 1\n", []bool{true}},
		{"augmented", "a.b += 1\n", []bool{true}},
		{"delete", "del a.b, c.d\n", []bool{true, true}},
		{"for", "for a.b in c.d:\n    pass\n", []bool{true, false}},
		{"comprehension", "[0 for a.b in c]\n", []bool{true}},
		{"unpacking", "a.b, [c.d, *e.f] = x\n", []bool{true, true, true}},
		{"subscript", "a.b[0] = 1\n", []bool{false}},
		{"nested", "a.b.c = 1\n", []bool{true, false}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			attrs := findKind(parse(t, tt.src).Root, pytree.KindAttribute)
			require.Len(t, attrs, len(tt.store))

			for idx, attr := range attrs {
				assert.Equal(t, tt.store[idx], attr.Store, "%s.%s", attr.Object.Kind, attr.Attr)
			}
		})
	}
}

func TestParse_AttributeParenthesizedObject(t *testing.T) {
	t.Parallel()

	attrs := findKind(parse(t, "((pkg)).Thing\n(f()).x\n").Root, pytree.KindAttribute)
	require.Len(t, attrs, 2)

	require.NotNil(t, attrs[0].Object)
	assert.Equal(t, pytree.KindName, attrs[0].Object.Kind)
	assert.Equal(t, "pkg", attrs[0].Object.Ident)
	assert.Equal(t, pytree.Point{Line: 1, Col: 3, Offset: 2}, attrs[0].Object.Pos)

	assert.NotEqual(t, pytree.KindName, attrs[1].Object.Kind)
}

func TestParse_Comments(t *testing.T) {
	t.Parallel()

	file := parse(t, "# header\nimport os  # pylint: disable=import-only-modules\n")

	assert.Equal(t, "# header", file.Comments[1])
	assert.Equal(t, "# pylint: disable=import-only-modules", file.Comments[2])
}

func TestParse_NestedImportsKeepSourceOrder(t *testing.T) {
	t.Parallel()

	src := "import a\ndef f():\n    import b\n    from c import d\nimport e\n"
	file := parse(t, src)

	var order []string

	pytree.VisitPreOrder(file.Root, func(n *pytree.Node) {
		switch n.Kind {
		case pytree.KindImport:
			order = append(order, n.Names[0].Name)
		case pytree.KindImportFrom:
			order = append(order, n.Module)
		}
	})

	assert.Equal(t, []string{"a", "b", "c", "e"}, order)
}

func TestParse_SyntaxErrorStillReturnsTree(t *testing.T) {
	t.Parallel()

	file := parse(t, "import os\n)))\n")

	assert.True(t, file.HasErrors)
	assert.NotEmpty(t, findKind(file.Root, pytree.KindImport))
}

func TestParse_Concurrent(t *testing.T) {
	t.Parallel()

	parser := pyparse.New()

	var wg sync.WaitGroup

	errs := make([]error, 8)

	for i := range errs {
		wg.Add(1)

		go func() {
			defer wg.Done()

			_, errs[i] = parser.Parse(context.Background(), "c.py", []byte("from a import b\nb.c\n"))
		}()
	}

	wg.Wait()

	for _, err := range errs {
		require.NoError(t, err)
	}
}
