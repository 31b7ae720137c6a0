// Package pyparse turns Python source into a [pytree.File] using the
// tree-sitter Python grammar.
package pyparse

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	sitter "github.com/alexaandru/go-tree-sitter-bare"
	"github.com/alexaandru/go-sitter-forest/python"

	"github.com/Sumatoshi-tech/importonly/pkg/pytree"
)

// Sentinel errors.
var (
	errNoRootNode = errors.New("pyparse: no root node")
	errPoolType   = errors.New("pyparse: unexpected type in parser pool")
)

// Tree-sitter node types the mapping looks at.
const (
	tsImport        = "import_statement"
	tsImportFrom    = "import_from_statement"
	tsFutureImport  = "future_import_statement"
	tsAliased       = "aliased_import"
	tsDottedName    = "dotted_name"
	tsRelative      = "relative_import"
	tsImportPrefix  = "import_prefix"
	tsWildcard      = "wildcard_import"
	tsAttribute     = "attribute"
	tsIdentifier    = "identifier"
	tsComment       = "comment"
	tsError         = "ERROR"
	tsParenthesized = "parenthesized_expression"

	tsAssignment    = "assignment"
	tsAugAssignment = "augmented_assignment"
	tsFor           = "for_statement"
	tsForIn         = "for_in_clause"
	tsDelete        = "delete_statement"

	futureModule = "__future__"
)

// Parser parses Python sources. It is safe for concurrent use; native
// parsers are pooled.
type Parser struct {
	pool sync.Pool
}

// New returns a Parser for the Python grammar.
func New() *Parser {
	lang := sitter.NewLanguage(python.GetLanguage())

	return &Parser{
		pool: sync.Pool{
			New: func() any {
				tsParser := sitter.NewParser()
				tsParser.SetLanguage(lang)

				return tsParser
			},
		},
	}
}

// Parse parses src. Syntax errors do not fail the parse; the recovered tree
// is returned with HasErrors set.
func (p *Parser) Parse(ctx context.Context, path string, src []byte) (*pytree.File, error) {
	tsParser, ok := p.pool.Get().(*sitter.Parser)
	if !ok {
		return nil, errPoolType
	}

	defer p.pool.Put(tsParser)

	tree, err := tsParser.ParseString(ctx, nil, src)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	defer tree.Close()

	root := tree.RootNode()
	if root.IsNull() {
		return nil, errNoRootNode
	}

	b := &builder{
		src:       src,
		comments:  make(map[uint]string),
		stores:    make(map[span]bool),
		hasErrors: root.Type() == tsError,
	}

	mod := b.children(root)
	mod.Kind = pytree.KindModule
	mod.Pos, mod.End = positions(root)

	return &pytree.File{
		Path:      path,
		Root:      mod,
		Comments:  b.comments,
		HasErrors: b.hasErrors,
	}, nil
}

// span identifies a tree-sitter node by its byte range.
type span struct {
	start, end uint
}

func spanOf(n sitter.Node) span {
	return span{start: n.StartByte(), end: n.EndByte()}
}

type builder struct {
	src       []byte
	comments  map[uint]string
	stores    map[span]bool
	hasErrors bool
}

func (b *builder) text(n sitter.Node) string {
	return string(b.src[n.StartByte():n.EndByte()])
}

// build maps one tree-sitter node. Comments return nil and are recorded
// on the side.
func (b *builder) build(n sitter.Node) *pytree.Node {
	switch n.Type() {
	case tsComment:
		line := n.StartPoint().Row + 1
		b.comments[line] = b.text(n)

		return nil
	case tsImport:
		return b.importStatement(n)
	case tsImportFrom:
		return b.importFrom(n)
	case tsFutureImport:
		return b.futureImport(n)
	case tsAttribute:
		return b.attribute(n)
	case tsIdentifier:
		out := &pytree.Node{Kind: pytree.KindName, Ident: b.text(n)}
		out.Pos, out.End = positions(n)

		return out
	case tsAssignment, tsAugAssignment, tsFor, tsForIn:
		b.markTargets(n.ChildByFieldName("left"))
	case tsDelete:
		for idx := range n.NamedChildCount() {
			b.markTargets(n.NamedChild(idx))
		}
	case tsError:
		b.hasErrors = true
	}

	out := b.children(n)
	out.Pos, out.End = positions(n)

	return out
}

func (b *builder) children(n sitter.Node) *pytree.Node {
	out := &pytree.Node{Kind: pytree.KindOther}

	for idx := range n.NamedChildCount() {
		if child := b.build(n.NamedChild(idx)); child != nil {
			out.Children = append(out.Children, child)
		}
	}

	return out
}

func (b *builder) importStatement(n sitter.Node) *pytree.Node {
	out := &pytree.Node{Kind: pytree.KindImport}
	out.Pos, out.End = positions(n)

	for idx := range n.NamedChildCount() {
		child := n.NamedChild(idx)

		if alias, ok := b.alias(child); ok {
			out.Names = append(out.Names, alias)

			continue
		}

		b.build(child)
	}

	return out
}

func (b *builder) importFrom(n sitter.Node) *pytree.Node {
	out := &pytree.Node{Kind: pytree.KindImportFrom}
	out.Pos, out.End = positions(n)

	moduleNode := n.ChildByFieldName("module_name")
	if !moduleNode.IsNull() {
		out.Module, out.Level = b.moduleName(moduleNode)
	}

	for idx := range n.NamedChildCount() {
		child := n.NamedChild(idx)

		if !moduleNode.IsNull() && child.StartByte() == moduleNode.StartByte() {
			continue
		}

		b.fromName(out, child)
	}

	return out
}

func (b *builder) futureImport(n sitter.Node) *pytree.Node {
	out := &pytree.Node{Kind: pytree.KindImportFrom, Module: futureModule}
	out.Pos, out.End = positions(n)

	for idx := range n.NamedChildCount() {
		b.fromName(out, n.NamedChild(idx))
	}

	return out
}

func (b *builder) fromName(out *pytree.Node, child sitter.Node) {
	if child.Type() == tsWildcard {
		out.Names = append(out.Names, pytree.Alias{Name: "*"})

		return
	}

	if alias, ok := b.alias(child); ok {
		out.Names = append(out.Names, alias)

		return
	}

	b.build(child)
}

// moduleName reads a dotted_name or relative_import.
func (b *builder) moduleName(n sitter.Node) (string, int) {
	if n.Type() != tsRelative {
		return b.dotted(n), 0
	}

	level := 0
	name := ""

	for idx := range n.NamedChildCount() {
		child := n.NamedChild(idx)

		switch child.Type() {
		case tsImportPrefix:
			level = strings.Count(b.text(child), ".")
		case tsDottedName:
			name = b.dotted(child)
		}
	}

	return name, level
}

func (b *builder) alias(n sitter.Node) (pytree.Alias, bool) {
	switch n.Type() {
	case tsDottedName:
		return pytree.Alias{Name: b.dotted(n)}, true
	case tsAliased:
		name := n.ChildByFieldName("name")
		asName := n.ChildByFieldName("alias")

		if name.IsNull() {
			return pytree.Alias{}, false
		}

		alias := pytree.Alias{Name: b.dotted(name)}
		if !asName.IsNull() {
			alias.AsName = b.text(asName)
		}

		return alias, true
	default:
		return pytree.Alias{}, false
	}
}

// dotted joins the identifiers of a dotted_name, dropping any whitespace or
// comments between them.
func (b *builder) dotted(n sitter.Node) string {
	if n.Type() != tsDottedName {
		return b.text(n)
	}

	parts := make([]string, 0, n.NamedChildCount())

	for idx := range n.NamedChildCount() {
		child := n.NamedChild(idx)

		if child.Type() == tsIdentifier {
			parts = append(parts, b.text(child))

			continue
		}

		b.build(child)
	}

	return strings.Join(parts, ".")
}

// markTargets records the attributes written by a binding target. Tuple and
// list targets are unpacked; subscripts and calls are reads of their base.
func (b *builder) markTargets(n sitter.Node) {
	if n.IsNull() {
		return
	}

	switch n.Type() {
	case tsAttribute:
		b.stores[spanOf(n)] = true
	case "pattern_list", "tuple_pattern", "list_pattern", "expression_list", "tuple", "list",
		"list_splat_pattern", "list_splat", tsParenthesized:
		for idx := range n.NamedChildCount() {
			b.markTargets(n.NamedChild(idx))
		}
	}
}

func (b *builder) attribute(n sitter.Node) *pytree.Node {
	out := &pytree.Node{Kind: pytree.KindAttribute, Store: b.stores[spanOf(n)]}
	out.Pos, out.End = positions(n)

	object := unparen(n.ChildByFieldName("object"))
	attr := n.ChildByFieldName("attribute")

	if !object.IsNull() {
		out.Object = b.build(object)
	}

	if !attr.IsNull() {
		out.Attr = b.text(attr)
	}

	if out.Object != nil {
		out.Children = append(out.Children, out.Object)
	}

	for idx := range n.NamedChildCount() {
		child := n.NamedChild(idx)

		if child.Type() == tsComment || child.Type() == tsError {
			b.build(child)
		}
	}

	return out
}

// unparen strips redundant parentheses, so `(pkg).x` has the name pkg as its
// object.
func unparen(n sitter.Node) sitter.Node {
	for !n.IsNull() && n.Type() == tsParenthesized && n.NamedChildCount() == 1 {
		n = n.NamedChild(0)
	}

	return n
}

func positions(n sitter.Node) (pytree.Point, pytree.Point) {
	start := n.StartPoint()
	end := n.EndPoint()

	return pytree.Point{Line: start.Row + 1, Col: start.Column + 1, Offset: n.StartByte()},
		pytree.Point{Line: end.Row + 1, Col: end.Column + 1, Offset: n.EndByte()}
}
