// Package pytree provides the syntax tree the import checker walks: a tagged
// node per construct of interest, positions, and an explicit pre-order walk.
package pytree

import "strings"

// Kind tags a node with the construct it represents.
type Kind uint8

// Node kinds.
const (
	KindOther Kind = iota
	KindModule
	KindImport
	KindImportFrom
	KindAttribute
	KindName
)

var kindNames = [...]string{
	KindOther:      "Other",
	KindModule:     "Module",
	KindImport:     "Import",
	KindImportFrom: "ImportFrom",
	KindAttribute:  "Attribute",
	KindName:       "Name",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}

	return "Unknown"
}

// Point is a source location. Line and Col are 1-based, Offset is a byte offset.
type Point struct {
	Line   uint `json:"line"             yaml:"line"`
	Col    uint `json:"col"              yaml:"col"`
	Offset uint `json:"offset,omitempty" yaml:"offset,omitempty"`
}

// Alias is one `name [as asname]` clause of an import statement.
type Alias struct {
	Name   string
	AsName string
}

// Bound returns the local name the clause introduces.
func (a Alias) Bound() string {
	if a.AsName != "" {
		return a.AsName
	}

	return a.Name
}

// Node is a syntax tree node. Which payload fields are set depends on Kind:
//
//	KindImport:     Names
//	KindImportFrom: Module, Level, Names
//	KindAttribute:  Object (the expression before the dot), Attr, Store
//	KindName:       Ident
type Node struct {
	Kind     Kind
	Pos      Point
	End      Point
	Children []*Node

	Names  []Alias
	Module string
	Level  int
	Object *Node
	Attr   string
	Ident  string
	// Store is set on attributes that are written or deleted rather than
	// read, as assignment or for targets and in del statements.
	Store bool
}

// EffectiveModule returns the module of a from-import with one leading dot
// per relative level, e.g. "..pkg" for `from ..pkg import x`.
func (n *Node) EffectiveModule() string {
	if n.Level <= 0 {
		return n.Module
	}

	return strings.Repeat(".", n.Level) + n.Module
}

// File is a parsed source file.
type File struct {
	Path string
	Root *Node
	// Comments maps a 1-based line number to the comment text on that line,
	// including the leading '#'.
	Comments map[uint]string
	// HasErrors is set when the parser had to recover from syntax errors.
	HasErrors bool
}
