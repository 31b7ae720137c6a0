// Package resolve answers the two questions the import checker asks about
// Python modules: can this from-import's module be found, and is a given
// name a sub-module of it.
package resolve

import (
	"errors"
	"strings"
)

// Sentinel errors carried in [Result.Err].
var (
	ErrModuleNotFound = errors.New("module not found")
	ErrNotAPackage    = errors.New("not a package")
	ErrBeyondTopLevel = errors.New("relative import beyond top-level package")
)

// Outcome classifies a lookup.
type Outcome uint8

// Lookup outcomes.
const (
	// Resolved means the name denotes a module or package.
	Resolved Outcome = iota
	// NotAModule means the lookup completed and the name is not a module.
	NotAModule
	// BuildFailed means the lookup itself failed; callers skip silently.
	BuildFailed
)

func (o Outcome) String() string {
	switch o {
	case Resolved:
		return "resolved"
	case NotAModule:
		return "not-a-module"
	case BuildFailed:
		return "build-failed"
	default:
		return "unknown"
	}
}

// Module describes a resolved module. Path is resolver-specific: a file or
// directory for [FS], the absolute dotted name for [Static].
type Module struct {
	Name    string
	Path    string
	Package bool
}

// Result is the answer to a lookup.
type Result struct {
	Outcome Outcome
	Module  Module
	Err     error
}

// Resolver locates modules. Implementations must be safe for concurrent use.
type Resolver interface {
	// ImportModule resolves the module of `from <dots><name> import ...`
	// written in the file origin. level counts the leading dots.
	ImportModule(origin, name string, level int) Result
	// Submodule reports whether name is a sub-module of parent.
	Submodule(parent Module, name string) Result
}

// JoinName appends name to a dotted module name. A parent made only of dots
// is a relative prefix and takes name without another dot.
func JoinName(parent, name string) string {
	switch {
	case parent == "":
		return name
	case strings.Trim(parent, ".") == "":
		return parent + name
	default:
		return parent + "." + name
	}
}

func resolved(m Module) Result {
	return Result{Outcome: Resolved, Module: m}
}

func notAModule(err error) Result {
	return Result{Outcome: NotAModule, Err: err}
}

func buildFailed(err error) Result {
	return Result{Outcome: BuildFailed, Err: err}
}
