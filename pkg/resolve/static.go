package resolve

import (
	"fmt"
	"strings"
)

// Static resolves against a fixed set of dotted module names. Every proper
// prefix of a listed name is a package, so NewStatic("a.b.c") knows the
// packages "a" and "a.b" and the module "a.b.c".
//
// Origins passed to ImportModule are slash paths relative to the project
// root ("pkg/mod.py") or dotted module names ("pkg.mod"). Relative imports
// drop one trailing segment per level, so "pkg/__init__.py" with one dot
// refers to "pkg".
type Static struct {
	modules map[string]bool
}

// NewStatic builds a Static resolver. Empty names are ignored.
func NewStatic(modules ...string) *Static {
	known := make(map[string]bool)

	for _, name := range modules {
		name = strings.Trim(name, ".")
		if name == "" {
			continue
		}

		segments := strings.Split(name, ".")
		for i := 1; i < len(segments); i++ {
			known[strings.Join(segments[:i], ".")] = true
		}

		if _, seen := known[name]; !seen {
			known[name] = false
		}
	}

	return &Static{modules: known}
}

// ImportModule implements [Resolver].
func (s *Static) ImportModule(origin, name string, level int) Result {
	prefix := strings.Repeat(".", level)

	base := ""

	if level > 0 {
		origin = originModule(origin)

		segments := strings.Split(origin, ".")
		if origin == "" || level > len(segments) {
			return buildFailed(fmt.Errorf("%s%s: %w", prefix, name, ErrBeyondTopLevel))
		}

		base = strings.Join(segments[:len(segments)-level], ".")
	}

	if name == "" {
		if base == "" && level == 0 {
			return buildFailed(ErrModuleNotFound)
		}

		return resolved(Module{Name: prefix, Path: base, Package: true})
	}

	full := JoinName(base, name)

	pkg, ok := s.modules[full]
	if !ok {
		return buildFailed(fmt.Errorf("%s%s: %w", prefix, name, ErrModuleNotFound))
	}

	return resolved(Module{Name: prefix + name, Path: full, Package: pkg})
}

// Submodule implements [Resolver].
func (s *Static) Submodule(parent Module, name string) Result {
	if !parent.Package {
		return notAModule(fmt.Errorf("%s: %w", parent.Name, ErrNotAPackage))
	}

	full := JoinName(parent.Path, name)

	pkg, ok := s.modules[full]
	if !ok {
		return notAModule(fmt.Errorf("%s: %w", JoinName(parent.Name, name), ErrModuleNotFound))
	}

	return resolved(Module{Name: JoinName(parent.Name, name), Path: full, Package: pkg})
}

func originModule(origin string) string {
	for _, suffix := range moduleSuffixes {
		origin = strings.TrimSuffix(origin, suffix)
	}

	origin = strings.ReplaceAll(origin, "\\", "/")
	origin = strings.TrimPrefix(origin, "./")

	return strings.ReplaceAll(strings.Trim(origin, "/"), "/", ".")
}
