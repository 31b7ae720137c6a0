package resolve

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"syscall"

	"golang.org/x/sync/singleflight"
)

// Python source suffixes recognised as module files, in lookup order.
var moduleSuffixes = []string{".py", ".pyi"}

// Package marker files, in lookup order.
var initFiles = []string{"__init__.py", "__init__.pyi"}

// FS resolves modules against directories on disk. Absolute names are looked
// up in every root in order. Relative names start at the importing file's
// directory. Answers are memoized, so a single FS can serve all workers.
type FS struct {
	roots []string

	cache sync.Map
	group singleflight.Group
}

// NewFS returns a resolver searching roots in order.
func NewFS(roots ...string) *FS {
	cleaned := make([]string, 0, len(roots))

	for _, root := range roots {
		if root == "" {
			continue
		}

		cleaned = append(cleaned, filepath.Clean(root))
	}

	return &FS{roots: cleaned}
}

// Roots returns the search roots.
func (r *FS) Roots() []string {
	return append([]string(nil), r.roots...)
}

// ImportModule implements [Resolver].
func (r *FS) ImportModule(origin, name string, level int) Result {
	key := "import\x00" + strconv.Itoa(level) + "\x00" + name
	if level > 0 {
		key += "\x00" + filepath.Dir(origin)
	}

	return r.memo(key, func() Result {
		if level > 0 {
			return r.importRelative(origin, name, level)
		}

		return r.importAbsolute(name)
	})
}

// Submodule implements [Resolver].
func (r *FS) Submodule(parent Module, name string) Result {
	if !parent.Package {
		return notAModule(fmt.Errorf("%s: %w", parent.Name, ErrNotAPackage))
	}

	return r.memo("sub\x00"+parent.Path+"\x00"+name, func() Result {
		loc, err := r.locate(parent.Path, name)

		switch {
		case err != nil:
			return buildFailed(err)
		case !loc.found:
			return notAModule(fmt.Errorf("%s: %w", JoinName(parent.Name, name), ErrModuleNotFound))
		default:
			return resolved(Module{Name: JoinName(parent.Name, name), Path: loc.path, Package: loc.pkg})
		}
	})
}

func (r *FS) memo(key string, compute func() Result) Result {
	if cached, ok := r.cache.Load(key); ok {
		if res, castOK := cached.(Result); castOK {
			return res
		}
	}

	value, _, _ := r.group.Do(key, func() (any, error) {
		res := compute()
		r.cache.Store(key, res)

		return res, nil
	})

	res, _ := value.(Result)

	return res
}

func (r *FS) importAbsolute(name string) Result {
	if name == "" {
		return buildFailed(ErrModuleNotFound)
	}

	for _, root := range r.roots {
		res := r.walk(root, "", name)
		if res.Outcome == Resolved || !(errors.Is(res.Err, ErrModuleNotFound) || errors.Is(res.Err, ErrNotAPackage)) {
			return res
		}
	}

	return buildFailed(fmt.Errorf("%s: %w", name, ErrModuleNotFound))
}

func (r *FS) importRelative(origin, name string, level int) Result {
	dir := filepath.Dir(origin)

	for range level - 1 {
		parent := filepath.Dir(dir)
		if parent == dir {
			return buildFailed(fmt.Errorf("%s%s: %w", strings.Repeat(".", level), name, ErrBeyondTopLevel))
		}

		dir = parent
	}

	prefix := strings.Repeat(".", level)

	if name == "" {
		return resolved(Module{Name: prefix, Path: dir, Package: true})
	}

	return r.walk(dir, prefix, name)
}

// walk descends the dotted name segment by segment below dir.
func (r *FS) walk(dir, prefix, name string) Result {
	current := Module{Name: prefix, Path: dir, Package: true}

	for segment := range strings.SplitSeq(name, ".") {
		if !current.Package {
			return buildFailed(fmt.Errorf("%s: %w", current.Name, ErrNotAPackage))
		}

		loc, err := r.locate(current.Path, segment)
		if err != nil {
			return buildFailed(err)
		}

		if !loc.found {
			return buildFailed(fmt.Errorf("%s: %w", JoinName(prefix, name), ErrModuleNotFound))
		}

		current = Module{Name: JoinName(current.Name, segment), Path: loc.path, Package: loc.pkg}
	}

	return resolved(current)
}

type located struct {
	path  string
	pkg   bool
	found bool
}

// locate finds segment inside dir. Regular packages win over module files,
// which win over namespace directories.
func (r *FS) locate(dir, segment string) (located, error) {
	candidate := filepath.Join(dir, segment)

	isDir, err := r.isDir(candidate)
	if err != nil {
		return located{}, err
	}

	if isDir {
		for _, marker := range initFiles {
			ok, markerErr := r.isFile(filepath.Join(candidate, marker))
			if markerErr != nil {
				return located{}, markerErr
			}

			if ok {
				return located{path: candidate, pkg: true, found: true}, nil
			}
		}
	}

	for _, suffix := range moduleSuffixes {
		ok, fileErr := r.isFile(candidate + suffix)
		if fileErr != nil {
			return located{}, fileErr
		}

		if ok {
			return located{path: candidate + suffix, found: true}, nil
		}
	}

	if isDir {
		return located{path: candidate, pkg: true, found: true}, nil
	}

	return located{}, nil
}

func (r *FS) isDir(path string) (bool, error) {
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) || errors.Is(err, syscall.ENOTDIR) {
			return false, nil
		}

		return false, fmt.Errorf("stat %s: %w", path, err)
	}

	return info.IsDir(), nil
}

func (r *FS) isFile(path string) (bool, error) {
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) || errors.Is(err, syscall.ENOTDIR) {
			return false, nil
		}

		return false, fmt.Errorf("stat %s: %w", path, err)
	}

	return info.Mode().IsRegular(), nil
}
