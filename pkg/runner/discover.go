package runner

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/gobwas/glob"
	"github.com/src-d/enry/v2"
)

const (
	extPython = ".py"
	extStub   = ".pyi"

	langPython = "Python"

	// shebangPeek bounds how much of an extensionless file is read to find
	// its interpreter line.
	shebangPeek = 256
)

// skipDirs are never descended into.
var skipDirs = map[string]bool{
	"__pycache__":   true,
	"node_modules":  true,
	"site-packages": true,
	"venv":          true,
}

// ErrBadPattern indicates an exclude glob that does not compile.
var ErrBadPattern = errors.New("invalid exclude pattern")

// matcher holds compiled exclude globs.
type matcher []glob.Glob

func compileExcludes(patterns []string) (matcher, error) {
	out := make(matcher, 0, len(patterns))

	for _, pattern := range patterns {
		g, err := glob.Compile(pattern, '/')
		if err != nil {
			return nil, fmt.Errorf("%w %q: %w", ErrBadPattern, pattern, err)
		}

		out = append(out, g)
	}

	return out, nil
}

// excluded reports whether the slash path rel matches any pattern.
func (m matcher) excluded(rel string) bool {
	for _, g := range m {
		if g.Match(rel) {
			return true
		}
	}

	return false
}

// Discover expands paths into the sorted, de-duplicated list of Python files
// to check. Directories are walked recursively; explicitly named files are
// kept when they look like Python.
func (r *Runner) Discover(ctx context.Context, paths []string) ([]string, error) {
	seen := make(map[string]bool)

	var files []string

	add := func(path string) {
		path = filepath.Clean(path)
		if !seen[path] {
			seen[path] = true
			files = append(files, path)
		}
	}

	for _, root := range paths {
		info, err := os.Stat(root)
		if err != nil {
			return nil, fmt.Errorf("input %s: %w", root, err)
		}

		if !info.IsDir() {
			if !r.excludes.excluded(filepath.ToSlash(filepath.Clean(root))) && isPython(root) {
				add(root)
			}

			continue
		}

		err = filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
			if walkErr != nil {
				return walkErr
			}

			if ctxErr := ctx.Err(); ctxErr != nil {
				return ctxErr
			}

			rel, relErr := filepath.Rel(root, path)
			if relErr != nil {
				return fmt.Errorf("relative path: %w", relErr)
			}

			rel = filepath.ToSlash(rel)

			if d.IsDir() {
				if path != root && (skipDir(d.Name()) || r.excludes.excluded(rel)) {
					return filepath.SkipDir
				}

				return nil
			}

			if d.Type().IsRegular() && !r.excludes.excluded(rel) && isPython(path) {
				add(path)
			}

			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("walk %s: %w", root, err)
		}
	}

	slices.Sort(files)

	return files, nil
}

func skipDir(name string) bool {
	return skipDirs[name] || (strings.HasPrefix(name, ".") && name != "." && name != "..")
}

// isPython accepts .py and .pyi files, and extensionless scripts whose
// shebang names a Python interpreter.
func isPython(path string) bool {
	switch filepath.Ext(path) {
	case extPython, extStub:
		return true
	case "":
		return hasPythonShebang(path)
	default:
		return false
	}
}

func hasPythonShebang(path string) bool {
	f, err := os.Open(path)
	if err != nil {
		return false
	}
	defer f.Close()

	head := make([]byte, shebangPeek)

	n, err := io.ReadFull(f, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) {
		return false
	}

	head = head[:n]
	if !bytes.HasPrefix(head, []byte("#!")) {
		return false
	}

	return slices.Contains(enry.GetLanguagesByShebang(filepath.Base(path), head, nil), langPython)
}
