// Package workspace manages the scratch directories archives are extracted into.
//
// Every archive gets its own freshly created directory that is removed once the
// archive has been processed, so members of one archive can never be seen while
// another is inspected.
package workspace

import (
	"fmt"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/osfs"
	"github.com/go-git/go-billy/v5/util"
)

const dirPrefix = "symscan-"

// Pool hands out scratch directories below a base directory.
type Pool struct {
	base string
	fs   billy.Filesystem
}

// NewPool ensures base exists (creating it if needed) and returns a Pool rooted
// there. An empty base selects the OS temp directory.
func NewPool(base string) (*Pool, error) {
	if base == "" {
		base = os.TempDir()
	}
	abs, err := filepath.Abs(base)
	if err != nil {
		return nil, fmt.Errorf("resolving scratch dir %s: %w", base, err)
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, fmt.Errorf("creating scratch dir %s: %w", abs, err)
	}
	return &Pool{base: abs, fs: osfs.New(abs)}, nil
}

// Base returns the absolute directory scratch workspaces are created in.
func (p *Pool) Base() string {
	return p.base
}

// Acquire creates a new, empty workspace. The caller must Release it.
func (p *Pool) Acquire() (*Workspace, error) {
	name, err := util.TempDir(p.fs, ".", dirPrefix)
	if err != nil {
		return nil, fmt.Errorf("creating workspace in %s: %w", p.base, err)
	}
	return &Workspace{fs: p.fs, name: filepath.ToSlash(name), dir: filepath.Join(p.base, name)}, nil
}

// Workspace is one scratch directory.
type Workspace struct {
	fs   billy.Filesystem
	name string // relative to the pool filesystem
	dir  string // absolute
}

// Dir returns the absolute path of the workspace.
func (w *Workspace) Dir() string {
	return w.dir
}

// Files returns the slash-separated paths, relative to the workspace, of every
// regular file whose name ends in one of suffixes, sorted lexicographically.
func (w *Workspace) Files(suffixes []string) ([]string, error) {
	return MatchingFiles(w.fs, w.name, suffixes)
}

// Path converts a relative path returned by Files into an absolute one.
func (w *Workspace) Path(rel string) string {
	return filepath.Join(w.dir, filepath.FromSlash(rel))
}

// Clear removes everything inside the workspace but keeps the directory.
func (w *Workspace) Clear() error {
	entries, err := w.fs.ReadDir(w.name)
	if err != nil {
		return fmt.Errorf("clearing workspace %s: %w", w.dir, err)
	}
	for _, e := range entries {
		if err := util.RemoveAll(w.fs, path.Join(w.name, e.Name())); err != nil {
			return fmt.Errorf("clearing workspace %s: %w", w.dir, err)
		}
	}
	return nil
}

// Empty reports whether the workspace holds no entries.
func (w *Workspace) Empty() (bool, error) {
	entries, err := w.fs.ReadDir(w.name)
	if err != nil {
		return false, err
	}
	return len(entries) == 0, nil
}

// Release deletes the workspace and everything in it. It is safe to call twice.
func (w *Workspace) Release() error {
	if err := util.RemoveAll(w.fs, w.name); err != nil {
		return fmt.Errorf("removing workspace %s: %w", w.dir, err)
	}
	return nil
}

// MatchingFiles walks root inside fsys and returns the regular files whose
// names end in one of suffixes, relative to root and sorted.
func MatchingFiles(fsys billy.Filesystem, root string, suffixes []string) ([]string, error) {
	var files []string
	err := util.Walk(fsys, root, func(p string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.Mode().IsRegular() || !HasSuffix(info.Name(), suffixes) {
			return nil
		}
		rel := strings.TrimPrefix(filepath.ToSlash(p), strings.TrimSuffix(root, "/")+"/")
		files = append(files, rel)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("listing %s: %w", root, err)
	}
	sort.Strings(files)
	return files, nil
}

// HasSuffix reports whether name ends in any of suffixes.
func HasSuffix(name string, suffixes []string) bool {
	for _, s := range suffixes {
		if strings.HasSuffix(name, s) {
			return true
		}
	}
	return false
}
