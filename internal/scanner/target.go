package scanner

import (
	"bufio"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/garagon/symscan/internal/types"
)

// IgnoreFile is read from the scan root when present; one glob per line.
const IgnoreFile = ".symscanignore"

// ArchiveDiscovery walks a directory tree and returns the archives to inspect.
type ArchiveDiscovery struct {
	Suffix         string
	IgnorePatterns []string
}

// Discover walks root and returns every regular file ending in Suffix, sorted.
// A symlinked root is followed; symlinks below it are not. Returned paths stay
// under root as given. Unreadable subdirectories are skipped and reported as
// warnings; only a failure on root itself is an error.
func (d *ArchiveDiscovery) Discover(root string) ([]string, []types.Warning, error) {
	resolved, err := filepath.EvalSymlinks(root)
	if err != nil {
		return nil, nil, err
	}
	patterns := append(append([]string(nil), d.IgnorePatterns...), readIgnoreFile(resolved)...)

	var (
		archives []string
		warnings []types.Warning
	)
	// underRoot maps a walked path back below the caller's root.
	underRoot := func(path string) (string, string) {
		rel, _ := filepath.Rel(resolved, path)
		return filepath.Join(root, rel), rel
	}
	err = filepath.WalkDir(resolved, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			if path == resolved {
				return err
			}
			shown, _ := underRoot(path)
			warnings = append(warnings, types.Warning{
				Kind:    types.WarnWalkError,
				Archive: shown,
				Message: err.Error(),
			})
			if entry != nil && entry.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if entry.IsDir() {
			return nil
		}
		if !entry.Type().IsRegular() || !strings.HasSuffix(entry.Name(), d.Suffix) {
			return nil
		}
		shown, relPath := underRoot(path)
		if isIgnored(patterns, filepath.ToSlash(relPath)) {
			return nil
		}
		archives = append(archives, shown)
		return nil
	})
	if err != nil {
		return nil, warnings, err
	}
	sort.Strings(archives)
	return archives, warnings, nil
}

func readIgnoreFile(root string) []string {
	f, err := os.Open(filepath.Join(root, IgnoreFile))
	if err != nil {
		return nil
	}
	defer f.Close()
	var patterns []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line != "" && !strings.HasPrefix(line, "#") {
			patterns = append(patterns, line)
		}
	}
	return patterns
}

func isIgnored(patterns []string, relPath string) bool {
	for _, pattern := range patterns {
		if matchGlob(pattern, relPath) {
			return true
		}
	}
	return false
}

// matchGlob extends filepath.Match with ** segments:
// "stage0/**" matches anything under stage0/, "**/libstd-*.a" matches at any depth,
// and "build/**/deps/*.a" anchors both ends.
func matchGlob(pattern, relPath string) bool {
	if !strings.Contains(pattern, "**") {
		if ok, _ := filepath.Match(pattern, relPath); ok {
			return true
		}
		ok, _ := filepath.Match(pattern, filepath.Base(relPath))
		return ok
	}

	if prefix, ok := strings.CutSuffix(pattern, "/**"); ok {
		if relPath == prefix || strings.HasPrefix(relPath, prefix+"/") {
			return true
		}
	}

	if suffix, ok := strings.CutPrefix(pattern, "**/"); ok && anySuffixMatches(suffix, relPath) {
		return true
	}

	if prefix, suffix, ok := strings.Cut(pattern, "/**/"); ok {
		if rest, ok := strings.CutPrefix(relPath, prefix+"/"); ok && anySuffixMatches(suffix, rest) {
			return true
		}
	}

	return false
}

// anySuffixMatches tries glob against every trailing run of path segments.
func anySuffixMatches(glob, relPath string) bool {
	parts := strings.Split(relPath, "/")
	for i := range parts {
		if ok, _ := filepath.Match(glob, strings.Join(parts[i:], "/")); ok {
			return true
		}
	}
	return false
}
