package symscan

import (
	"time"

	"go.uber.org/zap"
)

// scanConfig holds the resolved configuration for a scan.
type scanConfig struct {
	targets        []string
	presets        []string
	presetsDir     string
	archiveSuffix  string
	objectSuffixes []string
	ignorePatterns []string
	toolDir        string
	arCommand      string
	nmCommand      string
	archiver       Archiver
	lister         SymbolLister
	toolTimeout    time.Duration
	scratchDir     string
	workers        int
	logger         *zap.Logger
	progress       func(done, total int, archive string)
}

// Option configures a scan operation.
type Option func(*scanConfig)

// WithTargets adds symbol names to search for. Matching is a case-sensitive
// substring test against the lister output.
func WithTargets(names ...string) Option {
	return func(c *scanConfig) {
		c.targets = append(c.targets, names...)
	}
}

// WithPresets adds the symbols of named presets (see ListPresets).
func WithPresets(ids ...string) Option {
	return func(c *scanConfig) {
		c.presets = append(c.presets, ids...)
	}
}

// WithPresetsDir loads additional presets from a directory of YAML files.
func WithPresetsDir(dir string) Option {
	return func(c *scanConfig) {
		c.presetsDir = dir
	}
}

// WithArchiveSuffix sets the file name suffix of archives (default ".a").
func WithArchiveSuffix(suffix string) Option {
	return func(c *scanConfig) {
		c.archiveSuffix = suffix
	}
}

// WithObjectSuffixes sets the member suffixes that are inspected (default ".o", ".obj").
func WithObjectSuffixes(suffixes ...string) Option {
	return func(c *scanConfig) {
		c.objectSuffixes = suffixes
	}
}

// WithIgnorePatterns sets archive path patterns to skip during the tree walk.
func WithIgnorePatterns(patterns []string) Option {
	return func(c *scanConfig) {
		c.ignorePatterns = patterns
	}
}

// WithToolDir looks for ar and nm in dir instead of PATH.
func WithToolDir(dir string) Option {
	return func(c *scanConfig) {
		c.toolDir = dir
	}
}

// WithArchiverCommand sets the shell-quoted archiver command, e.g. "llvm-ar".
func WithArchiverCommand(cmd string) Option {
	return func(c *scanConfig) {
		c.arCommand = cmd
	}
}

// WithListerCommand sets the shell-quoted symbol lister command, e.g. "llvm-nm --no-sort".
func WithListerCommand(cmd string) Option {
	return func(c *scanConfig) {
		c.nmCommand = cmd
	}
}

// WithArchiver replaces the external archiver.
func WithArchiver(a Archiver) Option {
	return func(c *scanConfig) {
		c.archiver = a
	}
}

// WithSymbolLister replaces the external symbol lister.
func WithSymbolLister(l SymbolLister) Option {
	return func(c *scanConfig) {
		c.lister = l
	}
}

// WithToolTimeout bounds each archiver and lister invocation (0 = no limit).
func WithToolTimeout(d time.Duration) Option {
	return func(c *scanConfig) {
		c.toolTimeout = d
	}
}

// WithScratchDir sets where per-archive workspaces are created (default: OS temp dir).
func WithScratchDir(dir string) Option {
	return func(c *scanConfig) {
		c.scratchDir = dir
	}
}

// WithWorkers sets how many archives are processed at once (default 1).
func WithWorkers(n int) Option {
	return func(c *scanConfig) {
		c.workers = n
	}
}

// WithLogger receives warnings and debug output. Nothing is logged by default.
func WithLogger(l *zap.Logger) Option {
	return func(c *scanConfig) {
		c.logger = l
	}
}

// WithProgress is called after each archive with the number done so far.
func WithProgress(fn func(done, total int, archive string)) Option {
	return func(c *scanConfig) {
		c.progress = fn
	}
}
