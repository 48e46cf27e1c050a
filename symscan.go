// Package symscan audits static archives for references to unwanted symbols.
//
// It walks a directory tree for archive files, extracts each one with the
// platform archiver into a scratch workspace, runs a symbol lister on every
// object member and reports the members whose symbol listing mentions one of
// the configured target names.
//
// This is the library entry point. For the CLI tool, see cmd/symscan/.
package symscan

import (
	"context"
	"errors"
	"fmt"
	"iter"

	"github.com/garagon/symscan/internal/presets"
	"github.com/garagon/symscan/internal/scanner"
	"github.com/garagon/symscan/internal/toolchain"
	"github.com/garagon/symscan/internal/types"
)

// Re-export core types from internal packages so consumers don't need to
// import them.
type (
	Report      = types.Report
	Warning     = types.Warning
	WarningKind = types.WarningKind
	ScanResult  = types.ScanResult

	// Archiver extracts every member of an archive into a directory.
	Archiver = scanner.Archiver
	// SymbolLister prints the symbol table of one object file.
	SymbolLister = scanner.SymbolLister
	// ToolResult is the captured output of one tool invocation.
	ToolResult = toolchain.Result
)

const (
	WarnExtractFailed   = types.WarnExtractFailed
	WarnListFailed      = types.WarnListFailed
	WarnListDiagnostics = types.WarnListDiagnostics
	WarnWalkError       = types.WarnWalkError
)

// DefaultTarget is searched for when neither targets nor presets are given.
const DefaultTarget = "LLVMIsMultithreaded"

// DefaultRoot is the tree scanned by the CLI when no root is given.
const DefaultRoot = "build"

// PresetInfo describes a named target set with its includes expanded.
type PresetInfo struct {
	ID          string
	Description string
	Includes    []string
	Symbols     []string
}

// Scan scans root (a directory or a single archive) and returns every report.
func Scan(ctx context.Context, root string, opts ...Option) (*ScanResult, error) {
	s, err := buildScanner(applyOpts(opts))
	if err != nil {
		return nil, err
	}
	return s.Scan(ctx, root)
}

// Walk scans root and hands each report to emit as soon as it is known, in
// archive order. The returned result carries counts and warnings but no
// reports. An error from emit stops the scan and is returned.
func Walk(ctx context.Context, root string, emit func(Report) error, opts ...Option) (*ScanResult, error) {
	s, err := buildScanner(applyOpts(opts))
	if err != nil {
		return nil, err
	}
	return s.Walk(ctx, root, emit)
}

var errStopped = errors.New("iteration stopped")

// Reports returns a lazy sequence of reports. A scan error is yielded once,
// paired with a zero Report, and ends the sequence. Breaking out of the loop
// stops the scan and removes its scratch directories.
func Reports(ctx context.Context, root string, opts ...Option) iter.Seq2[Report, error] {
	return func(yield func(Report, error) bool) {
		s, err := buildScanner(applyOpts(opts))
		if err != nil {
			yield(Report{}, err)
			return
		}
		_, err = s.Walk(ctx, root, func(r Report) error {
			if !yield(r, nil) {
				return errStopped
			}
			return nil
		})
		if err != nil && !errors.Is(err, errStopped) {
			yield(Report{}, err)
		}
	}
}

// ListPresets returns the built-in presets, plus those found in the
// WithPresetsDir directory, sorted by ID.
func ListPresets(opts ...Option) ([]PresetInfo, error) {
	cfg := applyOpts(opts)
	set, err := presets.Load(cfg.presetsDir)
	if err != nil {
		return nil, err
	}
	var infos []PresetInfo
	for _, p := range set.List() {
		syms, err := set.Expand(p.ID)
		if err != nil {
			return nil, err
		}
		infos = append(infos, PresetInfo{
			ID:          p.ID,
			Description: p.Description,
			Includes:    p.Includes,
			Symbols:     syms,
		})
	}
	return infos, nil
}

// --- internal helpers ---

func applyOpts(opts []Option) *scanConfig {
	cfg := &scanConfig{}
	for _, o := range opts {
		o(cfg)
	}
	return cfg
}

// resolveTargets merges preset symbols and explicit targets, presets first.
func resolveTargets(cfg *scanConfig) ([]string, error) {
	var targets []string
	if len(cfg.presets) > 0 {
		set, err := presets.Load(cfg.presetsDir)
		if err != nil {
			return nil, err
		}
		if targets, err = set.Resolve(cfg.presets); err != nil {
			return nil, err
		}
	}
	targets = append(targets, cfg.targets...)
	if len(targets) == 0 {
		targets = []string{DefaultTarget}
	}
	return targets, nil
}

// buildScanner creates a fully wired Scanner.
func buildScanner(cfg *scanConfig) (*scanner.Scanner, error) {
	targets, err := resolveTargets(cfg)
	if err != nil {
		return nil, err
	}

	archiver, lister := cfg.archiver, cfg.lister
	if archiver == nil || lister == nil {
		ar, nm, err := toolchain.Resolve(toolchain.Config{
			Dir:    cfg.toolDir,
			Ar:     cfg.arCommand,
			Nm:     cfg.nmCommand,
			Runner: &toolchain.Runner{Timeout: cfg.toolTimeout},
		})
		if err != nil {
			return nil, err
		}
		if archiver == nil {
			archiver = ar
		}
		if lister == nil {
			lister = nm
		}
	}

	s, err := scanner.New(scanner.Config{
		Targets:        targets,
		ArchiveSuffix:  cfg.archiveSuffix,
		ObjectSuffixes: cfg.objectSuffixes,
		IgnorePatterns: cfg.ignorePatterns,
		ScratchDir:     cfg.scratchDir,
		Workers:        cfg.workers,
	}, archiver, lister)
	if err != nil {
		return nil, fmt.Errorf("configuring scanner: %w", err)
	}
	s.SetLogger(cfg.logger)
	if cfg.progress != nil {
		s.SetProgress(scanner.ProgressFunc(cfg.progress))
	}
	return s, nil
}
