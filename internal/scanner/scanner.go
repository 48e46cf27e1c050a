package scanner

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/garagon/symscan/internal/workspace"
)

// Default suffixes used when a Config leaves them empty.
const DefaultArchiveSuffix = ".a"

var DefaultObjectSuffixes = []string{".o", ".obj"}

// Config controls which files a Scanner inspects and how.
type Config struct {
	Targets        []string
	ArchiveSuffix  string
	ObjectSuffixes []string
	IgnorePatterns []string
	ScratchDir     string // parent of the per-archive workspaces; OS temp dir when empty
	Workers        int    // archives processed concurrently; <= 1 means sequential
}

// Scanner inspects every archive under a root for target symbols.
type Scanner struct {
	cfg      Config
	matcher  *Matcher
	archiver Archiver
	lister   SymbolLister
	logger   *zap.Logger
	progress ProgressFunc
}

// ProgressFunc is called after each archive is processed, in archive order.
type ProgressFunc func(done, total int, archive string)

// New validates cfg and returns a Scanner that delegates extraction and
// symbol listing to the given tools.
func New(cfg Config, archiver Archiver, lister SymbolLister) (*Scanner, error) {
	m, err := NewMatcher(cfg.Targets)
	if err != nil {
		return nil, err
	}
	if cfg.ArchiveSuffix == "" {
		cfg.ArchiveSuffix = DefaultArchiveSuffix
	}
	if len(cfg.ObjectSuffixes) == 0 {
		cfg.ObjectSuffixes = DefaultObjectSuffixes
	}
	if cfg.Workers < 1 {
		cfg.Workers = 1
	}
	return &Scanner{
		cfg:      cfg,
		matcher:  m,
		archiver: archiver,
		lister:   lister,
		logger:   zap.NewNop(),
	}, nil
}

// SetLogger routes warnings and debug messages to l.
func (s *Scanner) SetLogger(l *zap.Logger) {
	if l != nil {
		s.logger = l
	}
}

// SetProgress registers fn to be told about each finished archive.
func (s *Scanner) SetProgress(fn ProgressFunc) {
	s.progress = fn
}

// Scan runs Walk and collects every report into the result.
func (s *Scanner) Scan(ctx context.Context, root string) (*ScanResult, error) {
	var reports []Report
	result, err := s.Walk(ctx, root, func(r Report) error {
		reports = append(reports, r)
		return nil
	})
	if err != nil {
		return nil, err
	}
	result.Reports = reports
	return result, nil
}

// Walk scans root (a directory, or a single archive) and hands each report to
// emit as soon as its archive is done, in sorted archive order. An error from
// emit stops the scan and is returned. Reports are not kept in the result.
func (s *Scanner) Walk(ctx context.Context, root string, emit func(Report) error) (*ScanResult, error) {
	start := time.Now()

	if _, err := os.Stat(root); err != nil {
		return nil, fmt.Errorf("scan root: %w", err)
	}
	pool, err := workspace.NewPool(s.cfg.ScratchDir)
	if err != nil {
		return nil, err
	}

	discovery := &ArchiveDiscovery{Suffix: s.cfg.ArchiveSuffix, IgnorePatterns: s.cfg.IgnorePatterns}
	archives, walkWarnings, err := discovery.Discover(root)
	if err != nil {
		return nil, fmt.Errorf("walking %s: %w", root, err)
	}
	for _, w := range walkWarnings {
		s.logger.Warn("skipping unreadable path", zap.String("path", w.Archive), zap.String("error", w.Message))
	}
	s.logger.Debug("discovered archives",
		zap.String("root", root),
		zap.Int("count", len(archives)),
		zap.String("scratch_dir", pool.Base()))

	result := &ScanResult{
		Root:     root,
		Targets:  s.matcher.Targets(),
		Warnings: walkWarnings,
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	// Each archive gets a one-slot channel so workers never block and the
	// consumer below can emit in archive order.
	outcomes := make([]chan archiveOutcome, len(archives))
	for i := range outcomes {
		outcomes[i] = make(chan archiveOutcome, 1)
	}

	var g errgroup.Group
	g.SetLimit(s.cfg.Workers)
	fed := make(chan struct{})
	go func() {
		defer close(fed)
		for i, archive := range archives {
			if ctx.Err() != nil {
				outcomes[i] <- archiveOutcome{err: ctx.Err()}
				continue
			}
			g.Go(func() error {
				outcomes[i] <- s.processArchive(ctx, pool, archive)
				return nil
			})
		}
	}()

	var scanErr error
consume:
	for i := range archives {
		out := <-outcomes[i]
		result.Warnings = append(result.Warnings, out.warnings...)
		result.MembersScanned += out.members
		if out.err != nil {
			scanErr = out.err
			break
		}
		result.ArchivesScanned++
		if s.progress != nil {
			s.progress(i+1, len(archives), archives[i])
		}
		for _, r := range out.reports {
			if err := emit(r); err != nil {
				scanErr = err
				break consume
			}
			result.Matches++
		}
	}

	cancel()
	<-fed
	_ = g.Wait()

	if scanErr != nil {
		return nil, scanErr
	}
	result.Duration = time.Since(start)
	return result, nil
}

type archiveOutcome struct {
	reports  []Report
	warnings []Warning
	members  int
	err      error // fatal: stops the whole scan
}

// processArchive extracts one archive into a fresh workspace and lists every
// object member. Tool failures become warnings; only workspace and context
// errors are fatal.
func (s *Scanner) processArchive(ctx context.Context, pool *workspace.Pool, archive string) (out archiveOutcome) {
	if err := ctx.Err(); err != nil {
		return archiveOutcome{err: err}
	}

	ws, err := pool.Acquire()
	if err != nil {
		return archiveOutcome{err: err}
	}
	defer func() {
		if err := ws.Release(); err != nil && out.err == nil {
			out.err = err
		}
	}()

	// The archiver must start from an empty directory.
	if empty, err := ws.Empty(); err != nil || !empty {
		if err := ws.Clear(); err != nil {
			return archiveOutcome{err: err}
		}
	}

	log := s.logger.With(zap.String("archive", archive))
	log.Debug("extracting", zap.String("workspace", ws.Dir()))

	if err := s.archiver.Extract(ctx, archive, ws.Dir()); err != nil {
		if ctx.Err() != nil {
			return archiveOutcome{err: ctx.Err()}
		}
		log.Warn("archive extraction failed", zap.String("content_type", contentType(archive)), zap.Error(err))
		out.warnings = append(out.warnings, Warning{Kind: WarnExtractFailed, Archive: archive, Message: err.Error()})
		return out
	}

	members, err := ws.Files(s.cfg.ObjectSuffixes)
	if err != nil {
		out.err = err
		return out
	}
	log.Debug("extracted", zap.Int("members", len(members)))

	for _, member := range members {
		if err := ctx.Err(); err != nil {
			out.err = err
			return out
		}
		out.members++

		res, err := s.lister.List(ctx, ws.Path(member))
		if err != nil {
			if ctx.Err() != nil {
				out.err = ctx.Err()
				return out
			}
			log.Warn("symbol listing failed", zap.String("member", member), zap.Error(err))
			out.warnings = append(out.warnings, Warning{Kind: WarnListFailed, Archive: archive, Member: member, Message: err.Error()})
			continue
		}
		if res == nil {
			continue
		}
		if diag := strings.TrimSpace(res.Stderr); diag != "" {
			log.Warn("symbol lister diagnostics", zap.String("member", member), zap.String("stderr", diag))
			out.warnings = append(out.warnings, Warning{Kind: WarnListDiagnostics, Archive: archive, Member: member, Message: diag})
		}

		if target, ok := s.matcher.Match(res.Stdout); ok {
			log.Info("target symbol found", zap.String("member", member), zap.String("target", target))
			out.reports = append(out.reports, Report{
				Archive: archive,
				Member:  member,
				Target:  target,
				Listing: res.Stdout,
			})
		}
	}
	return out
}

// contentType sniffs archive for log context when extraction fails.
func contentType(path string) string {
	mt, err := mimetype.DetectFile(path)
	if err != nil {
		return "unknown"
	}
	return mt.String()
}
