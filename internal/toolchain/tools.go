package toolchain

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
)

// Config selects the archiver and symbol-lister binaries.
// Explicit Ar/Nm commands win over Dir; with neither, ar and nm are looked up on PATH.
type Config struct {
	Dir    string // directory holding ar and nm, e.g. $WASI_SDK_PATH/bin
	Ar     string // shell-quoted archiver command
	Nm     string // shell-quoted symbol-lister command
	Runner *Runner
}

// Resolve builds the archiver and symbol lister described by cfg.
func Resolve(cfg Config) (*Ar, *Nm, error) {
	runner := cfg.Runner
	if runner == nil {
		runner = &Runner{}
	}
	arCmd, err := resolveOne(cfg.Ar, cfg.Dir, "ar")
	if err != nil {
		return nil, nil, fmt.Errorf("archiver: %w", err)
	}
	nmCmd, err := resolveOne(cfg.Nm, cfg.Dir, "nm")
	if err != nil {
		return nil, nil, fmt.Errorf("symbol lister: %w", err)
	}
	return &Ar{Command: arCmd, Runner: runner}, &Nm{Command: nmCmd, Runner: runner}, nil
}

func resolveOne(explicit, dir, name string) (Command, error) {
	cmd := Command{Program: name}
	if explicit != "" {
		var err error
		if cmd, err = ParseCommand(explicit); err != nil {
			return Command{}, err
		}
	} else if dir != "" {
		cmd.Program = filepath.Join(dir, name)
	}
	// The archiver runs inside the scratch directory, so a relative
	// program path has to be pinned to the caller's working directory.
	if strings.ContainsRune(cmd.Program, filepath.Separator) && !filepath.IsAbs(cmd.Program) {
		abs, err := filepath.Abs(cmd.Program)
		if err != nil {
			return Command{}, err
		}
		cmd.Program = abs
	}
	return cmd, nil
}

// Ar extracts archives with `ar x`.
type Ar struct {
	Command Command
	Runner  *Runner
}

// Extract expands every member of archive into dir.
func (a *Ar) Extract(ctx context.Context, archive, dir string) error {
	abs, err := filepath.Abs(archive)
	if err != nil {
		return fmt.Errorf("resolving %s: %w", archive, err)
	}
	if _, err := a.Runner.Run(ctx, a.Command, dir, "x", abs); err != nil {
		return err
	}
	return nil
}

// Nm lists the symbol table of one object file.
type Nm struct {
	Command Command
	Runner  *Runner
}

// List runs the symbol lister on object. On failure the returned Result still
// carries whatever the tool printed.
func (n *Nm) List(ctx context.Context, object string) (*Result, error) {
	return n.Runner.Run(ctx, n.Command, "", object)
}
