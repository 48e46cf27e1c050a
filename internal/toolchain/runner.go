// Package toolchain runs the external archiver and symbol-listing tools
// that symscan delegates all binary-format handling to.
package toolchain

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/kballard/go-shellquote"
)

// Command is a program plus the leading arguments it is always invoked with.
type Command struct {
	Program string
	Args    []string
}

// ParseCommand splits a shell-quoted command line such as
// `"/opt/wasi sdk/bin/llvm-nm" --no-sort` into a Command.
func ParseCommand(s string) (Command, error) {
	words, err := shellquote.Split(s)
	if err != nil {
		return Command{}, fmt.Errorf("parsing command %q: %w", s, err)
	}
	if len(words) == 0 {
		return Command{}, fmt.Errorf("empty command")
	}
	return Command{Program: words[0], Args: words[1:]}, nil
}

func (c Command) String() string {
	return shellquote.Join(append([]string{c.Program}, c.Args...)...)
}

// Result holds the captured output of one tool invocation.
type Result struct {
	Stdout   string
	Stderr   string
	ExitCode int
	Err      error
}

// ExitError is returned when a tool ran but exited non-zero, or could not be
// started at all (ExitCode -1).
type ExitError struct {
	Command  string
	ExitCode int
	Stderr   string
	Err      error
}

func (e *ExitError) Error() string {
	msg := fmt.Sprintf("%s: %v", e.Command, e.Err)
	if s := strings.TrimSpace(e.Stderr); s != "" {
		msg += ": " + firstLine(s)
	}
	return msg
}

func (e *ExitError) Unwrap() error { return e.Err }

// Runner executes commands with separately captured stdout and stderr.
// A zero Timeout means no per-invocation deadline.
type Runner struct {
	Timeout time.Duration
}

// Run executes cmd with extra args in dir. The Result is always non-nil.
func (r *Runner) Run(ctx context.Context, cmd Command, dir string, args ...string) (*Result, error) {
	if r.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.Timeout)
		defer cancel()
	}

	argv := append(append([]string{}, cmd.Args...), args...)
	c := exec.CommandContext(ctx, cmd.Program, argv...)
	c.Dir = dir

	var stdout, stderr bytes.Buffer
	c.Stdout = &stdout
	c.Stderr = &stderr

	err := c.Run()
	res := &Result{
		Stdout: stdout.String(),
		Stderr: stderr.String(),
		Err:    err,
	}

	var exitErr *exec.ExitError
	switch {
	case err == nil:
		return res, nil
	case errors.As(err, &exitErr):
		res.ExitCode = exitErr.ExitCode()
	default:
		res.ExitCode = -1
	}
	if r.Timeout > 0 && errors.Is(ctx.Err(), context.DeadlineExceeded) {
		err = fmt.Errorf("timed out after %s: %w", r.Timeout, ctx.Err())
		res.Err = err
	}
	return res, &ExitError{
		Command:  cmd.Program,
		ExitCode: res.ExitCode,
		Stderr:   res.Stderr,
		Err:      err,
	}
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}
