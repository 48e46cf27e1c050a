package output

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"golang.org/x/term"
)

var spinnerFrames = []rune("⠋⠙⠹⠸⠼⠴⠦⠧⠇⠏")

const defaultSpinnerWidth = 80

// Spinner displays an animated braille spinner on a writer (typically stderr).
// Update may be called from any goroutine. A nil *Spinner is a no-op, so
// callers need not check whether progress is enabled.
type Spinner struct {
	mu      sync.Mutex
	w       io.Writer
	width   int
	message string
	done    chan struct{}
	stopped bool
}

// NewSpinner creates a spinner that writes to w.
func NewSpinner(w io.Writer) *Spinner {
	return &Spinner{w: w, width: defaultSpinnerWidth}
}

// NewTerminalSpinner returns a spinner on f sized to the terminal, or nil when
// f is not a terminal.
func NewTerminalSpinner(f *os.File) *Spinner {
	fd := int(f.Fd())
	if !term.IsTerminal(fd) {
		return nil
	}
	s := NewSpinner(f)
	if w, _, err := term.GetSize(fd); err == nil && w > 4 {
		s.width = w - 1
	}
	return s
}

// Start begins the spinner animation with the given message.
func (s *Spinner) Start(message string) {
	if s == nil {
		return
	}
	s.mu.Lock()
	s.message = message
	s.done = make(chan struct{})
	s.stopped = false
	s.mu.Unlock()

	go s.loop()
}

// Update changes the displayed message while the spinner is running.
func (s *Spinner) Update(message string) {
	if s == nil {
		return
	}
	s.mu.Lock()
	s.message = message
	s.mu.Unlock()
}

// Progress formats a scan progress message. It matches scanner.ProgressFunc.
func (s *Spinner) Progress(done, total int, archive string) {
	s.Update(fmt.Sprintf("Scanning archives %d/%d  %s", done, total, archive))
}

// Stop halts the spinner and clears its line. It is idempotent.
func (s *Spinner) Stop() {
	if s == nil {
		return
	}
	s.mu.Lock()
	if s.stopped || s.done == nil {
		s.mu.Unlock()
		return
	}
	s.stopped = true
	s.mu.Unlock()

	close(s.done)

	s.mu.Lock()
	fmt.Fprintf(s.w, "\r%s\r", strings.Repeat(" ", s.width))
	s.mu.Unlock()
}

func (s *Spinner) loop() {
	tick := time.NewTicker(80 * time.Millisecond)
	defer tick.Stop()

	i := 0
	for {
		select {
		case <-s.done:
			return
		case <-tick.C:
			s.mu.Lock()
			if s.stopped {
				s.mu.Unlock()
				return
			}
			frame := spinnerFrames[i%len(spinnerFrames)]
			line := fmt.Sprintf("%c %s", frame, s.message)
			if r := []rune(line); len(r) > s.width {
				line = string(r[:s.width])
			}
			// Pad to overwrite leftovers from a longer previous message
			fmt.Fprintf(s.w, "\r%-*s", s.width, line)
			s.mu.Unlock()

			i++
		}
	}
}
