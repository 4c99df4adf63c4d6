// Package spinner draws a one-line activity indicator on a terminal.
//
// A Spinner is also an io.Writer: log output routed through it erases the
// indicator line first and redraws it afterwards, so the two never mix.
// On anything that is not a terminal the spinner draws nothing and writes
// pass straight through.
package spinner

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/mattn/go-isatty"
)

// DefaultFrames is a braille dot animation.
var DefaultFrames = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

// DefaultInterval is the time between frames.
const DefaultInterval = 80 * time.Millisecond

const clearLine = "\r\033[K"

// Spinner is an animated status line.
type Spinner struct {
	mu          sync.Mutex
	out         io.Writer
	message     string
	frames      []string
	interval    time.Duration
	interactive bool

	running bool
	frame   int
	stop    chan struct{}
	done    chan struct{}
}

// Option configures a Spinner.
type Option func(*Spinner)

// WithInteractive overrides terminal detection.
func WithInteractive(on bool) Option {
	return func(s *Spinner) { s.interactive = on }
}

// WithInterval sets the frame interval.
func WithInterval(d time.Duration) Option {
	return func(s *Spinner) {
		if d > 0 {
			s.interval = d
		}
	}
}

// WithFrames sets the animation frames.
func WithFrames(frames ...string) Option {
	return func(s *Spinner) {
		if len(frames) > 0 {
			s.frames = frames
		}
	}
}

// New returns a stopped spinner that draws message on out.
func New(out io.Writer, message string, opts ...Option) *Spinner {
	s := &Spinner{
		out:         out,
		message:     message,
		frames:      DefaultFrames,
		interval:    DefaultInterval,
		interactive: IsTerminal(out),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// IsTerminal reports whether w is a terminal.
func IsTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// Start begins the animation. It does nothing if the spinner is already
// running or the output is not interactive.
func (s *Spinner) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running || !s.interactive {
		return
	}
	s.running = true
	s.stop = make(chan struct{})
	s.done = make(chan struct{})
	s.drawLocked()
	go s.loop(s.stop, s.done)
}

// Stop ends the animation and erases the line. Safe to call more than once
// and on a spinner that never started.
func (s *Spinner) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	close(s.stop)
	done := s.done
	s.mu.Unlock()

	<-done

	s.mu.Lock()
	fmt.Fprint(s.out, clearLine)
	s.mu.Unlock()
}

// SetMessage replaces the text shown next to the animation.
func (s *Spinner) SetMessage(message string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.message = message
	if s.running {
		s.drawLocked()
	}
}

// Running reports whether the animation is active.
func (s *Spinner) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// Write prints p above the spinner line.
func (s *Spinner) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.running {
		return s.out.Write(p)
	}
	if _, err := io.WriteString(s.out, clearLine); err != nil {
		return 0, err
	}
	n, err := s.out.Write(p)
	if err != nil {
		return n, err
	}
	s.drawLocked()
	return n, nil
}

func (s *Spinner) loop(stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			s.mu.Lock()
			if s.running {
				s.frame = (s.frame + 1) % len(s.frames)
				s.drawLocked()
			}
			s.mu.Unlock()
		}
	}
}

func (s *Spinner) drawLocked() {
	fmt.Fprintf(s.out, "%s%s %s", clearLine, s.frames[s.frame], s.message)
}
