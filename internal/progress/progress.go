// Package progress shows a spinner on stderr while a lookup waits on the network.
package progress

import (
	"io"
	"os"
	"sync"
	"time"

	"github.com/schollz/progressbar/v3"
	"golang.org/x/term"
)

// spinInterval is how often the spinner advances.
const spinInterval = 100 * time.Millisecond

// Reporter is started before a blocking lookup and finished after it.
type Reporter interface {
	Start(description string)
	Finish()
}

// New returns a Spinner writing to f when f is a terminal, otherwise a no-op reporter.
func New(f *os.File, enabled bool) Reporter {
	if !enabled || f == nil || !term.IsTerminal(int(f.Fd())) {
		return NewNoOpProgress()
	}
	return NewSpinner(f)
}

// Spinner is an indeterminate progressbar cleared when the lookup finishes.
type Spinner struct {
	w    io.Writer
	mu   sync.Mutex
	bar  *progressbar.ProgressBar
	stop chan struct{}
	done chan struct{}
}

// NewSpinner creates a spinner writing to w.
func NewSpinner(w io.Writer) *Spinner {
	return &Spinner{w: w}
}

// Start shows the spinner with description. Starting a running spinner
// only changes its description.
func (s *Spinner) Start(description string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.bar != nil {
		s.bar.Describe(description)
		return
	}

	s.bar = progressbar.NewOptions(-1,
		progressbar.OptionSetWriter(s.w),
		progressbar.OptionSetDescription(description),
		progressbar.OptionSpinnerType(14),
		progressbar.OptionThrottle(spinInterval),
		progressbar.OptionClearOnFinish(),
		progressbar.OptionSetRenderBlankState(true),
	)
	s.stop = make(chan struct{})
	s.done = make(chan struct{})

	go func(bar *progressbar.ProgressBar, stop, done chan struct{}) {
		defer close(done)
		ticker := time.NewTicker(spinInterval)
		defer ticker.Stop()
		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				_ = bar.Add(1)
			}
		}
	}(s.bar, s.stop, s.done)
}

// Finish stops and clears the spinner. It is safe to call when not started.
func (s *Spinner) Finish() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.bar == nil {
		return
	}
	close(s.stop)
	<-s.done
	_ = s.bar.Finish()
	_ = s.bar.Clear()
	s.bar = nil
}

// NoOpProgress is a progress reporter that does nothing (pipes, JSON output, tests).
type NoOpProgress struct{}

// NewNoOpProgress creates a new no-op progress reporter.
func NewNoOpProgress() *NoOpProgress {
	return &NoOpProgress{}
}

// Start does nothing.
func (p *NoOpProgress) Start(description string) {}

// Finish does nothing.
func (p *NoOpProgress) Finish() {}
