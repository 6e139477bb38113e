package cli

import (
	"context"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"
)

var spinnerFrames = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

// Spinner is a stderr activity indicator shown while the CLI waits on the
// directory or the renderer. It writes to stderr so piped json/dot output
// stays clean, and stops on Stop or when its context is cancelled.
type Spinner struct {
	msg    string
	ctx    context.Context
	cancel context.CancelFunc
	once   sync.Once
	halt   chan struct{}
	parked chan struct{}
}

// newSpinnerWithContext creates a spinner bound to ctx.
func newSpinnerWithContext(ctx context.Context, msg string) *Spinner {
	ctx, cancel := context.WithCancel(ctx)
	return &Spinner{
		msg:    msg,
		ctx:    ctx,
		cancel: cancel,
		halt:   make(chan struct{}),
		parked: make(chan struct{}),
	}
}

// Start begins the animation on its own goroutine.
func (s *Spinner) Start() {
	go func() {
		defer close(s.parked)
		ticker := time.NewTicker(80 * time.Millisecond)
		defer ticker.Stop()

		for i := 0; ; i++ {
			select {
			case <-s.ctx.Done():
				return
			case <-s.halt:
				return
			case <-ticker.C:
				frame := spinnerFrames[i%len(spinnerFrames)]
				fmt.Fprintf(os.Stderr, "\r%s %s", styleIconSpinner.Render(frame), StyleDim.Render(s.msg))
			}
		}
	}()
}

// Stop halts the animation, waits for the render goroutine to park, and
// clears the line. Safe to call more than once.
func (s *Spinner) Stop() {
	s.once.Do(func() { close(s.halt) })
	s.cancel()
	<-s.parked
	fmt.Fprintf(os.Stderr, "\r%s\r", strings.Repeat(" ", len(s.msg)+4))
}
