// Package session runs the countdown that turns focused time into work records.
//
// A Recorder is either idle or running since a start instant. It owns no goroutine:
// the caller polls Tick, typically once a second, and the session is written the
// first time Tick observes that the configured length has elapsed.
package session

import (
	"fmt"
	"time"

	"github.com/sadopc/hourtree/internal/logging"
	"github.com/sadopc/hourtree/internal/store"
)

// Writer persists completed sessions.
type Writer interface {
	AddWorkSession(ws store.WorkSession) error
}

// Tree supplies the project a completed session is attributed to and is refreshed
// after each write so totals include the new time.
type Tree interface {
	Active() *int64
	Refresh() error
}

// Option configures a Recorder.
type Option func(*Recorder)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(r *Recorder) { r.now = now }
}

type Recorder struct {
	writer Writer
	tree   Tree
	length time.Duration
	now    func() time.Time

	running bool
	start   time.Time
}

func New(w Writer, tree Tree, length time.Duration, opts ...Option) *Recorder {
	r := &Recorder{
		writer: w,
		tree:   tree,
		length: length,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Start begins a countdown. Starting a running session restarts it.
func (r *Recorder) Start() {
	r.running = true
	r.start = r.now()
}

// Cancel drops the running session without recording anything.
func (r *Recorder) Cancel() {
	if r.running {
		logging.Logger().Debug("session cancelled", "elapsed", r.Elapsed().Round(time.Second))
	}
	r.running = false
	r.start = time.Time{}
}

// Toggle starts an idle recorder and cancels a running one.
func (r *Recorder) Toggle() {
	if r.running {
		r.Cancel()
		return
	}
	r.Start()
}

// Tick completes the session once its length has elapsed. It reports whether a
// session was recorded by this call. If the write fails the session keeps running
// and the next Tick retries it.
func (r *Recorder) Tick() (bool, error) {
	if !r.running || r.now().Sub(r.start) < r.length {
		return false, nil
	}

	ws := store.WorkSession{
		TimeStart: r.start.Unix(),
		Duration:  int64(r.length / time.Second),
		ProjectID: r.tree.Active(),
	}
	if err := r.writer.AddWorkSession(ws); err != nil {
		return false, fmt.Errorf("record session: %w", err)
	}
	r.running = false
	r.start = time.Time{}

	if err := r.tree.Refresh(); err != nil {
		return true, err
	}
	return true, nil
}

func (r *Recorder) Running() bool {
	return r.running
}

// Elapsed is zero while idle.
func (r *Recorder) Elapsed() time.Duration {
	if !r.running {
		return 0
	}
	return r.now().Sub(r.start)
}

// Remaining never goes below zero. While idle it is the full length.
func (r *Recorder) Remaining() time.Duration {
	if !r.running {
		return r.length
	}
	left := r.length - r.Elapsed()
	if left < 0 {
		return 0
	}
	return left
}

// Countdown renders the remaining time as MM:SS, or "--:--" while idle.
func (r *Recorder) Countdown() string {
	if !r.running {
		return "--:--"
	}
	secs := int64((r.Remaining() + time.Second - 1) / time.Second)
	return fmt.Sprintf("%02d:%02d", secs/60, secs%60)
}

func (r *Recorder) Length() time.Duration {
	return r.length
}

// SetLength changes the length for the running session and every later one.
func (r *Recorder) SetLength(d time.Duration) {
	r.length = d
}
