package progress

import (
	"fmt"
	"io"
	"os"
	"sync/atomic"

	"github.com/schollz/progressbar/v3"
)

// Tracker reports per-file progress on a terminal bar. A nil *Tracker is
// valid and does nothing, so callers can pass t.Tick unconditionally.
type Tracker struct {
	bar   *progressbar.ProgressBar
	out   io.Writer
	label string
	done  atomic.Int64
}

// Option configures a Tracker.
type Option func(*Tracker)

// WithWriter sends the bar and finish messages to w instead of stderr.
func WithWriter(w io.Writer) Option {
	return func(t *Tracker) {
		t.out = w
	}
}

// NewSpinner creates a spinner for work with an unknown file count.
func NewSpinner(label string, opts ...Option) *Tracker {
	t := &Tracker{out: os.Stderr, label: label}
	for _, opt := range opts {
		opt(t)
	}
	t.bar = progressbar.NewOptions(-1,
		progressbar.OptionSetWriter(t.out),
		progressbar.OptionSetWidth(20),
		progressbar.OptionSetDescription(label),
		progressbar.OptionSpinnerType(14),
		progressbar.OptionClearOnFinish(),
	)
	return t
}

// NewTracker creates a bar counting up to total files.
func NewTracker(label string, total int, opts ...Option) *Tracker {
	t := &Tracker{out: os.Stderr, label: label}
	for _, opt := range opts {
		opt(t)
	}
	t.bar = progressbar.NewOptions(total,
		progressbar.OptionSetWriter(t.out),
		progressbar.OptionShowCount(),
		progressbar.OptionSetWidth(30),
		progressbar.OptionSetDescription(label),
		progressbar.OptionUseANSICodes(true),
		progressbar.OptionSetElapsedTime(false),
		progressbar.OptionSetPredictTime(false),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "=",
			SaucerHead:    ">",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}),
	)
	return t
}

// Tick marks one file as processed. Safe for concurrent use.
func (t *Tracker) Tick() {
	if t == nil {
		return
	}
	t.done.Add(1)
	_ = t.bar.Add(1)
}

// Done returns the number of ticks so far.
func (t *Tracker) Done() int {
	if t == nil {
		return 0
	}
	return int(t.done.Load())
}

// FinishSuccess clears the bar without printing anything.
func (t *Tracker) FinishSuccess() {
	if t == nil {
		return
	}
	t.clear()
}

// FinishSkipped clears the bar and prints why the work was skipped.
func (t *Tracker) FinishSkipped(reason string) {
	if t == nil {
		return
	}
	t.clear()
	fmt.Fprintf(t.out, "  %s skipped (%s)\n", t.label, reason)
}

// FinishError clears the bar and prints err.
func (t *Tracker) FinishError(err error) {
	if t == nil {
		return
	}
	t.clear()
	fmt.Fprintf(t.out, "  %s error: %v\n", t.label, err)
}

func (t *Tracker) clear() {
	_ = t.bar.Finish()
	_ = t.bar.Clear()
}
