// Package timebudget answers whether an invocation has time left for another batch.
package timebudget

import (
	"context"
	"io"
	"log/slog"
	"time"
)

// TimeSource reports the remaining wall-clock time of the invocation.
type TimeSource interface {
	Remaining() time.Duration
}

// TimeSourceFunc adapts a function to TimeSource.
type TimeSourceFunc func() time.Duration

// Remaining implements TimeSource.
func (f TimeSourceFunc) Remaining() time.Duration {
	return f()
}

// Deadline is a TimeSource counting down to a fixed point in time.
type Deadline struct {
	at  time.Time
	now func() time.Time
}

// NewDeadline returns a TimeSource for the given deadline.
func NewDeadline(at time.Time) *Deadline {
	return &Deadline{at: at, now: time.Now}
}

// FromContext returns a TimeSource for the context deadline.
// The second result is false when the context has no deadline.
func FromContext(ctx context.Context) (*Deadline, bool) {
	at, ok := ctx.Deadline()
	if !ok {
		return nil, false
	}
	return NewDeadline(at), true
}

// Remaining implements TimeSource. It never returns a negative duration.
func (d *Deadline) Remaining() time.Duration {
	return max(d.at.Sub(d.now()), 0)
}

// Budget combines a TimeSource with the stop threshold.
type Budget struct {
	source    TimeSource
	threshold time.Duration
	logger    *slog.Logger
}

// New creates a Budget. A nil logger disables logging.
func New(source TimeSource, threshold time.Duration, logger *slog.Logger) *Budget {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Budget{source: source, threshold: threshold, logger: logger}
}

// HasRemaining reports whether the remaining time is strictly greater than the threshold.
func (b *Budget) HasRemaining() bool {
	remaining := b.source.Remaining()
	if remaining > b.threshold {
		return true
	}
	b.logger.Debug("stopping, remaining time reached the threshold",
		"remaining", remaining, "threshold", b.threshold)
	return false
}

// Threshold returns the configured stop threshold.
func (b *Budget) Threshold() time.Duration {
	return b.threshold
}
