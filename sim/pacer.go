package sim

import (
	"context"
	"time"
)

// Pacer throttles the driver loop between ticks. It is a wall-clock concern
// only: logical time advances exactly one tick per loop iteration whatever
// the pacer does.
type Pacer interface {
	Pace(ctx context.Context) error
}

// NoPacer runs ticks back to back.
type NoPacer struct{}

// Pace returns immediately.
func (NoPacer) Pace(context.Context) error { return nil }

// WallClockPacer sleeps Interval between ticks.
type WallClockPacer struct {
	Interval time.Duration
}

// Pace blocks for Interval or until ctx is done, whichever comes first.
func (p WallClockPacer) Pace(ctx context.Context) error {
	if p.Interval <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(p.Interval)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// NewPacer returns the pacer matching cfg's effective tick interval.
func NewPacer(cfg Config) Pacer {
	if iv := cfg.EffectiveTickInterval(); iv > 0 {
		return WallClockPacer{Interval: iv}
	}
	return NoPacer{}
}
