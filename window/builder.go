package window

import (
	"github.com/hushtab/hushcore/internal/types"
	"github.com/hushtab/hushcore/scoring"
)

// Builder groups confidence observations into discrete ad windows in
// signal-driven (production) mode.
//
// A window opens once the score has held at or above the mute threshold
// for the configured open dwell, and closes once the score has held below
// the unmute threshold for the close dwell. The dwell debounce lives here
// so the mute state machine stays a pure function with no timers.
//
// Windows never overlap: at most one window is open at a time, and
// re-entrant ad breaks appear as consecutive windows. An open window is
// simply abandoned when the engine shuts down; that data loss at shutdown
// is accepted.
type Builder struct {
	current *Window
	closed  []Window

	aboveSince int64 // first tick of the current high-score run, -1 when none
	belowSince int64 // first tick of the current low-score run, -1 when none

	logger types.Logger
}

// NewBuilder creates a signal-driven window builder
func NewBuilder(logger types.Logger) *Builder {
	return &Builder{
		aboveSince: -1,
		belowSince: -1,
		logger:     logger,
	}
}

// Observe feeds one scored tick to the builder. It returns the window
// closed by this observation, if any. The caller passes the table active
// for this scoring pass so thresholds and dwell cannot shift mid-window
// evaluation.
func (b *Builder) Observe(ts int64, score float64, cfg *scoring.Config) *Window {
	if b.current != nil {
		b.current.ConfidenceHistory = append(b.current.ConfidenceHistory,
			ConfidencePoint{Timestamp: ts, Score: score})
		return b.observeOpen(ts, score, cfg)
	}
	return b.observeClosedState(ts, score, cfg)
}

func (b *Builder) observeClosedState(ts int64, score float64, cfg *scoring.Config) *Window {
	if score < cfg.MuteThreshold {
		b.aboveSince = -1
		return nil
	}

	if b.aboveSince < 0 {
		b.aboveSince = ts
	}

	if ts-b.aboveSince >= cfg.OpenDwell.Milliseconds() {
		b.current = &Window{
			Start: b.aboveSince,
			ConfidenceHistory: []ConfidencePoint{
				{Timestamp: ts, Score: score},
			},
		}
		b.aboveSince = -1
		b.belowSince = -1
		if b.logger != nil {
			b.logger.Printf("ad window opened at t=%d (score %g)", b.current.Start, score)
		}
	}

	return nil
}

func (b *Builder) observeOpen(ts int64, score float64, cfg *scoring.Config) *Window {
	if score >= cfg.UnmuteThreshold {
		b.belowSince = -1
		return nil
	}

	if b.belowSince < 0 {
		b.belowSince = ts
	}

	if ts-b.belowSince >= cfg.CloseDwell.Milliseconds() {
		w := b.current
		w.End = b.belowSince
		b.closed = append(b.closed, *w)
		b.current = nil
		b.belowSince = -1
		if b.logger != nil {
			b.logger.Printf("ad window closed: %s", w)
		}
		return w
	}

	return nil
}

// Current returns the open window, or nil
func (b *Builder) Current() *Window {
	return b.current
}

// Windows returns all closed windows in order
func (b *Builder) Windows() []Window {
	out := make([]Window, len(b.closed))
	copy(out, b.closed)
	return out
}

// Reset discards all state, open window included
func (b *Builder) Reset() {
	b.current = nil
	b.closed = nil
	b.aboveSince = -1
	b.belowSince = -1
}
