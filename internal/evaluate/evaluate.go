// Package evaluate replays recorded sessions against the detection
// pipeline and grades the outcome against the session's ground-truth
// markers. It is test infrastructure: production code never imports it.
package evaluate

import (
	"context"
	"fmt"

	"github.com/hushtab/hushcore/detector"
	"github.com/hushtab/hushcore/internal/diagnostic"
	"github.com/hushtab/hushcore/internal/types"
	"github.com/hushtab/hushcore/mute"
	"github.com/hushtab/hushcore/scoring"
	"github.com/hushtab/hushcore/signal"
	"github.com/hushtab/hushcore/window"
)

// WindowVerdict grades one ground-truth ad window
type WindowVerdict struct {
	Window    window.Window  `json:"window"`
	Result    scoring.Result `json:"result"`
	Predicted mute.State     `json:"predicted"`
	Expected  mute.State     `json:"expected"`
	Pass      bool           `json:"pass"`
}

// GapVerdict grades one content gap between consecutive ad windows.
// A mute prediction here is a false positive.
type GapVerdict struct {
	Gap       window.Window  `json:"gap"`
	Result    scoring.Result `json:"result"`
	Predicted mute.State     `json:"predicted"`
	Pass      bool           `json:"pass"`
}

// Report is the outcome of one evaluation run
type Report struct {
	Windows []WindowVerdict `json:"windows"`
	Gaps    []GapVerdict    `json:"gaps"`
	Stats   *detector.Stats `json:"stats,omitempty"`
	Passed  int             `json:"passed"`
	Failed  int             `json:"failed"`
}

// Pass reports whether every window and gap verdict passed
func (r *Report) Pass() bool {
	return r.Failed == 0
}

// Harness replays sessions through the scorer and state machine
type Harness struct {
	registry *detector.Registry
	runner   *detector.Runner
	logger   types.Logger
}

// NewHarness creates an evaluation harness. A nil registry uses the
// built-in detectors.
func NewHarness(registry *detector.Registry, logger types.Logger) *Harness {
	if registry == nil {
		registry = detector.DefaultRegistry()
	}
	return &Harness{
		registry: registry,
		runner:   detector.NewRunner(registry, nil, logger),
		logger:   logger,
	}
}

// Evaluate replays a recorded session against the given weight table.
//
// Ground-truth windows come from the session's marker pairs; an odd
// marker count fails the whole run with UnpairedMarkerError rather than
// silently dropping the trailing marker. Each window is expected to
// mute and each content gap between windows is expected to stay
// unmuted; every verdict is evaluated from a fresh UNMUTED machine so
// one miss cannot cascade into the next verdict.
func (h *Harness) Evaluate(ctx context.Context, b *diagnostic.Bundle, cfg *scoring.Config) (*Report, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	truth, err := window.PairMarkers(b.Markers())
	if err != nil {
		return nil, fmt.Errorf("ground truth unusable: %w", err)
	}

	events := b.Events()
	report := &Report{}

	snaps := make([]detector.Snapshot, 0, len(truth))
	for _, w := range truth {
		snaps = append(snaps, snapshotFor(events, w.Start, w.End, cfg))
	}

	batches := h.runner.RunBatch(ctx, snaps)
	report.Stats = detector.CalculateStats(batches)

	for i, w := range truth {
		res := scoreBatch(batches[i], cfg)
		predicted := predict(w.End, res, cfg)

		verdict := WindowVerdict{
			Window:    w,
			Result:    res,
			Predicted: predicted,
			Expected:  mute.Muted,
			Pass:      predicted == mute.Muted,
		}
		report.Windows = append(report.Windows, verdict)
		report.count(verdict.Pass)

		if h.logger != nil && !verdict.Pass {
			h.logger.Printf("window %s missed: score %g below mute threshold %g",
				&w, res.Score, cfg.MuteThreshold)
		}
	}

	for _, gap := range window.Gaps(truth) {
		snap := snapshotFor(events, gap.Start, gap.End, cfg)
		active, _ := h.runner.ActiveSignals(ctx, snap)
		res := scoring.Score(active, cfg)
		predicted := predict(gap.End, res, cfg)

		verdict := GapVerdict{
			Gap:       gap,
			Result:    res,
			Predicted: predicted,
			Pass:      predicted == mute.Unmuted,
		}
		report.Gaps = append(report.Gaps, verdict)
		report.count(verdict.Pass)

		if h.logger != nil && !verdict.Pass {
			h.logger.Printf("false positive in gap %s: score %g (signals %v)",
				&gap, res.Score, res.Active)
		}
	}

	return report, nil
}

// EvaluateFile loads a bundle and evaluates it
func (h *Harness) EvaluateFile(ctx context.Context, path string, cfg *scoring.Config) (*Report, error) {
	b, err := diagnostic.Load(path)
	if err != nil {
		return nil, err
	}
	return h.Evaluate(ctx, b, cfg)
}

func (r *Report) count(pass bool) {
	if pass {
		r.Passed++
	} else {
		r.Failed++
	}
}

// predict steps a fresh machine with the verdict's score and returns the
// resulting state
func predict(ts int64, res scoring.Result, cfg *scoring.Config) mute.State {
	m := mute.NewMachine()
	m.Step(ts, res, cfg)
	return m.Decision().State
}

func scoreBatch(results []*detector.Result, cfg *scoring.Config) scoring.Result {
	var active []string
	for _, res := range results {
		if res.Error == nil && res.Activation != nil {
			active = append(active, res.Activation.Signal)
		}
	}
	return scoring.Score(active, cfg)
}

func snapshotFor(events []signal.Event, start, end int64, cfg *scoring.Config) detector.Snapshot {
	snap := detector.Snapshot{Start: start, End: end, Config: cfg}
	for _, ev := range events {
		if ev.Timestamp >= start && ev.Timestamp <= end {
			snap.Events = append(snap.Events, ev)
		}
	}
	return snap
}
