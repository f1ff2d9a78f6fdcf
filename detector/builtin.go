// detector/builtin.go
package detector

import (
	"context"
	"fmt"

	"github.com/hushtab/hushcore/internal/types"
	"github.com/hushtab/hushcore/scoring"
)

// NoOpDetector is an empty detector for speed testing
type NoOpDetector struct{}

func NewNoOpDetector() *NoOpDetector {
	return &NoOpDetector{}
}

func (d *NoOpDetector) Name() string { return "noop" }
func (d *NoOpDetector) Description() string {
	return "Empty detector for benchmarking (never activates)"
}
func (d *NoOpDetector) Version() string { return "1.0.0" }

func (d *NoOpDetector) Detect(ctx context.Context, snap Snapshot) (*Activation, error) {
	return nil, nil
}

// NetworkAdDetector activates when the snapshot shows ad-delivery traffic,
// or an analytics beacon burst above the configured threshold.
//
// The burst rule exists because some analytics vendors fire a tight run of
// beacons specifically during ad playback; steady-state content analytics
// stays below the threshold and must not activate the signal.
type NetworkAdDetector struct{}

func NewNetworkAdDetector() *NetworkAdDetector {
	return &NetworkAdDetector{}
}

func (d *NetworkAdDetector) Name() string { return scoring.SignalNetworkAd }
func (d *NetworkAdDetector) Description() string {
	return "Ad-delivery requests present, or analytics beacon burst above threshold"
}
func (d *NetworkAdDetector) Version() string { return "1.1.0" }

func (d *NetworkAdDetector) Detect(ctx context.Context, snap Snapshot) (*Activation, error) {
	adCount := snap.AdDeliveryCount()
	analyticsCount := snap.AnalyticsCount()

	burst := types.DEFAULT_ANALYTICS_BURST
	if snap.Config != nil {
		burst = snap.Config.AnalyticsBurstThreshold
	}

	if adCount > 0 {
		return &Activation{
			Signal: d.Name(),
			Note:   fmt.Sprintf("%d ad-delivery requests", adCount),
			Metadata: map[string]interface{}{
				"ad_delivery_count": adCount,
				"analytics_count":   analyticsCount,
			},
		}, nil
	}

	if analyticsCount > burst {
		return &Activation{
			Signal: d.Name(),
			Note:   fmt.Sprintf("analytics burst: %d requests over threshold %d", analyticsCount, burst),
			Metadata: map[string]interface{}{
				"analytics_count": analyticsCount,
				"burst_threshold": burst,
			},
		}, nil
	}

	return nil, nil
}

// FlagDetector activates when any of its watched boolean flags was
// observed true inside the snapshot. It covers both already-classified
// DOM signals and site-specific player flag bundles, so a site adapter
// adds a new signal by constructing a FlagDetector, never by touching
// the scorer.
type FlagDetector struct {
	signal      string
	description string
	flags       []string
}

// NewFlagDetector creates a detector for signalName that watches the
// given flag names
func NewFlagDetector(signalName, description string, flags ...string) *FlagDetector {
	return &FlagDetector{
		signal:      signalName,
		description: description,
		flags:       flags,
	}
}

func (d *FlagDetector) Name() string        { return d.signal }
func (d *FlagDetector) Description() string { return d.description }
func (d *FlagDetector) Version() string     { return "1.0.0" }

func (d *FlagDetector) Detect(ctx context.Context, snap Snapshot) (*Activation, error) {
	for _, flag := range d.flags {
		if snap.FlagObserved(flag) {
			return &Activation{
				Signal: d.signal,
				Note:   fmt.Sprintf("flag %q observed true", flag),
				Metadata: map[string]interface{}{
					"flag": flag,
				},
			}, nil
		}
	}
	return nil, nil
}

// NewControlsHiddenDetector watches the player-controls visibility signal
func NewControlsHiddenDetector() *FlagDetector {
	return NewFlagDetector(scoring.SignalControlsHidden,
		"Player controls hidden during playback",
		"controls-hidden")
}

// NewProgressBarHiddenDetector watches the progress-bar visibility signal
func NewProgressBarHiddenDetector() *FlagDetector {
	return NewFlagDetector(scoring.SignalProgressBarHidden,
		"Progress bar hidden during playback",
		"progress-bar-hidden")
}

// NewBackToLiveHiddenDetector watches the back-to-live control, which NBC
// hides while an ad plays on a live stream
func NewBackToLiveHiddenDetector() *FlagDetector {
	return NewFlagDetector(scoring.SignalBackToLiveHidden,
		"Back-to-live control hidden during live playback",
		"back-to-live-hidden")
}

// ShortVideoDetector activates when a sampled player duration is finite
// and shorter than the ad-creative ceiling. Ad creatives load as their
// own short media elements (15-120s) while content is long or live.
type ShortVideoDetector struct {
	maxDurationSec float64
}

func NewShortVideoDetector() *ShortVideoDetector {
	return &ShortVideoDetector{maxDurationSec: 120}
}

func (d *ShortVideoDetector) Name() string { return scoring.SignalShortVideo }
func (d *ShortVideoDetector) Description() string {
	return "Player duration shorter than a typical ad creative ceiling (120s)"
}
func (d *ShortVideoDetector) Version() string { return "1.0.0" }

func (d *ShortVideoDetector) Detect(ctx context.Context, snap Snapshot) (*Activation, error) {
	min, ok := snap.MinFiniteDuration()
	if !ok || min >= d.maxDurationSec {
		return nil, nil
	}

	return &Activation{
		Signal: d.Name(),
		Note:   fmt.Sprintf("player duration %.1fs below %.0fs ceiling", min, d.maxDurationSec),
		Metadata: map[string]interface{}{
			"min_duration_sec": min,
			"ceiling_sec":      d.maxDurationSec,
		},
	}, nil
}
