// detector/detector.go
package detector

import (
	"context"
	"math"
	"time"

	"github.com/hushtab/hushcore/scoring"
	"github.com/hushtab/hushcore/signal"
)

// Detector is one named activation predicate. Each detector decides
// whether its signal was active within an evaluation snapshot; the weight
// it contributes lives in the scoring table, keyed by Name().
type Detector interface {
	// Name returns the signal name this detector activates
	Name() string

	// Description returns a human-readable description
	Description() string

	// Detect inspects a snapshot and returns an activation, or nil when
	// the signal was not observed
	Detect(ctx context.Context, snap Snapshot) (*Activation, error)

	// Version returns the detector version
	Version() string
}

// Activation represents a positive signal observation
type Activation struct {
	Signal   string                 // Signal name, matches a weight-table key
	Note     string                 // Optional human-readable explanation
	Metadata map[string]interface{} // Additional context for diagnostics
}

// Result is the outcome of running one detector against one snapshot
type Result struct {
	WindowStart  int64
	WindowEnd    int64
	Activation   *Activation // nil if inactive
	Error        error
	DetectorName string
	DetectedAt   time.Time
}

// Snapshot is the evidence a detector sees for one window or tick:
// every buffered event inside [Start, End] plus the weight table active
// for this scoring pass.
type Snapshot struct {
	Start  int64
	End    int64
	Events []signal.Event
	Config *scoring.Config
}

// AdDeliveryCount returns the number of ad-delivery network requests in
// the snapshot
func (s Snapshot) AdDeliveryCount() int {
	count := 0
	for _, ev := range s.Events {
		if ev.Kind != signal.KindNetwork || ev.Network == nil {
			continue
		}
		if ev.Network.IsAdRelated && ev.Network.Category == signal.CategoryAdDelivery {
			count++
		}
	}
	return count
}

// AnalyticsCount returns the number of analytics-category requests in
// the snapshot
func (s Snapshot) AnalyticsCount() int {
	count := 0
	for _, ev := range s.Events {
		if ev.Kind != signal.KindNetwork || ev.Network == nil {
			continue
		}
		if ev.Network.Category == signal.CategoryAnalytics {
			count++
		}
	}
	return count
}

// FlagObserved reports whether the named boolean was seen true at least
// once in the snapshot, in either a DOM signal or a player flag bundle
func (s Snapshot) FlagObserved(name string) bool {
	for _, ev := range s.Events {
		switch ev.Kind {
		case signal.KindDOM:
			if ev.DOM != nil && ev.DOM.Name == name && ev.DOM.Value {
				return true
			}
		case signal.KindPlayerState:
			if ev.Player != nil && ev.Player.Flags[name] {
				return true
			}
		}
	}
	return false
}

// MinFiniteDuration returns the smallest finite player duration sampled
// in the snapshot, and whether any finite sample exists
func (s Snapshot) MinFiniteDuration() (float64, bool) {
	min := math.Inf(1)
	found := false

	for _, ev := range s.Events {
		if ev.Kind != signal.KindPlayerState || ev.Player == nil {
			continue
		}
		d := ev.Player.Duration
		if math.IsInf(d, 1) || d <= 0 {
			continue
		}
		if d < min {
			min = d
			found = true
		}
	}

	return min, found
}

// Config holds detector runner configuration
type Config struct {
	Timeout  time.Duration
	Parallel bool
	Workers  int
}

// DefaultConfig returns sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Timeout:  time.Second,
		Parallel: true,
		Workers:  4,
	}
}
