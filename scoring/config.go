package scoring

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/hushtab/hushcore/internal/types"
)

// Well-known signal names. Site adapters may register additional names;
// the table is an open mapping, not a schema.
const (
	SignalNetworkAd         = "network-ad-detected"
	SignalControlsHidden    = "controls-hidden"
	SignalProgressBarHidden = "progress-bar-hidden"
	SignalBackToLiveHidden  = "back-to-live-hidden"
	SignalShortVideo        = "short-video"
)

// Config is the engine's weight table plus thresholds and debounce dwell
// times. It is treated as immutable once installed; hot reload swaps the
// whole value atomically so a scoring pass never sees a half-updated table.
type Config struct {
	// Weights maps signal name to its non-negative contribution.
	// A zero weight disables a signal without unregistering it.
	Weights map[string]float64 `yaml:"weights" json:"weights"`

	// MuteThreshold is the score at which the UNMUTED to MUTED transition fires.
	MuteThreshold float64 `yaml:"mute_threshold" json:"muteThreshold"`

	// UnmuteThreshold is the score below which the MUTED to UNMUTED
	// transition fires.
	// Must not exceed MuteThreshold; equality degrades hysteresis to a
	// plain threshold crossing and is flicker-prone.
	UnmuteThreshold float64 `yaml:"unmute_threshold" json:"unmuteThreshold"`

	// AnalyticsBurstThreshold is the analytics request count per window
	// above which a beacon burst counts as ad evidence.
	AnalyticsBurstThreshold int `yaml:"analytics_burst_threshold" json:"analyticsBurstThreshold"`

	// OpenDwell is how long the score must stay at or above MuteThreshold
	// before a signal-driven window opens.
	OpenDwell time.Duration `yaml:"open_dwell" json:"openDwell"`

	// CloseDwell is how long the score must stay below UnmuteThreshold
	// before the open window closes.
	CloseDwell time.Duration `yaml:"close_dwell" json:"closeDwell"`

	// AllowInvertedThresholds skips the UnmuteThreshold <= MuteThreshold
	// check. Off by default.
	AllowInvertedThresholds bool `yaml:"allow_inverted_thresholds,omitempty" json:"allowInvertedThresholds,omitempty"`
}

// DefaultConfig returns the weight table shipped with the NBC site adapter
func DefaultConfig() *Config {
	return &Config{
		Weights: map[string]float64{
			SignalNetworkAd:         45,
			SignalControlsHidden:    35,
			SignalProgressBarHidden: 30,
			SignalBackToLiveHidden:  25,
			SignalShortVideo:        0,
		},
		MuteThreshold:           types.DEFAULT_MUTE_THRESHOLD,
		UnmuteThreshold:         types.DEFAULT_UNMUTE_THRESHOLD,
		AnalyticsBurstThreshold: types.DEFAULT_ANALYTICS_BURST,
		OpenDwell:               types.DEFAULT_TICK_MS * time.Millisecond,
		CloseDwell:              types.DEFAULT_TICK_MS * time.Millisecond,
	}
}

// InvalidConfigurationError reports a rejected weight table. The previous
// table stays active when a reload fails with this error.
type InvalidConfigurationError struct {
	Reason string
}

func (e *InvalidConfigurationError) Error() string {
	return fmt.Sprintf("invalid configuration: %s", e.Reason)
}

// Validate checks the table before it is installed
func (c *Config) Validate() error {
	for name, w := range c.Weights {
		if w < 0 {
			return &InvalidConfigurationError{
				Reason: fmt.Sprintf("negative weight %g for signal %q", w, name),
			}
		}
	}

	if !c.AllowInvertedThresholds && c.UnmuteThreshold > c.MuteThreshold {
		return &InvalidConfigurationError{
			Reason: fmt.Sprintf("unmute threshold %g exceeds mute threshold %g",
				c.UnmuteThreshold, c.MuteThreshold),
		}
	}

	if c.AnalyticsBurstThreshold < 0 {
		return &InvalidConfigurationError{
			Reason: fmt.Sprintf("negative analytics burst threshold %d", c.AnalyticsBurstThreshold),
		}
	}

	if c.OpenDwell < 0 || c.CloseDwell < 0 {
		return &InvalidConfigurationError{Reason: "negative dwell duration"}
	}

	return nil
}

// MaxScore returns the sum of all weights, the upper bound of any score
func (c *Config) MaxScore() float64 {
	var sum float64
	for _, w := range c.Weights {
		sum += w
	}
	return sum
}

// Weight returns the configured weight for a signal name, 0 when absent
func (c *Config) Weight(name string) float64 {
	return c.Weights[name]
}

// Clone returns a deep copy, for building a modified table before reload
func (c *Config) Clone() *Config {
	out := *c
	out.Weights = make(map[string]float64, len(c.Weights))
	for name, w := range c.Weights {
		out.Weights[name] = w
	}
	return &out
}

// LoadConfig reads and validates a YAML weight table.
// Missing fields inherit defaults, so an operator file can override just
// the weights.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}
