package hushcore

import (
	"github.com/hushtab/hushcore/detector"
	"github.com/hushtab/hushcore/internal/types"
	"github.com/hushtab/hushcore/mute"
	"github.com/hushtab/hushcore/scoring"
	"github.com/hushtab/hushcore/signal"
	"github.com/hushtab/hushcore/window"
)

// Re-export commonly used types for convenience
type (
	Event             = signal.Event
	NetworkSignal     = signal.NetworkSignal
	PlayerStateSignal = signal.PlayerStateSignal
	DOMSignal         = signal.DOMSignal
	Kind              = signal.Kind
	Category          = signal.Category

	Config     = scoring.Config
	Result     = scoring.Result
	Decision   = mute.Decision
	State      = mute.State
	Transition = mute.Transition
	Window     = window.Window

	Detector   = detector.Detector
	Activation = detector.Activation
	Registry   = detector.Registry

	Logger = types.Logger
)

// Re-export constants
const (
	KindNetwork     = signal.KindNetwork
	KindPlayerState = signal.KindPlayerState
	KindDOM         = signal.KindDOM

	Muted   = mute.Muted
	Unmuted = mute.Unmuted

	DEFAULT_MUTE_THRESHOLD   = types.DEFAULT_MUTE_THRESHOLD
	DEFAULT_UNMUTE_THRESHOLD = types.DEFAULT_UNMUTE_THRESHOLD
)

// DefaultConfig returns the built-in weight table (convenience wrapper)
func DefaultConfig() *Config {
	return scoring.DefaultConfig()
}

// LoadConfig loads a weight table from a YAML file (convenience wrapper)
func LoadConfig(path string) (*Config, error) {
	return scoring.LoadConfig(path)
}

// DefaultRegistry returns a registry with the built-in detectors
// (convenience wrapper)
func DefaultRegistry() *Registry {
	return detector.DefaultRegistry()
}
