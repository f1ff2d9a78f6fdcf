package hushcore

import (
	"time"

	"github.com/hushtab/hushcore/detector"
	"github.com/hushtab/hushcore/internal/types"
	"github.com/hushtab/hushcore/mute"
	"github.com/hushtab/hushcore/scoring"
)

type config struct {
	scoring      *scoring.Config
	detector     *detector.Config
	registry     *detector.Registry
	tickInterval time.Duration
	lookback     time.Duration
	onTransition func(mute.Transition)
	logger       types.Logger
}

func newConfig(opts ...Option) (*config, error) {
	c := &config{
		registry:     detector.DefaultRegistry(),
		tickInterval: time.Duration(types.DEFAULT_TICK_MS) * time.Millisecond,
		lookback:     10 * time.Second,
	}
	for _, opt := range opts {
		if err := opt(c); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// Option configures the Engine
type Option func(*config) error

// WithConfig sets the initial weight table
func WithConfig(cfg *scoring.Config) Option {
	return func(c *config) error {
		c.scoring = cfg
		return nil
	}
}

// WithConfigFile loads the initial weight table from a YAML file
func WithConfigFile(path string) Option {
	return func(c *config) error {
		cfg, err := scoring.LoadConfig(path)
		if err != nil {
			return err
		}
		c.scoring = cfg
		return nil
	}
}

// WithRegistry replaces the built-in detector set
func WithRegistry(registry *detector.Registry) Option {
	return func(c *config) error {
		c.registry = registry
		return nil
	}
}

// WithDetectorConfig sets detector execution parameters (timeout,
// parallelism)
func WithDetectorConfig(cfg *detector.Config) Option {
	return func(c *config) error {
		c.detector = cfg
		return nil
	}
}

// WithTickInterval sets the evaluation cadence used by Run
func WithTickInterval(d time.Duration) Option {
	return func(c *config) error {
		c.tickInterval = d
		return nil
	}
}

// WithLookback sets the sliding horizon a tick evaluates over
func WithLookback(d time.Duration) Option {
	return func(c *config) error {
		c.lookback = d
		return nil
	}
}

// WithOnTransition registers a callback invoked on every mute state
// change. The callback runs on the ticking goroutine; keep it short.
func WithOnTransition(fn func(mute.Transition)) Option {
	return func(c *config) error {
		c.onTransition = fn
		return nil
	}
}

// WithLogger sets a custom logger
func WithLogger(logger types.Logger) Option {
	return func(c *config) error {
		c.logger = logger
		return nil
	}
}
