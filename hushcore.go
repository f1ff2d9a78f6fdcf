// Package hushcore is the detection core of the Hush Tab extension: it
// correlates network, player and DOM signals from a streaming session
// into a single ad-confidence score and drives the mute/unmute decision
// with hysteresis.
//
// Typical use:
//
//	engine, err := hushcore.New(
//		hushcore.WithConfigFile("hushcore.yaml"),
//		hushcore.WithOnTransition(func(tr hushcore.Transition) {
//			log.Println(tr.String())
//		}),
//	)
//	...
//	engine.Push(events...)
//	result := engine.Tick(time.Now().UnixMilli())
package hushcore

import (
	"context"
	"sync"
	"time"

	"github.com/hushtab/hushcore/detector"
	"github.com/hushtab/hushcore/mute"
	"github.com/hushtab/hushcore/scoring"
	"github.com/hushtab/hushcore/signal"
	"github.com/hushtab/hushcore/window"
)

// Engine wires the signal buffer, detectors, scorer, window builder and
// mute machine into one pipeline. Events arrive via Push from any
// goroutine; Tick advances the pipeline at evaluation cadence.
type Engine struct {
	mu sync.Mutex

	buffer   *signal.Buffer
	table    *scoring.Table
	registry *detector.Registry
	runner   *detector.Runner
	builder  *window.Builder
	machine  *mute.Machine

	tickInterval time.Duration
	lookback     time.Duration
	onTransition func(mute.Transition)
	logger       Logger

	lastTick int64
}

// TickResult is the outcome of one evaluation tick
type TickResult struct {
	Timestamp  int64              `json:"timestamp"`
	Score      scoring.Result     `json:"score"`
	Decision   mute.Decision      `json:"decision"`
	Transition *mute.Transition   `json:"transition,omitempty"`
	Window     *window.Window     `json:"window,omitempty"`
	Detectors  []*detector.Result `json:"detectors,omitempty"`
}

// New creates an engine with the given options
func New(opts ...Option) (*Engine, error) {
	cfg, err := newConfig(opts...)
	if err != nil {
		return nil, err
	}

	if cfg.scoring != nil {
		if err := cfg.scoring.Validate(); err != nil {
			return nil, err
		}
	}
	table := scoring.NewTable(cfg.scoring)

	e := &Engine{
		buffer:       signal.NewBuffer(cfg.logger),
		table:        table,
		registry:     cfg.registry,
		runner:       detector.NewRunner(cfg.registry, cfg.detector, cfg.logger),
		builder:      window.NewBuilder(cfg.logger),
		machine:      mute.NewMachine(),
		tickInterval: cfg.tickInterval,
		lookback:     cfg.lookback,
		onTransition: cfg.onTransition,
		logger:       cfg.logger,
	}

	return e, nil
}

// Push adds events to the buffer. Malformed events are rejected
// individually; the returned count is the number accepted and the error
// aggregates the rejections.
func (e *Engine) Push(events ...signal.Event) (int, error) {
	return e.buffer.Add(events...)
}

// Tick evaluates the signals observed over the lookback horizon ending
// at now (unix milliseconds) and advances the mute decision. Events
// older than the horizon are discarded from the buffer.
func (e *Engine) Tick(now int64) *TickResult {
	e.mu.Lock()
	defer e.mu.Unlock()

	cfg := e.table.Active()
	horizon := now - e.lookback.Milliseconds()
	e.buffer.DrainUntil(horizon - 1)

	snap := detector.Snapshot{
		Start:  horizon,
		End:    now,
		Events: e.buffer.EventsInRange(horizon, now),
		Config: cfg,
	}

	active, results := e.runner.ActiveSignals(context.Background(), snap)
	res := scoring.Score(active, cfg)

	closed := e.builder.Observe(now, res.Score, cfg)
	tr := e.machine.Step(now, res, cfg)
	if tr != nil {
		if e.logger != nil {
			e.logger.Println(tr.String())
		}
		if e.onTransition != nil {
			e.onTransition(*tr)
		}
	}

	e.lastTick = now
	return &TickResult{
		Timestamp:  now,
		Score:      res,
		Decision:   e.machine.Decision(),
		Transition: tr,
		Window:     closed,
		Detectors:  results,
	}
}

// Run evaluates on the configured tick interval until the context is
// cancelled. Transitions surface through the OnTransition callback.
func (e *Engine) Run(ctx context.Context) error {
	ticker := time.NewTicker(e.tickInterval)
	defer ticker.Stop()

	if e.logger != nil {
		e.logger.Printf("engine running (tick %s, lookback %s)", e.tickInterval, e.lookback)
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case t := <-ticker.C:
			e.Tick(t.UnixMilli())
		}
	}
}

// Decision returns the current mute decision
func (e *Engine) Decision() mute.Decision {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.machine.Decision()
}

// Transitions returns the audit trail of mute state changes
func (e *Engine) Transitions() []mute.Transition {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.machine.Transitions()
}

// Windows returns the closed ad windows built so far
func (e *Engine) Windows() []window.Window {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.builder.Windows()
}

// CurrentWindow returns the open ad window, or nil outside one
func (e *Engine) CurrentWindow() *window.Window {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.builder.Current()
}

// LastEvent returns the newest event still held in the lookback buffer,
// or nil when the buffer is empty
func (e *Engine) LastEvent() *signal.Event {
	return e.buffer.Last()
}

// Config returns the active weight table
func (e *Engine) Config() *scoring.Config {
	return e.table.Active()
}

// Reload atomically swaps in a new weight table. An invalid table is
// rejected and the previous one stays active.
func (e *Engine) Reload(cfg *scoring.Config) error {
	if err := e.table.Reload(cfg); err != nil {
		if e.logger != nil {
			e.logger.Printf("config reload rejected: %v", err)
		}
		return err
	}
	if e.logger != nil {
		e.logger.Println("config reloaded")
	}
	return nil
}

// ReloadFile loads a YAML weight table from disk and swaps it in
func (e *Engine) ReloadFile(path string) error {
	cfg, err := scoring.LoadConfig(path)
	if err != nil {
		return err
	}
	return e.Reload(cfg)
}

// Registry returns the detector registry, for listing and registering
// detectors at runtime
func (e *Engine) Registry() *detector.Registry {
	return e.registry
}

// Reset clears the buffer, window history and mute state. The session
// changed (navigation, channel change); the weight table survives.
func (e *Engine) Reset() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.buffer.Clear()
	e.builder.Reset()
	e.machine.Reset()
	e.lastTick = 0
}
