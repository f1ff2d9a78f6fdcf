package scoring

import (
	"sort"
	"sync/atomic"
)

// Result is one confidence evaluation: the clamped score plus the names
// that contributed, so an operator can see exactly why the player muted.
type Result struct {
	Score    float64  `json:"score"`
	MaxScore float64  `json:"maxScore"`
	Active   []string `json:"activeSignals,omitempty"`
}

// Score sums the configured weights of the active signal names, clamped
// to [0, sum of all weights]. Pure: the same active set and table always
// produce the same result. Unknown and zero-weight names contribute
// nothing and are left out of Active: a weight of 0 makes a signal
// observe-only, and an observe-only signal never explains a mute.
func Score(active []string, cfg *Config) Result {
	max := cfg.MaxScore()

	var total float64
	var contributing []string

	for _, name := range active {
		w := cfg.Weight(name)
		if w == 0 {
			continue
		}
		total += w
		contributing = append(contributing, name)
	}

	if total < 0 {
		total = 0
	}
	if total > max {
		total = max
	}

	sort.Strings(contributing)

	return Result{
		Score:    total,
		MaxScore: max,
		Active:   contributing,
	}
}

// Table holds the active configuration and swaps it atomically on reload.
// Readers grab a snapshot pointer once per scoring pass; the invariant
// that weights never mutate mid-pass falls out of the swap-in-place.
type Table struct {
	cfg atomic.Pointer[Config]
}

// NewTable creates a table with the given initial configuration.
// An invalid initial configuration is a programming error and panics;
// use Reload for operator-supplied tables.
func NewTable(cfg *Config) *Table {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		panic(err)
	}

	t := &Table{}
	t.cfg.Store(cfg)
	return t
}

// Active returns the current configuration. The returned value must be
// treated as read-only.
func (t *Table) Active() *Config {
	return t.cfg.Load()
}

// Reload validates and installs a new configuration. On error the
// previous table stays active.
func (t *Table) Reload(cfg *Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}

	t.cfg.Store(cfg)
	return nil
}
