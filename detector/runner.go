// detector/runner.go
package detector

import (
	"context"
	"sync"
	"time"

	"github.com/hushtab/hushcore/internal/types"
)

// Runner executes registered detectors against evidence snapshots
type Runner struct {
	registry *Registry
	config   *Config
	logger   types.Logger
}

// NewRunner creates a new detector runner
func NewRunner(registry *Registry, config *Config, logger types.Logger) *Runner {
	if config == nil {
		config = DefaultConfig()
	}
	return &Runner{
		registry: registry,
		config:   config,
		logger:   logger,
	}
}

// RunOnSnapshot runs every registered detector against one snapshot and
// returns one Result per detector. Detector errors are recorded, never
// fatal: a failed predicate is treated as inactive and the scoring tick
// proceeds on the rest of the evidence.
func (r *Runner) RunOnSnapshot(ctx context.Context, snap Snapshot) []*Result {
	detectors := r.registry.List()
	results := make([]*Result, 0, len(detectors))

	for _, d := range detectors {
		select {
		case <-ctx.Done():
			return results
		default:
		}

		results = append(results, r.detectOne(ctx, d, snap))
	}

	return results
}

// ActiveSignals runs all detectors on a snapshot and returns the names
// of the signals that activated, plus the full results for diagnostics
func (r *Runner) ActiveSignals(ctx context.Context, snap Snapshot) ([]string, []*Result) {
	results := r.RunOnSnapshot(ctx, snap)

	var active []string
	for _, res := range results {
		if res.Error != nil {
			if r.logger != nil {
				r.logger.Printf("detector %s failed: %v", res.DetectorName, res.Error)
			}
			continue
		}
		if res.Activation != nil {
			active = append(active, res.Activation.Signal)
		}
	}

	return active, results
}

// RunBatch evaluates a batch of snapshots (typically one per ad window
// during replay) and returns the results per snapshot, in input order
func (r *Runner) RunBatch(ctx context.Context, snaps []Snapshot) [][]*Result {
	if !r.config.Parallel || len(snaps) < 2 {
		out := make([][]*Result, len(snaps))
		for i, snap := range snaps {
			out[i] = r.RunOnSnapshot(ctx, snap)
		}
		return out
	}

	type job struct {
		idx  int
		snap Snapshot
	}

	jobs := make(chan job, len(snaps))
	out := make([][]*Result, len(snaps))
	var mu sync.Mutex

	var wg sync.WaitGroup
	for i := 0; i < r.config.Workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := range jobs {
				select {
				case <-ctx.Done():
					return
				default:
				}

				results := r.RunOnSnapshot(ctx, j.snap)
				mu.Lock()
				out[j.idx] = results
				mu.Unlock()
			}
		}()
	}

	for i, snap := range snaps {
		jobs <- job{idx: i, snap: snap}
	}
	close(jobs)

	wg.Wait()
	return out
}

func (r *Runner) detectOne(ctx context.Context, d Detector, snap Snapshot) *Result {
	detectCtx, cancel := context.WithTimeout(ctx, r.config.Timeout)
	defer cancel()

	result := &Result{
		WindowStart:  snap.Start,
		WindowEnd:    snap.End,
		DetectorName: d.Name(),
		DetectedAt:   time.Now(),
	}

	activation, err := d.Detect(detectCtx, snap)
	result.Activation = activation
	result.Error = err

	return result
}

// Stats represents detection statistics over a replay
type Stats struct {
	TotalSnapshots int
	ActivatedCount int
	ActivationRate float64
	BySignal       map[string]int
}

// CalculateStats computes statistics from batch results
func CalculateStats(batches [][]*Result) *Stats {
	stats := &Stats{
		TotalSnapshots: len(batches),
		BySignal:       make(map[string]int),
	}

	for _, results := range batches {
		activated := false
		for _, res := range results {
			if res.Activation == nil {
				continue
			}
			activated = true
			stats.BySignal[res.Activation.Signal]++
		}
		if activated {
			stats.ActivatedCount++
		}
	}

	if stats.TotalSnapshots > 0 {
		stats.ActivationRate = float64(stats.ActivatedCount) / float64(stats.TotalSnapshots)
	}

	return stats
}
