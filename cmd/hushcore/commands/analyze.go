package commands

import (
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/goccy/go-json"

	hushcore "github.com/hushtab/hushcore"
	"github.com/hushtab/hushcore/internal/diagnostic"
	"github.com/hushtab/hushcore/mute"
	"github.com/hushtab/hushcore/window"
)

// AnalyzeCommand replays a recorded session through the detection
// pipeline and prints the resulting timeline
func AnalyzeCommand(args []string) error {
	fs := flag.NewFlagSet("analyze", flag.ExitOnError)
	configPath := fs.String("config", "", "weight table YAML (default: built-in)")
	tickMS := fs.Int64("tick", 1000, "evaluation cadence in milliseconds")
	jsonOut := fs.Bool("json", false, "emit JSON instead of a timeline")
	savePath := fs.String("save", "", "export the normalized event stream as JSONL (.zst to compress)")
	verbose := fs.Bool("v", false, "print every tick, not just transitions")

	if err := fs.Parse(args); err != nil {
		return err
	}

	if fs.NArg() < 1 {
		return fmt.Errorf("usage: hushcore analyze <bundle.json[.zst]> [options]")
	}
	path := fs.Arg(0)

	cfg, err := loadWeights(*configPath)
	if err != nil {
		return err
	}

	b, err := diagnostic.Load(path)
	if err != nil {
		return fmt.Errorf("failed to load bundle: %w", err)
	}

	events := b.Events()
	if len(events) == 0 {
		return fmt.Errorf("bundle contains no usable events")
	}

	if *savePath != "" {
		if err := diagnostic.WriteEvents(*savePath, events); err != nil {
			return err
		}
		fmt.Fprintf(os.Stderr, "Exported %d events to %s\n", len(events), *savePath)
	}

	var logger hushcore.Logger = &stderrLogger{}
	if *jsonOut {
		logger = &quietLogger{}
	}

	engine, err := hushcore.New(
		hushcore.WithConfig(cfg),
		hushcore.WithLogger(logger),
		hushcore.WithLookback(time.Duration(*tickMS)*time.Millisecond),
	)
	if err != nil {
		return err
	}

	if _, err := engine.Push(events...); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: %v\n", err)
	}

	first := events[0].Timestamp
	last := events[len(events)-1].Timestamp

	if !*jsonOut {
		fmt.Printf("Analyzing %s\n", path)
		fmt.Printf("  Events:   %d\n", len(events))
		fmt.Printf("  Span:     %s - %s\n", formatMillis(first), formatMillis(last))
		fmt.Printf("  Weights:  max score %g, mute at %g, unmute below %g\n\n",
			cfg.MaxScore(), cfg.MuteThreshold, cfg.UnmuteThreshold)
	}

	var ticks []*hushcore.TickResult
	for ts := first; ts <= last+*tickMS; ts += *tickMS {
		res := engine.Tick(ts)
		ticks = append(ticks, res)

		if *jsonOut {
			continue
		}
		if res.Transition != nil {
			printTickRow(res, "<- "+strings.ToUpper(string(res.Transition.To)))
		} else if *verbose {
			printTickRow(res, "")
		}
	}

	if *jsonOut {
		return json.NewEncoder(os.Stdout).Encode(map[string]interface{}{
			"events":      len(events),
			"transitions": engine.Transitions(),
			"windows":     engine.Windows(),
			"markers":     b.Markers(),
		})
	}

	printAnalysisSummary(engine, b.Markers())
	return nil
}

func printTickRow(res *hushcore.TickResult, note string) {
	bar := scoreBar(res.Score.Score, res.Score.MaxScore)
	fmt.Printf("  %s  %6.1f  %s  %-40s %s\n",
		formatMillis(res.Timestamp), res.Score.Score, bar,
		strings.Join(res.Score.Active, ","), note)
}

// scoreBar renders the confidence as a fixed-width gauge
func scoreBar(score, max float64) string {
	const width = 20
	filled := 0
	if max > 0 {
		filled = int(score / max * width)
	}
	if filled > width {
		filled = width
	}
	return "[" + strings.Repeat("#", filled) + strings.Repeat(".", width-filled) + "]"
}

func printAnalysisSummary(engine *hushcore.Engine, markers []window.Marker) {
	transitions := engine.Transitions()
	windows := engine.Windows()

	fmt.Printf("\nSummary:\n")
	fmt.Printf("  Transitions:  %d\n", len(transitions))
	fmt.Printf("  Ad windows:   %d", len(windows))
	if cur := engine.CurrentWindow(); cur != nil {
		fmt.Printf(" (+1 still open at end of session)")
	}
	fmt.Printf("\n")

	for i, w := range windows {
		fmt.Printf("    %d. %s - %s (%.1fs)\n", i+1,
			formatMillis(w.Start), formatMillis(w.End),
			float64(w.Duration())/1000)
	}

	totalMuted := int64(0)
	var mutedAt int64 = -1
	for _, tr := range transitions {
		if tr.To == mute.Muted {
			mutedAt = tr.Timestamp
		} else if mutedAt >= 0 {
			totalMuted += tr.Timestamp - mutedAt
			mutedAt = -1
		}
	}
	fmt.Printf("  Muted time:   %.1fs\n", float64(totalMuted)/1000)

	if len(markers) > 0 {
		fmt.Printf("  Markers:      %d", len(markers))
		if truth, err := window.PairMarkers(markers); err == nil {
			fmt.Printf(" (%d annotated ad windows; run 'hushcore evaluate' to grade)", len(truth))
		}
		fmt.Printf("\n")
	}
}
