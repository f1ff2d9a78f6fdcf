// Benchmark harness for the detection pipeline: replays a diagnostic
// bundle (or a synthetic session) through the engine and reports ticks
// per second. Run directly: go run scripts/benchmark-detector.go [bundle]
package main

import (
	"fmt"
	"os"
	"strconv"
	"time"

	hushcore "github.com/hushtab/hushcore"
	"github.com/hushtab/hushcore/internal/diagnostic"
	"github.com/hushtab/hushcore/signal"
)

func main() {
	rounds := 10
	if len(os.Args) > 2 {
		rounds, _ = strconv.Atoi(os.Args[2])
	}

	var events []signal.Event
	if len(os.Args) > 1 {
		b, err := diagnostic.Load(os.Args[1])
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		events = b.Events()
		fmt.Printf("Loaded %d events from %s\n", len(events), os.Args[1])
	} else {
		events = syntheticSession(3600)
		fmt.Printf("Generated %d synthetic events (1h session)\n", len(events))
	}

	if len(events) == 0 {
		fmt.Fprintln(os.Stderr, "no events to benchmark")
		os.Exit(1)
	}

	first := events[0].Timestamp
	last := events[len(events)-1].Timestamp
	totalTicks := 0

	start := time.Now()
	for r := 0; r < rounds; r++ {
		engine, err := hushcore.New()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		engine.Push(events...)
		for ts := first; ts <= last; ts += 1000 {
			engine.Tick(ts)
			totalTicks++
		}
	}
	elapsed := time.Since(start)

	fmt.Printf("\nResults:\n")
	fmt.Printf("  Rounds:     %d\n", rounds)
	fmt.Printf("  Ticks:      %d\n", totalTicks)
	fmt.Printf("  Elapsed:    %s\n", elapsed)
	fmt.Printf("  Throughput: %.0f ticks/sec\n", float64(totalTicks)/elapsed.Seconds())
}

// syntheticSession builds durationSec of alternating content and ad
// breaks, one player sample and a few network requests per second
func syntheticSession(durationSec int) []signal.Event {
	var events []signal.Event
	for s := 1; s <= durationSec; s++ {
		ts := int64(s) * 1000
		inAdBreak := s%300 < 30 // 30s break every 5 minutes

		events = append(events, signal.Event{
			Timestamp: ts,
			Kind:      signal.KindPlayerState,
			Player: &signal.PlayerStateSignal{
				CurrentTime: float64(s),
				Duration:    2700,
			},
		})

		if inAdBreak {
			events = append(events,
				signal.Event{
					Timestamp: ts,
					Kind:      signal.KindNetwork,
					Network: &signal.NetworkSignal{
						URL:         "https://cdn.example.net/mediatailor/seg.ts",
						IsAdRelated: true,
						Category:    signal.CategoryAdDelivery,
					},
				},
				signal.Event{
					Timestamp: ts,
					Kind:      signal.KindDOM,
					DOM:       &signal.DOMSignal{Name: "controls-hidden", Value: true},
				},
			)
		} else {
			events = append(events, signal.Event{
				Timestamp: ts,
				Kind:      signal.KindNetwork,
				Network: &signal.NetworkSignal{
					URL:      "https://metrics.example.net/b/ss/beacon",
					Category: signal.CategoryAnalytics,
				},
			})
		}
	}
	return events
}
