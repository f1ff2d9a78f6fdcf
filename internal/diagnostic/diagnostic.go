// Package diagnostic loads recorded Hush Tab session bundles.
//
// The bundle format is the extension's de facto exchange format for
// recorded sessions: a JSON document with analysis.userMarkers[],
// playerState[] and networkRequests[]. Bundles compressed with zstd
// (.zst extension) are transparently decompressed.
package diagnostic

import (
	"bytes"
	"fmt"
	"io"
	"math"
	"os"
	"sort"
	"strings"

	"github.com/goccy/go-json"

	"github.com/hushtab/hushcore/signal"
	"github.com/hushtab/hushcore/window"
)

// Bundle is one recorded session
type Bundle struct {
	Analysis        Analysis         `json:"analysis"`
	PlayerStates    []PlayerState    `json:"playerState"`
	NetworkRequests []NetworkRequest `json:"networkRequests"`
}

// Analysis carries the manual annotations recorded with the session
type Analysis struct {
	UserMarkers []window.Marker `json:"userMarkers"`
}

// PlayerState is one sampled player snapshot from the bundle
type PlayerState struct {
	Timestamp   int64           `json:"timestamp"`
	CurrentTime float64         `json:"currentTime"`
	Duration    Seconds         `json:"duration"`
	NBCPlayer   map[string]bool `json:"nbcPlayer,omitempty"`
	DOMFlags    map[string]bool `json:"domFlags,omitempty"`
}

// NetworkRequest is one captured outbound request
type NetworkRequest struct {
	Timestamp   int64  `json:"timestamp"`
	URL         string `json:"url"`
	IsAdRelated bool   `json:"isAdRelated"`
	Category    string `json:"category,omitempty"`
}

// Seconds is a duration in seconds that tolerates the values players
// actually produce: a number, null, or the string "Infinity" (live
// streams serialize Infinity as either, depending on the capture path).
type Seconds float64

func (s *Seconds) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)

	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*s = Seconds(math.Inf(1))
		return nil
	}

	if data[0] == '"' {
		var str string
		if err := json.Unmarshal(data, &str); err != nil {
			return err
		}
		if str == "Infinity" || str == "inf" {
			*s = Seconds(math.Inf(1))
			return nil
		}
		return fmt.Errorf("unexpected duration string %q", str)
	}

	var f float64
	if err := json.Unmarshal(data, &f); err != nil {
		return err
	}
	*s = Seconds(f)
	return nil
}

// Load reads a diagnostic bundle from disk. Compressed bundles are
// decompressed with a streaming reader so a large session never needs
// both representations in memory at once.
func Load(path string) (*Bundle, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open bundle: %w", err)
	}
	defer f.Close()

	var r io.Reader = f
	if strings.HasSuffix(path, ".zst") {
		zr := NewStreamingReader(f)
		defer zr.Release()
		r = zr
	}

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read bundle: %w", err)
	}

	return Parse(data)
}

// WriteEvents saves a normalized event stream as JSONL, one event per
// line, compressed when path ends in .zst. This is the exchange format
// between the analyze export and downstream tooling; events ingested
// with original bytes attached round-trip exactly.
func WriteEvents(path string, events []signal.Event) error {
	var buf bytes.Buffer
	for i := range events {
		line, err := events[i].MarshalJSONL()
		if err != nil {
			return fmt.Errorf("failed to encode event at t=%d: %w", events[i].Timestamp, err)
		}
		buf.Write(line)
		buf.WriteByte('\n')
	}

	data := buf.Bytes()
	if strings.HasSuffix(path, ".zst") {
		data = Compress(data)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write events: %w", err)
	}
	return nil
}

// Parse decodes a diagnostic bundle from raw JSON
func Parse(data []byte) (*Bundle, error) {
	var b Bundle
	if err := json.Unmarshal(data, &b); err != nil {
		return nil, fmt.Errorf("failed to parse bundle: %w", err)
	}
	return &b, nil
}

// Events converts the bundle into the normalized signal event stream,
// ordered by timestamp. Network request categories, when absent from the
// recording, are derived from the same vendor cues the capture layer
// uses (MediaTailor segments are ad delivery, Adobe beacons analytics).
func (b *Bundle) Events() []signal.Event {
	events := make([]signal.Event, 0,
		len(b.PlayerStates)+len(b.NetworkRequests))

	for _, ps := range b.PlayerStates {
		flags := make(map[string]bool, len(ps.NBCPlayer))
		for name, v := range ps.NBCPlayer {
			flags[name] = v
		}

		events = append(events, signal.Event{
			Timestamp: ps.Timestamp,
			Kind:      signal.KindPlayerState,
			Player: &signal.PlayerStateSignal{
				CurrentTime: ps.CurrentTime,
				Duration:    float64(ps.Duration),
				Flags:       flags,
			},
		})

		// DOM observations ride along with player samples in newer
		// recordings; surface each as its own classified event
		for name, v := range ps.DOMFlags {
			events = append(events, signal.Event{
				Timestamp: ps.Timestamp,
				Kind:      signal.KindDOM,
				DOM:       &signal.DOMSignal{Name: name, Value: v},
			})
		}
	}

	for _, req := range b.NetworkRequests {
		events = append(events, signal.Event{
			Timestamp: req.Timestamp,
			Kind:      signal.KindNetwork,
			Network: &signal.NetworkSignal{
				URL:         req.URL,
				IsAdRelated: req.IsAdRelated,
				Category:    req.category(),
			},
		})
	}

	sortEvents(events)
	return events
}

func (req *NetworkRequest) category() signal.Category {
	if req.Category != "" {
		return signal.Category(req.Category)
	}

	switch {
	case strings.Contains(req.URL, "mediatailor"):
		return signal.CategoryAdDelivery
	case strings.Contains(req.URL, "omtrdc.net"):
		return signal.CategoryAnalytics
	default:
		return signal.CategoryOther
	}
}

// Markers returns the session's ground-truth boundary markers
func (b *Bundle) Markers() []window.Marker {
	return b.Analysis.UserMarkers
}

func sortEvents(events []signal.Event) {
	// Stable so events sharing a timestamp keep their recording order
	sort.SliceStable(events, func(i, j int) bool {
		return events[i].Timestamp < events[j].Timestamp
	})
}
