package window

import (
	"fmt"
)

// Window is a contiguous interval believed to contain ad playback.
// End is zero while the window is still open.
type Window struct {
	Start int64 `json:"start"`
	End   int64 `json:"end,omitempty"`

	// ConfidenceHistory records every (timestamp, score) pair evaluated
	// inside the window, ordered by timestamp.
	ConfidenceHistory []ConfidencePoint `json:"confidenceHistory,omitempty"`
}

// ConfidencePoint is one scored instant inside a window
type ConfidencePoint struct {
	Timestamp int64   `json:"timestamp"`
	Score     float64 `json:"score"`
}

// Open reports whether the window has no end yet
func (w *Window) Open() bool {
	return w.End == 0
}

// Duration returns the window length in milliseconds, 0 while open
func (w *Window) Duration() int64 {
	if w.Open() {
		return 0
	}
	return w.End - w.Start
}

// Contains reports whether ts falls inside the window (inclusive bounds;
// an open window contains everything at or after its start)
func (w *Window) Contains(ts int64) bool {
	if ts < w.Start {
		return false
	}
	return w.Open() || ts <= w.End
}

func (w *Window) String() string {
	if w.Open() {
		return fmt.Sprintf("[%d, open)", w.Start)
	}
	return fmt.Sprintf("[%d, %d]", w.Start, w.End)
}

// Marker is a manually placed ground-truth boundary annotation
type Marker struct {
	Timestamp int64  `json:"timestamp"`
	Event     string `json:"event,omitempty"`
}

// UnpairedMarkerError reports an odd-length marker sequence. Silently
// dropping the trailing marker would hide a full ad window from
// evaluation, so pairing fails loudly instead.
type UnpairedMarkerError struct {
	Count int
	Last  Marker
}

func (e *UnpairedMarkerError) Error() string {
	return fmt.Sprintf("unpaired marker: %d markers cannot form whole windows (trailing marker at t=%d)",
		e.Count, e.Last.Timestamp)
}

// PairMarkers groups boundary markers two-at-a-time into ground-truth
// windows: marker[2i] opens window i, marker[2i+1] closes it.
func PairMarkers(markers []Marker) ([]Window, error) {
	if len(markers)%2 != 0 {
		return nil, &UnpairedMarkerError{
			Count: len(markers),
			Last:  markers[len(markers)-1],
		}
	}

	windows := make([]Window, 0, len(markers)/2)
	for i := 0; i+1 < len(markers); i += 2 {
		start, end := markers[i].Timestamp, markers[i+1].Timestamp
		if end < start {
			return nil, fmt.Errorf("marker pair %d is reversed: end %d before start %d",
				i/2, end, start)
		}
		windows = append(windows, Window{Start: start, End: end})
	}

	return windows, nil
}

// Gaps returns the content intervals between consecutive windows, used
// for false-positive checks during evaluation
func Gaps(windows []Window) []Window {
	var gaps []Window
	for i := 1; i < len(windows); i++ {
		prev, next := windows[i-1], windows[i]
		if prev.Open() || next.Start <= prev.End {
			continue
		}
		gaps = append(gaps, Window{Start: prev.End, End: next.Start})
	}
	return gaps
}
