package signal

import (
	"fmt"
	"math"

	"github.com/goccy/go-json"
)

// Kind identifies the source family of a signal event
type Kind string

const (
	KindNetwork     Kind = "network"
	KindPlayerState Kind = "player_state"
	KindDOM         Kind = "dom"
)

// IsValid reports whether the kind is one of the known families
func (k Kind) IsValid() bool {
	switch k {
	case KindNetwork, KindPlayerState, KindDOM:
		return true
	}
	return false
}

// Category classifies a network request's role in ad delivery
type Category string

const (
	CategoryAdDelivery Category = "ad_delivery"
	CategoryAnalytics  Category = "analytics"
	CategoryOther      Category = "other"
)

// Event is a single normalized observation from the capture layer.
// Timestamps are milliseconds since the session epoch. Events are immutable
// once buffered.
type Event struct {
	Timestamp int64 `json:"timestamp"`
	Kind      Kind  `json:"kind"`

	Network *NetworkSignal     `json:"network,omitempty"`
	Player  *PlayerStateSignal `json:"player,omitempty"`
	DOM     *DOMSignal         `json:"dom,omitempty"`

	// RawJSON stores the original JSON bytes for exact reproduction
	RawJSON []byte `json:"-"`
}

// NetworkSignal is the payload of a network-kind event. IsAdRelated and
// Category are upstream classifications, never computed here.
type NetworkSignal struct {
	URL         string   `json:"url"`
	IsAdRelated bool     `json:"isAdRelated"`
	Category    Category `json:"category,omitempty"`
}

// PlayerStateSignal is a sampled snapshot of the player element.
// Flags carries site-specific boolean bundles (e.g. NBC's isShortVideo,
// adOverlay, adTextFound, seekDisabled) as an open mapping so new site
// adapters can contribute flags without schema changes.
type PlayerStateSignal struct {
	CurrentTime float64         `json:"currentTime"`
	Duration    float64         `json:"duration"` // +Inf for live streams
	Flags       map[string]bool `json:"flags,omitempty"`
}

// DOMSignal is an already-classified boolean observation from the page,
// e.g. controls-hidden=true. The engine never touches the DOM itself.
type DOMSignal struct {
	Name  string `json:"name"`
	Value bool   `json:"value"`
}

// IsLive reports whether the player sample describes a live stream
func (p *PlayerStateSignal) IsLive() bool {
	return math.IsInf(p.Duration, 1)
}

// MarshalJSON writes live-stream durations the way players serialize
// them: Infinity is not valid JSON, so it goes out in the string form
// the capture layer already produces and tolerates on the way back in.
func (p *PlayerStateSignal) MarshalJSON() ([]byte, error) {
	type alias PlayerStateSignal
	if p.IsLive() {
		return json.Marshal(struct {
			*alias
			Duration string `json:"duration"`
		}{(*alias)(p), "Infinity"})
	}
	return json.Marshal((*alias)(p))
}

// MalformedEventError reports a single rejected event. The rest of the
// stream keeps flowing; callers log and move on.
type MalformedEventError struct {
	Reason string
	Event  Event
}

func (e *MalformedEventError) Error() string {
	return fmt.Sprintf("malformed event at t=%d: %s", e.Event.Timestamp, e.Reason)
}

// Validate checks the event against the normalized model
func (ev *Event) Validate() error {
	if ev.Timestamp <= 0 {
		return &MalformedEventError{Reason: "missing or non-positive timestamp", Event: *ev}
	}

	if !ev.Kind.IsValid() {
		return &MalformedEventError{Reason: fmt.Sprintf("unknown kind %q", ev.Kind), Event: *ev}
	}

	switch ev.Kind {
	case KindNetwork:
		if ev.Network == nil {
			return &MalformedEventError{Reason: "network event without network payload", Event: *ev}
		}
	case KindPlayerState:
		if ev.Player == nil {
			return &MalformedEventError{Reason: "player_state event without player payload", Event: *ev}
		}
	case KindDOM:
		if ev.DOM == nil || ev.DOM.Name == "" {
			return &MalformedEventError{Reason: "dom event without named payload", Event: *ev}
		}
	}

	return nil
}

// MarshalJSONL serializes the event to a single JSON line, preferring the
// original bytes when present
func (ev *Event) MarshalJSONL() ([]byte, error) {
	if len(ev.RawJSON) > 0 {
		return ev.RawJSON, nil
	}
	return json.Marshal(ev)
}
