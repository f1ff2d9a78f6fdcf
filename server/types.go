package server

import (
	"time"

	"github.com/goccy/go-json"

	"github.com/hushtab/hushcore/mute"
	"github.com/hushtab/hushcore/window"
)

// Config configures the server
type Config struct {
	Addr            string
	TickInterval    time.Duration
	EnableWebSocket bool
	Version         string
}

// StatusResponse is the /status endpoint response
type StatusResponse struct {
	Server    ServerStatus  `json:"server"`
	Decision  mute.Decision `json:"decision"`
	Detection EngineStatus  `json:"detection"`
}

// ServerStatus contains server information
type ServerStatus struct {
	Version             string `json:"version"`
	WebSocketEnabled    bool   `json:"websocket_enabled"`
	TickIntervalSeconds int    `json:"tick_interval_seconds"`
	UptimeSeconds       int    `json:"uptime_seconds"`
}

// EngineStatus summarizes the detection pipeline
type EngineStatus struct {
	MuteThreshold   float64        `json:"mute_threshold"`
	UnmuteThreshold float64        `json:"unmute_threshold"`
	MaxScore        float64        `json:"max_score"`
	Detectors       []string       `json:"detectors"`
	ClosedWindows   int            `json:"closed_windows"`
	CurrentWindow   *window.Window `json:"current_window,omitempty"`
	Transitions     int            `json:"transitions"`
	LastEventMillis int64          `json:"last_event_ms,omitempty"`
}

// DetectorInfo is one entry in the /detectors listing
type DetectorInfo struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Version     string `json:"version"`
}

// EventsResponse reports the outcome of an ingest batch
type EventsResponse struct {
	Accepted int    `json:"accepted"`
	Rejected int    `json:"rejected"`
	Error    string `json:"error,omitempty"`
}

// wsInbound is one message from the extension over the socket
type wsInbound struct {
	Type   string            `json:"type"`
	Events []json.RawMessage `json:"events,omitempty"`
}

// wsOutbound wraps a tick update pushed to the extension
type wsOutbound struct {
	Type string  `json:"type"`
	Tick *wsTick `json:"tick,omitempty"`
	Err  string  `json:"error,omitempty"`
}

// wsTick strips per-detector results from socket pushes; the extension
// only needs the score and the decision
type wsTick struct {
	Timestamp  int64            `json:"timestamp"`
	Score      float64          `json:"score"`
	MaxScore   float64          `json:"max_score"`
	Active     []string         `json:"active_signals"`
	State      mute.State       `json:"state"`
	Transition *mute.Transition `json:"transition,omitempty"`
	Window     *window.Window   `json:"closed_window,omitempty"`
}
