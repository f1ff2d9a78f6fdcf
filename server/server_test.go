package server_test

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	hushcore "github.com/hushtab/hushcore"
	"github.com/hushtab/hushcore/server"
	"github.com/hushtab/hushcore/signal"
)

type testLogger struct {
	t *testing.T
}

func (l *testLogger) Printf(format string, v ...interface{}) {
	l.t.Logf(format, v...)
}

func (l *testLogger) Println(v ...interface{}) {
	l.t.Log(v...)
}

func setupTestServer(t *testing.T, enableWebSocket bool) (http.Handler, *server.Server, *hushcore.Engine) {
	engine, err := hushcore.New(hushcore.WithLogger(&testLogger{t}))
	if err != nil {
		t.Fatalf("failed to create engine: %v", err)
	}

	config := &server.Config{
		Addr:            ":8080",
		TickInterval:    time.Second,
		EnableWebSocket: enableWebSocket,
		Version:         "test",
	}

	srv := server.New(engine, config)
	return srv.Handler(), srv, engine
}

func adEvents(ts int64) []signal.Event {
	return []signal.Event{
		{
			Timestamp: ts,
			Kind:      signal.KindNetwork,
			Network: &signal.NetworkSignal{
				URL:         "https://cdn.example.net/mediatailor/seg-0.ts",
				IsAdRelated: true,
				Category:    signal.CategoryAdDelivery,
			},
		},
		{
			Timestamp: ts,
			Kind:      signal.KindDOM,
			DOM:       &signal.DOMSignal{Name: "controls-hidden", Value: true},
		},
	}
}

// ====================================================================================
// HTTP ENDPOINT TESTS
// ====================================================================================

func TestServerHTTPEndpoints(t *testing.T) {
	handler, _, engine := setupTestServer(t, true)

	ts := httptest.NewServer(handler)
	defer ts.Close()

	t.Run("RootEndpoint", func(t *testing.T) {
		resp, err := http.Get(ts.URL + "/")
		if err != nil {
			t.Fatalf("GET / failed: %v", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode != 200 {
			t.Errorf("expected 200, got %d", resp.StatusCode)
		}

		body, _ := io.ReadAll(resp.Body)
		bodyStr := string(body)

		if !strings.Contains(bodyStr, "hushcore") {
			t.Error("root page missing service name")
		}
		if !strings.Contains(bodyStr, "/ws") {
			t.Error("root page should advertise the WebSocket endpoint")
		}
	})

	t.Run("Health", func(t *testing.T) {
		resp, err := http.Get(ts.URL + "/health")
		if err != nil {
			t.Fatalf("GET /health failed: %v", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode != 200 {
			t.Errorf("expected 200, got %d", resp.StatusCode)
		}
	})

	t.Run("Status", func(t *testing.T) {
		if _, err := engine.Push(signal.Event{
			Timestamp: 7000,
			Kind:      signal.KindDOM,
			DOM:       &signal.DOMSignal{Name: "controls-hidden", Value: true},
		}); err != nil {
			t.Fatalf("push failed: %v", err)
		}

		resp, err := http.Get(ts.URL + "/status")
		if err != nil {
			t.Fatalf("GET /status failed: %v", err)
		}
		defer resp.Body.Close()

		var status server.StatusResponse
		if err := json.NewDecoder(resp.Body).Decode(&status); err != nil {
			t.Fatalf("failed to decode status: %v", err)
		}

		if status.Server.Version != "test" {
			t.Errorf("expected version test, got %s", status.Server.Version)
		}
		if status.Decision.State != hushcore.Unmuted {
			t.Errorf("expected UNMUTED, got %s", status.Decision.State)
		}
		if status.Detection.MuteThreshold != hushcore.DEFAULT_MUTE_THRESHOLD {
			t.Errorf("unexpected mute threshold %g", status.Detection.MuteThreshold)
		}
		if len(status.Detection.Detectors) != 5 {
			t.Errorf("expected 5 detectors, got %v", status.Detection.Detectors)
		}
		if status.Detection.LastEventMillis != 7000 {
			t.Errorf("expected last event at 7000, got %d", status.Detection.LastEventMillis)
		}
	})

	t.Run("Decision", func(t *testing.T) {
		resp, err := http.Get(ts.URL + "/decision")
		if err != nil {
			t.Fatalf("GET /decision failed: %v", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode != 200 {
			t.Errorf("expected 200, got %d", resp.StatusCode)
		}
	})

	t.Run("Detectors", func(t *testing.T) {
		resp, err := http.Get(ts.URL + "/detectors")
		if err != nil {
			t.Fatalf("GET /detectors failed: %v", err)
		}
		defer resp.Body.Close()

		var listing struct {
			Detectors []server.DetectorInfo `json:"detectors"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&listing); err != nil {
			t.Fatalf("failed to decode detectors: %v", err)
		}
		if len(listing.Detectors) != 5 {
			t.Errorf("expected 5 detectors, got %d", len(listing.Detectors))
		}
		for _, d := range listing.Detectors {
			if d.Name == "" || d.Description == "" {
				t.Errorf("detector listing incomplete: %+v", d)
			}
		}
	})

	t.Run("NotFound", func(t *testing.T) {
		resp, err := http.Get(ts.URL + "/no-such-path")
		if err != nil {
			t.Fatalf("GET failed: %v", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode != 404 {
			t.Errorf("expected 404, got %d", resp.StatusCode)
		}
	})

	t.Run("CORSPreflight", func(t *testing.T) {
		req, _ := http.NewRequest("OPTIONS", ts.URL+"/events", nil)
		req.Header.Set("Origin", "chrome-extension://abcdef")
		req.Header.Set("Access-Control-Request-Method", "POST")

		resp, err := http.DefaultClient.Do(req)
		if err != nil {
			t.Fatalf("OPTIONS failed: %v", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode != 204 {
			t.Errorf("expected 204, got %d", resp.StatusCode)
		}
		if resp.Header.Get("Access-Control-Allow-Origin") != "*" {
			t.Error("missing CORS allow-origin header")
		}
	})
}

// ====================================================================================
// CONFIG RELOAD TESTS
// ====================================================================================

func TestServerConfigReload(t *testing.T) {
	handler, _, engine := setupTestServer(t, false)

	ts := httptest.NewServer(handler)
	defer ts.Close()

	t.Run("ValidReload", func(t *testing.T) {
		body := []byte(`{"muteThreshold": 60, "unmuteThreshold": 30}`)
		resp, err := http.Post(ts.URL+"/config", "application/json", bytes.NewReader(body))
		if err != nil {
			t.Fatalf("POST /config failed: %v", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode != 200 {
			t.Fatalf("expected 200, got %d", resp.StatusCode)
		}
		if engine.Config().MuteThreshold != 60 {
			t.Errorf("expected mute threshold 60, got %g", engine.Config().MuteThreshold)
		}
	})

	t.Run("InvalidReloadKeepsPrevious", func(t *testing.T) {
		body := []byte(`{"muteThreshold": 10, "unmuteThreshold": 30}`)
		resp, err := http.Post(ts.URL+"/config", "application/json", bytes.NewReader(body))
		if err != nil {
			t.Fatalf("POST /config failed: %v", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode != 422 {
			t.Fatalf("expected 422, got %d", resp.StatusCode)
		}
		if engine.Config().MuteThreshold != 60 {
			t.Errorf("previous table should survive, got threshold %g", engine.Config().MuteThreshold)
		}
	})

	t.Run("MalformedJSON", func(t *testing.T) {
		resp, err := http.Post(ts.URL+"/config", "application/json", strings.NewReader("{not json"))
		if err != nil {
			t.Fatalf("POST /config failed: %v", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode != 400 {
			t.Errorf("expected 400, got %d", resp.StatusCode)
		}
	})
}

// ====================================================================================
// EVENT INGEST TESTS
// ====================================================================================

func TestServerEventIngest(t *testing.T) {
	handler, srv, _ := setupTestServer(t, false)

	ts := httptest.NewServer(handler)
	defer ts.Close()

	t.Run("AcceptBatch", func(t *testing.T) {
		body, _ := json.Marshal(adEvents(1000))
		resp, err := http.Post(ts.URL+"/events", "application/json", bytes.NewReader(body))
		if err != nil {
			t.Fatalf("POST /events failed: %v", err)
		}
		defer resp.Body.Close()

		var result server.EventsResponse
		if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
			t.Fatalf("failed to decode response: %v", err)
		}
		if result.Accepted != 2 || result.Rejected != 0 {
			t.Errorf("expected 2 accepted, got %+v", result)
		}

		// the ingested ad evidence should mute on the next tick
		res := srv.Tick(1000)
		if res.Decision.State != hushcore.Muted {
			t.Errorf("expected MUTED after ingest, got %s", res.Decision.State)
		}
	})

	t.Run("PartialBatch", func(t *testing.T) {
		events := []signal.Event{
			{Timestamp: 2000, Kind: signal.KindDOM, DOM: &signal.DOMSignal{Name: "controls-hidden", Value: true}},
			{Timestamp: 2000, Kind: signal.KindNetwork}, // missing payload
		}
		body, _ := json.Marshal(events)
		resp, err := http.Post(ts.URL+"/events", "application/json", bytes.NewReader(body))
		if err != nil {
			t.Fatalf("POST /events failed: %v", err)
		}
		defer resp.Body.Close()

		var result server.EventsResponse
		if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
			t.Fatalf("failed to decode response: %v", err)
		}
		if result.Accepted != 1 || result.Rejected != 1 {
			t.Errorf("expected 1 accepted 1 rejected, got %+v", result)
		}
		if result.Error == "" {
			t.Error("expected the rejection to be reported")
		}
	})

	t.Run("AllMalformed", func(t *testing.T) {
		body := []byte(`[{"timestamp": 0, "kind": "bogus"}]`)
		resp, err := http.Post(ts.URL+"/events", "application/json", bytes.NewReader(body))
		if err != nil {
			t.Fatalf("POST /events failed: %v", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode != 422 {
			t.Errorf("expected 422, got %d", resp.StatusCode)
		}
	})

	t.Run("Reset", func(t *testing.T) {
		resp, err := http.Post(ts.URL+"/reset", "application/json", nil)
		if err != nil {
			t.Fatalf("POST /reset failed: %v", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode != 200 {
			t.Fatalf("expected 200, got %d", resp.StatusCode)
		}

		res := srv.Tick(3000)
		if res.Decision.State != hushcore.Unmuted {
			t.Errorf("expected UNMUTED after reset, got %s", res.Decision.State)
		}
	})
}

// ====================================================================================
// WEBSOCKET TESTS
// ====================================================================================

func TestServerWebSocket(t *testing.T) {
	handler, srv, _ := setupTestServer(t, true)

	ts := httptest.NewServer(handler)
	defer ts.Close()

	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("WebSocket dial failed: %v", err)
	}
	defer conn.Close()

	// send captured ad evidence over the socket
	events, _ := json.Marshal(adEvents(1000))
	msg := []byte(`{"type":"events","events":` + string(events) + `}`)
	if err := conn.WriteMessage(websocket.TextMessage, msg); err != nil {
		t.Fatalf("WebSocket write failed: %v", err)
	}

	// the reader goroutine ingests asynchronously; tick until the
	// evidence lands and the mute decision comes back on the socket
	type tickMsg struct {
		Type string `json:"type"`
		Tick struct {
			Score float64 `json:"score"`
			State string  `json:"state"`
		} `json:"tick"`
	}

	deadline := time.Now().Add(5 * time.Second)
	muted := false
	for !muted && time.Now().Before(deadline) {
		srv.Tick(1000)

		conn.SetReadDeadline(time.Now().Add(time.Second))
		_, data, err := conn.ReadMessage()
		if err != nil {
			t.Fatalf("WebSocket read failed: %v", err)
		}

		var m tickMsg
		if err := json.Unmarshal(data, &m); err != nil {
			t.Fatalf("failed to decode push: %v", err)
		}
		if m.Type != "tick" {
			t.Fatalf("unexpected message type %q", m.Type)
		}
		if m.Tick.State == string(hushcore.Muted) {
			if m.Tick.Score < hushcore.DEFAULT_MUTE_THRESHOLD {
				t.Errorf("muted with score %g below threshold", m.Tick.Score)
			}
			muted = true
		}
	}

	if !muted {
		t.Fatal("never saw a MUTED push on the socket")
	}
}
