package server

import (
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/goccy/go-json"

	"github.com/hushtab/hushcore/scoring"
	"github.com/hushtab/hushcore/signal"
)

func (s *Server) handleRoot() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		endpoints := map[string]string{
			"health":      getBaseURL(r) + "/health",
			"status":      getBaseURL(r) + "/status",
			"decision":    getBaseURL(r) + "/decision",
			"config":      getBaseURL(r) + "/config",
			"windows":     getBaseURL(r) + "/windows",
			"transitions": getBaseURL(r) + "/transitions",
			"detectors":   getBaseURL(r) + "/detectors",
			"events":      getBaseURL(r) + "/events",
		}
		if s.config.EnableWebSocket {
			endpoints["ws"] = getWSURL(r) + "/ws"
		}

		sendJSON(w, 200, map[string]interface{}{
			"service":   "hushcore",
			"version":   s.config.Version,
			"endpoints": endpoints,
		})
	}
}

func (s *Server) handleHealth() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sendJSON(w, 200, map[string]string{"status": "ok"})
	}
}

func (s *Server) handleStatus() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cfg := s.engine.Config()

		var lastEventMillis int64
		if ev := s.engine.LastEvent(); ev != nil {
			lastEventMillis = ev.Timestamp
		}

		resp := StatusResponse{
			Server: ServerStatus{
				Version:             s.config.Version,
				WebSocketEnabled:    s.config.EnableWebSocket,
				TickIntervalSeconds: int(s.config.TickInterval / time.Second),
				UptimeSeconds:       int(time.Since(s.GetStartTime()).Seconds()),
			},
			Decision: s.engine.Decision(),
			Detection: EngineStatus{
				MuteThreshold:   cfg.MuteThreshold,
				UnmuteThreshold: cfg.UnmuteThreshold,
				MaxScore:        cfg.MaxScore(),
				Detectors:       s.engine.Registry().Names(),
				ClosedWindows:   len(s.engine.Windows()),
				CurrentWindow:   s.engine.CurrentWindow(),
				Transitions:     len(s.engine.Transitions()),
				LastEventMillis: lastEventMillis,
			},
		}

		sendJSON(w, 200, resp)
	}
}

func (s *Server) handleDecision() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sendJSON(w, 200, s.engine.Decision())
	}
}

func (s *Server) handleConfigGet() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sendJSON(w, 200, s.engine.Config())
	}
}

// handleConfigReload swaps the weight table. A table that fails
// validation is rejected with 422 and the running table is untouched.
func (s *Server) handleConfigReload() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(io.LimitReader(r.Body, 1<<20))
		if err != nil {
			sendJSON(w, 400, map[string]string{"error": "failed to read body"})
			return
		}

		cfg := scoring.DefaultConfig()
		if err := json.Unmarshal(body, cfg); err != nil {
			sendJSON(w, 400, map[string]string{"error": fmt.Sprintf("invalid config JSON: %v", err)})
			return
		}

		if err := s.engine.Reload(cfg); err != nil {
			sendJSON(w, 422, map[string]string{"error": err.Error()})
			return
		}

		sendJSON(w, 200, map[string]interface{}{
			"status":    "reloaded",
			"max_score": cfg.MaxScore(),
		})
	}
}

func (s *Server) handleWindows() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sendJSON(w, 200, map[string]interface{}{
			"windows": s.engine.Windows(),
			"current": s.engine.CurrentWindow(),
		})
	}
}

func (s *Server) handleTransitions() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sendJSON(w, 200, map[string]interface{}{
			"transitions": s.engine.Transitions(),
		})
	}
}

func (s *Server) handleDetectors() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		detectors := s.engine.Registry().List()
		infos := make([]DetectorInfo, 0, len(detectors))
		for _, d := range detectors {
			infos = append(infos, DetectorInfo{
				Name:        d.Name(),
				Description: d.Description(),
				Version:     d.Version(),
			})
		}
		sendJSON(w, 200, map[string]interface{}{"detectors": infos})
	}
}

// handleEvents ingests a JSON array of events. Malformed events are
// rejected individually; the batch reports how many made it in.
func (s *Server) handleEvents() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(io.LimitReader(r.Body, 8<<20))
		if err != nil {
			sendJSON(w, 400, map[string]string{"error": "failed to read body"})
			return
		}

		var events []signal.Event
		if err := json.Unmarshal(body, &events); err != nil {
			sendJSON(w, 400, map[string]string{"error": fmt.Sprintf("invalid events JSON: %v", err)})
			return
		}

		accepted, pushErr := s.engine.Push(events...)
		resp := EventsResponse{
			Accepted: accepted,
			Rejected: len(events) - accepted,
		}
		if pushErr != nil {
			resp.Error = pushErr.Error()
		}

		status := 200
		if accepted == 0 && len(events) > 0 {
			status = 422
		}
		sendJSON(w, status, resp)
	}
}

func (s *Server) handleReset() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.engine.Reset()
		sendJSON(w, 200, map[string]string{"status": "reset"})
	}
}
