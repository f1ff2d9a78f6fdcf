// Package server exposes a running Engine to the browser extension:
// event ingest and live mute decisions over WebSocket, plus HTTP
// endpoints for status, history and weight-table reloads.
package server

import (
	"context"
	"net/http"
	"sync"
	"time"

	hushcore "github.com/hushtab/hushcore"
)

// Server bridges the extension and the detection engine
type Server struct {
	engine     *hushcore.Engine
	addr       string
	config     *Config
	startTime  time.Time
	httpServer *http.Server

	mu          sync.Mutex
	subscribers map[chan *hushcore.TickResult]struct{}
}

// New creates a new HTTP server around an engine
func New(engine *hushcore.Engine, config *Config) *Server {
	if config.Version == "" {
		config.Version = "dev"
	}
	if config.TickInterval <= 0 {
		config.TickInterval = time.Second
	}

	s := &Server{
		engine:      engine,
		addr:        config.Addr,
		config:      config,
		startTime:   time.Now(),
		subscribers: make(map[chan *hushcore.TickResult]struct{}),
	}

	s.httpServer = &http.Server{
		Addr:    config.Addr,
		Handler: s.createHandler(),
	}

	return s
}

// ListenAndServe starts the HTTP server
func (s *Server) ListenAndServe() error {
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// Run drives the engine at the configured cadence and fans each tick
// out to connected WebSocket clients. Blocks until ctx is cancelled.
func (s *Server) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.config.TickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case t := <-ticker.C:
			s.broadcast(s.engine.Tick(t.UnixMilli()))
		}
	}
}

// createHandler creates the HTTP handler with all routes
func (s *Server) createHandler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", s.handleHealth())
	mux.HandleFunc("GET /status", s.handleStatus())
	mux.HandleFunc("GET /decision", s.handleDecision())
	mux.HandleFunc("GET /config", s.handleConfigGet())
	mux.HandleFunc("POST /config", s.handleConfigReload())
	mux.HandleFunc("GET /windows", s.handleWindows())
	mux.HandleFunc("GET /transitions", s.handleTransitions())
	mux.HandleFunc("GET /detectors", s.handleDetectors())
	mux.HandleFunc("POST /events", s.handleEvents())
	mux.HandleFunc("POST /reset", s.handleReset())

	if s.config.EnableWebSocket {
		mux.HandleFunc("GET /ws", s.handleWebSocket())
	}

	mux.HandleFunc("GET /", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/" {
			s.handleRoot()(w, r)
			return
		}
		sendJSON(w, 404, map[string]string{"error": "not found"})
	})

	return corsMiddleware(mux)
}

func (s *Server) subscribe() chan *hushcore.TickResult {
	ch := make(chan *hushcore.TickResult, 16)
	s.mu.Lock()
	s.subscribers[ch] = struct{}{}
	s.mu.Unlock()
	return ch
}

func (s *Server) unsubscribe(ch chan *hushcore.TickResult) {
	s.mu.Lock()
	delete(s.subscribers, ch)
	s.mu.Unlock()
}

// broadcast never blocks the tick loop; a subscriber that cannot keep
// up skips results and catches up on the next one
func (s *Server) broadcast(res *hushcore.TickResult) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for ch := range s.subscribers {
		select {
		case ch <- res:
		default:
		}
	}
}

// Handler returns the server's HTTP handler, for embedding and tests
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// Tick advances the engine once and fans the result out, exactly as one
// iteration of Run would
func (s *Server) Tick(now int64) *hushcore.TickResult {
	res := s.engine.Tick(now)
	s.broadcast(res)
	return res
}

// GetStartTime returns when the server started
func (s *Server) GetStartTime() time.Time {
	return s.startTime
}
