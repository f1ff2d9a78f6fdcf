package server

import (
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/goccy/go-json"
	"github.com/gorilla/websocket"

	"github.com/hushtab/hushcore/signal"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// handleWebSocket is the extension's live channel: inbound messages
// carry captured signal events, outbound messages carry tick results
// with the current mute decision.
func (s *Server) handleWebSocket() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			fmt.Fprintf(os.Stderr, "WebSocket upgrade failed: %v\n", err)
			return
		}
		defer conn.Close()

		conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		conn.SetPongHandler(func(string) error {
			conn.SetReadDeadline(time.Now().Add(60 * time.Second))
			return nil
		})

		done := make(chan struct{})

		go func() {
			defer close(done)
			for {
				_, data, err := conn.ReadMessage()
				if err != nil {
					if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
						fmt.Fprintf(os.Stderr, "WebSocket: client closed connection\n")
					}
					return
				}
				s.handleInbound(data)
			}
		}()

		if err := s.streamDecisions(conn, done); err != nil {
			fmt.Fprintf(os.Stderr, "WebSocket stream error: %v\n", err)
		}
	}
}

// handleInbound processes one message from the extension. Bad batches
// are logged, never fatal to the connection. Writes stay on the
// streaming goroutine only; gorilla forbids concurrent writers.
func (s *Server) handleInbound(data []byte) {
	var msg wsInbound
	if err := json.Unmarshal(data, &msg); err != nil {
		fmt.Fprintf(os.Stderr, "WebSocket: invalid message: %v\n", err)
		return
	}

	switch msg.Type {
	case "events":
		events := make([]signal.Event, 0, len(msg.Events))
		for _, raw := range msg.Events {
			var ev signal.Event
			if err := json.Unmarshal(raw, &ev); err != nil {
				fmt.Fprintf(os.Stderr, "WebSocket: invalid event: %v\n", err)
				continue
			}
			// keep the original bytes so exports reproduce the
			// capture exactly
			ev.RawJSON = raw
			events = append(events, ev)
		}
		if _, err := s.engine.Push(events...); err != nil {
			fmt.Fprintf(os.Stderr, "WebSocket: events rejected: %v\n", err)
		}

	case "reset":
		s.engine.Reset()

	default:
		fmt.Fprintf(os.Stderr, "WebSocket: unknown message type %q\n", msg.Type)
	}
}

// streamDecisions pushes tick results to the client until it goes away
func (s *Server) streamDecisions(conn *websocket.Conn, done chan struct{}) error {
	sub := s.subscribe()
	defer s.unsubscribe(sub)

	pinger := time.NewTicker(30 * time.Second)
	defer pinger.Stop()

	for {
		select {
		case <-done:
			return nil

		case res := <-sub:
			tick := &wsTick{
				Timestamp:  res.Timestamp,
				Score:      res.Score.Score,
				MaxScore:   res.Score.MaxScore,
				Active:     res.Score.Active,
				State:      res.Decision.State,
				Transition: res.Transition,
				Window:     res.Window,
			}
			if err := sendOutbound(conn, &wsOutbound{Type: "tick", Tick: tick}); err != nil {
				return err
			}

		case <-pinger.C:
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return err
			}
		}
	}
}

func sendOutbound(conn *websocket.Conn, msg *wsOutbound) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return nil
	}

	if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
		if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
			fmt.Fprintf(os.Stderr, "WebSocket write error: %v\n", err)
		}
		return err
	}

	return nil
}
