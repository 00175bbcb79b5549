package feed

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/mindloop/cortex/logger"
)

// Server exposes the hub over HTTP: GET /events upgrades to a
// websocket streaming JSON events, GET /health reports liveness.
type Server struct {
	hub      *Hub
	log      *logger.Logger
	upgrader websocket.Upgrader
	http     *http.Server
}

// NewServer creates a feed server over hub listening on addr.
func NewServer(hub *Hub, addr string, log *logger.Logger) *Server {
	s := &Server{
		hub: hub,
		log: log,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/events", s.handleEvents)
	mux.HandleFunc("/health", s.handleHealth)
	s.http = &http.Server{Addr: addr, Handler: mux}
	return s
}

// ListenAndServe serves until Shutdown. http.ErrServerClosed is
// swallowed as a normal exit.
func (s *Server) ListenAndServe() error {
	s.log.Infof("[FEED] operator feed listening on %s", s.http.Addr)
	if err := s.http.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown stops the HTTP server gracefully.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}

// Handler returns the server's HTTP handler, for tests.
func (s *Server) Handler() http.Handler {
	return s.http.Handler
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ok"}`))
}

func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Errorf("[FEED] websocket upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	events, cancel := s.hub.Subscribe()
	defer cancel()

	s.log.Infof("[FEED] subscriber connected from %s", r.RemoteAddr)

	// Read pump: discard client frames, notice disconnects.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case <-done:
			s.log.Infof("[FEED] subscriber %s disconnected", r.RemoteAddr)
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := conn.WriteJSON(ev); err != nil {
				s.log.Warnf("[FEED] dropping subscriber %s: %v", r.RemoteAddr, err)
				return
			}
		}
	}
}
