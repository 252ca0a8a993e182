package inspector

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/vantus-engine/vantus/internal/core/engine"
)

// Server streams live engine statistics over a websocket so an external
// dashboard can watch entity counts, archetype growth and per-stage
// schedule shape without linking against the engine.
type Server struct {
	log      *zap.Logger
	app      *engine.App
	addr     string
	interval time.Duration

	upgrader websocket.Upgrader
	srv      *http.Server
}

// Option configures a Server.
type Option func(*Server)

// WithInterval overrides the stats push interval.
func WithInterval(d time.Duration) Option {
	return func(s *Server) { s.interval = d }
}

func NewServer(app *engine.App, addr string, log *zap.Logger, opts ...Option) *Server {
	s := &Server{
		log:      log,
		app:      app,
		addr:     addr,
		interval: time.Second,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			// Diagnostics endpoint, not an app surface.
			CheckOrigin: func(*http.Request) bool { return true },
		},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start begins serving in the background. The listener stops when Stop is
// called or ctx is cancelled.
func (s *Server) Start(ctx context.Context) error {
	mux := http.NewServeMux()
	mux.HandleFunc("/stats", func(w http.ResponseWriter, r *http.Request) {
		s.handleStats(ctx, w, r)
	})

	s.srv = &http.Server{
		Addr:              s.addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		s.log.Info("inspector listening", zap.String("addr", s.addr))
		if err := s.srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.log.Error("inspector server failed", zap.Error(err))
		}
	}()
	return nil
}

// Stop shuts the listener down, waiting for in-flight streams.
func (s *Server) Stop(ctx context.Context) error {
	if s.srv == nil {
		return nil
	}
	return s.srv.Shutdown(ctx)
}

func (s *Server) handleStats(ctx context.Context, w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warn("inspector upgrade failed", zap.Error(err))
		return
	}
	defer func() { _ = conn.Close() }()

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	// Push one snapshot immediately so short-lived clients see data.
	if err := conn.WriteJSON(s.app.Stats()); err != nil {
		return
	}
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := conn.WriteJSON(s.app.Stats()); err != nil {
				s.log.Debug("inspector client gone", zap.Error(err))
				return
			}
		}
	}
}
