// Package gateway is the HTTP and WebSocket surface of the assistant.
// Every request passes the binding middleware, which turns a bearer
// credential into a building binding on the request context; handlers
// and everything below them never look at credentials again.
package gateway

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/minhdn/towerdesk/internal/agent"
	"github.com/minhdn/towerdesk/internal/auth"
	"github.com/minhdn/towerdesk/internal/config"
	"github.com/minhdn/towerdesk/internal/logging"
)

// Server is the towerdesk gateway HTTP + WebSocket server.
type Server struct {
	cfg      config.Config
	log      *logging.Logger
	verifier *auth.Verifier
	sessions *agent.Registry
	runner   *agent.Runner

	startedAt  time.Time
	httpServer *http.Server
	upgrader   websocket.Upgrader
}

// New creates a gateway server.
func New(cfg config.Config, verifier *auth.Verifier, sessions *agent.Registry, runner *agent.Runner, log *logging.Logger) *Server {
	return &Server{
		cfg:      cfg,
		log:      log.Sub("gateway"),
		verifier: verifier,
		sessions: sessions,
		runner:   runner,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin:     checkWebSocketOrigin(cfg.Gateway.AllowedOrigins),
		},
	}
}

// checkWebSocketOrigin validates WebSocket Origin headers. With no
// origins configured, only same-origin or non-browser clients connect.
func checkWebSocketOrigin(allowed []string) func(*http.Request) bool {
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		return isOriginAllowed(origin, allowed)
	}
}

// Start begins serving. It blocks until the context is cancelled or an
// error occurs.
func (s *Server) Start(ctx context.Context) error {
	addr := fmt.Sprintf("%s:%d", s.cfg.Gateway.Bind, s.cfg.Gateway.Port)

	mux := http.NewServeMux()
	s.registerRoutes(mux)

	handler := withMiddleware(mux, s.verifier, s.log, s.cfg.Gateway.AllowedOrigins)

	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 5 * time.Minute, // model calls can run long
		IdleTimeout:  120 * time.Second,
		BaseContext:  func(net.Listener) context.Context { return ctx },
	}

	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}

	s.startedAt = time.Now()
	s.log.Info().
		Str("addr", ln.Addr().String()).
		Str("model", s.cfg.Model.Model).
		Msg("gateway server ready")

	go func() {
		<-ctx.Done()
		s.log.Info().Msg("shutting down gateway server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		s.httpServer.Shutdown(shutdownCtx)
	}()

	if err := s.httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Addr returns the server's listen address, or empty string if not started.
func (s *Server) Addr() string {
	if s.httpServer != nil {
		return s.httpServer.Addr
	}
	return ""
}
