// Package profiler serves the net/http/pprof handlers on a loopback port
// while the TUI runs.
package profiler

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/http/pprof"
	"time"

	"github.com/rs/zerolog"

	"github.com/colonyops/repodoc/internal/core/logging"
)

const (
	// startGrace is how long Start waits for Serve to fail before treating
	// the listener as healthy.
	startGrace = 100 * time.Millisecond
	// stopTimeout bounds the shutdown that follows cancellation of the Start
	// context.
	stopTimeout = 5 * time.Second
)

// Server is a pprof endpoint whose lifetime follows the context given to
// Start.
type Server struct {
	httpServer *http.Server
	listener   net.Listener
	port       int
	done       chan struct{}
	log        zerolog.Logger
}

// New creates a profiler bound to 127.0.0.1:port. Port 0 picks a free port.
func New(port int) *Server {
	mux := http.NewServeMux()
	mux.HandleFunc("/debug/pprof/", pprof.Index)
	mux.HandleFunc("/debug/pprof/cmdline", pprof.Cmdline)
	mux.HandleFunc("/debug/pprof/profile", pprof.Profile)
	mux.HandleFunc("/debug/pprof/symbol", pprof.Symbol)
	mux.HandleFunc("/debug/pprof/trace", pprof.Trace)

	return &Server{
		httpServer: &http.Server{
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
		},
		port: port,
		done: make(chan struct{}),
		log:  logging.Component("profiler"),
	}
}

// Start listens and serves until ctx is cancelled or Shutdown is called.
func (s *Server) Start(ctx context.Context) error {
	listener, err := net.Listen("tcp", fmt.Sprintf("127.0.0.1:%d", s.port))
	if err != nil {
		return fmt.Errorf("listen: %w", err)
	}
	s.listener = listener

	s.log.Info().Str("addr", listener.Addr().String()).Msg("profiler listening")

	errCh := make(chan error, 1)
	go func() {
		defer close(s.done)
		if err := s.httpServer.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	go func() {
		select {
		case <-ctx.Done():
		case <-s.done:
			return
		}
		stopCtx, cancel := context.WithTimeout(context.Background(), stopTimeout)
		defer cancel()
		if err := s.Shutdown(stopCtx); err != nil {
			s.log.Warn().Err(err).Msg("profiler shutdown after cancel")
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("profiler server failed to start: %w", err)
	case <-time.After(startGrace):
		return nil
	}
}

// Addr returns the bound address, or "" before Start.
func (s *Server) Addr() string {
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// Done is closed once the server has stopped serving.
func (s *Server) Done() <-chan struct{} {
	return s.done
}

// Shutdown stops the server, waiting for active requests up to ctx.
func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info().Msg("stopping profiler")
	return s.httpServer.Shutdown(ctx)
}
