// Package api exposes the engine's read-only status over HTTP.
package api

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/meridian-lab/meridian-trading/internal/logger"
	"github.com/meridian-lab/meridian-trading/internal/types"
	"github.com/meridian-lab/meridian-trading/pkg/errors"
)

const shutdownTimeout = 5 * time.Second

// StatusProvider supplies the status snapshot served by the API. The engine
// satisfies it; status assembly never touches the network.
type StatusProvider interface {
	Status() types.EngineStatus
}

// Server serves the status endpoints on a dedicated listener.
type Server struct {
	provider StatusProvider
	log      *logger.Logger

	listener   net.Listener
	httpServer *http.Server
}

// NewServer creates a status server for the given provider.
func NewServer(provider StatusProvider, log *logger.Logger) *Server {
	return &Server{
		provider: provider,
		log:      log,
	}
}

// Start binds the listener and serves in the background. An empty address
// or ":0" picks a random available port.
func (s *Server) Start(address string) error {
	if address == "" {
		address = ":0"
	}

	listener, err := net.Listen("tcp", address)
	if err != nil {
		return err
	}
	s.listener = listener

	router := mux.NewRouter()
	router.HandleFunc("/status", s.handleStatus).Methods("GET")
	router.HandleFunc("/healthz", s.handleHealthz).Methods("GET")

	s.httpServer = &http.Server{
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		if err := s.httpServer.Serve(listener); err != http.ErrServerClosed {
			s.log.Error("status server terminated",
				zap.Error(err))
		}
	}()

	s.log.Info("status server listening",
		zap.String("address", listener.Addr().String()))

	return nil
}

// Stop shuts the server down, draining in-flight requests.
func (s *Server) Stop() error {
	if s.httpServer == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	return s.httpServer.Shutdown(ctx)
}

// Address returns the bound listen address.
func (s *Server) Address() string {
	if s.listener == nil {
		return ""
	}

	return s.listener.Addr().String()
}

func (s *Server) handleStatus(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, s.provider.Status())
}

func (s *Server) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	status := s.provider.Status()

	if status.State == types.EngineStateStopped {
		s.writeJSON(w, http.StatusServiceUnavailable, map[string]any{
			"state":      string(status.State),
			"error_code": errors.ErrCodeEngineNotRunning,
		})
		return
	}

	s.writeJSON(w, http.StatusOK, map[string]string{
		"state": string(status.State),
	})
}

func (s *Server) writeJSON(w http.ResponseWriter, code int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)

	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.log.Error("failed to encode status response",
			zap.Error(err))
	}
}
