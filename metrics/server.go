package metrics

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/hyperledger/fabric/common/flogging"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var logger = flogging.MustGetLogger("vehicleregistry.metrics")

// Server serves /metrics and /health/live next to the chaincode.
type Server struct {
	httpServer *http.Server
}

// NewRouter builds the ops router.
func NewRouter(version string) http.Handler {
	router := chi.NewRouter()
	router.Handle("/metrics", promhttp.Handler())
	router.Get("/health/live", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]string{
			"status":    "ok",
			"version":   version,
			"timestamp": time.Now().UTC().Format(time.RFC3339),
		})
	})
	return router
}

// NewServer creates an ops server listening on addr.
func NewServer(addr, version string) *Server {
	return &Server{
		httpServer: &http.Server{
			Addr:              addr,
			Handler:           NewRouter(version),
			ReadHeaderTimeout: 5 * time.Second,
		},
	}
}

// Start serves in the background. Listener errors are logged, not fatal:
// the chaincode keeps serving transactions without its ops endpoint.
func (s *Server) Start() {
	go func() {
		logger.Infof("Ops server listening on %s", s.httpServer.Addr)
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Errorf("Ops server stopped: %v", err)
		}
	}()
}

// Shutdown stops the ops server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}
