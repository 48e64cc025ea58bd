package healthcheck

import (
	"context"
	"net/http"

	"go.uber.org/zap"

	"gitlab.com/crmcom/api/centralwap-router/pkg/utils"
)

// CheckFn probes one dependency for readiness.
type CheckFn func(ctx context.Context) error

// Server serves liveness, readiness and metrics endpoints on a side port.
type Server struct {
	httpServer *http.Server
	mux        *http.ServeMux
	logger     *zap.Logger
	checks     map[string]CheckFn
}

// HealthResponse is the body returned by the probe endpoints.
type HealthResponse struct {
	Status  string            `json:"status"`
	Details map[string]string `json:"details,omitempty"`
}

// NewServer creates a health check server.
func NewServer(port string, logger *zap.Logger) *Server {
	mux := http.NewServeMux()

	server := &Server{
		httpServer: &http.Server{
			Addr:    ":" + port,
			Handler: mux,
		},
		mux:    mux,
		logger: logger,
		checks: map[string]CheckFn{},
	}

	mux.HandleFunc("/health", server.handleHealth)
	mux.HandleFunc("/ready", server.handleReady)

	return server
}

// RegisterCheck adds a named readiness probe (e.g. the database ping).
func (s *Server) RegisterCheck(name string, check CheckFn) {
	s.checks[name] = check
}

// RegisterMetricsHandler adds the /metrics endpoint handler.
// Should only be called if metrics are enabled.
func (s *Server) RegisterMetricsHandler(handler http.Handler) {
	s.logger.Info("Registering /metrics endpoint")
	s.mux.Handle("/metrics", handler)
}

// Start begins serving in the background.
func (s *Server) Start() {
	utils.SafeGo(func() {
		s.logger.Info("Starting health check server", zap.String("addr", s.httpServer.Addr))
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.logger.Error("Health check server error", zap.Error(err))
		}
	}, nil)
}

// Stop gracefully shuts down the server.
func (s *Server) Stop(ctx context.Context) error {
	s.logger.Info("Stopping health check server")
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	utils.WriteJSONResponse(w, http.StatusOK, HealthResponse{Status: "UP"})
}

// handleReady runs every registered check; any failure flips the probe.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	details := map[string]string{
		"timestamp": utils.FormatISO8601(utils.Now()),
	}

	status := http.StatusOK
	resp := HealthResponse{Status: "READY", Details: details}

	for name, check := range s.checks {
		if err := check(r.Context()); err != nil {
			details[name] = err.Error()
			resp.Status = "NOT_READY"
			status = http.StatusServiceUnavailable
		} else {
			details[name] = "ok"
		}
	}

	utils.WriteJSONResponse(w, status, resp)
}
