package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"gitlab.com/crmcom/api/centralwap-router/internal/config"
	"gitlab.com/crmcom/api/centralwap-router/internal/tenant"
	"gitlab.com/crmcom/api/centralwap-router/internal/usecase"
	"gitlab.com/crmcom/api/centralwap-router/pkg/logger"
)

// Server is the HTTP surface: provider webhook plus the internal REST API.
type Server struct {
	cfg        *config.Config
	service    *usecase.Service
	httpServer *http.Server
}

// NewServer creates the HTTP server with all routes configured.
func NewServer(cfg *config.Config, service *usecase.Service) *Server {
	s := &Server{cfg: cfg, service: service}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(s.requestContext)

	r.Get("/webhook", s.handleWebhookVerify)
	r.Post("/webhook", s.handleWebhook)

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/messages", s.handleSendMessage)
		r.Route("/messages/{messageID}/reactions", func(r chi.Router) {
			r.Get("/", s.handleListReactions)
			r.Post("/", s.handleAddReaction)
			r.Delete("/", s.handleRemoveReaction)
		})

		r.Route("/conversations/{conversationID}", func(r chi.Router) {
			r.Get("/", s.handleGetConversation)
			r.Patch("/", s.handleUpdateConversation)
			r.Get("/messages", s.handleListMessages)
			r.Get("/scheduled-messages", s.handleListScheduled)
		})

		r.Post("/scheduled-messages", s.handleCreateScheduled)
		r.Get("/scheduled-messages/{scheduledID}", s.handleGetScheduled)

		r.Get("/contacts", s.handleSearchContacts)
		r.Get("/contacts/{contactID}/conversations", s.handleListContactConversations)
	})

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
	}
	return s
}

// requestContext enriches each request with the tenant company ID and a
// request-scoped logger carrying the chi request ID.
func (s *Server) requestContext(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := tenant.WithCompanyID(r.Context(), s.cfg.Company.ID)

		if reqID := middleware.GetReqID(ctx); reqID != "" {
			ctx = tenant.WithRequestID(ctx, reqID)
			ctx = logger.WithLogger(ctx, logger.Log.With(
				zap.String("request_id", reqID),
				zap.String("company_id", s.cfg.Company.ID),
			))
		}

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// Handler exposes the configured router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// Start serves HTTP until the listener fails or Shutdown is called.
func (s *Server) Start() error {
	logger.Log.Info("HTTP server listening", zap.String("addr", s.httpServer.Addr))
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("http server: %w", err)
	}
	return nil
}

// Shutdown drains in-flight requests within the context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}
