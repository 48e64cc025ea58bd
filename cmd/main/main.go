package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"sync"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sourcegraph/conc"
	"gitlab.com/crmcom/api/centralwap-router/internal/config"
	"gitlab.com/crmcom/api/centralwap-router/internal/dispatch"
	"gitlab.com/crmcom/api/centralwap-router/internal/events"
	"gitlab.com/crmcom/api/centralwap-router/internal/healthcheck"
	"gitlab.com/crmcom/api/centralwap-router/internal/normalize"
	"gitlab.com/crmcom/api/centralwap-router/internal/observer"
	"gitlab.com/crmcom/api/centralwap-router/internal/server"
	"gitlab.com/crmcom/api/centralwap-router/internal/storage"
	"gitlab.com/crmcom/api/centralwap-router/internal/usecase"
	"gitlab.com/crmcom/api/centralwap-router/pkg/logger"
	"gitlab.com/crmcom/api/centralwap-router/pkg/utils"
	"go.uber.org/zap"
)

func main() {
	// Set timezone to UTC
	time.Local = time.UTC

	// Load configuration
	cfg, err := config.LoadConfig("")
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	if err := logger.Initialize(cfg.LogLevel); err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	metricsEnabled := cfg.Metrics.Enabled
	observer.InitMetrics(metricsEnabled)

	logger.Log.Info("Starting CentralWap Router",
		zap.String("environment", cfg.Environment),
		zap.String("company_id", cfg.Company.ID),
		zap.Int("port", cfg.Server.Port),
	)

	// Initialize repositories
	postgresRepo, err := initPostgresRepo(cfg.Database.PostgresDSN, cfg.Database.PostgresAutoMigrate, cfg.Company.ID)
	if err != nil {
		logger.Log.Fatal("Failed to initialize Postgres repository", zap.Error(err))
	}

	// Initialize NATS client and inbound-event publisher
	natsClient, err := initNATSClient(cfg.NATS.URL)
	if err != nil {
		logger.Log.Fatal("Failed to initialize NATS client", zap.Error(err))
	}
	publisher := events.NewPublisher(natsClient, cfg.NATS.Stream, cfg.NATS.Subject, cfg.NATS.MaxAge)
	if err := publisher.EnsureStream(context.Background()); err != nil {
		logger.Log.Fatal("Failed to ensure NATS stream", zap.Error(err))
	}

	// Create repository adapters for the service
	contactRepo := storage.NewContactRepoAdapter(postgresRepo)
	conversationRepo := storage.NewConversationRepoAdapter(postgresRepo)
	messageRepo := storage.NewMessageRepoAdapter(postgresRepo)
	reactionRepo := storage.NewReactionRepoAdapter(postgresRepo)
	scheduledRepo := storage.NewScheduledMessageRepoAdapter(postgresRepo)

	// Outbound transports
	waClient := dispatch.NewWhatsAppClient(
		cfg.WhatsApp.APIBaseURL,
		cfg.WhatsApp.AccessToken,
		cfg.WhatsApp.PhoneNumberID,
		cfg.WhatsApp.Timeout,
	)
	automationClient := dispatch.NewAutomationClient(cfg.Routing.WebhookSecret, cfg.Routing.WebhookTimeout)
	dispatcher := dispatch.NewDispatcher(waClient, automationClient, cfg.Routing)

	phones := normalize.NewPhoneNormalizer(cfg.Phone)

	// Create service
	service := usecase.NewService(
		contactRepo,
		conversationRepo,
		messageRepo,
		reactionRepo,
		scheduledRepo,
		dispatcher,
		waClient,
		publisher,
		phones,
		cfg.Routing,
	)

	// Create scheduled-message worker pool
	scheduledWorker, err := usecase.NewScheduledWorker(
		cfg.WorkerPools.Scheduled,
		service,
		scheduledRepo,
		cfg.Company.ID,
		logger.Log,
	)
	if err != nil {
		logger.Log.Fatal("Failed to initialize scheduled worker pool", zap.Error(err))
	}
	scheduledWorker.Start()

	// Create health check server
	healthServer := healthcheck.NewServer(strconv.Itoa(cfg.Server.HealthPort), logger.Log)
	healthServer.RegisterCheck("postgres", postgresRepo.Ping)

	// Register metrics handler if enabled BEFORE starting the server
	if metricsEnabled {
		healthServer.RegisterMetricsHandler(promhttp.Handler())
		logger.Log.Info("Metrics endpoint enabled", zap.String("path", "/metrics"), zap.Int("port", cfg.Server.HealthPort))
	} else {
		logger.Log.Info("Metrics endpoint disabled for environment", zap.String("environment", cfg.Environment))
	}

	healthServer.Start()

	logger.Log.Info("Health check endpoints available",
		zap.String("health", fmt.Sprintf("http://localhost:%d/health", cfg.Server.HealthPort)),
		zap.String("readiness", fmt.Sprintf("http://localhost:%d/ready", cfg.Server.HealthPort)),
	)

	// Start the API server (webhook + REST)
	apiServer := server.NewServer(cfg, service)
	sigChan := make(chan os.Signal, 1)
	var serverGroup conc.WaitGroup
	serverGroup.Go(func() {
		if err := apiServer.Start(); err != nil {
			logger.Log.Error("API server failed, initiating shutdown", zap.Error(err))
			select {
			case sigChan <- syscall.SIGTERM:
			default:
				logger.Log.Warn("Could not send SIGTERM to signal channel immediately")
			}
		}
	})

	// Wait for termination signal
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigChan
	logger.Log.Info("Received termination signal", zap.String("signal", sig.String()))

	// Graceful shutdown with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	logger.Log.Info("Starting graceful shutdown", zap.Duration("timeout", 30*time.Second))

	// Use WaitGroup to track shutdown of all components
	var wg sync.WaitGroup

	// Components: API server, scheduled worker, health server, databases
	numComponents := 4
	wg.Add(numComponents)

	// Shutdown API server (stops accepting webhooks first)
	utils.SafeGo(func() {
		defer wg.Done()
		logger.Log.Info("[shutdown] Stopping API server")
		start := time.Now()
		if err := apiServer.Shutdown(shutdownCtx); err != nil {
			logger.Log.Error("[shutdown] Error stopping API server", zap.Error(err))
		} else {
			logger.Log.Info("[shutdown] API server stopped",
				zap.Duration("duration", time.Since(start)))
		}
	}, func(r interface{}, stack []byte) {
		logger.Log.Error("[shutdown] Panic while stopping API server",
			zap.Any("panic", r),
			zap.ByteString("stack", stack),
		)
		wg.Done()
	})

	// Shutdown scheduled-message worker pool
	utils.SafeGo(func() {
		defer wg.Done()
		logger.Log.Info("[shutdown] Stopping scheduled worker pool")
		start := time.Now()
		scheduledWorker.Stop()
		logger.Log.Info("[shutdown] Scheduled worker pool stopped",
			zap.Duration("duration", time.Since(start)))
	}, func(r interface{}, stack []byte) {
		logger.Log.Error("[shutdown] Panic while stopping scheduled worker pool",
			zap.Any("panic", r),
			zap.ByteString("stack", stack),
		)
		wg.Done()
	})

	// Shutdown health check server (includes metrics if enabled)
	utils.SafeGo(func() {
		defer wg.Done()
		logger.Log.Info("[shutdown] Stopping health check server")
		start := time.Now()
		if err := healthServer.Stop(shutdownCtx); err != nil {
			logger.Log.Error("[shutdown] Error stopping health check server", zap.Error(err))
		} else {
			logger.Log.Info("[shutdown] Health check server stopped",
				zap.Duration("duration", time.Since(start)))
		}
	}, func(r interface{}, stack []byte) {
		logger.Log.Error("[shutdown] Panic while stopping health check server",
			zap.Any("panic", r),
			zap.ByteString("stack", stack),
		)
		wg.Done()
	})

	// Close database and NATS connections
	utils.SafeGo(func() {
		defer wg.Done()

		logger.Log.Info("[shutdown] Closing PostgreSQL connection")
		pgStart := time.Now()
		if err := postgresRepo.Close(shutdownCtx); err != nil {
			logger.Log.Error("[shutdown] Failed to close PostgreSQL connection", zap.Error(err))
		} else {
			logger.Log.Info("[shutdown] PostgreSQL connection closed",
				zap.Duration("duration", time.Since(pgStart)))
		}

		logger.Log.Info("[shutdown] Closing NATS connection")
		natsStart := time.Now()
		natsClient.Close()
		logger.Log.Info("[shutdown] NATS connection closed",
			zap.Duration("duration", time.Since(natsStart)))
	}, func(r interface{}, stack []byte) {
		logger.Log.Error("[shutdown] Panic while closing connections",
			zap.Any("panic", r),
			zap.ByteString("stack", stack),
		)
		wg.Done()
	})

	// Wait with a timeout for all components to shut down
	waitCh := make(chan struct{})
	go func() {
		wg.Wait()
		close(waitCh)
	}()

	select {
	case <-waitCh:
		logger.Log.Info("[shutdown] All components stopped gracefully")
	case <-shutdownCtx.Done():
		logger.Log.Warn("[shutdown] Graceful shutdown timed out, forcing exit")
	}

	serverGroup.Wait()

	logger.Log.Info("CentralWap Router shutdown complete")
}

// Initialize PostgreSQL repository
func initPostgresRepo(dsn string, autoMigrate bool, companyID string) (*storage.PostgresRepo, error) {
	if dsn == "" {
		return nil, fmt.Errorf("postgres DSN is required")
	}

	repo, err := storage.NewPostgresRepo(dsn, autoMigrate, companyID)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize postgres repository: %w", err)
	}

	logger.Log.Info("Initialized PostgreSQL repository")
	return repo, nil
}

// initNATSClient connects to the NATS server used for inbound-message events.
func initNATSClient(url string) (*events.Client, error) {
	client, err := events.NewClient(url)
	if err != nil {
		return nil, fmt.Errorf("failed to create NATS client: %w", err)
	}
	return client, nil
}
