package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/panjf2000/ants/v2"
	"go.uber.org/zap"

	"gitlab.com/crmcom/api/centralwap-router/internal/config"
	"gitlab.com/crmcom/api/centralwap-router/internal/model"
	"gitlab.com/crmcom/api/centralwap-router/internal/observer"
	"gitlab.com/crmcom/api/centralwap-router/internal/storage"
	"gitlab.com/crmcom/api/centralwap-router/internal/tenant"
	"gitlab.com/crmcom/api/centralwap-router/pkg/utils"
)

// ScheduledTaskData carries one claimed scheduled message into the pool.
type ScheduledTaskData struct {
	Ctx       context.Context
	Scheduled model.ScheduledMessage
}

// ScheduledWorker polls for due scheduled messages and dispatches them on a
// bounded worker pool. Claimed rows stay PENDING until marked, so rows in
// flight during a crash are re-claimed on the next poll.
type ScheduledWorker struct {
	pool       *ants.PoolWithFunc
	service    *Service
	scheduled  storage.ScheduledMessageRepo
	cfg        config.ScheduledWorkerPoolConfig
	companyID  string
	baseLogger *zap.Logger
	stopChan   chan struct{}
}

// NewScheduledWorker creates and initializes the scheduled-message worker pool.
func NewScheduledWorker(
	cfg config.ScheduledWorkerPoolConfig,
	service *Service,
	scheduled storage.ScheduledMessageRepo,
	companyID string,
	baseLogger *zap.Logger,
) (*ScheduledWorker, error) {
	worker := &ScheduledWorker{
		service:    service,
		scheduled:  scheduled,
		cfg:        cfg,
		companyID:  companyID,
		baseLogger: baseLogger.Named("scheduled_worker"),
		stopChan:   make(chan struct{}),
	}

	pool, err := ants.NewPoolWithFunc(cfg.PoolSize, func(i interface{}) {
		taskData, ok := i.(ScheduledTaskData)
		if !ok {
			worker.baseLogger.Error("Invalid task data type received", zap.Any("data", i))
			return
		}
		worker.processScheduledTask(taskData)
	},
		ants.WithExpiryDuration(cfg.ExpiryTime),
		ants.WithNonblocking(false),
		ants.WithMaxBlockingTasks(cfg.BatchSize),
		ants.WithPanicHandler(func(err interface{}) {
			worker.baseLogger.Error("Panic recovered in scheduled worker", zap.Any("panic_error", err), zap.Stack("stack"))
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create scheduled worker pool: %w", err)
	}
	worker.pool = pool
	worker.baseLogger.Info("Scheduled worker pool initialized",
		zap.Int("pool_size", cfg.PoolSize),
		zap.Duration("poll_interval", cfg.PollInterval),
		zap.Int("batch_size", cfg.BatchSize),
	)
	return worker, nil
}

// Start runs the poll loop until Stop is called.
func (w *ScheduledWorker) Start() {
	utils.SafeGo(func() {
		ticker := time.NewTicker(w.cfg.PollInterval)
		defer ticker.Stop()

		for {
			select {
			case <-w.stopChan:
				return
			case <-ticker.C:
				w.pollOnce()
			}
		}
	}, func(r interface{}, stack []byte) {
		w.baseLogger.Error("Panic recovered in scheduled poll loop", zap.Any("panic_error", r), zap.ByteString("stack", stack))
	})
}

// Stop halts polling and releases the pool. In-flight tasks finish.
func (w *ScheduledWorker) Stop() {
	close(w.stopChan)
	w.pool.Release()
	w.baseLogger.Info("Scheduled worker stopped")
}

// pollOnce claims one batch of due rows and submits each to the pool.
func (w *ScheduledWorker) pollOnce() {
	ctx := tenant.WithCompanyID(context.Background(), w.companyID)

	due, err := w.scheduled.ClaimDue(ctx, utils.Now(), w.cfg.BatchSize)
	if err != nil {
		w.baseLogger.Error("Failed to claim due scheduled messages", zap.Error(err))
		return
	}
	if len(due) == 0 {
		return
	}
	w.baseLogger.Debug("Claimed due scheduled messages", zap.Int("count", len(due)))

	for _, row := range due {
		observer.IncScheduledTasksSubmitted(row.CompanyID)
		observer.SetScheduledQueueLength(w.pool.Waiting())

		if err := w.pool.Invoke(ScheduledTaskData{Ctx: ctx, Scheduled: row}); err != nil {
			w.baseLogger.Warn("Failed to submit scheduled task to pool",
				zap.String("scheduled_id", row.ID),
				zap.Error(err))
			observer.IncScheduledTasksProcessed(row.CompanyID, "submit_error")
		}
	}
}

// processScheduledTask contains the logic executed by a worker goroutine.
func (w *ScheduledWorker) processScheduledTask(taskData ScheduledTaskData) {
	defer utils.RecoverWithLog(taskData.Ctx, "scheduled message dispatch")
	start := time.Now()
	status := "sent"

	if err := w.service.DispatchScheduled(taskData.Ctx, taskData.Scheduled); err != nil {
		status = "failed"
		w.baseLogger.Error("Scheduled dispatch failed",
			zap.String("scheduled_id", taskData.Scheduled.ID),
			zap.String("conversation_id", taskData.Scheduled.ConversationID),
			zap.Error(err))
	}

	observer.IncScheduledTasksProcessed(taskData.Scheduled.CompanyID, status)
	observer.ObserveScheduledProcessingDuration(taskData.Scheduled.CompanyID, time.Since(start))
}
