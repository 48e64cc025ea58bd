package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"
	"gorm.io/gorm"

	apperrors "gitlab.com/crmcom/api/centralwap-router/internal/apperrors"
	"gitlab.com/crmcom/api/centralwap-router/internal/model"
	"gitlab.com/crmcom/api/centralwap-router/internal/observer"
	"gitlab.com/crmcom/api/centralwap-router/internal/tenant"
	"gitlab.com/crmcom/api/centralwap-router/pkg/logger"
	"gitlab.com/crmcom/api/centralwap-router/pkg/utils"
)

// --- Scheduled Message Repository Methods ---

// SaveScheduledMessage creates a new scheduled message row.
func (r *PostgresRepo) SaveScheduledMessage(ctx context.Context, msg model.ScheduledMessage) error {
	companyID, err := tenant.FromContext(ctx)
	if err != nil {
		return fmt.Errorf("%w: failed to get tenant ID: %w", apperrors.ErrUnauthorized, err)
	}
	if companyID != msg.CompanyID {
		return fmt.Errorf("%w: scheduled message CompanyID %s does not match tenant ID %s", apperrors.ErrBadRequest, msg.CompanyID, companyID)
	}

	operation := func() error {
		if createErr := r.db.WithContext(ctx).Create(&msg).Error; createErr != nil {
			return checkConstraintViolation(createErr)
		}
		return nil
	}

	commitPolicy := newRetryPolicy(ctx, commitRetryMaxElapsedTime)
	startTime := utils.Now()
	commitErr := retryableOperation(ctx, commitPolicy, "SaveScheduledMessage Commit", operation)
	observer.ObserveDbOperationDuration("save", "scheduled_message", companyID, time.Since(startTime), commitErr)

	if commitErr != nil {
		logger.FromContext(ctx).Error("Failed to save scheduled message after retries", zap.String("scheduled_id", msg.ID), zap.Error(commitErr))
		return commitErr
	}
	return nil
}

// UpdateScheduledMessage updates an existing scheduled message row.
func (r *PostgresRepo) UpdateScheduledMessage(ctx context.Context, msg model.ScheduledMessage) error {
	companyID, err := tenant.FromContext(ctx)
	if err != nil {
		return fmt.Errorf("%w: failed to get tenant ID: %w", apperrors.ErrUnauthorized, err)
	}
	if companyID != msg.CompanyID {
		return fmt.Errorf("%w: scheduled message CompanyID %s does not match tenant ID %s", apperrors.ErrBadRequest, msg.CompanyID, companyID)
	}
	msg.UpdatedAt = utils.Now()

	operation := func() error {
		result := r.db.WithContext(ctx).
			Model(&model.ScheduledMessage{}).
			Where("id = ? AND company_id = ?", msg.ID, companyID).
			Updates(msg)
		if result.Error != nil {
			return checkConstraintViolation(result.Error)
		}
		if result.RowsAffected == 0 {
			return backoff.Permanent(fmt.Errorf("%w: scheduled message %s", apperrors.ErrNotFound, msg.ID))
		}
		return nil
	}

	commitPolicy := newRetryPolicy(ctx, commitRetryMaxElapsedTime)
	startTime := utils.Now()
	commitErr := retryableOperation(ctx, commitPolicy, "UpdateScheduledMessage Commit", operation)
	observer.ObserveDbOperationDuration("update", "scheduled_message", companyID, time.Since(startTime), commitErr)

	if commitErr != nil {
		logger.FromContext(ctx).Error("Failed to update scheduled message after retries", zap.String("scheduled_id", msg.ID), zap.Error(commitErr))
		return commitErr
	}
	return nil
}

// FindScheduledMessageByID finds a scheduled message by its ID.
func (r *PostgresRepo) FindScheduledMessageByID(ctx context.Context, id string) (*model.ScheduledMessage, error) {
	companyID, err := tenant.FromContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to get tenant ID: %w", apperrors.ErrUnauthorized, err)
	}
	loggerCtx := logger.FromContext(ctx)

	var msg model.ScheduledMessage
	operation := func() error {
		result := r.db.WithContext(ctx).Where("id = ? AND company_id = ?", id, companyID).First(&msg)
		if result.Error != nil {
			if errors.Is(result.Error, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: scheduled_id %s: %w", apperrors.ErrNotFound, id, result.Error)
			}
			return fmt.Errorf("%w: query failed: %w", apperrors.ErrDatabase, result.Error)
		}
		return nil
	}

	readPolicy := newRetryPolicy(ctx, readRetryMaxElapsedTime)
	startTime := utils.Now()
	findErr := retryableOperation(ctx, readPolicy, "FindScheduledMessageByID", operation)
	observer.ObserveDbOperationDuration("find_by_id", "scheduled_message", companyID, time.Since(startTime), findErr)

	if findErr != nil {
		if errors.Is(findErr, apperrors.ErrNotFound) {
			return nil, apperrors.ErrNotFound
		}
		loggerCtx.Error("Failed to find scheduled message by ID after retries",
			zap.String("scheduled_id", id),
			zap.String("company_id", companyID),
			zap.Error(findErr))
		return nil, findErr
	}
	return &msg, nil
}

// FindScheduledMessagesByConversationID finds scheduled messages for a conversation.
func (r *PostgresRepo) FindScheduledMessagesByConversationID(ctx context.Context, conversationID string) ([]model.ScheduledMessage, error) {
	companyID, err := tenant.FromContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to get tenant ID: %w", apperrors.ErrUnauthorized, err)
	}
	loggerCtx := logger.FromContext(ctx)

	var msgs []model.ScheduledMessage
	operation := func() error {
		result := r.db.WithContext(ctx).
			Where("conversation_id = ? AND company_id = ?", conversationID, companyID).
			Order("send_at ASC").
			Find(&msgs)
		if result.Error != nil {
			return fmt.Errorf("%w: query failed: %w", apperrors.ErrDatabase, result.Error)
		}
		return nil // Success, even if no records found
	}

	readPolicy := newRetryPolicy(ctx, readRetryMaxElapsedTime)
	startTime := utils.Now()
	findErr := retryableOperation(ctx, readPolicy, "FindScheduledMessagesByConversationID", operation)
	observer.ObserveDbOperationDuration("find_by_conversation", "scheduled_message", companyID, time.Since(startTime), findErr)

	if findErr != nil {
		loggerCtx.Error("Failed to find scheduled messages by conversation after retries",
			zap.String("conversation_id", conversationID),
			zap.String("company_id", companyID),
			zap.Error(findErr))
		return nil, findErr
	}
	if msgs == nil {
		return []model.ScheduledMessage{}, nil
	}
	return msgs, nil
}

// ClaimDueScheduledMessages returns up to limit pending rows whose send time
// has passed. No row lock is taken; the worker runs as a singleton per
// company. Rows stay PENDING until the worker marks an outcome, so a crashed
// worker run is re-claimed on the next poll.
func (r *PostgresRepo) ClaimDueScheduledMessages(ctx context.Context, now time.Time, limit int) ([]model.ScheduledMessage, error) {
	companyID, err := tenant.FromContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to get tenant ID: %w", apperrors.ErrUnauthorized, err)
	}
	loggerCtx := logger.FromContext(ctx)

	var due []model.ScheduledMessage
	operation := func() error {
		result := r.db.WithContext(ctx).
			Where("company_id = ? AND status = ? AND send_at <= ?", companyID, model.ScheduledStatusPending, now).
			Order("send_at ASC").
			Limit(limit).
			Find(&due)
		if result.Error != nil {
			return fmt.Errorf("%w: query failed: %w", apperrors.ErrDatabase, result.Error)
		}
		return nil
	}

	readPolicy := newRetryPolicy(ctx, readRetryMaxElapsedTime)
	startTime := utils.Now()
	findErr := retryableOperation(ctx, readPolicy, "ClaimDueScheduledMessages", operation)
	observer.ObserveDbOperationDuration("claim_due", "scheduled_message", companyID, time.Since(startTime), findErr)

	if findErr != nil {
		loggerCtx.Error("Failed to claim due scheduled messages after retries",
			zap.String("company_id", companyID),
			zap.Error(findErr))
		return nil, findErr
	}
	if due == nil {
		return []model.ScheduledMessage{}, nil
	}
	return due, nil
}

// MarkScheduledMessageStatus records the outcome of a dispatch attempt.
func (r *PostgresRepo) MarkScheduledMessageStatus(ctx context.Context, id, status, lastError string) error {
	companyID, err := tenant.FromContext(ctx)
	if err != nil {
		return fmt.Errorf("%w: failed to get tenant ID: %w", apperrors.ErrUnauthorized, err)
	}

	operation := func() error {
		result := r.db.WithContext(ctx).
			Model(&model.ScheduledMessage{}).
			Where("id = ? AND company_id = ?", id, companyID).
			Updates(map[string]interface{}{
				"status":     status,
				"last_error": lastError,
				"updated_at": utils.Now(),
			})
		if result.Error != nil {
			return checkConstraintViolation(result.Error)
		}
		if result.RowsAffected == 0 {
			return backoff.Permanent(fmt.Errorf("%w: scheduled message %s", apperrors.ErrNotFound, id))
		}
		return nil
	}

	commitPolicy := newRetryPolicy(ctx, commitRetryMaxElapsedTime)
	startTime := utils.Now()
	commitErr := retryableOperation(ctx, commitPolicy, "MarkScheduledMessageStatus Commit", operation)
	observer.ObserveDbOperationDuration("mark_status", "scheduled_message", companyID, time.Since(startTime), commitErr)

	if commitErr != nil {
		logger.FromContext(ctx).Error("Failed to mark scheduled message status after retries",
			zap.String("scheduled_id", id),
			zap.String("status", status),
			zap.Error(commitErr))
		return commitErr
	}
	return nil
}
