package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	apperrors "gitlab.com/crmcom/api/centralwap-router/internal/apperrors"
	"gitlab.com/crmcom/api/centralwap-router/internal/model"
	"gitlab.com/crmcom/api/centralwap-router/internal/observer"
	"gitlab.com/crmcom/api/centralwap-router/internal/tenant"
	"gitlab.com/crmcom/api/centralwap-router/pkg/logger"
	"gitlab.com/crmcom/api/centralwap-router/pkg/utils"
)

// SaveInboundMessage stores a message and bumps the parent conversation's
// last activity timestamp in the same transaction, so a crash between the
// two writes cannot leave the conversation ordering stale.
func (r *PostgresRepo) SaveInboundMessage(ctx context.Context, message model.Message) error {
	companyID, err := tenant.FromContext(ctx)
	if err != nil {
		return fmt.Errorf("%w: failed to get tenant ID: %w", apperrors.ErrUnauthorized, err)
	}
	if companyID != message.CompanyID {
		return fmt.Errorf("%w: message CompanyID %s does not match tenant ID %s", apperrors.ErrBadRequest, message.CompanyID, companyID)
	}

	operation := func() error {
		tx := r.db.WithContext(ctx).Begin()
		if tx.Error != nil {
			return fmt.Errorf("%w: failed to begin transaction: %w", apperrors.ErrDatabase, tx.Error)
		}
		var txErr error
		defer func() {
			if r := recover(); r != nil {
				tx.Rollback()
				panic(r)
			} else if txErr != nil {
				if rbErr := tx.Rollback().Error; rbErr != nil {
					logger.FromContext(ctx).Error("Failed to rollback transaction after error", zap.Error(rbErr), zap.NamedError("originalTxError", txErr))
				}
			}
		}()

		var conversation model.Conversation
		result := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("id = ? AND company_id = ?", message.ConversationID, companyID).
			First(&conversation)
		if result.Error != nil {
			if errors.Is(result.Error, gorm.ErrRecordNotFound) {
				txErr = fmt.Errorf("%w: conversation %s: %w", apperrors.ErrNotFound, message.ConversationID, result.Error)
				return backoff.Permanent(txErr)
			}
			txErr = fmt.Errorf("%w: failed to lock conversation row: %w", apperrors.ErrDatabase, result.Error)
			return txErr
		}

		if createErr := tx.Create(&message).Error; createErr != nil {
			txErr = checkConstraintViolation(createErr)
			return txErr
		}

		updates := map[string]interface{}{
			"last_activity_at": message.Timestamp,
			"updated_at":       utils.Now(),
		}
		if conversation.Status == model.ConversationStatusNew {
			updates["status"] = model.ConversationStatusActive
		}
		if updateErr := tx.Model(&conversation).Updates(updates).Error; updateErr != nil {
			txErr = checkConstraintViolation(updateErr)
			return txErr
		}

		if commitErr := tx.Commit().Error; commitErr != nil {
			txErr = fmt.Errorf("%w: failed to commit inbound message transaction: %w", apperrors.ErrDatabase, commitErr)
			return txErr
		}
		return nil
	}

	commitPolicy := newRetryPolicy(ctx, commitRetryMaxElapsedTime)
	startTime := utils.Now()
	commitErr := retryableOperation(ctx, commitPolicy, "SaveInboundMessage Commit", operation)
	observer.ObserveDbOperationDuration("save_inbound", "message", companyID, time.Since(startTime), commitErr)

	if commitErr != nil {
		logger.FromContext(ctx).Error("Failed to save inbound message after retries", zap.String("message_id", message.ID), zap.Error(commitErr))
		return commitErr
	}
	return nil
}

// SaveMessage stores a message without touching the conversation row.
func (r *PostgresRepo) SaveMessage(ctx context.Context, message model.Message) error {
	companyID, err := tenant.FromContext(ctx)
	if err != nil {
		return fmt.Errorf("%w: failed to get tenant ID: %w", apperrors.ErrUnauthorized, err)
	}
	if companyID != message.CompanyID {
		return fmt.Errorf("%w: message CompanyID %s does not match tenant ID %s", apperrors.ErrBadRequest, message.CompanyID, companyID)
	}

	operation := func() error {
		if createErr := r.db.WithContext(ctx).Create(&message).Error; createErr != nil {
			return checkConstraintViolation(createErr)
		}
		return nil
	}

	commitPolicy := newRetryPolicy(ctx, commitRetryMaxElapsedTime)
	startTime := utils.Now()
	commitErr := retryableOperation(ctx, commitPolicy, "SaveMessage Commit", operation)
	observer.ObserveDbOperationDuration("save", "message", companyID, time.Since(startTime), commitErr)

	if commitErr != nil {
		logger.FromContext(ctx).Error("Failed to save message after retries", zap.String("message_id", message.ID), zap.Error(commitErr))
		return commitErr
	}
	return nil
}

// FindMessageByID finds a message by its internal ID.
func (r *PostgresRepo) FindMessageByID(ctx context.Context, id string) (*model.Message, error) {
	companyID, err := tenant.FromContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to get tenant ID: %w", apperrors.ErrUnauthorized, err)
	}
	loggerCtx := logger.FromContext(ctx)

	var message model.Message
	operation := func() error {
		result := r.db.WithContext(ctx).Where("id = ? AND company_id = ?", id, companyID).First(&message)
		if result.Error != nil {
			if errors.Is(result.Error, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: message_id %s: %w", apperrors.ErrNotFound, id, result.Error)
			}
			return fmt.Errorf("%w: query failed: %w", apperrors.ErrDatabase, result.Error)
		}
		return nil
	}

	readPolicy := newRetryPolicy(ctx, readRetryMaxElapsedTime)
	startTime := utils.Now()
	findErr := retryableOperation(ctx, readPolicy, "FindMessageByID", operation)
	observer.ObserveDbOperationDuration("find_by_id", "message", companyID, time.Since(startTime), findErr)

	if findErr != nil {
		if errors.Is(findErr, apperrors.ErrNotFound) {
			return nil, apperrors.ErrNotFound
		}
		loggerCtx.Error("Failed to find message by ID after retries",
			zap.String("message_id", id),
			zap.String("company_id", companyID),
			zap.Error(findErr))
		return nil, findErr
	}
	return &message, nil
}

// FindMessageByProviderID finds a message by the provider-assigned message ID.
// Used to resolve quoted replies.
func (r *PostgresRepo) FindMessageByProviderID(ctx context.Context, providerID string) (*model.Message, error) {
	companyID, err := tenant.FromContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to get tenant ID: %w", apperrors.ErrUnauthorized, err)
	}
	loggerCtx := logger.FromContext(ctx)

	var message model.Message
	operation := func() error {
		result := r.db.WithContext(ctx).
			Where("provider_message_id = ? AND company_id = ?", providerID, companyID).
			Order("created_at DESC").
			First(&message)
		if result.Error != nil {
			if errors.Is(result.Error, gorm.ErrRecordNotFound) {
				return backoff.Permanent(fmt.Errorf("%w: provider_message_id %s: %w", apperrors.ErrNotFound, providerID, result.Error))
			}
			return fmt.Errorf("%w: query failed: %w", apperrors.ErrDatabase, result.Error)
		}
		return nil
	}

	readPolicy := newRetryPolicy(ctx, readRetryMaxElapsedTime)
	startTime := utils.Now()
	findErr := retryableOperation(ctx, readPolicy, "FindMessageByProviderID", operation)
	observer.ObserveDbOperationDuration("find_by_provider_id", "message", companyID, time.Since(startTime), findErr)

	if findErr != nil {
		if errors.Is(findErr, apperrors.ErrNotFound) {
			return nil, apperrors.ErrNotFound
		}
		loggerCtx.Error("Failed to find message by provider ID after retries",
			zap.String("provider_message_id", providerID),
			zap.String("company_id", companyID),
			zap.Error(findErr))
		return nil, findErr
	}
	return &message, nil
}

// FindMessagesByConversationID finds messages in a conversation, oldest first.
func (r *PostgresRepo) FindMessagesByConversationID(ctx context.Context, conversationID string, limit, offset int) ([]model.Message, error) {
	companyID, err := tenant.FromContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to get tenant ID: %w", apperrors.ErrUnauthorized, err)
	}
	loggerCtx := logger.FromContext(ctx)

	var messages []model.Message
	operation := func() error {
		result := r.db.WithContext(ctx).
			Where("conversation_id = ? AND company_id = ?", conversationID, companyID).
			Order("timestamp ASC").
			Limit(limit).
			Offset(offset).
			Find(&messages)
		if result.Error != nil {
			return fmt.Errorf("%w: query failed: %w", apperrors.ErrDatabase, result.Error)
		}
		return nil // Success, even if no records found
	}

	readPolicy := newRetryPolicy(ctx, readRetryMaxElapsedTime)
	startTime := utils.Now()
	findErr := retryableOperation(ctx, readPolicy, "FindMessagesByConversationID", operation)
	observer.ObserveDbOperationDuration("find_by_conversation", "message", companyID, time.Since(startTime), findErr)

	if findErr != nil {
		loggerCtx.Error("Failed to find messages by conversation after retries",
			zap.String("conversation_id", conversationID),
			zap.String("company_id", companyID),
			zap.Int("limit", limit),
			zap.Int("offset", offset),
			zap.Error(findErr))
		return nil, findErr
	}
	if messages == nil {
		return []model.Message{}, nil
	}
	return messages, nil
}
