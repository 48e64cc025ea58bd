package storage

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm/clause"

	apperrors "gitlab.com/crmcom/api/centralwap-router/internal/apperrors"
	"gitlab.com/crmcom/api/centralwap-router/internal/model"
	"gitlab.com/crmcom/api/centralwap-router/internal/observer"
	"gitlab.com/crmcom/api/centralwap-router/internal/tenant"
	"gitlab.com/crmcom/api/centralwap-router/pkg/logger"
	"gitlab.com/crmcom/api/centralwap-router/pkg/utils"
)

// --- Reaction Repository Methods ---

// UpsertReaction inserts a reaction or silently keeps the existing row when
// the same (message, user, emoji) tuple is re-added.
func (r *PostgresRepo) UpsertReaction(ctx context.Context, reaction model.Reaction) error {
	companyID, err := tenant.FromContext(ctx)
	if err != nil {
		return fmt.Errorf("%w: failed to get tenant ID: %w", apperrors.ErrUnauthorized, err)
	}
	if companyID != reaction.CompanyID {
		return fmt.Errorf("%w: reaction CompanyID %s does not match tenant ID %s", apperrors.ErrBadRequest, reaction.CompanyID, companyID)
	}

	operation := func() error {
		result := r.db.WithContext(ctx).Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "message_id"}, {Name: "user_id"}, {Name: "emoji"}},
			DoNothing: true,
		}).Create(&reaction)

		if result.Error != nil {
			return checkConstraintViolation(result.Error)
		}
		return nil
	}

	commitPolicy := newRetryPolicy(ctx, commitRetryMaxElapsedTime)
	startTime := utils.Now()
	commitErr := retryableOperation(ctx, commitPolicy, "UpsertReaction Commit", operation)
	observer.ObserveDbOperationDuration("upsert", "reaction", companyID, time.Since(startTime), commitErr)

	if commitErr != nil {
		logger.FromContext(ctx).Error("Failed to upsert reaction after retries",
			zap.String("message_id", reaction.MessageID),
			zap.String("user_id", reaction.UserID),
			zap.Error(commitErr))
		return commitErr
	}
	return nil
}

// DeleteReaction removes a reaction row. Deleting an absent row is not an error.
func (r *PostgresRepo) DeleteReaction(ctx context.Context, messageID, userID, emoji string) error {
	companyID, err := tenant.FromContext(ctx)
	if err != nil {
		return fmt.Errorf("%w: failed to get tenant ID: %w", apperrors.ErrUnauthorized, err)
	}

	operation := func() error {
		result := r.db.WithContext(ctx).
			Where("message_id = ? AND user_id = ? AND emoji = ? AND company_id = ?", messageID, userID, emoji, companyID).
			Delete(&model.Reaction{})
		if result.Error != nil {
			return checkConstraintViolation(result.Error)
		}
		if result.RowsAffected == 0 {
			logger.FromContext(ctx).Debug("DeleteReaction matched no rows",
				zap.String("message_id", messageID),
				zap.String("user_id", userID))
		}
		return nil
	}

	commitPolicy := newRetryPolicy(ctx, commitRetryMaxElapsedTime)
	startTime := utils.Now()
	commitErr := retryableOperation(ctx, commitPolicy, "DeleteReaction Commit", operation)
	observer.ObserveDbOperationDuration("delete", "reaction", companyID, time.Since(startTime), commitErr)

	if commitErr != nil {
		logger.FromContext(ctx).Error("Failed to delete reaction after retries",
			zap.String("message_id", messageID),
			zap.String("user_id", userID),
			zap.Error(commitErr))
		return commitErr
	}
	return nil
}

// FindReactionsByMessageID finds all reactions on a message.
func (r *PostgresRepo) FindReactionsByMessageID(ctx context.Context, messageID string) ([]model.Reaction, error) {
	companyID, err := tenant.FromContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to get tenant ID: %w", apperrors.ErrUnauthorized, err)
	}
	loggerCtx := logger.FromContext(ctx)

	var reactions []model.Reaction
	operation := func() error {
		result := r.db.WithContext(ctx).
			Where("message_id = ? AND company_id = ?", messageID, companyID).
			Order("created_at ASC").
			Find(&reactions)
		if result.Error != nil {
			return fmt.Errorf("%w: query failed: %w", apperrors.ErrDatabase, result.Error)
		}
		return nil // Success, even if no records found
	}

	readPolicy := newRetryPolicy(ctx, readRetryMaxElapsedTime)
	startTime := utils.Now()
	findErr := retryableOperation(ctx, readPolicy, "FindReactionsByMessageID", operation)
	observer.ObserveDbOperationDuration("find_by_message", "reaction", companyID, time.Since(startTime), findErr)

	if findErr != nil {
		loggerCtx.Error("Failed to find reactions by message after retries",
			zap.String("message_id", messageID),
			zap.String("company_id", companyID),
			zap.Error(findErr))
		return nil, findErr
	}
	if reactions == nil {
		return []model.Reaction{}, nil
	}
	return reactions, nil
}
