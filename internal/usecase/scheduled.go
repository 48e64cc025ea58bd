package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"gitlab.com/crmcom/api/centralwap-router/internal/apperrors"
	"gitlab.com/crmcom/api/centralwap-router/internal/model"
	"gitlab.com/crmcom/api/centralwap-router/internal/tenant"
	"gitlab.com/crmcom/api/centralwap-router/internal/validator"
	"gitlab.com/crmcom/api/centralwap-router/pkg/utils"
)

// CreateScheduledMessage queues an outbound message for future delivery.
func (s *Service) CreateScheduledMessage(ctx context.Context, payload model.ScheduledMessagePayload) (*model.ScheduledMessage, error) {
	if err := validator.Validate(payload); err != nil {
		return nil, fmt.Errorf("%w: %s", apperrors.ErrValidation, err.Error())
	}
	companyID, err := tenant.FromContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to get tenant ID from context: %w", apperrors.ErrUnauthorized, err)
	}

	sendAt, err := time.Parse(time.RFC3339, payload.SendAt)
	if err != nil {
		return nil, fmt.Errorf("%w: send_at must be RFC3339: %s", apperrors.ErrValidation, err.Error())
	}

	if _, err := s.conversations.FindByID(ctx, payload.ConversationID); err != nil {
		return nil, fmt.Errorf("find conversation %s: %w", payload.ConversationID, err)
	}

	scheduled := model.ScheduledMessage{
		ID:             uuid.NewString(),
		ConversationID: payload.ConversationID,
		Body:           payload.Body,
		SendAt:         sendAt.UTC(),
		Status:         model.ScheduledStatusPending,
		CompanyID:      companyID,
		CreatedAt:      utils.Now(),
		UpdatedAt:      utils.Now(),
	}
	if err := s.scheduled.Save(ctx, scheduled); err != nil {
		return nil, err
	}
	return &scheduled, nil
}

// GetScheduledMessage returns one scheduled message by ID.
func (s *Service) GetScheduledMessage(ctx context.Context, id string) (*model.ScheduledMessage, error) {
	return s.scheduled.FindByID(ctx, id)
}

// ListScheduledMessages returns a conversation's scheduled messages in
// send-at order.
func (s *Service) ListScheduledMessages(ctx context.Context, conversationID string) ([]model.ScheduledMessage, error) {
	if _, err := s.conversations.FindByID(ctx, conversationID); err != nil {
		return nil, err
	}
	return s.scheduled.FindByConversationID(ctx, conversationID)
}

// DispatchScheduled delivers one due scheduled message through the outbound
// dispatcher and marks the row SENT or FAILED. Failed rows stay for operator
// retry.
func (s *Service) DispatchScheduled(ctx context.Context, scheduled model.ScheduledMessage) error {
	conversation, err := s.conversations.FindByID(ctx, scheduled.ConversationID)
	if err != nil {
		return s.failScheduled(ctx, scheduled.ID, fmt.Errorf("find conversation %s: %w", scheduled.ConversationID, err))
	}
	contact, err := s.contacts.FindByID(ctx, conversation.ContactID)
	if err != nil {
		return s.failScheduled(ctx, scheduled.ID, fmt.Errorf("find contact %s: %w", conversation.ContactID, err))
	}

	message := model.Message{
		ID:             uuid.NewString(),
		ConversationID: conversation.ID,
		Body:           scheduled.Body,
		SenderRole:     model.SenderSystem,
		Timestamp:      utils.Now(),
		CompanyID:      conversation.CompanyID,
		CreatedAt:      utils.Now(),
	}
	if err := s.messages.SaveInbound(ctx, message); err != nil {
		return s.failScheduled(ctx, scheduled.ID, fmt.Errorf("persist scheduled message: %w", err))
	}

	if _, err := s.dispatcher.Dispatch(ctx, conversation, contact, &message, ""); err != nil {
		return s.failScheduled(ctx, scheduled.ID, err)
	}

	return s.scheduled.MarkStatus(ctx, scheduled.ID, model.ScheduledStatusSent, "")
}

func (s *Service) failScheduled(ctx context.Context, id string, cause error) error {
	if markErr := s.scheduled.MarkStatus(ctx, id, model.ScheduledStatusFailed, cause.Error()); markErr != nil {
		return fmt.Errorf("mark scheduled message failed: %w (dispatch error: %s)", markErr, cause.Error())
	}
	return cause
}
