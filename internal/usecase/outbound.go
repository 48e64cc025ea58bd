package usecase

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"gitlab.com/crmcom/api/centralwap-router/internal/apperrors"
	"gitlab.com/crmcom/api/centralwap-router/internal/model"
	"gitlab.com/crmcom/api/centralwap-router/internal/validator"
	"gitlab.com/crmcom/api/centralwap-router/pkg/utils"
)

// SendMessage persists an outbound message on a conversation and dispatches
// it through the resolved transport. The row is persisted before dispatch, so
// a delivery failure leaves the message in the log; the dispatch error is
// surfaced to the caller alongside the persisted message.
func (s *Service) SendMessage(ctx context.Context, payload model.SendMessagePayload) (*model.Message, error) {
	if err := validator.Validate(payload); err != nil {
		return nil, fmt.Errorf("%w: %s", apperrors.ErrValidation, err.Error())
	}

	conversation, err := s.conversations.FindByID(ctx, payload.ConversationID)
	if err != nil {
		return nil, fmt.Errorf("find conversation %s: %w", payload.ConversationID, err)
	}
	contact, err := s.contacts.FindByID(ctx, conversation.ContactID)
	if err != nil {
		return nil, fmt.Errorf("find contact %s: %w", conversation.ContactID, err)
	}

	var replyToProviderID string
	if payload.ReplyToID != "" {
		quoted, err := s.messages.FindByID(ctx, payload.ReplyToID)
		if err != nil {
			return nil, fmt.Errorf("find reply-to message %s: %w", payload.ReplyToID, err)
		}
		if quoted.ConversationID != conversation.ID {
			return nil, fmt.Errorf("%w: reply_to_id references a message outside conversation %s", apperrors.ErrValidation, conversation.ID)
		}
		replyToProviderID = quoted.ProviderMessageID
	}

	senderRole := payload.SenderRole
	if senderRole == "" {
		senderRole = model.SenderAgent
	}

	message := model.Message{
		ID:             uuid.NewString(),
		ConversationID: conversation.ID,
		Body:           payload.Body,
		SenderRole:     senderRole,
		ReplyToID:      payload.ReplyToID,
		MediaURL:       payload.MediaURL,
		MediaMimeType:  payload.MediaMimeType,
		Timestamp:      utils.Now(),
		CompanyID:      conversation.CompanyID,
		CreatedAt:      utils.Now(),
	}

	if err := s.messages.SaveInbound(ctx, message); err != nil {
		return nil, fmt.Errorf("persist outbound message: %w", err)
	}

	providerID, err := s.dispatcher.Dispatch(ctx, conversation, contact, &message, replyToProviderID)
	if err != nil {
		return &message, err
	}
	message.ProviderMessageID = providerID
	return &message, nil
}
