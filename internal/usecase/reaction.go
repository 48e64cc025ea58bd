package usecase

import (
	"context"
	"fmt"

	"gitlab.com/crmcom/api/centralwap-router/internal/apperrors"
	"gitlab.com/crmcom/api/centralwap-router/internal/model"
	"gitlab.com/crmcom/api/centralwap-router/internal/tenant"
	"gitlab.com/crmcom/api/centralwap-router/internal/validator"
	"gitlab.com/crmcom/api/centralwap-router/pkg/utils"
)

// AddReaction mirrors an emoji reaction to the provider first, then records
// it locally. A provider rejection leaves local state untouched so the two
// sides cannot drift with the provider missing a reaction we show.
func (s *Service) AddReaction(ctx context.Context, messageID string, payload model.ReactionPayload) (*model.Reaction, error) {
	if err := validator.Validate(payload); err != nil {
		return nil, fmt.Errorf("%w: %s", apperrors.ErrValidation, err.Error())
	}
	companyID, err := tenant.FromContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to get tenant ID from context: %w", apperrors.ErrUnauthorized, err)
	}

	message, toPhone, err := s.reactionTarget(ctx, messageID)
	if err != nil {
		return nil, err
	}

	if message.ProviderMessageID != "" {
		if err := s.reactionSender.SendReaction(ctx, toPhone, message.ProviderMessageID, payload.Emoji); err != nil {
			return nil, err
		}
	}

	reaction := model.Reaction{
		MessageID:   message.ID,
		UserID:      payload.UserID,
		Emoji:       payload.Emoji,
		AuthorPhone: payload.AuthorPhone,
		CompanyID:   companyID,
		CreatedAt:   utils.Now(),
	}
	if err := s.reactions.Upsert(ctx, reaction); err != nil {
		return nil, err
	}
	return &reaction, nil
}

// RemoveReaction clears the reaction upstream first, then deletes the local
// row. Deleting a reaction that was never recorded is a no-op.
func (s *Service) RemoveReaction(ctx context.Context, messageID string, payload model.ReactionPayload) error {
	if err := validator.Validate(payload); err != nil {
		return fmt.Errorf("%w: %s", apperrors.ErrValidation, err.Error())
	}

	message, toPhone, err := s.reactionTarget(ctx, messageID)
	if err != nil {
		return err
	}

	if message.ProviderMessageID != "" {
		if err := s.reactionSender.RemoveReaction(ctx, toPhone, message.ProviderMessageID); err != nil {
			return err
		}
	}

	return s.reactions.Delete(ctx, message.ID, payload.UserID, payload.Emoji)
}

// ListReactions returns the reactions recorded on a message.
func (s *Service) ListReactions(ctx context.Context, messageID string) ([]model.Reaction, error) {
	if _, err := s.messages.FindByID(ctx, messageID); err != nil {
		return nil, err
	}
	return s.reactions.FindByMessageID(ctx, messageID)
}

// reactionTarget resolves the message being reacted to and the contact phone
// the provider call must address.
func (s *Service) reactionTarget(ctx context.Context, messageID string) (*model.Message, string, error) {
	message, err := s.messages.FindByID(ctx, messageID)
	if err != nil {
		return nil, "", fmt.Errorf("find message %s: %w", messageID, err)
	}
	conversation, err := s.conversations.FindByID(ctx, message.ConversationID)
	if err != nil {
		return nil, "", fmt.Errorf("find conversation %s: %w", message.ConversationID, err)
	}
	contact, err := s.contacts.FindByID(ctx, conversation.ContactID)
	if err != nil {
		return nil, "", fmt.Errorf("find contact %s: %w", conversation.ContactID, err)
	}
	return message, contact.PhoneNumber, nil
}
