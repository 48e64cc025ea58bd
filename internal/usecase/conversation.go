package usecase

import (
	"context"
	"fmt"

	"gitlab.com/crmcom/api/centralwap-router/internal/apperrors"
	"gitlab.com/crmcom/api/centralwap-router/internal/model"
	"gitlab.com/crmcom/api/centralwap-router/internal/validator"
	"gitlab.com/crmcom/api/centralwap-router/pkg/utils"
)

const defaultPageSize = 50

// GetConversation returns one conversation by ID.
func (s *Service) GetConversation(ctx context.Context, id string) (*model.Conversation, error) {
	return s.conversations.FindByID(ctx, id)
}

// UpdateConversation applies an operator update to a conversation. Only the
// operator-controlled columns are touched; attribution is immutable.
func (s *Service) UpdateConversation(ctx context.Context, id string, payload model.UpdateConversationPayload) (*model.Conversation, error) {
	if err := validator.Validate(payload); err != nil {
		return nil, fmt.Errorf("%w: %s", apperrors.ErrValidation, err.Error())
	}

	conversation, err := s.conversations.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if payload.Status != "" {
		conversation.Status = payload.Status
	}
	if payload.Area != "" {
		conversation.Area = payload.Area
	}
	if payload.OriginLine != "" {
		conversation.OriginLine = payload.OriginLine
	}
	if payload.FallbackInbox != "" {
		conversation.FallbackInbox = payload.FallbackInbox
	}
	if payload.AssignedTo != "" {
		conversation.AssignedTo = payload.AssignedTo
	}
	conversation.UpdatedAt = utils.Now()

	if err := s.conversations.Update(ctx, *conversation); err != nil {
		return nil, err
	}
	return conversation, nil
}

// ListConversationMessages returns a conversation's messages in timestamp order.
func (s *Service) ListConversationMessages(ctx context.Context, conversationID string, limit, offset int) ([]model.Message, error) {
	if limit <= 0 {
		limit = defaultPageSize
	}
	if _, err := s.conversations.FindByID(ctx, conversationID); err != nil {
		return nil, err
	}
	return s.messages.FindByConversationID(ctx, conversationID, limit, offset)
}

// ListContactConversations returns a contact's conversations, most recent first.
func (s *Service) ListContactConversations(ctx context.Context, contactID string, limit, offset int) ([]model.Conversation, error) {
	if limit <= 0 {
		limit = defaultPageSize
	}
	return s.conversations.FindByContactID(ctx, contactID, limit, offset)
}

// SearchContacts matches contacts by phone-number fragment or display name.
func (s *Service) SearchContacts(ctx context.Context, query string, limit, offset int) ([]model.Contact, error) {
	if query == "" {
		return nil, fmt.Errorf("%w: search query is required", apperrors.ErrValidation)
	}
	if limit <= 0 {
		limit = defaultPageSize
	}
	return s.contacts.Search(ctx, query, limit, offset)
}
