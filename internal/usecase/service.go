package usecase

import (
	"context"

	"gitlab.com/crmcom/api/centralwap-router/internal/config"
	"gitlab.com/crmcom/api/centralwap-router/internal/model"
	"gitlab.com/crmcom/api/centralwap-router/internal/normalize"
	"gitlab.com/crmcom/api/centralwap-router/internal/storage"
)

// MessageDispatcher delivers one outbound message through the transport
// resolved for the conversation's line.
type MessageDispatcher interface {
	Dispatch(ctx context.Context, conversation *model.Conversation, contact *model.Contact, message *model.Message, replyToProviderID string) (string, error)
}

// ReactionSender mirrors emoji reactions to the messaging provider.
type ReactionSender interface {
	SendReaction(ctx context.Context, toPhone, targetProviderID, emoji string) error
	RemoveReaction(ctx context.Context, toPhone, targetProviderID string) error
}

// EventPublisher emits inbound-message events for downstream consumers.
// Publishing is best-effort and never fails the caller.
type EventPublisher interface {
	PublishInbound(ctx context.Context, message model.Message, conversation model.Conversation, contactPhone string)
}

// Service implements the application operations: inbound webhook processing,
// outbound sends, reactions, conversation and contact queries, and scheduled
// messages.
type Service struct {
	contacts      storage.ContactRepo
	conversations storage.ConversationRepo
	messages      storage.MessageRepo
	reactions     storage.ReactionRepo
	scheduled     storage.ScheduledMessageRepo

	dispatcher     MessageDispatcher
	reactionSender ReactionSender
	publisher      EventPublisher

	phones  *normalize.PhoneNormalizer
	routing config.RoutingConfig
}

// NewService creates the application service.
func NewService(
	contacts storage.ContactRepo,
	conversations storage.ConversationRepo,
	messages storage.MessageRepo,
	reactions storage.ReactionRepo,
	scheduled storage.ScheduledMessageRepo,
	dispatcher MessageDispatcher,
	reactionSender ReactionSender,
	publisher EventPublisher,
	phones *normalize.PhoneNormalizer,
	routing config.RoutingConfig,
) *Service {
	return &Service{
		contacts:       contacts,
		conversations:  conversations,
		messages:       messages,
		reactions:      reactions,
		scheduled:      scheduled,
		dispatcher:     dispatcher,
		reactionSender: reactionSender,
		publisher:      publisher,
		phones:         phones,
		routing:        routing,
	}
}

// areaForInbox resolves the business area an inbox routes to.
func (s *Service) areaForInbox(inboxID string) string {
	if area, ok := s.routing.Inboxes[inboxID]; ok && area != "" {
		return area
	}
	return s.routing.DefaultArea
}

// lineForInbox resolves the origin line recorded for conversations created
// from an inbox.
func (s *Service) lineForInbox(inboxID string) string {
	if line, ok := s.routing.InboxLines[inboxID]; ok && line != "" {
		return line
	}
	return s.routing.DefaultLine
}
