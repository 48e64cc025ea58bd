package storage

import (
	"context"
	"time"

	"gitlab.com/crmcom/api/centralwap-router/internal/model"
)

// ContactRepo defines contact storage operations
type ContactRepo interface {
	Save(ctx context.Context, contact model.Contact) error
	Update(ctx context.Context, contact model.Contact) error
	FindByID(ctx context.Context, id string) (*model.Contact, error)
	FindByPhone(ctx context.Context, phone string) (*model.Contact, error)
	Search(ctx context.Context, query string, limit, offset int) ([]model.Contact, error)
	Close(ctx context.Context) error
}

// ConversationRepo defines conversation storage operations
type ConversationRepo interface {
	Save(ctx context.Context, conversation model.Conversation) error
	Update(ctx context.Context, conversation model.Conversation) error
	FindByID(ctx context.Context, id string) (*model.Conversation, error)
	FindOpenByContactID(ctx context.Context, contactID string) (*model.Conversation, error)
	FindByContactID(ctx context.Context, contactID string, limit, offset int) ([]model.Conversation, error)
	Close(ctx context.Context) error
}

// MessageRepo defines message storage operations
type MessageRepo interface {
	// SaveInbound persists the message and bumps the conversation's
	// last activity timestamp atomically.
	SaveInbound(ctx context.Context, message model.Message) error
	Save(ctx context.Context, message model.Message) error
	FindByID(ctx context.Context, id string) (*model.Message, error)
	FindByProviderID(ctx context.Context, providerID string) (*model.Message, error)
	FindByConversationID(ctx context.Context, conversationID string, limit, offset int) ([]model.Message, error)
	Close(ctx context.Context) error
}

// ReactionRepo defines reaction storage operations
type ReactionRepo interface {
	Upsert(ctx context.Context, reaction model.Reaction) error
	Delete(ctx context.Context, messageID, userID, emoji string) error
	FindByMessageID(ctx context.Context, messageID string) ([]model.Reaction, error)
	Close(ctx context.Context) error
}

// ScheduledMessageRepo defines scheduled message storage operations
type ScheduledMessageRepo interface {
	Save(ctx context.Context, msg model.ScheduledMessage) error
	Update(ctx context.Context, msg model.ScheduledMessage) error
	FindByID(ctx context.Context, id string) (*model.ScheduledMessage, error)
	FindByConversationID(ctx context.Context, conversationID string) ([]model.ScheduledMessage, error)
	ClaimDue(ctx context.Context, now time.Time, limit int) ([]model.ScheduledMessage, error)
	MarkStatus(ctx context.Context, id, status, lastError string) error
	Close(ctx context.Context) error
}
