package storage

import (
	"context"
	"time"

	"gitlab.com/crmcom/api/centralwap-router/internal/model"
)

// ContactRepoAdapter adapts the PostgresRepo to the ContactRepo interface
type ContactRepoAdapter struct {
	postgres *PostgresRepo
}

// NewContactRepoAdapter creates a new contact repository adapter
func NewContactRepoAdapter(postgres *PostgresRepo) ContactRepo {
	return &ContactRepoAdapter{postgres: postgres}
}

// Save saves a contact
func (a *ContactRepoAdapter) Save(ctx context.Context, contact model.Contact) error {
	return a.postgres.SaveContact(ctx, contact)
}

// Update updates a contact
func (a *ContactRepoAdapter) Update(ctx context.Context, contact model.Contact) error {
	return a.postgres.UpdateContact(ctx, contact)
}

// FindByID finds a contact by ID
func (a *ContactRepoAdapter) FindByID(ctx context.Context, id string) (*model.Contact, error) {
	return a.postgres.FindContactByID(ctx, id)
}

// FindByPhone finds a contact by canonical phone number
func (a *ContactRepoAdapter) FindByPhone(ctx context.Context, phone string) (*model.Contact, error) {
	return a.postgres.FindContactByPhone(ctx, phone)
}

// Search finds contacts matching a name or phone fragment
func (a *ContactRepoAdapter) Search(ctx context.Context, query string, limit, offset int) ([]model.Contact, error) {
	return a.postgres.SearchContacts(ctx, query, limit, offset)
}

func (a *ContactRepoAdapter) Close(ctx context.Context) error {
	return a.postgres.Close(ctx)
}

// ConversationRepoAdapter adapts the PostgresRepo to the ConversationRepo interface
type ConversationRepoAdapter struct {
	postgres *PostgresRepo
}

// NewConversationRepoAdapter creates a new conversation repository adapter
func NewConversationRepoAdapter(postgres *PostgresRepo) ConversationRepo {
	return &ConversationRepoAdapter{postgres: postgres}
}

// Save creates a conversation
func (a *ConversationRepoAdapter) Save(ctx context.Context, conversation model.Conversation) error {
	return a.postgres.SaveConversation(ctx, conversation)
}

// Update updates a conversation
func (a *ConversationRepoAdapter) Update(ctx context.Context, conversation model.Conversation) error {
	return a.postgres.UpdateConversation(ctx, conversation)
}

// FindByID finds a conversation by ID
func (a *ConversationRepoAdapter) FindByID(ctx context.Context, id string) (*model.Conversation, error) {
	return a.postgres.FindConversationByID(ctx, id)
}

// FindOpenByContactID finds the newest non-closed conversation for a contact
func (a *ConversationRepoAdapter) FindOpenByContactID(ctx context.Context, contactID string) (*model.Conversation, error) {
	return a.postgres.FindOpenConversationByContactID(ctx, contactID)
}

// FindByContactID finds conversations for a contact
func (a *ConversationRepoAdapter) FindByContactID(ctx context.Context, contactID string, limit, offset int) ([]model.Conversation, error) {
	return a.postgres.FindConversationsByContactID(ctx, contactID, limit, offset)
}

func (a *ConversationRepoAdapter) Close(ctx context.Context) error {
	return a.postgres.Close(ctx)
}

// MessageRepoAdapter adapts the PostgresRepo to the MessageRepo interface
type MessageRepoAdapter struct {
	postgres *PostgresRepo
}

// NewMessageRepoAdapter creates a new message repository adapter
func NewMessageRepoAdapter(postgres *PostgresRepo) MessageRepo {
	return &MessageRepoAdapter{postgres: postgres}
}

// SaveInbound saves a message and bumps the conversation atomically
func (a *MessageRepoAdapter) SaveInbound(ctx context.Context, message model.Message) error {
	return a.postgres.SaveInboundMessage(ctx, message)
}

// Save saves a message
func (a *MessageRepoAdapter) Save(ctx context.Context, message model.Message) error {
	return a.postgres.SaveMessage(ctx, message)
}

// FindByID finds a message by internal ID
func (a *MessageRepoAdapter) FindByID(ctx context.Context, id string) (*model.Message, error) {
	return a.postgres.FindMessageByID(ctx, id)
}

// FindByProviderID finds a message by the provider-assigned ID
func (a *MessageRepoAdapter) FindByProviderID(ctx context.Context, providerID string) (*model.Message, error) {
	return a.postgres.FindMessageByProviderID(ctx, providerID)
}

// FindByConversationID finds messages in a conversation
func (a *MessageRepoAdapter) FindByConversationID(ctx context.Context, conversationID string, limit, offset int) ([]model.Message, error) {
	return a.postgres.FindMessagesByConversationID(ctx, conversationID, limit, offset)
}

func (a *MessageRepoAdapter) Close(ctx context.Context) error {
	return a.postgres.Close(ctx)
}

// ReactionRepoAdapter adapts the PostgresRepo to the ReactionRepo interface
type ReactionRepoAdapter struct {
	postgres *PostgresRepo
}

// NewReactionRepoAdapter creates a new reaction repository adapter
func NewReactionRepoAdapter(postgres *PostgresRepo) ReactionRepo {
	return &ReactionRepoAdapter{postgres: postgres}
}

// Upsert inserts or keeps a reaction
func (a *ReactionRepoAdapter) Upsert(ctx context.Context, reaction model.Reaction) error {
	return a.postgres.UpsertReaction(ctx, reaction)
}

// Delete removes a reaction
func (a *ReactionRepoAdapter) Delete(ctx context.Context, messageID, userID, emoji string) error {
	return a.postgres.DeleteReaction(ctx, messageID, userID, emoji)
}

// FindByMessageID finds reactions on a message
func (a *ReactionRepoAdapter) FindByMessageID(ctx context.Context, messageID string) ([]model.Reaction, error) {
	return a.postgres.FindReactionsByMessageID(ctx, messageID)
}

func (a *ReactionRepoAdapter) Close(ctx context.Context) error {
	return a.postgres.Close(ctx)
}

// ScheduledMessageRepoAdapter adapts the PostgresRepo to the ScheduledMessageRepo interface
type ScheduledMessageRepoAdapter struct {
	postgres *PostgresRepo
}

// NewScheduledMessageRepoAdapter creates a new scheduled message repository adapter
func NewScheduledMessageRepoAdapter(postgres *PostgresRepo) ScheduledMessageRepo {
	return &ScheduledMessageRepoAdapter{postgres: postgres}
}

// Save creates a scheduled message
func (a *ScheduledMessageRepoAdapter) Save(ctx context.Context, msg model.ScheduledMessage) error {
	return a.postgres.SaveScheduledMessage(ctx, msg)
}

// Update updates a scheduled message
func (a *ScheduledMessageRepoAdapter) Update(ctx context.Context, msg model.ScheduledMessage) error {
	return a.postgres.UpdateScheduledMessage(ctx, msg)
}

// FindByID finds a scheduled message by ID
func (a *ScheduledMessageRepoAdapter) FindByID(ctx context.Context, id string) (*model.ScheduledMessage, error) {
	return a.postgres.FindScheduledMessageByID(ctx, id)
}

// FindByConversationID finds scheduled messages for a conversation
func (a *ScheduledMessageRepoAdapter) FindByConversationID(ctx context.Context, conversationID string) ([]model.ScheduledMessage, error) {
	return a.postgres.FindScheduledMessagesByConversationID(ctx, conversationID)
}

// ClaimDue returns pending rows whose send time has passed
func (a *ScheduledMessageRepoAdapter) ClaimDue(ctx context.Context, now time.Time, limit int) ([]model.ScheduledMessage, error) {
	return a.postgres.ClaimDueScheduledMessages(ctx, now, limit)
}

// MarkStatus records the outcome of a dispatch attempt
func (a *ScheduledMessageRepoAdapter) MarkStatus(ctx context.Context, id, status, lastError string) error {
	return a.postgres.MarkScheduledMessageStatus(ctx, id, status, lastError)
}

func (a *ScheduledMessageRepoAdapter) Close(ctx context.Context) error {
	return a.postgres.Close(ctx)
}

// Ensure adapters implement the interfaces
var _ ContactRepo = (*ContactRepoAdapter)(nil)
var _ ConversationRepo = (*ConversationRepoAdapter)(nil)
var _ MessageRepo = (*MessageRepoAdapter)(nil)
var _ ReactionRepo = (*ReactionRepoAdapter)(nil)
var _ ScheduledMessageRepo = (*ScheduledMessageRepoAdapter)(nil)
