package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/datatypes"

	"gitlab.com/crmcom/api/centralwap-router/internal/apperrors"
	"gitlab.com/crmcom/api/centralwap-router/internal/model"
	"gitlab.com/crmcom/api/centralwap-router/internal/normalize"
	"gitlab.com/crmcom/api/centralwap-router/internal/observer"
	"gitlab.com/crmcom/api/centralwap-router/internal/tenant"
	"gitlab.com/crmcom/api/centralwap-router/pkg/logger"
	"gitlab.com/crmcom/api/centralwap-router/pkg/utils"
)

// ProcessWebhook walks one provider webhook payload and processes every
// message element. Per-message failures are logged and counted; they never
// abort the remaining elements and never surface to the webhook response.
func (s *Service) ProcessWebhook(ctx context.Context, payload model.WebhookPayload) {
	log := logger.FromContext(ctx)

	for _, entry := range payload.Entry {
		for _, change := range entry.Changes {
			value := change.Value

			if len(value.Statuses) > 0 {
				log.Debug("Ignoring delivery status elements", zap.Int("count", len(value.Statuses)))
			}

			for _, msg := range value.Messages {
				if err := s.processInbound(ctx, msg, value.Metadata, value.Contacts); err != nil {
					log.Error("Failed to process inbound message",
						zap.String("provider_message_id", msg.ID),
						zap.String("from", msg.From),
						zap.Error(err))
				}
			}
		}
	}
}

// processInbound runs the full inbound pipeline for one message element:
// normalize, resolve contact and conversation, persist, publish.
func (s *Service) processInbound(ctx context.Context, msg model.InboundMessage, meta *model.WebhookMetadata, contacts []model.WebhookContact) error {
	companyID, err := tenant.FromContext(ctx)
	if err != nil {
		return fmt.Errorf("%w: failed to get tenant ID from context: %w", apperrors.ErrUnauthorized, err)
	}

	messageType := msg.Type
	if messageType == "" {
		messageType = "unknown"
	}

	norm := normalize.NormalizeInbound(msg, meta)
	line := s.lineForInbox(norm.InboxID)

	observer.IncWebhookMessagesReceived(messageType, companyID, line)
	startTime := utils.Now()
	defer func() {
		observer.ObserveWebhookProcessingDuration(messageType, companyID, line, time.Since(startTime))
	}()

	phone, err := s.phones.Normalize(norm.FromPhone)
	if err != nil {
		observer.IncWebhookMessagesFailed(messageType, companyID, line)
		observer.IncWebhookProcessingAction(messageType, companyID, line, "drop", observer.SanitizeErrorType(err.Error()))
		return fmt.Errorf("normalize sender phone %q: %w", norm.FromPhone, err)
	}

	// Retried deliveries repeat the same provider message ID.
	if norm.ProviderMessageID != "" {
		if _, findErr := s.messages.FindByProviderID(ctx, norm.ProviderMessageID); findErr == nil {
			observer.IncWebhookProcessingAction(messageType, companyID, line, "skip_duplicate", "")
			logger.FromContext(ctx).Debug("Skipping duplicate inbound message",
				zap.String("provider_message_id", norm.ProviderMessageID))
			return nil
		} else if !apperrors.IsNotFoundError(findErr) {
			observer.IncWebhookMessagesFailed(messageType, companyID, line)
			return fmt.Errorf("dedupe lookup: %w", findErr)
		}
	}

	routingStart := utils.Now()
	contact, err := s.resolveContact(ctx, phone, profileName(contacts, msg.From), line, companyID)
	if err != nil {
		observer.IncWebhookMessagesFailed(messageType, companyID, line)
		return fmt.Errorf("resolve contact: %w", err)
	}

	conversation, created, err := s.resolveConversation(ctx, contact, norm, companyID)
	observer.ObserveRoutingResolutionDuration(messageType, companyID, line, time.Since(routingStart))
	if err != nil {
		observer.IncWebhookMessagesFailed(messageType, companyID, line)
		return fmt.Errorf("resolve conversation: %w", err)
	}
	if created {
		observer.IncWebhookProcessingAction(messageType, companyID, line, "create_conversation", "")
	}

	message := buildInboundMessage(norm, conversation, companyID)
	message.ReplyToID = s.resolveReplyTo(ctx, norm.ReplyToProviderID, conversation.ID)

	if err := s.messages.SaveInbound(ctx, message); err != nil {
		observer.IncWebhookMessagesFailed(messageType, companyID, line)
		return fmt.Errorf("persist inbound message: %w", err)
	}

	s.publisher.PublishInbound(ctx, message, *conversation, contact.PhoneNumber)

	observer.IncWebhookMessagesProcessed(messageType, companyID, line)
	return nil
}

// resolveContact finds the contact for a canonical phone number, creating it
// on first sight. Two concurrent first messages can create two rows; that
// race is tolerated, not corrected.
func (s *Service) resolveContact(ctx context.Context, phone, displayName, line, companyID string) (*model.Contact, error) {
	contact, err := s.contacts.FindByPhone(ctx, phone)
	if err == nil {
		if displayName != "" && contact.DisplayName != displayName {
			contact.DisplayName = displayName
			contact.UpdatedAt = utils.Now()
			if updErr := s.contacts.Save(ctx, *contact); updErr != nil {
				logger.FromContext(ctx).Warn("Failed to refresh contact profile",
					zap.String("contact_id", contact.ID), zap.Error(updErr))
			}
		}
		return contact, nil
	}
	if !apperrors.IsNotFoundError(err) {
		return nil, err
	}

	contact = &model.Contact{
		ID:          uuid.NewString(),
		PhoneNumber: phone,
		DisplayName: displayName,
		Origin:      line,
		CompanyID:   companyID,
		CreatedAt:   utils.Now(),
		UpdatedAt:   utils.Now(),
	}
	if err := s.contacts.Save(ctx, *contact); err != nil {
		return nil, err
	}
	return contact, nil
}

// resolveConversation finds the contact's open conversation or creates one
// routed by the inbox's configured area. Attribution is computed once at
// creation time and never recomputed from later messages.
func (s *Service) resolveConversation(ctx context.Context, contact *model.Contact, norm model.NormalizedMessage, companyID string) (*model.Conversation, bool, error) {
	conversation, err := s.conversations.FindOpenByContactID(ctx, contact.ID)
	if err == nil {
		return conversation, false, nil
	}
	if !apperrors.IsNotFoundError(err) {
		return nil, false, err
	}

	conversation = &model.Conversation{
		ID:             uuid.NewString(),
		ContactID:      contact.ID,
		Area:           s.areaForInbox(norm.InboxID),
		Status:         model.ConversationStatusNew,
		OriginLine:     s.lineForInbox(norm.InboxID),
		LastActivityAt: norm.Timestamp,
		CompanyID:      companyID,
		CreatedAt:      utils.Now(),
		UpdatedAt:      utils.Now(),
	}

	if attr := normalize.ParseAttribution(norm.Referral, ""); !attr.IsEmpty() {
		conversation.Attribution = datatypes.JSON(utils.MustMarshalJSON(attr))
	}

	if err := s.conversations.Save(ctx, *conversation); err != nil {
		return nil, false, err
	}
	return conversation, true, nil
}

// resolveReplyTo maps a quoted provider message ID onto a stored message in
// the same conversation. A quote of an unknown message or of a message in
// another conversation degrades to no reply link.
func (s *Service) resolveReplyTo(ctx context.Context, replyToProviderID, conversationID string) string {
	if replyToProviderID == "" {
		return ""
	}
	quoted, err := s.messages.FindByProviderID(ctx, replyToProviderID)
	if err != nil {
		if !apperrors.IsNotFoundError(err) {
			logger.FromContext(ctx).Warn("Reply-to lookup failed",
				zap.String("provider_message_id", replyToProviderID), zap.Error(err))
		}
		return ""
	}
	if quoted.ConversationID != conversationID {
		return ""
	}
	return quoted.ID
}

func buildInboundMessage(norm model.NormalizedMessage, conversation *model.Conversation, companyID string) model.Message {
	message := model.Message{
		ID:                uuid.NewString(),
		ConversationID:    conversation.ID,
		Body:              norm.Text,
		SenderRole:        model.SenderContact,
		ProviderMessageID: norm.ProviderMessageID,
		Timestamp:         norm.Timestamp,
		CompanyID:         companyID,
		CreatedAt:         utils.Now(),
	}
	if norm.Media != nil {
		message.MediaID = norm.Media.ID
		message.MediaMimeType = norm.Media.MimeType
		message.MediaCaption = norm.Media.Caption
		message.MediaFilename = norm.Media.Filename
		message.MediaSHA256 = norm.Media.SHA256
		message.MediaDuration = norm.Media.Duration
	}
	return message
}

// profileName returns the webhook profile name matching the sender, if any.
func profileName(contacts []model.WebhookContact, from string) string {
	for _, c := range contacts {
		if c.WaID == from {
			return c.Profile.Name
		}
	}
	return ""
}
