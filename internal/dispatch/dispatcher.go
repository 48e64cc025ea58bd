package dispatch

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"gitlab.com/crmcom/api/centralwap-router/internal/apperrors"
	"gitlab.com/crmcom/api/centralwap-router/internal/config"
	"gitlab.com/crmcom/api/centralwap-router/internal/model"
	"gitlab.com/crmcom/api/centralwap-router/internal/observer"
	"gitlab.com/crmcom/api/centralwap-router/pkg/logger"
	"gitlab.com/crmcom/api/centralwap-router/pkg/utils"
)

// Transport modes for an outbound line.
const (
	TransportCloud   = "cloud"
	TransportWebhook = "webhook"
)

// CloudSender sends messages through the provider's Cloud API.
type CloudSender interface {
	SendText(ctx context.Context, toPhone, body, replyToProviderID string) (string, error)
	SendMedia(ctx context.Context, toPhone, mediaURL, mimeType, caption, replyToProviderID string) (string, error)
}

// WebhookSender posts outbound payloads to automation webhooks.
type WebhookSender interface {
	Send(ctx context.Context, url string, payload model.AutomationPayload) error
}

// Dispatcher routes outbound messages to the right transport for the
// conversation's resolved line.
type Dispatcher struct {
	wa         CloudSender
	automation WebhookSender
	routing    config.RoutingConfig
}

// NewDispatcher creates a Dispatcher.
func NewDispatcher(wa CloudSender, automation WebhookSender, routing config.RoutingConfig) *Dispatcher {
	return &Dispatcher{
		wa:         wa,
		automation: automation,
		routing:    routing,
	}
}

// ResolveLine determines which outbound line owns replies for a conversation.
// The order matters: a conversation disconnected from its primary line must
// route through its recorded fallback inbox, never through the dead line.
func (d *Dispatcher) ResolveLine(conversation *model.Conversation) string {
	if conversation.Status == model.ConversationStatusDisconnected && conversation.FallbackInbox != "" {
		return conversation.FallbackInbox
	}
	if conversation.OriginLine != "" {
		return conversation.OriginLine
	}
	return d.routing.DefaultLine
}

// transportFor returns the transport mode configured for a line.
func (d *Dispatcher) transportFor(line string) string {
	if mode, ok := d.routing.Lines[line]; ok {
		return mode
	}
	return TransportCloud
}

// Dispatch sends one outbound message for the conversation and returns the
// provider-assigned message ID when the transport produces one. Failures are
// surfaced to the caller, not retried.
func (d *Dispatcher) Dispatch(ctx context.Context, conversation *model.Conversation, contact *model.Contact, message *model.Message, replyToProviderID string) (string, error) {
	line := d.ResolveLine(conversation)
	transport := d.transportFor(line)
	log := logger.FromContext(ctx).With(
		zap.String("conversation_id", conversation.ID),
		zap.String("line", line),
		zap.String("transport", transport),
	)

	switch transport {
	case TransportWebhook:
		url, ok := d.routing.AreaWebhooks[conversation.Area]
		if !ok || url == "" {
			// Checked before any network call so a misconfigured area fails fast.
			return "", fmt.Errorf("%w: no automation webhook configured for area %q", apperrors.ErrConfigMissing, conversation.Area)
		}

		payload := model.AutomationPayload{
			Telefono:       contact.PhoneNumber,
			Mensaje:        message.Body,
			ConversacionID: conversation.ID,
			Area:           conversation.Area,
			RespuestaA:     replyToProviderID,
			MediaURL:       message.MediaURL,
		}

		observer.IncDispatchAttempt(transport, conversation.Area, conversation.CompanyID)
		startTime := utils.Now()
		err := d.automation.Send(ctx, url, payload)
		observer.ObserveDispatchDuration(transport, conversation.Area, conversation.CompanyID, time.Since(startTime))
		if err != nil {
			observer.IncDispatchFailure(transport, conversation.Area, conversation.CompanyID)
			log.Error("Automation webhook dispatch failed", zap.Error(err))
			return "", err
		}
		return "", nil

	default:
		observer.IncDispatchAttempt(transport, line, conversation.CompanyID)
		startTime := utils.Now()
		var providerID string
		var err error
		if message.MediaURL != "" {
			// The body rides along as the media caption.
			providerID, err = d.wa.SendMedia(ctx, contact.PhoneNumber, message.MediaURL, message.MediaMimeType, message.Body, replyToProviderID)
		} else {
			providerID, err = d.wa.SendText(ctx, contact.PhoneNumber, message.Body, replyToProviderID)
		}
		observer.ObserveDispatchDuration(transport, line, conversation.CompanyID, time.Since(startTime))
		if err != nil {
			observer.IncDispatchFailure(transport, line, conversation.CompanyID)
			log.Error("WhatsApp dispatch failed", zap.Error(err))
			return "", err
		}
		return providerID, nil
	}
}
