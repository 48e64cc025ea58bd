package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"go.uber.org/zap"

	"gitlab.com/crmcom/api/centralwap-router/internal/model"
	"gitlab.com/crmcom/api/centralwap-router/internal/observer"
	"gitlab.com/crmcom/api/centralwap-router/pkg/logger"
	"gitlab.com/crmcom/api/centralwap-router/pkg/utils"
)

// InboundMessageEvent is the domain event emitted after an inbound message has
// been routed and persisted. Downstream consumers (bots, analytics) subscribe
// to these instead of polling the database.
type InboundMessageEvent struct {
	MessageID      string    `json:"message_id"`
	ConversationID string    `json:"conversation_id"`
	ContactID      string    `json:"contact_id"`
	Phone          string    `json:"phone"`
	Area           string    `json:"area"`
	Body           string    `json:"body"`
	HasMedia       bool      `json:"has_media"`
	Timestamp      time.Time `json:"timestamp"`
	CompanyID      string    `json:"company_id"`
}

// Publisher emits domain events to JetStream.
type Publisher struct {
	client      ClientInterface
	streamName  string
	baseSubject string
	maxAgeDays  int64
}

// NewPublisher creates a Publisher on top of an existing JetStream client.
func NewPublisher(client ClientInterface, streamName, baseSubject string, maxAgeDays int64) *Publisher {
	return &Publisher{
		client:      client,
		streamName:  streamName,
		baseSubject: baseSubject,
		maxAgeDays:  maxAgeDays,
	}
}

// EnsureStream creates or updates the event stream.
func (p *Publisher) EnsureStream(ctx context.Context) error {
	streamConfig := &nats.StreamConfig{
		Name:      p.streamName,
		Subjects:  []string{p.baseSubject + ".>"},
		Retention: nats.LimitsPolicy,
		Storage:   nats.FileStorage,
		MaxAge:    time.Duration(p.maxAgeDays) * 24 * time.Hour,
	}
	return p.client.SetupStream(ctx, streamConfig)
}

// PublishInbound emits one inbound message event on <baseSubject>.<companyID>.
// Publish failures are logged and counted but never fail inbound processing.
func (p *Publisher) PublishInbound(ctx context.Context, message model.Message, conversation model.Conversation, contactPhone string) {
	event := InboundMessageEvent{
		MessageID:      message.ID,
		ConversationID: conversation.ID,
		ContactID:      conversation.ContactID,
		Phone:          contactPhone,
		Area:           conversation.Area,
		Body:           message.Body,
		HasMedia:       message.HasMedia(),
		Timestamp:      message.Timestamp,
		CompanyID:      message.CompanyID,
	}

	subject := fmt.Sprintf("%s.%s", p.baseSubject, message.CompanyID)

	data, err := json.Marshal(event)
	if err != nil {
		logger.FromContext(ctx).Error("Failed to marshal inbound message event",
			zap.String("message_id", message.ID),
			zap.Error(err))
		observer.IncEventPublishErrors(subject, message.CompanyID)
		return
	}

	headers := map[string]string{
		"company_id": message.CompanyID,
	}
	if err := p.client.Publish(subject, data, headers); err != nil {
		logger.FromContext(ctx).Error("Failed to publish inbound message event",
			zap.String("message_id", message.ID),
			zap.String("subject", subject),
			zap.Error(err))
		observer.IncEventPublishErrors(subject, message.CompanyID)
		return
	}
	observer.IncEventsPublished(subject, message.CompanyID)
	logger.FromContext(ctx).Debug("Published inbound message event",
		zap.String("subject", subject),
		zap.String("payload_size", utils.ByteCountSI(len(data))))
}
