package model

import (
	"time"

	"gorm.io/gorm/schema"
)

// Sender roles for a message.
const (
	SenderContact = "CONTACT"
	SenderAgent   = "AGENT"
	SenderSystem  = "SYSTEM"
)

// NonTextPlaceholder is persisted as the body of inbound messages that carry
// no extractable text (e.g. an uncaptioned sticker).
const NonTextPlaceholder = "[contenido multimedia]"

// Message represents one inbound or outbound communication event. Rows are
// immutable after creation except for reaction attachments.
type Message struct {
	ID                string    `json:"id" gorm:"primaryKey;type:text"`
	ConversationID    string    `json:"conversation_id" gorm:"column:conversation_id;index;type:text" validate:"required"`
	Body              string    `json:"body,omitempty" gorm:"type:text"` // optional if media-only
	SenderRole        string    `json:"sender_role" gorm:"column:sender_role;type:text"`
	ProviderMessageID string    `json:"provider_message_id,omitempty" gorm:"column:provider_message_id;index;type:text"`
	ReplyToID         string    `json:"reply_to_id,omitempty" gorm:"column:reply_to_id;type:text"` // must reference a message in the same conversation
	MediaID           string    `json:"media_id,omitempty" gorm:"column:media_id;type:text"`
	MediaURL          string    `json:"media_url,omitempty" gorm:"column:media_url;type:text"` // outbound media by public link
	MediaMimeType     string    `json:"media_mime_type,omitempty" gorm:"column:media_mime_type;type:text"`
	MediaCaption      string    `json:"media_caption,omitempty" gorm:"column:media_caption;type:text"`
	MediaFilename     string    `json:"media_filename,omitempty" gorm:"column:media_filename;type:text"`
	MediaSHA256       string    `json:"media_sha256,omitempty" gorm:"column:media_sha256;type:text"`
	MediaDuration     int       `json:"media_duration,omitempty" gorm:"column:media_duration"`
	Timestamp         time.Time `json:"timestamp" gorm:"column:timestamp;index"`
	CompanyID         string    `json:"company_id,omitempty" gorm:"column:company_id"`
	CreatedAt         time.Time `json:"created_at,omitempty" gorm:"autoCreateTime"`
}

// TableName specifies the table name for GORM, respecting the Namer.
func (Message) TableName(namer schema.Namer) string {
	return namer.TableName("messages")
}

// HasMedia reports whether the message carries a media descriptor.
func (m *Message) HasMedia() bool {
	return m.MediaID != ""
}

// MediaDescriptor is the normalized media subset extracted from an inbound
// provider payload. Each provider media type exposes a different subset.
type MediaDescriptor struct {
	ID       string `json:"id"`
	MimeType string `json:"mime_type,omitempty"`
	Caption  string `json:"caption,omitempty"`
	Filename string `json:"filename,omitempty"`
	SHA256   string `json:"sha256,omitempty"`
	Duration int    `json:"duration,omitempty"`
}

// NormalizedMessage is the canonical internal shape produced from one
// provider-specific inbound message.
type NormalizedMessage struct {
	ProviderMessageID string
	FromPhone         string // raw, pre-normalization
	Text              string
	Timestamp         time.Time
	Media             *MediaDescriptor
	ReplyToProviderID string // provider ID of the quoted message, if any
	Referral          *WebhookReferral
	InboxID           string // phone-number-id the message arrived on
}
