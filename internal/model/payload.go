package model

// --- Inbound webhook shapes (messaging provider -> router) --- //

// WebhookPayload is the envelope delivered by the messaging provider.
type WebhookPayload struct {
	Object string         `json:"object,omitempty"`
	Entry  []WebhookEntry `json:"entry,omitempty"`
}

type WebhookEntry struct {
	ID      string          `json:"id,omitempty"`
	Changes []WebhookChange `json:"changes,omitempty"`
}

type WebhookChange struct {
	Field string       `json:"field,omitempty"`
	Value WebhookValue `json:"value,omitempty"`
}

type WebhookValue struct {
	MessagingProduct string            `json:"messaging_product,omitempty"`
	Metadata         *WebhookMetadata  `json:"metadata,omitempty"`
	Contacts         []WebhookContact  `json:"contacts,omitempty"`
	Messages         []InboundMessage  `json:"messages,omitempty"`
	Statuses         []InboundStatus   `json:"statuses,omitempty"`
}

type WebhookMetadata struct {
	DisplayPhoneNumber string `json:"display_phone_number,omitempty"`
	PhoneNumberID      string `json:"phone_number_id,omitempty"`
}

type WebhookContact struct {
	WaID    string `json:"wa_id,omitempty"`
	Profile struct {
		Name string `json:"name,omitempty"`
	} `json:"profile,omitempty"`
}

// InboundMessage is one provider-specific message element. Every nested field
// is optional; absence at any level must degrade to absence, never to an error.
type InboundMessage struct {
	ID          string              `json:"id,omitempty"`
	From        string              `json:"from,omitempty"`
	Timestamp   string              `json:"timestamp,omitempty"` // epoch seconds as string
	Type        string              `json:"type,omitempty"`
	Text        *InboundText        `json:"text,omitempty"`
	Button      *InboundButton      `json:"button,omitempty"`
	Interactive *InboundInteractive `json:"interactive,omitempty"`
	Image       *InboundMedia       `json:"image,omitempty"`
	Audio       *InboundMedia       `json:"audio,omitempty"`
	Video       *InboundMedia       `json:"video,omitempty"`
	Document    *InboundMedia       `json:"document,omitempty"`
	Sticker     *InboundMedia       `json:"sticker,omitempty"`
	Context     *InboundContext     `json:"context,omitempty"`
	Referral    *WebhookReferral    `json:"referral,omitempty"`
}

type InboundText struct {
	Body string `json:"body,omitempty"`
}

type InboundButton struct {
	Text    string `json:"text,omitempty"`
	Payload string `json:"payload,omitempty"`
}

type InboundInteractive struct {
	Type        string        `json:"type,omitempty"`
	ListReply   *InboundReply `json:"list_reply,omitempty"`
	ButtonReply *InboundReply `json:"button_reply,omitempty"`
}

type InboundReply struct {
	ID          string `json:"id,omitempty"`
	Title       string `json:"title,omitempty"`
	Description string `json:"description,omitempty"`
}

type InboundMedia struct {
	ID       string `json:"id,omitempty"`
	MimeType string `json:"mime_type,omitempty"`
	Caption  string `json:"caption,omitempty"`
	Filename string `json:"filename,omitempty"`
	SHA256   string `json:"sha256,omitempty"`
	Voice    bool   `json:"voice,omitempty"`
	Duration int    `json:"duration,omitempty"`
}

// InboundContext carries the quoted-message reference on replies.
type InboundContext struct {
	From string `json:"from,omitempty"`
	ID   string `json:"id,omitempty"`
}

// WebhookReferral carries ad/referral metadata on click-to-chat messages.
type WebhookReferral struct {
	SourceURL  string `json:"source_url,omitempty"`
	SourceID   string `json:"source_id,omitempty"`
	SourceType string `json:"source_type,omitempty"`
	Headline   string `json:"headline,omitempty"`
	Body       string `json:"body,omitempty"`
	CtwaClid   string `json:"ctwa_clid,omitempty"`
}

// InboundStatus is a delivery-status element. Accepted and ignored.
type InboundStatus struct {
	ID        string `json:"id,omitempty"`
	Status    string `json:"status,omitempty"`
	Timestamp string `json:"timestamp,omitempty"`
}

// --- REST payloads (UI -> router) --- //

// SendMessagePayload requests an outbound message on a conversation. A
// message must carry a body, media, or both; a media-only message ships with
// an empty body.
type SendMessagePayload struct {
	ConversationID string `json:"conversation_id,omitempty" validate:"required"`
	Body           string `json:"body,omitempty" validate:"required_without=MediaURL"`
	MediaURL       string `json:"media_url,omitempty" validate:"omitempty,url"`
	MediaMimeType  string `json:"media_mime_type,omitempty" validate:"omitempty"`
	ReplyToID      string `json:"reply_to_id,omitempty" validate:"omitempty"`
	SenderRole     string `json:"sender_role,omitempty" validate:"omitempty,oneof=AGENT SYSTEM"`
}

// ReactionPayload adds or removes an emoji reaction on a message.
type ReactionPayload struct {
	UserID      string `json:"user_id,omitempty" validate:"required"`
	Emoji       string `json:"emoji,omitempty" validate:"required"`
	AuthorPhone string `json:"author_phone,omitempty" validate:"omitempty"`
}

// UpdateConversationPayload mutates operator-controlled conversation state.
type UpdateConversationPayload struct {
	Status        string `json:"status,omitempty" validate:"omitempty,oneof=NEW ACTIVE DISCONNECTED CLOSED"`
	Area          string `json:"area,omitempty" validate:"omitempty"`
	OriginLine    string `json:"origin_line,omitempty" validate:"omitempty"`
	FallbackInbox string `json:"fallback_inbox,omitempty" validate:"omitempty"`
	AssignedTo    string `json:"assigned_to,omitempty" validate:"omitempty"`
}

// ScheduledMessagePayload creates a scheduled outbound message.
type ScheduledMessagePayload struct {
	ConversationID string `json:"conversation_id,omitempty" validate:"required"`
	Body           string `json:"body,omitempty" validate:"required"`
	SendAt         string `json:"send_at,omitempty" validate:"required"` // RFC3339
}

// --- Automation webhook payload (router -> automation layer) --- //

// AutomationPayload is the body POSTed to a per-area automation webhook.
// Field names are fixed by the legacy automation layer.
type AutomationPayload struct {
	Telefono       string `json:"telefono"`
	Mensaje        string `json:"mensaje"`
	ConversacionID string `json:"conversacion_id"`
	Area           string `json:"area,omitempty"`
	RespuestaA     string `json:"respuesta_a,omitempty"`
	MediaURL       string `json:"media_url,omitempty"`
}
