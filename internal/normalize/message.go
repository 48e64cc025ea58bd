package normalize

import (
	"strconv"
	"time"

	"gitlab.com/crmcom/api/centralwap-router/internal/model"
	"gitlab.com/crmcom/api/centralwap-router/pkg/utils"
)

// NormalizeInbound maps one provider-specific inbound message into the
// canonical internal shape. Every nested field access degrades to absence;
// this function never fails.
//
// Text extraction follows a fixed fallback order: plain text body, button
// text, interactive list-reply title, interactive button-reply title, audio
// caption, image caption, and finally a literal non-text placeholder.
func NormalizeInbound(msg model.InboundMessage, meta *model.WebhookMetadata) model.NormalizedMessage {
	out := model.NormalizedMessage{
		ProviderMessageID: msg.ID,
		FromPhone:         msg.From,
		Text:              extractText(msg),
		Timestamp:         extractTimestamp(msg.Timestamp),
		Media:             extractMedia(msg),
		Referral:          msg.Referral,
	}

	if msg.Context != nil {
		out.ReplyToProviderID = msg.Context.ID
	}
	if meta != nil {
		out.InboxID = meta.PhoneNumberID
	}

	return out
}

func extractText(msg model.InboundMessage) string {
	if msg.Text != nil && msg.Text.Body != "" {
		return msg.Text.Body
	}
	if msg.Button != nil && msg.Button.Text != "" {
		return msg.Button.Text
	}
	if msg.Interactive != nil {
		if msg.Interactive.ListReply != nil && msg.Interactive.ListReply.Title != "" {
			return msg.Interactive.ListReply.Title
		}
		if msg.Interactive.ButtonReply != nil && msg.Interactive.ButtonReply.Title != "" {
			return msg.Interactive.ButtonReply.Title
		}
	}
	if msg.Audio != nil && msg.Audio.Caption != "" {
		return msg.Audio.Caption
	}
	if msg.Image != nil && msg.Image.Caption != "" {
		return msg.Image.Caption
	}
	return model.NonTextPlaceholder
}

// extractTimestamp converts provider epoch seconds to an absolute instant.
// When the provider timestamp is absent or malformed the current processing
// time is substituted; the provider value is always preferred when present to
// preserve ordering across retried deliveries.
func extractTimestamp(raw string) time.Time {
	if raw != "" {
		if epoch, err := strconv.ParseInt(raw, 10, 64); err == nil && epoch > 0 {
			return utils.UnixToTime(epoch)
		}
	}
	return utils.Now()
}

// extractMedia maps the closed set of known media types to a descriptor.
// Each type exposes a different field subset; unrecognized types yield nil.
func extractMedia(msg model.InboundMessage) *model.MediaDescriptor {
	switch {
	case msg.Image != nil:
		return &model.MediaDescriptor{
			ID:       msg.Image.ID,
			MimeType: msg.Image.MimeType,
			Caption:  msg.Image.Caption,
			SHA256:   msg.Image.SHA256,
		}
	case msg.Audio != nil:
		return &model.MediaDescriptor{
			ID:       msg.Audio.ID,
			MimeType: msg.Audio.MimeType,
			Caption:  msg.Audio.Caption,
			Duration: msg.Audio.Duration,
		}
	case msg.Video != nil:
		return &model.MediaDescriptor{
			ID:       msg.Video.ID,
			MimeType: msg.Video.MimeType,
			Caption:  msg.Video.Caption,
			SHA256:   msg.Video.SHA256,
		}
	case msg.Document != nil:
		return &model.MediaDescriptor{
			ID:       msg.Document.ID,
			MimeType: msg.Document.MimeType,
			Caption:  msg.Document.Caption,
			Filename: msg.Document.Filename,
			SHA256:   msg.Document.SHA256,
		}
	case msg.Sticker != nil:
		return &model.MediaDescriptor{
			ID:       msg.Sticker.ID,
			MimeType: msg.Sticker.MimeType,
			SHA256:   msg.Sticker.SHA256,
		}
	default:
		return nil
	}
}
