package dispatch

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"gitlab.com/crmcom/api/centralwap-router/internal/apperrors"
	"gitlab.com/crmcom/api/centralwap-router/pkg/logger"
)

const (
	defaultGraphAPIBase = "https://graph.facebook.com/v19.0"
	defaultHTTPTimeout  = 10 * time.Second

	whatsappTarget = "whatsapp"
)

// WhatsAppClient sends messages via the WhatsApp Cloud API.
type WhatsAppClient struct {
	baseURL       string
	accessToken   string
	phoneNumberID string
	httpClient    *http.Client
}

// NewWhatsAppClient creates a new Cloud API client.
func NewWhatsAppClient(baseURL, accessToken, phoneNumberID string, timeout time.Duration) *WhatsAppClient {
	if baseURL == "" {
		baseURL = defaultGraphAPIBase
	}
	if timeout <= 0 {
		timeout = defaultHTTPTimeout
	}
	return &WhatsAppClient{
		baseURL:       baseURL,
		accessToken:   accessToken,
		phoneNumberID: phoneNumberID,
		httpClient:    &http.Client{Timeout: timeout},
	}
}

// SetBaseURL overrides the API base URL (useful for testing).
func (c *WhatsAppClient) SetBaseURL(base string) {
	c.baseURL = base
}

type textBody struct {
	Body string `json:"body"`
}

type mediaBody struct {
	Link    string `json:"link"`
	Caption string `json:"caption,omitempty"`
}

type messageContext struct {
	MessageID string `json:"message_id"`
}

type reactionBody struct {
	MessageID string `json:"message_id"`
	Emoji     string `json:"emoji"`
}

type sendRequest struct {
	MessagingProduct string          `json:"messaging_product"`
	To               string          `json:"to"`
	Type             string          `json:"type"`
	Text             *textBody       `json:"text,omitempty"`
	Image            *mediaBody      `json:"image,omitempty"`
	Audio            *mediaBody      `json:"audio,omitempty"`
	Video            *mediaBody      `json:"video,omitempty"`
	Document         *mediaBody      `json:"document,omitempty"`
	Reaction         *reactionBody   `json:"reaction,omitempty"`
	Context          *messageContext `json:"context,omitempty"`
}

type sendResponse struct {
	Messages []struct {
		ID string `json:"id"`
	} `json:"messages"`
}

// SendText sends a plain text message. replyToProviderID, when set, quotes an
// earlier provider message. Returns the provider-assigned message ID.
func (c *WhatsAppClient) SendText(ctx context.Context, toPhone, body, replyToProviderID string) (string, error) {
	req := sendRequest{
		MessagingProduct: "whatsapp",
		To:               toPhone,
		Type:             "text",
		Text:             &textBody{Body: body},
	}
	if replyToProviderID != "" {
		req.Context = &messageContext{MessageID: replyToProviderID}
	}
	return c.send(ctx, req)
}

// SendMedia sends a media message by public link, with an optional caption.
// The Cloud API message type is derived from the MIME type; anything
// unrecognized ships as a document.
func (c *WhatsAppClient) SendMedia(ctx context.Context, toPhone, mediaURL, mimeType, caption, replyToProviderID string) (string, error) {
	req := sendRequest{
		MessagingProduct: "whatsapp",
		To:               toPhone,
	}
	media := &mediaBody{Link: mediaURL, Caption: caption}
	switch mediaTypeForMime(mimeType) {
	case "image":
		req.Type = "image"
		req.Image = media
	case "audio":
		// The provider rejects captions on audio messages.
		media.Caption = ""
		req.Type = "audio"
		req.Audio = media
	case "video":
		req.Type = "video"
		req.Video = media
	default:
		req.Type = "document"
		req.Document = media
	}
	if replyToProviderID != "" {
		req.Context = &messageContext{MessageID: replyToProviderID}
	}
	return c.send(ctx, req)
}

func mediaTypeForMime(mimeType string) string {
	switch {
	case strings.HasPrefix(mimeType, "image/"):
		return "image"
	case strings.HasPrefix(mimeType, "audio/"):
		return "audio"
	case strings.HasPrefix(mimeType, "video/"):
		return "video"
	default:
		return "document"
	}
}

// SendReaction attaches an emoji reaction to a provider message.
func (c *WhatsAppClient) SendReaction(ctx context.Context, toPhone, targetProviderID, emoji string) error {
	req := sendRequest{
		MessagingProduct: "whatsapp",
		To:               toPhone,
		Type:             "reaction",
		Reaction:         &reactionBody{MessageID: targetProviderID, Emoji: emoji},
	}
	_, err := c.send(ctx, req)
	return err
}

// RemoveReaction clears a reaction. The provider treats an empty emoji as removal.
func (c *WhatsAppClient) RemoveReaction(ctx context.Context, toPhone, targetProviderID string) error {
	return c.SendReaction(ctx, toPhone, targetProviderID, "")
}

func (c *WhatsAppClient) send(ctx context.Context, req sendRequest) (string, error) {
	payload, err := json.Marshal(req)
	if err != nil {
		return "", fmt.Errorf("whatsapp: marshal send request: %w", err)
	}

	url := fmt.Sprintf("%s/%s/messages", c.baseURL, c.phoneNumberID)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("whatsapp: create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.accessToken)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("whatsapp: send message: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("whatsapp: read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		logger.FromContext(ctx).Warn("WhatsApp API rejected request",
			zap.Int("status", resp.StatusCode),
			zap.String("body", string(respBody)))
		return "", apperrors.NewUpstream(whatsappTarget, resp.StatusCode, string(respBody))
	}

	var sendResp sendResponse
	if err := json.Unmarshal(respBody, &sendResp); err != nil {
		return "", fmt.Errorf("whatsapp: unmarshal response: %w", err)
	}
	if len(sendResp.Messages) == 0 {
		return "", nil
	}
	return sendResp.Messages[0].ID, nil
}
