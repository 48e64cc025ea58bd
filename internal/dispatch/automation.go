package dispatch

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"gitlab.com/crmcom/api/centralwap-router/internal/apperrors"
	"gitlab.com/crmcom/api/centralwap-router/internal/model"
	"gitlab.com/crmcom/api/centralwap-router/pkg/logger"
)

const automationTarget = "automation"

// AutomationClient posts outbound messages to per-area automation webhooks.
type AutomationClient struct {
	secret     string
	httpClient *http.Client
}

// NewAutomationClient creates a webhook client. secret, when non-empty, is
// sent as a shared-secret header on every call.
func NewAutomationClient(secret string, timeout time.Duration) *AutomationClient {
	if timeout <= 0 {
		timeout = defaultHTTPTimeout
	}
	return &AutomationClient{
		secret:     secret,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// Send posts the payload to the given webhook URL. Non-2xx responses surface
// the upstream status and body; there is no internal retry.
func (c *AutomationClient) Send(ctx context.Context, url string, payload model.AutomationPayload) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("automation: marshal payload: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("automation: create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if c.secret != "" {
		httpReq.Header.Set("X-Webhook-Secret", c.secret)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return fmt.Errorf("automation: post webhook: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("automation: read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		logger.FromContext(ctx).Warn("Automation webhook rejected request",
			zap.String("url", url),
			zap.Int("status", resp.StatusCode),
			zap.String("body", string(respBody)))
		return apperrors.NewUpstream(automationTarget, resp.StatusCode, string(respBody))
	}

	return nil
}
