package dispatch

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"gitlab.com/crmcom/api/centralwap-router/internal/apperrors"
	"gitlab.com/crmcom/api/centralwap-router/internal/model"
	"gitlab.com/crmcom/api/centralwap-router/pkg/logger"
)

func TestAutomationClient_Send(t *testing.T) {
	logger.Log = zaptest.NewLogger(t).Named("test")

	var captured model.AutomationPayload
	var capturedSecret string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		capturedSecret = r.Header.Get("X-Webhook-Secret")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client := NewAutomationClient("hook-secret", 5*time.Second)
	payload := model.AutomationPayload{
		Telefono:       "5491155550001",
		Mensaje:        "hola, quiero info del curso",
		ConversacionID: "conv-1",
		Area:           "ventas",
		RespuestaA:     "wamid.IN3",
	}

	err := client.Send(context.Background(), server.URL, payload)

	require.NoError(t, err)
	assert.Equal(t, "hook-secret", capturedSecret)
	assert.Equal(t, payload, captured)
}

func TestAutomationClient_Send_NoSecretOmitsHeader(t *testing.T) {
	logger.Log = zaptest.NewLogger(t).Named("test")

	var hasSecret bool
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, hasSecret = r.Header["X-Webhook-Secret"]
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client := NewAutomationClient("", 5*time.Second)

	err := client.Send(context.Background(), server.URL, model.AutomationPayload{Telefono: "5491155550001"})

	require.NoError(t, err)
	assert.False(t, hasSecret)
}

func TestAutomationClient_Send_UpstreamError(t *testing.T) {
	logger.Log = zaptest.NewLogger(t).Named("test")

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		w.Write([]byte("upstream automation down"))
	}))
	defer server.Close()

	client := NewAutomationClient("hook-secret", 5*time.Second)

	err := client.Send(context.Background(), server.URL, model.AutomationPayload{Telefono: "5491155550001"})

	require.Error(t, err)
	assert.True(t, apperrors.IsUpstreamRejectedError(err))
	var upstream *apperrors.UpstreamError
	require.ErrorAs(t, err, &upstream)
	assert.Equal(t, http.StatusBadGateway, upstream.StatusCode)
	assert.Equal(t, "automation", upstream.Target)
}
