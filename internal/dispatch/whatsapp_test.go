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
	"gitlab.com/crmcom/api/centralwap-router/pkg/logger"
)

func TestWhatsAppClient_SendText(t *testing.T) {
	logger.Log = zaptest.NewLogger(t).Named("test")

	var captured sendRequest
	var capturedAuth string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/phone-123/messages", r.URL.Path)
		capturedAuth = r.Header.Get("Authorization")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"messaging_product":"whatsapp","messages":[{"id":"wamid.OUT42"}]}`))
	}))
	defer server.Close()

	client := NewWhatsAppClient("", "token-abc", "phone-123", 5*time.Second)
	client.SetBaseURL(server.URL)

	providerID, err := client.SendText(context.Background(), "5491155550001", "hola", "wamid.IN7")

	require.NoError(t, err)
	assert.Equal(t, "wamid.OUT42", providerID)
	assert.Equal(t, "Bearer token-abc", capturedAuth)
	assert.Equal(t, "whatsapp", captured.MessagingProduct)
	assert.Equal(t, "5491155550001", captured.To)
	assert.Equal(t, "text", captured.Type)
	require.NotNil(t, captured.Text)
	assert.Equal(t, "hola", captured.Text.Body)
	require.NotNil(t, captured.Context)
	assert.Equal(t, "wamid.IN7", captured.Context.MessageID)
}

func TestWhatsAppClient_SendText_NoReplyOmitsContext(t *testing.T) {
	logger.Log = zaptest.NewLogger(t).Named("test")

	var captured sendRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))
		w.Write([]byte(`{"messages":[{"id":"wamid.OUT1"}]}`))
	}))
	defer server.Close()

	client := NewWhatsAppClient("", "token-abc", "phone-123", 5*time.Second)
	client.SetBaseURL(server.URL)

	_, err := client.SendText(context.Background(), "5491155550001", "hola", "")

	require.NoError(t, err)
	assert.Nil(t, captured.Context)
}

func TestWhatsAppClient_SendText_UpstreamError(t *testing.T) {
	logger.Log = zaptest.NewLogger(t).Named("test")

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error":{"message":"invalid recipient"}}`))
	}))
	defer server.Close()

	client := NewWhatsAppClient("", "token-abc", "phone-123", 5*time.Second)
	client.SetBaseURL(server.URL)

	_, err := client.SendText(context.Background(), "not-a-phone", "hola", "")

	require.Error(t, err)
	assert.True(t, apperrors.IsUpstreamRejectedError(err))
	var upstream *apperrors.UpstreamError
	require.ErrorAs(t, err, &upstream)
	assert.Equal(t, http.StatusBadRequest, upstream.StatusCode)
	assert.Contains(t, upstream.Body, "invalid recipient")
}

func TestWhatsAppClient_SendMedia_Image(t *testing.T) {
	logger.Log = zaptest.NewLogger(t).Named("test")

	var captured sendRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))
		w.Write([]byte(`{"messages":[{"id":"wamid.M1"}]}`))
	}))
	defer server.Close()

	client := NewWhatsAppClient("", "token-abc", "phone-123", 5*time.Second)
	client.SetBaseURL(server.URL)

	providerID, err := client.SendMedia(context.Background(),
		"5491155550001", "https://cdn.example.com/foto.jpg", "image/jpeg", "mirá esto", "wamid.IN7")

	require.NoError(t, err)
	assert.Equal(t, "wamid.M1", providerID)
	assert.Equal(t, "image", captured.Type)
	require.NotNil(t, captured.Image)
	assert.Equal(t, "https://cdn.example.com/foto.jpg", captured.Image.Link)
	assert.Equal(t, "mirá esto", captured.Image.Caption)
	assert.Nil(t, captured.Text)
	require.NotNil(t, captured.Context)
	assert.Equal(t, "wamid.IN7", captured.Context.MessageID)
}

func TestWhatsAppClient_SendMedia_AudioDropsCaption(t *testing.T) {
	logger.Log = zaptest.NewLogger(t).Named("test")

	var captured sendRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))
		w.Write([]byte(`{"messages":[{"id":"wamid.M2"}]}`))
	}))
	defer server.Close()

	client := NewWhatsAppClient("", "token-abc", "phone-123", 5*time.Second)
	client.SetBaseURL(server.URL)

	_, err := client.SendMedia(context.Background(),
		"5491155550001", "https://cdn.example.com/nota.ogg", "audio/ogg", "ignorado", "")

	require.NoError(t, err)
	assert.Equal(t, "audio", captured.Type)
	require.NotNil(t, captured.Audio)
	assert.Equal(t, "https://cdn.example.com/nota.ogg", captured.Audio.Link)
	assert.Empty(t, captured.Audio.Caption)
}

func TestWhatsAppClient_SendMedia_UnknownMimeShipsAsDocument(t *testing.T) {
	logger.Log = zaptest.NewLogger(t).Named("test")

	var captured sendRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))
		w.Write([]byte(`{"messages":[{"id":"wamid.M3"}]}`))
	}))
	defer server.Close()

	client := NewWhatsAppClient("", "token-abc", "phone-123", 5*time.Second)
	client.SetBaseURL(server.URL)

	_, err := client.SendMedia(context.Background(),
		"5491155550001", "https://cdn.example.com/contrato.pdf", "application/pdf", "contrato", "")

	require.NoError(t, err)
	assert.Equal(t, "document", captured.Type)
	require.NotNil(t, captured.Document)
	assert.Equal(t, "contrato", captured.Document.Caption)
}

func TestWhatsAppClient_SendReaction(t *testing.T) {
	logger.Log = zaptest.NewLogger(t).Named("test")

	var captured sendRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))
		w.Write([]byte(`{"messages":[{"id":"wamid.R1"}]}`))
	}))
	defer server.Close()

	client := NewWhatsAppClient("", "token-abc", "phone-123", 5*time.Second)
	client.SetBaseURL(server.URL)

	err := client.SendReaction(context.Background(), "5491155550001", "wamid.IN7", "👍")

	require.NoError(t, err)
	assert.Equal(t, "reaction", captured.Type)
	require.NotNil(t, captured.Reaction)
	assert.Equal(t, "wamid.IN7", captured.Reaction.MessageID)
	assert.Equal(t, "👍", captured.Reaction.Emoji)
}

func TestWhatsAppClient_RemoveReaction(t *testing.T) {
	logger.Log = zaptest.NewLogger(t).Named("test")

	var captured sendRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))
		w.Write([]byte(`{"messages":[{"id":"wamid.R2"}]}`))
	}))
	defer server.Close()

	client := NewWhatsAppClient("", "token-abc", "phone-123", 5*time.Second)
	client.SetBaseURL(server.URL)

	err := client.RemoveReaction(context.Background(), "5491155550001", "wamid.IN7")

	require.NoError(t, err)
	require.NotNil(t, captured.Reaction)
	assert.Empty(t, captured.Reaction.Emoji)
}
