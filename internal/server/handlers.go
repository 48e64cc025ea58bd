package server

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"gitlab.com/crmcom/api/centralwap-router/internal/model"
	"gitlab.com/crmcom/api/centralwap-router/pkg/logger"
	"gitlab.com/crmcom/api/centralwap-router/pkg/utils"
)

// handleWebhookVerify answers the provider's challenge-response verification.
func (s *Server) handleWebhookVerify(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	mode := query.Get("hub.mode")
	token := query.Get("hub.verify_token")
	challenge := query.Get("hub.challenge")

	if mode == "subscribe" && token != "" && token == s.cfg.WhatsApp.VerifyToken {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(challenge))
		return
	}

	logger.FromContext(r.Context()).Warn("Webhook verification rejected", zap.String("mode", mode))
	w.WriteHeader(http.StatusForbidden)
}

// handleWebhook accepts one provider delivery. Once the payload decodes, the
// response is always 200; per-message failures surface only in logs so the
// provider does not retry a structurally fine payload forever.
func (s *Server) handleWebhook(w http.ResponseWriter, r *http.Request) {
	var payload model.WebhookPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		logger.FromContext(r.Context()).Warn("Malformed webhook payload", zap.Error(err))
		utils.WriteErrorResponse(w, http.StatusBadRequest, "malformed payload")
		return
	}

	s.service.ProcessWebhook(r.Context(), payload)
	utils.WriteJSONResponse(w, http.StatusOK, map[string]string{"status": "received"})
}

func (s *Server) handleSendMessage(w http.ResponseWriter, r *http.Request) {
	var payload model.SendMessagePayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		utils.WriteErrorResponse(w, http.StatusBadRequest, "malformed payload")
		return
	}

	message, err := s.service.SendMessage(r.Context(), payload)
	if err != nil {
		// The row may be persisted even when delivery failed; the error wins.
		respondError(w, r, err)
		return
	}
	utils.WriteJSONResponse(w, http.StatusCreated, message)
}

func (s *Server) handleListReactions(w http.ResponseWriter, r *http.Request) {
	reactions, err := s.service.ListReactions(r.Context(), chi.URLParam(r, "messageID"))
	if err != nil {
		respondError(w, r, err)
		return
	}
	utils.WriteJSONResponse(w, http.StatusOK, reactions)
}

func (s *Server) handleAddReaction(w http.ResponseWriter, r *http.Request) {
	var payload model.ReactionPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		utils.WriteErrorResponse(w, http.StatusBadRequest, "malformed payload")
		return
	}

	reaction, err := s.service.AddReaction(r.Context(), chi.URLParam(r, "messageID"), payload)
	if err != nil {
		respondError(w, r, err)
		return
	}
	utils.WriteJSONResponse(w, http.StatusCreated, reaction)
}

func (s *Server) handleRemoveReaction(w http.ResponseWriter, r *http.Request) {
	var payload model.ReactionPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		utils.WriteErrorResponse(w, http.StatusBadRequest, "malformed payload")
		return
	}

	if err := s.service.RemoveReaction(r.Context(), chi.URLParam(r, "messageID"), payload); err != nil {
		respondError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleGetConversation(w http.ResponseWriter, r *http.Request) {
	conversation, err := s.service.GetConversation(r.Context(), chi.URLParam(r, "conversationID"))
	if err != nil {
		respondError(w, r, err)
		return
	}
	utils.WriteJSONResponse(w, http.StatusOK, conversation)
}

func (s *Server) handleUpdateConversation(w http.ResponseWriter, r *http.Request) {
	var payload model.UpdateConversationPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		utils.WriteErrorResponse(w, http.StatusBadRequest, "malformed payload")
		return
	}

	conversation, err := s.service.UpdateConversation(r.Context(), chi.URLParam(r, "conversationID"), payload)
	if err != nil {
		respondError(w, r, err)
		return
	}
	utils.WriteJSONResponse(w, http.StatusOK, conversation)
}

func (s *Server) handleListMessages(w http.ResponseWriter, r *http.Request) {
	limit, offset := pagination(r)
	messages, err := s.service.ListConversationMessages(r.Context(), chi.URLParam(r, "conversationID"), limit, offset)
	if err != nil {
		respondError(w, r, err)
		return
	}
	utils.WriteJSONResponse(w, http.StatusOK, messages)
}

func (s *Server) handleListScheduled(w http.ResponseWriter, r *http.Request) {
	scheduled, err := s.service.ListScheduledMessages(r.Context(), chi.URLParam(r, "conversationID"))
	if err != nil {
		respondError(w, r, err)
		return
	}
	utils.WriteJSONResponse(w, http.StatusOK, scheduled)
}

func (s *Server) handleCreateScheduled(w http.ResponseWriter, r *http.Request) {
	var payload model.ScheduledMessagePayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		utils.WriteErrorResponse(w, http.StatusBadRequest, "malformed payload")
		return
	}

	scheduled, err := s.service.CreateScheduledMessage(r.Context(), payload)
	if err != nil {
		respondError(w, r, err)
		return
	}
	utils.WriteJSONResponse(w, http.StatusCreated, scheduled)
}

func (s *Server) handleGetScheduled(w http.ResponseWriter, r *http.Request) {
	scheduled, err := s.service.GetScheduledMessage(r.Context(), chi.URLParam(r, "scheduledID"))
	if err != nil {
		respondError(w, r, err)
		return
	}
	utils.WriteJSONResponse(w, http.StatusOK, scheduled)
}

func (s *Server) handleSearchContacts(w http.ResponseWriter, r *http.Request) {
	limit, offset := pagination(r)
	contacts, err := s.service.SearchContacts(r.Context(), r.URL.Query().Get("q"), limit, offset)
	if err != nil {
		respondError(w, r, err)
		return
	}
	utils.WriteJSONResponse(w, http.StatusOK, contacts)
}

func (s *Server) handleListContactConversations(w http.ResponseWriter, r *http.Request) {
	limit, offset := pagination(r)
	conversations, err := s.service.ListContactConversations(r.Context(), chi.URLParam(r, "contactID"), limit, offset)
	if err != nil {
		respondError(w, r, err)
		return
	}
	utils.WriteJSONResponse(w, http.StatusOK, conversations)
}

func pagination(r *http.Request) (limit, offset int) {
	query := r.URL.Query()
	limit, _ = strconv.Atoi(query.Get("limit"))
	offset, _ = strconv.Atoi(query.Get("offset"))
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}
