package usecase

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gitlab.com/crmcom/api/centralwap-router/internal/apperrors"
	"gitlab.com/crmcom/api/centralwap-router/internal/model"
)

func seedMessage(t *testing.T, h *testHarness, providerID string) (*model.Contact, *model.Message) {
	t.Helper()
	contact, conversation := seedConversation(t, h)
	message := model.NewMessage(&model.Message{
		ConversationID:    conversation.ID,
		ProviderMessageID: providerID,
		CompanyID:         testCompanyID,
	})
	require.NoError(t, h.messages.SaveInbound(tenantContext(), *message))
	return contact, message
}

func TestAddReaction_UpstreamThenLocal(t *testing.T) {
	h := newTestHarness(t)
	contact, message := seedMessage(t, h, "wamid.R1")

	reaction, err := h.service.AddReaction(tenantContext(), message.ID, model.ReactionPayload{
		UserID: "user-7",
		Emoji:  "👍",
	})

	require.NoError(t, err)
	assert.Equal(t, 1, h.sender.sendCalls)
	assert.Equal(t, contact.PhoneNumber, h.sender.lastPhone)
	assert.Equal(t, "wamid.R1", h.sender.lastTarget)
	assert.Equal(t, "👍", h.sender.lastEmoji)
	assert.Equal(t, message.ID, reaction.MessageID)

	stored, err := h.reactions.FindByMessageID(tenantContext(), message.ID)
	require.NoError(t, err)
	assert.Len(t, stored, 1)
}

func TestAddReaction_UpstreamFailureLeavesNoLocalRow(t *testing.T) {
	h := newTestHarness(t)
	h.sender.sendErr = apperrors.NewUpstream("whatsapp", 400, `{"error":"bad emoji"}`)
	_, message := seedMessage(t, h, "wamid.R2")

	_, err := h.service.AddReaction(tenantContext(), message.ID, model.ReactionPayload{
		UserID: "user-7",
		Emoji:  "👍",
	})

	require.Error(t, err)
	stored, findErr := h.reactions.FindByMessageID(tenantContext(), message.ID)
	require.NoError(t, findErr)
	assert.Empty(t, stored)
}

func TestAddReaction_IdempotentUpsert(t *testing.T) {
	h := newTestHarness(t)
	_, message := seedMessage(t, h, "wamid.R3")
	payload := model.ReactionPayload{UserID: "user-7", Emoji: "👍"}

	_, err := h.service.AddReaction(tenantContext(), message.ID, payload)
	require.NoError(t, err)
	_, err = h.service.AddReaction(tenantContext(), message.ID, payload)
	require.NoError(t, err)

	stored, err := h.reactions.FindByMessageID(tenantContext(), message.ID)
	require.NoError(t, err)
	assert.Len(t, stored, 1)
}

func TestAddReaction_NoProviderIDSkipsUpstream(t *testing.T) {
	h := newTestHarness(t)
	_, message := seedMessage(t, h, "")

	_, err := h.service.AddReaction(tenantContext(), message.ID, model.ReactionPayload{
		UserID: "user-7",
		Emoji:  "🔥",
	})

	require.NoError(t, err)
	assert.Zero(t, h.sender.sendCalls)
	stored, err := h.reactions.FindByMessageID(tenantContext(), message.ID)
	require.NoError(t, err)
	assert.Len(t, stored, 1)
}

func TestRemoveReaction_UpstreamFailureKeepsLocalRow(t *testing.T) {
	h := newTestHarness(t)
	_, message := seedMessage(t, h, "wamid.R4")
	payload := model.ReactionPayload{UserID: "user-7", Emoji: "👍"}

	_, err := h.service.AddReaction(tenantContext(), message.ID, payload)
	require.NoError(t, err)

	h.sender.removeErr = apperrors.NewUpstream("whatsapp", 500, `{"error":"internal"}`)
	err = h.service.RemoveReaction(tenantContext(), message.ID, payload)

	require.Error(t, err)
	stored, findErr := h.reactions.FindByMessageID(tenantContext(), message.ID)
	require.NoError(t, findErr)
	assert.Len(t, stored, 1, "local row survives a rejected upstream removal")
}

func TestRemoveReaction_Success(t *testing.T) {
	h := newTestHarness(t)
	_, message := seedMessage(t, h, "wamid.R5")
	payload := model.ReactionPayload{UserID: "user-7", Emoji: "👍"}

	_, err := h.service.AddReaction(tenantContext(), message.ID, payload)
	require.NoError(t, err)

	require.NoError(t, h.service.RemoveReaction(tenantContext(), message.ID, payload))
	assert.Equal(t, 1, h.sender.removeCalls)

	stored, err := h.reactions.FindByMessageID(tenantContext(), message.ID)
	require.NoError(t, err)
	assert.Empty(t, stored)
}

func TestAddReaction_MessageNotFound(t *testing.T) {
	h := newTestHarness(t)

	_, err := h.service.AddReaction(tenantContext(), "missing", model.ReactionPayload{
		UserID: "user-7",
		Emoji:  "👍",
	})

	require.Error(t, err)
	assert.True(t, apperrors.IsNotFoundError(err))
	assert.Zero(t, h.sender.sendCalls)
}
