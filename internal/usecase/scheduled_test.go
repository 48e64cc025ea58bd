package usecase

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"gitlab.com/crmcom/api/centralwap-router/internal/apperrors"
	"gitlab.com/crmcom/api/centralwap-router/internal/config"
	"gitlab.com/crmcom/api/centralwap-router/internal/model"
	"gitlab.com/crmcom/api/centralwap-router/pkg/utils"
)

func TestCreateScheduledMessage(t *testing.T) {
	h := newTestHarness(t)
	_, conversation := seedConversation(t, h)

	sendAt := utils.Now().Add(time.Hour).Format(time.RFC3339)
	scheduled, err := h.service.CreateScheduledMessage(tenantContext(), model.ScheduledMessagePayload{
		ConversationID: conversation.ID,
		Body:           "recordatorio de clase",
		SendAt:         sendAt,
	})

	require.NoError(t, err)
	assert.Equal(t, model.ScheduledStatusPending, scheduled.Status)
	assert.Equal(t, testCompanyID, scheduled.CompanyID)

	stored, err := h.scheduled.FindByID(tenantContext(), scheduled.ID)
	require.NoError(t, err)
	assert.Equal(t, "recordatorio de clase", stored.Body)
}

func TestCreateScheduledMessage_BadTimestamp(t *testing.T) {
	h := newTestHarness(t)
	_, conversation := seedConversation(t, h)

	_, err := h.service.CreateScheduledMessage(tenantContext(), model.ScheduledMessagePayload{
		ConversationID: conversation.ID,
		Body:           "recordatorio",
		SendAt:         "mañana a la tarde",
	})

	require.Error(t, err)
	assert.True(t, apperrors.IsValidationError(err))
}

func TestCreateScheduledMessage_ConversationNotFound(t *testing.T) {
	h := newTestHarness(t)

	_, err := h.service.CreateScheduledMessage(tenantContext(), model.ScheduledMessagePayload{
		ConversationID: "missing",
		Body:           "recordatorio",
		SendAt:         utils.Now().Format(time.RFC3339),
	})

	require.Error(t, err)
	assert.True(t, apperrors.IsNotFoundError(err))
}

func TestDispatchScheduled_MarksSent(t *testing.T) {
	h := newTestHarness(t)
	h.dispatcher.providerID = "wamid.S1"
	_, conversation := seedConversation(t, h)

	scheduled := model.ScheduledMessage{
		ID:             "sched-1",
		ConversationID: conversation.ID,
		Body:           "recordatorio",
		SendAt:         utils.Now(),
		Status:         model.ScheduledStatusPending,
		CompanyID:      testCompanyID,
	}

	require.NoError(t, h.service.DispatchScheduled(tenantContext(), scheduled))

	assert.Equal(t, model.ScheduledStatusSent, h.scheduled.statusOf("sched-1"))
	assert.Equal(t, 1, h.dispatcher.calls)
	require.Len(t, h.messages.inbound, 1)
	assert.Equal(t, model.SenderSystem, h.messages.inbound[0].SenderRole)
}

func TestDispatchScheduled_FailureKeepsRowForRetry(t *testing.T) {
	h := newTestHarness(t)
	h.dispatcher.err = apperrors.NewUpstream("automation", 502, "upstream down")
	_, conversation := seedConversation(t, h)

	scheduled := model.ScheduledMessage{
		ID:             "sched-2",
		ConversationID: conversation.ID,
		Body:           "recordatorio",
		SendAt:         utils.Now(),
		Status:         model.ScheduledStatusPending,
		CompanyID:      testCompanyID,
	}

	err := h.service.DispatchScheduled(tenantContext(), scheduled)

	require.Error(t, err)
	assert.Equal(t, model.ScheduledStatusFailed, h.scheduled.statusOf("sched-2"))
	h.scheduled.mu.Lock()
	lastError := h.scheduled.errors["sched-2"]
	h.scheduled.mu.Unlock()
	assert.Contains(t, lastError, "upstream down")
}

func TestDispatchScheduled_MissingConversationMarksFailed(t *testing.T) {
	h := newTestHarness(t)

	scheduled := model.ScheduledMessage{
		ID:             "sched-3",
		ConversationID: "missing",
		Body:           "recordatorio",
		CompanyID:      testCompanyID,
	}

	err := h.service.DispatchScheduled(tenantContext(), scheduled)

	require.Error(t, err)
	assert.Equal(t, model.ScheduledStatusFailed, h.scheduled.statusOf("sched-3"))
	assert.Zero(t, h.dispatcher.calls)
}

func TestScheduledWorker_PollDispatchesDueRows(t *testing.T) {
	h := newTestHarness(t)
	h.dispatcher.providerID = "wamid.S9"
	_, conversation := seedConversation(t, h)

	due := model.ScheduledMessage{
		ID:             "sched-9",
		ConversationID: conversation.ID,
		Body:           "recordatorio",
		SendAt:         utils.Now().Add(-time.Minute),
		Status:         model.ScheduledStatusPending,
		CompanyID:      testCompanyID,
	}
	h.scheduled.mu.Lock()
	h.scheduled.due = []model.ScheduledMessage{due}
	h.scheduled.mu.Unlock()

	worker, err := NewScheduledWorker(config.ScheduledWorkerPoolConfig{
		PoolSize:     2,
		PollInterval: 10 * time.Millisecond,
		BatchSize:    10,
		MaxBlock:     time.Second,
		ExpiryTime:   time.Minute,
	}, h.service, h.scheduled, testCompanyID, zaptest.NewLogger(t))
	require.NoError(t, err)
	defer worker.Stop()

	worker.pollOnce()

	require.Eventually(t, func() bool {
		return h.scheduled.statusOf("sched-9") == model.ScheduledStatusSent
	}, 2*time.Second, 10*time.Millisecond)
	require.Len(t, h.messages.inbound, 1)
}
