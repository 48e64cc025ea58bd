package usecase

import (
	"context"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap/zaptest"

	"gitlab.com/crmcom/api/centralwap-router/internal/apperrors"
	"gitlab.com/crmcom/api/centralwap-router/internal/config"
	"gitlab.com/crmcom/api/centralwap-router/internal/model"
	"gitlab.com/crmcom/api/centralwap-router/internal/normalize"
	"gitlab.com/crmcom/api/centralwap-router/internal/tenant"
	"gitlab.com/crmcom/api/centralwap-router/pkg/logger"
)

const testCompanyID = "tenant-test-123"

// --- In-memory fakes for the storage interfaces ---

type fakeContactRepo struct {
	mu       sync.Mutex
	byID     map[string]model.Contact
	saveErr  error
	findErr  error
	searches []string
}

func newFakeContactRepo() *fakeContactRepo {
	return &fakeContactRepo{byID: map[string]model.Contact{}}
}

func (f *fakeContactRepo) Save(_ context.Context, contact model.Contact) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.saveErr != nil {
		return f.saveErr
	}
	f.byID[contact.ID] = contact
	return nil
}

func (f *fakeContactRepo) Update(_ context.Context, contact model.Contact) error {
	return f.Save(context.Background(), contact)
}

func (f *fakeContactRepo) FindByID(_ context.Context, id string) (*model.Contact, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if c, ok := f.byID[id]; ok {
		return &c, nil
	}
	return nil, apperrors.ErrNotFound
}

func (f *fakeContactRepo) FindByPhone(_ context.Context, phone string) (*model.Contact, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.findErr != nil {
		return nil, f.findErr
	}
	for _, c := range f.byID {
		if c.PhoneNumber == phone {
			return &c, nil
		}
	}
	return nil, apperrors.ErrNotFound
}

func (f *fakeContactRepo) Search(_ context.Context, query string, _, _ int) ([]model.Contact, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.searches = append(f.searches, query)
	out := []model.Contact{}
	for _, c := range f.byID {
		out = append(out, c)
	}
	return out, nil
}

func (f *fakeContactRepo) Close(context.Context) error { return nil }

func (f *fakeContactRepo) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.byID)
}

type fakeConversationRepo struct {
	mu      sync.Mutex
	byID    map[string]model.Conversation
	saveErr error
	updates []model.Conversation
}

func newFakeConversationRepo() *fakeConversationRepo {
	return &fakeConversationRepo{byID: map[string]model.Conversation{}}
}

func (f *fakeConversationRepo) Save(_ context.Context, conversation model.Conversation) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.saveErr != nil {
		return f.saveErr
	}
	f.byID[conversation.ID] = conversation
	return nil
}

func (f *fakeConversationRepo) Update(_ context.Context, conversation model.Conversation) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.updates = append(f.updates, conversation)
	f.byID[conversation.ID] = conversation
	return nil
}

func (f *fakeConversationRepo) FindByID(_ context.Context, id string) (*model.Conversation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if c, ok := f.byID[id]; ok {
		return &c, nil
	}
	return nil, apperrors.ErrNotFound
}

func (f *fakeConversationRepo) FindOpenByContactID(_ context.Context, contactID string) (*model.Conversation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, c := range f.byID {
		if c.ContactID == contactID && c.Status != model.ConversationStatusClosed {
			return &c, nil
		}
	}
	return nil, apperrors.ErrNotFound
}

func (f *fakeConversationRepo) FindByContactID(_ context.Context, contactID string, _, _ int) ([]model.Conversation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []model.Conversation{}
	for _, c := range f.byID {
		if c.ContactID == contactID {
			out = append(out, c)
		}
	}
	return out, nil
}

func (f *fakeConversationRepo) Close(context.Context) error { return nil }

type fakeMessageRepo struct {
	mu         sync.Mutex
	byID       map[string]model.Message
	byProvider map[string]model.Message
	inbound    []model.Message
	saveErr    error
}

func newFakeMessageRepo() *fakeMessageRepo {
	return &fakeMessageRepo{byID: map[string]model.Message{}, byProvider: map[string]model.Message{}}
}

func (f *fakeMessageRepo) SaveInbound(_ context.Context, message model.Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.saveErr != nil {
		return f.saveErr
	}
	f.byID[message.ID] = message
	if message.ProviderMessageID != "" {
		f.byProvider[message.ProviderMessageID] = message
	}
	f.inbound = append(f.inbound, message)
	return nil
}

func (f *fakeMessageRepo) Save(ctx context.Context, message model.Message) error {
	return f.SaveInbound(ctx, message)
}

func (f *fakeMessageRepo) FindByID(_ context.Context, id string) (*model.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if m, ok := f.byID[id]; ok {
		return &m, nil
	}
	return nil, apperrors.ErrNotFound
}

func (f *fakeMessageRepo) FindByProviderID(_ context.Context, providerID string) (*model.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if m, ok := f.byProvider[providerID]; ok {
		return &m, nil
	}
	return nil, apperrors.ErrNotFound
}

func (f *fakeMessageRepo) FindByConversationID(_ context.Context, conversationID string, _, _ int) ([]model.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []model.Message{}
	for _, m := range f.byID {
		if m.ConversationID == conversationID {
			out = append(out, m)
		}
	}
	return out, nil
}

func (f *fakeMessageRepo) Close(context.Context) error { return nil }

type reactionKey struct{ messageID, userID, emoji string }

type fakeReactionRepo struct {
	mu   sync.Mutex
	rows map[reactionKey]model.Reaction
}

func newFakeReactionRepo() *fakeReactionRepo {
	return &fakeReactionRepo{rows: map[reactionKey]model.Reaction{}}
}

func (f *fakeReactionRepo) Upsert(_ context.Context, reaction model.Reaction) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	key := reactionKey{reaction.MessageID, reaction.UserID, reaction.Emoji}
	if _, ok := f.rows[key]; !ok {
		f.rows[key] = reaction
	}
	return nil
}

func (f *fakeReactionRepo) Delete(_ context.Context, messageID, userID, emoji string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.rows, reactionKey{messageID, userID, emoji})
	return nil
}

func (f *fakeReactionRepo) FindByMessageID(_ context.Context, messageID string) ([]model.Reaction, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []model.Reaction{}
	for key, r := range f.rows {
		if key.messageID == messageID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *fakeReactionRepo) Close(context.Context) error { return nil }

type fakeScheduledRepo struct {
	mu     sync.Mutex
	byID   map[string]model.ScheduledMessage
	marked map[string]string // id -> status
	errors map[string]string // id -> last_error
	due    []model.ScheduledMessage
}

func newFakeScheduledRepo() *fakeScheduledRepo {
	return &fakeScheduledRepo{
		byID:   map[string]model.ScheduledMessage{},
		marked: map[string]string{},
		errors: map[string]string{},
	}
}

func (f *fakeScheduledRepo) Save(_ context.Context, msg model.ScheduledMessage) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.byID[msg.ID] = msg
	return nil
}

func (f *fakeScheduledRepo) Update(_ context.Context, msg model.ScheduledMessage) error {
	return f.Save(context.Background(), msg)
}

func (f *fakeScheduledRepo) FindByID(_ context.Context, id string) (*model.ScheduledMessage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if m, ok := f.byID[id]; ok {
		return &m, nil
	}
	return nil, apperrors.ErrNotFound
}

func (f *fakeScheduledRepo) FindByConversationID(_ context.Context, conversationID string) ([]model.ScheduledMessage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []model.ScheduledMessage{}
	for _, m := range f.byID {
		if m.ConversationID == conversationID {
			out = append(out, m)
		}
	}
	return out, nil
}

func (f *fakeScheduledRepo) ClaimDue(_ context.Context, now time.Time, limit int) ([]model.ScheduledMessage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []model.ScheduledMessage{}
	for _, m := range f.due {
		if len(out) >= limit {
			break
		}
		if !m.SendAt.After(now) {
			out = append(out, m)
		}
	}
	return out, nil
}

func (f *fakeScheduledRepo) MarkStatus(_ context.Context, id, status, lastError string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.marked[id] = status
	f.errors[id] = lastError
	return nil
}

func (f *fakeScheduledRepo) Close(context.Context) error { return nil }

func (f *fakeScheduledRepo) statusOf(id string) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.marked[id]
}

// --- Fakes for the outbound collaborators ---

type fakeDispatcher struct {
	mu         sync.Mutex
	providerID string
	err        error
	calls      int
	lastConv   *model.Conversation
	lastMsg    *model.Message
	lastReply  string
}

func (f *fakeDispatcher) Dispatch(_ context.Context, conversation *model.Conversation, _ *model.Contact, message *model.Message, replyToProviderID string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.lastConv = conversation
	f.lastMsg = message
	f.lastReply = replyToProviderID
	return f.providerID, f.err
}

type fakeReactionSender struct {
	sendErr     error
	removeErr   error
	sendCalls   int
	removeCalls int
	lastPhone   string
	lastTarget  string
	lastEmoji   string
}

func (f *fakeReactionSender) SendReaction(_ context.Context, toPhone, targetProviderID, emoji string) error {
	f.sendCalls++
	f.lastPhone = toPhone
	f.lastTarget = targetProviderID
	f.lastEmoji = emoji
	return f.sendErr
}

func (f *fakeReactionSender) RemoveReaction(_ context.Context, toPhone, targetProviderID string) error {
	f.removeCalls++
	f.lastPhone = toPhone
	f.lastTarget = targetProviderID
	return f.removeErr
}

type fakePublisher struct {
	mu     sync.Mutex
	events []model.Message
}

func (f *fakePublisher) PublishInbound(_ context.Context, message model.Message, _ model.Conversation, _ string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, message)
}

func (f *fakePublisher) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.events)
}

// --- Test harness ---

type testHarness struct {
	service       *Service
	contacts      *fakeContactRepo
	conversations *fakeConversationRepo
	messages      *fakeMessageRepo
	reactions     *fakeReactionRepo
	scheduled     *fakeScheduledRepo
	dispatcher    *fakeDispatcher
	sender        *fakeReactionSender
	publisher     *fakePublisher
}

func testPhonePlan() config.PhonePlan {
	return config.PhonePlan{
		CountryCode: "54",
		MobileDigit: "9",
		LocalLength: 10,
		MinLength:   11,
		MaxLength:   13,
	}
}

func usecaseTestRouting() config.RoutingConfig {
	return config.RoutingConfig{
		Inboxes:      map[string]string{"inbox-ventas": "ventas", "inbox-alumnos": "alumnos"},
		InboxLines:   map[string]string{"inbox-ventas": "wsp1", "inbox-alumnos": "wsp2"},
		Lines:        map[string]string{"wsp1": "cloud", "wsp2": "webhook"},
		AreaWebhooks: map[string]string{"alumnos": "https://automation.example.com/hooks/alumnos"},
		DefaultArea:  "ventas",
		DefaultLine:  "wsp1",
	}
}

func newTestHarness(t *testing.T) *testHarness {
	t.Helper()
	logger.Log = zaptest.NewLogger(t).Named("test")

	h := &testHarness{
		contacts:      newFakeContactRepo(),
		conversations: newFakeConversationRepo(),
		messages:      newFakeMessageRepo(),
		reactions:     newFakeReactionRepo(),
		scheduled:     newFakeScheduledRepo(),
		dispatcher:    &fakeDispatcher{},
		sender:        &fakeReactionSender{},
		publisher:     &fakePublisher{},
	}
	h.service = NewService(
		h.contacts,
		h.conversations,
		h.messages,
		h.reactions,
		h.scheduled,
		h.dispatcher,
		h.sender,
		h.publisher,
		normalize.NewPhoneNormalizer(testPhonePlan()),
		usecaseTestRouting(),
	)
	return h
}

func tenantContext() context.Context {
	return tenant.WithCompanyID(context.Background(), testCompanyID)
}
