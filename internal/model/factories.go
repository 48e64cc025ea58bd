package model

import (
	"fmt"
	"time"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/google/uuid"
)

// init ensures gofakeit is seeded.
func init() {
	gofakeit.Seed(time.Now().UnixNano())
}

// fakePhone produces a canonical Argentine mobile number.
func fakePhone() string {
	return fmt.Sprintf("+549%d", gofakeit.Number(1100000000, 1199999999))
}

// NewContact creates a Contact with default fake data for tests.
func NewContact(overrideDefaults ...*Contact) *Contact {
	base := &Contact{
		ID:          uuid.NewString(),
		PhoneNumber: fakePhone(),
		DisplayName: gofakeit.Name(),
		Email:       gofakeit.Email(),
		Origin:      gofakeit.RandomString([]string{"wsp1", "wsp2", "import", "manual"}),
		CompanyID:   "tenant_" + gofakeit.LetterN(10),
		CreatedAt:   time.Now().UTC().Add(-time.Duration(gofakeit.Number(1, 100)) * time.Hour),
		UpdatedAt:   time.Now().UTC(),
	}

	if len(overrideDefaults) > 0 && overrideDefaults[0] != nil {
		ovr := overrideDefaults[0]
		if ovr.ID != "" {
			base.ID = ovr.ID
		}
		if ovr.PhoneNumber != "" {
			base.PhoneNumber = ovr.PhoneNumber
		}
		if ovr.DisplayName != "" {
			base.DisplayName = ovr.DisplayName
		}
		if ovr.Email != "" {
			base.Email = ovr.Email
		}
		if ovr.Origin != "" {
			base.Origin = ovr.Origin
		}
		if ovr.CompanyID != "" {
			base.CompanyID = ovr.CompanyID
		}
	}
	return base
}

// NewConversation creates a Conversation with default fake data for tests.
func NewConversation(overrideDefaults ...*Conversation) *Conversation {
	base := &Conversation{
		ID:             uuid.NewString(),
		ContactID:      uuid.NewString(),
		Area:           gofakeit.RandomString([]string{"ventas", "alumnos", "admin", "comunidad"}),
		Status:         ConversationStatusActive,
		OriginLine:     gofakeit.RandomString([]string{"wsp1", "wsp2", "wsp3", "wsp4"}),
		LastActivityAt: time.Now().UTC(),
		CompanyID:      "tenant_" + gofakeit.LetterN(10),
		CreatedAt:      time.Now().UTC().Add(-time.Hour),
		UpdatedAt:      time.Now().UTC(),
	}

	if len(overrideDefaults) > 0 && overrideDefaults[0] != nil {
		ovr := overrideDefaults[0]
		if ovr.ID != "" {
			base.ID = ovr.ID
		}
		if ovr.ContactID != "" {
			base.ContactID = ovr.ContactID
		}
		if ovr.Area != "" {
			base.Area = ovr.Area
		}
		if ovr.Status != "" {
			base.Status = ovr.Status
		}
		if ovr.OriginLine != "" {
			base.OriginLine = ovr.OriginLine
		}
		if ovr.FallbackInbox != "" {
			base.FallbackInbox = ovr.FallbackInbox
		}
		if ovr.CompanyID != "" {
			base.CompanyID = ovr.CompanyID
		}
	}
	return base
}

// NewMessage creates a Message with default fake data for tests.
func NewMessage(overrideDefaults ...*Message) *Message {
	base := &Message{
		ID:                uuid.NewString(),
		ConversationID:    uuid.NewString(),
		Body:              gofakeit.Sentence(6),
		SenderRole:        SenderContact,
		ProviderMessageID: "wamid." + gofakeit.LetterN(24),
		Timestamp:         time.Now().UTC(),
		CompanyID:         "tenant_" + gofakeit.LetterN(10),
		CreatedAt:         time.Now().UTC(),
	}

	if len(overrideDefaults) > 0 && overrideDefaults[0] != nil {
		ovr := overrideDefaults[0]
		if ovr.ID != "" {
			base.ID = ovr.ID
		}
		if ovr.ConversationID != "" {
			base.ConversationID = ovr.ConversationID
		}
		if ovr.Body != "" {
			base.Body = ovr.Body
		}
		if ovr.SenderRole != "" {
			base.SenderRole = ovr.SenderRole
		}
		if ovr.ProviderMessageID != "" {
			base.ProviderMessageID = ovr.ProviderMessageID
		}
		if ovr.ReplyToID != "" {
			base.ReplyToID = ovr.ReplyToID
		}
		if ovr.CompanyID != "" {
			base.CompanyID = ovr.CompanyID
		}
		if !ovr.Timestamp.IsZero() {
			base.Timestamp = ovr.Timestamp
		}
	}
	return base
}
