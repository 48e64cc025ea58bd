package model

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm/schema"
)

// Conversation statuses. Transitions are operator- or event-triggered; there is
// no timeout-based transition.
const (
	ConversationStatusNew          = "NEW"
	ConversationStatusActive       = "ACTIVE"
	ConversationStatusDisconnected = "DISCONNECTED"
	ConversationStatusClosed       = "CLOSED"
)

// Conversation represents an ongoing thread with one contact, scoped to one
// business area. At most one active conversation per (contact, area) pair is
// the intended steady state; duplicates are tolerated, not corrected.
type Conversation struct {
	ID             string         `json:"id" gorm:"primaryKey;type:text"`
	ContactID      string         `json:"contact_id" gorm:"column:contact_id;index;type:text" validate:"required"`
	Area           string         `json:"area" gorm:"type:text;index"`
	Status         string         `json:"status,omitempty" gorm:"type:text;default:NEW"`
	OriginLine     string         `json:"origin_line,omitempty" gorm:"column:origin_line;type:text"`
	FallbackInbox  string         `json:"fallback_inbox,omitempty" gorm:"column:fallback_inbox;type:text"` // set when disconnected from the primary line
	AssignedTo     string         `json:"assigned_to,omitempty" gorm:"column:assigned_to;index;type:text"`
	Attribution    datatypes.JSON `json:"attribution,omitempty" gorm:"type:jsonb;column:attribution"` // immutable once set
	LastActivityAt time.Time      `json:"last_activity_at,omitempty" gorm:"column:last_activity_at;index"`
	CompanyID      string         `json:"company_id,omitempty" gorm:"column:company_id"`
	CreatedAt      time.Time      `json:"created_at,omitempty" gorm:"autoCreateTime"`
	UpdatedAt      time.Time      `json:"updated_at,omitempty" gorm:"autoUpdateTime"`
}

// TableName specifies the table name for GORM, respecting the Namer.
func (Conversation) TableName(namer schema.Namer) string {
	return namer.TableName("conversations")
}

// IsOpen reports whether the conversation still accepts inbound routing.
func (c *Conversation) IsOpen() bool {
	return c.Status != ConversationStatusClosed
}

// ConversationUpdatableFields returns the column names an operator update may touch.
func ConversationUpdatableFields() []string {
	return []string{
		"area", "status", "origin_line", "fallback_inbox", "assigned_to", "last_activity_at", "updated_at",
	}
}
