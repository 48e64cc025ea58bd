package model

import (
	"time"

	"gorm.io/gorm/schema"
)

// Scheduled message statuses.
const (
	ScheduledStatusPending = "PENDING"
	ScheduledStatusSent    = "SENT"
	ScheduledStatusFailed  = "FAILED"
)

// ScheduledMessage is an outbound message queued for future delivery. Due rows
// are claimed and dispatched by the scheduled worker; failed rows stay for
// operator retry.
type ScheduledMessage struct {
	ID             string    `json:"id" gorm:"primaryKey;type:text"`
	ConversationID string    `json:"conversation_id" gorm:"column:conversation_id;index;type:text" validate:"required"`
	Body           string    `json:"body" gorm:"type:text" validate:"required"`
	SendAt         time.Time `json:"send_at" gorm:"column:send_at;index" validate:"required"`
	Status         string    `json:"status,omitempty" gorm:"type:text;default:PENDING"`
	LastError      string    `json:"last_error,omitempty" gorm:"column:last_error;type:text"`
	CompanyID      string    `json:"company_id,omitempty" gorm:"column:company_id"`
	CreatedAt      time.Time `json:"created_at,omitempty" gorm:"autoCreateTime"`
	UpdatedAt      time.Time `json:"updated_at,omitempty" gorm:"autoUpdateTime"`
}

// TableName specifies the table name for GORM, respecting the Namer.
func (ScheduledMessage) TableName(namer schema.Namer) string {
	return namer.TableName("scheduled_messages")
}
