package model

import (
	"time"

	"gorm.io/gorm/schema"
)

// Reaction is an emoji reaction by an internal user on a message. Unique per
// (message, user, emoji); re-adding the same reaction is an upsert.
type Reaction struct {
	ID          int64     `json:"-" gorm:"primaryKey;autoIncrement"`
	MessageID   string    `json:"message_id" gorm:"column:message_id;uniqueIndex:idx_reactions_tuple;type:text" validate:"required"`
	UserID      string    `json:"user_id" gorm:"column:user_id;uniqueIndex:idx_reactions_tuple;type:text" validate:"required"`
	Emoji       string    `json:"emoji" gorm:"uniqueIndex:idx_reactions_tuple;type:text" validate:"required"`
	AuthorPhone string    `json:"author_phone,omitempty" gorm:"column:author_phone;type:text"` // denormalized sender phone for the provider call
	CompanyID   string    `json:"company_id,omitempty" gorm:"column:company_id"`
	CreatedAt   time.Time `json:"created_at,omitempty" gorm:"autoCreateTime"`
}

// TableName specifies the table name for GORM, respecting the Namer.
func (Reaction) TableName(namer schema.Namer) string {
	return namer.TableName("reactions")
}
