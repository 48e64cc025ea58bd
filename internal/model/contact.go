package model

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm/schema"
)

// Contact represents a person reachable by phone. The phone number is stored
// in canonical international form and is the unique lookup key.
type Contact struct {
	ID           string         `json:"id" gorm:"primaryKey;type:text"`
	PhoneNumber  string         `json:"phone_number" gorm:"column:phone_number;type:text" validate:"required"`
	DisplayName  string         `json:"display_name,omitempty" gorm:"column:display_name;type:text"`
	Email        string         `json:"email,omitempty" gorm:"type:text"`
	Origin       string         `json:"origin,omitempty" gorm:"type:text"` // first-touch origin tag (inbox, import, manual)
	Notes        string         `json:"notes,omitempty" gorm:"type:text"`
	CompanyID    string         `json:"company_id,omitempty" gorm:"column:company_id"`
	LastMetadata datatypes.JSON `json:"last_metadata,omitempty" gorm:"type:jsonb;column:last_metadata"`
	CreatedAt    time.Time      `json:"created_at,omitempty" gorm:"autoCreateTime"`
	UpdatedAt    time.Time      `json:"updated_at,omitempty" gorm:"autoUpdateTime"`
}

// TableName specifies the table name for the Contact model, respecting the Namer.
func (Contact) TableName(namer schema.Namer) string {
	return namer.TableName("contacts")
}

// ContactUpdateColumns lists the columns refreshed when a later event carries
// newer profile data for an existing contact.
func ContactUpdateColumns() []string {
	return []string{
		"display_name", "email", "updated_at",
	}
}
