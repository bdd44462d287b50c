package models

import (
	"time"

	"github.com/google/uuid"
)

// GiftList is the top-level container a user tracks gifts in.
// Deleting a list cascades to its gifts, reminders, and notes.
type GiftList struct {
	ID        uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	OwnerID   uuid.UUID `gorm:"column:owner_id;type:uuid;not null;index"`
	Name      string    `gorm:"column:name;not null"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
