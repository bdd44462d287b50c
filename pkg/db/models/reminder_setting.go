package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/Ryan02062001/thankaroo-backend/pkg/enums"
)

// ReminderSetting carries the per-list defaults applied when reminders are
// created without explicit values.
type ReminderSetting struct {
	ID             uuid.UUID         `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	ListID         uuid.UUID         `gorm:"column:list_id;type:uuid;not null;uniqueIndex"`
	Enabled        bool              `gorm:"column:enabled;not null;default:true"`
	DefaultChannel enums.NoteChannel `gorm:"column:default_channel;type:note_channel;not null;default:'email'"`
	DaysAfter      int               `gorm:"column:days_after;not null;default:14"`
	CreatedAt      time.Time         `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time         `gorm:"column:updated_at;autoUpdateTime"`
}
