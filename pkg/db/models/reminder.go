package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/Ryan02062001/thankaroo-backend/pkg/enums"
)

// Reminder schedules a thank-you nudge for a gift. GiftSnapshot freezes the
// guest name, description, and received date at creation time so later gift
// edits do not rewrite pending reminders.
type Reminder struct {
	ID           uuid.UUID         `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	ListID       uuid.UUID         `gorm:"column:list_id;type:uuid;not null;index"`
	GiftID       uuid.UUID         `gorm:"column:gift_id;type:uuid;not null;index"`
	DueAt        time.Time         `gorm:"column:due_at;type:date;not null"`
	Channel      enums.NoteChannel `gorm:"column:channel;type:note_channel;not null;default:'email'"`
	Sent         bool              `gorm:"column:sent;not null;default:false"`
	GiftSnapshot json.RawMessage   `gorm:"column:gift_snapshot;type:jsonb"`
	CreatedAt    time.Time         `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time         `gorm:"column:updated_at;autoUpdateTime"`
}

// GiftSnapshotPayload is the denormalized gift data stored on a reminder.
type GiftSnapshotPayload struct {
	GuestName    string `json:"guest_name"`
	Description  string `json:"description"`
	DateReceived string `json:"date_received"`
}
