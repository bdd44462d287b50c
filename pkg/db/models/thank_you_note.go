package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/Ryan02062001/thankaroo-backend/pkg/enums"
)

// ThankYouNote is a drafted or sent note for one gift on one channel.
// The (gift_id, channel) pair is unique so each channel carries at most
// one active note per gift.
type ThankYouNote struct {
	ID           uuid.UUID         `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	ListID       uuid.UUID         `gorm:"column:list_id;type:uuid;not null;index"`
	GiftID       uuid.UUID         `gorm:"column:gift_id;type:uuid;not null;index:thank_you_notes_gift_channel_key,unique"`
	Channel      enums.NoteChannel `gorm:"column:channel;type:note_channel;not null;index:thank_you_notes_gift_channel_key,unique"`
	Relationship string            `gorm:"column:relationship"`
	Tone         string            `gorm:"column:tone"`
	Status       enums.NoteStatus  `gorm:"column:status;type:note_status;not null;default:'draft'"`
	Content      string            `gorm:"column:content;not null"`
	Meta         json.RawMessage   `gorm:"column:meta;type:jsonb"`
	SentAt       *time.Time        `gorm:"column:sent_at"`
	CreatedAt    time.Time         `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time         `gorm:"column:updated_at;autoUpdateTime"`
}
