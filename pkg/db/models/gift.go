package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/Ryan02062001/thankaroo-backend/pkg/enums"
)

// Gift is a single received gift belonging to exactly one list.
type Gift struct {
	ID             uuid.UUID      `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	ListID         uuid.UUID      `gorm:"column:list_id;type:uuid;not null;index"`
	GuestName      string         `gorm:"column:guest_name;not null"`
	Description    string         `gorm:"column:description;not null"`
	GiftType       enums.GiftType `gorm:"column:gift_type;type:gift_type;not null;default:'non registry'"`
	DateReceived   time.Time      `gorm:"column:date_received;type:date;not null"`
	ThankYouSent   bool           `gorm:"column:thank_you_sent;not null;default:false"`
	ThankYouSentAt *time.Time     `gorm:"column:thank_you_sent_at"`
	CreatedAt      time.Time      `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time      `gorm:"column:updated_at;autoUpdateTime"`
}
