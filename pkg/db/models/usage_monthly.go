package models

import (
	"time"

	"github.com/google/uuid"
)

// UsageMonthly counts rate-limited actions per user per calendar month.
// PeriodMonth is always the first day of the UTC month.
type UsageMonthly struct {
	UserID      uuid.UUID `gorm:"column:user_id;type:uuid;primaryKey"`
	PeriodMonth time.Time `gorm:"column:period_month;type:date;primaryKey"`
	AIDrafts    int       `gorm:"column:ai_drafts;not null;default:0"`
	CreatedAt   time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

// TableName pins the snake-case table name GORM would otherwise pluralize oddly.
func (UsageMonthly) TableName() string {
	return "usage_monthly"
}
