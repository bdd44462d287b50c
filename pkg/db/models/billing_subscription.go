package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/Ryan02062001/thankaroo-backend/pkg/enums"
)

// BillingSubscription mirrors the Stripe subscription object for a user.
// Rows are replaced wholesale on each sync rather than patched.
type BillingSubscription struct {
	ID                string                   `gorm:"column:id;primaryKey"`
	UserID            uuid.UUID                `gorm:"column:user_id;type:uuid;not null;index"`
	PriceID           string                   `gorm:"column:price_id"`
	PriceLookupKey    string                   `gorm:"column:price_lookup_key;index"`
	Status            enums.SubscriptionStatus `gorm:"column:status;type:subscription_status;not null"`
	CurrentPeriodEnd  *time.Time               `gorm:"column:current_period_end"`
	CancelAtPeriodEnd bool                     `gorm:"column:cancel_at_period_end;not null;default:false"`
	CardBrand         string                   `gorm:"column:card_brand"`
	CardLast4         string                   `gorm:"column:card_last4"`
	CreatedAt         time.Time                `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt         time.Time                `gorm:"column:updated_at;autoUpdateTime"`
}
