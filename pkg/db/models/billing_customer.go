package models

import (
	"time"

	"github.com/google/uuid"
)

// BillingCustomer maps a user 1:1 to a Stripe customer. The row is upserted
// opportunistically from checkout, portal, webhook, and backfill paths.
type BillingCustomer struct {
	UserID           uuid.UUID `gorm:"column:user_id;type:uuid;primaryKey"`
	StripeCustomerID string    `gorm:"column:stripe_customer_id;not null;uniqueIndex"`
	CreatedAt        time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt        time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
