package models

import (
	"time"

	"github.com/google/uuid"
)

// BillingEntitlement records a non-recurring grant such as the one-time
// wedding pass, independent of subscription billing.
type BillingEntitlement struct {
	ID               uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	UserID           uuid.UUID `gorm:"column:user_id;type:uuid;not null;index:billing_entitlements_user_product_key,unique"`
	ProductLookupKey string    `gorm:"column:product_lookup_key;not null;index:billing_entitlements_user_product_key,unique"`
	Active           bool      `gorm:"column:active;not null;default:true"`
	CreatedAt        time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt        time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
