package billing

import (
	"time"

	"github.com/google/uuid"
	"github.com/stripe/stripe-go/v84"

	"github.com/Ryan02062001/thankaroo-backend/pkg/db/models"
	"github.com/Ryan02062001/thankaroo-backend/pkg/enums"
	pkgerrors "github.com/Ryan02062001/thankaroo-backend/pkg/errors"
)

// SubscriptionFromStripe maps a Stripe subscription onto the local snapshot
// row for the given user.
func SubscriptionFromStripe(userID uuid.UUID, sub *stripe.Subscription) (*models.BillingSubscription, error) {
	if sub == nil || sub.ID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "stripe subscription is required")
	}

	status, err := enums.ParseSubscriptionStatus(string(sub.Status))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "map subscription status")
	}

	row := &models.BillingSubscription{
		ID:                sub.ID,
		UserID:            userID,
		Status:            status,
		CancelAtPeriodEnd: sub.CancelAtPeriodEnd,
	}

	if sub.Items != nil && len(sub.Items.Data) > 0 {
		item := sub.Items.Data[0]
		if item.Price != nil {
			row.PriceID = item.Price.ID
			row.PriceLookupKey = item.Price.LookupKey
		}
		// Period bounds live on the item since the 2025 API versions.
		if item.CurrentPeriodEnd > 0 {
			end := time.Unix(item.CurrentPeriodEnd, 0).UTC()
			row.CurrentPeriodEnd = &end
		}
	}

	if sub.DefaultPaymentMethod != nil && sub.DefaultPaymentMethod.Card != nil {
		row.CardBrand = string(sub.DefaultPaymentMethod.Card.Brand)
		row.CardLast4 = sub.DefaultPaymentMethod.Card.Last4
	}

	return row, nil
}

// entitlementLookupKey extracts the one-time product lookup key from a
// completed payment-mode checkout session, or "" when the session does not
// grant anything.
func entitlementLookupKey(session *stripe.CheckoutSession) string {
	if session == nil {
		return ""
	}
	if session.Mode != stripe.CheckoutSessionModePayment {
		return ""
	}
	if session.Status != stripe.CheckoutSessionStatusComplete {
		return ""
	}
	if session.PaymentStatus != stripe.CheckoutSessionPaymentStatusPaid {
		return ""
	}
	if session.LineItems == nil {
		return ""
	}
	for _, item := range session.LineItems.Data {
		if item.Price != nil && item.Price.LookupKey != "" {
			return item.Price.LookupKey
		}
	}
	return ""
}
