package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/Ryan02062001/thankaroo-backend/api/responses"
	"github.com/Ryan02062001/thankaroo-backend/api/validators"
	"github.com/Ryan02062001/thankaroo-backend/internal/billing"
	"github.com/Ryan02062001/thankaroo-backend/internal/plans"
	"github.com/Ryan02062001/thankaroo-backend/internal/usage"
	"github.com/Ryan02062001/thankaroo-backend/pkg/db/models"
	"github.com/Ryan02062001/thankaroo-backend/pkg/enums"
	"github.com/Ryan02062001/thankaroo-backend/pkg/logger"
)

type planReader interface {
	CurrentLimits(ctx context.Context, userID uuid.UUID) (enums.PlanID, plans.Limits, error)
}

type draftUsageReader interface {
	DraftsThisMonth(ctx context.Context, userID uuid.UUID, period time.Time) (int, error)
}

type subscriptionReader interface {
	ListSubscriptionsByUser(ctx context.Context, userID uuid.UUID) ([]models.BillingSubscription, error)
	ListActiveEntitlements(ctx context.Context, userID uuid.UUID) ([]models.BillingEntitlement, error)
}

type subscriptionSummary struct {
	Status            enums.SubscriptionStatus `json:"status"`
	PriceLookupKey    string                   `json:"price_lookup_key"`
	CurrentPeriodEnd  *time.Time               `json:"current_period_end,omitempty"`
	CancelAtPeriodEnd bool                     `json:"cancel_at_period_end"`
	CardBrand         string                   `json:"card_brand,omitempty"`
	CardLast4         string                   `json:"card_last4,omitempty"`
}

type usageSummary struct {
	Period   string `json:"period"`
	AIDrafts int    `json:"ai_drafts"`
}

type billingSummary struct {
	Plan         enums.PlanID         `json:"plan"`
	Limits       plans.Limits         `json:"limits"`
	Usage        usageSummary         `json:"usage"`
	Subscription *subscriptionSummary `json:"subscription,omitempty"`
	Entitlements []string             `json:"entitlements"`
}

// BillingSummary reports the caller's effective plan, limits, current month
// usage and billing state in one payload.
func BillingSummary(planSvc planReader, usageRepo draftUsageReader, billingRepo subscriptionReader, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := requireUser(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		plan, limits, err := planSvc.CurrentLimits(r.Context(), userID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		period := usage.PeriodMonth(time.Now())
		drafts, err := usageRepo.DraftsThisMonth(r.Context(), userID, period)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		summary := billingSummary{
			Plan:   plan,
			Limits: limits,
			Usage: usageSummary{
				Period:   period.Format("2006-01"),
				AIDrafts: drafts,
			},
			Entitlements: []string{},
		}

		subs, err := billingRepo.ListSubscriptionsByUser(r.Context(), userID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		for _, sub := range subs {
			if !sub.Status.IsEntitling() {
				continue
			}
			summary.Subscription = &subscriptionSummary{
				Status:            sub.Status,
				PriceLookupKey:    sub.PriceLookupKey,
				CurrentPeriodEnd:  sub.CurrentPeriodEnd,
				CancelAtPeriodEnd: sub.CancelAtPeriodEnd,
				CardBrand:         sub.CardBrand,
				CardLast4:         sub.CardLast4,
			}
			break
		}

		entitlements, err := billingRepo.ListActiveEntitlements(r.Context(), userID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		for _, ent := range entitlements {
			summary.Entitlements = append(summary.Entitlements, ent.ProductLookupKey)
		}

		responses.WriteSuccess(w, summary)
	}
}

// BillingCheckoutSession opens a Stripe-hosted checkout and returns its URL.
func BillingCheckoutSession(svc *billing.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := requireUser(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var body billing.CheckoutRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		url, err := svc.CreateCheckoutSession(r.Context(), userID, body)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"url": url})
	}
}

// BillingPortalSession opens the Stripe customer portal and returns its URL.
// An optional session_id query parameter adopts the customer from a freshly
// completed checkout before the local mapping has caught up.
func BillingPortalSession(svc *billing.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := requireUser(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		url, err := svc.CreatePortalSession(r.Context(), userID, r.URL.Query().Get("session_id"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"url": url})
	}
}

// BillingBackfill re-pulls the caller's Stripe state into the local snapshot.
func BillingBackfill(svc *billing.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := requireUser(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := svc.SyncCustomer(r.Context(), userID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "synced"})
	}
}
