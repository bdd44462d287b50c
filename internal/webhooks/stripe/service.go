package stripewebhook

import (
	"context"
	"encoding/json"

	"github.com/stripe/stripe-go/v84"

	"github.com/Ryan02062001/thankaroo-backend/internal/billing"
	pkgerrors "github.com/Ryan02062001/thankaroo-backend/pkg/errors"
)

type customerSyncer interface {
	SyncStripeCustomer(ctx context.Context, stripeCustomerID string, hints billing.SyncHints) error
}

// ServiceParams groups dependencies for the Stripe webhook service.
type ServiceParams struct {
	Billing customerSyncer
}

// Service turns allow-listed Stripe events into a pull-reconcile of the
// affected customer. Every handled event funnels into the same sync path,
// so ordering and duplicate delivery do not matter.
type Service struct {
	billing customerSyncer
}

// NewService builds a Stripe webhook service.
func NewService(params ServiceParams) (*Service, error) {
	if params.Billing == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "billing service required")
	}
	return &Service{billing: params.Billing}, nil
}

// HandleEvent processes a verified Stripe event. Unrecognized event types
// are acknowledged without action.
func (s *Service) HandleEvent(ctx context.Context, event *stripe.Event) error {
	if event == nil || event.Data == nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "stripe event data required")
	}

	switch event.Type {
	case stripe.EventTypeCheckoutSessionCompleted:
		var session stripe.CheckoutSession
		if err := json.Unmarshal(event.Data.Raw, &session); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode checkout session event")
		}
		if session.Customer == nil || session.Customer.ID == "" {
			return nil
		}
		hints := billing.SyncHints{}
		if session.CustomerDetails != nil {
			hints.Email = session.CustomerDetails.Email
		}
		return s.billing.SyncStripeCustomer(ctx, session.Customer.ID, hints)

	case stripe.EventTypeCustomerSubscriptionCreated,
		stripe.EventTypeCustomerSubscriptionUpdated,
		stripe.EventTypeCustomerSubscriptionDeleted,
		stripe.EventTypeCustomerSubscriptionTrialWillEnd:
		var sub stripe.Subscription
		if err := json.Unmarshal(event.Data.Raw, &sub); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode subscription event")
		}
		if sub.Customer == nil || sub.Customer.ID == "" {
			return nil
		}
		return s.billing.SyncStripeCustomer(ctx, sub.Customer.ID, billing.SyncHints{})

	case stripe.EventTypeInvoicePaid,
		stripe.EventTypeInvoicePaymentSucceeded,
		stripe.EventTypeInvoicePaymentFailed:
		customerID := event.GetObjectValue("customer")
		if customerID == "" {
			return nil
		}
		return s.billing.SyncStripeCustomer(ctx, customerID, billing.SyncHints{})

	default:
		return nil
	}
}
