package plans

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/Ryan02062001/thankaroo-backend/pkg/db/models"
	"github.com/Ryan02062001/thankaroo-backend/pkg/enums"
	"github.com/Ryan02062001/thankaroo-backend/pkg/logger"
)

type billingReader interface {
	FindCustomerByUserID(ctx context.Context, userID uuid.UUID) (*models.BillingCustomer, error)
	ListSubscriptionsByUser(ctx context.Context, userID uuid.UUID) ([]models.BillingSubscription, error)
	ListActiveEntitlements(ctx context.Context, userID uuid.UUID) ([]models.BillingEntitlement, error)
}

type customerSyncer interface {
	SyncCustomer(ctx context.Context, userID uuid.UUID) error
}

// ServiceParams bundles the dependencies required to build a plan resolver.
type ServiceParams struct {
	BillingRepo billingReader
	Syncer      customerSyncer
	Logger      *logger.Logger
}

// Service resolves the effective plan tier for a user from local billing
// state, optionally refreshing that state from Stripe first.
type Service struct {
	billing billingReader
	syncer  customerSyncer
	logg    *logger.Logger
}

// NewService constructs a plan resolver with the provided dependencies.
// Syncer may be nil, in which case CurrentPlan behaves like CurrentPlanFast.
func NewService(params ServiceParams) (*Service, error) {
	if params.BillingRepo == nil {
		return nil, fmt.Errorf("billing repository is required")
	}
	return &Service{
		billing: params.BillingRepo,
		syncer:  params.Syncer,
		logg:    params.Logger,
	}, nil
}

// CurrentPlanFast resolves the plan from local rows only. This is the hot
// path used on every quota check; it never calls Stripe.
func (s *Service) CurrentPlanFast(ctx context.Context, userID uuid.UUID) (enums.PlanID, error) {
	plan := enums.PlanFree

	subs, err := s.billing.ListSubscriptionsByUser(ctx, userID)
	if err != nil {
		return "", err
	}
	for _, sub := range subs {
		if !sub.Status.IsEntitling() {
			continue
		}
		if granted, ok := PlanForPriceLookupKey(sub.PriceLookupKey); ok {
			plan = Best(plan, granted)
		}
	}

	entitlements, err := s.billing.ListActiveEntitlements(ctx, userID)
	if err != nil {
		return "", err
	}
	for _, ent := range entitlements {
		if granted, ok := PlanForProductLookupKey(ent.ProductLookupKey); ok {
			plan = Best(plan, granted)
		}
	}

	return plan, nil
}

// CurrentPlan resolves the plan, refreshing local billing rows from Stripe
// first when the fast path comes back free and a Stripe customer exists.
// Sync failures are logged and ignored so a Stripe outage degrades to
// locally-known state instead of erroring.
func (s *Service) CurrentPlan(ctx context.Context, userID uuid.UUID) (enums.PlanID, error) {
	plan, err := s.CurrentPlanFast(ctx, userID)
	if err != nil {
		return "", err
	}
	if plan != enums.PlanFree || s.syncer == nil {
		return plan, nil
	}

	customer, err := s.billing.FindCustomerByUserID(ctx, userID)
	if err != nil || customer == nil {
		return plan, nil
	}

	if err := s.syncer.SyncCustomer(ctx, userID); err != nil {
		if s.logg != nil {
			s.logg.Warn(ctx, fmt.Sprintf("plan resolution sync failed for user %s: %v", userID, err))
		}
		return plan, nil
	}

	return s.CurrentPlanFast(ctx, userID)
}

// CurrentLimits resolves the plan and returns its quota limits.
func (s *Service) CurrentLimits(ctx context.Context, userID uuid.UUID) (enums.PlanID, Limits, error) {
	plan, err := s.CurrentPlanFast(ctx, userID)
	if err != nil {
		return "", Limits{}, err
	}
	return plan, LimitsFor(plan), nil
}
