package billing

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/stripe/stripe-go/v84"
	"gorm.io/gorm"

	"github.com/Ryan02062001/thankaroo-backend/internal/plans"
	"github.com/Ryan02062001/thankaroo-backend/pkg/config"
	"github.com/Ryan02062001/thankaroo-backend/pkg/db/models"
	pkgerrors "github.com/Ryan02062001/thankaroo-backend/pkg/errors"
	"github.com/Ryan02062001/thankaroo-backend/pkg/logger"
)

const (
	subscriptionSyncLimit    = 10
	checkoutSessionSyncLimit = 20
)

type userReader interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
}

// ServiceParams groups dependencies for the billing service.
type ServiceParams struct {
	Repo    Repository
	Users   userReader
	Stripe  StripeBillingClient
	Billing config.BillingConfig
	Logger  *logger.Logger
}

// Service orchestrates Stripe customer lifecycle, checkout, portal access,
// and the pull-reconcile sync that keeps local billing rows current.
type Service struct {
	repo   Repository
	users  userReader
	stripe StripeBillingClient
	cfg    config.BillingConfig
	logg   *logger.Logger
}

// NewService builds a billing service.
func NewService(params ServiceParams) (*Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("billing repository is required")
	}
	if params.Users == nil {
		return nil, fmt.Errorf("user repository is required")
	}
	if params.Stripe == nil {
		return nil, fmt.Errorf("stripe client is required")
	}
	return &Service{
		repo:   params.Repo,
		users:  params.Users,
		stripe: params.Stripe,
		cfg:    params.Billing,
		logg:   params.Logger,
	}, nil
}

// SyncHints carries optional identity hints extracted from a webhook event.
type SyncHints struct {
	UserID *uuid.UUID
	Email  string
}

// EnsureCustomer returns the Stripe customer mapped to the user, creating
// one when none exists yet.
func (s *Service) EnsureCustomer(ctx context.Context, userID uuid.UUID) (*models.BillingCustomer, error) {
	existing, err := s.repo.FindCustomerByUserID(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load billing customer")
	}
	if existing != nil {
		return existing, nil
	}

	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load user")
	}

	stripeCustomer, err := s.stripe.FindCustomerByEmail(ctx, user.Email)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "search stripe customer")
	}
	if stripeCustomer == nil {
		params := &stripe.CustomerParams{
			Email: stripe.String(user.Email),
			Name:  stripe.String(strings.TrimSpace(user.FirstName + " " + user.LastName)),
		}
		params.AddMetadata("user_id", userID.String())
		stripeCustomer, err = s.stripe.CreateCustomer(ctx, params)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create stripe customer")
		}
	}

	customer := &models.BillingCustomer{
		UserID:           userID,
		StripeCustomerID: stripeCustomer.ID,
	}
	if err := s.repo.UpsertCustomer(ctx, customer); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "persist billing customer")
	}
	return customer, nil
}

// SyncCustomer refreshes the user's billing rows from Stripe. Users without
// a Stripe customer mapping have nothing to sync.
func (s *Service) SyncCustomer(ctx context.Context, userID uuid.UUID) error {
	customer, err := s.repo.FindCustomerByUserID(ctx, userID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load billing customer")
	}
	if customer == nil {
		return nil
	}
	return s.SyncStripeCustomer(ctx, customer.StripeCustomerID, SyncHints{UserID: &userID})
}

// SyncStripeCustomer pull-reconciles everything Stripe knows about the
// customer into local rows: the subscription snapshot is replaced wholesale
// and completed one-time purchases become active entitlements. Running it
// twice is a no-op, so webhook replays and manual backfills are safe.
func (s *Service) SyncStripeCustomer(ctx context.Context, stripeCustomerID string, hints SyncHints) error {
	if stripeCustomerID == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "stripe customer id is required")
	}

	userID, err := s.resolveUser(ctx, stripeCustomerID, hints)
	if err != nil {
		return err
	}

	if err := s.repo.UpsertCustomer(ctx, &models.BillingCustomer{
		UserID:           userID,
		StripeCustomerID: stripeCustomerID,
	}); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "persist billing customer")
	}

	subs, err := s.stripe.ListSubscriptions(ctx, stripeCustomerID, subscriptionSyncLimit)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list stripe subscriptions")
	}

	keepIDs := make([]string, 0, len(subs))
	for _, sub := range subs {
		row, mapErr := SubscriptionFromStripe(userID, sub)
		if mapErr != nil {
			if s.logg != nil {
				s.logg.Warn(ctx, fmt.Sprintf("skipping unmappable subscription %s: %v", sub.ID, mapErr))
			}
			continue
		}
		if err := s.repo.UpsertSubscription(ctx, row); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "persist subscription")
		}
		keepIDs = append(keepIDs, row.ID)
	}
	if err := s.repo.DeleteSubscriptionsExcept(ctx, userID, keepIDs); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "prune stale subscriptions")
	}

	sessions, err := s.stripe.ListCheckoutSessions(ctx, stripeCustomerID, checkoutSessionSyncLimit)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list checkout sessions")
	}
	for _, session := range sessions {
		lookupKey := entitlementLookupKey(session)
		if lookupKey == "" {
			continue
		}
		if _, known := plans.PlanForProductLookupKey(lookupKey); !known {
			continue
		}
		if err := s.repo.UpsertEntitlement(ctx, &models.BillingEntitlement{
			UserID:           userID,
			ProductLookupKey: lookupKey,
			Active:           true,
		}); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "persist entitlement")
		}
	}

	return nil
}

func (s *Service) resolveUser(ctx context.Context, stripeCustomerID string, hints SyncHints) (uuid.UUID, error) {
	if hints.UserID != nil && *hints.UserID != uuid.Nil {
		return *hints.UserID, nil
	}

	customer, err := s.repo.FindCustomerByStripeID(ctx, stripeCustomerID)
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load billing customer")
	}
	if customer != nil {
		return customer.UserID, nil
	}

	email := strings.ToLower(strings.TrimSpace(hints.Email))
	if email == "" {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeNotFound, "no user mapped to stripe customer")
	}
	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return uuid.Nil, pkgerrors.New(pkgerrors.CodeNotFound, "no user mapped to stripe customer")
		}
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "lookup user by email")
	}
	return user.ID, nil
}

// CheckoutRequest selects the price for a new checkout session. Exactly one
// of LookupKey or PriceID must be set.
type CheckoutRequest struct {
	LookupKey string `json:"lookup_key" validate:"required_without=PriceID"`
	PriceID   string `json:"price_id" validate:"required_without=LookupKey"`
}

// CreateCheckoutSession starts a Stripe-hosted checkout for the user and
// returns the redirect URL. Recurring prices open a subscription checkout,
// one-time prices a payment checkout.
func (s *Service) CreateCheckoutSession(ctx context.Context, userID uuid.UUID, req CheckoutRequest) (string, error) {
	priceID := strings.TrimSpace(req.PriceID)
	recurring := false

	if priceID == "" {
		lookupKey := strings.TrimSpace(req.LookupKey)
		if lookupKey == "" {
			return "", pkgerrors.New(pkgerrors.CodeValidation, "lookup_key or price_id is required")
		}
		prices, err := s.stripe.ListPrices(ctx, []string{lookupKey})
		if err != nil {
			return "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "resolve price")
		}
		if len(prices) == 0 {
			return "", pkgerrors.New(pkgerrors.CodeNotFound, "price not found")
		}
		priceID = prices[0].ID
		recurring = prices[0].Recurring != nil
	}

	customer, err := s.EnsureCustomer(ctx, userID)
	if err != nil {
		return "", err
	}

	mode := stripe.CheckoutSessionModePayment
	if recurring {
		mode = stripe.CheckoutSessionModeSubscription
	}

	params := &stripe.CheckoutSessionParams{
		Customer:          stripe.String(customer.StripeCustomerID),
		Mode:              stripe.String(string(mode)),
		SuccessURL:        stripe.String(s.cfg.CheckoutSuccessURL),
		CancelURL:         stripe.String(s.cfg.CheckoutCancelURL),
		ClientReferenceID: stripe.String(userID.String()),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				Price:    stripe.String(priceID),
				Quantity: stripe.Int64(1),
			},
		},
	}
	params.AddMetadata("user_id", userID.String())

	session, err := s.stripe.CreateCheckoutSession(ctx, params)
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create checkout session")
	}
	return session.URL, nil
}

// CreatePortalSession opens a Stripe billing portal session for the user.
// When a checkout session id is supplied its customer is adopted first, which
// covers users landing back from checkout before any webhook has fired.
func (s *Service) CreatePortalSession(ctx context.Context, userID uuid.UUID, checkoutSessionID string) (string, error) {
	var stripeCustomerID string

	if id := strings.TrimSpace(checkoutSessionID); id != "" {
		session, err := s.stripe.GetCheckoutSession(ctx, id)
		if err != nil {
			return "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load checkout session")
		}
		if session.Customer != nil {
			stripeCustomerID = session.Customer.ID
			if err := s.repo.UpsertCustomer(ctx, &models.BillingCustomer{
				UserID:           userID,
				StripeCustomerID: stripeCustomerID,
			}); err != nil {
				return "", pkgerrors.Wrap(pkgerrors.CodeInternal, err, "persist billing customer")
			}
		}
	}

	if stripeCustomerID == "" {
		customer, err := s.EnsureCustomer(ctx, userID)
		if err != nil {
			return "", err
		}
		stripeCustomerID = customer.StripeCustomerID
	}

	params := &stripe.BillingPortalSessionParams{
		Customer:  stripe.String(stripeCustomerID),
		ReturnURL: stripe.String(s.cfg.PortalReturnURL),
	}
	session, err := s.stripe.CreatePortalSession(ctx, params)
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create portal session")
	}
	return session.URL, nil
}

// PriceDTO is the public shape of a purchasable price.
type PriceDTO struct {
	ID          string `json:"id"`
	LookupKey   string `json:"lookup_key"`
	ProductName string `json:"product_name,omitempty"`
	UnitAmount  int64  `json:"unit_amount"`
	Currency    string `json:"currency"`
	Interval    string `json:"interval,omitempty"`
}

// ListPrices returns the purchasable prices for every known lookup key.
func (s *Service) ListPrices(ctx context.Context) ([]PriceDTO, error) {
	lookupKeys := plans.SubscriptionLookupKeys()
	lookupKeys = append(lookupKeys, plans.EntitlementLookupKeys()...)

	prices, err := s.stripe.ListPrices(ctx, lookupKeys)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list prices")
	}

	out := make([]PriceDTO, 0, len(prices))
	for _, p := range prices {
		dto := PriceDTO{
			ID:         p.ID,
			LookupKey:  p.LookupKey,
			UnitAmount: p.UnitAmount,
			Currency:   string(p.Currency),
		}
		if p.Product != nil {
			dto.ProductName = p.Product.Name
		}
		if p.Recurring != nil {
			dto.Interval = string(p.Recurring.Interval)
		}
		out = append(out, dto)
	}
	return out, nil
}
