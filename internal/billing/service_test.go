package billing

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v84"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/Ryan02062001/thankaroo-backend/pkg/config"
	"github.com/Ryan02062001/thankaroo-backend/pkg/db/models"
	"github.com/Ryan02062001/thankaroo-backend/pkg/enums"
	pkgerrors "github.com/Ryan02062001/thankaroo-backend/pkg/errors"
)

func setupBillingTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)

	statements := []string{
		`CREATE TABLE IF NOT EXISTS billing_customers (
  user_id TEXT PRIMARY KEY,
  stripe_customer_id TEXT NOT NULL UNIQUE,
  created_at DATETIME,
  updated_at DATETIME
)`,
		`CREATE TABLE IF NOT EXISTS billing_subscriptions (
  id TEXT PRIMARY KEY,
  user_id TEXT NOT NULL,
  price_id TEXT,
  price_lookup_key TEXT,
  status TEXT NOT NULL,
  current_period_end DATETIME,
  cancel_at_period_end BOOLEAN NOT NULL DEFAULT FALSE,
  card_brand TEXT,
  card_last4 TEXT,
  created_at DATETIME,
  updated_at DATETIME
)`,
		`CREATE TABLE IF NOT EXISTS billing_entitlements (
  id TEXT PRIMARY KEY DEFAULT (lower(hex(randomblob(16)))),
  user_id TEXT NOT NULL,
  product_lookup_key TEXT NOT NULL,
  active BOOLEAN NOT NULL DEFAULT TRUE,
  created_at DATETIME,
  updated_at DATETIME,
  UNIQUE (user_id, product_lookup_key)
)`,
	}
	for _, stmt := range statements {
		require.NoError(t, db.Exec(stmt).Error)
	}
	return db
}

type stubUserReader struct {
	users map[uuid.UUID]*models.User
}

func (s *stubUserReader) FindByID(_ context.Context, id uuid.UUID) (*models.User, error) {
	user, ok := s.users[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return user, nil
}

func (s *stubUserReader) FindByEmail(_ context.Context, email string) (*models.User, error) {
	for _, user := range s.users {
		if user.Email == email {
			return user, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

type stubStripeClient struct {
	customers     map[string]*stripe.Customer
	subscriptions []*stripe.Subscription
	sessions      []*stripe.CheckoutSession
	prices        []*stripe.Price

	createdCustomers int
	checkoutParams   *stripe.CheckoutSessionParams
}

func (s *stubStripeClient) CreateCustomer(_ context.Context, params *stripe.CustomerParams) (*stripe.Customer, error) {
	s.createdCustomers++
	customer := &stripe.Customer{ID: "cus_created", Email: stripe.StringValue(params.Email)}
	if s.customers == nil {
		s.customers = map[string]*stripe.Customer{}
	}
	s.customers[customer.Email] = customer
	return customer, nil
}

func (s *stubStripeClient) FindCustomerByEmail(_ context.Context, email string) (*stripe.Customer, error) {
	if customer, ok := s.customers[email]; ok {
		return customer, nil
	}
	return nil, nil
}

func (s *stubStripeClient) ListSubscriptions(_ context.Context, _ string, _ int64) ([]*stripe.Subscription, error) {
	return s.subscriptions, nil
}

func (s *stubStripeClient) ListCheckoutSessions(_ context.Context, _ string, _ int64) ([]*stripe.CheckoutSession, error) {
	return s.sessions, nil
}

func (s *stubStripeClient) GetCheckoutSession(_ context.Context, id string) (*stripe.CheckoutSession, error) {
	for _, session := range s.sessions {
		if session.ID == id {
			return session, nil
		}
	}
	return nil, errors.New("no such checkout session")
}

func (s *stubStripeClient) CreateCheckoutSession(_ context.Context, params *stripe.CheckoutSessionParams) (*stripe.CheckoutSession, error) {
	s.checkoutParams = params
	return &stripe.CheckoutSession{ID: "cs_new", URL: "https://checkout.stripe.com/cs_new"}, nil
}

func (s *stubStripeClient) CreatePortalSession(_ context.Context, _ *stripe.BillingPortalSessionParams) (*stripe.BillingPortalSession, error) {
	return &stripe.BillingPortalSession{URL: "https://billing.stripe.com/session"}, nil
}

func (s *stubStripeClient) ListPrices(_ context.Context, _ []string) ([]*stripe.Price, error) {
	return s.prices, nil
}

type billingFixture struct {
	svc    *Service
	repo   Repository
	stripe *stubStripeClient
	users  *stubUserReader
	userID uuid.UUID
}

func newBillingFixture(t *testing.T) *billingFixture {
	t.Helper()

	repo := NewRepository(setupBillingTestDB(t))
	userID := uuid.New()
	users := &stubUserReader{users: map[uuid.UUID]*models.User{
		userID: {ID: userID, Email: "couple@example.com", FirstName: "Sam", LastName: "Rivera"},
	}}
	client := &stubStripeClient{customers: map[string]*stripe.Customer{}}

	svc, err := NewService(ServiceParams{
		Repo:    repo,
		Users:   users,
		Stripe:  client,
		Billing: config.BillingConfig{CheckoutSuccessURL: "https://thankaroo.com/success", CheckoutCancelURL: "https://thankaroo.com/pricing", PortalReturnURL: "https://thankaroo.com/account"},
	})
	require.NoError(t, err)

	return &billingFixture{svc: svc, repo: repo, stripe: client, users: users, userID: userID}
}

func TestEnsureCustomerCreatesAndPersistsMapping(t *testing.T) {
	fx := newBillingFixture(t)

	customer, err := fx.svc.EnsureCustomer(context.Background(), fx.userID)
	require.NoError(t, err)
	assert.Equal(t, "cus_created", customer.StripeCustomerID)
	assert.Equal(t, 1, fx.stripe.createdCustomers)

	// Second call reuses the stored mapping without another Stripe call.
	customer, err = fx.svc.EnsureCustomer(context.Background(), fx.userID)
	require.NoError(t, err)
	assert.Equal(t, "cus_created", customer.StripeCustomerID)
	assert.Equal(t, 1, fx.stripe.createdCustomers)
}

func TestEnsureCustomerAdoptsExistingStripeCustomer(t *testing.T) {
	fx := newBillingFixture(t)
	fx.stripe.customers["couple@example.com"] = &stripe.Customer{ID: "cus_existing", Email: "couple@example.com"}

	customer, err := fx.svc.EnsureCustomer(context.Background(), fx.userID)
	require.NoError(t, err)
	assert.Equal(t, "cus_existing", customer.StripeCustomerID)
	assert.Equal(t, 0, fx.stripe.createdCustomers)
}

func TestEnsureCustomerUnknownUser(t *testing.T) {
	fx := newBillingFixture(t)

	_, err := fx.svc.EnsureCustomer(context.Background(), uuid.New())
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeNotFound, pkgerrors.As(err).Code())
}

func TestSyncStripeCustomerReconcilesSubscriptionsAndEntitlements(t *testing.T) {
	fx := newBillingFixture(t)
	fx.stripe.subscriptions = []*stripe.Subscription{stripeTestSubscription()}
	fx.stripe.sessions = []*stripe.CheckoutSession{paidWeddingPassSession()}

	err := fx.svc.SyncStripeCustomer(context.Background(), "cus_sync", SyncHints{UserID: &fx.userID})
	require.NoError(t, err)

	subs, err := fx.repo.ListSubscriptionsByUser(context.Background(), fx.userID)
	require.NoError(t, err)
	require.Len(t, subs, 1)
	assert.Equal(t, "sub_123", subs[0].ID)
	assert.Equal(t, enums.SubscriptionStatusActive, subs[0].Status)
	assert.Equal(t, "thankaroo_pro_monthly", subs[0].PriceLookupKey)

	entitlements, err := fx.repo.ListActiveEntitlements(context.Background(), fx.userID)
	require.NoError(t, err)
	require.Len(t, entitlements, 1)
	assert.Equal(t, "thankaroo_wedding_pass", entitlements[0].ProductLookupKey)
	assert.True(t, entitlements[0].Active)
}

func TestSyncStripeCustomerIsIdempotent(t *testing.T) {
	fx := newBillingFixture(t)
	fx.stripe.subscriptions = []*stripe.Subscription{stripeTestSubscription()}
	fx.stripe.sessions = []*stripe.CheckoutSession{paidWeddingPassSession()}

	require.NoError(t, fx.svc.SyncStripeCustomer(context.Background(), "cus_sync", SyncHints{UserID: &fx.userID}))
	require.NoError(t, fx.svc.SyncStripeCustomer(context.Background(), "cus_sync", SyncHints{UserID: &fx.userID}))

	subs, err := fx.repo.ListSubscriptionsByUser(context.Background(), fx.userID)
	require.NoError(t, err)
	assert.Len(t, subs, 1)

	entitlements, err := fx.repo.ListActiveEntitlements(context.Background(), fx.userID)
	require.NoError(t, err)
	assert.Len(t, entitlements, 1)
}

func TestSyncStripeCustomerPrunesVanishedSubscriptions(t *testing.T) {
	fx := newBillingFixture(t)
	fx.stripe.subscriptions = []*stripe.Subscription{stripeTestSubscription()}

	require.NoError(t, fx.svc.SyncStripeCustomer(context.Background(), "cus_sync", SyncHints{UserID: &fx.userID}))

	fx.stripe.subscriptions = nil
	require.NoError(t, fx.svc.SyncStripeCustomer(context.Background(), "cus_sync", SyncHints{UserID: &fx.userID}))

	subs, err := fx.repo.ListSubscriptionsByUser(context.Background(), fx.userID)
	require.NoError(t, err)
	assert.Empty(t, subs)
}

func TestSyncStripeCustomerResolvesUserByStoredMapping(t *testing.T) {
	fx := newBillingFixture(t)
	require.NoError(t, fx.repo.UpsertCustomer(context.Background(), &models.BillingCustomer{
		UserID:           fx.userID,
		StripeCustomerID: "cus_known",
	}))
	fx.stripe.subscriptions = []*stripe.Subscription{stripeTestSubscription()}

	err := fx.svc.SyncStripeCustomer(context.Background(), "cus_known", SyncHints{})
	require.NoError(t, err)

	subs, err := fx.repo.ListSubscriptionsByUser(context.Background(), fx.userID)
	require.NoError(t, err)
	assert.Len(t, subs, 1)
}

func TestSyncStripeCustomerResolvesUserByEmailHint(t *testing.T) {
	fx := newBillingFixture(t)

	err := fx.svc.SyncStripeCustomer(context.Background(), "cus_fresh", SyncHints{Email: "Couple@Example.com "})
	require.NoError(t, err)

	customer, err := fx.repo.FindCustomerByUserID(context.Background(), fx.userID)
	require.NoError(t, err)
	require.NotNil(t, customer)
	assert.Equal(t, "cus_fresh", customer.StripeCustomerID)
}

func TestSyncStripeCustomerNoMappingNoHints(t *testing.T) {
	fx := newBillingFixture(t)

	err := fx.svc.SyncStripeCustomer(context.Background(), "cus_stranger", SyncHints{})
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeNotFound, pkgerrors.As(err).Code())
}

func TestSyncStripeCustomerIgnoresUnknownLookupKeys(t *testing.T) {
	fx := newBillingFixture(t)
	session := paidWeddingPassSession()
	session.LineItems.Data[0].Price.LookupKey = "someone_elses_product"
	fx.stripe.sessions = []*stripe.CheckoutSession{session}

	require.NoError(t, fx.svc.SyncStripeCustomer(context.Background(), "cus_sync", SyncHints{UserID: &fx.userID}))

	entitlements, err := fx.repo.ListActiveEntitlements(context.Background(), fx.userID)
	require.NoError(t, err)
	assert.Empty(t, entitlements)
}

func TestCreateCheckoutSessionByLookupKey(t *testing.T) {
	fx := newBillingFixture(t)
	fx.stripe.prices = []*stripe.Price{
		{ID: "price_pro", LookupKey: "thankaroo_pro_monthly", Recurring: &stripe.PriceRecurring{Interval: stripe.PriceRecurringIntervalMonth}},
	}

	url, err := fx.svc.CreateCheckoutSession(context.Background(), fx.userID, CheckoutRequest{LookupKey: "thankaroo_pro_monthly"})
	require.NoError(t, err)
	assert.Equal(t, "https://checkout.stripe.com/cs_new", url)

	params := fx.stripe.checkoutParams
	require.NotNil(t, params)
	assert.Equal(t, string(stripe.CheckoutSessionModeSubscription), stripe.StringValue(params.Mode))
	assert.Equal(t, "price_pro", stripe.StringValue(params.LineItems[0].Price))
}

func TestCreateCheckoutSessionOneTimePriceUsesPaymentMode(t *testing.T) {
	fx := newBillingFixture(t)
	fx.stripe.prices = []*stripe.Price{
		{ID: "price_pass", LookupKey: "thankaroo_wedding_pass"},
	}

	_, err := fx.svc.CreateCheckoutSession(context.Background(), fx.userID, CheckoutRequest{LookupKey: "thankaroo_wedding_pass"})
	require.NoError(t, err)
	assert.Equal(t, string(stripe.CheckoutSessionModePayment), stripe.StringValue(fx.stripe.checkoutParams.Mode))
}

func TestCreateCheckoutSessionUnknownLookupKey(t *testing.T) {
	fx := newBillingFixture(t)

	_, err := fx.svc.CreateCheckoutSession(context.Background(), fx.userID, CheckoutRequest{LookupKey: "nope"})
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeNotFound, pkgerrors.As(err).Code())
}

func TestCreateCheckoutSessionRequiresSelector(t *testing.T) {
	fx := newBillingFixture(t)

	_, err := fx.svc.CreateCheckoutSession(context.Background(), fx.userID, CheckoutRequest{})
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.As(err).Code())
}

func TestCreatePortalSessionAdoptsCheckoutCustomer(t *testing.T) {
	fx := newBillingFixture(t)
	fx.stripe.sessions = []*stripe.CheckoutSession{
		{ID: "cs_done", Customer: &stripe.Customer{ID: "cus_from_checkout"}},
	}

	url, err := fx.svc.CreatePortalSession(context.Background(), fx.userID, "cs_done")
	require.NoError(t, err)
	assert.Equal(t, "https://billing.stripe.com/session", url)

	customer, err := fx.repo.FindCustomerByUserID(context.Background(), fx.userID)
	require.NoError(t, err)
	require.NotNil(t, customer)
	assert.Equal(t, "cus_from_checkout", customer.StripeCustomerID)
}

func TestListPricesMapsStripeFields(t *testing.T) {
	fx := newBillingFixture(t)
	fx.stripe.prices = []*stripe.Price{
		{
			ID:         "price_pro",
			LookupKey:  "thankaroo_pro_monthly",
			UnitAmount: 900,
			Currency:   stripe.CurrencyUSD,
			Product:    &stripe.Product{Name: "Thankaroo Pro"},
			Recurring:  &stripe.PriceRecurring{Interval: stripe.PriceRecurringIntervalMonth},
		},
		{
			ID:         "price_pass",
			LookupKey:  "thankaroo_wedding_pass",
			UnitAmount: 2900,
			Currency:   stripe.CurrencyUSD,
		},
	}

	prices, err := fx.svc.ListPrices(context.Background())
	require.NoError(t, err)
	require.Len(t, prices, 2)
	assert.Equal(t, "Thankaroo Pro", prices[0].ProductName)
	assert.Equal(t, "month", prices[0].Interval)
	assert.Equal(t, int64(2900), prices[1].UnitAmount)
	assert.Empty(t, prices[1].Interval)
}
