package plans

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ryan02062001/thankaroo-backend/pkg/db/models"
	"github.com/Ryan02062001/thankaroo-backend/pkg/enums"
)

type stubBillingReader struct {
	customer     *models.BillingCustomer
	subs         []models.BillingSubscription
	entitlements []models.BillingEntitlement
}

func (s *stubBillingReader) FindCustomerByUserID(_ context.Context, _ uuid.UUID) (*models.BillingCustomer, error) {
	return s.customer, nil
}

func (s *stubBillingReader) ListSubscriptionsByUser(_ context.Context, _ uuid.UUID) ([]models.BillingSubscription, error) {
	return s.subs, nil
}

func (s *stubBillingReader) ListActiveEntitlements(_ context.Context, _ uuid.UUID) ([]models.BillingEntitlement, error) {
	return s.entitlements, nil
}

type stubSyncer struct {
	calls int
	err   error
	apply func()
}

func (s *stubSyncer) SyncCustomer(_ context.Context, _ uuid.UUID) error {
	s.calls++
	if s.apply != nil {
		s.apply()
	}
	return s.err
}

func newTestService(t *testing.T, billing *stubBillingReader, syncer customerSyncer) *Service {
	t.Helper()
	svc, err := NewService(ServiceParams{BillingRepo: billing, Syncer: syncer})
	require.NoError(t, err)
	return svc
}

func TestNewServiceRequiresBillingRepo(t *testing.T) {
	_, err := NewService(ServiceParams{})
	assert.Error(t, err)
}

func TestCurrentPlanFastDefaultsToFree(t *testing.T) {
	svc := newTestService(t, &stubBillingReader{}, nil)

	plan, err := svc.CurrentPlanFast(context.Background(), uuid.New())
	require.NoError(t, err)
	assert.Equal(t, enums.PlanFree, plan)
}

func TestCurrentPlanFastActiveProSubscription(t *testing.T) {
	billing := &stubBillingReader{
		subs: []models.BillingSubscription{
			{ID: "sub_1", Status: enums.SubscriptionStatusActive, PriceLookupKey: "thankaroo_pro_monthly"},
		},
	}
	svc := newTestService(t, billing, nil)

	plan, err := svc.CurrentPlanFast(context.Background(), uuid.New())
	require.NoError(t, err)
	assert.Equal(t, enums.PlanPro, plan)
}

func TestCurrentPlanFastIgnoresCanceledSubscription(t *testing.T) {
	billing := &stubBillingReader{
		subs: []models.BillingSubscription{
			{ID: "sub_1", Status: enums.SubscriptionStatusCanceled, PriceLookupKey: "thankaroo_pro_monthly"},
		},
	}
	svc := newTestService(t, billing, nil)

	plan, err := svc.CurrentPlanFast(context.Background(), uuid.New())
	require.NoError(t, err)
	assert.Equal(t, enums.PlanFree, plan)
}

func TestCurrentPlanFastWeddingEntitlement(t *testing.T) {
	billing := &stubBillingReader{
		entitlements: []models.BillingEntitlement{
			{ProductLookupKey: "thankaroo_wedding_pass", Active: true},
		},
	}
	svc := newTestService(t, billing, nil)

	plan, err := svc.CurrentPlanFast(context.Background(), uuid.New())
	require.NoError(t, err)
	assert.Equal(t, enums.PlanWedding, plan)
}

func TestCurrentPlanFastProBeatsWedding(t *testing.T) {
	billing := &stubBillingReader{
		subs: []models.BillingSubscription{
			{ID: "sub_1", Status: enums.SubscriptionStatusTrialing, PriceLookupKey: "thankaroo_pro_yearly"},
		},
		entitlements: []models.BillingEntitlement{
			{ProductLookupKey: "thankaroo_wedding_pass", Active: true},
		},
	}
	svc := newTestService(t, billing, nil)

	plan, err := svc.CurrentPlanFast(context.Background(), uuid.New())
	require.NoError(t, err)
	assert.Equal(t, enums.PlanPro, plan)
}

func TestCurrentPlanSyncsWhenFreeAndCustomerExists(t *testing.T) {
	userID := uuid.New()
	billing := &stubBillingReader{
		customer: &models.BillingCustomer{UserID: userID, StripeCustomerID: "cus_123"},
	}
	syncer := &stubSyncer{}
	syncer.apply = func() {
		billing.subs = []models.BillingSubscription{
			{ID: "sub_1", Status: enums.SubscriptionStatusActive, PriceLookupKey: "thankaroo_pro_monthly"},
		}
	}
	svc := newTestService(t, billing, syncer)

	plan, err := svc.CurrentPlan(context.Background(), userID)
	require.NoError(t, err)
	assert.Equal(t, 1, syncer.calls)
	assert.Equal(t, enums.PlanPro, plan)
}

func TestCurrentPlanSkipsSyncWithoutCustomer(t *testing.T) {
	syncer := &stubSyncer{}
	svc := newTestService(t, &stubBillingReader{}, syncer)

	plan, err := svc.CurrentPlan(context.Background(), uuid.New())
	require.NoError(t, err)
	assert.Equal(t, 0, syncer.calls)
	assert.Equal(t, enums.PlanFree, plan)
}

func TestCurrentPlanSkipsSyncWhenAlreadyPaid(t *testing.T) {
	billing := &stubBillingReader{
		customer: &models.BillingCustomer{StripeCustomerID: "cus_123"},
		subs: []models.BillingSubscription{
			{ID: "sub_1", Status: enums.SubscriptionStatusActive, PriceLookupKey: "thankaroo_pro_monthly"},
		},
	}
	syncer := &stubSyncer{}
	svc := newTestService(t, billing, syncer)

	plan, err := svc.CurrentPlan(context.Background(), uuid.New())
	require.NoError(t, err)
	assert.Equal(t, 0, syncer.calls)
	assert.Equal(t, enums.PlanPro, plan)
}

func TestCurrentPlanSwallowsSyncFailure(t *testing.T) {
	billing := &stubBillingReader{
		customer: &models.BillingCustomer{StripeCustomerID: "cus_123"},
	}
	syncer := &stubSyncer{err: errors.New("stripe down")}
	svc := newTestService(t, billing, syncer)

	plan, err := svc.CurrentPlan(context.Background(), uuid.New())
	require.NoError(t, err)
	assert.Equal(t, 1, syncer.calls)
	assert.Equal(t, enums.PlanFree, plan)
}

func TestCurrentLimitsMatchesResolvedPlan(t *testing.T) {
	billing := &stubBillingReader{
		entitlements: []models.BillingEntitlement{
			{ProductLookupKey: "thankaroo_wedding_pass", Active: true},
		},
	}
	svc := newTestService(t, billing, nil)

	plan, limits, err := svc.CurrentLimits(context.Background(), uuid.New())
	require.NoError(t, err)
	assert.Equal(t, enums.PlanWedding, plan)
	assert.Equal(t, 3, *limits.MaxLists)
	assert.Nil(t, limits.MaxGiftsPerList)
}
