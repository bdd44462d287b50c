package billing

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Ryan02062001/thankaroo-backend/pkg/db/models"
)

// Repository handles billing persistence.
type Repository interface {
	WithTx(tx *gorm.DB) Repository

	UpsertCustomer(ctx context.Context, customer *models.BillingCustomer) error
	FindCustomerByUserID(ctx context.Context, userID uuid.UUID) (*models.BillingCustomer, error)
	FindCustomerByStripeID(ctx context.Context, stripeCustomerID string) (*models.BillingCustomer, error)

	UpsertSubscription(ctx context.Context, subscription *models.BillingSubscription) error
	DeleteSubscriptionsExcept(ctx context.Context, userID uuid.UUID, keepIDs []string) error
	ListSubscriptionsByUser(ctx context.Context, userID uuid.UUID) ([]models.BillingSubscription, error)

	UpsertEntitlement(ctx context.Context, entitlement *models.BillingEntitlement) error
	ListActiveEntitlements(ctx context.Context, userID uuid.UUID) ([]models.BillingEntitlement, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a billing repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) UpsertCustomer(ctx context.Context, customer *models.BillingCustomer) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"stripe_customer_id", "updated_at"}),
		}).
		Create(customer).Error
}

func (r *repository) FindCustomerByUserID(ctx context.Context, userID uuid.UUID) (*models.BillingCustomer, error) {
	var customer models.BillingCustomer
	if err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		First(&customer).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &customer, nil
}

func (r *repository) FindCustomerByStripeID(ctx context.Context, stripeCustomerID string) (*models.BillingCustomer, error) {
	if stripeCustomerID == "" {
		return nil, nil
	}
	var customer models.BillingCustomer
	if err := r.db.WithContext(ctx).
		Where("stripe_customer_id = ?", stripeCustomerID).
		First(&customer).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &customer, nil
}

func (r *repository) UpsertSubscription(ctx context.Context, subscription *models.BillingSubscription) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"user_id", "price_id", "price_lookup_key", "status",
				"current_period_end", "cancel_at_period_end",
				"card_brand", "card_last4", "updated_at",
			}),
		}).
		Create(subscription).Error
}

// DeleteSubscriptionsExcept removes rows Stripe no longer reports for the user.
func (r *repository) DeleteSubscriptionsExcept(ctx context.Context, userID uuid.UUID, keepIDs []string) error {
	query := r.db.WithContext(ctx).Where("user_id = ?", userID)
	if len(keepIDs) > 0 {
		query = query.Where("id NOT IN (?)", keepIDs)
	}
	return query.Delete(&models.BillingSubscription{}).Error
}

func (r *repository) ListSubscriptionsByUser(ctx context.Context, userID uuid.UUID) ([]models.BillingSubscription, error) {
	var subs []models.BillingSubscription
	if err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&subs).Error; err != nil {
		return nil, err
	}
	return subs, nil
}

func (r *repository) UpsertEntitlement(ctx context.Context, entitlement *models.BillingEntitlement) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "product_lookup_key"}},
			DoUpdates: clause.AssignmentColumns([]string{"active", "updated_at"}),
		}).
		Create(entitlement).Error
}

func (r *repository) ListActiveEntitlements(ctx context.Context, userID uuid.UUID) ([]models.BillingEntitlement, error) {
	var entitlements []models.BillingEntitlement
	if err := r.db.WithContext(ctx).
		Where("user_id = ? AND active", userID).
		Order("created_at DESC").
		Find(&entitlements).Error; err != nil {
		return nil, err
	}
	return entitlements, nil
}
