package usage

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Ryan02062001/thankaroo-backend/pkg/db/models"
)

// Repository handles monthly usage counters.
type Repository struct {
	db *gorm.DB
}

// NewRepository returns a usage repository bound to the provided database.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// PeriodMonth truncates a moment to the first day of its UTC month, the
// canonical key for usage rows.
func PeriodMonth(at time.Time) time.Time {
	at = at.UTC()
	return time.Date(at.Year(), at.Month(), 1, 0, 0, 0, 0, time.UTC)
}

// DraftsThisMonth reports the AI drafts consumed in the given period.
// Missing row means zero.
func (r *Repository) DraftsThisMonth(ctx context.Context, userID uuid.UUID, period time.Time) (int, error) {
	var row models.UsageMonthly
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND period_month = ?", userID, PeriodMonth(period)).
		First(&row).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return 0, nil
		}
		return 0, err
	}
	return row.AIDrafts, nil
}

// IncrementDrafts bumps the counter by delta, creating the period row on
// first use.
func (r *Repository) IncrementDrafts(ctx context.Context, userID uuid.UUID, period time.Time, delta int) error {
	return r.db.WithContext(ctx).Exec(`
		INSERT INTO usage_monthly (user_id, period_month, ai_drafts, created_at, updated_at)
		VALUES (?, ?, ?, CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)
		ON CONFLICT (user_id, period_month)
		DO UPDATE SET ai_drafts = usage_monthly.ai_drafts + ?, updated_at = CURRENT_TIMESTAMP`,
		userID, PeriodMonth(period), delta, delta,
	).Error
}

// ReserveDraft atomically consumes one draft from the period budget. The
// increment and the limit check happen in a single statement so concurrent
// requests cannot both slip under the cap. A nil limit means unlimited.
// Returns whether the reservation succeeded and the count after it.
func (r *Repository) ReserveDraft(ctx context.Context, userID uuid.UUID, period time.Time, limit *int) (bool, int, error) {
	month := PeriodMonth(period)

	if limit == nil {
		var count int
		err := r.db.WithContext(ctx).Raw(`
			INSERT INTO usage_monthly (user_id, period_month, ai_drafts, created_at, updated_at)
			VALUES (?, ?, 1, CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)
			ON CONFLICT (user_id, period_month)
			DO UPDATE SET ai_drafts = usage_monthly.ai_drafts + 1, updated_at = CURRENT_TIMESTAMP
			RETURNING ai_drafts`,
			userID, month,
		).Scan(&count).Error
		if err != nil {
			return false, 0, err
		}
		return true, count, nil
	}

	if *limit <= 0 {
		count, err := r.DraftsThisMonth(ctx, userID, month)
		return false, count, err
	}

	var counts []int
	err := r.db.WithContext(ctx).Raw(`
		INSERT INTO usage_monthly (user_id, period_month, ai_drafts, created_at, updated_at)
		VALUES (?, ?, 1, CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)
		ON CONFLICT (user_id, period_month)
		DO UPDATE SET ai_drafts = usage_monthly.ai_drafts + 1, updated_at = CURRENT_TIMESTAMP
		WHERE usage_monthly.ai_drafts < ?
		RETURNING ai_drafts`,
		userID, month, *limit,
	).Scan(&counts).Error
	if err != nil {
		return false, 0, err
	}
	if len(counts) == 0 {
		// Conflict row exists and already sits at the cap.
		count, err := r.DraftsThisMonth(ctx, userID, month)
		return false, count, err
	}
	return true, counts[0], nil
}
