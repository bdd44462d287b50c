package usage

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupUsageTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)

	schema := `
CREATE TABLE IF NOT EXISTS usage_monthly (
  user_id TEXT NOT NULL,
  period_month DATE NOT NULL,
  ai_drafts INTEGER NOT NULL DEFAULT 0,
  created_at DATETIME,
  updated_at DATETIME,
  PRIMARY KEY (user_id, period_month)
);`
	require.NoError(t, db.Exec(schema).Error)
	return db
}

func intPtr(v int) *int { return &v }

func TestPeriodMonthTruncatesToFirstOfMonth(t *testing.T) {
	at := time.Date(2025, time.March, 19, 14, 32, 11, 0, time.FixedZone("CET", 3600))
	got := PeriodMonth(at)
	assert.Equal(t, time.Date(2025, time.March, 1, 0, 0, 0, 0, time.UTC), got)
}

func TestDraftsThisMonthMissingRowIsZero(t *testing.T) {
	repo := NewRepository(setupUsageTestDB(t))
	count, err := repo.DraftsThisMonth(context.Background(), uuid.New(), time.Now())
	require.NoError(t, err)
	assert.Equal(t, 0, count)
}

func TestIncrementDraftsAccumulates(t *testing.T) {
	repo := NewRepository(setupUsageTestDB(t))
	userID := uuid.New()
	now := time.Now()

	require.NoError(t, repo.IncrementDrafts(context.Background(), userID, now, 1))
	require.NoError(t, repo.IncrementDrafts(context.Background(), userID, now, 1))

	count, err := repo.DraftsThisMonth(context.Background(), userID, now)
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestReserveDraftStopsAtLimit(t *testing.T) {
	repo := NewRepository(setupUsageTestDB(t))
	userID := uuid.New()
	now := time.Now()
	limit := intPtr(2)

	allowed, used, err := repo.ReserveDraft(context.Background(), userID, now, limit)
	require.NoError(t, err)
	assert.True(t, allowed)
	assert.Equal(t, 1, used)

	allowed, used, err = repo.ReserveDraft(context.Background(), userID, now, limit)
	require.NoError(t, err)
	assert.True(t, allowed)
	assert.Equal(t, 2, used)

	allowed, used, err = repo.ReserveDraft(context.Background(), userID, now, limit)
	require.NoError(t, err)
	assert.False(t, allowed)
	assert.Equal(t, 2, used)

	// The failed reservation must not have consumed anything.
	count, err := repo.DraftsThisMonth(context.Background(), userID, now)
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestReserveDraftZeroLimitDenies(t *testing.T) {
	repo := NewRepository(setupUsageTestDB(t))

	allowed, used, err := repo.ReserveDraft(context.Background(), uuid.New(), time.Now(), intPtr(0))
	require.NoError(t, err)
	assert.False(t, allowed)
	assert.Equal(t, 0, used)
}

func TestReserveDraftNilLimitIsUnlimited(t *testing.T) {
	repo := NewRepository(setupUsageTestDB(t))
	userID := uuid.New()
	now := time.Now()

	for i := 1; i <= 10; i++ {
		allowed, used, err := repo.ReserveDraft(context.Background(), userID, now, nil)
		require.NoError(t, err)
		assert.True(t, allowed)
		assert.Equal(t, i, used)
	}
}

func TestReserveDraftSeparatesPeriods(t *testing.T) {
	repo := NewRepository(setupUsageTestDB(t))
	userID := uuid.New()
	march := time.Date(2025, time.March, 10, 0, 0, 0, 0, time.UTC)
	april := time.Date(2025, time.April, 2, 0, 0, 0, 0, time.UTC)
	limit := intPtr(1)

	allowed, _, err := repo.ReserveDraft(context.Background(), userID, march, limit)
	require.NoError(t, err)
	assert.True(t, allowed)

	allowed, _, err = repo.ReserveDraft(context.Background(), userID, march, limit)
	require.NoError(t, err)
	assert.False(t, allowed)

	// A new month starts a fresh budget.
	allowed, used, err := repo.ReserveDraft(context.Background(), userID, april, limit)
	require.NoError(t, err)
	assert.True(t, allowed)
	assert.Equal(t, 1, used)
}
