package gifts

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Ryan02062001/thankaroo-backend/pkg/db/models"
)

// Repository handles gift persistence.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs a gifts repo bound to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) Create(ctx context.Context, gift *models.Gift) error {
	return r.db.WithContext(ctx).Create(gift).Error
}

func (r *Repository) CreateBatch(ctx context.Context, gifts []models.Gift) error {
	if len(gifts) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(&gifts).Error
}

func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Gift, error) {
	var gift models.Gift
	if err := r.db.WithContext(ctx).First(&gift, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &gift, nil
}

func (r *Repository) ListByList(ctx context.Context, listID uuid.UUID) ([]models.Gift, error) {
	var gifts []models.Gift
	if err := r.db.WithContext(ctx).
		Where("list_id = ?", listID).
		Order("date_received DESC, created_at DESC").
		Find(&gifts).Error; err != nil {
		return nil, err
	}
	return gifts, nil
}

func (r *Repository) CountByList(ctx context.Context, listID uuid.UUID) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.Gift{}).
		Where("list_id = ?", listID).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (r *Repository) Update(ctx context.Context, gift *models.Gift) error {
	return r.db.WithContext(ctx).Save(gift).Error
}

func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&models.Gift{}, "id = ?", id).Error
}
