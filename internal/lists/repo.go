package lists

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Ryan02062001/thankaroo-backend/pkg/db/models"
)

// Repository handles gift list persistence.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs a lists repo bound to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) Create(ctx context.Context, list *models.GiftList) error {
	return r.db.WithContext(ctx).Create(list).Error
}

func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.GiftList, error) {
	var list models.GiftList
	if err := r.db.WithContext(ctx).First(&list, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &list, nil
}

func (r *Repository) ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]models.GiftList, error) {
	var lists []models.GiftList
	if err := r.db.WithContext(ctx).
		Where("owner_id = ?", ownerID).
		Order("created_at ASC").
		Find(&lists).Error; err != nil {
		return nil, err
	}
	return lists, nil
}

func (r *Repository) CountByOwner(ctx context.Context, ownerID uuid.UUID) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.GiftList{}).
		Where("owner_id = ?", ownerID).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (r *Repository) Update(ctx context.Context, list *models.GiftList) error {
	return r.db.WithContext(ctx).Save(list).Error
}

// Delete removes the list; gifts, notes, and reminders cascade in the
// database.
func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&models.GiftList{}, "id = ?", id).Error
}
