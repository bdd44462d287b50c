package notes

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Ryan02062001/thankaroo-backend/pkg/db/models"
)

// Repository handles thank-you note persistence.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs a notes repo bound to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) Create(ctx context.Context, note *models.ThankYouNote) error {
	return r.db.WithContext(ctx).Create(note).Error
}

func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.ThankYouNote, error) {
	var note models.ThankYouNote
	if err := r.db.WithContext(ctx).First(&note, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &note, nil
}

func (r *Repository) ListByList(ctx context.Context, listID uuid.UUID) ([]models.ThankYouNote, error) {
	var notes []models.ThankYouNote
	if err := r.db.WithContext(ctx).
		Where("list_id = ?", listID).
		Order("created_at DESC").
		Find(&notes).Error; err != nil {
		return nil, err
	}
	return notes, nil
}

func (r *Repository) Update(ctx context.Context, note *models.ThankYouNote) error {
	return r.db.WithContext(ctx).Save(note).Error
}

func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&models.ThankYouNote{}, "id = ?", id).Error
}
