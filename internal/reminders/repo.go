package reminders

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Ryan02062001/thankaroo-backend/pkg/db/models"
)

// Repository handles reminder and reminder settings persistence.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs a reminders repo bound to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) Create(ctx context.Context, reminder *models.Reminder) error {
	return r.db.WithContext(ctx).Create(reminder).Error
}

func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Reminder, error) {
	var reminder models.Reminder
	if err := r.db.WithContext(ctx).First(&reminder, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &reminder, nil
}

func (r *Repository) ListByList(ctx context.Context, listID uuid.UUID) ([]models.Reminder, error) {
	var reminders []models.Reminder
	if err := r.db.WithContext(ctx).
		Where("list_id = ?", listID).
		Order("due_at ASC, created_at ASC").
		Find(&reminders).Error; err != nil {
		return nil, err
	}
	return reminders, nil
}

// ListPendingByOwner returns every unsent reminder across all of the owner's
// lists, soonest first.
func (r *Repository) ListPendingByOwner(ctx context.Context, ownerID uuid.UUID) ([]models.Reminder, error) {
	var reminders []models.Reminder
	if err := r.db.WithContext(ctx).
		Joins("JOIN gift_lists ON gift_lists.id = reminders.list_id").
		Where("gift_lists.owner_id = ? AND NOT reminders.sent", ownerID).
		Order("reminders.due_at ASC").
		Find(&reminders).Error; err != nil {
		return nil, err
	}
	return reminders, nil
}

func (r *Repository) Update(ctx context.Context, reminder *models.Reminder) error {
	return r.db.WithContext(ctx).Save(reminder).Error
}

func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&models.Reminder{}, "id = ?", id).Error
}

func (r *Repository) FindSettings(ctx context.Context, listID uuid.UUID) (*models.ReminderSetting, error) {
	var settings models.ReminderSetting
	if err := r.db.WithContext(ctx).
		Where("list_id = ?", listID).
		First(&settings).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &settings, nil
}

func (r *Repository) UpsertSettings(ctx context.Context, settings *models.ReminderSetting) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "list_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"enabled", "default_channel", "days_after", "updated_at"}),
		}).
		Create(settings).Error
}
