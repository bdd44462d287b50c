package reminders

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Ryan02062001/thankaroo-backend/internal/gifts"
	"github.com/Ryan02062001/thankaroo-backend/pkg/db/models"
	"github.com/Ryan02062001/thankaroo-backend/pkg/enums"
	pkgerrors "github.com/Ryan02062001/thankaroo-backend/pkg/errors"
)

const defaultDaysAfter = 14

type reminderRepository interface {
	Create(ctx context.Context, reminder *models.Reminder) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Reminder, error)
	ListByList(ctx context.Context, listID uuid.UUID) ([]models.Reminder, error)
	ListPendingByOwner(ctx context.Context, ownerID uuid.UUID) ([]models.Reminder, error)
	Update(ctx context.Context, reminder *models.Reminder) error
	Delete(ctx context.Context, id uuid.UUID) error
	FindSettings(ctx context.Context, listID uuid.UUID) (*models.ReminderSetting, error)
	UpsertSettings(ctx context.Context, settings *models.ReminderSetting) error
}

type giftAccess interface {
	RequireOwnedGift(ctx context.Context, userID, giftID uuid.UUID) (*models.Gift, error)
}

type listGuard interface {
	RequireOwned(ctx context.Context, userID, listID uuid.UUID) (*models.GiftList, error)
}

// ServiceParams bundles the dependencies required to build a reminders
// service.
type ServiceParams struct {
	Repo  reminderRepository
	Gifts giftAccess
	Lists listGuard
}

// Service owns reminder CRUD and per-list reminder settings. Reminders carry
// a snapshot of their gift taken at creation so later gift edits do not
// rewrite what the nudge says.
type Service struct {
	repo  reminderRepository
	gifts giftAccess
	lists listGuard
}

// NewService constructs a reminders service with the provided dependencies.
func NewService(params ServiceParams) (*Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("reminders repository is required")
	}
	if params.Gifts == nil {
		return nil, fmt.Errorf("gift access is required")
	}
	if params.Lists == nil {
		return nil, fmt.Errorf("list guard is required")
	}
	return &Service{repo: params.Repo, gifts: params.Gifts, lists: params.Lists}, nil
}

// ReminderDTO is the transport shape of a reminder.
type ReminderDTO struct {
	ID           uuid.UUID                   `json:"id"`
	ListID       uuid.UUID                   `json:"list_id"`
	GiftID       uuid.UUID                   `json:"gift_id"`
	DueAt        string                      `json:"due_at"`
	Channel      enums.NoteChannel           `json:"channel"`
	Sent         bool                        `json:"sent"`
	GiftSnapshot *models.GiftSnapshotPayload `json:"gift_snapshot,omitempty"`
	CreatedAt    time.Time                   `json:"created_at"`
	UpdatedAt    time.Time                   `json:"updated_at"`
}

func fromModel(r *models.Reminder) *ReminderDTO {
	if r == nil {
		return nil
	}
	dto := &ReminderDTO{
		ID:        r.ID,
		ListID:    r.ListID,
		GiftID:    r.GiftID,
		DueAt:     r.DueAt.Format(gifts.DateLayout),
		Channel:   r.Channel,
		Sent:      r.Sent,
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}
	if len(r.GiftSnapshot) > 0 {
		var snapshot models.GiftSnapshotPayload
		if err := json.Unmarshal(r.GiftSnapshot, &snapshot); err == nil {
			dto.GiftSnapshot = &snapshot
		}
	}
	return dto
}

// CreateReminderRequest is the payload for scheduling a reminder. DueAt and
// Channel fall back to the list's reminder settings when omitted.
type CreateReminderRequest struct {
	GiftID  uuid.UUID `json:"gift_id" validate:"required"`
	DueAt   string    `json:"due_at,omitempty"`
	Channel string    `json:"channel,omitempty"`
}

// UpdateReminderRequest is the patch payload for a reminder.
type UpdateReminderRequest struct {
	DueAt   *string `json:"due_at,omitempty"`
	Channel *string `json:"channel,omitempty"`
}

// SettingsDTO is the transport shape of per-list reminder settings.
type SettingsDTO struct {
	ListID         uuid.UUID         `json:"list_id"`
	Enabled        bool              `json:"enabled"`
	DefaultChannel enums.NoteChannel `json:"default_channel"`
	DaysAfter      int               `json:"days_after"`
}

// UpdateSettingsRequest is the payload for replacing list reminder settings.
type UpdateSettingsRequest struct {
	Enabled        bool   `json:"enabled"`
	DefaultChannel string `json:"default_channel" validate:"required"`
	DaysAfter      int    `json:"days_after" validate:"required,min=1,max=365"`
}

// ListByList returns every reminder on one of the user's lists.
func (s *Service) ListByList(ctx context.Context, userID, listID uuid.UUID) ([]ReminderDTO, error) {
	if _, err := s.lists.RequireOwned(ctx, userID, listID); err != nil {
		return nil, err
	}
	rows, err := s.repo.ListByList(ctx, listID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list reminders")
	}
	out := make([]ReminderDTO, 0, len(rows))
	for i := range rows {
		out = append(out, *fromModel(&rows[i]))
	}
	return out, nil
}

// Create schedules a reminder for a gift the user owns, snapshotting the
// gift as it stands now.
func (s *Service) Create(ctx context.Context, userID, listID uuid.UUID, req CreateReminderRequest) (*ReminderDTO, error) {
	if _, err := s.lists.RequireOwned(ctx, userID, listID); err != nil {
		return nil, err
	}
	gift, err := s.gifts.RequireOwnedGift(ctx, userID, req.GiftID)
	if err != nil {
		return nil, err
	}
	if gift.ListID != listID {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "gift does not belong to this list")
	}

	settings, err := s.repo.FindSettings(ctx, listID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load reminder settings")
	}

	channel := enums.NoteChannelEmail
	daysAfter := defaultDaysAfter
	if settings != nil {
		channel = settings.DefaultChannel
		daysAfter = settings.DaysAfter
	}
	if req.Channel != "" {
		parsed, err := enums.ParseNoteChannel(req.Channel)
		if err != nil {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid channel")
		}
		channel = parsed
	}

	dueAt := gift.DateReceived.AddDate(0, 0, daysAfter)
	if req.DueAt != "" {
		parsed, err := time.ParseInLocation(gifts.DateLayout, req.DueAt, time.UTC)
		if err != nil {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "due_at must be YYYY-MM-DD")
		}
		dueAt = parsed
	}

	snapshot, err := json.Marshal(models.GiftSnapshotPayload{
		GuestName:    gift.GuestName,
		Description:  gift.Description,
		DateReceived: gift.DateReceived.Format(gifts.DateLayout),
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "snapshot gift")
	}

	reminder := &models.Reminder{
		ListID:       listID,
		GiftID:       gift.ID,
		DueAt:        dueAt,
		Channel:      channel,
		GiftSnapshot: snapshot,
	}
	if err := s.repo.Create(ctx, reminder); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create reminder")
	}
	return fromModel(reminder), nil
}

// Update patches a reminder's due date or channel.
func (s *Service) Update(ctx context.Context, userID, reminderID uuid.UUID, req UpdateReminderRequest) (*ReminderDTO, error) {
	reminder, err := s.requireOwned(ctx, userID, reminderID)
	if err != nil {
		return nil, err
	}

	if req.DueAt != nil {
		parsed, err := time.ParseInLocation(gifts.DateLayout, *req.DueAt, time.UTC)
		if err != nil {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "due_at must be YYYY-MM-DD")
		}
		reminder.DueAt = parsed
	}
	if req.Channel != nil {
		parsed, err := enums.ParseNoteChannel(*req.Channel)
		if err != nil {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid channel")
		}
		reminder.Channel = parsed
	}

	if err := s.repo.Update(ctx, reminder); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update reminder")
	}
	return fromModel(reminder), nil
}

// Delete removes a reminder the user owns.
func (s *Service) Delete(ctx context.Context, userID, reminderID uuid.UUID) error {
	if _, err := s.requireOwned(ctx, userID, reminderID); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, reminderID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "delete reminder")
	}
	return nil
}

// Complete marks a reminder as handled.
func (s *Service) Complete(ctx context.Context, userID, reminderID uuid.UUID) (*ReminderDTO, error) {
	reminder, err := s.requireOwned(ctx, userID, reminderID)
	if err != nil {
		return nil, err
	}
	if !reminder.Sent {
		reminder.Sent = true
		if err := s.repo.Update(ctx, reminder); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "complete reminder")
		}
	}
	return fromModel(reminder), nil
}

// GetSettings returns the list's reminder settings, falling back to defaults
// when none were saved yet.
func (s *Service) GetSettings(ctx context.Context, userID, listID uuid.UUID) (*SettingsDTO, error) {
	if _, err := s.lists.RequireOwned(ctx, userID, listID); err != nil {
		return nil, err
	}
	settings, err := s.repo.FindSettings(ctx, listID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load reminder settings")
	}
	if settings == nil {
		return &SettingsDTO{
			ListID:         listID,
			Enabled:        true,
			DefaultChannel: enums.NoteChannelEmail,
			DaysAfter:      defaultDaysAfter,
		}, nil
	}
	return &SettingsDTO{
		ListID:         settings.ListID,
		Enabled:        settings.Enabled,
		DefaultChannel: settings.DefaultChannel,
		DaysAfter:      settings.DaysAfter,
	}, nil
}

// PutSettings replaces the list's reminder settings.
func (s *Service) PutSettings(ctx context.Context, userID, listID uuid.UUID, req UpdateSettingsRequest) (*SettingsDTO, error) {
	if _, err := s.lists.RequireOwned(ctx, userID, listID); err != nil {
		return nil, err
	}
	channel, err := enums.ParseNoteChannel(req.DefaultChannel)
	if err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid default_channel")
	}
	if req.DaysAfter < 1 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "days_after must be positive")
	}

	settings := &models.ReminderSetting{
		ListID:         listID,
		Enabled:        req.Enabled,
		DefaultChannel: channel,
		DaysAfter:      req.DaysAfter,
	}
	if err := s.repo.UpsertSettings(ctx, settings); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "save reminder settings")
	}
	return &SettingsDTO{
		ListID:         listID,
		Enabled:        settings.Enabled,
		DefaultChannel: settings.DefaultChannel,
		DaysAfter:      settings.DaysAfter,
	}, nil
}

func (s *Service) requireOwned(ctx context.Context, userID, reminderID uuid.UUID) (*models.Reminder, error) {
	reminder, err := s.repo.FindByID(ctx, reminderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "reminder not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load reminder")
	}
	if _, err := s.lists.RequireOwned(ctx, userID, reminder.ListID); err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "reminder not found")
	}
	return reminder, nil
}
