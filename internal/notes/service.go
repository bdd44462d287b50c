package notes

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Ryan02062001/thankaroo-backend/pkg/db"
	"github.com/Ryan02062001/thankaroo-backend/pkg/db/models"
	"github.com/Ryan02062001/thankaroo-backend/pkg/enums"
	pkgerrors "github.com/Ryan02062001/thankaroo-backend/pkg/errors"
)

const giftChannelConstraint = "thank_you_notes_gift_channel_key"

type noteRepository interface {
	Create(ctx context.Context, note *models.ThankYouNote) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.ThankYouNote, error)
	ListByList(ctx context.Context, listID uuid.UUID) ([]models.ThankYouNote, error)
	Update(ctx context.Context, note *models.ThankYouNote) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type giftAccess interface {
	RequireOwnedGift(ctx context.Context, userID, giftID uuid.UUID) (*models.Gift, error)
}

type giftWriter interface {
	Update(ctx context.Context, gift *models.Gift) error
}

type listGuard interface {
	RequireOwned(ctx context.Context, userID, listID uuid.UUID) (*models.GiftList, error)
}

// ServiceParams bundles the dependencies required to build a notes service.
type ServiceParams struct {
	Repo      noteRepository
	Gifts     giftAccess
	GiftsRepo giftWriter
	Lists     listGuard
}

// Service owns thank-you note CRUD. Each gift carries at most one note per
// channel; the database constraint backs that up.
type Service struct {
	repo      noteRepository
	gifts     giftAccess
	giftsRepo giftWriter
	lists     listGuard
}

// NewService constructs a notes service with the provided dependencies.
func NewService(params ServiceParams) (*Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("notes repository is required")
	}
	if params.Gifts == nil {
		return nil, fmt.Errorf("gift access is required")
	}
	if params.GiftsRepo == nil {
		return nil, fmt.Errorf("gifts repository is required")
	}
	if params.Lists == nil {
		return nil, fmt.Errorf("list guard is required")
	}
	return &Service{
		repo:      params.Repo,
		gifts:     params.Gifts,
		giftsRepo: params.GiftsRepo,
		lists:     params.Lists,
	}, nil
}

// NoteDTO is the transport shape of a thank-you note.
type NoteDTO struct {
	ID           uuid.UUID         `json:"id"`
	ListID       uuid.UUID         `json:"list_id"`
	GiftID       uuid.UUID         `json:"gift_id"`
	Channel      enums.NoteChannel `json:"channel"`
	Relationship string            `json:"relationship,omitempty"`
	Tone         string            `json:"tone,omitempty"`
	Status       enums.NoteStatus  `json:"status"`
	Content      string            `json:"content"`
	Meta         json.RawMessage   `json:"meta,omitempty"`
	SentAt       *time.Time        `json:"sent_at,omitempty"`
	CreatedAt    time.Time         `json:"created_at"`
	UpdatedAt    time.Time         `json:"updated_at"`
}

func fromModel(n *models.ThankYouNote) *NoteDTO {
	if n == nil {
		return nil
	}
	return &NoteDTO{
		ID:           n.ID,
		ListID:       n.ListID,
		GiftID:       n.GiftID,
		Channel:      n.Channel,
		Relationship: n.Relationship,
		Tone:         n.Tone,
		Status:       n.Status,
		Content:      n.Content,
		Meta:         n.Meta,
		SentAt:       n.SentAt,
		CreatedAt:    n.CreatedAt,
		UpdatedAt:    n.UpdatedAt,
	}
}

// CreateNoteRequest is the payload for drafting a note against a gift.
type CreateNoteRequest struct {
	GiftID       uuid.UUID       `json:"gift_id" validate:"required"`
	Channel      string          `json:"channel" validate:"required"`
	Relationship string          `json:"relationship,omitempty" validate:"omitempty,max=100"`
	Tone         string          `json:"tone,omitempty" validate:"omitempty,max=100"`
	Content      string          `json:"content" validate:"required"`
	Meta         json.RawMessage `json:"meta,omitempty"`
}

// UpdateNoteRequest is the patch payload for a note. Nil fields are left
// untouched.
type UpdateNoteRequest struct {
	Relationship *string          `json:"relationship,omitempty" validate:"omitempty,max=100"`
	Tone         *string          `json:"tone,omitempty" validate:"omitempty,max=100"`
	Content      *string          `json:"content,omitempty"`
	Meta         *json.RawMessage `json:"meta,omitempty"`
}

// ListByList returns every note on one of the user's lists.
func (s *Service) ListByList(ctx context.Context, userID, listID uuid.UUID) ([]NoteDTO, error) {
	if _, err := s.lists.RequireOwned(ctx, userID, listID); err != nil {
		return nil, err
	}
	rows, err := s.repo.ListByList(ctx, listID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list notes")
	}
	out := make([]NoteDTO, 0, len(rows))
	for i := range rows {
		out = append(out, *fromModel(&rows[i]))
	}
	return out, nil
}

// Create drafts a note for a gift the user owns. A second note on the same
// gift and channel is rejected as a conflict.
func (s *Service) Create(ctx context.Context, userID uuid.UUID, req CreateNoteRequest) (*NoteDTO, error) {
	channel, err := enums.ParseNoteChannel(req.Channel)
	if err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid channel")
	}
	content := strings.TrimSpace(req.Content)
	if content == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "content is required")
	}

	gift, err := s.gifts.RequireOwnedGift(ctx, userID, req.GiftID)
	if err != nil {
		return nil, err
	}

	note := &models.ThankYouNote{
		ListID:       gift.ListID,
		GiftID:       gift.ID,
		Channel:      channel,
		Relationship: strings.TrimSpace(req.Relationship),
		Tone:         strings.TrimSpace(req.Tone),
		Status:       enums.NoteStatusDraft,
		Content:      content,
		Meta:         req.Meta,
	}
	if err := s.repo.Create(ctx, note); err != nil {
		if db.IsUniqueViolation(err, giftChannelConstraint) {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "a note already exists for this gift and channel")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create note")
	}
	return fromModel(note), nil
}

// Update patches a note the user owns.
func (s *Service) Update(ctx context.Context, userID, noteID uuid.UUID, req UpdateNoteRequest) (*NoteDTO, error) {
	note, err := s.requireOwned(ctx, userID, noteID)
	if err != nil {
		return nil, err
	}

	if req.Relationship != nil {
		note.Relationship = strings.TrimSpace(*req.Relationship)
	}
	if req.Tone != nil {
		note.Tone = strings.TrimSpace(*req.Tone)
	}
	if req.Content != nil {
		content := strings.TrimSpace(*req.Content)
		if content == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "content cannot be empty")
		}
		note.Content = content
	}
	if req.Meta != nil {
		note.Meta = *req.Meta
	}

	if err := s.repo.Update(ctx, note); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update note")
	}
	return fromModel(note), nil
}

// Delete removes a note the user owns.
func (s *Service) Delete(ctx context.Context, userID, noteID uuid.UUID) error {
	if _, err := s.requireOwned(ctx, userID, noteID); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, noteID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "delete note")
	}
	return nil
}

// MarkSent transitions a note to sent and marks its gift thanked.
func (s *Service) MarkSent(ctx context.Context, userID, noteID uuid.UUID) (*NoteDTO, error) {
	note, err := s.requireOwned(ctx, userID, noteID)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	note.Status = enums.NoteStatusSent
	note.SentAt = &now
	if err := s.repo.Update(ctx, note); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "mark note sent")
	}

	gift, err := s.gifts.RequireOwnedGift(ctx, userID, note.GiftID)
	if err == nil && !gift.ThankYouSent {
		gift.ThankYouSent = true
		gift.ThankYouSentAt = &now
		if err := s.giftsRepo.Update(ctx, gift); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "mark gift thanked")
		}
	}

	return fromModel(note), nil
}

func (s *Service) requireOwned(ctx context.Context, userID, noteID uuid.UUID) (*models.ThankYouNote, error) {
	note, err := s.repo.FindByID(ctx, noteID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "note not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load note")
	}
	if _, err := s.lists.RequireOwned(ctx, userID, note.ListID); err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "note not found")
	}
	return note, nil
}
