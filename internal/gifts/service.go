package gifts

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Ryan02062001/thankaroo-backend/internal/plans"
	"github.com/Ryan02062001/thankaroo-backend/pkg/db/models"
	"github.com/Ryan02062001/thankaroo-backend/pkg/enums"
	pkgerrors "github.com/Ryan02062001/thankaroo-backend/pkg/errors"
)

// DateLayout is the wire format for gift dates.
const DateLayout = "2006-01-02"

type giftRepository interface {
	Create(ctx context.Context, gift *models.Gift) error
	CreateBatch(ctx context.Context, gifts []models.Gift) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Gift, error)
	ListByList(ctx context.Context, listID uuid.UUID) ([]models.Gift, error)
	CountByList(ctx context.Context, listID uuid.UUID) (int64, error)
	Update(ctx context.Context, gift *models.Gift) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type listGuard interface {
	RequireOwned(ctx context.Context, userID, listID uuid.UUID) (*models.GiftList, error)
}

type planResolver interface {
	CurrentLimits(ctx context.Context, userID uuid.UUID) (enums.PlanID, plans.Limits, error)
}

// ServiceParams bundles the dependencies required to build a gifts service.
type ServiceParams struct {
	Repo  giftRepository
	Lists listGuard
	Plans planResolver
}

// Service owns gift CRUD, the thank-you toggle, and the per-plan gift cap.
type Service struct {
	repo  giftRepository
	lists listGuard
	plans planResolver
}

// NewService constructs a gifts service with the provided dependencies.
func NewService(params ServiceParams) (*Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("gifts repository is required")
	}
	if params.Lists == nil {
		return nil, fmt.Errorf("list guard is required")
	}
	if params.Plans == nil {
		return nil, fmt.Errorf("plan resolver is required")
	}
	return &Service{repo: params.Repo, lists: params.Lists, plans: params.Plans}, nil
}

// GiftDTO is the transport shape of a gift.
type GiftDTO struct {
	ID             uuid.UUID      `json:"id"`
	ListID         uuid.UUID      `json:"list_id"`
	GuestName      string         `json:"guest_name"`
	Description    string         `json:"description"`
	GiftType       enums.GiftType `json:"gift_type"`
	DateReceived   string         `json:"date_received"`
	ThankYouSent   bool           `json:"thank_you_sent"`
	ThankYouSentAt *time.Time     `json:"thank_you_sent_at,omitempty"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
}

// FromModel maps a gift row to its transport shape.
func FromModel(g *models.Gift) *GiftDTO {
	if g == nil {
		return nil
	}
	return &GiftDTO{
		ID:             g.ID,
		ListID:         g.ListID,
		GuestName:      g.GuestName,
		Description:    g.Description,
		GiftType:       g.GiftType,
		DateReceived:   g.DateReceived.Format(DateLayout),
		ThankYouSent:   g.ThankYouSent,
		ThankYouSentAt: g.ThankYouSentAt,
		CreatedAt:      g.CreatedAt,
		UpdatedAt:      g.UpdatedAt,
	}
}

// CreateGiftRequest is the payload for recording a gift.
type CreateGiftRequest struct {
	GuestName    string `json:"guest_name" validate:"required,max=200"`
	Description  string `json:"description" validate:"required,max=2000"`
	GiftType     string `json:"gift_type,omitempty"`
	DateReceived string `json:"date_received" validate:"required"`
}

// UpdateGiftRequest is the patch payload for a gift. Nil fields are left
// untouched.
type UpdateGiftRequest struct {
	GuestName    *string `json:"guest_name,omitempty" validate:"omitempty,max=200"`
	Description  *string `json:"description,omitempty" validate:"omitempty,max=2000"`
	GiftType     *string `json:"gift_type,omitempty"`
	DateReceived *string `json:"date_received,omitempty"`
}

// ListByList returns every gift on one of the user's lists.
func (s *Service) ListByList(ctx context.Context, userID, listID uuid.UUID) ([]GiftDTO, error) {
	if _, err := s.lists.RequireOwned(ctx, userID, listID); err != nil {
		return nil, err
	}
	rows, err := s.repo.ListByList(ctx, listID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list gifts")
	}
	out := make([]GiftDTO, 0, len(rows))
	for i := range rows {
		out = append(out, *FromModel(&rows[i]))
	}
	return out, nil
}

// Create records a gift on one of the user's lists, enforcing the plan's
// per-list gift cap.
func (s *Service) Create(ctx context.Context, userID, listID uuid.UUID, req CreateGiftRequest) (*GiftDTO, error) {
	if _, err := s.lists.RequireOwned(ctx, userID, listID); err != nil {
		return nil, err
	}

	gift, err := s.buildGift(listID, req)
	if err != nil {
		return nil, err
	}

	plan, limits, err := s.plans.CurrentLimits(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "resolve plan")
	}
	if limits.MaxGiftsPerList != nil {
		count, err := s.repo.CountByList(ctx, listID)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "count gifts")
		}
		if count >= int64(*limits.MaxGiftsPerList) {
			return nil, pkgerrors.New(pkgerrors.CodePlanLimit, "gift limit reached for this list").
				WithDetails(map[string]any{
					"plan":  plan,
					"limit": *limits.MaxGiftsPerList,
					"used":  count,
				})
		}
	}

	if err := s.repo.Create(ctx, gift); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create gift")
	}
	return FromModel(gift), nil
}

func (s *Service) buildGift(listID uuid.UUID, req CreateGiftRequest) (*models.Gift, error) {
	guestName := strings.TrimSpace(req.GuestName)
	description := strings.TrimSpace(req.Description)
	if guestName == "" || description == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "guest_name and description are required")
	}

	giftType := enums.GiftTypeNonRegistry
	if req.GiftType != "" {
		parsed, err := enums.ParseGiftType(req.GiftType)
		if err != nil {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid gift_type")
		}
		giftType = parsed
	}

	date, err := time.ParseInLocation(DateLayout, req.DateReceived, time.UTC)
	if err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "date_received must be YYYY-MM-DD")
	}

	return &models.Gift{
		ListID:       listID,
		GuestName:    guestName,
		Description:  description,
		GiftType:     giftType,
		DateReceived: date,
	}, nil
}

// Update patches a gift the user owns.
func (s *Service) Update(ctx context.Context, userID, giftID uuid.UUID, req UpdateGiftRequest) (*GiftDTO, error) {
	gift, err := s.RequireOwnedGift(ctx, userID, giftID)
	if err != nil {
		return nil, err
	}

	if req.GuestName != nil {
		name := strings.TrimSpace(*req.GuestName)
		if name == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "guest_name cannot be empty")
		}
		gift.GuestName = name
	}
	if req.Description != nil {
		description := strings.TrimSpace(*req.Description)
		if description == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "description cannot be empty")
		}
		gift.Description = description
	}
	if req.GiftType != nil {
		parsed, err := enums.ParseGiftType(*req.GiftType)
		if err != nil {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid gift_type")
		}
		gift.GiftType = parsed
	}
	if req.DateReceived != nil {
		date, err := time.ParseInLocation(DateLayout, *req.DateReceived, time.UTC)
		if err != nil {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "date_received must be YYYY-MM-DD")
		}
		gift.DateReceived = date
	}

	if err := s.repo.Update(ctx, gift); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update gift")
	}
	return FromModel(gift), nil
}

// Delete removes a gift the user owns.
func (s *Service) Delete(ctx context.Context, userID, giftID uuid.UUID) error {
	if _, err := s.RequireOwnedGift(ctx, userID, giftID); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, giftID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "delete gift")
	}
	return nil
}

// ToggleThankYou flips the thank-you flag, stamping or clearing the sent
// timestamp.
func (s *Service) ToggleThankYou(ctx context.Context, userID, giftID uuid.UUID) (*GiftDTO, error) {
	gift, err := s.RequireOwnedGift(ctx, userID, giftID)
	if err != nil {
		return nil, err
	}

	gift.ThankYouSent = !gift.ThankYouSent
	if gift.ThankYouSent {
		now := time.Now().UTC()
		gift.ThankYouSentAt = &now
	} else {
		gift.ThankYouSentAt = nil
	}

	if err := s.repo.Update(ctx, gift); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "toggle thank you")
	}
	return FromModel(gift), nil
}

// RequireOwnedGift loads the gift and verifies the user owns its list.
func (s *Service) RequireOwnedGift(ctx context.Context, userID, giftID uuid.UUID) (*models.Gift, error) {
	gift, err := s.repo.FindByID(ctx, giftID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "gift not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load gift")
	}
	if _, err := s.lists.RequireOwned(ctx, userID, gift.ListID); err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "gift not found")
	}
	return gift, nil
}
