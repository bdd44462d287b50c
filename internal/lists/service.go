package lists

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

type listRepository interface {
	Create(ctx context.Context, list *models.GiftList) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.GiftList, error)
	ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]models.GiftList, error)
	CountByOwner(ctx context.Context, ownerID uuid.UUID) (int64, error)
	Update(ctx context.Context, list *models.GiftList) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type planResolver interface {
	CurrentLimits(ctx context.Context, userID uuid.UUID) (enums.PlanID, plans.Limits, error)
}

// ServiceParams bundles the dependencies required to build a lists service.
type ServiceParams struct {
	Repo  listRepository
	Plans planResolver
}

// Service owns gift list CRUD plus the per-plan list cap.
type Service struct {
	repo  listRepository
	plans planResolver
}

// NewService constructs a lists service with the provided dependencies.
func NewService(params ServiceParams) (*Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("lists repository is required")
	}
	if params.Plans == nil {
		return nil, fmt.Errorf("plan resolver is required")
	}
	return &Service{repo: params.Repo, plans: params.Plans}, nil
}

// ListDTO is the transport shape of a gift list.
type ListDTO struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func fromModel(list *models.GiftList) *ListDTO {
	if list == nil {
		return nil
	}
	return &ListDTO{
		ID:        list.ID,
		Name:      list.Name,
		CreatedAt: list.CreatedAt,
		UpdatedAt: list.UpdatedAt,
	}
}

// CreateListRequest is the payload for creating a list.
type CreateListRequest struct {
	Name string `json:"name" validate:"required,max=200"`
}

// UpdateListRequest is the payload for renaming a list.
type UpdateListRequest struct {
	Name string `json:"name" validate:"required,max=200"`
}

// List returns every list the user owns.
func (s *Service) List(ctx context.Context, userID uuid.UUID) ([]ListDTO, error) {
	rows, err := s.repo.ListByOwner(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list gift lists")
	}
	out := make([]ListDTO, 0, len(rows))
	for i := range rows {
		out = append(out, *fromModel(&rows[i]))
	}
	return out, nil
}

// Create adds a list for the user, enforcing the plan's list cap.
func (s *Service) Create(ctx context.Context, userID uuid.UUID, req CreateListRequest) (*ListDTO, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "name is required")
	}

	plan, limits, err := s.plans.CurrentLimits(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "resolve plan")
	}
	if limits.MaxLists != nil {
		count, err := s.repo.CountByOwner(ctx, userID)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "count lists")
		}
		if count >= int64(*limits.MaxLists) {
			return nil, pkgerrors.New(pkgerrors.CodePlanLimit, "list limit reached").
				WithDetails(map[string]any{
					"plan":  plan,
					"limit": *limits.MaxLists,
					"used":  count,
				})
		}
	}

	list := &models.GiftList{OwnerID: userID, Name: name}
	if err := s.repo.Create(ctx, list); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create list")
	}
	return fromModel(list), nil
}

// Get returns one of the user's lists.
func (s *Service) Get(ctx context.Context, userID, listID uuid.UUID) (*ListDTO, error) {
	list, err := s.RequireOwned(ctx, userID, listID)
	if err != nil {
		return nil, err
	}
	return fromModel(list), nil
}

// Rename updates the list name.
func (s *Service) Rename(ctx context.Context, userID, listID uuid.UUID, req UpdateListRequest) (*ListDTO, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "name is required")
	}
	list, err := s.RequireOwned(ctx, userID, listID)
	if err != nil {
		return nil, err
	}
	list.Name = name
	if err := s.repo.Update(ctx, list); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "rename list")
	}
	return fromModel(list), nil
}

// Delete removes the list and everything hanging off it.
func (s *Service) Delete(ctx context.Context, userID, listID uuid.UUID) error {
	if _, err := s.RequireOwned(ctx, userID, listID); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, listID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "delete list")
	}
	return nil
}

// RequireOwned loads the list and verifies the user owns it. Lists owned by
// someone else read as not found so existence is not leaked.
func (s *Service) RequireOwned(ctx context.Context, userID, listID uuid.UUID) (*models.GiftList, error) {
	list, err := s.repo.FindByID(ctx, listID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "list not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load list")
	}
	if list.OwnerID != userID {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "list not found")
	}
	return list, nil
}
