package ai

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Ryan02062001/thankaroo-backend/internal/plans"
	"github.com/Ryan02062001/thankaroo-backend/pkg/db/models"
	"github.com/Ryan02062001/thankaroo-backend/pkg/enums"
	pkgerrors "github.com/Ryan02062001/thankaroo-backend/pkg/errors"
	"github.com/Ryan02062001/thankaroo-backend/pkg/logger"
	"github.com/Ryan02062001/thankaroo-backend/pkg/openai"
)

const systemPrompt = "You write warm, personal thank-you notes for wedding gifts. " +
	"Keep the note short, specific to the gift, and in the requested tone. " +
	"Return only the note text."

type usageReserver interface {
	ReserveDraft(ctx context.Context, userID uuid.UUID, period time.Time, limit *int) (bool, int, error)
}

type planResolver interface {
	CurrentLimits(ctx context.Context, userID uuid.UUID) (enums.PlanID, plans.Limits, error)
}

type giftAccess interface {
	RequireOwnedGift(ctx context.Context, userID, giftID uuid.UUID) (*models.Gift, error)
}

// ServiceParams bundles the dependencies required to build a drafting
// service.
type ServiceParams struct {
	Completer openai.Completer
	Usage     usageReserver
	Plans     planResolver
	Gifts     giftAccess
	Logger    *logger.Logger
}

// Service drafts thank-you notes. Each draft consumes one unit of the
// monthly quota before any provider call; provider failures fall back to a
// local template so the user always gets a usable draft.
type Service struct {
	completer openai.Completer
	usage     usageReserver
	plans     planResolver
	gifts     giftAccess
	logg      *logger.Logger
}

// NewService constructs a drafting service. Completer may be nil, in which
// case every draft uses the template composer.
func NewService(params ServiceParams) (*Service, error) {
	if params.Usage == nil {
		return nil, fmt.Errorf("usage reserver is required")
	}
	if params.Plans == nil {
		return nil, fmt.Errorf("plan resolver is required")
	}
	if params.Gifts == nil {
		return nil, fmt.Errorf("gift access is required")
	}
	return &Service{
		completer: params.Completer,
		usage:     params.Usage,
		plans:     params.Plans,
		gifts:     params.Gifts,
		logg:      params.Logger,
	}, nil
}

// DraftRequest is the payload for generating a note draft.
type DraftRequest struct {
	GiftID       uuid.UUID `json:"gift_id" validate:"required"`
	Channel      string    `json:"channel" validate:"required"`
	Relationship string    `json:"relationship,omitempty" validate:"omitempty,max=100"`
	Tone         string    `json:"tone,omitempty" validate:"omitempty,max=100"`
}

// DraftResponse carries the generated note plus quota bookkeeping.
type DraftResponse struct {
	Content string            `json:"content"`
	Source  string            `json:"source"`
	Used    int               `json:"used"`
	Limit   *int              `json:"limit,omitempty"`
	GiftID  uuid.UUID         `json:"gift_id"`
	Channel enums.NoteChannel `json:"channel"`
}

// Draft generates a thank-you note for a gift the user owns.
func (s *Service) Draft(ctx context.Context, userID uuid.UUID, req DraftRequest) (*DraftResponse, error) {
	channel, err := enums.ParseNoteChannel(req.Channel)
	if err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid channel")
	}

	gift, err := s.gifts.RequireOwnedGift(ctx, userID, req.GiftID)
	if err != nil {
		return nil, err
	}

	plan, limits, err := s.plans.CurrentLimits(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "resolve plan")
	}

	allowed, used, err := s.usage.ReserveDraft(ctx, userID, time.Now().UTC(), limits.MaxAIDraftsPerMonth)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "reserve draft")
	}
	if !allowed {
		apiErr := pkgerrors.New(pkgerrors.CodePlanLimit, "monthly AI draft limit reached")
		details := map[string]any{"plan": plan, "used": used}
		if limits.MaxAIDraftsPerMonth != nil {
			details["limit"] = *limits.MaxAIDraftsPerMonth
		}
		return nil, apiErr.WithDetails(details)
	}

	response := &DraftResponse{
		Source:  "template",
		Used:    used,
		Limit:   limits.MaxAIDraftsPerMonth,
		GiftID:  gift.ID,
		Channel: channel,
	}

	if s.completer != nil {
		content, err := s.completer.Complete(ctx, systemPrompt, composePrompt(gift, channel, req.Relationship, req.Tone))
		if err == nil && strings.TrimSpace(content) != "" {
			response.Content = strings.TrimSpace(content)
			response.Source = "ai"
			return response, nil
		}
		if err != nil && s.logg != nil {
			s.logg.Warn(ctx, fmt.Sprintf("ai draft failed, using template: %v", err))
		}
	}

	response.Content = composeTemplate(gift, channel, req.Relationship, req.Tone)
	return response, nil
}

func composePrompt(gift *models.Gift, channel enums.NoteChannel, relationship, tone string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Gift: %s\n", gift.Description)
	fmt.Fprintf(&b, "From: %s\n", gift.GuestName)
	if relationship != "" {
		fmt.Fprintf(&b, "Relationship: %s\n", relationship)
	}
	if tone != "" {
		fmt.Fprintf(&b, "Tone: %s\n", tone)
	}
	fmt.Fprintf(&b, "Channel: %s\n", channel)
	switch channel {
	case enums.NoteChannelText:
		b.WriteString("Keep it under 300 characters, casual, no letter formatting.")
	case enums.NoteChannelCard:
		b.WriteString("Write it as a handwritten card, two to four sentences.")
	default:
		b.WriteString("Write it as a short email with a greeting and sign-off placeholder.")
	}
	return b.String()
}

// composeTemplate produces the deterministic fallback draft.
func composeTemplate(gift *models.Gift, channel enums.NoteChannel, relationship, tone string) string {
	opener := fmt.Sprintf("Dear %s,", gift.GuestName)
	if channel == enums.NoteChannelText {
		opener = fmt.Sprintf("Hi %s!", gift.GuestName)
	}

	body := fmt.Sprintf("Thank you so much for %s. It truly means a lot to us, and we feel so lucky to have you in our lives.", strings.TrimRight(gift.Description, "."))
	if strings.EqualFold(tone, "formal") {
		body = fmt.Sprintf("We are sincerely grateful for %s. Your generosity and thoughtfulness mean a great deal to us.", strings.TrimRight(gift.Description, "."))
	}

	closer := "With love and gratitude,"
	switch channel {
	case enums.NoteChannelText:
		closer = "Thanks again!"
	case enums.NoteChannelCard:
		closer = "With heartfelt thanks,"
	}
	if relationship != "" && channel != enums.NoteChannelText {
		body += fmt.Sprintf(" Having you as our %s makes it all the more special.", strings.ToLower(relationship))
	}

	return opener + "\n\n" + body + "\n\n" + closer
}
