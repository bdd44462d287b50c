package ai

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ryan02062001/thankaroo-backend/internal/plans"
	"github.com/Ryan02062001/thankaroo-backend/pkg/db/models"
	"github.com/Ryan02062001/thankaroo-backend/pkg/enums"
	pkgerrors "github.com/Ryan02062001/thankaroo-backend/pkg/errors"
)

type stubReserver struct {
	allowed bool
	used    int
	calls   int
}

func (s *stubReserver) ReserveDraft(_ context.Context, _ uuid.UUID, _ time.Time, _ *int) (bool, int, error) {
	s.calls++
	return s.allowed, s.used, nil
}

type stubPlanResolver struct {
	plan   enums.PlanID
	limits plans.Limits
}

func (s *stubPlanResolver) CurrentLimits(_ context.Context, _ uuid.UUID) (enums.PlanID, plans.Limits, error) {
	return s.plan, s.limits, nil
}

type stubGiftAccess struct {
	gift *models.Gift
}

func (s *stubGiftAccess) RequireOwnedGift(_ context.Context, _ uuid.UUID, giftID uuid.UUID) (*models.Gift, error) {
	if s.gift == nil || s.gift.ID != giftID {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "gift not found")
	}
	copied := *s.gift
	return &copied, nil
}

type stubCompleter struct {
	content string
	err     error
	calls   int
}

func (s *stubCompleter) Complete(_ context.Context, _, _ string) (string, error) {
	s.calls++
	return s.content, s.err
}

func testGift() *models.Gift {
	return &models.Gift{
		ID:          uuid.New(),
		ListID:      uuid.New(),
		GuestName:   "Aunt May",
		Description: "a crystal vase",
	}
}

func newDraftService(t *testing.T, completer *stubCompleter, reserver *stubReserver, gift *models.Gift) *Service {
	t.Helper()
	params := ServiceParams{
		Usage: reserver,
		Plans: &stubPlanResolver{plan: enums.PlanFree, limits: plans.LimitsFor(enums.PlanFree)},
		Gifts: &stubGiftAccess{gift: gift},
	}
	if completer != nil {
		params.Completer = completer
	}
	svc, err := NewService(params)
	require.NoError(t, err)
	return svc
}

func TestDraftUsesCompleterWhenAvailable(t *testing.T) {
	gift := testGift()
	completer := &stubCompleter{content: "  Dear Aunt May, the vase is stunning!  "}
	reserver := &stubReserver{allowed: true, used: 1}
	svc := newDraftService(t, completer, reserver, gift)

	resp, err := svc.Draft(context.Background(), uuid.New(), DraftRequest{GiftID: gift.ID, Channel: "email"})
	require.NoError(t, err)
	assert.Equal(t, "ai", resp.Source)
	assert.Equal(t, "Dear Aunt May, the vase is stunning!", resp.Content)
	assert.Equal(t, 1, resp.Used)
	assert.Equal(t, 1, completer.calls)
}

func TestDraftFallsBackToTemplateOnProviderError(t *testing.T) {
	gift := testGift()
	completer := &stubCompleter{err: errors.New("provider timeout")}
	reserver := &stubReserver{allowed: true, used: 1}
	svc := newDraftService(t, completer, reserver, gift)

	resp, err := svc.Draft(context.Background(), uuid.New(), DraftRequest{GiftID: gift.ID, Channel: "email"})
	require.NoError(t, err)
	assert.Equal(t, "template", resp.Source)
	assert.Contains(t, resp.Content, "Dear Aunt May,")
	assert.Contains(t, resp.Content, "a crystal vase")
}

func TestDraftTemplateOnlyWithoutCompleter(t *testing.T) {
	gift := testGift()
	reserver := &stubReserver{allowed: true, used: 1}
	svc := newDraftService(t, nil, reserver, gift)

	resp, err := svc.Draft(context.Background(), uuid.New(), DraftRequest{GiftID: gift.ID, Channel: "text"})
	require.NoError(t, err)
	assert.Equal(t, "template", resp.Source)
	assert.Contains(t, resp.Content, "Hi Aunt May!")
	assert.Contains(t, resp.Content, "Thanks again!")
}

func TestDraftQuotaExceeded(t *testing.T) {
	gift := testGift()
	completer := &stubCompleter{content: "never used"}
	reserver := &stubReserver{allowed: false, used: 5}
	svc := newDraftService(t, completer, reserver, gift)

	_, err := svc.Draft(context.Background(), uuid.New(), DraftRequest{GiftID: gift.ID, Channel: "email"})
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodePlanLimit, typed.Code())

	details, ok := typed.Details().(map[string]any)
	require.True(t, ok)
	assert.Equal(t, 5, details["limit"])
	assert.Equal(t, 5, details["used"])

	// The provider is never called once the quota denies.
	assert.Equal(t, 0, completer.calls)
}

func TestDraftInvalidChannelConsumesNothing(t *testing.T) {
	gift := testGift()
	reserver := &stubReserver{allowed: true}
	svc := newDraftService(t, nil, reserver, gift)

	_, err := svc.Draft(context.Background(), uuid.New(), DraftRequest{GiftID: gift.ID, Channel: "smoke signal"})
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.As(err).Code())
	assert.Equal(t, 0, reserver.calls)
}

func TestDraftForeignGiftConsumesNothing(t *testing.T) {
	reserver := &stubReserver{allowed: true}
	svc := newDraftService(t, nil, reserver, testGift())

	_, err := svc.Draft(context.Background(), uuid.New(), DraftRequest{GiftID: uuid.New(), Channel: "email"})
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeNotFound, pkgerrors.As(err).Code())
	assert.Equal(t, 0, reserver.calls)
}

func TestComposeTemplateFormalTone(t *testing.T) {
	gift := testGift()

	out := composeTemplate(gift, enums.NoteChannelCard, "aunt", "formal")
	assert.True(t, strings.HasPrefix(out, "Dear Aunt May,"))
	assert.Contains(t, out, "sincerely grateful")
	assert.Contains(t, out, "our aunt")
	assert.Contains(t, out, "With heartfelt thanks,")
}

func TestComposePromptIncludesChannelGuidance(t *testing.T) {
	gift := testGift()

	prompt := composePrompt(gift, enums.NoteChannelText, "friend", "casual")
	assert.Contains(t, prompt, "Gift: a crystal vase")
	assert.Contains(t, prompt, "From: Aunt May")
	assert.Contains(t, prompt, "Relationship: friend")
	assert.Contains(t, prompt, "under 300 characters")
}
