package reminders

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/Ryan02062001/thankaroo-backend/pkg/db/models"
	"github.com/Ryan02062001/thankaroo-backend/pkg/enums"
	pkgerrors "github.com/Ryan02062001/thankaroo-backend/pkg/errors"
)

type stubReminderRepo struct {
	reminders map[uuid.UUID]*models.Reminder
	settings  map[uuid.UUID]*models.ReminderSetting
	owners    map[uuid.UUID]uuid.UUID
}

func newStubReminderRepo() *stubReminderRepo {
	return &stubReminderRepo{
		reminders: map[uuid.UUID]*models.Reminder{},
		settings:  map[uuid.UUID]*models.ReminderSetting{},
		owners:    map[uuid.UUID]uuid.UUID{},
	}
}

func (s *stubReminderRepo) Create(_ context.Context, reminder *models.Reminder) error {
	if reminder.ID == uuid.Nil {
		reminder.ID = uuid.New()
	}
	copied := *reminder
	s.reminders[reminder.ID] = &copied
	return nil
}

func (s *stubReminderRepo) FindByID(_ context.Context, id uuid.UUID) (*models.Reminder, error) {
	reminder, ok := s.reminders[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *reminder
	return &copied, nil
}

func (s *stubReminderRepo) ListByList(_ context.Context, listID uuid.UUID) ([]models.Reminder, error) {
	var out []models.Reminder
	for _, reminder := range s.reminders {
		if reminder.ListID == listID {
			out = append(out, *reminder)
		}
	}
	return out, nil
}

func (s *stubReminderRepo) ListPendingByOwner(_ context.Context, ownerID uuid.UUID) ([]models.Reminder, error) {
	var out []models.Reminder
	for _, reminder := range s.reminders {
		if reminder.Sent {
			continue
		}
		if s.owners[reminder.ListID] == ownerID {
			out = append(out, *reminder)
		}
	}
	return out, nil
}

func (s *stubReminderRepo) Update(_ context.Context, reminder *models.Reminder) error {
	copied := *reminder
	s.reminders[reminder.ID] = &copied
	return nil
}

func (s *stubReminderRepo) Delete(_ context.Context, id uuid.UUID) error {
	delete(s.reminders, id)
	return nil
}

func (s *stubReminderRepo) FindSettings(_ context.Context, listID uuid.UUID) (*models.ReminderSetting, error) {
	settings, ok := s.settings[listID]
	if !ok {
		return nil, nil
	}
	copied := *settings
	return &copied, nil
}

func (s *stubReminderRepo) UpsertSettings(_ context.Context, settings *models.ReminderSetting) error {
	copied := *settings
	s.settings[settings.ListID] = &copied
	return nil
}

type stubGiftAccess struct {
	gifts map[uuid.UUID]*models.Gift
}

func (s *stubGiftAccess) RequireOwnedGift(_ context.Context, _ uuid.UUID, giftID uuid.UUID) (*models.Gift, error) {
	gift, ok := s.gifts[giftID]
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "gift not found")
	}
	copied := *gift
	return &copied, nil
}

type stubOwnerGuard struct {
	owners map[uuid.UUID]uuid.UUID
}

func (s *stubOwnerGuard) RequireOwned(_ context.Context, userID, listID uuid.UUID) (*models.GiftList, error) {
	owner, ok := s.owners[listID]
	if !ok || owner != userID {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "list not found")
	}
	return &models.GiftList{ID: listID, OwnerID: owner}, nil
}

type remindersFixture struct {
	svc    *Service
	repo   *stubReminderRepo
	gifts  *stubGiftAccess
	userID uuid.UUID
	listID uuid.UUID
	giftID uuid.UUID
}

func newRemindersFixture(t *testing.T) *remindersFixture {
	t.Helper()
	repo := newStubReminderRepo()
	giftAccess := &stubGiftAccess{gifts: map[uuid.UUID]*models.Gift{}}
	guard := &stubOwnerGuard{owners: map[uuid.UUID]uuid.UUID{}}

	svc, err := NewService(ServiceParams{Repo: repo, Gifts: giftAccess, Lists: guard})
	require.NoError(t, err)

	userID := uuid.New()
	listID := uuid.New()
	giftID := uuid.New()
	guard.owners[listID] = userID
	repo.owners[listID] = userID
	giftAccess.gifts[giftID] = &models.Gift{
		ID:           giftID,
		ListID:       listID,
		GuestName:    "Aunt May",
		Description:  "Crystal vase",
		DateReceived: time.Date(2025, time.June, 14, 0, 0, 0, 0, time.UTC),
	}

	return &remindersFixture{
		svc: svc, repo: repo, gifts: giftAccess,
		userID: userID, listID: listID, giftID: giftID,
	}
}

func TestCreateReminderDefaultsTwoWeeksAfterGift(t *testing.T) {
	fx := newRemindersFixture(t)

	dto, err := fx.svc.Create(context.Background(), fx.userID, fx.listID, CreateReminderRequest{GiftID: fx.giftID})
	require.NoError(t, err)
	assert.Equal(t, "2025-06-28", dto.DueAt)
	assert.Equal(t, enums.NoteChannelEmail, dto.Channel)
	assert.False(t, dto.Sent)

	require.NotNil(t, dto.GiftSnapshot)
	assert.Equal(t, "Aunt May", dto.GiftSnapshot.GuestName)
	assert.Equal(t, "Crystal vase", dto.GiftSnapshot.Description)
	assert.Equal(t, "2025-06-14", dto.GiftSnapshot.DateReceived)
}

func TestCreateReminderUsesListSettings(t *testing.T) {
	fx := newRemindersFixture(t)
	fx.repo.settings[fx.listID] = &models.ReminderSetting{
		ListID:         fx.listID,
		Enabled:        true,
		DefaultChannel: enums.NoteChannelCard,
		DaysAfter:      30,
	}

	dto, err := fx.svc.Create(context.Background(), fx.userID, fx.listID, CreateReminderRequest{GiftID: fx.giftID})
	require.NoError(t, err)
	assert.Equal(t, "2025-07-14", dto.DueAt)
	assert.Equal(t, enums.NoteChannelCard, dto.Channel)
}

func TestCreateReminderExplicitFieldsWin(t *testing.T) {
	fx := newRemindersFixture(t)

	dto, err := fx.svc.Create(context.Background(), fx.userID, fx.listID, CreateReminderRequest{
		GiftID:  fx.giftID,
		DueAt:   "2025-08-01",
		Channel: "text",
	})
	require.NoError(t, err)
	assert.Equal(t, "2025-08-01", dto.DueAt)
	assert.Equal(t, enums.NoteChannelText, dto.Channel)
}

func TestCreateReminderGiftFromAnotherList(t *testing.T) {
	fx := newRemindersFixture(t)

	otherList := uuid.New()
	fx.repo.owners[otherList] = fx.userID
	otherGift := uuid.New()
	fx.gifts.gifts[otherGift] = &models.Gift{ID: otherGift, ListID: otherList}

	_, err := fx.svc.Create(context.Background(), fx.userID, fx.listID, CreateReminderRequest{GiftID: otherGift})
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.As(err).Code())
}

func TestUpdateReminderRejectsBadDueDate(t *testing.T) {
	fx := newRemindersFixture(t)

	dto, err := fx.svc.Create(context.Background(), fx.userID, fx.listID, CreateReminderRequest{GiftID: fx.giftID})
	require.NoError(t, err)

	bad := "next tuesday"
	_, err = fx.svc.Update(context.Background(), fx.userID, dto.ID, UpdateReminderRequest{DueAt: &bad})
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.As(err).Code())
}

func TestCompleteMarksReminderSent(t *testing.T) {
	fx := newRemindersFixture(t)

	dto, err := fx.svc.Create(context.Background(), fx.userID, fx.listID, CreateReminderRequest{GiftID: fx.giftID})
	require.NoError(t, err)

	completed, err := fx.svc.Complete(context.Background(), fx.userID, dto.ID)
	require.NoError(t, err)
	assert.True(t, completed.Sent)

	// Completing twice is a no-op, not an error.
	completed, err = fx.svc.Complete(context.Background(), fx.userID, dto.ID)
	require.NoError(t, err)
	assert.True(t, completed.Sent)
}

func TestGetSettingsDefaultsWhenUnset(t *testing.T) {
	fx := newRemindersFixture(t)

	settings, err := fx.svc.GetSettings(context.Background(), fx.userID, fx.listID)
	require.NoError(t, err)
	assert.True(t, settings.Enabled)
	assert.Equal(t, enums.NoteChannelEmail, settings.DefaultChannel)
	assert.Equal(t, 14, settings.DaysAfter)
}

func TestPutSettingsRoundTrips(t *testing.T) {
	fx := newRemindersFixture(t)

	saved, err := fx.svc.PutSettings(context.Background(), fx.userID, fx.listID, UpdateSettingsRequest{
		Enabled:        false,
		DefaultChannel: "card",
		DaysAfter:      7,
	})
	require.NoError(t, err)
	assert.False(t, saved.Enabled)

	settings, err := fx.svc.GetSettings(context.Background(), fx.userID, fx.listID)
	require.NoError(t, err)
	assert.False(t, settings.Enabled)
	assert.Equal(t, enums.NoteChannelCard, settings.DefaultChannel)
	assert.Equal(t, 7, settings.DaysAfter)
}

func TestPutSettingsRejectsUnknownChannel(t *testing.T) {
	fx := newRemindersFixture(t)

	_, err := fx.svc.PutSettings(context.Background(), fx.userID, fx.listID, UpdateSettingsRequest{
		Enabled:        true,
		DefaultChannel: "fax",
		DaysAfter:      7,
	})
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.As(err).Code())
}

func TestDeleteReminderForeignUserIsNotFound(t *testing.T) {
	fx := newRemindersFixture(t)

	dto, err := fx.svc.Create(context.Background(), fx.userID, fx.listID, CreateReminderRequest{GiftID: fx.giftID})
	require.NoError(t, err)

	err = fx.svc.Delete(context.Background(), uuid.New(), dto.ID)
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeNotFound, pkgerrors.As(err).Code())
}
