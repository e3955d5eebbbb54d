package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ferdaws-ahmed/WisdomVault-server-side/internal/identity"
	"github.com/ferdaws-ahmed/WisdomVault-server-side/internal/logger"
	"github.com/ferdaws-ahmed/WisdomVault-server-side/internal/model"
	"github.com/ferdaws-ahmed/WisdomVault-server-side/internal/queue"
)

const defaultAvatar = "https://img/default.png"

type accountFixture struct {
	repo      *memAccounts
	profiles  *recordingProfiles
	publisher *queue.MemoryPublisher
	store     *storeFixture
	reports   *memLessonReports
	svc       *AccountService
}

func newAccountFixture(accounts ...*model.Account) *accountFixture {
	f := &accountFixture{
		repo:      newMemAccounts(accounts...),
		profiles:  &recordingProfiles{},
		publisher: &queue.MemoryPublisher{},
		store:     newStoreFixture(),
		reports:   &memLessonReports{},
	}
	lessons := NewLessonService(f.store.store, f.store.public, f.store.owner, f.repo, f.reports, logger.Nop())
	f.svc = NewAccountService(f.repo, lessons, f.profiles, f.publisher, logger.Nop(), defaultAvatar)
	return f
}

// =============================================================================
// SYNC
// =============================================================================

func TestAccountService_Sync_CreatesWithDefaults(t *testing.T) {
	f := newAccountFixture()

	account, err := f.svc.Sync(context.Background(),
		&identity.Identity{SubjectID: "uid-1", Email: " New@Example.com "},
		model.SyncAccountRequest{})
	require.NoError(t, err)

	assert.Equal(t, "uid-1", account.UID)
	assert.Equal(t, "new@example.com", account.Email)
	assert.Equal(t, model.AnonymousName, account.Name)
	assert.Equal(t, defaultAvatar, account.PhotoURL)
	assert.Equal(t, model.RoleUser, account.Role)
	assert.False(t, account.IsPremium)
}

func TestAccountService_Sync_IsIdempotent(t *testing.T) {
	f := newAccountFixture()
	id := &identity.Identity{SubjectID: "uid-1", Email: "ada@example.com", Name: "Ada"}

	first, err := f.svc.Sync(context.Background(), id, model.SyncAccountRequest{})
	require.NoError(t, err)

	premium := true
	_, err = f.repo.Patch(context.Background(), "ada@example.com", model.AccountPatch{IsPremium: &premium})
	require.NoError(t, err)

	second, err := f.svc.Sync(context.Background(), id, model.SyncAccountRequest{Name: "Ada"})
	require.NoError(t, err)

	assert.Equal(t, first.UID, second.UID)
	assert.Equal(t, "Ada", second.Name)
	assert.True(t, second.IsPremium, "sync must not reset premium")

	all, err := f.repo.List(context.Background())
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestAccountService_Sync_ReplacesPlaceholderName(t *testing.T) {
	f := newAccountFixture(&model.Account{
		UID: "uid-1", Email: "ada@example.com", Name: model.AnonymousName,
		PhotoURL: defaultAvatar, Role: model.RoleUser,
	})

	account, err := f.svc.Sync(context.Background(),
		&identity.Identity{SubjectID: "uid-1", Email: "ada@example.com"},
		model.SyncAccountRequest{Name: "Ada Lovelace"})
	require.NoError(t, err)

	assert.Equal(t, "Ada Lovelace", account.Name)
	assert.Equal(t, defaultAvatar, account.PhotoURL)

	stored, err := f.repo.GetByUID(context.Background(), "uid-1")
	require.NoError(t, err)
	assert.Equal(t, "Ada Lovelace", stored.Name)
}

func TestAccountService_Sync_KeepsRealName(t *testing.T) {
	f := newAccountFixture(&model.Account{
		UID: "uid-1", Email: "ada@example.com", Name: "Ada", Role: model.RoleUser,
	})

	account, err := f.svc.Sync(context.Background(),
		&identity.Identity{SubjectID: "uid-1", Email: "ada@example.com"},
		model.SyncAccountRequest{Name: "Someone Else"})
	require.NoError(t, err)

	assert.Equal(t, "Ada", account.Name)
	assert.Zero(t, f.repo.updateProfileCalls)
}

func TestAccountService_Sync_EmailOwnedByOtherSubject(t *testing.T) {
	f := newAccountFixture(&model.Account{UID: "uid-1", Email: "ada@example.com", Role: model.RoleUser})

	_, err := f.svc.Sync(context.Background(),
		&identity.Identity{SubjectID: "uid-2", Email: "ada@example.com"},
		model.SyncAccountRequest{})
	assert.ErrorIs(t, err, model.ErrEmailTaken)
}

func TestAccountService_Sync_RequiresEmail(t *testing.T) {
	f := newAccountFixture()

	_, err := f.svc.Sync(context.Background(), &identity.Identity{SubjectID: "uid-1"}, model.SyncAccountRequest{})
	assert.ErrorIs(t, err, model.ErrEmailRequired)
}

// =============================================================================
// PROFILE AND STATUS
// =============================================================================

func TestAccountService_UpdateProfile_OtherAccountForbidden(t *testing.T) {
	f := newAccountFixture(&model.Account{UID: "uid-1", Email: "ada@example.com", Name: "Ada"})

	_, err := f.svc.UpdateProfile(context.Background(), "uid-2", "uid-1", model.UpdateProfileRequest{Name: "Mallory"})
	assert.ErrorIs(t, err, model.ErrForbidden)
	assert.Empty(t, f.profiles.calls, "identity provider must not be touched")
}

func TestAccountService_UpdateProfile_Success(t *testing.T) {
	f := newAccountFixture(&model.Account{UID: "uid-1", Email: "ada@example.com", Name: "Ada", PhotoURL: "https://img/old.png"})

	n, err := f.svc.UpdateProfile(context.Background(), "uid-1", "uid-1", model.UpdateProfileRequest{Name: " Ada L. "})
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
	assert.Equal(t, []string{"uid-1:Ada L."}, f.profiles.calls)

	stored, err := f.repo.GetByUID(context.Background(), "uid-1")
	require.NoError(t, err)
	assert.Equal(t, "Ada L.", stored.Name)
	assert.Equal(t, "https://img/old.png", stored.PhotoURL, "empty photo keeps the current one")
}

func TestAccountService_UpdateProfile_ProviderFailureStops(t *testing.T) {
	f := newAccountFixture(&model.Account{UID: "uid-1", Email: "ada@example.com", Name: "Ada"})
	f.profiles.err = errInjected

	_, err := f.svc.UpdateProfile(context.Background(), "uid-1", "uid-1", model.UpdateProfileRequest{Name: "New"})
	assert.ErrorIs(t, err, errInjected)
	assert.Zero(t, f.repo.updateProfileCalls)
}

func TestAccountService_UpdateProfile_NameRequired(t *testing.T) {
	f := newAccountFixture(&model.Account{UID: "uid-1", Email: "ada@example.com", Name: "Ada"})

	_, err := f.svc.UpdateProfile(context.Background(), "uid-1", "uid-1", model.UpdateProfileRequest{Name: "  "})
	assert.ErrorIs(t, err, model.ErrNameRequired)
}

func TestAccountService_Status(t *testing.T) {
	f := newAccountFixture(
		&model.Account{UID: "uid-1", Email: "ada@example.com", Role: model.RoleUser, IsPremium: true},
		&model.Account{UID: "uid-2", Email: "bob@example.com", Role: model.RoleUser},
		&model.Account{UID: "uid-3", Email: "root@example.com", Role: model.RoleAdmin},
	)
	ctx := context.Background()

	status, err := f.svc.Status(ctx, "ada@example.com", "ADA@example.com")
	require.NoError(t, err)
	assert.True(t, status.IsPremium)

	_, err = f.svc.Status(ctx, "bob@example.com", "ada@example.com")
	assert.ErrorIs(t, err, model.ErrForbidden)

	status, err = f.svc.Status(ctx, "root@example.com", "ada@example.com")
	require.NoError(t, err)
	assert.Equal(t, model.RoleUser, status.Role)

	_, err = f.svc.Status(ctx, "root@example.com", "ghost@example.com")
	assert.ErrorIs(t, err, model.ErrAccountNotFound)
}

// =============================================================================
// ADMIN
// =============================================================================

func TestAccountService_SetRoleOrPremium(t *testing.T) {
	f := newAccountFixture(&model.Account{UID: "uid-1", Email: "ada@example.com", Role: model.RoleUser})
	ctx := context.Background()

	_, err := f.svc.SetRoleOrPremium(ctx, "ada@example.com", model.AccountPatch{})
	assert.ErrorIs(t, err, model.ErrEmptyPatch)

	bad := "owner"
	_, err = f.svc.SetRoleOrPremium(ctx, "ada@example.com", model.AccountPatch{Role: &bad})
	assert.ErrorIs(t, err, model.ErrInvalidRole)

	admin := model.RoleAdmin
	_, err = f.svc.SetRoleOrPremium(ctx, "ghost@example.com", model.AccountPatch{Role: &admin})
	assert.ErrorIs(t, err, model.ErrAccountNotFound)

	n, err := f.svc.SetRoleOrPremium(ctx, "ada@example.com", model.AccountPatch{Role: &admin})
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	stored, err := f.repo.GetByUID(ctx, "uid-1")
	require.NoError(t, err)
	assert.True(t, stored.IsAdmin())
}

func TestAccountService_MarkPremium(t *testing.T) {
	f := newAccountFixture(&model.Account{UID: "uid-1", Email: "ada@example.com", Role: model.RoleUser})
	ctx := context.Background()

	require.NoError(t, f.svc.MarkPremium(ctx, "ada@example.com"))
	require.NoError(t, f.svc.MarkPremium(ctx, "ada@example.com"))

	stored, err := f.repo.GetByUID(ctx, "uid-1")
	require.NoError(t, err)
	assert.True(t, stored.IsPremium)

	events := f.publisher.Events()
	require.Len(t, events, 1, "second upgrade is a no-op")
	assert.Equal(t, queue.EventPremiumUpgraded, events[0].Type)
}

func TestAccountService_DeleteAccount_RemovesLessons(t *testing.T) {
	f := newAccountFixture(
		&model.Account{UID: "uid-ada", Email: "ada@example.com", Role: model.RoleUser},
		&model.Account{UID: "uid-bob", Email: "bob@example.com", Role: model.RoleUser},
	)
	ctx := context.Background()
	bob := model.Creator{Name: "Bob", Email: "bob@example.com", UID: "uid-bob"}

	_, err := f.store.store.Create(ctx, draft("a1"), ada)
	require.NoError(t, err)
	_, err = f.store.store.Create(ctx, draft("a2"), ada)
	require.NoError(t, err)
	_, err = f.store.store.Create(ctx, draft("b1"), bob)
	require.NoError(t, err)

	removed, err := f.svc.DeleteAccount(ctx, "ada@example.com")
	require.NoError(t, err)
	assert.Equal(t, 2, removed)

	_, err = f.repo.GetByEmail(ctx, "ada@example.com")
	assert.ErrorIs(t, err, model.ErrAccountNotFound)
	assert.Equal(t, 1, f.store.public.len())
	assert.Equal(t, 1, f.store.owner.len())

	_, err = f.svc.DeleteAccount(ctx, "ada@example.com")
	assert.ErrorIs(t, err, model.ErrAccountNotFound)
}

func TestAccountService_DeleteAccount_RemovesLessonReports(t *testing.T) {
	f := newAccountFixture(&model.Account{UID: "uid-ada", Email: "ada@example.com", Role: model.RoleUser})
	ctx := context.Background()
	bob := model.Creator{Name: "Bob", Email: "bob@example.com", UID: "uid-bob"}

	adaLesson, err := f.store.store.Create(ctx, draft("a1"), ada)
	require.NoError(t, err)
	bobLesson, err := f.store.store.Create(ctx, draft("b1"), bob)
	require.NoError(t, err)
	for _, id := range []string{adaLesson.ID, bobLesson.ID} {
		require.NoError(t, f.reports.Create(ctx, &model.LessonReport{ID: "r-" + id, LessonID: id, ReporterEmail: "eve@example.com", Reason: "spam"}))
	}

	_, err = f.svc.DeleteAccount(ctx, "ada@example.com")
	require.NoError(t, err)

	gone, err := f.reports.ListByLesson(ctx, adaLesson.ID)
	require.NoError(t, err)
	assert.Empty(t, gone)

	kept, err := f.reports.ListByLesson(ctx, bobLesson.ID)
	require.NoError(t, err)
	assert.Len(t, kept, 1)
}

func TestAccountService_DeleteAccount_LessonFailureKeepsAccount(t *testing.T) {
	f := newAccountFixture(&model.Account{UID: "uid-ada", Email: "ada@example.com", Role: model.RoleUser})
	ctx := context.Background()

	_, err := f.store.store.Create(ctx, draft("a1"), ada)
	require.NoError(t, err)
	f.store.public.failDelete = errInjected

	_, err = f.svc.DeleteAccount(ctx, "ada@example.com")
	require.Error(t, err)

	_, err = f.repo.GetByEmail(ctx, "ada@example.com")
	assert.NoError(t, err)
}
