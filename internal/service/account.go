package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ferdaws-ahmed/WisdomVault-server-side/internal/identity"
	"github.com/ferdaws-ahmed/WisdomVault-server-side/internal/logger"
	"github.com/ferdaws-ahmed/WisdomVault-server-side/internal/model"
	"github.com/ferdaws-ahmed/WisdomVault-server-side/internal/queue"
	"github.com/ferdaws-ahmed/WisdomVault-server-side/internal/repository"
)

// LessonCascade removes the lessons of an account that is being deleted.
type LessonCascade interface {
	DeleteByCreator(ctx context.Context, email string) (int, error)
}

// AccountService handles business logic for the user directory
type AccountService struct {
	repo      repository.AccountRepository
	lessons   LessonCascade
	profiles  identity.ProfileUpdater
	publisher queue.Publisher
	log       *logger.Logger

	defaultAvatar string
	now           func() time.Time
}

func NewAccountService(
	repo repository.AccountRepository,
	lessons LessonCascade,
	profiles identity.ProfileUpdater,
	publisher queue.Publisher,
	log *logger.Logger,
	defaultAvatar string,
) *AccountService {
	return &AccountService{
		repo:          repo,
		lessons:       lessons,
		profiles:      profiles,
		publisher:     publisher,
		log:           log,
		defaultAvatar: defaultAvatar,
		now:           time.Now,
	}
}

// Sync creates the caller's account the first time it is seen. Repeat calls
// return the stored account; the only thing they can change is a placeholder
// name, which a real name replaces. Role and premium are never touched here.
func (s *AccountService) Sync(ctx context.Context, id *identity.Identity, req model.SyncAccountRequest) (*model.Account, error) {
	email := model.NormalizeEmail(id.Email)
	if email == "" {
		return nil, model.ErrEmailRequired
	}

	name := firstNonEmpty(req.Name, id.Name)
	photo := firstNonEmpty(req.PhotoURL, id.Picture)

	account := &model.Account{
		UID:       id.SubjectID,
		Email:     email,
		Name:      firstNonEmpty(name, model.AnonymousName),
		PhotoURL:  firstNonEmpty(photo, s.defaultAvatar),
		Role:      model.RoleUser,
		IsPremium: false,
		CreatedAt: s.now().UTC(),
	}

	created, err := s.repo.Create(ctx, account)
	if err != nil {
		return nil, err
	}
	if created {
		s.log.Info("account created", "uid", account.UID, "email", account.Email)
		return account, nil
	}

	existing, err := s.repo.GetByUID(ctx, id.SubjectID)
	if err != nil {
		return nil, fmt.Errorf("load existing account: %w", err)
	}
	if existing.Name != model.AnonymousName || name == "" || name == model.AnonymousName {
		return existing, nil
	}

	newPhoto := firstNonEmpty(photo, existing.PhotoURL)
	if _, err := s.repo.UpdateProfile(ctx, existing.UID, name, newPhoto); err != nil {
		return nil, err
	}
	existing.Name = name
	existing.PhotoURL = newPhoto
	return existing, nil
}

func (s *AccountService) GetByEmail(ctx context.Context, email string) (*model.Account, error) {
	return s.repo.GetByEmail(ctx, model.NormalizeEmail(email))
}

// Status returns role and premium flag to the account itself or an admin.
func (s *AccountService) Status(ctx context.Context, callerEmail, email string) (*model.AccountStatus, error) {
	email = model.NormalizeEmail(email)
	if email != model.NormalizeEmail(callerEmail) {
		caller, err := s.repo.GetByEmail(ctx, model.NormalizeEmail(callerEmail))
		if err != nil && !errors.Is(err, model.ErrAccountNotFound) {
			return nil, err
		}
		if !caller.IsAdmin() {
			return nil, model.ErrForbidden
		}
	}

	account, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	return &model.AccountStatus{Email: account.Email, Role: account.Role, IsPremium: account.IsPremium}, nil
}

// UpdateProfile changes the caller's own name and photo. The identity
// provider is updated first; the directory follows.
func (s *AccountService) UpdateProfile(ctx context.Context, callerUID, targetUID string, req model.UpdateProfileRequest) (int64, error) {
	if callerUID == "" || callerUID != targetUID {
		return 0, model.ErrForbidden
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return 0, model.ErrNameRequired
	}

	if err := s.profiles.UpdateProfile(ctx, targetUID, name, req.PhotoURL); err != nil {
		return 0, fmt.Errorf("update identity profile: %w", err)
	}

	photo := req.PhotoURL
	if photo == "" {
		current, err := s.repo.GetByUID(ctx, targetUID)
		if err != nil {
			return 0, err
		}
		photo = current.PhotoURL
	}

	n, err := s.repo.UpdateProfile(ctx, targetUID, name, photo)
	if err != nil {
		return 0, err
	}
	if n == 0 {
		return 0, model.ErrAccountNotFound
	}
	return n, nil
}

func (s *AccountService) List(ctx context.Context) ([]model.Account, error) {
	return s.repo.List(ctx)
}

// SetRoleOrPremium applies the admin allow-list patch.
func (s *AccountService) SetRoleOrPremium(ctx context.Context, email string, patch model.AccountPatch) (int64, error) {
	if err := patch.Validate(); err != nil {
		return 0, err
	}
	n, err := s.repo.Patch(ctx, model.NormalizeEmail(email), patch)
	if err != nil {
		return 0, err
	}
	if n == 0 {
		return 0, model.ErrAccountNotFound
	}
	return n, nil
}

// MarkPremium upgrades the account after a confirmed payment. Upgrading an
// account that is already premium is a no-op.
func (s *AccountService) MarkPremium(ctx context.Context, email string) error {
	email = model.NormalizeEmail(email)
	account, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		return err
	}
	if account.IsPremium {
		return nil
	}

	premium := true
	if _, err := s.SetRoleOrPremium(ctx, email, model.AccountPatch{IsPremium: &premium}); err != nil {
		return err
	}
	queue.PublishBestEffort(ctx, s.publisher, s.log, queue.NewPremiumUpgradedEvent(email))
	return nil
}

// DeleteAccount removes every lesson created under the email and then the
// account itself. Lessons go first so a failure leaves the account in place
// and the call can be repeated.
func (s *AccountService) DeleteAccount(ctx context.Context, email string) (int, error) {
	email = model.NormalizeEmail(email)
	if _, err := s.repo.GetByEmail(ctx, email); err != nil {
		return 0, err
	}

	removed, err := s.lessons.DeleteByCreator(ctx, email)
	if err != nil {
		return removed, fmt.Errorf("delete lessons of %s: %w", email, err)
	}

	n, err := s.repo.Delete(ctx, email)
	if err != nil {
		return removed, err
	}
	if n == 0 {
		return removed, model.ErrAccountNotFound
	}

	s.log.Info("account deleted", "email", email, "lessons_removed", removed)
	queue.PublishBestEffort(ctx, s.publisher, s.log, queue.NewAccountDeletedEvent(email))
	return removed, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}
