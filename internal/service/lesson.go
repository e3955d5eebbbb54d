package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ferdaws-ahmed/WisdomVault-server-side/internal/logger"
	"github.com/ferdaws-ahmed/WisdomVault-server-side/internal/model"
	"github.com/ferdaws-ahmed/WisdomVault-server-side/internal/repository"
)

// LessonService applies authorization on top of LessonStore and serves the
// read paths from whichever index fits the query.
type LessonService struct {
	store    *LessonStore
	public   repository.LessonIndex
	owner    repository.LessonIndex
	accounts repository.AccountRepository
	reports  repository.LessonReportRepository
	log      *logger.Logger

	now func() time.Time
}

func NewLessonService(
	store *LessonStore,
	public, owner repository.LessonIndex,
	accounts repository.AccountRepository,
	reports repository.LessonReportRepository,
	log *logger.Logger,
) *LessonService {
	return &LessonService{
		store:    store,
		public:   public,
		owner:    owner,
		accounts: accounts,
		reports:  reports,
		log:      log,
		now:      time.Now,
	}
}

// ListParams is the parsed query string of a listing endpoint.
type ListParams struct {
	Category      string
	EmotionalTone string
	Search        string
	Sort          string
	Page          int
	Limit         int
}

// Create stores a new lesson with a snapshot of the caller's account.
func (s *LessonService) Create(ctx context.Context, callerEmail string, draft model.LessonDraft) (*model.Lesson, error) {
	caller, err := s.accounts.GetByEmail(ctx, callerEmail)
	if err != nil {
		return nil, err
	}
	if draft.AccessLevel == model.AccessLevelPremium && !canPublishPremium(caller) {
		return nil, model.ErrPremiumRequired
	}
	return s.store.Create(ctx, draft, caller.Snapshot())
}

// Get returns one lesson. Private lessons are only shown to their creator and admins.
func (s *LessonService) Get(ctx context.Context, viewerEmail, id string) (*model.Lesson, error) {
	lesson, err := s.public.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if lesson.IsPublic() {
		return lesson, nil
	}
	viewer, err := s.viewer(ctx, viewerEmail)
	if err != nil {
		return nil, err
	}
	if err := canView(viewer)(lesson); err != nil {
		return nil, err
	}
	return lesson, nil
}

// ListPublic pages through public lessons.
func (s *LessonService) ListPublic(ctx context.Context, p ListParams) (*model.LessonListResponse, error) {
	q := p.query()
	q.Visibility = model.VisibilityPublic
	return s.page(ctx, s.public, q, p)
}

// ListMine reads the owner index.
func (s *LessonService) ListMine(ctx context.Context, email string) ([]model.Lesson, error) {
	return s.owner.List(ctx, model.LessonQuery{CreatorEmail: email, Sort: model.SortNewest})
}

func (s *LessonService) ListFavorites(ctx context.Context, email string) ([]model.Lesson, error) {
	return s.public.List(ctx, model.LessonQuery{FavoritedBy: email, Sort: model.SortNewest})
}

// ListAll is the admin listing; it includes private lessons.
func (s *LessonService) ListAll(ctx context.Context, p ListParams) (*model.LessonListResponse, error) {
	return s.page(ctx, s.public, p.query(), p)
}

func (s *LessonService) ListReported(ctx context.Context) ([]model.Lesson, error) {
	return s.public.List(ctx, model.LessonQuery{ReportedOnly: true, Sort: model.SortNewest})
}

func (s *LessonService) Update(ctx context.Context, callerEmail, id string, patch model.LessonPatch) (*model.Lesson, error) {
	caller, err := s.accounts.GetByEmail(ctx, callerEmail)
	if err != nil {
		return nil, err
	}
	if patch.AccessLevel != nil && *patch.AccessLevel == model.AccessLevelPremium && !canPublishPremium(caller) {
		return nil, model.ErrPremiumRequired
	}
	return s.store.Update(ctx, id, patch, canManage(caller))
}

func (s *LessonService) SetAccessLevel(ctx context.Context, callerEmail, id, level string) (*model.Lesson, error) {
	caller, err := s.accounts.GetByEmail(ctx, callerEmail)
	if err != nil {
		return nil, err
	}
	if level == model.AccessLevelPremium && !canPublishPremium(caller) {
		return nil, model.ErrPremiumRequired
	}
	return s.store.SetAccessLevel(ctx, id, level, canManage(caller))
}

// Delete removes a lesson for its creator or an admin, along with its reports.
func (s *LessonService) Delete(ctx context.Context, callerEmail, id string) error {
	caller, err := s.accounts.GetByEmail(ctx, callerEmail)
	if err != nil {
		return err
	}
	if _, err := s.store.Delete(ctx, id, canManage(caller)); err != nil {
		return err
	}
	s.dropReports(ctx, id)
	return nil
}

// DeleteByCreator removes every lesson created under email, along with their
// reports, and returns how many lessons were removed.
func (s *LessonService) DeleteByCreator(ctx context.Context, email string) (int, error) {
	removed, err := s.store.DeleteByCreator(ctx, email)
	for _, id := range removed {
		s.dropReports(ctx, id)
	}
	return len(removed), err
}

// dropReports is best effort: the lesson is already gone and orphaned
// reports are never listed.
func (s *LessonService) dropReports(ctx context.Context, id string) {
	if err := s.reports.DeleteByLesson(ctx, id); err != nil {
		s.log.Warn("failed to delete lesson reports", "lesson_id", id, "error", err)
	}
}

// EngagementResult is returned by the like and favorite toggles.
type EngagementResult struct {
	Active bool `json:"active"`
	Count  int  `json:"count"`
}

func (s *LessonService) ToggleLike(ctx context.Context, callerEmail, id string) (*EngagementResult, error) {
	viewer, err := s.viewer(ctx, callerEmail)
	if err != nil {
		return nil, err
	}
	lesson, liked, err := s.store.ToggleLike(ctx, id, model.NormalizeEmail(callerEmail), canView(viewer))
	if err != nil {
		return nil, err
	}
	return &EngagementResult{Active: liked, Count: lesson.LikesCount}, nil
}

func (s *LessonService) ToggleFavorite(ctx context.Context, callerEmail, id string) (*EngagementResult, error) {
	viewer, err := s.viewer(ctx, callerEmail)
	if err != nil {
		return nil, err
	}
	lesson, favorited, err := s.store.ToggleFavorite(ctx, id, model.NormalizeEmail(callerEmail), canView(viewer))
	if err != nil {
		return nil, err
	}
	return &EngagementResult{Active: favorited, Count: lesson.FavoritesCount}, nil
}

// AddComment appends a comment signed with the caller's current profile.
func (s *LessonService) AddComment(ctx context.Context, callerEmail, id, text string) (*model.Comment, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, model.ErrCommentRequired
	}
	if len(text) > model.MaxCommentLength {
		return nil, model.ErrCommentTooLong
	}

	caller, err := s.accounts.GetByEmail(ctx, callerEmail)
	if err != nil {
		return nil, err
	}

	comment := model.Comment{
		ID:        uuid.NewString(),
		Name:      caller.Name,
		Email:     caller.Email,
		PhotoURL:  caller.PhotoURL,
		Text:      text,
		CreatedAt: s.now().UTC(),
	}
	if _, err := s.store.AddComment(ctx, id, comment, canView(caller)); err != nil {
		return nil, err
	}
	return &comment, nil
}

// Report flags the lesson and records who reported it and why.
func (s *LessonService) Report(ctx context.Context, callerEmail, id, reason string) (*model.LessonReport, error) {
	viewer, err := s.viewer(ctx, callerEmail)
	if err != nil {
		return nil, err
	}
	if _, err := s.store.MarkReported(ctx, id, canView(viewer)); err != nil {
		return nil, err
	}

	report := &model.LessonReport{
		ID:            uuid.NewString(),
		LessonID:      id,
		ReporterEmail: model.NormalizeEmail(callerEmail),
		Reason:        strings.TrimSpace(reason),
		CreatedAt:     s.now().UTC(),
	}
	if err := s.reports.Create(ctx, report); err != nil {
		return nil, fmt.Errorf("record report: %w", err)
	}
	return report, nil
}

func (s *LessonService) ListReports(ctx context.Context, id string) ([]model.LessonReport, error) {
	return s.reports.ListByLesson(ctx, id)
}

// ClearReport resolves every open report on the lesson.
func (s *LessonService) ClearReport(ctx context.Context, id string) (*model.Lesson, error) {
	lesson, err := s.store.ClearReport(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.reports.DeleteByLesson(ctx, id); err != nil {
		return nil, fmt.Errorf("clear reports: %w", err)
	}
	return lesson, nil
}

func (s *LessonService) page(ctx context.Context, index repository.LessonIndex, q model.LessonQuery, p ListParams) (*model.LessonListResponse, error) {
	total, err := index.Count(ctx, q)
	if err != nil {
		return nil, err
	}
	lessons, err := index.List(ctx, q)
	if err != nil {
		return nil, err
	}
	return &model.LessonListResponse{
		Lessons:    lessons,
		Total:      total,
		Page:       p.Page,
		Limit:      q.Limit,
		TotalPages: (total + q.Limit - 1) / q.Limit,
	}, nil
}

// viewer resolves the caller's account. A caller without an account is
// treated as a plain user so ownership checks by email still work.
func (s *LessonService) viewer(ctx context.Context, email string) (*model.Account, error) {
	if email == "" {
		return nil, nil
	}
	acct, err := s.accounts.GetByEmail(ctx, email)
	if errors.Is(err, model.ErrAccountNotFound) {
		return &model.Account{Email: email, Role: model.RoleUser}, nil
	}
	return acct, err
}

func (p *ListParams) query() model.LessonQuery {
	if p.Limit <= 0 {
		p.Limit = model.DefaultPageLimit
	}
	if p.Limit > model.MaxPageLimit {
		p.Limit = model.MaxPageLimit
	}
	if p.Page < 1 {
		p.Page = 1
	}
	return model.LessonQuery{
		Category:      p.Category,
		EmotionalTone: p.EmotionalTone,
		Search:        strings.TrimSpace(p.Search),
		Sort:          p.Sort,
		Limit:         p.Limit,
		Offset:        (p.Page - 1) * p.Limit,
	}
}

func canPublishPremium(a *model.Account) bool {
	return a.IsPremium || a.IsAdmin()
}

// canManage allows the lesson's creator and admins.
func canManage(caller *model.Account) Guard {
	return func(l *model.Lesson) error {
		if caller.IsAdmin() || l.OwnedBy(caller.Email) {
			return nil
		}
		return model.ErrForbidden
	}
}

// canView allows everyone on public lessons. A nil viewer is anonymous.
func canView(viewer *model.Account) Guard {
	return func(l *model.Lesson) error {
		if l.IsPublic() {
			return nil
		}
		if viewer == nil {
			return model.ErrForbidden
		}
		return canManage(viewer)(l)
	}
}
