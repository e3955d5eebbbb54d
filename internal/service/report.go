package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/ferdaws-ahmed/WisdomVault-server-side/internal/model"
	"github.com/ferdaws-ahmed/WisdomVault-server-side/internal/repository"
)

// ReportService computes leaderboards and dashboards. Every call reads the
// current rows; nothing is cached between calls.
type ReportService struct {
	repo repository.ReportRepository
	now  func() time.Time
}

func NewReportService(repo repository.ReportRepository) *ReportService {
	return &ReportService{repo: repo, now: time.Now}
}

// TopContributors ranks creators of public lessons.
func (s *ReportService) TopContributors(ctx context.Context) ([]model.Contributor, error) {
	totals, err := s.repo.ContributorTotals(ctx)
	if err != nil {
		return nil, err
	}
	return RankContributors(totals, model.TopContributorsLimit), nil
}

// RankContributors scores each creator and returns the best limit of them,
// highest score first. Equal scores are ordered by name.
func RankContributors(totals []model.ContributorTotals, limit int) []model.Contributor {
	ranked := make([]model.Contributor, 0, len(totals))
	for _, t := range totals {
		ranked = append(ranked, model.Contributor{
			Name:           t.Name,
			PhotoURL:       t.PhotoURL,
			LessonCount:    t.LessonCount,
			TotalLikes:     t.TotalLikes,
			TotalFavorites: t.TotalFavorites,
			Score:          model.ContributorScore(t.LessonCount, t.TotalLikes, t.TotalFavorites),
		})
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].Score != ranked[j].Score {
			return ranked[i].Score > ranked[j].Score
		}
		return ranked[i].Name < ranked[j].Name
	})
	if len(ranked) > limit {
		ranked = ranked[:limit]
	}
	return ranked
}

// Overview builds the owner's dashboard.
func (s *ReportService) Overview(ctx context.Context, email string) (*model.DashboardOverview, error) {
	total, err := s.repo.CountOwnerLessons(ctx, email)
	if err != nil {
		return nil, err
	}
	favorites, err := s.repo.CountFavoritedBy(ctx, email)
	if err != nil {
		return nil, err
	}
	recent, err := s.repo.RecentOwnerLessons(ctx, email, model.RecentLessonsCap)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	times, err := s.repo.OwnerCreationTimes(ctx, email, WeekStart(now))
	if err != nil {
		return nil, err
	}

	return &model.DashboardOverview{
		TotalLessons:   total,
		TotalFavorites: favorites,
		RecentLessons:  recent,
		WeeklyStats:    WeeklyHistogram(now, times),
	}, nil
}

// WeekStart is midnight UTC six days before now, so the window covers the
// seven calendar days ending today.
func WeekStart(now time.Time) time.Time {
	now = now.UTC()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	return today.AddDate(0, 0, -6)
}

// WeeklyHistogram buckets creation times inside the week window by weekday
// (1=Sunday .. 7=Saturday). Only non-empty days are returned, ascending.
func WeeklyHistogram(now time.Time, times []time.Time) []model.DayCount {
	start := WeekStart(now)
	now = now.UTC()

	var counts [8]int
	for _, t := range times {
		t = t.UTC()
		if t.Before(start) || t.After(now) {
			continue
		}
		counts[int(t.Weekday())+1]++
	}

	out := []model.DayCount{}
	for day := 1; day <= 7; day++ {
		if counts[day] == 0 {
			continue
		}
		out = append(out, model.DayCount{
			Day:   day,
			Label: time.Weekday(day - 1).String()[:3],
			Count: counts[day],
		})
	}
	return out
}

// CommunityStats is the public landing page summary.
func (s *ReportService) CommunityStats(ctx context.Context) (*model.CommunityStats, error) {
	var out model.CommunityStats
	var err error
	if out.TotalPublicLessons, err = s.repo.CountPublicLessons(ctx); err != nil {
		return nil, err
	}
	if out.TotalUsers, err = s.repo.CountAccounts(ctx); err != nil {
		return nil, err
	}
	if out.TotalFavorites, err = s.repo.SumFavorites(ctx); err != nil {
		return nil, err
	}
	if out.TotalCategories, err = s.repo.CountCategories(ctx); err != nil {
		return nil, err
	}
	return &out, nil
}

// AdminStats reports totals and the number of lessons created in the last 7x24h.
func (s *ReportService) AdminStats(ctx context.Context) (*model.AdminStats, error) {
	var out model.AdminStats
	var err error
	if out.TotalUsers, err = s.repo.CountAccounts(ctx); err != nil {
		return nil, err
	}
	if out.TotalLessons, err = s.repo.CountLessons(ctx); err != nil {
		return nil, err
	}
	if out.ReportedLessons, err = s.repo.CountReported(ctx); err != nil {
		return nil, err
	}

	fresh, err := s.repo.CountCreatedSince(ctx, s.now().UTC().Add(-7*24*time.Hour))
	if err != nil {
		return nil, err
	}
	out.NewLessonsThisWeek = fmt.Sprintf("+%d", fresh)
	return &out, nil
}

func (s *ReportService) CategoryStats(ctx context.Context) ([]model.CategoryCount, error) {
	return s.repo.CategoryBreakdown(ctx)
}
