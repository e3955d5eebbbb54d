package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/ferdaws-ahmed/WisdomVault-server-side/internal/model"
)

// reportRepository runs aggregations straight against the current rows.
// Nothing here is cached; every call sees the data as it is now.
type reportRepository struct {
	db *sqlx.DB
}

func NewReportRepository(db *sqlx.DB) ReportRepository {
	return &reportRepository{db: db}
}

// ContributorTotals groups public lessons by creator name. The avatar is the
// one on the group's earliest lesson so the choice does not depend on scan order.
func (r *reportRepository) ContributorTotals(ctx context.Context) ([]model.ContributorTotals, error) {
	query := `
		SELECT creator_name AS name,
		       (ARRAY_AGG(creator_photo ORDER BY created_at ASC, id ASC))[1] AS photo_url,
		       COUNT(*) AS lesson_count,
		       COALESCE(SUM(likes_count), 0) AS total_likes,
		       COALESCE(SUM(favorites_count), 0) AS total_favorites
		FROM ` + PublicLessonTable + `
		WHERE visibility = $1
		GROUP BY creator_name
	`
	rows := []model.ContributorTotals{}
	if err := r.db.SelectContext(ctx, &rows, query, model.VisibilityPublic); err != nil {
		return nil, fmt.Errorf("contributor totals: %w", err)
	}
	return rows, nil
}

func (r *reportRepository) CountOwnerLessons(ctx context.Context, email string) (int, error) {
	return r.count(ctx, "count owner lessons",
		`SELECT COUNT(*) FROM `+OwnerLessonTable+` WHERE creator_email = $1`, email)
}

func (r *reportRepository) CountFavoritedBy(ctx context.Context, email string) (int, error) {
	return r.count(ctx, "count favorites",
		`SELECT COUNT(*) FROM `+PublicLessonTable+` WHERE $1 = ANY(favorited_by)`, email)
}

func (r *reportRepository) RecentOwnerLessons(ctx context.Context, email string, limit int) ([]model.RecentLesson, error) {
	rows := []model.RecentLesson{}
	err := r.db.SelectContext(ctx, &rows, `
		SELECT id, title, category, created_at
		FROM `+OwnerLessonTable+`
		WHERE creator_email = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2
	`, email, limit)
	if err != nil {
		return nil, fmt.Errorf("recent owner lessons: %w", err)
	}
	return rows, nil
}

func (r *reportRepository) OwnerCreationTimes(ctx context.Context, email string, since time.Time) ([]time.Time, error) {
	times := []time.Time{}
	err := r.db.SelectContext(ctx, &times, `
		SELECT created_at FROM `+OwnerLessonTable+`
		WHERE creator_email = $1 AND created_at >= $2
	`, email, since)
	if err != nil {
		return nil, fmt.Errorf("owner creation times: %w", err)
	}
	return times, nil
}

func (r *reportRepository) CountPublicLessons(ctx context.Context) (int, error) {
	return r.count(ctx, "count public lessons",
		`SELECT COUNT(*) FROM `+PublicLessonTable+` WHERE visibility = $1`, model.VisibilityPublic)
}

func (r *reportRepository) CountAccounts(ctx context.Context) (int, error) {
	return r.count(ctx, "count accounts", `SELECT COUNT(*) FROM accounts`)
}

func (r *reportRepository) SumFavorites(ctx context.Context) (int, error) {
	return r.count(ctx, "sum favorites",
		`SELECT COALESCE(SUM(favorites_count), 0) FROM `+PublicLessonTable)
}

func (r *reportRepository) CountCategories(ctx context.Context) (int, error) {
	return r.count(ctx, "count categories",
		`SELECT COUNT(DISTINCT category) FROM `+PublicLessonTable)
}

func (r *reportRepository) CountLessons(ctx context.Context) (int, error) {
	return r.count(ctx, "count lessons", `SELECT COUNT(*) FROM `+PublicLessonTable)
}

func (r *reportRepository) CountReported(ctx context.Context) (int, error) {
	return r.count(ctx, "count reported",
		`SELECT COUNT(*) FROM `+PublicLessonTable+` WHERE is_reported`)
}

func (r *reportRepository) CountCreatedSince(ctx context.Context, since time.Time) (int, error) {
	return r.count(ctx, "count created since",
		`SELECT COUNT(*) FROM `+PublicLessonTable+` WHERE created_at >= $1`, since)
}

func (r *reportRepository) CategoryBreakdown(ctx context.Context) ([]model.CategoryCount, error) {
	rows := []model.CategoryCount{}
	err := r.db.SelectContext(ctx, &rows, `
		SELECT category, COUNT(*) AS count
		FROM `+PublicLessonTable+`
		GROUP BY category
		ORDER BY count DESC, category ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("category breakdown: %w", err)
	}
	return rows, nil
}

func (r *reportRepository) count(ctx context.Context, what, query string, args ...interface{}) (int, error) {
	var n int
	if err := r.db.GetContext(ctx, &n, query, args...); err != nil {
		return 0, fmt.Errorf("%s: %w", what, err)
	}
	return n, nil
}
