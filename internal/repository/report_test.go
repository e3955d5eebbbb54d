package repository

import (
	"context"
	"database/sql/driver"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ferdaws-ahmed/WisdomVault-server-side/internal/model"
)

func newMockReportRepository(t *testing.T) (ReportRepository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() {
		assert.NoError(t, mock.ExpectationsWereMet())
		db.Close()
	})
	return NewReportRepository(sqlx.NewDb(db, "postgres")), mock
}

// sqlFragment matches s literally. sqlmock collapses whitespace in the executed
// query before matching, so single-spaced fragments match the multi-line SQL.
func sqlFragment(s string) string {
	return regexp.QuoteMeta(s)
}

func countRow(n int64) *sqlmock.Rows {
	return sqlmock.NewRows([]string{"count"}).AddRow(n)
}

func TestReportRepository_ContributorTotals_OnlyPublicLessons(t *testing.T) {
	repo, mock := newMockReportRepository(t)

	mock.ExpectQuery(sqlFragment("FROM lessons WHERE visibility = $1 GROUP BY creator_name")).
		WithArgs(model.VisibilityPublic).
		WillReturnRows(sqlmock.NewRows([]string{"name", "photo_url", "lesson_count", "total_likes", "total_favorites"}).
			AddRow("Ada", "https://img/ada.png", int64(2), int64(5), int64(1)).
			AddRow("Bob", "", int64(1), int64(0), int64(0)))

	rows, err := repo.ContributorTotals(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []model.ContributorTotals{
		{Name: "Ada", PhotoURL: "https://img/ada.png", LessonCount: 2, TotalLikes: 5, TotalFavorites: 1},
		{Name: "Bob", LessonCount: 1},
	}, rows)
}

func TestReportRepository_ContributorTotals_WrapsError(t *testing.T) {
	repo, mock := newMockReportRepository(t)

	mock.ExpectQuery(sqlFragment("FROM lessons")).WillReturnError(errors.New("connection reset"))

	_, err := repo.ContributorTotals(context.Background())
	assert.ErrorContains(t, err, "contributor totals: connection reset")
}

func TestReportRepository_CommunityCounts(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name  string
		query string
		args  []driver.Value
		call  func(ReportRepository) (int, error)
	}{
		{
			name:  "public lessons filter on visibility",
			query: "SELECT COUNT(*) FROM lessons WHERE visibility = $1",
			args:  []driver.Value{model.VisibilityPublic},
			call:  func(r ReportRepository) (int, error) { return r.CountPublicLessons(ctx) },
		},
		{
			name:  "favorites are summed over the public index",
			query: "SELECT COALESCE(SUM(favorites_count), 0) FROM lessons",
			call:  func(r ReportRepository) (int, error) { return r.SumFavorites(ctx) },
		},
		{
			name:  "categories are counted once each",
			query: "SELECT COUNT(DISTINCT category) FROM lessons",
			call:  func(r ReportRepository) (int, error) { return r.CountCategories(ctx) },
		},
		{
			name:  "accounts",
			query: "SELECT COUNT(*) FROM accounts",
			call:  func(r ReportRepository) (int, error) { return r.CountAccounts(ctx) },
		},
		{
			name:  "reported lessons",
			query: "SELECT COUNT(*) FROM lessons WHERE is_reported",
			call:  func(r ReportRepository) (int, error) { return r.CountReported(ctx) },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo, mock := newMockReportRepository(t)

			expect := mock.ExpectQuery("^" + sqlFragment(tt.query) + "$")
			if len(tt.args) > 0 {
				expect = expect.WithArgs(tt.args...)
			}
			expect.WillReturnRows(countRow(7))

			n, err := tt.call(repo)
			require.NoError(t, err)
			assert.Equal(t, 7, n)
		})
	}
}

func TestReportRepository_CountCreatedSince(t *testing.T) {
	repo, mock := newMockReportRepository(t)
	since := time.Date(2024, 5, 9, 0, 0, 0, 0, time.UTC)

	mock.ExpectQuery("^" + sqlFragment("SELECT COUNT(*) FROM lessons WHERE created_at >= $1") + "$").
		WithArgs(since).
		WillReturnRows(countRow(3))

	n, err := repo.CountCreatedSince(context.Background(), since)
	require.NoError(t, err)
	assert.Equal(t, 3, n)
}

func TestReportRepository_OwnerQueriesUseOwnerIndex(t *testing.T) {
	ctx := context.Background()
	since := time.Date(2024, 5, 9, 0, 0, 0, 0, time.UTC)

	t.Run("lesson count", func(t *testing.T) {
		repo, mock := newMockReportRepository(t)
		mock.ExpectQuery(sqlFragment("FROM my_lessons WHERE creator_email = $1")).
			WithArgs("ada@example.com").
			WillReturnRows(countRow(4))

		n, err := repo.CountOwnerLessons(ctx, "ada@example.com")
		require.NoError(t, err)
		assert.Equal(t, 4, n)
	})

	t.Run("favorites are read from the public index", func(t *testing.T) {
		repo, mock := newMockReportRepository(t)
		mock.ExpectQuery(sqlFragment("FROM lessons WHERE $1 = ANY(favorited_by)")).
			WithArgs("ada@example.com").
			WillReturnRows(countRow(2))

		n, err := repo.CountFavoritedBy(ctx, "ada@example.com")
		require.NoError(t, err)
		assert.Equal(t, 2, n)
	})

	t.Run("creation times", func(t *testing.T) {
		repo, mock := newMockReportRepository(t)
		created := since.Add(26 * time.Hour)
		mock.ExpectQuery(sqlFragment("FROM my_lessons WHERE creator_email = $1 AND created_at >= $2")).
			WithArgs("ada@example.com", since).
			WillReturnRows(sqlmock.NewRows([]string{"created_at"}).AddRow(created))

		times, err := repo.OwnerCreationTimes(ctx, "ada@example.com", since)
		require.NoError(t, err)
		require.Len(t, times, 1)
		assert.True(t, created.Equal(times[0]))
	})
}

func TestReportRepository_CategoryBreakdown(t *testing.T) {
	repo, mock := newMockReportRepository(t)

	mock.ExpectQuery(sqlFragment("FROM lessons GROUP BY category ORDER BY count DESC, category ASC")).
		WillReturnRows(sqlmock.NewRows([]string{"category", "count"}).
			AddRow("Career", int64(3)).
			AddRow("Mindset", int64(1)))

	rows, err := repo.CategoryBreakdown(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []model.CategoryCount{{Category: "Career", Count: 3}, {Category: "Mindset", Count: 1}}, rows)
}
