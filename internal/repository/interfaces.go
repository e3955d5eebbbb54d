package repository

import (
	"context"
	"time"

	"github.com/ferdaws-ahmed/WisdomVault-server-side/internal/model"
)

type AccountRepository interface {
	// Create inserts the account unless its uid already exists.
	// Returns created=false (and no error) when the uid was already present.
	Create(ctx context.Context, account *model.Account) (created bool, err error)
	GetByUID(ctx context.Context, uid string) (*model.Account, error)
	GetByEmail(ctx context.Context, email string) (*model.Account, error)
	UpdateProfile(ctx context.Context, uid, name, photoURL string) (int64, error)
	Patch(ctx context.Context, email string, patch model.AccountPatch) (int64, error)
	Delete(ctx context.Context, email string) (int64, error)
	List(ctx context.Context) ([]model.Account, error)
}

// MutateFunc edits a locked lesson row in place and reports whether it changed.
type MutateFunc func(lesson *model.Lesson) (changed bool, err error)

// LessonIndex is one physical copy of the lesson set. The public and owner
// indexes both implement it; only service.LessonStore may write through it.
type LessonIndex interface {
	// Name identifies the index in logs and divergence events.
	Name() string
	Insert(ctx context.Context, lesson *model.Lesson) error
	Get(ctx context.Context, id string) (*model.Lesson, error)
	// Put overwrites every column of the row with the given id, inserting it if absent.
	Put(ctx context.Context, lesson *model.Lesson) error
	// Mutate runs fn against the row under a row lock and persists the result
	// if fn reports a change. Returns the row as stored afterwards.
	Mutate(ctx context.Context, id string, fn MutateFunc) (*model.Lesson, bool, error)
	Delete(ctx context.Context, id string) (int64, error)
	List(ctx context.Context, q model.LessonQuery) ([]model.Lesson, error)
	Count(ctx context.Context, q model.LessonQuery) (int, error)
}

// LessonTxRunner runs fn with both lesson indexes bound to one transaction.
// Every write made through them is rolled back when fn returns an error.
type LessonTxRunner interface {
	InTx(ctx context.Context, fn func(public, owner LessonIndex) error) error
}

type LessonReportRepository interface {
	Create(ctx context.Context, report *model.LessonReport) error
	ListByLesson(ctx context.Context, lessonID string) ([]model.LessonReport, error)
	DeleteByLesson(ctx context.Context, lessonID string) error
}

// ReportRepository runs the read-only aggregation queries.
type ReportRepository interface {
	ContributorTotals(ctx context.Context) ([]model.ContributorTotals, error)

	CountOwnerLessons(ctx context.Context, email string) (int, error)
	CountFavoritedBy(ctx context.Context, email string) (int, error)
	RecentOwnerLessons(ctx context.Context, email string, limit int) ([]model.RecentLesson, error)
	OwnerCreationTimes(ctx context.Context, email string, since time.Time) ([]time.Time, error)

	CountPublicLessons(ctx context.Context) (int, error)
	CountAccounts(ctx context.Context) (int, error)
	SumFavorites(ctx context.Context) (int, error)
	CountCategories(ctx context.Context) (int, error)

	CountLessons(ctx context.Context) (int, error)
	CountReported(ctx context.Context) (int, error)
	CountCreatedSince(ctx context.Context, since time.Time) (int, error)
	CategoryBreakdown(ctx context.Context) ([]model.CategoryCount, error)
}

type PostRepository interface {
	Create(ctx context.Context, post *model.Post) error
	GetByID(ctx context.Context, id string) (*model.Post, error)
	List(ctx context.Context, authorEmail string, limit, offset int) ([]model.Post, error)
	Delete(ctx context.Context, id, authorEmail string) error
}
