package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/ferdaws-ahmed/WisdomVault-server-side/internal/model"
)

// Physical tables behind the two lesson indexes. Both share one schema.
const (
	PublicLessonTable = "lessons"
	OwnerLessonTable  = "my_lessons"
)

const lessonColumns = `id, title, short_description, description, category, emotional_tone, image, content,
	visibility, access_level, creator_name, creator_email, creator_uid, creator_photo,
	likes_count, favorites_count, likes, favorited_by, comments, is_reported, report_count,
	created_at, updated_at`

const lessonValues = `:id, :title, :short_description, :description, :category, :emotional_tone, :image, :content,
	:visibility, :access_level, :creator_name, :creator_email, :creator_uid, :creator_photo,
	:likes_count, :favorites_count, :likes, :favorited_by, :comments, :is_reported, :report_count,
	:created_at, :updated_at`

// lessonAssignments lists every column but id, so Put and Mutate rewrite the
// whole row and the two indexes can be made byte-identical.
const lessonAssignments = `title = :title, short_description = :short_description, description = :description,
	category = :category, emotional_tone = :emotional_tone, image = :image, content = :content,
	visibility = :visibility, access_level = :access_level,
	creator_name = :creator_name, creator_email = :creator_email, creator_uid = :creator_uid, creator_photo = :creator_photo,
	likes_count = :likes_count, favorites_count = :favorites_count, likes = :likes, favorited_by = :favorited_by,
	comments = :comments, is_reported = :is_reported, report_count = :report_count,
	created_at = :created_at, updated_at = :updated_at`

type lessonIndex struct {
	db    *sqlx.DB
	tx    *sqlx.Tx // set when the index is bound to a lessonTxRunner transaction
	table string
}

func (r *lessonIndex) ext() sqlx.ExtContext {
	if r.tx != nil {
		return r.tx
	}
	return r.db
}

// NewPublicLessonIndex returns the index queried by visibility, category and global listings.
func NewPublicLessonIndex(db *sqlx.DB) LessonIndex {
	return &lessonIndex{db: db, table: PublicLessonTable}
}

// NewOwnerLessonIndex returns the index queried by creator email.
func NewOwnerLessonIndex(db *sqlx.DB) LessonIndex {
	return &lessonIndex{db: db, table: OwnerLessonTable}
}

type lessonTxRunner struct {
	db *sqlx.DB
}

// NewLessonTxRunner returns a runner whose transactions span both lesson tables.
func NewLessonTxRunner(db *sqlx.DB) LessonTxRunner {
	return &lessonTxRunner{db: db}
}

func (r *lessonTxRunner) InTx(ctx context.Context, fn func(public, owner LessonIndex) error) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	public := &lessonIndex{tx: tx, table: PublicLessonTable}
	owner := &lessonIndex{tx: tx, table: OwnerLessonTable}
	if err := fn(public, owner); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

func (r *lessonIndex) Name() string { return r.table }

func (r *lessonIndex) Insert(ctx context.Context, l *model.Lesson) error {
	query := `INSERT INTO ` + r.table + ` (` + lessonColumns + `) VALUES (` + lessonValues + `)`
	if _, err := sqlx.NamedExecContext(ctx, r.ext(), query, l); err != nil {
		return fmt.Errorf("insert lesson into %s: %w", r.table, err)
	}
	return nil
}

func (r *lessonIndex) Get(ctx context.Context, id string) (*model.Lesson, error) {
	var l model.Lesson
	err := sqlx.GetContext(ctx, r.ext(), &l, `SELECT `+lessonColumns+` FROM `+r.table+` WHERE id = $1`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, model.ErrLessonNotFound
		}
		return nil, fmt.Errorf("get lesson from %s: %w", r.table, err)
	}
	return &l, nil
}

func (r *lessonIndex) Put(ctx context.Context, l *model.Lesson) error {
	query := `INSERT INTO ` + r.table + ` (` + lessonColumns + `) VALUES (` + lessonValues + `)
		ON CONFLICT (id) DO UPDATE SET ` + strings.ReplaceAll(lessonAssignments, "= :", "= EXCLUDED.")
	if _, err := sqlx.NamedExecContext(ctx, r.ext(), query, l); err != nil {
		return fmt.Errorf("put lesson into %s: %w", r.table, err)
	}
	return nil
}

// Mutate locks the row with SELECT ... FOR UPDATE so concurrent engagement
// toggles on the same lesson serialize instead of losing updates. Inside a
// LessonTxRunner transaction the lock is held until that transaction ends.
func (r *lessonIndex) Mutate(ctx context.Context, id string, fn MutateFunc) (*model.Lesson, bool, error) {
	if r.tx != nil {
		return r.mutate(ctx, r.tx, id, fn)
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, false, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	l, changed, err := r.mutate(ctx, tx, id, fn)
	if err != nil || !changed {
		return l, changed, err
	}
	if err := tx.Commit(); err != nil {
		return nil, false, fmt.Errorf("commit transaction: %w", err)
	}
	return l, true, nil
}

func (r *lessonIndex) mutate(ctx context.Context, tx *sqlx.Tx, id string, fn MutateFunc) (*model.Lesson, bool, error) {
	var l model.Lesson
	err := tx.GetContext(ctx, &l, `SELECT `+lessonColumns+` FROM `+r.table+` WHERE id = $1 FOR UPDATE`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, false, model.ErrLessonNotFound
		}
		return nil, false, fmt.Errorf("lock lesson in %s: %w", r.table, err)
	}

	changed, err := fn(&l)
	if err != nil {
		return nil, false, err
	}
	if !changed {
		return &l, false, nil
	}

	l.UpdatedAt = time.Now().UTC()
	if _, err := tx.NamedExecContext(ctx, `UPDATE `+r.table+` SET `+lessonAssignments+` WHERE id = :id`, &l); err != nil {
		return nil, false, fmt.Errorf("update lesson in %s: %w", r.table, err)
	}
	return &l, true, nil
}

func (r *lessonIndex) Delete(ctx context.Context, id string) (int64, error) {
	res, err := r.ext().ExecContext(ctx, `DELETE FROM `+r.table+` WHERE id = $1`, id)
	if err != nil {
		return 0, fmt.Errorf("delete lesson from %s: %w", r.table, err)
	}
	return res.RowsAffected()
}

func (r *lessonIndex) List(ctx context.Context, q model.LessonQuery) ([]model.Lesson, error) {
	where, args := buildLessonFilter(q)
	query := `SELECT ` + lessonColumns + ` FROM ` + r.table + where + ` ORDER BY ` + lessonOrder(q.Sort)
	if q.Limit > 0 {
		args = append(args, q.Limit, q.Offset)
		query += fmt.Sprintf(` LIMIT $%d OFFSET $%d`, len(args)-1, len(args))
	}

	lessons := []model.Lesson{}
	if err := sqlx.SelectContext(ctx, r.ext(), &lessons, query, args...); err != nil {
		return nil, fmt.Errorf("list lessons from %s: %w", r.table, err)
	}
	return lessons, nil
}

func (r *lessonIndex) Count(ctx context.Context, q model.LessonQuery) (int, error) {
	where, args := buildLessonFilter(q)
	var n int
	if err := sqlx.GetContext(ctx, r.ext(), &n, `SELECT COUNT(*) FROM `+r.table+where, args...); err != nil {
		return 0, fmt.Errorf("count lessons in %s: %w", r.table, err)
	}
	return n, nil
}

// buildLessonFilter turns the non-zero query fields into a WHERE clause.
func buildLessonFilter(q model.LessonQuery) (string, []interface{}) {
	var conds []string
	var args []interface{}
	add := func(cond string, arg interface{}) {
		args = append(args, arg)
		conds = append(conds, fmt.Sprintf(cond, len(args)))
	}

	if q.Visibility != "" {
		add("visibility = $%d", q.Visibility)
	}
	if q.AccessLevel != "" {
		add("access_level = $%d", q.AccessLevel)
	}
	if q.Category != "" {
		add("category = $%d", q.Category)
	}
	if q.EmotionalTone != "" {
		add("emotional_tone = $%d", q.EmotionalTone)
	}
	if q.Search != "" {
		add("title ILIKE $%d", "%"+escapeLike(q.Search)+"%")
	}
	if q.CreatorEmail != "" {
		add("creator_email = $%d", q.CreatorEmail)
	}
	if q.FavoritedBy != "" {
		add("$%d = ANY(favorited_by)", q.FavoritedBy)
	}
	if q.ReportedOnly {
		conds = append(conds, "is_reported")
	}

	if len(conds) == 0 {
		return "", args
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

func lessonOrder(sort string) string {
	switch sort {
	case model.SortOldest:
		return "created_at ASC, id ASC"
	case model.SortMostSaved:
		return "favorites_count DESC, created_at DESC, id DESC"
	case model.SortMostLiked:
		return "likes_count DESC, created_at DESC, id DESC"
	default:
		return "created_at DESC, id DESC"
	}
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}
