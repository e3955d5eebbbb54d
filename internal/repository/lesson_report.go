package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/ferdaws-ahmed/WisdomVault-server-side/internal/model"
)

type lessonReportRepository struct {
	db *sqlx.DB
}

func NewLessonReportRepository(db *sqlx.DB) LessonReportRepository {
	return &lessonReportRepository{db: db}
}

func (r *lessonReportRepository) Create(ctx context.Context, report *model.LessonReport) error {
	_, err := r.db.NamedExecContext(ctx, `
		INSERT INTO lesson_reports (id, lesson_id, reporter_email, reason, created_at)
		VALUES (:id, :lesson_id, :reporter_email, :reason, :created_at)
	`, report)
	if err != nil {
		return fmt.Errorf("insert lesson report: %w", err)
	}
	return nil
}

func (r *lessonReportRepository) ListByLesson(ctx context.Context, lessonID string) ([]model.LessonReport, error) {
	reports := []model.LessonReport{}
	err := r.db.SelectContext(ctx, &reports, `
		SELECT id, lesson_id, reporter_email, reason, created_at
		FROM lesson_reports
		WHERE lesson_id = $1
		ORDER BY created_at DESC
	`, lessonID)
	if err != nil {
		return nil, fmt.Errorf("list lesson reports: %w", err)
	}
	return reports, nil
}

func (r *lessonReportRepository) DeleteByLesson(ctx context.Context, lessonID string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM lesson_reports WHERE lesson_id = $1`, lessonID); err != nil {
		return fmt.Errorf("delete lesson reports: %w", err)
	}
	return nil
}
