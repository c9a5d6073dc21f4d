package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/opencourse/proctor-backend/internal/model"
)

const examColumns = `id, resource_id, course_id, content_id, exam_name, exam_type, time_limit_mins, due_date, hide_after_due, is_active, provider_id, created_at, updated_at`

// ExamRepository handles exam definition data access.
type ExamRepository struct {
	pool *pgxpool.Pool
}

// NewExamRepository creates a new ExamRepository.
func NewExamRepository(pool *pgxpool.Pool) *ExamRepository {
	return &ExamRepository{pool: pool}
}

// GetByID retrieves an exam by its UUID.
func (r *ExamRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Exam, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+examColumns+` FROM exams WHERE id = $1`, id)
	return scanExam(row)
}

// ListByCourse retrieves all exams under a course, most recent first.
func (r *ExamRepository) ListByCourse(ctx context.Context, courseID string) ([]model.Exam, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+examColumns+`
		 FROM exams
		 WHERE course_id = $1
		 ORDER BY created_at DESC`, courseID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanExams(rows)
}

// Upsert registers an exam definition while keeping the one-active-exam
// invariant: inside one transaction, every previously active row for
// the same (course_id, content_id, exam_type) triple is retired before
// the new definition is inserted as the single active row.
func (r *ExamRepository) Upsert(ctx context.Context, exam *model.Exam) error {
	return pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		// Lock colliding actives first so concurrent syncs serialize.
		rows, err := tx.Query(ctx,
			`SELECT id FROM exams
			 WHERE course_id = $1 AND content_id = $2 AND exam_type = $3 AND is_active
			 FOR UPDATE`,
			exam.CourseID, exam.ContentID, exam.ExamType)
		if err != nil {
			return err
		}
		ids, err := pgx.CollectRows(rows, pgx.RowTo[uuid.UUID])
		if err != nil {
			return fmt.Errorf("collect colliding exams: %w", err)
		}

		if len(ids) > 0 {
			if _, err := tx.Exec(ctx,
				`UPDATE exams SET is_active = FALSE, updated_at = NOW() WHERE id = ANY($1)`,
				ids); err != nil {
				return fmt.Errorf("retire superseded exams: %w", err)
			}
		}

		return tx.QueryRow(ctx,
			`INSERT INTO exams (id, resource_id, course_id, content_id, exam_name, exam_type, time_limit_mins, due_date, hide_after_due, is_active, provider_id)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, TRUE, $10)
			 RETURNING created_at, updated_at`,
			exam.ID, exam.ResourceID, exam.CourseID, exam.ContentID, exam.ExamName,
			exam.ExamType, exam.TimeLimitMins, exam.DueDate, exam.HideAfterDue, exam.ProviderID,
		).Scan(&exam.CreatedAt, &exam.UpdatedAt)
	})
}

// ────────────────────────────────────────────────────────────────────────────
// Scan helpers
// ────────────────────────────────────────────────────────────────────────────

func scanExam(row pgx.Row) (*model.Exam, error) {
	e := &model.Exam{}
	err := row.Scan(
		&e.ID, &e.ResourceID, &e.CourseID, &e.ContentID, &e.ExamName, &e.ExamType,
		&e.TimeLimitMins, &e.DueDate, &e.HideAfterDue, &e.IsActive, &e.ProviderID,
		&e.CreatedAt, &e.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return e, nil
}

func scanExams(rows pgx.Rows) ([]model.Exam, error) {
	var exams []model.Exam
	for rows.Next() {
		var e model.Exam
		if err := rows.Scan(
			&e.ID, &e.ResourceID, &e.CourseID, &e.ContentID, &e.ExamName, &e.ExamType,
			&e.TimeLimitMins, &e.DueDate, &e.HideAfterDue, &e.IsActive, &e.ProviderID,
			&e.CreatedAt, &e.UpdatedAt,
		); err != nil {
			return nil, err
		}
		exams = append(exams, e)
	}
	return exams, rows.Err()
}
