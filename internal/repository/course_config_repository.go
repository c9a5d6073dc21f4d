package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/opencourse/proctor-backend/internal/model"
)

// CourseConfigRepository handles course exam configuration data access,
// including the fork-and-retire transaction run when a course's
// proctoring provider changes.
type CourseConfigRepository struct {
	pool *pgxpool.Pool
}

// NewCourseConfigRepository creates a new CourseConfigRepository.
func NewCourseConfigRepository(pool *pgxpool.Pool) *CourseConfigRepository {
	return &CourseConfigRepository{pool: pool}
}

// GetByCourse retrieves a course's configuration.
func (r *CourseConfigRepository) GetByCourse(ctx context.Context, courseID string) (*model.CourseExamConfiguration, error) {
	cfg := &model.CourseExamConfiguration{}
	err := r.pool.QueryRow(ctx,
		`SELECT course_id, provider_id, escalation_email, created_at, updated_at
		 FROM course_exam_configurations
		 WHERE course_id = $1`, courseID,
	).Scan(&cfg.CourseID, &cfg.ProviderID, &cfg.EscalationEmail, &cfg.CreatedAt, &cfg.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return cfg, nil
}

// Create inserts a new course configuration.
func (r *CourseConfigRepository) Create(ctx context.Context, cfg *model.CourseExamConfiguration) error {
	return r.pool.QueryRow(ctx,
		`INSERT INTO course_exam_configurations (course_id, provider_id, escalation_email)
		 VALUES ($1, $2, $3)
		 RETURNING created_at, updated_at`,
		cfg.CourseID, cfg.ProviderID, cfg.EscalationEmail,
	).Scan(&cfg.CreatedAt, &cfg.UpdatedAt)
}

// UpdateEscalationEmail updates the configuration's non-provider fields
// only. Used for same-provider updates, which must never fork exams.
func (r *CourseConfigRepository) UpdateEscalationEmail(ctx context.Context, courseID, email string) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE course_exam_configurations
		 SET escalation_email = $1, updated_at = NOW()
		 WHERE course_id = $2`, email, courseID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

// ReassignProvider executes the fork-and-retire sequence in one
// all-or-nothing transaction: the course's active exams are locked,
// retired, duplicated under the new provider, and the configuration row
// is stamped last. A failure at any step leaves no partial state.
func (r *CourseConfigRepository) ReassignProvider(ctx context.Context, courseID string, providerID *uuid.UUID, escalationEmail string) error {
	return pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		rows, err := tx.Query(ctx,
			`SELECT `+examColumns+`
			 FROM exams
			 WHERE course_id = $1 AND is_active
			 FOR UPDATE`, courseID)
		if err != nil {
			return fmt.Errorf("lock active exams: %w", err)
		}
		active, err := scanExams(rows)
		rows.Close()
		if err != nil {
			return fmt.Errorf("scan active exams: %w", err)
		}

		for i := range active {
			exam := &active[i]

			if _, err := tx.Exec(ctx,
				`UPDATE exams SET is_active = FALSE, updated_at = NOW() WHERE id = $1`,
				exam.ID); err != nil {
				return fmt.Errorf("retire exam %s: %w", exam.ID, err)
			}

			// Duplicate the definition under the new provider with a
			// fresh identity; everything else carries over.
			if _, err := tx.Exec(ctx,
				`INSERT INTO exams (id, resource_id, course_id, content_id, exam_name, exam_type, time_limit_mins, due_date, hide_after_due, is_active, provider_id)
				 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, TRUE, $10)`,
				uuid.New(), exam.ResourceID, exam.CourseID, exam.ContentID, exam.ExamName,
				exam.ExamType, exam.TimeLimitMins, exam.DueDate, exam.HideAfterDue, providerID,
			); err != nil {
				return fmt.Errorf("duplicate exam %s: %w", exam.ID, err)
			}
		}

		tag, err := tx.Exec(ctx,
			`UPDATE course_exam_configurations
			 SET provider_id = $1, escalation_email = $2, updated_at = NOW()
			 WHERE course_id = $3`, providerID, escalationEmail, courseID)
		if err != nil {
			return fmt.Errorf("update configuration: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return pgx.ErrNoRows
		}
		return nil
	})
}
