package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/opencourse/proctor-backend/internal/model"
	"github.com/opencourse/proctor-backend/internal/service"
)

const attemptColumns = `id, exam_id, user_id, attempt_number, status, start_time, end_time, allowed_time_limit_mins, created_at, updated_at`

// AttemptRepository handles exam attempt data access. Mutations run
// through InTx, which opens one transaction and hands the caller a
// locked view; the active-attempt and double-start invariants rely on
// the FOR UPDATE reads serializing concurrent starts.
type AttemptRepository struct {
	pool *pgxpool.Pool
}

// NewAttemptRepository creates a new AttemptRepository.
func NewAttemptRepository(pool *pgxpool.Pool) *AttemptRepository {
	return &AttemptRepository{pool: pool}
}

// GetByID retrieves an attempt.
func (r *AttemptRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.ExamAttempt, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+attemptColumns+` FROM exam_attempts WHERE id = $1`, id)
	return scanAttempt(row)
}

// GetLatestByExamAndUser retrieves the most recently created attempt
// for the (exam, user) pair.
func (r *AttemptRepository) GetLatestByExamAndUser(ctx context.Context, examID, userID uuid.UUID) (*model.ExamAttempt, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+attemptColumns+`
		 FROM exam_attempts
		 WHERE exam_id = $1 AND user_id = $2
		 ORDER BY created_at DESC
		 LIMIT 1`, examID, userID)
	return scanAttempt(row)
}

// ListActiveByUser retrieves the user's attempts in an active status
// across all exams.
func (r *AttemptRepository) ListActiveByUser(ctx context.Context, userID uuid.UUID) ([]model.ExamAttempt, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+attemptColumns+`
		 FROM exam_attempts
		 WHERE user_id = $1 AND status = ANY($2)
		 ORDER BY created_at DESC`, userID, activeStatuses())
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanAttempts(rows)
}

// ListExpirable retrieves active attempts whose resolved time allowance
// has already elapsed.
func (r *AttemptRepository) ListExpirable(ctx context.Context) ([]model.ExamAttempt, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+attemptColumns+`
		 FROM exam_attempts
		 WHERE status = ANY($1)
		   AND start_time IS NOT NULL
		   AND allowed_time_limit_mins IS NOT NULL
		   AND start_time + allowed_time_limit_mins * INTERVAL '1 minute' <= NOW()`,
		activeStatuses())
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanAttempts(rows)
}

// ListByExam retrieves a page of attempts for one exam along with the
// total count, most recent first.
func (r *AttemptRepository) ListByExam(ctx context.Context, examID uuid.UUID, limit, offset int) ([]model.ExamAttempt, int, error) {
	var total int
	if err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM exam_attempts WHERE exam_id = $1`, examID,
	).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.pool.Query(ctx,
		`SELECT `+attemptColumns+`
		 FROM exam_attempts
		 WHERE exam_id = $1
		 ORDER BY created_at DESC
		 LIMIT $2 OFFSET $3`, examID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	attempts, err := scanAttempts(rows)
	if err != nil {
		return nil, 0, err
	}
	return attempts, total, nil
}

// InTx runs fn inside one transaction. Any error rolls the whole unit
// back; no partial attempt state is ever observable.
func (r *AttemptRepository) InTx(ctx context.Context, fn func(tx service.AttemptTx) error) error {
	return pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(&attemptTx{tx: tx})
	})
}

// attemptTx is the locked, transactional view handed to services.
type attemptTx struct {
	tx pgx.Tx
}

func (t *attemptTx) GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*model.ExamAttempt, error) {
	row := t.tx.QueryRow(ctx,
		`SELECT `+attemptColumns+` FROM exam_attempts WHERE id = $1 FOR UPDATE`, id)
	return scanAttempt(row)
}

func (t *attemptTx) ListActiveByUserForUpdate(ctx context.Context, userID uuid.UUID) ([]model.ExamAttempt, error) {
	rows, err := t.tx.Query(ctx,
		`SELECT `+attemptColumns+`
		 FROM exam_attempts
		 WHERE user_id = $1 AND status = ANY($2)
		 ORDER BY created_at DESC
		 FOR UPDATE`, userID, activeStatuses())
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanAttempts(rows)
}

func (t *attemptTx) CountByExamAndUser(ctx context.Context, examID, userID uuid.UUID) (int, error) {
	var count int
	err := t.tx.QueryRow(ctx,
		`SELECT COUNT(*) FROM exam_attempts WHERE exam_id = $1 AND user_id = $2`,
		examID, userID,
	).Scan(&count)
	return count, err
}

func (t *attemptTx) Create(ctx context.Context, a *model.ExamAttempt) error {
	return t.tx.QueryRow(ctx,
		`INSERT INTO exam_attempts (id, exam_id, user_id, attempt_number, status, start_time, end_time, allowed_time_limit_mins)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 RETURNING created_at, updated_at`,
		a.ID, a.ExamID, a.UserID, a.AttemptNumber, a.Status, a.StartTime, a.EndTime, a.AllowedTimeLimitMins,
	).Scan(&a.CreatedAt, &a.UpdatedAt)
}

func (t *attemptTx) Update(ctx context.Context, a *model.ExamAttempt) error {
	return t.tx.QueryRow(ctx,
		`UPDATE exam_attempts
		 SET status = $1, start_time = $2, end_time = $3, allowed_time_limit_mins = $4, updated_at = NOW()
		 WHERE id = $5
		 RETURNING updated_at`,
		a.Status, a.StartTime, a.EndTime, a.AllowedTimeLimitMins, a.ID,
	).Scan(&a.UpdatedAt)
}

func (t *attemptTx) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := t.tx.Exec(ctx, `DELETE FROM exam_attempts WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

// ────────────────────────────────────────────────────────────────────────────
// Scan helpers
// ────────────────────────────────────────────────────────────────────────────

func activeStatuses() []string {
	return []string{
		string(model.AttemptStatusStarted),
		string(model.AttemptStatusReadyToSubmit),
	}
}

func scanAttempt(row pgx.Row) (*model.ExamAttempt, error) {
	a := &model.ExamAttempt{}
	err := row.Scan(
		&a.ID, &a.ExamID, &a.UserID, &a.AttemptNumber, &a.Status,
		&a.StartTime, &a.EndTime, &a.AllowedTimeLimitMins, &a.CreatedAt, &a.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return a, nil
}

func scanAttempts(rows pgx.Rows) ([]model.ExamAttempt, error) {
	var attempts []model.ExamAttempt
	for rows.Next() {
		var a model.ExamAttempt
		if err := rows.Scan(
			&a.ID, &a.ExamID, &a.UserID, &a.AttemptNumber, &a.Status,
			&a.StartTime, &a.EndTime, &a.AllowedTimeLimitMins, &a.CreatedAt, &a.UpdatedAt,
		); err != nil {
			return nil, err
		}
		attempts = append(attempts, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate attempts: %w", err)
	}
	return attempts, nil
}
