package service

import (
	"context"

	"github.com/google/uuid"
	"github.com/opencourse/proctor-backend/internal/model"
)

// The stores below are the persistence boundary of the attempt engine.
// The pgx-backed implementations live in internal/repository; tests
// substitute in-memory fakes. Absent rows are reported as
// pgx.ErrNoRows so the services can translate them into domain errors
// in one place.

// ExamStore reads and writes exam definitions.
type ExamStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*model.Exam, error)
}

// AttemptStore reads attempts outside a transaction and opens
// transactional scopes for mutations. Every mutation of attempt state
// goes through InTx so the legality check and the write are one atomic
// unit under row locks.
type AttemptStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*model.ExamAttempt, error)
	// GetLatestByExamAndUser returns the most recently created attempt
	// for the pair.
	GetLatestByExamAndUser(ctx context.Context, examID, userID uuid.UUID) (*model.ExamAttempt, error)
	// ListActiveByUser returns the user's attempts in an active status
	// (started, ready_to_submit) across all exams.
	ListActiveByUser(ctx context.Context, userID uuid.UUID) ([]model.ExamAttempt, error)
	// ListExpirable returns started/ready_to_submit attempts whose
	// resolved time allowance has elapsed as of now.
	ListExpirable(ctx context.Context) ([]model.ExamAttempt, error)
	ListByExam(ctx context.Context, examID uuid.UUID, limit, offset int) ([]model.ExamAttempt, int, error)
	InTx(ctx context.Context, fn func(tx AttemptTx) error) error
}

// AttemptTx is the locked view of attempt state inside one transaction.
type AttemptTx interface {
	GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*model.ExamAttempt, error)
	// ListActiveByUserForUpdate locks and returns the user's active
	// attempts, serializing concurrent starts for the same user.
	ListActiveByUserForUpdate(ctx context.Context, userID uuid.UUID) ([]model.ExamAttempt, error)
	CountByExamAndUser(ctx context.Context, examID, userID uuid.UUID) (int, error)
	Create(ctx context.Context, attempt *model.ExamAttempt) error
	Update(ctx context.Context, attempt *model.ExamAttempt) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// ProviderStore reads and writes proctoring providers.
type ProviderStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*model.ProctoringProvider, error)
	GetByName(ctx context.Context, name string) (*model.ProctoringProvider, error)
	List(ctx context.Context) ([]model.ProctoringProvider, error)
	Create(ctx context.Context, p *model.ProctoringProvider) error
}

// ConfigStore reads and writes course exam configurations.
// ReassignProvider must execute the fork-and-retire sequence — retire
// the course's active exams, duplicate them under the new provider,
// stamp the configuration — in a single transaction.
type ConfigStore interface {
	GetByCourse(ctx context.Context, courseID string) (*model.CourseExamConfiguration, error)
	Create(ctx context.Context, cfg *model.CourseExamConfiguration) error
	UpdateEscalationEmail(ctx context.Context, courseID, email string) error
	ReassignProvider(ctx context.Context, courseID string, providerID *uuid.UUID, escalationEmail string) error
}
