package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/opencourse/proctor-backend/internal/model"
	"github.com/rs/zerolog"
)

// ExamAdminStore is the persistence boundary for exam definitions.
// Upsert must keep the one-active-exam invariant per (course, content,
// exam type) triple inside a single transaction.
type ExamAdminStore interface {
	ExamStore
	ListByCourse(ctx context.Context, courseID string) ([]model.Exam, error)
	Upsert(ctx context.Context, exam *model.Exam) error
}

// ExamService handles exam definition sync from course content.
type ExamService struct {
	exams   ExamAdminStore
	configs ConfigStore
	clock   Clock
	log     zerolog.Logger
}

// NewExamService creates a new ExamService.
func NewExamService(exams ExamAdminStore, configs ConfigStore, clock Clock, log zerolog.Logger) *ExamService {
	return &ExamService{
		exams:   exams,
		configs: configs,
		clock:   clock,
		log:     log.With().Str("component", "exam_service").Logger(),
	}
}

// GetByID retrieves an exam definition.
func (s *ExamService) GetByID(ctx context.Context, id uuid.UUID) (*model.Exam, error) {
	exam, err := s.exams.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", ErrExamNotFound, id)
		}
		return nil, fmt.Errorf("load exam: %w", err)
	}
	return exam, nil
}

// ListByCourse returns all exam definitions under a course, active and
// retired, most recent first.
func (s *ExamService) ListByCourse(ctx context.Context, courseID string) ([]model.Exam, error) {
	exams, err := s.exams.ListByCourse(ctx, courseID)
	if err != nil {
		return nil, fmt.Errorf("list exams: %w", err)
	}
	if exams == nil {
		exams = []model.Exam{}
	}
	return exams, nil
}

// RegisterExam creates or supersedes the exam definition for one
// (course, content, exam type) triple. Any previously active definition
// for the triple is absorbed or retired so that exactly one active row
// remains. Proctored exams are bound to the course's configured
// provider at registration time.
func (s *ExamService) RegisterExam(ctx context.Context, req *model.RegisterExamRequest) (*model.Exam, error) {
	exam := &model.Exam{
		ID:            uuid.New(),
		ResourceID:    req.ResourceID,
		CourseID:      req.CourseID,
		ContentID:     req.ContentID,
		ExamName:      req.ExamName,
		ExamType:      req.ExamType,
		TimeLimitMins: req.TimeLimitMins,
		DueDate:       req.DueDate,
		HideAfterDue:  req.HideAfterDue,
		IsActive:      true,
	}

	if req.ExamType.IsProctored() {
		cfg, err := s.configs.GetByCourse(ctx, req.CourseID)
		if err != nil && !errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("load course configuration: %w", err)
		}
		if cfg != nil {
			exam.ProviderID = cfg.ProviderID
		}
	}

	if err := s.exams.Upsert(ctx, exam); err != nil {
		return nil, fmt.Errorf("upsert exam: %w", err)
	}

	s.log.Info().
		Str("exam_id", exam.ID.String()).
		Str("course_id", exam.CourseID).
		Str("content_id", exam.ContentID).
		Str("exam_type", string(exam.ExamType)).
		Msg("Exam registered")

	return exam, nil
}
