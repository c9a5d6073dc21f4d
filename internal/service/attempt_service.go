package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/opencourse/proctor-backend/internal/events"
	"github.com/opencourse/proctor-backend/internal/model"
	"github.com/opencourse/proctor-backend/internal/notification"
	"github.com/opencourse/proctor-backend/internal/response"
	"github.com/rs/zerolog"
)

// AttemptService owns the exam attempt lifecycle: creation, status
// transitions through the state machine, resets and timeout detection.
// All mutations run inside one repository transaction with locked
// reads; notification and event dispatch happen after the write and
// never roll it back.
type AttemptService struct {
	attempts  AttemptStore
	exams     ExamStore
	notifier  notification.Notifier
	publisher events.Publisher
	clock     Clock
	log       zerolog.Logger
}

// NewAttemptService creates a new AttemptService.
func NewAttemptService(
	attempts AttemptStore,
	exams ExamStore,
	notifier notification.Notifier,
	publisher events.Publisher,
	clock Clock,
	log zerolog.Logger,
) *AttemptService {
	return &AttemptService{
		attempts:  attempts,
		exams:     exams,
		notifier:  notifier,
		publisher: publisher,
		clock:     clock,
		log:       log.With().Str("component", "attempt_service").Logger(),
	}
}

// CreateExamAttempt creates a fresh attempt in status created for the
// (exam, user) pair. Creation is not idempotent: an existing attempt
// for the pair is a failure, never silently reused. Non-practice exams
// refuse new attempts once past due.
func (s *AttemptService) CreateExamAttempt(ctx context.Context, examID, userID uuid.UUID) (uuid.UUID, error) {
	exam, err := s.getExam(ctx, examID)
	if err != nil {
		return uuid.Nil, err
	}

	now := s.clock.Now()
	if !exam.ExamType.IsPractice() && IsPastDue(exam, now) {
		return uuid.Nil, fmt.Errorf("%w: exam %q (due %s) no longer accepts attempts",
			ErrPastDueExam, exam.ExamName, exam.DueDate.Format("2006-01-02 15:04:05 MST"))
	}

	attempt := &model.ExamAttempt{
		ID:     uuid.New(),
		ExamID: examID,
		UserID: userID,
		Status: model.AttemptStatusCreated,
	}

	err = s.attempts.InTx(ctx, func(tx AttemptTx) error {
		prior, err := tx.CountByExamAndUser(ctx, examID, userID)
		if err != nil {
			return fmt.Errorf("count attempts: %w", err)
		}
		if prior > 0 {
			return fmt.Errorf("%w: exam %s, user %s", ErrAttemptAlreadyExists, examID, userID)
		}

		attempt.AttemptNumber = prior + 1
		return tx.Create(ctx, attempt)
	})
	if err != nil {
		return uuid.Nil, err
	}

	s.publishEvent(ctx, attempt, exam, events.AttemptEventName(model.AttemptStatusCreated), nil)

	s.log.Info().
		Str("attempt_id", attempt.ID.String()).
		Str("exam_id", examID.String()).
		Str("user_id", userID.String()).
		Int("attempt_number", attempt.AttemptNumber).
		Msg("Attempt created")

	return attempt.ID, nil
}

// UpdateAttemptStatus drives the attempt through the state machine.
// actorID identifies the requesting user; it is carried on the
// submitted lifecycle event only. The state transition is the durable
// fact of record: effect dispatch failures are logged and swallowed.
func (s *AttemptService) UpdateAttemptStatus(ctx context.Context, attemptID uuid.UUID, to model.AttemptStatus, actorID uuid.UUID) (uuid.UUID, error) {
	var (
		attempt *model.ExamAttempt
		exam    *model.Exam
		effects []PendingEffect
	)

	err := s.attempts.InTx(ctx, func(tx AttemptTx) error {
		var err error
		attempt, err = tx.GetByIDForUpdate(ctx, attemptID)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return fmt.Errorf("%w: %s", ErrAttemptNotFound, attemptID)
			}
			return fmt.Errorf("load attempt: %w", err)
		}

		exam, err = s.getExam(ctx, attempt.ExamID)
		if err != nil {
			return err
		}

		// The concurrent-start guard needs the user's other active
		// attempts, read under lock so two starts serialize.
		var otherActive []model.ExamAttempt
		if to == model.AttemptStatusStarted {
			otherActive, err = tx.ListActiveByUserForUpdate(ctx, attempt.UserID)
			if err != nil {
				return fmt.Errorf("list active attempts: %w", err)
			}
		}

		effects, err = applyTransition(attempt, exam, to, otherActive, s.clock.Now())
		if err != nil {
			return err
		}

		return tx.Update(ctx, attempt)
	})
	if err != nil {
		return uuid.Nil, err
	}

	s.dispatchEffects(ctx, attempt, exam, effects, actorID)

	s.log.Info().
		Str("attempt_id", attempt.ID.String()).
		Str("status", string(attempt.Status)).
		Msg("Attempt status updated")

	return attempt.ID, nil
}

// ResetExamAttempt deletes the attempt unconditionally — a reset is an
// administrative override, no transition legality applies — and emits a
// reset lifecycle event naming both the learner and the acting user.
func (s *AttemptService) ResetExamAttempt(ctx context.Context, attemptID, requestingUserID uuid.UUID) error {
	attempt, err := s.attempts.GetByID(ctx, attemptID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return fmt.Errorf("%w: %s", ErrAttemptNotFound, attemptID)
		}
		return fmt.Errorf("load attempt: %w", err)
	}

	exam, err := s.getExam(ctx, attempt.ExamID)
	if err != nil {
		return err
	}

	err = s.attempts.InTx(ctx, func(tx AttemptTx) error {
		return tx.Delete(ctx, attemptID)
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return fmt.Errorf("%w: %s", ErrAttemptNotFound, attemptID)
		}
		return fmt.Errorf("delete attempt: %w", err)
	}

	s.publishEvent(ctx, attempt, exam, events.ResetEventName, &requestingUserID)

	s.log.Info().
		Str("attempt_id", attemptID.String()).
		Str("user_id", attempt.UserID.String()).
		Str("requested_by", requestingUserID.String()).
		Msg("Attempt reset")

	return nil
}

// GetActiveAttemptForUser returns the user's single active attempt
// across all exams, or nil when there is none. More than one active
// attempt is a data-integrity anomaly the start guards are designed to
// prevent; it is logged and one attempt is returned rather than failing
// the read.
func (s *AttemptService) GetActiveAttemptForUser(ctx context.Context, userID uuid.UUID) (*model.ExamAttempt, error) {
	active, err := s.attempts.ListActiveByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list active attempts: %w", err)
	}

	if len(active) == 0 {
		return nil, nil
	}
	if len(active) > 1 {
		s.log.Error().
			Str("user_id", userID.String()).
			Int("count", len(active)).
			Msg("Multiple active attempts found for one user")
	}
	return &active[0], nil
}

// GetAttempt loads a single attempt by ID.
func (s *AttemptService) GetAttempt(ctx context.Context, attemptID uuid.UUID) (*model.ExamAttempt, error) {
	attempt, err := s.attempts.GetByID(ctx, attemptID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", ErrAttemptNotFound, attemptID)
		}
		return nil, fmt.Errorf("load attempt: %w", err)
	}
	return attempt, nil
}

// GetCurrentExamAttempt returns the most recently created attempt for
// the (user, exam) pair, or nil when there is none.
func (s *AttemptService) GetCurrentExamAttempt(ctx context.Context, userID, examID uuid.UUID) (*model.ExamAttempt, error) {
	attempt, err := s.attempts.GetLatestByExamAndUser(ctx, examID, userID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("load attempt: %w", err)
	}
	return attempt, nil
}

// CheckIfExamTimedOut reports whether the attempt's clock has run out.
// It only detects: the caller transitions the attempt to timed_out.
// Attempts that never started, have no resolved allowance or are not in
// an active status are never reported as timed out.
func (s *AttemptService) CheckIfExamTimedOut(attempt *model.ExamAttempt) (*model.ExamAttempt, bool) {
	if attempt.StartTime == nil || attempt.AllowedTimeLimitMins == nil {
		return attempt, false
	}
	if !attempt.Status.IsActive() {
		return attempt, false
	}
	if RemainingSeconds(attempt, s.clock.Now()) > 0 {
		return attempt, false
	}
	return attempt, true
}

// ListByExam returns a page of attempts for one exam, most recent
// first, for the staff review surface.
func (s *AttemptService) ListByExam(ctx context.Context, examID uuid.UUID, page, perPage int) ([]model.ExamAttempt, *response.Pagination, error) {
	if page < 1 {
		page = 1
	}
	if perPage < 1 {
		perPage = 10
	}
	if perPage > 100 {
		perPage = 100
	}

	attempts, total, err := s.attempts.ListByExam(ctx, examID, perPage, (page-1)*perPage)
	if err != nil {
		return nil, nil, fmt.Errorf("list attempts: %w", err)
	}
	if attempts == nil {
		attempts = []model.ExamAttempt{}
	}

	pagination := &response.Pagination{
		Page:       page,
		PerPage:    perPage,
		TotalItems: total,
		TotalPages: (total + perPage - 1) / perPage,
	}
	return attempts, pagination, nil
}

// ────────────────────────────────────────────────────────────────────────────
// Internal helpers
// ────────────────────────────────────────────────────────────────────────────

func (s *AttemptService) getExam(ctx context.Context, examID uuid.UUID) (*model.Exam, error) {
	exam, err := s.exams.GetByID(ctx, examID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", ErrExamNotFound, examID)
		}
		return nil, fmt.Errorf("load exam: %w", err)
	}
	return exam, nil
}

// dispatchEffects runs the state machine's pending effects after the
// transition has committed. Failures here are logged and swallowed:
// the persisted transition must not be rolled back or re-raised over a
// notification channel problem.
func (s *AttemptService) dispatchEffects(ctx context.Context, attempt *model.ExamAttempt, exam *model.Exam, effects []PendingEffect, actorID uuid.UUID) {
	for _, effect := range effects {
		if effect.SendEmail {
			if err := s.notifier.SendStatusEmail(ctx, attempt, exam); err != nil {
				s.log.Error().Err(err).
					Str("attempt_id", attempt.ID.String()).
					Str("status", string(attempt.Status)).
					Msg("Status email dispatch failed")
			}
		}
		if effect.EventName != "" {
			var actor *uuid.UUID
			if attempt.Status == model.AttemptStatusSubmitted {
				actor = &actorID
			}
			s.publishEvent(ctx, attempt, exam, effect.EventName, actor)
		}
	}
}

func (s *AttemptService) publishEvent(ctx context.Context, attempt *model.ExamAttempt, exam *model.Exam, name string, actorID *uuid.UUID) {
	event := events.AttemptEvent{
		Name:       name,
		AttemptID:  attempt.ID,
		UserID:     attempt.UserID,
		ActorID:    actorID,
		CourseID:   exam.CourseID,
		ContentID:  exam.ContentID,
		ExamType:   exam.ExamType,
		Status:     attempt.Status,
		OccurredAt: s.clock.Now(),
	}
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.log.Error().Err(err).
			Str("event", name).
			Str("attempt_id", attempt.ID.String()).
			Msg("Event publish failed")
	}
}
