package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/opencourse/proctor-backend/internal/config"
	"github.com/opencourse/proctor-backend/internal/model"
	"github.com/rs/zerolog"
)

// AccessService decides whether a user may receive a time-boxed
// content-access credential for an exam right now, and mints the
// credential when the decision is positive.
type AccessService struct {
	exams    ExamStore
	attempts AttemptStore
	cfg      *config.Config
	clock    Clock
	log      zerolog.Logger
}

// NewAccessService creates a new AccessService.
func NewAccessService(exams ExamStore, attempts AttemptStore, cfg *config.Config, clock Clock, log zerolog.Logger) *AccessService {
	return &AccessService{
		exams:    exams,
		attempts: attempts,
		cfg:      cfg,
		clock:    clock,
		log:      log.With().Str("component", "access_service").Logger(),
	}
}

// ContentClaims is the JWT payload of a content-access credential.
type ContentClaims struct {
	jwt.RegisteredClaims
	ExamID    uuid.UUID `json:"exam_id"`
	ContentID string    `json:"content_id"`
	UserID    uuid.UUID `json:"user_id"`
}

// GrantAccess applies the access rules for viewing exam content:
//
//   - a past-due exam with hide_after_due hides its content from
//     everyone, attempt or not;
//   - without any attempt, content is visible only once the exam is
//     past due (closed/review form);
//   - an attempt that was never started does not grant access — the
//     learner must start through the normal flow;
//   - a started attempt grants access while its clock still has time,
//     and stops granting the instant remaining time reaches zero.
func (s *AccessService) GrantAccess(ctx context.Context, examID, userID uuid.UUID) (bool, *model.Exam, error) {
	exam, err := s.exams.GetByID(ctx, examID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, nil, fmt.Errorf("%w: %s", ErrExamNotFound, examID)
		}
		return false, nil, fmt.Errorf("load exam: %w", err)
	}

	now := s.clock.Now()
	pastDue := IsPastDue(exam, now)

	if pastDue && exam.HideAfterDue {
		return false, exam, nil
	}

	attempt, err := s.attempts.GetLatestByExamAndUser(ctx, examID, userID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			// No attempt: the exam is only visible in its closed form.
			return pastDue, exam, nil
		}
		return false, nil, fmt.Errorf("load attempt: %w", err)
	}

	if attempt.StartTime == nil {
		return false, exam, nil
	}

	return RemainingSeconds(attempt, now) > 0, exam, nil
}

// MintContentToken issues the content-access credential for a granted
// decision. The token expires when the attempt's remaining time does,
// or after a fixed review window when access was granted without a
// running attempt.
func (s *AccessService) MintContentToken(ctx context.Context, exam *model.Exam, userID uuid.UUID) (string, error) {
	now := s.clock.Now()

	ttl := time.Hour // Review-form default.
	if attempt, err := s.attempts.GetLatestByExamAndUser(ctx, exam.ID, userID); err == nil {
		if remaining := RemainingSeconds(attempt, now); remaining > 0 {
			ttl = time.Duration(remaining) * time.Second
		}
	}

	claims := ContentClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.New().String(),
			Subject:   userID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		ExamID:    exam.ID,
		ContentID: exam.ContentID,
		UserID:    userID,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(s.cfg.JWTSecret))
	if err != nil {
		return "", fmt.Errorf("sign content token: %w", err)
	}

	s.log.Debug().
		Str("exam_id", exam.ID.String()).
		Str("user_id", userID.String()).
		Dur("ttl", ttl).
		Msg("Content token minted")

	return signed, nil
}
