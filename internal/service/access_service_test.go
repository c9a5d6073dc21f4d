package service

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/opencourse/proctor-backend/internal/config"
	"github.com/opencourse/proctor-backend/internal/model"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newAccessFixture(t *testing.T, now time.Time, exams *fakeExamStore, attempts *fakeAttemptStore) *AccessService {
	t.Helper()
	cfg := &config.Config{JWTSecret: "test-secret"}
	return NewAccessService(exams, attempts, cfg, NewFixedClock(now), zerolog.Nop())
}

func TestGrantAccess(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	future := now.Add(24 * time.Hour)
	past := now.Add(-24 * time.Hour)
	userID := uuid.New()

	t.Run("unknown exam", func(t *testing.T) {
		svc := newAccessFixture(t, now, newFakeExamStore(), newFakeAttemptStore())
		_, _, err := svc.GrantAccess(ctx, uuid.New(), userID)
		assert.ErrorIs(t, err, ErrExamNotFound)
	})

	t.Run("hide after due hides content from everyone", func(t *testing.T) {
		exam := timedExam(&past)
		exam.HideAfterDue = true
		started := now.Add(-5 * time.Minute)
		attempt := model.ExamAttempt{
			ID: uuid.New(), ExamID: exam.ID, UserID: userID,
			Status:               model.AttemptStatusStarted,
			StartTime:            &started,
			AllowedTimeLimitMins: ptrInt(30),
		}
		svc := newAccessFixture(t, now, newFakeExamStore(exam), newFakeAttemptStore(attempt))

		granted, _, err := svc.GrantAccess(ctx, exam.ID, userID)
		require.NoError(t, err)
		assert.False(t, granted, "a running attempt does not override hide_after_due")
	})

	t.Run("no attempt before due date denies", func(t *testing.T) {
		exam := timedExam(&future)
		svc := newAccessFixture(t, now, newFakeExamStore(exam), newFakeAttemptStore())

		granted, _, err := svc.GrantAccess(ctx, exam.ID, userID)
		require.NoError(t, err)
		assert.False(t, granted)
	})

	t.Run("no attempt after due date grants the closed form", func(t *testing.T) {
		exam := timedExam(&past)
		svc := newAccessFixture(t, now, newFakeExamStore(exam), newFakeAttemptStore())

		granted, _, err := svc.GrantAccess(ctx, exam.ID, userID)
		require.NoError(t, err)
		assert.True(t, granted)
	})

	t.Run("unstarted attempt denies", func(t *testing.T) {
		exam := timedExam(&future)
		attempt := model.ExamAttempt{
			ID: uuid.New(), ExamID: exam.ID, UserID: userID,
			Status: model.AttemptStatusReadyToStart,
		}
		svc := newAccessFixture(t, now, newFakeExamStore(exam), newFakeAttemptStore(attempt))

		granted, _, err := svc.GrantAccess(ctx, exam.ID, userID)
		require.NoError(t, err)
		assert.False(t, granted)
	})

	t.Run("running attempt with time left grants", func(t *testing.T) {
		exam := timedExam(&future)
		started := now.Add(-5 * time.Minute)
		attempt := model.ExamAttempt{
			ID: uuid.New(), ExamID: exam.ID, UserID: userID,
			Status:               model.AttemptStatusStarted,
			StartTime:            &started,
			AllowedTimeLimitMins: ptrInt(30),
		}
		svc := newAccessFixture(t, now, newFakeExamStore(exam), newFakeAttemptStore(attempt))

		granted, _, err := svc.GrantAccess(ctx, exam.ID, userID)
		require.NoError(t, err)
		assert.True(t, granted)
	})

	t.Run("attempt out of time stops granting", func(t *testing.T) {
		exam := timedExam(&future)
		started := now.Add(-30 * time.Minute)
		attempt := model.ExamAttempt{
			ID: uuid.New(), ExamID: exam.ID, UserID: userID,
			Status:               model.AttemptStatusStarted,
			StartTime:            &started,
			AllowedTimeLimitMins: ptrInt(30),
		}
		svc := newAccessFixture(t, now, newFakeExamStore(exam), newFakeAttemptStore(attempt))

		granted, _, err := svc.GrantAccess(ctx, exam.ID, userID)
		require.NoError(t, err)
		assert.False(t, granted, "access stops the instant remaining time reaches zero")
	})
}

func TestMintContentToken(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	userID := uuid.New()
	exam := timedExam(nil)

	started := now.Add(-10 * time.Minute)
	attempt := model.ExamAttempt{
		ID: uuid.New(), ExamID: exam.ID, UserID: userID,
		Status:               model.AttemptStatusStarted,
		StartTime:            &started,
		AllowedTimeLimitMins: ptrInt(30),
	}
	svc := newAccessFixture(t, now, newFakeExamStore(exam), newFakeAttemptStore(attempt))

	signed, err := svc.MintContentToken(ctx, &exam, userID)
	require.NoError(t, err)

	claims := &ContentClaims{}
	token, err := jwt.ParseWithClaims(signed, claims, func(*jwt.Token) (interface{}, error) {
		return []byte("test-secret"), nil
	}, jwt.WithTimeFunc(func() time.Time { return now }))
	require.NoError(t, err)
	require.True(t, token.Valid)

	assert.Equal(t, exam.ID, claims.ExamID)
	assert.Equal(t, exam.ContentID, claims.ContentID)
	assert.Equal(t, userID, claims.UserID)
	// TTL tracks the attempt's remaining 20 minutes.
	assert.Equal(t, now.Add(20*time.Minute), claims.ExpiresAt.Time)
}

func TestMintContentTokenReviewWindow(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	exam := timedExam(nil)

	// No attempt at all: the closed-form token gets the fixed window.
	svc := newAccessFixture(t, now, newFakeExamStore(exam), newFakeAttemptStore())

	signed, err := svc.MintContentToken(ctx, &exam, uuid.New())
	require.NoError(t, err)

	claims := &ContentClaims{}
	_, err = jwt.ParseWithClaims(signed, claims, func(*jwt.Token) (interface{}, error) {
		return []byte("test-secret"), nil
	}, jwt.WithTimeFunc(func() time.Time { return now }))
	require.NoError(t, err)
	assert.Equal(t, now.Add(time.Hour), claims.ExpiresAt.Time)
}
