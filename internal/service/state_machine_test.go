package service

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/opencourse/proctor-backend/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	completedStatuses = []model.AttemptStatus{
		model.AttemptStatusTimedOut, model.AttemptStatusSubmitted,
		model.AttemptStatusVerified, model.AttemptStatusRejected,
		model.AttemptStatusError, model.AttemptStatusSecondReviewRequired,
	}
	incompleteStatuses = []model.AttemptStatus{
		model.AttemptStatusCreated, model.AttemptStatusDownloadSoftwareClicked,
		model.AttemptStatusReadyToStart, model.AttemptStatusStarted,
		model.AttemptStatusReadyToSubmit,
	}
)

func newAttempt(status model.AttemptStatus) *model.ExamAttempt {
	return &model.ExamAttempt{
		ID:     uuid.New(),
		ExamID: uuid.New(),
		UserID: uuid.New(),
		Status: status,
	}
}

func TestApplyTransitionCompletedNeverWalksBack(t *testing.T) {
	exam := &model.Exam{ExamType: model.ExamTypeTimed, TimeLimitMins: 30}
	now := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)

	for _, from := range completedStatuses {
		for _, to := range incompleteStatuses {
			t.Run(string(from)+"_to_"+string(to), func(t *testing.T) {
				attempt := newAttempt(from)
				_, err := applyTransition(attempt, exam, to, nil, now)
				assert.ErrorIs(t, err, ErrIllegalTransition)
				assert.Equal(t, from, attempt.Status, "attempt must stay untouched on a refused transition")
			})
		}
	}
}

func TestApplyTransitionCompletedToCompleted(t *testing.T) {
	// Review flow: submitted may still move to verified, rejected or
	// second_review_required.
	exam := &model.Exam{ExamType: model.ExamTypeProctored, TimeLimitMins: 30}
	now := time.Now().UTC()

	for _, to := range []model.AttemptStatus{
		model.AttemptStatusVerified,
		model.AttemptStatusRejected,
		model.AttemptStatusSecondReviewRequired,
	} {
		attempt := newAttempt(model.AttemptStatusSubmitted)
		_, err := applyTransition(attempt, exam, to, nil, now)
		require.NoError(t, err)
		assert.Equal(t, to, attempt.Status)
	}
}

func TestApplyTransitionUnknownStatus(t *testing.T) {
	attempt := newAttempt(model.AttemptStatusCreated)
	_, err := applyTransition(attempt, &model.Exam{TimeLimitMins: 30}, "sideways", nil, time.Now())
	assert.ErrorIs(t, err, ErrIllegalTransition)
}

func TestApplyTransitionStartStampsClock(t *testing.T) {
	now := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	due := now.Add(10 * time.Minute)
	exam := &model.Exam{ExamType: model.ExamTypeTimed, TimeLimitMins: 30, DueDate: &due}

	attempt := newAttempt(model.AttemptStatusReadyToStart)
	_, err := applyTransition(attempt, exam, model.AttemptStatusStarted, nil, now)
	require.NoError(t, err)

	require.NotNil(t, attempt.StartTime)
	require.NotNil(t, attempt.AllowedTimeLimitMins)
	assert.Equal(t, now, *attempt.StartTime)
	assert.Equal(t, 10, *attempt.AllowedTimeLimitMins, "allowance clamps to the due date")
	assert.Equal(t, model.AttemptStatusStarted, attempt.Status)
}

func TestApplyTransitionDoubleStartRefused(t *testing.T) {
	now := time.Now().UTC()
	exam := &model.Exam{ExamType: model.ExamTypeTimed, TimeLimitMins: 30}

	attempt := newAttempt(model.AttemptStatusReadyToStart)
	_, err := applyTransition(attempt, exam, model.AttemptStatusStarted, nil, now)
	require.NoError(t, err)
	firstStart := *attempt.StartTime

	_, err = applyTransition(attempt, exam, model.AttemptStatusStarted, nil, now.Add(5*time.Minute))
	assert.ErrorIs(t, err, ErrIllegalTransition)
	assert.Equal(t, firstStart, *attempt.StartTime, "restart must not reset the clock")
}

func TestApplyTransitionOneActiveAttemptPerUser(t *testing.T) {
	now := time.Now().UTC()
	exam := &model.Exam{ExamType: model.ExamTypeTimed, TimeLimitMins: 30}

	attempt := newAttempt(model.AttemptStatusReadyToStart)
	other := *newAttempt(model.AttemptStatusStarted)
	other.UserID = attempt.UserID

	_, err := applyTransition(attempt, exam, model.AttemptStatusStarted, []model.ExamAttempt{other}, now)
	assert.ErrorIs(t, err, ErrIllegalTransition)

	// The attempt's own row showing up in the locked read is not a
	// conflict.
	self := *attempt
	_, err = applyTransition(attempt, exam, model.AttemptStatusStarted, []model.ExamAttempt{self}, now)
	assert.NoError(t, err)
}

func TestApplyTransitionSubmitStampsEndTime(t *testing.T) {
	now := time.Date(2026, 3, 10, 10, 30, 0, 0, time.UTC)
	exam := &model.Exam{ExamType: model.ExamTypeTimed, TimeLimitMins: 30}

	attempt := newAttempt(model.AttemptStatusReadyToSubmit)
	_, err := applyTransition(attempt, exam, model.AttemptStatusSubmitted, nil, now)
	require.NoError(t, err)
	require.NotNil(t, attempt.EndTime)
	assert.Equal(t, now, *attempt.EndTime)
}

func TestPendingEffectsEmailOnlyForPureProctored(t *testing.T) {
	tests := []struct {
		name      string
		examType  model.ExamType
		to        model.AttemptStatus
		wantEmail bool
	}{
		{"proctored submitted", model.ExamTypeProctored, model.AttemptStatusSubmitted, true},
		{"proctored verified", model.ExamTypeProctored, model.AttemptStatusVerified, true},
		{"proctored rejected", model.ExamTypeProctored, model.AttemptStatusRejected, true},
		{"proctored started", model.ExamTypeProctored, model.AttemptStatusStarted, false},
		{"timed submitted", model.ExamTypeTimed, model.AttemptStatusSubmitted, false},
		{"practice submitted", model.ExamTypePractice, model.AttemptStatusSubmitted, false},
		{"onboarding verified", model.ExamTypeOnboarding, model.AttemptStatusVerified, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			effects := pendingEffects(&model.Exam{ExamType: tt.examType}, tt.to)
			require.Len(t, effects, 1)
			assert.Equal(t, tt.wantEmail, effects[0].SendEmail)
			assert.NotEmpty(t, effects[0].EventName)
		})
	}
}
