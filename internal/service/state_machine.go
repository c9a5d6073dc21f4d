package service

import (
	"fmt"
	"time"

	"github.com/opencourse/proctor-backend/internal/events"
	"github.com/opencourse/proctor-backend/internal/model"
)

// PendingEffect describes I/O the caller must dispatch after the
// transition has been persisted: a status email, a lifecycle event, or
// both. Keeping effects as return values keeps the transition itself
// pure and unit-testable without mocking any transport.
type PendingEffect struct {
	// SendEmail requests a status notification for the attempt.
	SendEmail bool
	// EventName is the lifecycle event to publish, empty for none.
	EventName string
}

// applyTransition validates a status transition and, when legal,
// mutates the attempt in place: status, start/end timestamps and the
// resolved time allowance. otherActive holds the user's active attempts
// on other exams, read under lock by the caller.
//
// The transition rule is deliberately permissive: any move is legal
// unless it would walk a completed attempt back into an incomplete
// state, double-start a running attempt, or start an attempt while the
// user already holds an active one elsewhere.
func applyTransition(
	attempt *model.ExamAttempt,
	exam *model.Exam,
	to model.AttemptStatus,
	otherActive []model.ExamAttempt,
	now time.Time,
) ([]PendingEffect, error) {
	if !to.IsValid() {
		return nil, fmt.Errorf("%w: unknown status %q", ErrIllegalTransition, to)
	}

	from := attempt.Status

	if from.IsCompleted() && to.IsIncomplete() {
		return nil, fmt.Errorf(
			"%w: attempt %s (exam %s, user %s) cannot move from completed status %q back to incomplete status %q",
			ErrIllegalTransition, attempt.ID, attempt.ExamID, attempt.UserID, from, to,
		)
	}

	if to == model.AttemptStatusStarted {
		if from == model.AttemptStatusStarted && attempt.StartTime != nil {
			return nil, fmt.Errorf(
				"%w: attempt %s (exam %s, user %s) is already started; restarting would reset its clock",
				ErrIllegalTransition, attempt.ID, attempt.ExamID, attempt.UserID,
			)
		}
		for i := range otherActive {
			other := &otherActive[i]
			if other.ID == attempt.ID {
				continue
			}
			return nil, fmt.Errorf(
				"%w: user %s already has an active attempt %s (exam %s, status %q); only one attempt may be active at a time",
				ErrIllegalTransition, attempt.UserID, other.ID, other.ExamID, other.Status,
			)
		}
	}

	// Legal. Apply the transition's side effects atomically with the
	// status change.
	switch to {
	case model.AttemptStatusStarted:
		start := now
		allowed := AllowedMinutes(exam, now)
		attempt.StartTime = &start
		attempt.AllowedTimeLimitMins = &allowed
	case model.AttemptStatusSubmitted:
		end := now
		attempt.EndTime = &end
	}
	attempt.Status = to

	return pendingEffects(exam, to), nil
}

// pendingEffects derives the post-commit dispatch requests for entering
// a status. Every transition publishes a lifecycle event; review-worthy
// statuses on a proctored, non-practice exam additionally notify the
// learner by email.
func pendingEffects(exam *model.Exam, to model.AttemptStatus) []PendingEffect {
	effect := PendingEffect{EventName: events.AttemptEventName(to)}

	switch to {
	case model.AttemptStatusSubmitted, model.AttemptStatusVerified, model.AttemptStatusRejected:
		if exam.ExamType.IsProctored() && !exam.ExamType.IsPractice() {
			effect.SendEmail = true
		}
	}

	return []PendingEffect{effect}
}
