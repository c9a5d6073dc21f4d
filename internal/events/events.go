package events

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/opencourse/proctor-backend/internal/model"
)

// Event name prefix for all attempt lifecycle events.
const attemptEventPrefix = "exam.attempt."

// AttemptEvent is the payload published for every attempt lifecycle
// change. ActorID is set only for submissions, where the acting user
// may differ from the learner.
type AttemptEvent struct {
	Name       string              `json:"name"`
	AttemptID  uuid.UUID           `json:"attempt_id"`
	UserID     uuid.UUID           `json:"user_id"`
	ActorID    *uuid.UUID          `json:"actor_id,omitempty"`
	CourseID   string              `json:"course_id"`
	ContentID  string              `json:"content_id"`
	ExamType   model.ExamType      `json:"exam_type"`
	Status     model.AttemptStatus `json:"status"`
	OccurredAt time.Time           `json:"occurred_at"`
}

// AttemptEventName maps a status to its lifecycle event name. The
// review statuses get their own event families; everything else is
// reported under the raw status name.
func AttemptEventName(status model.AttemptStatus) string {
	if status == model.AttemptStatusError {
		return attemptEventPrefix + "errored"
	}
	return attemptEventPrefix + string(status)
}

// ResetEventName is published when an attempt is deleted by support
// staff on a learner's behalf.
const ResetEventName = attemptEventPrefix + "reset"

// Publisher delivers lifecycle events. Fire-and-forget from the
// caller's perspective: errors are reported but must never be allowed
// to affect the transition that produced the event.
type Publisher interface {
	Publish(ctx context.Context, event AttemptEvent) error
}
