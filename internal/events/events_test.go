package events

import (
	"testing"

	"github.com/opencourse/proctor-backend/internal/model"
	"github.com/stretchr/testify/assert"
)

func TestAttemptEventName(t *testing.T) {
	assert.Equal(t, "exam.attempt.created", AttemptEventName(model.AttemptStatusCreated))
	assert.Equal(t, "exam.attempt.submitted", AttemptEventName(model.AttemptStatusSubmitted))
	assert.Equal(t, "exam.attempt.timed_out", AttemptEventName(model.AttemptStatusTimedOut))
	// The error status reports as a verb to keep event names past-tense.
	assert.Equal(t, "exam.attempt.errored", AttemptEventName(model.AttemptStatusError))
}
