package model

import (
	"time"

	"github.com/google/uuid"
)

// AttemptStatus enumerates the states of an exam attempt lifecycle.
type AttemptStatus string

const (
	AttemptStatusCreated                 AttemptStatus = "created"
	AttemptStatusDownloadSoftwareClicked AttemptStatus = "download_software_clicked"
	AttemptStatusReadyToStart            AttemptStatus = "ready_to_start"
	AttemptStatusStarted                 AttemptStatus = "started"
	AttemptStatusReadyToSubmit           AttemptStatus = "ready_to_submit"
	AttemptStatusTimedOut                AttemptStatus = "timed_out"
	AttemptStatusSubmitted               AttemptStatus = "submitted"
	AttemptStatusVerified                AttemptStatus = "verified"
	AttemptStatusSecondReviewRequired    AttemptStatus = "second_review_required"
	AttemptStatusRejected                AttemptStatus = "rejected"
	AttemptStatusExpired                 AttemptStatus = "expired"
	AttemptStatusError                   AttemptStatus = "error"
)

// IsValid reports whether s is a known attempt status.
func (s AttemptStatus) IsValid() bool {
	switch s {
	case AttemptStatusCreated, AttemptStatusDownloadSoftwareClicked,
		AttemptStatusReadyToStart, AttemptStatusStarted, AttemptStatusReadyToSubmit,
		AttemptStatusTimedOut, AttemptStatusSubmitted, AttemptStatusVerified,
		AttemptStatusSecondReviewRequired, AttemptStatusRejected,
		AttemptStatusExpired, AttemptStatusError:
		return true
	}
	return false
}

// IsIncomplete reports whether the attempt can still make forward
// progress through the normal taking flow.
func (s AttemptStatus) IsIncomplete() bool {
	switch s {
	case AttemptStatusCreated, AttemptStatusDownloadSoftwareClicked,
		AttemptStatusReadyToStart, AttemptStatusStarted, AttemptStatusReadyToSubmit:
		return true
	}
	return false
}

// IsCompleted reports whether the attempt has reached a terminal state
// for forward-progress purposes. Completed attempts can never be walked
// back into an incomplete state.
func (s AttemptStatus) IsCompleted() bool {
	switch s {
	case AttemptStatusTimedOut, AttemptStatusSubmitted, AttemptStatusVerified,
		AttemptStatusRejected, AttemptStatusError, AttemptStatusSecondReviewRequired:
		return true
	}
	return false
}

// IsActive reports whether the attempt occupies the user's single
// active-attempt slot. A user may hold at most one active attempt across
// all exams at any time.
func (s AttemptStatus) IsActive() bool {
	return s == AttemptStatusStarted || s == AttemptStatusReadyToSubmit
}

// ExamAttempt is one learner's attempt at one exam.
type ExamAttempt struct {
	ID                   uuid.UUID     `json:"id"`
	ExamID               uuid.UUID     `json:"exam_id"`
	UserID               uuid.UUID     `json:"user_id"`
	AttemptNumber        int           `json:"attempt_number"`
	Status               AttemptStatus `json:"status"`
	StartTime            *time.Time    `json:"start_time,omitempty"`
	EndTime              *time.Time    `json:"end_time,omitempty"`
	AllowedTimeLimitMins *int          `json:"allowed_time_limit_mins,omitempty"`
	CreatedAt            time.Time     `json:"created_at"`
	UpdatedAt            time.Time     `json:"updated_at"`
}

// UpdateAttemptStatusRequest is the payload for driving an attempt
// through the state machine.
type UpdateAttemptStatusRequest struct {
	Status AttemptStatus `json:"status" binding:"required"`
}
