package model

import (
	"time"

	"github.com/google/uuid"
)

// ExamType classifies how an exam is delivered and monitored.
type ExamType string

const (
	ExamTypeProctored  ExamType = "proctored"
	ExamTypeTimed      ExamType = "timed"
	ExamTypePractice   ExamType = "practice"
	ExamTypeOnboarding ExamType = "onboarding"
)

// IsValid reports whether t is a known exam type.
func (t ExamType) IsValid() bool {
	switch t {
	case ExamTypeProctored, ExamTypeTimed, ExamTypePractice, ExamTypeOnboarding:
		return true
	}
	return false
}

// IsPractice reports whether t is exempt from past-due creation rules
// and from status-change notifications. Onboarding exams count as
// practice for these purposes.
func (t ExamType) IsPractice() bool {
	return t == ExamTypePractice || t == ExamTypeOnboarding
}

// IsProctored reports whether t runs under a proctoring provider.
func (t ExamType) IsProctored() bool {
	return t == ExamTypeProctored || t == ExamTypeOnboarding
}

// Exam represents one assessable unit of content for a course.
// At most one active exam may exist per (course_id, content_id,
// exam_type) triple; superseded definitions stay around as inactive rows.
type Exam struct {
	ID            uuid.UUID  `json:"id"`
	ResourceID    string     `json:"resource_id"`
	CourseID      string     `json:"course_id"`
	ContentID     string     `json:"content_id"`
	ExamName      string     `json:"exam_name"`
	ExamType      ExamType   `json:"exam_type"`
	TimeLimitMins int        `json:"time_limit_mins"`
	DueDate       *time.Time `json:"due_date,omitempty"`
	HideAfterDue  bool       `json:"hide_after_due"`
	IsActive      bool       `json:"is_active"`
	ProviderID    *uuid.UUID `json:"provider_id,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

// RegisterExamRequest is the payload for registering (or superseding)
// an exam definition for a piece of course content.
type RegisterExamRequest struct {
	ResourceID    string     `json:"resource_id" binding:"required,max=255"`
	CourseID      string     `json:"course_id" binding:"required,max=255"`
	ContentID     string     `json:"content_id" binding:"required,max=255"`
	ExamName      string     `json:"exam_name" binding:"required,min=1,max=255"`
	ExamType      ExamType   `json:"exam_type" binding:"required,oneof=proctored timed practice onboarding"`
	TimeLimitMins int        `json:"time_limit_mins" binding:"required,min=1,max=480"`
	DueDate       *time.Time `json:"due_date" binding:"omitempty"`
	HideAfterDue  bool       `json:"hide_after_due"`
}
