package model

import (
	"time"

	"github.com/google/uuid"
)

// CourseExamConfiguration binds a course to its proctoring provider.
// One row per course; a provider change retires the course's active
// exams and stamps out replacements bound to the new provider.
type CourseExamConfiguration struct {
	CourseID        string     `json:"course_id"`
	ProviderID      *uuid.UUID `json:"provider_id,omitempty"`
	EscalationEmail string     `json:"escalation_email,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

// UpsertCourseConfigRequest is the payload for creating or updating a
// course's exam configuration. A nil ProviderName clears the provider.
type UpsertCourseConfigRequest struct {
	ProviderName    *string `json:"provider_name" binding:"omitempty,min=2,max=100"`
	EscalationEmail string  `json:"escalation_email" binding:"omitempty,email"`
}
