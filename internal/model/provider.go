package model

import (
	"time"

	"github.com/google/uuid"
)

// ProctoringProvider is a named external proctoring vendor
// configuration. Immutable outside admin CRUD.
type ProctoringProvider struct {
	ID           uuid.UUID `json:"id"`
	Name         string    `json:"name"`
	DisplayName  string    `json:"display_name"`
	LTIConfigID  string    `json:"lti_config_id"`
	SupportEmail string    `json:"support_email"`
	CreatedAt    time.Time `json:"created_at"`
}

// CreateProviderRequest is the payload for registering a proctoring
// provider.
type CreateProviderRequest struct {
	Name         string `json:"name" binding:"required,min=2,max=100"`
	DisplayName  string `json:"display_name" binding:"required,min=2,max=255"`
	LTIConfigID  string `json:"lti_config_id" binding:"omitempty,max=255"`
	SupportEmail string `json:"support_email" binding:"omitempty,email"`
}
