package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/opencourse/proctor-backend/internal/middleware"
	"github.com/opencourse/proctor-backend/internal/response"
	"github.com/opencourse/proctor-backend/internal/service"
)

// AccessHandler decides whether a learner may see exam content right now.
type AccessHandler struct {
	accessService *service.AccessService
}

// NewAccessHandler creates a new AccessHandler.
func NewAccessHandler(accessService *service.AccessService) *AccessHandler {
	return &AccessHandler{accessService: accessService}
}

// CheckAccess godoc
// GET /api/v1/learner/exams/:exam_id/access
// Evaluates the content gate and, when access is granted, mints a
// short-lived content token scoped to the remaining attempt time.
func (h *AccessHandler) CheckAccess(c *gin.Context) {
	claims := middleware.GetClaims(c)
	examID, err := uuid.Parse(c.Param("exam_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	granted, exam, err := h.accessService.GrantAccess(c.Request.Context(), examID, claims.UserID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	if !granted {
		response.Success(c, http.StatusOK, gin.H{"granted": false})
		return
	}

	token, err := h.accessService.MintContentToken(c.Request.Context(), exam, claims.UserID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{
		"granted":       true,
		"content_token": token,
	})
}
