package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/opencourse/proctor-backend/internal/model"
	"github.com/opencourse/proctor-backend/internal/response"
	"github.com/opencourse/proctor-backend/internal/service"
	"github.com/opencourse/proctor-backend/internal/validator"
)

// CourseConfigHandler manages per-course proctoring configuration.
type CourseConfigHandler struct {
	configService *service.CourseConfigService
}

// NewCourseConfigHandler creates a new CourseConfigHandler.
func NewCourseConfigHandler(configService *service.CourseConfigService) *CourseConfigHandler {
	return &CourseConfigHandler{configService: configService}
}

// Get godoc
// GET /api/v1/staff/courses/:course_id/configuration
func (h *CourseConfigHandler) Get(c *gin.Context) {
	courseID := c.Param("course_id")
	if courseID == "" {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	cfg, err := h.configService.GetByCourse(c.Request.Context(), courseID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"configuration": cfg})
}

// Upsert godoc
// PUT /api/v1/staff/courses/:course_id/configuration
// Changing the provider reassigns every active exam in the course to
// the new provider in one transaction.
func (h *CourseConfigHandler) Upsert(c *gin.Context) {
	courseID := c.Param("course_id")
	if courseID == "" {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	var req model.UpsertCourseConfigRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	if err := h.configService.CreateOrUpdate(c.Request.Context(), courseID, req.ProviderName, req.EscalationEmail); err != nil {
		respondServiceError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"course_id": courseID, "status": "configured"})
}
