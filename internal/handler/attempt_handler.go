package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/opencourse/proctor-backend/internal/middleware"
	"github.com/opencourse/proctor-backend/internal/model"
	"github.com/opencourse/proctor-backend/internal/response"
	"github.com/opencourse/proctor-backend/internal/service"
	"github.com/opencourse/proctor-backend/internal/validator"
)

// learnerSettable lists the statuses a learner may move their own
// attempt into. Review verdicts and expiry are staff/system territory.
var learnerSettable = map[model.AttemptStatus]bool{
	model.AttemptStatusDownloadSoftwareClicked: true,
	model.AttemptStatusReadyToStart:            true,
	model.AttemptStatusStarted:                 true,
	model.AttemptStatusReadyToSubmit:           true,
	model.AttemptStatusSubmitted:               true,
	model.AttemptStatusError:                   true,
}

// AttemptHandler handles exam attempt endpoints for learners and staff.
type AttemptHandler struct {
	attemptService *service.AttemptService
}

// NewAttemptHandler creates a new AttemptHandler.
func NewAttemptHandler(attemptService *service.AttemptService) *AttemptHandler {
	return &AttemptHandler{attemptService: attemptService}
}

// Create godoc
// POST /api/v1/learner/exams/:exam_id/attempt
// Starts the attempt lifecycle for the authenticated learner.
func (h *AttemptHandler) Create(c *gin.Context) {
	claims := middleware.GetClaims(c)
	examID, err := uuid.Parse(c.Param("exam_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	attemptID, err := h.attemptService.CreateExamAttempt(c.Request.Context(), examID, claims.UserID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	response.Success(c, http.StatusCreated, gin.H{"attempt_id": attemptID})
}

// GetCurrent godoc
// GET /api/v1/learner/exams/:exam_id/attempt
// Returns the learner's latest attempt on the exam, or null data.
func (h *AttemptHandler) GetCurrent(c *gin.Context) {
	claims := middleware.GetClaims(c)
	examID, err := uuid.Parse(c.Param("exam_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	attempt, err := h.attemptService.GetCurrentExamAttempt(c.Request.Context(), claims.UserID, examID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"attempt": attempt})
}

// GetActive godoc
// GET /api/v1/learner/attempts/active
// Returns the attempt the learner is currently sitting, if any.
func (h *AttemptHandler) GetActive(c *gin.Context) {
	claims := middleware.GetClaims(c)

	attempt, err := h.attemptService.GetActiveAttemptForUser(c.Request.Context(), claims.UserID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"attempt": attempt})
}

// UpdateStatus godoc
// PUT /api/v1/learner/attempts/:attempt_id/status
// Advances the learner's own attempt through the lifecycle.
func (h *AttemptHandler) UpdateStatus(c *gin.Context) {
	claims := middleware.GetClaims(c)
	attemptID, err := uuid.Parse(c.Param("attempt_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	var req model.UpdateAttemptStatusRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}
	if !req.Status.IsValid() {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidStatus)
		return
	}
	if !learnerSettable[req.Status] {
		response.Fail(c, http.StatusForbidden, response.ErrForbidden)
		return
	}

	// Ownership check: learners only touch their own attempts.
	attempt, err := h.attemptService.GetAttempt(c.Request.Context(), attemptID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	if attempt.UserID != claims.UserID {
		response.Fail(c, http.StatusForbidden, response.ErrForbidden)
		return
	}

	id, err := h.attemptService.UpdateAttemptStatus(c.Request.Context(), attemptID, req.Status, claims.UserID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"attempt_id": id, "status": req.Status})
}

// StaffUpdateStatus godoc
// PUT /api/v1/staff/attempts/:attempt_id/status
// Staff may move an attempt into any valid status, including review
// verdicts.
func (h *AttemptHandler) StaffUpdateStatus(c *gin.Context) {
	claims := middleware.GetClaims(c)
	attemptID, err := uuid.Parse(c.Param("attempt_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	var req model.UpdateAttemptStatusRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}
	if !req.Status.IsValid() {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidStatus)
		return
	}

	id, err := h.attemptService.UpdateAttemptStatus(c.Request.Context(), attemptID, req.Status, claims.UserID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"attempt_id": id, "status": req.Status})
}

// Reset godoc
// DELETE /api/v1/staff/attempts/:attempt_id
// Removes an attempt so the learner can start over.
func (h *AttemptHandler) Reset(c *gin.Context) {
	claims := middleware.GetClaims(c)
	attemptID, err := uuid.Parse(c.Param("attempt_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	if err := h.attemptService.ResetExamAttempt(c.Request.Context(), attemptID, claims.UserID); err != nil {
		respondServiceError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"attempt_id": attemptID, "status": "reset"})
}

// ListByExam godoc
// GET /api/v1/staff/exams/:exam_id/attempts?page=&per_page=
// Paginated attempt listing for the proctoring dashboard.
func (h *AttemptHandler) ListByExam(c *gin.Context) {
	examID, err := uuid.Parse(c.Param("exam_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	perPage, _ := strconv.Atoi(c.DefaultQuery("per_page", "25"))

	attempts, pagination, err := h.attemptService.ListByExam(c.Request.Context(), examID, page, perPage)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	response.SuccessWithPagination(c, http.StatusOK, gin.H{"attempts": attempts}, pagination)
}
