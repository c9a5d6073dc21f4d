package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/opencourse/proctor-backend/internal/response"
	"github.com/opencourse/proctor-backend/internal/service"
)

// respondServiceError maps domain errors to API error codes. Business
// failures carry their full message — it names the offending attempt,
// exam and user — while unexpected errors collapse to a generic 500.
func respondServiceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrExamNotFound),
		errors.Is(err, service.ErrAttemptNotFound):
		response.FailWithMessage(c, http.StatusNotFound, response.ErrNotFound, err.Error())
	case errors.Is(err, service.ErrIllegalTransition):
		response.FailWithMessage(c, http.StatusConflict, response.ErrIllegalTransition, err.Error())
	case errors.Is(err, service.ErrAttemptAlreadyExists):
		response.FailWithMessage(c, http.StatusConflict, response.ErrAttemptExists, err.Error())
	case errors.Is(err, service.ErrPastDueExam):
		response.FailWithMessage(c, http.StatusBadRequest, response.ErrPastDueExam, err.Error())
	case errors.Is(err, service.ErrInvalidProvider):
		response.FailWithMessage(c, http.StatusBadRequest, response.ErrInvalidProvider, err.Error())
	case errors.Is(err, service.ErrProviderExists):
		response.FailWithMessage(c, http.StatusConflict, response.ErrConflict, err.Error())
	default:
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
	}
}
