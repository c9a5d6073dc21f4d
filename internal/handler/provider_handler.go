package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/opencourse/proctor-backend/internal/model"
	"github.com/opencourse/proctor-backend/internal/response"
	"github.com/opencourse/proctor-backend/internal/service"
	"github.com/opencourse/proctor-backend/internal/validator"
)

// ProviderHandler manages the proctoring provider registry.
type ProviderHandler struct {
	providerService *service.ProviderService
}

// NewProviderHandler creates a new ProviderHandler.
func NewProviderHandler(providerService *service.ProviderService) *ProviderHandler {
	return &ProviderHandler{providerService: providerService}
}

// List godoc
// GET /api/v1/staff/providers
func (h *ProviderHandler) List(c *gin.Context) {
	providers, err := h.providerService.List(c.Request.Context())
	if err != nil {
		respondServiceError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"providers": providers})
}

// Create godoc
// POST /api/v1/staff/providers
func (h *ProviderHandler) Create(c *gin.Context) {
	var req model.CreateProviderRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	provider, err := h.providerService.Create(c.Request.Context(), &req)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	response.Success(c, http.StatusCreated, gin.H{"provider": provider})
}
