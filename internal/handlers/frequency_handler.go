package handlers

import (
	"net/http"

	"laundry_manager/internal/models"
	"laundry_manager/internal/services"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type FrequencyHandler struct {
	frequencies services.FrequencyService
	logger      *zap.Logger
}

func NewFrequencyHandler(frequencies services.FrequencyService, logger *zap.Logger) *FrequencyHandler {
	return &FrequencyHandler{frequencies: frequencies, logger: logger}
}

func (h *FrequencyHandler) Create(c *gin.Context) {
	var input services.FrequencyInput
	if err := c.ShouldBindJSON(&input); err != nil {
		badRequest(c, err)
		return
	}
	template, err := h.frequencies.Create(c.Request.Context(), requester(c), input)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"frequency_template": template})
}

func (h *FrequencyHandler) List(c *gin.Context) {
	templates, err := h.frequencies.List(c.Request.Context())
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	if templates == nil {
		templates = []models.FrequencyTemplate{}
	}
	c.JSON(http.StatusOK, gin.H{"count": len(templates), "frequency_templates": templates})
}

func (h *FrequencyHandler) Get(c *gin.Context) {
	template, err := h.frequencies.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"frequency_template": template})
}

func (h *FrequencyHandler) Update(c *gin.Context) {
	var input services.FrequencyInput
	if err := c.ShouldBindJSON(&input); err != nil {
		badRequest(c, err)
		return
	}
	template, err := h.frequencies.Update(c.Request.Context(), requester(c), c.Param("id"), input)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"frequency_template": template})
}

func (h *FrequencyHandler) Delete(c *gin.Context) {
	if err := h.frequencies.Delete(c.Request.Context(), requester(c), c.Param("id")); err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Frequency template deleted"})
}
