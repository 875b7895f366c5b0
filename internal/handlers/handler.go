package handlers

import (
	"errors"
	"net/http"

	"laundry_manager/internal/middleware"
	"laundry_manager/internal/services"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// requester builds the service identity from the authenticated context.
func requester(c *gin.Context) services.Requester {
	return services.Requester{
		UserID: middleware.GetUserID(c),
		Role:   middleware.GetRole(c),
	}
}

// respondError maps service errors to HTTP status codes.
func respondError(c *gin.Context, logger *zap.Logger, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, services.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, services.ErrForbidden):
		status = http.StatusForbidden
	case errors.Is(err, services.ErrConflict):
		status = http.StatusConflict
	case errors.Is(err, services.ErrValidation):
		status = http.StatusBadRequest
	case errors.Is(err, services.ErrInvalidCredentials):
		status = http.StatusUnauthorized
	}
	if status == http.StatusInternalServerError {
		logger.Error("request failed", zap.String("path", c.FullPath()), zap.Error(err))
		c.JSON(status, gin.H{"error": "Internal server error"})
		return
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

func badRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format", "details": err.Error()})
}
