package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/Coding-M1-AI/backend-flight-ai/services"

	"github.com/gin-gonic/gin"
)

const importHint = "run `flightctl import` to load reference data"

// respondError maps service errors to HTTP statuses. Internal details are
// only exposed for client-caused failures.
func respondError(c *gin.Context, err error) {
	_ = c.Error(err)

	switch {
	case errors.Is(err, services.ErrModelNotLoaded):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "model not loaded"})
	case errors.Is(err, services.ErrActorStopped):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "model service unavailable"})
	case errors.Is(err, services.ErrNoTrainingData):
		c.JSON(http.StatusBadRequest, gin.H{"error": "no training data"})
	case errors.Is(err, services.ErrDegenerateTrainingData):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
	case errors.Is(err, services.ErrReferenceDataMissing):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error(), "hint": importHint})
	case errors.Is(err, context.DeadlineExceeded):
		c.JSON(http.StatusGatewayTimeout, gin.H{"error": "request timed out"})
	case errors.Is(err, context.Canceled):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "request cancelled"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}
}

func respondBindError(c *gin.Context, err error) {
	_ = c.Error(err)
	if fields := fieldErrors(err); fields != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "validation failed", "fields": fields})
		return
	}
	c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
}
