package handlers

import (
	"context"
	"net/http"
	"strings"

	"github.com/Coding-M1-AI/backend-flight-ai/models"

	"github.com/gin-gonic/gin"
)

type ReferenceService interface {
	Airlines(ctx context.Context) ([]models.Airline, error)
	Airports(ctx context.Context) ([]models.Airport, error)
	Destinations(ctx context.Context, origin string) ([]models.Airport, error)
}

type DataHandler struct {
	reference ReferenceService
}

func NewDataHandler(reference ReferenceService) *DataHandler {
	return &DataHandler{reference: reference}
}

func (h *DataHandler) GetAirlines(c *gin.Context) {
	airlines, err := h.reference.Airlines(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, airlines)
}

func (h *DataHandler) GetAirports(c *gin.Context) {
	airports, err := h.reference.Airports(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, airports)
}

func (h *DataHandler) GetDestinations(c *gin.Context) {
	origin := strings.TrimSpace(c.Param("origin"))
	if origin == "" || len(origin) > 5 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid origin airport code"})
		return
	}

	airports, err := h.reference.Destinations(c.Request.Context(), origin)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, airports)
}
