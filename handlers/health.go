package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/Coding-M1-AI/backend-flight-ai/services"

	"github.com/gin-gonic/gin"
)

type ModelStatusProvider interface {
	Status() services.ModelStatus
}

type DatabaseChecker interface {
	Ping(ctx context.Context) error
	Counts(ctx context.Context) (services.ReferenceCounts, error)
}

type CacheChecker interface {
	Available() bool
	Ping(ctx context.Context) error
}

const healthCheckTimeout = 2 * time.Second

var apiEndpoints = []string{
	"POST /api/v1/predict",
	"POST /api/v1/fit",
	"GET /api/v1/health",
	"GET /api/v1/airlines",
	"GET /api/v1/airports",
	"GET /api/v1/airports/destinations/:origin",
	"GET /api/v1/ws/model",
	"GET /metrics",
}

type HealthHandler struct {
	model ModelStatusProvider
	db    DatabaseChecker
	cache CacheChecker
}

func NewHealthHandler(model ModelStatusProvider, db DatabaseChecker, cache CacheChecker) *HealthHandler {
	return &HealthHandler{model: model, db: db, cache: cache}
}

type DatabaseHealth struct {
	Status        string `json:"status"`
	AirlinesCount int64  `json:"airlines_count"`
	AirportsCount int64  `json:"airports_count"`
}

type CacheHealth struct {
	Status string `json:"status"`
}

type HealthResponse struct {
	Status       string         `json:"status"`
	ModelReady   bool           `json:"model_ready"`
	ModelVersion string         `json:"model_version,omitempty"`
	ActorStatus  string         `json:"actor_status"`
	Database     DatabaseHealth `json:"database"`
	Cache        CacheHealth    `json:"cache"`
	Endpoints    []string       `json:"endpoints"`
}

// Health always answers 200; dependency problems only mark it degraded.
func (h *HealthHandler) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), healthCheckTimeout)
	defer cancel()

	st := h.model.Status()
	resp := HealthResponse{
		Status:       "healthy",
		ModelReady:   st.Ready,
		ModelVersion: st.Version,
		ActorStatus:  "running",
		Database:     h.database(ctx),
		Cache:        h.cacheHealth(ctx),
		Endpoints:    apiEndpoints,
	}
	if !st.Running {
		resp.ActorStatus = "stopped"
	}
	if !st.Ready && st.Fallback && st.Running {
		resp.ModelVersion = services.BaselineVersion
	}
	if !st.Running || !st.Ready || resp.Database.Status != "up" {
		resp.Status = "degraded"
	}

	c.JSON(http.StatusOK, resp)
}

func (h *HealthHandler) database(ctx context.Context) DatabaseHealth {
	if h.db == nil {
		return DatabaseHealth{Status: "disabled"}
	}
	if err := h.db.Ping(ctx); err != nil {
		return DatabaseHealth{Status: "down"}
	}
	counts, err := h.db.Counts(ctx)
	if err != nil {
		return DatabaseHealth{Status: "down"}
	}
	return DatabaseHealth{
		Status:        "up",
		AirlinesCount: counts.Airlines,
		AirportsCount: counts.Airports,
	}
}

func (h *HealthHandler) cacheHealth(ctx context.Context) CacheHealth {
	if h.cache == nil || !h.cache.Available() {
		return CacheHealth{Status: "disabled"}
	}
	if err := h.cache.Ping(ctx); err != nil {
		return CacheHealth{Status: "down"}
	}
	return CacheHealth{Status: "up"}
}
