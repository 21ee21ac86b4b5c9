package handlers

import (
	"github.com/Coding-M1-AI/backend-flight-ai/config"
	"github.com/Coding-M1-AI/backend-flight-ai/middleware"
	"github.com/Coding-M1-AI/backend-flight-ai/services"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

type RouterDeps struct {
	Config    *config.Config
	Logger    zerolog.Logger
	Model     ModelService
	Training  TrainingSource
	Recorder  PredictionRecorder
	Reference ReferenceService
	Database  DatabaseChecker
	Cache     CacheChecker
	Events    EventSubscriber
	// Auth is nil when AUTH_JWT_SECRET is unset.
	Auth middleware.TokenValidator
}

func NewRouter(deps RouterDeps) *gin.Engine {
	RegisterValidation()

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(deps.Logger))
	r.Use(middleware.Metrics())
	r.Use(middleware.SetupCORS(deps.Config.CORS))

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	ml := NewMLHandler(deps.Model, deps.Training, deps.Recorder, deps.Config.Model.Features, deps.Logger)
	data := NewDataHandler(deps.Reference)
	health := NewHealthHandler(deps.Model, deps.Database, deps.Cache)

	v1 := r.Group("/api/v1")
	{
		v1.GET("/health", health.Health)
		v1.POST("/predict", ml.Predict)
		v1.POST("/fit", middleware.RequireRole(deps.Auth, services.RoleAdmin), ml.Fit)

		v1.GET("/airlines", data.GetAirlines)
		v1.GET("/airports", data.GetAirports)
		v1.GET("/airports/destinations/:origin", data.GetDestinations)

		v1.GET("/ws/model", middleware.RequireRole(deps.Auth, ""), ModelEvents(deps.Events, deps.Logger))
	}

	return r
}
