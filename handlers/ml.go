package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/Coding-M1-AI/backend-flight-ai/models"
	"github.com/Coding-M1-AI/backend-flight-ai/services"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

type ModelService interface {
	Predict(ctx context.Context, features models.FlightFeatures) (models.PredictionResult, error)
	Fit(ctx context.Context, samples []models.TrainingSample, features []string) (services.FitResult, error)
	Status() services.ModelStatus
}

type TrainingSource interface {
	TrainingSamples(ctx context.Context) ([]models.TrainingSample, error)
}

type PredictionRecorder interface {
	RecordPrediction(ctx context.Context, rec *models.PredictionRecord) error
}

const recordTimeout = 5 * time.Second

type MLHandler struct {
	model    ModelService
	training TrainingSource
	recorder PredictionRecorder
	features []string
	log      zerolog.Logger
}

// NewMLHandler wires predict and fit. training and recorder may be nil; fit
// then only accepts inline data and predictions are not recorded.
func NewMLHandler(model ModelService, training TrainingSource, recorder PredictionRecorder, features []string, logger zerolog.Logger) *MLHandler {
	if len(features) == 0 {
		features = []string{models.FeatureMonth}
	}
	return &MLHandler{
		model:    model,
		training: training,
		recorder: recorder,
		features: features,
		log:      logger.With().Str("component", "ml_handler").Logger(),
	}
}

type PredictRequest struct {
	Month          int      `json:"month" binding:"required,min=1,max=12"`
	Day            *int     `json:"day" binding:"omitempty,min=1,max=31"`
	Airline        string   `json:"airline" binding:"omitempty,alphanum,max=3"`
	OriginAirport  string   `json:"origin_airport" binding:"omitempty,alphanum,max=5"`
	DestAirport    string   `json:"dest_airport" binding:"omitempty,alphanum,max=5"`
	DepartureDelay *float64 `json:"departure_delay"`
}

func (r PredictRequest) features() models.FlightFeatures {
	f := models.FlightFeatures{
		Month:         r.Month,
		Day:           models.DefaultDay,
		Airline:       strings.ToUpper(r.Airline),
		OriginAirport: strings.ToUpper(r.OriginAirport),
		DestAirport:   strings.ToUpper(r.DestAirport),
	}
	if r.Day != nil {
		f.Day = *r.Day
	}
	if r.DepartureDelay != nil {
		f.DepartureDelay = *r.DepartureDelay
	}
	return f
}

func (h *MLHandler) Predict(c *gin.Context) {
	var req PredictRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	result, err := h.model.Predict(c.Request.Context(), req.features())
	if err != nil {
		respondError(c, err)
		return
	}

	h.record(result)
	c.JSON(http.StatusOK, result)
}

// record stores the prediction in the background. Failures are logged only.
func (h *MLHandler) record(result models.PredictionResult) {
	if h.recorder == nil {
		return
	}
	features, err := json.Marshal(models.FlightFeatures{
		Month:          result.Month,
		Day:            result.Day,
		Airline:        result.Airline,
		OriginAirport:  result.OriginAirport,
		DestAirport:    result.DestAirport,
		DepartureDelay: result.DepartureDelay,
	})
	if err != nil {
		return
	}
	rec := &models.PredictionRecord{
		Month:           result.Month,
		Features:        string(features),
		PredictionValue: result.PredictedDelay,
		ModelVersion:    result.ModelVersion,
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), recordTimeout)
		defer cancel()
		if err := h.recorder.RecordPrediction(ctx, rec); err != nil {
			h.log.Warn().Err(err).Msg("record prediction failed")
		}
	}()
}

type FitRequest struct {
	Months []int     `json:"months" binding:"omitempty,dive,min=1,max=12"`
	Delays []float64 `json:"delays"`
}

type FitResponse struct {
	Message      string  `json:"message"`
	SamplesCount int     `json:"samples_count"`
	ModelPath    string  `json:"model_path"`
	ModelVersion string  `json:"model_version"`
	RSquared     float64 `json:"r_squared"`
}

// Fit retrains from the request body, or from the stored flight history when
// the body carries no data.
func (h *MLHandler) Fit(c *gin.Context) {
	var req FitRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		respondBindError(c, err)
		return
	}
	if len(req.Months) != len(req.Delays) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "months and delays must have the same length"})
		return
	}

	ctx := c.Request.Context()
	var (
		samples  []models.TrainingSample
		features []string
		source   string
	)
	if len(req.Months) > 0 {
		samples = make([]models.TrainingSample, len(req.Months))
		for i, m := range req.Months {
			samples[i] = models.TrainingSample{
				Features: models.FlightFeatures{Month: m, Day: models.DefaultDay},
				Delay:    req.Delays[i],
			}
		}
		features = []string{models.FeatureMonth}
		source = "request"
	} else {
		if h.training != nil {
			var err error
			samples, err = h.training.TrainingSamples(ctx)
			if err != nil {
				respondError(c, err)
				return
			}
		}
		features = h.features
		source = "flight_data"
	}
	if len(samples) == 0 {
		respondError(c, services.ErrNoTrainingData)
		return
	}

	h.log.Info().Str("source", source).Int("samples", len(samples)).Strs("features", features).Msg("fit requested")

	result, err := h.model.Fit(ctx, samples, features)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, FitResponse{
		Message:      "model trained",
		SamplesCount: result.Samples,
		ModelPath:    result.Path,
		ModelVersion: result.Version,
		RSquared:     result.RSquared,
	})
}
