package services

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	predictionsServed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "flightdelay_predictions_served_total",
		Help: "Total number of predictions answered, by model source.",
	}, []string{"source"})
	predictionsFailed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "flightdelay_predictions_failed_total",
		Help: "Total number of prediction requests that could not be answered.",
	})
	fitsCompleted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "flightdelay_fits_completed_total",
		Help: "Total number of successful model fits.",
	})
	fitsFailed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "flightdelay_fits_failed_total",
		Help: "Total number of failed model fits.",
	})
	fitDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "flightdelay_fit_duration_seconds",
		Help:    "Duration of a model fit including persistence.",
		Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1.0, 5.0, 30.0},
	})
	modelReloads = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "flightdelay_model_reloads_total",
		Help: "Model artifact reload attempts, by outcome.",
	}, []string{"outcome"})
	modelReady = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "flightdelay_model_ready",
		Help: "1 when a trained model is resident in the actor.",
	})
)
