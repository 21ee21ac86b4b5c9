package services

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Coding-M1-AI/backend-flight-ai/models"

	"github.com/rs/zerolog"
)

var (
	ErrModelNotLoaded = errors.New("model not loaded")
	ErrActorStopped   = errors.New("model actor stopped")
)

const ModelEventsChannel = "flightdelay:model"

type EventPublisher interface {
	Publish(ctx context.Context, channel string, message interface{}) error
}

type ModelEvent struct {
	Type     string    `json:"type"`
	Source   string    `json:"source"`
	Version  string    `json:"version"`
	Samples  int       `json:"samples"`
	RSquared float64   `json:"r_squared"`
	At       time.Time `json:"at"`
}

type ModelStatus struct {
	Running   bool      `json:"running"`
	Ready     bool      `json:"ready"`
	Fallback  bool      `json:"fallback"`
	Version   string    `json:"version,omitempty"`
	Features  []string  `json:"features,omitempty"`
	Samples   int       `json:"samples,omitempty"`
	TrainedAt time.Time `json:"trained_at,omitempty"`
}

type FitResult struct {
	Version  string
	Samples  int
	RSquared float64
	Path     string
}

type ModelActorOptions struct {
	Path        string
	BaseVersion string
	Seed        uint64
	MaxSamples  int
	Fallback    bool
	Publisher   EventPublisher
	Logger      zerolog.Logger
}

// ModelActor owns the resident regressor. Every operation is a message run on
// the actor goroutine, so predictions and fits never interleave and a fit only
// becomes visible once it has been trained and persisted.
type ModelActor struct {
	opts  ModelActorOptions
	log   zerolog.Logger
	inbox chan func()
	quit  chan struct{}
	done  chan struct{}
	once  sync.Once

	// model is only touched from the actor goroutine.
	model *Regressor

	status atomic.Pointer[ModelStatus]
}

func NewModelActor(opts ModelActorOptions) *ModelActor {
	if opts.BaseVersion == "" {
		opts.BaseVersion = "v1.0"
	}
	a := &ModelActor{
		opts:  opts,
		log:   opts.Logger.With().Str("component", "model_actor").Logger(),
		inbox: make(chan func()),
		quit:  make(chan struct{}),
		done:  make(chan struct{}),
	}
	a.publishStatus()
	go a.run()
	return a
}

func (a *ModelActor) run() {
	defer close(a.done)
	for {
		select {
		case fn := <-a.inbox:
			fn()
		case <-a.quit:
			return
		}
	}
}

// Stop terminates the actor after the message in flight, if any.
func (a *ModelActor) Stop() {
	a.once.Do(func() { close(a.quit) })
	<-a.done
	a.publishStatus()
}

// call runs fn on the actor goroutine and waits for it. A cancelled ctx only
// abandons the wait; a message already accepted still runs to completion.
func (a *ModelActor) call(ctx context.Context, fn func()) error {
	finished := make(chan struct{})
	msg := func() {
		defer close(finished)
		fn()
	}

	select {
	case a.inbox <- msg:
	case <-a.quit:
		return ErrActorStopped
	case <-ctx.Done():
		return ctx.Err()
	}

	select {
	case <-finished:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (a *ModelActor) Predict(ctx context.Context, features models.FlightFeatures) (models.PredictionResult, error) {
	if features.Day == 0 {
		features.Day = models.DefaultDay
	}

	result := models.PredictionResult{
		Month:          features.Month,
		Day:            features.Day,
		Airline:        features.Airline,
		OriginAirport:  features.OriginAirport,
		DestAirport:    features.DestAirport,
		DepartureDelay: features.DepartureDelay,
	}

	var predictErr error
	err := a.call(ctx, func() {
		switch {
		case a.model != nil:
			result.PredictedDelay = a.model.Predict(features)
			result.ModelVersion = a.model.Version
		case a.opts.Fallback:
			result.PredictedDelay = BaselinePredict(features)
			result.ModelVersion = BaselineVersion
		default:
			predictErr = ErrModelNotLoaded
		}
	})
	if err == nil {
		err = predictErr
	}
	if err != nil {
		predictionsFailed.Inc()
		return models.PredictionResult{}, err
	}

	source := "model"
	if result.ModelVersion == BaselineVersion {
		source = "baseline"
	}
	predictionsServed.WithLabelValues(source).Inc()
	return result, nil
}

// Fit trains a new model on samples and swaps it in once it is saved. On any
// failure the previously held model stays in place.
func (a *ModelActor) Fit(ctx context.Context, samples []models.TrainingSample, features []string) (FitResult, error) {
	start := time.Now()

	var (
		trained *Regressor
		fitErr  error
	)
	err := a.call(ctx, func() {
		model, err := TrainRegressor(samples, features, TrainOptions{
			BaseVersion: a.opts.BaseVersion,
			Seed:        a.opts.Seed,
			MaxSamples:  a.opts.MaxSamples,
		})
		if err != nil {
			fitErr = err
			return
		}
		if err := SaveArtifact(a.opts.Path, model); err != nil {
			fitErr = fmt.Errorf("persist model: %w", err)
			return
		}
		a.model = model
		a.publishStatus()
		trained = model
	})
	if err == nil {
		err = fitErr
	}
	fitDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		fitsFailed.Inc()
		a.log.Warn().Err(err).Int("samples", len(samples)).Msg("model fit failed")
		return FitResult{}, err
	}

	fitsCompleted.Inc()
	a.log.Info().
		Str("version", trained.Version).
		Int("samples", trained.Samples).
		Float64("r_squared", trained.RSquared).
		Dur("took", time.Since(start)).
		Msg("model fitted")
	a.announce(ctx, "fit", trained)

	return FitResult{
		Version:  trained.Version,
		Samples:  trained.Samples,
		RSquared: trained.RSquared,
		Path:     a.opts.Path,
	}, nil
}

// Reload reads the artifact from disk and replaces the held model when it
// differs. It reports whether the resident model changed.
func (a *ModelActor) Reload(ctx context.Context) (bool, error) {
	var (
		loaded    *Regressor
		changed   bool
		reloadErr error
	)
	err := a.call(ctx, func() {
		model, err := LoadArtifact(a.opts.Path)
		if err != nil {
			reloadErr = err
			return
		}
		if model.Version == "" {
			model.Version = a.opts.BaseVersion
		}
		if sameModel(a.model, model) {
			return
		}
		a.model = model
		a.publishStatus()
		loaded, changed = model, true
	})
	if err == nil {
		err = reloadErr
	}
	switch {
	case err != nil:
		modelReloads.WithLabelValues("error").Inc()
		return false, err
	case !changed:
		modelReloads.WithLabelValues("unchanged").Inc()
		return false, nil
	}

	modelReloads.WithLabelValues("loaded").Inc()
	a.log.Info().
		Str("version", loaded.Version).
		Strs("features", loaded.Features).
		Str("path", a.opts.Path).
		Msg("model loaded")
	a.announce(ctx, "reload", loaded)
	return true, nil
}

// Status is served from a snapshot so it never queues behind a running fit.
func (a *ModelActor) Status() ModelStatus {
	st := *a.status.Load()
	select {
	case <-a.quit:
		st.Running = false
	default:
	}
	return st
}

func (a *ModelActor) publishStatus() {
	st := &ModelStatus{Fallback: a.opts.Fallback}
	select {
	case <-a.quit:
	default:
		st.Running = true
	}
	if m := a.model; m != nil {
		st.Ready = true
		st.Version = m.Version
		st.Features = append([]string(nil), m.Features...)
		st.Samples = m.Samples
		st.TrainedAt = m.TrainedAt
		modelReady.Set(1)
	} else {
		modelReady.Set(0)
	}
	a.status.Store(st)
}

func (a *ModelActor) announce(ctx context.Context, source string, m *Regressor) {
	if a.opts.Publisher == nil {
		return
	}
	event := ModelEvent{
		Type:     "model_updated",
		Source:   source,
		Version:  m.Version,
		Samples:  m.Samples,
		RSquared: m.RSquared,
		At:       time.Now().UTC(),
	}
	if err := a.opts.Publisher.Publish(context.WithoutCancel(ctx), ModelEventsChannel, event); err != nil {
		a.log.Warn().Err(err).Msg("publish model event failed")
	}
}

func sameModel(current, next *Regressor) bool {
	if current == nil || next == nil {
		return false
	}
	return current.Version == next.Version &&
		current.Intercept == next.Intercept &&
		slices.Equal(current.Features, next.Features) &&
		slices.Equal(current.Coefficients, next.Coefficients)
}
