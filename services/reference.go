package services

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/Coding-M1-AI/backend-flight-ai/config"
	"github.com/Coding-M1-AI/backend-flight-ai/models"

	"github.com/rs/zerolog"
)

var ErrReferenceDataMissing = errors.New("reference data not imported")

const (
	AirlinesCacheKey = "reference:airlines"
	AirportsCacheKey = "reference:airports"
)

type ReferenceStore interface {
	Airlines(ctx context.Context) ([]models.Airline, error)
	Airports(ctx context.Context) ([]models.Airport, error)
	Destinations(ctx context.Context, origin string) ([]models.Airport, error)
}

// ReferenceService serves airlines and airports from the store, falling back
// to the source CSV files while the store has not been imported yet.
type ReferenceService struct {
	store ReferenceStore
	cache *CacheService
	ttl   time.Duration
	data  config.DataConfig
	log   zerolog.Logger
}

func NewReferenceService(store ReferenceStore, cache *CacheService, ttl time.Duration, data config.DataConfig, logger zerolog.Logger) *ReferenceService {
	return &ReferenceService{
		store: store,
		cache: cache,
		ttl:   ttl,
		data:  data,
		log:   logger.With().Str("component", "reference").Logger(),
	}
}

func (s *ReferenceService) Airlines(ctx context.Context) ([]models.Airline, error) {
	var cached []models.Airline
	if err := s.cache.Get(ctx, AirlinesCacheKey, &cached); err == nil && cached != nil {
		return cached, nil
	}

	airlines, err := s.store.Airlines(ctx)
	if err != nil {
		return nil, err
	}
	if len(airlines) == 0 {
		airlines, err = ReadAirlinesFile(s.data.AirlinesCSV())
		if err != nil {
			return nil, s.csvError("airlines", err)
		}
		s.log.Debug().Int("rows", len(airlines)).Msg("airlines served from csv")
	}
	if len(airlines) == 0 {
		return nil, fmt.Errorf("%w: airlines", ErrReferenceDataMissing)
	}

	go s.cache.Set(context.Background(), AirlinesCacheKey, airlines, s.ttl)
	return airlines, nil
}

func (s *ReferenceService) Airports(ctx context.Context) ([]models.Airport, error) {
	var cached []models.Airport
	if err := s.cache.Get(ctx, AirportsCacheKey, &cached); err == nil && cached != nil {
		return cached, nil
	}

	airports, err := s.store.Airports(ctx)
	if err != nil {
		return nil, err
	}
	if len(airports) == 0 {
		airports, err = ReadAirportsFile(s.data.AirportsCSV())
		if err != nil {
			return nil, s.csvError("airports", err)
		}
		s.log.Debug().Int("rows", len(airports)).Msg("airports served from csv")
	}
	if len(airports) == 0 {
		return nil, fmt.Errorf("%w: airports", ErrReferenceDataMissing)
	}

	go s.cache.Set(context.Background(), AirportsCacheKey, airports, s.ttl)
	return airports, nil
}

// Destinations is not cached; it is keyed by origin and cheap to query.
func (s *ReferenceService) Destinations(ctx context.Context, origin string) ([]models.Airport, error) {
	airports, err := s.store.Destinations(ctx, strings.ToUpper(strings.TrimSpace(origin)))
	if err != nil {
		return nil, err
	}
	if airports == nil {
		airports = []models.Airport{}
	}
	return airports, nil
}

// InvalidateReference drops cached reference lists after an import.
func InvalidateReference(ctx context.Context, cache *CacheService) error {
	return cache.Delete(ctx, AirlinesCacheKey, AirportsCacheKey)
}

func (s *ReferenceService) csvError(what string, err error) error {
	if errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("%w: %s", ErrReferenceDataMissing, what)
	}
	return fmt.Errorf("read %s csv: %w", what, err)
}
