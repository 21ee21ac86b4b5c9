package services

import (
	"context"
	"fmt"
	"time"

	"github.com/Coding-M1-AI/backend-flight-ai/config"
	"github.com/Coding-M1-AI/backend-flight-ai/models"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const trainingBatchSize = 5000

// OpenDatabase connects through GORM's postgres driver and verifies the
// connection with a ping.
func OpenDatabase(cfg config.DatabaseConfig) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(cfg.GetDSN()), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("get sql db handle: %w", err)
	}
	sqlDB.SetMaxOpenConns(10)
	sqlDB.SetConnMaxIdleTime(5 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := sqlDB.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return db, nil
}

type ReferenceCounts struct {
	Airlines int64 `json:"airlines_count"`
	Airports int64 `json:"airports_count"`
}

type Store struct {
	db          *gorm.DB
	sampleLimit int
	sampleSeed  uint64
}

func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

// WithTrainingSampling caps TrainingSamples at limit rows, drawn with a
// seeded reservoir while the table is streamed.
func (s *Store) WithTrainingSampling(limit int, seed uint64) *Store {
	c := *s
	c.sampleLimit, c.sampleSeed = limit, seed
	return &c
}

// Migrate creates or updates the tables mirroring the CSV sources.
func (s *Store) Migrate() error {
	return s.db.AutoMigrate(
		&models.Airline{},
		&models.Airport{},
		&models.FlightRoute{},
		&models.FlightRecord{},
		&models.PredictionRecord{},
	)
}

func (s *Store) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func (s *Store) Airlines(ctx context.Context) ([]models.Airline, error) {
	var airlines []models.Airline
	if err := s.db.WithContext(ctx).Order("iata_code").Find(&airlines).Error; err != nil {
		return nil, fmt.Errorf("query airlines: %w", err)
	}
	return airlines, nil
}

func (s *Store) Airports(ctx context.Context) ([]models.Airport, error) {
	var airports []models.Airport
	if err := s.db.WithContext(ctx).Order("iata_code").Find(&airports).Error; err != nil {
		return nil, fmt.Errorf("query airports: %w", err)
	}
	return airports, nil
}

// Destinations lists the airports served from origin according to flight_routes.
func (s *Store) Destinations(ctx context.Context, origin string) ([]models.Airport, error) {
	var airports []models.Airport
	if err := s.destinationsQuery(ctx, origin).Find(&airports).Error; err != nil {
		return nil, fmt.Errorf("query destinations for %s: %w", origin, err)
	}
	return airports, nil
}

func (s *Store) destinationsQuery(ctx context.Context, origin string) *gorm.DB {
	db := s.db.WithContext(ctx)
	destinations := db.Model(&models.FlightRoute{}).
		Distinct("destination_airport_iata").
		Where("origin_airport_iata = ?", origin)
	return db.Model(&models.Airport{}).Where("iata_code IN (?)", destinations).Order("iata_code")
}

func (s *Store) Counts(ctx context.Context) (ReferenceCounts, error) {
	var counts ReferenceCounts
	db := s.db.WithContext(ctx)
	if err := db.Model(&models.Airline{}).Count(&counts.Airlines).Error; err != nil {
		return ReferenceCounts{}, fmt.Errorf("count airlines: %w", err)
	}
	if err := db.Model(&models.Airport{}).Count(&counts.Airports).Error; err != nil {
		return ReferenceCounts{}, fmt.Errorf("count airports: %w", err)
	}
	return counts, nil
}

// TrainingSamples streams the flight history in primary key order
// (FindInBatches pages by id) through a seeded reservoir, so at most the
// configured number of rows is held in memory and repeated fits over the same
// table see the same sample.
func (s *Store) TrainingSamples(ctx context.Context) ([]models.TrainingSample, error) {
	reservoir := NewReservoir(s.sampleLimit, s.sampleSeed)
	var batch []models.FlightRecord
	res := s.trainingQuery(ctx).
		FindInBatches(&batch, trainingBatchSize, func(tx *gorm.DB, _ int) error {
			for _, rec := range batch {
				reservoir.Add(models.TrainingSample{
					Features: rec.Features(),
					Delay:    rec.ArrivalDelay,
				})
			}
			return nil
		})
	if res.Error != nil {
		return nil, fmt.Errorf("query flight_data: %w", res.Error)
	}
	return reservoir.Samples(), nil
}

func (s *Store) trainingQuery(ctx context.Context) *gorm.DB {
	return s.db.WithContext(ctx).
		Model(&models.FlightRecord{}).
		Select("id", "month", "day", "airline", "origin_airport", "dest_airport", "departure_delay", "arrival_delay")
}

func (s *Store) RecordPrediction(ctx context.Context, rec *models.PredictionRecord) error {
	if err := s.db.WithContext(ctx).Create(rec).Error; err != nil {
		return fmt.Errorf("insert prediction_results: %w", err)
	}
	return nil
}
