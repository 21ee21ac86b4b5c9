package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/Coding-M1-AI/backend-flight-ai/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

var (
	airlineColumns = []string{"iata_code", "airline_name", "created_at"}
	airportColumns = []string{"iata_code", "airport_name", "city", "state", "country", "latitude", "longitude", "created_at"}
	routeColumns   = []string{"origin_airport_iata", "destination_airport_iata", "created_at"}
	flightColumns  = []string{"month", "day", "airline", "origin_airport", "dest_airport", "departure_delay", "arrival_delay", "raw_data", "created_at"}
)

// Importer replaces table contents with CSV rows using COPY. Each table is
// truncated and reloaded inside one transaction, so readers see either the
// old or the new contents.
type Importer struct {
	pool *pgxpool.Pool
	log  zerolog.Logger
	now  func() time.Time
}

func NewImporter(pool *pgxpool.Pool, logger zerolog.Logger) *Importer {
	return &Importer{
		pool: pool,
		log:  logger.With().Str("component", "importer").Logger(),
		now:  time.Now,
	}
}

func (im *Importer) ImportAirlines(ctx context.Context, airlines []models.Airline) (int64, error) {
	now := im.now().UTC()
	return im.replace(ctx, "airlines", airlineColumns, pgx.CopyFromSlice(len(airlines), func(i int) ([]any, error) {
		return airlineRow(airlines[i], now), nil
	}))
}

func (im *Importer) ImportAirports(ctx context.Context, airports []models.Airport) (int64, error) {
	now := im.now().UTC()
	return im.replace(ctx, "airports", airportColumns, pgx.CopyFromSlice(len(airports), func(i int) ([]any, error) {
		return airportRow(airports[i], now), nil
	}))
}

func (im *Importer) ImportRoutes(ctx context.Context, routes []models.FlightRoute) (int64, error) {
	now := im.now().UTC()
	return im.replace(ctx, "flight_routes", routeColumns, pgx.CopyFromSlice(len(routes), func(i int) ([]any, error) {
		return routeRow(routes[i], now), nil
	}))
}

// ImportFlights streams the reader straight into COPY without buffering the file.
func (im *Importer) ImportFlights(ctx context.Context, reader *FlightReader) (int64, error) {
	src := &flightSource{reader: reader, now: im.now().UTC()}
	n, err := im.replace(ctx, "flight_data", flightColumns, src)
	if err != nil {
		return 0, err
	}
	if reader.Skipped() > 0 {
		im.log.Info().Int("skipped", reader.Skipped()).Msg("flight rows without arrival delay skipped")
	}
	return n, nil
}

func (im *Importer) replace(ctx context.Context, table string, columns []string, src pgx.CopyFromSource) (int64, error) {
	start := time.Now()

	tx, err := im.pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("begin %s import: %w", table, err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, "TRUNCATE TABLE "+pgx.Identifier{table}.Sanitize()+" RESTART IDENTITY"); err != nil {
		return 0, fmt.Errorf("truncate %s: %w", table, err)
	}

	n, err := tx.CopyFrom(ctx, pgx.Identifier{table}, columns, src)
	if err != nil {
		return 0, fmt.Errorf("copy into %s: %w", table, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("commit %s import: %w", table, err)
	}

	im.log.Info().Str("table", table).Int64("rows", n).Dur("took", time.Since(start)).Msg("table imported")
	return n, nil
}

func airlineRow(a models.Airline, now time.Time) []any {
	return []any{a.IATACode, a.AirlineName, now}
}

func airportRow(a models.Airport, now time.Time) []any {
	return []any{a.IATACode, a.AirportName, a.City, a.State, a.Country, a.Latitude, a.Longitude, now}
}

func routeRow(r models.FlightRoute, now time.Time) []any {
	return []any{r.OriginAirportIATA, r.DestinationAirportIATA, now}
}

func flightRow(f models.FlightRecord, now time.Time) []any {
	return []any{f.Month, f.Day, f.Airline, f.OriginAirport, f.DestAirport, f.DepartureDelay, f.ArrivalDelay, f.RawData, now}
}

// flightSource adapts FlightReader to pgx.CopyFromSource.
type flightSource struct {
	reader *FlightReader
	now    time.Time
	row    []any
	err    error
}

func (s *flightSource) Next() bool {
	rec, err := s.reader.Next()
	if err != nil {
		if !errors.Is(err, io.EOF) {
			s.err = err
		}
		return false
	}
	s.row = flightRow(rec, s.now)
	return true
}

func (s *flightSource) Values() ([]any, error) { return s.row, nil }

func (s *flightSource) Err() error { return s.err }
