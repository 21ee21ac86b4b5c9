package services

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/Coding-M1-AI/backend-flight-ai/models"
)

// csvTable reads a header-keyed CSV file row by row.
type csvTable struct {
	r      *csv.Reader
	header []string
	index  map[string]int
}

func newCSVTable(r io.Reader) (*csvTable, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("csv: missing header")
		}
		return nil, fmt.Errorf("csv header: %w", err)
	}

	index := make(map[string]int, len(header))
	for i, name := range header {
		name = strings.ToUpper(strings.TrimSpace(strings.TrimPrefix(name, "\ufeff")))
		header[i] = name
		index[name] = i
	}
	return &csvTable{r: cr, header: header, index: index}, nil
}

func (t *csvTable) require(cols ...string) error {
	for _, c := range cols {
		if _, ok := t.index[c]; !ok {
			return fmt.Errorf("csv: missing column %s", c)
		}
	}
	return nil
}

// next returns io.EOF after the last row.
func (t *csvTable) next() (csvRow, error) {
	rec, err := t.r.Read()
	if err != nil {
		return csvRow{}, err
	}
	return csvRow{t: t, rec: rec}, nil
}

type csvRow struct {
	t   *csvTable
	rec []string
}

func (r csvRow) get(col string) string {
	i, ok := r.t.index[col]
	if !ok || i >= len(r.rec) {
		return ""
	}
	return strings.TrimSpace(r.rec[i])
}

func (r csvRow) optString(col string) *string {
	if v := r.get(col); v != "" {
		return &v
	}
	return nil
}

func (r csvRow) optFloat(col string) *float64 {
	v, err := strconv.ParseFloat(r.get(col), 64)
	if err != nil {
		return nil
	}
	return &v
}

func (r csvRow) rawJSON() string {
	m := make(map[string]string, len(r.t.header))
	for i, name := range r.t.header {
		if i < len(r.rec) {
			m[name] = r.rec[i]
		}
	}
	data, _ := json.Marshal(m)
	return string(data)
}

// ReadAirlines parses an airlines CSV (IATA_CODE, AIRLINE). Rows missing
// either column are skipped; the result is ordered by IATA code.
func ReadAirlines(r io.Reader) ([]models.Airline, error) {
	t, err := newCSVTable(r)
	if err != nil {
		return nil, err
	}
	if err := t.require("IATA_CODE", "AIRLINE"); err != nil {
		return nil, err
	}

	var airlines []models.Airline
	seen := make(map[string]bool)
	for {
		row, err := t.next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read airlines csv: %w", err)
		}
		code, name := row.get("IATA_CODE"), row.get("AIRLINE")
		if code == "" || name == "" || seen[code] {
			continue
		}
		seen[code] = true
		airlines = append(airlines, models.Airline{IATACode: code, AirlineName: name})
	}
	sort.Slice(airlines, func(i, j int) bool { return airlines[i].IATACode < airlines[j].IATACode })
	return airlines, nil
}

// ReadAirports parses an airports CSV (IATA_CODE, AIRPORT, CITY, STATE,
// COUNTRY, LATITUDE, LONGITUDE). Unparseable coordinates become null.
func ReadAirports(r io.Reader) ([]models.Airport, error) {
	t, err := newCSVTable(r)
	if err != nil {
		return nil, err
	}
	if err := t.require("IATA_CODE", "AIRPORT"); err != nil {
		return nil, err
	}

	var airports []models.Airport
	seen := make(map[string]bool)
	for {
		row, err := t.next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read airports csv: %w", err)
		}
		code, name := row.get("IATA_CODE"), row.get("AIRPORT")
		if code == "" || name == "" || seen[code] {
			continue
		}
		seen[code] = true
		airports = append(airports, models.Airport{
			IATACode:    code,
			AirportName: name,
			City:        row.optString("CITY"),
			State:       row.optString("STATE"),
			Country:     row.optString("COUNTRY"),
			Latitude:    row.optFloat("LATITUDE"),
			Longitude:   row.optFloat("LONGITUDE"),
		})
	}
	sort.Slice(airports, func(i, j int) bool { return airports[i].IATACode < airports[j].IATACode })
	return airports, nil
}

// ReadRoutes parses origin/destination pairs from either a routes CSV or the
// flights CSV (both use ORIGIN_AIRPORT, DESTINATION_AIRPORT). Duplicates are dropped.
func ReadRoutes(r io.Reader) ([]models.FlightRoute, error) {
	t, err := newCSVTable(r)
	if err != nil {
		return nil, err
	}
	if err := t.require("ORIGIN_AIRPORT", "DESTINATION_AIRPORT"); err != nil {
		return nil, err
	}

	var routes []models.FlightRoute
	seen := make(map[[2]string]bool)
	for {
		row, err := t.next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read routes csv: %w", err)
		}
		key := [2]string{row.get("ORIGIN_AIRPORT"), row.get("DESTINATION_AIRPORT")}
		if key[0] == "" || key[1] == "" || seen[key] {
			continue
		}
		seen[key] = true
		routes = append(routes, models.FlightRoute{
			OriginAirportIATA:      key[0],
			DestinationAirportIATA: key[1],
		})
	}
	return routes, nil
}

// FlightReader streams flight history rows, skipping rows without an arrival
// delay since they cannot be used for training.
type FlightReader struct {
	t       *csvTable
	skipped int
}

func NewFlightReader(r io.Reader) (*FlightReader, error) {
	t, err := newCSVTable(r)
	if err != nil {
		return nil, err
	}
	if err := t.require("MONTH", "ARRIVAL_DELAY"); err != nil {
		return nil, err
	}
	return &FlightReader{t: t}, nil
}

// Next returns io.EOF when the file is exhausted.
func (fr *FlightReader) Next() (models.FlightRecord, error) {
	for {
		row, err := fr.t.next()
		if err != nil {
			return models.FlightRecord{}, err
		}
		arrival, err := strconv.ParseFloat(row.get("ARRIVAL_DELAY"), 64)
		if err != nil {
			fr.skipped++
			continue
		}
		month, err := strconv.Atoi(row.get("MONTH"))
		if err != nil || month < 1 || month > 12 {
			fr.skipped++
			continue
		}
		day, _ := strconv.Atoi(row.get("DAY"))
		departure, _ := strconv.ParseFloat(row.get("DEPARTURE_DELAY"), 64)

		return models.FlightRecord{
			Month:          month,
			Day:            day,
			Airline:        row.get("AIRLINE"),
			OriginAirport:  row.get("ORIGIN_AIRPORT"),
			DestAirport:    row.get("DESTINATION_AIRPORT"),
			DepartureDelay: departure,
			ArrivalDelay:   arrival,
			RawData:        row.rawJSON(),
		}, nil
	}
}

func (fr *FlightReader) Skipped() int { return fr.skipped }

func ReadAirlinesFile(path string) ([]models.Airline, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ReadAirlines(f)
}

func ReadAirportsFile(path string) ([]models.Airport, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ReadAirports(f)
}

func ReadRoutesFile(path string) ([]models.FlightRoute, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ReadRoutes(f)
}
