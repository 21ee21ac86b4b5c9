package services

import (
	"encoding/json"
	"errors"
	"io"
	"strings"
	"testing"
)

func TestReadAirlines(t *testing.T) {
	in := "\ufeffIATA_CODE,AIRLINE\n" +
		"UA,United Air Lines Inc.\n" +
		"AA,American Airlines Inc.\n" +
		",Nameless\n" +
		"UA,Duplicate\n" +
		"DL, Delta Air Lines Inc. \n"

	airlines, err := ReadAirlines(strings.NewReader(in))
	if err != nil {
		t.Fatalf("ReadAirlines failed: %v", err)
	}

	want := []struct{ code, name string }{
		{"AA", "American Airlines Inc."},
		{"DL", "Delta Air Lines Inc."},
		{"UA", "United Air Lines Inc."},
	}
	if len(airlines) != len(want) {
		t.Fatalf("got %d airlines, want %d", len(airlines), len(want))
	}
	for i, w := range want {
		if airlines[i].IATACode != w.code || airlines[i].AirlineName != w.name {
			t.Errorf("airlines[%d] = %+v, want %s %q", i, airlines[i], w.code, w.name)
		}
	}
}

func TestReadAirlinesMissingColumn(t *testing.T) {
	_, err := ReadAirlines(strings.NewReader("CODE,NAME\nAA,American\n"))
	if err == nil || !strings.Contains(err.Error(), "IATA_CODE") {
		t.Errorf("err = %v, want missing IATA_CODE column", err)
	}
}

func TestReadEmptyFile(t *testing.T) {
	if _, err := ReadAirlines(strings.NewReader("")); err == nil {
		t.Error("expected error for empty file")
	}
}

func TestReadAirports(t *testing.T) {
	in := "IATA_CODE,AIRPORT,CITY,STATE,COUNTRY,LATITUDE,LONGITUDE\n" +
		"LAX,Los Angeles International Airport,Los Angeles,CA,USA,33.94254,-118.40807\n" +
		"ECP,Northwest Florida Beaches International Airport,Panama City,FL,USA,,\n"

	airports, err := ReadAirports(strings.NewReader(in))
	if err != nil {
		t.Fatalf("ReadAirports failed: %v", err)
	}
	if len(airports) != 2 {
		t.Fatalf("got %d airports, want 2", len(airports))
	}

	ecp, lax := airports[0], airports[1]
	if ecp.IATACode != "ECP" || lax.IATACode != "LAX" {
		t.Fatalf("airports not sorted by code: %s, %s", ecp.IATACode, lax.IATACode)
	}
	if ecp.Latitude != nil || ecp.Longitude != nil {
		t.Error("empty coordinates should be nil")
	}
	if ecp.City == nil || *ecp.City != "Panama City" {
		t.Errorf("City = %v, want Panama City", ecp.City)
	}
	if lax.Latitude == nil || *lax.Latitude != 33.94254 {
		t.Errorf("Latitude = %v, want 33.94254", lax.Latitude)
	}
}

func TestReadRoutes(t *testing.T) {
	in := "YEAR,MONTH,ORIGIN_AIRPORT,DESTINATION_AIRPORT\n" +
		"2015,1,ANC,SEA\n" +
		"2015,1,LAX,PBI\n" +
		"2015,2,ANC,SEA\n" +
		"2015,2,LAX,\n"

	routes, err := ReadRoutes(strings.NewReader(in))
	if err != nil {
		t.Fatalf("ReadRoutes failed: %v", err)
	}
	if len(routes) != 2 {
		t.Fatalf("got %d routes, want 2", len(routes))
	}
	if routes[0].OriginAirportIATA != "ANC" || routes[0].DestinationAirportIATA != "SEA" {
		t.Errorf("routes[0] = %+v", routes[0])
	}
}

func TestFlightReader(t *testing.T) {
	in := "YEAR,MONTH,DAY,AIRLINE,ORIGIN_AIRPORT,DESTINATION_AIRPORT,DEPARTURE_DELAY,ARRIVAL_DELAY\n" +
		"2015,1,1,AS,ANC,SEA,-11,-22\n" +
		"2015,1,1,AA,LAX,PBI,-2,\n" +
		"2015,13,1,AA,LAX,PBI,-2,5\n" +
		"2015,2,17,US,SFO,CLT,,14\n"

	fr, err := NewFlightReader(strings.NewReader(in))
	if err != nil {
		t.Fatalf("NewFlightReader failed: %v", err)
	}

	first, err := fr.Next()
	if err != nil {
		t.Fatalf("Next failed: %v", err)
	}
	if first.Month != 1 || first.Day != 1 || first.Airline != "AS" || first.ArrivalDelay != -22 || first.DepartureDelay != -11 {
		t.Errorf("first = %+v", first)
	}
	var raw map[string]string
	if err := json.Unmarshal([]byte(first.RawData), &raw); err != nil {
		t.Fatalf("RawData is not JSON: %v", err)
	}
	if raw["YEAR"] != "2015" {
		t.Errorf("RawData YEAR = %q, want 2015", raw["YEAR"])
	}

	second, err := fr.Next()
	if err != nil {
		t.Fatalf("Next failed: %v", err)
	}
	if second.Month != 2 || second.ArrivalDelay != 14 || second.DepartureDelay != 0 {
		t.Errorf("second = %+v", second)
	}

	if _, err := fr.Next(); !errors.Is(err, io.EOF) {
		t.Errorf("err = %v, want io.EOF", err)
	}
	if fr.Skipped() != 2 {
		t.Errorf("Skipped = %d, want 2", fr.Skipped())
	}
}

func TestFlightReaderRequiresArrivalDelay(t *testing.T) {
	if _, err := NewFlightReader(strings.NewReader("MONTH,DAY\n1,1\n")); err == nil {
		t.Error("expected error for missing ARRIVAL_DELAY column")
	}
}
