package models

import "time"

// FlightRecord is one historical flight kept for retraining.
type FlightRecord struct {
	ID             uint      `gorm:"column:id;primaryKey" json:"id"`
	Month          int       `gorm:"column:month;index" json:"month"`
	Day            int       `gorm:"column:day" json:"day"`
	Airline        string    `gorm:"column:airline;type:varchar(3)" json:"airline"`
	OriginAirport  string    `gorm:"column:origin_airport;type:varchar(8)" json:"origin_airport"`
	DestAirport    string    `gorm:"column:dest_airport;type:varchar(8)" json:"dest_airport"`
	DepartureDelay float64   `gorm:"column:departure_delay" json:"departure_delay"`
	ArrivalDelay   float64   `gorm:"column:arrival_delay" json:"arrival_delay"`
	RawData        string    `gorm:"column:raw_data;type:text" json:"-"`
	CreatedAt      time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`
}

func (FlightRecord) TableName() string { return "flight_data" }

// Features projects the record onto the prediction input.
func (r FlightRecord) Features() FlightFeatures {
	return FlightFeatures{
		Month:          r.Month,
		Day:            r.Day,
		Airline:        r.Airline,
		OriginAirport:  r.OriginAirport,
		DestAirport:    r.DestAirport,
		DepartureDelay: r.DepartureDelay,
	}
}
