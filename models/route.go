package models

import "time"

// FlightRoute is an origin/destination pair observed in the flight history.
type FlightRoute struct {
	ID                     uint      `gorm:"column:id;primaryKey" json:"-"`
	OriginAirportIATA      string    `gorm:"column:origin_airport_iata;type:varchar(8);index;not null" json:"origin_airport_iata"`
	DestinationAirportIATA string    `gorm:"column:destination_airport_iata;type:varchar(8);index;not null" json:"destination_airport_iata"`
	CreatedAt              time.Time `gorm:"column:created_at;autoCreateTime" json:"-"`
}

func (FlightRoute) TableName() string { return "flight_routes" }
