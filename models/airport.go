package models

import "time"

type Airport struct {
	ID          uint      `gorm:"column:id;primaryKey" json:"-"`
	IATACode    string    `gorm:"column:iata_code;type:varchar(3);uniqueIndex;not null" json:"iata_code"`
	AirportName string    `gorm:"column:airport_name;type:varchar(255);not null" json:"airport_name"`
	City        *string   `gorm:"column:city;type:varchar(100)" json:"city"`
	State       *string   `gorm:"column:state;type:varchar(50)" json:"state"`
	Country     *string   `gorm:"column:country;type:varchar(100)" json:"country"`
	Latitude    *float64  `gorm:"column:latitude" json:"latitude"`
	Longitude   *float64  `gorm:"column:longitude" json:"longitude"`
	CreatedAt   time.Time `gorm:"column:created_at;autoCreateTime" json:"-"`
}

func (Airport) TableName() string { return "airports" }
