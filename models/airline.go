package models

import "time"

type Airline struct {
	ID          uint      `gorm:"column:id;primaryKey" json:"-"`
	IATACode    string    `gorm:"column:iata_code;type:varchar(3);uniqueIndex;not null" json:"iata_code"`
	AirlineName string    `gorm:"column:airline_name;type:varchar(255);not null" json:"airline_name"`
	CreatedAt   time.Time `gorm:"column:created_at;autoCreateTime" json:"-"`
}

func (Airline) TableName() string { return "airlines" }
