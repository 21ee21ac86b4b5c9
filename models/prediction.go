package models

import "time"

type PredictionResult struct {
	Month          int     `json:"month"`
	Day            int     `json:"day"`
	Airline        string  `json:"airline,omitempty"`
	OriginAirport  string  `json:"origin_airport,omitempty"`
	DestAirport    string  `json:"dest_airport,omitempty"`
	DepartureDelay float64 `json:"departure_delay"`
	PredictedDelay float64 `json:"predicted_delay"`
	ModelVersion   string  `json:"model_version"`
}

// PredictionRecord is the persisted audit row of a served prediction.
type PredictionRecord struct {
	ID              uint      `gorm:"column:id;primaryKey" json:"id"`
	Month           int       `gorm:"column:month;index" json:"month"`
	Features        string    `gorm:"column:features;type:text" json:"features"`
	PredictionValue float64   `gorm:"column:prediction_value" json:"prediction_value"`
	ModelVersion    string    `gorm:"column:model_version;default:v1.0" json:"model_version"`
	CreatedAt       time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`
}

func (PredictionRecord) TableName() string { return "prediction_results" }
