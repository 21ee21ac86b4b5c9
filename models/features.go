package models

const DefaultDay = 15

// Feature names understood by the regressor, in training-notebook order.
const (
	FeatureMonth          = "month"
	FeatureDay            = "day"
	FeatureAirline        = "airline"
	FeatureOriginAirport  = "origin_airport"
	FeatureDestAirport    = "dest_airport"
	FeatureDepartureDelay = "departure_delay"
)

var KnownFeatures = []string{
	FeatureMonth,
	FeatureDay,
	FeatureAirline,
	FeatureOriginAirport,
	FeatureDestAirport,
	FeatureDepartureDelay,
}

func IsKnownFeature(name string) bool {
	for _, f := range KnownFeatures {
		if f == name {
			return true
		}
	}
	return false
}

type FlightFeatures struct {
	Month          int     `json:"month"`
	Day            int     `json:"day"`
	Airline        string  `json:"airline,omitempty"`
	OriginAirport  string  `json:"origin_airport,omitempty"`
	DestAirport    string  `json:"dest_airport,omitempty"`
	DepartureDelay float64 `json:"departure_delay"`
}

// TrainingSample pairs features with the observed arrival delay.
type TrainingSample struct {
	Features FlightFeatures
	Delay    float64
}
