package services

import (
	"errors"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/Coding-M1-AI/backend-flight-ai/models"
)

func monthSamples(months []int, delays []float64) []models.TrainingSample {
	samples := make([]models.TrainingSample, len(months))
	for i := range months {
		samples[i] = models.TrainingSample{
			Features: models.FlightFeatures{Month: months[i]},
			Delay:    delays[i],
		}
	}
	return samples
}

func fixedNow() time.Time { return time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC) }

func TestTrainRegressorSingleFeature(t *testing.T) {
	samples := monthSamples([]int{1, 2, 3, 4}, []float64{3, 5, 7, 9})

	model, err := TrainRegressor(samples, []string{models.FeatureMonth}, TrainOptions{BaseVersion: "v1.0", Now: fixedNow})
	if err != nil {
		t.Fatalf("TrainRegressor failed: %v", err)
	}
	if math.Abs(model.Intercept-1) > 1e-9 {
		t.Errorf("Intercept = %v, want 1", model.Intercept)
	}
	if math.Abs(model.Coefficients[0]-2) > 1e-9 {
		t.Errorf("Coefficient = %v, want 2", model.Coefficients[0])
	}
	if math.Abs(model.RSquared-1) > 1e-9 {
		t.Errorf("RSquared = %v, want 1", model.RSquared)
	}
	if model.Samples != 4 {
		t.Errorf("Samples = %d, want 4", model.Samples)
	}
	if !model.TrainedAt.Equal(fixedNow()) {
		t.Errorf("TrainedAt = %v", model.TrainedAt)
	}
	if got := model.Predict(models.FlightFeatures{Month: 5}); math.Abs(got-11) > 1e-9 {
		t.Errorf("Predict(month=5) = %v, want 11", got)
	}
}

func TestTrainRegressorMultipleFeatures(t *testing.T) {
	var samples []models.TrainingSample
	for month := 1; month <= 12; month++ {
		for _, day := range []int{1, 10, 20, 28} {
			samples = append(samples, models.TrainingSample{
				Features: models.FlightFeatures{Month: month, Day: day},
				Delay:    1 + 2*float64(month) + 0.5*float64(day),
			})
		}
	}

	model, err := TrainRegressor(samples, []string{models.FeatureMonth, models.FeatureDay}, TrainOptions{})
	if err != nil {
		t.Fatalf("TrainRegressor failed: %v", err)
	}
	want := []float64{2, 0.5}
	for i, w := range want {
		if math.Abs(model.Coefficients[i]-w) > 1e-6 {
			t.Errorf("Coefficients[%d] = %v, want %v", i, model.Coefficients[i], w)
		}
	}
	if math.Abs(model.Intercept-1) > 1e-6 {
		t.Errorf("Intercept = %v, want 1", model.Intercept)
	}
	if got := model.Predict(models.FlightFeatures{Month: 6, Day: 12}); math.Abs(got-19) > 1e-6 {
		t.Errorf("Predict = %v, want 19", got)
	}
}

func TestTrainRegressorWithoutVariance(t *testing.T) {
	dayed := func(month int, days []int, delays []float64) []models.TrainingSample {
		out := make([]models.TrainingSample, len(days))
		for i := range days {
			out[i] = models.TrainingSample{
				Features: models.FlightFeatures{Month: month, Day: days[i]},
				Delay:    delays[i],
			}
		}
		return out
	}

	tests := []struct {
		name     string
		samples  []models.TrainingSample
		features []string
		at       models.FlightFeatures
		want     float64
	}{
		{"single sample", monthSamples([]int{6}, []float64{12}), []string{models.FeatureMonth}, models.FlightFeatures{Month: 6}, 12},
		{"single sample other month", monthSamples([]int{6}, []float64{12}), []string{models.FeatureMonth}, models.FlightFeatures{Month: 1}, 12},
		{"one month", monthSamples([]int{6, 6, 6}, []float64{10, 20, 30}), []string{models.FeatureMonth}, models.FlightFeatures{Month: 6}, 20},
		{"one month with day", dayed(6, []int{1, 10, 20}, []float64{1.5, 6, 11}), []string{models.FeatureMonth, models.FeatureDay}, models.FlightFeatures{Month: 3, Day: 12}, 7},
		{"single sample two features", dayed(6, []int{4}, []float64{9}), []string{models.FeatureMonth, models.FeatureDay}, models.FlightFeatures{Month: 2, Day: 30}, 9},
		{"fewer samples than features", monthSamples([]int{1, 2}, []float64{1, 2}), []string{models.FeatureMonth, models.FeatureDay}, models.FlightFeatures{Month: 4}, 4},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			model, err := TrainRegressor(tt.samples, tt.features, TrainOptions{})
			if err != nil {
				t.Fatalf("TrainRegressor failed: %v", err)
			}
			if got := model.Predict(tt.at); math.Abs(got-tt.want) > 1e-6 {
				t.Errorf("Predict(%+v) = %v, want %v", tt.at, got, tt.want)
			}
			if err := model.Validate(); err != nil {
				t.Errorf("Validate: %v", err)
			}
		})
	}
}

func TestTrainRegressorErrors(t *testing.T) {
	tests := []struct {
		name     string
		samples  []models.TrainingSample
		features []string
		want     error
	}{
		{"no samples", nil, []string{models.FeatureMonth}, ErrNoTrainingData},
		{"no features", monthSamples([]int{1, 2}, []float64{1, 2}), nil, ErrInvalidModel},
		{"unknown feature", monthSamples([]int{1, 2}, []float64{1, 2}), []string{"weather"}, ErrInvalidModel},
		{"nan delay", monthSamples([]int{1, 2}, []float64{1, math.NaN()}), []string{models.FeatureMonth}, ErrDegenerateTrainingData},
		{"infinite delay", monthSamples([]int{1, 2, 3}, []float64{1, 2, math.Inf(1)}), []string{models.FeatureMonth, models.FeatureDay}, ErrDegenerateTrainingData},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := TrainRegressor(tt.samples, tt.features, TrainOptions{})
			if !errors.Is(err, tt.want) {
				t.Errorf("err = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestTrainRegressorDeterministicVersion(t *testing.T) {
	samples := monthSamples([]int{1, 2, 3, 4, 5}, []float64{10, 12, 15, 13, 20})

	a, err := TrainRegressor(samples, []string{models.FeatureMonth}, TrainOptions{BaseVersion: "v1.0"})
	if err != nil {
		t.Fatalf("TrainRegressor failed: %v", err)
	}
	b, err := TrainRegressor(samples, []string{models.FeatureMonth}, TrainOptions{BaseVersion: "v1.0"})
	if err != nil {
		t.Fatalf("TrainRegressor failed: %v", err)
	}
	if a.Version != b.Version {
		t.Errorf("versions differ for identical data: %q vs %q", a.Version, b.Version)
	}
	if !strings.HasPrefix(a.Version, "v1.0-") {
		t.Errorf("Version = %q, want v1.0- prefix", a.Version)
	}

	other := monthSamples([]int{1, 2, 3, 4, 5}, []float64{10, 12, 15, 13, 21})
	c, err := TrainRegressor(other, []string{models.FeatureMonth}, TrainOptions{BaseVersion: "v1.0"})
	if err != nil {
		t.Fatalf("TrainRegressor failed: %v", err)
	}
	if c.Version == a.Version {
		t.Errorf("different data produced the same version %q", c.Version)
	}
}

func TestTrainRegressorSeededSubsample(t *testing.T) {
	months := make([]int, 100)
	delays := make([]float64, 100)
	for i := range months {
		months[i] = i%12 + 1
		delays[i] = float64(i%7) + float64(months[i])
	}
	samples := monthSamples(months, delays)

	opts := TrainOptions{Seed: 7, MaxSamples: 30}
	a, err := TrainRegressor(samples, []string{models.FeatureMonth}, opts)
	if err != nil {
		t.Fatalf("TrainRegressor failed: %v", err)
	}
	b, err := TrainRegressor(samples, []string{models.FeatureMonth}, opts)
	if err != nil {
		t.Fatalf("TrainRegressor failed: %v", err)
	}
	if a.Samples != 30 {
		t.Errorf("Samples = %d, want 30", a.Samples)
	}
	if a.Version != b.Version || a.Intercept != b.Intercept {
		t.Error("same seed should select the same subsample")
	}
}

func TestSubsampleKeepsOrder(t *testing.T) {
	samples := monthSamples([]int{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}, make([]float64, 10))
	out := subsample(samples, 4, 1)
	if len(out) != 4 {
		t.Fatalf("len = %d, want 4", len(out))
	}
	for i := 1; i < len(out); i++ {
		if out[i-1].Features.Month >= out[i].Features.Month {
			t.Errorf("subsample not in source order: %v", out)
		}
	}
	if got := subsample(samples, 0, 1); len(got) != 10 {
		t.Errorf("limit 0 should keep all samples, got %d", len(got))
	}
}

func TestRegressorValidate(t *testing.T) {
	tests := []struct {
		name  string
		model Regressor
		ok    bool
	}{
		{"valid", Regressor{Features: []string{"month"}, Coefficients: []float64{1}}, true},
		{"no features", Regressor{}, false},
		{"length mismatch", Regressor{Features: []string{"month"}, Coefficients: []float64{1, 2}}, false},
		{"unknown feature", Regressor{Features: []string{"tail_number"}, Coefficients: []float64{1}}, false},
		{"nan intercept", Regressor{Features: []string{"month"}, Coefficients: []float64{1}, Intercept: math.NaN()}, false},
		{"inf coefficient", Regressor{Features: []string{"month"}, Coefficients: []float64{math.Inf(1)}}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.model.Validate()
			if tt.ok && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
			if !tt.ok && !errors.Is(err, ErrInvalidModel) {
				t.Errorf("err = %v, want ErrInvalidModel", err)
			}
		})
	}
}

func TestFeatureValue(t *testing.T) {
	f := models.FlightFeatures{Month: 7, OriginAirport: "jfk", DepartureDelay: 12.5}

	if got := FeatureValue(f, models.FeatureMonth); got != 7 {
		t.Errorf("month = %v, want 7", got)
	}
	if got := FeatureValue(f, models.FeatureDay); got != models.DefaultDay {
		t.Errorf("day = %v, want default %d", got, models.DefaultDay)
	}
	if got := FeatureValue(f, models.FeatureDepartureDelay); got != 12.5 {
		t.Errorf("departure_delay = %v, want 12.5", got)
	}
	if got := FeatureValue(f, models.FeatureDestAirport); got != 0 {
		t.Errorf("empty dest_airport = %v, want 0", got)
	}
	if FeatureValue(f, models.FeatureOriginAirport) != EncodeCode("JFK") {
		t.Error("airport encoding should be case-insensitive")
	}
}

func TestEncodeCodeRange(t *testing.T) {
	for _, code := range []string{"ATL", "LAX", "ORD", "AA", "DL", "10397"} {
		v := EncodeCode(code)
		if v < 0 || v >= 10 || v != math.Trunc(v) {
			t.Errorf("EncodeCode(%q) = %v, want integer in [0, 10)", code, v)
		}
	}
}

func TestBaselinePredict(t *testing.T) {
	tests := []struct {
		name string
		in   models.FlightFeatures
		want float64
	}{
		{"month only", models.FlightFeatures{Month: 1}, 10.5},
		{"late month day", models.FlightFeatures{Month: 7, Day: 25}, 29.2},
		{"hub and regional", models.FlightFeatures{Month: 7, Day: 25, OriginAirport: "jfk", DestAirport: "BOI"}, 31.7},
		{"unknown month", models.FlightFeatures{Month: 13}, 15.0},
		{"invalid day ignored", models.FlightFeatures{Month: 2, Day: 40}, 12.3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := BaselinePredict(tt.in); math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("BaselinePredict() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestReservoir(t *testing.T) {
	months := make([]int, 1000)
	for i := range months {
		months[i] = i
	}
	samples := monthSamples(months, make([]float64, len(months)))

	draw := func(seed uint64) []models.TrainingSample {
		r := NewReservoir(50, seed)
		for _, s := range samples {
			r.Add(s)
		}
		if r.Seen() != len(samples) {
			t.Errorf("Seen = %d, want %d", r.Seen(), len(samples))
		}
		return r.Samples()
	}

	a, b := draw(9), draw(9)
	if len(a) != 50 {
		t.Fatalf("len = %d, want 50", len(a))
	}
	for i := range a {
		if a[i].Features.Month != b[i].Features.Month {
			t.Fatalf("same seed drew different samples at %d", i)
		}
		if i > 0 && a[i-1].Features.Month >= a[i].Features.Month {
			t.Fatalf("samples not in stream order: %d then %d", a[i-1].Features.Month, a[i].Features.Month)
		}
	}

	// A reservoir that only ever kept the first items would end at 49.
	if last := a[len(a)-1].Features.Month; last < 500 {
		t.Errorf("last kept item = %d, want one from the second half of the stream", last)
	}

	unbounded := NewReservoir(0, 1)
	for _, s := range samples[:10] {
		unbounded.Add(s)
	}
	if got := unbounded.Samples(); len(got) != 10 {
		t.Errorf("limit 0 kept %d of 10", len(got))
	}
}
