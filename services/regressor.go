package services

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"math/rand/v2"
	"sort"
	"strings"
	"time"

	"github.com/Coding-M1-AI/backend-flight-ai/models"

	"github.com/cespare/xxhash/v2"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

var (
	ErrNoTrainingData         = errors.New("no training data")
	ErrDegenerateTrainingData = errors.New("training data is degenerate")
	ErrInvalidModel           = errors.New("invalid model artifact")
)

const BaselineVersion = "baseline"

// Regressor is a linear model over a named subset of flight features.
// It is also the on-disk artifact format.
type Regressor struct {
	Version      string    `json:"version"`
	Features     []string  `json:"features"`
	Intercept    float64   `json:"intercept"`
	Coefficients []float64 `json:"coefficients"`
	Samples      int       `json:"samples"`
	RSquared     float64   `json:"r_squared"`
	TrainedAt    time.Time `json:"trained_at"`
}

func (r *Regressor) Validate() error {
	if len(r.Features) == 0 {
		return fmt.Errorf("%w: no features", ErrInvalidModel)
	}
	if len(r.Features) != len(r.Coefficients) {
		return fmt.Errorf("%w: %d features but %d coefficients", ErrInvalidModel, len(r.Features), len(r.Coefficients))
	}
	for _, name := range r.Features {
		if !models.IsKnownFeature(name) {
			return fmt.Errorf("%w: unknown feature %q", ErrInvalidModel, name)
		}
	}
	if !finite(r.Intercept) {
		return fmt.Errorf("%w: intercept is not finite", ErrInvalidModel)
	}
	for i, c := range r.Coefficients {
		if !finite(c) {
			return fmt.Errorf("%w: coefficient %d is not finite", ErrInvalidModel, i)
		}
	}
	return nil
}

func (r *Regressor) Predict(f models.FlightFeatures) float64 {
	y := r.Intercept
	for i, name := range r.Features {
		y += r.Coefficients[i] * FeatureValue(f, name)
	}
	return y
}

// FeatureValue encodes a single feature. Carrier and airport codes are
// bucketed into 0..9 the same way the offline notebook encodes them.
func FeatureValue(f models.FlightFeatures, name string) float64 {
	switch name {
	case models.FeatureMonth:
		return float64(f.Month)
	case models.FeatureDay:
		if f.Day == 0 {
			return models.DefaultDay
		}
		return float64(f.Day)
	case models.FeatureAirline:
		return EncodeCode(f.Airline)
	case models.FeatureOriginAirport:
		return EncodeCode(f.OriginAirport)
	case models.FeatureDestAirport:
		return EncodeCode(f.DestAirport)
	case models.FeatureDepartureDelay:
		return f.DepartureDelay
	}
	return 0
}

func EncodeCode(code string) float64 {
	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" {
		return 0
	}
	return float64(xxhash.Sum64String(code) % 10)
}

type TrainOptions struct {
	BaseVersion string
	Seed        uint64
	MaxSamples  int
	Now         func() time.Time
}

// TrainRegressor fits an ordinary least squares model. The result depends only
// on the samples, the feature list and opts.Seed.
func TrainRegressor(samples []models.TrainingSample, features []string, opts TrainOptions) (*Regressor, error) {
	if len(samples) == 0 {
		return nil, ErrNoTrainingData
	}
	if len(features) == 0 {
		return nil, fmt.Errorf("%w: no features selected", ErrInvalidModel)
	}
	for _, name := range features {
		if !models.IsKnownFeature(name) {
			return nil, fmt.Errorf("%w: unknown feature %q", ErrInvalidModel, name)
		}
	}

	samples = subsample(samples, opts.MaxSamples, opts.Seed)

	n, p := len(samples), len(features)
	ys := make([]float64, n)
	for i, s := range samples {
		if !finite(s.Delay) {
			return nil, fmt.Errorf("%w: delay of sample %d is not finite", ErrDegenerateTrainingData, i)
		}
		ys[i] = s.Delay
	}

	var (
		intercept float64
		coefs     = make([]float64, p)
		estimates = make([]float64, n)
	)

	if p == 1 {
		xs := make([]float64, n)
		for i, s := range samples {
			xs[i] = FeatureValue(s.Features, features[0])
		}
		alpha, beta := stat.Mean(ys, nil), 0.0
		if !constant(xs) {
			alpha, beta = stat.LinearRegression(xs, ys, nil, false)
		}
		intercept, coefs[0] = alpha, beta
		for i, x := range xs {
			estimates[i] = alpha + beta*x
		}
	} else {
		var err error
		intercept, err = solveCentered(samples, features, ys, coefs)
		if err != nil {
			return nil, err
		}
		for i, s := range samples {
			estimates[i] = intercept
			for j, name := range features {
				estimates[i] += coefs[j] * FeatureValue(s.Features, name)
			}
		}
	}

	r2 := stat.RSquaredFrom(estimates, ys, nil)
	if !finite(r2) {
		r2 = 0
	}

	now := time.Now
	if opts.Now != nil {
		now = opts.Now
	}

	model := &Regressor{
		Features:     append([]string(nil), features...),
		Intercept:    intercept,
		Coefficients: coefs,
		Samples:      n,
		RSquared:     r2,
		TrainedAt:    now().UTC(),
	}
	if err := model.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDegenerateTrainingData, err)
	}
	model.Version = modelVersion(opts.BaseVersion, model)
	return model, nil
}

// rankTolerance is the singular value cutoff, relative to the largest, below
// which a direction of the design matrix is treated as null.
const rankTolerance = 1e-10

// solveCentered writes the minimum-norm least squares coefficients into coefs
// and returns the intercept. Columns are centred first so constant features
// get a zero coefficient and the intercept absorbs the mean.
func solveCentered(samples []models.TrainingSample, features []string, ys, coefs []float64) (float64, error) {
	n, p := len(samples), len(features)

	means := make([]float64, p)
	x := mat.NewDense(n, p, nil)
	for j, name := range features {
		col := make([]float64, n)
		for i, s := range samples {
			col[i] = FeatureValue(s.Features, name)
		}
		means[j] = stat.Mean(col, nil)
		for i, v := range col {
			x.Set(i, j, v-means[j])
		}
	}

	ymean := stat.Mean(ys, nil)
	yc := make([]float64, n)
	for i, y := range ys {
		yc[i] = y - ymean
	}

	var svd mat.SVD
	if !svd.Factorize(x, mat.SVDThin) {
		return 0, fmt.Errorf("%w: singular value decomposition failed", ErrDegenerateTrainingData)
	}
	if rank := svd.Rank(rankTolerance); rank > 0 {
		var beta mat.VecDense
		svd.SolveVecTo(&beta, mat.NewVecDense(n, yc), rank)
		for j := range coefs {
			coefs[j] = beta.AtVec(j)
		}
	}

	intercept := ymean
	for j, c := range coefs {
		intercept -= c * means[j]
	}
	return intercept, nil
}

func constant(xs []float64) bool {
	for _, x := range xs[1:] {
		if x != xs[0] {
			return false
		}
	}
	return true
}

// modelVersion derives a stable version from the fitted parameters.
func modelVersion(base string, r *Regressor) string {
	h := xxhash.New()
	var buf [8]byte
	for _, name := range r.Features {
		_, _ = h.WriteString(name)
		_, _ = h.Write([]byte{0})
	}
	params := append([]float64{r.Intercept}, r.Coefficients...)
	for _, v := range params {
		binary.LittleEndian.PutUint64(buf[:], math.Float64bits(v))
		_, _ = h.Write(buf[:])
	}
	if base == "" {
		base = "v1.0"
	}
	return fmt.Sprintf("%s-%08x", base, uint32(h.Sum64()))
}

// subsample keeps a seeded, order-preserving random subset of at most limit samples.
func subsample(samples []models.TrainingSample, limit int, seed uint64) []models.TrainingSample {
	if limit <= 0 || len(samples) <= limit {
		return samples
	}
	r := NewReservoir(limit, seed)
	for _, s := range samples {
		r.Add(s)
	}
	return r.Samples()
}

// Reservoir draws a uniform sample of at most limit items from a stream of
// unknown length (Algorithm R). For a given seed and input order the result is
// always the same. A limit of zero or less keeps everything.
type Reservoir struct {
	limit int
	seen  int
	rng   *rand.Rand
	items []models.TrainingSample
	pos   []int
}

func NewReservoir(limit int, seed uint64) *Reservoir {
	return &Reservoir{
		limit: limit,
		rng:   rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)),
	}
}

func (r *Reservoir) Add(s models.TrainingSample) {
	i := r.seen
	r.seen++
	if r.limit <= 0 || len(r.items) < r.limit {
		r.items = append(r.items, s)
		r.pos = append(r.pos, i)
		return
	}
	if j := r.rng.IntN(r.seen); j < r.limit {
		r.items[j] = s
		r.pos[j] = i
	}
}

// Seen is the number of items offered so far.
func (r *Reservoir) Seen() int { return r.seen }

// Samples returns the kept items in the order they were added.
func (r *Reservoir) Samples() []models.TrainingSample {
	order := make([]int, len(r.items))
	for i := range order {
		order[i] = i
	}
	sort.Slice(order, func(a, b int) bool { return r.pos[order[a]] < r.pos[order[b]] })
	out := make([]models.TrainingSample, len(order))
	for i, j := range order {
		out[i] = r.items[j]
	}
	return out
}

var monthlyBaseDelay = map[int]float64{
	1: 10.5, 2: 12.3, 3: 15.2, 4: 18.1, 5: 20.5, 6: 25.3,
	7: 28.7, 8: 26.2, 9: 22.1, 10: 18.5, 11: 14.2, 12: 11.8,
}

var busyHubs = map[string]bool{
	"JFK": true, "LAX": true, "SFO": true, "ORD": true,
	"ATL": true, "DFW": true, "CDG": true, "LHR": true,
}

// BaselinePredict is the seasonal heuristic served when no model is loaded
// and the fallback is enabled.
func BaselinePredict(f models.FlightFeatures) float64 {
	base, ok := monthlyBaseDelay[f.Month]
	if !ok {
		base = 15.0
	}

	day := f.Day
	if day < 1 || day > 31 {
		day = models.DefaultDay
	}
	dayAdj := 0.1 * math.Max(0, float64(day-20))

	estimate := base + dayAdj + airportAdjustment(f.OriginAirport) + airportAdjustment(f.DestAirport)
	return math.Max(0, estimate)
}

func airportAdjustment(code string) float64 {
	code = strings.ToUpper(strings.TrimSpace(code))
	switch {
	case code == "":
		return 0
	case busyHubs[code]:
		return 2.0
	default:
		return 0.5
	}
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
