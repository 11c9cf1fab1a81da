// Package predictor classifies the short-term price trend of an asset from
// its daily price history. It fits a linear model over sliding windows of
// the series and compares the latest price and the next-day forecast
// against the recent moving average.
package predictor

import (
	"github.com/cinar/indicator/v2/helper"
	"github.com/cinar/indicator/v2/trend"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"harvester/internal/domain"
)

const (
	// DefaultWindow is the number of consecutive observations per feature window.
	DefaultWindow = 14
	// DefaultHoldout is the number of most recent samples reserved for evaluation.
	DefaultHoldout = 14
)

// Status classifies a value against the recent average.
type Status string

const (
	StatusAbove Status = "above"
	StatusBelow Status = "below"
)

// Signal is one above/below-average classification.
type Signal struct {
	PercentDiff float64
	Status      Status
}

// Result carries the three trend signals feeding the buy decision, in order:
// short-window, double-window, next-day forecast vs window average.
type Result struct {
	ShortWindow  Signal
	DoubleWindow Signal
	Forecast     Signal
}

// Predictor turns a price series into trend signals. Stateless between calls.
type Predictor struct {
	window  int
	holdout int
	l       *zap.Logger
}

// Option configures a Predictor.
type Option func(*Predictor)

// WithWindow overrides the feature window size.
func WithWindow(n int) Option {
	return func(p *Predictor) { p.window = n }
}

// WithHoldout overrides the evaluation holdout size.
func WithHoldout(n int) Option {
	return func(p *Predictor) { p.holdout = n }
}

// New returns a Predictor with the default window and holdout sizes.
func New(l *zap.Logger, opts ...Option) *Predictor {
	p := &Predictor{
		window:  DefaultWindow,
		holdout: DefaultHoldout,
		l:       l,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Predict runs the full pipeline over the series. The series is sorted in
// place by timestamp first, so an already ordered series is unchanged.
// Returns domain.ErrInsufficientHistory when the series is shorter than
// window+holdout observations.
func (p *Predictor) Predict(series domain.PriceSeries) (Result, error) {
	if len(series) < p.window+p.holdout {
		return Result{}, errors.Wrapf(domain.ErrInsufficientHistory,
			"need at least %d observations, got %d", p.window+p.holdout, len(series))
	}

	series.Sort()
	prices := series.Prices()

	features, targets := buildSamples(prices, p.window)

	split := len(features) - p.holdout
	model, err := fitLeastSquares(features[:split], targets[:split])
	if err != nil {
		return Result{}, errors.Wrap(err, "train linear model")
	}

	metrics := evaluateModel(model, features[split:], targets[split:])
	p.l.Info("model evaluation on holdout",
		zap.Int("samples", len(features)),
		zap.Float64("mae", metrics.MAE),
		zap.Float64("rmse", metrics.RMSE),
		zap.Float64("r2", metrics.R2))

	average := windowAverage(prices, p.window)
	latest := prices[len(prices)-1]

	short := compareToAverage(latest, average)
	// the double-window signal tracks the same window-sized average as the
	// short signal, matching the behavior the notification feed was built on
	double := compareToAverage(latest, average)

	forecast := model.predict(prices[len(prices)-(p.window-1):])
	next := compareToAverage(forecast, average)

	p.l.Info("trend signals",
		zap.Float64("window_average", average),
		zap.Float64("latest_price", latest),
		zap.Float64("forecast", forecast),
		zap.Float64("short_diff", short.PercentDiff),
		zap.String("short_status", string(short.Status)),
		zap.Float64("forecast_diff", next.PercentDiff),
		zap.String("forecast_status", string(next.Status)))

	return Result{
		ShortWindow:  short,
		DoubleWindow: double,
		Forecast:     next,
	}, nil
}

// buildSamples slides a window over the series: each feature vector holds
// window-1 consecutive prices and the target is the price right after them.
// A series of length L yields L-window+1 samples.
func buildSamples(prices []float64, window int) (features [][]float64, targets []float64) {
	for i := 0; i <= len(prices)-window; i++ {
		features = append(features, prices[i:i+window-1])
		targets = append(targets, prices[i+window-1])
	}
	return features, targets
}

// windowAverage returns the mean of the last window observations, taken as
// the final value of a window-period simple moving average.
func windowAverage(prices []float64, window int) float64 {
	sma := trend.NewSmaWithPeriod[float64](window)
	out := helper.ChanToSlice(sma.Compute(helper.SliceToChan(prices)))
	return out[len(out)-1]
}

// compareToAverage classifies value against reference. Equality counts as below.
func compareToAverage(value, reference float64) Signal {
	diff := (value - reference) / reference * 100
	status := StatusBelow
	if value > reference {
		status = StatusAbove
	}
	return Signal{PercentDiff: diff, Status: status}
}
