package predictor

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"harvester/internal/domain"
)

// syntheticSeries builds a deterministic daily series around a linear trend
// with a small oscillation so the regression matrix stays well conditioned.
func syntheticSeries(n int, start, slope float64) domain.PriceSeries {
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	series := make(domain.PriceSeries, n)
	for i := 0; i < n; i++ {
		series[i] = domain.PricePoint{
			Timestamp: base.AddDate(0, 0, i),
			Price:     start + slope*float64(i) + 3*math.Sin(float64(i)*1.3),
		}
	}
	return series
}

func TestPredictInsufficientHistory(t *testing.T) {
	p := New(zap.NewNop())

	_, err := p.Predict(syntheticSeries(20, 100, 1))
	require.Error(t, err)
	require.ErrorIs(t, err, domain.ErrInsufficientHistory)

	// one observation short of window+holdout still fails
	_, err = p.Predict(syntheticSeries(27, 100, 1))
	require.ErrorIs(t, err, domain.ErrInsufficientHistory)
}

func TestPredictFallingTrend(t *testing.T) {
	p := New(zap.NewNop())

	result, err := p.Predict(syntheticSeries(100, 300, -2))
	require.NoError(t, err)

	assert.Equal(t, StatusBelow, result.ShortWindow.Status)
	assert.Equal(t, StatusBelow, result.Forecast.Status)
	assert.Less(t, result.ShortWindow.PercentDiff, -5.0)
	assert.Less(t, result.Forecast.PercentDiff, -5.0)
}

func TestPredictRisingTrend(t *testing.T) {
	p := New(zap.NewNop())

	result, err := p.Predict(syntheticSeries(100, 100, 2))
	require.NoError(t, err)

	assert.Equal(t, StatusAbove, result.ShortWindow.Status)
	assert.Positive(t, result.ShortWindow.PercentDiff)
	assert.Equal(t, StatusAbove, result.Forecast.Status)
}

func TestPredictDoubleWindowMatchesShortWindow(t *testing.T) {
	// the double-window signal intentionally mirrors the short-window one
	p := New(zap.NewNop())

	for _, slope := range []float64{-2, 0.5, 2} {
		result, err := p.Predict(syntheticSeries(80, 200, slope))
		require.NoError(t, err)
		assert.Equal(t, result.ShortWindow, result.DoubleWindow)
	}
}

func TestPredictIsDeterministic(t *testing.T) {
	p := New(zap.NewNop())
	series := syntheticSeries(90, 150, -1)

	first, err := p.Predict(series)
	require.NoError(t, err)
	second, err := p.Predict(series)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestPredictSortsUnorderedSeries(t *testing.T) {
	p := New(zap.NewNop())

	ordered := syntheticSeries(60, 120, 1.5)
	shuffled := make(domain.PriceSeries, len(ordered))
	copy(shuffled, ordered)
	for i := 0; i < len(shuffled)-1; i += 2 {
		shuffled[i], shuffled[i+1] = shuffled[i+1], shuffled[i]
	}

	fromOrdered, err := p.Predict(ordered)
	require.NoError(t, err)
	fromShuffled, err := p.Predict(shuffled)
	require.NoError(t, err)

	assert.Equal(t, fromOrdered, fromShuffled)
}

func TestBuildSamples(t *testing.T) {
	prices := make([]float64, 50)
	for i := range prices {
		prices[i] = float64(i)
	}

	features, targets := buildSamples(prices, 14)

	require.Len(t, features, 37) // len - window + 1
	require.Len(t, targets, 37)
	for _, f := range features {
		assert.Len(t, f, 13) // window - 1
	}
	assert.Equal(t, prices[13], targets[0])
	assert.Equal(t, prices[:13], features[0])
	assert.Equal(t, prices[len(prices)-1], targets[len(targets)-1])
}

func TestCompareToAverage(t *testing.T) {
	above := compareToAverage(110, 100)
	assert.Equal(t, StatusAbove, above.Status)
	assert.InDelta(t, 10.0, above.PercentDiff, 1e-9)

	below := compareToAverage(90, 100)
	assert.Equal(t, StatusBelow, below.Status)
	assert.InDelta(t, -10.0, below.PercentDiff, 1e-9)

	// exact equality classifies as below
	equal := compareToAverage(100, 100)
	assert.Equal(t, StatusBelow, equal.Status)
	assert.Zero(t, equal.PercentDiff)
}

func TestWindowAverage(t *testing.T) {
	prices := []float64{1, 2, 3, 4, 5, 6}
	// mean of the last 3 observations
	assert.InDelta(t, 5.0, windowAverage(prices, 3), 1e-9)
}

func TestFitLeastSquaresRecoversLinearModel(t *testing.T) {
	// y = 2*x0 - x1 + 5 with mild feature variation
	features := [][]float64{
		{1, 2}, {2, 1}, {3, 5}, {4, 2}, {5, 7}, {6, 1}, {7, 4},
	}
	targets := make([]float64, len(features))
	for i, f := range features {
		targets[i] = 2*f[0] - f[1] + 5
	}

	model, err := fitLeastSquares(features, targets)
	require.NoError(t, err)

	for i, f := range features {
		assert.InDelta(t, targets[i], model.predict(f), 1e-6)
	}
	assert.InDelta(t, 2*8.0-3.0+5, model.predict([]float64{8, 3}), 1e-6)
}
