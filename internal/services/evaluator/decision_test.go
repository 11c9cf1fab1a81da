package evaluator

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"harvester/internal/domain"
	"harvester/internal/services/predictor"
)

func position(base, fixedProfit float64) domain.AssetPosition {
	b := decimal.NewFromFloat(base)
	f := decimal.NewFromFloat(fixedProfit)
	return domain.AssetPosition{BaseBalance: &b, FixedProfitBRL: &f, Name: "Bitcoin"}
}

func TestEvaluateSellTriggers(t *testing.T) {
	// base 100, fixed profit 2, value 115: 15% profit over a 102.3 floor
	decision, err := EvaluateSell(decimal.NewFromFloat(115), position(100, 2))
	require.NoError(t, err)

	assert.True(t, decision.Triggered)
	assert.True(t, decision.Amount.Equal(decimal.NewFromFloat(109.7)), "amount = asset value minus settlement fee, got %s", decision.Amount)
	assert.True(t, decision.Profit.Equal(decimal.NewFromInt(15)))
	assert.True(t, decision.ProfitPercent.Equal(decimal.NewFromInt(15)))
}

func TestEvaluateSellBelowProfitPercent(t *testing.T) {
	// 5% profit stays under the 10% minimum even though value clears the floor
	decision, err := EvaluateSell(decimal.NewFromFloat(105), position(100, 2))
	require.NoError(t, err)

	assert.False(t, decision.Triggered)
	assert.True(t, decision.ProfitPercent.Equal(decimal.NewFromInt(5)))
}

func TestEvaluateSellBelowMarginFloor(t *testing.T) {
	// 15% profit but the fixed margin pushes the floor past the asset value
	decision, err := EvaluateSell(decimal.NewFromFloat(115), position(100, 20))
	require.NoError(t, err)

	assert.False(t, decision.Triggered)
}

func TestEvaluateSellExactBoundaries(t *testing.T) {
	// profit of exactly 10% and value exactly on the floor both count
	decision, err := EvaluateSell(decimal.NewFromFloat(110), position(100, 9.7))
	require.NoError(t, err)

	assert.True(t, decision.Triggered)
}

func TestEvaluateSellZeroCostBasis(t *testing.T) {
	_, err := EvaluateSell(decimal.NewFromFloat(50), position(0, 2))
	require.ErrorIs(t, err, domain.ErrZeroCostBasis)
}

func TestEvaluateSellMissingField(t *testing.T) {
	base := decimal.NewFromInt(100)

	_, err := EvaluateSell(decimal.NewFromFloat(115), domain.AssetPosition{BaseBalance: &base})
	require.ErrorIs(t, err, domain.ErrMissingField)

	fixed := decimal.NewFromInt(2)
	_, err = EvaluateSell(decimal.NewFromFloat(115), domain.AssetPosition{FixedProfitBRL: &fixed})
	require.ErrorIs(t, err, domain.ErrMissingField)
}

func TestBuyEligible(t *testing.T) {
	assert.True(t, BuyEligible(decimal.NewFromFloat(8)))
	assert.True(t, BuyEligible(decimal.NewFromFloat(9.99)))
	assert.False(t, BuyEligible(decimal.NewFromInt(10)))
	assert.False(t, BuyEligible(decimal.NewFromInt(115)))
}

func bearishSignals(short, double, forecast float64) predictor.Result {
	return predictor.Result{
		ShortWindow:  predictor.Signal{PercentDiff: short, Status: predictor.StatusBelow},
		DoubleWindow: predictor.Signal{PercentDiff: double, Status: predictor.StatusBelow},
		Forecast:     predictor.Signal{PercentDiff: forecast, Status: predictor.StatusBelow},
	}
}

func TestEvaluateBuyTriggers(t *testing.T) {
	decision := EvaluateBuy(position(100, 2), bearishSignals(-6.0, -5.5, -5.2))

	assert.True(t, decision.Triggered)
	assert.True(t, decision.Amount.Equal(decimal.NewFromInt(100)), "buy re-enters with the cost basis")
}

func TestEvaluateBuyThresholdBoundary(t *testing.T) {
	// exactly -5.0 on every signal still triggers
	assert.True(t, EvaluateBuy(position(50, 1), bearishSignals(-5.0, -5.0, -5.0)).Triggered)

	// one signal short of the threshold does not
	assert.False(t, EvaluateBuy(position(50, 1), bearishSignals(-6.0, -4.9, -5.2)).Triggered)
}

func TestEvaluateBuyRejectsAboveSignal(t *testing.T) {
	signals := bearishSignals(-6.0, -5.5, -5.2)
	signals.DoubleWindow.Status = predictor.StatusAbove

	assert.False(t, EvaluateBuy(position(100, 2), signals).Triggered)
}
