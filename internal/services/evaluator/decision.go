package evaluator

import (
	"github.com/shopspring/decimal"

	"harvester/internal/domain"
	"harvester/internal/services/predictor"
)

// Decision thresholds, all in the settlement currency unless noted.
var (
	// minProfitPercent is the minimum profit over cost basis before a sell triggers.
	minProfitPercent = decimal.NewFromFloat(10.0)
	// sellBuffer is added on top of the fixed profit margin in the sell floor.
	sellBuffer = decimal.NewFromFloat(0.3)
	// settlementFee is subtracted from the asset value to size a sell order.
	settlementFee = decimal.NewFromFloat(5.3)
	// buyCeiling is the asset value under which the buy path is considered.
	buyCeiling = decimal.NewFromFloat(10.0)
)

// signalThreshold is the maximum percent difference a trend signal may carry
// for the buy path to fire.
const signalThreshold = -5.0

// SellDecision is the outcome of the pure sell evaluation.
type SellDecision struct {
	Triggered bool
	// Amount is the order size in settlement currency when triggered.
	Amount decimal.Decimal
	// Profit is the realized difference over cost basis, rounded to 4 places.
	Profit decimal.Decimal
	// ProfitPercent is Profit relative to cost basis.
	ProfitPercent decimal.Decimal
}

// BuyDecision is the outcome of the pure buy evaluation.
type BuyDecision struct {
	Triggered bool
	// Amount is the cost basis to re-enter with when triggered.
	Amount decimal.Decimal
}

// EvaluateSell computes profit state for one position and decides whether a
// sell should fire. No I/O. Returns domain.ErrZeroCostBasis when the cost
// basis is zero and domain.ErrMissingField when the position is incomplete.
func EvaluateSell(assetValue decimal.Decimal, position domain.AssetPosition) (SellDecision, error) {
	if err := position.Validate(); err != nil {
		return SellDecision{}, err
	}

	base := *position.BaseBalance
	if base.IsZero() {
		return SellDecision{}, domain.ErrZeroCostBasis
	}

	difference := assetValue.Sub(base).Round(4)
	profitPercent := difference.Mul(decimal.NewFromInt(100)).Div(base)

	decision := SellDecision{
		Profit:        difference,
		ProfitPercent: profitPercent,
	}

	floor := base.Add(position.FixedProfitBRL.Add(sellBuffer))
	if profitPercent.GreaterThanOrEqual(minProfitPercent) && assetValue.GreaterThanOrEqual(floor) {
		decision.Triggered = true
		decision.Amount = assetValue.Sub(settlementFee)
	}

	return decision, nil
}

// BuyEligible reports whether the asset value is low enough for the buy path.
func BuyEligible(assetValue decimal.Decimal) bool {
	return assetValue.LessThan(buyCeiling)
}

// EvaluateBuy decides whether a re-entry buy should fire given the trend
// signals. All three signals must classify below the average and carry a
// percent difference at or under the signal threshold.
func EvaluateBuy(position domain.AssetPosition, signals predictor.Result) BuyDecision {
	for _, s := range []predictor.Signal{signals.ShortWindow, signals.DoubleWindow, signals.Forecast} {
		if s.Status != predictor.StatusBelow || s.PercentDiff > signalThreshold {
			return BuyDecision{}
		}
	}

	return BuyDecision{
		Triggered: true,
		Amount:    *position.BaseBalance,
	}
}
