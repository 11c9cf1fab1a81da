// Package domain defines core data structures used throughout the agent.
package domain

import "github.com/shopspring/decimal"

// User is one directory entry. Users are created and managed externally;
// the agent only reads them.
type User struct {
	ID        string                  `json:"-"`
	Exchanges map[string]ExchangeLink `json:"exchanges"`
}

// ExchangeLink maps tracked cryptocurrency symbols to their positions on
// one exchange connection of a user.
type ExchangeLink struct {
	Cryptocurrencies map[string]AssetPosition `json:"cryptocurrencies"`
}

// AssetPosition is the recorded cost basis for one tracked symbol.
// Pointer fields distinguish an absent directory field from a zero value.
type AssetPosition struct {
	// BaseBalance is the settlement-currency value treated as break-even.
	BaseBalance *decimal.Decimal `json:"base_balance"`
	// FixedProfitBRL is the minimum margin above cost basis before a sell triggers.
	FixedProfitBRL *decimal.Decimal `json:"fixed_profit_brl"`
	// Name is the display name used in notifications.
	Name string `json:"name"`
}

// Validate reports whether the position carries every field the evaluation needs.
func (a AssetPosition) Validate() error {
	if a.BaseBalance == nil || a.FixedProfitBRL == nil {
		return ErrMissingField
	}
	return nil
}

// Credentials holds the encrypted exchange API keys of a user.
type Credentials struct {
	AccessKey string `json:"FOXBIT_ACCESS_KEY"`
	SecretKey string `json:"FOXBIT_SECRET_KEY"`
}
