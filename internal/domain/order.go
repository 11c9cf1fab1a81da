package domain

import "github.com/shopspring/decimal"

// Side of an order.
type Side string

const (
	SideBuy  Side = "BUY"
	SideSell Side = "SELL"
)

// OrderType of an order. The agent only places instant orders.
type OrderType string

// OrderTypeInstant executes immediately at best available price.
const OrderTypeInstant OrderType = "INSTANT"

// Order is an instruction submitted to the exchange.
type Order struct {
	MarketSymbol  string          `json:"market_symbol"`
	Side          Side            `json:"side"`
	Type          OrderType       `json:"type"`
	Amount        decimal.Decimal `json:"amount"`
	ClientOrderID string          `json:"client_order_id,omitempty"`
}

// OrderAck is the exchange acknowledgement of a submitted order.
type OrderAck struct {
	ID            string
	ClientOrderID string
}

// Balance is one account entry returned by the exchange.
type Balance struct {
	CurrencySymbol string
	Available      decimal.Decimal
}

// Quote is an instantaneous conversion price for one side and amount.
type Quote struct {
	Price decimal.Decimal
}

// Notification is a user-visible alert record, written once and never mutated.
type Notification struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}
