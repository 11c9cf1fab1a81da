// Package evaluator walks the user directory each cycle, computes profit
// state for every tracked asset and triggers sell or re-entry orders.
package evaluator

import (
	"context"
	"sort"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"harvester/internal/domain"
	"harvester/internal/services/predictor"
	"harvester/internal/services/trader"
)

// Directory is the user/asset store the cycle iterates over.
type Directory interface {
	Users(ctx context.Context) (map[string]domain.User, error)
	Credentials(ctx context.Context, userID string) (*domain.Credentials, error)
}

// Exchange is the per-user spot exchange connection.
type Exchange interface {
	Accounts(ctx context.Context) ([]domain.Balance, error)
	Quote(ctx context.Context, side, baseCurrency, quoteCurrency string, amount decimal.Decimal) (domain.Quote, error)
	CreateOrder(ctx context.Context, order domain.Order) (domain.OrderAck, error)
}

// ExchangeFactory builds an Exchange from decrypted API credentials.
type ExchangeFactory func(accessKey, secretKey string) Exchange

// History fetches the daily price series of a symbol.
type History interface {
	DailyPrices(ctx context.Context, symbol string, days int) (domain.PriceSeries, error)
}

// TrendPredictor classifies the short-term trend of a price series.
type TrendPredictor interface {
	Predict(series domain.PriceSeries) (predictor.Result, error)
}

// OrderSubmitter places an order on the exchange, honoring the run mode.
type OrderSubmitter interface {
	Submit(ctx context.Context, exchange trader.OrderPlacer, userID string, order domain.Order) (domain.OrderAck, error)
}

// Notifier records a user-visible alert for a completed sale.
type Notifier interface {
	NotifySale(ctx context.Context, userID, symbol, assetName string, profit, amount decimal.Decimal) error
}

// Decryptor recovers plaintext API keys from directory credential tokens.
type Decryptor interface {
	Decrypt(token string) (string, error)
}

// Config carries the evaluation parameters that are not collaborators.
type Config struct {
	// QuoteCurrency is the settlement currency of every quote and order.
	QuoteCurrency string
	// EnabledSymbols is the allow-list of symbols eligible for the buy path.
	EnabledSymbols []string
	// HistoryDays is the price-history depth fetched for the buy path.
	HistoryDays int
}

// Evaluator runs one full directory sweep per call.
type Evaluator struct {
	directory   Directory
	newExchange ExchangeFactory
	history     History
	predictor   TrendPredictor
	submitter   OrderSubmitter
	notifier    Notifier
	decryptor   Decryptor

	quoteCurrency  string
	enabledSymbols map[string]struct{}
	historyDays    int

	l *zap.Logger
}

// New wires an Evaluator from its collaborators.
func New(
	l *zap.Logger,
	directory Directory,
	newExchange ExchangeFactory,
	history History,
	trendPredictor TrendPredictor,
	submitter OrderSubmitter,
	notifier Notifier,
	decryptor Decryptor,
	cfg Config,
) *Evaluator {
	enabled := make(map[string]struct{}, len(cfg.EnabledSymbols))
	for _, symbol := range cfg.EnabledSymbols {
		enabled[symbol] = struct{}{}
	}

	return &Evaluator{
		directory:      directory,
		newExchange:    newExchange,
		history:        history,
		predictor:      trendPredictor,
		submitter:      submitter,
		notifier:       notifier,
		decryptor:      decryptor,
		quoteCurrency:  cfg.QuoteCurrency,
		enabledSymbols: enabled,
		historyDays:    cfg.HistoryDays,
		l:              l,
	}
}

// EvaluateCycle sweeps every user, exchange link and tracked asset once.
// Per-asset failures are logged and skipped; only a directory read failure
// aborts the cycle and propagates to the supervisor.
func (e *Evaluator) EvaluateCycle(ctx context.Context) error {
	e.l.Info("market conditions evaluation started")

	users, err := e.directory.Users(ctx)
	if err != nil {
		return errors.Wrap(err, "read user directory")
	}
	if len(users) == 0 {
		return nil
	}

	for _, userID := range sortedKeys(users) {
		e.evaluateUser(ctx, userID, users[userID])
	}

	return nil
}

func (e *Evaluator) evaluateUser(ctx context.Context, userID string, user domain.User) {
	exchange, err := e.connect(ctx, userID)
	if err != nil {
		if errors.Is(err, domain.ErrMissingCredentials) {
			e.l.Info("user has no exchange credentials, skipping", zap.String("user", userID))
			return
		}
		e.l.Error("failed to open exchange connection", zap.String("user", userID), zap.Error(err))
		return
	}

	for _, linkName := range sortedKeys(user.Exchanges) {
		link := user.Exchanges[linkName]
		if len(link.Cryptocurrencies) == 0 {
			continue
		}

		for _, symbol := range sortedKeys(link.Cryptocurrencies) {
			if err := e.evaluateAsset(ctx, exchange, userID, symbol, link.Cryptocurrencies[symbol]); err != nil {
				e.l.Error("asset evaluation failed",
					zap.String("user", userID),
					zap.String("symbol", symbol),
					zap.Error(err))
			}
		}
	}
}

// connect decrypts the user's credentials and builds the exchange client.
func (e *Evaluator) connect(ctx context.Context, userID string) (Exchange, error) {
	creds, err := e.directory.Credentials(ctx, userID)
	if err != nil {
		return nil, err
	}
	if creds == nil {
		return nil, domain.ErrMissingCredentials
	}

	accessKey, err := e.decryptor.Decrypt(creds.AccessKey)
	if err != nil {
		return nil, errors.Wrap(err, "decrypt access key")
	}
	secretKey, err := e.decryptor.Decrypt(creds.SecretKey)
	if err != nil {
		return nil, errors.Wrap(err, "decrypt secret key")
	}

	return e.newExchange(accessKey, secretKey), nil
}

func (e *Evaluator) evaluateAsset(ctx context.Context, exchange Exchange, userID, symbol string, position domain.AssetPosition) error {
	if err := position.Validate(); err != nil {
		return err
	}

	balances, err := exchange.Accounts(ctx)
	if err != nil {
		return errors.Wrap(err, "list account balances")
	}

	available, ok := findBalance(balances, symbol)
	if !ok {
		e.l.Info("symbol not present in exchange balances, skipping",
			zap.String("user", userID),
			zap.String("symbol", symbol))
		return nil
	}

	quote, err := exchange.Quote(ctx, "buy", symbol, e.quoteCurrency, decimal.NewFromInt(1))
	if err != nil {
		return errors.Wrap(err, "fetch instant quote")
	}

	assetValue := available.Mul(quote.Price)

	sell, err := EvaluateSell(assetValue, position)
	if err != nil {
		return err
	}

	e.l.Info("position evaluated",
		zap.String("user", userID),
		zap.String("symbol", symbol),
		zap.String("asset_value", assetValue.String()),
		zap.String("difference", sell.Profit.String()),
		zap.String("profit_percent", sell.ProfitPercent.StringFixed(1)))

	if sell.Triggered {
		return e.executeSell(ctx, exchange, userID, symbol, position, sell)
	}

	if _, enabled := e.enabledSymbols[symbol]; enabled && BuyEligible(assetValue) {
		return e.evaluateReentry(ctx, exchange, userID, symbol, position)
	}

	return nil
}

func (e *Evaluator) executeSell(ctx context.Context, exchange Exchange, userID, symbol string, position domain.AssetPosition, sell SellDecision) error {
	order := domain.Order{
		MarketSymbol: symbol + e.quoteCurrency,
		Side:         domain.SideSell,
		Type:         domain.OrderTypeInstant,
		Amount:       sell.Amount,
	}

	if _, err := e.submitter.Submit(ctx, exchange, userID, order); err != nil {
		return errors.Wrap(err, "submit sell order")
	}

	if err := e.notifier.NotifySale(ctx, userID, symbol, position.Name, sell.Profit, sell.Amount); err != nil {
		return errors.Wrap(err, "write sale notification")
	}

	return nil
}

func (e *Evaluator) evaluateReentry(ctx context.Context, exchange Exchange, userID, symbol string, position domain.AssetPosition) error {
	series, err := e.history.DailyPrices(ctx, symbol, e.historyDays)
	if err != nil {
		return errors.Wrap(err, "fetch price history")
	}

	signals, err := e.predictor.Predict(series)
	if err != nil {
		return errors.Wrap(err, "run trend prediction")
	}

	buy := EvaluateBuy(position, signals)
	if !buy.Triggered {
		e.l.Info("trend signals do not support re-entry",
			zap.String("user", userID),
			zap.String("symbol", symbol),
			zap.Float64("short_diff", signals.ShortWindow.PercentDiff),
			zap.Float64("double_diff", signals.DoubleWindow.PercentDiff),
			zap.Float64("forecast_diff", signals.Forecast.PercentDiff))
		return nil
	}

	order := domain.Order{
		MarketSymbol: symbol + e.quoteCurrency,
		Side:         domain.SideBuy,
		Type:         domain.OrderTypeInstant,
		Amount:       buy.Amount,
	}

	if _, err := e.submitter.Submit(ctx, exchange, userID, order); err != nil {
		return errors.Wrap(err, "submit buy order")
	}

	return nil
}

func findBalance(balances []domain.Balance, symbol string) (decimal.Decimal, bool) {
	for _, b := range balances {
		if b.CurrencySymbol == symbol {
			return b.Available, true
		}
	}
	return decimal.Decimal{}, false
}

// sortedKeys keeps traversal order stable across cycles.
func sortedKeys[M ~map[string]V, V any](m M) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
