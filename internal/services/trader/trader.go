// Package trader submits orders to the exchange, honoring the run mode:
// in dry-run the intended order is logged and never sent.
package trader

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"harvester/internal/domain"
	"harvester/internal/storage/journal"
)

// OrderPlacer is the single exchange operation the trader consumes.
type OrderPlacer interface {
	CreateOrder(ctx context.Context, order domain.Order) (domain.OrderAck, error)
}

// JournalWriter records submitted orders for audit.
type JournalWriter interface {
	Append(rec journal.Record) error
}

// Trader places instant orders on behalf of the evaluator.
type Trader struct {
	live    bool
	delay   time.Duration
	journal JournalWriter
	l       *zap.Logger
}

// New returns a Trader. When live is false every submission is a no-op
// beyond logging. delay is the courtesy pause after a live submission.
func New(l *zap.Logger, live bool, delay time.Duration, journal JournalWriter) *Trader {
	return &Trader{
		live:    live,
		delay:   delay,
		journal: journal,
		l:       l,
	}
}

// Submit places the order for the given user. A fresh client order id is
// assigned on every call. After a live submission the trader pauses for the
// configured courtesy delay before returning.
func (t *Trader) Submit(ctx context.Context, exchange OrderPlacer, userID string, order domain.Order) (domain.OrderAck, error) {
	order.ClientOrderID = uuid.NewString()

	fields := []zap.Field{
		zap.String("user", userID),
		zap.String("market_symbol", order.MarketSymbol),
		zap.String("side", string(order.Side)),
		zap.String("amount", order.Amount.String()),
		zap.String("client_order_id", order.ClientOrderID),
	}

	if !t.live {
		t.l.Info("dry-run mode, order not submitted", fields...)
		return domain.OrderAck{ClientOrderID: order.ClientOrderID}, nil
	}

	ack, err := exchange.CreateOrder(ctx, order)
	if err != nil {
		return domain.OrderAck{}, errors.Wrapf(err, "create %s order for %s", order.Side, order.MarketSymbol)
	}
	ack.ClientOrderID = order.ClientOrderID

	t.l.Info("order submitted", append(fields, zap.String("order_id", ack.ID))...)

	if t.journal != nil {
		rec := journal.Record{
			UserID:      userID,
			Order:       order,
			AckID:       ack.ID,
			SubmittedAt: time.Now(),
		}
		if err := t.journal.Append(rec); err != nil {
			t.l.Error("failed to journal order", zap.Error(err), zap.String("client_order_id", order.ClientOrderID))
		}
	}

	t.pause(ctx)

	return ack, nil
}

// pause waits out the courtesy delay unless the context ends first.
func (t *Trader) pause(ctx context.Context) {
	if t.delay <= 0 {
		return
	}
	select {
	case <-ctx.Done():
	case <-time.After(t.delay):
	}
}
