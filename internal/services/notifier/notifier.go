// Package notifier appends sale alerts to a user's message feed.
package notifier

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"harvester/internal/domain"
)

// timestampKeyLayout names each feed entry; entries are write-once.
const timestampKeyLayout = "20060102150405"

// FeedWriter appends one notification under a generated key.
type FeedWriter interface {
	AppendNotification(ctx context.Context, userID, feed, key string, n domain.Notification) error
}

// Notifier formats and records user-visible sale alerts.
type Notifier struct {
	directory FeedWriter
	feed      string
	location  *time.Location
	now       func() time.Time
	l         *zap.Logger
}

// New returns a Notifier writing to the given feed. Keys are timestamped in
// the America/Sao_Paulo zone the feed historically uses.
func New(l *zap.Logger, directory FeedWriter, feed string) (*Notifier, error) {
	location, err := time.LoadLocation("America/Sao_Paulo")
	if err != nil {
		return nil, errors.Wrap(err, "load feed timezone")
	}

	return &Notifier{
		directory: directory,
		feed:      feed,
		location:  location,
		now:       time.Now,
		l:         l,
	}, nil
}

// NotifySale records the alert for one completed sale.
func (n *Notifier) NotifySale(ctx context.Context, userID, symbol, assetName string, profit, amount decimal.Decimal) error {
	notification := domain.Notification{
		Title: fmt.Sprintf("Short-term profit of %s (+**%s**)!",
			strings.ToUpper(symbol), profit.StringFixed(2)),
		Description: fmt.Sprintf("At this very moment I made a **sale** of R$**%s** worth of %s!!",
			amount.StringFixed(2), assetName),
	}

	key := n.now().In(n.location).Format(timestampKeyLayout)

	if err := n.directory.AppendNotification(ctx, userID, n.feed, key, notification); err != nil {
		return errors.Wrap(err, "append notification")
	}

	n.l.Info("sale notification recorded",
		zap.String("user", userID),
		zap.String("symbol", symbol),
		zap.String("key", key))

	return nil
}
