package trader

import (
	"context"
	"testing"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"harvester/internal/domain"
	"harvester/internal/storage/journal"
)

type fakePlacer struct {
	orders []domain.Order
	err    error
}

func (f *fakePlacer) CreateOrder(_ context.Context, order domain.Order) (domain.OrderAck, error) {
	if f.err != nil {
		return domain.OrderAck{}, f.err
	}
	f.orders = append(f.orders, order)
	return domain.OrderAck{ID: "42"}, nil
}

type fakeJournal struct {
	records []journal.Record
	err     error
}

func (f *fakeJournal) Append(rec journal.Record) error {
	if f.err != nil {
		return f.err
	}
	f.records = append(f.records, rec)
	return nil
}

func testOrder() domain.Order {
	return domain.Order{
		MarketSymbol: "bitcoinbrl",
		Side:         domain.SideSell,
		Type:         domain.OrderTypeInstant,
		Amount:       decimal.NewFromFloat(109.7),
	}
}

func TestSubmitDryRun(t *testing.T) {
	placer := &fakePlacer{}
	jrnl := &fakeJournal{}
	tr := New(zap.NewNop(), false, 0, jrnl)

	ack, err := tr.Submit(context.Background(), placer, "alice", testOrder())
	require.NoError(t, err)

	assert.Empty(t, placer.orders, "dry-run must not reach the exchange")
	assert.Empty(t, jrnl.records, "dry-run must not be journaled")
	assert.NotEmpty(t, ack.ClientOrderID)
	assert.Empty(t, ack.ID)
}

func TestSubmitLive(t *testing.T) {
	placer := &fakePlacer{}
	jrnl := &fakeJournal{}
	tr := New(zap.NewNop(), true, 0, jrnl)

	ack, err := tr.Submit(context.Background(), placer, "alice", testOrder())
	require.NoError(t, err)

	require.Len(t, placer.orders, 1)
	assert.Equal(t, "bitcoinbrl", placer.orders[0].MarketSymbol)
	assert.NotEmpty(t, placer.orders[0].ClientOrderID)

	assert.Equal(t, "42", ack.ID)
	assert.Equal(t, placer.orders[0].ClientOrderID, ack.ClientOrderID)

	require.Len(t, jrnl.records, 1)
	assert.Equal(t, "alice", jrnl.records[0].UserID)
	assert.Equal(t, "42", jrnl.records[0].AckID)
	assert.False(t, jrnl.records[0].SubmittedAt.IsZero())
}

func TestSubmitAssignsFreshClientOrderID(t *testing.T) {
	placer := &fakePlacer{}
	tr := New(zap.NewNop(), true, 0, nil)

	_, err := tr.Submit(context.Background(), placer, "alice", testOrder())
	require.NoError(t, err)
	_, err = tr.Submit(context.Background(), placer, "alice", testOrder())
	require.NoError(t, err)

	require.Len(t, placer.orders, 2)
	assert.NotEqual(t, placer.orders[0].ClientOrderID, placer.orders[1].ClientOrderID)
}

func TestSubmitExchangeError(t *testing.T) {
	placer := &fakePlacer{err: errors.New("insufficient funds")}
	jrnl := &fakeJournal{}
	tr := New(zap.NewNop(), true, 0, jrnl)

	_, err := tr.Submit(context.Background(), placer, "alice", testOrder())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "insufficient funds")
	assert.Empty(t, jrnl.records)
}

func TestSubmitJournalErrorDoesNotFailOrder(t *testing.T) {
	placer := &fakePlacer{}
	tr := New(zap.NewNop(), true, 0, &fakeJournal{err: errors.New("disk full")})

	ack, err := tr.Submit(context.Background(), placer, "alice", testOrder())
	require.NoError(t, err, "journaling is best effort")
	assert.Equal(t, "42", ack.ID)
}
