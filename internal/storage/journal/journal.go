// Package journal persists every submitted order in a write-ahead log so the
// agent keeps a durable audit trail across restarts.
package journal

import (
	"encoding/json"
	"strings"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/vadiminshakov/gowal"

	"harvester/internal/domain"
)

const (
	// DefaultDir is where the order log lives unless overridden.
	DefaultDir = "./wal/orders"

	segmentThreshold = 1000
	maxSegments      = 100

	orderKeyPrefix = "order_"
)

// Record is one journaled order submission.
type Record struct {
	UserID      string       `json:"user_id"`
	Order       domain.Order `json:"order"`
	AckID       string       `json:"ack_id"`
	SubmittedAt time.Time    `json:"submitted_at"`
}

// Journal is a WAL-backed order log.
type Journal struct {
	wal *gowal.Wal
	mu  sync.Mutex
}

// New opens (or creates) the order journal in dir.
func New(dir string) (*Journal, error) {
	if dir == "" {
		dir = DefaultDir
	}

	cfg := gowal.Config{
		Dir:              dir,
		Prefix:           "log_",
		SegmentThreshold: segmentThreshold,
		MaxSegments:      maxSegments,
		IsInSyncDiskMode: true,
	}

	wal, err := gowal.NewWAL(cfg)
	if err != nil {
		return nil, errors.Wrap(err, "init order journal WAL")
	}

	return &Journal{wal: wal}, nil
}

// Append writes one submission record.
func (j *Journal) Append(rec Record) error {
	if j == nil || j.wal == nil {
		return errors.New("order journal is not initialized")
	}

	payload, err := json.Marshal(rec)
	if err != nil {
		return errors.Wrap(err, "marshal order record")
	}

	j.mu.Lock()
	defer j.mu.Unlock()

	nextIndex := j.wal.CurrentIndex() + 1
	return j.wal.Write(nextIndex, orderKeyPrefix+rec.Order.ClientOrderID, payload)
}

// Records returns every journaled submission in write order.
func (j *Journal) Records() ([]Record, error) {
	if j == nil || j.wal == nil {
		return nil, errors.New("order journal is not initialized")
	}

	j.mu.Lock()
	defer j.mu.Unlock()

	var records []Record
	for msg := range j.wal.Iterator() {
		if !strings.HasPrefix(msg.Key, orderKeyPrefix) {
			continue
		}
		var rec Record
		if err := json.Unmarshal(msg.Value, &rec); err != nil {
			return nil, errors.Wrap(err, "decode order record")
		}
		records = append(records, rec)
	}

	return records, nil
}

// Close closes the underlying WAL.
func (j *Journal) Close() error {
	if j == nil || j.wal == nil {
		return errors.New("order journal is not initialized")
	}

	j.mu.Lock()
	defer j.mu.Unlock()

	return j.wal.Close()
}
