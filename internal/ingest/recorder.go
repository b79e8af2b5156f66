// Package ingest stores incoming telemetry records off the request path.
package ingest

import (
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/panjf2000/ants/v2"
	"github.com/vincentbai/browsetrace-dashboard/internal/models"
)

// Store is the subset of the database the recorder writes to.
type Store interface {
	ValidateRecord(record models.UserRecord) error
	InsertRecords(records []models.UserRecord) error
}

// Recorder validates records synchronously and inserts them on a bounded
// worker pool.
type Recorder struct {
	store  Store
	pool   *ants.Pool
	wg     sync.WaitGroup
	logger *slog.Logger

	inserted atomic.Int64
	failed   atomic.Int64
}

func NewRecorder(store Store, workers, queue int, logger *slog.Logger) (*Recorder, error) {
	pool, err := ants.NewPool(
		workers,
		ants.WithMaxBlockingTasks(queue),
		ants.WithPanicHandler(func(p interface{}) {
			logger.Error("Insert worker panicked", "panic", p)
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create worker pool: %w", err)
	}
	return &Recorder{store: store, pool: pool, logger: logger}, nil
}

// Submit validates every record and queues the batch for insertion.
// Validation errors are returned before anything is queued.
func (r *Recorder) Submit(records []models.UserRecord) error {
	for i, record := range records {
		if err := r.store.ValidateRecord(record); err != nil {
			return fmt.Errorf("record %d: %w", i, err)
		}
	}
	batch := append([]models.UserRecord(nil), records...)

	r.wg.Add(1)
	err := r.pool.Submit(func() {
		defer r.wg.Done()
		if err := r.store.InsertRecords(batch); err != nil {
			r.failed.Add(int64(len(batch)))
			r.logger.Error("Failed to insert records", "count", len(batch), "error", err)
			return
		}
		r.inserted.Add(int64(len(batch)))
		r.logger.Debug("Inserted records", "count", len(batch))
	})
	if err != nil {
		r.wg.Done()
		return fmt.Errorf("failed to queue records: %w", err)
	}
	return nil
}

// Flush blocks until every queued batch has been written.
func (r *Recorder) Flush() {
	r.wg.Wait()
}

func (r *Recorder) Stats() (inserted, failed int64) {
	return r.inserted.Load(), r.failed.Load()
}

// Close waits for queued batches and releases the pool.
func (r *Recorder) Close(timeout time.Duration) error {
	r.Flush()
	return r.pool.ReleaseTimeout(timeout)
}
