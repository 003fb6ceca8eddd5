// This file implements a generic, batched loader that drains rows from a
// channel and invokes a bulk-insert function (CopyFn) per batch.
//
// Logging: on every successful flush, a concise progress line is emitted with
// running totals and instantaneous rows/sec since the previous flush.
package storage

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"ratetables/internal/metrics"
)

// CopyFn abstracts a backend's bulk insert capability. Implementations insert
// the provided rows (aligned to 'columns' order) and return the number of
// rows reported as inserted.
type CopyFn func(ctx context.Context, columns []string, rows [][]any) (int64, error)

// BatchOptions labels and sizes one LoadBatches call.
type BatchOptions struct {
	Job    string
	Table  string
	Size   int
	Logger *zap.Logger
}

// LoadBatches drains rows from 'in', groups them into batches of opt.Size,
// and calls 'copyFn' for each non-empty batch. It returns the total number of
// rows reported by copyFn and the first error encountered.
//
// Cancellation: returns (total, ctx.Err()) when canceled. Progress is logged
// at debug level on each successful flush.
func LoadBatches(
	ctx context.Context,
	opt BatchOptions,
	columns []string,
	in <-chan []any,
	copyFn CopyFn,
) (int64, error) {
	if opt.Size <= 0 {
		return 0, fmt.Errorf("batch size must be > 0")
	}
	if copyFn == nil {
		return 0, fmt.Errorf("copyFn must not be nil")
	}
	logger := opt.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.With(zap.String("table", opt.Table))

	var (
		total       int64
		batches     int64
		batch       = make([][]any, 0, opt.Size)
		start       = time.Now()
		lastFlushTS = start
		lastTotal   int64
	)

	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		n, err := copyFn(ctx, columns, batch)
		total += n

		// Reuse allocated slice; keep capacity to avoid churn.
		batch = batch[:0]

		if err != nil {
			logger.Error("copy failed", zap.Int64("after", n), zap.Int64("total", total), zap.Error(err))
			return err
		}

		batches++
		metrics.RecordBatches(opt.Job, opt.Table, 1)
		metrics.RecordRows(opt.Job, opt.Table, "inserted", n)

		now := time.Now()
		sinceLast := now.Sub(lastFlushTS)
		rps := float64(0)
		if sinceLast > 0 {
			rps = float64(total-lastTotal) / sinceLast.Seconds()
		}
		logger.Debug("batch flushed",
			zap.Int64("batch", batches),
			zap.Float64("rps", rps),
			zap.Int64("inserted", n),
			zap.Int64("total_inserted", total),
			zap.Duration("elapsed", now.Sub(start).Truncate(time.Millisecond)),
			zap.Duration("since_last", sinceLast.Truncate(time.Millisecond)),
		)
		lastFlushTS = now
		lastTotal = total
		return nil
	}

	for {
		select {
		case <-ctx.Done():
			return total, ctx.Err()

		case row, ok := <-in:
			if !ok {
				// Channel closed: flush remaining rows.
				if err := flush(); err != nil {
					return total, err
				}
				logger.Debug("input closed", zap.Int64("batches", batches), zap.Int64("total_inserted", total))
				return total, nil
			}
			batch = append(batch, row)
			if len(batch) >= opt.Size {
				if err := flush(); err != nil {
					return total, err
				}
			}
		}
	}
}

// Feed sends the values of rows on a new channel and closes it when done or
// when ctx is canceled. It is the producer side of LoadBatches.
func Feed[T interface{ Values() []any }](ctx context.Context, rows []T) <-chan []any {
	out := make(chan []any, 64)
	go func() {
		defer close(out)
		for i := range rows {
			select {
			case out <- rows[i].Values():
			case <-ctx.Done():
				return
			}
		}
	}()
	return out
}
