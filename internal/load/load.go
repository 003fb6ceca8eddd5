// Package load writes a rate-table set into a relational store in a single
// transaction: drop (when replacing), create tables and indexes, insert
// parents before children, verify every declared relationship in both
// directions, then commit. Any failure rolls the whole load back.
package load

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"ratetables/internal/config"
	"ratetables/internal/ddl"
	"ratetables/internal/metrics"
	"ratetables/internal/ratetable"
	"ratetables/internal/schema"
	"ratetables/internal/storage"
)

// Options configures a load.
type Options struct {
	Job string

	// Replace drops the rate tables before creating them.
	Replace bool

	// BatchSize is the number of rows per CopyFrom call.
	BatchSize int
}

// Summary reports what a successful load inserted.
type Summary struct {
	Inserted map[string]int64
	Elapsed  time.Duration
}

// Loader runs the load stage.
type Loader struct {
	opt    Options
	logger *zap.Logger
}

// New returns a Loader. A nil logger is replaced by a no-op logger.
func New(opt Options, logger *zap.Logger) *Loader {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opt.BatchSize <= 0 {
		opt.BatchSize = config.DefaultBatchSize
	}
	return &Loader{opt: opt, logger: logger.Named("load")}
}

// Run loads set into repo.
func (l *Loader) Run(ctx context.Context, repo storage.Repository, set ratetable.Set) (*Summary, error) {
	start := time.Now()
	sum, err := l.run(ctx, repo, set)
	metrics.RecordStep(l.opt.Job, "load", err, time.Since(start))
	if err != nil {
		l.logger.Error("load failed, rolled back", zap.Error(err))
		return nil, err
	}
	sum.Elapsed = time.Since(start)
	l.logger.Info("load complete",
		zap.Int64(ratetable.TableRateDescription, sum.Inserted[ratetable.TableRateDescription]),
		zap.Int64(ratetable.TablePremiumBand, sum.Inserted[ratetable.TablePremiumBand]),
		zap.Int64(ratetable.TablePremiumRate, sum.Inserted[ratetable.TablePremiumRate]),
		zap.Int64(ratetable.TablePolicyCharge, sum.Inserted[ratetable.TablePolicyCharge]),
		zap.Int64(ratetable.TableCashValue, sum.Inserted[ratetable.TableCashValue]),
		zap.Duration("elapsed", sum.Elapsed),
	)
	return sum, nil
}

func (l *Loader) run(ctx context.Context, repo storage.Repository, set ratetable.Set) (_ *Summary, err error) {
	tables := schema.Tables()
	if err := checkKeys(set); err != nil {
		return nil, err
	}

	tx, err := repo.Begin(ctx)
	if err != nil {
		return nil, err
	}
	committed := false
	defer func() {
		if committed {
			return
		}
		// Rollback uses a fresh context so a canceled load still releases the tx.
		if rbErr := tx.Rollback(context.WithoutCancel(ctx)); rbErr != nil {
			l.logger.Warn("rollback failed", zap.Error(rbErr))
		}
	}()

	d := tx.Dialect()
	if l.opt.Replace {
		for i := len(tables) - 1; i >= 0; i-- {
			if err := tx.Exec(ctx, ddl.DropTable(d, tables[i].Name)); err != nil {
				return nil, fmt.Errorf("drop %s: %w", tables[i].Name, err)
			}
		}
	}
	for _, td := range tables {
		if err := createTable(ctx, tx, td); err != nil {
			return nil, err
		}
	}
	l.logger.Debug("schema created", zap.Int("tables", len(tables)), zap.Bool("replace", l.opt.Replace))

	sum := &Summary{Inserted: make(map[string]int64, len(tables))}
	for _, td := range tables {
		n, err := l.insert(ctx, tx, td, set)
		if err != nil {
			return nil, err
		}
		sum.Inserted[td.Name] = n
	}

	if err := checkIntegrity(ctx, tx, tables); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	committed = true
	return sum, nil
}

func createTable(ctx context.Context, tx storage.Tx, td ddl.TableDef) error {
	stmt, err := ddl.CreateTable(tx.Dialect(), td)
	if err != nil {
		return err
	}
	if err := tx.Exec(ctx, stmt); err != nil {
		return fmt.Errorf("create %s: %w", td.Name, err)
	}
	for _, ix := range ddl.CreateIndexes(tx.Dialect(), td) {
		if err := tx.Exec(ctx, ix); err != nil {
			return fmt.Errorf("create index on %s: %w", td.Name, err)
		}
	}
	return nil
}

func (l *Loader) insert(ctx context.Context, tx storage.Tx, td ddl.TableDef, set ratetable.Set) (int64, error) {
	// Stop the producer if the loader returns early.
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	rows := set.Rows(td.Name)
	if rows == nil {
		return 0, fmt.Errorf("no rows for table %s", td.Name)
	}
	in := storage.Feed(ctx, rows)

	start := time.Now()
	n, err := storage.LoadBatches(ctx, storage.BatchOptions{
		Job:    l.opt.Job,
		Table:  td.Name,
		Size:   l.opt.BatchSize,
		Logger: l.logger,
	}, td.ColumnNames(), in, func(ctx context.Context, cols []string, rows [][]any) (int64, error) {
		return tx.CopyFrom(ctx, td.Name, cols, rows)
	})
	metrics.RecordStep(l.opt.Job, "insert:"+td.Name, err, time.Since(start))
	if err != nil {
		return n, fmt.Errorf("insert %s: %w", td.Name, err)
	}
	l.logger.Debug("inserted", zap.String("table", td.Name), zap.Int64("rows", n))
	return n, nil
}

// checkKeys rejects a set with a repeated primary key before the store is
// touched. Lines are 1-based record numbers within the table.
func checkKeys(set ratetable.Set) error {
	return errors.Join(
		ratetable.CheckDuplicates(ratetable.TableRateDescription, "", ratetable.KeysOf(set.Descriptions)),
		ratetable.CheckDuplicates(ratetable.TablePremiumBand, "", ratetable.KeysOf(set.Bands)),
		ratetable.CheckDuplicates(ratetable.TablePremiumRate, "", ratetable.KeysOf(set.PremiumRates)),
		ratetable.CheckDuplicates(ratetable.TablePolicyCharge, "", ratetable.KeysOf(set.Charges)),
		ratetable.CheckDuplicates(ratetable.TableCashValue, "", ratetable.KeysOf(set.CashValues)),
	)
}
