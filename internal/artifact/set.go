package artifact

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"ratetables/internal/metrics"
	"ratetables/internal/ratetable"
)

// Tables lists the artifact tables in load order.
var Tables = []string{
	ratetable.TableRateDescription,
	ratetable.TablePremiumBand,
	ratetable.TablePremiumRate,
	ratetable.TablePolicyCharge,
	ratetable.TableCashValue,
}

// Store reads and writes the artifact set of a directory.
type Store struct {
	Dir     string
	Job     string
	Workers int

	logger *zap.Logger
	now    func() time.Time
}

// NewStore returns a Store rooted at dir. workers bounds the number of tables
// encoded or decoded at once.
func NewStore(dir, job string, workers int, logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	if workers <= 0 {
		workers = 1
	}
	return &Store{Dir: dir, Job: job, Workers: workers, logger: logger.Named("artifact"), now: time.Now}
}

// Write persists every table of set under a fresh run id and returns it.
func (s *Store) Write(ctx context.Context, set ratetable.Set) (uuid.UUID, error) {
	runID := uuid.New()
	createdAt := s.now()

	writers := map[string]func() (Header, error){
		ratetable.TableRateDescription: func() (Header, error) {
			return WriteTable(s.Dir, ratetable.TableRateDescription, runID, createdAt, set.Descriptions)
		},
		ratetable.TablePremiumBand: func() (Header, error) {
			return WriteTable(s.Dir, ratetable.TablePremiumBand, runID, createdAt, set.Bands)
		},
		ratetable.TablePremiumRate: func() (Header, error) {
			return WriteTable(s.Dir, ratetable.TablePremiumRate, runID, createdAt, set.PremiumRates)
		},
		ratetable.TablePolicyCharge: func() (Header, error) {
			return WriteTable(s.Dir, ratetable.TablePolicyCharge, runID, createdAt, set.Charges)
		},
		ratetable.TableCashValue: func() (Header, error) {
			return WriteTable(s.Dir, ratetable.TableCashValue, runID, createdAt, set.CashValues)
		},
	}

	start := time.Now()
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.Workers)
	for _, table := range Tables {
		write := writers[table]
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			h, err := write()
			if err != nil {
				return err
			}
			metrics.RecordRows(s.Job, table, "written", int64(h.Count))
			s.logger.Debug("wrote artifact",
				zap.String("table", table),
				zap.Int("records", h.Count),
				zap.String("checksum", h.Checksum),
			)
			return nil
		})
	}
	err := g.Wait()
	metrics.RecordStep(s.Job, "artifacts:write", err, time.Since(start))
	if err != nil {
		return uuid.Nil, err
	}
	s.logger.Info("artifacts written", zap.String("dir", s.Dir), zap.Stringer("run_id", runID))
	return runID, nil
}

// Read loads and verifies every table of the set. All documents must carry
// the same run id.
func (s *Store) Read(ctx context.Context) (ratetable.Set, uuid.UUID, error) {
	var (
		set     ratetable.Set
		mu      sync.Mutex
		headers = make(map[string]Header, len(Tables))
	)

	readers := map[string]func() (Header, error){
		ratetable.TableRateDescription: func() (h Header, err error) {
			h, set.Descriptions, err = ReadTable[ratetable.RateDescription](s.Dir, ratetable.TableRateDescription)
			return h, err
		},
		ratetable.TablePremiumBand: func() (h Header, err error) {
			h, set.Bands, err = ReadTable[ratetable.PremiumBand](s.Dir, ratetable.TablePremiumBand)
			return h, err
		},
		ratetable.TablePremiumRate: func() (h Header, err error) {
			h, set.PremiumRates, err = ReadTable[ratetable.PremiumRate](s.Dir, ratetable.TablePremiumRate)
			return h, err
		},
		ratetable.TablePolicyCharge: func() (h Header, err error) {
			h, set.Charges, err = ReadTable[ratetable.PolicyCharge](s.Dir, ratetable.TablePolicyCharge)
			return h, err
		},
		ratetable.TableCashValue: func() (h Header, err error) {
			h, set.CashValues, err = ReadTable[ratetable.CashValue](s.Dir, ratetable.TableCashValue)
			return h, err
		},
	}

	start := time.Now()
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.Workers)
	for _, table := range Tables {
		read := readers[table]
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			h, err := read()
			if err != nil {
				return err
			}
			mu.Lock()
			headers[table] = h
			mu.Unlock()
			metrics.RecordRows(s.Job, table, "artifact", int64(h.Count))
			return nil
		})
	}
	err := g.Wait()
	if err == nil {
		err = sameRun(headers)
	}
	metrics.RecordStep(s.Job, "artifacts:read", err, time.Since(start))
	if err != nil {
		return ratetable.Set{}, uuid.Nil, err
	}

	runID := headers[Tables[0]].RunID
	s.logger.Info("artifacts read", zap.String("dir", s.Dir), zap.Stringer("run_id", runID))
	return set, runID, nil
}

func sameRun(headers map[string]Header) error {
	first := headers[Tables[0]]
	for _, table := range Tables[1:] {
		if h := headers[table]; h.RunID != first.RunID {
			return fmt.Errorf("%w: %s has run %s, %s has run %s",
				ErrMixedRun, Tables[0], first.RunID, table, h.RunID)
		}
	}
	return nil
}
