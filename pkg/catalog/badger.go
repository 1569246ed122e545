package catalog

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	badger "github.com/dgraph-io/badger/v4"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/aretw0/arcade/internal/logging"
	"github.com/aretw0/arcade/pkg/domain"
	"github.com/aretw0/arcade/pkg/ports"
)

const recordPrefix = "game/"

var _ ports.Catalog = (*Badger)(nil)

// Badger is a Catalog persisted in BadgerDB. Rows are stored msgpack-encoded
// under "game/<rank>" and indexed in memory when the store is opened or
// imported into.
type Badger struct {
	db *badger.DB

	mu  sync.RWMutex
	idx *Memory
}

// BadgerOptions configures a Badger catalog.
type BadgerOptions struct {
	// Dir is the directory for BadgerDB data files. Required unless InMemory.
	Dir string

	// InMemory runs BadgerDB without disk persistence.
	InMemory bool

	Logger *slog.Logger
}

// OpenBadger opens (or creates) a catalog database and indexes its rows.
func OpenBadger(opts BadgerOptions) (*Badger, error) {
	if !opts.InMemory && opts.Dir == "" {
		return nil, errors.New("catalog: BadgerOptions.Dir is required for on-disk mode")
	}
	logger := opts.Logger
	if logger == nil {
		logger = logging.NewNop()
	}
	dbOpts := badger.DefaultOptions(opts.Dir).WithLogger(badgerLogger{logger})
	if opts.InMemory {
		dbOpts = dbOpts.WithInMemory(true)
	}
	db, err := badger.Open(dbOpts)
	if err != nil {
		return nil, fmt.Errorf("catalog: opening badger: %w", err)
	}

	b := &Badger{db: db}
	if err := b.reindex(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return b, nil
}

// Import replaces the stored dataset with records.
func (b *Badger) Import(_ context.Context, records []domain.GameRecord) error {
	if err := b.db.DropPrefix([]byte(recordPrefix)); err != nil {
		return fmt.Errorf("catalog: clearing records: %w", err)
	}

	wb := b.db.NewWriteBatch()
	defer wb.Cancel()
	for i, r := range records {
		data, err := msgpack.Marshal(&r)
		if err != nil {
			return fmt.Errorf("catalog: encoding %q: %w", r.Name, err)
		}
		if err := wb.Set(recordKey(i), data); err != nil {
			return fmt.Errorf("catalog: writing %q: %w", r.Name, err)
		}
	}
	if err := wb.Flush(); err != nil {
		return fmt.Errorf("catalog: flushing records: %w", err)
	}
	return b.reindex()
}

// recordKey preserves import order under lexical iteration.
func recordKey(i int) []byte {
	return []byte(fmt.Sprintf("%s%010d", recordPrefix, i))
}

func (b *Badger) reindex() error {
	var records []domain.GameRecord
	err := b.db.View(func(txn *badger.Txn) error {
		iterOpts := badger.DefaultIteratorOptions
		iterOpts.Prefix = []byte(recordPrefix)
		it := txn.NewIterator(iterOpts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			err := it.Item().Value(func(val []byte) error {
				var r domain.GameRecord
				if err := msgpack.Unmarshal(val, &r); err != nil {
					return err
				}
				records = append(records, r)
				return nil
			})
			if err != nil {
				return fmt.Errorf("decoding %s: %w", it.Item().Key(), err)
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("catalog: loading records: %w", err)
	}

	b.mu.Lock()
	b.idx = NewMemory(records)
	b.mu.Unlock()
	return nil
}

func (b *Badger) index() *Memory {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.idx
}

// Len returns the number of stored records.
func (b *Badger) Len() int {
	return b.index().Len()
}

// Close releases the database.
func (b *Badger) Close() error {
	return b.db.Close()
}

// GameCount is Memory.GameCount over the stored rows.
func (b *Badger) GameCount(ctx context.Context, platforms ...string) (int, error) {
	return b.index().GameCount(ctx, platforms...)
}

// TotalSales answers from the in-memory index of the stored rows.
func (b *Badger) TotalSales(ctx context.Context, platforms ...string) (float64, error) {
	return b.index().TotalSales(ctx, platforms...)
}

// BestSeller answers from the in-memory index of the stored rows.
func (b *Badger) BestSeller(ctx context.Context, platforms ...string) (domain.GameRecord, error) {
	return b.index().BestSeller(ctx, platforms...)
}

// SalesFor answers from the in-memory index of the stored rows.
func (b *Badger) SalesFor(ctx context.Context, name string) (float64, error) {
	return b.index().SalesFor(ctx, name)
}

// YearRange answers from the in-memory index of the stored rows.
func (b *Badger) YearRange(ctx context.Context, platforms ...string) (int, int, error) {
	return b.index().YearRange(ctx, platforms...)
}

// GenreOf answers from the in-memory index of the stored rows.
func (b *Badger) GenreOf(ctx context.Context, name string) (string, error) {
	return b.index().GenreOf(ctx, name)
}

// Games answers from the in-memory index of the stored rows.
func (b *Badger) Games(ctx context.Context, q ports.Query) ([]domain.GameRecord, error) {
	return b.index().Games(ctx, q)
}

// badgerLogger routes badger's printf-style logging into slog.
type badgerLogger struct {
	l *slog.Logger
}

func (b badgerLogger) Errorf(f string, v ...interface{}) {
	b.l.Error(fmt.Sprintf(f, v...), "component", "badger")
}

func (b badgerLogger) Warningf(f string, v ...interface{}) {
	b.l.Warn(fmt.Sprintf(f, v...), "component", "badger")
}

func (b badgerLogger) Infof(f string, v ...interface{}) {
	b.l.Debug(fmt.Sprintf(f, v...), "component", "badger")
}

func (b badgerLogger) Debugf(string, ...interface{}) {}
