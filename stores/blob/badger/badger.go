// Package badger is a persistent blob store on badger v3.
package badger

import (
	"context"
	"errors"
	"net/http"
	"sync"

	"github.com/bsv-blockchain/teranode-archive/stores/blob/options"
	"github.com/bsv-blockchain/teranode-archive/tracing"
	"github.com/bsv-blockchain/teranode-archive/ulogger"
	"github.com/dgraph-io/badger/v3"
	"github.com/ordishs/gocore"

	terrors "github.com/bsv-blockchain/teranode-archive/errors"
)

var statOnce sync.Once
var stat *gocore.Stat

type Badger struct {
	store   *badger.DB
	logger  ulogger.Logger
	options *options.Options
}

type loggerWrapper struct {
	ulogger.Logger
}

func (l loggerWrapper) Warningf(format string, args ...interface{}) {
	l.Warnf(format, args...)
}

// New opens (or creates) a badger database in dir. An empty dir opens an in-memory database.
func New(logger ulogger.Logger, dir string, opts ...options.StoreOption) (*Badger, error) {
	statOnce.Do(func() {
		stat = gocore.NewStat("blob_store_badger", true)
	})

	bOpts := badger.DefaultOptions(dir).
		WithLogger(loggerWrapper{logger}).
		WithLoggingLevel(badger.ERROR)

	if dir == "" {
		bOpts = bOpts.WithInMemory(true)
	}

	if gocore.Config().GetBool("badger_limitMemoryLow", false) {
		bOpts = bOpts.
			WithBaseTableSize(1 << 20).
			WithNumMemtables(1).
			WithNumLevelZeroTables(1).
			WithNumLevelZeroTablesStall(2).
			WithSyncWrites(false)
	}

	s, err := badger.Open(bOpts)
	if err != nil {
		return nil, terrors.NewStorageError("failed to open badger store at %q", dir, err)
	}

	return &Badger{
		store:   s,
		logger:  logger,
		options: options.NewStoreOptions(opts...),
	}, nil
}

func (s *Badger) Health(_ context.Context, _ bool) (int, string, error) {
	if s.store.IsClosed() {
		return http.StatusServiceUnavailable, "Badger Store closed", terrors.ErrStorageUnavailable
	}

	lsm, vlog := s.store.Size()

	return http.StatusOK, "Badger Store", healthSizeCheck(lsm, vlog)
}

func healthSizeCheck(lsm, vlog int64) error {
	if lsm < 0 || vlog < 0 {
		return terrors.NewStorageError("badger reported negative size lsm=%d vlog=%d", lsm, vlog)
	}

	return nil
}

func (s *Badger) Close(ctx context.Context) error {
	start := gocore.CurrentTime()
	defer func() {
		stat.NewStat("Close").AddTime(start)
	}()

	traceSpan := tracing.Start(ctx, "Badger:Close")
	defer traceSpan.Finish()

	return s.store.Close()
}

func (s *Badger) Set(ctx context.Context, key []byte, value []byte, opts ...options.FileOption) error {
	start := gocore.CurrentTime()
	defer func() {
		stat.NewStat("Set").AddTime(start)
	}()

	traceSpan := tracing.Start(ctx, "Badger:Set")
	defer traceSpan.Finish()

	merged := options.MergeOptions(s.options, opts)
	storeKey := merged.CalculateKey(key)

	err := s.store.Update(func(tx *badger.Txn) error {
		if !merged.AllowOverwrite {
			if _, err := tx.Get(storeKey); err == nil {
				return terrors.NewBlobAlreadyExistsError("blob already exists")
			} else if !errors.Is(err, badger.ErrKeyNotFound) {
				return err
			}
		}

		entry := badger.NewEntry(storeKey, value)
		if merged.TTL > 0 {
			entry = entry.WithTTL(merged.TTL)
		}

		return tx.SetEntry(entry)
	})
	if err != nil {
		traceSpan.RecordError(err)

		var tErr *terrors.Error
		if terrors.As(err, &tErr) {
			return err
		}

		return terrors.NewStorageError("failed to set data", err)
	}

	return nil
}

func (s *Badger) Get(ctx context.Context, key []byte, opts ...options.FileOption) ([]byte, error) {
	start := gocore.CurrentTime()
	defer func() {
		stat.NewStat("Get").AddTime(start)
	}()

	traceSpan := tracing.Start(ctx, "Badger:Get")
	defer traceSpan.Finish()

	storeKey := options.MergeOptions(s.options, opts).CalculateKey(key)

	var result []byte

	err := s.store.View(func(tx *badger.Txn) error {
		item, err := tx.Get(storeKey)
		if err != nil {
			if errors.Is(err, badger.ErrKeyNotFound) {
				return terrors.NewBlobNotFoundError("badger key not found [%x]", key)
			}

			return terrors.NewStorageError("failed to read key [%x]", key, err)
		}

		result, err = item.ValueCopy(nil)
		if err != nil {
			return terrors.NewStorageError("failed to decode data", err)
		}

		return nil
	})
	if err != nil {
		traceSpan.RecordError(err)
		return nil, err
	}

	return result, nil
}

func (s *Badger) Exists(ctx context.Context, key []byte, opts ...options.FileOption) (bool, error) {
	start := gocore.CurrentTime()
	defer func() {
		stat.NewStat("Exists").AddTime(start)
	}()

	traceSpan := tracing.Start(ctx, "Badger:Exists")
	defer traceSpan.Finish()

	storeKey := options.MergeOptions(s.options, opts).CalculateKey(key)

	err := s.store.View(func(tx *badger.Txn) error {
		_, err := tx.Get(storeKey)
		return err
	})
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return false, nil
		}

		traceSpan.RecordError(err)

		return false, terrors.NewStorageError("failed to check existence of key [%x]", key, err)
	}

	return true, nil
}

func (s *Badger) Del(ctx context.Context, key []byte, opts ...options.FileOption) error {
	start := gocore.CurrentTime()
	defer func() {
		stat.NewStat("Del").AddTime(start)
	}()

	traceSpan := tracing.Start(ctx, "Badger:Del")
	defer traceSpan.Finish()

	storeKey := options.MergeOptions(s.options, opts).CalculateKey(key)

	if err := s.store.Update(func(tx *badger.Txn) error {
		return tx.Delete(storeKey)
	}); err != nil {
		traceSpan.RecordError(err)
		return terrors.NewStorageError("failed to delete key [%x]", key, err)
	}

	return nil
}
