// Package leveldb is a persistent blob store on goleveldb. TTLs are not supported and ignored.
package leveldb

import (
	"context"
	"errors"
	"net/http"
	"sync"

	"github.com/bsv-blockchain/teranode-archive/stores/blob/options"
	"github.com/bsv-blockchain/teranode-archive/tracing"
	"github.com/bsv-blockchain/teranode-archive/ulogger"
	"github.com/btcsuite/goleveldb/leveldb"
	"github.com/btcsuite/goleveldb/leveldb/opt"
	"github.com/btcsuite/goleveldb/leveldb/storage"
	"github.com/ordishs/gocore"

	terrors "github.com/bsv-blockchain/teranode-archive/errors"
)

var statOnce sync.Once
var stat *gocore.Stat

type LevelDB struct {
	db      *leveldb.DB
	logger  ulogger.Logger
	options *options.Options
	// serialises the exists-then-put of non overwriting sets
	setMu sync.Mutex
}

// New opens (or creates) a leveldb database in dir. An empty dir opens an in-memory database.
func New(logger ulogger.Logger, dir string, opts ...options.StoreOption) (*LevelDB, error) {
	statOnce.Do(func() {
		stat = gocore.NewStat("blob_store_leveldb", true)
	})

	cacheMB, _ := gocore.Config().GetInt("leveldb_blockCacheMB", 8)

	lOpts := &opt.Options{
		BlockCacheCapacity: cacheMB * opt.MiB,
		NoSync:             true,
	}

	var (
		db  *leveldb.DB
		err error
	)

	if dir == "" {
		db, err = leveldb.Open(storage.NewMemStorage(), lOpts)
	} else {
		db, err = leveldb.OpenFile(dir, lOpts)
	}

	if err != nil {
		return nil, terrors.NewStorageError("failed to open leveldb store at %q", dir, err)
	}

	return &LevelDB{
		db:      db,
		logger:  logger,
		options: options.NewStoreOptions(opts...),
	}, nil
}

func (s *LevelDB) Health(_ context.Context, _ bool) (int, string, error) {
	if _, err := s.db.GetProperty("leveldb.stats"); err != nil {
		return http.StatusServiceUnavailable, "LevelDB Store unavailable", terrors.NewStorageUnavailableError("leveldb", err)
	}

	return http.StatusOK, "LevelDB Store", nil
}

func (s *LevelDB) Close(ctx context.Context) error {
	start := gocore.CurrentTime()
	defer func() {
		stat.NewStat("Close").AddTime(start)
	}()

	traceSpan := tracing.Start(ctx, "LevelDB:Close")
	defer traceSpan.Finish()

	return s.db.Close()
}

func (s *LevelDB) Set(ctx context.Context, key []byte, value []byte, opts ...options.FileOption) error {
	start := gocore.CurrentTime()
	defer func() {
		stat.NewStat("Set").AddTime(start)
	}()

	traceSpan := tracing.Start(ctx, "LevelDB:Set")
	defer traceSpan.Finish()

	merged := options.MergeOptions(s.options, opts)
	storeKey := merged.CalculateKey(key)

	if !merged.AllowOverwrite {
		s.setMu.Lock()
		defer s.setMu.Unlock()

		exists, err := s.db.Has(storeKey, nil)
		if err != nil {
			traceSpan.RecordError(err)
			return terrors.NewStorageError("failed to check existence of key [%x]", key, err)
		}

		if exists {
			return terrors.NewBlobAlreadyExistsError("blob already exists")
		}
	}

	if err := s.db.Put(storeKey, value, nil); err != nil {
		traceSpan.RecordError(err)
		return terrors.NewStorageError("failed to set data", err)
	}

	return nil
}

func (s *LevelDB) Get(ctx context.Context, key []byte, opts ...options.FileOption) ([]byte, error) {
	start := gocore.CurrentTime()
	defer func() {
		stat.NewStat("Get").AddTime(start)
	}()

	traceSpan := tracing.Start(ctx, "LevelDB:Get")
	defer traceSpan.Finish()

	storeKey := options.MergeOptions(s.options, opts).CalculateKey(key)

	value, err := s.db.Get(storeKey, nil)
	if err != nil {
		if errors.Is(err, leveldb.ErrNotFound) {
			return nil, terrors.NewBlobNotFoundError("leveldb key not found [%x]", key)
		}

		traceSpan.RecordError(err)

		return nil, terrors.NewStorageError("failed to read key [%x]", key, err)
	}

	return value, nil
}

func (s *LevelDB) Exists(ctx context.Context, key []byte, opts ...options.FileOption) (bool, error) {
	start := gocore.CurrentTime()
	defer func() {
		stat.NewStat("Exists").AddTime(start)
	}()

	traceSpan := tracing.Start(ctx, "LevelDB:Exists")
	defer traceSpan.Finish()

	storeKey := options.MergeOptions(s.options, opts).CalculateKey(key)

	exists, err := s.db.Has(storeKey, nil)
	if err != nil {
		traceSpan.RecordError(err)
		return false, terrors.NewStorageError("failed to check existence of key [%x]", key, err)
	}

	return exists, nil
}

func (s *LevelDB) Del(ctx context.Context, key []byte, opts ...options.FileOption) error {
	start := gocore.CurrentTime()
	defer func() {
		stat.NewStat("Del").AddTime(start)
	}()

	traceSpan := tracing.Start(ctx, "LevelDB:Del")
	defer traceSpan.Finish()

	storeKey := options.MergeOptions(s.options, opts).CalculateKey(key)

	if err := s.db.Delete(storeKey, nil); err != nil {
		traceSpan.RecordError(err)
		return terrors.NewStorageError("failed to delete key [%x]", key, err)
	}

	return nil
}
