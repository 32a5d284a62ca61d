// Package sql implements blockchain.Store on sqlite (file or in memory) and postgres.
package sql

import (
	"context"
	"database/sql"
	"net/http"
	"net/url"
	"sync"

	"github.com/bsv-blockchain/go-bt/v2/chainhash"
	"github.com/bsv-blockchain/teranode-archive/chaincfg"
	"github.com/bsv-blockchain/teranode-archive/errors"
	"github.com/bsv-blockchain/teranode-archive/model"
	"github.com/bsv-blockchain/teranode-archive/settings"
	"github.com/bsv-blockchain/teranode-archive/ulogger"
	"github.com/bsv-blockchain/teranode-archive/util"
	"github.com/bsv-blockchain/teranode-archive/util/usql"
	"github.com/jellydator/ttlcache/v3"
)

// SQLITE_CONSTRAINT is the primary result code for constraint violations.
//
//nolint:revive,stylecheck
const SQLITE_CONSTRAINT = 19

const finalizedStateKey = "finalized"

type headerCacheEntry struct {
	header *model.BlockHeader
	height uint32
}

type SQL struct {
	db            *usql.DB
	engine        util.SQLEngine
	logger        ulogger.Logger
	chainParams   *chaincfg.Params
	cacheEnabled  bool
	headerCache   *ttlcache.Cache[chainhash.Hash, headerCacheEntry]
	childrenCache *ttlcache.Cache[chainhash.Hash, []chainhash.Hash]
	// cacheGeneration counts ResetResponseCache calls. A children list read before a reset
	// is not cached after it.
	cacheMu         sync.RWMutex
	cacheGeneration uint64
}

func New(logger ulogger.Logger, storeURL *url.URL, tSettings *settings.Settings) (*SQL, error) {
	if logger == nil {
		logger = ulogger.New("bcsql")
	}

	if tSettings.ChainCfgParams == nil {
		return nil, errors.NewConfigurationError("chain params not set")
	}

	db, err := util.InitSQLDB(logger, storeURL, tSettings)
	if err != nil {
		return nil, errors.NewStorageError("failed to init sql db", err)
	}

	engine := util.SQLEngine(storeURL.Scheme)

	switch engine {
	case util.Postgres:
		if err = createPostgresSchema(db); err != nil {
			return nil, errors.NewStorageError("failed to create postgres schema", err)
		}

	case util.Sqlite, util.SqliteMemory:
		if err = createSqliteSchema(db); err != nil {
			return nil, errors.NewStorageError("failed to create sqlite schema", err)
		}

	default:
		return nil, errors.NewConfigurationError("unknown database engine: %s", storeURL.Scheme)
	}

	s := &SQL{
		db:           db,
		engine:       engine,
		logger:       logger,
		chainParams:  tSettings.ChainCfgParams,
		cacheEnabled: tSettings.BlockChain.StoreCacheEnabled,
		headerCache: ttlcache.New[chainhash.Hash, headerCacheEntry](
			ttlcache.WithTTL[chainhash.Hash, headerCacheEntry](tSettings.BlockChain.StoreCacheTTL),
			ttlcache.WithDisableTouchOnHit[chainhash.Hash, headerCacheEntry](),
		),
		childrenCache: ttlcache.New[chainhash.Hash, []chainhash.Hash](
			ttlcache.WithTTL[chainhash.Hash, []chainhash.Hash](tSettings.BlockChain.StoreCacheTTL),
			ttlcache.WithDisableTouchOnHit[chainhash.Hash, []chainhash.Hash](),
		),
	}

	go s.headerCache.Start()
	go s.childrenCache.Start()

	if err = s.insertGenesisBlock(context.Background()); err != nil {
		_ = s.Close()
		return nil, errors.NewStorageError("failed to insert genesis block", err)
	}

	return s, nil
}

func (s *SQL) GetDB() *usql.DB {
	return s.db
}

func (s *SQL) GetDBEngine() util.SQLEngine {
	return s.engine
}

func (s *SQL) Close() error {
	s.headerCache.Stop()
	s.childrenCache.Stop()

	return s.db.Close()
}

func (s *SQL) Health(ctx context.Context, _ bool) (int, string, error) {
	if err := s.db.PingContext(ctx); err != nil {
		return http.StatusServiceUnavailable, "Database connection error", errors.NewStorageUnavailableError("blockchain db ping failed", err)
	}

	return http.StatusOK, "OK", nil
}

// ResetResponseCache drops cached children lists. Headers never change once stored and are kept.
func (s *SQL) ResetResponseCache() {
	s.cacheMu.Lock()
	defer s.cacheMu.Unlock()

	s.cacheGeneration++
	s.childrenCache.DeleteAll()
}

func (s *SQL) responseCacheGeneration() uint64 {
	s.cacheMu.RLock()
	defer s.cacheMu.RUnlock()

	return s.cacheGeneration
}

// setChildrenCache caches children unless the cache was reset since generation was taken.
func (s *SQL) setChildrenCache(blockHash chainhash.Hash, children []chainhash.Hash, generation uint64) bool {
	s.cacheMu.RLock()
	defer s.cacheMu.RUnlock()

	if s.cacheGeneration != generation {
		return false
	}

	s.childrenCache.Set(blockHash, children, ttlcache.DefaultTTL)

	return true
}

func createPostgresSchema(db *usql.DB) error {
	if _, err := db.Exec(`
      CREATE TABLE IF NOT EXISTS state (
	    key            VARCHAR(32) PRIMARY KEY
	    ,data          BYTEA NOT NULL
        ,inserted_at   TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP
        ,updated_at    TIMESTAMPTZ NULL
	  );
	`); err != nil {
		_ = db.Close()
		return errors.NewStorageError("could not create state table", err)
	}

	if _, err := db.Exec(`
      CREATE TABLE IF NOT EXISTS blocks (
	    id              BIGSERIAL PRIMARY KEY
		,parent_id	    BIGINT NULL REFERENCES blocks(id)
	    ,hash           BYTEA NOT NULL
	    ,previous_hash  BYTEA NOT NULL
        ,version        BIGINT NOT NULL
	    ,merkle_root    BYTEA NOT NULL
        ,block_time     BIGINT NOT NULL
        ,n_bits         BYTEA NOT NULL
        ,nonce          BIGINT NOT NULL
	    ,height         BIGINT NOT NULL
		,tx_count       BIGINT NOT NULL
		,size_in_bytes  BIGINT NOT NULL
        ,transactions   BYTEA NULL
    	,inserted_at    TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP
	  );
	`); err != nil {
		_ = db.Close()
		return errors.NewStorageError("could not create blocks table", err)
	}

	return createIndexes(db)
}

func createSqliteSchema(db *usql.DB) error {
	if _, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS state (
		 key            VARCHAR(32) PRIMARY KEY
	    ,data           BLOB NOT NULL
        ,inserted_at    TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP
        ,updated_at     TEXT NULL
	  );
	`); err != nil {
		_ = db.Close()
		return errors.NewStorageError("could not create state table", err)
	}

	if _, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS blocks (
		 id             INTEGER PRIMARY KEY AUTOINCREMENT
		,parent_id	    INTEGER NULL REFERENCES blocks(id)
	    ,hash           BLOB NOT NULL
	    ,previous_hash  BLOB NOT NULL
        ,version        BIGINT NOT NULL
	    ,merkle_root    BLOB NOT NULL
        ,block_time		BIGINT NOT NULL
        ,n_bits         BLOB NOT NULL
        ,nonce          BIGINT NOT NULL
	    ,height         BIGINT NOT NULL
		,tx_count       BIGINT NOT NULL
		,size_in_bytes  BIGINT NOT NULL
		,transactions   BLOB NULL
        ,inserted_at    TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP
	  );
	`); err != nil {
		_ = db.Close()
		return errors.NewStorageError("could not create blocks table", err)
	}

	return createIndexes(db)
}

func createIndexes(db *usql.DB) error {
	if _, err := db.Exec(`CREATE UNIQUE INDEX IF NOT EXISTS ux_blocks_hash ON blocks (hash);`); err != nil {
		_ = db.Close()
		return errors.NewStorageError("could not create ux_blocks_hash index", err)
	}

	if _, err := db.Exec(`CREATE INDEX IF NOT EXISTS idx_blocks_parent_id ON blocks (parent_id);`); err != nil {
		_ = db.Close()
		return errors.NewStorageError("could not create idx_blocks_parent_id index", err)
	}

	if _, err := db.Exec(`CREATE INDEX IF NOT EXISTS idx_blocks_height ON blocks (height);`); err != nil {
		_ = db.Close()
		return errors.NewStorageError("could not create idx_blocks_height index", err)
	}

	return nil
}

func (s *SQL) insertGenesisBlock(ctx context.Context) error {
	q := `
		SELECT
	     count(*)
		FROM blocks b
	`

	var blockCount uint64
	if err := s.db.QueryRowContext(ctx, q).Scan(
		&blockCount,
	); err != nil {
		return err
	}

	if blockCount > 0 {
		genesisExists, err := s.GetBlockExists(ctx, s.chainParams.GenesisHash)
		if err != nil {
			return err
		}

		if !genesisExists {
			return errors.NewConfigurationError("database does not contain the %s genesis block %s", s.chainParams.Name, s.chainParams.GenesisHash)
		}

		return nil
	}

	genesisBlock, err := model.GenesisBlock(s.chainParams)
	if err != nil {
		return err
	}

	if _, _, err = s.StoreBlock(ctx, genesisBlock); err != nil {
		return err
	}

	if err = s.SetFinalized(ctx, s.chainParams.GenesisHash); err != nil {
		return err
	}

	s.logger.Infof("[BlockchainStore] %s genesis block %s inserted", s.chainParams.Name, s.chainParams.GenesisHash)

	return nil
}

func scanHash(b []byte, field string) (*chainhash.Hash, error) {
	hash, err := chainhash.NewHash(b)
	if err != nil {
		return nil, errors.NewProcessingError("failed to convert %s", field, err)
	}

	return hash, nil
}

func isNoRows(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}
