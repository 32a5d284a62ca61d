package sql

import (
	"context"

	"github.com/bsv-blockchain/go-bt/v2/chainhash"
	"github.com/bsv-blockchain/teranode-archive/errors"
	"github.com/bsv-blockchain/teranode-archive/model"
	"github.com/bsv-blockchain/teranode-archive/stores/blockchain/options"
	"github.com/bsv-blockchain/teranode-archive/tracing"
	"github.com/jellydator/ttlcache/v3"
	"github.com/lib/pq"
	"modernc.org/sqlite"
)

// StoreBlock inserts a block below its parent and returns the new row id and the block height.
// Forks are stored side by side. Only the genesis block of the configured network may be
// stored without a parent.
func (s *SQL) StoreBlock(ctx context.Context, block *model.Block, opts ...options.StoreBlockOption) (uint64, uint32, error) {
	ctx, _, deferFn := tracing.StartTracing(ctx, "sql:StoreBlock")
	defer deferFn()

	storeBlockOptions := options.StoreBlockOptions{}
	for _, opt := range opts {
		opt(&storeBlockOptions)
	}

	if block == nil || block.Header == nil {
		return 0, 0, errors.NewInvalidArgumentError("block has no header")
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var (
		parentID interface{}
		height   uint32
	)

	blockHash := block.Hash()

	if blockHash.IsEqual(s.chainParams.GenesisHash) {
		parentID = nil
		height = 0
	} else {
		id, parentHeight, err := s.getPreviousBlockInfo(ctx, *block.Header.HashPrevBlock)
		if err != nil {
			return 0, 0, err
		}

		parentID = id
		height = parentHeight + 1
	}

	var transactions interface{}
	if !storeBlockOptions.WithoutBody && block.Transactions != nil {
		transactions = block.TransactionsBytes()
	}

	q := `
		INSERT INTO blocks (
			 parent_id
			,hash
			,previous_hash
			,version
			,merkle_root
			,block_time
			,n_bits
			,nonce
			,height
			,tx_count
			,size_in_bytes
			,transactions
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING id
	`

	var newBlockID uint64

	if err := s.db.QueryRowContext(ctx, q,
		parentID,
		blockHash[:],
		block.Header.HashPrevBlock[:],
		block.Header.Version,
		block.Header.HashMerkleRoot[:],
		block.Header.Timestamp,
		block.Header.Bits.CloneBytes(),
		block.Header.Nonce,
		height,
		block.TransactionCount,
		block.SizeInBytes,
		transactions,
	).Scan(&newBlockID); err != nil {
		return 0, 0, s.parseSQLError(err, block)
	}

	if s.cacheEnabled {
		s.headerCache.Set(*blockHash, headerCacheEntry{header: block.Header, height: height}, ttlcache.DefaultTTL)
	}

	s.ResetResponseCache()

	return newBlockID, height, nil
}

func (s *SQL) getPreviousBlockInfo(ctx context.Context, prevBlockHash chainhash.Hash) (id uint64, height uint32, err error) {
	q := `
		SELECT
		 b.id
		,b.height
		FROM blocks b
		WHERE b.hash = $1
	`

	if err = s.db.QueryRowContext(ctx, q, prevBlockHash[:]).Scan(
		&id,
		&height,
	); err != nil {
		if isNoRows(err) {
			return 0, 0, errors.NewBlockNotFoundError("previous block %s not found", prevBlockHash.String())
		}

		return 0, 0, errors.NewStorageError("failed to get previous block %s", prevBlockHash.String(), err)
	}

	return id, height, nil
}

func (*SQL) parseSQLError(err error, block *model.Block) error {
	// check whether this is a postgres exists constraint error
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == "23505" { // Duplicate constraint violation
		return errors.NewBlockExistsError("block already exists in the database: %s", block.Hash().String(), err)
	}

	// check whether this is a sqlite exists constraint error
	var sqliteErr *sqlite.Error
	if errors.As(err, &sqliteErr) && (sqliteErr.Code()&0xff) == SQLITE_CONSTRAINT {
		return errors.NewBlockExistsError("block already exists in the database: %s", block.Hash().String(), err)
	}

	return errors.NewStorageError("failed to store block %s", block.Hash().String(), err)
}
