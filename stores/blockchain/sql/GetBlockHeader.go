package sql

import (
	"context"

	"github.com/bsv-blockchain/go-bt/v2/chainhash"
	"github.com/bsv-blockchain/teranode-archive/errors"
	"github.com/bsv-blockchain/teranode-archive/model"
	"github.com/bsv-blockchain/teranode-archive/tracing"
	"github.com/jellydator/ttlcache/v3"
)

// GetBlockHeader returns the header of a block and its height.
func (s *SQL) GetBlockHeader(ctx context.Context, blockHash *chainhash.Hash) (*model.BlockHeader, uint32, error) {
	ctx, _, deferFn := tracing.StartTracing(ctx, "sql:GetBlockHeader")
	defer deferFn()

	if s.cacheEnabled {
		if cached := s.headerCache.Get(*blockHash); cached != nil {
			entry := cached.Value()
			return entry.header, entry.height, nil
		}
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	q := `
		SELECT
		 b.version
		,b.block_time
		,b.n_bits
		,b.nonce
		,b.previous_hash
		,b.merkle_root
		,b.height
		FROM blocks b
		WHERE b.hash = $1
	`

	blockHeader := &model.BlockHeader{}

	var (
		hashPrevBlock  []byte
		hashMerkleRoot []byte
		nBits          []byte
		height         uint32
		err            error
	)

	if err = s.db.QueryRowContext(ctx, q, blockHash[:]).Scan(
		&blockHeader.Version,
		&blockHeader.Timestamp,
		&nBits,
		&blockHeader.Nonce,
		&hashPrevBlock,
		&hashMerkleRoot,
		&height,
	); err != nil {
		if isNoRows(err) {
			return nil, 0, errors.NewBlockNotFoundError("block %s not found", blockHash.String())
		}

		return nil, 0, errors.NewStorageError("error in GetBlockHeader", err)
	}

	if err = fillHeader(blockHeader, nBits, hashPrevBlock, hashMerkleRoot); err != nil {
		return nil, 0, err
	}

	if s.cacheEnabled {
		s.headerCache.Set(*blockHash, headerCacheEntry{header: blockHeader, height: height}, ttlcache.DefaultTTL)
	}

	return blockHeader, height, nil
}

func fillHeader(header *model.BlockHeader, nBits, hashPrevBlock, hashMerkleRoot []byte) error {
	bits, err := model.NewNBitFromSlice(nBits)
	if err != nil {
		return errors.NewProcessingError("failed to convert nBits", err)
	}

	header.Bits = *bits

	if header.HashPrevBlock, err = scanHash(hashPrevBlock, "hashPrevBlock"); err != nil {
		return err
	}

	if header.HashMerkleRoot, err = scanHash(hashMerkleRoot, "hashMerkleRoot"); err != nil {
		return err
	}

	return nil
}

// GetBlockExists reports whether a block with the given hash is stored.
func (s *SQL) GetBlockExists(ctx context.Context, blockHash *chainhash.Hash) (bool, error) {
	ctx, _, deferFn := tracing.StartTracing(ctx, "sql:GetBlockExists")
	defer deferFn()

	if s.cacheEnabled && s.headerCache.Get(*blockHash) != nil {
		return true, nil
	}

	q := `
		SELECT
	     b.height
		FROM blocks b
		WHERE b.hash = $1
	`

	var height uint32
	if err := s.db.QueryRowContext(ctx, q, blockHash[:]).Scan(
		&height,
	); err != nil {
		if isNoRows(err) {
			return false, nil
		}

		return false, errors.NewStorageError("error in GetBlockExists", err)
	}

	return true, nil
}
