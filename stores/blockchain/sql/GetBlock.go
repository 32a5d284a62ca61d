package sql

import (
	"context"

	"github.com/bsv-blockchain/go-bt/v2/chainhash"
	"github.com/bsv-blockchain/teranode-archive/errors"
	"github.com/bsv-blockchain/teranode-archive/model"
	"github.com/bsv-blockchain/teranode-archive/tracing"
)

// GetBlock returns a block with its transactions. A block whose body was pruned is reported as
// errors.ErrNotFound, an unknown block as errors.ErrBlockNotFound.
func (s *SQL) GetBlock(ctx context.Context, blockHash *chainhash.Hash) (*model.Block, error) {
	ctx, _, deferFn := tracing.StartTracing(ctx, "sql:GetBlock")
	defer deferFn()

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
		,b.tx_count
		,b.size_in_bytes
		,b.transactions
		FROM blocks b
		WHERE b.hash = $1
	`

	block := &model.Block{
		Header: &model.BlockHeader{},
	}

	var (
		hashPrevBlock  []byte
		hashMerkleRoot []byte
		nBits          []byte
		body           []byte
		err            error
	)

	if err = s.db.QueryRowContext(ctx, q, blockHash[:]).Scan(
		&block.Header.Version,
		&block.Header.Timestamp,
		&nBits,
		&block.Header.Nonce,
		&hashPrevBlock,
		&hashMerkleRoot,
		&block.Height,
		&block.TransactionCount,
		&block.SizeInBytes,
		&body,
	); err != nil {
		if isNoRows(err) {
			return nil, errors.NewBlockNotFoundError("block %s not found", blockHash.String())
		}

		return nil, errors.NewStorageError("error in GetBlock", err)
	}

	if err = fillHeader(block.Header, nBits, hashPrevBlock, hashMerkleRoot); err != nil {
		return nil, err
	}

	if body == nil {
		return nil, errors.NewNotFoundError("body of block %s has been pruned", blockHash.String())
	}

	if block.Transactions, err = model.NewTransactionsFromBytes(body); err != nil {
		return nil, errors.NewProcessingError("failed to decode transactions of block %s", blockHash.String(), err)
	}

	return block, nil
}
