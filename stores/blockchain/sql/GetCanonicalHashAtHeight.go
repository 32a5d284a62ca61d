package sql

import (
	"context"

	"github.com/bsv-blockchain/go-bt/v2/chainhash"
	"github.com/bsv-blockchain/teranode-archive/errors"
	"github.com/bsv-blockchain/teranode-archive/tracing"
)

// GetCanonicalHashAtHeight returns the hash at height on the chain ending in the finalized block.
// It returns nil when height is above the finalized height or the block at that height is missing.
func (s *SQL) GetCanonicalHashAtHeight(ctx context.Context, height uint32) (*chainhash.Hash, error) {
	ctx, _, deferFn := tracing.StartTracing(ctx, "sql:GetCanonicalHashAtHeight")
	defer deferFn()

	finalized, err := s.GetFinalized(ctx)
	if err != nil {
		return nil, err
	}

	if height > finalized.Number {
		return nil, nil
	}

	return s.getAncestorAtHeight(ctx, &finalized.Hash, height)
}

// getAncestorAtHeight follows parent links from blockHash down to height. The block itself is
// returned when it is at height.
func (s *SQL) getAncestorAtHeight(ctx context.Context, blockHash *chainhash.Hash, height uint32) (*chainhash.Hash, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	q := `
		WITH RECURSIVE ChainBlocks AS (
			SELECT id, parent_id, height, hash
			FROM blocks
			WHERE hash = $1
			UNION ALL
			SELECT bb.id, bb.parent_id, bb.height, bb.hash
			FROM blocks bb
			JOIN ChainBlocks cb ON bb.id = cb.parent_id
			WHERE cb.height > $2
		)
		SELECT hash FROM ChainBlocks
		WHERE height = $2
		LIMIT 1
	`

	var hashBytes []byte

	if err := s.db.QueryRowContext(ctx, q, blockHash[:], height).Scan(&hashBytes); err != nil {
		if isNoRows(err) {
			return nil, nil
		}

		return nil, errors.NewStorageError("failed to get ancestor of %s at height %d", blockHash.String(), height, err)
	}

	return scanHash(hashBytes, "hash")
}
