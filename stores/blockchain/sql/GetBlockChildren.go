package sql

import (
	"context"

	"github.com/bsv-blockchain/go-bt/v2/chainhash"
	"github.com/bsv-blockchain/teranode-archive/errors"
	"github.com/bsv-blockchain/teranode-archive/tracing"
)

// GetBlockChildren returns the hashes of all blocks whose parent is blockHash, in insertion order.
// An unknown block has no children.
func (s *SQL) GetBlockChildren(ctx context.Context, blockHash *chainhash.Hash) ([]chainhash.Hash, error) {
	ctx, _, deferFn := tracing.StartTracing(ctx, "sql:GetBlockChildren")
	defer deferFn()

	// the cache is reset by StoreBlock, or expires after the cache TTL
	generation := s.responseCacheGeneration()

	if s.cacheEnabled {
		if cached := s.childrenCache.Get(*blockHash); cached != nil {
			return cached.Value(), nil
		}
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	q := `
		SELECT
		 c.hash
		FROM blocks c
		JOIN blocks p ON c.parent_id = p.id
		WHERE p.hash = $1
		ORDER BY c.id ASC
	`

	rows, err := s.db.QueryContext(ctx, q, blockHash[:])
	if err != nil {
		return nil, errors.NewStorageError("failed to get children of block %s", blockHash.String(), err)
	}

	defer rows.Close()

	children := make([]chainhash.Hash, 0, 1)

	for rows.Next() {
		var hashBytes []byte

		if err = rows.Scan(&hashBytes); err != nil {
			return nil, errors.NewStorageError("failed to scan child of block %s", blockHash.String(), err)
		}

		hash, err := scanHash(hashBytes, "hash")
		if err != nil {
			return nil, err
		}

		children = append(children, *hash)
	}

	if err = rows.Err(); err != nil {
		return nil, errors.NewStorageError("failed to read children of block %s", blockHash.String(), err)
	}

	if s.cacheEnabled {
		s.setChildrenCache(*blockHash, children, generation)
	}

	return children, nil
}
