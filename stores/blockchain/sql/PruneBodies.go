package sql

import (
	"context"

	"github.com/bsv-blockchain/teranode-archive/errors"
	"github.com/bsv-blockchain/teranode-archive/tracing"
)

// PruneBodies drops the transactions of all blocks below belowHeight and returns how many bodies
// were removed. Headers are kept.
func (s *SQL) PruneBodies(ctx context.Context, belowHeight uint32) (int64, error) {
	ctx, _, deferFn := tracing.StartTracing(ctx, "sql:PruneBodies")
	defer deferFn()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	q := `
		UPDATE blocks
		SET transactions = NULL
		WHERE height < $1
		AND transactions IS NOT NULL
	`

	res, err := s.db.ExecContext(ctx, q, belowHeight)
	if err != nil {
		return 0, errors.NewStorageError("failed to prune bodies below height %d", belowHeight, err)
	}

	pruned, err := res.RowsAffected()
	if err != nil {
		return 0, errors.NewStorageError("failed to count pruned bodies", err)
	}

	if pruned > 0 {
		s.logger.Infof("[BlockchainStore] pruned %d block bodies below height %d", pruned, belowHeight)
	}

	return pruned, nil
}
