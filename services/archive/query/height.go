package query

import (
	"context"

	"github.com/bsv-blockchain/go-bt/v2/chainhash"
	"github.com/bsv-blockchain/teranode-archive/model"
	"github.com/bsv-blockchain/teranode-archive/ulogger"
)

// hashesAtHeight returns the hashes of all blocks at height that descend from finalized.
//
// At or below the finalized height the chain is linear and the answer is the canonical hash,
// or nothing when the backend cannot produce it, whether pruned or failing. Above it every fork
// is searched.
func hashesAtHeight(ctx context.Context, logger ulogger.Logger, backend Backend, finalized model.HashAndNumber, height uint32) ([]chainhash.Hash, error) {
	if height <= finalized.Number {
		hash, err := backend.CanonicalHashAtHeight(ctx, height)
		if err != nil {
			logger.Warnf("[Archive] canonical hash at height %d unavailable: %v", height, err)
			return []chainhash.Hash{}, nil
		}

		if hash == nil {
			return []chainhash.Hash{}, nil
		}

		return []chainhash.Hash{*hash}, nil
	}

	return searchTree(ctx, logger, backend, finalized, height)
}

// searchTree walks the block tree from root using an explicit stack. Heights grow by one per
// edge, so a branch is never expanded past a match and the walk ends. A branch whose children
// cannot be listed is skipped.
func searchTree(ctx context.Context, logger ulogger.Logger, backend Backend, root model.HashAndNumber, height uint32) ([]chainhash.Hash, error) {
	result := make([]chainhash.Hash, 0, 1)
	stack := []model.HashAndNumber{root}
	visited := 0

	for len(stack) > 0 {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		node := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		visited++

		if node.Number == height {
			result = append(result, node.Hash)
			continue
		}

		children, err := backend.ChildrenOf(ctx, &node.Hash)
		if err != nil {
			logger.Warnf("[Archive] skipping branch at %s, failed to list children: %v", node, err)
			continue
		}

		for _, child := range children {
			stack = append(stack, model.HashAndNumber{Hash: child, Number: node.Number + 1})
		}
	}

	prometheusArchiveTreeSearchNodes.Observe(float64(visited))

	return result, nil
}
