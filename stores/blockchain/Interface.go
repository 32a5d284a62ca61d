// Package blockchain defines the block tree store read by the archive service.
package blockchain

import (
	"context"

	"github.com/bsv-blockchain/go-bt/v2/chainhash"
	"github.com/bsv-blockchain/teranode-archive/model"
	"github.com/bsv-blockchain/teranode-archive/stores/blockchain/options"
)

// Store holds every imported block, forks included, and tracks the finalized block.
//
// Lookups of unknown blocks return an error matching errors.ErrBlockNotFound. GetBlock of a
// block whose body has been pruned returns an error matching errors.ErrNotFound.
type Store interface {
	Health(ctx context.Context, checkLiveness bool) (int, string, error)
	Close() error

	GetBlock(ctx context.Context, blockHash *chainhash.Hash) (*model.Block, error)
	GetBlockHeader(ctx context.Context, blockHash *chainhash.Hash) (*model.BlockHeader, uint32, error)
	GetBlockExists(ctx context.Context, blockHash *chainhash.Hash) (bool, error)
	GetBlockChildren(ctx context.Context, blockHash *chainhash.Hash) ([]chainhash.Hash, error)

	// GetCanonicalHashAtHeight walks back from the finalized block. It returns nil when height is
	// above the finalized height or no block is stored there.
	GetCanonicalHashAtHeight(ctx context.Context, height uint32) (*chainhash.Hash, error)
	GetFinalized(ctx context.Context) (model.HashAndNumber, error)
	SetFinalized(ctx context.Context, blockHash *chainhash.Hash) error

	StoreBlock(ctx context.Context, block *model.Block, opts ...options.StoreBlockOption) (uint64, uint32, error)
	PruneBodies(ctx context.Context, belowHeight uint32) (int64, error)

	GetState(ctx context.Context, key string) ([]byte, error)
	SetState(ctx context.Context, key string, data []byte) error
}
