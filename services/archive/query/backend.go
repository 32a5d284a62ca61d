package query

import (
	"context"

	"github.com/bsv-blockchain/go-bt/v2/chainhash"
	"github.com/bsv-blockchain/teranode-archive/errors"
	"github.com/bsv-blockchain/teranode-archive/model"
	"github.com/bsv-blockchain/teranode-archive/stores/blockchain"
	"github.com/bsv-blockchain/teranode-archive/stores/state"
)

// Backend is the read side of the chain. Lookups of unknown data return nil and no error.
// Implementations must be safe for concurrent use.
type Backend interface {
	BlockByHash(ctx context.Context, hash *chainhash.Hash) (*model.Block, error)
	HeaderByHash(ctx context.Context, hash *chainhash.Hash) (*model.BlockHeader, error)

	// CanonicalHashAtHeight is only defined at or below the finalized height.
	CanonicalHashAtHeight(ctx context.Context, height uint32) (*chainhash.Hash, error)
	ChildrenOf(ctx context.Context, hash *chainhash.Hash) ([]chainhash.Hash, error)
	Finalized(ctx context.Context) (model.HashAndNumber, error)

	MainTrieValue(ctx context.Context, hash *chainhash.Hash, key []byte) ([]byte, bool, error)
	ChildTrieValue(ctx context.Context, hash *chainhash.Hash, child state.ChildInfo, key []byte) ([]byte, bool, error)
}

// ChainBackend serves Backend from the block store and the state store.
type ChainBackend struct {
	blocks blockchain.Store
	state  *state.Store
}

func NewChainBackend(blocks blockchain.Store, stateStore *state.Store) *ChainBackend {
	return &ChainBackend{
		blocks: blocks,
		state:  stateStore,
	}
}

func isNotFound(err error) bool {
	return errors.Is(err, errors.ErrBlockNotFound) || errors.Is(err, errors.ErrNotFound)
}

func (b *ChainBackend) BlockByHash(ctx context.Context, hash *chainhash.Hash) (*model.Block, error) {
	block, err := b.blocks.GetBlock(ctx, hash)
	if err != nil {
		if isNotFound(err) {
			return nil, nil
		}

		return nil, err
	}

	return block, nil
}

func (b *ChainBackend) HeaderByHash(ctx context.Context, hash *chainhash.Hash) (*model.BlockHeader, error) {
	header, _, err := b.blocks.GetBlockHeader(ctx, hash)
	if err != nil {
		if isNotFound(err) {
			return nil, nil
		}

		return nil, err
	}

	return header, nil
}

func (b *ChainBackend) CanonicalHashAtHeight(ctx context.Context, height uint32) (*chainhash.Hash, error) {
	return b.blocks.GetCanonicalHashAtHeight(ctx, height)
}

func (b *ChainBackend) ChildrenOf(ctx context.Context, hash *chainhash.Hash) ([]chainhash.Hash, error) {
	return b.blocks.GetBlockChildren(ctx, hash)
}

func (b *ChainBackend) Finalized(ctx context.Context) (model.HashAndNumber, error) {
	return b.blocks.GetFinalized(ctx)
}

func (b *ChainBackend) MainTrieValue(ctx context.Context, hash *chainhash.Hash, key []byte) ([]byte, bool, error) {
	return b.state.MainValue(ctx, *hash, key)
}

func (b *ChainBackend) ChildTrieValue(ctx context.Context, hash *chainhash.Hash, child state.ChildInfo, key []byte) ([]byte, bool, error) {
	return b.state.ChildValue(ctx, *hash, child, key)
}
