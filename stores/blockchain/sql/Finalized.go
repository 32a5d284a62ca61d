package sql

import (
	"context"

	"github.com/bsv-blockchain/go-bt/v2/chainhash"
	"github.com/bsv-blockchain/teranode-archive/errors"
	"github.com/bsv-blockchain/teranode-archive/model"
	"github.com/bsv-blockchain/teranode-archive/tracing"
)

// GetFinalized returns the hash and height of the finalized block.
func (s *SQL) GetFinalized(ctx context.Context) (model.HashAndNumber, error) {
	ctx, _, deferFn := tracing.StartTracing(ctx, "sql:GetFinalized")
	defer deferFn()

	data, err := s.GetState(ctx, finalizedStateKey)
	if err != nil {
		return model.HashAndNumber{}, errors.NewStateError("failed to read finalized block", err)
	}

	hash, err := chainhash.NewHash(data)
	if err != nil {
		return model.HashAndNumber{}, errors.NewStateError("finalized block hash is corrupt", err)
	}

	_, height, err := s.GetBlockHeader(ctx, hash)
	if err != nil {
		return model.HashAndNumber{}, errors.NewStateError("finalized block %s is not stored", hash.String(), err)
	}

	return model.HashAndNumber{Hash: *hash, Number: height}, nil
}

// SetFinalized moves finalization forward to blockHash. The new block must descend from the
// current finalized block, so the chain below it stays linear.
func (s *SQL) SetFinalized(ctx context.Context, blockHash *chainhash.Hash) error {
	ctx, _, deferFn := tracing.StartTracing(ctx, "sql:SetFinalized")
	defer deferFn()

	_, height, err := s.GetBlockHeader(ctx, blockHash)
	if err != nil {
		return err
	}

	current, err := s.GetFinalized(ctx)

	switch {
	case err == nil:
		if height < current.Number {
			return errors.NewInvalidArgumentError("block %s at height %d is below finalized height %d", blockHash.String(), height, current.Number)
		}

		ancestor, err := s.getAncestorAtHeight(ctx, blockHash, current.Number)
		if err != nil {
			return err
		}

		if ancestor == nil || !ancestor.IsEqual(&current.Hash) {
			return errors.NewInvalidArgumentError("block %s does not descend from finalized block %s", blockHash.String(), current.Hash.String())
		}
	case errors.Is(err, errors.ErrNotFound) && blockHash.IsEqual(s.chainParams.GenesisHash):
		// first finalization, done when the genesis block is inserted
	default:
		return err
	}

	if err = s.SetState(ctx, finalizedStateKey, blockHash[:]); err != nil {
		return errors.NewStorageError("failed to store finalized block %s", blockHash.String(), err)
	}

	s.logger.Debugf("[BlockchainStore] finalized block %s at height %d", blockHash.String(), height)

	return nil
}
