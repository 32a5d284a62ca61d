// Package state stores main trie and child trie values per block on top of a blob store.
package state

import (
	"context"
	"encoding/hex"
	"net/http"

	"github.com/bsv-blockchain/go-bt/v2/chainhash"
	"github.com/bsv-blockchain/teranode-archive/errors"
	"github.com/bsv-blockchain/teranode-archive/stores/blob"
	"github.com/bsv-blockchain/teranode-archive/stores/blob/options"
	"github.com/bsv-blockchain/teranode-archive/tracing"
	"github.com/bsv-blockchain/teranode-archive/ulogger"
)

const (
	mainSubDirectory  = "main"
	childSubDirectory = "child"
)

type Store struct {
	logger ulogger.Logger
	blobs  blob.Store
}

func New(logger ulogger.Logger, blobs blob.Store) *Store {
	return &Store{
		logger: logger,
		blobs:  blobs,
	}
}

// blobKey is the block hash followed by the storage key, so values of different blocks never collide.
func blobKey(blockHash chainhash.Hash, key []byte) []byte {
	k := make([]byte, 0, chainhash.HashSize+len(key))
	k = append(k, blockHash[:]...)

	return append(k, key...)
}

func childDirectory(child ChildInfo) string {
	return childSubDirectory + "/" + hex.EncodeToString(child.StorageKey())
}

func (s *Store) Health(ctx context.Context, checkLiveness bool) (int, string, error) {
	if s.blobs == nil {
		return http.StatusServiceUnavailable, "State store not configured", errors.ErrStorageNotStarted
	}

	return s.blobs.Health(ctx, checkLiveness)
}

func (s *Store) Close(ctx context.Context) error {
	return s.blobs.Close(ctx)
}

// SetMainValue writes a main trie value for a block, replacing any previous value.
func (s *Store) SetMainValue(ctx context.Context, blockHash chainhash.Hash, key, value []byte) error {
	if !IsKeyQueryable(key) {
		return errors.NewInvalidArgumentError("key %x is in the reserved child storage namespace", key)
	}

	return s.set(ctx, blockHash, key, value, options.WithSubDirectory(mainSubDirectory))
}

// SetChildValue writes a value into a block's child trie, replacing any previous value.
func (s *Store) SetChildValue(ctx context.Context, blockHash chainhash.Hash, child ChildInfo, key, value []byte) error {
	return s.set(ctx, blockHash, key, value, options.WithSubDirectory(childDirectory(child)))
}

// MainValue reads a main trie value. A missing value returns false and no error.
func (s *Store) MainValue(ctx context.Context, blockHash chainhash.Hash, key []byte) ([]byte, bool, error) {
	return s.get(ctx, "MainValue", blockHash, key, options.WithSubDirectory(mainSubDirectory))
}

// ChildValue reads a child trie value. A missing value returns false and no error.
func (s *Store) ChildValue(ctx context.Context, blockHash chainhash.Hash, child ChildInfo, key []byte) ([]byte, bool, error) {
	return s.get(ctx, "ChildValue", blockHash, key, options.WithSubDirectory(childDirectory(child)))
}

func (s *Store) set(ctx context.Context, blockHash chainhash.Hash, key, value []byte, opts ...options.FileOption) error {
	ctx, _, endSpan := tracing.StartTracing(ctx, "state:Set")
	defer endSpan()

	opts = append(opts, options.WithAllowOverwrite(true))

	if err := s.blobs.Set(ctx, blobKey(blockHash, key), value, opts...); err != nil {
		return errors.NewStorageError("[State] failed to store value for block %s key %x", blockHash, key, err)
	}

	return nil
}

func (s *Store) get(ctx context.Context, op string, blockHash chainhash.Hash, key []byte, opts ...options.FileOption) ([]byte, bool, error) {
	ctx, _, endSpan := tracing.StartTracing(ctx, "state:"+op)
	defer endSpan()

	value, err := s.blobs.Get(ctx, blobKey(blockHash, key), opts...)
	if err != nil {
		if errors.Is(err, errors.ErrBlobNotFound) {
			return nil, false, nil
		}

		return nil, false, errors.NewStorageError("[State] failed to read value for block %s key %x", blockHash, key, err)
	}

	if value == nil {
		value = []byte{}
	}

	return value, true, nil
}
