package query

import (
	"context"
	"net/http"

	"github.com/bsv-blockchain/go-bt/v2/chainhash"
	"github.com/bsv-blockchain/teranode-archive/model"
	"github.com/bsv-blockchain/teranode-archive/stores/state"
	"github.com/bsv-blockchain/teranode-archive/util/spawner"
	"github.com/stretchr/testify/mock"
)

type mockBackend struct {
	mock.Mock
}

func (m *mockBackend) BlockByHash(ctx context.Context, hash *chainhash.Hash) (*model.Block, error) {
	args := m.Called(ctx, hash)

	block, _ := args.Get(0).(*model.Block)

	return block, args.Error(1)
}

func (m *mockBackend) HeaderByHash(ctx context.Context, hash *chainhash.Hash) (*model.BlockHeader, error) {
	args := m.Called(ctx, hash)

	header, _ := args.Get(0).(*model.BlockHeader)

	return header, args.Error(1)
}

func (m *mockBackend) CanonicalHashAtHeight(ctx context.Context, height uint32) (*chainhash.Hash, error) {
	args := m.Called(ctx, height)

	hash, _ := args.Get(0).(*chainhash.Hash)

	return hash, args.Error(1)
}

func (m *mockBackend) ChildrenOf(ctx context.Context, hash *chainhash.Hash) ([]chainhash.Hash, error) {
	args := m.Called(ctx, hash)

	children, _ := args.Get(0).([]chainhash.Hash)

	return children, args.Error(1)
}

func (m *mockBackend) Finalized(ctx context.Context) (model.HashAndNumber, error) {
	args := m.Called(ctx)

	return args.Get(0).(model.HashAndNumber), args.Error(1)
}

func (m *mockBackend) MainTrieValue(ctx context.Context, hash *chainhash.Hash, key []byte) ([]byte, bool, error) {
	args := m.Called(ctx, hash, key)

	value, _ := args.Get(0).([]byte)

	return value, args.Bool(1), args.Error(2)
}

func (m *mockBackend) ChildTrieValue(ctx context.Context, hash *chainhash.Hash, child state.ChildInfo, key []byte) ([]byte, bool, error) {
	args := m.Called(ctx, hash, child, key)

	value, _ := args.Get(0).([]byte)

	return value, args.Bool(1), args.Error(2)
}

// treeBackend is a block tree in memory. Hashes listed in failing cannot have their children listed.
type treeBackend struct {
	mockBackend
	children map[chainhash.Hash][]chainhash.Hash
	failing  map[chainhash.Hash]error
}

func (b *treeBackend) ChildrenOf(_ context.Context, hash *chainhash.Hash) ([]chainhash.Hash, error) {
	if err, ok := b.failing[*hash]; ok {
		return nil, err
	}

	return b.children[*hash], nil
}

// syncSpawner runs tasks on the calling goroutine.
type syncSpawner struct {
	err   error
	names []string
}

func (s *syncSpawner) Spawn(name, group string, task spawner.Task) error {
	if s.err != nil {
		return s.err
	}

	s.names = append(s.names, group+"/"+name)
	task(context.Background())

	return nil
}

type healthyStore struct{}

func (healthyStore) Health(context.Context, bool) (int, string, error) {
	return http.StatusOK, "OK", nil
}

// testHash returns a hash whose first byte is b.
func testHash(b byte) chainhash.Hash {
	var h chainhash.Hash
	h[0] = b

	return h
}
