package blockchain

import (
	"context"
	"net/http"
	"sync"

	"github.com/bsv-blockchain/go-bt/v2/chainhash"
	"github.com/bsv-blockchain/teranode-archive/errors"
	"github.com/bsv-blockchain/teranode-archive/model"
	"github.com/bsv-blockchain/teranode-archive/stores/blockchain/options"
)

// MockStore is an in-memory Store for tests. Setting Err makes every read fail with it.
type MockStore struct {
	mu        sync.RWMutex
	Blocks    map[chainhash.Hash]*model.Block
	Children  map[chainhash.Hash][]chainhash.Hash
	Pruned    map[chainhash.Hash]bool
	Finalized model.HashAndNumber
	state     map[string][]byte
	Err       error
}

func NewMockStore() *MockStore {
	return &MockStore{
		Blocks:   map[chainhash.Hash]*model.Block{},
		Children: map[chainhash.Hash][]chainhash.Hash{},
		Pruned:   map[chainhash.Hash]bool{},
		state:    map[string][]byte{},
	}
}

func (m *MockStore) Health(_ context.Context, _ bool) (int, string, error) {
	if m.Err != nil {
		return http.StatusServiceUnavailable, "Mock store error", m.Err
	}

	return http.StatusOK, "OK", nil
}

func (m *MockStore) Close() error {
	return nil
}

func (m *MockStore) GetBlock(_ context.Context, blockHash *chainhash.Hash) (*model.Block, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.Err != nil {
		return nil, m.Err
	}

	block, ok := m.Blocks[*blockHash]
	if !ok {
		return nil, errors.NewBlockNotFoundError("block %s not found", blockHash.String())
	}

	if m.Pruned[*blockHash] {
		return nil, errors.NewNotFoundError("body of block %s has been pruned", blockHash.String())
	}

	return block, nil
}

func (m *MockStore) GetBlockHeader(_ context.Context, blockHash *chainhash.Hash) (*model.BlockHeader, uint32, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.Err != nil {
		return nil, 0, m.Err
	}

	block, ok := m.Blocks[*blockHash]
	if !ok {
		return nil, 0, errors.NewBlockNotFoundError("block %s not found", blockHash.String())
	}

	return block.Header, block.Height, nil
}

func (m *MockStore) GetBlockExists(_ context.Context, blockHash *chainhash.Hash) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.Err != nil {
		return false, m.Err
	}

	_, ok := m.Blocks[*blockHash]

	return ok, nil
}

func (m *MockStore) GetBlockChildren(_ context.Context, blockHash *chainhash.Hash) ([]chainhash.Hash, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.Err != nil {
		return nil, m.Err
	}

	return append([]chainhash.Hash(nil), m.Children[*blockHash]...), nil
}

func (m *MockStore) GetCanonicalHashAtHeight(_ context.Context, height uint32) (*chainhash.Hash, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.Err != nil {
		return nil, m.Err
	}

	if height > m.Finalized.Number {
		return nil, nil
	}

	hash := m.Finalized.Hash

	for {
		block, ok := m.Blocks[hash]
		if !ok {
			return nil, nil
		}

		if block.Height == height {
			return &hash, nil
		}

		hash = *block.Header.HashPrevBlock
	}
}

func (m *MockStore) GetFinalized(_ context.Context) (model.HashAndNumber, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.Err != nil {
		return model.HashAndNumber{}, m.Err
	}

	return m.Finalized, nil
}

func (m *MockStore) SetFinalized(_ context.Context, blockHash *chainhash.Hash) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	block, ok := m.Blocks[*blockHash]
	if !ok {
		return errors.NewBlockNotFoundError("block %s not found", blockHash.String())
	}

	m.Finalized = model.HashAndNumber{Hash: *blockHash, Number: block.Height}

	return nil
}

// StoreBlock trusts block.Height instead of deriving it from the parent.
func (m *MockStore) StoreBlock(_ context.Context, block *model.Block, opts ...options.StoreBlockOption) (uint64, uint32, error) {
	storeBlockOptions := options.StoreBlockOptions{}
	for _, opt := range opts {
		opt(&storeBlockOptions)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	hash := *block.Hash()
	if _, ok := m.Blocks[hash]; ok {
		return 0, 0, errors.NewBlockExistsError("block %s already exists", hash.String())
	}

	m.Blocks[hash] = block
	m.Children[*block.Header.HashPrevBlock] = append(m.Children[*block.Header.HashPrevBlock], hash)

	if storeBlockOptions.WithoutBody {
		m.Pruned[hash] = true
	}

	return uint64(len(m.Blocks)), block.Height, nil
}

func (m *MockStore) PruneBodies(_ context.Context, belowHeight uint32) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var pruned int64

	for hash, block := range m.Blocks {
		if block.Height < belowHeight && !m.Pruned[hash] {
			m.Pruned[hash] = true
			pruned++
		}
	}

	return pruned, nil
}

func (m *MockStore) GetState(_ context.Context, key string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	data, ok := m.state[key]
	if !ok {
		return nil, errors.NewNotFoundError("state %s not found", key)
	}

	return data, nil
}

func (m *MockStore) SetState(_ context.Context, key string, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.state[key] = data

	return nil
}
