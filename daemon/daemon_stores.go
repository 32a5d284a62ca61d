package daemon

import (
	"context"
	"sync"

	"github.com/bsv-blockchain/teranode-archive/settings"
	"github.com/bsv-blockchain/teranode-archive/stores/blob"
	blockchain_store "github.com/bsv-blockchain/teranode-archive/stores/blockchain"
	"github.com/bsv-blockchain/teranode-archive/stores/state"
	"github.com/bsv-blockchain/teranode-archive/ulogger"
)

// Stores lazily creates the stores shared by the daemon services, once per daemon.
type Stores struct {
	mu              sync.Mutex
	blockchainStore blockchain_store.Store
	stateStore      *state.Store
}

func (s *Stores) GetBlockchainStore(logger ulogger.Logger, tSettings *settings.Settings) (blockchain_store.Store, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.blockchainStore != nil {
		return s.blockchainStore, nil
	}

	store, err := blockchain_store.NewStore(logger, tSettings.BlockChain.StoreURL, tSettings)
	if err != nil {
		return nil, err
	}

	s.blockchainStore = store

	return store, nil
}

func (s *Stores) GetStateStore(logger ulogger.Logger, tSettings *settings.Settings) (*state.Store, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stateStore != nil {
		return s.stateStore, nil
	}

	blobs, err := blob.NewStore(logger, tSettings.DataFolder, tSettings.State.StoreURL)
	if err != nil {
		return nil, err
	}

	s.stateStore = state.New(logger, blobs)

	return s.stateStore, nil
}

// Close closes every store that was created. Errors are logged.
func (s *Stores) Close(ctx context.Context, logger ulogger.Logger) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stateStore != nil {
		logger.Debugf("closing state store")

		if err := s.stateStore.Close(ctx); err != nil {
			logger.Warnf("error closing state store: %v", err)
		}

		s.stateStore = nil
	}

	if s.blockchainStore != nil {
		logger.Debugf("closing blockchain store")

		if err := s.blockchainStore.Close(); err != nil {
			logger.Warnf("error closing blockchain store: %v", err)
		}

		s.blockchainStore = nil
	}
}
