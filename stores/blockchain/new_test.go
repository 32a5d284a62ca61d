package blockchain

import (
	"context"
	"net/url"
	"testing"
	"time"

	"github.com/bsv-blockchain/teranode-archive/chaincfg"
	"github.com/bsv-blockchain/teranode-archive/errors"
	"github.com/bsv-blockchain/teranode-archive/model"
	"github.com/bsv-blockchain/teranode-archive/settings"
	"github.com/bsv-blockchain/teranode-archive/ulogger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewStore(t *testing.T) {
	tSettings := &settings.Settings{
		ChainCfgParams: &chaincfg.MainNetParams,
		BlockChain: settings.BlockChainSettings{
			StoreCacheEnabled: true,
			StoreCacheTTL:     time.Minute,
		},
	}

	t.Run("sqlitememory", func(t *testing.T) {
		storeURL, err := url.Parse("sqlitememory:///blockchain")
		require.NoError(t, err)

		store, err := NewStore(ulogger.TestLogger{}, storeURL, tSettings)
		require.NoError(t, err)

		defer func() {
			_ = store.Close()
		}()

		finalized, err := store.GetFinalized(context.Background())
		require.NoError(t, err)
		assert.Equal(t, "000000000019d6689c085ae165831e934ff763ae46a2a6c172b3f1b60a8ce26f", finalized.Hash.String())
	})

	t.Run("sqlite file", func(t *testing.T) {
		storeURL, err := url.Parse("sqlite:///blockchain")
		require.NoError(t, err)

		fileSettings := *tSettings
		fileSettings.DataFolder = t.TempDir()

		store, err := NewStore(ulogger.TestLogger{}, storeURL, &fileSettings)
		require.NoError(t, err)
		require.NoError(t, store.Close())

		// reopening finds the genesis block already there
		store, err = NewStore(ulogger.TestLogger{}, storeURL, &fileSettings)
		require.NoError(t, err)
		require.NoError(t, store.Close())

		// but refuses a database of another network
		regtestSettings := fileSettings
		regtestSettings.ChainCfgParams = &chaincfg.RegressionNetParams

		_, err = NewStore(ulogger.TestLogger{}, storeURL, &regtestSettings)
		require.Error(t, err)
	})

	t.Run("unknown scheme", func(t *testing.T) {
		storeURL, err := url.Parse("redis://localhost")
		require.NoError(t, err)

		_, err = NewStore(ulogger.TestLogger{}, storeURL, tSettings)
		require.Error(t, err)
		assert.True(t, errors.Is(err, errors.ErrConfiguration))
	})
}

func TestMockStore(t *testing.T) {
	ctx := context.Background()
	store := NewMockStore()

	genesis, err := model.GenesisBlock(&chaincfg.RegressionNetParams)
	require.NoError(t, err)

	_, _, err = store.StoreBlock(ctx, genesis)
	require.NoError(t, err)
	require.NoError(t, store.SetFinalized(ctx, genesis.Hash()))

	hash, err := store.GetCanonicalHashAtHeight(ctx, 0)
	require.NoError(t, err)
	assert.Equal(t, genesis.Hash(), hash)

	pruned, err := store.PruneBodies(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(1), pruned)

	_, err = store.GetBlock(ctx, genesis.Hash())
	assert.True(t, errors.Is(err, errors.ErrNotFound))

	store.Err = errors.NewStorageError("disk on fire")

	_, err = store.GetFinalized(ctx)
	assert.True(t, errors.Is(err, errors.ErrStorageError))
}
