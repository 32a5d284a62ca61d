package query

import (
	"context"
	"testing"

	"github.com/bsv-blockchain/go-bt/v2/chainhash"
	"github.com/bsv-blockchain/teranode-archive/errors"
	"github.com/bsv-blockchain/teranode-archive/model"
	"github.com/bsv-blockchain/teranode-archive/ulogger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestHashesAtHeightFinalized(t *testing.T) {
	initPrometheusMetrics()

	ctx := context.Background()
	finalized := model.HashAndNumber{Hash: testHash(10), Number: 10}
	canonical := testHash(5)

	t.Run("canonical hash", func(t *testing.T) {
		backend := &mockBackend{}
		backend.On("CanonicalHashAtHeight", mock.Anything, uint32(5)).Return(&canonical, nil)

		hashes, err := hashesAtHeight(ctx, ulogger.TestLogger{}, backend, finalized, 5)
		require.NoError(t, err)
		assert.Equal(t, []chainhash.Hash{canonical}, hashes)
		backend.AssertNotCalled(t, "ChildrenOf", mock.Anything, mock.Anything)
	})

	t.Run("finalized height itself", func(t *testing.T) {
		backend := &mockBackend{}
		backend.On("CanonicalHashAtHeight", mock.Anything, uint32(10)).Return(&finalized.Hash, nil)

		hashes, err := hashesAtHeight(ctx, ulogger.TestLogger{}, backend, finalized, 10)
		require.NoError(t, err)
		assert.Equal(t, []chainhash.Hash{finalized.Hash}, hashes)
	})

	t.Run("pruned", func(t *testing.T) {
		backend := &mockBackend{}
		backend.On("CanonicalHashAtHeight", mock.Anything, uint32(3)).Return(nil, nil)

		hashes, err := hashesAtHeight(ctx, ulogger.TestLogger{}, backend, finalized, 3)
		require.NoError(t, err)
		require.NotNil(t, hashes)
		assert.Empty(t, hashes)
	})

	t.Run("backend error", func(t *testing.T) {
		backend := &mockBackend{}
		backend.On("CanonicalHashAtHeight", mock.Anything, uint32(3)).Return(nil, errors.NewStorageError("index unavailable"))

		hashes, err := hashesAtHeight(ctx, ulogger.TestLogger{}, backend, finalized, 3)
		require.NoError(t, err)
		require.NotNil(t, hashes)
		assert.Empty(t, hashes)
	})
}

// forkTree builds finalized(10) -> a(11) -> a2(12) and finalized(10) -> b(11) -> b2(12) -> b3(13).
func forkTree() (*treeBackend, model.HashAndNumber) {
	finalized := model.HashAndNumber{Hash: testHash(10), Number: 10}

	backend := &treeBackend{
		children: map[chainhash.Hash][]chainhash.Hash{
			testHash(10): {testHash(0xa1), testHash(0xb1)},
			testHash(0xa1): {testHash(0xa2)},
			testHash(0xb1): {testHash(0xb2)},
			testHash(0xb2): {testHash(0xb3)},
		},
		failing: map[chainhash.Hash]error{},
	}

	return backend, finalized
}

func TestHashesAtHeightForks(t *testing.T) {
	initPrometheusMetrics()

	ctx := context.Background()

	t.Run("both branches", func(t *testing.T) {
		backend, finalized := forkTree()

		hashes, err := hashesAtHeight(ctx, ulogger.TestLogger{}, backend, finalized, 12)
		require.NoError(t, err)
		assert.ElementsMatch(t, []chainhash.Hash{testHash(0xa2), testHash(0xb2)}, hashes)
		backend.AssertNotCalled(t, "CanonicalHashAtHeight", mock.Anything, mock.Anything)
	})

	t.Run("single branch", func(t *testing.T) {
		backend, finalized := forkTree()

		hashes, err := hashesAtHeight(ctx, ulogger.TestLogger{}, backend, finalized, 13)
		require.NoError(t, err)
		assert.Equal(t, []chainhash.Hash{testHash(0xb3)}, hashes)
	})

	t.Run("nothing imported yet", func(t *testing.T) {
		backend, finalized := forkTree()

		hashes, err := hashesAtHeight(ctx, ulogger.TestLogger{}, backend, finalized, 20)
		require.NoError(t, err)
		require.NotNil(t, hashes)
		assert.Empty(t, hashes)
	})

	t.Run("failing branch is skipped", func(t *testing.T) {
		backend, finalized := forkTree()
		backend.failing[testHash(0xa1)] = errors.NewStorageError("children of a1 pruned")

		hashes, err := hashesAtHeight(ctx, ulogger.TestLogger{}, backend, finalized, 12)
		require.NoError(t, err)
		assert.Equal(t, []chainhash.Hash{testHash(0xb2)}, hashes)
	})

	t.Run("failing root", func(t *testing.T) {
		backend, finalized := forkTree()
		backend.failing[finalized.Hash] = errors.NewStorageError("gone")

		hashes, err := hashesAtHeight(ctx, ulogger.TestLogger{}, backend, finalized, 12)
		require.NoError(t, err)
		assert.Empty(t, hashes)
	})

	t.Run("cancelled", func(t *testing.T) {
		backend, finalized := forkTree()

		cancelledCtx, cancel := context.WithCancel(ctx)
		cancel()

		_, err := hashesAtHeight(cancelledCtx, ulogger.TestLogger{}, backend, finalized, 12)
		require.ErrorIs(t, err, context.Canceled)
	})
}
