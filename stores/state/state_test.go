package state

import (
	"context"
	"testing"

	"github.com/bsv-blockchain/go-bt/v2/chainhash"
	"github.com/bsv-blockchain/teranode-archive/errors"
	"github.com/bsv-blockchain/teranode-archive/stores/blob/memory"
	"github.com/bsv-blockchain/teranode-archive/stores/blob/null"
	"github.com/bsv-blockchain/teranode-archive/ulogger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	blockA = chainhash.DoubleHashH([]byte("a"))
	blockB = chainhash.DoubleHashH([]byte("b"))
)

func TestChildInfo(t *testing.T) {
	child := NewDefaultChildInfo([]byte("balances"))

	assert.Equal(t, []byte("balances"), child.StorageKey())
	assert.Equal(t, []byte(":child_storage:default:balances"), child.PrefixedStorageKey())
	assert.Equal(t, "child:62616c616e636573", child.String())

	t.Run("owns its key", func(t *testing.T) {
		key := []byte("abc")
		c := NewDefaultChildInfo(key)
		key[0] = 'x'
		assert.Equal(t, []byte("abc"), c.StorageKey())
	})

	t.Run("empty key", func(t *testing.T) {
		c := NewDefaultChildInfo(nil)
		assert.Equal(t, []byte(DefaultChildStorageKeyPrefix), c.PrefixedStorageKey())
	})
}

func TestIsKeyQueryable(t *testing.T) {
	tests := []struct {
		key       string
		queryable bool
	}{
		{key: "", queryable: true},
		{key: "balance", queryable: true},
		{key: ":code", queryable: true},
		{key: ":child_storage", queryable: true},
		{key: ":child_storage:", queryable: false},
		{key: ":child_storage:foo", queryable: false},
		{key: ":child_storage:default:", queryable: false},
		{key: ":child_storage:default:balances", queryable: false},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			assert.Equal(t, tt.queryable, IsKeyQueryable([]byte(tt.key)))
		})
	}
}

func TestStore(t *testing.T) {
	ctx := context.Background()
	store := New(ulogger.TestLogger{}, memory.New())

	child := NewDefaultChildInfo([]byte("balances"))
	other := NewDefaultChildInfo([]byte("nonces"))

	require.NoError(t, store.SetMainValue(ctx, blockA, []byte("key"), []byte("main-a")))
	require.NoError(t, store.SetMainValue(ctx, blockB, []byte("key"), []byte("main-b")))
	require.NoError(t, store.SetChildValue(ctx, blockA, child, []byte("key"), []byte("child-a")))
	require.NoError(t, store.SetMainValue(ctx, blockA, []byte("empty"), []byte{}))

	t.Run("main values are per block", func(t *testing.T) {
		value, ok, err := store.MainValue(ctx, blockA, []byte("key"))
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, []byte("main-a"), value)

		value, ok, err = store.MainValue(ctx, blockB, []byte("key"))
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, []byte("main-b"), value)
	})

	t.Run("child values do not alias main values", func(t *testing.T) {
		value, ok, err := store.ChildValue(ctx, blockA, child, []byte("key"))
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, []byte("child-a"), value)

		_, ok, err = store.ChildValue(ctx, blockA, other, []byte("key"))
		require.NoError(t, err)
		assert.False(t, ok)

		_, ok, err = store.ChildValue(ctx, blockB, child, []byte("key"))
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("missing value", func(t *testing.T) {
		value, ok, err := store.MainValue(ctx, blockA, []byte("missing"))
		require.NoError(t, err)
		assert.False(t, ok)
		assert.Nil(t, value)
	})

	t.Run("empty value is present", func(t *testing.T) {
		value, ok, err := store.MainValue(ctx, blockA, []byte("empty"))
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, []byte{}, value)
	})

	t.Run("overwrite", func(t *testing.T) {
		require.NoError(t, store.SetMainValue(ctx, blockA, []byte("key"), []byte("main-a2")))

		value, _, err := store.MainValue(ctx, blockA, []byte("key"))
		require.NoError(t, err)
		assert.Equal(t, []byte("main-a2"), value)
	})

	t.Run("reserved key rejected", func(t *testing.T) {
		err := store.SetMainValue(ctx, blockA, child.PrefixedStorageKey(), []byte("root"))
		require.Error(t, err)
		assert.True(t, errors.Is(err, errors.ErrInvalidArgument))
	})

	t.Run("health", func(t *testing.T) {
		code, _, err := store.Health(ctx, true)
		require.NoError(t, err)
		assert.Equal(t, 200, code)
	})
}

func TestStoreNull(t *testing.T) {
	ctx := context.Background()

	blobs, err := null.New(ulogger.TestLogger{})
	require.NoError(t, err)

	store := New(ulogger.TestLogger{}, blobs)
	require.NoError(t, store.SetMainValue(ctx, blockA, []byte("key"), []byte("value")))

	_, ok, err := store.MainValue(ctx, blockA, []byte("key"))
	require.NoError(t, err)
	assert.False(t, ok)
}
