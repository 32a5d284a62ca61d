package query

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/bsv-blockchain/go-bt/v2/chainhash"
	"github.com/bsv-blockchain/teranode-archive/chaincfg"
	"github.com/bsv-blockchain/teranode-archive/errors"
	"github.com/bsv-blockchain/teranode-archive/model"
	"github.com/bsv-blockchain/teranode-archive/settings"
	"github.com/bsv-blockchain/teranode-archive/stores/blob/memory"
	"github.com/bsv-blockchain/teranode-archive/stores/blockchain"
	"github.com/bsv-blockchain/teranode-archive/stores/state"
	"github.com/bsv-blockchain/teranode-archive/ulogger"
	"github.com/bsv-blockchain/teranode-archive/util/spawner"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func testSettings() *settings.Settings {
	return &settings.Settings{
		ChainCfgParams: &chaincfg.RegressionNetParams,
		BlockChain: settings.BlockChainSettings{
			StoreCacheEnabled: true,
			StoreCacheTTL:     time.Minute,
		},
	}
}

func newTestArchive(backend Backend, s Spawner) *Archive {
	genesis := chaincfg.RegressionNetParams.GenesisHash

	return New(ulogger.TestLogger{}, testSettings(), backend, healthyStore{}, s, genesis[:])
}

// waitEvent returns the event sent to sink and checks that it is the only one.
func waitEvent(t *testing.T, sink *ChanSink) Event {
	t.Helper()

	var event Event

	select {
	case event = <-sink.Events():
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for event")
	}

	select {
	case extra := <-sink.Events():
		t.Fatalf("unexpected second event %s", extra.Name())
	default:
	}

	return event
}

func assertNoEvent(t *testing.T, sink *ChanSink) {
	t.Helper()

	select {
	case event := <-sink.Events():
		t.Fatalf("unexpected %s event", event.Name())
	default:
	}
}

func TestGenesisHash(t *testing.T) {
	s := &syncSpawner{}
	a := newTestArchive(&mockBackend{}, s)

	genesis := chaincfg.RegressionNetParams.GenesisHash
	assert.Equal(t, encodeHash(genesis), a.GenesisHash())
	assert.True(t, strings.HasPrefix(a.GenesisHash(), "0x"))
	assert.Empty(t, s.names)
}

func TestBody(t *testing.T) {
	block, err := model.GenesisBlock(&chaincfg.RegressionNetParams)
	require.NoError(t, err)

	hash := block.Hash()

	t.Run("found", func(t *testing.T) {
		backend := &mockBackend{}
		backend.On("BlockByHash", mock.Anything, hash).Return(block, nil)

		s := &syncSpawner{}
		sink := NewChanSink()

		require.NoError(t, newTestArchive(backend, s).Body(sink, encodeHash(hash)))
		assert.Equal(t, EventDone{Result: "0x" + fmt.Sprintf("%x", block.TransactionsBytes())}, waitEvent(t, sink))
		assert.Equal(t, []string{"archive/body"}, s.names)
	})

	t.Run("unknown", func(t *testing.T) {
		backend := &mockBackend{}
		backend.On("BlockByHash", mock.Anything, mock.Anything).Return(nil, nil)

		sink := NewChanSink()

		require.NoError(t, newTestArchive(backend, &syncSpawner{}).Body(sink, encodeHash(hash)))
		assert.Equal(t, EventInaccessible{}, waitEvent(t, sink))
	})

	t.Run("backend error", func(t *testing.T) {
		backend := &mockBackend{}
		backend.On("BlockByHash", mock.Anything, mock.Anything).Return(nil, errors.NewStorageError("database is locked"))

		sink := NewChanSink()

		require.NoError(t, newTestArchive(backend, &syncSpawner{}).Body(sink, encodeHash(hash)))

		event := waitEvent(t, sink)
		require.IsType(t, EventError{}, event)
		assert.Contains(t, event.(EventError).Message, "database is locked")
	})

	t.Run("invalid hash", func(t *testing.T) {
		backend := &mockBackend{}
		s := &syncSpawner{}
		sink := NewChanSink()

		err := newTestArchive(backend, s).Body(sink, "0x1234")
		require.Error(t, err)
		assert.True(t, errors.Is(err, errors.ErrInvalidParam))
		assert.Contains(t, err.Error(), "0x1234")
		assert.Empty(t, s.names)
		assertNoEvent(t, sink)
	})
}

func TestHeader(t *testing.T) {
	block, err := model.GenesisBlock(&chaincfg.RegressionNetParams)
	require.NoError(t, err)

	t.Run("found", func(t *testing.T) {
		backend := &mockBackend{}
		backend.On("HeaderByHash", mock.Anything, block.Hash()).Return(block.Header, nil)

		sink := NewChanSink()

		require.NoError(t, newTestArchive(backend, &syncSpawner{}).Header(sink, encodeHash(block.Hash())))

		event := waitEvent(t, sink)
		require.IsType(t, EventDone{}, event)

		result := event.(EventDone).Result.(string)
		assert.Len(t, result, 2+2*model.BlockHeaderSize)
		assert.Equal(t, "0x"+fmt.Sprintf("%x", block.Header.Bytes()), result)
	})

	t.Run("unknown", func(t *testing.T) {
		backend := &mockBackend{}
		backend.On("HeaderByHash", mock.Anything, mock.Anything).Return(nil, nil)

		sink := NewChanSink()
		unknown := testHash(0xee)

		require.NoError(t, newTestArchive(backend, &syncSpawner{}).Header(sink, encodeHash(&unknown)))
		assert.Equal(t, EventInaccessible{}, waitEvent(t, sink))
	})

	t.Run("invalid hash", func(t *testing.T) {
		sink := NewChanSink()

		err := newTestArchive(&mockBackend{}, &syncSpawner{}).Header(sink, "zz")
		require.Error(t, err)
		assertNoEvent(t, sink)
	})
}

func TestHashByHeight(t *testing.T) {
	finalized := model.HashAndNumber{Hash: testHash(10), Number: 10}

	t.Run("below finalized", func(t *testing.T) {
		canonical := testHash(7)

		backend := &mockBackend{}
		backend.On("Finalized", mock.Anything).Return(finalized, nil)
		backend.On("CanonicalHashAtHeight", mock.Anything, uint32(7)).Return(&canonical, nil)

		sink := NewChanSink()

		require.NoError(t, newTestArchive(backend, &syncSpawner{}).HashByHeight(sink, "0x7"))
		assert.Equal(t, EventDone{Result: []string{encodeHash(&canonical)}}, waitEvent(t, sink))
	})

	t.Run("pruned", func(t *testing.T) {
		backend := &mockBackend{}
		backend.On("Finalized", mock.Anything).Return(finalized, nil)
		backend.On("CanonicalHashAtHeight", mock.Anything, uint32(1)).Return(nil, nil)

		sink := NewChanSink()

		require.NoError(t, newTestArchive(backend, &syncSpawner{}).HashByHeight(sink, "0x1"))
		assert.Equal(t, EventDone{Result: []string{}}, waitEvent(t, sink))
	})

	t.Run("canonical lookup fails", func(t *testing.T) {
		backend := &mockBackend{}
		backend.On("Finalized", mock.Anything).Return(finalized, nil)
		backend.On("CanonicalHashAtHeight", mock.Anything, uint32(3)).Return(nil, errors.NewStorageError("block 3 pruned from index"))

		sink := NewChanSink()

		require.NoError(t, newTestArchive(backend, &syncSpawner{}).HashByHeight(sink, "0x3"))
		assert.Equal(t, EventDone{Result: []string{}}, waitEvent(t, sink))
		assertNoEvent(t, sink)
	})

	t.Run("forks", func(t *testing.T) {
		backend, root := forkTree()
		backend.On("Finalized", mock.Anything).Return(root, nil)

		sink := NewChanSink()

		require.NoError(t, newTestArchive(backend, &syncSpawner{}).HashByHeight(sink, "0xc"))

		event := waitEvent(t, sink)
		require.IsType(t, EventDone{}, event)

		a2, b2 := testHash(0xa2), testHash(0xb2)
		assert.ElementsMatch(t, []string{encodeHash(&a2), encodeHash(&b2)}, event.(EventDone).Result)
	})

	t.Run("finalized lookup fails", func(t *testing.T) {
		backend := &mockBackend{}
		backend.On("Finalized", mock.Anything).Return(model.HashAndNumber{}, errors.NewStateError("no finalized block"))

		sink := NewChanSink()

		require.NoError(t, newTestArchive(backend, &syncSpawner{}).HashByHeight(sink, "0x1"))
		assert.IsType(t, EventError{}, waitEvent(t, sink))
	})

	t.Run("invalid height", func(t *testing.T) {
		s := &syncSpawner{}
		sink := NewChanSink()

		err := newTestArchive(&mockBackend{}, s).HashByHeight(sink, "0xzz")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "0xzz")
		assert.Empty(t, s.names)
		assertNoEvent(t, sink)
	})
}

func TestStorage(t *testing.T) {
	hash := testHash(1)

	t.Run("invalid key", func(t *testing.T) {
		backend := &mockBackend{}
		s := &syncSpawner{}
		sink := NewChanSink()

		err := newTestArchive(backend, s).Storage(sink, encodeHash(&hash), "not-hex", nil)
		require.Error(t, err)

		var tErr *errors.Error
		require.True(t, errors.As(err, &tErr))
		assert.Equal(t, errors.ERR_INVALID_PARAM, tErr.Code())
		assert.Equal(t, "not-hex", tErr.GetData("param"))

		assert.Empty(t, s.names)
		assertNoEvent(t, sink)
		backend.AssertNotCalled(t, "MainTrieValue", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("invalid child key", func(t *testing.T) {
		s := &syncSpawner{}
		sink := NewChanSink()
		childKey := "0xnope"

		err := newTestArchive(&mockBackend{}, s).Storage(sink, encodeHash(&hash), "0x01", &childKey)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "0xnope")
		assert.Empty(t, s.names)
		assertNoEvent(t, sink)
	})

	t.Run("reserved key", func(t *testing.T) {
		backend := &mockBackend{}
		sink := NewChanSink()
		key := fmt.Sprintf("0x%x", state.DefaultChildStorageKeyPrefix+"x")

		require.NoError(t, newTestArchive(backend, &syncSpawner{}).Storage(sink, encodeHash(&hash), key, nil))
		assert.Equal(t, absent(), waitEvent(t, sink))
		backend.AssertNotCalled(t, "MainTrieValue", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("reserved child key", func(t *testing.T) {
		backend := &mockBackend{}
		sink := NewChanSink()
		childKey := fmt.Sprintf("0x%x", state.ChildStorageKeyPrefix+"x")

		require.NoError(t, newTestArchive(backend, &syncSpawner{}).Storage(sink, encodeHash(&hash), "0x01", &childKey))
		assert.Equal(t, absent(), waitEvent(t, sink))
		backend.AssertNotCalled(t, "ChildTrieValue", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("child value", func(t *testing.T) {
		backend := &mockBackend{}
		backend.On("ChildTrieValue", mock.Anything, &hash, state.NewDefaultChildInfo([]byte{0xc0}), []byte{0x01}).Return([]byte{0x99}, true, nil)

		sink := NewChanSink()
		childKey := "c0"

		require.NoError(t, newTestArchive(backend, &syncSpawner{}).Storage(sink, encodeHash(&hash), "0x01", &childKey))
		assert.Equal(t, present("0x99"), waitEvent(t, sink))
	})
}

func TestSpawnFailure(t *testing.T) {
	backend := &mockBackend{}
	s := &syncSpawner{err: errors.NewServiceNotStartedError("spawner is stopped")}
	sink := NewChanSink()
	hash := testHash(1)

	require.NoError(t, newTestArchive(backend, s).Header(sink, encodeHash(&hash)))

	event := waitEvent(t, sink)
	require.IsType(t, EventError{}, event)
	assert.Contains(t, event.(EventError).Message, "spawner is stopped")
	backend.AssertNotCalled(t, "HeaderByHash", mock.Anything, mock.Anything)
}

func TestTaskPanic(t *testing.T) {
	backend := &mockBackend{}
	backend.On("HeaderByHash", mock.Anything, mock.Anything).Run(func(mock.Arguments) {
		panic("header codec exploded")
	})

	sink := NewChanSink()
	hash := testHash(1)

	require.NoError(t, newTestArchive(backend, &syncSpawner{}).Header(sink, encodeHash(&hash)))

	event := waitEvent(t, sink)
	require.IsType(t, EventError{}, event)
	assert.Equal(t, "internal error: header codec exploded", event.(EventError).Message)
}

func TestClosedSinkCancelsTask(t *testing.T) {
	backend := &mockBackend{}
	backend.On("BlockByHash", mock.Anything, mock.Anything).Run(func(args mock.Arguments) {
		<-args.Get(0).(context.Context).Done()
	}).Return(nil, context.Canceled)

	sink := NewChanSink()
	sink.Close()

	hash := testHash(1)

	require.NoError(t, newTestArchive(backend, &syncSpawner{}).Body(sink, encodeHash(&hash)))
	assertNoEvent(t, sink)
	backend.AssertNumberOfCalls(t, "BlockByHash", 1)
}

func TestSubscription(t *testing.T) {
	ctx := context.Background()

	t.Run("completes once", func(t *testing.T) {
		sink := NewChanSink()
		sub := newSubscription(OperationHeader, sink)

		require.NoError(t, sub.spawned(ctx))

		delivered, err := sub.complete(ctx, EventInaccessible{})
		require.NoError(t, err)
		assert.True(t, delivered)

		delivered, err = sub.complete(ctx, EventError{Message: "late"})
		require.NoError(t, err)
		assert.False(t, delivered)

		assert.Equal(t, subscriptionStateCompleted, sub.current())
		assert.Equal(t, EventInaccessible{}, waitEvent(t, sink))
	})

	t.Run("rejected cannot spawn", func(t *testing.T) {
		sub := newSubscription(OperationStorage, NewChanSink())

		rejection := errors.NewInvalidParamError("invalid key: not-hex")
		require.Equal(t, rejection, sub.reject(ctx, rejection))
		assert.Equal(t, subscriptionStateRejected, sub.current())

		require.Error(t, sub.spawned(ctx))

		delivered, err := sub.complete(ctx, EventInaccessible{})
		require.NoError(t, err)
		assert.False(t, delivered)
	})
}

func TestArchiveHealth(t *testing.T) {
	backend := &mockBackend{}
	backend.On("Finalized", mock.Anything).Return(model.HashAndNumber{Hash: testHash(1), Number: 3}, nil)

	a := newTestArchive(backend, &syncSpawner{})

	status, _, err := a.Health(context.Background(), true)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, status)

	status, message, err := a.Health(context.Background(), false)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, status)
	assert.Contains(t, message, "ChainBackend")
	assert.Contains(t, message, "StateStore")
}

// chainFixture is an archive over a real sqlitememory chain and a memory state store.
type chainFixture struct {
	archive *Archive
	blocks  blockchain.Store
	state   *state.Store
	genesis *chainhash.Hash
}

func newChainFixture(t *testing.T) *chainFixture {
	t.Helper()

	storeURL, err := url.Parse("sqlitememory:///archive")
	require.NoError(t, err)

	blocks, err := blockchain.NewStore(ulogger.TestLogger{}, storeURL, testSettings())
	require.NoError(t, err)

	t.Cleanup(func() {
		_ = blocks.Close()
	})

	stateStore := state.New(ulogger.TestLogger{}, memory.New())

	s := spawner.New(ulogger.TestLogger{}, 4, 0)

	t.Cleanup(func() {
		_ = s.Stop(context.Background())
	})

	genesis := chaincfg.RegressionNetParams.GenesisHash

	return &chainFixture{
		archive: New(ulogger.TestLogger{}, testSettings(), NewChainBackend(blocks, stateStore), stateStore, s, genesis[:]),
		blocks:  blocks,
		state:   stateStore,
		genesis: genesis,
	}
}

func TestArchiveOverStores(t *testing.T) {
	ctx := context.Background()
	f := newChainFixture(t)

	genesisHex := encodeHash(f.genesis)
	require.Equal(t, genesisHex, f.archive.GenesisHash())

	require.NoError(t, f.state.SetMainValue(ctx, *f.genesis, []byte("balance:alice"), []byte{0x2a}))

	t.Run("storage round trip", func(t *testing.T) {
		sink := NewChanSink()
		key := fmt.Sprintf("0x%x", "balance:alice")

		require.NoError(t, f.archive.Storage(sink, genesisHex, key, nil))
		assert.Equal(t, present("0x2a"), waitEvent(t, sink))

		sink = NewChanSink()

		require.NoError(t, f.archive.Storage(sink, genesisHex, "00", nil))
		assert.Equal(t, absent(), waitEvent(t, sink))
	})

	t.Run("unknown header", func(t *testing.T) {
		sink := NewChanSink()
		unknown := testHash(0xee)

		require.NoError(t, f.archive.Header(sink, encodeHash(&unknown)))
		assert.Equal(t, EventInaccessible{}, waitEvent(t, sink))
	})

	t.Run("genesis header", func(t *testing.T) {
		block, err := model.GenesisBlock(&chaincfg.RegressionNetParams)
		require.NoError(t, err)

		sink := NewChanSink()

		require.NoError(t, f.archive.Header(sink, genesisHex))
		assert.Equal(t, EventDone{Result: fmt.Sprintf("0x%x", block.Header.Bytes())}, waitEvent(t, sink))
	})

	t.Run("hash at genesis height", func(t *testing.T) {
		sink := NewChanSink()

		require.NoError(t, f.archive.HashByHeight(sink, "0x0"))
		assert.Equal(t, EventDone{Result: []string{genesisHex}}, waitEvent(t, sink))
	})

	t.Run("nothing above genesis", func(t *testing.T) {
		sink := NewChanSink()

		require.NoError(t, f.archive.HashByHeight(sink, "0x1"))
		assert.Equal(t, EventDone{Result: []string{}}, waitEvent(t, sink))
	})

	t.Run("pruned body", func(t *testing.T) {
		sink := NewChanSink()

		require.NoError(t, f.archive.Body(sink, genesisHex))
		require.IsType(t, EventDone{}, waitEvent(t, sink))

		_, err := f.blocks.PruneBodies(ctx, 1)
		require.NoError(t, err)

		sink = NewChanSink()

		require.NoError(t, f.archive.Body(sink, genesisHex))
		assert.Equal(t, EventInaccessible{}, waitEvent(t, sink))
	})
}

func TestConcurrentSubscriptions(t *testing.T) {
	f := newChainFixture(t)

	const n = 50

	var wg sync.WaitGroup

	events := make([]Event, n)

	for i := 0; i < n; i++ {
		wg.Add(1)

		go func(i int) {
			defer wg.Done()

			sink := NewChanSink()
			if err := f.archive.HashByHeight(sink, fmt.Sprintf("0x%x", i%2)); err != nil {
				return
			}

			select {
			case events[i] = <-sink.Events():
			case <-time.After(5 * time.Second):
			}
		}(i)
	}

	wg.Wait()

	genesisHex := encodeHash(f.genesis)

	for i, event := range events {
		require.NotNil(t, event, "subscription %d got no event", i)

		if i%2 == 0 {
			assert.Equal(t, EventDone{Result: []string{genesisHex}}, event)
		} else {
			assert.Equal(t, EventDone{Result: []string{}}, event)
		}
	}
}
