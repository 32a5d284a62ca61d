package centrifugeimpl

import (
	"context"
	"encoding/hex"
	"net/url"
	"sync"
	"testing"
	"time"

	"github.com/bsv-blockchain/go-bt/v2/chainhash"
	"github.com/bsv-blockchain/teranode-archive/chaincfg"
	"github.com/bsv-blockchain/teranode-archive/errors"
	"github.com/bsv-blockchain/teranode-archive/services/archive/httpimpl"
	"github.com/bsv-blockchain/teranode-archive/services/archive/query"
	"github.com/bsv-blockchain/teranode-archive/settings"
	"github.com/bsv-blockchain/teranode-archive/stores/blob/memory"
	"github.com/bsv-blockchain/teranode-archive/stores/blockchain"
	"github.com/bsv-blockchain/teranode-archive/stores/state"
	"github.com/bsv-blockchain/teranode-archive/ulogger"
	"github.com/bsv-blockchain/teranode-archive/util/spawner"
	"github.com/centrifugal/centrifuge"
	jsoniter "github.com/json-iterator/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// inlineSpawner runs tasks on the calling goroutine.
type inlineSpawner struct{}

func (inlineSpawner) Spawn(_, _ string, task spawner.Task) error {
	task(context.Background())
	return nil
}

type fakeClient struct {
	mu       sync.Mutex
	messages [][]byte
}

func (f *fakeClient) Send(data []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.messages = append(f.messages, data)

	return nil
}

func (f *fakeClient) received() [][]byte {
	f.mu.Lock()
	defer f.mu.Unlock()

	return append([][]byte(nil), f.messages...)
}

func testSettings() *settings.Settings {
	return &settings.Settings{
		ChainCfgParams: &chaincfg.RegressionNetParams,
		Archive: settings.ArchiveSettings{
			APIPrefix:    "/api/v1",
			EventTimeout: time.Second,
		},
		BlockChain: settings.BlockChainSettings{
			StoreCacheEnabled: true,
			StoreCacheTTL:     time.Minute,
		},
	}
}

func newTestCentrifuge(t *testing.T) (*Centrifuge, *state.Store, *chainhash.Hash) {
	t.Helper()

	tSettings := testSettings()

	storeURL, err := url.Parse("sqlitememory:///archive_centrifuge")
	require.NoError(t, err)

	blocks, err := blockchain.NewStore(ulogger.TestLogger{}, storeURL, tSettings)
	require.NoError(t, err)

	t.Cleanup(func() {
		_ = blocks.Close()
	})

	stateStore := state.New(ulogger.TestLogger{}, memory.New())
	genesis := tSettings.ChainCfgParams.GenesisHash

	archive := query.New(ulogger.TestLogger{}, tSettings, query.NewChainBackend(blocks, stateStore), stateStore, inlineSpawner{}, genesis[:])

	httpServer, err := httpimpl.New(ulogger.TestLogger{}, tSettings, archive, archive)
	require.NoError(t, err)

	c, err := New(ulogger.TestLogger{}, tSettings, archive, httpServer)
	require.NoError(t, err)

	return c, stateStore, genesis
}

func hexHash(hash *chainhash.Hash) string {
	return "0x" + hex.EncodeToString(hash[:])
}

func TestNew(t *testing.T) {
	_, err := New(ulogger.TestLogger{}, testSettings(), nil, nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrConfiguration))
}

func TestGenesisHashRPC(t *testing.T) {
	c, _, genesis := newTestCentrifuge(t)
	client := &fakeClient{}

	reply, sink, err := c.handleRPC(newConnection(client), MethodGenesisHash, nil)
	require.NoError(t, err)
	assert.Nil(t, sink)
	assert.JSONEq(t, `"`+hexHash(genesis)+`"`, string(reply))
	assert.Empty(t, client.received())
}

func TestSubscriptionRPC(t *testing.T) {
	ctx := context.Background()
	c, stateStore, genesis := newTestCentrifuge(t)

	require.NoError(t, stateStore.SetMainValue(ctx, *genesis, []byte{0x01}, []byte{0x42}))

	tests := []struct {
		name     string
		method   string
		params   string
		expected string
	}{
		{
			name:     "storage",
			method:   MethodStorage,
			params:   `{"hash":"` + hexHash(genesis) + `","key":"0x01"}`,
			expected: `{"event":"done","result":"0x42"}`,
		},
		{
			name:     "child storage",
			method:   MethodStorage,
			params:   `{"hash":"` + hexHash(genesis) + `","key":"0x01","childKey":"0xc0"}`,
			expected: `{"event":"done","result":null}`,
		},
		{
			name:     "hash by height",
			method:   MethodHashByHeight,
			params:   `{"height":"0x0"}`,
			expected: `{"event":"done","result":["` + hexHash(genesis) + `"]}`,
		},
		{
			name:     "unknown header",
			method:   MethodHeader,
			params:   `{"hash":"0x` + hex.EncodeToString(make([]byte, 32)) + `"}`,
			expected: `{"event":"inaccessible"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := &fakeClient{}

			reply, sink, err := c.handleRPC(newConnection(client), tt.method, []byte(tt.params))
			require.NoError(t, err)
			require.NotNil(t, sink)

			var sub subscriptionReply
			require.NoError(t, json.Unmarshal(reply, &sub))
			assert.Equal(t, sink.id, sub.Subscription)

			// the task already ran, but nothing is pushed before the reply is out
			assert.Empty(t, client.received())

			sink.release()

			messages := client.received()
			require.Len(t, messages, 1)

			var msg struct {
				Subscription string              `json:"subscription"`
				Event        jsoniter.RawMessage `json:"event"`
			}
			require.NoError(t, json.Unmarshal(messages[0], &msg))
			assert.Equal(t, sub.Subscription, msg.Subscription)
			assert.JSONEq(t, tt.expected, string(msg.Event))
		})
	}
}

func TestRejectedRPC(t *testing.T) {
	c, _, genesis := newTestCentrifuge(t)
	client := &fakeClient{}

	_, sink, err := c.handleRPC(newConnection(client), MethodStorage, []byte(`{"hash":"`+hexHash(genesis)+`","key":"not-hex"}`))
	require.Error(t, err)
	assert.Nil(t, sink)

	var cErr *centrifuge.Error
	require.ErrorAs(t, err, &cErr)
	assert.Equal(t, ErrorCodeInvalidParam, cErr.Code)
	assert.Contains(t, cErr.Message, "not-hex")
	assert.Empty(t, client.received())

	_, _, err = c.handleRPC(newConnection(client), MethodHeader, []byte(`{"hash":`))
	assert.Equal(t, centrifuge.ErrorBadRequest, err)

	_, _, err = c.handleRPC(newConnection(client), "archive_unstable_call", nil)
	assert.Equal(t, centrifuge.ErrorMethodNotFound, err)
}

func TestDisconnectedClient(t *testing.T) {
	c, _, genesis := newTestCentrifuge(t)
	client := &fakeClient{}
	conn := newConnection(client)

	_, sink, err := c.handleRPC(conn, MethodHeader, []byte(`{"hash":"`+hexHash(genesis)+`"}`))
	require.NoError(t, err)

	conn.close()
	conn.close()

	select {
	case <-sink.Done():
	default:
		t.Fatal("sink not done after disconnect")
	}

	sink.release()
	assert.Empty(t, client.received())
}

func TestReleasedSinkSendsDirectly(t *testing.T) {
	client := &fakeClient{}
	sink := newRPCSink(newConnection(client))

	sink.release()
	require.NoError(t, sink.Send(query.EventInaccessible{}))

	messages := client.received()
	require.Len(t, messages, 1)
	assert.JSONEq(t, `{"subscription":"`+sink.id+`","event":{"event":"inaccessible"}}`, string(messages[0]))
}
