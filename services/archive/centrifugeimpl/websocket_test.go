package centrifugeimpl

import (
	"context"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	centrifugego "github.com/centrifugal/centrifuge-go"
	jsoniter "github.com/json-iterator/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWebsocketRoundTrip(t *testing.T) {
	ctx := context.Background()
	c, stateStore, genesis := newTestCentrifuge(t)

	require.NoError(t, stateStore.SetMainValue(ctx, *genesis, []byte{0x01}, []byte{0x42}))
	require.NoError(t, c.Init(ctx))

	t.Cleanup(func() {
		_ = c.Stop(context.Background())
	})

	server := httptest.NewServer(c.httpServer)
	defer server.Close()

	wsURL := "ws" + strings.TrimPrefix(server.URL, "http") + websocketPath

	client := centrifugego.NewJsonClient(wsURL, centrifugego.Config{})
	defer client.Close()

	connected := make(chan struct{})
	messages := make(chan []byte, 4)

	client.OnConnected(func(centrifugego.ConnectedEvent) {
		close(connected)
	})

	client.OnMessage(func(e centrifugego.MessageEvent) {
		messages <- e.Data
	})

	require.NoError(t, client.Connect())

	select {
	case <-connected:
	case <-time.After(5 * time.Second):
		t.Fatal("client did not connect")
	}

	res, err := client.RPC(ctx, MethodGenesisHash, []byte(`{}`))
	require.NoError(t, err)
	assert.JSONEq(t, `"`+hexHash(genesis)+`"`, string(res.Data))

	res, err = client.RPC(ctx, MethodStorage, []byte(`{"hash":"`+hexHash(genesis)+`","key":"0x01"}`))
	require.NoError(t, err)

	var sub subscriptionReply
	require.NoError(t, json.Unmarshal(res.Data, &sub))
	require.NotEmpty(t, sub.Subscription)

	select {
	case data := <-messages:
		var msg struct {
			Subscription string              `json:"subscription"`
			Event        jsoniter.RawMessage `json:"event"`
		}
		require.NoError(t, json.Unmarshal(data, &msg))
		assert.Equal(t, sub.Subscription, msg.Subscription)
		assert.JSONEq(t, `{"event":"done","result":"0x42"}`, string(msg.Event))
	case <-time.After(5 * time.Second):
		t.Fatal("no event received")
	}

	_, err = client.RPC(ctx, MethodStorage, []byte(`{"hash":"`+hexHash(genesis)+`","key":"not-hex"}`))
	require.Error(t, err)

	var rpcErr *centrifugego.Error
	require.ErrorAs(t, err, &rpcErr)
	assert.Equal(t, ErrorCodeInvalidParam, rpcErr.Code)
}
