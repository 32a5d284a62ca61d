package centrifugeimpl

import (
	"sync"

	"github.com/bsv-blockchain/teranode-archive/errors"
	"github.com/bsv-blockchain/teranode-archive/services/archive/query"
	"github.com/centrifugal/centrifuge"
	"github.com/google/uuid"
	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

const (
	MethodBody         = "archive_unstable_body"
	MethodGenesisHash  = "archive_unstable_genesisHash"
	MethodHashByHeight = "archive_unstable_hashByHeight"
	MethodHeader       = "archive_unstable_header"
	MethodStorage      = "archive_unstable_storage"

	// ErrorCodeInvalidParam is the RPC error code of a rejected subscription.
	ErrorCodeInvalidParam uint32 = 1001
)

type rpcParams struct {
	Hash     string  `json:"hash"`
	Height   string  `json:"height"`
	Key      string  `json:"key"`
	ChildKey *string `json:"childKey,omitempty"`
}

type subscriptionReply struct {
	Subscription string `json:"subscription"`
}

// eventMessage is the async message that carries the event of a subscription.
type eventMessage struct {
	Subscription string      `json:"subscription"`
	Event        query.Event `json:"event"`
}

// sender is the part of a centrifuge client that async messages are written to.
type sender interface {
	Send(data []byte) error
}

// connection is one websocket client. done is closed when it disconnects.
type connection struct {
	client    sender
	done      chan struct{}
	closeOnce sync.Once
}

func newConnection(client sender) *connection {
	return &connection{
		client: client,
		done:   make(chan struct{}),
	}
}

func (c *connection) close() {
	c.closeOnce.Do(func() {
		close(c.done)
	})
}

// rpcSink holds the event back until release is called, which happens once the RPC reply that
// announces the subscription id has been written.
type rpcSink struct {
	id       string
	conn     *connection
	mu       sync.Mutex
	released bool
	pending  []byte
}

func newRPCSink(conn *connection) *rpcSink {
	return &rpcSink{
		id:   uuid.New().String(),
		conn: conn,
	}
}

func (s *rpcSink) Send(event query.Event) error {
	msg, err := json.Marshal(eventMessage{
		Subscription: s.id,
		Event:        event,
	})
	if err != nil {
		return errors.NewProcessingError("[ArchiveCentrifuge] failed to encode %s event", event.Name(), err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.released {
		s.pending = msg
		return nil
	}

	return s.send(msg)
}

func (s *rpcSink) Done() <-chan struct{} {
	return s.conn.done
}

func (s *rpcSink) release() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.released = true

	if s.pending != nil {
		_ = s.send(s.pending)
		s.pending = nil
	}
}

func (s *rpcSink) send(msg []byte) error {
	select {
	case <-s.conn.done:
		return errors.NewContextCanceledError("[ArchiveCentrifuge] client of subscription %s disconnected", s.id)
	default:
	}

	return s.conn.client.Send(msg)
}

// handleRPC runs one archive RPC. For subscriptions it returns the reply announcing the
// subscription id and the sink to release once that reply is written.
func (c *Centrifuge) handleRPC(conn *connection, method string, data []byte) ([]byte, *rpcSink, error) {
	if method == MethodGenesisHash {
		reply, err := json.Marshal(c.archive.GenesisHash())
		if err != nil {
			return nil, nil, centrifuge.ErrorInternal
		}

		return reply, nil, nil
	}

	var params rpcParams

	if len(data) > 0 {
		if err := json.Unmarshal(data, &params); err != nil {
			c.logger.Debugf("[ArchiveCentrifuge] %s: malformed params: %v", method, err)
			return nil, nil, centrifuge.ErrorBadRequest
		}
	}

	sink := newRPCSink(conn)

	var err error

	switch method {
	case MethodBody:
		err = c.archive.Body(sink, params.Hash)
	case MethodHeader:
		err = c.archive.Header(sink, params.Hash)
	case MethodHashByHeight:
		err = c.archive.HashByHeight(sink, params.Height)
	case MethodStorage:
		err = c.archive.Storage(sink, params.Hash, params.Key, params.ChildKey)
	default:
		return nil, nil, centrifuge.ErrorMethodNotFound
	}

	if err != nil {
		return nil, nil, &centrifuge.Error{
			Code:    ErrorCodeInvalidParam,
			Message: err.Error(),
		}
	}

	reply, err := json.Marshal(subscriptionReply{Subscription: sink.id})
	if err != nil {
		return nil, nil, centrifuge.ErrorInternal
	}

	return reply, sink, nil
}
