// Package centrifugeimpl serves the archive operations over a centrifuge websocket. An RPC call
// opens a subscription and its event follows as an async message.
package centrifugeimpl

import (
	"context"
	"net/http"
	"time"

	"github.com/bsv-blockchain/teranode-archive/errors"
	"github.com/bsv-blockchain/teranode-archive/services/archive/httpimpl"
	"github.com/bsv-blockchain/teranode-archive/services/archive/query"
	"github.com/bsv-blockchain/teranode-archive/settings"
	"github.com/bsv-blockchain/teranode-archive/ulogger"
	"github.com/centrifugal/centrifuge"
)

const websocketPath = "/connection/websocket"

type Centrifuge struct {
	logger         ulogger.Logger
	settings       *settings.Settings
	archive        *query.Archive
	httpServer     *httpimpl.HTTP
	centrifugeNode *centrifuge.Node
}

func New(logger ulogger.Logger, tSettings *settings.Settings, archive *query.Archive, httpServer *httpimpl.HTTP) (*Centrifuge, error) {
	if archive == nil {
		return nil, errors.NewConfigurationError("[ArchiveCentrifuge] no archive to serve")
	}

	if httpServer == nil {
		return nil, errors.NewConfigurationError("[ArchiveCentrifuge] the websocket endpoint needs the http server")
	}

	return &Centrifuge{
		logger:     logger,
		settings:   tSettings,
		archive:    archive,
		httpServer: httpServer,
	}, nil
}

// Init starts the centrifuge node and mounts the websocket endpoint on the http server.
func (c *Centrifuge) Init(_ context.Context) (err error) {
	c.logger.Infof("[ArchiveCentrifuge] service initializing")

	c.centrifugeNode, err = centrifuge.New(centrifuge.Config{
		LogLevel: centrifuge.LogLevelInfo,
		LogHandler: func(e centrifuge.LogEntry) {
			c.logger.Infof("[ArchiveCentrifuge] %s: %v", e.Message, e.Fields)
		},
	})
	if err != nil {
		return errors.NewServiceError("[ArchiveCentrifuge] failed to create node", err)
	}

	c.centrifugeNode.OnConnecting(func(_ context.Context, e centrifuge.ConnectEvent) (centrifuge.ConnectReply, error) {
		c.logger.Debugf("[ArchiveCentrifuge] client %s connecting via %s", e.ClientID, e.Transport.Name())
		return centrifuge.ConnectReply{}, nil
	})

	c.centrifugeNode.OnConnect(func(client *centrifuge.Client) {
		conn := newConnection(client)

		client.OnRPC(func(e centrifuge.RPCEvent, cb centrifuge.RPCCallback) {
			reply, sink, err := c.handleRPC(conn, e.Method, e.Data)
			if err != nil {
				cb(centrifuge.RPCReply{}, err)
				return
			}

			cb(centrifuge.RPCReply{Data: reply}, nil)

			if sink != nil {
				sink.release()
			}
		})

		client.OnDisconnect(func(e centrifuge.DisconnectEvent) {
			c.logger.Debugf("[ArchiveCentrifuge] client %s disconnected: %s", client.ID(), e.Disconnect.Reason)
			conn.close()
		})

		c.logger.Debugf("[ArchiveCentrifuge] client %s connected via %s", client.ID(), client.Transport().Name())
	})

	if err = c.centrifugeNode.Run(); err != nil {
		return errors.NewServiceError("[ArchiveCentrifuge] failed to run node", err)
	}

	websocketHandler := centrifuge.NewWebsocketHandler(c.centrifugeNode, centrifuge.WebsocketConfig{
		ReadBufferSize:     1024,
		UseWriteBufferPool: true,
		CheckOrigin: func(r *http.Request) bool {
			return true
		},
	})

	return c.httpServer.AddHTTPHandler(websocketPath, authMiddleware(websocketHandler))
}

// Start blocks until ctx is done and then shuts the node down.
func (c *Centrifuge) Start(ctx context.Context) error {
	c.logger.Infof("[ArchiveCentrifuge] service started on %s", websocketPath)

	<-ctx.Done()

	return c.Stop(context.Background())
}

func (c *Centrifuge) Stop(ctx context.Context) error {
	if c.centrifugeNode == nil {
		return nil
	}

	c.logger.Infof("[ArchiveCentrifuge] service shutting down")

	shutdownCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := c.centrifugeNode.Shutdown(shutdownCtx); err != nil {
		c.logger.Errorf("[ArchiveCentrifuge] node shutdown error: %s", err)
		return err
	}

	return nil
}

// authMiddleware accepts every connection as an anonymous user.
func authMiddleware(h http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		newCtx := centrifuge.SetCredentials(r.Context(), &centrifuge.Credentials{
			UserID: "",
		})
		r = r.WithContext(newCtx)

		header := w.Header()
		header.Set("Access-Control-Allow-Origin", "*")
		header.Add("Access-Control-Allow-Headers", "*")
		header.Set("Access-Control-Allow-Credentials", "true")

		h.ServeHTTP(w, r)
	})
}
