package httpimpl

import (
	"net/http"
	"time"

	"github.com/bsv-blockchain/teranode-archive/errors"
	"github.com/bsv-blockchain/teranode-archive/services/archive/query"
	"github.com/labstack/echo/v4"
)

const (
	outcomeRejected = "rejected"
	outcomeTimeout  = "timeout"
	outcomeGone     = "gone"

	defaultEventTimeout = 30 * time.Second
)

// GetGenesisHash responds with the genesis hash as a JSON string.
func (h *HTTP) GetGenesisHash(c echo.Context) error {
	prometheusArchiveHTTPResponses.WithLabelValues(query.OperationGenesisHash, query.EventNameDone).Inc()

	return c.JSON(http.StatusOK, h.archive.GenesisHash())
}

func (h *HTTP) GetBody(c echo.Context) error {
	return h.subscribe(c, query.OperationBody, func(sink query.Sink) error {
		return h.archive.Body(sink, c.Param("hash"))
	})
}

func (h *HTTP) GetHeader(c echo.Context) error {
	return h.subscribe(c, query.OperationHeader, func(sink query.Sink) error {
		return h.archive.Header(sink, c.Param("hash"))
	})
}

func (h *HTTP) GetHashByHeight(c echo.Context) error {
	return h.subscribe(c, query.OperationHashByHeight, func(sink query.Sink) error {
		return h.archive.HashByHeight(sink, c.Param("height"))
	})
}

// GetStorage reads a main trie key, or a child trie key when the child query parameter is present.
// On the route without a :key segment the key comes from the key query parameter and defaults to
// the empty key.
func (h *HTTP) GetStorage(c echo.Context) error {
	key := c.Param("key")
	if key == "" {
		key = c.QueryParam("key")
	}

	var childKey *string

	if c.QueryParams().Has("child") {
		child := c.QueryParam("child")
		childKey = &child
	}

	return h.subscribe(c, query.OperationStorage, func(sink query.Sink) error {
		return h.archive.Storage(sink, c.Param("hash"), key, childKey)
	})
}

// subscribe opens a subscription with open and waits for its event. A rejection is a 400, an
// event is a 200 whatever its kind, and no event within the configured timeout is a 504.
func (h *HTTP) subscribe(c echo.Context, operation string, open func(sink query.Sink) error) error {
	start := time.Now()
	stat := ArchiveStat.NewStat(operation)

	defer func() {
		stat.AddTime(start)
	}()

	sink := query.NewChanSink()
	defer sink.Close()

	if err := open(sink); err != nil {
		prometheusArchiveHTTPResponses.WithLabelValues(operation, outcomeRejected).Inc()
		return sendError(c, http.StatusBadRequest, err)
	}

	wait := h.settings.Archive.EventTimeout
	if wait <= 0 {
		wait = defaultEventTimeout
	}

	timeout := time.NewTimer(wait)
	defer timeout.Stop()

	select {
	case event := <-sink.Events():
		prometheusArchiveHTTPResponses.WithLabelValues(operation, event.Name()).Inc()
		return c.JSON(http.StatusOK, event)

	case <-timeout.C:
		prometheusArchiveHTTPResponses.WithLabelValues(operation, outcomeTimeout).Inc()
		h.logger.Warnf("[ArchiveHTTP][%s] no event after %s", operation, wait)

		return sendError(c, http.StatusGatewayTimeout, errors.NewServiceUnavailableError("[ArchiveHTTP][%s] no event after %s", operation, wait))

	case <-c.Request().Context().Done():
		prometheusArchiveHTTPResponses.WithLabelValues(operation, outcomeGone).Inc()
		h.logger.Debugf("[ArchiveHTTP][%s] client went away", operation)

		return nil
	}
}
