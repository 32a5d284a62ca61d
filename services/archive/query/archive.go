// Package query implements the archive query operations: a one shot subscription per request,
// answered with exactly one event or rejected before any work is scheduled.
package query

import (
	"context"
	"fmt"
	"net/http"
	"runtime/debug"

	"github.com/bsv-blockchain/go-bt/v2/chainhash"
	"github.com/bsv-blockchain/teranode-archive/errors"
	"github.com/bsv-blockchain/teranode-archive/settings"
	"github.com/bsv-blockchain/teranode-archive/stores/state"
	"github.com/bsv-blockchain/teranode-archive/tracing"
	"github.com/bsv-blockchain/teranode-archive/ulogger"
	"github.com/bsv-blockchain/teranode-archive/util"
	"github.com/bsv-blockchain/teranode-archive/util/health"
	"github.com/bsv-blockchain/teranode-archive/util/spawner"
)

const (
	OperationBody         = "body"
	OperationGenesisHash  = "genesisHash"
	OperationHashByHeight = "hashByHeight"
	OperationHeader       = "header"
	OperationStorage      = "storage"

	spawnGroup = "archive"
)

// Spawner schedules fire and forget tasks. An error means the task will never run.
type Spawner interface {
	Spawn(name, group string, task spawner.Task) error
}

// HealthChecker is implemented by the stores the archive reads from.
type HealthChecker interface {
	Health(ctx context.Context, checkLiveness bool) (int, string, error)
}

type Archive struct {
	logger      ulogger.Logger
	settings    *settings.Settings
	backend     Backend
	stateStore  HealthChecker
	spawner     Spawner
	genesisHash string
}

func New(logger ulogger.Logger, tSettings *settings.Settings, backend Backend, stateStore HealthChecker, spawner Spawner, genesisHash []byte) *Archive {
	initPrometheusMetrics()

	return &Archive{
		logger:      logger,
		settings:    tSettings,
		backend:     backend,
		stateStore:  stateStore,
		spawner:     spawner,
		genesisHash: util.EncodeHex(genesisHash),
	}
}

func (a *Archive) Health(ctx context.Context, checkLiveness bool) (int, string, error) {
	if checkLiveness {
		return http.StatusOK, "OK", nil
	}

	checks := []health.Check{
		{Name: "ChainBackend", Check: a.backendHealth},
		{Name: "StateStore", Check: a.stateStore.Health},
	}

	return health.CheckAll(ctx, checkLiveness, checks)
}

func (a *Archive) backendHealth(ctx context.Context, _ bool) (int, string, error) {
	finalized, err := a.backend.Finalized(ctx)
	if err != nil {
		return http.StatusServiceUnavailable, "failed to read finalized block", err
	}

	return http.StatusOK, "finalized " + finalized.String(), nil
}

// GenesisHash returns the genesis block hash. It is answered directly, without a subscription.
func (a *Archive) GenesisHash() string {
	prometheusArchiveRequests.WithLabelValues(OperationGenesisHash).Inc()

	return a.genesisHash
}

// Body sends the transactions of the block, encoded as a block body, or Inaccessible when the
// block is unknown or its body was pruned.
func (a *Archive) Body(sink Sink, hashStr string) error {
	sub := a.subscribe(OperationBody, sink)

	hash, err := parseHash(hashStr)
	if err != nil {
		return a.reject(sub, err)
	}

	return a.run(sub, func(ctx context.Context) Event {
		block, err := a.backend.BlockByHash(ctx, hash)
		if err != nil {
			return EventError{Message: err.Error()}
		}

		if block == nil {
			return EventInaccessible{}
		}

		return EventDone{Result: util.EncodeHex(block.TransactionsBytes())}
	})
}

// Header sends the 80 byte header of the block, or Inaccessible when the block is unknown.
func (a *Archive) Header(sink Sink, hashStr string) error {
	sub := a.subscribe(OperationHeader, sink)

	hash, err := parseHash(hashStr)
	if err != nil {
		return a.reject(sub, err)
	}

	return a.run(sub, func(ctx context.Context) Event {
		header, err := a.backend.HeaderByHash(ctx, hash)
		if err != nil {
			return EventError{Message: err.Error()}
		}

		if header == nil {
			return EventInaccessible{}
		}

		return EventDone{Result: util.EncodeHex(header.Bytes())}
	})
}

// HashByHeight sends the hashes of all known blocks at the given hex encoded height that
// descend from the finalized block.
func (a *Archive) HashByHeight(sink Sink, heightStr string) error {
	sub := a.subscribe(OperationHashByHeight, sink)

	height, err := parseHeight(heightStr)
	if err != nil {
		return a.reject(sub, err)
	}

	return a.run(sub, func(ctx context.Context) Event {
		finalized, err := a.backend.Finalized(ctx)
		if err != nil {
			return EventError{Message: err.Error()}
		}

		hashes, err := hashesAtHeight(ctx, a.logger, a.backend, finalized, height)
		if err != nil {
			return EventError{Message: err.Error()}
		}

		return EventDone{Result: encodeHashes(hashes)}
	})
}

// Storage sends the hex encoded value of key in the state of the block, reading the child trie
// identified by childKey when it is not nil.
func (a *Archive) Storage(sink Sink, hashStr, keyStr string, childKeyStr *string) error {
	sub := a.subscribe(OperationStorage, sink)

	hash, err := parseHash(hashStr)
	if err != nil {
		return a.reject(sub, err)
	}

	key, err := parseHex("key", keyStr)
	if err != nil {
		return a.reject(sub, err)
	}

	var child *state.ChildInfo

	if childKeyStr != nil {
		childKey, err := parseHex("child key", *childKeyStr)
		if err != nil {
			return a.reject(sub, err)
		}

		childInfo := state.NewDefaultChildInfo(childKey)
		child = &childInfo
	}

	return a.run(sub, func(ctx context.Context) Event {
		return resolveStorage(ctx, a.backend, hash, key, child)
	})
}

func encodeHashes(hashes []chainhash.Hash) []string {
	result := make([]string, 0, len(hashes))
	for i := range hashes {
		result = append(result, encodeHash(&hashes[i]))
	}

	return result
}

func (a *Archive) subscribe(operation string, sink Sink) *subscription {
	prometheusArchiveRequests.WithLabelValues(operation).Inc()

	return newSubscription(operation, sink)
}

func (a *Archive) reject(sub *subscription, err error) error {
	prometheusArchiveRejections.WithLabelValues(sub.operation).Inc()
	a.logger.Debugf("[Archive][%s] rejected: %v", sub.operation, err)

	return sub.reject(context.Background(), err)
}

// run hands compute to the spawner. When the spawner refuses the task the subscription is
// completed with an Error event straight away, so the caller still gets its one event.
func (a *Archive) run(sub *subscription, compute func(ctx context.Context) Event) error {
	if err := sub.spawned(context.Background()); err != nil {
		return errors.NewProcessingError("[Archive][%s] subscription in state %s cannot be spawned", sub.operation, sub.current(), err)
	}

	if err := a.spawner.Spawn(sub.operation, spawnGroup, func(ctx context.Context) {
		a.execute(ctx, sub, compute)
	}); err != nil {
		a.logger.Warnf("[Archive][%s] failed to spawn task: %v", sub.operation, err)
		a.emit(sub, EventError{Message: err.Error()})
	}

	return nil
}

func (a *Archive) execute(parentCtx context.Context, sub *subscription, compute func(ctx context.Context) Event) {
	ctx, cancel := context.WithCancel(parentCtx)
	defer cancel()

	go func() {
		select {
		case <-sub.sink.Done():
			cancel()
		case <-ctx.Done():
		}
	}()

	ctx, _, deferFn := tracing.StartTracing(ctx, "Archive:"+sub.operation,
		tracing.WithHistogram(prometheusArchiveDuration.WithLabelValues(sub.operation)),
		tracing.WithTag("operation", sub.operation),
	)
	defer deferFn()

	var event Event

	defer func() {
		if r := recover(); r != nil {
			a.logger.Errorf("[Archive][%s] task panicked: %v\n%s", sub.operation, r, debug.Stack())
			event = EventError{Message: fmt.Sprintf("internal error: %v", r)}
		}

		a.emit(sub, event)
	}()

	event = compute(ctx)
}

func (a *Archive) emit(sub *subscription, event Event) {
	delivered, err := sub.complete(context.Background(), event)
	if !delivered {
		a.logger.Warnf("[Archive][%s] subscription already completed, dropping %s event", sub.operation, event.Name())
		return
	}

	prometheusArchiveEvents.WithLabelValues(sub.operation, event.Name()).Inc()

	if err != nil {
		a.logger.Debugf("[Archive][%s] failed to deliver %s event: %v", sub.operation, event.Name(), err)
	}
}
