// Package spawner runs named, grouped, fire-and-forget tasks on a bounded worker pool.
package spawner

import (
	"context"
	"fmt"
	"net/http"
	"runtime/debug"
	"sync"

	"github.com/bsv-blockchain/teranode-archive/errors"
	"github.com/bsv-blockchain/teranode-archive/ulogger"
	"github.com/gammazero/workerpool"
	"go.uber.org/atomic"
)

// Task receives a context that is cancelled when the spawner stops.
type Task func(ctx context.Context)

type Spawner struct {
	logger    ulogger.Logger
	pool      *workerpool.WorkerPool
	ctx       context.Context
	cancel    context.CancelFunc
	maxQueued int
	mu        sync.RWMutex
	stopped   bool
	running   atomic.Int64
}

// New creates a spawner with the given number of workers. maxQueued bounds the number of tasks
// waiting for a worker, 0 means unbounded.
func New(logger ulogger.Logger, workers int, maxQueued int) *Spawner {
	initPrometheusMetrics()

	if workers <= 0 {
		workers = 1
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &Spawner{
		logger:    logger,
		pool:      workerpool.New(workers),
		ctx:       ctx,
		cancel:    cancel,
		maxQueued: maxQueued,
	}
}

// Spawn schedules task. It returns an error, and the task never runs, when the spawner has been
// stopped or its queue is full.
func (s *Spawner) Spawn(name, group string, task Task) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.stopped {
		prometheusSpawnerDropped.WithLabelValues(group, name).Inc()
		s.logger.Warnf("[Spawner] dropping task %s/%s, spawner is stopped", group, name)

		return errors.NewServiceNotStartedError("spawner is stopped, task %s/%s dropped", group, name)
	}

	if s.maxQueued > 0 && s.pool.WaitingQueueSize() >= s.maxQueued {
		prometheusSpawnerDropped.WithLabelValues(group, name).Inc()
		s.logger.Warnf("[Spawner] dropping task %s/%s, %d tasks queued", group, name, s.pool.WaitingQueueSize())

		return errors.NewServiceUnavailableError("spawner queue is full, task %s/%s dropped", group, name)
	}

	prometheusSpawnerTasks.WithLabelValues(group, name).Inc()

	s.pool.Submit(func() {
		s.run(name, group, task)
	})

	return nil
}

func (s *Spawner) run(name, group string, task Task) {
	s.running.Add(1)
	prometheusSpawnerRunning.WithLabelValues(group).Inc()

	defer func() {
		s.running.Add(-1)
		prometheusSpawnerRunning.WithLabelValues(group).Dec()

		if r := recover(); r != nil {
			s.logger.Errorf("[Spawner] task %s/%s panicked: %v\n%s", group, name, r, debug.Stack())
		}
	}()

	task(s.ctx)
}

// Running returns the number of tasks currently executing.
func (s *Spawner) Running() int64 {
	return s.running.Load()
}

// Queued returns the number of tasks waiting for a worker.
func (s *Spawner) Queued() int {
	return s.pool.WaitingQueueSize()
}

func (s *Spawner) Health(_ context.Context, _ bool) (int, string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.stopped {
		return http.StatusServiceUnavailable, "spawner stopped", errors.ErrServiceNotStarted
	}

	return http.StatusOK, fmt.Sprintf("%d running, %d queued", s.Running(), s.Queued()), nil
}

// Stop refuses new tasks, cancels the context handed to running tasks and waits for
// queued tasks to finish or ctx to be done.
func (s *Spawner) Stop(ctx context.Context) error {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return nil
	}

	s.stopped = true
	s.mu.Unlock()

	s.cancel()

	done := make(chan struct{})

	go func() {
		s.pool.StopWait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return errors.NewContextCanceledError("spawner stop timed out with %d tasks running", s.Running(), ctx.Err())
	}
}
