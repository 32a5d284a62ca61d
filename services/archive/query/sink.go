package query

import (
	"sync"

	"github.com/bsv-blockchain/teranode-archive/errors"
)

// ChanSink is a Sink backed by a channel with room for the single event, so Send never blocks.
type ChanSink struct {
	events    chan Event
	done      chan struct{}
	closeOnce sync.Once
}

func NewChanSink() *ChanSink {
	return &ChanSink{
		events: make(chan Event, 1),
		done:   make(chan struct{}),
	}
}

func (s *ChanSink) Send(event Event) error {
	select {
	case <-s.done:
		return errors.NewContextCanceledError("subscription closed, %s event dropped", event.Name())
	default:
	}

	select {
	case s.events <- event:
		return nil
	default:
		return errors.NewProcessingError("subscription already holds an event, %s event dropped", event.Name())
	}
}

// Events delivers the event sent to the sink.
func (s *ChanSink) Events() <-chan Event {
	return s.events
}

func (s *ChanSink) Done() <-chan struct{} {
	return s.done
}

// Close tells a running task that nobody is waiting for its event any more.
func (s *ChanSink) Close() {
	s.closeOnce.Do(func() {
		close(s.done)
	})
}
