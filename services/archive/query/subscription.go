package query

import (
	"context"

	"github.com/looplab/fsm"
)

// Sink receives the single event of a subscription. Done is closed when the caller goes away,
// after which the computation may be dropped.
type Sink interface {
	Send(event Event) error
	Done() <-chan struct{}
}

const (
	subscriptionStatePending   = "pending"
	subscriptionStateRejected  = "rejected"
	subscriptionStateRunning   = "running"
	subscriptionStateCompleted = "completed"

	subscriptionEventReject   = "reject"
	subscriptionEventSpawn    = "spawn"
	subscriptionEventComplete = "complete"
)

// subscription tracks the lifecycle of one request. A rejected subscription never reaches the
// sink and a completed one has written exactly one event to it.
type subscription struct {
	operation string
	sink      Sink
	state     *fsm.FSM
}

func newSubscription(operation string, sink Sink) *subscription {
	return &subscription{
		operation: operation,
		sink:      sink,
		state: fsm.NewFSM(
			subscriptionStatePending,
			fsm.Events{
				{
					Name: subscriptionEventReject,
					Src:  []string{subscriptionStatePending},
					Dst:  subscriptionStateRejected,
				},
				{
					Name: subscriptionEventSpawn,
					Src:  []string{subscriptionStatePending},
					Dst:  subscriptionStateRunning,
				},
				{
					Name: subscriptionEventComplete,
					Src:  []string{subscriptionStateRunning},
					Dst:  subscriptionStateCompleted,
				},
			},
			fsm.Callbacks{},
		),
	}
}

func (s *subscription) current() string {
	return s.state.Current()
}

// reject closes the subscription before anything was spawned and returns err to the caller.
func (s *subscription) reject(ctx context.Context, err error) error {
	if fsmErr := s.state.Event(context.WithoutCancel(ctx), subscriptionEventReject); fsmErr != nil {
		return fsmErr
	}

	return err
}

func (s *subscription) spawned(ctx context.Context) error {
	return s.state.Event(context.WithoutCancel(ctx), subscriptionEventSpawn)
}

// complete delivers event to the sink. It returns false when the subscription was already
// completed, in which case the event is dropped.
func (s *subscription) complete(ctx context.Context, event Event) (bool, error) {
	if err := s.state.Event(context.WithoutCancel(ctx), subscriptionEventComplete); err != nil {
		return false, nil
	}

	return true, s.sink.Send(event)
}
