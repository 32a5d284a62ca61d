// Package retry calls a function until it succeeds, the attempts run out or the context is done.
package retry

import (
	"context"
	"time"

	"github.com/bsv-blockchain/teranode-archive/errors"
	"github.com/bsv-blockchain/teranode-archive/ulogger"
)

type Options struct {
	retryCount          int
	backoffMultiplier   int
	backoffDurationType time.Duration
	exponentialBackoff  bool
	backoffFactor       float64
	maxBackoff          time.Duration
	message             string
}

type Option func(*Options)

func WithRetryCount(retryCount int) Option {
	return func(o *Options) {
		o.retryCount = retryCount
	}
}

func WithBackoffMultiplier(backoffMultiplier int) Option {
	return func(o *Options) {
		o.backoffMultiplier = backoffMultiplier
	}
}

func WithBackoffDurationType(durationType time.Duration) Option {
	return func(o *Options) {
		o.backoffDurationType = durationType
	}
}

// WithExponentialBackoff starts at the backoff duration and multiplies it by the backoff factor
// after every failed attempt, up to the max backoff.
func WithExponentialBackoff() Option {
	return func(o *Options) {
		o.exponentialBackoff = true
	}
}

func WithBackoffFactor(backoffFactor float64) Option {
	return func(o *Options) {
		o.backoffFactor = backoffFactor
	}
}

func WithMaxBackoff(maxBackoff time.Duration) Option {
	return func(o *Options) {
		o.maxBackoff = maxBackoff
	}
}

func WithMessage(message string) Option {
	return func(o *Options) {
		o.message = message
	}
}

func defaultOptions() *Options {
	return &Options{
		retryCount:          3,
		backoffMultiplier:   2,
		backoffDurationType: time.Second,
		backoffFactor:       2.0,
		maxBackoff:          30 * time.Second,
		message:             "retrying",
	}
}

// Retry calls f until it returns no error. The last error is returned once the attempts are
// exhausted, or a context canceled error if ctx is done while waiting.
func Retry[T any](ctx context.Context, logger ulogger.Logger, f func() (T, error), opts ...Option) (T, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(o)
	}

	var (
		result  T
		err     error
		backoff = o.backoffDurationType
	)

	for i := 0; i < o.retryCount; i++ {
		result, err = f()
		if err == nil {
			return result, nil
		}

		if i == o.retryCount-1 {
			break
		}

		logger.Warnf("%s (attempt %d/%d): %v", o.message, i+1, o.retryCount, err)

		if o.exponentialBackoff {
			err = sleepFunc(ctx, backoff)
			backoff = CappedExponentialBackoff(backoff, o.backoffFactor, o.maxBackoff)
		} else {
			err = BackoffAndSleep(ctx, i, o.backoffMultiplier, o.backoffDurationType)
		}

		if err != nil {
			return result, errors.NewContextCanceledError("%s: context done after %d attempts", o.message, i+1, err)
		}
	}

	return result, err
}
