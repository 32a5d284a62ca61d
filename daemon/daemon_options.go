package daemon

import (
	"context"

	"github.com/bsv-blockchain/teranode-archive/ulogger"
)

// Option configures a Daemon in New.
type Option func(*Daemon)

// WithLoggerFactory sets the function that creates the logger of each service, the service
// manager included.
func WithLoggerFactory(factory func(serviceName string) ulogger.Logger) Option {
	return func(d *Daemon) {
		d.loggerFactory = factory
	}
}

// WithContext sets the parent context of the service manager. Cancelling it stops the services.
func WithContext(ctx context.Context) Option {
	return func(d *Daemon) {
		d.Ctx = ctx
	}
}

// WithStores shares already opened stores with the archive service. The daemon closes them
// when it stops.
func WithStores(stores *Stores) Option {
	return func(d *Daemon) {
		if stores != nil {
			d.stores = stores
		}
	}
}
