// Package blob provides key/value blob storage with interchangeable backends.
package blob

import (
	"context"

	"github.com/bsv-blockchain/teranode-archive/stores/blob/options"
)

// Store is implemented by every blob backend.
//
// Get returns an error matching errors.ErrBlobNotFound when the key is absent.
// Set refuses to overwrite an existing key with errors.ErrBlobExists unless
// options.WithAllowOverwrite is given.
type Store interface {
	Health(ctx context.Context, checkLiveness bool) (int, string, error)
	Exists(ctx context.Context, key []byte, opts ...options.FileOption) (bool, error)
	Get(ctx context.Context, key []byte, opts ...options.FileOption) ([]byte, error)
	Set(ctx context.Context, key []byte, value []byte, opts ...options.FileOption) error
	Del(ctx context.Context, key []byte, opts ...options.FileOption) error
	Close(ctx context.Context) error
}
