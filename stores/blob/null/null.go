// Package null is a blob store that keeps nothing. Every Get is a miss.
package null

import (
	"context"
	"net/http"

	"github.com/bsv-blockchain/teranode-archive/errors"
	"github.com/bsv-blockchain/teranode-archive/stores/blob/options"
	"github.com/bsv-blockchain/teranode-archive/ulogger"
)

type Null struct {
	logger ulogger.Logger
}

func New(logger ulogger.Logger) (*Null, error) {
	return &Null{
		logger: logger,
	}, nil
}

func (n *Null) Health(_ context.Context, _ bool) (int, string, error) {
	return http.StatusOK, "Null Store", nil
}

func (n *Null) Close(_ context.Context) error {
	return nil
}

func (n *Null) Set(_ context.Context, _ []byte, _ []byte, _ ...options.FileOption) error {
	return nil
}

func (n *Null) Get(_ context.Context, key []byte, _ ...options.FileOption) ([]byte, error) {
	return nil, errors.NewBlobNotFoundError("null store holds no data [%x]", key)
}

func (n *Null) Exists(_ context.Context, _ []byte, _ ...options.FileOption) (bool, error) {
	return false, nil
}

func (n *Null) Del(_ context.Context, _ []byte, _ ...options.FileOption) error {
	return nil
}
