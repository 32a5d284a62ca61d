// Package logger wraps a blob store and logs every call at debug level.
// It is enabled with the logger=true query parameter on the store URL.
package logger

import (
	"context"
	"fmt"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/bsv-blockchain/teranode-archive/stores/blob/options"
	"github.com/bsv-blockchain/teranode-archive/ulogger"
)

type blobStore interface {
	Health(ctx context.Context, checkLiveness bool) (int, string, error)
	Exists(ctx context.Context, key []byte, opts ...options.FileOption) (bool, error)
	Get(ctx context.Context, key []byte, opts ...options.FileOption) ([]byte, error)
	Set(ctx context.Context, key []byte, value []byte, opts ...options.FileOption) error
	Del(ctx context.Context, key []byte, opts ...options.FileOption) error
	Close(ctx context.Context) error
}

type Logger struct {
	logger ulogger.Logger
	store  blobStore
}

func New(logger ulogger.Logger, store blobStore) *Logger {
	return &Logger{
		logger: logger,
		store:  store,
	}
}

// caller returns up to 3 frames above the wrapper method, trimmed to the module relative path.
func caller() string {
	var callers []string

	for i := 0; i < 3; i++ {
		pc, file, line, ok := runtime.Caller(2 + i)
		if !ok {
			break
		}

		if idx := strings.Index(file, "teranode-archive"+string(filepath.Separator)); idx >= 0 {
			file = file[idx+len("teranode-archive")+1:]
		}

		funcName := runtime.FuncForPC(pc).Name()
		funcPaths := strings.Split(funcName, "/")
		funcName = funcPaths[len(funcPaths)-1]

		callers = append(callers, fmt.Sprintf("called from %s: %s:%d", funcName, file, line))
	}

	return strings.Join(callers, ",")
}

func (s *Logger) Health(ctx context.Context, checkLiveness bool) (int, string, error) {
	s.logger.Debugf("[BlobStore][logger][Health] : %s", caller())
	return s.store.Health(ctx, checkLiveness)
}

func (s *Logger) Exists(ctx context.Context, key []byte, opts ...options.FileOption) (bool, error) {
	exists, err := s.store.Exists(ctx, key, opts...)
	s.logger.Debugf("[BlobStore][logger][Exists] key %x, exists %t, err %v : %s", key, exists, err, caller())

	return exists, err
}

func (s *Logger) Get(ctx context.Context, key []byte, opts ...options.FileOption) ([]byte, error) {
	value, err := s.store.Get(ctx, key, opts...)
	s.logger.Debugf("[BlobStore][logger][Get] key %x, size %d, err %v : %s", key, len(value), err, caller())

	return value, err
}

func (s *Logger) Set(ctx context.Context, key []byte, value []byte, opts ...options.FileOption) error {
	err := s.store.Set(ctx, key, value, opts...)
	s.logger.Debugf("[BlobStore][logger][Set] key %x, size %d, err %v : %s", key, len(value), err, caller())

	return err
}

func (s *Logger) Del(ctx context.Context, key []byte, opts ...options.FileOption) error {
	err := s.store.Del(ctx, key, opts...)
	s.logger.Debugf("[BlobStore][logger][Del] key %x, err %v : %s", key, err, caller())

	return err
}

func (s *Logger) Close(ctx context.Context) error {
	err := s.store.Close(ctx)
	s.logger.Debugf("[BlobStore][logger][Close] err %v : %s", err, caller())

	return err
}
