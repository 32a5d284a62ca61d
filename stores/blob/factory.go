package blob

import (
	"net/url"
	"path/filepath"
	"strings"

	"github.com/bsv-blockchain/teranode-archive/errors"
	"github.com/bsv-blockchain/teranode-archive/stores/blob/badger"
	"github.com/bsv-blockchain/teranode-archive/stores/blob/leveldb"
	"github.com/bsv-blockchain/teranode-archive/stores/blob/logger"
	"github.com/bsv-blockchain/teranode-archive/stores/blob/memory"
	"github.com/bsv-blockchain/teranode-archive/stores/blob/null"
	"github.com/bsv-blockchain/teranode-archive/stores/blob/options"
	"github.com/bsv-blockchain/teranode-archive/ulogger"
)

// NewStore creates the blob store named by the URL scheme.
//
//	null://
//	memory://
//	badger:///state           relative to dataFolder
//	badger:////var/lib/state  absolute
//	badger://?inMemory=true
//	leveldb:///state          same path rules as badger
//	leveldb://?inMemory=true
//
// Adding logger=true to the query wraps the store in a debug logger.
func NewStore(logger ulogger.Logger, dataFolder string, storeURL *url.URL, opts ...options.StoreOption) (store Store, err error) {
	if storeURL == nil {
		return nil, errors.NewConfigurationError("blob store url is not set")
	}

	switch storeURL.Scheme {
	case "null":
		store, err = null.New(logger)
		if err != nil {
			return nil, errors.NewStorageError("error creating null blob store", err)
		}
	case "memory":
		store = memory.New(opts...)
	case "badger":
		dir := ""
		if storeURL.Query().Get("inMemory") != "true" {
			dir = storeDir(dataFolder, storeURL)
		}

		store, err = badger.New(logger, dir, opts...)
		if err != nil {
			return nil, errors.NewStorageError("error creating badger blob store", err)
		}
	case "leveldb":
		dir := ""
		if storeURL.Query().Get("inMemory") != "true" {
			dir = storeDir(dataFolder, storeURL)
		}

		store, err = leveldb.New(logger, dir, opts...)
		if err != nil {
			return nil, errors.NewStorageError("error creating leveldb blob store", err)
		}
	default:
		return nil, errors.NewConfigurationError("unknown blob store type: %s", storeURL.Scheme)
	}

	if storeURL.Query().Get("logger") == "true" {
		store = newLoggerStore(logger, store)
	}

	return store, nil
}

func newLoggerStore(l ulogger.Logger, store Store) Store {
	return logger.New(l, store)
}

func storeDir(dataFolder string, storeURL *url.URL) string {
	path := storeURL.Host + storeURL.Path

	if strings.HasPrefix(storeURL.Path, "//") {
		return storeURL.Path[1:]
	}

	path = strings.TrimPrefix(path, "/")
	if path == "" {
		path = "blobstore"
	}

	return filepath.Join(dataFolder, path)
}
