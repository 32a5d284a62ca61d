package blockchain

import (
	"net/url"

	"github.com/bsv-blockchain/teranode-archive/errors"
	"github.com/bsv-blockchain/teranode-archive/settings"
	"github.com/bsv-blockchain/teranode-archive/stores/blockchain/sql"
	"github.com/bsv-blockchain/teranode-archive/ulogger"
)

func NewStore(logger ulogger.Logger, storeURL *url.URL, tSettings *settings.Settings) (Store, error) {
	if storeURL == nil {
		return nil, errors.NewConfigurationError("blockchain store url is not set")
	}

	switch storeURL.Scheme {
	case "postgres":
		fallthrough
	case "sqlitememory":
		fallthrough
	case "sqlite":
		return sql.New(logger, storeURL, tSettings)
	}

	return nil, errors.NewConfigurationError("unknown scheme: %s", storeURL.Scheme)
}

var (
	_ Store = (*sql.SQL)(nil)
	_ Store = (*MockStore)(nil)
)
