package query

import (
	"context"

	"github.com/bsv-blockchain/go-bt/v2/chainhash"
	"github.com/bsv-blockchain/teranode-archive/stores/state"
	"github.com/bsv-blockchain/teranode-archive/util"
)

// resolveStorage reads key from the main trie of the block, or from the child trie when child
// is set. Keys in the reserved child storage namespace are reported absent without a lookup.
func resolveStorage(ctx context.Context, backend Backend, hash *chainhash.Hash, key []byte, child *state.ChildInfo) Event {
	if child != nil {
		if !state.IsKeyQueryable(child.StorageKey()) {
			return EventDone{Result: (*string)(nil)}
		}

		value, found, err := backend.ChildTrieValue(ctx, hash, *child, key)

		return storageEvent(value, found, err)
	}

	if !state.IsKeyQueryable(key) {
		return EventDone{Result: (*string)(nil)}
	}

	value, found, err := backend.MainTrieValue(ctx, hash, key)

	return storageEvent(value, found, err)
}

func storageEvent(value []byte, found bool, err error) Event {
	if err != nil {
		return EventError{Message: err.Error()}
	}

	if !found {
		return EventDone{Result: (*string)(nil)}
	}

	encoded := util.EncodeHex(value)

	return EventDone{Result: &encoded}
}
