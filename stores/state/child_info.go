package state

import (
	"bytes"
	"encoding/hex"
)

const (
	// DefaultChildStorageKeyPrefix prefixes the main trie key under which a default child trie root lives.
	DefaultChildStorageKeyPrefix = ":child_storage:default:"

	// ChildStorageKeyPrefix is the namespace reserved for all child trie roots.
	ChildStorageKeyPrefix = ":child_storage:"
)

// ChildInfo identifies a default child trie by its unprefixed storage key.
type ChildInfo struct {
	storageKey []byte
}

func NewDefaultChildInfo(storageKey []byte) ChildInfo {
	return ChildInfo{
		storageKey: append([]byte(nil), storageKey...),
	}
}

// StorageKey returns the raw key the child trie was created with.
func (c ChildInfo) StorageKey() []byte {
	return c.storageKey
}

// PrefixedStorageKey returns the key of the child trie root in the main trie.
func (c ChildInfo) PrefixedStorageKey() []byte {
	prefixed := make([]byte, 0, len(DefaultChildStorageKeyPrefix)+len(c.storageKey))
	prefixed = append(prefixed, DefaultChildStorageKeyPrefix...)

	return append(prefixed, c.storageKey...)
}

func (c ChildInfo) String() string {
	return "child:" + hex.EncodeToString(c.storageKey)
}

// IsKeyQueryable reports whether key may be read through the main trie. Keys in the
// reserved child storage namespace are not.
func IsKeyQueryable(key []byte) bool {
	return !bytes.HasPrefix(key, []byte(DefaultChildStorageKeyPrefix)) &&
		!bytes.HasPrefix(key, []byte(ChildStorageKeyPrefix))
}
