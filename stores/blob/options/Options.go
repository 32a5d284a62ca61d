// Package options holds the store level and per call options shared by all blob backends.
package options

import (
	"time"
)

type Options struct {
	TTL            time.Duration
	Extension      string
	SubDirectory   string
	AllowOverwrite bool
}

// StoreOption sets a default for every call on a store.
type StoreOption func(*Options)

// FileOption applies to a single call and overrides the store defaults.
type FileOption func(*Options)

func NewStoreOptions(opts ...StoreOption) *Options {
	options := &Options{}

	for _, opt := range opts {
		opt(options)
	}

	return options
}

func NewFileOptions(opts ...FileOption) *Options {
	options := &Options{}

	for _, opt := range opts {
		opt(options)
	}

	return options
}

// MergeOptions copies the store defaults and applies the call options on top.
func MergeOptions(storeOpts *Options, fileOpts []FileOption) *Options {
	merged := &Options{}
	if storeOpts != nil {
		*merged = *storeOpts
	}

	for _, opt := range fileOpts {
		opt(merged)
	}

	return merged
}

// CalculateKey namespaces key with the sub directory and extension, so that equal keys in
// different namespaces never collide.
func (o *Options) CalculateKey(key []byte) []byte {
	size := len(key)
	if o.SubDirectory != "" {
		size += len(o.SubDirectory) + 1
	}

	if o.Extension != "" {
		size += len(o.Extension) + 1
	}

	storeKey := make([]byte, 0, size)

	if o.SubDirectory != "" {
		storeKey = append(storeKey, o.SubDirectory...)
		storeKey = append(storeKey, '/')
	}

	storeKey = append(storeKey, key...)

	if o.Extension != "" {
		storeKey = append(storeKey, '.')
		storeKey = append(storeKey, o.Extension...)
	}

	return storeKey
}

func WithDefaultSubDirectory(subDirectory string) StoreOption {
	return func(s *Options) {
		s.SubDirectory = subDirectory
	}
}

func WithDefaultAllowOverwrite(allow bool) StoreOption {
	return func(s *Options) {
		s.AllowOverwrite = allow
	}
}

func WithDefaultTTL(ttl time.Duration) StoreOption {
	return func(s *Options) {
		s.TTL = ttl
	}
}

func WithTTL(ttl time.Duration) FileOption {
	return func(s *Options) {
		s.TTL = ttl
	}
}

func WithFileExtension(extension string) FileOption {
	return func(s *Options) {
		s.Extension = extension
	}
}

func WithSubDirectory(subDirectory string) FileOption {
	return func(s *Options) {
		s.SubDirectory = subDirectory
	}
}

func WithAllowOverwrite(allow bool) FileOption {
	return func(s *Options) {
		s.AllowOverwrite = allow
	}
}
