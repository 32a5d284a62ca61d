package options

type StoreBlockOptions struct {
	// WithoutBody stores only the header, as if the body had been pruned already.
	WithoutBody bool
}

type StoreBlockOption func(*StoreBlockOptions)

func WithoutBody(b bool) StoreBlockOption {
	return func(opts *StoreBlockOptions) {
		opts.WithoutBody = b
	}
}
