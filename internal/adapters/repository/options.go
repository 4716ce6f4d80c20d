package repository

import "github.com/okian/matchxai/pkg/logger"

// Option applies a configuration option to a store.
type Option func(*options)

type options struct {
	logger logger.Logger
}

func buildOptions(opts []Option) options {
	o := options{logger: logger.Get()}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// WithLogger sets a custom logger for the store.
func WithLogger(l logger.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}
