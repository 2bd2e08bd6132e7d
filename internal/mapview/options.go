package mapview

import (
	"log/slog"
)

type Options struct {
	Surface     SurfaceConfig
	Labels      *Labels
	Logger      *slog.Logger
	Observer    Observer
	Parallelism int
}

type OptionFunc func(opts *Options)

func WithSurface(cfg SurfaceConfig) OptionFunc {
	return func(opts *Options) {
		opts.Surface = cfg
	}
}

func WithLabels(labels *Labels) OptionFunc {
	return func(opts *Options) {
		opts.Labels = labels
	}
}

func WithLogger(logger *slog.Logger) OptionFunc {
	return func(opts *Options) {
		opts.Logger = logger
	}
}

func WithObserver(observer Observer) OptionFunc {
	return func(opts *Options) {
		opts.Observer = observer
	}
}

// WithParallelism bounds the number of concurrent item requests.
func WithParallelism(n int) OptionFunc {
	return func(opts *Options) {
		opts.Parallelism = n
	}
}

func NewOptions(funcs ...OptionFunc) *Options {
	opts := &Options{
		Surface:     DefaultSurfaceConfig(),
		Labels:      DefaultLabels(),
		Logger:      slog.Default(),
		Parallelism: 4,
	}
	for _, fn := range funcs {
		fn(opts)
	}
	if opts.Parallelism < 1 {
		opts.Parallelism = 1
	}
	return opts
}
