package bma

import "go.uber.org/zap"

type Option func(*Builder)

func WithLogger(logger *zap.Logger) Option {
	return func(b *Builder) {
		if logger != nil {
			b.logger = logger
		}
	}
}

func WithGridSize(size int) Option {
	return func(b *Builder) {
		if size >= 2 {
			b.gridSize = size
		}
	}
}

// WithTailQuantile sets the cumulative level above which the restored grid is cut.
func WithTailQuantile(q float64) Option {
	return func(b *Builder) {
		if q > 0 && q <= 1 {
			b.tailQuantile = q
		}
	}
}
