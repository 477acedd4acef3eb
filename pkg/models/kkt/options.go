package kkt

import (
	"github.com/peter-kozarec/hedgeflow/pkg/models/bma"
	"go.uber.org/zap"
)

type Option func(*Engine)

func WithLogger(logger *zap.Logger) Option {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithDistributionOptions forwards options to the inflow distribution builder.
func WithDistributionOptions(options ...bma.Option) Option {
	return func(e *Engine) {
		e.distributionOptions = append(e.distributionOptions, options...)
	}
}
