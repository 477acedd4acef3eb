package dbg

import (
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const (
	ModeDev  = "dev"
	ModeProd = "prod"
)

// NewLogger builds the console logger of the given mode, with ISO8601 "ts"
// timestamps and no caller. verbose lowers the production level to debug.
func NewLogger(mode string, verbose bool) (*zap.Logger, error) {
	var cfg zap.Config
	switch mode {
	case ModeDev:
		cfg = zap.NewDevelopmentConfig()
	case ModeProd:
		cfg = zap.NewProductionConfig()
		if verbose {
			cfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		}
	default:
		return nil, fmt.Errorf("unknown log mode %q", mode)
	}

	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	cfg.DisableCaller = true

	return cfg.Build()
}
