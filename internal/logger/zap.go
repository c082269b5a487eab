package logger

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New builds the CLI logger. Verbose mode uses zap's development config at
// debug level; otherwise only warnings and errors are written, as JSON, to
// stderr. The returned cleanup flushes buffered entries.
func New(verbose bool) (*zap.Logger, func() error, error) {
	var cfg zap.Config
	if verbose {
		cfg = zap.NewDevelopmentConfig()
	} else {
		cfg = zap.NewProductionConfig()
		cfg.Level = zap.NewAtomicLevelAt(zapcore.WarnLevel)
		cfg.Sampling = nil
	}
	cfg.OutputPaths = []string{"stderr"}

	l, err := cfg.Build()
	if err != nil {
		return nil, nil, err
	}

	cleanup := func() error { return l.Sync() }
	return l, cleanup, nil
}
