// Package logging builds the process logger.
package logging

import (
	"go.uber.org/zap"
)

// New returns a production JSON logger at the given level ("debug", "info",
// "warn", "error"). It writes to stdout unless outputs names other sinks
// ("stderr", file paths).
func New(level string, outputs ...string) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()

	lvl, err := zap.ParseAtomicLevel(level)
	if err != nil {
		return nil, err
	}
	cfg.Level = lvl
	if len(outputs) == 0 {
		outputs = []string{"stdout"}
	}
	cfg.OutputPaths = outputs
	cfg.ErrorOutputPaths = outputs
	cfg.Sampling = nil
	return cfg.Build(zap.AddCaller(), zap.AddStacktrace(zap.ErrorLevel))
}

// Must is New that panics on an invalid level.
func Must(level string) *zap.Logger {
	return zap.Must(New(level))
}
