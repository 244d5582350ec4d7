package observability

import (
	"fmt"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// NewLogger builds the process logger. Production gets sampled JSON output,
// everything else the colored development encoder. The returned level can be
// changed at runtime.
func NewLogger(environment, level string) (*zap.Logger, zap.AtomicLevel, error) {
	atom, err := ParseLevel(level)
	if err != nil {
		return nil, atom, err
	}

	var config zap.Config
	if environment == "production" {
		config = zap.NewProductionConfig()
		config.Sampling = &zap.SamplingConfig{
			Initial:    100,
			Thereafter: 100,
		}
	} else {
		config = zap.NewDevelopmentConfig()
		config.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}
	config.Level = atom
	config.OutputPaths = []string{"stdout"}
	config.ErrorOutputPaths = []string{"stderr"}

	logger, err := config.Build(zap.AddStacktrace(zap.ErrorLevel))
	if err != nil {
		return nil, atom, fmt.Errorf("failed to build logger: %w", err)
	}
	return logger, atom, nil
}

// ParseLevel turns a level name into an atomic level. An empty name means info.
func ParseLevel(level string) (zap.AtomicLevel, error) {
	level = strings.TrimSpace(level)
	if level == "" {
		return zap.NewAtomicLevelAt(zap.InfoLevel), nil
	}
	atom, err := zap.ParseAtomicLevel(strings.ToLower(level))
	if err != nil {
		return zap.NewAtomicLevelAt(zap.InfoLevel), fmt.Errorf("invalid log level %q: %w", level, err)
	}
	return atom, nil
}
