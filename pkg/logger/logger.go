// Package logger holds the process-wide zap logger. It is a no-op until
// InitWithOptions runs, so packages may log from init paths and tests.
package logger

import (
	"strings"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	mu     sync.RWMutex
	global = zap.NewNop()
)

type Options struct {
	// Format is "json" (default) or "console".
	Format string
	// Fields are attached to every entry.
	Fields map[string]string
}

// InitWithOptions builds and installs the global logger. Unknown levels fall
// back to info.
func InitWithOptions(level string, opts Options) error {
	cfg := zap.NewProductionConfig()
	if strings.EqualFold(strings.TrimSpace(opts.Format), "console") {
		cfg = zap.NewDevelopmentConfig()
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}
	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	lvl, err := zapcore.ParseLevel(strings.TrimSpace(level))
	if err != nil {
		lvl = zapcore.InfoLevel
	}
	cfg.Level = zap.NewAtomicLevelAt(lvl)

	if len(opts.Fields) > 0 {
		cfg.InitialFields = make(map[string]any, len(opts.Fields))
		for k, v := range opts.Fields {
			cfg.InitialFields[k] = v
		}
	}

	built, err := cfg.Build()
	if err != nil {
		return err
	}
	Replace(built)
	return nil
}

// Replace swaps the global logger; nil installs a no-op logger.
func Replace(l *zap.Logger) {
	if l == nil {
		l = zap.NewNop()
	}
	mu.Lock()
	global = l
	mu.Unlock()
}

func Logger() *zap.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return global
}

func Sync() error {
	return Logger().Sync()
}

// WithModule returns a child logger tagged with module, e.g. "scan" or "mail".
func WithModule(module string) *zap.Logger {
	return Logger().With(zap.String("module", module))
}
