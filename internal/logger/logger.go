package logger

import (
	"fmt"
	"strings"

	"github.com/sangkips/sales-api/internal/config"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New builds the process logger. Production environments get the JSON
// production preset, everything else the development preset.
func New(app config.AppConfig, cfg config.LogConfig) (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(strings.ToLower(cfg.Level))
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", cfg.Level, err)
	}

	var zc zap.Config
	if app.IsProduction() {
		zc = zap.NewProductionConfig()
	} else {
		zc = zap.NewDevelopmentConfig()
	}
	zc.Level = zap.NewAtomicLevelAt(level)
	if cfg.Encoding != "" {
		zc.Encoding = cfg.Encoding
	}

	log, err := zc.Build()
	if err != nil {
		return nil, err
	}
	return log.With(zap.String("service", app.Name), zap.String("env", app.Env)), nil
}
