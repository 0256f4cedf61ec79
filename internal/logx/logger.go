package logx

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/petalandstem/storefront/internal/config"
)

// New builds the process logger. Development mode switches to a colored
// console encoder at debug level regardless of the configured values.
func New(cfg config.Config) (*zap.Logger, error) {
	var zc zap.Config
	if cfg.IsDevelopment() {
		zc = zap.NewDevelopmentConfig()
		zc.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	} else {
		zc = zap.NewProductionConfig()
		zc.EncoderConfig.TimeKey = "ts"
		zc.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
		if cfg.Log.Encoding != "" {
			zc.Encoding = cfg.Log.Encoding
		}
		lvl, err := zapcore.ParseLevel(cfg.Log.Level)
		if err != nil {
			lvl = zapcore.InfoLevel
		}
		zc.Level = zap.NewAtomicLevelAt(lvl)
	}

	log, err := zc.Build()
	if err != nil {
		return nil, err
	}
	return log.With(zap.String("service", cfg.ServiceName)), nil
}
