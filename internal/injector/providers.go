package injector

import (
	"go.uber.org/zap"

	"github.com/vantus-engine/vantus/internal/config"
	"github.com/vantus-engine/vantus/internal/core/engine"
	"github.com/vantus-engine/vantus/internal/core/observability/log"
)

func provideLogger(cfg config.Config) *zap.Logger {
	return log.New(log.ParseLevel(cfg.LogLevel))
}

func provideApp(cfg config.Config, logger *zap.Logger) *engine.App {
	return engine.NewApp(
		engine.WithLogger(logger),
		engine.WithFrameRate(cfg.FrameRate),
	)
}
