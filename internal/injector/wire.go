//go:build wireinject
// +build wireinject

// The build tag makes sure the stub is not built in the final build.

package injector

import (
	"github.com/google/wire"

	"github.com/vantus-engine/vantus/internal/config"
	"github.com/vantus-engine/vantus/internal/core/engine"
)

// ProvideApp assembles a fully configured engine from process config.
func ProvideApp(cfg config.Config) *engine.App {
	wire.Build(provideLogger, provideApp)
	return nil
}
