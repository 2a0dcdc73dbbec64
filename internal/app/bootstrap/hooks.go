// internal/app/bootstrap/hooks.go
package bootstrap

import (
	"github.com/dalemusser/waffle/app"
)

// Hooks wires BrewCircles into WAFFLE's lifecycle. Order: LoadConfig,
// ValidateConfig, ConnectDB, EnsureSchema, Startup, BuildHandler, and
// Shutdown on exit.
var Hooks = app.Hooks[AppConfig, DBDeps]{
	Name:           "brewcircles",
	LoadConfig:     LoadConfig,
	ValidateConfig: ValidateConfig,
	ConnectDB:      ConnectDB,
	EnsureSchema:   EnsureSchema,
	Startup:        Startup,
	BuildHandler:   BuildHandler,
	Shutdown:       Shutdown,
}
