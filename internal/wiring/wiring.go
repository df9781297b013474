// Package wiring registers all Graft nodes for the application.
package wiring

import (
	// Register adapter nodes.
	_ "go.trai.ch/quire/internal/adapters/cas"
	_ "go.trai.ch/quire/internal/adapters/config"
	_ "go.trai.ch/quire/internal/adapters/fs"
	_ "go.trai.ch/quire/internal/adapters/logger"
	_ "go.trai.ch/quire/internal/adapters/metrics"
	_ "go.trai.ch/quire/internal/adapters/telemetry/progrock"
	_ "go.trai.ch/quire/internal/adapters/watcher"
	// Register app nodes.
	_ "go.trai.ch/quire/internal/app"
)
