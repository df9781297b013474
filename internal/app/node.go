package app

import (
	"context"

	"github.com/grindlemire/graft"

	"go.trai.ch/quire/internal/adapters/cas"                //nolint:depguard // Wired in app layer
	"go.trai.ch/quire/internal/adapters/config"             //nolint:depguard // Wired in app layer
	"go.trai.ch/quire/internal/adapters/fs"                 //nolint:depguard // Wired in app layer
	"go.trai.ch/quire/internal/adapters/logger"             //nolint:depguard // Wired in app layer
	"go.trai.ch/quire/internal/adapters/metrics"            //nolint:depguard // Wired in app layer
	"go.trai.ch/quire/internal/adapters/telemetry/progrock" //nolint:depguard // Wired in app layer
	"go.trai.ch/quire/internal/adapters/watcher"            //nolint:depguard // Wired in app layer
	"go.trai.ch/quire/internal/core/ports"
)

const (
	// AppNodeID is the unique identifier for the main App Graft node.
	AppNodeID graft.ID = "app.main"
	// ComponentsNodeID is the unique identifier for the App components Graft node.
	ComponentsNodeID graft.ID = "app.components"
)

func init() {
	graft.Register(graft.Node[*App]{
		ID:        AppNodeID,
		Cacheable: true,
		DependsOn: []graft.ID{
			logger.NodeID,
			fs.FactoryNodeID,
			fs.HasherNodeID,
			metrics.NodeID,
			progrock.NodeID,
			cas.NodeID,
			watcher.NodeID,
		},
		Run: runAppNode,
	})

	graft.Register(graft.Node[*Components]{
		ID:        ComponentsNodeID,
		Cacheable: true,
		DependsOn: []graft.ID{
			AppNodeID,
			logger.NodeID,
			config.NodeID,
		},
		Run: runComponentsNode,
	})
}

func runAppNode(ctx context.Context) (*App, error) {
	log, err := graft.Dep[ports.Logger](ctx)
	if err != nil {
		return nil, err
	}

	files, err := graft.Dep[ports.FileContextFactory](ctx)
	if err != nil {
		return nil, err
	}

	hasher, err := graft.Dep[ports.Hasher](ctx)
	if err != nil {
		return nil, err
	}

	recorder, err := graft.Dep[ports.Metrics](ctx)
	if err != nil {
		return nil, err
	}

	telemetry, err := graft.Dep[ports.Telemetry](ctx)
	if err != nil {
		return nil, err
	}

	openStore, err := graft.Dep[ports.StateStoreOpener](ctx)
	if err != nil {
		return nil, err
	}

	w, err := graft.Dep[ports.Watcher](ctx)
	if err != nil {
		return nil, err
	}

	return New(log, files, hasher, recorder, telemetry, openStore, w), nil
}

func runComponentsNode(ctx context.Context) (*Components, error) {
	app, err := graft.Dep[*App](ctx)
	if err != nil {
		return nil, err
	}

	log, err := graft.Dep[ports.Logger](ctx)
	if err != nil {
		return nil, err
	}

	loader, err := graft.Dep[ports.ConfigLoader](ctx)
	if err != nil {
		return nil, err
	}

	return NewComponents(app, log, loader), nil
}
