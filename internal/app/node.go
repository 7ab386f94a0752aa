package app

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/mason/internal/adapters/logger"   //nolint:depguard // Wired in app layer
	"go.trai.ch/mason/internal/adapters/yamldesc" //nolint:depguard // Wired in app layer
	"go.trai.ch/mason/internal/core/ports"
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
			yamldesc.NodeID,
			logger.NodeID,
		},
		Run: func(ctx context.Context) (*App, error) {
			parser, err := graft.Dep[ports.Parser](ctx)
			if err != nil {
				return nil, err
			}
			log, err := graft.Dep[ports.Logger](ctx)
			if err != nil {
				return nil, err
			}
			return New(parser, log), nil
		},
	})

	graft.Register(graft.Node[*Components]{
		ID:        ComponentsNodeID,
		Cacheable: true,
		DependsOn: []graft.ID{
			AppNodeID,
			logger.NodeID,
			yamldesc.NodeID,
		},
		Run: func(ctx context.Context) (*Components, error) {
			application, err := graft.Dep[*App](ctx)
			if err != nil {
				return nil, err
			}
			log, err := graft.Dep[ports.Logger](ctx)
			if err != nil {
				return nil, err
			}
			parser, err := graft.Dep[ports.Parser](ctx)
			if err != nil {
				return nil, err
			}
			return &Components{
				App:    application,
				Logger: log,
				Parser: parser,
			}, nil
		},
	})
}
