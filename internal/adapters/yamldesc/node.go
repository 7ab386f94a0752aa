package yamldesc

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/mason/internal/core/ports"
)

// NodeID is the unique identifier for the description parser Graft node.
const NodeID graft.ID = "adapter.description_parser"

func init() {
	graft.Register(graft.Node[ports.Parser]{
		ID:        NodeID,
		Cacheable: true,
		Run: func(_ context.Context) (ports.Parser, error) {
			return NewParser(), nil
		},
	})
}
