package cas

import (
	"context"

	"github.com/grindlemire/graft"

	"go.trai.ch/quire/internal/core/ports"
)

// NodeID is the graft node providing the build state opener.
const NodeID graft.ID = "adapter.state_store"

func init() {
	graft.Register(graft.Node[ports.StateStoreOpener]{
		ID:        NodeID,
		Cacheable: true,
		Run: func(_ context.Context) (ports.StateStoreOpener, error) {
			return Open, nil
		},
	})
}
