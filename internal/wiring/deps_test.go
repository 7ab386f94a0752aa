package wiring_test

import (
	"context"
	"testing"

	"github.com/grindlemire/graft"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/mason/internal/app"
	_ "go.trai.ch/mason/internal/wiring"
)

// TestComponentsGraphExecutes verifies the registered node graph wires a
// complete component set.
func TestComponentsGraphExecutes(t *testing.T) {
	components, _, err := graft.ExecuteFor[*app.Components](context.Background())
	require.NoError(t, err)

	assert.NotNil(t, components.App)
	assert.NotNil(t, components.Logger)
	assert.NotNil(t, components.Parser)
}
