package app_test

import (
	"context"
	"testing"

	"github.com/grindlemire/graft"
	"github.com/stretchr/testify/require"

	"go.trai.ch/quire/internal/app"
	_ "go.trai.ch/quire/internal/wiring" // Register providers
)

func TestAppWiring(t *testing.T) {
	t.Chdir(t.TempDir())

	components, _, err := graft.ExecuteFor[*app.Components](context.Background())
	require.NoError(t, err)
	require.NotNil(t, components)
	require.NotNil(t, components.App)
	require.NotNil(t, components.Logger)
	require.NotNil(t, components.ConfigLoader)
}

func TestNewComponents(t *testing.T) {
	a := app.New(nil, nil, nil, nil, nil, nil, nil)
	components := app.NewComponents(a, nil, nil)
	require.Same(t, a, components.App)
}
