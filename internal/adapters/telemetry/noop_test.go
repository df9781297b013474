package telemetry_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go.trai.ch/quire/internal/adapters/telemetry"
	"go.trai.ch/quire/internal/core/domain"
	"go.trai.ch/quire/internal/core/ports"
)

func TestNoop_RecordsNothing(t *testing.T) {
	var tel ports.Telemetry = telemetry.Noop{}

	ctx, v := tel.Record(context.Background(), "entry docs/index.md")
	fromCtx, ok := ports.VertexFromContext(ctx)
	require.True(t, ok)
	assert.Equal(t, v, fromCtx)

	n, err := v.Stdout().Write([]byte("ignored"))
	require.NoError(t, err)
	assert.Equal(t, 7, n)
	v.Log(domain.LogLevelWarn, "ignored")
	v.Complete(errors.New("ignored"))
	v.Cached()
	require.NoError(t, tel.Close())
}
