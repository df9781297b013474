package metrics_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go.trai.ch/quire/internal/adapters/metrics"
)

func TestPrometheusRecorder_Counts(t *testing.T) {
	pr := metrics.NewPrometheusRecorder(nil)
	pr.IncDemand("vars", "miss")
	pr.IncDemand("vars", "hit")
	pr.IncDemand("vars", "hit")
	pr.IncWrite("skipped")
	pr.IncInvalidation("entry")
	pr.IncEntry("built")
	pr.ObserveBuildDuration(150 * time.Millisecond)

	mfs, err := pr.Registry().Gather()
	require.NoError(t, err)
	assert.Len(t, mfs, 5)

	for _, mf := range mfs {
		if mf.GetName() == "quire_demand_lookups_total" {
			assert.Len(t, mf.GetMetric(), 2)
		}
	}
}

func TestPrometheusRecorder_Flush(t *testing.T) {
	pr := metrics.NewPrometheusRecorder(nil)
	pr.IncWrite("written")

	path := filepath.Join(t.TempDir(), "quire.prom")
	require.NoError(t, pr.Flush(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `quire_writes_total{result="written"} 1`)

	require.NoError(t, pr.Flush(""))
}

func TestNoopRecorder(t *testing.T) {
	var rec metrics.NoopRecorder
	rec.IncDemand("x", "hit")
	assert.NoError(t, rec.Flush("/nonexistent/dir/file"))
}
