package ports

import "time"

// Metrics defines the build observability counters.
// Every implementation must tolerate being called from many goroutines.
//
//go:generate go run go.uber.org/mock/mockgen -source=metrics.go -destination=mocks/mock_metrics.go -package=mocks
type Metrics interface {
	// IncDemand counts a Demand lookup; outcome is "hit" or "miss".
	IncDemand(cache, outcome string)
	// IncWrite counts a scoped write; result is "written" or "skipped".
	IncWrite(result string)
	// IncInvalidation counts a watch invalidation in the given graph dimension.
	IncInvalidation(dimension string)
	// IncEntry counts a processed entry by final status.
	IncEntry(status string)
	ObserveBuildDuration(d time.Duration)
	// Flush writes the collected metrics to path in the Prometheus text format.
	Flush(path string) error
}
