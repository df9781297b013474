package domain

import (
	"fmt"
	"strings"

	"go.trai.ch/zerr"
)

var (
	// ErrUnknownNode is returned when an edge or lookup references a node the graph does not contain.
	ErrUnknownNode = zerr.New("unknown node")

	// ErrCycleDetected is returned when ordering a graph that is not a DAG.
	ErrCycleDetected = zerr.New("cycle detected")

	// ErrDemandOverride is returned when setting a value for a key that is already resolved.
	ErrDemandOverride = zerr.New("override of resolved value is not allowed")

	// ErrInsecureAccess is returned when a path resolves outside every registered scope.
	ErrInsecureAccess = zerr.New("insecure access")

	// ErrInvalidPresets is returned when a presets file does not have the expected shape.
	ErrInvalidPresets = zerr.New("invalid presets file")

	// ErrInvalidToc is returned when a toc file does not have the expected shape.
	ErrInvalidToc = zerr.New("invalid toc file")

	// ErrIncludeCycle is returned when a document includes itself through a chain of includes.
	ErrIncludeCycle = zerr.New("include cycle detected")

	// ErrInvalidGraphPayload is returned when consuming something that is not a dependency graph.
	ErrInvalidGraphPayload = zerr.New("invalid graph payload")

	// ErrStrictWarnings is returned when strict mode is enabled and the run logged warnings.
	ErrStrictWarnings = zerr.New("warnings reported in strict mode")

	// ErrInvalidConfig is returned when the project configuration cannot be decoded.
	ErrInvalidConfig = zerr.New("invalid configuration")

	// ErrNoBuildState is returned when inspecting a build that never persisted its state.
	ErrNoBuildState = zerr.New("no build state recorded")

	// ErrUnsafeClean is returned when cleaning would remove the input tree.
	ErrUnsafeClean = zerr.New("refusing to clean an output root that contains the input root")

	// ErrBuildFailed is returned when one or more entries failed to build.
	ErrBuildFailed = zerr.New("build failed")
)

// InsecureAccessError carries the diagnostic context of a rejected filesystem access.
type InsecureAccessError struct {
	// Path is the path as requested by the caller.
	Path string
	// Stack lists every path visited while resolving symlinks, in order.
	Stack []string
	// Scopes are the allowed scope roots at the time of the access.
	Scopes []string
}

func (e *InsecureAccessError) Error() string {
	return fmt.Sprintf("%s: %s resolves outside of [%s] (via %s)",
		ErrInsecureAccess.Error(), e.Path, strings.Join(e.Scopes, ", "), strings.Join(e.Stack, " -> "))
}

// Unwrap allows errors.Is(err, ErrInsecureAccess).
func (e *InsecureAccessError) Unwrap() error {
	return ErrInsecureAccess
}
