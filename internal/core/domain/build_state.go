package domain

import "time"

// GraphDimension names one of the dependency graphs tracked during a run.
type GraphDimension string

const (
	// GraphToc is the table-of-contents structure graph.
	GraphToc GraphDimension = "toc"
	// GraphVars is the presets scope graph.
	GraphVars GraphDimension = "vars"
	// GraphEntry is the rendered entry graph.
	GraphEntry GraphDimension = "entry"
	// GraphDetached holds entry subgraphs pulled out pending reprocessing.
	GraphDetached GraphDimension = "detached"
)

// BuildStateVersion is bumped whenever the persisted layout changes.
const BuildStateVersion = 1

// BuildState is what a run persists for the next one.
type BuildState struct {
	Version      int                                `json:"version"`
	Graphs       map[GraphDimension]SerializedGraph `json:"graphs,omitzero"`
	Fingerprints map[NormalizedPath]string          `json:"fingerprints,omitzero"`
	Timestamp    time.Time                          `json:"timestamp,omitzero"`
}

// NewBuildState creates an empty BuildState of the current version.
func NewBuildState() *BuildState {
	return &BuildState{
		Version:      BuildStateVersion,
		Graphs:       make(map[GraphDimension]SerializedGraph),
		Fingerprints: make(map[NormalizedPath]string),
	}
}
