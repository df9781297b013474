package ports

import (
	"context"

	"go.trai.ch/quire/internal/core/domain"
)

// GraphOwner is a subsystem owning one dependency graph dimension.
type GraphOwner interface {
	Relations() *domain.Graph
}

// TocIndex is the table-of-contents subsystem as seen by incremental rebuilds.
//
//go:generate go run go.uber.org/mock/mockgen -source=build.go -destination=mocks/mock_build.go -package=mocks
type TocIndex interface {
	GraphOwner
	Load(ctx context.Context, path domain.NormalizedPath) (*domain.Toc, error)
	Entries(toc *domain.Toc) []domain.NormalizedPath
	Release(path domain.NormalizedPath)
}

// VarsIndex is the presets subsystem as seen by incremental rebuilds.
type VarsIndex interface {
	GraphOwner
	// Release drops cached scopes at dir and below.
	Release(dir domain.NormalizedPath)
}

// EntryIndex is the entry subsystem as seen by incremental rebuilds.
type EntryIndex interface {
	GraphOwner
	Release(path domain.NormalizedPath)
}

// BuildDriver recomputes artifacts on behalf of incremental rebuilds.
type BuildDriver interface {
	ProcessToc(ctx context.Context, path domain.NormalizedPath) error
	ProcessEntry(ctx context.Context, path domain.NormalizedPath) error
}
