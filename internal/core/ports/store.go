package ports

import "go.trai.ch/quire/internal/core/domain"

// StateStore persists build state between runs.
//
//go:generate go run go.uber.org/mock/mockgen -source=store.go -destination=mocks/mock_store.go -package=mocks
type StateStore interface {
	// Load returns the previous state, or an empty state if none was saved.
	Load() (*domain.BuildState, error)
	// Save replaces the stored state.
	Save(state *domain.BuildState) error
}

// StateStoreOpener opens the StateStore persisted at path.
type StateStoreOpener func(path string) (StateStore, error)
