// Package cas persists build state between runs.
package cas

import (
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"go.trai.ch/zerr"

	"go.trai.ch/quire/internal/core/domain"
	"go.trai.ch/quire/internal/core/ports"
)

var _ ports.StateStore = (*Store)(nil)

// Store implements ports.StateStore using a flat JSON file.
type Store struct {
	path string
	mu   sync.Mutex
	now  func() time.Time
}

// NewStore creates a StateStore backed by the file at the given path. The file need not exist.
func NewStore(path string) (*Store, error) {
	if path == "" {
		return nil, zerr.New("state store path is empty")
	}
	return &Store{path: filepath.Clean(path), now: time.Now}, nil
}

// Open is a ports.StateStoreOpener.
func Open(path string) (ports.StateStore, error) {
	return NewStore(path)
}

// Path returns the backing file.
func (s *Store) Path() string {
	return s.path
}

// Load returns the stored state. A missing or empty file, or a file written by another layout version,
// yields an empty state.
func (s *Store) Load() (*domain.BuildState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	//nolint:gosec // Path is cleaned and provided by trusted caller
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return domain.NewBuildState(), nil
		}
		return nil, zerr.With(zerr.Wrap(err, "failed to read build state"), "path", s.path)
	}
	if len(data) == 0 {
		return domain.NewBuildState(), nil
	}

	var state domain.BuildState
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, zerr.With(zerr.Wrap(err, "failed to unmarshal build state"), "path", s.path)
	}
	if state.Version != domain.BuildStateVersion {
		return domain.NewBuildState(), nil
	}
	if state.Graphs == nil {
		state.Graphs = make(map[domain.GraphDimension]domain.SerializedGraph)
	}
	if state.Fingerprints == nil {
		state.Fingerprints = make(map[domain.NormalizedPath]string)
	}
	return &state, nil
}

// Save replaces the stored state. The file is replaced atomically.
func (s *Store) Save(state *domain.BuildState) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := *state
	out.Version = domain.BuildStateVersion
	out.Timestamp = s.now().UTC()

	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return zerr.Wrap(err, "failed to marshal build state")
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, domain.DirPerm); err != nil {
		return zerr.Wrap(err, "failed to create directory for build state")
	}

	tmp, err := os.CreateTemp(dir, ".state-*")
	if err != nil {
		return zerr.Wrap(err, "failed to create temporary build state")
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return zerr.Wrap(err, "failed to write build state")
	}
	if err := tmp.Close(); err != nil {
		return zerr.Wrap(err, "failed to write build state")
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return zerr.With(zerr.Wrap(err, "failed to replace build state"), "path", s.path)
	}
	return nil
}
