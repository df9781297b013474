package fs

import (
	"encoding/binary"
	"errors"
	"fmt"
	iofs "io/fs"
	"slices"

	"github.com/cespare/xxhash/v2"

	"go.trai.ch/quire/internal/core/ports"
)

var _ ports.Hasher = (*Hasher)(nil)

// Hasher fingerprints inputs with xxhash.
type Hasher struct{}

// NewHasher creates a new Hasher.
func NewHasher() *Hasher {
	return &Hasher{}
}

// Fingerprint hashes every path (sorted, deduplicated) and its content, then the extra strings in order.
func (h *Hasher) Fingerprint(files ports.FileContext, paths []string, extra ...string) (string, error) {
	sorted := slices.Clone(paths)
	slices.Sort(sorted)
	sorted = slices.Compact(sorted)

	digest := xxhash.New()
	for _, path := range sorted {
		_, _ = digest.WriteString(path)
		_, _ = digest.Write([]byte{0})

		data, err := files.Read(path)
		switch {
		case errors.Is(err, iofs.ErrNotExist):
			_, _ = digest.Write([]byte{1})
		case err != nil:
			return "", err
		default:
			_ = binary.Write(digest, binary.LittleEndian, xxhash.Sum64(data))
		}
		_, _ = digest.Write([]byte{0})
	}
	_, _ = digest.Write([]byte{0})

	for _, s := range extra {
		_, _ = digest.WriteString(s)
		_, _ = digest.Write([]byte{0})
	}
	return fmt.Sprintf("%016x", digest.Sum64()), nil
}
