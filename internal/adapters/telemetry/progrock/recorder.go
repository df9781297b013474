// Package progrock provides the Progrock implementation of the telemetry adapter.
package progrock

import (
	"context"
	"strconv"
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/opencontainers/go-digest"
	"github.com/vito/progrock"

	"go.trai.ch/quire/internal/core/ports"
)

var _ ports.Telemetry = (*Recorder)(nil)

// Recorder implements the ports.Telemetry interface using the vito/progrock library.
// Every recorded vertex gets a distinct digest, so rebuilding the same entry in watch mode
// shows up as a new vertex rather than reopening the old one.
type Recorder struct {
	w       progrock.Writer
	rec     *progrock.Recorder
	session string
	seq     atomic.Uint64
}

// New creates a new Recorder with a default tape.
func New() *Recorder {
	return NewRecorder(progrock.NewTape())
}

// NewRecorder creates a new Recorder with the given writer.
func NewRecorder(w progrock.Writer) *Recorder {
	return &Recorder{
		w:       w,
		rec:     progrock.NewRecorder(w),
		session: uuid.NewString(),
	}
}

// Record starts recording a new vertex.
func (r *Recorder) Record(ctx context.Context, name string) (context.Context, ports.Vertex) {
	seq := r.seq.Add(1)
	d := digest.FromString(r.session + "/" + strconv.FormatUint(seq, 10) + "/" + name)
	vertex := &Vertex{vertex: r.rec.Vertex(d, name)}
	return ports.ContextWithVertex(ctx, vertex), vertex
}

// Close flushes and closes the recording session.
func (r *Recorder) Close() error {
	if c, ok := r.w.(interface{ Close() error }); ok {
		return c.Close()
	}
	return nil
}
