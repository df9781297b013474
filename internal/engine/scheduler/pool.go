// Package scheduler distributes entry processing across a fixed pool of workers.
//
// Every worker owns its own processor, with its own caches and entry graph. Graph state reaches
// the pool only as serialized graph payloads, which are consumed into the pool's entry graph.
package scheduler

import (
	"context"
	"encoding/json"
	"errors"
	"runtime"
	"slices"
	"strconv"
	"sync"

	"go.trai.ch/zerr"

	"go.trai.ch/quire/internal/core/domain"
	"go.trai.ch/quire/internal/core/ports"
	"go.trai.ch/quire/internal/engine/entry"
)

var _ ports.EntryIndex = (*Pool)(nil)

// Processor builds entries for one worker.
type Processor interface {
	Process(ctx context.Context, path domain.NormalizedPath) (*entry.Artifact, error)
	Relations() *domain.Graph
}

// ProcessorFactory creates the processor owned by worker.
type ProcessorFactory func(worker int) (Processor, error)

// Report summarizes one Run.
type Report struct {
	Artifacts map[domain.NormalizedPath]*entry.Artifact
	Failed    []domain.NormalizedPath
}

// Pool runs entries on parallelism workers and merges their entry graphs.
type Pool struct {
	factory     ProcessorFactory
	parallelism int
	telemetry   ports.Telemetry
	metrics     ports.Metrics

	graph *domain.Graph

	mu     sync.RWMutex
	status map[domain.NormalizedPath]domain.VertexStatus
}

// NewPool creates a Pool. A non-positive parallelism means one worker per CPU.
// telemetry and metrics may be nil.
func NewPool(factory ProcessorFactory, parallelism int, telemetry ports.Telemetry, metrics ports.Metrics) *Pool {
	if parallelism <= 0 {
		parallelism = runtime.NumCPU()
	}
	return &Pool{
		factory:     factory,
		parallelism: parallelism,
		telemetry:   telemetry,
		metrics:     metrics,
		graph:       domain.NewGraph(),
		status:      make(map[domain.NormalizedPath]domain.VertexStatus),
	}
}

// Relations returns the merged entry graph of every worker.
func (p *Pool) Relations() *domain.Graph {
	return p.graph
}

// Release drops path from the merged entry graph, pruning includes only it used.
func (p *Pool) Release(path domain.NormalizedPath) {
	p.graph.Release(path)
	p.mu.Lock()
	delete(p.status, path)
	p.mu.Unlock()
}

// Status returns the last known status of path.
func (p *Pool) Status(path domain.NormalizedPath) domain.VertexStatus {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if status, ok := p.status[path]; ok {
		return status
	}
	return domain.VertexStatusPending
}

// MarkCached records that path was satisfied from a previous run.
func (p *Pool) MarkCached(path domain.NormalizedPath) {
	p.updateStatus(path, domain.VertexStatusCached)
	p.observe(domain.VertexStatusCached)
}

func (p *Pool) updateStatus(path domain.NormalizedPath, status domain.VertexStatus) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.status[path] = status
}

type result struct {
	path     domain.NormalizedPath
	artifact *entry.Artifact
	payload  []byte
	err      error
}

// Run processes paths and waits for all of them. Failures do not stop other entries; they are
// joined into the returned error. Cancelling ctx stops handing out new entries.
func (p *Pool) Run(ctx context.Context, paths []domain.NormalizedPath) (*Report, error) {
	report := &Report{Artifacts: make(map[domain.NormalizedPath]*entry.Artifact, len(paths))}
	if len(paths) == 0 {
		return report, nil
	}

	workers := min(p.parallelism, len(paths))
	processors := make([]Processor, workers)
	for i := range processors {
		proc, err := p.factory(i)
		if err != nil {
			return report, zerr.With(zerr.Wrap(err, "failed to create worker"), "worker", strconv.Itoa(i))
		}
		processors[i] = proc
	}

	jobs := make(chan domain.NormalizedPath)
	results := make(chan result, workers)

	var wg sync.WaitGroup
	for _, proc := range processors {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for path := range jobs {
				results <- p.process(ctx, proc, path)
			}
		}()
	}

	go func() {
		defer close(jobs)
		for _, path := range paths {
			p.updateStatus(path, domain.VertexStatusPending)
		}
		for _, path := range paths {
			select {
			case jobs <- path:
			case <-ctx.Done():
				return
			}
		}
	}()

	go func() {
		wg.Wait()
		close(results)
	}()

	var errs error
	for res := range results {
		if err := p.handleResult(res, report); err != nil {
			errs = errors.Join(errs, err)
		}
	}
	slices.Sort(report.Failed)

	if ctx.Err() != nil {
		errs = errors.Join(errs, ctx.Err())
	}
	return report, errs
}

func (p *Pool) process(ctx context.Context, proc Processor, path domain.NormalizedPath) result {
	p.updateStatus(path, domain.VertexStatusRunning)

	var vertex ports.Vertex
	if p.telemetry != nil {
		ctx, vertex = p.telemetry.Record(ctx, "entry "+path.String())
	}

	artifact, err := proc.Process(ctx, path)
	if vertex != nil {
		vertex.Complete(err)
	}
	if err != nil {
		return result{path: path, err: err}
	}

	payload, err := json.Marshal(proc.Relations().Extract(path))
	if err != nil {
		return result{path: path, err: zerr.Wrap(err, "failed to serialize entry graph")}
	}
	return result{path: path, artifact: artifact, payload: payload}
}

func (p *Pool) handleResult(res result, report *Report) error {
	if res.err == nil {
		res.err = p.graph.Consume(res.payload)
	}
	if res.err != nil {
		p.updateStatus(res.path, domain.VertexStatusFailed)
		p.observe(domain.VertexStatusFailed)
		report.Failed = append(report.Failed, res.path)
		return zerr.With(zerr.Wrap(res.err, "entry failed"), "entry", res.path.String())
	}
	p.updateStatus(res.path, domain.VertexStatusCompleted)
	p.observe(domain.VertexStatusCompleted)
	report.Artifacts[res.path] = res.artifact
	return nil
}

func (p *Pool) observe(status domain.VertexStatus) {
	if p.metrics != nil {
		p.metrics.IncEntry(string(status))
	}
}
