package search

import (
	"context"
	"io"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/rpattn/recordsearch/internal/domain"
	"github.com/rpattn/recordsearch/internal/filter"
	"github.com/rpattn/recordsearch/internal/registry"
)

const defaultLookupConcurrency = 8

// Recorder receives rehydration outcomes; internal/metrics provides the Prometheus
// implementation.
type Recorder interface {
	ObserveFilterOutcome(entityType domain.EntityType, key string, outcome filter.Outcome)
	ObserveLoad(entityType domain.EntityType, result string)
}

// Rehydrator reconstructs the active filters that produced an incoming query.
type Rehydrator struct {
	registry    *registry.Registry
	lookup      domain.EntityLookup
	logger      *slog.Logger
	recorder    Recorder
	concurrency int
}

// Option configures a Rehydrator.
type Option func(*Rehydrator)

// WithLogger sets the logger used for dropped and failed filters.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Rehydrator) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithRecorder reports outcomes to a metrics recorder.
func WithRecorder(recorder Recorder) Option {
	return func(r *Rehydrator) {
		r.recorder = recorder
	}
}

// WithConcurrency bounds the number of lookups in flight for one rehydration.
func WithConcurrency(n int) Option {
	return func(r *Rehydrator) {
		if n > 0 {
			r.concurrency = n
		}
	}
}

// NewRehydrator creates a rehydrator over a registry and a lookup collaborator.
func NewRehydrator(reg *registry.Registry, lookup domain.EntityLookup, opts ...Option) *Rehydrator {
	r := &Rehydrator{
		registry:    reg,
		lookup:      lookup,
		logger:      slog.New(slog.NewTextHandler(io.Discard, nil)),
		concurrency: defaultLookupConcurrency,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// WithLookup returns a copy of the rehydrator that resolves references through
// lookup, used to bind a per-request batching loader.
func (r *Rehydrator) WithLookup(lookup domain.EntityLookup) *Rehydrator {
	clone := *r
	clone.lookup = lookup
	return &clone
}

// Registry returns the registry the rehydrator reads.
func (r *Rehydrator) Registry() *registry.Registry {
	return r.registry
}

// Rehydrate returns the filters that reproduce q for entityType: extras present in q
// first, then every registered filter whose keys q carries, in registry order.
// Reference lookups run concurrently and the whole set is returned only once all of
// them have settled. A missing or unreachable reference drops that one filter and a
// malformed value falls back to the filter default; only an unknown entity type or a
// cancelled context fail the call.
func (r *Rehydrator) Rehydrate(ctx context.Context, entityType domain.EntityType, q domain.SearchQuery) ([]ActiveFilter, error) {
	defs, err := r.registry.DefinitionsFor(entityType)
	if err != nil {
		return nil, err
	}
	extras, err := r.registry.ExtrasFor(entityType)
	if err != nil {
		return nil, err
	}

	filters := make([]ActiveFilter, 0, len(defs)+len(extras))
	for _, def := range extras {
		if _, ok := q[def.Key]; !ok {
			continue
		}
		res := def.Deserialize(ctx, q, nil)
		filters = append(filters, ActiveFilter{Key: def.Key, Value: res.Value})
	}

	results := make([]filter.Result, len(defs))
	g := new(errgroup.Group)
	g.SetLimit(r.concurrency)
	for i, def := range defs {
		if !def.Present(q) {
			continue
		}
		if !def.IsAsync() {
			results[i] = def.Deserialize(ctx, q, nil)
			continue
		}
		g.Go(func() error {
			results[i] = def.Deserialize(ctx, q, r.lookup)
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	for i, res := range results {
		if !defs[i].Present(q) {
			continue
		}
		r.observe(ctx, entityType, res)
		if res.Outcome.Kept() {
			filters = append(filters, ActiveFilter{Key: res.Key, Value: res.Value})
		}
	}
	return filters, nil
}

func (r *Rehydrator) observe(ctx context.Context, entityType domain.EntityType, res filter.Result) {
	if r.recorder != nil {
		r.recorder.ObserveFilterOutcome(entityType, res.Key, res.Outcome)
	}
	switch res.Outcome {
	case filter.OutcomeDefaulted:
		r.logger.InfoContext(ctx, "[SEARCH] malformed filter value, using default",
			"entity_type", entityType, "key", res.Key, "error", res.Err)
	case filter.OutcomeDropped:
		r.logger.InfoContext(ctx, "[SEARCH] referenced record is gone, dropping filter",
			"entity_type", entityType, "key", res.Key, "error", res.Err)
	case filter.OutcomeFailed:
		r.logger.WarnContext(ctx, "[SEARCH] reference lookup failed, dropping filter",
			"entity_type", entityType, "key", res.Key, "error", res.Err)
	}
}
