package search

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/rpattn/recordsearch/internal/domain"
	"github.com/rpattn/recordsearch/internal/filter"
	"github.com/rpattn/recordsearch/internal/registry"
)

var (
	// ErrSuperseded is returned by Load when the form changed while lookups were in
	// flight; the reconstructed filters are discarded.
	ErrSuperseded = errors.New("filter load superseded")
	// ErrFormClosed is returned once the form has been closed.
	ErrFormClosed = errors.New("search form closed")
	// ErrUnknownFilter is returned for keys without a definition or row.
	ErrUnknownFilter = errors.New("unknown filter")
	// ErrDuplicateFilter is returned when adding a filter that already has a row.
	ErrDuplicateFilter = errors.New("filter already present")
)

const (
	loadApplied    = "applied"
	loadSuperseded = "superseded"
	loadFailed     = "failed"
)

// RowState is a read-only snapshot of one filter row.
type RowState struct {
	Key         string       `json:"key"`
	Label       string       `json:"label"`
	Kind        filter.Kind  `json:"kind"`
	AsFormField bool         `json:"asFormField"`
	Value       filter.Value `json:"value"`
	Display     string       `json:"display"`
}

// Form owns the filter rows of one rendering instance of the advanced search. Every
// mutation advances the form generation; a Load that started under an older
// generation, or that finishes after Close, is discarded rather than applied.
//
// A user edit made while a Load is in flight therefore wins over the late result.
type Form struct {
	mu         sync.Mutex
	rehydrator *Rehydrator
	registry   *registry.Registry
	entityType domain.EntityType
	rows       []*filter.Row
	generation uint64
	closed     bool
	onChange   func(filter.FilterValue)
	pending    []filter.FilterValue
}

// FormOption configures a Form.
type FormOption func(*Form)

// WithChangeListener receives every value published by a form field row. It is
// called after the form lock is released.
func WithChangeListener(fn func(filter.FilterValue)) FormOption {
	return func(f *Form) {
		f.onChange = fn
	}
}

// NewForm creates an empty form for entityType.
func NewForm(rehydrator *Rehydrator, entityType domain.EntityType, opts ...FormOption) (*Form, error) {
	reg := rehydrator.Registry()
	if _, err := reg.DefinitionsFor(entityType); err != nil {
		return nil, err
	}
	f := &Form{
		rehydrator: rehydrator,
		registry:   reg,
		entityType: entityType,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f, nil
}

// EntityType returns the entity type the form currently searches.
func (f *Form) EntityType() domain.EntityType {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.entityType
}

// SetEntityType switches the searched type, clearing every row.
func (f *Form) SetEntityType(entityType domain.EntityType) error {
	if _, err := f.registry.DefinitionsFor(entityType); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return ErrFormClosed
	}
	f.generation++
	f.entityType = entityType
	f.rows = nil
	return nil
}

// Load reconstructs the rows that produced q and replaces the current rows with them
// in one step. It returns ErrSuperseded when the form was changed or closed before
// the lookups settled.
func (f *Form) Load(ctx context.Context, q domain.SearchQuery) error {
	f.mu.Lock()
	if f.closed {
		f.mu.Unlock()
		return ErrFormClosed
	}
	f.generation++
	gen := f.generation
	entityType := f.entityType
	f.mu.Unlock()

	filters, err := f.rehydrator.Rehydrate(ctx, entityType, q)

	f.mu.Lock()
	if f.closed || f.generation != gen {
		f.mu.Unlock()
		f.observeLoad(entityType, loadSuperseded)
		return ErrSuperseded
	}
	if err != nil {
		f.mu.Unlock()
		f.observeLoad(entityType, loadFailed)
		return fmt.Errorf("failed to load filters: %w", err)
	}

	rows := make([]*filter.Row, 0, len(filters))
	for _, af := range filters {
		def, ok := f.registry.Definition(entityType, af.Key)
		if !ok {
			continue
		}
		value := af.Value
		rows = append(rows, f.newRowLocked(def, &value))
	}
	f.rows = rows
	f.unlockAndFlush()
	f.observeLoad(entityType, loadApplied)
	return nil
}

// Add appends a row for key, seeded with initial or the filter default.
func (f *Form) Add(key string, initial *filter.Value) error {
	f.mu.Lock()
	if f.closed {
		f.mu.Unlock()
		return ErrFormClosed
	}
	def, ok := f.registry.Definition(f.entityType, key)
	if !ok {
		f.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrUnknownFilter, key)
	}
	if f.rowIndexLocked(key) >= 0 {
		f.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrDuplicateFilter, key)
	}
	f.generation++
	f.rows = append(f.rows, f.newRowLocked(def, initial))
	f.unlockAndFlush()
	return nil
}

// Remove deletes the row for key.
func (f *Form) Remove(key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return ErrFormClosed
	}
	idx := f.rowIndexLocked(key)
	if idx < 0 {
		return fmt.Errorf("%w: %s", ErrUnknownFilter, key)
	}
	f.generation++
	f.rows = append(f.rows[:idx:idx], f.rows[idx+1:]...)
	return nil
}

// Edit applies a user edit to the row for key.
func (f *Form) Edit(key string, v filter.Value) error {
	return f.mutateRow(key, func(r *filter.Row) error { return r.Edit(v) })
}

// Reset overrides the row for key with a value chosen by the owner.
func (f *Form) Reset(key string, v filter.Value) error {
	return f.mutateRow(key, func(r *filter.Row) error { return r.Reset(v) })
}

// SetAsFormField switches the capability of the row for key.
func (f *Form) SetAsFormField(key string, asFormField bool) error {
	return f.mutateRow(key, func(r *filter.Row) error {
		r.SetAsFormField(asFormField)
		return nil
	})
}

// Rows returns a snapshot of the rows in display order.
func (f *Form) Rows() []RowState {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]RowState, len(f.rows))
	for i, r := range f.rows {
		def := r.Definition()
		v := r.Value()
		out[i] = RowState{
			Key:         def.Key,
			Label:       def.Label,
			Kind:        def.Kind,
			AsFormField: r.AsFormField(),
			Value:       v,
			Display:     def.Display(v),
		}
	}
	return out
}

// Filters returns the current active filters in display order.
func (f *Form) Filters() []ActiveFilter {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.filtersLocked()
}

// Query composes the outbound query from the current rows.
func (f *Form) Query() (domain.SearchQuery, error) {
	f.mu.Lock()
	entityType := f.entityType
	filters := f.filtersLocked()
	f.mu.Unlock()
	return Compose(f.registry, entityType, filters)
}

// Close ends the rendering instance; pending loads are discarded.
func (f *Form) Close() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	f.generation++
	f.rows = nil
}

func (f *Form) mutateRow(key string, fn func(*filter.Row) error) error {
	f.mu.Lock()
	if f.closed {
		f.mu.Unlock()
		return ErrFormClosed
	}
	idx := f.rowIndexLocked(key)
	if idx < 0 {
		f.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrUnknownFilter, key)
	}
	if err := fn(f.rows[idx]); err != nil {
		f.mu.Unlock()
		return err
	}
	f.generation++
	f.unlockAndFlush()
	return nil
}

func (f *Form) newRowLocked(def *filter.Definition, external *filter.Value) *filter.Row {
	return filter.NewRow(def, filter.RowOptions{
		AsFormField: def.Capability != filter.CapabilityDisplay && !def.IsExtra,
		External:    external,
		OnChange: func(fv filter.FilterValue) {
			// rows only publish from inside form methods, which hold f.mu
			f.pending = append(f.pending, fv)
		},
	})
}

func (f *Form) rowIndexLocked(key string) int {
	for i, r := range f.rows {
		if r.Key() == key {
			return i
		}
	}
	return -1
}

func (f *Form) filtersLocked() []ActiveFilter {
	out := make([]ActiveFilter, len(f.rows))
	for i, r := range f.rows {
		out[i] = ActiveFilter{Key: r.Key(), Value: r.Value()}
	}
	return out
}

// unlockAndFlush releases f.mu and hands queued publications to the listener.
func (f *Form) unlockAndFlush() {
	pending := f.pending
	f.pending = nil
	listener := f.onChange
	f.mu.Unlock()

	if listener == nil {
		return
	}
	for _, fv := range pending {
		listener(fv)
	}
}

func (f *Form) observeLoad(entityType domain.EntityType, result string) {
	if f.rehydrator.recorder != nil {
		f.rehydrator.recorder.ObserveLoad(entityType, result)
	}
}
