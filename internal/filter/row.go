package filter

import (
	"fmt"
	"sync"
)

// RowOptions configures a Row.
type RowOptions struct {
	// AsFormField makes the row editable and publishing; display rows never publish.
	AsFormField bool
	// OnChange receives every published FilterValue.
	OnChange func(FilterValue)
	// External is the value supplied by the owner, if any.
	External *Value
}

// Row keeps one rendered filter's local value in sync with the value its owner
// supplies, and publishes the composed FilterValue on every relevant change.
//
// The owner may either call Sync on every render with whatever value it currently
// holds (the row adopts it only when it differs from the last one observed), or send
// an explicit Reset when it means to override the row.
type Row struct {
	mu          sync.Mutex
	def         *Definition
	asFormField bool
	onChange    func(FilterValue)
	retained    *Value
	local       Value
}

// NewRow creates a row whose local value starts from the external value or the
// filter default, publishing it once when the row is a form field.
func NewRow(def *Definition, opts RowOptions) *Row {
	r := &Row{
		def:         def,
		asFormField: opts.AsFormField,
		onChange:    opts.OnChange,
		retained:    cloneValuePtr(opts.External),
		local:       def.DefaultValue(opts.External),
	}
	r.publish(r.snapshot())
	return r
}

// Key returns the filter key.
func (r *Row) Key() string {
	return r.def.Key
}

// Definition returns the filter definition behind the row.
func (r *Row) Definition() *Definition {
	return r.def
}

// Value returns the current local value.
func (r *Row) Value() Value {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.local
}

// FilterValue returns the current value together with its query fragment.
func (r *Row) FilterValue() FilterValue {
	return r.def.Publish(r.Value())
}

// AsFormField reports the current capability.
func (r *Row) AsFormField() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.asFormField
}

// Display returns the read-only projection of the current value.
func (r *Row) Display() string {
	return r.def.Display(r.Value())
}

// Sync compares external with the last externally observed value and adopts it when
// it differs. Local edits survive any number of Sync calls carrying an unchanged
// external value. It reports whether the external value was adopted.
func (r *Row) Sync(external *Value) bool {
	r.mu.Lock()
	if Equal(external, r.retained) {
		r.mu.Unlock()
		return false
	}
	r.retained = cloneValuePtr(external)
	r.local = r.def.DefaultValue(external)
	snap := r.snapshotLocked()
	r.mu.Unlock()

	r.publish(snap)
	return true
}

// Reset overrides the local value unconditionally.
func (r *Row) Reset(v Value) error {
	if v.Kind != r.def.Kind {
		return fmt.Errorf("%w: %s expects %s, got %s", ErrInvalidValue, r.def.Key, r.def.Kind, v.Kind)
	}
	r.mu.Lock()
	r.retained = cloneValuePtr(&v)
	r.local = v
	snap := r.snapshotLocked()
	r.mu.Unlock()

	r.publish(snap)
	return nil
}

// Edit applies a user edit. Unchanged values are not republished.
func (r *Row) Edit(v Value) error {
	if v.Kind != r.def.Kind {
		return fmt.Errorf("%w: %s expects %s, got %s", ErrInvalidValue, r.def.Key, r.def.Kind, v.Kind)
	}
	r.mu.Lock()
	if Equal(v, r.local) {
		r.mu.Unlock()
		return nil
	}
	r.local = v
	snap := r.snapshotLocked()
	r.mu.Unlock()

	r.publish(snap)
	return nil
}

// SetAsFormField switches between form and display capability. The value is kept as
// is; turning a display row into a form field publishes it.
func (r *Row) SetAsFormField(asFormField bool) {
	r.mu.Lock()
	changed := r.asFormField != asFormField
	r.asFormField = asFormField
	snap := r.snapshotLocked()
	r.mu.Unlock()

	if changed {
		r.publish(snap)
	}
}

type rowSnapshot struct {
	asFormField bool
	value       Value
}

func (r *Row) snapshot() rowSnapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.snapshotLocked()
}

func (r *Row) snapshotLocked() rowSnapshot {
	return rowSnapshot{asFormField: r.asFormField, value: r.local}
}

func (r *Row) publish(s rowSnapshot) {
	if !s.asFormField || r.onChange == nil {
		return
	}
	r.onChange(r.def.Publish(s.value))
}

func cloneValuePtr(v *Value) *Value {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}
