package filter

// Kind discriminates the filter value variants.
type Kind string

const (
	KindText         Kind = "text"
	KindSelect       Kind = "select"
	KindRadio        Kind = "radio"
	KindCheckbox     Kind = "checkbox"
	KindDateRange    Kind = "dateRange"
	KindReference    Kind = "reference"
	KindPositionType Kind = "positionType"
	KindExtra        Kind = "extra"
)

// Capability selects how a filter row is rendered.
type Capability string

const (
	// CapabilityForm renders an editable control that publishes changes.
	CapabilityForm Capability = "form"
	// CapabilityDisplay renders a read-only projection of the value.
	CapabilityDisplay Capability = "display"
)

// Relative enumerates date range modes.
type Relative string

const (
	RelativeBetween   Relative = "BETWEEN"
	RelativeBefore    Relative = "BEFORE"
	RelativeAfter     Relative = "AFTER"
	RelativeOn        Relative = "ON"
	RelativeLastDay   Relative = "LAST_DAY"
	RelativeLastWeek  Relative = "LAST_WEEK"
	RelativeLastMonth Relative = "LAST_MONTH"
)

const millisPerDay int64 = 24 * 60 * 60 * 1000

// relativeOffsets maps rolling presets to the negative millisecond offset stored in
// the range start key.
var relativeOffsets = map[Relative]int64{
	RelativeLastDay:   -millisPerDay,
	RelativeLastWeek:  -7 * millisPerDay,
	RelativeLastMonth: -30 * millisPerDay,
}

func (r Relative) valid() bool {
	switch r {
	case RelativeBetween, RelativeBefore, RelativeAfter, RelativeOn:
		return true
	}
	_, ok := relativeOffsets[r]
	return ok
}
