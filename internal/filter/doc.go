// Package filter defines the value contract shared by every advanced search filter,
// the per-kind codecs that turn a filter value into a query fragment and back, and
// the Row type that keeps one rendered filter in sync with its owner.
//
// A filter value is a tagged variant: the Kind field selects which of the other
// fields are meaningful, and the query fragment is derived by dispatching on Kind
// together with the filter's Definition. No closures are stored in values, so two
// values can be compared structurally.
package filter
