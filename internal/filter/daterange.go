package filter

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/rpattn/recordsearch/internal/domain"
)

const dateLayout = "2006-01-02"

var relativeLabels = map[Relative]string{
	RelativeLastDay:   "Last 24 hours",
	RelativeLastWeek:  "Last 7 days",
	RelativeLastMonth: "Last 30 days",
}

type dateRangeCodec struct{}

func startKey(d *Definition) string { return d.QueryKey() + "Start" }
func endKey(d *Definition) string   { return d.QueryKey() + "End" }

func (dateRangeCodec) defaultValue(*Definition) Value {
	return DateRangeValue(DateRange{Relative: RelativeBetween})
}

func (dateRangeCodec) toQuery(d *Definition, v Value) domain.SearchQuery {
	r := v.Dates
	q := domain.SearchQuery{}
	if offset, ok := relativeOffsets[r.Relative]; ok {
		q[startKey(d)] = strconv.FormatInt(offset, 10)
		return q
	}
	switch r.Relative {
	case RelativeBefore:
		if r.End != "" {
			q[endKey(d)] = r.End
		}
	case RelativeAfter:
		if r.Start != "" {
			q[startKey(d)] = r.Start
		}
	case RelativeOn:
		if r.Start != "" {
			q[startKey(d)] = r.Start
			q[endKey(d)] = r.Start
		}
	default:
		if r.Start != "" {
			q[startKey(d)] = r.Start
		}
		if r.End != "" {
			q[endKey(d)] = r.End
		}
	}
	return q
}

func (dateRangeCodec) display(_ *Definition, v Value) string {
	r := v.Dates
	if label, ok := relativeLabels[r.Relative]; ok {
		return label
	}
	switch r.Relative {
	case RelativeBefore:
		return "Before " + r.End
	case RelativeAfter:
		return "After " + r.Start
	case RelativeOn:
		return "On " + r.Start
	}
	switch {
	case r.Start != "" && r.End != "":
		return fmt.Sprintf("Between %s and %s", r.Start, r.End)
	case r.Start != "":
		return "After " + r.Start
	case r.End != "":
		return "Before " + r.End
	}
	return ""
}

func (dateRangeCodec) queryKeys(d *Definition) []string {
	return []string{startKey(d), endKey(d)}
}

func (c dateRangeCodec) deserialize(_ context.Context, d *Definition, q domain.SearchQuery, _ domain.EntityLookup) Result {
	rawStart, hasStart := q.String(startKey(d))
	rawEnd, hasEnd := q.String(endKey(d))
	rawStart, rawEnd = strings.TrimSpace(rawStart), strings.TrimSpace(rawEnd)
	hasStart = hasStart && rawStart != ""
	hasEnd = hasEnd && rawEnd != ""
	if !hasStart && !hasEnd {
		return absent(c.defaultValue(d))
	}

	if hasStart && strings.HasPrefix(rawStart, "-") {
		offset, err := strconv.ParseInt(rawStart, 10, 64)
		if err != nil {
			return defaulted(c.defaultValue(d), fmt.Errorf("invalid relative start %q", rawStart))
		}
		for rel, known := range relativeOffsets {
			if known == offset {
				return resolved(DateRangeValue(DateRange{Relative: rel}))
			}
		}
		return defaulted(c.defaultValue(d), fmt.Errorf("unsupported relative offset %d", offset))
	}

	var r DateRange
	if hasStart {
		start, err := parseDate(rawStart)
		if err != nil {
			return defaulted(c.defaultValue(d), err)
		}
		r.Start = start
	}
	if hasEnd {
		end, err := parseDate(rawEnd)
		if err != nil {
			return defaulted(c.defaultValue(d), err)
		}
		r.End = end
	}

	switch {
	case hasStart && hasEnd && r.Start == r.End:
		r.Relative = RelativeOn
		r.End = ""
	case hasStart && hasEnd:
		if r.End < r.Start {
			return defaulted(c.defaultValue(d), fmt.Errorf("range end %s precedes start %s", r.End, r.Start))
		}
		r.Relative = RelativeBetween
	case hasStart:
		r.Relative = RelativeAfter
	default:
		r.Relative = RelativeBefore
	}
	return resolved(DateRangeValue(r))
}

func (dateRangeCodec) decode(_ *Definition, raw json.RawMessage) (Value, error) {
	var r DateRange
	if err := json.Unmarshal(raw, &r); err != nil {
		return Value{}, err
	}
	if r.Relative == "" {
		r.Relative = RelativeBetween
	}
	if !r.Relative.valid() {
		return Value{}, fmt.Errorf("unknown relative mode %q", r.Relative)
	}
	if _, rolling := relativeOffsets[r.Relative]; rolling {
		return DateRangeValue(DateRange{Relative: r.Relative}), nil
	}
	var err error
	if r.Start != "" {
		if r.Start, err = parseDate(r.Start); err != nil {
			return Value{}, err
		}
	}
	if r.End != "" {
		if r.End, err = parseDate(r.End); err != nil {
			return Value{}, err
		}
	}
	if r.Relative == RelativeBetween && r.Start != "" && r.End != "" && r.End < r.Start {
		return Value{}, fmt.Errorf("range end %s precedes start %s", r.End, r.Start)
	}
	return DateRangeValue(canonicalRange(r)), nil
}

// canonicalRange drops the bounds a mode does not use and narrows half open or
// single day BETWEEN ranges, so that a decoded value survives a query round trip unchanged.
func canonicalRange(r DateRange) DateRange {
	switch r.Relative {
	case RelativeBefore:
		r.Start = ""
	case RelativeAfter, RelativeOn:
		r.End = ""
	case RelativeBetween:
		switch {
		case r.Start != "" && r.Start == r.End:
			r.Relative = RelativeOn
			r.End = ""
		case r.Start != "" && r.End == "":
			r.Relative = RelativeAfter
		case r.Start == "" && r.End != "":
			r.Relative = RelativeBefore
		}
	}
	return r
}

func (dateRangeCodec) validate(*Definition) error {
	return nil
}

// parseDate accepts calendar dates, RFC3339 timestamps and epoch milliseconds, and
// normalises them to a calendar date.
func parseDate(raw string) (string, error) {
	if t, err := time.Parse(dateLayout, raw); err == nil {
		return t.Format(dateLayout), nil
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t.UTC().Format(dateLayout), nil
	}
	if ms, err := strconv.ParseInt(raw, 10, 64); err == nil && ms >= 0 {
		return time.UnixMilli(ms).UTC().Format(dateLayout), nil
	}
	return "", fmt.Errorf("unparseable date %q", raw)
}
