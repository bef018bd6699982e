package filter

import (
	"context"
	"encoding/json"

	"github.com/rpattn/recordsearch/internal/domain"
)

type checkboxCodec struct{}

func (checkboxCodec) defaultValue(d *Definition) Value {
	return CheckboxValue(d.Props.DefaultChecked)
}

func (checkboxCodec) toQuery(d *Definition, v Value) domain.SearchQuery {
	return domain.SearchQuery{d.QueryKey(): v.Checked}
}

func (checkboxCodec) display(_ *Definition, v Value) string {
	if v.Checked {
		return "Yes"
	}
	return "No"
}

func (checkboxCodec) queryKeys(d *Definition) []string {
	return []string{d.QueryKey()}
}

func (c checkboxCodec) deserialize(_ context.Context, d *Definition, q domain.SearchQuery, _ domain.EntityLookup) Result {
	checked, present, err := q.Bool(d.QueryKey())
	if !present {
		return absent(c.defaultValue(d))
	}
	if err != nil {
		return defaulted(c.defaultValue(d), err)
	}
	return resolved(CheckboxValue(checked))
}

func (checkboxCodec) decode(_ *Definition, raw json.RawMessage) (Value, error) {
	var w struct {
		Value bool `json:"value"`
	}
	if err := json.Unmarshal(raw, &w); err != nil {
		return Value{}, err
	}
	return CheckboxValue(w.Value), nil
}

func (checkboxCodec) validate(*Definition) error {
	return nil
}
