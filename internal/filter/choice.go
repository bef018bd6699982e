package filter

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/rpattn/recordsearch/internal/domain"
)

type textWire struct {
	Value string `json:"value"`
}

type textCodec struct{}

func (textCodec) defaultValue(d *Definition) Value {
	return TextValue(KindText, d.Props.Default)
}

func (textCodec) toQuery(d *Definition, v Value) domain.SearchQuery {
	text := strings.TrimSpace(v.Text)
	if text == "" {
		return domain.SearchQuery{}
	}
	return domain.SearchQuery{d.QueryKey(): text}
}

func (textCodec) display(_ *Definition, v Value) string {
	return v.Text
}

func (textCodec) queryKeys(d *Definition) []string {
	return []string{d.QueryKey()}
}

func (c textCodec) deserialize(_ context.Context, d *Definition, q domain.SearchQuery, _ domain.EntityLookup) Result {
	text, ok := q.String(d.QueryKey())
	if !ok || strings.TrimSpace(text) == "" {
		return absent(c.defaultValue(d))
	}
	return resolved(TextValue(KindText, strings.TrimSpace(text)))
}

func (textCodec) decode(_ *Definition, raw json.RawMessage) (Value, error) {
	var w textWire
	if err := json.Unmarshal(raw, &w); err != nil {
		return Value{}, err
	}
	return TextValue(KindText, strings.TrimSpace(w.Value)), nil
}

func (textCodec) validate(*Definition) error {
	return nil
}

// choiceCodec serves select and radio filters: a single value out of a fixed list.
type choiceCodec struct {
	kind Kind
}

func (c choiceCodec) defaultValue(d *Definition) Value {
	if d.Props.Default != "" {
		return TextValue(c.kind, d.Props.Default)
	}
	if len(d.Props.Options) > 0 {
		return TextValue(c.kind, d.Props.Options[0].Value)
	}
	return TextValue(c.kind, "")
}

func (choiceCodec) toQuery(d *Definition, v Value) domain.SearchQuery {
	if v.Text == "" {
		return domain.SearchQuery{}
	}
	return domain.SearchQuery{d.QueryKey(): v.Text}
}

func (choiceCodec) display(d *Definition, v Value) string {
	return optionLabel(d.Props.Options, v.Text)
}

func (choiceCodec) queryKeys(d *Definition) []string {
	return []string{d.QueryKey()}
}

func (c choiceCodec) deserialize(_ context.Context, d *Definition, q domain.SearchQuery, _ domain.EntityLookup) Result {
	raw, ok := q.String(d.QueryKey())
	if !ok || raw == "" {
		return absent(c.defaultValue(d))
	}
	if !hasOption(d.Props.Options, raw) {
		return defaulted(c.defaultValue(d), fmt.Errorf("%q is not an option of %s", raw, d.Key))
	}
	return resolved(TextValue(c.kind, raw))
}

func (c choiceCodec) decode(d *Definition, raw json.RawMessage) (Value, error) {
	var w textWire
	if err := json.Unmarshal(raw, &w); err != nil {
		return Value{}, err
	}
	if w.Value != "" && !hasOption(d.Props.Options, w.Value) {
		return Value{}, fmt.Errorf("%q is not an option", w.Value)
	}
	return TextValue(c.kind, w.Value), nil
}

func (choiceCodec) validate(d *Definition) error {
	if len(d.Props.Options) == 0 {
		return errors.New("choice filters need options")
	}
	if d.Props.Default != "" && !hasOption(d.Props.Options, d.Props.Default) {
		return fmt.Errorf("default %q is not an option", d.Props.Default)
	}
	return nil
}

// positionTypeCodec is a select whose options may expand into several position types
// when searching; an Advisor search also matches super users and administrators.
type positionTypeCodec struct{}

func (positionTypeCodec) defaultValue(d *Definition) Value {
	return choiceCodec{kind: KindPositionType}.defaultValue(d)
}

func (positionTypeCodec) toQuery(d *Definition, v Value) domain.SearchQuery {
	if v.Text == "" {
		return domain.SearchQuery{}
	}
	if expanded, ok := d.Props.Expansions[v.Text]; ok {
		list := make([]string, len(expanded))
		copy(list, expanded)
		return domain.SearchQuery{d.QueryKey(): list}
	}
	return domain.SearchQuery{d.QueryKey(): []string{v.Text}}
}

func (positionTypeCodec) display(d *Definition, v Value) string {
	return optionLabel(d.Props.Options, v.Text)
}

func (positionTypeCodec) queryKeys(d *Definition) []string {
	return []string{d.QueryKey()}
}

func (c positionTypeCodec) deserialize(_ context.Context, d *Definition, q domain.SearchQuery, _ domain.EntityLookup) Result {
	list, ok := q.Strings(d.QueryKey())
	if !ok || len(list) == 0 {
		return absent(c.defaultValue(d))
	}
	for _, option := range d.Props.Options {
		if expanded, ok := d.Props.Expansions[option.Value]; ok && sameSet(expanded, list) {
			return resolved(TextValue(KindPositionType, option.Value))
		}
	}
	if hasOption(d.Props.Options, list[0]) {
		return resolved(TextValue(KindPositionType, list[0]))
	}
	return defaulted(c.defaultValue(d), fmt.Errorf("%v is not a position type of %s", list, d.Key))
}

func (positionTypeCodec) decode(d *Definition, raw json.RawMessage) (Value, error) {
	return choiceCodec{kind: KindPositionType}.decode(d, raw)
}

func (positionTypeCodec) validate(d *Definition) error {
	if err := (choiceCodec{}).validate(d); err != nil {
		return err
	}
	for option := range d.Props.Expansions {
		if !hasOption(d.Props.Options, option) {
			return fmt.Errorf("expansion %q is not an option", option)
		}
	}
	return nil
}

func hasOption(options []Option, value string) bool {
	for _, o := range options {
		if o.Value == value {
			return true
		}
	}
	return false
}

func optionLabel(options []Option, value string) string {
	for _, o := range options {
		if o.Value == value {
			if o.Label != "" {
				return o.Label
			}
			return o.Value
		}
	}
	return value
}

func sameSet(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	seen := make(map[string]int, len(a))
	for _, v := range a {
		seen[v]++
	}
	for _, v := range b {
		if seen[v] == 0 {
			return false
		}
		seen[v]--
	}
	return true
}
