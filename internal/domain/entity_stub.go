package domain

import (
	"encoding/json"
	"fmt"
	"sort"
)

// labelFieldPriority lists the fields consulted, in order, when rendering a stub label.
var labelFieldPriority = []string{"shortName", "name", "longName", "intent", "uuid"}

// EntityStub is the minimal identifying projection of a record: its uuid plus the
// label fields a filter needs to display it.
type EntityStub struct {
	Type   EntityType
	UUID   string
	Fields map[string]string
}

// NewEntityStub creates a stub with a private copy of fields.
func NewEntityStub(entityType EntityType, uuid string, fields map[string]string) *EntityStub {
	return &EntityStub{
		Type:   entityType,
		UUID:   uuid,
		Fields: copyFields(fields),
	}
}

// Label returns the best human readable label for the stub.
func (s *EntityStub) Label() string {
	if s == nil {
		return ""
	}
	for _, name := range labelFieldPriority {
		if name == "uuid" {
			return s.UUID
		}
		if v := s.Fields[name]; v != "" {
			if rank := s.Fields["rank"]; rank != "" && name == "name" {
				return rank + " " + v
			}
			return v
		}
	}
	return s.UUID
}

// Project returns a copy of the stub restricted to the requested fields. The uuid is
// always kept.
func (s *EntityStub) Project(fields []string) *EntityStub {
	if s == nil {
		return nil
	}
	if len(fields) == 0 {
		return NewEntityStub(s.Type, s.UUID, s.Fields)
	}
	projected := make(map[string]string, len(fields))
	for _, f := range fields {
		if v, ok := s.Fields[f]; ok {
			projected[f] = v
		}
	}
	return &EntityStub{Type: s.Type, UUID: s.UUID, Fields: projected}
}

// MarshalJSON flattens the stub into {"uuid": ..., <fields>}.
func (s EntityStub) MarshalJSON() ([]byte, error) {
	out := make(map[string]string, len(s.Fields)+1)
	for k, v := range s.Fields {
		out[k] = v
	}
	out["uuid"] = s.UUID
	return json.Marshal(out)
}

// UnmarshalJSON accepts the flattened form produced by MarshalJSON. Non-string label
// values are formatted with %v.
func (s *EntityStub) UnmarshalJSON(data []byte) error {
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	uuid, _ := raw["uuid"].(string)
	if uuid == "" {
		return fmt.Errorf("entity stub requires a uuid")
	}
	fields := make(map[string]string, len(raw))
	for k, v := range raw {
		if k == "uuid" || v == nil {
			continue
		}
		if str, ok := v.(string); ok {
			fields[k] = str
			continue
		}
		fields[k] = fmt.Sprintf("%v", v)
	}
	s.UUID = uuid
	s.Fields = fields
	return nil
}

// FieldNames returns the stub's label field names, sorted.
func (s *EntityStub) FieldNames() []string {
	if s == nil {
		return nil
	}
	names := make([]string, 0, len(s.Fields))
	for k := range s.Fields {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

func copyFields(fields map[string]string) map[string]string {
	out := make(map[string]string, len(fields))
	for k, v := range fields {
		out[k] = v
	}
	return out
}
