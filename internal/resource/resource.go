package resource

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Resource is one server-owned record. ID is the only key used to reconcile
// local rows against push events and API responses.
type Resource struct {
	ID      string
	Version string
	Fields  map[string]any
}

// New builds a resource from an id and a field map. The map is copied.
func New(id string, fields map[string]any) Resource {
	r := Resource{ID: id, Fields: make(map[string]any, len(fields)+1)}
	for k, v := range fields {
		r.Fields[k] = v
	}
	if _, ok := r.Fields["_id"]; !ok {
		if _, ok := r.Fields["id"]; !ok {
			r.Fields["_id"] = id
		}
	}
	r.Version = versionOf(r.Fields)
	return r
}

// UnmarshalJSON decodes a server document. Numbers are kept as json.Number so
// round-trips do not lose precision.
func (r *Resource) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	fields := map[string]any{}
	if err := dec.Decode(&fields); err != nil {
		return fmt.Errorf("decode resource: %w", err)
	}
	id := scalarString(fields["_id"])
	if id == "" {
		id = scalarString(fields["id"])
	}
	if id == "" {
		return fmt.Errorf("decode resource: missing id")
	}
	r.ID = id
	r.Fields = fields
	r.Version = versionOf(fields)
	return nil
}

// MarshalJSON encodes the field map.
func (r Resource) MarshalJSON() ([]byte, error) {
	if r.Fields == nil {
		return json.Marshal(map[string]any{"_id": r.ID})
	}
	return json.Marshal(r.Fields)
}

// Clone returns a deep-enough copy: the top-level field map is duplicated.
func (r Resource) Clone() Resource {
	dup := Resource{ID: r.ID, Version: r.Version}
	if r.Fields != nil {
		dup.Fields = make(map[string]any, len(r.Fields))
		for k, v := range r.Fields {
			dup.Fields[k] = v
		}
	}
	return dup
}

// With returns a copy with field set to value.
func (r Resource) With(field string, value any) Resource {
	dup := r.Clone()
	if dup.Fields == nil {
		dup.Fields = map[string]any{}
	}
	dup.Fields[field] = value
	return dup
}

// Value returns the raw field value.
func (r Resource) Value(field string) (any, bool) {
	v, ok := r.Fields[field]
	return v, ok
}

// String renders a field for display and comparison. Nested values are
// JSON-encoded; nil renders as an empty string.
func (r Resource) String(field string) string {
	v, ok := r.Fields[field]
	if !ok || v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	if s := scalarString(v); s != "" {
		return s
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprint(v)
	}
	return string(raw)
}

// Bool interprets a field as a boolean. Strings "true"/"1" count as true.
func (r Resource) Bool(field string) bool {
	switch v := r.Fields[field].(type) {
	case bool:
		return v
	case string:
		b, _ := strconv.ParseBool(strings.TrimSpace(v))
		return b
	case json.Number:
		n, _ := v.Float64()
		return n != 0
	case float64:
		return v != 0
	case int:
		return v != 0
	}
	return false
}

// Number interprets a field as a float.
func (r Resource) Number(field string) (float64, bool) {
	switch v := r.Fields[field].(type) {
	case json.Number:
		n, err := v.Float64()
		return n, err == nil
	case float64:
		return v, true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	case string:
		n, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		return n, err == nil
	}
	return 0, false
}

// Time parses an RFC 3339 timestamp field.
func (r Resource) Time(field string) (time.Time, bool) {
	s, ok := r.Fields[field].(string)
	if !ok || s == "" {
		return time.Time{}, false
	}
	for _, layout := range []string{time.RFC3339Nano, time.RFC3339, "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// CompareVersions orders two concurrency tokens. Numeric tokens compare as
// numbers and timestamps as times; anything else compares as text. It
// returns -1, 0 or 1.
func CompareVersions(a, b string) int {
	if na, err := strconv.ParseFloat(a, 64); err == nil {
		if nb, err := strconv.ParseFloat(b, 64); err == nil {
			switch {
			case na < nb:
				return -1
			case na > nb:
				return 1
			}
			return 0
		}
	}
	if ta, err := time.Parse(time.RFC3339Nano, a); err == nil {
		if tb, err := time.Parse(time.RFC3339Nano, b); err == nil {
			return ta.Compare(tb)
		}
	}
	return strings.Compare(a, b)
}

func versionOf(fields map[string]any) string {
	for _, key := range []string{"__v", "version"} {
		if s := scalarString(fields[key]); s != "" {
			return s
		}
	}
	return scalarString(fields["updatedAt"])
}

func scalarString(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case json.Number:
		return t.String()
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	case bool:
		return strconv.FormatBool(t)
	}
	return ""
}

// IDs returns the ids of rows in order.
func IDs(rows []Resource) []string {
	out := make([]string, len(rows))
	for i, r := range rows {
		out[i] = r.ID
	}
	return out
}

// IndexOf returns the position of id in rows, or -1.
func IndexOf(rows []Resource, id string) int {
	for i, r := range rows {
		if r.ID == id {
			return i
		}
	}
	return -1
}

// CloneAll copies a row slice and each row's field map.
func CloneAll(rows []Resource) []Resource {
	if len(rows) == 0 {
		return nil
	}
	dup := make([]Resource, len(rows))
	for i, r := range rows {
		dup[i] = r.Clone()
	}
	return dup
}
