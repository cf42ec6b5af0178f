package push

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/northgate/atrium/internal/resource"
)

// Type is what happened to a resource.
type Type string

const (
	Created   Type = "created"
	Updated   Type = "updated"
	Deleted   Type = "deleted"
	Reordered Type = "reordered"
)

// Frame is the wire form of one push message.
type Frame struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

// Event is a decoded push notification scoped to one kind. Created and
// Updated carry Resource, Deleted carries ID, Reordered carries Rows.
type Event struct {
	Kind     resource.Kind
	Type     Type
	Resource resource.Resource
	ID       string
	Rows     []resource.Resource
}

// Name renders the wire event name, e.g. "article:updated".
func (e Event) Name() string { return string(e.Kind) + ":" + string(e.Type) }

// Key returns the id the event is about, empty for Reordered.
func (e Event) Key() string {
	switch e.Type {
	case Deleted:
		return e.ID
	case Created, Updated:
		return e.Resource.ID
	}
	return ""
}

// Frame encodes the event for the wire. Test servers use it.
func (e Event) Frame() (Frame, error) {
	var payload any
	switch e.Type {
	case Created, Updated:
		payload = e.Resource
	case Deleted:
		payload = e.ID
	case Reordered:
		payload = e.Rows
	default:
		return Frame{}, fmt.Errorf("unknown event type %q", e.Type)
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return Frame{}, fmt.Errorf("encode %s: %w", e.Name(), err)
	}
	return Frame{Event: e.Name(), Data: data}, nil
}

// ParseFrame decodes a raw websocket message.
func ParseFrame(raw []byte) (Event, error) {
	var f Frame
	if err := json.Unmarshal(raw, &f); err != nil {
		return Event{}, fmt.Errorf("decode frame: %w", err)
	}
	return f.Decode()
}

// Decode interprets the frame payload according to its event name.
func (f Frame) Decode() (Event, error) {
	name, typ, ok := strings.Cut(f.Event, ":")
	if !ok {
		return Event{}, fmt.Errorf("event %q: missing type", f.Event)
	}
	k, err := resource.ParseKind(name)
	if err != nil {
		return Event{}, fmt.Errorf("event %q: %w", f.Event, err)
	}
	ev := Event{Kind: k, Type: Type(strings.ToLower(typ))}
	switch ev.Type {
	case Created, Updated:
		if err := json.Unmarshal(f.Data, &ev.Resource); err != nil {
			return Event{}, fmt.Errorf("event %q: %w", f.Event, err)
		}
	case Deleted:
		id, err := decodeID(f.Data)
		if err != nil {
			return Event{}, fmt.Errorf("event %q: %w", f.Event, err)
		}
		ev.ID = id
	case Reordered:
		rows, err := decodeRows(f.Data, k)
		if err != nil {
			return Event{}, fmt.Errorf("event %q: %w", f.Event, err)
		}
		ev.Rows = rows
	default:
		return Event{}, fmt.Errorf("event %q: unknown type", f.Event)
	}
	return ev, nil
}

func decodeID(data json.RawMessage) (string, error) {
	var id string
	if err := json.Unmarshal(data, &id); err == nil {
		if strings.TrimSpace(id) == "" {
			return "", fmt.Errorf("empty id")
		}
		return id, nil
	}
	var r resource.Resource
	if err := json.Unmarshal(data, &r); err != nil {
		return "", err
	}
	return r.ID, nil
}

func decodeRows(data json.RawMessage, kind resource.Kind) ([]resource.Resource, error) {
	var rows []resource.Resource
	if err := json.Unmarshal(data, &rows); err == nil {
		return rows, nil
	}
	var body map[string]json.RawMessage
	if err := json.Unmarshal(data, &body); err != nil {
		return nil, fmt.Errorf("decode rows: %w", err)
	}
	key := "items"
	if d, ok := resource.Lookup(kind); ok {
		if _, has := body[d.Collection]; has {
			key = d.Collection
		}
	}
	raw, ok := body[key]
	if !ok {
		return nil, fmt.Errorf("decode rows: no %q array", key)
	}
	if err := json.Unmarshal(raw, &rows); err != nil {
		return nil, fmt.Errorf("decode rows: %w", err)
	}
	return rows, nil
}
