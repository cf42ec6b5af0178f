package api

import (
	"encoding/json"
	"fmt"

	"github.com/northgate/atrium/internal/resource"
)

// Pagination mirrors the pagination block of list responses.
type Pagination struct {
	Page  int `json:"page"`
	Limit int `json:"limit"`
	Total int `json:"total"`
	Pages int `json:"pages"`
}

// Page is one list response: the rows, their pagination, and the optional
// aggregate stats block passed through untouched.
type Page struct {
	Rows       []resource.Resource
	Pagination Pagination
	Stats      json.RawMessage
}

// Move is a reorder intent. Either Direction or Index is set.
type Move struct {
	Direction string `json:"direction,omitempty"`
	Index     *int   `json:"index,omitempty"`
}

const (
	MoveUp   = "up"
	MoveDown = "down"
)

// Up and Down are the two relative moves.
func Up() Move   { return Move{Direction: MoveUp} }
func Down() Move { return Move{Direction: MoveDown} }

// To moves to an explicit zero-based index.
func To(index int) Move { return Move{Index: &index} }

func (m Move) String() string {
	if m.Index != nil {
		return fmt.Sprintf("index %d", *m.Index)
	}
	return m.Direction
}

type envelope struct {
	Success *bool           `json:"success"`
	Data    json.RawMessage `json:"data"`
	Message string          `json:"message"`
	Error   string          `json:"error"`
}

func (e envelope) text() string {
	if e.Message != "" {
		return e.Message
	}
	return e.Error
}

// decodeList accepts `{<collection>: [...], pagination, stats}` or a bare array.
func decodeList(data json.RawMessage, collection string) (Page, error) {
	var page Page
	if len(data) == 0 || string(data) == "null" {
		return page, nil
	}
	if data[0] == '[' {
		if err := json.Unmarshal(data, &page.Rows); err != nil {
			return Page{}, fmt.Errorf("decode rows: %w", err)
		}
		page.Pagination = singlePage(len(page.Rows))
		return page, nil
	}

	var body map[string]json.RawMessage
	if err := json.Unmarshal(data, &body); err != nil {
		return Page{}, fmt.Errorf("decode list: %w", err)
	}
	rows, ok := body[collection]
	if !ok {
		rows = body["items"]
	}
	if len(rows) > 0 && string(rows) != "null" {
		if err := json.Unmarshal(rows, &page.Rows); err != nil {
			return Page{}, fmt.Errorf("decode %s: %w", collection, err)
		}
	}
	if raw, ok := body["pagination"]; ok && string(raw) != "null" {
		if err := json.Unmarshal(raw, &page.Pagination); err != nil {
			return Page{}, fmt.Errorf("decode pagination: %w", err)
		}
	} else {
		page.Pagination = singlePage(len(page.Rows))
	}
	if raw, ok := body["stats"]; ok && string(raw) != "null" {
		page.Stats = append(json.RawMessage(nil), raw...)
	}
	return page, nil
}

// decodeResource accepts the resource itself or an object wrapping it under
// one of keys.
func decodeResource(data json.RawMessage, keys ...string) (*resource.Resource, error) {
	if len(data) == 0 || string(data) == "null" || data[0] != '{' {
		return nil, nil
	}
	var r resource.Resource
	if err := json.Unmarshal(data, &r); err == nil {
		return &r, nil
	}
	var body map[string]json.RawMessage
	if err := json.Unmarshal(data, &body); err != nil {
		return nil, fmt.Errorf("decode resource: %w", err)
	}
	for _, key := range keys {
		raw, ok := body[key]
		if !ok {
			continue
		}
		if err := json.Unmarshal(raw, &r); err != nil {
			return nil, fmt.Errorf("decode %s: %w", key, err)
		}
		return &r, nil
	}
	return nil, nil
}

func singlePage(n int) Pagination {
	pages := 1
	if n == 0 {
		pages = 0
	}
	return Pagination{Page: 1, Limit: n, Total: n, Pages: pages}
}
