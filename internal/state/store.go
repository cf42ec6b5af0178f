package state

import (
	"encoding/json"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/northgate/atrium/internal/api"
	"github.com/northgate/atrium/internal/query"
	"github.com/northgate/atrium/internal/resource"
)

// Snapshot represents the latest rows available to a view. Rows already carry
// any provisional values.
type Snapshot struct {
	Rows                []resource.Resource
	Pagination          api.Pagination
	Stats               json.RawMessage
	Loaded              bool // At least one load succeeded
	Pending             int  // Provisional values awaiting the server
	LastUpdated         time.Time
	LastError           error
	ConsecutiveFailures int // Number of consecutive load failures
}

// IsOffline returns true when the API has been unreachable for multiple loads.
func (s Snapshot) IsOffline() bool {
	return s.ConsecutiveFailures >= 2
}

// Token identifies one provisional value.
type Token uint64

type overlay struct {
	id    string
	field string
	value any
	base  string // row version when the value was provisioned
}

// Store coordinates concurrent updates to one view's row set.
//
// Authoritative rows come from loads and push events. Provisional values sit
// on top of them until the server acknowledges (Commit) or refuses (Rollback)
// the write that produced them.
type Store struct {
	mu          sync.RWMutex
	rows        []resource.Resource
	pagination  api.Pagination
	stats       json.RawMessage
	loaded      bool
	lastUpdated time.Time
	lastError   error
	failures    int

	next     Token
	overlays map[Token]overlay
}

// Replace installs a successful load.
func (s *Store) Replace(page api.Page) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.rows = resource.CloneAll(page.Rows)
	s.pagination = page.Pagination
	s.stats = cloneRaw(page.Stats)
	s.loaded = true
	s.lastError = nil
	s.lastUpdated = time.Now()
	s.failures = 0
}

// Fail records a failed load. The previous rows are kept.
func (s *Store) Fail(err error) {
	if err == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	s.lastError = err
	s.lastUpdated = time.Now()
	s.failures++
}

// SetRows replaces the row set without touching pagination, as a reorder does.
func (s *Store) SetRows(rows []resource.Resource) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.rows = resource.CloneAll(rows)
	s.lastUpdated = time.Now()
}

// Upsert replaces the row with r's id in place. Rows the view does not hold
// are ignored. It reports whether a row was replaced.
func (s *Store) Upsert(r resource.Resource) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := resource.IndexOf(s.rows, r.ID)
	if i < 0 {
		return false
	}
	s.rows[i] = r.Clone()
	s.lastUpdated = time.Now()
	return true
}

// InsertSorted places r where sort puts it, keeping at most limit rows. A row
// already present is replaced in place instead, so replays do not duplicate.
// It reports whether a new row was inserted, which is also the only case that
// bumps the total.
func (s *Store) InsertSorted(r resource.Resource, order query.Sort, limit int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if i := resource.IndexOf(s.rows, r.ID); i >= 0 {
		s.rows[i] = r.Clone()
		s.lastUpdated = time.Now()
		return false
	}

	pos := 0
	if order.Field != "" {
		pos = len(s.rows)
		for i, row := range s.rows {
			if order.Less(r, row) {
				pos = i
				break
			}
		}
	}
	rows := make([]resource.Resource, 0, len(s.rows)+1)
	rows = append(rows, s.rows[:pos]...)
	rows = append(rows, r.Clone())
	rows = append(rows, s.rows[pos:]...)
	if limit > 0 && len(rows) > limit {
		rows = rows[:limit]
	}
	s.rows = rows
	s.adjustTotal(1)
	s.lastUpdated = time.Now()
	return true
}

// Remove drops the row with id and provisionally decrements the total. It
// reports whether a row was removed; removing an absent id changes nothing.
func (s *Store) Remove(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := resource.IndexOf(s.rows, id)
	if i < 0 {
		return false
	}
	s.rows = append(s.rows[:i:i], s.rows[i+1:]...)
	for tok, o := range s.overlays {
		if o.id == id {
			delete(s.overlays, tok)
		}
	}
	s.adjustTotal(-1)
	s.lastUpdated = time.Now()
	return true
}

func (s *Store) adjustTotal(delta int) {
	s.pagination.Total += delta
	if s.pagination.Total < 0 {
		s.pagination.Total = 0
	}
	if s.pagination.Limit > 0 {
		s.pagination.Pages = (s.pagination.Total + s.pagination.Limit - 1) / s.pagination.Limit
	}
}

// Provision shows value for id.field until the returned token is committed or
// rolled back. The second result is false when the view does not hold id.
func (s *Store) Provision(id, field string, value any) (Token, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := resource.IndexOf(s.rows, id)
	if i < 0 {
		return 0, false
	}
	if s.overlays == nil {
		s.overlays = map[Token]overlay{}
	}
	s.next++
	s.overlays[s.next] = overlay{id: id, field: field, value: value, base: s.rows[i].Version}
	return s.next, true
}

// Commit resolves a provisional value as accepted. When the server returned
// the updated resource it replaces the row; otherwise the provisional value is
// folded into the authoritative row. If a newer authoritative copy replaced
// the row while the write was in flight, that copy stays unless the returned
// resource is at least as new.
func (s *Store) Commit(tok Token, authoritative *resource.Resource) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	o, ok := s.overlays[tok]
	if !ok {
		return false
	}
	delete(s.overlays, tok)
	i := resource.IndexOf(s.rows, o.id)
	if i < 0 {
		return true
	}
	returned := authoritative != nil && authoritative.ID == o.id
	switch {
	case s.rows[i].Version != o.base:
		if returned && resource.CompareVersions(authoritative.Version, s.rows[i].Version) >= 0 {
			s.rows[i] = authoritative.Clone()
		}
	case returned:
		s.rows[i] = authoritative.Clone()
	default:
		s.rows[i] = s.rows[i].With(o.field, o.value)
	}
	s.lastUpdated = time.Now()
	return true
}

// Rollback discards a provisional value; the authoritative row shows again.
func (s *Store) Rollback(tok Token) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.overlays[tok]; !ok {
		return false
	}
	delete(s.overlays, tok)
	s.lastUpdated = time.Now()
	return true
}

// Get returns the row with id, provisional values applied.
func (s *Store) Get(id string) (resource.Resource, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	i := resource.IndexOf(s.rows, id)
	if i < 0 {
		return resource.Resource{}, false
	}
	return s.render(s.rows[i]), true
}

// Has reports whether the view holds id.
func (s *Store) Has(id string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return resource.IndexOf(s.rows, id) >= 0
}

// Snapshot returns a deep copy of the current state.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := Snapshot{
		Pagination:          s.pagination,
		Stats:               cloneRaw(s.stats),
		Loaded:              s.loaded,
		Pending:             len(s.overlays),
		LastUpdated:         s.lastUpdated,
		ConsecutiveFailures: s.failures,
	}
	if len(s.rows) > 0 {
		snap.Rows = make([]resource.Resource, len(s.rows))
		for i, row := range s.rows {
			snap.Rows[i] = s.render(row)
		}
	}
	if s.lastError != nil {
		snap.LastError = fmt.Errorf("%w", s.lastError)
	}
	return snap
}

// render applies overlays for row in token order. Callers hold the lock.
func (s *Store) render(row resource.Resource) resource.Resource {
	var (
		out   = row.Clone()
		order []Token
	)
	for tok, o := range s.overlays {
		if o.id == row.ID {
			order = append(order, tok)
		}
	}
	if len(order) == 0 {
		return out
	}
	slices.Sort(order)
	for _, tok := range order {
		o := s.overlays[tok]
		out = out.With(o.field, o.value)
	}
	return out
}

func cloneRaw(raw json.RawMessage) json.RawMessage {
	if len(raw) == 0 {
		return nil
	}
	dup := make(json.RawMessage, len(raw))
	copy(dup, raw)
	return dup
}
