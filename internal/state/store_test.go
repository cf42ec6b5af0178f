package state

import (
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/northgate/atrium/internal/api"
	"github.com/northgate/atrium/internal/query"
	"github.com/northgate/atrium/internal/resource"
)

func row(id string, fields map[string]any) resource.Resource {
	return resource.New(id, fields)
}

func loaded(t *testing.T, rows ...resource.Resource) *Store {
	t.Helper()
	var s Store
	s.Replace(api.Page{
		Rows:       rows,
		Pagination: api.Pagination{Page: 1, Limit: 3, Total: 7, Pages: 3},
	})
	return &s
}

func TestStore_ReplaceAndSnapshotClone(t *testing.T) {
	var s Store

	before := time.Now()
	s.Replace(api.Page{
		Rows:       []resource.Resource{row("a", map[string]any{"title": "one"}), row("b", nil)},
		Pagination: api.Pagination{Page: 1, Limit: 10, Total: 2, Pages: 1},
		Stats:      []byte(`{"unread":1}`),
	})

	snap := s.Snapshot()
	if !snap.Loaded || len(snap.Rows) != 2 || snap.Rows[0].ID != "a" {
		t.Fatalf("snapshot rows = %v, want a,b", resource.IDs(snap.Rows))
	}
	if snap.LastUpdated.Before(before) {
		t.Fatalf("LastUpdated = %v, want >= %v", snap.LastUpdated, before)
	}
	if string(snap.Stats) != `{"unread":1}` {
		t.Fatalf("Stats = %s", snap.Stats)
	}

	// Returned snapshot should be independent of the stored one.
	snap.Rows[0].Fields["title"] = "mutated"
	snap.Stats[2] = 'X'
	snap2 := s.Snapshot()
	if snap2.Rows[0].String("title") != "one" || string(snap2.Stats) != `{"unread":1}` {
		t.Fatalf("Snapshot should deep copy; got title=%q stats=%s", snap2.Rows[0].String("title"), snap2.Stats)
	}
}

func TestStore_FailKeepsPreviousRows(t *testing.T) {
	s := loaded(t, row("a", nil))

	origErr := errors.New("boom")
	s.Fail(origErr)
	s.Fail(errors.New("boom again"))

	snap := s.Snapshot()
	if len(snap.Rows) != 1 || snap.Rows[0].ID != "a" {
		t.Fatalf("rows changed on error: %v", resource.IDs(snap.Rows))
	}
	if snap.LastError == nil || snap.LastError.Error() != "boom again" {
		t.Fatalf("LastError = %v, want boom again", snap.LastError)
	}
	if reflect.ValueOf(snap.LastError).Pointer() == reflect.ValueOf(origErr).Pointer() {
		t.Fatalf("Snapshot should clone error instance")
	}
	if !snap.IsOffline() || snap.ConsecutiveFailures != 2 {
		t.Fatalf("ConsecutiveFailures = %d, want offline at 2", snap.ConsecutiveFailures)
	}

	s.Replace(api.Page{Rows: []resource.Resource{row("b", nil)}})
	snap = s.Snapshot()
	if snap.ConsecutiveFailures != 0 || snap.LastError != nil || snap.IsOffline() {
		t.Fatalf("success should reset failures; got %d, %v", snap.ConsecutiveFailures, snap.LastError)
	}
}

func TestStore_UpsertOnlyTouchesHeldRows(t *testing.T) {
	s := loaded(t, row("a", map[string]any{"n": 1}), row("b", map[string]any{"n": 2}))

	if s.Upsert(row("zz", map[string]any{"n": 9})) {
		t.Fatal("Upsert of unknown id reported a change")
	}
	if !s.Upsert(row("b", map[string]any{"n": 20})) {
		t.Fatal("Upsert of held id reported no change")
	}
	first := s.Snapshot()
	s.Upsert(row("b", map[string]any{"n": 20}))
	second := s.Snapshot()
	if !reflect.DeepEqual(first.Rows, second.Rows) {
		t.Fatalf("repeated Upsert changed rows: %v vs %v", first.Rows, second.Rows)
	}
	if ids := resource.IDs(second.Rows); ids[0] != "a" || ids[1] != "b" || len(ids) != 2 {
		t.Fatalf("Upsert moved rows: %v", ids)
	}
}

func TestStore_InsertSortedDedupesAndBounds(t *testing.T) {
	s := loaded(t,
		row("c", map[string]any{"createdAt": "2024-03-03T00:00:00Z"}),
		row("b", map[string]any{"createdAt": "2024-02-02T00:00:00Z"}),
		row("a", map[string]any{"createdAt": "2024-01-01T00:00:00Z"}),
	)
	newest := query.Sort{Field: "createdAt", Desc: true}

	fresh := row("d", map[string]any{"createdAt": "2024-02-15T00:00:00Z"})
	if !s.InsertSorted(fresh, newest, 3) {
		t.Fatal("InsertSorted reported no insert")
	}
	if s.InsertSorted(fresh, newest, 3) {
		t.Fatal("second InsertSorted of the same id reported an insert")
	}
	snap := s.Snapshot()
	if got := resource.IDs(snap.Rows); !reflect.DeepEqual(got, []string{"c", "d", "b"}) {
		t.Fatalf("rows = %v, want [c d b]", got)
	}
	if snap.Pagination.Total != 8 {
		t.Fatalf("Total = %d, want 8 after exactly one insert", snap.Pagination.Total)
	}

	s.InsertSorted(row("e", nil), query.Sort{}, 3)
	if got := s.Snapshot().Rows[0].ID; got != "e" {
		t.Fatalf("unsorted insert should prepend; first row = %q", got)
	}
}

func TestStore_RemoveIsIdempotent(t *testing.T) {
	s := loaded(t, row("a", nil), row("b", nil), row("c", nil))

	if !s.Remove("b") {
		t.Fatal("Remove of held id reported no change")
	}
	if s.Remove("b") {
		t.Fatal("second Remove reported a change")
	}
	snap := s.Snapshot()
	if got := resource.IDs(snap.Rows); !reflect.DeepEqual(got, []string{"a", "c"}) {
		t.Fatalf("rows = %v, want [a c]", got)
	}
	if snap.Pagination.Total != 6 || snap.Pagination.Pages != 2 {
		t.Fatalf("pagination = %+v, want total 6 pages 2", snap.Pagination)
	}
}

func TestStore_ProvisionalValues(t *testing.T) {
	s := loaded(t, row("a", map[string]any{"isStarred": false}))

	if _, ok := s.Provision("missing", "isStarred", true); ok {
		t.Fatal("Provision accepted an id the view does not hold")
	}

	tok, ok := s.Provision("a", "isStarred", true)
	if !ok {
		t.Fatal("Provision rejected held id")
	}
	if r, _ := s.Get("a"); !r.Bool("isStarred") {
		t.Fatal("provisional value not rendered")
	}
	if s.Snapshot().Pending != 1 {
		t.Fatalf("Pending = %d, want 1", s.Snapshot().Pending)
	}

	// An authoritative event for the same row does not hide the pending value.
	s.Upsert(row("a", map[string]any{"isStarred": false, "subject": "hello"}))
	if r, _ := s.Get("a"); !r.Bool("isStarred") || r.String("subject") != "hello" {
		t.Fatalf("row = %v, want provisional star over new authoritative data", r.Fields)
	}

	if !s.Rollback(tok) {
		t.Fatal("Rollback reported unknown token")
	}
	if s.Rollback(tok) {
		t.Fatal("second Rollback reported success")
	}
	if r, _ := s.Get("a"); r.Bool("isStarred") || r.String("subject") != "hello" {
		t.Fatalf("after rollback row = %v, want authoritative", r.Fields)
	}
}

func TestStore_CommitFoldsOrReplaces(t *testing.T) {
	s := loaded(t, row("a", map[string]any{"status": "draft"}), row("b", map[string]any{"featured": false}))

	tok, _ := s.Provision("a", "status", "published")
	if !s.Commit(tok, nil) {
		t.Fatal("Commit reported unknown token")
	}
	if snap := s.Snapshot(); snap.Pending != 0 || snap.Rows[0].String("status") != "published" {
		t.Fatalf("after fold: pending=%d status=%q", snap.Pending, snap.Rows[0].String("status"))
	}

	tok, _ = s.Provision("b", "featured", true)
	server := row("b", map[string]any{"featured": true, "__v": 5})
	server.Version = "5"
	s.Commit(tok, &server)
	if r, _ := s.Get("b"); r.Version != "5" || !r.Bool("featured") {
		t.Fatalf("after replace row = %+v, want server copy", r)
	}
}

func TestStore_CommitKeepsNewerAuthoritativeRow(t *testing.T) {
	s := loaded(t, row("a", map[string]any{"title": "Old", "__v": 5}))

	tok, _ := s.Provision("a", "featured", true)
	s.Upsert(row("a", map[string]any{"title": "Renamed", "__v": 6}))

	stale := row("a", map[string]any{"title": "Old", "featured": true, "__v": 5})
	s.Commit(tok, &stale)
	r, _ := s.Get("a")
	if r.Version != "6" || r.String("title") != "Renamed" {
		t.Fatalf("row = %s %q, want the newer event kept", r.Version, r.String("title"))
	}
	if s.Snapshot().Pending != 0 {
		t.Fatal("token still pending after Commit")
	}

	tok, _ = s.Provision("a", "featured", true)
	s.Upsert(row("a", map[string]any{"title": "Renamed", "__v": 7}))
	fresh := row("a", map[string]any{"title": "Renamed", "featured": true, "__v": 8})
	s.Commit(tok, &fresh)
	if r, _ := s.Get("a"); r.Version != "8" || !r.Bool("featured") {
		t.Fatalf("row = %s featured=%v, want the newer server reply", r.Version, r.Bool("featured"))
	}
}

func TestStore_RemoveDropsProvisionalValues(t *testing.T) {
	s := loaded(t, row("a", nil))
	tok, _ := s.Provision("a", "isRead", true)
	s.Remove("a")
	if s.Snapshot().Pending != 0 {
		t.Fatal("provisional value survived row removal")
	}
	if s.Commit(tok, nil) {
		t.Fatal("Commit of dropped token reported success")
	}
}
