package listview

import (
	"go.uber.org/zap"

	"github.com/northgate/atrium/internal/push"
	"github.com/northgate/atrium/internal/resource"
)

// handle applies one push event. Every branch is keyed by id so a replayed
// event leaves the rows as the first delivery did.
func (v *View) handle(ev push.Event) {
	if ev.Kind != v.d.Kind || v.isClosed() {
		return
	}
	switch ev.Type {
	case push.Created:
		v.onCreated(ev.Resource)
	case push.Updated:
		v.onUpdated(ev.Resource)
	case push.Deleted:
		v.onDeleted(ev.ID)
	case push.Reordered:
		v.onReordered(ev.Rows)
	}
}

// Apply feeds an event through the reconciler as if the channel delivered it.
func (v *View) Apply(ev push.Event) { v.handle(ev) }

func (v *View) onCreated(r resource.Resource) {
	v.mu.Lock()
	q := v.q.Clone()
	if v.store.Has(r.ID) {
		v.store.Upsert(r)
		v.mu.Unlock()
		v.changed()
		return
	}
	if !q.Matches(r) {
		v.mu.Unlock()
		v.log.Debug("created row does not match filters", zap.String("id", r.ID))
		return
	}
	if q.Page() != 1 || q.Search() != "" {
		v.mu.Unlock()
		v.reload("created off first page")
		return
	}
	v.store.InsertSorted(r, q.Sort(), q.PageSize())
	v.mu.Unlock()
	v.changed()
}

func (v *View) onUpdated(r resource.Resource) {
	v.mu.Lock()
	replaced := v.store.Upsert(r)
	v.mu.Unlock()
	if replaced {
		v.changed()
	}
}

func (v *View) onDeleted(id string) {
	v.mu.Lock()
	removed := v.store.Remove(id)
	snap := v.store.Snapshot()
	v.mu.Unlock()
	if !removed {
		return
	}
	v.changed()
	if len(snap.Rows) == 0 && snap.Pagination.Total > 0 {
		v.reload("page emptied")
	}
}

// onReordered installs the server's order. An event carrying more rows than
// a page, or any event for a client-paged kind, is the whole collection and
// is narrowed to the current page window first.
func (v *View) onReordered(rows []resource.Resource) {
	v.mu.Lock()
	q := v.q.Clone()
	if v.d.Pageless() || len(rows) > q.PageSize() {
		var kept []resource.Resource
		for _, r := range rows {
			if q.Matches(r) && q.MatchesSearch(r, v.d.Searchable) {
				kept = append(kept, r)
			}
		}
		rows = window(kept, q.Page(), q.PageSize())
	}
	v.store.SetRows(rows)
	v.mu.Unlock()
	v.changed()
}

// onState reloads whenever the channel comes up: events sent while it was
// down are gone, and the first connect may trail the initial load.
func (v *View) onState(s push.State) {
	v.changed()
	if s == push.Connected {
		v.reload("connected")
	}
}
