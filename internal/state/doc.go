// Package state provides the thread-safe row store behind one list view.
//
// # Overview
//
// A Store holds the rows of the page a view is showing, the pagination and
// stats that came with them, and the health of the last loads. The list view
// writes to it from three places (load responses, push events and mutation
// results) and the console reads Snapshots from it on its own schedule.
//
// # Authoritative and provisional values
//
// Rows are authoritative: they are whatever the server last said, through a
// load (Replace), an event (Upsert, InsertSorted, Remove, SetRows) or a write
// response (Commit with a resource).
//
// Provisional values are per-row, per-field overlays created by Provision
// when the user changes a field before the server confirms it:
//
//	tok, ok := store.Provision(id, "isStarred", true)
//	updated, err := backend.Update(ctx, d, id, version, fields)
//	if err != nil {
//		store.Rollback(tok)   // authoritative value shows again
//	} else {
//		store.Commit(tok, updated) // server copy replaces the row
//	}
//
// The merge rule is: a provisional value is rendered on top of the row until
// its own write resolves, whatever authoritative updates arrive meanwhile.
// After that the latest authoritative write wins. Because Commit either folds
// the same value in or installs the server's copy, an optimistic update and
// the push event echoing it converge on the same row regardless of order.
//
// # Idempotency
//
// Every event operation is keyed by id:
//   - Upsert ignores ids the store does not hold
//   - InsertSorted replaces an existing row instead of duplicating it
//   - Remove of an absent id is a no-op
//
// Only a real insert or removal moves Pagination.Total, so replayed events
// leave counts alone. Those count changes are provisional; the next Replace
// installs the server's numbers.
//
// # Error Propagation
//
// Fail keeps the previous rows and records the error, mirroring how a daemon
// snapshot keeps its last good data. ConsecutiveFailures counts failed loads
// since the last success; IsOffline reports two or more.
//
// # Copies
//
// Replace, SetRows and Snapshot copy rows, field maps and the stats payload,
// so callers may keep or mutate what they pass in or get back.
//
// The zero Store is ready to use.
package state
