// Package listview keeps a paginated, filtered, sorted view of one
// server-owned collection correct while the user changes the query, writes to
// rows, and other sessions change the collection underneath.
//
// # Overview
//
// A View bundles three cooperating parts around a state.Store:
//
//	query change ──→ Load ──────────────┐
//	                                    ↓
//	push event ───→ handle (reconcile) → Store → Snapshot → console
//	                                    ↑
//	user action ──→ Mutate (dispatch) ──┘
//
// None of them is ordered against the others. Each is written so that,
// given the same server data, any interleaving ends in the same rows.
//
// # Loading
//
// Every Load takes the next sequence number and cancels the request before
// it. A response is applied only if its sequence number is still the latest
// and the view is open; otherwise Load returns ErrSuperseded and the rows are
// untouched. A failed load records the error in the store, keeps the rows on
// screen, and sends a Failure notice.
//
// Query setters (SetFilter, SetSort, SetSearch, SetPageSize) return to page 1
// and load once when they change something. SetPage, NextPage and PrevPage
// keep the rest of the query. When a load reports fewer pages than the page
// asked for, the page is clamped and loaded once more.
//
// Client-paged kinds (see resource.Mode) are listed whole and narrowed here:
// filters, search over the descriptor's searchable fields, sort, then the page
// window. Their correctness is bounded by what one unpaginated list returns.
//
// # Reconciling push events
//
//   - Created: a row already held is replaced in place. A row that fails the
//     filters is ignored. On page 1 without a search the row is inserted at
//     its sorted position; anywhere else the view reloads, since only the
//     server knows where the row lands.
//   - Updated: replaced in place if held, ignored otherwise. No re-sort.
//   - Deleted: removed if held; the total drops by one until the next load.
//   - Reordered: the server's order replaces the rows. A whole collection is
//     filtered and cut to the current page first.
//
// Handlers run on the channel's read goroutine. Anything that needs the
// network is started in the background on the view's own context, which
// Close cancels.
//
// Each time the channel reports Connected the view reloads, recovering
// whatever was sent while it was away.
//
// # Dispatching writes
//
// Mutate validates the action with ozzo-validation before sending anything:
//
//   - delete asks ConfirmFunc first. On success the Deleted event removes the
//     row; if the channel is down the row is removed immediately instead.
//   - updateField shows the new value at once through a provisional overlay,
//     commits it when the server accepts and rolls it back when it refuses.
//   - reorder sends the move and applies the order the server answers with,
//     never a locally computed one. A 400 such as "already first" is a notice
//     and nothing else.
//
// Failures are classified by package fault. Conflict and NotFound reload the
// view. Auth is handed to AuthFunc. Every outcome, good or bad, produces a
// Notice.
//
// # Lifecycle
//
//	v := listview.New(listview.Options{Descriptor: d, Backend: client, Channel: ch})
//	if err := v.Open(ctx); err != nil { ... }
//	defer v.Close()
//
// Close unsubscribes, cancels the in-flight load, waits for background
// reloads, and turns every later response into ErrSuperseded. A closed view
// cannot be reopened; switching kinds builds a new one.
package listview
