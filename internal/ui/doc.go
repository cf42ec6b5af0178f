// Package ui is atrium's terminal console, built on Bubble Tea.
//
// # Structure
//
//   - console.go: Console, the bridge between list views and the program
//   - model.go: Model, key handling and tab switching
//   - header.go: tab strip, connection badge, query bar, stats line
//   - table.go: row table with selection and column fitting
//   - toast.go: transient notices
//   - modal.go, help.go: confirmation modal and help overlay
//   - theme.go, keys.go: palettes and bindings
//
// # Event Flow
//
// One collection is on screen at a time, held by a listview.View. The view's
// callbacks (OnChange, Notify, OnAuth, Confirm) and the push channel's state
// changes never touch the model. They post messages on the Console's queue,
// and a wait command drains it into Update one message at a time:
//
//	view / channel ──post──▶ events ──wait()──▶ Update ──▶ View()
//
// Loads and writes started from keys run as commands, so Update never blocks
// on the network. A delete's confirmation is a round trip: the dispatcher
// blocks in Confirm, the model shows a y/n modal, and the answer goes back on
// the request's reply channel. A prompt left unanswered for ConfirmTimeout is
// declined and its modal dismissed.
//
// # Tabs
//
// Switching tabs (1-6, tab, shift+tab) builds a fresh view with the kind's
// default query and closes the old one, which unsubscribes it and turns its
// in-flight loads stale. The last tab and the theme are saved to prefs.
//
// # Key Bindings
//
//   - j/k, g/G: move the selection, which follows the row id across reloads
//   - /: search, enter applies, esc cancels
//   - f, s: cycle filter preset, cycle sort
//   - n/p: next or previous page
//   - space: toggle the kind's first toggleable field
//   - x: delete after confirmation
//   - K/J: move the row up or down (reorderable kinds)
//   - r: reload
//   - T: cycle theme
//   - h/?: help
//   - e or ctrl+c: quit
package ui
