// Package app is atrium's composition root.
//
// # Overview
//
// Run wires configuration, logging, the REST client, the push channel and the
// console together:
//
//	┌──────────────┐
//	│   Run()      │
//	└──────┬───────┘
//	       ├─────> config.Load()     ~/.config/atrium/config.toml
//	       ├─────> logging.File()    JSON log, the TUI owns the terminal
//	       ├─────> prefs.Load()      theme and last tab
//	       ├─────> Dial()            api.Client + push.Client
//	       └─────> errgroup
//	                ├─> push.Client.Run   reconnects with backoff
//	                ├─> Poller.Run        reloads while offline
//	                └─> ui.Console.Run    blocks until quit
//
// Quitting the console cancels the group, which stops the push loop and the
// poller. Both return nil on cancellation, so Run reports only the console's
// own error.
//
// # Fallback Polling
//
// Push events keep the open view current while the channel is connected.
// When it is not, the Poller reloads the active view every fallback_poll
// (default 15s). Consecutive failures back off exponentially, capped at 30s:
//
//	interval · 2^failures
//
// A successful load, or the channel coming back, resets the count.
// Superseded or closed-view loads are not failures; they mean the user moved
// on.
//
// # Dial
//
// Dial is shared with the CLI subcommands. The push URL comes from push_url or
// is derived from api_url (http→ws, https→wss, path /realtime). The bearer
// token is read from config on every request and every handshake.
package app
