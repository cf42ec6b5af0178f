// Package push is the client side of the realtime channel.
//
// One websocket carries events for every kind. Frames are JSON:
//
//	{"event": "article:updated", "data": {"_id": "...", ...}}
//	{"event": "message:deleted", "data": "65f0c..."}
//	{"event": "carousel:reordered", "data": [{...}, {...}]}
//
// Client.Run owns the connection and moves through Disconnected, Connecting
// and Connected, reconnecting with Backoff until its context ends. Views never
// own the connection: they Subscribe for a kind and get back an unsubscribe
// func, and they watch OnStateChange to know when to resynchronize.
//
// Malformed frames are logged at debug level and skipped.
package push
