// Package logtail reads the tail of atrium's log file and renders its JSON
// lines for people.
//
// Read keeps a ring buffer of the last maxLines lines, so memory stays at
// O(maxLines) however large the file grows. maxLines <= 0 reads the whole
// file. A missing file is not an error: it returns no lines.
//
// The log is written by zap's JSON encoder. FormatLine turns a line like
//
//	{"level":"info","ts":"2026-10-08T21:01:05Z","logger":"push","msg":"connected"}
//
// into
//
//	2026-10-08T21:01:05Z INFO [push] connected
//
// with any extra fields appended as sorted key=value pairs. ColorizeLine
// does the same with lipgloss styles per level. Lines that are not JSON
// objects are returned unchanged.
package logtail
