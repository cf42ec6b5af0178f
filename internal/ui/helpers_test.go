package ui

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/northgate/atrium/internal/resource"
)

func TestHumanizeDuration(t *testing.T) {
	cases := []struct {
		name string
		in   int64 // seconds
		want string
	}{
		{"negative", -5, "now"},
		{"subsecond", 0, "now"},
		{"seconds", 12, "12s"},
		{"minutes", 61, "1m"},
		{"hours_only", 2*60*60 + 10, "2h"},
		{"hours_minutes", 2*60*60 + 3*60, "2h 3m"},
		{"days", 24 * 60 * 60, "1d"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := humanizeDuration(timeSeconds(tc.in))
			if got != tc.want {
				t.Fatalf("humanizeDuration(%d) = %q, want %q", tc.in, got, tc.want)
			}
		})
	}
}

func TestTruncate(t *testing.T) {
	if got := truncate("  hello world  ", 8); got != "hello..." {
		t.Fatalf("truncate = %q, want hello...", got)
	}
	if got := truncate("abc", 10); got != "abc" {
		t.Fatalf("truncate short = %q, want abc", got)
	}
}

func TestTruncateMiddle(t *testing.T) {
	if got := truncateMiddle("  ", 10); got != "" {
		t.Fatalf("truncateMiddle blank = %q, want empty", got)
	}
	if got := truncateMiddle("abcd", 2); got != "ab" {
		t.Fatalf("truncateMiddle limit<=3 = %q, want ab", got)
	}
	got := truncateMiddle("/uploads/carousel/summer-banner.webp", 20)
	if len([]rune(got)) > 20 {
		t.Fatalf("got %q (%d runes), want <=20", got, len([]rune(got)))
	}
	if got[len(got)-5:] != ".webp" {
		t.Fatalf("truncateMiddle = %q, want extension kept", got)
	}
}

func TestCellText(t *testing.T) {
	r := resource.New("a1", map[string]any{
		"title":     "Hello\n  world",
		"featured":  true,
		"isActive":  false,
		"order":     json.Number("3"),
		"createdAt": "2026-03-04T10:00:00Z",
	})
	cases := map[string]string{
		"title":    "Hello world",
		"featured": "✓",
		"isActive": "·",
		"order":    "3",
		"missing":  "",
	}
	for field, want := range cases {
		if got := cellText(r, field); got != want {
			t.Fatalf("cellText(%s) = %q, want %q", field, got, want)
		}
	}
	if got := cellText(r, "createdAt"); len(got) != len("2026-03-04") {
		t.Fatalf("cellText(createdAt) = %q, want a date", got)
	}
}

func TestStatsLine(t *testing.T) {
	raw := json.RawMessage(`{"unread": 3, "total": 10, "byDay": {"mon": 1}}`)
	if got := statsLine(raw); got != "total 10  unread 3" {
		t.Fatalf("statsLine = %q", got)
	}
	if got := statsLine(json.RawMessage(`[1,2]`)); got != "" {
		t.Fatalf("statsLine(array) = %q, want empty", got)
	}
}

func timeSeconds(sec int64) time.Duration {
	return time.Duration(sec) * time.Second
}
