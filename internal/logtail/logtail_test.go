package logtail

import (
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
)

func writeLog(t *testing.T, n int) (string, []string) {
	t.Helper()
	var b strings.Builder
	lines := make([]string, n)
	for i := range lines {
		lines[i] = fmt.Sprintf(`{"level":"info","msg":"event %d"}`, i+1)
		b.WriteString(lines[i] + "\n")
	}
	path := filepath.Join(t.TempDir(), "atrium.log")
	if err := os.WriteFile(path, []byte(b.String()), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	return path, lines
}

func TestRead(t *testing.T) {
	path, all := writeLog(t, 25)

	tests := []struct {
		name     string
		maxLines int
		want     []string
	}{
		{name: "zero reads everything", maxLines: 0, want: all},
		{name: "negative reads everything", maxLines: -3, want: all},
		{name: "tail of three", maxLines: 3, want: all[22:]},
		{name: "tail of ten", maxLines: 10, want: all[15:]},
		{name: "exact length", maxLines: 25, want: all},
		{name: "more than the file", maxLines: 100, want: all},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Read(path, tt.maxLines)
			if err != nil {
				t.Fatalf("Read() error = %v", err)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Read() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestRead_MissingFile(t *testing.T) {
	got, err := Read(filepath.Join(t.TempDir(), "nope.log"), 10)
	if err != nil || got != nil {
		t.Fatalf("Read() = %v, %v, want nil, nil", got, err)
	}
}

func TestFormatLine(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "empty line",
			input:    "",
			expected: "",
		},
		{
			name:     "plain text passes through",
			input:    "panic: boom",
			expected: "panic: boom",
		},
		{
			name:     "broken json passes through",
			input:    `{"level":"info"`,
			expected: `{"level":"info"`,
		},
		{
			name:     "info with logger",
			input:    `{"level":"info","ts":"2026-10-08T21:01:05.000Z","logger":"push","msg":"connected"}`,
			expected: "2026-10-08T21:01:05.000Z INFO [push] connected",
		},
		{
			name:     "fields sorted by key",
			input:    `{"level":"warn","ts":"t","msg":"load failed","kind":"article","attempt":2,"caller":"x.go:1"}`,
			expected: "t WARN load failed attempt=2 kind=article",
		},
		{
			name:     "numeric timestamp",
			input:    `{"level":"debug","ts":1.5,"msg":"frame"}`,
			expected: "1.500 DEBUG frame",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FormatLine(tt.input); got != tt.expected {
				t.Errorf("FormatLine() = %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestColorizeLines_KeepsTextAndLength(t *testing.T) {
	input := []string{
		`{"level":"error","msg":"delete failed","id":"a1"}`,
		"not json",
	}
	got := ColorizeLines(input)
	if len(got) != len(input) {
		t.Fatalf("ColorizeLines() returned %d lines, want %d", len(got), len(input))
	}
	if !strings.Contains(got[0], "delete failed") || !strings.Contains(got[0], "ERROR") {
		t.Errorf("ColorizeLines()[0] = %q, want message and level", got[0])
	}
	if got[1] != "not json" {
		t.Errorf("ColorizeLines()[1] = %q, want unchanged", got[1])
	}
}
