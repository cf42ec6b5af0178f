package logging

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/northgate/atrium/internal/logtail"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want zapcore.Level
	}{
		{"", zapcore.InfoLevel},
		{"debug", zapcore.DebugLevel},
		{" WARN ", zapcore.WarnLevel},
		{"warning", zapcore.WarnLevel},
		{"error", zapcore.ErrorLevel},
	}
	for _, tt := range tests {
		got, err := ParseLevel(tt.in)
		if err != nil {
			t.Fatalf("ParseLevel(%q) returned error: %v", tt.in, err)
		}
		if got != tt.want {
			t.Fatalf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
	if _, err := ParseLevel("loud"); err == nil {
		t.Fatal("ParseLevel(loud) returned nil error")
	}
}

func TestFile_CreatesDirAndWritesJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state", "atrium", "atrium.log")
	logger, closeLog, err := File(path, "debug")
	if err != nil {
		t.Fatalf("File returned error: %v", err)
	}
	logger.Named("push").Info("connected", zap.String("url", "ws://x"))
	if err := closeLog(); err != nil {
		t.Fatalf("close returned error: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	line := strings.TrimSpace(string(data))
	if !strings.HasPrefix(line, "{") {
		t.Fatalf("log line = %q, want JSON", line)
	}
	e, ok := logtail.Parse(line)
	if !ok {
		t.Fatalf("logtail.Parse(%q) failed", line)
	}
	if e.Logger != "push" || e.Message != "connected" || e.Fields["url"] != "ws://x" {
		t.Fatalf("entry = %+v", e)
	}
}

func TestConsole_FiltersByLevel(t *testing.T) {
	var buf bytes.Buffer
	logger, err := Console(&buf, "warn")
	if err != nil {
		t.Fatalf("Console returned error: %v", err)
	}
	logger.Info("hidden")
	logger.Warn("shown")
	out := buf.String()
	if strings.Contains(out, "hidden") || !strings.Contains(out, "shown") || !strings.Contains(out, "WARN") {
		t.Fatalf("output = %q", out)
	}
}

func TestNamed_NilFallsBackToNop(t *testing.T) {
	if Named(nil, "api") == nil {
		t.Fatal("Named(nil) returned nil")
	}
}
