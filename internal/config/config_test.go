package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func isolate(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv(envAPIURL, "")
	t.Setenv(envToken, "")
	return home
}

func TestLoad_MissingConfigFallsBackToDefaults(t *testing.T) {
	home := isolate(t)

	cfg, err := Load(filepath.Join(home, "does-not-exist.toml"))
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.APIURL != defaultAPIURL {
		t.Fatalf("APIURL = %q, want %q", cfg.APIURL, defaultAPIURL)
	}
	if cfg.PageSize != defaultPageSize || cfg.RequestTimeout != defaultRequestTimeout || cfg.FallbackPoll != defaultFallbackPoll {
		t.Fatalf("defaults = %+v", cfg)
	}

	wantLog, err := ExpandPath(defaultLogFile)
	if err != nil {
		t.Fatalf("ExpandPath(defaultLogFile) returned error: %v", err)
	}
	if cfg.LogFile != wantLog || cfg.LogPath() != wantLog {
		t.Fatalf("LogFile = %q, want %q", cfg.LogFile, wantLog)
	}
}

func TestLoad_ParsesAndTrimsConfig(t *testing.T) {
	home := isolate(t)

	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(`
api_url = "  https://cms.example.com/api  "
push_url = "wss://cms.example.com/realtime"
token_file = "~/.atrium-token"
page_size = 25
request_timeout = "3s"
fallback_poll = "1m"
log_file = "  ~/logs/atrium.log  "
log_level = "DEBUG"
`), 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.APIURL != "https://cms.example.com/api" || cfg.PushURL != "wss://cms.example.com/realtime" {
		t.Fatalf("urls = %q, %q", cfg.APIURL, cfg.PushURL)
	}
	if cfg.PageSize != 25 || cfg.RequestTimeout != 3*time.Second || cfg.FallbackPoll != time.Minute {
		t.Fatalf("numbers = %d %v %v", cfg.PageSize, cfg.RequestTimeout, cfg.FallbackPoll)
	}
	if !strings.HasPrefix(cfg.LogFile, home) || !strings.HasPrefix(cfg.TokenFile, home) {
		t.Fatalf("LogFile = %q TokenFile = %q, want them under HOME %q", cfg.LogFile, cfg.TokenFile, home)
	}
	if cfg.LogLevel != "debug" {
		t.Fatalf("LogLevel = %q, want debug", cfg.LogLevel)
	}
}

func TestLoad_EmptyValuesUseDefaults(t *testing.T) {
	isolate(t)

	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(`
api_url = "   "
page_size = 0
request_timeout = ""
`), 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.APIURL != defaultAPIURL || cfg.PageSize != defaultPageSize || cfg.RequestTimeout != defaultRequestTimeout {
		t.Fatalf("cfg = %+v, want defaults", cfg)
	}
}

func TestLoad_EnvironmentOverrides(t *testing.T) {
	isolate(t)
	t.Setenv(envAPIURL, "http://staging:5000/api")
	t.Setenv(envToken, "from-env")

	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(`api_url = "http://prod/api"
token = "from-file"`), 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.APIURL != "http://staging:5000/api" || cfg.Token != "from-env" {
		t.Fatalf("cfg = %q %q, want env values", cfg.APIURL, cfg.Token)
	}
}

func TestLoad_InvalidTOMLFails(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(`api_url = [`), 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	_, err := Load(path)
	if err == nil {
		t.Fatalf("Load returned nil error, want parse error")
	}
	if !strings.Contains(err.Error(), "parse config") {
		t.Fatalf("Load error = %q, want it to mention parse config", err.Error())
	}
}

func TestLoad_InvalidDurationFails(t *testing.T) {
	isolate(t)
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(`fallback_poll = "soon"`), 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	if _, err := Load(path); err == nil || !strings.Contains(err.Error(), "fallback_poll") {
		t.Fatalf("Load error = %v, want fallback_poll error", err)
	}
}

func TestBearerToken_PrefersInlineThenFile(t *testing.T) {
	dir := t.TempDir()
	tokenPath := filepath.Join(dir, "token")
	if err := os.WriteFile(tokenPath, []byte("  abc123\n"), 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	got, err := Config{TokenFile: tokenPath}.BearerToken()
	if err != nil || got != "abc123" {
		t.Fatalf("BearerToken = %q, %v, want abc123", got, err)
	}
	got, _ = Config{Token: "inline", TokenFile: tokenPath}.BearerToken()
	if got != "inline" {
		t.Fatalf("BearerToken = %q, want inline", got)
	}
	if _, err := (Config{TokenFile: filepath.Join(dir, "missing")}).BearerToken(); err == nil {
		t.Fatal("BearerToken returned nil error for a missing file")
	}
}

func TestExpandPath_ExpandsTildeAndReturnsAbs(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	got, err := ExpandPath("~/a/b")
	if err != nil {
		t.Fatalf("expandPath returned error: %v", err)
	}
	want := filepath.Join(home, "a/b")
	if got != want {
		t.Fatalf("expandPath = %q, want %q", got, want)
	}
}

func TestExpandPath_EmptyErrors(t *testing.T) {
	if _, err := ExpandPath("   "); err == nil {
		t.Fatalf("expandPath returned nil error, want error")
	}
}
