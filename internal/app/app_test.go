package app

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"go.uber.org/zap"

	"github.com/northgate/atrium/internal/config"
)

func TestDial_DerivesPushURL(t *testing.T) {
	cfg := config.Default()
	cfg.APIURL = "https://cms.example.com/api"

	clients, err := Dial(cfg, zap.NewNop())
	if err != nil {
		t.Fatalf("Dial returned error: %v", err)
	}
	if got := clients.Push.URL(); got != "wss://cms.example.com/realtime" {
		t.Fatalf("push URL = %q, want wss://cms.example.com/realtime", got)
	}
}

func TestDial_ExplicitPushURLWins(t *testing.T) {
	cfg := config.Default()
	cfg.PushURL = "ws://127.0.0.1:9000/events"

	clients, err := Dial(cfg, nil)
	if err != nil {
		t.Fatalf("Dial returned error: %v", err)
	}
	if got := clients.Push.URL(); got != cfg.PushURL {
		t.Fatalf("push URL = %q, want %q", got, cfg.PushURL)
	}
}

func TestConfigToken_ReadsFileEachCall(t *testing.T) {
	path := filepath.Join(t.TempDir(), "token")
	if err := os.WriteFile(path, []byte("first\n"), 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	tok := configToken{cfg: config.Config{TokenFile: path}}

	got, err := tok.Token(context.Background())
	if err != nil || got != "first" {
		t.Fatalf("Token = %q, %v, want first", got, err)
	}
	if err := os.WriteFile(path, []byte("second"), 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	if got, _ := tok.Token(context.Background()); got != "second" {
		t.Fatalf("Token = %q, want second", got)
	}
}
