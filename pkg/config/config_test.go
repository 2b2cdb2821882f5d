package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig(writeConfig(t, "environment: test\n"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Channel.Provider != ChannelMock || cfg.Store.Provider != StoreMemory {
		t.Fatalf("unexpected provider defaults: %+v", cfg)
	}
	if cfg.Session.RetryDelay() != time.Second {
		t.Fatalf("expected 1s retry delay, got %v", cfg.Session.RetryDelay())
	}
	if cfg.Session.HomeRoute != "/" || cfg.Session.TelemetryStopTimeoutMS != 5000 {
		t.Fatalf("unexpected session defaults: %+v", cfg.Session)
	}
	if !cfg.Privacy.RedactPII {
		t.Fatalf("expected redaction on by default")
	}
	if cfg.DrainTimeout() != 10*time.Second {
		t.Fatalf("unexpected drain timeout %v", cfg.DrainTimeout())
	}
}

func TestLoadConfigExpandsEnv(t *testing.T) {
	t.Setenv("INTERVUE_TOKEN", "secret-token")
	t.Setenv("INTERVUE_WORKFLOW", "wf-42")
	path := writeConfig(t, `
channel:
  provider: ws
  settings:
    url: wss://voice.example/ws
    token: ${INTERVUE_TOKEN}
    handshake_timeout: 3s
session:
  workflow_id: ${INTERVUE_WORKFLOW}
  retry_delay_ms: 0
`)
	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Session.WorkflowID != "wf-42" {
		t.Fatalf("expected expanded workflow id, got %q", cfg.Session.WorkflowID)
	}
	ws, err := cfg.WSChannel()
	if err != nil {
		t.Fatalf("ws settings: %v", err)
	}
	if ws.Token != "secret-token" || ws.HandshakeTimeout != 3*time.Second {
		t.Fatalf("unexpected ws settings: %+v", ws)
	}
	if cfg.Session.RetryDelay() >= 0 {
		t.Fatalf("zero retry delay should disable the wait")
	}
}

func TestLoadConfigRejectsBadProviders(t *testing.T) {
	cases := map[string]string{
		"unknown channel":   "channel:\n  provider: carrier-pigeon\n",
		"ws without url":    "channel:\n  provider: ws\n  settings:\n    token: x\n",
		"gemini no key":     "generation:\n  provider: gemini\n  settings:\n    model: m\n",
		"postgres no dsn":   "store:\n  provider: postgres\n",
		"unknown store":     "store:\n  provider: firestore\n",
		"telemetry no url":  "telemetry:\n  enabled: true\n  url: \"\"\n",
		"negative timeouts": "session:\n  telemetry_stop_timeout_ms: -1\n",
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			if _, err := LoadConfig(writeConfig(t, body)); err == nil {
				t.Fatalf("expected validation error")
			}
		})
	}
}

func TestProviderSettingsDecode(t *testing.T) {
	cfg := Default()
	cfg.Generation = ProviderConfig{Provider: GenerationGemini, Settings: map[string]any{
		"api_key":           "k",
		"max-output-tokens": "2048",
		"request_timeout":   "20s",
	}}
	cfg.Store = ProviderConfig{Provider: StorePostgres, Settings: map[string]any{"dsn": "postgres://x"}}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("validate: %v", err)
	}
	g, _ := cfg.Gemini()
	if g.APIKey != "k" || g.MaxOutputTokens != 2048 || g.RequestTimeout != 20*time.Second {
		t.Fatalf("unexpected gemini settings: %+v", g)
	}
	pg, _ := cfg.Postgres()
	if pg.DSN != "postgres://x" || !pg.Migrate {
		t.Fatalf("unexpected postgres settings: %+v", pg)
	}
}

func TestUnknownSettingReported(t *testing.T) {
	cfg := Default()
	cfg.Channel = ProviderConfig{Provider: ChannelWS, Settings: map[string]any{"url": "ws://x", "colour": "red"}}
	err := cfg.Validate()
	if err == nil || !strings.Contains(err.Error(), "unknown: colour") {
		t.Fatalf("expected unknown key error, got %v", err)
	}
}

func TestLoadConfigMissingFile(t *testing.T) {
	if _, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatalf("expected read error")
	}
}
