package configutil

import (
	"strings"
	"testing"
	"time"
)

type wsSettings struct {
	URL              string        `mapstructure:"url"`
	APIKey           string        `mapstructure:"api_key"`
	HandshakeTimeout time.Duration `mapstructure:"handshake_timeout"`
	Buffer           int           `mapstructure:"buffer"`
}

func TestDecodeValidatedNormalizesKeys(t *testing.T) {
	in := map[string]any{
		"URL":               "wss://voice.example/ws",
		"api-key":           "k",
		"handshake_timeout": "3s",
		"buffer":            "64",
	}
	var out wsSettings
	schema := Schema{Required: []string{"url"}, Optional: []string{"api_key", "handshake_timeout", "buffer"}}
	if err := DecodeValidated("ws", in, schema, &out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if out.URL != "wss://voice.example/ws" || out.APIKey != "k" {
		t.Fatalf("unexpected decode: %+v", out)
	}
	if out.HandshakeTimeout != 3*time.Second || out.Buffer != 64 {
		t.Fatalf("unexpected typed fields: %+v", out)
	}
}

func TestValidateSettingsReportsMissingAndUnknown(t *testing.T) {
	err := ValidateSettings(map[string]any{"url": " ", "colour": "red"}, Schema{Required: []string{"url"}})
	if err == nil {
		t.Fatalf("expected validation error")
	}
	msg := err.Error()
	if !strings.Contains(msg, "missing: url") || !strings.Contains(msg, "unknown: colour") {
		t.Fatalf("unexpected message %q", msg)
	}
}

func TestMillis(t *testing.T) {
	if Millis(0, time.Second) != time.Second {
		t.Fatalf("expected fallback")
	}
	if Millis(250, time.Second) != 250*time.Millisecond {
		t.Fatalf("expected 250ms")
	}
}

func TestDecodeSplitsCommaLists(t *testing.T) {
	var out struct {
		Routes []string `mapstructure:"routes"`
	}
	if err := DecodeSettings(map[string]any{"routes": "/,/interview"}, &out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(out.Routes) != 2 || out.Routes[1] != "/interview" {
		t.Fatalf("unexpected routes %v", out.Routes)
	}
}

func TestMask(t *testing.T) {
	if Mask("") != "" || Mask("abc") != "***" {
		t.Fatalf("short secrets must be fully hidden")
	}
	if got := Mask("sk-live-123456"); got != "****3456" {
		t.Fatalf("unexpected mask %q", got)
	}
}
