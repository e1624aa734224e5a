package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("PORT", "")
	t.Setenv("CALL_LANGUAGES", "")
	t.Setenv("TTS_VOICES", "")
	t.Setenv("TOKEN_TTL", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Server.Port != 5001 {
		t.Fatalf("port = %d, want 5001", cfg.Server.Port)
	}
	if cfg.Admission.DefaultRoom != "call-main" {
		t.Fatalf("default room = %q", cfg.Admission.DefaultRoom)
	}
	if cfg.Admission.TokenTTL != 10*time.Minute {
		t.Fatalf("token ttl = %v", cfg.Admission.TokenTTL)
	}
	if len(cfg.Call.Languages) != 2 {
		t.Fatalf("languages = %v", cfg.Call.Languages)
	}
}

func TestLoadParsesVoices(t *testing.T) {
	t.Setenv("TTS_VOICES", "ta-IN=ta-IN-Wavenet-A, hi-IN=hi-IN-Wavenet-B")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if got := cfg.Google.TTSVoices["hi-IN"]; got != "hi-IN-Wavenet-B" {
		t.Fatalf("hi-IN voice = %q", got)
	}
}

func TestLoadRejectsSingleLanguage(t *testing.T) {
	t.Setenv("CALL_LANGUAGES", "en-US")
	if _, err := Load(); err == nil {
		t.Fatal("expected error for a single call language")
	}
}

func TestLoadRejectsBadVoiceEntry(t *testing.T) {
	t.Setenv("TTS_VOICES", "nonsense")
	if _, err := Load(); err == nil {
		t.Fatal("expected error for malformed TTS_VOICES")
	}
}
