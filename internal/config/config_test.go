package config

import (
	"testing"
	"time"
)

func TestParseDefaults(t *testing.T) {
	cfg, err := Parse()
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if cfg.ListenAddr != ":8000" {
		t.Fatalf("listen addr = %s", cfg.ListenAddr)
	}
	if cfg.Provider != "openai" || cfg.Model != "gpt-4o-mini" {
		t.Fatalf("provider defaults = %s/%s", cfg.Provider, cfg.Model)
	}
	if cfg.LLMTimeout != 30*time.Second {
		t.Fatalf("timeout = %s", cfg.LLMTimeout)
	}
	if cfg.HistoryCap != 50 || cfg.HistoryLimit != 10 || cfg.InsightLimit != 3 {
		t.Fatalf("history defaults = %d/%d/%d", cfg.HistoryCap, cfg.HistoryLimit, cfg.InsightLimit)
	}
	if cfg.DefaultUserID != "pablo_main" {
		t.Fatalf("default user = %s", cfg.DefaultUserID)
	}
}

func TestParseOverrides(t *testing.T) {
	t.Setenv("LLM_PROVIDER", "local")
	t.Setenv("LLM_TIMEOUT", "5s")
	t.Setenv("HISTORY_CAP", "7")

	cfg, err := Parse()
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if cfg.Provider != "local" {
		t.Fatalf("provider = %s", cfg.Provider)
	}
	if cfg.LLMTimeout != 5*time.Second {
		t.Fatalf("timeout = %s", cfg.LLMTimeout)
	}
	if cfg.HistoryCap != 7 {
		t.Fatalf("history cap = %d", cfg.HistoryCap)
	}
}

func TestLoadRequiresCredentials(t *testing.T) {
	t.Setenv("LLM_PROVIDER", "openai")
	t.Setenv("OPENAI_API_KEY", "")
	if _, err := Load(); err == nil {
		t.Fatal("openai provider without a key must fail")
	}

	t.Setenv("OPENAI_API_KEY", "sk-test")
	if _, err := Load(); err != nil {
		t.Fatalf("Load: %v", err)
	}
}

func TestLoadRejectsUnknownProvider(t *testing.T) {
	t.Setenv("LLM_PROVIDER", "oracle")
	if _, err := Load(); err == nil {
		t.Fatal("unknown provider must fail")
	}
}
