package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultConfig_RouterTunables(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Router.MaxTurns != 10 {
		t.Errorf("MaxTurns = %d, want 10", cfg.Router.MaxTurns)
	}
	if cfg.Router.TraceSize != 5 {
		t.Errorf("TraceSize = %d, want 5", cfg.Router.TraceSize)
	}
	if cfg.Router.JudgeProvider != "gemini" {
		t.Errorf("JudgeProvider = %q, want gemini", cfg.Router.JudgeProvider)
	}
}

func TestDefaultConfig_Validates(t *testing.T) {
	if err := DefaultConfig().Validate(); err != nil {
		t.Fatalf("default config should validate: %v", err)
	}
}

func TestValidate_BadBackend(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Memory.Backend = "redis"
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for unknown memory backend")
	}
}

func TestLoadConfig_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "nope.json"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Providers.Groq.APIBase != "https://api.groq.com/openai/v1" {
		t.Errorf("unexpected groq base: %q", cfg.Providers.Groq.APIBase)
	}
}

func TestLoadConfig_FileThenEnvOverride(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")
	body := `{"providers":{"gemini":{"api_key":"from-file"}},"memory":{"backend":"sqlite"}}`
	if err := os.WriteFile(path, []byte(body), 0600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	t.Setenv("INTENTROUTER_PROVIDERS_GEMINI_API_KEY", "from-env")

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Providers.Gemini.APIKey != "from-env" {
		t.Errorf("env should override file, got %q", cfg.Providers.Gemini.APIKey)
	}
	if cfg.Memory.Backend != "sqlite" {
		t.Errorf("file value lost, backend = %q", cfg.Memory.Backend)
	}
}

func TestSaveConfig_RoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "config.json")

	cfg := DefaultConfig()
	cfg.Providers.OpenAI.APIKey = "sk-test"
	if err := SaveConfig(path, cfg); err != nil {
		t.Fatalf("save: %v", err)
	}

	loaded, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if loaded.Providers.OpenAI.APIKey != "sk-test" {
		t.Errorf("round trip lost api key, got %q", loaded.Providers.OpenAI.APIKey)
	}
}
