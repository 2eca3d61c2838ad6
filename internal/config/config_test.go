package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("VOXLEAD_OPENAI_API_KEY", "sk-test")
	t.Setenv("VOXLEAD_OPENAI_MODEL", "gpt-realtime")
	t.Setenv("VOXLEAD_SERVER_PORT", "9090")
	t.Setenv("VOXLEAD_SERVER_PUBLIC_URL", "https://voice.example.com")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.OpenAI.APIKey != "sk-test" {
		t.Errorf("APIKey = %q", cfg.OpenAI.APIKey)
	}
	if cfg.OpenAI.Model != "gpt-realtime" {
		t.Errorf("Model = %q", cfg.OpenAI.Model)
	}
	if cfg.Server.Port != 9090 {
		t.Errorf("Port = %d", cfg.Server.Port)
	}
	if cfg.Server.PublicURL != "https://voice.example.com" {
		t.Errorf("PublicURL = %q", cfg.Server.PublicURL)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate: %v", err)
	}
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Port != 8080 {
		t.Errorf("default port = %d, want 8080", cfg.Server.Port)
	}
	if cfg.OpenAI.Voice != "alloy" {
		t.Errorf("default voice = %q, want alloy", cfg.OpenAI.Voice)
	}
	if cfg.Leads.CSVPath != "leads.csv" {
		t.Errorf("default csv path = %q", cfg.Leads.CSVPath)
	}
}

func TestLoadFromFileWithEnvOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	yaml := `server:
  port: 7070
openai:
  api_key: file-key
  model: file-model
`
	if err := os.WriteFile(path, []byte(yaml), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("VOXLEAD_OPENAI_API_KEY", "env-key")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Port != 7070 {
		t.Errorf("port = %d, want 7070 from file", cfg.Server.Port)
	}
	if cfg.OpenAI.APIKey != "env-key" {
		t.Errorf("APIKey = %q, want env override", cfg.OpenAI.APIKey)
	}
	if cfg.OpenAI.Model != "file-model" {
		t.Errorf("Model = %q, want file value", cfg.OpenAI.Model)
	}
}

func TestValidateMissingCredentials(t *testing.T) {
	cfg := &Config{}
	if err := cfg.Validate(); err == nil {
		t.Error("Validate passed without API key")
	}

	cfg.OpenAI.APIKey = "sk-test"
	if err := cfg.Validate(); err == nil {
		t.Error("Validate passed without model")
	}

	cfg.OpenAI.Model = "gpt-realtime"
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate: %v", err)
	}
}
