// Package config loads service configuration from an optional YAML file
// and VOXLEAD_-prefixed environment variables, env taking precedence.
package config

import (
	"fmt"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

type Config struct {
	Server ServerConfig `koanf:"server"`
	OpenAI OpenAIConfig `koanf:"openai"`
	Leads  LeadsConfig  `koanf:"leads"`
	DB     DBConfig     `koanf:"db"`
}

type ServerConfig struct {
	Port int `koanf:"port"`
	// PublicURL is the externally reachable base URL Twilio uses to open
	// the media stream websocket (https://... ; rewritten to wss://).
	PublicURL string `koanf:"public_url"`
}

type OpenAIConfig struct {
	APIKey string `koanf:"api_key"`
	Model  string `koanf:"model"`
	Voice  string `koanf:"voice"`
	// RealtimeURL overrides the Realtime endpoint, mainly for tests.
	RealtimeURL string `koanf:"realtime_url"`
}

type LeadsConfig struct {
	CSVPath string `koanf:"csv_path"`
}

type DBConfig struct {
	DSN string `koanf:"dsn"`
}

// Load reads the optional YAML file at path (skipped when empty), then
// layers environment variables on top.
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("load config file: %w", err)
		}
	}

	if err := k.Load(env.Provider("VOXLEAD_", ".", func(s string) string {
		return strings.Replace(strings.ToLower(strings.TrimPrefix(s, "VOXLEAD_")), "_", ".", 1)
	}), nil); err != nil {
		return nil, fmt.Errorf("load environment: %w", err)
	}

	// Default values
	if !k.Exists("server.port") {
		k.Set("server.port", 8080)
	}
	if !k.Exists("openai.voice") {
		k.Set("openai.voice", "alloy")
	}
	if !k.Exists("leads.csv_path") {
		k.Set("leads.csv_path", "leads.csv")
	}
	if !k.Exists("db.dsn") {
		k.Set("db.dsn", "voxlead.db")
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	return &cfg, nil
}

// Validate checks the settings the bridge cannot run without.
func (c *Config) Validate() error {
	if c.OpenAI.APIKey == "" {
		return fmt.Errorf("openai.api_key is required (VOXLEAD_OPENAI_API_KEY)")
	}
	if c.OpenAI.Model == "" {
		return fmt.Errorf("openai.model is required (VOXLEAD_OPENAI_MODEL)")
	}
	return nil
}
