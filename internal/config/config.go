package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/jeypi-mxnslvs/lost-and-found/internal/llm"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds application configuration
type Config struct {
	Server struct {
		Port string `yaml:"port"`
	} `yaml:"server"`

	Log struct {
		Level  string `yaml:"level"`  // debug, info, warn, error
		Format string `yaml:"format"` // "console" or "json"
	} `yaml:"log"`

	// Multiple providers configuration, tried in order
	Providers []llm.ProviderConfig `yaml:"providers"`

	// Legacy single provider config (fallback)
	Gemini struct {
		APIKey    string `yaml:"api_key"`
		ModelName string `yaml:"model_name"`
	} `yaml:"gemini"`

	Oracle struct {
		Timeout time.Duration `yaml:"timeout"`
	} `yaml:"oracle"`

	Images struct {
		FetchTimeout time.Duration `yaml:"fetch_timeout"`
		MaxBytes     int64         `yaml:"max_bytes"`
		Concurrency  int           `yaml:"concurrency"`
	} `yaml:"images"`

	Matching struct {
		MaxCandidates int           `yaml:"max_candidates"`
		SessionTTL    time.Duration `yaml:"session_ttl"`
	} `yaml:"matching"`

	Catalog struct {
		SeedDemoData bool `yaml:"seed_demo_data"`
	} `yaml:"catalog"`

	Database struct {
		Path string `yaml:"path"` // SQLite path for the match audit log
	} `yaml:"database"`

	MaxFailuresBeforeSwitch int `yaml:"max_failures_before_switch"`
}

// LoadConfig loads configuration from a YAML file. A missing file is not an
// error; defaults and environment overrides still apply.
func LoadConfig(configPath string) (*Config, error) {
	// .env is optional
	_ = godotenv.Load()

	config := &Config{}

	file, err := os.Open(configPath)
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return nil, fmt.Errorf("failed to open config file: %w", err)
	default:
		defer file.Close()

		decoder := yaml.NewDecoder(file)
		if err := decoder.Decode(config); err != nil {
			return nil, fmt.Errorf("failed to decode config file: %w", err)
		}
	}

	config.applyEnv()
	config.applyDefaults()

	return config, nil
}

func (c *Config) applyEnv() {
	// Expand environment variables in provider API keys
	for i := range c.Providers {
		c.Providers[i].APIKey = os.ExpandEnv(c.Providers[i].APIKey)
	}
	c.Gemini.APIKey = os.ExpandEnv(c.Gemini.APIKey)

	if key := os.Getenv("GEMINI_API_KEY"); key != "" && c.Gemini.APIKey == "" {
		c.Gemini.APIKey = key
	}
	if port := os.Getenv("MATCH_SERVICE_PORT"); port != "" {
		c.Server.Port = port
	}
}

func (c *Config) applyDefaults() {
	if c.Server.Port == "" {
		c.Server.Port = "8002"
	}

	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "console"
	}

	if c.Gemini.ModelName == "" {
		c.Gemini.ModelName = "gemini-2.5-flash"
	}

	if c.Oracle.Timeout == 0 {
		c.Oracle.Timeout = 60 * time.Second
	}
	for i := range c.Providers {
		if c.Providers[i].Timeout == 0 {
			c.Providers[i].Timeout = c.Oracle.Timeout
		}
	}

	if c.Images.FetchTimeout == 0 {
		c.Images.FetchTimeout = 15 * time.Second
	}
	if c.Images.MaxBytes == 0 {
		c.Images.MaxBytes = 10 << 20
	}
	if c.Images.Concurrency == 0 {
		c.Images.Concurrency = 4
	}

	if c.Matching.MaxCandidates == 0 {
		c.Matching.MaxCandidates = 20
	}
	if c.Matching.SessionTTL == 0 {
		c.Matching.SessionTTL = 30 * time.Minute
	}

	if c.Database.Path == "" {
		c.Database.Path = "./data/matches.db"
	}

	if c.MaxFailuresBeforeSwitch == 0 {
		c.MaxFailuresBeforeSwitch = 3
	}
}

// OracleProviders returns the provider list to build the oracle from. When
// no providers are listed the legacy gemini block is used. Placeholder keys
// are treated as missing.
func (c *Config) OracleProviders() []llm.ProviderConfig {
	var out []llm.ProviderConfig
	for _, p := range c.Providers {
		if isPlaceholderKey(p.APIKey) {
			continue
		}
		out = append(out, p)
	}
	if len(out) > 0 || len(c.Providers) > 0 {
		return out
	}

	if isPlaceholderKey(c.Gemini.APIKey) {
		return nil
	}
	return []llm.ProviderConfig{{
		Type:      llm.ProviderGemini,
		APIKey:    c.Gemini.APIKey,
		ModelName: c.Gemini.ModelName,
		Timeout:   c.Oracle.Timeout,
	}}
}

func isPlaceholderKey(key string) bool {
	return key == "" || key == "YOUR_API_KEY_HERE"
}
