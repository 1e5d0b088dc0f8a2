package llm

import (
	"context"
	"errors"
	"time"

	"github.com/jeypi-mxnslvs/lost-and-found/internal/prompt"
)

var (
	// ErrOracleUnavailable means no credential or configuration is present.
	// It is fatal for every query and is never retried.
	ErrOracleUnavailable = errors.New("matching oracle is not configured")
	// ErrOracleCallFailure wraps transport and remote errors from a provider
	ErrOracleCallFailure = errors.New("matching oracle call failed")
)

// ProviderType represents the type of oracle provider
type ProviderType string

const (
	ProviderGemini     ProviderType = "gemini"
	ProviderGroq       ProviderType = "groq"
	ProviderOpenRouter ProviderType = "openrouter"
)

// ProviderConfig holds configuration for a single provider instance
type ProviderConfig struct {
	Type      ProviderType  `yaml:"type"`
	APIKey    string        `yaml:"api_key"`
	ModelName string        `yaml:"model_name"`
	BaseURL   string        `yaml:"base_url"`
	Timeout   time.Duration `yaml:"timeout"`
	// Rate limiting per provider, 0 disables it
	RequestsPerMinute int `yaml:"requests_per_minute"`
}

// Oracle compares a found item against candidates and returns the raw
// structured text produced by the model.
type Oracle interface {
	Compare(ctx context.Context, req *prompt.Request) (string, error)
	Close() error
	GetModelInfo() map[string]interface{}
}
