package groq

import (
	"time"

	"github.com/jeypi-mxnslvs/lost-and-found/internal/openrouter"

	"go.uber.org/zap"
)

const (
	baseURL      = "https://api.groq.com/openai/v1"
	defaultModel = "meta-llama/llama-4-scout-17b-16e-instruct" // vision capable
)

// Config for Groq client
type Config struct {
	APIKey    string
	ModelName string
	BaseURL   string
	Timeout   time.Duration
}

// NewClient creates a Groq oracle. Groq speaks the OpenAI chat completions
// protocol, but only guarantees json_object mode, so the schema travels in
// a system message.
func NewClient(cfg Config, logger *zap.Logger) (*openrouter.Client, error) {
	if cfg.ModelName == "" {
		cfg.ModelName = defaultModel
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = baseURL
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}

	return openrouter.NewClient(openrouter.Config{
		APIKey:       cfg.APIKey,
		ModelName:    cfg.ModelName,
		BaseURL:      cfg.BaseURL,
		Timeout:      cfg.Timeout,
		ProviderName: "groq",
		Format:       openrouter.FormatJSONObject,
	}, logger)
}
