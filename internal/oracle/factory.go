package oracle

import (
	"fmt"

	"github.com/jeypi-mxnslvs/lost-and-found/internal/gemini"
	"github.com/jeypi-mxnslvs/lost-and-found/internal/groq"
	"github.com/jeypi-mxnslvs/lost-and-found/internal/llm"
	"github.com/jeypi-mxnslvs/lost-and-found/internal/openrouter"

	"go.uber.org/zap"
)

// NewProvider builds a single oracle from its configuration
func NewProvider(cfg llm.ProviderConfig, logger *zap.Logger) (llm.Oracle, error) {
	var (
		provider llm.Oracle
		err      error
	)

	switch cfg.Type {
	case llm.ProviderGemini, "":
		provider, err = gemini.NewClient(gemini.Config{
			APIKey:    cfg.APIKey,
			ModelName: cfg.ModelName,
			Timeout:   cfg.Timeout,
		}, logger)
	case llm.ProviderGroq:
		provider, err = groq.NewClient(groq.Config{
			APIKey:    cfg.APIKey,
			ModelName: cfg.ModelName,
			BaseURL:   cfg.BaseURL,
			Timeout:   cfg.Timeout,
		}, logger)
	case llm.ProviderOpenRouter:
		provider, err = openrouter.NewClient(openrouter.Config{
			APIKey:    cfg.APIKey,
			ModelName: cfg.ModelName,
			BaseURL:   cfg.BaseURL,
			Timeout:   cfg.Timeout,
		}, logger)
	default:
		return nil, fmt.Errorf("%w: unknown provider type %q", llm.ErrOracleUnavailable, cfg.Type)
	}
	if err != nil {
		return nil, err
	}

	if cfg.RequestsPerMinute > 0 {
		provider = llm.NewRateLimitedOracle(provider, cfg.RequestsPerMinute, logger)
	}

	return provider, nil
}

// New builds the oracle for a list of providers. One provider is returned
// as is; several are wrapped in a fallback chain. Providers that fail to
// initialize are skipped with a warning.
func New(providers []llm.ProviderConfig, maxFailures int, logger *zap.Logger) (llm.Oracle, error) {
	if len(providers) == 0 {
		return nil, fmt.Errorf("%w: no providers configured", llm.ErrOracleUnavailable)
	}

	built := make([]llm.Oracle, 0, len(providers))
	var lastErr error

	for i, cfg := range providers {
		provider, err := NewProvider(cfg, logger)
		if err != nil {
			logger.Warn("Failed to create provider",
				zap.String("type", string(cfg.Type)),
				zap.Int("index", i),
				zap.Error(err))
			lastErr = err
			continue
		}

		built = append(built, provider)
		logger.Info("Provider initialized",
			zap.String("type", string(cfg.Type)),
			zap.String("model", cfg.ModelName),
			zap.Int("rate_limit", cfg.RequestsPerMinute),
			zap.Int("index", i))
	}

	if len(built) == 0 {
		return nil, fmt.Errorf("no providers could be initialized: %w", lastErr)
	}
	if len(built) == 1 {
		return built[0], nil
	}

	return llm.NewMultiProviderOracle(built, maxFailures, logger)
}
