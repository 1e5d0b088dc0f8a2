package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/jeypi-mxnslvs/lost-and-found/internal/prompt"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// RateLimitedOracle wraps an oracle with a per-minute request budget
type RateLimitedOracle struct {
	oracle  Oracle
	limiter *rate.Limiter
	logger  *zap.Logger
}

// NewRateLimitedOracle wraps oracle so that at most requestsPerMinute calls
// start per minute. Callers block in Compare until a token is available.
func NewRateLimitedOracle(oracle Oracle, requestsPerMinute int, logger *zap.Logger) *RateLimitedOracle {
	if requestsPerMinute <= 0 {
		requestsPerMinute = 8 // conservative default for free tiers
	}
	every := time.Minute / time.Duration(requestsPerMinute)
	return &RateLimitedOracle{
		oracle:  oracle,
		limiter: rate.NewLimiter(rate.Every(every), requestsPerMinute),
		logger:  logger,
	}
}

func (p *RateLimitedOracle) Compare(ctx context.Context, req *prompt.Request) (string, error) {
	if err := p.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("rate limit wait cancelled: %w", err)
	}
	return p.oracle.Compare(ctx, req)
}

func (p *RateLimitedOracle) Close() error {
	return p.oracle.Close()
}

func (p *RateLimitedOracle) GetModelInfo() map[string]interface{} {
	info := p.oracle.GetModelInfo()
	info["rate_limit_per_minute"] = p.limiter.Burst()
	return info
}

// MultiProviderOracle tries providers in order and moves on to the next one
// after repeated failures. It is a caller-side fallback; individual providers
// never retry on their own.
type MultiProviderOracle struct {
	providers    []Oracle
	currentIndex int
	mu           sync.RWMutex
	logger       *zap.Logger
	failureCount map[int]int
	maxFailures  int
}

// NewMultiProviderOracle creates a fallback oracle over already built providers
func NewMultiProviderOracle(providers []Oracle, maxFailures int, logger *zap.Logger) (*MultiProviderOracle, error) {
	if len(providers) == 0 {
		return nil, fmt.Errorf("%w: at least one provider is required", ErrOracleUnavailable)
	}
	if maxFailures <= 0 {
		maxFailures = 3
	}

	return &MultiProviderOracle{
		providers:    providers,
		logger:       logger,
		failureCount: make(map[int]int),
		maxFailures:  maxFailures,
	}, nil
}

func (c *MultiProviderOracle) getCurrentProvider() (Oracle, int) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.providers[c.currentIndex], c.currentIndex
}

func (c *MultiProviderOracle) switchToNextProvider() {
	c.mu.Lock()
	defer c.mu.Unlock()

	oldIndex := c.currentIndex
	c.currentIndex = (c.currentIndex + 1) % len(c.providers)

	c.logger.Info("Switching provider",
		zap.Int("from_index", oldIndex),
		zap.Int("to_index", c.currentIndex),
		zap.Int("total_providers", len(c.providers)))
}

// recordFailure returns true when the provider should be switched out
func (c *MultiProviderOracle) recordFailure(providerIndex int) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.failureCount[providerIndex]++

	if c.failureCount[providerIndex] >= c.maxFailures {
		c.logger.Warn("Provider reached max failures",
			zap.Int("provider_index", providerIndex),
			zap.Int("failures", c.failureCount[providerIndex]))
		c.failureCount[providerIndex] = 0
		return true
	}

	return false
}

func (c *MultiProviderOracle) resetFailureCount(providerIndex int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.failureCount[providerIndex] = 0
}

// Compare asks the current provider and falls back to the next on failure.
// Context cancellation stops the walk immediately.
func (c *MultiProviderOracle) Compare(ctx context.Context, req *prompt.Request) (string, error) {
	var lastErr error

	for attempts := 0; attempts < len(c.providers); attempts++ {
		provider, providerIndex := c.getCurrentProvider()

		raw, err := provider.Compare(ctx, req)
		if err == nil {
			c.resetFailureCount(providerIndex)
			return raw, nil
		}
		lastErr = err

		if ctx.Err() != nil {
			return "", err
		}

		c.logger.Error("Provider failed",
			zap.Int("provider_index", providerIndex),
			zap.Error(err))

		shouldSwitch := c.recordFailure(providerIndex)
		if shouldSwitch || isRateLimitError(err) {
			c.switchToNextProvider()
		}
	}

	if errors.Is(lastErr, ErrOracleCallFailure) {
		return "", fmt.Errorf("all providers failed: %w", lastErr)
	}
	return "", fmt.Errorf("%w: all providers failed: %v", ErrOracleCallFailure, lastErr)
}

// isRateLimitError checks if error is a rate limit error
func isRateLimitError(err error) bool {
	if err == nil {
		return false
	}
	errStr := strings.ToLower(err.Error())
	return strings.Contains(errStr, "429") ||
		strings.Contains(errStr, "quota") ||
		strings.Contains(errStr, "rate limit")
}

// Close closes all providers
func (c *MultiProviderOracle) Close() error {
	var lastErr error
	for i, provider := range c.providers {
		if err := provider.Close(); err != nil {
			c.logger.Error("Failed to close provider",
				zap.Int("index", i),
				zap.Error(err))
			lastErr = err
		}
	}
	return lastErr
}

// GetModelInfo returns information about the current provider
func (c *MultiProviderOracle) GetModelInfo() map[string]interface{} {
	provider, index := c.getCurrentProvider()
	info := provider.GetModelInfo()

	c.mu.RLock()
	defer c.mu.RUnlock()
	info["provider_index"] = index
	info["total_providers"] = len(c.providers)
	info["failure_count"] = c.failureCount[index]
	return info
}

// GetProvidersInfo returns information about all providers
func (c *MultiProviderOracle) GetProvidersInfo() []map[string]interface{} {
	c.mu.RLock()
	defer c.mu.RUnlock()

	info := make([]map[string]interface{}, len(c.providers))
	for i, provider := range c.providers {
		providerInfo := provider.GetModelInfo()
		providerInfo["is_current"] = (i == c.currentIndex)
		providerInfo["failure_count"] = c.failureCount[i]
		info[i] = providerInfo
	}
	return info
}
