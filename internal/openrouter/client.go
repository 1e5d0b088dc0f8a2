package openrouter

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/jeypi-mxnslvs/lost-and-found/internal/llm"
	"github.com/jeypi-mxnslvs/lost-and-found/internal/prompt"

	"go.uber.org/zap"
)

const (
	defaultBaseURL = "https://openrouter.ai/api/v1"
	defaultModel   = "google/gemini-2.5-flash"
)

// ResponseFormat selects how the match schema is declared to the model
type ResponseFormat string

const (
	// FormatJSONSchema sends the schema as a structured-output constraint
	FormatJSONSchema ResponseFormat = "json_schema"
	// FormatJSONObject asks for JSON and passes the schema in a system message
	FormatJSONObject ResponseFormat = "json_object"
)

// Client talks to any OpenAI-compatible chat completions endpoint with
// vision support. OpenRouter is the default target.
type Client struct {
	apiKey       string
	baseURL      string
	modelName    string
	providerName string
	format       ResponseFormat
	httpClient   *http.Client
	logger       *zap.Logger
}

// Config holds configuration for OpenRouter client.
type Config struct {
	APIKey    string
	ModelName string // e.g., "google/gemini-2.5-flash"
	BaseURL   string
	// Timeout bounds a single comparison round trip
	Timeout time.Duration
	// ProviderName labels logs and model info, defaults to "openrouter"
	ProviderName string
	Format       ResponseFormat
}

type chatRequest struct {
	Model          string          `json:"model"`
	Messages       []chatMessage   `json:"messages"`
	Temperature    float64         `json:"temperature,omitempty"`
	ResponseFormat *responseFormat `json:"response_format,omitempty"`
}

type chatMessage struct {
	Role    string        `json:"role"`
	Content []contentPart `json:"content"`
}

type contentPart struct {
	Type     string    `json:"type"`
	Text     string    `json:"text,omitempty"`
	ImageURL *imageURL `json:"image_url,omitempty"`
}

type imageURL struct {
	URL string `json:"url"`
}

type responseFormat struct {
	Type       string      `json:"type"`
	JSONSchema *jsonSchema `json:"json_schema,omitempty"`
}

type jsonSchema struct {
	Name   string         `json:"name"`
	Strict bool           `json:"strict"`
	Schema map[string]any `json:"schema"`
}

// chatResponse represents the response structure from the API.
type chatResponse struct {
	ID      string `json:"id"`
	Choices []struct {
		Message struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
		TotalTokens      int `json:"total_tokens"`
	} `json:"usage"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
		Code    any    `json:"code"`
	} `json:"error,omitempty"`
}

// NewClient creates a new OpenRouter client.
func NewClient(cfg Config, logger *zap.Logger) (*Client, error) {
	if cfg.ProviderName == "" {
		cfg.ProviderName = "openrouter"
	}

	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, fmt.Errorf("%w: %s API key is required", llm.ErrOracleUnavailable, cfg.ProviderName)
	}

	if cfg.ModelName == "" {
		cfg.ModelName = defaultModel
	}

	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}

	if cfg.Format == "" {
		cfg.Format = FormatJSONSchema
	}

	logger.Info("Chat completions client initialized",
		zap.String("provider", cfg.ProviderName),
		zap.String("model", cfg.ModelName),
		zap.String("base_url", cfg.BaseURL),
		zap.Duration("timeout", cfg.Timeout))

	return &Client{
		apiKey:       cfg.APIKey,
		baseURL:      strings.TrimRight(cfg.BaseURL, "/"),
		modelName:    cfg.ModelName,
		providerName: cfg.ProviderName,
		format:       cfg.Format,
		httpClient:   &http.Client{Timeout: cfg.Timeout},
		logger:       logger,
	}, nil
}

// Close closes the client
func (c *Client) Close() error {
	return nil
}

// Compare sends the comparison request as a single multi-part user message
func (c *Client) Compare(ctx context.Context, req *prompt.Request) (string, error) {
	body, err := json.Marshal(c.buildRequest(req))
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		c.logger.Error("Chat completions request failed",
			zap.String("provider", c.providerName),
			zap.Error(err))
		return "", fmt.Errorf("%w: %s: %v", llm.ErrOracleCallFailure, c.providerName, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("%w: %s: read response: %v", llm.ErrOracleCallFailure, c.providerName, err)
	}

	if resp.StatusCode != http.StatusOK {
		c.logger.Error("Chat completions API error",
			zap.String("provider", c.providerName),
			zap.Int("status", resp.StatusCode),
			zap.String("body", string(respBody)))
		return "", fmt.Errorf("%w: %s returned status %d: %s", llm.ErrOracleCallFailure, c.providerName, resp.StatusCode, string(respBody))
	}

	var parsed chatResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return "", fmt.Errorf("%w: %s: decode response: %v", llm.ErrOracleCallFailure, c.providerName, err)
	}

	if parsed.Error != nil {
		return "", fmt.Errorf("%w: %s: %s", llm.ErrOracleCallFailure, c.providerName, parsed.Error.Message)
	}

	if len(parsed.Choices) == 0 {
		return "", fmt.Errorf("%w: empty response from %s", llm.ErrOracleCallFailure, c.providerName)
	}

	c.logger.Debug("Chat completions comparison completed",
		zap.String("provider", c.providerName),
		zap.String("found_item_id", req.FoundItemID),
		zap.Int("total_tokens", parsed.Usage.TotalTokens))

	return parsed.Choices[0].Message.Content, nil
}

func (c *Client) buildRequest(req *prompt.Request) chatRequest {
	content := make([]contentPart, 0, len(req.Parts))
	for _, p := range req.Parts {
		if p.IsImage() {
			content = append(content, contentPart{
				Type:     "image_url",
				ImageURL: &imageURL{URL: p.Image.DataURI()},
			})
			continue
		}
		content = append(content, contentPart{Type: "text", Text: p.Text})
	}

	out := chatRequest{
		Model:       c.modelName,
		Temperature: 0.2,
	}

	switch c.format {
	case FormatJSONObject:
		out.ResponseFormat = &responseFormat{Type: "json_object"}
		out.Messages = append(out.Messages, chatMessage{
			Role: "system",
			Content: []contentPart{{
				Type: "text",
				Text: "Return ONLY JSON that matches this JSON Schema:\n" + mustJSON(llm.MatchResponseSchema()),
			}},
		})
	default:
		out.ResponseFormat = &responseFormat{
			Type: "json_schema",
			JSONSchema: &jsonSchema{
				Name:   "lost_item_matches",
				Schema: llm.MatchResponseSchema(),
			},
		}
	}

	out.Messages = append(out.Messages, chatMessage{Role: "user", Content: content})
	return out
}

// GetModelInfo returns model information
func (c *Client) GetModelInfo() map[string]interface{} {
	return map[string]interface{}{
		"provider": c.providerName,
		"model":    c.modelName,
		"base_url": c.baseURL,
		"timeout":  c.httpClient.Timeout.String(),
	}
}

func mustJSON(v any) string {
	b, _ := json.MarshalIndent(v, "", "  ")
	return string(b)
}
