package gemini

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jeypi-mxnslvs/lost-and-found/internal/llm"
	"github.com/jeypi-mxnslvs/lost-and-found/internal/prompt"

	"github.com/google/generative-ai-go/genai"
	"go.uber.org/zap"
	"google.golang.org/api/option"
)

const defaultModel = "gemini-2.5-flash"

// Client wraps the Gemini API client
type Client struct {
	client    *genai.Client
	model     *genai.GenerativeModel
	logger    *zap.Logger
	modelName string
	timeout   time.Duration
}

// Config for Gemini client
type Config struct {
	APIKey    string
	ModelName string // Default: "gemini-2.5-flash"
	// Timeout bounds a single comparison round trip, 0 means no limit
	Timeout time.Duration
}

// NewClient creates a new Gemini client. A missing API key is a
// configuration error and fails before any network activity.
func NewClient(cfg Config, logger *zap.Logger) (*Client, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, fmt.Errorf("%w: gemini API key is required", llm.ErrOracleUnavailable)
	}

	if cfg.ModelName == "" {
		cfg.ModelName = defaultModel
	}

	ctx := context.Background()
	client, err := genai.NewClient(ctx, option.WithAPIKey(cfg.APIKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}

	model := client.GenerativeModel(cfg.ModelName)
	configureModel(model)

	logger.Info("Gemini client initialized",
		zap.String("model", cfg.ModelName),
		zap.Duration("timeout", cfg.Timeout))

	return &Client{
		client:    client,
		model:     model,
		logger:    logger,
		modelName: cfg.ModelName,
		timeout:   cfg.Timeout,
	}, nil
}

// configureModel declares the JSON response contract
func configureModel(model *genai.GenerativeModel) {
	model.SetTemperature(0.2)
	model.ResponseMIMEType = "application/json"
	model.ResponseSchema = ToSchema(llm.MatchResponseSchema())
}

// Close closes the Gemini client
func (c *Client) Close() error {
	return c.client.Close()
}

// Compare sends the multi-part request and returns the model's JSON text
func (c *Client) Compare(ctx context.Context, req *prompt.Request) (string, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	parts := ToParts(req.Parts)

	resp, err := c.model.GenerateContent(ctx, parts...)
	if err != nil {
		c.logger.Error("Gemini API error",
			zap.String("found_item_id", req.FoundItemID),
			zap.Error(err))
		return "", fmt.Errorf("%w: gemini: %v", llm.ErrOracleCallFailure, err)
	}

	text, err := ResponseText(resp)
	if err != nil {
		return "", err
	}

	c.logger.Debug("Gemini comparison completed",
		zap.String("found_item_id", req.FoundItemID),
		zap.Int("candidates", len(req.CandidateIDs)),
		zap.Int("response_bytes", len(text)))

	return text, nil
}

// ToParts converts request parts into genai parts
func ToParts(in []prompt.Part) []genai.Part {
	parts := make([]genai.Part, 0, len(in))
	for _, p := range in {
		if p.IsImage() {
			parts = append(parts, genai.Blob{MIMEType: p.Image.MIMEType, Data: p.Image.Data})
			continue
		}
		parts = append(parts, genai.Text(p.Text))
	}
	return parts
}

// ResponseText concatenates the text parts of the first candidate
func ResponseText(resp *genai.GenerateContentResponse) (string, error) {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", fmt.Errorf("%w: empty response from gemini", llm.ErrOracleCallFailure)
	}

	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if text, ok := part.(genai.Text); ok {
			sb.WriteString(string(text))
		}
	}
	if sb.Len() == 0 {
		return "", fmt.Errorf("%w: gemini response has no text parts", llm.ErrOracleCallFailure)
	}
	return sb.String(), nil
}

// ToSchema translates a JSON-Schema map into the subset Gemini understands
func ToSchema(m map[string]any) *genai.Schema {
	s := &genai.Schema{}

	switch m["type"] {
	case "object":
		s.Type = genai.TypeObject
	case "array":
		s.Type = genai.TypeArray
	case "string":
		s.Type = genai.TypeString
	case "number":
		s.Type = genai.TypeNumber
	case "integer":
		s.Type = genai.TypeInteger
	case "boolean":
		s.Type = genai.TypeBoolean
	}

	if d, ok := m["description"].(string); ok {
		s.Description = d
	}
	if req, ok := m["required"].([]string); ok {
		s.Required = append([]string(nil), req...)
	}
	if items, ok := m["items"].(map[string]any); ok {
		s.Items = ToSchema(items)
	}
	if props, ok := m["properties"].(map[string]any); ok {
		s.Properties = make(map[string]*genai.Schema, len(props))
		for name, raw := range props {
			if sub, ok := raw.(map[string]any); ok {
				s.Properties[name] = ToSchema(sub)
			}
		}
	}

	return s
}

// GetModelInfo returns model information
func (c *Client) GetModelInfo() map[string]interface{} {
	return map[string]interface{}{
		"provider": "gemini",
		"model":    c.modelName,
		"timeout":  c.timeout.String(),
	}
}
