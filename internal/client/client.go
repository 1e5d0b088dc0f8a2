package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/jeypi-mxnslvs/lost-and-found/internal/models"
	"github.com/jeypi-mxnslvs/lost-and-found/internal/service"

	"go.uber.org/zap"
)

// APIError is a non-2xx response from the matching service
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("matching service returned status %d: %s", e.StatusCode, e.Message)
}

// IsNotFound reports whether err is a 404 from the service
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound
}

// MatchResponse is the body of a one-shot match
type MatchResponse struct {
	FoundItemID string               `json:"found_item_id"`
	Matches     []models.ScoredMatch `json:"matches"`
	Total       int                  `json:"total"`
}

// NotifyResponse is the body of a notify-owner acknowledgment
type NotifyResponse struct {
	Message      string              `json:"message"`
	Notification models.Notification `json:"notification"`
}

// Client represents the matching service client
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *zap.Logger
}

// NewClient creates a new matching service client
func NewClient(baseURL string, logger *zap.Logger) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 90 * time.Second, // a synchronous match waits on the oracle
		},
		logger: logger,
	}
}

// Ping checks if the matching service is available
func (c *Client) Ping(ctx context.Context) (map[string]interface{}, error) {
	var health map[string]interface{}
	if err := c.do(ctx, http.MethodGet, "/health", nil, &health); err != nil {
		return nil, err
	}
	return health, nil
}

// CreateLostItem files a lost-item report
func (c *Client) CreateLostItem(ctx context.Context, req models.CreateLostItemRequest) (*models.LostItemReport, error) {
	var item models.LostItemReport
	if err := c.do(ctx, http.MethodPost, "/api/v1/lost-items", req, &item); err != nil {
		return nil, err
	}
	return &item, nil
}

// CreateFoundItem files a found-item report
func (c *Client) CreateFoundItem(ctx context.Context, req models.CreateFoundItemRequest) (*models.FoundItemReport, error) {
	var item models.FoundItemReport
	if err := c.do(ctx, http.MethodPost, "/api/v1/found-items", req, &item); err != nil {
		return nil, err
	}
	return &item, nil
}

// ListLostItems returns every lost-item report
func (c *Client) ListLostItems(ctx context.Context) ([]models.LostItemReport, error) {
	var body struct {
		Items []models.LostItemReport `json:"items"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/v1/lost-items", nil, &body); err != nil {
		return nil, err
	}
	return body.Items, nil
}

// ListFoundItems returns every found-item report
func (c *Client) ListFoundItems(ctx context.Context) ([]models.FoundItemReport, error) {
	var body struct {
		Items []models.FoundItemReport `json:"items"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/v1/found-items", nil, &body); err != nil {
		return nil, err
	}
	return body.Items, nil
}

// Match ranks all lost items against one found item
func (c *Client) Match(ctx context.Context, foundItemID string) (*MatchResponse, error) {
	var resp MatchResponse
	if err := c.do(ctx, http.MethodPost, "/api/v1/matches/"+url.PathEscape(foundItemID), nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// CreateSession starts a matching session
func (c *Client) CreateSession(ctx context.Context) (*service.SessionState, error) {
	var state service.SessionState
	if err := c.do(ctx, http.MethodPost, "/api/v1/sessions", nil, &state); err != nil {
		return nil, err
	}
	return &state, nil
}

// GetSession returns a session snapshot
func (c *Client) GetSession(ctx context.Context, sessionID string) (*service.SessionState, error) {
	var state service.SessionState
	if err := c.do(ctx, http.MethodGet, "/api/v1/sessions/"+url.PathEscape(sessionID), nil, &state); err != nil {
		return nil, err
	}
	return &state, nil
}

// Select makes foundItemID the session's current selection
func (c *Client) Select(ctx context.Context, sessionID, foundItemID string, wait bool) (*service.SessionState, error) {
	var state service.SessionState
	req := models.SelectRequest{FoundItemID: foundItemID, Wait: wait}
	if err := c.do(ctx, http.MethodPost, "/api/v1/sessions/"+url.PathEscape(sessionID)+"/select", req, &state); err != nil {
		return nil, err
	}
	return &state, nil
}

// Dismiss hides a lost item from the session's matches
func (c *Client) Dismiss(ctx context.Context, sessionID, lostItemID string) (*service.SessionState, error) {
	var state service.SessionState
	path := "/api/v1/sessions/" + url.PathEscape(sessionID) + "/dismiss/" + url.PathEscape(lostItemID)
	if err := c.do(ctx, http.MethodPost, path, nil, &state); err != nil {
		return nil, err
	}
	return &state, nil
}

// Notify acknowledges a notify-owner action
func (c *Client) Notify(ctx context.Context, sessionID, lostItemID string) (*NotifyResponse, error) {
	var resp NotifyResponse
	path := "/api/v1/sessions/" + url.PathEscape(sessionID) + "/notify/" + url.PathEscape(lostItemID)
	if err := c.do(ctx, http.MethodPost, path, nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// ListRuns returns recent match runs, optionally for one found item
func (c *Client) ListRuns(ctx context.Context, foundItemID string, limit int) ([]models.MatchRun, error) {
	q := url.Values{}
	if foundItemID != "" {
		q.Set("found_item_id", foundItemID)
	}
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}

	path := "/api/v1/runs"
	if len(q) > 0 {
		path += "?" + q.Encode()
	}

	var body struct {
		Runs []models.MatchRun `json:"runs"`
	}
	if err := c.do(ctx, http.MethodGet, path, nil, &body); err != nil {
		return nil, err
	}
	return body.Runs, nil
}

func (c *Client) do(ctx context.Context, method, path string, in, out interface{}) error {
	var body io.Reader
	if in != nil {
		jsonData, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		body = bytes.NewBuffer(jsonData)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var errBody struct {
			Error string `json:"error"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&errBody)
		c.logger.Debug("Matching service request failed",
			zap.String("method", method),
			zap.String("path", path),
			zap.Int("status", resp.StatusCode))
		return &APIError{StatusCode: resp.StatusCode, Message: errBody.Error}
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
