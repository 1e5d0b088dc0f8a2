package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/jeypi-mxnslvs/lost-and-found/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestClientSelect(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/v1/sessions/s-1/select", r.URL.Path)

		var req models.SelectRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "found-1", req.FoundItemID)
		assert.True(t, req.Wait)

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"id":"s-1","found_item_id":"found-1","loading":false,
			"matches":[{"id":"lost-1","item_name":"Backpack","confidence":92,"band":"high"}],"dismissed":[]}`))
	}))
	defer server.Close()

	c := NewClient(server.URL, zap.NewNop())
	state, err := c.Select(context.Background(), "s-1", "found-1", true)
	require.NoError(t, err)
	require.Len(t, state.Matches, 1)
	assert.Equal(t, "lost-1", state.Matches[0].ID)
	assert.Equal(t, models.BandHigh, state.Matches[0].Band)
}

func TestClientListRunsQuery(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "found-2", r.URL.Query().Get("found_item_id"))
		assert.Equal(t, "5", r.URL.Query().Get("limit"))
		w.Write([]byte(`{"runs":[{"id":"r1","found_item_id":"found-2","status":"ok"}],"total":1}`))
	}))
	defer server.Close()

	runs, err := NewClient(server.URL, zap.NewNop()).ListRuns(context.Background(), "found-2", 5)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, "ok", runs[0].Status)
}

func TestClientAPIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"error":"report not found"}`))
	}))
	defer server.Close()

	_, err := NewClient(server.URL, zap.NewNop()).Match(context.Background(), "found-404")
	require.Error(t, err)
	assert.True(t, IsNotFound(err))
	assert.Contains(t, err.Error(), "report not found")
}
