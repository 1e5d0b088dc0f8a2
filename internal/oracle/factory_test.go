package oracle

import (
	"testing"

	"github.com/jeypi-mxnslvs/lost-and-found/internal/llm"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestNewWithoutCredentials(t *testing.T) {
	_, err := New([]llm.ProviderConfig{{Type: llm.ProviderGemini}}, 3, zap.NewNop())
	assert.ErrorIs(t, err, llm.ErrOracleUnavailable)

	_, err = New(nil, 3, zap.NewNop())
	assert.ErrorIs(t, err, llm.ErrOracleUnavailable)
}

func TestNewUnknownType(t *testing.T) {
	_, err := NewProvider(llm.ProviderConfig{Type: "carrier-pigeon", APIKey: "k"}, zap.NewNop())
	assert.ErrorIs(t, err, llm.ErrOracleUnavailable)
}

func TestNewSingleProvider(t *testing.T) {
	o, err := New([]llm.ProviderConfig{{Type: llm.ProviderOpenRouter, APIKey: "k"}}, 3, zap.NewNop())
	require.NoError(t, err)
	assert.Equal(t, "openrouter", o.GetModelInfo()["provider"])
}

func TestNewFallbackChainSkipsBrokenProviders(t *testing.T) {
	o, err := New([]llm.ProviderConfig{
		{Type: llm.ProviderGroq},
		{Type: llm.ProviderOpenRouter, APIKey: "k", RequestsPerMinute: 10},
		{Type: llm.ProviderGroq, APIKey: "k"},
	}, 3, zap.NewNop())
	require.NoError(t, err)

	multi, ok := o.(*llm.MultiProviderOracle)
	require.True(t, ok)
	info := multi.GetProvidersInfo()
	require.Len(t, info, 2)
	assert.Equal(t, "openrouter", info[0]["provider"])
	assert.Equal(t, 10, info[0]["rate_limit_per_minute"])
	assert.Equal(t, "groq", info[1]["provider"])
}
