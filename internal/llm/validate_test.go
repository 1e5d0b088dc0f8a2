package llm

import (
	"testing"

	"github.com/jeypi-mxnslvs/lost-and-found/internal/models"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func TestParseMatches(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want []models.MatchResult
	}{
		{
			name: "well formed",
			raw:  `{"matches":[{"id":"lost-1","confidence":92,"reasoning":"same patch"},{"id":"lost-2","confidence":40,"reasoning":"different colour"}]}`,
			want: []models.MatchResult{
				{ID: "lost-1", Confidence: 92, Reasoning: "same patch"},
				{ID: "lost-2", Confidence: 40, Reasoning: "different colour"},
			},
		},
		{
			name: "markdown fenced",
			raw:  "```json\n{\"matches\":[{\"id\":\"lost-1\",\"confidence\":70.5,\"reasoning\":\"r\"}]}\n```",
			want: []models.MatchResult{{ID: "lost-1", Confidence: 70.5, Reasoning: "r"}},
		},
		{
			name: "preserves oracle order",
			raw:  `{"matches":[{"id":"b","confidence":10,"reasoning":""},{"id":"a","confidence":90,"reasoning":""}]}`,
			want: []models.MatchResult{{ID: "b", Confidence: 10}, {ID: "a", Confidence: 90}},
		},
		{
			name: "numeric string confidence is coerced",
			raw:  `{"matches":[{"id":"lost-1","confidence":"85%","reasoning":"r"}]}`,
			want: []models.MatchResult{{ID: "lost-1", Confidence: 85, Reasoning: "r"}},
		},
		{
			name: "confidence clamped to range",
			raw:  `{"matches":[{"id":"x","confidence":140,"reasoning":"r"},{"id":"y","confidence":-3,"reasoning":"r"}]}`,
			want: []models.MatchResult{{ID: "x", Confidence: 100, Reasoning: "r"}, {ID: "y", Confidence: 0, Reasoning: "r"}},
		},
		{
			name: "drops entries with missing or bad fields",
			raw: `{"matches":[
				{"confidence":50,"reasoning":"no id"},
				{"id":"","confidence":50,"reasoning":"empty id"},
				{"id":"lost-3","reasoning":"no confidence"},
				{"id":"lost-4","confidence":"high","reasoning":"word"},
				{"id":"lost-5","confidence":50},
				{"id":7,"confidence":50,"reasoning":"numeric id"},
				"not an object",
				{"id":"lost-6","confidence":55,"reasoning":"ok"}
			]}`,
			want: []models.MatchResult{{ID: "lost-6", Confidence: 55, Reasoning: "ok"}},
		},
		{name: "empty string", raw: "", want: []models.MatchResult{}},
		{name: "not json", raw: "I could not find any matches.", want: []models.MatchResult{}},
		{name: "truncated json", raw: `{"matches":[{"id":"lost-1"`, want: []models.MatchResult{}},
		{name: "no matches key", raw: `{"results":[]}`, want: []models.MatchResult{}},
		{name: "matches not array", raw: `{"matches":"none"}`, want: []models.MatchResult{}},
		{name: "bare array", raw: `[{"id":"lost-1","confidence":1,"reasoning":"r"}]`, want: []models.MatchResult{}},
		{name: "null", raw: `null`, want: []models.MatchResult{}},
		{name: "empty matches", raw: `{"matches":[]}`, want: []models.MatchResult{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got []models.MatchResult
			assert.NotPanics(t, func() {
				got = ParseMatches(tt.raw, zap.NewNop())
			})
			assert.NotNil(t, got)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseMatchesNilLogger(t *testing.T) {
	assert.Empty(t, ParseMatches("garbage", nil))
}

func TestStripCodeFence(t *testing.T) {
	assert.Equal(t, `{"a":1}`, StripCodeFence("```json\n{\"a\":1}\n```"))
	assert.Equal(t, `{"a":1}`, StripCodeFence("```\n{\"a\":1}```"))
	assert.Equal(t, `{"a":1}`, StripCodeFence(`  {"a":1}  `))
}
