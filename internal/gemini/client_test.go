package gemini

import (
	"testing"

	"github.com/jeypi-mxnslvs/lost-and-found/internal/imagedata"
	"github.com/jeypi-mxnslvs/lost-and-found/internal/llm"
	"github.com/jeypi-mxnslvs/lost-and-found/internal/prompt"

	"github.com/google/generative-ai-go/genai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestNewClientRequiresAPIKey(t *testing.T) {
	for _, key := range []string{"", "   "} {
		_, err := NewClient(Config{APIKey: key}, zap.NewNop())
		assert.ErrorIs(t, err, llm.ErrOracleUnavailable)
	}
}

func TestToParts(t *testing.T) {
	img := &imagedata.Image{MIMEType: "image/png", Data: []byte{1, 2, 3}}
	parts := ToParts([]prompt.Part{
		{Text: "intro"},
		{Image: img},
		{Text: prompt.CandidateImageUnavailable},
	})

	require.Len(t, parts, 3)
	assert.Equal(t, genai.Text("intro"), parts[0])
	assert.Equal(t, genai.Blob{MIMEType: "image/png", Data: []byte{1, 2, 3}}, parts[1])
	assert.Equal(t, genai.Text(prompt.CandidateImageUnavailable), parts[2])
}

func TestResponseText(t *testing.T) {
	resp := &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{
			Content: &genai.Content{Parts: []genai.Part{
				genai.Text(`{"matches":`),
				genai.Text(`[]}`),
			}},
		}},
	}
	text, err := ResponseText(resp)
	require.NoError(t, err)
	assert.Equal(t, `{"matches":[]}`, text)

	_, err = ResponseText(&genai.GenerateContentResponse{})
	assert.ErrorIs(t, err, llm.ErrOracleCallFailure)

	_, err = ResponseText(nil)
	assert.ErrorIs(t, err, llm.ErrOracleCallFailure)

	_, err = ResponseText(&genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{Content: &genai.Content{Parts: []genai.Part{genai.Blob{}}}}},
	})
	assert.ErrorIs(t, err, llm.ErrOracleCallFailure)
}

func TestToSchema(t *testing.T) {
	s := ToSchema(llm.MatchResponseSchema())

	assert.Equal(t, genai.TypeObject, s.Type)
	assert.Equal(t, []string{"matches"}, s.Required)

	matches := s.Properties["matches"]
	require.NotNil(t, matches)
	assert.Equal(t, genai.TypeArray, matches.Type)

	entry := matches.Items
	require.NotNil(t, entry)
	assert.Equal(t, genai.TypeObject, entry.Type)
	assert.ElementsMatch(t, []string{"id", "confidence", "reasoning"}, entry.Required)
	assert.Equal(t, genai.TypeString, entry.Properties["id"].Type)
	assert.Equal(t, genai.TypeNumber, entry.Properties["confidence"].Type)
	assert.Equal(t, genai.TypeString, entry.Properties["reasoning"].Type)
}

func TestConfigureModel(t *testing.T) {
	model := &genai.GenerativeModel{}
	configureModel(model)

	assert.Equal(t, "application/json", model.ResponseMIMEType)
	require.NotNil(t, model.ResponseSchema)
	require.NotNil(t, model.Temperature)
	assert.InDelta(t, 0.2, *model.Temperature, 1e-6)
}
