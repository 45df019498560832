package llm

import (
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"
)

func TestGeminiModelMapping(t *testing.T) {
	assert.Equal(t, "gemini-2.0-flash", resolveModel("gemini-flash", geminiModels))
	assert.Equal(t, "gemini-2.0-pro", resolveModel("gemini-pro", geminiModels))
	assert.Equal(t, "gemini-2.5-flash", resolveModel("gemini-2.5-flash", geminiModels))
}

func TestGeminiSchema(t *testing.T) {
	def := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"title": map[string]any{"type": "string", "description": "Short title"},
			"score": map[string]any{"type": "integer", "minimum": -1, "maximum": 100.0},
			"kind":  map[string]any{"type": "string", "enum": []any{"unique", "multiple"}},
			"picks": map[string]any{"type": "array", "items": map[string]any{"type": "integer"}},
		},
		"required":             []any{"title", "score", "kind", "picks"},
		"additionalProperties": false,
	}

	s := geminiSchema(def)

	assert.Equal(t, genai.TypeObject, s.Type)
	require.Len(t, s.Properties, 4)
	assert.Equal(t, genai.TypeString, s.Properties["title"].Type)
	assert.Equal(t, "Short title", s.Properties["title"].Description)
	assert.Equal(t, []string{"unique", "multiple"}, s.Properties["kind"].Enum)
	assert.Equal(t, genai.TypeArray, s.Properties["picks"].Type)
	assert.Equal(t, genai.TypeInteger, s.Properties["picks"].Items.Type)

	score := s.Properties["score"]
	require.NotNil(t, score.Minimum)
	require.NotNil(t, score.Maximum)
	assert.Equal(t, -1.0, *score.Minimum)
	assert.Equal(t, 100.0, *score.Maximum)

	assert.Equal(t, []string{"title", "score", "kind", "picks"}, s.Required)
	assert.Equal(t, s.Required, s.PropertyOrdering)
}

func TestMapGeminiError(t *testing.T) {
	var rl *ErrRateLimit
	assert.ErrorAs(t, mapGeminiError(genai.APIError{Code: http.StatusTooManyRequests}), &rl)

	var auth *ErrAuth
	assert.ErrorAs(t, mapGeminiError(genai.APIError{Code: http.StatusForbidden}), &auth)

	var unavail *ErrProviderUnavailable
	assert.ErrorAs(t, mapGeminiError(errors.New("dial tcp: refused")), &unavail)
}
