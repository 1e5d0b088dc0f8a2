package llm

// MatchEntrySchema is the JSON Schema for a single entry in "matches".
func MatchEntrySchema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"id": map[string]any{
				"type":        "string",
				"minLength":   1,
				"description": "The ID of the lost item.",
			},
			"confidence": map[string]any{
				"type":        "number",
				"description": "A confidence score between 0 and 100 indicating the likelihood of a match.",
			},
			"reasoning": map[string]any{
				"type":        "string",
				"description": "A brief explanation of why this item is considered a match, comparing visual features and description.",
			},
		},
		"required": []string{"id", "confidence", "reasoning"},
	}
}

// MatchResponseSchema is the response shape declared to every oracle.
// Providers treat it as a hint; ParseMatches enforces it locally.
func MatchResponseSchema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"matches": map[string]any{
				"type":        "array",
				"description": "List of potential matches with confidence scores and reasoning.",
				"items":       MatchEntrySchema(),
			},
		},
		"required": []string{"matches"},
	}
}
