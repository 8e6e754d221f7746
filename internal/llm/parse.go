package llm

import (
	"encoding/json"
	"strings"
)

// Suggestion is one graph mutation proposed by the reasoning backend.
type Suggestion struct {
	// Type is "new_node" or "update_axis".
	Type string `json:"type"`
	// Label names the proposed node (new_node only).
	Label string `json:"label,omitempty"`
	// Description explains the proposed node (new_node only).
	Description string `json:"description,omitempty"`
	// RelationType is the edge relation back to the source node (new_node only).
	RelationType string `json:"relation_type,omitempty"`
	// Confidence is how certain the backend is about the suggestion.
	Confidence float64 `json:"confidence"`
	// Updates maps axis names to replacement values (update_axis only).
	Updates map[string][]float64 `json:"updates,omitempty"`
}

// suggestionPayload is the JSON document the backend is asked to produce.
type suggestionPayload struct {
	Suggestions []Suggestion `json:"suggestions"`
}

// ParseSuggestions extracts graph mutation suggestions from backend output.
// The backend may return prose around (or instead of) JSON, so parsing is
// defensive: try the whole text, then the first {...} block, then give up
// and return the safe default of no suggestions.
func ParseSuggestions(text string) []Suggestion {
	var payload suggestionPayload
	if err := json.Unmarshal([]byte(text), &payload); err == nil {
		return payload.Suggestions
	}

	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start >= 0 && end > start {
		if err := json.Unmarshal([]byte(text[start:end+1]), &payload); err == nil {
			return payload.Suggestions
		}
	}

	return nil
}
