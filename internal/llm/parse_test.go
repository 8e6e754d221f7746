package llm

import "testing"

func TestParseSuggestionsWholeJSON(t *testing.T) {
	text := `{"suggestions": [
		{"type": "new_node", "label": "Transformers", "relation_type": "specializes", "confidence": 0.9},
		{"type": "update_axis", "confidence": 0.7, "updates": {"semantic_density": [0.6, 0.4]}}
	]}`

	got := ParseSuggestions(text)
	if len(got) != 2 {
		t.Fatalf("got %d suggestions, want 2", len(got))
	}
	if got[0].Type != "new_node" || got[0].Label != "Transformers" || got[0].RelationType != "specializes" {
		t.Errorf("first suggestion = %+v", got[0])
	}
	if got[1].Type != "update_axis" {
		t.Errorf("second type = %q", got[1].Type)
	}
	if vals := got[1].Updates["semantic_density"]; len(vals) != 2 || vals[0] != 0.6 {
		t.Errorf("updates = %v", got[1].Updates)
	}
}

func TestParseSuggestionsEmbeddedInProse(t *testing.T) {
	text := "Here are my proposed expansions:\n\n" +
		`{"suggestions": [{"type": "new_node", "label": "Attention", "confidence": 0.8}]}` +
		"\n\nLet me know if you want more detail."

	got := ParseSuggestions(text)
	if len(got) != 1 {
		t.Fatalf("got %d suggestions, want 1", len(got))
	}
	if got[0].Label != "Attention" || got[0].Confidence != 0.8 {
		t.Errorf("suggestion = %+v", got[0])
	}
}

func TestParseSuggestionsGarbage(t *testing.T) {
	for _, text := range []string{
		"",
		"no json here at all",
		"{broken json",
		`{"unrelated": true}`,
	} {
		if got := ParseSuggestions(text); len(got) != 0 {
			t.Errorf("ParseSuggestions(%q) = %v, want none", text, got)
		}
	}
}
