package tasks

import (
	"testing"
	"time"

	"github.com/nexus-ukg/nexus/internal/llm"
	"github.com/nexus-ukg/nexus/pkg/models"
)

func TestDedupStrings(t *testing.T) {
	got := dedupStrings([]string{"a", "b", "a", "c", "b"})
	want := []string{"a", "b", "c"}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("got[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestSuggestionKey(t *testing.T) {
	tests := []struct {
		name string
		s    llm.Suggestion
		want string
	}{
		{
			name: "new node keyed by label",
			s:    llm.Suggestion{Type: "new_node", Label: "Transformers"},
			want: "new_node|Transformers",
		},
		{
			name: "axis update keyed by sorted axes",
			s: llm.Suggestion{Type: "update_axis", Updates: map[string][]float64{
				"semantic_density": {0.6},
				"pillar_function":  {0.4},
			}},
			want: "update_axis|pillar_function,semantic_density",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := suggestionKey(tt.s); got != tt.want {
				t.Errorf("suggestionKey = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestDedupSuggestions(t *testing.T) {
	in := []llm.Suggestion{
		{Type: "new_node", Label: "Transformers", Confidence: 0.9},
		{Type: "new_node", Label: "Attention", Confidence: 0.8},
		{Type: "new_node", Label: "Transformers", Confidence: 0.5},
		{Type: "update_axis", Updates: map[string][]float64{"semantic_density": {0.6}}},
		{Type: "update_axis", Updates: map[string][]float64{"semantic_density": {0.9}}},
	}

	got := dedupSuggestions(in)
	if len(got) != 3 {
		t.Fatalf("got %d suggestions, want 3: %v", len(got), got)
	}
	// First occurrence wins.
	if got[0].Confidence != 0.9 {
		t.Errorf("kept the later duplicate: %+v", got[0])
	}
}

func TestResearchDuplicateSuggestionsDoNotCascade(t *testing.T) {
	// Four proposals, two unique: below the threshold of three.
	backend := &fakeBackend{text: `{"suggestions": [
		{"type": "new_node", "label": "Transformers", "confidence": 0.9},
		{"type": "new_node", "label": "Transformers", "confidence": 0.8},
		{"type": "new_node", "label": "Attention", "confidence": 0.8},
		{"type": "new_node", "label": "Attention", "confidence": 0.7}
	]}`}
	m := testManager(t, seededStore(), Config{Backend: backend})

	task, err := m.Schedule(models.TaskTypeResearch, "node-1", nil, 0)
	if err != nil {
		t.Fatalf("Schedule failed: %v", err)
	}
	waitAllTerminal(t, m, 2*time.Second)

	final, _ := m.Get(task.ID)
	if final.Status != models.TaskStatusCompleted {
		t.Fatalf("research status = %s (%s)", final.Status, final.Error)
	}
	suggestions, ok := final.Result["suggestions"].([]llm.Suggestion)
	if !ok || len(suggestions) != 2 {
		t.Errorf("suggestions = %v, want 2 unique entries", final.Result["suggestions"])
	}
	if _, ok := final.Result["enrichment_task_id"]; ok {
		t.Error("duplicate suggestions must not count toward the enrichment threshold")
	}
	for _, tk := range m.List("") {
		if tk.Type == models.TaskTypeEnrichment {
			t.Error("unexpected enrichment cascade")
		}
	}
}
