package extract

import (
	"context"
	"reflect"
	"strings"
	"testing"

	"github.com/okarpov/claimlens/internal/llm"
	"github.com/okarpov/claimlens/internal/model"
)

func TestAnalyze_UsesProviderReply(t *testing.T) {
	p := &mockProvider{name: "openai", reply: `{
		"entities": ["Eiffel Tower", "Paris"],
		"intent": "factual",
		"attributes": ["location"],
		"search_query": "Eiffel Tower location Paris"
	}`}
	a := NewAnalyzer(fastExecutor(), []llm.Provider{p}, nil)

	analysis := a.Analyze(context.Background(), model.Claim{ID: "c1", Text: "The Eiffel Tower is in Paris."})

	if !reflect.DeepEqual(analysis.Entities, []string{"Eiffel Tower", "Paris"}) {
		t.Errorf("unexpected entities: %v", analysis.Entities)
	}
	if analysis.Intent != "factual" {
		t.Errorf("unexpected intent: %q", analysis.Intent)
	}
	if analysis.SearchQuery != "Eiffel Tower location Paris" {
		t.Errorf("unexpected search query: %q", analysis.SearchQuery)
	}
}

func TestAnalyze_FallsBackOnExhaustion(t *testing.T) {
	p := &mockProvider{name: "openai"} // always fails
	a := NewAnalyzer(fastExecutor(), []llm.Provider{p}, nil)

	analysis := a.Analyze(context.Background(), model.Claim{ID: "c1", Text: "The Eiffel Tower is located in Berlin."})

	if len(analysis.Entities) == 0 {
		t.Fatal("fallback analysis produced no entities")
	}
	if analysis.SearchQuery == "" {
		t.Error("fallback analysis must set a search query")
	}
}

func TestFallbackAnalysis_Entities(t *testing.T) {
	tests := []struct {
		name string
		text string
		want []string
	}{
		{
			name: "leading stop word trimmed",
			text: "The Eiffel Tower is located in Berlin.",
			want: []string{"Eiffel Tower", "Berlin"},
		},
		{
			name: "multi-word runs",
			text: "Marie Curie won the Nobel Prize in 1903.",
			want: []string{"Marie Curie", "Nobel Prize"},
		},
		{
			name: "stop-word-only run dropped",
			text: "However, the facts speak for themselves.",
			want: nil,
		},
		{
			name: "no capitalized words",
			text: "the quick brown fox jumps over the lazy dog.",
			want: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FallbackAnalysis(tt.text)
			if !reflect.DeepEqual(got.Entities, tt.want) {
				t.Errorf("FallbackAnalysis(%q).Entities = %v, want %v", tt.text, got.Entities, tt.want)
			}
		})
	}
}

func TestFallbackAnalysis_SearchQueryTruncated(t *testing.T) {
	long := strings.Repeat("word ", 60)
	got := FallbackAnalysis(long)

	if len(got.SearchQuery) > 120 {
		t.Errorf("search query length %d exceeds 120", len(got.SearchQuery))
	}
	if got.Intent != "factual" {
		t.Errorf("fallback intent: expected factual, got %q", got.Intent)
	}
}

func TestIsStopWordOnly(t *testing.T) {
	tests := []struct {
		name  string
		title string
		want  bool
	}{
		{name: "single stop word", title: "The", want: true},
		{name: "punctuated stop words", title: "In. The,", want: true},
		{name: "blank", title: "   ", want: true},
		{name: "real title", title: "Eiffel Tower", want: false},
		{name: "stop word plus entity", title: "The Eiffel Tower", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsStopWordOnly(tt.title); got != tt.want {
				t.Errorf("IsStopWordOnly(%q) = %v, want %v", tt.title, got, tt.want)
			}
		})
	}
}
