package validate

import (
	"testing"

	"github.com/okarpov/claimlens/internal/model"
)

func TestClassifyAuthority(t *testing.T) {
	tests := []struct {
		url  string
		want model.AuthorityTier
	}{
		{"https://www.census.gov/data", model.TierPrimary},
		{"https://cs.stanford.edu/research", model.TierPrimary},
		{"https://www.who.int/news", model.TierPrimary},
		{"https://en.wikipedia.org/wiki/Eiffel_Tower", model.TierSecondary},
		{"https://www.reuters.com/article", model.TierSecondary},
		{"https://www.nature.com/articles/x", model.TierSecondary},
		{"https://randomblog.example.com/post", model.TierTertiary},
		{"not a url", model.TierUnknown},
		{"", model.TierUnknown},
	}

	for _, tt := range tests {
		if got := ClassifyAuthority(tt.url, model.TierUnknown); got != tt.want {
			t.Errorf("ClassifyAuthority(%q) = %s, want %s", tt.url, got, tt.want)
		}
	}
}

func TestClassifyAuthority_KeepsExistingTier(t *testing.T) {
	got := ClassifyAuthority("https://randomblog.example.com", model.TierSecondary)
	if got != model.TierSecondary {
		t.Errorf("pre-assigned tier must be kept, got %s", got)
	}
}
