package validate

import (
	"net/url"
	"strings"

	"github.com/okarpov/claimlens/internal/model"
)

// Host suffixes classified as primary or secondary sources. Everything else
// defaults to tertiary.
var primarySuffixes = []string{
	".gov", ".edu", ".mil", ".int",
	"europa.eu", "un.org", "who.int",
}

var secondarySuffixes = []string{
	"wikipedia.org", "britannica.com",
	"reuters.com", "apnews.com", "bbc.com", "bbc.co.uk",
	"nytimes.com", "theguardian.com", "nature.com", "science.org",
}

// ClassifyAuthority tiers an evidence URL by its host. A pre-assigned tier
// (e.g. knowledge-base evidence) is kept.
func ClassifyAuthority(rawURL string, existing model.AuthorityTier) model.AuthorityTier {
	if existing != model.TierUnknown {
		return existing
	}

	parsed, err := url.Parse(rawURL)
	if err != nil || parsed.Host == "" {
		return model.TierUnknown
	}
	host := strings.ToLower(parsed.Host)

	for _, suffix := range primarySuffixes {
		if strings.HasSuffix(host, suffix) {
			return model.TierPrimary
		}
	}
	for _, suffix := range secondarySuffixes {
		if strings.HasSuffix(host, suffix) {
			return model.TierSecondary
		}
	}
	return model.TierTertiary
}
