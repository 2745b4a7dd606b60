// Package evidence gathers corroborating or contradicting artifacts for one
// claim: encyclopedia extracts per entity and web search snippets per query.
// Every lookup tolerates misses, since a claim may legitimately reach its
// verdict with zero evidence.
package evidence

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"go.uber.org/zap"

	"github.com/okarpov/claimlens/internal/model"
	"github.com/okarpov/claimlens/internal/util"
	"github.com/okarpov/claimlens/internal/worker"
)

// KnowledgeClient looks up encyclopedia summaries by entity title. A direct
// title fetch is tried first; on a miss a search-then-fetch two-step runs.
type KnowledgeClient struct {
	baseURL    string // REST summary endpoint base
	searchURL  string // opensearch endpoint
	httpClient *http.Client
	cache      *gocache.Cache
	limiter    *worker.HostLimiter
	userAgent  string
	log        *zap.Logger
}

// NewKnowledgeClient creates a client against the configured knowledge base
func NewKnowledgeClient(cfg model.KnowledgeConfig, httpCfg model.HTTPConfig, limiter *worker.HostLimiter, log *zap.Logger) *KnowledgeClient {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = "https://en.wikipedia.org/api/rest_v1"
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 8 * time.Second
	}
	ttl := cfg.CacheTTL
	if ttl <= 0 {
		ttl = 15 * time.Minute
	}
	if log == nil {
		log = zap.NewNop()
	}

	return &KnowledgeClient{
		baseURL:   strings.TrimSuffix(baseURL, "/"),
		searchURL: deriveSearchURL(baseURL),
		httpClient: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				Proxy: util.ProxyFunc(httpCfg),
			},
		},
		cache:     gocache.New(ttl, 2*ttl),
		limiter:   limiter,
		userAgent: httpCfg.UserAgent,
		log:       log,
	}
}

// deriveSearchURL maps a REST base to its wiki's opensearch endpoint
func deriveSearchURL(baseURL string) string {
	parsed, err := url.Parse(baseURL)
	if err != nil || parsed.Host == "" {
		return "https://en.wikipedia.org/w/api.php"
	}
	return fmt.Sprintf("%s://%s/w/api.php", parsed.Scheme, parsed.Host)
}

type summaryResponse struct {
	Title       string `json:"title"`
	Extract     string `json:"extract"`
	ContentURLs struct {
		Desktop struct {
			Page string `json:"page"`
		} `json:"desktop"`
	} `json:"content_urls"`
}

// Lookup fetches the summary for one entity. A miss (404, timeout, or any
// transport failure) returns (nil, nil): the entity simply contributes no
// evidence.
func (c *KnowledgeClient) Lookup(ctx context.Context, entity string) (*model.Evidence, error) {
	entity = strings.TrimSpace(entity)
	if entity == "" {
		return nil, nil
	}

	cacheKey := strings.ToLower(entity)
	if cached, found := c.cache.Get(cacheKey); found {
		ev := cached.(model.Evidence)
		return &ev, nil
	}

	summary, err := c.fetchSummary(ctx, entity)
	if err != nil {
		c.log.Debug("knowledge lookup failed", zap.String("entity", entity), zap.Error(err))
		return nil, nil
	}

	if summary == nil {
		// Direct title miss: search for the closest page title, then fetch it
		title, searchErr := c.searchTitle(ctx, entity)
		if searchErr != nil || title == "" {
			return nil, nil
		}
		summary, err = c.fetchSummary(ctx, title)
		if err != nil || summary == nil {
			return nil, nil
		}
	}

	ev := model.Evidence{
		Source:      summary.Title,
		VerdictNote: truncateNote(summary.Extract, 600),
		URL:         summary.ContentURLs.Desktop.Page,
		Kind:        model.EvidenceKindKnowledgeBase,
		Authority:   model.TierSecondary,
	}
	c.cache.SetDefault(cacheKey, ev)
	return &ev, nil
}

// fetchSummary returns (nil, nil) on a 404 miss
func (c *KnowledgeClient) fetchSummary(ctx context.Context, title string) (*summaryResponse, error) {
	target := fmt.Sprintf("%s/page/summary/%s", c.baseURL, url.PathEscape(normalizeTitle(title)))

	if err := c.limiter.Wait(ctx, target); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode == http.StatusNotFound {
		return nil, nil
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status: %d", resp.StatusCode)
	}

	var summary summaryResponse
	if err := json.NewDecoder(resp.Body).Decode(&summary); err != nil {
		return nil, fmt.Errorf("decode summary: %w", err)
	}
	if summary.Extract == "" {
		return nil, nil
	}
	return &summary, nil
}

// searchTitle runs the two-step fallback: opensearch for the entity and
// return the best matching page title
func (c *KnowledgeClient) searchTitle(ctx context.Context, entity string) (string, error) {
	target := fmt.Sprintf("%s?action=opensearch&format=json&limit=1&search=%s", c.searchURL, url.QueryEscape(entity))

	if err := c.limiter.Wait(ctx, target); err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("unexpected status: %d", resp.StatusCode)
	}

	// Opensearch replies [query, [titles...], [descriptions...], [urls...]]
	var raw []json.RawMessage
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return "", fmt.Errorf("decode search reply: %w", err)
	}
	if len(raw) < 2 {
		return "", nil
	}

	var titles []string
	if err := json.Unmarshal(raw[1], &titles); err != nil {
		return "", fmt.Errorf("decode titles: %w", err)
	}
	if len(titles) == 0 {
		return "", nil
	}
	return titles[0], nil
}

func normalizeTitle(title string) string {
	return strings.ReplaceAll(strings.TrimSpace(title), " ", "_")
}

func truncateNote(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max]
}
