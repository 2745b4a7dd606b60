package evidence

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/okarpov/claimlens/internal/model"
	"github.com/okarpov/claimlens/internal/util"
	"github.com/okarpov/claimlens/internal/worker"
)

// SearchClient queries a web search provider for snippets bearing on a
// claim. An unconfigured client (no API key) or a failed call yields an
// empty result set, never an error surfaced to the pipeline.
type SearchClient struct {
	apiKey     string
	endpoint   string
	maxResults int
	httpClient *http.Client
	limiter    *worker.HostLimiter
	log        *zap.Logger
}

// NewSearchClient creates a search client. With an empty API key the client
// is disabled and every search returns no results.
func NewSearchClient(cfg model.SearchConfig, httpCfg model.HTTPConfig, limiter *worker.HostLimiter, log *zap.Logger) *SearchClient {
	endpoint := cfg.Endpoint
	if endpoint == "" {
		endpoint = "https://google.serper.dev/search"
	}
	maxResults := cfg.MaxResults
	if maxResults <= 0 {
		maxResults = 5
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 8 * time.Second
	}
	if log == nil {
		log = zap.NewNop()
	}

	return &SearchClient{
		apiKey:     cfg.APIKey,
		endpoint:   endpoint,
		maxResults: maxResults,
		httpClient: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				Proxy: util.ProxyFunc(httpCfg),
			},
		},
		limiter: limiter,
		log:     log,
	}
}

// Enabled reports whether a search provider is configured
func (c *SearchClient) Enabled() bool {
	return c.apiKey != ""
}

type searchResponse struct {
	Organic []struct {
		Title   string `json:"title"`
		Snippet string `json:"snippet"`
		Link    string `json:"link"`
	} `json:"organic"`
}

// Search runs the query and returns up to maxResults snippets. Failures are
// logged and yield an empty set.
func (c *SearchClient) Search(ctx context.Context, query string) []model.Evidence {
	if !c.Enabled() || query == "" {
		return nil
	}

	results, err := c.search(ctx, query)
	if err != nil {
		c.log.Debug("web search failed", zap.String("query", query), zap.Error(err))
		return nil
	}
	return results
}

func (c *SearchClient) search(ctx context.Context, query string) ([]model.Evidence, error) {
	if err := c.limiter.Wait(ctx, c.endpoint); err != nil {
		return nil, err
	}

	body, err := json.Marshal(map[string]interface{}{
		"q":   query,
		"num": c.maxResults,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal query: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-API-KEY", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("execute request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status: %d", resp.StatusCode)
	}

	var parsed searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	var out []model.Evidence
	for i, hit := range parsed.Organic {
		if i >= c.maxResults {
			break
		}
		if hit.Title == "" && hit.Snippet == "" {
			continue
		}
		out = append(out, model.Evidence{
			Source:      hit.Title,
			VerdictNote: truncateNote(hit.Snippet, 400),
			URL:         hit.Link,
			Kind:        model.EvidenceKindWebSearch,
		})
	}
	return out, nil
}
