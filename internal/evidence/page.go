package evidence

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/net/html"

	"github.com/okarpov/claimlens/internal/model"
	"github.com/okarpov/claimlens/internal/util"
	"github.com/okarpov/claimlens/internal/worker"
)

const pageMaxBytes = 1_000_000

// PageEnricher fetches the visible text of a search result page to give the
// verdict prompt a fuller extract than the search snippet alone. Fetches
// honor robots.txt; a disallowed or failed fetch contributes nothing.
type PageEnricher struct {
	httpClient *http.Client
	robots     *util.RobotsChecker
	limiter    *worker.HostLimiter
	userAgent  string
	log        *zap.Logger
}

// NewPageEnricher creates a page enricher
func NewPageEnricher(httpCfg model.HTTPConfig, limiter *worker.HostLimiter, log *zap.Logger) *PageEnricher {
	if log == nil {
		log = zap.NewNop()
	}
	return &PageEnricher{
		httpClient: &http.Client{
			Timeout: 8 * time.Second,
			Transport: &http.Transport{
				Proxy: util.ProxyFunc(httpCfg),
			},
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= 3 {
					return fmt.Errorf("stopped after 3 redirects")
				}
				return nil
			},
		},
		robots:    util.NewRobotsChecker(httpCfg.UserAgent, 5*time.Second),
		limiter:   limiter,
		userAgent: httpCfg.UserAgent,
		log:       log,
	}
}

// Enrich fetches the page behind one search hit and returns a page-extract
// evidence item, or nil when the page is disallowed, unreachable, or empty.
func (e *PageEnricher) Enrich(ctx context.Context, hit model.Evidence) *model.Evidence {
	if hit.URL == "" {
		return nil
	}

	if allowed, _, _ := e.robots.CanFetch(ctx, hit.URL); !allowed {
		e.log.Debug("page enrichment disallowed by robots.txt", zap.String("url", hit.URL))
		return nil
	}

	if err := e.limiter.Wait(ctx, hit.URL); err != nil {
		return nil
	}

	text, err := e.fetchVisibleText(ctx, hit.URL)
	if err != nil {
		e.log.Debug("page enrichment failed", zap.String("url", hit.URL), zap.Error(err))
		return nil
	}
	if text == "" {
		return nil
	}

	return &model.Evidence{
		Source:      hit.Source,
		VerdictNote: truncateNote(text, 800),
		URL:         hit.URL,
		Kind:        model.EvidenceKindPageExtract,
	}
}

func (e *PageEnricher) fetchVisibleText(ctx context.Context, rawURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", e.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml")

	resp, err := e.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetch: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("unexpected status: %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, pageMaxBytes))
	if err != nil {
		return "", fmt.Errorf("read body: %w", err)
	}

	doc, err := html.Parse(strings.NewReader(string(body)))
	if err != nil {
		return "", fmt.Errorf("parse html: %w", err)
	}

	return strings.TrimSpace(visibleText(doc)), nil
}

// visibleText extracts text nodes, skipping script/style/nav chrome
func visibleText(n *html.Node) string {
	var buf strings.Builder

	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "script", "style", "noscript", "iframe", "nav", "footer", "header":
				return
			}
		}

		if n.Type == html.TextNode {
			text := strings.TrimSpace(n.Data)
			if text != "" {
				buf.WriteString(text)
				buf.WriteString(" ")
			}
		}

		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}

	walk(n)
	return buf.String()
}
