// Package validate probes evidence URLs for accessibility. The getEvidence
// operation attaches these citation checks so a caller can see whether the
// sources behind a verdict are still reachable.
package validate

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/okarpov/claimlens/internal/model"
	"github.com/okarpov/claimlens/internal/util"
)

// CitationChecker validates evidence URLs concurrently
type CitationChecker struct {
	httpClient *http.Client
	maxWorkers int
	userAgent  string
}

// NewCitationChecker creates a checker with a bounded worker count
func NewCitationChecker(timeout time.Duration, maxWorkers int, httpCfg model.HTTPConfig) *CitationChecker {
	if maxWorkers <= 0 {
		maxWorkers = 10
	}
	if timeout <= 0 {
		timeout = 8 * time.Second
	}

	return &CitationChecker{
		httpClient: &http.Client{
			Timeout: timeout,
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
		maxWorkers: maxWorkers,
		userAgent:  httpCfg.UserAgent,
	}
}

// Check probes every evidence URL concurrently. Results keep the input
// order; evidence without a URL yields an inaccessible entry with no error.
func (c *CitationChecker) Check(ctx context.Context, evidence []model.Evidence) []model.CitationCheck {
	results := make([]model.CitationCheck, len(evidence))
	if len(evidence) == 0 {
		return results
	}

	var wg sync.WaitGroup
	semaphore := make(chan struct{}, c.maxWorkers)

	for i, ev := range evidence {
		if ev.URL == "" {
			results[i] = model.CitationCheck{Authority: ev.Authority}
			continue
		}

		wg.Add(1)
		go func(idx int, e model.Evidence) {
			defer wg.Done()

			select {
			case <-ctx.Done():
				results[idx] = model.CitationCheck{URL: e.URL, Error: "context cancelled"}
				return
			case semaphore <- struct{}{}:
			}
			defer func() { <-semaphore }()

			results[idx] = c.checkOne(ctx, e)
		}(i, ev)
	}

	wg.Wait()
	return results
}

func (c *CitationChecker) checkOne(ctx context.Context, ev model.Evidence) model.CitationCheck {
	check := model.CitationCheck{
		URL:       ev.URL,
		Authority: ClassifyAuthority(ev.URL, ev.Authority),
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodHead, ev.URL, nil)
	if err != nil {
		check.Error = err.Error()
		return check
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		check.Error = err.Error()
		return check
	}
	defer func() { _ = resp.Body.Close() }()

	check.StatusCode = resp.StatusCode
	check.IsAccessible = resp.StatusCode >= 200 && resp.StatusCode < 400
	return check
}
