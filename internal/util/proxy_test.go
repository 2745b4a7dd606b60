package util

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/okarpov/claimlens/internal/model"
)

func TestProxyFunc_SchemeSelection(t *testing.T) {
	fn := ProxyFunc(model.HTTPConfig{
		HTTPProxy:  "http://plain-proxy:3128",
		HTTPSProxy: "http://tls-proxy:3128",
	})

	req := httptest.NewRequest(http.MethodGet, "https://en.wikipedia.org/wiki/Go", nil)
	u, err := fn(req)
	if err != nil {
		t.Fatalf("proxy selection: %v", err)
	}
	if u == nil || u.Host != "tls-proxy:3128" {
		t.Errorf("https request should use the https proxy, got %v", u)
	}

	req = httptest.NewRequest(http.MethodGet, "http://en.wikipedia.org/wiki/Go", nil)
	u, err = fn(req)
	if err != nil {
		t.Fatalf("proxy selection: %v", err)
	}
	if u == nil || u.Host != "plain-proxy:3128" {
		t.Errorf("http request should use the http proxy, got %v", u)
	}
}

func TestProxyFunc_NoProxyBypass(t *testing.T) {
	fn := ProxyFunc(model.HTTPConfig{
		HTTPProxy: "http://proxy:3128",
		NoProxy:   "internal.corp, localhost",
	})

	cases := []struct {
		name   string
		target string
		direct bool
	}{
		{name: "exact host", target: "http://localhost:8080/healthz", direct: true},
		{name: "domain suffix", target: "http://api.internal.corp/v1", direct: true},
		{name: "external host", target: "http://serper.dev/search", direct: false},
		{name: "suffix is not substring", target: "http://notinternal.corp.evil.com/", direct: false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tc.target, nil)
			u, err := fn(req)
			if err != nil {
				t.Fatalf("proxy selection: %v", err)
			}
			if tc.direct && u != nil {
				t.Errorf("expected direct connection, got proxy %v", u)
			}
			if !tc.direct && u == nil {
				t.Error("expected proxied connection, got direct")
			}
		})
	}
}
