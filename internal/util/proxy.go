package util

import (
	"net"
	"net/http"
	"net/url"
	"strings"

	"github.com/okarpov/claimlens/internal/model"
)

// ProxyFunc builds an http.Transport proxy selector from the outbound HTTP
// configuration. With no explicit proxies configured it defers to the
// standard environment variables. Hosts matching NoProxy bypass the proxy.
func ProxyFunc(cfg model.HTTPConfig) func(*http.Request) (*url.URL, error) {
	if cfg.HTTPProxy == "" && cfg.HTTPSProxy == "" {
		return http.ProxyFromEnvironment
	}

	bypass := splitNoProxy(cfg.NoProxy)

	return func(req *http.Request) (*url.URL, error) {
		if hostBypassed(req.URL.Host, bypass) {
			return nil, nil
		}
		if req.URL.Scheme == "https" && cfg.HTTPSProxy != "" {
			return url.Parse(cfg.HTTPSProxy)
		}
		if cfg.HTTPProxy != "" {
			return url.Parse(cfg.HTTPProxy)
		}
		return http.ProxyFromEnvironment(req)
	}
}

func splitNoProxy(noProxy string) []string {
	var out []string
	for _, entry := range strings.Split(noProxy, ",") {
		entry = strings.TrimSpace(entry)
		if entry != "" {
			out = append(out, strings.ToLower(entry))
		}
	}
	return out
}

// hostBypassed reports whether the host matches a NoProxy entry, either
// exactly or as a domain suffix ("internal.corp" matches "api.internal.corp").
func hostBypassed(host string, bypass []string) bool {
	if len(bypass) == 0 {
		return false
	}
	if h, _, err := net.SplitHostPort(host); err == nil {
		host = h
	}
	host = strings.ToLower(host)

	for _, entry := range bypass {
		if entry == "*" || host == entry {
			return true
		}
		if strings.HasSuffix(host, "."+strings.TrimPrefix(entry, ".")) {
			return true
		}
	}
	return false
}
