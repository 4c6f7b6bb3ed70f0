// Package httpclient builds the browser-like HTTP client shared by outbound fetches.
package httpclient

import (
	"net/http"
	"net/http/cookiejar"
	"sync/atomic"
	"time"

	"github.com/fluke-jesadakorn/investech-fetch-stock/internal/common"
)

// DefaultUserAgents is the rotation pool used when rotation is enabled and no
// agents are configured.
var DefaultUserAgents = []string{
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.4 Safari/605.1.15",
	"Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/123.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64; rv:125.0) Gecko/20100101 Firefox/125.0",
}

// HeaderTransport wraps an http.RoundTripper and sets session headers on
// every request that does not already carry them.
type HeaderTransport struct {
	Base           http.RoundTripper
	UserAgents     []string
	Referer        string
	AcceptLanguage string

	next uint32
}

// RoundTrip implements http.RoundTripper
func (t *HeaderTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req = req.Clone(req.Context())

	if req.Header.Get("User-Agent") == "" && len(t.UserAgents) > 0 {
		i := atomic.AddUint32(&t.next, 1) - 1
		req.Header.Set("User-Agent", t.UserAgents[int(i)%len(t.UserAgents)])
	}
	if req.Header.Get("Accept") == "" {
		req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,application/json;q=0.8,*/*;q=0.7")
	}
	if req.Header.Get("Accept-Language") == "" && t.AcceptLanguage != "" {
		req.Header.Set("Accept-Language", t.AcceptLanguage)
	}
	if req.Header.Get("Referer") == "" && t.Referer != "" {
		req.Header.Set("Referer", t.Referer)
	}

	base := t.Base
	if base == nil {
		base = http.DefaultTransport
	}
	return base.RoundTrip(req)
}

// NewClient creates an http.Client that sends the configured session headers.
// Cookies set by the exchange site are kept for the life of the client.
func NewClient(config common.HTTPConfig, timeout time.Duration) *http.Client {
	agents := []string{}
	if config.UserAgent != "" {
		agents = append(agents, config.UserAgent)
	}
	if config.UserAgentRotation {
		pool := config.UserAgents
		if len(pool) == 0 {
			pool = DefaultUserAgents
		}
		agents = append(agents, pool...)
	}

	// cookiejar.New only fails on a bad PublicSuffixList
	jar, _ := cookiejar.New(nil)

	return &http.Client{
		Jar:     jar,
		Timeout: timeout,
		Transport: &HeaderTransport{
			Base:           http.DefaultTransport,
			UserAgents:     agents,
			Referer:        config.Referer,
			AcceptLanguage: config.AcceptLanguage,
		},
	}
}
