// Package httpclient is the single place HTTP clients are constructed.
// Components receive a ready *http.Client and never build their own, so
// proxy and user-agent policy stay in one spot.
package httpclient

import (
	"fmt"
	"net/http"
	"net/url"
	"time"
)

const defaultUserAgent = "fetchbrowser"

// Options configure the shared HTTP client.
type Options struct {
	// Timeout bounds a whole request including the body read. Zero means
	// no client-side timeout; archive streams rely on that.
	Timeout time.Duration

	// ProxyURL overrides the standard proxy environment variables when
	// non-empty.
	ProxyURL string

	// UserAgent defaults to "fetchbrowser".
	UserAgent string
}

// New builds an *http.Client from opts.
func New(opts Options) (*http.Client, error) {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	if opts.ProxyURL != "" {
		proxy, err := url.Parse(opts.ProxyURL)
		if err != nil {
			return nil, fmt.Errorf("parse proxy url: %w", err)
		}
		transport.Proxy = http.ProxyURL(proxy)
	}
	agent := opts.UserAgent
	if agent == "" {
		agent = defaultUserAgent
	}
	return &http.Client{
		Timeout:   opts.Timeout,
		Transport: &userAgentTransport{base: transport, agent: agent},
	}, nil
}

type userAgentTransport struct {
	base  http.RoundTripper
	agent string
}

func (t *userAgentTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if req.Header.Get("User-Agent") == "" {
		req = req.Clone(req.Context())
		req.Header.Set("User-Agent", t.agent)
	}
	return t.base.RoundTrip(req)
}
