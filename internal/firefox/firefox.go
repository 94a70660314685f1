// Package firefox resolves a Firefox version against the release index on
// ftp.mozilla.org and downloads the matching build. There is no snapshot
// catalog on this side: the index page lists every released version
// directly, so resolution is a single-page variant of the same
// match-version-then-pick-artifact idea.
package firefox

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/hamflx/fetchbrowser/internal/browser"
	"github.com/hamflx/fetchbrowser/internal/cache"
	"github.com/hamflx/fetchbrowser/internal/fetcherr"
	"github.com/hamflx/fetchbrowser/internal/logging"
)

// DefaultReleasesBaseURL is the public release index.
const DefaultReleasesBaseURL = "https://ftp.mozilla.org/pub/firefox/releases/"

const releasesCacheName = "firefox-releases.json"

// installer architectures in preference order.
var installerArches = []string{"win64", "win32"}

// Options configure the release index spider.
type Options struct {
	Client *http.Client

	// StreamClient performs installer downloads; defaults to Client.
	StreamClient *http.Client

	Cache  *cache.Store
	Logger logging.Logger

	// Locale selects the installer localization, e.g. "en-US".
	Locale string

	// BaseURL defaults to DefaultReleasesBaseURL.
	BaseURL string
}

// Releases implements browser.Releases for Firefox.
type Releases struct {
	versions []string

	client       *http.Client
	streamClient *http.Client
	logger       logging.Logger
	locale       string
	baseURL      string
}

// NewReleases loads the release index, consulting the cache first. The
// index is an HTML directory listing; every anchor inside a table row whose
// text looks like a version number is one released version.
func NewReleases(ctx context.Context, opts Options) (*Releases, error) {
	logger := logging.OrNop(opts.Logger)
	baseURL := opts.BaseURL
	if baseURL == "" {
		baseURL = DefaultReleasesBaseURL
	}
	streamClient := opts.StreamClient
	if streamClient == nil {
		streamClient = opts.Client
	}

	var versions []string
	if opts.Cache == nil || !opts.Cache.Load(releasesCacheName, &versions) {
		logger.Info("fetching firefox releases from %s ...", baseURL)
		var err error
		versions, err = scrapeReleaseIndex(ctx, opts.Client, baseURL)
		if err != nil {
			return nil, err
		}
		if opts.Cache != nil {
			if err := opts.Cache.Save(releasesCacheName, versions); err != nil {
				return nil, err
			}
		}
	}

	return &Releases{
		versions:     versions,
		client:       opts.Client,
		streamClient: streamClient,
		logger:       logger,
		locale:       opts.Locale,
		baseURL:      baseURL,
	}, nil
}

func scrapeReleaseIndex(ctx context.Context, client *http.Client, baseURL string) ([]string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, baseURL, nil)
	if err != nil {
		return nil, &fetcherr.TransportError{URL: baseURL, Err: err}
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, &fetcherr.TransportError{URL: baseURL, Err: err}
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, &fetcherr.TransportError{URL: baseURL, Err: fmt.Errorf("unexpected status %s", resp.Status)}
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, &fetcherr.FormatError{Source: baseURL, Err: err}
	}

	var versions []string
	doc.Find("tr td a").Each(func(_ int, sel *goquery.Selection) {
		name := strings.TrimSuffix(strings.TrimSpace(sel.Text()), "/")
		if IsReleaseVersion(name) {
			versions = append(versions, name)
		}
	})
	return versions, nil
}

// IsReleaseVersion reports whether a directory name denotes a release:
// its first two dot-separated segments must be unsigned integers. This
// drops index entries like "latest/" or "devpreview/".
func IsReleaseVersion(name string) bool {
	parts := strings.SplitN(name, ".", 3)
	if len(parts) < 2 {
		return false
	}
	for _, part := range parts[:2] {
		if _, err := strconv.ParseUint(part, 10, 32); err != nil {
			return false
		}
	}
	return true
}

// match returns the versions the query describes, plain releases first.
// The query must be a string prefix and must not cut a number in half:
// "117" matches "117.0.1" and "117.0b3" but not "1170.0". Purely numeric
// versions sort ahead of suffixed ones (betas, release candidates), each
// class ascending.
func (r *Releases) match(query string) []string {
	var matched []string
	for _, version := range r.versions {
		if !strings.HasPrefix(version, query) {
			continue
		}
		rest := version[len(query):]
		if rest != "" && rest[0] >= '0' && rest[0] <= '9' {
			continue
		}
		matched = append(matched, version)
	}
	sort.SliceStable(matched, func(i, j int) bool {
		pi, pj := isPureNumeric(matched[i]), isPureNumeric(matched[j])
		if pi != pj {
			return pi
		}
		return matched[i] < matched[j]
	})
	return matched
}

func isPureNumeric(version string) bool {
	for _, ch := range version {
		if ch != '.' && (ch < '0' || ch > '9') {
			return false
		}
	}
	return true
}

// Resolve implements browser.Releases.
func (r *Releases) Resolve(_ context.Context, version string) (browser.Release, error) {
	matched := r.match(version)
	if len(matched) == 0 {
		return nil, &fetcherr.NotFoundError{Version: version}
	}
	r.logger.Info("resolved firefox %s to release %s", version, matched[0])
	return &Release{releases: r, version: matched[0]}, nil
}

// Release is one resolved Firefox release.
type Release struct {
	releases *Releases
	version  string
}

// Version implements browser.Release.
func (rel *Release) Version() string { return rel.version }

// fetchInstaller downloads the installer, trying win64 before win32: old
// releases were only built for 32-bit Windows.
func (r *Releases) fetchInstaller(ctx context.Context, version string) ([]byte, error) {
	var lastErr error
	for _, arch := range installerArches {
		installerURL := fmt.Sprintf("%s%s/%s/%s/%s",
			r.baseURL, version, arch, r.locale,
			url.PathEscape(fmt.Sprintf("Firefox Setup %s.exe", version)))
		r.logger.Info("downloading %s", installerURL)
		data, err := r.fetchBytes(ctx, installerURL)
		if err == nil {
			return data, nil
		}
		r.logger.Warn("download %s failed: %v", arch, err)
		lastErr = err
	}
	return nil, lastErr
}

func (r *Releases) fetchBytes(ctx context.Context, rawURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, &fetcherr.TransportError{URL: rawURL, Err: err}
	}
	resp, err := r.streamClient.Do(req)
	if err != nil {
		return nil, &fetcherr.TransportError{URL: rawURL, Err: err}
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, &fetcherr.TransportError{URL: rawURL, Err: fmt.Errorf("unexpected status %s", resp.Status)}
	}
	var buf bytes.Buffer
	if _, err := buf.ReadFrom(resp.Body); err != nil {
		return nil, &fetcherr.TransportError{URL: rawURL, Err: err}
	}
	return buf.Bytes(), nil
}
