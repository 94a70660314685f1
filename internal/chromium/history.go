package chromium

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/hamflx/fetchbrowser/internal/cache"
	"github.com/hamflx/fetchbrowser/internal/logging"
	"github.com/hamflx/fetchbrowser/internal/platform"
)

// DefaultHistoryBaseURL hosts the version history and per-version
// dependency endpoints.
const DefaultHistoryBaseURL = "https://omahaproxy.appspot.com"

// HistoryRecord is one released version for a platform/channel pair.
type HistoryRecord struct {
	Channel   string `json:"channel"`
	OS        string `json:"os"`
	Timestamp string `json:"timestamp"`
	Version   string `json:"version"`
}

// History holds the released versions for one platform and channel, in the
// order the endpoint returned them (most recent first).
type History struct {
	records []HistoryRecord
}

// HistoryOptions configure history loading.
type HistoryOptions struct {
	Client *http.Client
	Cache  *cache.Store
	Logger logging.Logger

	// BaseURL defaults to DefaultHistoryBaseURL.
	BaseURL string
}

// LoadHistory fetches the version history, consulting the cache first.
func LoadHistory(ctx context.Context, p platform.Platform, channel string, opts HistoryOptions) (*History, error) {
	logger := logging.OrNop(opts.Logger)
	baseURL := opts.BaseURL
	if baseURL == "" {
		baseURL = DefaultHistoryBaseURL
	}

	osArg := p.HistoryOS()
	cacheName := fmt.Sprintf("history-%s-%s.json", osArg, channel)

	var records []HistoryRecord
	if opts.Cache == nil || !opts.Cache.Load(cacheName, &records) {
		historyURL := fmt.Sprintf("%s/history.json?os=%s&channel=%s",
			baseURL, url.QueryEscape(osArg), url.QueryEscape(channel))
		logger.Info("retrieving version history ...")
		if err := getJSON(ctx, opts.Client, historyURL, &records); err != nil {
			return nil, err
		}
		if opts.Cache != nil {
			if err := opts.Cache.Save(cacheName, records); err != nil {
				return nil, err
			}
		}
	}
	return &History{records: records}, nil
}

// Filter returns the records whose version the query describes, preserving
// record order.
func (h *History) Filter(query string) []HistoryRecord {
	var matched []HistoryRecord
	for _, record := range h.records {
		if versionMatches(record.Version, query) {
			matched = append(matched, record)
		}
	}
	return matched
}

// versionMatches accepts an exact version or a query that is a whole
// dot-separated prefix of it. A bare string prefix is not enough: "11"
// must match "11.0.1" but never "110" or "115.0.0.1".
func versionMatches(version, query string) bool {
	if version == query {
		return true
	}
	return len(version) > len(query) &&
		version[len(query)] == '.' &&
		version[:len(query)] == query
}

// DepsInfo is the per-version dependency detail. The base position is the
// commit position the snapshot catalog is keyed by; it is absent for some
// versions, which makes the record unusable for resolution.
type DepsInfo struct {
	ChromiumBaseCommit   *string `json:"chromium_base_commit"`
	ChromiumBasePosition *string `json:"chromium_base_position"`
	ChromiumBranch       *string `json:"chromium_branch"`
	ChromiumCommit       string  `json:"chromium_commit"`
	ChromiumVersion      string  `json:"chromium_version"`
	SkiaCommit           string  `json:"skia_commit"`
	V8Commit             string  `json:"v8_commit"`
	V8Position           string  `json:"v8_position"`
	V8Version            string  `json:"v8_version"`
}

// DepsSource fetches dependency detail for a version.
type DepsSource interface {
	Deps(ctx context.Context, version string) (DepsInfo, error)
}

type depsClient struct {
	client  *http.Client
	baseURL string
	logger  logging.Logger
}

// NewDepsSource returns a DepsSource backed by the history endpoint.
func NewDepsSource(client *http.Client, baseURL string, logger logging.Logger) DepsSource {
	if baseURL == "" {
		baseURL = DefaultHistoryBaseURL
	}
	return &depsClient{client: client, baseURL: baseURL, logger: logging.OrNop(logger)}
}

func (d *depsClient) Deps(ctx context.Context, version string) (DepsInfo, error) {
	depsURL := fmt.Sprintf("%s/deps.json?version=%s", d.baseURL, url.QueryEscape(version))
	d.logger.Info("fetching deps %s ...", depsURL)
	var deps DepsInfo
	if err := getJSON(ctx, d.client, depsURL, &deps); err != nil {
		return DepsInfo{}, err
	}
	return deps, nil
}
