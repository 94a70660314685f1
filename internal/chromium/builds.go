package chromium

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"

	"github.com/hamflx/fetchbrowser/internal/cache"
	"github.com/hamflx/fetchbrowser/internal/logging"
	"github.com/hamflx/fetchbrowser/internal/platform"
)

// DefaultListingBaseURL is the object listing endpoint of the snapshot
// bucket.
const DefaultListingBaseURL = "https://www.googleapis.com/storage/v1/b/chromium-browser-snapshots/o"

const listingFields = "items(kind,mediaLink,metadata,name,size,updated),kind,prefixes,nextPageToken"

// DefaultRevisionTolerance bounds how far past a commit position the
// nearest snapshot may be. Snapshots are not built for every revision, but
// past this window a "nearest" build no longer plausibly corresponds to the
// requested version.
const DefaultRevisionTolerance = 120

// BuildEntry is one downloadable snapshot folder.
type BuildEntry struct {
	// Prefix is the full storage prefix, "<platformTag>/<revision>/".
	Prefix string
	// Revision is the snapshot's commit position.
	Revision uint64
}

// Catalog is the set of snapshot builds known for one platform, sorted
// ascending by revision. It is immutable after construction.
type Catalog struct {
	entries   []BuildEntry
	tolerance uint64
}

// CatalogOptions configure catalog loading.
type CatalogOptions struct {
	Client *http.Client
	Cache  *cache.Store
	Logger logging.Logger

	// BaseURL defaults to DefaultListingBaseURL. Tests point it at a fake.
	BaseURL string

	// Tolerance defaults to DefaultRevisionTolerance when zero.
	Tolerance int
}

// LoadCatalog enumerates every snapshot prefix for the platform, consulting
// the cache store first. The listing is walked page by page and flattened
// only once enumeration completes, so a caller never observes a partial
// catalog.
func LoadCatalog(ctx context.Context, p platform.Platform, opts CatalogOptions) (*Catalog, error) {
	logger := logging.OrNop(opts.Logger)
	baseURL := opts.BaseURL
	if baseURL == "" {
		baseURL = DefaultListingBaseURL
	}
	tolerance := opts.Tolerance
	if tolerance <= 0 {
		tolerance = DefaultRevisionTolerance
	}

	tag := p.StoragePrefix()
	cacheName := fmt.Sprintf("builds-%s.json", tag)

	var prefixes []string
	if opts.Cache == nil || !opts.Cache.Load(cacheName, &prefixes) {
		logger.Info("retrieving build listing for %s ...", tag)
		pages := &listingPages{
			ctx:     ctx,
			client:  opts.Client,
			baseURL: baseURL,
			prefix:  tag + "/",
			logger:  logger,
		}
		var collected [][]string
		for pages.More() {
			page, err := pages.Fetch()
			if err != nil {
				return nil, err
			}
			collected = append(collected, page)
		}
		for _, page := range collected {
			prefixes = append(prefixes, page...)
		}
		if opts.Cache != nil {
			if err := opts.Cache.Save(cacheName, prefixes); err != nil {
				return nil, err
			}
		}
	}

	seen := make(map[string]struct{}, len(prefixes))
	entries := make([]BuildEntry, 0, len(prefixes))
	for _, raw := range prefixes {
		if _, dup := seen[raw]; dup {
			continue
		}
		seen[raw] = struct{}{}
		if entry, ok := parseBuildPrefix(raw, tag); ok {
			entries = append(entries, entry)
		}
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Revision < entries[j].Revision })
	logger.Debug("catalog for %s: %d builds", tag, len(entries))

	return &Catalog{entries: entries, tolerance: uint64(tolerance)}, nil
}

// parseBuildPrefix accepts only "<tag>/<digits>/"; every other listing
// entry is discarded.
func parseBuildPrefix(raw, tag string) (BuildEntry, bool) {
	parts := strings.Split(raw, "/")
	if len(parts) != 3 || parts[0] != tag || parts[2] != "" {
		return BuildEntry{}, false
	}
	revision, err := strconv.ParseUint(parts[1], 10, 64)
	if err != nil {
		return BuildEntry{}, false
	}
	return BuildEntry{Prefix: raw, Revision: revision}, true
}

// Len reports the number of builds in the catalog.
func (c *Catalog) Len() int { return len(c.entries) }

// Find returns the build with the smallest revision at or after position,
// provided it lies within the catalog's tolerance window.
func (c *Catalog) Find(position uint64) (BuildEntry, bool) {
	i := sort.Search(len(c.entries), func(i int) bool {
		return c.entries[i].Revision >= position
	})
	if i == len(c.entries) || c.entries[i].Revision-position > c.tolerance {
		return BuildEntry{}, false
	}
	return c.entries[i], true
}

// listingPages walks the paginated object listing. Fetch returns one page
// of prefixes; More reports whether another page may follow. A page without
// a continuation token ends the walk, as does a page with no prefixes at
// all (the listing never resumes after an empty page).
type listingPages struct {
	ctx     context.Context
	client  *http.Client
	baseURL string
	prefix  string
	logger  logging.Logger

	pageToken string
	done      bool
}

func (p *listingPages) More() bool {
	return !p.done
}

func (p *listingPages) Fetch() ([]string, error) {
	q := url.Values{}
	q.Set("delimiter", "/")
	q.Set("prefix", p.prefix)
	q.Set("fields", listingFields)
	if p.pageToken != "" {
		q.Set("pageToken", p.pageToken)
	}
	pageURL := p.baseURL + "?" + q.Encode()
	p.logger.Debug("fetching listing page %s", pageURL)

	var page listingPage
	if err := getJSON(p.ctx, p.client, pageURL, &page); err != nil {
		p.done = true
		return nil, err
	}
	p.pageToken = page.NextPageToken
	if p.pageToken == "" || len(page.Prefixes) == 0 {
		p.done = true
	}
	return page.Prefixes, nil
}

type listingPage struct {
	Kind          string          `json:"kind"`
	NextPageToken string          `json:"nextPageToken"`
	Prefixes      []string        `json:"prefixes"`
	Items         []StorageObject `json:"items"`
}

// StorageObject is one file inside a snapshot folder.
type StorageObject struct {
	Kind      string `json:"kind"`
	MediaLink string `json:"mediaLink"`
	Name      string `json:"name"`
	Size      string `json:"size"`
	Updated   string `json:"updated"`
}

// fetchBuildFiles lists the files of a single snapshot folder.
func fetchBuildFiles(ctx context.Context, client *http.Client, baseURL, prefix string, logger logging.Logger) ([]StorageObject, error) {
	q := url.Values{}
	q.Set("delimiter", "/")
	q.Set("prefix", prefix)
	q.Set("fields", listingFields)
	pageURL := baseURL + "?" + q.Encode()
	logger.Info("fetching build files %s ...", pageURL)

	var page listingPage
	if err := getJSON(ctx, client, pageURL, &page); err != nil {
		return nil, err
	}
	for _, file := range page.Items {
		logger.Debug("    %s", file.Name)
	}
	return page.Items, nil
}
