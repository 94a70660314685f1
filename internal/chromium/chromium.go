// Package chromium resolves a Chromium version string to the nearest
// snapshot build and downloads it. Resolution runs in two stages: the
// version history supplies commit positions, and the snapshot catalog maps
// a position to the closest available build folder.
package chromium

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/hamflx/fetchbrowser/internal/archive"
	"github.com/hamflx/fetchbrowser/internal/browser"
	"github.com/hamflx/fetchbrowser/internal/cache"
	"github.com/hamflx/fetchbrowser/internal/fetcherr"
	"github.com/hamflx/fetchbrowser/internal/logging"
	"github.com/hamflx/fetchbrowser/internal/platform"
)

// Snapshot archives carry one of these names depending on platform; listed
// in preference order.
var archiveNames = []string{
	"chrome-win.zip",
	"chrome-win32.zip",
	"chrome-mac.zip",
	"chrome-linux.zip",
}

// Options wire the pipeline's collaborators.
type Options struct {
	// Client performs metadata requests.
	Client *http.Client

	// StreamClient performs the archive download; it should carry no
	// overall timeout. Defaults to Client.
	StreamClient *http.Client

	Cache  *cache.Store
	Logger logging.Logger

	Channel string

	// Tolerance is forwarded to the snapshot catalog.
	Tolerance int

	// ListingBaseURL and HistoryBaseURL default to the production
	// endpoints; tests point them at fakes.
	ListingBaseURL string
	HistoryBaseURL string
}

// Releases implements browser.Releases for Chromium.
type Releases struct {
	platform platform.Platform
	history  *History
	catalog  *Catalog
	resolver *Resolver

	client         *http.Client
	streamClient   *http.Client
	logger         logging.Logger
	listingBaseURL string
}

// NewReleases loads the version history and the snapshot catalog for the
// platform. Both are immutable afterwards; Resolve only reads them.
func NewReleases(ctx context.Context, p platform.Platform, opts Options) (*Releases, error) {
	logger := logging.OrNop(opts.Logger)
	listingBaseURL := opts.ListingBaseURL
	if listingBaseURL == "" {
		listingBaseURL = DefaultListingBaseURL
	}

	history, err := LoadHistory(ctx, p, opts.Channel, HistoryOptions{
		Client:  opts.Client,
		Cache:   opts.Cache,
		Logger:  logger,
		BaseURL: opts.HistoryBaseURL,
	})
	if err != nil {
		return nil, fmt.Errorf("load version history: %w", err)
	}

	catalog, err := LoadCatalog(ctx, p, CatalogOptions{
		Client:    opts.Client,
		Cache:     opts.Cache,
		Logger:    logger,
		BaseURL:   listingBaseURL,
		Tolerance: opts.Tolerance,
	})
	if err != nil {
		return nil, fmt.Errorf("load build catalog: %w", err)
	}

	streamClient := opts.StreamClient
	if streamClient == nil {
		streamClient = opts.Client
	}

	deps := NewDepsSource(opts.Client, opts.HistoryBaseURL, logger)
	return &Releases{
		platform:       p,
		history:        history,
		catalog:        catalog,
		resolver:       NewResolver(catalog, deps, logger),
		client:         opts.Client,
		streamClient:   streamClient,
		logger:         logger,
		listingBaseURL: listingBaseURL,
	}, nil
}

// Resolve implements browser.Releases.
func (r *Releases) Resolve(ctx context.Context, version string) (browser.Release, error) {
	candidates := r.history.Filter(version)
	entry, resolved, err := r.resolver.Resolve(ctx, version, candidates)
	if err != nil {
		return nil, err
	}
	r.logger.Info("resolved chromium %s to %s", resolved, entry.Prefix)
	return &Release{releases: r, prefix: entry.Prefix, version: resolved}, nil
}

// Release is one resolved snapshot build.
type Release struct {
	releases *Releases
	prefix   string
	version  string
}

// Version implements browser.Release.
func (rel *Release) Version() string { return rel.version }

// Download lists the snapshot folder, picks the chrome archive, and
// streams it into baseDir/chromium-<version> with the archive's root folder
// stripped.
func (rel *Release) Download(ctx context.Context, baseDir string) (string, error) {
	r := rel.releases
	files, err := fetchBuildFiles(ctx, r.client, r.listingBaseURL, rel.prefix, r.logger)
	if err != nil {
		return "", err
	}
	object, err := selectArchive(files)
	if err != nil {
		return "", err
	}

	dest := filepath.Join(baseDir, "chromium-"+rel.version)
	if err := os.MkdirAll(dest, 0o755); err != nil {
		return "", &fetcherr.PathError{Op: "create dir", Path: dest, Err: err}
	}

	r.logger.Info("downloading %s", object.MediaLink)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, object.MediaLink, nil)
	if err != nil {
		return "", &fetcherr.TransportError{URL: object.MediaLink, Err: err}
	}
	resp, err := r.streamClient.Do(req)
	if err != nil {
		return "", &fetcherr.TransportError{URL: object.MediaLink, Err: err}
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", &fetcherr.TransportError{URL: object.MediaLink, Err: fmt.Errorf("unexpected status %s", resp.Status)}
	}

	if err := archive.Extract(archive.NewZipStream(resp.Body, object.Name), dest, r.logger); err != nil {
		return "", err
	}
	return dest, nil
}

// selectArchive picks the chrome archive out of a snapshot folder's files.
func selectArchive(files []StorageObject) (StorageObject, error) {
	for _, name := range archiveNames {
		for _, file := range files {
			if strings.HasSuffix(file.Name, name) {
				return file, nil
			}
		}
	}
	return StorageObject{}, &fetcherr.FormatError{
		Source: "build file listing",
		Err:    errors.New("no chrome archive among build files"),
	}
}
