package chromium

import (
	"context"
	"strconv"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/hamflx/fetchbrowser/internal/fetcherr"
	"github.com/hamflx/fetchbrowser/internal/logging"
)

const depsMemoSize = 128

// Resolver walks history candidates in the order supplied and returns the
// first one whose commit position has a snapshot within tolerance.
//
// A candidate with no usable position, or with no nearby build, is logged
// and skipped: an older or newer candidate in the same filtered set may
// still resolve. Transport and format failures abort the whole search.
type Resolver struct {
	catalog *Catalog
	deps    DepsSource
	memo    *lru.Cache[string, DepsInfo]
	logger  logging.Logger
}

// NewResolver builds a resolver over the catalog and deps source.
func NewResolver(catalog *Catalog, deps DepsSource, logger logging.Logger) *Resolver {
	memo, _ := lru.New[string, DepsInfo](depsMemoSize)
	return &Resolver{
		catalog: catalog,
		deps:    deps,
		memo:    memo,
		logger:  logging.OrNop(logger),
	}
}

// Resolve returns the snapshot entry and fully qualified version of the
// first candidate that resolves. query is only used for the NotFound error
// when every candidate fails.
func (r *Resolver) Resolve(ctx context.Context, query string, candidates []HistoryRecord) (BuildEntry, string, error) {
	for _, candidate := range candidates {
		deps, err := r.lookupDeps(ctx, candidate.Version)
		if err != nil {
			return BuildEntry{}, "", err
		}
		if deps.ChromiumBasePosition == nil {
			r.logger.Warn("chromium %s: no base position", deps.ChromiumVersion)
			continue
		}
		position, err := strconv.ParseUint(*deps.ChromiumBasePosition, 10, 64)
		if err != nil {
			r.logger.Warn("chromium %s: unparsable base position %q", deps.ChromiumVersion, *deps.ChromiumBasePosition)
			continue
		}
		entry, ok := r.catalog.Find(position)
		if !ok {
			r.logger.Warn("no build found near revision %d", position)
			continue
		}
		return entry, deps.ChromiumVersion, nil
	}
	return BuildEntry{}, "", &fetcherr.NotFoundError{Version: query}
}

func (r *Resolver) lookupDeps(ctx context.Context, version string) (DepsInfo, error) {
	if deps, ok := r.memo.Get(version); ok {
		return deps, nil
	}
	deps, err := r.deps.Deps(ctx, version)
	if err != nil {
		return DepsInfo{}, err
	}
	r.memo.Add(version, deps)
	return deps, nil
}
