// Package browser defines the vendor-neutral contract the CLI drives:
// resolve a human version string to a concrete release, then download and
// unpack it. Chromium and Firefox each implement it with their own lookup
// machinery.
package browser

import "context"

// Releases resolves version queries against one vendor's release data.
type Releases interface {
	// Resolve turns a full or partial version string into a concrete
	// downloadable release. It fails with a fetcherr.NotFoundError when
	// nothing matches within the vendor's rules.
	Resolve(ctx context.Context, version string) (Release, error)
}

// Release is one concrete build that can be materialized on disk.
type Release interface {
	// Version is the fully qualified version string of the build.
	Version() string

	// Download fetches the build artifact and unpacks it under baseDir,
	// returning the directory it created.
	Download(ctx context.Context, baseDir string) (string, error)
}
