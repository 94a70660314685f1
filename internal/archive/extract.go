// Package archive unpacks a browser build archive in a single forward pass
// over its entry stream, discovering the archive's root folder from the
// first entry and stripping it from every path it writes.
package archive

import (
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/hamflx/fetchbrowser/internal/fetcherr"
	"github.com/hamflx/fetchbrowser/internal/logging"
)

// Entry is one item of an archive stream. Its reader is only valid until
// the stream advances.
type Entry struct {
	// Name is the slash-separated path inside the archive. Directory
	// entries end in "/".
	Name string
	Body io.Reader
}

// IsDir reports whether the entry denotes a directory.
func (e Entry) IsDir() bool {
	return strings.HasSuffix(e.Name, "/")
}

// Stream yields archive entries in order. Next returns io.EOF when the
// stream is exhausted.
type Stream interface {
	Next() (Entry, error)
}

// Extract writes every entry of stream under dest with the archive's root
// folder stripped.
//
// The first entry must be a directory; its name becomes the root. Every
// later entry must live under the root or extraction fails with a
// fetcherr.LayoutError. Entries are written strictly in stream order: the
// archive places directories before their contents, so parents exist by the
// time files arrive (file writes still create missing parents for archives
// that omit intermediate directory entries). A failure mid-stream leaves
// whatever was already written; no cleanup is attempted.
func Extract(stream Stream, dest string, logger logging.Logger) error {
	logger = logging.OrNop(logger)

	root := ""
	for {
		entry, err := stream.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
		logger.Debug("unpack: %s", entry.Name)

		if root == "" {
			if !entry.IsDir() {
				return &fetcherr.LayoutError{Entry: entry.Name, Reason: "first entry is not a directory"}
			}
			root = entry.Name
			continue
		}
		if !strings.HasPrefix(entry.Name, root) {
			return &fetcherr.LayoutError{Entry: entry.Name, Reason: "entry outside archive root " + root}
		}
		rel := entry.Name[len(root):]
		if rel == ".." || strings.HasPrefix(rel, "../") || strings.Contains(rel, "/../") {
			return &fetcherr.LayoutError{Entry: entry.Name, Reason: "path escapes destination"}
		}

		path := filepath.Join(dest, filepath.FromSlash(rel))
		if entry.IsDir() {
			if err := os.MkdirAll(path, 0o755); err != nil {
				return &fetcherr.PathError{Op: "create dir", Path: path, Err: err}
			}
			continue
		}
		if err := writeFile(path, entry.Body); err != nil {
			return err
		}
	}
}

func writeFile(path string, body io.Reader) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return &fetcherr.PathError{Op: "create dir", Path: filepath.Dir(path), Err: err}
	}
	out, err := os.Create(path)
	if err != nil {
		return &fetcherr.PathError{Op: "create file", Path: path, Err: err}
	}
	if _, err := io.Copy(out, body); err != nil {
		_ = out.Close()
		return &fetcherr.PathError{Op: "write file", Path: path, Err: err}
	}
	if err := out.Close(); err != nil {
		return &fetcherr.PathError{Op: "close file", Path: path, Err: err}
	}
	return nil
}
