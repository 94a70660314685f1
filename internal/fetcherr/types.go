// Package fetcherr defines the error kinds the resolution and extraction
// pipeline reports. Callers classify failures with errors.As through the
// helpers below instead of string matching.
package fetcherr

import (
	"errors"
	"fmt"
)

// TransportError wraps a network or HTTP-level failure together with the
// URL that was being fetched.
type TransportError struct {
	URL string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("request %s: %v", e.URL, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// FormatError reports a server response that could not be decoded into the
// expected shape. Source names the endpoint or document that misbehaved.
type FormatError struct {
	Source string
	Err    error
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("unexpected response from %s: %v", e.Source, e.Err)
}

func (e *FormatError) Unwrap() error { return e.Err }

// NotFoundError means a version query matched no downloadable build within
// tolerance. It is a terminal resolution outcome, not a transport problem.
type NotFoundError struct {
	Version string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("no downloadable build found for version %q", e.Version)
}

// LayoutError reports an archive whose entries violate the single-root
// contract: a first entry that is not a directory, or an entry escaping the
// root folder.
type LayoutError struct {
	Entry  string
	Reason string
}

func (e *LayoutError) Error() string {
	if e.Entry == "" {
		return fmt.Sprintf("malformed archive layout: %s", e.Reason)
	}
	return fmt.Sprintf("malformed archive layout at %q: %s", e.Entry, e.Reason)
}

// PathError wraps a local filesystem failure during extraction with the
// operation and destination path.
type PathError struct {
	Op   string
	Path string
	Err  error
}

func (e *PathError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

func (e *PathError) Unwrap() error { return e.Err }

// IsTransport reports whether err is (or wraps) a TransportError.
func IsTransport(err error) bool {
	var te *TransportError
	return errors.As(err, &te)
}

// IsFormat reports whether err is (or wraps) a FormatError.
func IsFormat(err error) bool {
	var fe *FormatError
	return errors.As(err, &fe)
}

// IsNotFound reports whether err is (or wraps) a NotFoundError.
func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}

// IsLayout reports whether err is (or wraps) a LayoutError.
func IsLayout(err error) bool {
	var le *LayoutError
	return errors.As(err, &le)
}
