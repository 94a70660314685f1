package archive

import (
	"io"

	"github.com/krolaw/zipstream"

	"github.com/hamflx/fetchbrowser/internal/fetcherr"
)

// zipStream adapts a streaming zip reader to the Stream interface. Unlike
// the stdlib archive/zip it needs no io.ReaderAt, so a response body can be
// unpacked as it downloads.
type zipStream struct {
	reader *zipstream.Reader
	source string
}

// NewZipStream reads zip entries from r in file order. source names the
// stream in errors.
func NewZipStream(r io.Reader, source string) Stream {
	return &zipStream{reader: zipstream.NewReader(r), source: source}
}

func (z *zipStream) Next() (Entry, error) {
	header, err := z.reader.Next()
	if err == io.EOF {
		return Entry{}, io.EOF
	}
	if err != nil {
		return Entry{}, &fetcherr.FormatError{Source: z.source, Err: err}
	}
	return Entry{Name: header.Name, Body: z.reader}, nil
}
