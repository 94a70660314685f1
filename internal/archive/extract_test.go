package archive

import (
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/hamflx/fetchbrowser/internal/fetcherr"
)

type fakeStream struct {
	entries []Entry
	pos     int
}

func (s *fakeStream) Next() (Entry, error) {
	if s.pos >= len(s.entries) {
		return Entry{}, io.EOF
	}
	e := s.entries[s.pos]
	s.pos++
	return e, nil
}

func stream(entries ...Entry) Stream {
	return &fakeStream{entries: entries}
}

func file(name, content string) Entry {
	return Entry{Name: name, Body: strings.NewReader(content)}
}

func dir(name string) Entry {
	return Entry{Name: name}
}

func TestExtractStripsRoot(t *testing.T) {
	dest := t.TempDir()
	err := Extract(stream(
		dir("chrome-win/"),
		dir("chrome-win/locales/"),
		file("chrome-win/locales/en-US.pak", "pak-bytes"),
		file("chrome-win/chrome.exe", "exe-bytes"),
	), dest, nil)
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(dest, "locales", "en-US.pak"))
	require.NoError(t, err)
	require.Equal(t, "pak-bytes", string(data))

	data, err = os.ReadFile(filepath.Join(dest, "chrome.exe"))
	require.NoError(t, err)
	require.Equal(t, "exe-bytes", string(data))

	_, err = os.Stat(filepath.Join(dest, "chrome-win"))
	require.True(t, os.IsNotExist(err), "root folder must not appear in the destination")
}

func TestExtractFirstEntryMustBeDirectory(t *testing.T) {
	dest := t.TempDir()
	err := Extract(stream(file("readme.txt", "hi")), dest, nil)
	require.True(t, fetcherr.IsLayout(err), "got %v", err)

	entries, readErr := os.ReadDir(dest)
	require.NoError(t, readErr)
	require.Empty(t, entries, "nothing may be written before the layout check")
}

func TestExtractRejectsEntryOutsideRoot(t *testing.T) {
	dest := t.TempDir()
	err := Extract(stream(
		dir("root/"),
		file("root/a.txt", "A"),
		file("other/b.txt", "B"),
	), dest, nil)
	require.True(t, fetcherr.IsLayout(err), "got %v", err)

	// No rollback: the entry before the violation stays on disk.
	data, readErr := os.ReadFile(filepath.Join(dest, "a.txt"))
	require.NoError(t, readErr)
	require.Equal(t, "A", string(data))

	_, statErr := os.Stat(filepath.Join(dest, "b.txt"))
	require.True(t, os.IsNotExist(statErr))
}

func TestExtractCreatesMissingParents(t *testing.T) {
	dest := t.TempDir()
	// No directory entry for sub/: the file write must create it.
	err := Extract(stream(
		dir("root/"),
		file("root/sub/deep/f.txt", "X"),
	), dest, nil)
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(dest, "sub", "deep", "f.txt"))
	require.NoError(t, err)
	require.Equal(t, "X", string(data))
}

func TestExtractOverwritesExistingFiles(t *testing.T) {
	dest := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dest, "f.txt"), []byte("stale and long"), 0o644))

	err := Extract(stream(
		dir("root/"),
		file("root/f.txt", "new"),
	), dest, nil)
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(dest, "f.txt"))
	require.NoError(t, err)
	require.Equal(t, "new", string(data), "existing files are truncated, not appended")
}

func TestExtractRejectsPathTraversal(t *testing.T) {
	dest := t.TempDir()
	err := Extract(stream(
		dir("root/"),
		file("root/../evil.txt", "X"),
	), dest, nil)
	require.True(t, fetcherr.IsLayout(err), "got %v", err)
}

func TestExtractEmptyStream(t *testing.T) {
	require.NoError(t, Extract(stream(), t.TempDir(), nil))
}
