package chromium

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/hamflx/fetchbrowser/internal/fetcherr"
)

func TestSelectArchivePrefersWin64(t *testing.T) {
	files := []StorageObject{
		{Name: "Win_x64/1135600/chrome-win32.zip"},
		{Name: "Win_x64/1135600/chrome-win.zip"},
		{Name: "Win_x64/1135600/content-shell.zip"},
	}
	object, err := selectArchive(files)
	require.NoError(t, err)
	require.Equal(t, "Win_x64/1135600/chrome-win.zip", object.Name)
}

func TestSelectArchiveFallsThroughNames(t *testing.T) {
	files := []StorageObject{
		{Name: "Mac/1135600/chrome-mac.zip"},
		{Name: "Mac/1135600/content-shell.zip"},
	}
	object, err := selectArchive(files)
	require.NoError(t, err)
	require.Equal(t, "Mac/1135600/chrome-mac.zip", object.Name)
}

func TestSelectArchiveNoneFound(t *testing.T) {
	_, err := selectArchive([]StorageObject{{Name: "Win_x64/1135600/content-shell.zip"}})
	require.True(t, fetcherr.IsFormat(err), "got %v", err)
}

// pipelineServer fakes the history, deps and listing endpoints on one mux.
func pipelineServer(t *testing.T) *httptest.Server {
	t.Helper()
	position := "1135570"
	mux := http.NewServeMux()
	mux.HandleFunc("/history.json", func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewEncoder(w).Encode([]HistoryRecord{
			{Channel: "stable", OS: "win64", Version: "114.0.5735.90"},
			{Channel: "stable", OS: "win64", Version: "114.0.5735.45"},
		}))
	})
	mux.HandleFunc("/deps.json", func(w http.ResponseWriter, r *http.Request) {
		version := r.URL.Query().Get("version")
		info := DepsInfo{ChromiumVersion: version}
		if version == "114.0.5735.45" {
			info.ChromiumBasePosition = &position
		}
		require.NoError(t, json.NewEncoder(w).Encode(info))
	})
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewEncoder(w).Encode(listingPage{
			Prefixes: []string{"Win_x64/1135500/", "Win_x64/1135600/"},
		}))
	})
	return httptest.NewServer(mux)
}

func TestResolveEndToEnd(t *testing.T) {
	srv := pipelineServer(t)
	defer srv.Close()

	releases, err := NewReleases(context.Background(), winX64, Options{
		Client:         srv.Client(),
		Channel:        "stable",
		ListingBaseURL: srv.URL,
		HistoryBaseURL: srv.URL,
	})
	require.NoError(t, err)

	// The first candidate has no base position; the second resolves to the
	// nearest snapshot at or after 1135570.
	release, err := releases.Resolve(context.Background(), "114")
	require.NoError(t, err)
	require.Equal(t, "114.0.5735.45", release.Version())
}

func TestResolveUnknownVersionIsNotFound(t *testing.T) {
	srv := pipelineServer(t)
	defer srv.Close()

	releases, err := NewReleases(context.Background(), winX64, Options{
		Client:         srv.Client(),
		Channel:        "stable",
		ListingBaseURL: srv.URL,
		HistoryBaseURL: srv.URL,
	})
	require.NoError(t, err)

	_, err = releases.Resolve(context.Background(), "999")
	require.True(t, fetcherr.IsNotFound(err), "got %v", err)
}
