package firefox

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/hamflx/fetchbrowser/internal/cache"
	"github.com/hamflx/fetchbrowser/internal/fetcherr"
	"github.com/hamflx/fetchbrowser/internal/logging"
)

func TestIsReleaseVersion(t *testing.T) {
	cases := map[string]bool{
		"117.0":      true,
		"117.0.1":    true,
		"117.0b3":    false, // second segment "0b3" is not a number
		"latest":     false,
		"devpreview": false,
		"3.6.28":     true,
		"117":        false,
		"shiretoko":  false,
		"104.0esr":   false,
	}
	for name, want := range cases {
		if got := IsReleaseVersion(name); got != want {
			t.Errorf("IsReleaseVersion(%q) = %v, want %v", name, got, want)
		}
	}
}

func indexReleases(versions ...string) *Releases {
	return &Releases{versions: versions, logger: logging.Nop()}
}

func TestMatchFiltersOnWholeNumbers(t *testing.T) {
	r := indexReleases("117.0", "117.0.1", "1170.0", "118.0", "11.0")
	require.Equal(t, []string{"117.0", "117.0.1"}, r.match("117"))
}

func TestMatchSortsPlainReleasesFirst(t *testing.T) {
	// ESR builds share the numeric prefix but must rank after plain
	// releases.
	r := indexReleases("115.2.1esr", "115.2.1", "115.2.0")
	require.Equal(t, []string{"115.2.0", "115.2.1", "115.2.1esr"}, r.match("115"))
}

func TestResolvePicksFirstMatch(t *testing.T) {
	r := indexReleases("117.0.1", "117.0")
	release, err := r.Resolve(context.Background(), "117")
	require.NoError(t, err)
	require.Equal(t, "117.0", release.Version())
}

func TestResolveNoMatchIsNotFound(t *testing.T) {
	r := indexReleases("117.0")
	_, err := r.Resolve(context.Background(), "842")
	require.True(t, fetcherr.IsNotFound(err), "got %v", err)
}

const indexHTML = `<html><body><table>
<tr><td><a href="/pub/firefox/releases/116.0/">116.0/</a></td></tr>
<tr><td><a href="/pub/firefox/releases/117.0/">117.0/</a></td></tr>
<tr><td><a href="/pub/firefox/releases/latest/">latest/</a></td></tr>
<tr><td><a href="/pub/firefox/releases/shiretoko/">shiretoko/</a></td></tr>
</table></body></html>`

func TestNewReleasesScrapesIndex(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(indexHTML))
	}))
	defer srv.Close()

	store, err := cache.NewStore(t.TempDir(), logging.Nop())
	require.NoError(t, err)

	releases, err := NewReleases(context.Background(), Options{
		Client:  srv.Client(),
		Cache:   store,
		BaseURL: srv.URL + "/",
		Locale:  "en-US",
	})
	require.NoError(t, err)
	require.Equal(t, []string{"116.0", "117.0"}, releases.versions)

	// The scrape must have populated the cache.
	var cached []string
	require.True(t, store.Load("firefox-releases.json", &cached))
	require.Equal(t, []string{"116.0", "117.0"}, cached)
}

func TestFetchInstallerFallsBackToWin32(t *testing.T) {
	var paths []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		paths = append(paths, r.URL.Path)
		if len(paths) == 1 {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write([]byte("installer-bytes"))
	}))
	defer srv.Close()

	r := &Releases{
		client:       srv.Client(),
		streamClient: srv.Client(),
		logger:       logging.Nop(),
		locale:       "en-US",
		baseURL:      srv.URL + "/",
	}
	data, err := r.fetchInstaller(context.Background(), "117.0")
	require.NoError(t, err)
	require.Equal(t, "installer-bytes", string(data))

	require.Len(t, paths, 2)
	require.Contains(t, paths[0], "/117.0/win64/en-US/")
	require.Contains(t, paths[1], "/117.0/win32/en-US/")
}

func TestCarvePayload(t *testing.T) {
	payload := append([]byte{}, sfxSignature...)
	payload = append(payload, 0x01, 0x02)
	installer := append([]byte("MZ-pe-stub-bytes"), payload...)

	carved, err := carvePayload(installer)
	require.NoError(t, err)
	require.Equal(t, payload, carved)
}

func TestCarvePayloadSignatureAtStart(t *testing.T) {
	carved, err := carvePayload(append([]byte{}, sfxSignature...))
	require.NoError(t, err)
	require.Equal(t, sfxSignature, carved)
}

func TestCarvePayloadMissingSignature(t *testing.T) {
	_, err := carvePayload([]byte("plain exe without payload"))
	require.True(t, fetcherr.IsFormat(err), "got %v", err)
}
