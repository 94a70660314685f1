package cache

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/hamflx/fetchbrowser/internal/logging"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := NewStore(filepath.Join(t.TempDir(), "fetchbrowser"), logging.Nop())
	require.NoError(t, err)
	return store
}

func TestLoadMissingIsAMiss(t *testing.T) {
	store := newTestStore(t)
	var out []string
	require.False(t, store.Load("builds-Win_x64.json", &out))
}

func TestSaveThenLoadRoundTrips(t *testing.T) {
	store := newTestStore(t)
	in := []string{"Win_x64/1000/", "Win_x64/1010/"}
	require.NoError(t, store.Save("builds-Win_x64.json", in))

	var out []string
	require.True(t, store.Load("builds-Win_x64.json", &out))
	require.Equal(t, in, out)
}

func TestCorruptEntryIsAMiss(t *testing.T) {
	store := newTestStore(t)
	require.NoError(t, os.WriteFile(store.Path("history-win64-stable.json"), []byte("{not json"), 0o644))

	var out []string
	require.False(t, store.Load("history-win64-stable.json", &out))
}

func TestNewStoreCreatesDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "cache")
	_, err := NewStore(dir, nil)
	require.NoError(t, err)
	info, err := os.Stat(dir)
	require.NoError(t, err)
	require.True(t, info.IsDir())
}
