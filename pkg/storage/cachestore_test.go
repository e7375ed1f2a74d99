package storage

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPathForIsDeterministic(t *testing.T) {
	cs := NewRichCacheStore(t.TempDir())

	p1 := cs.PathFor("a1b2c3d4")
	p2 := cs.PathFor("a1b2c3d4")
	require.Equal(t, p1, p2)
	require.Equal(t, filepath.Join(cs.RootDir(), "a1b2c3d4"+CacheFileExt), p1)
}

func TestSaveThenLoadRoundTrip(t *testing.T) {
	cs := NewRichCacheStore(t.TempDir())
	blob := []byte("INKRTS1\n{\"text\":\"hi\"}")

	path, err := cs.Save("a1b2c3d4", blob)
	require.NoError(t, err)
	require.Equal(t, cs.PathFor("a1b2c3d4"), path)

	loaded, err := cs.Load("", "a1b2c3d4")
	require.NoError(t, err)
	require.Equal(t, blob, loaded)
}

func TestSaveLeavesNoTemporaryFiles(t *testing.T) {
	dir := t.TempDir()
	cs := NewRichCacheStore(dir)

	_, err := cs.Save("a1b2c3d4", []byte("blob"))
	require.NoError(t, err)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.Equal(t, "a1b2c3d4"+CacheFileExt, entries[0].Name())
}

func TestSaveReplacesExistingBlob(t *testing.T) {
	cs := NewRichCacheStore(t.TempDir())

	_, err := cs.Save("a1b2c3d4", []byte("old"))
	require.NoError(t, err)
	_, err = cs.Save("a1b2c3d4", []byte("new and longer"))
	require.NoError(t, err)

	loaded, err := cs.Load("", "a1b2c3d4")
	require.NoError(t, err)
	require.Equal(t, []byte("new and longer"), loaded)
}

func TestLoadMissingIsNotAnError(t *testing.T) {
	cs := NewRichCacheStore(t.TempDir())

	loaded, err := cs.Load("", "deadbeef")
	require.NoError(t, err)
	require.Nil(t, loaded)
}

func TestLoadPrefersExplicitPath(t *testing.T) {
	cs := NewRichCacheStore(t.TempDir())

	_, err := cs.Save("a1b2c3d4", []byte("derived"))
	require.NoError(t, err)

	explicit := filepath.Join(t.TempDir(), "moved.rtx")
	require.NoError(t, os.WriteFile(explicit, []byte("explicit"), 0644))

	loaded, err := cs.Load(explicit, "a1b2c3d4")
	require.NoError(t, err)
	require.Equal(t, []byte("explicit"), loaded)
}

func TestLoadFallsBackWhenExplicitPathIsGone(t *testing.T) {
	cs := NewRichCacheStore(t.TempDir())

	_, err := cs.Save("a1b2c3d4", []byte("derived"))
	require.NoError(t, err)

	loaded, err := cs.Load(filepath.Join(cs.RootDir(), "missing.rtx"), "a1b2c3d4")
	require.NoError(t, err)
	require.Equal(t, []byte("derived"), loaded)
}

func TestRemove(t *testing.T) {
	cs := NewRichCacheStore(t.TempDir())

	_, err := cs.Save("a1b2c3d4", []byte("blob"))
	require.NoError(t, err)
	require.NoError(t, cs.Remove("a1b2c3d4"))

	loaded, err := cs.Load("", "a1b2c3d4")
	require.NoError(t, err)
	require.Nil(t, loaded)

	// Removing an absent blob is fine
	require.NoError(t, cs.Remove("a1b2c3d4"))
}
