package crawl

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mkfile(t *testing.T, path string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o644))
}

func extSet(exts ...string) map[string]struct{} {
	set := make(map[string]struct{})
	for _, e := range exts {
		set[e] = struct{}{}
	}
	return set
}

func TestCrawlRecursive(t *testing.T) {
	root := t.TempDir()
	mkfile(t, filepath.Join(root, "a.tif"))
	mkfile(t, filepath.Join(root, "sub1", "b.SHP"))
	mkfile(t, filepath.Join(root, "sub1", "deep", "c.gpkg"))
	mkfile(t, filepath.Join(root, "sub2", "d.las"))
	mkfile(t, filepath.Join(root, "sub2", "ignored.txt"))
	mkfile(t, filepath.Join(root, "noext"))

	c := New(4, nil)
	got, err := c.Crawl(context.Background(), root, extSet("tif", "shp", "gpkg", "las"), true)
	require.NoError(t, err)
	require.Len(t, got, 4)

	for _, p := range got {
		assert.True(t, filepath.IsAbs(p), "paths must be absolute: %s", p)
		ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(p), "."))
		assert.Contains(t, []string{"tif", "shp", "gpkg", "las"}, ext)
	}

	// no duplicates
	seen := map[string]bool{}
	for _, p := range got {
		assert.False(t, seen[p], "duplicate path %s", p)
		seen[p] = true
	}
}

func TestCrawlNonRecursive(t *testing.T) {
	root := t.TempDir()
	mkfile(t, filepath.Join(root, "a.tif"))
	mkfile(t, filepath.Join(root, "sub", "b.tif"))

	c := New(2, nil)
	got, err := c.Crawl(context.Background(), root, extSet("tif"), false)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, filepath.Join(root, "a.tif"), got[0])
}

func TestCrawlCaseInsensitiveExtensions(t *testing.T) {
	root := t.TempDir()
	mkfile(t, filepath.Join(root, "upper.TIF"))
	mkfile(t, filepath.Join(root, "mixed.GpKg"))

	c := New(1, nil)
	got, err := c.Crawl(context.Background(), root, extSet("tif", "gpkg"), true)
	require.NoError(t, err)
	assert.Len(t, got, 2)
}

func TestCrawlDirectoryContainer(t *testing.T) {
	// An Esri FGDB is a directory whose name ends in .gdb; it is one
	// candidate dataset and its internals are not crawled.
	root := t.TempDir()
	mkfile(t, filepath.Join(root, "data.gdb", "a00000001.gdbtable"))
	mkfile(t, filepath.Join(root, "nested", "more.gdb", "a00000001.gdbtable"))

	c := New(2, nil)
	got, err := c.Crawl(context.Background(), root, extSet("gdb"), true)
	require.NoError(t, err)
	require.Len(t, got, 2)
	for _, p := range got {
		assert.True(t, strings.HasSuffix(p, ".gdb"), "got %s", p)
	}
}

func TestCrawlPermissionDeniedSubtree(t *testing.T) {
	if os.Getuid() == 0 {
		t.Skip("running as root, permission bits are not enforced")
	}

	root := t.TempDir()
	mkfile(t, filepath.Join(root, "ok", "a.tif"))
	locked := filepath.Join(root, "locked")
	mkfile(t, filepath.Join(locked, "hidden.tif"))
	require.NoError(t, os.Chmod(locked, 0o000))
	t.Cleanup(func() { _ = os.Chmod(locked, 0o755) })

	c := New(2, nil)
	got, err := c.Crawl(context.Background(), root, extSet("tif"), true)
	require.NoError(t, err, "permission failure must not abort the crawl")
	require.Len(t, got, 1)
	assert.Contains(t, got[0], "ok")
}

func TestCrawlUnreadableRoot(t *testing.T) {
	c := New(1, nil)
	_, err := c.Crawl(context.Background(), filepath.Join(t.TempDir(), "missing"), extSet("tif"), true)
	assert.Error(t, err)
}
