package ingestion

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/poiesic/embedbench/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func touch(t *testing.T, dir string, names ...string) {
	t.Helper()
	for _, name := range names {
		path := filepath.Join(dir, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
		require.NoError(t, os.WriteFile(path, []byte(name), 0644))
	}
}

func relPaths(refs []core.DocumentRef) []string {
	out := make([]string, len(refs))
	for i, r := range refs {
		out[i] = r.RelPath
	}
	return out
}

func TestEnumerate_SortedAndIndexed(t *testing.T) {
	dir := t.TempDir()
	touch(t, dir, "b.txt", "a.txt", "sub/c.txt", "Z.txt", "notes.md")

	refs, err := Enumerate(dir, "*.txt")
	require.NoError(t, err)

	assert.Equal(t, []string{"Z.txt", "a.txt", "b.txt", "sub/c.txt"}, relPaths(refs))
	for i, r := range refs {
		assert.Equal(t, i, r.Index)
	}
	assert.Equal(t, "sub/c", refs[3].ID)
	assert.Equal(t, filepath.Join(dir, "sub", "c.txt"), refs[3].Path)
}

func TestEnumerate_SkipsHidden(t *testing.T) {
	dir := t.TempDir()
	touch(t, dir, "visible.txt", ".hidden.txt", ".git/config.txt")

	refs, err := Enumerate(dir, "")
	require.NoError(t, err)
	assert.Equal(t, []string{"visible.txt"}, relPaths(refs))
}

func TestEnumerate_PathPattern(t *testing.T) {
	dir := t.TempDir()
	touch(t, dir, "docs/a.txt", "other/b.txt", "c.txt")

	refs, err := Enumerate(dir, "docs/*.txt")
	require.NoError(t, err)
	assert.Equal(t, []string{"docs/a.txt"}, relPaths(refs))
}

func TestEnumerate_Errors(t *testing.T) {
	dir := t.TempDir()
	touch(t, dir, "file.txt")

	_, err := Enumerate(dir, "[")
	assert.ErrorIs(t, err, core.ErrConfiguration)

	_, err = Enumerate(filepath.Join(dir, "missing"), "*")
	assert.ErrorIs(t, err, core.ErrConfiguration)

	_, err = Enumerate(filepath.Join(dir, "file.txt"), "*")
	assert.ErrorIs(t, err, ErrNotDirectory)
}

func TestReadManifest(t *testing.T) {
	dir := t.TempDir()
	manifest := filepath.Join(dir, "manifest.txt")
	content := "# corpus\nb.txt\n\n  a.txt  \n/abs/path/c.html\n"
	require.NoError(t, os.WriteFile(manifest, []byte(content), 0644))

	refs, err := ReadManifest(manifest, "/data")
	require.NoError(t, err)
	require.Len(t, refs, 3)

	assert.Equal(t, core.DocumentRef{ID: "b", Path: filepath.Join("/data", "b.txt"), RelPath: "b.txt", Index: 0}, refs[0])
	assert.Equal(t, "a", refs[1].ID)
	assert.Equal(t, 1, refs[1].Index)
	assert.Equal(t, filepath.FromSlash("/abs/path/c.html"), refs[2].Path)
	assert.Equal(t, "abs/path/c", refs[2].ID)

	_, err = ReadManifest(filepath.Join(dir, "missing.txt"), dir)
	assert.ErrorIs(t, err, core.ErrConfiguration)
}

func TestEnumerate_IDsIncludeDirectories(t *testing.T) {
	dir := t.TempDir()
	touch(t, dir, "a/report.txt", "b/report.txt", "report.html")

	refs, err := Enumerate(dir, "")
	require.NoError(t, err)

	ids := make([]string, len(refs))
	for i, r := range refs {
		ids[i] = r.ID
	}
	assert.Equal(t, []string{"a/report", "b/report", "report"}, ids)
}

func TestEnumerate_RejectsDuplicateIDs(t *testing.T) {
	dir := t.TempDir()
	touch(t, dir, "docs/report.txt", "docs/report.html")

	_, err := Enumerate(dir, "")
	assert.ErrorIs(t, err, ErrDuplicateDocument)
	assert.ErrorIs(t, err, core.ErrConfiguration)

	refs, err := Enumerate(dir, "*.txt")
	require.NoError(t, err)
	assert.Equal(t, "docs/report", refs[0].ID)
}

func TestReadManifest_RejectsDuplicateIDs(t *testing.T) {
	manifest := filepath.Join(t.TempDir(), "manifest.txt")
	require.NoError(t, os.WriteFile(manifest, []byte("a/report.txt\nb/report.txt\na/report.md\n"), 0644))

	_, err := ReadManifest(manifest, "/data")
	assert.ErrorIs(t, err, ErrDuplicateDocument)
}
