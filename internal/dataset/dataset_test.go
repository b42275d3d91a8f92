package dataset

import (
	"archive/zip"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"palbp/internal/line"
)

func writeFiles(t *testing.T, dir string, files map[string]string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(dir, 0o755))
	for name, body := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644))
	}
}

func TestReadPrecedence(t *testing.T) {
	in := "1 2\n\n\"2\" '3'\nbroken\n4 x\n 5   6 \n"
	got, err := ReadPrecedence(strings.NewReader(in), "test")
	require.NoError(t, err)
	assert.Equal(t, []line.Precedence{
		{Before: 0, After: 1},
		{Before: 1, After: 2},
		{Before: 4, After: 5},
	}, got)
}

func TestReadProcessingTimes(t *testing.T) {
	got, err := ReadProcessingTimes(strings.NewReader("4\n\"7\"\n\nabc\n 2 \n"), "test")
	require.NoError(t, err)
	assert.Equal(t, []int{4, 7, 2}, got)
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, map[string]string{
		TimesLine1: "3\n5\n",
		TimesLine2: "2\n4\n1\n",
		// 1 -> 3 crosses into line 2 and is dropped.
		PrecLine1: "1 2\n1 3\n",
		PrecLine2: "3 5\n",
	})

	inst, err := Load(dir, []bool{false, true})
	require.NoError(t, err)
	assert.Equal(t, []int{3, 5, 2, 4, 1}, inst.ProcTimes)
	assert.Equal(t, 2, inst.Line1)
	assert.Equal(t, 3, inst.Line2)
	assert.Equal(t, 2, inst.Stations)
	assert.Equal(t, []line.Precedence{{Before: 0, After: 1}}, inst.Prec1)
	assert.Equal(t, []line.Precedence{{Before: 2, After: 4}}, inst.Prec2)
}

func TestLoad_MissingPrecedenceIsUnconstrained(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, map[string]string{TimesLine1: "1\n", TimesLine2: "2\n"})

	inst, err := Load(dir, []bool{false})
	require.NoError(t, err)
	assert.Empty(t, inst.AllConstraints())
}

func TestLoad_Errors(t *testing.T) {
	_, err := Load(t.TempDir(), []bool{false})
	assert.Error(t, err)

	dir := t.TempDir()
	writeFiles(t, dir, map[string]string{TimesLine1: "", TimesLine2: "1\n"})
	_, err = Load(dir, []bool{false})
	assert.ErrorIs(t, err, line.ErrDegenerate)
}

func TestDiscover(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, filepath.Join(root, "b"), map[string]string{TimesLine1: "1", TimesLine2: "1"})
	writeFiles(t, filepath.Join(root, "a", "nested"), map[string]string{TimesLine1: "1", TimesLine2: "1"})
	writeFiles(t, filepath.Join(root, "c"), map[string]string{TimesLine1: "1"})

	got, err := Discover(root)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "a/nested", got[0].Name)
	assert.Equal(t, "b", got[1].Name)
}

func makeZip(t *testing.T, entries map[string]string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "data.zip")
	f, err := os.Create(path)
	require.NoError(t, err)
	zw := zip.NewWriter(f)
	for name, body := range entries {
		w, err := zw.Create(name)
		require.NoError(t, err)
		_, err = w.Write([]byte(body))
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	require.NoError(t, f.Close())
	return path
}

func TestExtractZip(t *testing.T) {
	archive := makeZip(t, map[string]string{
		"set1/z1.txt": "1\n2\n",
		"set1/z2.txt": "3\n",
	})
	dest := t.TempDir()
	require.NoError(t, ExtractZip(context.Background(), archive, dest))

	got, err := Discover(dest)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "set1", got[0].Name)
}

func TestExtractZip_RejectsEscapingEntries(t *testing.T) {
	archive := makeZip(t, map[string]string{"../evil.txt": "x"})
	err := ExtractZip(context.Background(), archive, t.TempDir())
	assert.Error(t, err)
}
