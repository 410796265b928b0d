package filex

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func chdir(t *testing.T, dir string) func() {
	t.Helper()
	old, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	return func() { _ = os.Chdir(old) }
}

func TestEnsureDir_CreatesDirectoryInCWD(t *testing.T) {
	tmp := t.TempDir()
	defer chdir(t, tmp)()

	got, err := EnsureDir("uploads/users")
	require.NoError(t, err)

	want := filepath.Join(tmp, "uploads", "users")
	require.Equal(t, want, got)

	fi, err := os.Stat(want)
	require.NoError(t, err)
	require.True(t, fi.IsDir(), "should create a directory")

	if runtime.GOOS != "windows" {
		perm := fi.Mode().Perm()
		require.Equal(t, os.FileMode(0o700), perm&0o700)
	}
}

func TestEnsureDir_AbsoluteAndIdempotent(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "abs")

	got1, err := EnsureDir(dir)
	require.NoError(t, err)
	got2, err := EnsureDir(dir)
	require.NoError(t, err)
	require.Equal(t, dir, got1)
	require.Equal(t, got1, got2)
}

func TestSaveTemp(t *testing.T) {
	dir := t.TempDir()

	path, err := SaveTemp(dir, strings.NewReader("image-bytes"), ".png", 0)
	require.NoError(t, err)
	require.True(t, strings.HasSuffix(path, ".png"))

	b, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, "image-bytes", string(b))
}

func TestSaveTemp_TooLarge(t *testing.T) {
	dir := t.TempDir()

	_, err := SaveTemp(dir, strings.NewReader("0123456789"), ".jpg", 4)
	require.ErrorIs(t, err, ErrTooLarge)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Empty(t, entries, "partial file must be removed")
}
