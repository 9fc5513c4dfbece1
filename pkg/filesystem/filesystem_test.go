package filesystem

import (
	"errors"
	"io/fs"
	"path/filepath"
	"testing"

	"github.com/arthur-debert/snapback/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func exerciseFS(t *testing.T, fsys types.FS, root string) {
	t.Helper()

	dir := filepath.Join(root, "sub", "dir")
	require.NoError(t, fsys.MkdirAll(dir, 0755))

	file := filepath.Join(dir, "a.txt")
	require.NoError(t, fsys.WriteFile(file, []byte("hello"), 0644))

	info, err := fsys.Stat(file)
	require.NoError(t, err)
	assert.Equal(t, int64(5), info.Size())

	data, err := fsys.ReadFile(file)
	require.NoError(t, err)
	assert.Equal(t, []byte("hello"), data)

	_, err = fsys.ReadFile(dir)
	assert.Error(t, err, "reading a directory must fail")

	renamed := filepath.Join(dir, "b.txt")
	require.NoError(t, fsys.Rename(file, renamed))

	entries, err := fsys.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "b.txt", entries[0].Name())

	require.NoError(t, fsys.Remove(renamed))
	_, err = fsys.Stat(renamed)
	assert.True(t, errors.Is(err, fs.ErrNotExist))

	require.NoError(t, fsys.RemoveAll(filepath.Join(root, "sub")))
	_, err = fsys.Stat(dir)
	assert.True(t, errors.Is(err, fs.ErrNotExist))
}

func TestOSFS(t *testing.T) {
	exerciseFS(t, NewOS(), t.TempDir())
}

func TestMemoryFS(t *testing.T) {
	exerciseFS(t, NewMemory(), "/mem")
}

func TestExists(t *testing.T) {
	fsys := NewMemory()
	require.NoError(t, fsys.WriteFile("/x/present", []byte("1"), 0644))

	ok, err := Exists(fsys, "/x/present")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = Exists(fsys, "/x/absent")
	require.NoError(t, err)
	assert.False(t, ok)
}
