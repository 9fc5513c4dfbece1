package filesystem

import (
	stderrors "errors"
	"io/fs"

	"github.com/arthur-debert/snapback/pkg/types"
	"github.com/spf13/afero"
)

// backed adapts an afero.Fs to types.FS. Both the host filesystem and the
// in-memory one go through it so they behave the same.
type backed struct {
	afs afero.Fs
}

// New wraps any afero filesystem
func New(afs afero.Fs) types.FS {
	return &backed{afs: afs}
}

// NewOS returns the host filesystem
func NewOS() types.FS {
	return New(afero.NewOsFs())
}

// NewMemory returns an empty in-memory filesystem
func NewMemory() types.FS {
	return New(afero.NewMemMapFs())
}

// Exists reports whether path exists. Errors other than not-exist are
// returned as is.
func Exists(fsys types.FS, path string) (bool, error) {
	_, err := fsys.Stat(path)
	switch {
	case err == nil:
		return true, nil
	case stderrors.Is(err, fs.ErrNotExist):
		return false, nil
	default:
		return false, err
	}
}

func (b *backed) Stat(name string) (fs.FileInfo, error) { return b.afs.Stat(name) }

// ReadFile refuses directories; MemMapFs would otherwise return empty data.
func (b *backed) ReadFile(name string) ([]byte, error) {
	info, err := b.afs.Stat(name)
	if err != nil {
		return nil, err
	}
	if info.IsDir() {
		return nil, &fs.PathError{Op: "read", Path: name, Err: fs.ErrInvalid}
	}
	return afero.ReadFile(b.afs, name)
}

func (b *backed) WriteFile(name string, data []byte, perm fs.FileMode) error {
	return afero.WriteFile(b.afs, name, data, perm)
}

func (b *backed) MkdirAll(path string, perm fs.FileMode) error { return b.afs.MkdirAll(path, perm) }
func (b *backed) Remove(name string) error                     { return b.afs.Remove(name) }
func (b *backed) RemoveAll(path string) error                  { return b.afs.RemoveAll(path) }
func (b *backed) Rename(oldpath, newpath string) error         { return b.afs.Rename(oldpath, newpath) }

func (b *backed) ReadDir(name string) ([]fs.DirEntry, error) {
	infos, err := afero.ReadDir(b.afs, name)
	if err != nil {
		return nil, err
	}
	out := make([]fs.DirEntry, 0, len(infos))
	for _, info := range infos {
		out = append(out, fs.FileInfoToDirEntry(info))
	}
	return out, nil
}
