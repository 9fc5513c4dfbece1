// pkg/adapters/file_test.go
// TEST TYPE: Unit Test
// DEPENDENCIES: In-memory filesystem
// PURPOSE: Test file backup into content-addressed blobs and restore

package adapters_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/arthur-debert/snapback/pkg/adapters"
	"github.com/arthur-debert/snapback/pkg/errors"
	"github.com/arthur-debert/snapback/pkg/filesystem"
	"github.com/arthur-debert/snapback/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileAdapter_RoundTrip(t *testing.T) {
	ctx := context.Background()
	fsys := filesystem.NewMemory()
	a := adapters.NewFile(fsys, "/data/blobs")
	target := "/etc/hosts"

	require.NoError(t, fsys.MkdirAll("/etc", 0755))
	require.NoError(t, fsys.WriteFile(target, []byte("127.0.0.1 localhost\n"), 0644))

	rec, err := a.CaptureRecord(ctx, target)
	require.NoError(t, err)
	assert.True(t, rec.ExistedBefore)
	assert.Len(t, rec.SHA256, 64)
	assert.Equal(t, filepath.Join("/data/blobs", rec.SHA256), rec.BackupPath)

	require.NoError(t, fsys.WriteFile(target, []byte("0.0.0.0 ads.example\n"), 0644))
	require.NoError(t, a.ApplyRecord(ctx, rec))

	data, err := fsys.ReadFile(target)
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1 localhost\n", string(data))

	// Restoring after the file was removed recreates it
	require.NoError(t, fsys.RemoveAll("/etc"))
	require.NoError(t, a.ApplyRecord(ctx, rec))
	data, err = fsys.ReadFile(target)
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1 localhost\n", string(data))
}

func TestFileAdapter_DeleteIfAbsent(t *testing.T) {
	ctx := context.Background()
	fsys := filesystem.NewMemory()
	a := adapters.NewFile(fsys, "/data/blobs")

	rec, err := a.CaptureRecord(ctx, "/tmp/new.conf")
	require.NoError(t, err)
	assert.False(t, rec.ExistedBefore)

	require.NoError(t, fsys.MkdirAll("/tmp", 0755))
	require.NoError(t, fsys.WriteFile("/tmp/new.conf", []byte("x"), 0644))
	require.NoError(t, a.ApplyRecord(ctx, rec))

	_, err = fsys.Stat("/tmp/new.conf")
	assert.Error(t, err)
	assert.NoError(t, a.ApplyRecord(ctx, rec), "already absent")
}

func TestFileAdapter_CorruptBlob(t *testing.T) {
	ctx := context.Background()
	fsys := filesystem.NewMemory()
	a := adapters.NewFile(fsys, "/data/blobs")
	require.NoError(t, fsys.MkdirAll("/etc", 0755))
	require.NoError(t, fsys.WriteFile("/etc/a", []byte("original"), 0644))

	rec, err := a.CaptureRecord(ctx, "/etc/a")
	require.NoError(t, err)
	require.NoError(t, fsys.WriteFile(rec.BackupPath, []byte("tampered"), 0600))

	err = a.ApplyRecord(ctx, rec)
	assert.True(t, errors.IsErrorCode(err, errors.ErrApply))

	err = a.ApplyRecord(ctx, &types.FileChange{Path: "/etc/a", ExistedBefore: true})
	assert.True(t, errors.IsErrorCode(err, errors.ErrApply), "no backup recorded")
}

func TestFileAdapter_CaptureRepairsDamagedBlob(t *testing.T) {
	ctx := context.Background()
	fsys := filesystem.NewMemory()
	a := adapters.NewFile(fsys, "/data/blobs")
	target := "/etc/hosts"
	content := []byte("127.0.0.1 localhost\n")
	require.NoError(t, fsys.MkdirAll("/etc", 0755))
	require.NoError(t, fsys.WriteFile(target, content, 0644))

	first, err := a.CaptureRecord(ctx, target)
	require.NoError(t, err)
	// simulate a crash that left the blob truncated
	require.NoError(t, fsys.WriteFile(first.BackupPath, content[:4], 0600))

	second, err := a.CaptureRecord(ctx, target)
	require.NoError(t, err)
	assert.Equal(t, first.BackupPath, second.BackupPath)

	blob, err := fsys.ReadFile(second.BackupPath)
	require.NoError(t, err)
	assert.Equal(t, content, blob)

	entries, err := fsys.ReadDir("/data/blobs")
	require.NoError(t, err)
	require.Len(t, entries, 1, "no temporary file left behind")

	require.NoError(t, fsys.WriteFile(target, []byte("changed\n"), 0644))
	require.NoError(t, a.ApplyRecord(ctx, second))
	data, err := fsys.ReadFile(target)
	require.NoError(t, err)
	assert.Equal(t, content, data)
}
