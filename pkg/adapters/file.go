package adapters

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	stderrors "errors"
	"io/fs"
	"path/filepath"

	"github.com/arthur-debert/snapback/pkg/errors"
	"github.com/arthur-debert/snapback/pkg/filesystem"
	"github.com/arthur-debert/snapback/pkg/logging"
	"github.com/arthur-debert/snapback/pkg/types"
	"github.com/rs/zerolog"
)

// FileBlob references a file's content in the blob directory
type FileBlob struct {
	BackupPath string
	SHA256     string
	Mode       fs.FileMode
}

// FileAdapter captures whole files into a content-addressed blob
// directory and writes them back on apply
type FileAdapter struct {
	fs      types.FS
	blobDir string
	logger  zerolog.Logger
}

// NewFile creates a file adapter storing blobs under blobDir
func NewFile(fsys types.FS, blobDir string) *FileAdapter {
	return &FileAdapter{fs: fsys, blobDir: blobDir, logger: logging.GetLogger("adapters.file")}
}

// Capture copies the current content into the blob directory. A missing
// file is Existed=false.
func (a *FileAdapter) Capture(ctx context.Context, path string) (Captured, error) {
	if err := ctx.Err(); err != nil {
		return Captured{}, errors.Wrapf(err, errors.ErrCapture, "capture of %s cancelled", path)
	}
	info, err := a.fs.Stat(path)
	if err != nil {
		if stderrors.Is(err, fs.ErrNotExist) {
			return Captured{}, nil
		}
		return Captured{}, errors.Wrapf(err, errors.ErrCapture, "failed to stat %s", path)
	}
	if info.IsDir() {
		return Captured{}, errors.Newf(errors.ErrCapture, "%s is a directory", path)
	}
	data, err := a.fs.ReadFile(path)
	if err != nil {
		return Captured{}, errors.Wrapf(err, errors.ErrCapture, "failed to read %s", path)
	}

	digest := sha256Hex(data)
	blob := filepath.Join(a.blobDir, digest)

	if err := a.storeBlob(blob, digest, data); err != nil {
		return Captured{}, errors.Wrapf(err, errors.ErrCapture, "failed to back up %s", path)
	}

	return Captured{
		Existed: true,
		Value:   FileBlob{BackupPath: blob, SHA256: digest, Mode: info.Mode().Perm()},
	}, nil
}

// Apply writes the backed-up content to path, or removes path when the
// file did not exist at capture time
func (a *FileAdapter) Apply(ctx context.Context, path string, c Captured) error {
	if err := ctx.Err(); err != nil {
		return errors.Wrapf(err, errors.ErrApply, "restore of %s cancelled", path)
	}
	if !c.Existed {
		if err := a.fs.Remove(path); err != nil && !stderrors.Is(err, fs.ErrNotExist) {
			return errors.Wrapf(err, errors.ErrApply, "failed to remove %s", path)
		}
		return nil
	}

	blob, ok := c.Value.(FileBlob)
	if !ok || blob.BackupPath == "" {
		return errors.Newf(errors.ErrApply, "%s has no backup", path)
	}
	data, err := a.fs.ReadFile(blob.BackupPath)
	if err != nil {
		return errors.Wrapf(err, errors.ErrApply, "failed to read backup of %s", path)
	}
	if blob.SHA256 != "" {
		if sha256Hex(data) != blob.SHA256 {
			return errors.Newf(errors.ErrApply, "backup of %s is corrupt", path).
				WithDetail("blob", blob.BackupPath)
		}
	}

	mode := blob.Mode
	if mode == 0 {
		mode = 0644
	}
	if err := a.fs.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return errors.Wrapf(err, errors.ErrApply, "failed to create parent of %s", path)
	}
	if err := a.fs.WriteFile(path, data, mode); err != nil {
		return errors.Wrapf(err, errors.ErrApply, "failed to write %s", path)
	}
	a.logger.Debug().Str("path", path).Msg("File restored")
	return nil
}

// CaptureRecord captures path into a FileChange
func (a *FileAdapter) CaptureRecord(ctx context.Context, path string) (*types.FileChange, error) {
	c, err := a.Capture(ctx, path)
	if err != nil {
		return nil, err
	}
	rec := &types.FileChange{Path: path, ExistedBefore: c.Existed}
	if blob, ok := c.Value.(FileBlob); ok {
		rec.BackupPath = blob.BackupPath
		rec.SHA256 = blob.SHA256
		rec.Mode = uint32(blob.Mode)
	}
	return rec, nil
}

// ApplyRecord implements RecordApplier
func (a *FileAdapter) ApplyRecord(ctx context.Context, rec types.ChangeRecord) error {
	r, ok := rec.(*types.FileChange)
	if !ok {
		return wrongRecord(types.RecordFile, rec)
	}
	c := Captured{Existed: r.ExistedBefore}
	if r.ExistedBefore {
		c.Value = FileBlob{BackupPath: r.BackupPath, SHA256: r.SHA256, Mode: fs.FileMode(r.Mode)}
	}
	return a.Apply(ctx, r.Path, c)
}

// storeBlob makes blob hold data. An existing blob is reused only when its
// digest matches; anything else is rewritten through a temporary file.
func (a *FileAdapter) storeBlob(blob, digest string, data []byte) error {
	present, err := filesystem.Exists(a.fs, blob)
	if err != nil {
		return err
	}
	if present {
		existing, err := a.fs.ReadFile(blob)
		if err == nil && sha256Hex(existing) == digest {
			return nil
		}
		a.logger.Warn().Str("blob", blob).Msg("Existing blob is damaged; rewriting")
		_ = a.fs.Remove(blob)
	}
	if err := a.fs.MkdirAll(a.blobDir, 0755); err != nil {
		return err
	}
	tmp := blob + ".tmp"
	if err := a.fs.WriteFile(tmp, data, 0600); err != nil {
		return err
	}
	if err := a.fs.Rename(tmp, blob); err != nil {
		_ = a.fs.Remove(tmp)
		return err
	}
	return nil
}

func sha256Hex(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
