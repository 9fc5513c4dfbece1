package store

import (
	stderrors "errors"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"

	"github.com/arthur-debert/snapback/pkg/errors"
	"github.com/arthur-debert/snapback/pkg/filesystem"
	"github.com/arthur-debert/snapback/pkg/idgen"
	"github.com/arthur-debert/snapback/pkg/logging"
	"github.com/arthur-debert/snapback/pkg/types"
	"github.com/rs/zerolog"
	"github.com/santhosh-tekuri/jsonschema/v5"
)

const (
	filePrefix = "snapshot_"
	fileSuffix = ".json"
)

// Store persists and retrieves snapshots
type Store interface {
	// Persist writes a new document and returns its path. Existing
	// identifiers are never overwritten.
	Persist(snap *types.Snapshot) (string, error)
	// Load reads one snapshot; NOT_FOUND if absent, STORE_CORRUPT if
	// unreadable
	Load(id string) (*types.Snapshot, error)
	// List returns every readable snapshot, most recent first
	List() ([]*types.Snapshot, error)
	// Delete removes a snapshot document
	Delete(id string) error
}

// Options configures a FileStore
type Options struct {
	// ValidateSchema checks documents against the embedded JSON schema on
	// load and before writing
	ValidateSchema bool
}

// FileStore is a Store backed by one JSON file per snapshot
type FileStore struct {
	fs     types.FS
	dir    string
	schema *jsonschema.Schema
	logger zerolog.Logger
}

// New creates a FileStore rooted at dir. The directory is created on the
// first Persist.
func New(fsys types.FS, dir string, opts Options) (*FileStore, error) {
	s := &FileStore{
		fs:     fsys,
		dir:    dir,
		logger: logging.GetLogger("store"),
	}
	if opts.ValidateSchema {
		schema, err := compileSchema()
		if err != nil {
			return nil, err
		}
		s.schema = schema
	}
	return s, nil
}

// Dir returns the snapshot directory
func (s *FileStore) Dir() string {
	return s.dir
}

// Path returns the document path for id
func (s *FileStore) Path(id string) string {
	return filepath.Join(s.dir, filePrefix+id+fileSuffix)
}

func (s *FileStore) checkID(id string) error {
	if !idgen.Valid(id) {
		return errors.Newf(errors.ErrInvalidInput, "invalid snapshot id %q", id)
	}
	return nil
}

// Persist implements Store. The document is written to a temporary file
// and renamed into place.
func (s *FileStore) Persist(snap *types.Snapshot) (string, error) {
	if err := s.checkID(snap.ID); err != nil {
		return "", err
	}
	path := s.Path(snap.ID)
	if exists, _ := filesystem.Exists(s.fs, path); exists {
		return "", errors.Newf(errors.ErrAlreadyExists, "snapshot %s already exists", snap.ID).
			WithDetail("path", path)
	}

	data, err := Encode(snap)
	if err != nil {
		return "", err
	}
	if s.schema != nil {
		if err := validate(s.schema, data); err != nil {
			return "", errors.Wrapf(err, errors.ErrInternal, "refusing to write invalid snapshot %s", snap.ID)
		}
	}

	if err := s.fs.MkdirAll(s.dir, 0755); err != nil {
		return "", errors.Wrap(err, errors.ErrStoreWrite, "failed to create snapshot directory")
	}
	tmp := filepath.Join(s.dir, "."+filePrefix+snap.ID+fileSuffix+".tmp")
	if err := s.fs.WriteFile(tmp, data, 0644); err != nil {
		return "", errors.Wrapf(err, errors.ErrStoreWrite, "failed to write snapshot %s", snap.ID)
	}
	if err := s.fs.Rename(tmp, path); err != nil {
		_ = s.fs.Remove(tmp)
		return "", errors.Wrapf(err, errors.ErrStoreWrite, "failed to write snapshot %s", snap.ID)
	}

	s.logger.Info().
		Str("id", snap.ID).
		Int("entries", snap.Len()).
		Str("path", path).
		Msg("Snapshot saved")
	return path, nil
}

// Load implements Store
func (s *FileStore) Load(id string) (*types.Snapshot, error) {
	if err := s.checkID(id); err != nil {
		return nil, err
	}
	path := s.Path(id)
	data, err := s.fs.ReadFile(path)
	if err != nil {
		if stderrors.Is(err, fs.ErrNotExist) {
			return nil, errors.Newf(errors.ErrNotFound, "snapshot %s not found", id).WithDetail("path", path)
		}
		return nil, errors.Wrapf(err, errors.ErrStoreCorrupt, "failed to read snapshot %s", id)
	}
	return s.decode(path, id, data)
}

// decode validates and parses data read from path. The document must
// carry the id its file name claims.
func (s *FileStore) decode(path, id string, data []byte) (*types.Snapshot, error) {
	if s.schema != nil {
		if err := validate(s.schema, data); err != nil {
			return nil, err
		}
	}
	snap, err := Decode(data)
	if err != nil {
		return nil, err
	}
	if snap.ID != id {
		return nil, errors.Newf(errors.ErrStoreCorrupt, "document %s claims id %q", path, snap.ID).
			WithDetail("expected", id)
	}
	s.logger.Trace().Str("path", path).Int("entries", snap.Len()).Msg("Snapshot decoded")
	return snap, nil
}

// List implements Store. Unreadable documents are logged and skipped.
func (s *FileStore) List() ([]*types.Snapshot, error) {
	entries, err := s.fs.ReadDir(s.dir)
	if err != nil {
		if stderrors.Is(err, fs.ErrNotExist) {
			return []*types.Snapshot{}, nil
		}
		return nil, errors.Wrap(err, errors.ErrStoreCorrupt, "failed to read snapshot directory")
	}

	snaps := make([]*types.Snapshot, 0, len(entries))
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasPrefix(name, filePrefix) || !strings.HasSuffix(name, fileSuffix) {
			continue
		}
		path := filepath.Join(s.dir, name)
		data, err := s.fs.ReadFile(path)
		if err != nil {
			s.logger.Warn().Err(err).Str("path", path).Msg("Skipping unreadable snapshot")
			continue
		}
		id := strings.TrimSuffix(strings.TrimPrefix(name, filePrefix), fileSuffix)
		snap, err := s.decode(path, id, data)
		if err != nil {
			s.logger.Warn().Err(err).Str("path", path).Msg("Skipping corrupt snapshot")
			continue
		}
		snaps = append(snaps, snap)
	}

	sort.SliceStable(snaps, func(i, j int) bool {
		if !snaps[i].CreatedAt.Equal(snaps[j].CreatedAt) {
			return snaps[i].CreatedAt.After(snaps[j].CreatedAt)
		}
		return snaps[i].ID > snaps[j].ID
	})
	return snaps, nil
}

// Delete implements Store
func (s *FileStore) Delete(id string) error {
	if err := s.checkID(id); err != nil {
		return err
	}
	path := s.Path(id)
	if err := s.fs.Remove(path); err != nil {
		if stderrors.Is(err, fs.ErrNotExist) {
			return errors.Newf(errors.ErrNotFound, "snapshot %s not found", id)
		}
		return errors.Wrapf(err, errors.ErrStoreWrite, "failed to delete snapshot %s", id)
	}
	s.logger.Info().Str("id", id).Msg("Snapshot deleted")
	return nil
}
