// Package paths provides centralized path handling for snapback.
// It implements XDG Base Directory specification compliance and
// provides a consistent API for all path operations in the codebase.
package paths

import (
	"os"
	"path/filepath"

	"github.com/adrg/xdg"
	"github.com/arthur-debert/snapback/pkg/errors"
)

// Environment variable names
const (
	// EnvDataDir overrides the XDG data directory for snapback
	EnvDataDir = "SNAPBACK_DATA_DIR"

	// EnvConfigDir overrides the XDG config directory for snapback
	EnvConfigDir = "SNAPBACK_CONFIG_DIR"

	// EnvStateDir overrides the XDG state directory for snapback
	EnvStateDir = "SNAPBACK_STATE_DIR"

	// EnvHome is the standard home directory variable
	EnvHome = "HOME"
)

// Default directories and files. These define the on-disk layout of the
// snapshot store and are not user-configurable.
const (
	// AppDirName is the directory name for snapback-specific files
	AppDirName = "snapback"

	// SnapshotsDir is the subdirectory holding snapshot documents
	SnapshotsDir = "snapshots"

	// BlobsDir is the subdirectory holding content-addressed file backups
	BlobsDir = "blobs"

	// ConfigFileName is the name of the user configuration file
	ConfigFileName = "snapback.toml"

	// LogFileName is the name of the log file
	LogFileName = "snapback.log"
)

// Paths provides centralized path management for snapback
type Paths interface {
	DataDir() string
	ConfigDir() string
	StateDir() string
	SnapshotDir() string
	BlobDir() string
	ConfigFilePath() string
	LogFilePath() string
}

type paths struct {
	xdgData   string
	xdgConfig string
	xdgState  string
}

// New creates a new Paths instance. dataDir, when non-empty, overrides both
// the environment and the XDG default for the data directory.
func New(dataDir string) (Paths, error) {
	p := &paths{}
	p.setupXDGDirs()

	if dataDir != "" {
		p.xdgData = expandHome(dataDir)
	}

	for _, dir := range []*string{&p.xdgData, &p.xdgConfig, &p.xdgState} {
		abs, err := filepath.Abs(*dir)
		if err != nil {
			return nil, errors.Wrapf(err, errors.ErrInvalidInput, "failed to get absolute path for %s", *dir)
		}
		*dir = abs
	}

	return p, nil
}

// setupXDGDirs initializes XDG directories, respecting environment overrides
func (p *paths) setupXDGDirs() {
	if dataDir := os.Getenv(EnvDataDir); dataDir != "" {
		p.xdgData = expandHome(dataDir)
	} else {
		p.xdgData = filepath.Join(xdg.DataHome, AppDirName)
	}

	if configDir := os.Getenv(EnvConfigDir); configDir != "" {
		p.xdgConfig = expandHome(configDir)
	} else {
		p.xdgConfig = filepath.Join(xdg.ConfigHome, AppDirName)
	}

	// XDG doesn't always expose StateHome on older platforms, so check manually
	switch {
	case os.Getenv(EnvStateDir) != "":
		p.xdgState = expandHome(os.Getenv(EnvStateDir))
	case os.Getenv("XDG_STATE_HOME") != "":
		p.xdgState = filepath.Join(os.Getenv("XDG_STATE_HOME"), AppDirName)
	default:
		homeDir, _ := os.UserHomeDir()
		p.xdgState = filepath.Join(homeDir, ".local", "state", AppDirName)
	}
}

// expandHome expands ~ to the home directory
func expandHome(path string) string {
	if path == "" || path[0] != '~' {
		return path
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		homeDir = os.Getenv(EnvHome)
		if homeDir == "" {
			return path
		}
	}

	if len(path) == 1 {
		return homeDir
	}

	if path[1] == '/' || path[1] == filepath.Separator {
		return filepath.Join(homeDir, path[2:])
	}

	// ~something (not the user's home)
	return path
}

// ExpandHome is the exported form of expandHome
func ExpandHome(path string) string {
	return expandHome(path)
}

func (p *paths) DataDir() string {
	return p.xdgData
}

func (p *paths) ConfigDir() string {
	return p.xdgConfig
}

func (p *paths) StateDir() string {
	return p.xdgState
}

// SnapshotDir returns the directory holding persisted snapshot documents
func (p *paths) SnapshotDir() string {
	return filepath.Join(p.xdgData, SnapshotsDir)
}

// BlobDir returns the directory holding file backups referenced by snapshots
func (p *paths) BlobDir() string {
	return filepath.Join(p.xdgData, BlobsDir)
}

func (p *paths) ConfigFilePath() string {
	return filepath.Join(p.xdgConfig, ConfigFileName)
}

func (p *paths) LogFilePath() string {
	return filepath.Join(p.xdgState, LogFileName)
}
