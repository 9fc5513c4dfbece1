// pkg/testutil/environment.go
// DEPENDENCIES: adapters, snapshot, store, in-memory backends
// PURPOSE: Build an isolated capture/restore environment for tests

package testutil

import (
	"testing"
	"time"

	"github.com/arthur-debert/snapback/pkg/adapters"
	"github.com/arthur-debert/snapback/pkg/filesystem"
	"github.com/arthur-debert/snapback/pkg/idgen"
	"github.com/arthur-debert/snapback/pkg/runner"
	"github.com/arthur-debert/snapback/pkg/snapshot"
	"github.com/arthur-debert/snapback/pkg/store"
	"github.com/arthur-debert/snapback/pkg/types"
	"github.com/arthur-debert/snapback/pkg/winreg"
	"github.com/stretchr/testify/require"
)

const (
	SnapshotDir = "/data/snapshots"
	BlobDir     = "/data/blobs"
)

// FixedTime is the clock value used when WithFixedClock is set.
var FixedTime = time.Date(2025, 5, 1, 9, 30, 0, 0, time.UTC)

// Option tweaks an Environment before its manager is built
type Option func(*settings)

type settings struct {
	validate bool
	clock    func() time.Time
}

// WithoutSchema disables schema validation in the store.
func WithoutSchema() Option {
	return func(s *settings) { s.validate = false }
}

// WithFixedClock stamps every session with FixedTime.
func WithFixedClock() Option {
	return func(s *settings) { s.clock = func() time.Time { return FixedTime } }
}

// Environment holds every dependency needed to capture and restore in memory
type Environment struct {
	FS      types.FS
	Keys    *winreg.Memory
	Runner  *runner.Fake
	Set     *adapters.Set
	Store   *store.FileStore
	Manager *snapshot.Manager

	t *testing.T
}

// NewEnvironment builds an environment with schema validation on and
// sequential snapshot ids ("snap-0001", "snap-0002", ...).
func NewEnvironment(t *testing.T, opts ...Option) *Environment {
	t.Helper()

	cfg := settings{validate: true}
	for _, o := range opts {
		o(&cfg)
	}

	fsys := filesystem.NewMemory()
	st, err := store.New(fsys, SnapshotDir, store.Options{ValidateSchema: cfg.validate})
	require.NoError(t, err)

	env := &Environment{
		FS:     fsys,
		Keys:   winreg.NewMemory(),
		Runner: runner.NewFake(),
		Store:  st,
		t:      t,
	}
	env.Set = adapters.NewSet(adapters.Options{Runner: env.Runner, Keys: env.Keys, FS: fsys, BlobDir: BlobDir})
	env.Manager = snapshot.NewManager(env.Set, st, snapshot.Options{
		IDGenerator: idgen.Sequence("snap"),
		Clock:       cfg.clock,
	})
	return env
}

// SetDWord writes a REG_DWORD value, failing the test on error.
func (e *Environment) SetDWord(root types.Root, path, name string, v uint32) {
	e.t.Helper()
	require.NoError(e.t, e.Keys.Set(root, path, name, winreg.Value{Kind: types.KindDWord, Data: v}))
}

// SetString writes a REG_SZ value.
func (e *Environment) SetString(root types.Root, path, name, v string) {
	e.t.Helper()
	require.NoError(e.t, e.Keys.Set(root, path, name, winreg.Value{Kind: types.KindString, Data: v}))
}

// Value reads a registry value; ok is false when it is absent.
func (e *Environment) Value(root types.Root, path, name string) (winreg.Value, bool) {
	e.t.Helper()
	v, ok, err := e.Keys.Get(root, path, name)
	require.NoError(e.t, err)
	return v, ok
}
