// pkg/store/store_test.go
// TEST TYPE: Unit Test
// DEPENDENCIES: In-memory filesystem
// PURPOSE: Test snapshot persistence, listing and corrupt-document tolerance

package store_test

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/arthur-debert/snapback/pkg/errors"
	"github.com/arthur-debert/snapback/pkg/filesystem"
	"github.com/arthur-debert/snapback/pkg/store"
	"github.com/arthur-debert/snapback/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const dir = "/data/snapshots"

func newStore(t *testing.T, validate bool) (*store.FileStore, types.FS) {
	t.Helper()
	fsys := filesystem.NewMemory()
	s, err := store.New(fsys, dir, store.Options{ValidateSchema: validate})
	require.NoError(t, err)
	return s, fsys
}

func fullSnapshot(id string, at time.Time) *types.Snapshot {
	return &types.Snapshot{
		ID:          id,
		CreatedAt:   at,
		Description: "gaming tweaks",
		Entries: []types.ChangeRecord{
			&types.ServiceChange{ServiceName: "SysMain", ExistedBefore: true, OriginalStartMode: types.StartAuto, OriginalRunState: types.StateRunning},
			&types.RegistryValueChange{Root: types.RootLocalMachine, Path: `SOFTWARE\X`, ValueName: "Foo", ExistedBefore: true,
				OriginalValue: uint32(1), OriginalValueKind: types.KindPtr(types.KindDWord)},
			&types.RegistryValueChange{Root: types.RootCurrentUser, Path: `Software\X`, ValueName: "Big", ExistedBefore: true,
				OriginalValue: uint64(1)<<63 + 5, OriginalValueKind: types.KindPtr(types.KindQWord)},
			&types.RegistryValueChange{Root: types.RootCurrentUser, Path: `Software\X`, ValueName: "Bar"},
			&types.PowerSettingChange{SettingType: "ActiveScheme", ExistedBefore: true, OriginalValue: "Balanced"},
			&types.NetworkParamChange{InterfaceName: types.SystemInterface, SettingName: "NetworkThrottlingIndex", ExistedBefore: true,
				OriginalValue: uint32(10), OriginalValueKind: types.KindPtr(types.KindDWord)},
			&types.DnsChange{InterfaceName: "Ethernet", ExistedBefore: true, OriginalServers: []string{"1.1.1.1", "8.8.8.8"}},
			&types.DnsChange{InterfaceName: "Wi-Fi", ExistedBefore: true, WasDhcp: true, OriginalServers: []string{}},
			&types.TcpIpGlobalChange{SettingName: "autotuninglevel", ExistedBefore: true, OriginalValue: "normal"},
			&types.FileChange{Path: "/etc/hosts", ExistedBefore: true, BackupPath: "/b/x",
				SHA256: "0000000000000000000000000000000000000000000000000000000000000000", Mode: 0644},
			&types.RegistryValueChange{Root: types.RootCurrentUser, Path: `Software\X`, ValueName: "Multi", ExistedBefore: true,
				OriginalValue: []string{"a", "b"}, OriginalValueKind: types.KindPtr(types.KindMultiString)},
		},
	}
}

func TestPersistLoad_RoundTrip(t *testing.T) {
	s, _ := newStore(t, true)
	at := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	snap := fullSnapshot("snap-0001", at)

	path, err := s.Persist(snap)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "snapshot_snap-0001.json"), path)

	got, err := s.Load("snap-0001")
	require.NoError(t, err)
	assert.Equal(t, snap.ID, got.ID)
	assert.Equal(t, snap.Description, got.Description)
	assert.True(t, at.Equal(got.CreatedAt))
	require.Len(t, got.Entries, len(snap.Entries))

	// Capture order survives the per-kind grouping
	for i := range snap.Entries {
		assert.Equal(t, snap.Entries[i], got.Entries[i], "entry %d", i)
	}
}

func TestPersist_RefusesOverwrite(t *testing.T) {
	s, _ := newStore(t, false)
	snap := &types.Snapshot{ID: "dup", CreatedAt: time.Now()}

	_, err := s.Persist(snap)
	require.NoError(t, err)
	_, err = s.Persist(snap)
	assert.True(t, errors.IsErrorCode(err, errors.ErrAlreadyExists))
}

func TestPersist_EmptySnapshot(t *testing.T) {
	s, _ := newStore(t, true)
	_, err := s.Persist(&types.Snapshot{ID: "empty", CreatedAt: time.Now()})
	require.NoError(t, err)

	got, err := s.Load("empty")
	require.NoError(t, err)
	assert.Equal(t, 0, got.Len())
}

func TestLoad_Errors(t *testing.T) {
	s, fsys := newStore(t, true)

	_, err := s.Load("missing")
	assert.True(t, errors.IsErrorCode(err, errors.ErrNotFound))

	_, err = s.Load("../escape")
	assert.True(t, errors.IsErrorCode(err, errors.ErrInvalidInput))

	require.NoError(t, fsys.MkdirAll(dir, 0755))
	require.NoError(t, fsys.WriteFile(s.Path("trunc"), []byte(`{"id":"trunc","createdAt":"2025-`), 0644))
	_, err = s.Load("trunc")
	assert.True(t, errors.IsErrorCode(err, errors.ErrStoreCorrupt))

	bad := `{"id":"bad","createdAt":"2025-01-01T00:00:00Z","registryChanges":[{"root":"HKCR","path":"x","valueName":"y","existedBefore":false}]}`
	require.NoError(t, fsys.WriteFile(s.Path("bad"), []byte(bad), 0644))
	_, err = s.Load("bad")
	assert.True(t, errors.IsErrorCode(err, errors.ErrStoreCorrupt))
}

func TestList_SkipsCorruptDocuments(t *testing.T) {
	s, fsys := newStore(t, true)
	_, err := s.Persist(fullSnapshot("good", time.Now()))
	require.NoError(t, err)

	require.NoError(t, fsys.WriteFile(s.Path("broken"), []byte(`{"id":"broken","registryChanges":[{"root":`), 0644))
	require.NoError(t, fsys.WriteFile(filepath.Join(dir, "notes.txt"), []byte("ignored"), 0644))

	snaps, err := s.List()
	require.NoError(t, err)
	require.Len(t, snaps, 1)
	assert.Equal(t, "good", snaps[0].ID)
}

func TestList_MostRecentFirst(t *testing.T) {
	s, _ := newStore(t, false)
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	for i, id := range []string{"a", "b", "c"} {
		_, err := s.Persist(&types.Snapshot{ID: id, CreatedAt: base.Add(time.Duration(i) * time.Hour)})
		require.NoError(t, err)
	}
	_, err := s.Persist(&types.Snapshot{ID: "d", CreatedAt: base.Add(2 * time.Hour)})
	require.NoError(t, err)

	snaps, err := s.List()
	require.NoError(t, err)
	ids := make([]string, len(snaps))
	for i, snap := range snaps {
		ids[i] = snap.ID
	}
	assert.Equal(t, []string{"d", "c", "b", "a"}, ids)
}

func TestList_MissingDirectory(t *testing.T) {
	s, _ := newStore(t, false)
	snaps, err := s.List()
	require.NoError(t, err)
	assert.Empty(t, snaps)
}

func TestDecode_ToleratesUnknownFieldsAndMissingSeq(t *testing.T) {
	doc := `{
	  "id": "legacy",
	  "createdAt": "2024-06-01T10:00:00Z",
	  "description": "older writer",
	  "futureField": {"x": 1},
	  "serviceChanges": [{"serviceName": "Spooler", "existedBefore": true, "originalStartMode": "Manual", "originalRunState": "Stopped", "note": "?"}],
	  "registryChanges": [{"root": "HKLM", "path": "SOFTWARE\\X", "valueName": "V", "existedBefore": true, "originalValue": 5, "originalValueKind": "QWord"}]
	}`

	snap, err := store.Decode([]byte(doc))
	require.NoError(t, err)
	require.Len(t, snap.Entries, 2)

	// Without seq, entries load in kind order
	reg, ok := snap.Entries[0].(*types.RegistryValueChange)
	require.True(t, ok)
	assert.Equal(t, uint64(5), reg.OriginalValue)
	svc, ok := snap.Entries[1].(*types.ServiceChange)
	require.True(t, ok)
	assert.Equal(t, types.StartManual, svc.OriginalStartMode)
}

func TestDecode_MissingOptionalValueIsNotCaptured(t *testing.T) {
	doc := `{"id":"x","createdAt":"2024-06-01T10:00:00Z","registryChanges":[{"root":"HKCU","path":"S","valueName":"Bar","existedBefore":false}]}`

	snap, err := store.Decode([]byte(doc))
	require.NoError(t, err)
	rec := snap.Entries[0].(*types.RegistryValueChange)
	assert.False(t, rec.ExistedBefore)
	assert.Nil(t, rec.OriginalValue)
	assert.Nil(t, rec.OriginalValueKind)
}

func TestLoad_MissingExistedBeforeIsCorrupt(t *testing.T) {
	entries := map[string]string{
		"service": `"serviceChanges":[{"serviceName":"Spooler","originalStartMode":"Auto","originalRunState":"Running"}]`,
		"dns":     `"dnsSettings":[{"interfaceName":"Ethernet","wasDhcp":true,"originalServers":[]}]`,
		"tcpip":   `"tcpIpSettings":[{"settingName":"autotuninglevel","originalValue":"normal"}]`,
		"power":   `"powerSettings":[{"settingType":"ActiveScheme","originalValue":"Balanced"}]`,
	}

	for name, body := range entries {
		for _, validate := range []bool{true, false} {
			s, fsys := newStore(t, validate)
			doc := `{"id":"old","createdAt":"2025-01-01T00:00:00Z",` + body + `}`
			require.NoError(t, fsys.WriteFile(s.Path("old"), []byte(doc), 0644))

			_, err := s.Load("old")
			require.Error(t, err, "%s, schema=%v", name, validate)
			assert.True(t, errors.IsErrorCode(err, errors.ErrStoreCorrupt), "%s, schema=%v", name, validate)
		}
	}
}

func TestLoad_DocumentIDMustMatchFileName(t *testing.T) {
	s, fsys := newStore(t, true)
	path, err := s.Persist(fullSnapshot("original-id", time.Now()))
	require.NoError(t, err)

	data, err := fsys.ReadFile(path)
	require.NoError(t, err)
	require.NoError(t, fsys.WriteFile(s.Path("copied"), data, 0644))

	_, err = s.Load("copied")
	assert.True(t, errors.IsErrorCode(err, errors.ErrStoreCorrupt))

	snaps, err := s.List()
	require.NoError(t, err)
	require.Len(t, snaps, 1)
	assert.Equal(t, "original-id", snaps[0].ID)
}

func TestDelete(t *testing.T) {
	s, _ := newStore(t, false)
	_, err := s.Persist(&types.Snapshot{ID: "gone", CreatedAt: time.Now()})
	require.NoError(t, err)

	require.NoError(t, s.Delete("gone"))
	_, err = s.Load("gone")
	assert.True(t, errors.IsErrorCode(err, errors.ErrNotFound))
	assert.True(t, errors.IsErrorCode(s.Delete("gone"), errors.ErrNotFound))
}
