// pkg/types/records_test.go
// TEST TYPE: Unit Test
// DEPENDENCIES: None
// PURPOSE: Test change record identity and kind-preserving JSON decoding

package types_test

import (
	"encoding/json"
	"testing"

	"github.com/arthur-debert/snapback/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistryValueChange_RoundTripPreservesKind(t *testing.T) {
	tests := []struct {
		name  string
		kind  types.ValueKind
		value any
	}{
		{"string", types.KindString, "on"},
		{"expand_string", types.KindExpandString, `%TEMP%\x`},
		{"multi_string", types.KindMultiString, []string{"a", "", "c"}},
		{"multi_string_empty", types.KindMultiString, []string{}},
		{"dword_max", types.KindDWord, uint32(0xFFFFFFFF)},
		{"qword_above_float_precision", types.KindQWord, uint64(1)<<53 + 1},
		{"qword_max", types.KindQWord, uint64(18446744073709551615)},
		{"binary", types.KindBinary, []byte{0xde, 0xad, 0xbe, 0xef}},
		{"none", types.KindNone, []byte{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := &types.RegistryValueChange{
				Root:              types.RootLocalMachine,
				Path:              `SOFTWARE\Snapback`,
				ValueName:         "V",
				ExistedBefore:     true,
				OriginalValue:     tt.value,
				OriginalValueKind: types.KindPtr(tt.kind),
			}
			data, err := json.Marshal(in)
			require.NoError(t, err)

			var out types.RegistryValueChange
			require.NoError(t, json.Unmarshal(data, &out))
			require.NotNil(t, out.OriginalValueKind)
			assert.Equal(t, tt.kind, *out.OriginalValueKind)
			assert.Equal(t, tt.value, out.OriginalValue)
		})
	}
}

func TestRegistryValueChange_AbsentValue(t *testing.T) {
	in := &types.RegistryValueChange{Root: types.RootCurrentUser, Path: `Software\X`, ValueName: "Bar"}
	data, err := json.Marshal(in)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "originalValue")

	var out types.RegistryValueChange
	require.NoError(t, json.Unmarshal(data, &out))
	assert.False(t, out.Existed())
	assert.Nil(t, out.OriginalValue)
	assert.Nil(t, out.OriginalValueKind)
}

func TestRegistryValueChange_SignedDWordInDocument(t *testing.T) {
	doc := `{"root":"HKLM","path":"SOFTWARE\\X","valueName":"V","existedBefore":true,"originalValue":-1,"originalValueKind":"DWord"}`

	var out types.RegistryValueChange
	require.NoError(t, json.Unmarshal([]byte(doc), &out))
	assert.Equal(t, uint32(0xFFFFFFFF), out.OriginalValue)
}

func TestRegistryValueChange_KindMismatchFails(t *testing.T) {
	doc := `{"root":"HKLM","path":"X","valueName":"V","existedBefore":true,"originalValue":"abc","originalValueKind":"DWord"}`

	var out types.RegistryValueChange
	assert.Error(t, json.Unmarshal([]byte(doc), &out))
}

func TestNetworkParamChange_Decode(t *testing.T) {
	doc := `{"interfaceName":"SYSTEM","settingName":"NetworkThrottlingIndex","existedBefore":true,"originalValue":4294967295,"originalValueKind":"DWord"}`

	var out types.NetworkParamChange
	require.NoError(t, json.Unmarshal([]byte(doc), &out))
	assert.True(t, out.IsSystem())
	assert.Equal(t, uint32(0xFFFFFFFF), out.OriginalValue)
	assert.Equal(t, "network SYSTEM/NetworkThrottlingIndex", out.Identity())
}

func TestRecordKinds(t *testing.T) {
	records := []types.ChangeRecord{
		&types.RegistryValueChange{},
		&types.ServiceChange{},
		&types.PowerSettingChange{},
		&types.NetworkParamChange{},
		&types.DnsChange{},
		&types.TcpIpGlobalChange{},
		&types.FileChange{},
	}
	for i, r := range records {
		assert.Equal(t, types.AllRecordKinds[i], r.Kind())
		assert.NotEqual(t, string(r.Kind()), r.Kind().Label())
	}
}

func TestRegistryIdentity(t *testing.T) {
	assert.Equal(t, `HKLM\SOFTWARE\X\Foo`, types.RegistryIdentity(types.RootLocalMachine, `\SOFTWARE\X\`, "Foo"))
	assert.Equal(t, `HKCU\Software\X\(Default)`, types.RegistryIdentity(types.RootCurrentUser, `Software\X`, ""))
}

func TestSnapshot_Counts(t *testing.T) {
	s := &types.Snapshot{
		ID: "0192f0aa-1111-7000-8000-000000000000",
		Entries: []types.ChangeRecord{
			&types.RegistryValueChange{},
			&types.RegistryValueChange{},
			&types.ServiceChange{},
		},
	}
	counts := s.Counts()
	assert.Equal(t, 2, counts[types.RecordRegistry])
	assert.Equal(t, 1, counts[types.RecordService])
	assert.Equal(t, 0, counts[types.RecordDNS])
	assert.Equal(t, 3, s.Len())
}
