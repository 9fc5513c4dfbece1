// pkg/display/display_test.go
// TEST TYPE: Unit Test
// DEPENDENCIES: None
// PURPOSE: Test text and JSON rendering of snapshots and reports

package display_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/arthur-debert/snapback/pkg/display"
	"github.com/arthur-debert/snapback/pkg/errors"
	"github.com/arthur-debert/snapback/pkg/restore"
	"github.com/arthur-debert/snapback/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleSnapshot() *types.Snapshot {
	return &types.Snapshot{
		ID:          "snap-0001",
		CreatedAt:   time.Date(2025, 5, 1, 9, 30, 0, 0, time.UTC),
		Description: "before tuning",
		Entries: []types.ChangeRecord{
			&types.RegistryValueChange{Root: types.RootLocalMachine, Path: `SOFTWARE\Contoso`, ValueName: "Foo",
				ExistedBefore: true, OriginalValue: uint32(1), OriginalValueKind: types.KindPtr(types.KindDWord)},
			&types.RegistryValueChange{Root: types.RootLocalMachine, Path: `SOFTWARE\Contoso`, ValueName: "Bar"},
			&types.ServiceChange{ServiceName: "SysMain", ExistedBefore: true, OriginalStartMode: types.StartManual, OriginalRunState: types.StateRunning},
			&types.DnsChange{InterfaceName: "Ethernet", ExistedBefore: true, OriginalServers: []string{"1.1.1.1", "8.8.8.8"}},
		},
	}
}

func TestDescribe(t *testing.T) {
	tests := []struct {
		rec  types.ChangeRecord
		want string
	}{
		{&types.RegistryValueChange{ExistedBefore: true, OriginalValue: "x", OriginalValueKind: types.KindPtr(types.KindString)}, "String x"},
		{&types.RegistryValueChange{}, display.Absent},
		{&types.NetworkParamChange{ExistedBefore: true, OriginalValue: uint32(10), OriginalValueKind: types.KindPtr(types.KindDWord)}, "DWord 10 (0x0000000a)"},
		{&types.ServiceChange{ExistedBefore: true, OriginalStartMode: types.StartAuto, OriginalRunState: types.StateStopped}, "start=Auto state=Stopped"},
		{&types.PowerSettingChange{ExistedBefore: true, OriginalValue: "Power Scheme GUID: 381b (Balanced)\r\nmore"}, "Power Scheme GUID: 381b (Balanced)"},
		{&types.DnsChange{ExistedBefore: true, WasDhcp: true, OriginalServers: []string{}}, "DHCP"},
		{&types.TcpIpGlobalChange{ExistedBefore: true}, "(unknown)"},
		{&types.TcpIpGlobalChange{ExistedBefore: true, OriginalValue: "normal"}, "normal"},
		{&types.FileChange{ExistedBefore: true, SHA256: "0123456789abcdef", Mode: 0o644}, "sha256:0123456789ab mode:0644"},
	}
	for i, tt := range tests {
		t.Run(fmt.Sprintf("%d_%s", i, tt.rec.Kind()), func(t *testing.T) {
			assert.Equal(t, tt.want, display.Describe(tt.rec))
		})
	}
}

func TestSnapshotList_Text(t *testing.T) {
	var buf bytes.Buffer
	r := display.New(&buf, display.FormatText)

	require.NoError(t, r.SnapshotList(nil))
	assert.Equal(t, "No snapshots\n", buf.String())

	buf.Reset()
	second := sampleSnapshot()
	second.ID = "snap-0002"
	second.Description = ""
	require.NoError(t, r.SnapshotList([]*types.Snapshot{second, sampleSnapshot()}))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3)
	assert.True(t, strings.HasPrefix(lines[0], "ID"))
	assert.True(t, strings.HasPrefix(lines[1], "snap-0002"))
	assert.True(t, strings.HasSuffix(lines[2], "before tuning"))
	assert.NotContains(t, buf.String(), "\x1b[")
}

func TestSnapshotList_JSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, display.New(&buf, display.FormatJSON).SnapshotList([]*types.Snapshot{sampleSnapshot()}))

	var got []map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	require.Len(t, got, 1)
	assert.Equal(t, "snap-0001", got[0]["id"])
	assert.Equal(t, float64(4), got[0]["entries"])
	assert.Equal(t, float64(2), got[0]["counts"].(map[string]any)["registry"])
}

func TestSnapshot_Text(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, display.New(&buf, display.FormatText).Snapshot(sampleSnapshot()))

	out := buf.String()
	assert.Contains(t, out, "Snapshot snap-0001")
	assert.Contains(t, out, "Description: before tuning")
	assert.Contains(t, out, "2 registry, 1 service, 1 dns")
	assert.Contains(t, out, `HKLM\SOFTWARE\Contoso\Foo`)
	assert.Contains(t, out, "(absent)")
	assert.Contains(t, out, "start=Manual state=Running")
	assert.Contains(t, out, "1.1.1.1, 8.8.8.8")
}

func TestSnapshot_JSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, display.New(&buf, display.FormatJSON).Snapshot(sampleSnapshot()))

	var got struct {
		ID    string `json:"id"`
		Items []struct {
			Kind    string `json:"kind"`
			Existed bool   `json:"existed"`
			Before  string `json:"before"`
		} `json:"items"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	assert.Equal(t, "snap-0001", got.ID)
	require.Len(t, got.Items, 4)
	assert.Equal(t, "registry", got.Items[1].Kind)
	assert.False(t, got.Items[1].Existed)
}

func sampleReport() *restore.Report {
	rep := restore.NewReport("snap-0001")
	rep.Restored(types.RecordRegistry)
	rep.Restored(types.RecordRegistry)
	rep.Failed(types.RecordService, "service SysMain", errors.New(errors.ErrApply, "access denied"))
	rep.Skipped(types.RecordDNS)
	rep.Advisory = append(rep.Advisory, `power setting "active" was not reapplied`)
	return rep
}

func TestReport_Text(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, display.New(&buf, display.FormatText).Report("Restore of snap-0001", sampleReport()))

	out := buf.String()
	assert.Contains(t, out, "Restore of snap-0001")
	assert.Contains(t, out, "Registry values")
	assert.Contains(t, out, "Completed with failures: 2 restored, 1 failed, 1 skipped")
	assert.Contains(t, out, "service SysMain: access denied")
	assert.Contains(t, out, "was not reapplied")
	assert.Contains(t, out, "A restart is recommended")
}

func TestReport_DryRunAndCancelled(t *testing.T) {
	rep := restore.NewReport("snap-0001")
	rep.DryRun = true
	rep.Cancelled = true
	rep.Skipped(types.RecordRegistry)

	var buf bytes.Buffer
	require.NoError(t, display.New(&buf, display.FormatText).Report("Restore", rep))
	out := buf.String()
	assert.Contains(t, out, "Restore (dry run)")
	assert.Contains(t, out, "Cancelled: 0 restored, 0 failed, 1 skipped")
	assert.NotContains(t, out, "restart")
}

func TestReport_JSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, display.New(&buf, display.FormatJSON).Report("ignored", sampleReport()))

	var got struct {
		SnapshotID string `json:"snapshotId"`
		Failures   []struct {
			Identity string `json:"identity"`
			Error    string `json:"error"`
		} `json:"failures"`
		RestartRecommended bool `json:"restartRecommended"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	assert.Equal(t, "snap-0001", got.SnapshotID)
	require.Len(t, got.Failures, 1)
	assert.Equal(t, "access denied", got.Failures[0].Error)
	assert.True(t, got.RestartRecommended)
}

func TestTerminalFormatRendersContent(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, display.New(&buf, display.FormatTerminal).SnapshotList([]*types.Snapshot{sampleSnapshot()}))
	assert.Contains(t, buf.String(), "snap-0001")
	assert.Contains(t, buf.String(), "before tuning")
}

func TestParseStyles(t *testing.T) {
	styles := display.DefaultStyles()
	for _, name := range []string{"Title", "Heading", "Muted", "Success", "Error", "Warning", "Identity", "Absent"} {
		assert.Contains(t, styles, name)
	}
	assert.Equal(t, "plain", styles.Render("NoSuchStyle", "plain"))

	_, err := display.ParseStyles([]byte("styles:\n  X: {foreground: nope}\n"))
	assert.Error(t, err)
	_, err = display.ParseStyles([]byte("colors: ["))
	assert.Error(t, err)
}

func TestParseFormat(t *testing.T) {
	for in, want := range map[string]display.Format{
		"":      display.FormatAuto,
		"term":  display.FormatTerminal,
		"plain": display.FormatText,
		"JSON":  display.FormatJSON,
	} {
		got, err := display.ParseFormat(in)
		require.NoError(t, err)
		assert.Equal(t, want, got)
		assert.NotEqual(t, "unknown", got.String())
	}
	_, err := display.ParseFormat("xml")
	assert.Error(t, err)
}
