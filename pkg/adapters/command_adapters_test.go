// pkg/adapters/command_adapters_test.go
// TEST TYPE: Unit Test
// DEPENDENCIES: Scripted runner
// PURPOSE: Test DNS, TCP/IP and power adapters that parse command output

package adapters_test

import (
	"context"
	"strings"
	"testing"

	"github.com/arthur-debert/snapback/pkg/adapters"
	"github.com/arthur-debert/snapback/pkg/errors"
	"github.com/arthur-debert/snapback/pkg/runner"
	"github.com/arthur-debert/snapback/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const netshShowGlobal = `Querying active state...

TCP Global Parameters
----------------------------------------------
Receive-Side Scaling State          : enabled
Receive Window Auto-Tuning Level    : normal
Add-On Congestion Control Provider  : default
ECN Capability                      : disabled
RFC 1323 Timestamps                 : disabled
Initial RTO                         : 1000
Receive Segment Coalescing State    : enabled
Fast Open                           : enabled
`

func TestParseDNSJSON(t *testing.T) {
	tests := []struct {
		name string
		out  string
		want []adapters.DNSEntry
	}{
		{"empty", "  \r\n", nil},
		{
			"single_object",
			`{"InterfaceAlias":"Ethernet","ServerAddresses":["1.1.1.1","8.8.8.8"]}`,
			[]adapters.DNSEntry{{InterfaceAlias: "Ethernet", Servers: []string{"1.1.1.1", "8.8.8.8"}}},
		},
		{
			"array",
			`[{"InterfaceAlias":"Ethernet","ServerAddresses":[]},{"InterfaceAlias":"Wi-Fi","ServerAddresses":"9.9.9.9"}]`,
			[]adapters.DNSEntry{
				{InterfaceAlias: "Ethernet", Servers: []string{}},
				{InterfaceAlias: "Wi-Fi", Servers: []string{"9.9.9.9"}},
			},
		},
		{
			"null_servers",
			`{"InterfaceAlias":"vEthernet","ServerAddresses":null}`,
			[]adapters.DNSEntry{{InterfaceAlias: "vEthernet", Servers: []string{}}},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := adapters.ParseDNSJSON(tt.out)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := adapters.ParseDNSJSON("WARNING: not json")
	assert.Error(t, err)
}

func psScript(c runner.Call) string {
	return c.Args[len(c.Args)-1]
}

func TestDNSAdapter_Capture(t *testing.T) {
	f := runner.NewFake().Handle("powershell.exe", func(c runner.Call) runner.Response {
		script := psScript(c)
		switch {
		case strings.Contains(script, "'Ethernet'"):
			return runner.Response{Result: runner.Result{Stdout: `{"InterfaceAlias":"Ethernet","ServerAddresses":["1.1.1.1"]}`}}
		case strings.Contains(script, "'Wi-Fi'"):
			return runner.Response{Result: runner.Result{Stdout: `{"InterfaceAlias":"Wi-Fi","ServerAddresses":[]}`}}
		case strings.Contains(script, "Get-NetAdapter"):
			return runner.Response{Result: runner.Result{Stdout: `[{"InterfaceAlias":"Ethernet","ServerAddresses":["1.1.1.1"]},{"InterfaceAlias":"Wi-Fi","ServerAddresses":[]}]`}}
		}
		return runner.Response{}
	})
	a := adapters.NewDNS(f)
	ctx := context.Background()

	rec, err := a.CaptureRecord(ctx, "Ethernet")
	require.NoError(t, err)
	assert.True(t, rec.ExistedBefore)
	assert.False(t, rec.WasDhcp)
	assert.Equal(t, []string{"1.1.1.1"}, rec.OriginalServers)

	rec, err = a.CaptureRecord(ctx, "Wi-Fi")
	require.NoError(t, err)
	assert.True(t, rec.WasDhcp)
	assert.Empty(t, rec.OriginalServers)

	rec, err = a.CaptureRecord(ctx, "Missing")
	require.NoError(t, err)
	assert.False(t, rec.ExistedBefore)

	all, err := a.CaptureAllRecords(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "Wi-Fi", all[1].InterfaceName)
	assert.True(t, all[1].WasDhcp)
}

func TestDNSAdapter_Apply(t *testing.T) {
	ctx := context.Background()
	f := runner.NewFake()
	a := adapters.NewDNS(f)

	require.NoError(t, a.ApplyRecord(ctx, &types.DnsChange{
		InterfaceName: "Bob's LAN", ExistedBefore: true, OriginalServers: []string{"8.8.8.8", "1.1.1.1"},
	}))
	require.NoError(t, a.ApplyRecord(ctx, &types.DnsChange{
		InterfaceName: "Wi-Fi", ExistedBefore: true, WasDhcp: true,
	}))

	calls := f.Calls()
	require.Len(t, calls, 2)
	assert.Equal(t, "Set-DnsClientServerAddress -InterfaceAlias 'Bob''s LAN' -ServerAddresses ('8.8.8.8','1.1.1.1')", psScript(calls[0]))
	assert.Equal(t, "Set-DnsClientServerAddress -InterfaceAlias 'Wi-Fi' -ResetServerAddresses", psScript(calls[1]))

	failing := runner.NewFake().On("powershell.exe", runner.Result{ExitCode: 1, Stderr: "No MSFT_NetAdapter objects found"}, nil)
	err := adapters.NewDNS(failing).ApplyRecord(ctx, &types.DnsChange{InterfaceName: "Gone", ExistedBefore: true, WasDhcp: true})
	assert.True(t, errors.IsErrorCode(err, errors.ErrApply))
}

func TestParseTcpIpGlobal(t *testing.T) {
	tests := []struct {
		name  string
		want  string
		found bool
	}{
		{"autotuninglevel", "normal", true},
		{"rss", "enabled", true},
		{"congestionprovider", "default", true},
		{"ecncapability", "disabled", true},
		{"timestamps", "disabled", true},
		{"rsc", "enabled", true},
		{"fastopen", "enabled", true},
		{"chimney", "", false},
		{"Initial RTO", "1000", true},
		{"nosuchthing", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := adapters.ParseTcpIpGlobal(netshShowGlobal, tt.name)
			assert.Equal(t, tt.found, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestTcpIpAdapter(t *testing.T) {
	ctx := context.Background()
	f := runner.NewFake().On("netsh int tcp show global", runner.Result{Stdout: netshShowGlobal}, nil)
	a := adapters.NewTcpIp(f)

	recs, err := a.CaptureRecords(ctx, "autotuninglevel", "chimney")
	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.Equal(t, "normal", recs[0].OriginalValue)
	assert.Equal(t, netshShowGlobal, recs[0].RawCommandOutput)
	assert.Equal(t, "", recs[1].OriginalValue, "unparseable is recorded as unknown")
	assert.Equal(t, []string{"netsh int tcp show global"}, f.CallLines(), "one query for all settings")

	f.Reset()
	require.NoError(t, a.ApplyRecord(ctx, recs[0]))
	assert.Equal(t, []string{"netsh int tcp set global autotuninglevel=normal"}, f.CallLines())

	err = a.ApplyRecord(ctx, recs[1])
	assert.True(t, errors.IsErrorCode(err, errors.ErrApply))
	assert.Contains(t, err.Error(), "original value unknown")

	f.On("netsh int tcp set global rss", runner.Result{ExitCode: 1, Stdout: "The parameter is incorrect."}, nil)
	err = a.ApplyRecord(ctx, &types.TcpIpGlobalChange{SettingName: "rss", ExistedBefore: true, OriginalValue: "enabled"})
	assert.True(t, errors.IsErrorCode(err, errors.ErrApply))
}

func TestTcpIpAdapter_CaptureFailure(t *testing.T) {
	f := runner.NewFake().On("netsh", runner.Result{ExitCode: 1}, nil)
	_, err := adapters.NewTcpIp(f).CaptureRecord(context.Background(), "rss")
	assert.True(t, errors.IsErrorCode(err, errors.ErrCapture))
}

func TestPowerAdapter(t *testing.T) {
	ctx := context.Background()
	out := "Power Scheme GUID: 381b4222-f694-41f0-9685-ff5bb260df2e  (Balanced)\r\n"
	f := runner.NewFake().On("powercfg /getactivescheme", runner.Result{Stdout: out}, nil)
	a := adapters.NewPower(f)

	rec, err := a.CaptureRecord(ctx, adapters.PowerID{Type: "ActiveScheme"})
	require.NoError(t, err)
	assert.Equal(t, out, rec.OriginalValue)
	assert.Equal(t, "ActiveScheme", rec.SettingType)

	f.Reset()
	require.NoError(t, a.ApplyRecord(ctx, rec))
	assert.Empty(t, f.Calls(), "power restore is advisory")
	assert.Contains(t, a.Advisory(rec), "Balanced")

	f.On("powercfg /query", runner.Result{ExitCode: 1}, nil)
	_, err = a.CaptureRecord(ctx, adapters.PowerID{Type: "Scheme", Args: []string{"/query"}})
	assert.True(t, errors.IsErrorCode(err, errors.ErrCapture))
}
