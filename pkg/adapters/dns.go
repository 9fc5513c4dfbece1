package adapters

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/arthur-debert/snapback/pkg/errors"
	"github.com/arthur-debert/snapback/pkg/logging"
	"github.com/arthur-debert/snapback/pkg/runner"
	"github.com/arthur-debert/snapback/pkg/types"
	"github.com/rs/zerolog"
)

// DNSState is an interface's DNS assignment. Servers is empty iff WasDhcp.
type DNSState struct {
	WasDhcp bool
	Servers []string
}

// DNSEntry is one adapter's DNS configuration as reported by PowerShell
type DNSEntry struct {
	InterfaceAlias string
	Servers        []string
}

// DNSAdapter captures and applies per-interface IPv4 DNS servers
type DNSAdapter struct {
	runner runner.Runner
	logger zerolog.Logger
}

// NewDNS creates a DNS adapter over r
func NewDNS(r runner.Runner) *DNSAdapter {
	return &DNSAdapter{runner: r, logger: logging.GetLogger("adapters.dns")}
}

const dnsSelect = "Select-Object InterfaceAlias,ServerAddresses | ConvertTo-Json -Compress"

// Interfaces lists the DNS configuration of every adapter that is up
func (a *DNSAdapter) Interfaces(ctx context.Context) ([]DNSEntry, error) {
	script := "Get-NetAdapter | Where-Object Status -eq 'Up' | " +
		"Get-DnsClientServerAddress -AddressFamily IPv4 -ErrorAction SilentlyContinue | " + dnsSelect
	return a.query(ctx, script)
}

// Capture reads one interface's servers. An unknown interface is
// Existed=false; an empty server list means DHCP.
func (a *DNSAdapter) Capture(ctx context.Context, iface string) (Captured, error) {
	script := fmt.Sprintf("Get-DnsClientServerAddress -InterfaceAlias %s -AddressFamily IPv4 -ErrorAction SilentlyContinue | %s",
		runner.QuotePS(iface), dnsSelect)
	entries, err := a.query(ctx, script)
	if err != nil {
		return Captured{}, err
	}
	for _, e := range entries {
		if strings.EqualFold(e.InterfaceAlias, iface) {
			return Captured{Existed: true, Value: stateOf(e)}, nil
		}
	}
	return Captured{}, nil
}

func stateOf(e DNSEntry) DNSState {
	servers := append([]string{}, e.Servers...)
	return DNSState{WasDhcp: len(servers) == 0, Servers: servers}
}

func (a *DNSAdapter) query(ctx context.Context, script string) ([]DNSEntry, error) {
	res, err := runner.RunPowerShell(ctx, a.runner, script)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCapture, "failed to query DNS configuration")
	}
	if !res.Success() {
		return nil, errors.Newf(errors.ErrCapture, "DNS query exited %d", res.ExitCode).
			WithDetail("stderr", strings.TrimSpace(res.Stderr))
	}
	entries, err := ParseDNSJSON(res.Stdout)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCapture, "failed to parse DNS configuration")
	}
	return entries, nil
}

type psDNSEntry struct {
	InterfaceAlias  string          `json:"InterfaceAlias"`
	ServerAddresses json.RawMessage `json:"ServerAddresses"`
}

// ParseDNSJSON parses ConvertTo-Json output, which is a single object for
// one adapter and an array for several. Empty output is no adapters.
func ParseDNSJSON(out string) ([]DNSEntry, error) {
	data := bytes.TrimSpace([]byte(out))
	if len(data) == 0 {
		return nil, nil
	}

	var raw []psDNSEntry
	if data[0] == '[' {
		if err := json.Unmarshal(data, &raw); err != nil {
			return nil, err
		}
	} else {
		var one psDNSEntry
		if err := json.Unmarshal(data, &one); err != nil {
			return nil, err
		}
		raw = []psDNSEntry{one}
	}

	entries := make([]DNSEntry, 0, len(raw))
	for _, r := range raw {
		servers, err := parseServers(r.ServerAddresses)
		if err != nil {
			return nil, fmt.Errorf("interface %s: %w", r.InterfaceAlias, err)
		}
		entries = append(entries, DNSEntry{InterfaceAlias: r.InterfaceAlias, Servers: servers})
	}
	return entries, nil
}

func parseServers(raw json.RawMessage) ([]string, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || string(raw) == "null" {
		return []string{}, nil
	}
	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return nil, err
		}
		if s == "" {
			return []string{}, nil
		}
		return []string{s}, nil
	}
	var list []string
	if err := json.Unmarshal(raw, &list); err != nil {
		return nil, err
	}
	if list == nil {
		list = []string{}
	}
	return list, nil
}

// Apply resets the interface to DHCP or sets the recorded servers in
// their original order
func (a *DNSAdapter) Apply(ctx context.Context, iface string, c Captured) error {
	if !c.Existed {
		a.logger.Info().Str("interface", iface).Msg("Interface had no DNS configuration; nothing to restore")
		return nil
	}
	state, ok := c.Value.(DNSState)
	if !ok {
		return errors.Newf(errors.ErrApply, "dns %s has no recorded state", iface)
	}

	script := "Set-DnsClientServerAddress -InterfaceAlias " + runner.QuotePS(iface)
	if state.WasDhcp || len(state.Servers) == 0 {
		script += " -ResetServerAddresses"
	} else {
		quoted := make([]string, len(state.Servers))
		for i, s := range state.Servers {
			quoted[i] = runner.QuotePS(s)
		}
		script += " -ServerAddresses (" + strings.Join(quoted, ",") + ")"
	}

	res, err := runner.RunPowerShell(ctx, a.runner, script)
	if err != nil {
		return errors.Wrapf(err, errors.ErrApply, "failed to restore DNS for %s", iface)
	}
	if !res.Success() {
		return errors.Newf(errors.ErrApply, "restoring DNS for %s exited %d", iface, res.ExitCode).
			WithDetail("stderr", strings.TrimSpace(res.Stderr))
	}
	a.logger.Debug().Str("interface", iface).Bool("dhcp", state.WasDhcp).Msg("DNS restored")
	return nil
}

// CaptureRecord captures iface into a DnsChange
func (a *DNSAdapter) CaptureRecord(ctx context.Context, iface string) (*types.DnsChange, error) {
	c, err := a.Capture(ctx, iface)
	if err != nil {
		return nil, err
	}
	return dnsRecord(iface, c), nil
}

// CaptureAllRecords captures every up adapter in one query
func (a *DNSAdapter) CaptureAllRecords(ctx context.Context) ([]*types.DnsChange, error) {
	entries, err := a.Interfaces(ctx)
	if err != nil {
		return nil, err
	}
	records := make([]*types.DnsChange, 0, len(entries))
	for _, e := range entries {
		records = append(records, dnsRecord(e.InterfaceAlias, Captured{Existed: true, Value: stateOf(e)}))
	}
	return records, nil
}

func dnsRecord(iface string, c Captured) *types.DnsChange {
	rec := &types.DnsChange{InterfaceName: iface, ExistedBefore: c.Existed, OriginalServers: []string{}}
	if state, ok := c.Value.(DNSState); ok {
		rec.WasDhcp = state.WasDhcp
		rec.OriginalServers = state.Servers
	}
	return rec
}

// ApplyRecord implements RecordApplier
func (a *DNSAdapter) ApplyRecord(ctx context.Context, rec types.ChangeRecord) error {
	r, ok := rec.(*types.DnsChange)
	if !ok {
		return wrongRecord(types.RecordDNS, rec)
	}
	servers := r.OriginalServers
	if servers == nil {
		servers = []string{}
	}
	return a.Apply(ctx, r.InterfaceName, Captured{
		Existed: r.ExistedBefore,
		Value:   DNSState{WasDhcp: r.WasDhcp, Servers: servers},
	})
}
