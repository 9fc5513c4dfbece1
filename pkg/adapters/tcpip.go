package adapters

import (
	"context"
	"strings"

	"github.com/arthur-debert/snapback/pkg/errors"
	"github.com/arthur-debert/snapback/pkg/logging"
	"github.com/arthur-debert/snapback/pkg/runner"
	"github.com/arthur-debert/snapback/pkg/types"
	"github.com/rs/zerolog"
)

// TcpIpLabels maps netsh global setting names to the label netsh prints
// for them in "show global" output
var TcpIpLabels = map[string]string{
	"chimney":            "Chimney Offload State",
	"autotuninglevel":    "Receive Window Auto-Tuning Level",
	"congestionprovider": "Add-On Congestion Control Provider",
	"ecncapability":      "ECN Capability",
	"timestamps":         "RFC 1323 Timestamps",
	"rss":                "Receive-Side Scaling State",
	"rsc":                "Receive Segment Coalescing State",
	"fastopen":           "Fast Open",
}

// DefaultTcpIpSettings are captured when none are configured
var DefaultTcpIpSettings = []string{"autotuninglevel", "chimney", "congestionprovider", "ecncapability", "timestamps", "rss"}

// TcpIpAdapter captures global TCP/IP tunables by parsing netsh output.
// Values are best-effort: a setting that cannot be found is recorded with
// an empty, unknown value.
type TcpIpAdapter struct {
	runner runner.Runner
	logger zerolog.Logger
}

// NewTcpIp creates a TCP/IP adapter over r
func NewTcpIp(r runner.Runner) *TcpIpAdapter {
	return &TcpIpAdapter{runner: r, logger: logging.GetLogger("adapters.tcpip")}
}

func (a *TcpIpAdapter) showGlobal(ctx context.Context) (string, error) {
	res, err := a.runner.Run(ctx, "netsh", "int", "tcp", "show", "global")
	if err != nil {
		return "", errors.Wrap(err, errors.ErrCapture, "failed to query TCP globals")
	}
	if !res.Success() {
		return "", errors.Newf(errors.ErrCapture, "netsh show global exited %d", res.ExitCode).
			WithDetail("stdout", strings.TrimSpace(res.Stdout))
	}
	return res.Stdout, nil
}

// Capture reads one global setting
func (a *TcpIpAdapter) Capture(ctx context.Context, name string) (Captured, error) {
	out, err := a.showGlobal(ctx)
	if err != nil {
		return Captured{}, err
	}
	return a.parsed(name, out), nil
}

func (a *TcpIpAdapter) parsed(name, out string) Captured {
	value, ok := ParseTcpIpGlobal(out, name)
	if !ok {
		a.logger.Warn().Str("setting", name).Msg("TCP global not found in netsh output; value unknown")
	}
	return Captured{Existed: true, Value: value, Raw: out}
}

// ParseTcpIpGlobal finds the line for setting name and returns the text
// after its first colon. Lines are matched by the known label, falling
// back to a whitespace-insensitive match on the name itself.
func ParseTcpIpGlobal(out, name string) (string, bool) {
	label, known := TcpIpLabels[strings.ToLower(name)]
	want := squash(name)
	if known {
		want = squash(label)
	}
	for _, line := range runner.Lines(out) {
		key, value, found := strings.Cut(line, ":")
		if !found {
			continue
		}
		k := squash(key)
		if k == want || (!known && strings.Contains(k, want)) {
			return strings.TrimSpace(value), true
		}
	}
	if known {
		for _, line := range runner.Lines(out) {
			key, value, found := strings.Cut(line, ":")
			if found && strings.Contains(squash(key), squash(name)) {
				return strings.TrimSpace(value), true
			}
		}
	}
	return "", false
}

func squash(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), ""))
}

// Apply runs "netsh int tcp set global name=value". A record whose value
// could not be parsed at capture time cannot be restored.
func (a *TcpIpAdapter) Apply(ctx context.Context, name string, c Captured) error {
	if !c.Existed {
		return nil
	}
	value, _ := c.Value.(string)
	value = strings.TrimSpace(value)
	if value == "" {
		return errors.Newf(errors.ErrApply, "tcp global %s: original value unknown", name)
	}

	res, err := a.runner.Run(ctx, "netsh", "int", "tcp", "set", "global", name+"="+strings.ToLower(value))
	if err != nil {
		return errors.Wrapf(err, errors.ErrApply, "failed to set tcp global %s", name)
	}
	if !res.Success() {
		return errors.Newf(errors.ErrApply, "netsh set global %s exited %d", name, res.ExitCode).
			WithDetail("stdout", strings.TrimSpace(res.Stdout))
	}
	a.logger.Debug().Str("setting", name).Str("value", value).Msg("TCP global restored")
	return nil
}

// CaptureRecord captures name into a TcpIpGlobalChange
func (a *TcpIpAdapter) CaptureRecord(ctx context.Context, name string) (*types.TcpIpGlobalChange, error) {
	c, err := a.Capture(ctx, name)
	if err != nil {
		return nil, err
	}
	return tcpIpRecord(name, c), nil
}

// CaptureRecords captures several settings from a single netsh query
func (a *TcpIpAdapter) CaptureRecords(ctx context.Context, names ...string) ([]*types.TcpIpGlobalChange, error) {
	out, err := a.showGlobal(ctx)
	if err != nil {
		return nil, err
	}
	records := make([]*types.TcpIpGlobalChange, 0, len(names))
	for _, name := range names {
		records = append(records, tcpIpRecord(name, a.parsed(name, out)))
	}
	return records, nil
}

func tcpIpRecord(name string, c Captured) *types.TcpIpGlobalChange {
	value, _ := c.Value.(string)
	return &types.TcpIpGlobalChange{
		SettingName:      name,
		ExistedBefore:    c.Existed,
		OriginalValue:    value,
		RawCommandOutput: c.Raw,
	}
}

// ApplyRecord implements RecordApplier
func (a *TcpIpAdapter) ApplyRecord(ctx context.Context, rec types.ChangeRecord) error {
	r, ok := rec.(*types.TcpIpGlobalChange)
	if !ok {
		return wrongRecord(types.RecordTcpIp, rec)
	}
	return a.Apply(ctx, r.SettingName, Captured{Existed: r.ExistedBefore, Value: r.OriginalValue, Raw: r.RawCommandOutput})
}
