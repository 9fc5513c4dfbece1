// Package defaults resets tuned settings to generic Windows defaults.
//
// This is not a restore. It never reads a snapshot, it writes a fixed
// table of values, and the result is generally not the machine's original
// configuration. It exists for machines that were tuned without a
// snapshot being taken.
package defaults

import (
	"context"
	"strings"

	"github.com/arthur-debert/snapback/pkg/adapters"
	"github.com/arthur-debert/snapback/pkg/errors"
	"github.com/arthur-debert/snapback/pkg/logging"
	"github.com/arthur-debert/snapback/pkg/restore"
	"github.com/arthur-debert/snapback/pkg/runner"
	"github.com/arthur-debert/snapback/pkg/types"
)

// RegistryDefault is a fixed registry value
type RegistryDefault struct {
	ID    adapters.RegistryID
	Kind  types.ValueKind
	Value any
}

// ServiceDefault is a fixed service start mode. State, when not
// Unknown, is also enforced.
type ServiceDefault struct {
	Name  string
	Mode  types.StartMode
	State types.RunState
}

// Command is an external command run as part of the reset
type Command struct {
	Name string
	Args []string
}

func (c Command) String() string {
	return strings.TrimSpace(c.Name + " " + strings.Join(c.Args, " "))
}

// Table is the set of defaults applied by ResetToSafeDefaults
type Table struct {
	Registry []RegistryDefault
	Services []ServiceDefault
	// InterfaceSettings are removed from every network interface
	InterfaceSettings []string
	// NetworkCommands reset the TCP/IP stack
	NetworkCommands []Command
	// ResetDNS returns every up adapter to DHCP-assigned DNS
	ResetDNS bool
}

func hklm(path, name string) adapters.RegistryID {
	return adapters.RegistryID{Root: types.RootLocalMachine, Path: path, Name: name}
}

func hkcu(path, name string) adapters.RegistryID {
	return adapters.RegistryID{Root: types.RootCurrentUser, Path: path, Name: name}
}

// DefaultTable returns the stock Windows defaults for the settings
// commonly changed by tuning tools
func DefaultTable() Table {
	return Table{
		Registry: []RegistryDefault{
			{hklm(adapters.SystemProfilePath, "NetworkThrottlingIndex"), types.KindDWord, uint32(10)},
			{hklm(adapters.SystemProfilePath, "SystemResponsiveness"), types.KindDWord, uint32(20)},
			{hkcu(`SOFTWARE\Microsoft\Windows\CurrentVersion\Themes\Personalize`, "EnableTransparency"), types.KindDWord, uint32(1)},
			{hkcu(`Control Panel\Desktop\WindowMetrics`, "MinAnimate"), types.KindString, "1"},
			{hkcu(`Software\Microsoft\Windows\CurrentVersion\Explorer\VisualEffects`, "VisualFXSetting"), types.KindDWord, uint32(2)},
			{hklm(`SOFTWARE\Policies\Microsoft\Windows\Windows Search`, "AllowCortana"), types.KindDWord, uint32(1)},
			{hkcu(`Software\Microsoft\Windows\CurrentVersion\BackgroundAccessApplications`, "GlobalUserDisabled"), types.KindDWord, uint32(0)},
		},
		Services: []ServiceDefault{
			{"WSearch", types.StartDelayedAuto, types.StateRunning},
			{"SysMain", types.StartAuto, types.StateRunning},
			{"Spooler", types.StartAuto, types.StateRunning},
			{"WinDefend", types.StartAuto, types.StateUnknown},
			{"mpssvc", types.StartAuto, types.StateUnknown},
			{"DiagTrack", types.StartAuto, types.StateUnknown},
			{"dmwappushservice", types.StartAuto, types.StateUnknown},
			{"Fax", types.StartManual, types.StateUnknown},
			{"wisvc", types.StartManual, types.StateUnknown},
		},
		InterfaceSettings: adapters.DefaultNetworkSettings,
		NetworkCommands: []Command{
			{"netsh", []string{"int", "tcp", "reset"}},
			{"netsh", []string{"int", "ip", "reset"}},
			{"ipconfig", []string{"/flushdns"}},
			{"netsh", []string{"winsock", "reset"}},
		},
		ResetDNS: true,
	}
}

// Notice is added to every report to make clear what was done
const Notice = "generic defaults were applied; these are not your original settings"

// ResetToSafeDefaults applies table through the adapters and r. Like a
// restore, a failing step does not stop the others, and cancellation
// skips the steps not yet started.
func ResetToSafeDefaults(ctx context.Context, set *adapters.Set, r runner.Runner, table Table) *restore.Report {
	logger := logging.GetLogger("defaults")
	report := restore.NewReport("safe-defaults")
	report.Advisory = append(report.Advisory, Notice)

	// A step that has started runs to completion; cancellation only stops
	// the steps after it.
	writeCtx := context.WithoutCancel(ctx)

	step := func(kind types.RecordKind, identity string, fn func() error) {
		if ctx.Err() != nil {
			report.Cancelled = true
			report.Skipped(kind)
			return
		}
		if err := fn(); err != nil {
			logger.Warn().Err(err).Str("resource", identity).Msg("Could not apply default")
			report.Failed(kind, identity, err)
			return
		}
		logger.Info().Str("resource", identity).Msg("Default applied")
		report.Restored(kind)
	}

	for _, d := range table.Registry {
		d := d
		step(types.RecordRegistry, d.ID.String(), func() error {
			return set.Registry.Apply(writeCtx, d.ID, adapters.Captured{Existed: true, Value: d.Value, Kind: types.KindPtr(d.Kind)})
		})
	}

	for _, d := range table.Services {
		d := d
		step(types.RecordService, "service "+d.Name, func() error {
			return set.Service.Apply(writeCtx, d.Name, adapters.Captured{
				Existed: true,
				Value:   adapters.ServiceState{StartMode: d.Mode, RunState: d.State},
			})
		})
	}

	if len(table.InterfaceSettings) > 0 && ctx.Err() == nil {
		ifaces, err := set.Network.Interfaces(ctx)
		if err != nil {
			report.Failed(types.RecordNetwork, "network interfaces", err)
		}
		for _, iface := range ifaces {
			for _, setting := range table.InterfaceSettings {
				id := adapters.NetworkID{Interface: iface, Setting: setting}
				step(types.RecordNetwork, "network "+iface+"/"+setting, func() error {
					return set.Network.Apply(writeCtx, id, adapters.Captured{Existed: false})
				})
			}
		}
	}

	for _, c := range table.NetworkCommands {
		c := c
		step(types.RecordTcpIp, c.String(), func() error {
			res, err := r.Run(writeCtx, c.Name, c.Args...)
			if err != nil {
				return errors.Wrapf(err, errors.ErrApply, "%s failed", c)
			}
			if !res.Success() {
				return errors.Newf(errors.ErrApply, "%s exited %d", c, res.ExitCode)
			}
			return nil
		})
	}

	if table.ResetDNS && ctx.Err() == nil {
		entries, err := set.DNS.Interfaces(ctx)
		if err != nil {
			report.Failed(types.RecordDNS, "dns interfaces", err)
		}
		for _, e := range entries {
			iface := e.InterfaceAlias
			step(types.RecordDNS, "dns "+iface, func() error {
				return set.DNS.Apply(writeCtx, iface, adapters.Captured{Existed: true, Value: adapters.DNSState{WasDhcp: true, Servers: []string{}}})
			})
		}
	}

	if ctx.Err() != nil {
		report.Cancelled = true
	}
	if report.Totals().Restored > 0 {
		report.RestartRecommended = true
	}
	return report
}
