package adapters

import (
	"context"

	"github.com/arthur-debert/snapback/pkg/errors"
	"github.com/arthur-debert/snapback/pkg/logging"
	"github.com/arthur-debert/snapback/pkg/types"
	"github.com/arthur-debert/snapback/pkg/winreg"
	"github.com/rs/zerolog"
)

// Registry locations of network tunables
const (
	InterfacesPath    = `SYSTEM\CurrentControlSet\Services\Tcpip\Parameters\Interfaces`
	SystemProfilePath = `SOFTWARE\Microsoft\Windows NT\CurrentVersion\Multimedia\SystemProfile`
)

// DefaultNetworkSettings are the per-interface parameters captured when
// none are configured
var DefaultNetworkSettings = []string{"TcpAckFrequency", "TCPNoDelay"}

// NetworkID identifies a network parameter. Interface is an interface
// GUID subkey or types.SystemInterface.
type NetworkID struct {
	Interface string
	Setting   string
}

func (id NetworkID) keyPath() string {
	if id.Interface == types.SystemInterface {
		return SystemProfilePath
	}
	return InterfacesPath + `\` + id.Interface
}

func (id NetworkID) registryID() RegistryID {
	return RegistryID{Root: types.RootLocalMachine, Path: id.keyPath(), Name: id.Setting}
}

// NetworkAdapter captures and applies registry-backed network parameters
type NetworkAdapter struct {
	keys   winreg.KeyStore
	logger zerolog.Logger
}

// NewNetwork creates a network adapter over keys
func NewNetwork(keys winreg.KeyStore) *NetworkAdapter {
	return &NetworkAdapter{keys: keys, logger: logging.GetLogger("adapters.network")}
}

// Interfaces lists the interface subkeys of the TCP/IP parameters key
func (a *NetworkAdapter) Interfaces(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	names, err := a.keys.ListSubKeys(types.RootLocalMachine, InterfacesPath)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCapture, "failed to enumerate network interfaces")
	}
	return names, nil
}

// Capture reads the parameter. A missing interface key is Existed=false.
func (a *NetworkAdapter) Capture(ctx context.Context, id NetworkID) (Captured, error) {
	return captureValue(ctx, a.keys, id.registryID())
}

// Apply restores the parameter. The machine-wide key is recreated if
// needed; an interface key that has since vanished is an error, since
// the adapter it belonged to is gone.
func (a *NetworkAdapter) Apply(ctx context.Context, id NetworkID, c Captured) error {
	if c.Existed && id.Interface != types.SystemInterface {
		ok, err := a.keys.KeyExists(types.RootLocalMachine, id.keyPath())
		if err != nil {
			return errors.Wrapf(err, errors.ErrApply, "failed to open interface %s", id.Interface)
		}
		if !ok {
			return errors.Newf(errors.ErrApply, "interface %s no longer exists", id.Interface)
		}
	}
	if err := applyValue(ctx, a.keys, id.registryID(), c); err != nil {
		return err
	}
	a.logger.Debug().
		Str("interface", id.Interface).
		Str("setting", id.Setting).
		Bool("existed", c.Existed).
		Msg("Network setting restored")
	return nil
}

// CaptureRecord captures id into a NetworkParamChange
func (a *NetworkAdapter) CaptureRecord(ctx context.Context, id NetworkID) (*types.NetworkParamChange, error) {
	c, err := a.Capture(ctx, id)
	if err != nil {
		return nil, err
	}
	return &types.NetworkParamChange{
		InterfaceName:     id.Interface,
		SettingName:       id.Setting,
		ExistedBefore:     c.Existed,
		OriginalValue:     c.Value,
		OriginalValueKind: c.Kind,
	}, nil
}

// ApplyRecord implements RecordApplier
func (a *NetworkAdapter) ApplyRecord(ctx context.Context, rec types.ChangeRecord) error {
	r, ok := rec.(*types.NetworkParamChange)
	if !ok {
		return wrongRecord(types.RecordNetwork, rec)
	}
	id := NetworkID{Interface: r.InterfaceName, Setting: r.SettingName}
	return a.Apply(ctx, id, Captured{Existed: r.ExistedBefore, Value: r.OriginalValue, Kind: r.OriginalValueKind})
}
