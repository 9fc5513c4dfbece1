package adapters

import (
	"context"

	"github.com/arthur-debert/snapback/pkg/errors"
	"github.com/arthur-debert/snapback/pkg/registry"
	"github.com/arthur-debert/snapback/pkg/runner"
	"github.com/arthur-debert/snapback/pkg/types"
	"github.com/arthur-debert/snapback/pkg/winreg"
)

// Captured is the original state of one resource. Value holds the
// kind-specific payload: a canonical registry value for registry and
// network parameters, ServiceState, DNSState, FileBlob, or verbatim text
// for power and TCP/IP globals.
type Captured struct {
	Existed bool
	Value   any
	Kind    *types.ValueKind
	// Raw is diagnostic command output, when the capture parsed one
	Raw string
}

// Adapter is the capture/apply contract shared by every resource kind
type Adapter[ID any] interface {
	Capture(ctx context.Context, id ID) (Captured, error)
	Apply(ctx context.Context, id ID, c Captured) error
}

// RecordApplier applies a stored ChangeRecord of one kind
type RecordApplier interface {
	ApplyRecord(ctx context.Context, rec types.ChangeRecord) error
}

// Advisor is implemented by appliers whose records are informational.
// Advisory returns the note to surface instead of a real write.
type Advisor interface {
	Advisory(rec types.ChangeRecord) string
}

// Dispatch maps record kinds to their applier
type Dispatch = registry.Registry[types.RecordKind, RecordApplier]

// Set bundles one adapter per record kind
type Set struct {
	Registry *RegistryAdapter
	Service  *ServiceAdapter
	Power    *PowerAdapter
	Network  *NetworkAdapter
	DNS      *DNSAdapter
	TcpIp    *TcpIpAdapter
	File     *FileAdapter
}

// Options wires the collaborators adapters need
type Options struct {
	Runner   runner.Runner
	Keys     winreg.KeyStore
	Services ServiceControl
	FS       types.FS
	BlobDir  string
}

// NewSet builds every adapter from opts. When Services is nil the sc.exe
// based control is used over Runner.
func NewSet(opts Options) *Set {
	services := opts.Services
	if services == nil {
		services = NewSCControl(opts.Runner)
	}
	return &Set{
		Registry: NewRegistry(opts.Keys),
		Service:  NewService(services),
		Power:    NewPower(opts.Runner),
		Network:  NewNetwork(opts.Keys),
		DNS:      NewDNS(opts.Runner),
		TcpIp:    NewTcpIp(opts.Runner),
		File:     NewFile(opts.FS, opts.BlobDir),
	}
}

// Dispatch returns the kind to applier table for restore
func (s *Set) Dispatch() Dispatch {
	d := registry.New[types.RecordKind, RecordApplier]()
	registry.MustRegister[types.RecordKind, RecordApplier](d, types.RecordRegistry, s.Registry)
	registry.MustRegister[types.RecordKind, RecordApplier](d, types.RecordService, s.Service)
	registry.MustRegister[types.RecordKind, RecordApplier](d, types.RecordPower, s.Power)
	registry.MustRegister[types.RecordKind, RecordApplier](d, types.RecordNetwork, s.Network)
	registry.MustRegister[types.RecordKind, RecordApplier](d, types.RecordDNS, s.DNS)
	registry.MustRegister[types.RecordKind, RecordApplier](d, types.RecordTcpIp, s.TcpIp)
	registry.MustRegister[types.RecordKind, RecordApplier](d, types.RecordFile, s.File)
	return d
}

func wrongRecord(want types.RecordKind, rec types.ChangeRecord) error {
	return errors.Newf(errors.ErrInternal, "%s adapter cannot apply %T", want, rec)
}
