package snapshot

import (
	"context"
	"sync"

	"github.com/arthur-debert/snapback/pkg/adapters"
	"github.com/arthur-debert/snapback/pkg/errors"
	"github.com/arthur-debert/snapback/pkg/types"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// Session is an append-only accumulator of change records
type Session struct {
	m      *Manager
	logger zerolog.Logger

	mu      sync.Mutex
	snap    *types.Snapshot
	skipped []string
	closed  bool
	// sub marks a group buffer created by CaptureParallel
	sub bool
}

func newSession(m *Manager, snap *types.Snapshot) *Session {
	return &Session{
		m:      m,
		snap:   snap,
		logger: m.logger.With().Str("session", snap.ID).Logger(),
	}
}

// ID returns the identifier the snapshot will be saved under
func (s *Session) ID() string {
	return s.snap.ID
}

// Description returns the session description
func (s *Session) Description() string {
	return s.snap.Description
}

func (s *Session) ensureOpen() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return errors.Newf(errors.ErrNoSession, "session %s is closed", s.snap.ID)
	}
	return nil
}

func (s *Session) append(recs ...types.ChangeRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snap.Entries = append(s.snap.Entries, recs...)
}

func (s *Session) skip(identity string, err error) {
	s.mu.Lock()
	s.skipped = append(s.skipped, identity)
	s.mu.Unlock()

	s.logger.Warn().
		Err(err).
		Str("resource", identity).
		Msg("Could not capture resource; it will not be restored")
}

// record runs one capture. A timed-out capture is kept as an absent
// record; any other failure omits the entry.
func record[R types.ChangeRecord](s *Session, identity string, capture func() (R, error), absent func() R) error {
	if err := s.ensureOpen(); err != nil {
		return err
	}
	rec, err := capture()
	if err != nil {
		if errors.HasErrorCode(err, errors.ErrTimeout) {
			s.logger.Warn().Err(err).Str("resource", identity).Msg("Capture timed out; recording as absent")
			s.append(absent())
			return nil
		}
		s.skip(identity, err)
		return nil
	}
	s.append(rec)
	s.logger.Debug().
		Str("resource", rec.Identity()).
		Bool("existed", rec.Existed()).
		Msg("Captured")
	return nil
}

// RecordRegistry captures one registry value
func (s *Session) RecordRegistry(ctx context.Context, id adapters.RegistryID) error {
	return record(s, id.String(),
		func() (*types.RegistryValueChange, error) { return s.m.adapters.Registry.CaptureRecord(ctx, id) },
		func() *types.RegistryValueChange {
			return &types.RegistryValueChange{Root: id.Root, Path: id.Path, ValueName: id.Name}
		})
}

// RecordService captures a service's start mode and run state
func (s *Session) RecordService(ctx context.Context, name string) error {
	return record(s, "service "+name,
		func() (*types.ServiceChange, error) { return s.m.adapters.Service.CaptureRecord(ctx, name) },
		func() *types.ServiceChange {
			return &types.ServiceChange{ServiceName: name, OriginalStartMode: types.StartUnknown, OriginalRunState: types.StateUnknown}
		})
}

// RecordPower captures the verbatim output of a power query
func (s *Session) RecordPower(ctx context.Context, id adapters.PowerID) error {
	return record(s, "power "+id.Type,
		func() (*types.PowerSettingChange, error) { return s.m.adapters.Power.CaptureRecord(ctx, id) },
		func() *types.PowerSettingChange { return &types.PowerSettingChange{SettingType: id.Type} })
}

// RecordNetworkParam captures one interface parameter
func (s *Session) RecordNetworkParam(ctx context.Context, iface, setting string) error {
	id := adapters.NetworkID{Interface: iface, Setting: setting}
	return record(s, "network "+iface+"/"+setting,
		func() (*types.NetworkParamChange, error) { return s.m.adapters.Network.CaptureRecord(ctx, id) },
		func() *types.NetworkParamChange {
			return &types.NetworkParamChange{InterfaceName: iface, SettingName: setting}
		})
}

// RecordSystemNetworkParam captures a machine-wide network tunable
func (s *Session) RecordSystemNetworkParam(ctx context.Context, setting string) error {
	return s.RecordNetworkParam(ctx, types.SystemInterface, setting)
}

// RecordNetworkInterfaces captures settings on every network interface.
// With no settings, adapters.DefaultNetworkSettings are captured.
func (s *Session) RecordNetworkInterfaces(ctx context.Context, settings ...string) error {
	if err := s.ensureOpen(); err != nil {
		return err
	}
	if len(settings) == 0 {
		settings = adapters.DefaultNetworkSettings
	}
	ifaces, err := s.m.adapters.Network.Interfaces(ctx)
	if err != nil {
		s.skip("network interfaces", err)
		return nil
	}
	for _, iface := range ifaces {
		for _, setting := range settings {
			if err := s.RecordNetworkParam(ctx, iface, setting); err != nil {
				return err
			}
		}
	}
	return nil
}

// RecordDNS captures one interface's DNS servers
func (s *Session) RecordDNS(ctx context.Context, iface string) error {
	return record(s, "dns "+iface,
		func() (*types.DnsChange, error) { return s.m.adapters.DNS.CaptureRecord(ctx, iface) },
		func() *types.DnsChange { return &types.DnsChange{InterfaceName: iface, OriginalServers: []string{}} })
}

// RecordAllDNS captures the DNS servers of every adapter that is up
func (s *Session) RecordAllDNS(ctx context.Context) error {
	if err := s.ensureOpen(); err != nil {
		return err
	}
	recs, err := s.m.adapters.DNS.CaptureAllRecords(ctx)
	if err != nil {
		s.skip("dns (all interfaces)", err)
		return nil
	}
	for _, rec := range recs {
		s.append(rec)
	}
	return nil
}

// RecordTcpIpGlobal captures one global TCP/IP setting
func (s *Session) RecordTcpIpGlobal(ctx context.Context, name string) error {
	return record(s, "tcpip "+name,
		func() (*types.TcpIpGlobalChange, error) { return s.m.adapters.TcpIp.CaptureRecord(ctx, name) },
		func() *types.TcpIpGlobalChange { return &types.TcpIpGlobalChange{SettingName: name} })
}

// RecordTcpIpGlobals captures several global TCP/IP settings from one
// query
func (s *Session) RecordTcpIpGlobals(ctx context.Context, names ...string) error {
	if err := s.ensureOpen(); err != nil {
		return err
	}
	if len(names) == 0 {
		names = adapters.DefaultTcpIpSettings
	}
	recs, err := s.m.adapters.TcpIp.CaptureRecords(ctx, names...)
	if err != nil {
		if errors.HasErrorCode(err, errors.ErrTimeout) {
			for _, name := range names {
				s.append(&types.TcpIpGlobalChange{SettingName: name})
			}
			s.logger.Warn().Err(err).Msg("TCP global query timed out; recording as absent")
			return nil
		}
		s.skip("tcpip globals", err)
		return nil
	}
	for _, rec := range recs {
		s.append(rec)
	}
	return nil
}

// RecordFile backs up a file's content
func (s *Session) RecordFile(ctx context.Context, path string) error {
	return record(s, "file "+path,
		func() (*types.FileChange, error) { return s.m.adapters.File.CaptureRecord(ctx, path) },
		func() *types.FileChange { return &types.FileChange{Path: path} })
}

// CaptureParallel runs independent capture groups concurrently. Each
// group records into its own buffer, and the buffers are appended in
// group order, so the resulting entry order does not depend on timing.
// A group returning an error (only contract violations do) cancels the
// others and nothing from any group is kept.
func (s *Session) CaptureParallel(ctx context.Context, groups ...func(ctx context.Context, g *Session) error) error {
	if err := s.ensureOpen(); err != nil {
		return err
	}

	subs := make([]*Session, len(groups))
	eg, egCtx := errgroup.WithContext(ctx)
	for i, fn := range groups {
		sub := &Session{
			m:      s.m,
			logger: s.logger,
			snap:   &types.Snapshot{ID: s.snap.ID, Entries: []types.ChangeRecord{}},
			sub:    true,
		}
		subs[i] = sub
		eg.Go(func() error {
			return fn(egCtx, sub)
		})
	}
	if err := eg.Wait(); err != nil {
		return err
	}

	for _, sub := range subs {
		s.append(sub.snap.Entries...)
		s.mu.Lock()
		s.skipped = append(s.skipped, sub.skipped...)
		s.mu.Unlock()
	}
	return nil
}

// Entries returns a copy of the records captured so far
func (s *Session) Entries() []types.ChangeRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]types.ChangeRecord{}, s.snap.Entries...)
}

// Len returns the number of records captured so far
func (s *Session) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.snap.Entries)
}

// Skipped returns the identities of resources that failed to capture
func (s *Session) Skipped() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string{}, s.skipped...)
}

// Snapshot returns a copy of the accumulated snapshot
func (s *Session) Snapshot() *types.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap := *s.snap
	snap.Entries = append([]types.ChangeRecord{}, s.snap.Entries...)
	return &snap
}

// Save persists the snapshot and closes the session. On a store error
// the session stays open so the caller can retry or Discard.
func (s *Session) Save(ctx context.Context) (string, string, error) {
	if err := s.ensureOpen(); err != nil {
		return "", "", err
	}
	if s.sub {
		return "", "", errors.New(errors.ErrInvalidInput, "capture groups cannot be saved")
	}
	if err := ctx.Err(); err != nil {
		return "", "", errors.Wrap(err, errors.ErrStoreWrite, "save cancelled")
	}

	snap := s.Snapshot()
	path, err := s.m.store.Persist(snap)
	if err != nil {
		return "", "", err
	}

	s.close()
	s.logger.Info().
		Int("entries", snap.Len()).
		Int("skipped", len(s.Skipped())).
		Msg("Snapshot session saved")
	return snap.ID, path, nil
}

// Discard closes the session without saving
func (s *Session) Discard() {
	if s.sub {
		return
	}
	s.close()
	s.logger.Info().Msg("Snapshot session discarded")
}

func (s *Session) close() {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	s.m.release(s)
}
