package plan

import (
	"context"

	"github.com/arthur-debert/snapback/pkg/snapshot"
)

type step func(ctx context.Context, s *snapshot.Session) error

// steps returns one capture step per resource group, in document order
func (p *Plan) steps() []step {
	var steps []step
	if len(p.Registry) > 0 {
		steps = append(steps, func(ctx context.Context, s *snapshot.Session) error {
			for _, id := range p.Registry {
				if err := s.RecordRegistry(ctx, id); err != nil {
					return err
				}
			}
			return nil
		})
	}
	if len(p.Services) > 0 {
		steps = append(steps, func(ctx context.Context, s *snapshot.Session) error {
			for _, name := range p.Services {
				if err := s.RecordService(ctx, name); err != nil {
					return err
				}
			}
			return nil
		})
	}
	if len(p.Power) > 0 {
		steps = append(steps, func(ctx context.Context, s *snapshot.Session) error {
			for _, id := range p.Power {
				if err := s.RecordPower(ctx, id); err != nil {
					return err
				}
			}
			return nil
		})
	}
	if len(p.Network.Settings) > 0 || len(p.Network.System) > 0 {
		steps = append(steps, func(ctx context.Context, s *snapshot.Session) error {
			if len(p.Network.Settings) > 0 {
				if err := s.RecordNetworkInterfaces(ctx, p.Network.Settings...); err != nil {
					return err
				}
			}
			for _, setting := range p.Network.System {
				if err := s.RecordSystemNetworkParam(ctx, setting); err != nil {
					return err
				}
			}
			return nil
		})
	}
	if !p.DNS.Empty() {
		steps = append(steps, func(ctx context.Context, s *snapshot.Session) error {
			if p.DNS.All {
				return s.RecordAllDNS(ctx)
			}
			for _, iface := range p.DNS.Interfaces {
				if err := s.RecordDNS(ctx, iface); err != nil {
					return err
				}
			}
			return nil
		})
	}
	if len(p.TcpIp) > 0 {
		steps = append(steps, func(ctx context.Context, s *snapshot.Session) error {
			return s.RecordTcpIpGlobals(ctx, p.TcpIp...)
		})
	}
	if len(p.Files) > 0 {
		steps = append(steps, func(ctx context.Context, s *snapshot.Session) error {
			for _, path := range p.Files {
				if err := s.RecordFile(ctx, path); err != nil {
					return err
				}
			}
			return nil
		})
	}
	return steps
}

// Execute records every resource of p into s. Resources that cannot be
// captured are skipped by the session; only session misuse is returned.
// The entry order is the same whether or not p.Parallel is set.
func Execute(ctx context.Context, s *snapshot.Session, p *Plan) error {
	steps := p.steps()
	if p.Parallel {
		groups := make([]func(context.Context, *snapshot.Session) error, len(steps))
		for i, st := range steps {
			groups[i] = st
		}
		return s.CaptureParallel(ctx, groups...)
	}
	for _, st := range steps {
		if err := st(ctx, s); err != nil {
			return err
		}
	}
	return nil
}
