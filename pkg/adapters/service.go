package adapters

import (
	"context"

	"github.com/arthur-debert/snapback/pkg/errors"
	"github.com/arthur-debert/snapback/pkg/logging"
	"github.com/arthur-debert/snapback/pkg/types"
	"github.com/rs/zerolog"
)

// ServiceState is a service's start mode and run state, read separately
type ServiceState struct {
	StartMode types.StartMode
	RunState  types.RunState
}

// ServiceControl is the service manager collaborator
type ServiceControl interface {
	// Query returns exists=false for an unknown service
	Query(ctx context.Context, name string) (state ServiceState, exists bool, err error)
	SetStartMode(ctx context.Context, name string, mode types.StartMode) error
	Start(ctx context.Context, name string) error
	Stop(ctx context.Context, name string) error
}

// ServiceAdapter captures and applies service configuration
type ServiceAdapter struct {
	control ServiceControl
	logger  zerolog.Logger
}

// NewService creates a service adapter over control
func NewService(control ServiceControl) *ServiceAdapter {
	return &ServiceAdapter{control: control, logger: logging.GetLogger("adapters.service")}
}

// Capture queries start mode and run state
func (a *ServiceAdapter) Capture(ctx context.Context, name string) (Captured, error) {
	state, exists, err := a.control.Query(ctx, name)
	if err != nil {
		return Captured{}, errors.Wrapf(err, errors.ErrCapture, "failed to query service %s", name)
	}
	if !exists {
		return Captured{}, nil
	}
	return Captured{Existed: true, Value: state}, nil
}

// Apply sets the start mode, then starts or stops the service to match
// the recorded run state. Unknown values are left alone. A service that
// did not exist at capture time is not uninstalled.
func (a *ServiceAdapter) Apply(ctx context.Context, name string, c Captured) error {
	if !c.Existed {
		a.logger.Info().Str("service", name).Msg("Service did not exist before; nothing to restore")
		return nil
	}
	state, ok := c.Value.(ServiceState)
	if !ok {
		return errors.Newf(errors.ErrApply, "service %s has no recorded state", name)
	}

	if state.StartMode != types.StartUnknown && state.StartMode != "" {
		if err := a.control.SetStartMode(ctx, name, state.StartMode); err != nil {
			return errors.Wrapf(err, errors.ErrApply, "failed to set start mode of %s", name)
		}
	}

	switch state.RunState {
	case types.StateRunning:
		if err := a.control.Start(ctx, name); err != nil {
			return errors.Wrapf(err, errors.ErrApply, "failed to start %s", name)
		}
	case types.StateStopped:
		if err := a.control.Stop(ctx, name); err != nil {
			return errors.Wrapf(err, errors.ErrApply, "failed to stop %s", name)
		}
	}

	a.logger.Debug().
		Str("service", name).
		Str("start_mode", string(state.StartMode)).
		Str("run_state", string(state.RunState)).
		Msg("Service restored")
	return nil
}

// CaptureRecord captures name into a ServiceChange
func (a *ServiceAdapter) CaptureRecord(ctx context.Context, name string) (*types.ServiceChange, error) {
	c, err := a.Capture(ctx, name)
	if err != nil {
		return nil, err
	}
	rec := &types.ServiceChange{
		ServiceName:       name,
		ExistedBefore:     c.Existed,
		OriginalStartMode: types.StartUnknown,
		OriginalRunState:  types.StateUnknown,
	}
	if state, ok := c.Value.(ServiceState); ok {
		rec.OriginalStartMode = state.StartMode
		rec.OriginalRunState = state.RunState
	}
	return rec, nil
}

// ApplyRecord implements RecordApplier
func (a *ServiceAdapter) ApplyRecord(ctx context.Context, rec types.ChangeRecord) error {
	r, ok := rec.(*types.ServiceChange)
	if !ok {
		return wrongRecord(types.RecordService, rec)
	}
	return a.Apply(ctx, r.ServiceName, Captured{
		Existed: r.ExistedBefore,
		Value:   ServiceState{StartMode: r.OriginalStartMode, RunState: r.OriginalRunState},
	})
}
