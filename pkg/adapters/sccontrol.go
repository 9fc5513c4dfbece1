package adapters

import (
	"context"
	"strings"

	"github.com/arthur-debert/snapback/pkg/errors"
	"github.com/arthur-debert/snapback/pkg/runner"
	"github.com/arthur-debert/snapback/pkg/types"
)

// sc.exe exit codes
const (
	scServiceDoesNotExist = 1060
	scAlreadyRunning      = 1056
	scNotActive           = 1062
)

// SCControl drives the Windows service manager through sc.exe
type SCControl struct {
	runner runner.Runner
}

// NewSCControl creates an sc.exe backed ServiceControl
func NewSCControl(r runner.Runner) *SCControl {
	return &SCControl{runner: r}
}

// Query reads the run state with "sc query" and the start mode with
// "sc qc".
func (s *SCControl) Query(ctx context.Context, name string) (ServiceState, bool, error) {
	res, err := s.runner.Run(ctx, "sc", "query", name)
	if err != nil {
		return ServiceState{}, false, err
	}
	if res.ExitCode == scServiceDoesNotExist {
		return ServiceState{}, false, nil
	}
	if !res.Success() {
		return ServiceState{}, false, scFailure("query", name, res)
	}
	state := ServiceState{RunState: ParseRunState(res.Stdout)}

	res, err = s.runner.Run(ctx, "sc", "qc", name)
	if err != nil {
		return ServiceState{}, false, err
	}
	if !res.Success() {
		return ServiceState{}, false, scFailure("qc", name, res)
	}
	state.StartMode = ParseStartMode(res.Stdout)
	return state, true, nil
}

// SetStartMode runs "sc config <name> start= <mode>"
func (s *SCControl) SetStartMode(ctx context.Context, name string, mode types.StartMode) error {
	arg, ok := scStartArg[mode]
	if !ok {
		return errors.Newf(errors.ErrInvalidInput, "cannot set start mode %q", mode)
	}
	res, err := s.runner.Run(ctx, "sc", "config", name, "start=", arg)
	if err != nil {
		return err
	}
	if !res.Success() {
		return scFailure("config", name, res)
	}
	return nil
}

// Start runs "sc start"; an already running service is success
func (s *SCControl) Start(ctx context.Context, name string) error {
	return s.control(ctx, "start", name, scAlreadyRunning)
}

// Stop runs "sc stop"; a service that is not running is success
func (s *SCControl) Stop(ctx context.Context, name string) error {
	return s.control(ctx, "stop", name, scNotActive)
}

func (s *SCControl) control(ctx context.Context, verb, name string, benign int) error {
	res, err := s.runner.Run(ctx, "sc", verb, name)
	if err != nil {
		return err
	}
	if res.Success() || res.ExitCode == benign {
		return nil
	}
	return scFailure(verb, name, res)
}

func scFailure(verb, name string, res runner.Result) error {
	return errors.Newf(errors.ErrCommand, "sc %s %s exited %d", verb, name, res.ExitCode).
		WithDetail("stdout", strings.TrimSpace(res.Stdout)).
		WithDetail("exit_code", res.ExitCode)
}

var scStartArg = map[types.StartMode]string{
	types.StartAuto:        "auto",
	types.StartDelayedAuto: "delayed-auto",
	types.StartManual:      "demand",
	types.StartDisabled:    "disabled",
}

// ParseRunState extracts the STATE line of "sc query" output, e.g.
//
//	STATE              : 4  RUNNING
func ParseRunState(out string) types.RunState {
	v, ok := scField(out, "STATE")
	if !ok {
		return types.StateUnknown
	}
	switch {
	case strings.Contains(v, "RUNNING"):
		return types.StateRunning
	case strings.Contains(v, "STOPPED"):
		return types.StateStopped
	}
	return types.StateUnknown
}

// ParseStartMode extracts the START_TYPE line of "sc qc" output, e.g.
//
//	START_TYPE         : 2   AUTO_START  (DELAYED)
func ParseStartMode(out string) types.StartMode {
	v, ok := scField(out, "START_TYPE")
	if !ok {
		return types.StartUnknown
	}
	switch {
	case strings.Contains(v, "AUTO_START") && strings.Contains(v, "DELAYED"):
		return types.StartDelayedAuto
	case strings.Contains(v, "AUTO_START"):
		return types.StartAuto
	case strings.Contains(v, "DEMAND_START"):
		return types.StartManual
	case strings.Contains(v, "DISABLED"):
		return types.StartDisabled
	}
	return types.StartUnknown
}

func scField(out, label string) (string, bool) {
	for _, line := range runner.Lines(out) {
		name, value, found := strings.Cut(line, ":")
		if found && strings.EqualFold(strings.TrimSpace(name), label) {
			return strings.ToUpper(strings.TrimSpace(value)), true
		}
	}
	return "", false
}
