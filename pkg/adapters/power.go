package adapters

import (
	"context"
	"fmt"
	"strings"

	"github.com/arthur-debert/snapback/pkg/errors"
	"github.com/arthur-debert/snapback/pkg/logging"
	"github.com/arthur-debert/snapback/pkg/runner"
	"github.com/arthur-debert/snapback/pkg/types"
	"github.com/rs/zerolog"
)

// DefaultPowerQuery is the powercfg query used when a PowerID has no args
var DefaultPowerQuery = []string{"/getactivescheme"}

// PowerID names a power setting and the powercfg query that reads it
type PowerID struct {
	Type string
	Args []string
}

// PowerAdapter keeps a verbatim copy of a powercfg query. Its output is
// not structured enough to invert, so Apply only reports it.
type PowerAdapter struct {
	runner runner.Runner
	logger zerolog.Logger
}

// NewPower creates a power adapter over r
func NewPower(r runner.Runner) *PowerAdapter {
	return &PowerAdapter{runner: r, logger: logging.GetLogger("adapters.power")}
}

// Capture runs the powercfg query and keeps stdout verbatim
func (a *PowerAdapter) Capture(ctx context.Context, id PowerID) (Captured, error) {
	args := id.Args
	if len(args) == 0 {
		args = DefaultPowerQuery
	}
	res, err := a.runner.Run(ctx, "powercfg", args...)
	if err != nil {
		return Captured{}, errors.Wrapf(err, errors.ErrCapture, "failed to query power setting %s", id.Type)
	}
	if !res.Success() {
		return Captured{}, errors.Newf(errors.ErrCapture, "powercfg %s exited %d", strings.Join(args, " "), res.ExitCode).
			WithDetail("stderr", strings.TrimSpace(res.Stderr))
	}
	return Captured{Existed: true, Value: res.Stdout}, nil
}

// Apply logs the recorded setting and succeeds without writing anything
func (a *PowerAdapter) Apply(ctx context.Context, id PowerID, c Captured) error {
	text, _ := c.Value.(string)
	a.logger.Info().
		Str("setting", id.Type).
		Str("original", strings.TrimSpace(text)).
		Msg("Power setting is advisory; review and reapply manually if needed")
	return nil
}

// CaptureRecord captures id into a PowerSettingChange
func (a *PowerAdapter) CaptureRecord(ctx context.Context, id PowerID) (*types.PowerSettingChange, error) {
	c, err := a.Capture(ctx, id)
	if err != nil {
		return nil, err
	}
	text, _ := c.Value.(string)
	return &types.PowerSettingChange{SettingType: id.Type, ExistedBefore: c.Existed, OriginalValue: text}, nil
}

// ApplyRecord implements RecordApplier
func (a *PowerAdapter) ApplyRecord(ctx context.Context, rec types.ChangeRecord) error {
	r, ok := rec.(*types.PowerSettingChange)
	if !ok {
		return wrongRecord(types.RecordPower, rec)
	}
	return a.Apply(ctx, PowerID{Type: r.SettingType}, Captured{Existed: r.ExistedBefore, Value: r.OriginalValue})
}

// Advisory implements Advisor
func (a *PowerAdapter) Advisory(rec types.ChangeRecord) string {
	r, ok := rec.(*types.PowerSettingChange)
	if !ok {
		return ""
	}
	first := ""
	if lines := runner.Lines(r.OriginalValue); len(lines) > 0 {
		first = lines[0]
	}
	return fmt.Sprintf("power setting %q was not reapplied (recorded: %s)", r.SettingType, first)
}
