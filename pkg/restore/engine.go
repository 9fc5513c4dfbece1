// Package restore replays a snapshot through the adapters.
//
// Records are applied strictly one at a time in stored order. A failing
// record never stops the others; every failure ends up in the Report.
// Cancellation is checked between records: an in-flight write is allowed
// to finish, and everything after it is counted as skipped.
//
// There is no ordering between kinds beyond capture order. Callers that
// need one setting restored before another must capture them in that
// order or split them across snapshots.
package restore

import (
	"context"
	stderrors "errors"
	"time"

	"github.com/arthur-debert/snapback/pkg/adapters"
	"github.com/arthur-debert/snapback/pkg/errors"
	"github.com/arthur-debert/snapback/pkg/logging"
	"github.com/arthur-debert/snapback/pkg/store"
	"github.com/arthur-debert/snapback/pkg/types"
	"github.com/rs/zerolog"
)

// Options configures an Engine
type Options struct {
	// DryRun logs what would be applied and applies nothing
	DryRun bool
}

// Engine applies snapshots
type Engine struct {
	dispatch adapters.Dispatch
	opts     Options
	logger   zerolog.Logger
}

// New creates an Engine dispatching through d
func New(d adapters.Dispatch, opts Options) *Engine {
	return &Engine{dispatch: d, opts: opts, logger: logging.GetLogger("restore")}
}

// Restore applies every record of snap. It never returns an error; look
// at the Report. snap is not modified.
func (e *Engine) Restore(ctx context.Context, snap *types.Snapshot) *Report {
	report := NewReport(snap.ID)
	report.DryRun = e.opts.DryRun
	start := time.Now()
	defer func() { report.Duration = time.Since(start) }()

	e.logger.Info().
		Str("id", snap.ID).
		Int("entries", snap.Len()).
		Bool("dry_run", e.opts.DryRun).
		Msg("Restoring snapshot")

	for i, rec := range snap.Entries {
		if ctx.Err() != nil {
			if !report.Cancelled {
				e.logger.Warn().Int("remaining", len(snap.Entries)-i).Msg("Restore cancelled")
			}
			report.Cancelled = true
			report.Skipped(rec.Kind())
			continue
		}
		e.restoreOne(ctx, report, rec)
	}

	t := report.Totals()
	e.logger.Info().
		Str("id", snap.ID).
		Int("restored", t.Restored).
		Int("failed", t.Failed).
		Int("skipped", t.Skipped).
		Msg("Restore finished")
	return report
}

func (e *Engine) restoreOne(ctx context.Context, report *Report, rec types.ChangeRecord) {
	kind := rec.Kind()
	logger := e.logger.With().Str("kind", string(kind)).Str("resource", rec.Identity()).Logger()

	applier, err := e.dispatch.Get(kind)
	if err != nil {
		err = errors.Wrapf(err, errors.ErrNotFound, "no adapter for %s records", kind).
			WithDetail("known_kinds", e.dispatch.Keys())
		logger.Warn().Err(err).Msg("No adapter for record")
		report.Failed(kind, rec.Identity(), err)
		return
	}

	if e.opts.DryRun {
		logger.Info().Bool("existed", rec.Existed()).Msg("Would restore")
		report.Skipped(kind)
		return
	}

	// Cancellation is honoured between records only; a write in flight is
	// bounded by the runner timeout alone.
	if err := applier.ApplyRecord(context.WithoutCancel(ctx), rec); err != nil {
		logger.Warn().Err(err).Msg("Failed to restore")
		report.Failed(kind, rec.Identity(), err)
		return
	}

	if advisor, ok := applier.(adapters.Advisor); ok {
		if note := advisor.Advisory(rec); note != "" {
			report.Advisory = append(report.Advisory, note)
		}
	}
	logger.Debug().Msg("Restored")
	report.Restored(kind)
}

// RestoreByID loads a snapshot from st and restores it. Only the load can
// fail.
func (e *Engine) RestoreByID(ctx context.Context, st store.Store, id string) (*Report, error) {
	snap, err := st.Load(id)
	if err != nil {
		return nil, err
	}
	return e.Restore(ctx, snap), nil
}

// ErrorText renders a failure reason for display
func ErrorText(err error) string {
	if err == nil {
		return ""
	}
	var se *errors.SnapbackError
	if stderrors.As(err, &se) {
		if se.Wrapped != nil {
			return se.Message + ": " + se.Wrapped.Error()
		}
		return se.Message
	}
	return err.Error()
}
