package runner

import (
	"bytes"
	"context"
	"errors"
	"os/exec"
	"strings"
	"time"

	snaperrors "github.com/arthur-debert/snapback/pkg/errors"
	"github.com/arthur-debert/snapback/pkg/logging"
	"github.com/rs/zerolog"
)

// DefaultTimeout bounds a single external command
const DefaultTimeout = 30 * time.Second

// Result is the outcome of a command that was started
type Result struct {
	ExitCode int
	Stdout   string
	Stderr   string
	Duration time.Duration
}

// Success reports whether the command exited zero
func (r Result) Success() bool {
	return r.ExitCode == 0
}

// Runner runs a line-oriented external command
type Runner interface {
	Run(ctx context.Context, name string, args ...string) (Result, error)
}

// Options contains configuration for the exec runner
type Options struct {
	Timeout    time.Duration
	PowerShell string
	Logger     zerolog.Logger
}

// Exec runs commands with os/exec
type Exec struct {
	timeout    time.Duration
	powershell string
	logger     zerolog.Logger
}

// New creates a new exec runner
func New(opts Options) *Exec {
	logger := opts.Logger
	if logger.GetLevel() == zerolog.Disabled {
		logger = logging.GetLogger("runner")
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	ps := opts.PowerShell
	if ps == "" {
		ps = "powershell.exe"
	}
	return &Exec{timeout: timeout, powershell: ps, logger: logger}
}

// Timeout returns the per-command bound
func (e *Exec) Timeout() time.Duration {
	return e.timeout
}

// Run executes name with args, waiting at most the configured timeout.
// Cancellation of ctx before the call returns is reported as an error; the
// process is killed by os/exec once the deadline passes.
func (e *Exec) Run(ctx context.Context, name string, args ...string) (Result, error) {
	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	logging.LogCommand(e.logger, name, args)

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	start := time.Now()
	err := cmd.Run()
	res := Result{
		Stdout:   stdout.String(),
		Stderr:   stderr.String(),
		Duration: time.Since(start),
	}

	if ctxErr := ctx.Err(); ctxErr != nil {
		if errors.Is(ctxErr, context.DeadlineExceeded) {
			return res, snaperrors.Newf(snaperrors.ErrTimeout, "%s timed out after %s", name, e.timeout).
				WithDetail("command", name)
		}
		return res, snaperrors.Wrapf(ctxErr, snaperrors.ErrCommand, "%s cancelled", name)
	}

	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			res.ExitCode = exitErr.ExitCode()
		} else {
			return res, snaperrors.Wrapf(err, snaperrors.ErrCommand, "failed to start %s", name)
		}
	}

	e.logger.Trace().
		Str("command", name).
		Int("exit_code", res.ExitCode).
		Dur("duration", res.Duration).
		Msg("Command finished")

	return res, nil
}

// RunPowerShell runs a PowerShell script non-interactively
func RunPowerShell(ctx context.Context, r Runner, script string) (Result, error) {
	exe := "powershell.exe"
	if e, ok := r.(*Exec); ok {
		exe = e.powershell
	}
	return r.Run(ctx, exe, "-NoProfile", "-NonInteractive", "-Command", script)
}

// QuotePS quotes s as a PowerShell single-quoted literal
func QuotePS(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}

// Lines splits command output into trimmed, non-empty lines
func Lines(out string) []string {
	raw := strings.FieldsFunc(out, func(r rune) bool { return r == '\n' || r == '\r' })
	lines := make([]string, 0, len(raw))
	for _, l := range raw {
		if l = strings.TrimSpace(l); l != "" {
			lines = append(lines, l)
		}
	}
	return lines
}
