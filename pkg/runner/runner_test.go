package runner_test

import (
	"context"
	"runtime"
	"testing"
	"time"

	"github.com/arthur-debert/snapback/pkg/errors"
	"github.com/arthur-debert/snapback/pkg/runner"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func skipOnWindows(t *testing.T) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("uses POSIX shell")
	}
}

func TestExec_Run(t *testing.T) {
	skipOnWindows(t)
	r := runner.New(runner.Options{Timeout: 5 * time.Second, Logger: zerolog.Nop()})

	t.Run("captures stdout and stderr", func(t *testing.T) {
		res, err := r.Run(context.Background(), "sh", "-c", "echo out; echo err >&2")
		require.NoError(t, err)
		assert.True(t, res.Success())
		assert.Equal(t, "out\n", res.Stdout)
		assert.Equal(t, "err\n", res.Stderr)
	})

	t.Run("non-zero exit is not an error", func(t *testing.T) {
		res, err := r.Run(context.Background(), "sh", "-c", "exit 3")
		require.NoError(t, err)
		assert.Equal(t, 3, res.ExitCode)
		assert.False(t, res.Success())
	})

	t.Run("missing binary is a command error", func(t *testing.T) {
		_, err := r.Run(context.Background(), "definitely-not-a-real-binary-xyz")
		require.Error(t, err)
		assert.True(t, errors.IsErrorCode(err, errors.ErrCommand))
	})
}

func TestExec_Timeout(t *testing.T) {
	skipOnWindows(t)
	r := runner.New(runner.Options{Timeout: 100 * time.Millisecond, Logger: zerolog.Nop()})

	start := time.Now()
	_, err := r.Run(context.Background(), "sleep", "5")
	require.Error(t, err)
	assert.True(t, errors.IsErrorCode(err, errors.ErrTimeout))
	assert.Less(t, time.Since(start), 4*time.Second)
}

func TestExec_DefaultTimeout(t *testing.T) {
	r := runner.New(runner.Options{Logger: zerolog.Nop()})
	assert.Equal(t, runner.DefaultTimeout, r.Timeout())
}

func TestQuotePS(t *testing.T) {
	assert.Equal(t, "'Ethernet'", runner.QuotePS("Ethernet"))
	assert.Equal(t, "'Bob''s Wi-Fi'", runner.QuotePS("Bob's Wi-Fi"))
}

func TestLines(t *testing.T) {
	assert.Equal(t, []string{"a", "b : c"}, runner.Lines("a\r\n\r\n  b : c  \n"))
	assert.Empty(t, runner.Lines(""))
}

func TestFake(t *testing.T) {
	f := runner.NewFake().
		On("sc query Spooler", runner.Result{Stdout: "RUNNING"}, nil).
		On("sc", runner.Result{ExitCode: 1060}, nil).
		Handle("netsh int tcp set", func(c runner.Call) runner.Response {
			return runner.Response{Result: runner.Result{Stdout: c.Args[len(c.Args)-1]}}
		})

	res, err := f.Run(context.Background(), "sc", "query", "Spooler")
	require.NoError(t, err)
	assert.Equal(t, "RUNNING", res.Stdout)

	res, err = f.Run(context.Background(), "sc", "query", "Other")
	require.NoError(t, err)
	assert.Equal(t, 1060, res.ExitCode, "falls back to prefix match")

	res, err = f.Run(context.Background(), "netsh", "int", "tcp", "set", "global", "rss=enabled")
	require.NoError(t, err)
	assert.Equal(t, "rss=enabled", res.Stdout)

	res, err = f.Run(context.Background(), "powercfg", "/q")
	require.NoError(t, err)
	assert.Equal(t, 0, res.ExitCode)

	assert.Equal(t, []string{
		"sc query Spooler",
		"sc query Other",
		"netsh int tcp set global rss=enabled",
		"powercfg /q",
	}, f.CallLines())

	f.Reset()
	assert.Empty(t, f.Calls())
}

func TestFake_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := runner.NewFake().Run(ctx, "sc", "query", "x")
	assert.ErrorIs(t, err, context.Canceled)
}
