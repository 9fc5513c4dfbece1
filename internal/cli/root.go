package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"time"

	"github.com/arthur-debert/snapback/internal/version"
	"github.com/arthur-debert/snapback/pkg/adapters"
	"github.com/arthur-debert/snapback/pkg/config"
	"github.com/arthur-debert/snapback/pkg/display"
	"github.com/arthur-debert/snapback/pkg/errors"
	"github.com/arthur-debert/snapback/pkg/filesystem"
	"github.com/arthur-debert/snapback/pkg/idgen"
	"github.com/arthur-debert/snapback/pkg/logging"
	"github.com/arthur-debert/snapback/pkg/paths"
	"github.com/arthur-debert/snapback/pkg/runner"
	"github.com/arthur-debert/snapback/pkg/snapshot"
	"github.com/arthur-debert/snapback/pkg/store"
	"github.com/arthur-debert/snapback/pkg/types"
	"github.com/arthur-debert/snapback/pkg/winreg"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var errNeedsYes = errors.New(errors.ErrInvalidInput, MsgErrNeedsYes)

// Deps replaces the system backends, for tests. Nil fields use the real
// implementation.
type Deps struct {
	FS       types.FS
	Keys     winreg.KeyStore
	Runner   runner.Runner
	Services adapters.ServiceControl
	IDs      idgen.Generator
	Clock    func() time.Time
	Confirm  func(prompt string) (bool, error)
	// SkipLogSetup leaves the global logger alone
	SkipLogSetup bool
}

// app holds everything a command needs, built once flags are parsed
type app struct {
	paths    paths.Paths
	cfg      *config.Config
	fs       types.FS
	runner   runner.Runner
	store    *store.FileStore
	adapters *adapters.Set
	manager  *snapshot.Manager
	confirm  func(prompt string) (bool, error)
	out      io.Writer
	format   display.Format
}

func (a *app) renderer() *display.Renderer {
	return display.New(a.out, a.format)
}

type rootOptions struct {
	verbosity int
	format    string
	dataDir   string
}

func newApp(cmd *cobra.Command, opts *rootOptions, deps Deps) (*app, error) {
	p, err := paths.New(opts.dataDir)
	if err != nil {
		return nil, fmt.Errorf(MsgErrInitPaths, err)
	}
	cfg, err := config.Load(p.ConfigFilePath())
	if err != nil {
		return nil, fmt.Errorf(MsgErrLoadConfig, err)
	}

	format, err := display.ParseFormat(opts.format)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrInvalidInput, "invalid --format")
	}
	if format == display.FormatAuto {
		format = display.FormatText
		if f, ok := cmd.OutOrStdout().(*os.File); ok {
			format = display.DetectFormat(f)
		}
	}

	a := &app{paths: p, cfg: cfg, fs: deps.FS, runner: deps.Runner, confirm: deps.Confirm, out: cmd.OutOrStdout(), format: format}
	if a.fs == nil {
		a.fs = filesystem.NewOS()
	}
	if a.runner == nil {
		a.runner = runner.New(runner.Options{Timeout: cfg.Runner.Timeout, PowerShell: cfg.Runner.PowerShell})
	}
	if a.confirm == nil {
		a.confirm = confirmInteractive
	}
	keys := deps.Keys
	if keys == nil {
		keys = winreg.NewSystem()
	}

	snapDir := p.SnapshotDir()
	if cfg.Store.Dir != "" {
		snapDir = paths.ExpandHome(cfg.Store.Dir)
	}
	a.store, err = store.New(a.fs, snapDir, store.Options{ValidateSchema: cfg.Store.ValidateSchema})
	if err != nil {
		return nil, fmt.Errorf(MsgErrOpenStore, err)
	}
	a.adapters = adapters.NewSet(adapters.Options{
		Runner:   a.runner,
		Keys:     keys,
		Services: deps.Services,
		FS:       a.fs,
		BlobDir:  p.BlobDir(),
	})
	a.manager = snapshot.NewManager(a.adapters, a.store, snapshot.Options{IDGenerator: deps.IDs, Clock: deps.Clock})
	return a, nil
}

// interruptible returns a context cancelled on Ctrl-C, so a restore stops
// between records
func interruptible(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	return signal.NotifyContext(ctx, os.Interrupt)
}

// NewRootCmd creates the root command with the real system backends
func NewRootCmd() *cobra.Command {
	return NewRootCmdWith(Deps{})
}

// NewRootCmdWith creates the root command over deps
func NewRootCmdWith(deps Deps) *cobra.Command {
	initTemplateFormatting()

	opts := &rootOptions{}
	var a *app

	rootCmd := &cobra.Command{
		Use:     "snapback",
		Short:   MsgRootShort,
		Long:    MsgRootLong,
		Version: version.Version,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !deps.SkipLogSetup {
				logging.SetupLogger(opts.verbosity)
			}
			log.Debug().Str("command", cmd.Name()).Msg("Command started")
			if cmd.Annotations["standalone"] == "true" {
				return nil
			}
			var err error
			a, err = newApp(cmd, opts, deps)
			return err
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			_ = cmd.Help()
			return fmt.Errorf(MsgErrNoCommand)
		},
		SilenceUsage:      true,
		SilenceErrors:     true,
		DisableAutoGenTag: true,
		CompletionOptions: cobra.CompletionOptions{DisableDefaultCmd: true},
	}

	rootCmd.PersistentFlags().CountVarP(&opts.verbosity, "verbose", "v", MsgFlagVerbose)
	rootCmd.PersistentFlags().StringVar(&opts.format, "format", "auto", MsgFlagFormat)
	rootCmd.PersistentFlags().StringVar(&opts.dataDir, "data-dir", "", MsgFlagDataDir)
	rootCmd.SetUsageTemplate(usageTemplate)

	rootCmd.AddGroup(&cobra.Group{ID: "snapshots", Title: "SNAPSHOTS:"})
	rootCmd.AddGroup(&cobra.Group{ID: "misc", Title: "MISC:"})

	getApp := func() *app { return a }
	for _, c := range []*cobra.Command{
		newCaptureCmd(getApp),
		newListCmd(getApp),
		newShowCmd(getApp),
		newRestoreCmd(getApp),
		newDeleteCmd(getApp),
		newResetDefaultsCmd(getApp),
	} {
		c.GroupID = "snapshots"
		rootCmd.AddCommand(c)
	}
	for _, c := range []*cobra.Command{
		newConfigCmd(getApp),
		newVersionCmd(),
		newCompletionCmd(),
	} {
		c.GroupID = "misc"
		rootCmd.AddCommand(c)
	}
	return rootCmd
}

const usageTemplate = `{{boldUpper "usage"}}:{{if .Runnable}}
  {{.UseLine}}{{end}}{{if .HasAvailableSubCommands}}
  {{.CommandPath}} [command]{{end}}{{if .HasExample}}

{{boldUpper "examples"}}:
{{.Example}}{{end}}{{if .HasAvailableSubCommands}}{{$cmds := .Commands}}{{range $group := .Groups}}

{{bold $group.Title}}{{range $cmds}}{{if (and (eq .GroupID $group.ID) (or .IsAvailableCommand (eq .Name "help")))}}
  {{rpad .Name .NamePadding }} {{.Short}}{{end}}{{end}}{{end}}{{end}}{{if .HasAvailableLocalFlags}}

{{boldUpper "flags"}}:
{{.LocalFlags.FlagUsages | trimTrailingWhitespaces}}{{end}}{{if .HasAvailableInheritedFlags}}

{{boldUpper "global flags"}}:
{{.InheritedFlags.FlagUsages | trimTrailingWhitespaces}}{{end}}{{if .HasAvailableSubCommands}}

Use "{{.CommandPath}} [command] --help" for more information about a command.{{end}}
`
