package cli

import (
	"fmt"
	"strings"

	"github.com/arthur-debert/snapback/internal/version"
	"github.com/arthur-debert/snapback/pkg/adapters"
	"github.com/arthur-debert/snapback/pkg/config"
	"github.com/arthur-debert/snapback/pkg/defaults"
	"github.com/arthur-debert/snapback/pkg/errors"
	"github.com/arthur-debert/snapback/pkg/filesystem"
	"github.com/arthur-debert/snapback/pkg/plan"
	"github.com/arthur-debert/snapback/pkg/restore"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

func newListCmd(getApp func() *app) *cobra.Command {
	return &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   MsgListShort,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a := getApp()
			snaps, err := a.store.List()
			if err != nil {
				return err
			}
			return a.renderer().SnapshotList(snaps)
		},
	}
}

func newShowCmd(getApp func() *app) *cobra.Command {
	return &cobra.Command{
		Use:   "show <snapshot-id>",
		Short: MsgShowShort,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a := getApp()
			snap, err := a.store.Load(args[0])
			if err != nil {
				return err
			}
			return a.renderer().Snapshot(snap)
		},
	}
}

func newRestoreCmd(getApp func() *app) *cobra.Command {
	var dryRun bool
	cmd := &cobra.Command{
		Use:   "restore <snapshot-id>",
		Short: MsgRestoreShort,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a := getApp()
			if !cmd.Flags().Changed("dry-run") {
				dryRun = a.cfg.Restore.DryRun
			}
			ctx, cancel := interruptible(cmd)
			defer cancel()

			engine := restore.New(a.adapters.Dispatch(), restore.Options{DryRun: dryRun})
			rep, err := engine.RestoreByID(ctx, a.store, args[0])
			if err != nil {
				return err
			}
			if err := a.renderer().Report(fmt.Sprintf(MsgRestoreTitle, args[0]), rep); err != nil {
				return err
			}
			return reportError(rep)
		},
	}
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, MsgFlagDryRun)
	return cmd
}

func reportError(rep *restore.Report) error {
	if rep.Cancelled {
		return errors.New(errors.ErrApply, "interrupted")
	}
	if n := rep.Totals().Failed; n > 0 {
		return errors.Newf(errors.ErrApply, MsgErrRestoreFailed, n)
	}
	return nil
}

// defaultPlan captures what reset-defaults would change, so a tuning run
// can be undone without writing a plan file
func defaultPlan(cfg *config.Config) *plan.Plan {
	table := defaults.DefaultTable()
	p := &plan.Plan{
		Description: "settings commonly changed by tuning tools",
		Network:     plan.NetworkItem{Settings: cfg.Network.Settings},
		DNS:         plan.DNSTarget{All: true},
		TcpIp:       cfg.TcpIp.Settings,
		Power:       []adapters.PowerID{{Type: "active-scheme", Args: adapters.DefaultPowerQuery}},
	}
	for _, r := range table.Registry {
		if r.ID.Path == adapters.SystemProfilePath {
			p.Network.System = append(p.Network.System, r.ID.Name)
			continue
		}
		p.Registry = append(p.Registry, r.ID)
	}
	for _, s := range table.Services {
		p.Services = append(p.Services, s.Name)
	}
	return p
}

func newCaptureCmd(getApp func() *app) *cobra.Command {
	var (
		planPath    string
		description string
		parallel    bool
	)
	cmd := &cobra.Command{
		Use:   "capture",
		Short: MsgCaptureShort,
		Long:  MsgCaptureLong,
		Args:  cobra.NoArgs,
		Example: `  snapback capture -d "before gaming tweaks"
  snapback capture --plan tweaks.yaml`,
		RunE: func(cmd *cobra.Command, args []string) error {
			a := getApp()
			p := defaultPlan(a.cfg)
			if planPath != "" {
				var err error
				if p, err = plan.Load(a.fs, planPath); err != nil {
					return err
				}
			}
			if parallel {
				p.Parallel = true
			}
			if description == "" {
				description = p.Description
			}

			ctx, cancel := interruptible(cmd)
			defer cancel()

			s, err := a.manager.StartSession(description)
			if err != nil {
				return err
			}
			if err := plan.Execute(ctx, s, p); err != nil {
				s.Discard()
				return err
			}
			skipped := len(s.Skipped())
			id, path, err := s.Save(ctx)
			if err != nil {
				s.Discard()
				return err
			}
			snap, err := a.store.Load(id)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, MsgSnapshotSaved, id, snap.Len(), path)
			if skipped > 0 {
				fmt.Fprintf(out, MsgSnapshotSkipped, skipped)
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&planPath, "plan", "p", "", MsgFlagPlan)
	cmd.Flags().StringVarP(&description, "description", "d", "", MsgFlagDescription)
	cmd.Flags().BoolVar(&parallel, "parallel", false, MsgFlagParallel)
	return cmd
}

func newDeleteCmd(getApp func() *app) *cobra.Command {
	return &cobra.Command{
		Use:     "delete <snapshot-id>...",
		Aliases: []string{"rm"},
		Short:   MsgDeleteShort,
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a := getApp()
			for _, id := range args {
				if err := a.store.Delete(id); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), MsgSnapshotDeleted, id)
			}
			return nil
		},
	}
}

func newResetDefaultsCmd(getApp func() *app) *cobra.Command {
	var (
		yes          bool
		skipNetReset bool
	)
	cmd := &cobra.Command{
		Use:   "reset-defaults",
		Short: MsgResetDefaultsShort,
		Long:  MsgResetDefaultsLong,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a := getApp()
			if !yes {
				ok, err := a.confirm(MsgResetPrompt)
				if err != nil {
					return err
				}
				if !ok {
					fmt.Fprintln(cmd.OutOrStdout(), MsgResetAborted)
					return nil
				}
			}

			table := defaults.DefaultTable()
			table.InterfaceSettings = a.cfg.Network.Settings
			if skipNetReset {
				table.NetworkCommands = nil
			}

			ctx, cancel := interruptible(cmd)
			defer cancel()
			rep := defaults.ResetToSafeDefaults(ctx, a.adapters, a.runner, table)
			if err := a.renderer().Report(MsgResetTitle, rep); err != nil {
				return err
			}
			return reportError(rep)
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, MsgFlagYes)
	cmd.Flags().BoolVar(&skipNetReset, "skip-network-reset", false, MsgFlagNoNetReset)
	return cmd
}

func newConfigCmd(getApp func() *app) *cobra.Command {
	var showDefaults bool
	cmd := &cobra.Command{
		Use:   "config",
		Short: MsgConfigShort,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			if showDefaults {
				fmt.Fprint(out, config.DefaultContent())
				return nil
			}
			a := getApp()
			path := a.paths.ConfigFilePath()
			line := fmt.Sprintf(MsgConfigFile, path)
			if exists, _ := filesystem.Exists(a.fs, path); !exists {
				line += MsgConfigFileMissing
			}
			fmt.Fprintln(out, line)
			fmt.Fprintf(out, "Snapshots:   %s\n", a.store.Dir())
			fmt.Fprintf(out, "Timeout:     %s\n", a.cfg.Runner.Timeout)
			fmt.Fprintf(out, "Network:     %s\n", strings.Join(a.cfg.Network.Settings, ", "))
			fmt.Fprintf(out, "TCP/IP:      %s\n", strings.Join(a.cfg.TcpIp.Settings, ", "))
			return nil
		},
	}
	cmd.Flags().BoolVar(&showDefaults, "defaults", false, MsgFlagDefaults)
	return cmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:         "version",
		Short:       MsgVersionShort,
		Args:        cobra.NoArgs,
		Annotations: map[string]string{"standalone": "true"},
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), version.String())
		},
	}
}

func newCompletionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "completion [bash|zsh|fish|powershell]",
		Short: MsgCompletionShort,
		Long: `To load completions:

Bash:
  $ source <(snapback completion bash)

Zsh:
  $ snapback completion zsh > "${fpath[1]}/_snapback"

Fish:
  $ snapback completion fish | source

PowerShell:
  PS> snapback completion powershell | Out-String | Invoke-Expression
`,
		DisableFlagsInUseLine: true,
		ValidArgs:             []string{"bash", "zsh", "fish", "powershell"},
		Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		Annotations:           map[string]string{"standalone": "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			var err error
			switch args[0] {
			case "bash":
				err = cmd.Root().GenBashCompletion(cmd.OutOrStdout())
			case "zsh":
				err = cmd.Root().GenZshCompletion(cmd.OutOrStdout())
			case "fish":
				err = cmd.Root().GenFishCompletion(cmd.OutOrStdout(), true)
			case "powershell":
				err = cmd.Root().GenPowerShellCompletionWithDesc(cmd.OutOrStdout())
			}
			if err != nil {
				log.Error().Err(err).Str("shell", args[0]).Msg("Failed to generate completion")
			}
			return err
		},
	}
}
