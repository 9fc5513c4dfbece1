package cli

// Command descriptions
const (
	MsgRootShort = "Snapshot and roll back Windows system settings"
	MsgRootLong  = `snapback captures the state of registry values, services, power plans,
network parameters, DNS servers, TCP/IP globals and files before they are
changed, stores it as a snapshot, and restores it later on request.`

	MsgListShort          = "List saved snapshots, newest first"
	MsgShowShort          = "Show the entries of a snapshot"
	MsgRestoreShort       = "Restore the settings recorded in a snapshot"
	MsgCaptureShort       = "Capture a new snapshot"
	MsgCaptureLong        = "Capture the resources named in a plan file (YAML or TOML). Without --plan, the settings commonly changed by tuning tools are captured."
	MsgDeleteShort        = "Delete a snapshot"
	MsgResetDefaultsShort = "Reset tuned settings to generic Windows defaults"
	MsgResetDefaultsLong  = `Apply a fixed table of stock Windows values to the settings tuning tools
commonly change. This does not use any snapshot and does not bring back your
original configuration: use "snapback restore" for that.`
	MsgConfigShort     = "Show configuration file location or built-in defaults"
	MsgVersionShort    = "Print version information"
	MsgCompletionShort = "Generate shell completion script"
)

// Flag descriptions
const (
	MsgFlagVerbose     = "Increase verbosity (-v INFO, -vv DEBUG, -vvv TRACE)"
	MsgFlagFormat      = "Output format: auto, term, text or json"
	MsgFlagDataDir     = "Directory holding snapshots and file backups"
	MsgFlagDryRun      = "Show what would be restored without changing anything"
	MsgFlagPlan        = "Plan file listing the resources to capture"
	MsgFlagDescription = "Description stored with the snapshot"
	MsgFlagParallel    = "Capture independent resource groups concurrently"
	MsgFlagYes         = "Do not ask for confirmation"
	MsgFlagNoNetReset  = "Skip the TCP/IP stack and Winsock resets"
	MsgFlagDefaults    = "Print the built-in defaults"
)

// Output messages
const (
	MsgSnapshotSaved     = "Saved snapshot %s (%d entries) to %s\n"
	MsgSnapshotSkipped   = "%d resource(s) could not be captured and will not be restored; see the log for details\n"
	MsgSnapshotDeleted   = "Deleted snapshot %s\n"
	MsgRestoreTitle      = "Restore of %s"
	MsgResetTitle        = "Reset to safe defaults"
	MsgResetPrompt       = "Reset tuned settings to generic Windows defaults? This is not a restore of your original settings"
	MsgResetAborted      = "Aborted; nothing was changed"
	MsgConfigFile        = "Config file: %s"
	MsgConfigFileMissing = " (not present, built-in defaults in use)"
)

// Error messages
const (
	MsgErrInitPaths     = "failed to initialize paths: %w"
	MsgErrLoadConfig    = "failed to load configuration: %w"
	MsgErrOpenStore     = "failed to open snapshot store: %w"
	MsgErrRestoreFailed = "%d record(s) could not be restored"
	MsgErrNeedsYes      = "refusing to reset without confirmation; pass --yes when not running interactively"
	MsgErrNoCommand     = "no command specified"
)
