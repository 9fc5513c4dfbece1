// Package display renders snapshots and restore reports for the CLI.
//
// Three formats are supported. Terminal output uses pterm tables and
// lipgloss styles loaded from the embedded styles.yaml. Text output is
// plain and stable, for pipes and logs. JSON output is for scripts.
// DetectFormat picks terminal or text from the output stream.
package display
