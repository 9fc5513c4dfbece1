package display

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/arthur-debert/snapback/pkg/restore"
	"github.com/arthur-debert/snapback/pkg/types"
	"github.com/pterm/pterm"
)

// TimeLayout is used for snapshot timestamps
const TimeLayout = "2006-01-02 15:04:05"

// Renderer writes snapshots and reports in one format
type Renderer struct {
	w      io.Writer
	format Format
	styles Styles
}

// New creates a renderer. FormatAuto is treated as text; resolve it
// against the output stream first.
func New(w io.Writer, format Format) *Renderer {
	if format == FormatAuto {
		format = FormatText
	}
	return &Renderer{w: w, format: format, styles: DefaultStyles()}
}

// Format returns the renderer's format
func (r *Renderer) Format() Format {
	return r.format
}

func (r *Renderer) style(name, text string) string {
	if r.format != FormatTerminal {
		return text
	}
	return r.styles.Render(name, text)
}

func (r *Renderer) println(s string) error {
	_, err := fmt.Fprintln(r.w, s)
	return err
}

func (r *Renderer) json(v any) error {
	enc := json.NewEncoder(r.w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func (r *Renderer) table(rows [][]string) error {
	if r.format == FormatTerminal {
		out, err := pterm.DefaultTable.WithHasHeader().WithData(pterm.TableData(rows)).Srender()
		if err != nil {
			return err
		}
		return r.println(out)
	}
	widths := make([]int, len(rows[0]))
	for _, row := range rows {
		for i, cell := range row {
			widths[i] = max(widths[i], len(cell))
		}
	}
	for _, row := range rows {
		cells := make([]string, len(row))
		for i, cell := range row {
			if i == len(row)-1 {
				cells[i] = cell
			} else {
				cells[i] = cell + strings.Repeat(" ", widths[i]-len(cell))
			}
		}
		if err := r.println(strings.TrimRight(strings.Join(cells, "  "), " ")); err != nil {
			return err
		}
	}
	return nil
}

type snapshotSummary struct {
	ID          string                   `json:"id"`
	CreatedAt   time.Time                `json:"createdAt"`
	Description string                   `json:"description"`
	Entries     int                      `json:"entries"`
	Counts      map[types.RecordKind]int `json:"counts"`
}

func summarize(s *types.Snapshot) snapshotSummary {
	return snapshotSummary{
		ID:          s.ID,
		CreatedAt:   s.CreatedAt,
		Description: s.Description,
		Entries:     s.Len(),
		Counts:      s.Counts(),
	}
}

func kindSummary(counts map[types.RecordKind]int) string {
	var parts []string
	for _, k := range types.AllRecordKinds {
		if n := counts[k]; n > 0 {
			parts = append(parts, fmt.Sprintf("%d %s", n, k))
		}
	}
	return strings.Join(parts, ", ")
}

// SnapshotList renders snapshots newest first, as the store lists them
func (r *Renderer) SnapshotList(snaps []*types.Snapshot) error {
	if r.format == FormatJSON {
		list := make([]snapshotSummary, len(snaps))
		for i, s := range snaps {
			list[i] = summarize(s)
		}
		return r.json(list)
	}
	if len(snaps) == 0 {
		return r.println(r.style("Muted", "No snapshots"))
	}
	rows := [][]string{{"ID", "CREATED", "ENTRIES", "DESCRIPTION"}}
	for _, s := range snaps {
		rows = append(rows, []string{
			s.ID,
			s.CreatedAt.Local().Format(TimeLayout),
			fmt.Sprintf("%d", s.Len()),
			s.Description,
		})
	}
	return r.table(rows)
}

type entryView struct {
	Kind     types.RecordKind `json:"kind"`
	Identity string           `json:"identity"`
	Existed  bool             `json:"existed"`
	Before   string           `json:"before"`
}

// Snapshot renders a snapshot's header and every entry in capture order
func (r *Renderer) Snapshot(s *types.Snapshot) error {
	entries := make([]entryView, len(s.Entries))
	for i, e := range s.Entries {
		entries[i] = entryView{Kind: e.Kind(), Identity: e.Identity(), Existed: e.Existed(), Before: Describe(e)}
	}
	if r.format == FormatJSON {
		return r.json(struct {
			snapshotSummary
			Items []entryView `json:"items"`
		}{summarize(s), entries})
	}

	lines := []string{
		r.style("Title", "Snapshot "+s.ID),
		fmt.Sprintf("Created:     %s", s.CreatedAt.Local().Format(TimeLayout)),
	}
	if s.Description != "" {
		lines = append(lines, fmt.Sprintf("Description: %s", s.Description))
	}
	lines = append(lines, fmt.Sprintf("Entries:     %d", s.Len()))
	if sum := kindSummary(s.Counts()); sum != "" {
		lines = append(lines, r.style("Muted", "             "+sum))
	}
	if err := r.println(strings.Join(lines, "\n")); err != nil {
		return err
	}
	if len(entries) == 0 {
		return nil
	}
	if err := r.println(""); err != nil {
		return err
	}

	rows := [][]string{{"#", "KIND", "RESOURCE", "BEFORE"}}
	for i, e := range entries {
		before := e.Before
		if !e.Existed {
			before = r.style("Absent", before)
		}
		rows = append(rows, []string{fmt.Sprintf("%d", i+1), string(e.Kind), e.Identity, before})
	}
	return r.table(rows)
}

type reportView struct {
	SnapshotID         string                              `json:"snapshotId"`
	DryRun             bool                                `json:"dryRun"`
	Cancelled          bool                                `json:"cancelled"`
	DurationMS         int64                               `json:"durationMs"`
	Counts             map[types.RecordKind]restore.Counts `json:"counts"`
	Failures           []failureView                       `json:"failures"`
	Advisory           []string                            `json:"advisory"`
	RestartRecommended bool                                `json:"restartRecommended"`
}

type failureView struct {
	Kind     types.RecordKind `json:"kind"`
	Identity string           `json:"identity"`
	Error    string           `json:"error"`
}

// Report renders a restore or reset report under title
func (r *Renderer) Report(title string, rep *restore.Report) error {
	failures := make([]failureView, len(rep.Failures))
	for i, f := range rep.Failures {
		failures[i] = failureView{Kind: f.Kind, Identity: f.Identity, Error: restore.ErrorText(f.Err)}
	}
	if r.format == FormatJSON {
		return r.json(reportView{
			SnapshotID:         rep.SnapshotID,
			DryRun:             rep.DryRun,
			Cancelled:          rep.Cancelled,
			DurationMS:         rep.Duration.Milliseconds(),
			Counts:             rep.Counts,
			Failures:           failures,
			Advisory:           rep.Advisory,
			RestartRecommended: rep.RestartRecommended,
		})
	}

	if rep.DryRun {
		title += " (dry run)"
	}
	if err := r.println(r.style("Title", title)); err != nil {
		return err
	}

	if kinds := rep.Kinds(); len(kinds) > 0 {
		rows := [][]string{{"KIND", "RESTORED", "FAILED", "SKIPPED"}}
		for _, k := range kinds {
			c := rep.Counts[k]
			rows = append(rows, []string{k.Label(), fmt.Sprintf("%d", c.Restored), fmt.Sprintf("%d", c.Failed), fmt.Sprintf("%d", c.Skipped)})
		}
		if err := r.table(rows); err != nil {
			return err
		}
	}

	t := rep.Totals()
	summary := fmt.Sprintf("%d restored, %d failed, %d skipped", t.Restored, t.Failed, t.Skipped)
	switch {
	case rep.Cancelled:
		summary = r.style("Warning", "Cancelled: ") + summary
	case t.Failed > 0:
		summary = r.style("Error", "Completed with failures: ") + summary
	default:
		summary = r.style("Success", "Done: ") + summary
	}
	if err := r.println(summary); err != nil {
		return err
	}

	if len(failures) > 0 {
		if err := r.println(r.style("Heading", "Failures")); err != nil {
			return err
		}
		for _, f := range failures {
			if err := r.println(fmt.Sprintf("  %s: %s", r.style("Identity", f.Identity), f.Error)); err != nil {
				return err
			}
		}
	}
	if len(rep.Advisory) > 0 {
		if err := r.println(r.style("Heading", "Notes")); err != nil {
			return err
		}
		for _, a := range rep.Advisory {
			if err := r.println("  " + a); err != nil {
				return err
			}
		}
	}
	if rep.RestartRecommended && !rep.DryRun {
		return r.println(r.style("Warning", "A restart is recommended for all changes to take effect."))
	}
	return nil
}
