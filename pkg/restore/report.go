package restore

import (
	"time"

	"github.com/arthur-debert/snapback/pkg/types"
)

// Counts tallies the outcome of records of one kind
type Counts struct {
	Restored int
	Failed   int
	Skipped  int
}

// Total returns the number of records counted
func (c Counts) Total() int {
	return c.Restored + c.Failed + c.Skipped
}

// Failure is one record that could not be restored
type Failure struct {
	Kind     types.RecordKind
	Identity string
	Err      error
}

// Report is the outcome of a restore. "Restored" means the write
// succeeded; the live state is not read back to verify it.
type Report struct {
	SnapshotID string
	DryRun     bool
	Cancelled  bool
	Duration   time.Duration

	Counts   map[types.RecordKind]Counts
	Failures []Failure
	// Advisory notes for records that are reported instead of reapplied
	Advisory []string
	// RestartRecommended is set when restored settings are usually only
	// picked up after a reboot
	RestartRecommended bool
}

// NewReport creates an empty report
func NewReport(snapshotID string) *Report {
	return &Report{
		SnapshotID: snapshotID,
		Counts:     make(map[types.RecordKind]Counts),
	}
}

func (r *Report) add(kind types.RecordKind, fn func(c *Counts)) {
	c := r.Counts[kind]
	fn(&c)
	r.Counts[kind] = c
}

// Restored counts a successful record
func (r *Report) Restored(kind types.RecordKind) {
	r.add(kind, func(c *Counts) { c.Restored++ })
	switch kind {
	case types.RecordRegistry, types.RecordNetwork, types.RecordTcpIp:
		r.RestartRecommended = true
	}
}

// Skipped counts a record that was not attempted
func (r *Report) Skipped(kind types.RecordKind) {
	r.add(kind, func(c *Counts) { c.Skipped++ })
}

// Failed counts a failed record and keeps its reason
func (r *Report) Failed(kind types.RecordKind, identity string, err error) {
	r.add(kind, func(c *Counts) { c.Failed++ })
	r.Failures = append(r.Failures, Failure{Kind: kind, Identity: identity, Err: err})
}

// Totals sums the counts of every kind
func (r *Report) Totals() Counts {
	var t Counts
	for _, c := range r.Counts {
		t.Restored += c.Restored
		t.Failed += c.Failed
		t.Skipped += c.Skipped
	}
	return t
}

// HasFailures reports whether any record failed
func (r *Report) HasFailures() bool {
	return len(r.Failures) > 0
}

// Kinds returns the kinds present in the report in display order
func (r *Report) Kinds() []types.RecordKind {
	kinds := make([]types.RecordKind, 0, len(r.Counts))
	for _, k := range types.AllRecordKinds {
		if _, ok := r.Counts[k]; ok {
			kinds = append(kinds, k)
		}
	}
	return kinds
}
