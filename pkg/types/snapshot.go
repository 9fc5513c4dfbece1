package types

import "time"

// Snapshot is the pre-mutation state of a set of resources. Entries are in
// capture order, which is not necessarily a safe restore-dependency order.
// A persisted Snapshot is never modified.
type Snapshot struct {
	ID          string
	CreatedAt   time.Time
	Description string
	Entries     []ChangeRecord
}

// Counts returns the number of entries per record kind
func (s *Snapshot) Counts() map[RecordKind]int {
	counts := make(map[RecordKind]int, len(AllRecordKinds))
	for _, e := range s.Entries {
		counts[e.Kind()]++
	}
	return counts
}

// Len returns the number of entries
func (s *Snapshot) Len() int {
	return len(s.Entries)
}
