package store

import (
	"bytes"
	"encoding/json"
	"math"
	"sort"
	"strconv"
	"time"

	"github.com/arthur-debert/snapback/pkg/errors"
	"github.com/arthur-debert/snapback/pkg/types"
)

// DocumentVersion is written into every new document
const DocumentVersion = 1

type document struct {
	ID          string    `json:"id"`
	CreatedAt   time.Time `json:"createdAt"`
	Description string    `json:"description"`
	Version     int       `json:"version"`

	RegistryChanges []json.RawMessage `json:"registryChanges"`
	ServiceChanges  []json.RawMessage `json:"serviceChanges"`
	PowerSettings   []json.RawMessage `json:"powerSettings"`
	NetworkSettings []json.RawMessage `json:"networkSettings"`
	DnsSettings     []json.RawMessage `json:"dnsSettings"`
	TcpIpSettings   []json.RawMessage `json:"tcpIpSettings"`
	FileChanges     []json.RawMessage `json:"fileChanges"`
}

func (d *document) list(kind types.RecordKind) *[]json.RawMessage {
	switch kind {
	case types.RecordRegistry:
		return &d.RegistryChanges
	case types.RecordService:
		return &d.ServiceChanges
	case types.RecordPower:
		return &d.PowerSettings
	case types.RecordNetwork:
		return &d.NetworkSettings
	case types.RecordDNS:
		return &d.DnsSettings
	case types.RecordTcpIp:
		return &d.TcpIpSettings
	case types.RecordFile:
		return &d.FileChanges
	}
	return nil
}

// Encode renders a snapshot as an indented JSON document
func Encode(snap *types.Snapshot) ([]byte, error) {
	doc := document{
		ID:          snap.ID,
		CreatedAt:   snap.CreatedAt.UTC(),
		Description: snap.Description,
		Version:     DocumentVersion,
	}
	for _, kind := range types.AllRecordKinds {
		*doc.list(kind) = []json.RawMessage{}
	}

	for seq, rec := range snap.Entries {
		list := doc.list(rec.Kind())
		if list == nil {
			return nil, errors.Newf(errors.ErrInternal, "unknown record kind %q", rec.Kind())
		}
		raw, err := encodeEntry(seq, rec)
		if err != nil {
			return nil, errors.Wrapf(err, errors.ErrStoreWrite, "failed to encode %s", rec.Identity())
		}
		*list = append(*list, raw)
	}

	return json.MarshalIndent(doc, "", "  ")
}

func encodeEntry(seq int, rec types.ChangeRecord) (json.RawMessage, error) {
	data, err := json.Marshal(rec)
	if err != nil {
		return nil, err
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil, err
	}
	fields["seq"] = json.RawMessage(strconv.Itoa(seq))
	return json.Marshal(fields)
}

// entryMeta holds the fields every entry carries regardless of kind
type entryMeta struct {
	Seq           *int  `json:"seq"`
	ExistedBefore *bool `json:"existedBefore"`
}

type decoded struct {
	rec types.ChangeRecord
	seq int
}

// Decode parses a document back into a snapshot, in capture order
func Decode(data []byte) (*types.Snapshot, error) {
	var doc document
	dec := json.NewDecoder(bytes.NewReader(data))
	if err := dec.Decode(&doc); err != nil {
		return nil, errors.Wrap(err, errors.ErrStoreCorrupt, "invalid snapshot document")
	}
	if doc.ID == "" {
		return nil, errors.New(errors.ErrStoreCorrupt, "snapshot document has no id")
	}

	var entries []decoded
	for _, kind := range types.AllRecordKinds {
		for i, raw := range *doc.list(kind) {
			rec, _ := types.NewRecord(kind)
			if err := json.Unmarshal(raw, rec); err != nil {
				return nil, errors.Wrapf(err, errors.ErrStoreCorrupt, "invalid %s entry %d", kind, i)
			}
			var s entryMeta
			if err := json.Unmarshal(raw, &s); err != nil {
				return nil, errors.Wrapf(err, errors.ErrStoreCorrupt, "invalid seq in %s entry %d", kind, i)
			}
			if s.ExistedBefore == nil {
				return nil, errors.Newf(errors.ErrStoreCorrupt, "%s entry %d has no existedBefore", kind, i).
					WithDetail("identity", rec.Identity())
			}
			seq := math.MaxInt
			if s.Seq != nil {
				seq = *s.Seq
			}
			entries = append(entries, decoded{rec: rec, seq: seq})
		}
	}
	sort.SliceStable(entries, func(i, j int) bool { return entries[i].seq < entries[j].seq })

	snap := &types.Snapshot{
		ID:          doc.ID,
		CreatedAt:   doc.CreatedAt,
		Description: doc.Description,
		Entries:     make([]types.ChangeRecord, len(entries)),
	}
	for i, e := range entries {
		snap.Entries[i] = e.rec
	}
	return snap, nil
}
