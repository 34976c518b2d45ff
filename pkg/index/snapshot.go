package index

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Snapshot is the serializable form of a built index: the frameworks with
// their records, the derived indices, and the summary statistics. It
// round-trips losslessly, so a corpus can be reloaded without reparsing the
// source documents.
type Snapshot struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"created_at"`

	Frameworks []Framework `json:"frameworks"`

	// Derived indices, included so exports are self-describing. On load
	// they are rebuilt from the frameworks rather than trusted, which
	// keeps cross-reference integrity checks on the reload path too.
	RecordOrder     []string            `json:"record_order"`
	DomainIndex     map[string][]string `json:"domain_index"`
	CrossReferences map[string][]string `json:"cross_references"`
	PrincipleNames  []string            `json:"principle_names"`

	Stats  Stats            `json:"stats"`
	Report ValidationReport `json:"report"`
}

// NewSnapshot captures the index into a freshly stamped snapshot.
func NewSnapshot(ix *Index) *Snapshot {
	return &Snapshot{
		ID:              uuid.NewString(),
		CreatedAt:       time.Now().UTC(),
		Frameworks:      ix.frameworks,
		RecordOrder:     ix.order,
		DomainIndex:     ix.byDomain,
		CrossReferences: ix.byCrossRef,
		PrincipleNames:  ix.principleOrder,
		Stats:           ix.stats,
		Report:          ix.report,
	}
}

// Restore rebuilds a queryable index from the snapshot's frameworks.
func (s *Snapshot) Restore() (*Index, error) {
	ix, _, err := Build(s.Frameworks)
	if err != nil {
		return nil, fmt.Errorf("restore snapshot %s: %w", s.ID, err)
	}
	return ix, nil
}

// Marshal encodes the snapshot as JSON.
func (s *Snapshot) Marshal() ([]byte, error) {
	return json.Marshal(s)
}

// UnmarshalSnapshot decodes a snapshot from JSON.
func UnmarshalSnapshot(data []byte) (*Snapshot, error) {
	var s Snapshot
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("decode snapshot: %w", err)
	}
	return &s, nil
}
