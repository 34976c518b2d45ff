// Package store persists index snapshots in BadgerDB so a corpus can be
// served without reparsing its source documents.
package store

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/dgraph-io/badger/v4/options"

	commonerrors "github.com/cogpy/chainlex/pkg/common/errors"
	"github.com/cogpy/chainlex/pkg/index"
)

// Key layout. Frameworks are stored individually so large corpora can be
// written and scanned incrementally; meta ties them together.
const (
	keyMeta         = "snapshot/meta"
	frameworkPrefix = "snapshot/framework/"
)

// Config holds the configuration for the snapshot store.
type Config struct {
	// DataDir is the directory where BadgerDB will store its data.
	DataDir string

	// InMemory enables in-memory mode (useful for testing).
	InMemory bool

	// ReadOnly enables read-only mode.
	ReadOnly bool

	// SyncWrites enables synchronous writes. Off by default; snapshots
	// are rewritten wholesale on every build.
	SyncWrites bool

	// Compression enables ZSTD compression.
	Compression bool
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.DataDir == "" && !c.InMemory {
		return fmt.Errorf("DataDir must be specified when InMemory is false")
	}
	return nil
}

// DefaultConfig returns a sensible default configuration.
func DefaultConfig(dataDir string) *Config {
	return &Config{
		DataDir:     dataDir,
		Compression: true,
	}
}

// meta is the snapshot envelope persisted under keyMeta.
type meta struct {
	ID              string                 `json:"id"`
	CreatedAt       time.Time              `json:"created_at"`
	FrameworkCodes  []string               `json:"framework_codes"`
	RecordOrder     []string               `json:"record_order"`
	DomainIndex     map[string][]string    `json:"domain_index"`
	CrossReferences map[string][]string    `json:"cross_references"`
	PrincipleNames  []string               `json:"principle_names"`
	Stats           index.Stats            `json:"stats"`
	Report          index.ValidationReport `json:"report"`
}

// SnapshotStore wraps a Badger database holding one snapshot per corpus
// data directory.
type SnapshotStore struct {
	db *badger.DB
}

// Open opens (or creates) the store at the configured directory.
func Open(cfg *Config) (*SnapshotStore, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	opts := badger.DefaultOptions(cfg.DataDir)
	if cfg.InMemory {
		opts = badger.DefaultOptions("")
		opts.InMemory = true
	}
	opts.ReadOnly = cfg.ReadOnly
	opts.SyncWrites = cfg.SyncWrites
	opts.Logger = nil
	if cfg.Compression {
		opts.Compression = options.ZSTD
	} else {
		opts.Compression = options.None
	}

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open snapshot store: %w", err)
	}
	return &SnapshotStore{db: db}, nil
}

// Close releases the underlying database.
func (s *SnapshotStore) Close() error {
	return s.db.Close()
}

// Save writes the snapshot, replacing any previous one atomically within a
// single transaction.
func (s *SnapshotStore) Save(snap *index.Snapshot) error {
	m := meta{
		ID:              snap.ID,
		CreatedAt:       snap.CreatedAt,
		RecordOrder:     snap.RecordOrder,
		DomainIndex:     snap.DomainIndex,
		CrossReferences: snap.CrossReferences,
		PrincipleNames:  snap.PrincipleNames,
		Stats:           snap.Stats,
		Report:          snap.Report,
	}
	for _, fw := range snap.Frameworks {
		m.FrameworkCodes = append(m.FrameworkCodes, fw.Code)
	}

	return s.db.Update(func(txn *badger.Txn) error {
		metaBytes, err := json.Marshal(m)
		if err != nil {
			return err
		}
		if err := txn.Set([]byte(keyMeta), metaBytes); err != nil {
			return err
		}
		for _, fw := range snap.Frameworks {
			fwBytes, err := json.Marshal(fw)
			if err != nil {
				return fmt.Errorf("encode framework %s: %w", fw.Code, err)
			}
			if err := txn.Set([]byte(frameworkPrefix+fw.Code), fwBytes); err != nil {
				return err
			}
		}
		return nil
	})
}

// Load reads the stored snapshot. Returns ErrNotFound when the store holds
// no snapshot yet.
func (s *SnapshotStore) Load() (*index.Snapshot, error) {
	var m meta
	var frameworks []index.Framework

	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(keyMeta))
		if err == badger.ErrKeyNotFound {
			return fmt.Errorf("%w: no snapshot stored", commonerrors.ErrNotFound)
		}
		if err != nil {
			return err
		}
		if err := item.Value(func(val []byte) error {
			return json.Unmarshal(val, &m)
		}); err != nil {
			return err
		}

		for _, code := range m.FrameworkCodes {
			item, err := txn.Get([]byte(frameworkPrefix + code))
			if err != nil {
				return fmt.Errorf("framework %s missing from store: %w", code, err)
			}
			var fw index.Framework
			if err := item.Value(func(val []byte) error {
				return json.Unmarshal(val, &fw)
			}); err != nil {
				return err
			}
			frameworks = append(frameworks, fw)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	snap := &index.Snapshot{
		ID:              m.ID,
		CreatedAt:       m.CreatedAt,
		Frameworks:      frameworks,
		RecordOrder:     m.RecordOrder,
		DomainIndex:     m.DomainIndex,
		CrossReferences: m.CrossReferences,
		PrincipleNames:  m.PrincipleNames,
		Stats:           m.Stats,
		Report:          m.Report,
	}
	return snap, nil
}
