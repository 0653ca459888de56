package delegation

import (
	"encoding/json"
	"fmt"

	"github.com/opchan/core/replica/storage"
)

// delegationKey is the single row the active delegation is persisted
// under, adapted from the teacher's per-file encrypted keystore model
// (accounts/keystore/key.go) to one KV-store row: OpChan's device key is
// ephemeral and regenerated per delegation rather than a long-lived
// identity worth its own file.
var delegationKey = []byte("delegation")

// Store persists and loads the single active delegation record.
type Store struct {
	db storage.KeyValueStore
}

// NewStore wraps a durable store for delegation persistence.
func NewStore(db storage.KeyValueStore) *Store {
	return &Store{db: db}
}

// Load returns the persisted delegation, or (nil, nil) if none exists.
func (s *Store) Load() (*Record, error) {
	raw, err := s.db.Get(delegationKey)
	if err == storage.ErrNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("delegation: load: %w", err)
	}
	var rec Record
	if err := json.Unmarshal(raw, &rec); err != nil {
		return nil, fmt.Errorf("delegation: decode: %w", err)
	}
	return &rec, nil
}

// Save persists rec as the active delegation, replacing any prior one.
func (s *Store) Save(rec *Record) error {
	raw, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("delegation: encode: %w", err)
	}
	if err := s.db.Put(delegationKey, raw); err != nil {
		return fmt.Errorf("delegation: save: %w", err)
	}
	return nil
}

// Clear removes the active delegation (used by Manager's clear()+create()
// replacement lifecycle, spec.md §3 Lifecycle).
func (s *Store) Clear() error {
	return s.db.Delete(delegationKey)
}
