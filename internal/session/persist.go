// ABOUTME: Persisted session snapshot under the auth-storage key
// ABOUTME: Reads legacy per-field keys once, migrates them and deletes them

package session

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/markalston/einvoice/internal/models"
	"github.com/markalston/einvoice/internal/storage"
)

const (
	// StorageKey is the storage key of the session snapshot
	StorageKey = "auth-storage"
	// SnapshotVersion is the version written with every snapshot
	SnapshotVersion = 1
)

// Keys written by older clients, one field per key
var legacyKeys = []string{"accessToken", "refreshToken", "user"}

// Snapshot is the durable subset of the session
type Snapshot struct {
	User            *models.User `json:"user"`
	AccessToken     string       `json:"accessToken,omitempty"`
	RefreshToken    string       `json:"refreshToken,omitempty"`
	IsAuthenticated bool         `json:"isAuthenticated"`
}

// Valid reports whether the snapshot can seed an authenticated session
func (s Snapshot) Valid() bool {
	return s.IsAuthenticated && s.User != nil && s.User.ID != "" && s.AccessToken != "" && s.RefreshToken != ""
}

type snapshotEnvelope struct {
	State   Snapshot `json:"state"`
	Version int      `json:"version"`
}

// Persister reads and writes the session snapshot in a Storage
type Persister struct {
	store storage.Storage
}

// NewPersister creates a persister over store
func NewPersister(store storage.Storage) *Persister {
	return &Persister{store: store}
}

// Load returns the stored snapshot, or nil when none exists or it is malformed.
// Legacy keys are folded into the snapshot when no snapshot exists yet, then removed.
func (p *Persister) Load() (*Snapshot, error) {
	if err := p.migrateLegacy(); err != nil {
		return nil, err
	}

	raw, ok, err := p.store.GetItem(StorageKey)
	if err != nil {
		return nil, fmt.Errorf("reading session snapshot: %w", err)
	}
	if !ok {
		return nil, nil
	}

	var env snapshotEnvelope
	if err := json.Unmarshal([]byte(raw), &env); err != nil {
		return nil, nil
	}
	return &env.State, nil
}

// Save writes snap as the current snapshot
func (p *Persister) Save(snap Snapshot) error {
	data, err := json.Marshal(snapshotEnvelope{State: snap, Version: SnapshotVersion})
	if err != nil {
		return err
	}
	if err := p.store.SetItem(StorageKey, string(data)); err != nil {
		return fmt.Errorf("writing session snapshot: %w", err)
	}
	return nil
}

// Clear replaces the snapshot with an empty one and drops any legacy keys
func (p *Persister) Clear() error {
	err := p.Save(Snapshot{})
	return errors.Join(err, p.removeLegacy())
}

func (p *Persister) migrateLegacy() error {
	values := make(map[string]string, len(legacyKeys))
	for _, key := range legacyKeys {
		v, ok, err := p.store.GetItem(key)
		if err != nil {
			return fmt.Errorf("reading legacy session key %s: %w", key, err)
		}
		if ok {
			values[key] = v
		}
	}
	if len(values) == 0 {
		return nil
	}

	_, hasSnapshot, err := p.store.GetItem(StorageKey)
	if err != nil {
		return fmt.Errorf("reading session snapshot: %w", err)
	}
	if !hasSnapshot {
		snap := Snapshot{
			AccessToken:     values["accessToken"],
			RefreshToken:    values["refreshToken"],
			IsAuthenticated: true,
		}
		var user models.User
		if raw := values["user"]; raw != "" && json.Unmarshal([]byte(raw), &user) == nil {
			snap.User = &user
		}
		if snap.Valid() {
			if err := p.Save(snap); err != nil {
				return err
			}
		}
	}
	return p.removeLegacy()
}

func (p *Persister) removeLegacy() error {
	var errs []error
	for _, key := range legacyKeys {
		if err := p.store.RemoveItem(key); err != nil {
			errs = append(errs, fmt.Errorf("removing legacy session key %s: %w", key, err))
		}
	}
	return errors.Join(errs...)
}
