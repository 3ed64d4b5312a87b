// Package persist stores store-state snapshots so a store can be rebuilt
// after a restart.
//
// Backends: JSON or YAML files, SQL (SQLite via modernc.org/sqlite, Postgres
// via pgx) and S3-compatible object storage. MemoryPersister is provided for
// tests.
package persist

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/comalice/storex/internal/codec"
)

// Persister saves and loads the latest snapshot per store.
type Persister interface {
	Save(ctx context.Context, snapshot Snapshot) error
	Load(ctx context.Context, storeID string) (Snapshot, error)
	Delete(ctx context.Context, storeID string) error
}

// Snapshot is the serializable state of one store after one dispatch.
// After Load, State holds generically decoded data; use Decode to get a
// typed value back.
type Snapshot struct {
	StoreID    string    `json:"storeID" yaml:"storeID"`
	Sequence   uint64    `json:"sequence" yaml:"sequence"`
	ActionType string    `json:"actionType,omitempty" yaml:"actionType,omitempty"`
	State      any       `json:"state" yaml:"state"`
	Timestamp  time.Time `json:"timestamp" yaml:"timestamp"`
}

var (
	ErrNotFound       = errors.New("snapshot not found")
	ErrInvalidStoreID = errors.New("invalid store ID")
)

// Decode converts snap.State into an S.
func Decode[S any](snap Snapshot) (S, error) {
	s, err := codec.Convert[S](snap.State)
	if err != nil {
		return s, fmt.Errorf("decode snapshot %q: %w", snap.StoreID, err)
	}
	return s, nil
}

// validateStoreID rejects IDs that cannot be used as a file or object name.
func validateStoreID(id string) error {
	if id == "" || strings.ContainsAny(id, `/\`) || id == "." || id == ".." {
		return fmt.Errorf("%w: %q", ErrInvalidStoreID, id)
	}
	return nil
}

// MemoryPersister keeps snapshots in memory. Thread-safe.
type MemoryPersister struct {
	mu    sync.RWMutex
	snaps map[string]Snapshot
	saves int
}

// NewMemoryPersister creates an empty MemoryPersister.
func NewMemoryPersister() *MemoryPersister {
	return &MemoryPersister{snaps: make(map[string]Snapshot)}
}

func (p *MemoryPersister) Save(ctx context.Context, snapshot Snapshot) error {
	if err := validateStoreID(snapshot.StoreID); err != nil {
		return err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.snaps[snapshot.StoreID] = snapshot
	p.saves++
	return nil
}

func (p *MemoryPersister) Load(ctx context.Context, storeID string) (Snapshot, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	snap, ok := p.snaps[storeID]
	if !ok {
		return Snapshot{}, fmt.Errorf("store %q: %w", storeID, ErrNotFound)
	}
	return snap, nil
}

func (p *MemoryPersister) Delete(ctx context.Context, storeID string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.snaps, storeID)
	return nil
}

// Saves returns how many snapshots have been saved.
func (p *MemoryPersister) Saves() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.saves
}
