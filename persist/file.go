package persist

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/comalice/storex/internal/codec"
)

// FilePersister writes one document per store into a directory.
type FilePersister struct {
	dir   string
	codec codec.Codec
}

// NewJSONPersister creates a FilePersister writing <dir>/<storeID>.json,
// ensuring the directory exists.
func NewJSONPersister(dir string) (*FilePersister, error) {
	return newFilePersister(dir, codec.JSON)
}

// NewYAMLPersister creates a FilePersister writing <dir>/<storeID>.yaml,
// ensuring the directory exists.
func NewYAMLPersister(dir string) (*FilePersister, error) {
	return newFilePersister(dir, codec.YAML)
}

func newFilePersister(dir string, c codec.Codec) (*FilePersister, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("mkdir %s: %w", dir, err)
	}
	return &FilePersister{dir: dir, codec: c}, nil
}

func (p *FilePersister) path(storeID string) string {
	return filepath.Join(p.dir, storeID+p.codec.Ext())
}

func (p *FilePersister) Save(ctx context.Context, snapshot Snapshot) error {
	if err := validateStoreID(snapshot.StoreID); err != nil {
		return err
	}
	data, err := p.codec.Marshal(snapshot)
	if err != nil {
		return fmt.Errorf("%s marshal: %w", p.codec.Name(), err)
	}

	fn := p.path(snapshot.StoreID)
	tmp := fn + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, fn); err != nil {
		return fmt.Errorf("rename %s: %w", fn, err)
	}
	return nil
}

func (p *FilePersister) Load(ctx context.Context, storeID string) (Snapshot, error) {
	if err := validateStoreID(storeID); err != nil {
		return Snapshot{}, err
	}
	fn := p.path(storeID)
	data, err := os.ReadFile(fn)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Snapshot{}, fmt.Errorf("store %q: %w", storeID, ErrNotFound)
		}
		return Snapshot{}, fmt.Errorf("read %s: %w", fn, err)
	}

	var snapshot Snapshot
	if err := p.codec.Unmarshal(data, &snapshot); err != nil {
		return Snapshot{}, fmt.Errorf("%s unmarshal: %w", p.codec.Name(), err)
	}
	snapshot.StoreID = storeID // Ensure ID
	return snapshot, nil
}

func (p *FilePersister) Delete(ctx context.Context, storeID string) error {
	if err := validateStoreID(storeID); err != nil {
		return err
	}
	if err := os.Remove(p.path(storeID)); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove %s: %w", p.path(storeID), err)
	}
	return nil
}
