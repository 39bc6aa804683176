package assets

import (
	"encoding/json"
	"errors"
	"fmt"

	pebble "github.com/cockroachdb/pebble"
)

var ErrAssetNotFound = errors.New("asset not found")

var db *pebble.DB

// Init initializes the asset store
func Init(dbPath string) error {
	var err error
	db, err = pebble.Open(dbPath, &pebble.Options{})
	if err != nil {
		return fmt.Errorf("failed to open asset store: %w", err)
	}
	return nil
}

// Close closes the asset store
func Close() error {
	if db != nil {
		err := db.Close()
		db = nil
		return err
	}
	return nil
}

// Get loads an asset by id
func Get(id string) (*Asset, error) {
	if db == nil {
		return nil, fmt.Errorf("asset store not initialized")
	}
	data, closer, err := db.Get([]byte(id))
	if err != nil {
		if errors.Is(err, pebble.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrAssetNotFound, id)
		}
		return nil, err
	}
	defer closer.Close()

	var a Asset
	if err := json.Unmarshal(data, &a); err != nil {
		return nil, fmt.Errorf("failed to unmarshal asset %s: %w", id, err)
	}
	return &a, nil
}

// Put writes an asset record; the asset must have an id
func Put(a *Asset) error {
	if db == nil {
		return fmt.Errorf("asset store not initialized")
	}
	if a.ID == "" {
		return errors.New("asset id is required")
	}
	data, err := json.Marshal(a)
	if err != nil {
		return fmt.Errorf("failed to marshal asset: %w", err)
	}
	return db.Set([]byte(a.ID), data, pebble.Sync)
}

// Delete removes an asset record
func Delete(id string) error {
	if db == nil {
		return fmt.Errorf("asset store not initialized")
	}
	return db.Delete([]byte(id), pebble.Sync)
}

// List returns every stored asset in id order
func List() ([]*Asset, error) {
	if db == nil {
		return nil, fmt.Errorf("asset store not initialized")
	}
	iter, err := db.NewIter(&pebble.IterOptions{})
	if err != nil {
		return nil, err
	}
	defer iter.Close()

	var out []*Asset
	for iter.First(); iter.Valid(); iter.Next() {
		var a Asset
		if err := json.Unmarshal(iter.Value(), &a); err != nil {
			continue // Skip invalid records
		}
		out = append(out, &a)
	}
	return out, nil
}
