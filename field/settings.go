package field

import (
	"encoding/json"
	"errors"
	"fmt"

	pebble "github.com/cockroachdb/pebble"

	"imageoptimize/variants"
)

var settingsDB *pebble.DB

// InitSettings opens the field settings store
func InitSettings(dbPath string) error {
	var err error
	settingsDB, err = pebble.Open(dbPath, &pebble.Options{})
	if err != nil {
		return fmt.Errorf("failed to open field settings store: %w", err)
	}
	return nil
}

// CloseSettings closes the field settings store
func CloseSettings() error {
	if settingsDB != nil {
		err := settingsDB.Close()
		settingsDB = nil
		return err
	}
	return nil
}

// SaveSettings persists the variants of the field under its handle
func (f *Field) SaveSettings() error {
	if settingsDB == nil {
		return fmt.Errorf("field settings store not initialized")
	}
	data, err := json.Marshal(f.Variants())
	if err != nil {
		return fmt.Errorf("failed to marshal variants: %w", err)
	}
	return settingsDB.Set([]byte(f.Handle), data, pebble.Sync)
}

// LoadSettings replaces the variants with the persisted ones. It reports
// false when nothing was stored for the handle.
func (f *Field) LoadSettings() (bool, error) {
	if settingsDB == nil {
		return false, fmt.Errorf("field settings store not initialized")
	}
	data, closer, err := settingsDB.Get([]byte(f.Handle))
	if errors.Is(err, pebble.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	defer closer.Close()

	specs, err := variants.Parse(data)
	if err != nil {
		return false, fmt.Errorf("stored settings of field %s: %w", f.Handle, err)
	}
	f.mu.Lock()
	f.variants = specs
	f.mu.Unlock()
	return true, nil
}
