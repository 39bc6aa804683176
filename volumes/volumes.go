// Package volumes stores the destinations transforms are written to.
// A volume names a writer backend, the public URL its files are served
// from, and the credentials the backend needs.
package volumes

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"github.com/cockroachdb/pebble"

	"imageoptimize/config"
	"imageoptimize/logger"
)

// Volume types understood by writerBackends
const (
	TypeDirectServe = "directServe"
	TypeS3          = "s3"
	TypeGCS         = "gcs"
	TypeSFTP        = "sftp"
)

// DefaultHandle is the local volume created on first start
const DefaultHandle = "local"

var ErrVolumeNotFound = errors.New("volume not found")

type Volume struct {
	Handle      string            `json:"handle"`
	Type        string            `json:"type"`
	BaseURL     string            `json:"baseUrl"`             // public URL prefix of the files
	Subfolder   string            `json:"subfolder,omitempty"` // key prefix inside the backend
	Credentials map[string]string `json:"credentials,omitempty"`
}

// Validate checks the fields every backend needs
func (v *Volume) Validate() error {
	if v.Handle == "" {
		return errors.New("volume handle is required")
	}
	switch v.Type {
	case TypeDirectServe, TypeS3, TypeGCS, TypeSFTP:
	default:
		return fmt.Errorf("unknown volume type %q", v.Type)
	}
	return nil
}

var db *pebble.DB

// OpenDB opens the Pebble DB for volumes at the specified path
func OpenDB(dbPath string) error {
	var err error
	db, err = pebble.Open(dbPath, &pebble.Options{})
	if err != nil {
		logger.Errorf("Failed to open Pebble DB: %v", err)
		return err
	}
	return nil
}

// CloseDB closes the DB
func CloseDB() error {
	if db != nil {
		err := db.Close()
		db = nil
		return err
	}
	return nil
}

// Get returns the volume stored under handle
func Get(handle string) (*Volume, error) {
	if db == nil {
		return nil, fmt.Errorf("volumes store not initialized")
	}
	value, closer, err := db.Get([]byte(handle))
	if errors.Is(err, pebble.ErrNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrVolumeNotFound, handle)
	}
	if err != nil {
		return nil, err
	}
	defer closer.Close()
	var v Volume
	if err := json.Unmarshal(value, &v); err != nil {
		return nil, fmt.Errorf("failed to decode volume %s: %w", handle, err)
	}
	return &v, nil
}

// Store saves v under its handle
func Store(v *Volume) error {
	if db == nil {
		return fmt.Errorf("volumes store not initialized")
	}
	if err := v.Validate(); err != nil {
		return err
	}
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return db.Set([]byte(v.Handle), data, pebble.Sync)
}

// Delete deletes the volume stored under handle
func Delete(handle string) error {
	if db == nil {
		return fmt.Errorf("volumes store not initialized")
	}
	return db.Delete([]byte(handle), pebble.Sync)
}

// List returns all volumes sorted by handle. Credentials are included.
func List() ([]Volume, error) {
	if db == nil {
		return nil, fmt.Errorf("volumes store not initialized")
	}
	iter, err := db.NewIter(&pebble.IterOptions{})
	if err != nil {
		return nil, err
	}
	defer iter.Close()

	var out []Volume
	for iter.First(); iter.Valid(); iter.Next() {
		var v Volume
		if err := json.Unmarshal(iter.Value(), &v); err != nil {
			continue // Skip invalid records
		}
		out = append(out, v)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Handle < out[j].Handle })
	return out, iter.Error()
}

// EnsureDefault creates the local direct-serve volume when it does not exist yet
func EnsureDefault() (*Volume, error) {
	v, err := Get(DefaultHandle)
	if err == nil {
		return v, nil
	}
	if !errors.Is(err, ErrVolumeNotFound) {
		return nil, err
	}
	v = &Volume{
		Handle:  DefaultHandle,
		Type:    TypeDirectServe,
		BaseURL: config.GetBaseURL(),
		Credentials: map[string]string{
			"baseDir": config.GetDirectServeBaseDir(),
		},
	}
	if err := Store(v); err != nil {
		return nil, err
	}
	logger.Infof("Created default volume %q serving %s at %s", v.Handle, v.Credentials["baseDir"], v.BaseURL)
	return v, nil
}
