package config

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"
	"gopkg.in/yaml.v3"

	"imageoptimize/logger"
	"imageoptimize/models"
	"imageoptimize/variants"
)

// LoadVariantsFile reads a variant list from a JSON or YAML (.yaml/.yml) file
func LoadVariantsFile(path string) ([]models.VariantSpec, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read variants file: %w", err)
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		var doc any
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return nil, &variants.ConfigError{Cause: fmt.Errorf("invalid YAML: %w", err)}
		}
		list, ok := doc.([]any)
		if !ok {
			return nil, &variants.ConfigError{Cause: fmt.Errorf("variants file must contain a list, got %T", doc)}
		}
		// go through JSON so YAML and JSON files share one decoder
		data, err = json.Marshal(list)
		if err != nil {
			return nil, &variants.ConfigError{Cause: err}
		}
	}
	return variants.Parse(data)
}

// WatchVariantsFile calls apply with the new list whenever path changes.
// Invalid edits are logged and ignored. Blocks until ctx is done.
func WatchVariantsFile(ctx context.Context, path string, apply func([]models.VariantSpec)) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer watcher.Close()

	// watch the directory: editors often replace the file instead of writing it
	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}
	if err := watcher.Add(filepath.Dir(abs)); err != nil {
		return fmt.Errorf("failed to watch %s: %w", filepath.Dir(abs), err)
	}
	logger.Infof("Watching variants file %s", abs)

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != abs {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			specs, err := LoadVariantsFile(abs)
			if err != nil {
				logger.Warnf("Ignoring variants file change: %v", err)
				continue
			}
			logger.Infof("Variants file changed, applying %d variants", len(specs))
			apply(specs)
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Errorf("Variants watcher error: %v", err)
		}
	}
}
