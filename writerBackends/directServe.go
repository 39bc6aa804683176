package writerbackends

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"imageoptimize/logger"
)

// UploadToDirectServe writes content to the local directory served by the
// HTTP server. accessInfo: baseDir, key.
func UploadToDirectServe(ctx context.Context, accessInfo map[string]string, reader io.Reader) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	baseDir := accessInfo["baseDir"]
	if baseDir == "" {
		return errors.New("missing required accessInfo key: baseDir")
	}
	key, err := sanitizeKey(accessInfo["key"])
	if err != nil {
		return err
	}

	fullPath := filepath.Join(baseDir, filepath.FromSlash(key))
	if err := os.MkdirAll(filepath.Dir(fullPath), 0755); err != nil {
		return fmt.Errorf("failed to create directories: %w", err)
	}

	// write next to the target and rename, so readers never see half a file
	tmp, err := os.CreateTemp(filepath.Dir(fullPath), ".upload-*")
	if err != nil {
		return fmt.Errorf("failed to create file in %s: %w", filepath.Dir(fullPath), err)
	}
	defer os.Remove(tmp.Name())

	if _, err := io.Copy(tmp, reader); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write to file %s: %w", fullPath, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write to file %s: %w", fullPath, err)
	}
	if err := os.Rename(tmp.Name(), fullPath); err != nil {
		return fmt.Errorf("failed to move file into place %s: %w", fullPath, err)
	}

	logger.Debugf("Saved '%s' to '%s'", key, fullPath)
	return nil
}

// sanitizeKey normalizes a key and prevents escaping the serve root
func sanitizeKey(key string) (string, error) {
	key = strings.TrimSpace(strings.ReplaceAll(key, "\\", "/"))
	key = strings.TrimLeft(strings.TrimPrefix(key, "./"), "/")
	if key == "" {
		return "", errors.New("missing required accessInfo key: key")
	}
	cleaned := filepath.ToSlash(filepath.Clean(key))
	if cleaned == "." || cleaned == ".." || strings.HasPrefix(cleaned, "../") {
		return "", fmt.Errorf("invalid key %q", key)
	}
	return cleaned, nil
}
