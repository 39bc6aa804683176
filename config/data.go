package config

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// getDataDir determines the data directory path from environment or default.
// Priority: IMAGEOPTIMIZE_DATA_DIR environment variable > "./data" default
func getDataDir() string {
	if dir := os.Getenv("IMAGEOPTIMIZE_DATA_DIR"); dir != "" {
		return dir
	}
	return "./data"
}

// GetDataDir returns the current data directory path.
// The environment is read on every call so tests and reloads see changes.
func GetDataDir() string {
	return getDataDir()
}

// GetAssetsDBPath returns the path of the asset records database.
// Path: {DATA_DIR}/assets.db
func GetAssetsDBPath() string {
	return filepath.Join(GetDataDir(), "assets.db")
}

// GetVolumesDBPath returns the path of the volumes database, which holds
// storage destinations and their credentials.
// Path: {DATA_DIR}/volumes.db
func GetVolumesDBPath() string {
	return filepath.Join(GetDataDir(), "volumes.db")
}

// GetFieldsDBPath returns the path of the field settings database.
// Path: {DATA_DIR}/fields.db
func GetFieldsDBPath() string {
	return filepath.Join(GetDataDir(), "fields.db")
}

// GetFailuresDBPath returns the full path to the failures database.
// The failures database tracks generation runs that failed.
// Path: {DATA_DIR}/failures.db
func GetFailuresDBPath() string {
	return filepath.Join(GetDataDir(), "failures.db")
}

// GetSuccessDBPath returns the full path to the success database.
// Path: {DATA_DIR}/success.db
func GetSuccessDBPath() string {
	return filepath.Join(GetDataDir(), "success.db")
}

// GetTransformIndexDBPath returns the path of the generated-transform index.
// Path: {DATA_DIR}/TransformIndex.db
func GetTransformIndexDBPath() string {
	return filepath.Join(GetDataDir(), "TransformIndex.db")
}

// GetTransformQueueDBPath returns the path of the lazy transform queue.
// Path: {DATA_DIR}/TransformQueue.db
func GetTransformQueueDBPath() string {
	return filepath.Join(GetDataDir(), "TransformQueue.db")
}

// GetDirectServeBaseDir returns the base directory for direct file serving.
// Transforms written to a directServe volume land here and are served by the HTTP server.
// Configurable via IMAGEOPTIMIZE_SERVE_DIR, defaults to "./serve".
func GetDirectServeBaseDir() string {
	if dir := os.Getenv("IMAGEOPTIMIZE_SERVE_DIR"); dir != "" {
		return dir
	}
	return "./serve"
}

// GetOriginalsDir returns where uploaded originals are kept.
// Configurable via IMAGEOPTIMIZE_ORIGINALS_DIR, defaults to "{DATA_DIR}/originals".
func GetOriginalsDir() string {
	if dir := os.Getenv("IMAGEOPTIMIZE_ORIGINALS_DIR"); dir != "" {
		return dir
	}
	return filepath.Join(GetDataDir(), "originals")
}

// GetListenAddr returns the HTTP listen address, default ":8080"
func GetListenAddr() string {
	if addr := os.Getenv("IMAGEOPTIMIZE_LISTEN"); addr != "" {
		return addr
	}
	return ":8080"
}

// GetBaseURL returns the public URL prefix of the direct-serve volume, default "/serve"
func GetBaseURL() string {
	if u := os.Getenv("IMAGEOPTIMIZE_BASE_URL"); u != "" {
		return strings.TrimRight(u, "/")
	}
	return "/serve"
}

// GetJWTSecret returns the shared secret used to verify upload tokens
func GetJWTSecret() string {
	return os.Getenv("IMAGEOPTIMIZE_JWT_SECRET")
}

// GetEagerTransforms reports the host default for "generate transforms before
// page load". Off unless IMAGEOPTIMIZE_EAGER_TRANSFORMS parses as true.
func GetEagerTransforms() bool {
	v, err := strconv.ParseBool(os.Getenv("IMAGEOPTIMIZE_EAGER_TRANSFORMS"))
	return err == nil && v
}

// GetFieldHandle returns the handle of the optimized images field, default "optimizedImages"
func GetFieldHandle() string {
	if h := os.Getenv("IMAGEOPTIMIZE_FIELD_HANDLE"); h != "" {
		return h
	}
	return "optimizedImages"
}

// GetFailurePolicy returns what a save does when generation fails: "abort" (default) or "keep-previous"
func GetFailurePolicy() string {
	if p := os.Getenv("IMAGEOPTIMIZE_FAILURE_POLICY"); p != "" {
		return p
	}
	return "abort"
}

// GetVariantsFile returns the optional variants settings file to load and watch
func GetVariantsFile() string {
	return os.Getenv("IMAGEOPTIMIZE_VARIANTS_FILE")
}

// GetLogFile returns the optional log file path
func GetLogFile() string {
	return os.Getenv("IMAGEOPTIMIZE_LOG_FILE")
}
