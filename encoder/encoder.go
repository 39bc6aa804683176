package encoder

import (
	"context"
	"os/exec"
	"sort"
	"strings"
	"sync"

	"imageoptimize/logger"
	"imageoptimize/models"
)

// EncodeFunc is the function signature for any encoder
type EncodeFunc func(ctx context.Context, input, output string, opts EncodeOptions) error

type EncodeOptions struct {
	Width, Height int
	Quality       int
	Speed         int
	FocalPoint    *models.FocalPoint // crop anchor; nil = center
}

// Registry maps format name → encoder function. Writable formats are the
// ones with an encoder; readable source formats are tracked separately.
type Registry struct {
	mu       sync.RWMutex
	encoders map[string]EncodeFunc
	decoders map[string]bool
}

// Default is the registry the server runs with
var Default = NewRegistry()

func NewRegistry() *Registry {
	return &Registry{encoders: map[string]EncodeFunc{}, decoders: map[string]bool{}}
}

// Normalize maps format aliases and file extensions onto registry keys
func Normalize(format string) string {
	f := strings.ToLower(strings.TrimPrefix(strings.TrimSpace(format), "."))
	switch f {
	case "jpeg", "jpe":
		return "jpg"
	case "tif":
		return "tiff"
	default:
		return f
	}
}

// Register adds encoder if the underlying command exists, logs status
func (r *Registry) Register(format string, cmdName string, fn EncodeFunc) {
	if _, err := exec.LookPath(cmdName); err != nil {
		logger.Warnf("encoder [%s] skipped: command '%s' not found in PATH", format, cmdName)
		return
	}
	r.Set(format, fn)
	logger.Debugf("encoder [%s] registered (command: %s)", format, cmdName)
}

// Set registers fn for format unconditionally, replacing any earlier encoder
func (r *Registry) Set(format string, fn EncodeFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.encoders[Normalize(format)] = fn
}

// Get looks up the encoder for format
func (r *Registry) Get(format string) (EncodeFunc, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	fn, ok := r.encoders[Normalize(format)]
	return fn, ok
}

// CanManipulate reports whether transforms can be written in format
func (r *Registry) CanManipulate(format string) bool {
	if format == "" {
		return false
	}
	_, ok := r.Get(format)
	return ok
}

// SetDecodable marks formats as readable source formats
func (r *Registry) SetDecodable(formats ...string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, f := range formats {
		r.decoders[Normalize(f)] = true
	}
}

// CanDecode reports whether source images of format can be read
func (r *Registry) CanDecode(format string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.decoders[Normalize(format)]
}

// Formats lists the registered formats, sorted
func (r *Registry) Formats() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.encoders))
	for f := range r.encoders {
		out = append(out, f)
	}
	sort.Strings(out)
	return out
}

// RegisterDefaults registers the built-in encoders first and lets external
// tools take over the formats they handle when they are installed
func (r *Registry) RegisterDefaults() {
	for _, f := range imagingFormats {
		r.Set(f, EncodeImaging)
	}
	logger.Debugf("encoder [imaging] registered for %s", strings.Join(imagingFormats, ", "))
	r.SetDecodable(nativeSources...)
	if _, err := exec.LookPath("magick"); err == nil {
		r.SetDecodable(magickSources...)
		logger.Debugf("decoder [magick] registered for %s", strings.Join(magickSources, ", "))
	}

	r.Register("jpg", "magick", EncodeJPG)
	r.Register("png", "magick", EncodePNG)
	r.Register("webp", "cwebp", EncodeWebP)
	r.Register("avif", "avifenc", EncodeAVIF)
}

// RegisterDefaults fills the Default registry
func RegisterDefaults() {
	Default.RegisterDefaults()
}
