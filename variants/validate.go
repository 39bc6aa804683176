// Package variants validates the variant settings of an optimized images field
// and expands them into transform jobs.
package variants

import (
	"encoding/json"
	"fmt"
	"strings"

	"imageoptimize/models"
)

// KnownFormats lists the output formats a variant may ask for. An empty format
// means "keep the asset's own format".
var KnownFormats = map[string]bool{
	"jpg":  true,
	"jpeg": true,
	"png":  true,
	"gif":  true,
	"webp": true,
	"avif": true,
	"bmp":  true,
	"tiff": true,
}

// FieldError is one problem found in one variant record
type FieldError struct {
	Index  int    `json:"index"`
	Field  string `json:"field"`
	Reason string `json:"reason"`
}

func (e FieldError) String() string {
	return fmt.Sprintf("variant %d: %s %s", e.Index, e.Field, e.Reason)
}

// ConfigError is returned when a variant list is malformed
type ConfigError struct {
	Problems []FieldError
	Cause    error // set when the list could not be decoded at all
}

func (e *ConfigError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%v: %v", models.ErrConfiguration, e.Cause)
	}
	parts := make([]string, len(e.Problems))
	for i, p := range e.Problems {
		parts[i] = p.String()
	}
	return fmt.Sprintf("%v: %s", models.ErrConfiguration, strings.Join(parts, "; "))
}

func (e *ConfigError) Unwrap() error { return models.ErrConfiguration }

// Parse decodes a JSON array of variant records, fills defaults and validates it
func Parse(raw []byte) ([]models.VariantSpec, error) {
	var records []json.RawMessage
	if err := json.Unmarshal(raw, &records); err != nil {
		return nil, &ConfigError{Cause: fmt.Errorf("variants must be an array of records: %w", err)}
	}
	specs := make([]models.VariantSpec, 0, len(records))
	for i, rec := range records {
		trimmed := strings.TrimSpace(string(rec))
		if !strings.HasPrefix(trimmed, "{") {
			return nil, &ConfigError{Cause: fmt.Errorf("variant %d is not a record", i)}
		}
		var spec models.VariantSpec
		if err := json.Unmarshal(rec, &spec); err != nil {
			return nil, &ConfigError{Cause: fmt.Errorf("variant %d: %w", i, err)}
		}
		specs = append(specs, spec)
	}
	specs = ApplyDefaults(specs)
	if err := Validate(specs); err != nil {
		return nil, err
	}
	return specs, nil
}

// ParseAny accepts an already decoded settings value: a []models.VariantSpec,
// a []any of JSON objects, or JSON text.
func ParseAny(v any) ([]models.VariantSpec, error) {
	switch t := v.(type) {
	case []models.VariantSpec:
		specs := ApplyDefaults(Clone(t))
		if err := Validate(specs); err != nil {
			return nil, err
		}
		return specs, nil
	case string:
		return Parse([]byte(t))
	case []byte:
		return Parse(t)
	case []any:
		data, err := json.Marshal(t)
		if err != nil {
			return nil, &ConfigError{Cause: err}
		}
		return Parse(data)
	default:
		return nil, &ConfigError{Cause: fmt.Errorf("variants must be a list of records, got %T", v)}
	}
}

// ApplyDefaults substitutes [1] for missing retina sizes. Nothing else is defaulted.
func ApplyDefaults(specs []models.VariantSpec) []models.VariantSpec {
	for i := range specs {
		if len(specs[i].RetinaSizes) == 0 {
			specs[i].RetinaSizes = []float64{1}
		}
	}
	return specs
}

// Validate checks every record and reports all problems at once
func Validate(specs []models.VariantSpec) error {
	var problems []FieldError
	add := func(i int, field, reason string) {
		problems = append(problems, FieldError{Index: i, Field: field, Reason: reason})
	}

	for i, s := range specs {
		if s.Width <= 0 {
			add(i, "width", "must be positive")
		}
		if s.AspectRatioX <= 0 {
			add(i, "aspectRatioX", "must be positive")
		}
		if s.AspectRatioY <= 0 {
			add(i, "aspectRatioY", "must be positive")
		}
		for _, r := range s.RetinaSizes {
			if r <= 0 {
				add(i, "retinaSizes", fmt.Sprintf("contains non-positive multiplier %v", r))
				break
			}
		}
		if s.Quality < 1 || s.Quality > 100 {
			add(i, "quality", "must be between 1 and 100")
		}
		if s.Format != "" && !KnownFormats[strings.ToLower(s.Format)] {
			add(i, "format", fmt.Sprintf("%q is not a known format", s.Format))
		}
	}

	if len(problems) > 0 {
		return &ConfigError{Problems: problems}
	}
	return nil
}

// Clone copies a variant list so a generation run cannot observe later edits
func Clone(specs []models.VariantSpec) []models.VariantSpec {
	out := make([]models.VariantSpec, len(specs))
	for i, s := range specs {
		out[i] = s
		out[i].RetinaSizes = append([]float64(nil), s.RetinaSizes...)
	}
	return out
}

// Default returns the variants a new field starts with
func Default() []models.VariantSpec {
	return []models.VariantSpec{
		{Width: 1170, AspectRatioX: 16, AspectRatioY: 9, RetinaSizes: []float64{1}, Quality: 82, Format: "jpg"},
		{Width: 970, AspectRatioX: 16, AspectRatioY: 9, RetinaSizes: []float64{1}, Quality: 82, Format: "jpg"},
		{Width: 750, AspectRatioX: 4, AspectRatioY: 3, RetinaSizes: []float64{1}, Quality: 60, Format: "jpg"},
		{Width: 320, AspectRatioX: 4, AspectRatioY: 3, RetinaSizes: []float64{1}, Quality: 60, Format: "jpg"},
	}
}
