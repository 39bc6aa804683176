// Package field implements the optimized images field: it keeps the variant
// settings of a field handle and regenerates the field value of an image
// asset whenever the asset is saved.
//
// A new asset has no identity yet, so the first save stores an empty value
// and saves the asset a second time; that second pass runs the generation.
package field

import (
	"context"
	"fmt"
	"sync"

	"imageoptimize/assets"
	"imageoptimize/failures"
	"imageoptimize/generator"
	"imageoptimize/logger"
	"imageoptimize/models"
	"imageoptimize/success"
	"imageoptimize/variants"
)

// FailurePolicy decides what a save does when generation fails
type FailurePolicy int

const (
	// PolicyAbort fails the save and leaves the stored value untouched
	PolicyAbort FailurePolicy = iota
	// PolicyKeepPrevious records the failure and saves with the previous value
	PolicyKeepPrevious
)

func (p FailurePolicy) String() string {
	switch p {
	case PolicyAbort:
		return "abort"
	case PolicyKeepPrevious:
		return "keep-previous"
	default:
		return fmt.Sprintf("FailurePolicy(%d)", int(p))
	}
}

// ParseFailurePolicy accepts the String form of a policy
func ParseFailurePolicy(s string) (FailurePolicy, error) {
	switch s {
	case "", "abort":
		return PolicyAbort, nil
	case "keep-previous":
		return PolicyKeepPrevious, nil
	default:
		return PolicyAbort, fmt.Errorf("unknown failure policy %q", s)
	}
}

// Saver persists an asset, running the save hooks again
type Saver interface {
	Save(ctx context.Context, a *assets.Asset) error
}

// Refs adapts asset records to the generator
type Refs interface {
	Ref(a *assets.Asset) generator.Asset
}

// Field is an optimized images field bound to one handle
type Field struct {
	Handle string

	gen    *generator.Generator
	refs   Refs
	saver  Saver
	policy FailurePolicy

	mu       sync.RWMutex
	variants []models.VariantSpec
}

// Option configures a Field
type Option func(*Field)

func WithFailurePolicy(p FailurePolicy) Option {
	return func(f *Field) { f.policy = p }
}

// WithVariants replaces the built-in default variants. An invalid list is
// logged and the defaults stay in place.
func WithVariants(specs []models.VariantSpec) Option {
	return func(f *Field) {
		specs = variants.ApplyDefaults(variants.Clone(specs))
		if err := variants.Validate(specs); err != nil {
			logger.Errorf("Field %s: ignoring variants: %v", f.Handle, err)
			return
		}
		f.variants = specs
	}
}

// New creates a field with the default variants
func New(handle string, gen *generator.Generator, refs Refs, saver Saver, opts ...Option) *Field {
	f := &Field{
		Handle:   handle,
		gen:      gen,
		refs:     refs,
		saver:    saver,
		variants: variants.Default(),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Variants returns a copy of the current variant settings
func (f *Field) Variants() []models.VariantSpec {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return variants.Clone(f.variants)
}

// SetVariants validates raw and makes it the field's settings. Invalid
// settings return a *variants.ConfigError and change nothing.
func (f *Field) SetVariants(raw any) error {
	specs, err := variants.ParseAny(raw)
	if err != nil {
		return err
	}
	f.mu.Lock()
	f.variants = specs
	f.mu.Unlock()
	logger.Infof("Field %s now has %d variants", f.Handle, len(specs))
	return nil
}

// NormalizeValue decodes a stored value. With an asset the URLs are
// regenerated from the current settings and replace the decoded ones.
func (f *Field) NormalizeValue(ctx context.Context, raw any, asset generator.Asset) (*models.OptimizedImage, error) {
	value, err := models.DecodeOptimizedImage(raw)
	if err != nil {
		return nil, err
	}
	if asset == nil {
		return value, nil
	}

	result, stats, err := f.gen.GenerateWithStats(ctx, asset, f.Variants())
	if err != nil {
		return nil, err
	}
	if stats.Planned == stats.Skipped {
		// nothing ran, so nothing refreshed the asset metadata
		result.FocalPoint = value.FocalPoint
		result.OriginalImageWidth = value.OriginalImageWidth
		result.OriginalImageHeight = value.OriginalImageHeight
	}
	return result, nil
}

// SerializeValue encodes a value for the asset record
func (f *Field) SerializeValue(v *models.OptimizedImage) (string, error) {
	return v.Serialize()
}

// Value decodes the stored value of the field on a
func (f *Field) Value(a *assets.Asset) (*models.OptimizedImage, error) {
	return models.DecodeOptimizedImage(a.FieldValue(f.Handle))
}

// BeforeElementSave regenerates the value of an existing image asset
func (f *Field) BeforeElementSave(ctx context.Context, a *assets.Asset, isNew bool) error {
	if isNew || a.Kind != assets.KindImage {
		return nil
	}

	value, err := f.NormalizeValue(ctx, a.FieldValue(f.Handle), f.refs.Ref(a))
	if err == nil {
		var serialized string
		serialized, err = f.SerializeValue(value)
		if err == nil {
			a.SetFieldValue(f.Handle, serialized)
			f.recordSuccess(a, value)
			return nil
		}
	}

	f.recordFailure(a, err)
	if f.policy == PolicyKeepPrevious {
		logger.Warnf("Keeping previous %s value of asset %s: %v", f.Handle, a.ID, err)
		return nil
	}
	return fmt.Errorf("generate %s for asset %s: %w", f.Handle, a.ID, err)
}

// AfterElementSave gives a new image asset its default value and saves it
// again, now with an identity the transforms can be named after
func (f *Field) AfterElementSave(ctx context.Context, a *assets.Asset, isNew bool) error {
	if !isNew || a.Kind != assets.KindImage {
		return nil
	}

	value, err := f.NormalizeValue(ctx, nil, nil)
	if err != nil {
		return err
	}
	serialized, err := f.SerializeValue(value)
	if err != nil {
		return err
	}
	a.SetFieldValue(f.Handle, serialized)

	if err := f.saver.Save(ctx, a); err != nil {
		return fmt.Errorf("re-save new asset %s: %w", a.ID, err)
	}
	logger.Infof("Re-saved new asset %s", a.ID)
	return nil
}

type runRecord struct {
	Field  string `json:"field"`
	Widths []int  `json:"widths,omitempty"`
	Policy string `json:"policy,omitempty"`
}

func (f *Field) recordSuccess(a *assets.Asset, v *models.OptimizedImage) {
	if err := success.StoreSuccess(a.ID, runRecord{Field: f.Handle, Widths: v.Widths()}, len(v.OptimizedImageURLs)); err != nil {
		logger.Debugf("Not recording success for asset %s: %v", a.ID, err)
	}
	if err := failures.DeleteFailure(a.ID); err != nil {
		logger.Debugf("Not clearing failure for asset %s: %v", a.ID, err)
	}
}

func (f *Field) recordFailure(a *assets.Asset, err error) {
	if serr := failures.StoreFailure(a.ID, err, runRecord{Field: f.Handle, Policy: f.policy.String()}); serr != nil {
		logger.Errorf("Failed to record failure for asset %s: %v", a.ID, serr)
	}
}
