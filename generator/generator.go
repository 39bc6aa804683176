// Package generator derives the optimized image variants of an asset.
//
// A run plans one transform job per variant and retina multiplier, asks the
// asset for each transform synchronously, and collects the produced URLs into
// a fresh models.OptimizedImage. Jobs the codec cannot handle are skipped
// silently; any other transform failure aborts the run and no result is returned.
package generator

import (
	"context"
	"errors"
	"strings"
	"sync"

	"imageoptimize/logger"
	"imageoptimize/models"
	"imageoptimize/variants"
)

// Codec reports which image formats can be manipulated
type Codec interface {
	// CanDecode reports whether source images of format can be read
	CanDecode(format string) bool
	// CanManipulate reports whether transforms can be written in format
	CanManipulate(format string) bool
}

// TransformOptions travel with every transform request
type TransformOptions struct {
	// Eager asks for the file to be generated now instead of on first access
	Eager bool
}

// Asset is the source image a run derives variants from
type Asset interface {
	Extension() string
	Width() int
	Height() int
	FocalPoint() *models.FocalPoint
	// TransformURL returns the URL of the durable transform for job.
	// It returns models.ErrTransformUnavailable when the asset cannot be
	// transformed at all and models.ErrTransformUnsupported when the format
	// cannot be handled; anything else is a transform failure.
	TransformURL(ctx context.Context, job models.TransformJob, opts TransformOptions) (string, error)
}

// Stats summarizes one generation run
type Stats struct {
	Planned  int
	Produced int
	Skipped  int
	Empty    int
}

// Generator produces OptimizedImage values. It holds no per-run state and is
// safe to share between concurrent saves. When an eager toggle is set, runs
// are serialized: only one generation executes at a time per Generator.
type Generator struct {
	codec  Codec
	toggle Toggle

	// serializes runs that force toggle, so each restore sees its own snapshot
	toggleMu sync.Mutex
}

// Option configures a Generator
type Option func(*Generator)

// WithEagerToggle makes every run force the host's global eager flag on and
// restore it afterwards
func WithEagerToggle(t Toggle) Option {
	return func(g *Generator) { g.toggle = t }
}

// New creates a Generator that checks formats against codec
func New(codec Codec, opts ...Option) *Generator {
	g := &Generator{codec: codec}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Generate runs every planned job against asset and returns the new value
func (g *Generator) Generate(ctx context.Context, asset Asset, specs []models.VariantSpec) (*models.OptimizedImage, error) {
	result, _, err := g.GenerateWithStats(ctx, asset, specs)
	return result, err
}

// GenerateWithStats is Generate plus a summary of what happened
func (g *Generator) GenerateWithStats(ctx context.Context, asset Asset, specs []models.VariantSpec) (*models.OptimizedImage, Stats, error) {
	specs = variants.ApplyDefaults(variants.Clone(specs))
	if err := variants.Validate(specs); err != nil {
		return nil, Stats{}, err
	}
	jobs := variants.Plan(specs)
	stats := Stats{Planned: len(jobs)}

	if g.toggle != nil {
		g.toggleMu.Lock()
		defer g.toggleMu.Unlock()
	}

	var result *models.OptimizedImage
	err := withEager(g.toggle, func() error {
		var err error
		result, err = g.run(ctx, asset, jobs, &stats)
		return err
	})
	if err != nil {
		return nil, stats, err
	}

	logger.Infof("Generated %d of %d transforms (%d skipped, %d without URL)", stats.Produced, stats.Planned, stats.Skipped, stats.Empty)
	return result, stats, nil
}

func (g *Generator) run(ctx context.Context, asset Asset, jobs []models.TransformJob, stats *Stats) (*models.OptimizedImage, error) {
	result := models.NewOptimizedImage()
	native := strings.ToLower(asset.Extension())

	for _, job := range jobs {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		finalFormat := strings.ToLower(job.Format)
		if finalFormat == "" {
			finalFormat = native
		}
		if !g.codec.CanManipulate(finalFormat) || !g.codec.CanDecode(native) {
			logger.Debugf("Skipping %dx%d: cannot manipulate %s -> %s", job.Width, job.Height, native, finalFormat)
			stats.Skipped++
			continue
		}

		job.Format = finalFormat
		url, err := asset.TransformURL(ctx, job, TransformOptions{Eager: true})
		switch {
		case err == nil:
		case errors.Is(err, models.ErrTransformUnavailable), errors.Is(err, models.ErrTransformUnsupported):
			logger.Debugf("No transform %dx%d for variant %d: %v", job.Width, job.Height, job.SpecIndex, err)
			url = ""
		default:
			return nil, &models.TransformError{Job: job, Err: err}
		}

		if url != "" {
			result.SetURL(job.Width, url)
			stats.Produced++
		} else {
			stats.Empty++
		}
		result.FocalPoint = copyFocalPoint(asset.FocalPoint())
		result.OriginalImageWidth = asset.Width()
		result.OriginalImageHeight = asset.Height()

		logger.Debugf("Created transform %dx%d (x%v) for variant %d", job.Width, job.Height, job.Multiplier, job.SpecIndex)
	}
	return result, nil
}

func copyFocalPoint(fp *models.FocalPoint) *models.FocalPoint {
	if fp == nil {
		return nil
	}
	c := *fp
	return &c
}
