package encoder

import (
	"context"
	"fmt"
	"image"
	"image/png"
	"math"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/webp" // webp sources

	"imageoptimize/models"
)

// formats the pure-Go encoder can write
var imagingFormats = []string{"jpg", "png", "gif", "bmp", "tiff"}

// source formats decoded in-process
var nativeSources = []string{"jpg", "png", "gif", "bmp", "tiff", "webp"}

// source formats only ImageMagick can read; they are converted before decoding
var magickSources = []string{"avif", "heic", "heif"}

// EncodeImaging resizes and crops in-process, no external command needed
func EncodeImaging(ctx context.Context, in, out string, o EncodeOptions) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	format, err := imaging.FormatFromFilename(out)
	if err != nil {
		return fmt.Errorf("imaging: %w", err)
	}

	src, err := openSource(ctx, in)
	if err != nil {
		return err
	}
	dst := Cover(src, o.Width, o.Height, o.FocalPoint)

	f, err := os.Create(out)
	if err != nil {
		return fmt.Errorf("imaging: create %s: %w", out, err)
	}
	defer f.Close()

	if err := imaging.Encode(f, dst, format,
		imaging.JPEGQuality(o.Quality),
		imaging.PNGCompressionLevel(png.BestCompression),
	); err != nil {
		return fmt.Errorf("imaging: encode %s: %w", out, err)
	}
	return f.Close()
}

// openSource decodes in, falling back to an ImageMagick conversion for
// formats the Go decoders cannot read
func openSource(ctx context.Context, in string) (image.Image, error) {
	src, err := imaging.Open(in, imaging.AutoOrientation(true))
	if err == nil {
		return src, nil
	}
	if !isMagickSource(in) {
		return nil, fmt.Errorf("imaging: decode %s: %w", in, err)
	}
	if _, lookErr := exec.LookPath("magick"); lookErr != nil {
		return nil, fmt.Errorf("imaging: decode %s: %w", in, err)
	}

	tmp, err := os.CreateTemp("", "imageoptimize-src-*.png")
	if err != nil {
		return nil, fmt.Errorf("imaging: temp file: %w", err)
	}
	path := tmp.Name()
	tmp.Close()
	defer os.Remove(path)

	cmd := exec.CommandContext(ctx, "magick", in, "-auto-orient", "png:"+path)
	if output, err := cmd.CombinedOutput(); err != nil {
		return nil, fmt.Errorf("magick: convert %s: %w: %s", in, err, output)
	}
	src, err = imaging.Open(path)
	if err != nil {
		return nil, fmt.Errorf("imaging: decode %s: %w", path, err)
	}
	return src, nil
}

func isMagickSource(path string) bool {
	ext := Normalize(filepath.Ext(path))
	for _, f := range magickSources {
		if f == ext {
			return true
		}
	}
	return false
}

// Cover scales src to cover a w×h box and crops the overflow, keeping the
// focal point as close to the center as the image edges allow
func Cover(src image.Image, w, h int, fp *models.FocalPoint) *image.NRGBA {
	if fp == nil {
		return imaging.Fill(src, w, h, imaging.Center, imaging.Lanczos)
	}
	b := src.Bounds()
	sw, sh := b.Dx(), b.Dy()
	if sw == 0 || sh == 0 || w <= 0 || h <= 0 {
		return imaging.New(max(w, 0), max(h, 0), image.Transparent)
	}

	scale := math.Max(float64(w)/float64(sw), float64(h)/float64(sh))
	rw := int(math.Ceil(float64(sw) * scale))
	rh := int(math.Ceil(float64(sh) * scale))
	resized := imaging.Resize(src, rw, rh, imaging.Lanczos)

	x := clamp(int(fp.X*float64(rw))-w/2, 0, rw-w)
	y := clamp(int(fp.Y*float64(rh))-h/2, 0, rh-h)
	return imaging.Crop(resized, image.Rect(x, y, x+w, y+h))
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// prepare writes the covered w×h image as a temporary PNG, for tools that
// only re-encode. The caller removes the returned path.
func prepare(ctx context.Context, in string, o EncodeOptions) (string, error) {
	tmp, err := os.CreateTemp("", "imageoptimize-*.png")
	if err != nil {
		return "", fmt.Errorf("imaging: temp file: %w", err)
	}
	path := tmp.Name()
	tmp.Close()

	if err := EncodeImaging(ctx, in, path, EncodeOptions{Width: o.Width, Height: o.Height, Quality: 100, FocalPoint: o.FocalPoint}); err != nil {
		os.Remove(path)
		return "", err
	}
	return path, nil
}
