package encoder

import (
	"context"
	"fmt"
	"os/exec"
)

// EncodeJPG encodes using ImageMagick
func EncodeJPG(ctx context.Context, in, out string, o EncodeOptions) error {
	return magickEncode(ctx, in, out, o, "jpg")
}

// EncodePNG encodes using ImageMagick
func EncodePNG(ctx context.Context, in, out string, o EncodeOptions) error {
	return magickEncode(ctx, in, out, o, "png")
}

// Shared helper for magick-based formats. The image is scaled to cover the
// box and the overflow is cut off around the center.
func magickEncode(ctx context.Context, in, out string, o EncodeOptions, format string) error {
	box := fmt.Sprintf("%dx%d", o.Width, o.Height)
	args := []string{
		in,
		"-auto-orient",
		"-resize", box + "^",
		"-gravity", magickGravity(o),
		"-extent", box,
		"-quality", fmt.Sprint(o.Quality),
		fmt.Sprintf("%s:%s", format, out),
	}
	cmd := exec.CommandContext(ctx, "magick", args...)
	if output, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("magick: %w: %s", err, output)
	}
	return nil
}

// magickGravity picks the nearest of the nine gravity anchors for the focal point
func magickGravity(o EncodeOptions) string {
	if o.FocalPoint == nil {
		return "center"
	}
	col := []string{"West", "", "East"}[third(o.FocalPoint.X)]
	row := []string{"North", "", "South"}[third(o.FocalPoint.Y)]
	if col == "" && row == "" {
		return "center"
	}
	return row + col
}

func third(v float64) int {
	switch {
	case v < 1.0/3:
		return 0
	case v > 2.0/3:
		return 2
	default:
		return 1
	}
}
