package encoder

import (
	"fmt"
	"image"
	_ "image/gif"  // gif sources
	_ "image/jpeg" // jpeg sources
	_ "image/png"  // png sources
	"os"

	_ "golang.org/x/image/bmp"  // bmp sources
	_ "golang.org/x/image/tiff" // tiff sources
)

// Probe reads the pixel dimensions of an image without decoding it fully
func Probe(path string) (width, height int, format string, err error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, 0, "", err
	}
	defer f.Close()

	cfg, format, err := image.DecodeConfig(f)
	if err != nil {
		return 0, 0, "", fmt.Errorf("probe %s: %w", path, err)
	}
	return cfg.Width, cfg.Height, Normalize(format), nil
}
