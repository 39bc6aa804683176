package encoder

import (
	"context"
	"fmt"
	"os"
	"os/exec"
)

// EncodeWebP crops in-process and lets cwebp do the encoding
func EncodeWebP(ctx context.Context, in, out string, o EncodeOptions) error {
	speed := o.Speed
	if speed == 0 {
		speed = 4
	}
	src, err := prepare(ctx, in, o)
	if err != nil {
		return err
	}
	defer os.Remove(src)

	args := []string{
		"-q", fmt.Sprint(o.Quality),
		"-m", fmt.Sprint(speed),
		src, "-o", out,
	}
	cmd := exec.CommandContext(ctx, "cwebp", args...)
	if output, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("cwebp: %w: %s", err, output)
	}
	return nil
}
