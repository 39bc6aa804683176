package encoder

import (
	"context"
	"fmt"
	"os"
	"os/exec"
)

// EncodeAVIF crops in-process and lets avifenc do the encoding
func EncodeAVIF(ctx context.Context, in, out string, o EncodeOptions) error {
	speed := o.Speed
	if speed == 0 {
		speed = 6
	}
	// avifenc takes quantizer values (0 best .. 63 worst), not 1-100 quality
	q := 63 - o.Quality*63/100
	src, err := prepare(ctx, in, o)
	if err != nil {
		return err
	}
	defer os.Remove(src)

	args := []string{
		"--min", fmt.Sprint(q),
		"--max", fmt.Sprint(q),
		"--speed", fmt.Sprint(speed),
		src, out,
	}
	cmd := exec.CommandContext(ctx, "avifenc", args...)
	if output, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("avifenc: %w: %s", err, output)
	}
	return nil
}
