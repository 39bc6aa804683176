package encoder

import (
	"context"
	"fmt"
	"io"
	"os"

	"imageoptimize/logger"
)

// EncodeCopy copies the input file to the output path without any encoding.
// Used when a transform asks for exactly the original's size and format.
func EncodeCopy(ctx context.Context, input, output string, opts EncodeOptions) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	src, err := os.Open(input)
	if err != nil {
		return err
	}
	defer src.Close()

	dst, err := os.Create(output)
	if err != nil {
		return err
	}
	defer dst.Close()

	if _, err = io.Copy(dst, src); err != nil {
		return fmt.Errorf("copy %s: %w", input, err)
	}

	logger.Debugf("copied original file from %s to %s", input, output)
	return dst.Close()
}
