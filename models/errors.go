package models

import (
	"errors"
	"fmt"
)

var (
	// ErrConfiguration marks a malformed variant list. Generation does not proceed.
	ErrConfiguration = errors.New("invalid variant configuration")
	// ErrTransformUnsupported means the codec cannot manipulate the source or target format
	ErrTransformUnsupported = errors.New("transform unsupported for format")
	// ErrTransformUnavailable means the asset cannot be transformed at all (not an image, no source file)
	ErrTransformUnavailable = errors.New("asset cannot be transformed")
	// ErrTransformFailure is an I/O or encoding failure while producing a transform
	ErrTransformFailure = errors.New("transform failed")
)

// TransformError reports the job that failed during a generation run
type TransformError struct {
	Job TransformJob
	Err error
}

func (e *TransformError) Error() string {
	return fmt.Sprintf("transform %dx%d q%d %s: %v", e.Job.Width, e.Job.Height, e.Job.Quality, formatOrNative(e.Job.Format), e.Err)
}

func (e *TransformError) Unwrap() error { return e.Err }

// Is lets errors.Is(err, ErrTransformFailure) match every TransformError
func (e *TransformError) Is(target error) bool {
	return target == ErrTransformFailure
}

func formatOrNative(format string) string {
	if format == "" {
		return "native"
	}
	return format
}
