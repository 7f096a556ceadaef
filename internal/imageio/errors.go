package imageio

import (
	"errors"
	"fmt"
)

// Load operations reported in LoadError.Op.
const (
	OpInit   = "init"
	OpOpen   = "open"
	OpDecode = "decode"
	OpCopy   = "copy"
)

var (
	// ErrFacilityClosed is returned when Load is called after Close.
	ErrFacilityClosed = errors.New("image facility is closed")
	// ErrUnsupportedFormat is returned for codecs that are unknown or not enabled.
	ErrUnsupportedFormat = errors.New("unsupported image format")
	// ErrEmptyImage is returned when the decoded frame has no pixels.
	ErrEmptyImage = errors.New("image has no pixels")
	// ErrPixelCopy is returned when the grayscale plane does not match the frame size.
	ErrPixelCopy = errors.New("pixel copy size mismatch")
)

// LoadError describes a failure in one stage of loading an image.
type LoadError struct {
	Op   string
	Path string
	Err  error
}

func (e *LoadError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("image %s error: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("image %s error for %s: %v", e.Op, e.Path, e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }

// IsOp reports whether err is a LoadError for the given operation.
func IsOp(err error, op string) bool {
	var le *LoadError
	return errors.As(err, &le) && le.Op == op
}
