package imageio

import (
	"errors"
	"fmt"
)

// PixelFormatY800 names the only pixel layout a Buffer carries:
// one unsigned byte of luminance per pixel, rows packed without padding.
const PixelFormatY800 = "Y800"

// Buffer is a decoded frame converted to 8-bit grayscale.
type Buffer struct {
	Width  int
	Height int
	Pix    []byte

	// Format is the codec the frame was decoded with ("png", "jpeg", ...).
	Format string
	// Converted is true when the source frame was not already 8-bit gray.
	Converted bool
}

// PixelFormat returns the fixed buffer layout.
func (b *Buffer) PixelFormat() string { return PixelFormatY800 }

// Validate checks the Width*Height == len(Pix) invariant.
func (b *Buffer) Validate() error {
	if b == nil {
		return errors.New("nil buffer")
	}
	if b.Width <= 0 || b.Height <= 0 {
		return fmt.Errorf("invalid dimensions %dx%d", b.Width, b.Height)
	}
	if len(b.Pix) != b.Width*b.Height {
		return fmt.Errorf("buffer length %d does not match %dx%d", len(b.Pix), b.Width, b.Height)
	}
	return nil
}
