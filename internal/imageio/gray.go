package imageio

import (
	"fmt"
	"image"
	"image/color"

	"github.com/disintegration/imaging"
)

// toGray copies img into a packed Y800 buffer. Frames that are already
// *image.Gray are copied row by row; anything else is composited onto white
// and converted to luminance.
func toGray(img image.Image) (*Buffer, error) {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	buf := &Buffer{Width: w, Height: h, Pix: make([]byte, w*h)}

	if g, ok := img.(*image.Gray); ok {
		n := 0
		for y := 0; y < h; y++ {
			off := g.PixOffset(b.Min.X, b.Min.Y+y)
			n += copy(buf.Pix[y*w:(y+1)*w], g.Pix[off:off+w])
		}
		if n != len(buf.Pix) {
			return nil, fmt.Errorf("%w: copied %d of %d bytes", ErrPixelCopy, n, len(buf.Pix))
		}
		return buf, nil
	}

	flat := imaging.Overlay(imaging.New(w, h, color.White), img, image.Pt(0, 0), 1.0)
	gray := imaging.Grayscale(flat)
	if len(gray.Pix) != 4*w*h {
		return nil, fmt.Errorf("%w: converted plane has %d bytes, want %d", ErrPixelCopy, len(gray.Pix), 4*w*h)
	}
	// Grayscale leaves R == G == B; take R.
	for i := range buf.Pix {
		buf.Pix[i] = gray.Pix[4*i]
	}
	buf.Converted = true
	return buf, nil
}
