package testutil

import (
	"image"
	"image/color"
	"image/draw"
	"testing"

	"github.com/makiuchi-d/gozxing"
	"github.com/makiuchi-d/gozxing/oned"
	"github.com/stretchr/testify/require"
)

// BarcodeStyle controls how a 1D symbol is rasterized.
type BarcodeStyle struct {
	ModuleWidth int // pixels per module
	BarHeight   int // pixels
	QuietZone   int // extra white pixels on every side
}

// DefaultBarcodeStyle renders symbols large enough to decode reliably.
func DefaultBarcodeStyle() BarcodeStyle {
	return BarcodeStyle{ModuleWidth: 3, BarHeight: 120, QuietZone: 30}
}

// EAN13Image renders a 13-digit EAN-13 (ISBN-13 when prefixed 978/979).
func EAN13Image(t *testing.T, code string) *image.Gray {
	t.Helper()
	img, err := RenderEAN13(code)
	require.NoError(t, err, "encode %s", code)
	return img
}

// Code128Image renders a Code 128 symbol.
func Code128Image(t *testing.T, text string) *image.Gray {
	t.Helper()
	img, err := RenderCode128(text)
	require.NoError(t, err, "encode %s", text)
	return img
}

// UPCAImage renders a 12-digit UPC-A symbol.
func UPCAImage(t *testing.T, code string) *image.Gray {
	t.Helper()
	img, err := RenderUPCA(code)
	require.NoError(t, err, "encode %s", code)
	return img
}

// RenderEAN13 is EAN13Image for callers without a *testing.T.
func RenderEAN13(code string) (*image.Gray, error) {
	return renderOneD(oned.NewEAN13Writer(), gozxing.BarcodeFormat_EAN_13, code, DefaultBarcodeStyle())
}

// RenderUPCA is UPCAImage for callers without a *testing.T.
func RenderUPCA(code string) (*image.Gray, error) {
	return renderOneD(oned.NewUPCAWriter(), gozxing.BarcodeFormat_UPC_A, code, DefaultBarcodeStyle())
}

// RenderCode128 is Code128Image for callers without a *testing.T.
func RenderCode128(text string) (*image.Gray, error) {
	return renderOneD(oned.NewCode128Writer(), gozxing.BarcodeFormat_CODE_128, text, DefaultBarcodeStyle())
}

func renderOneD(w gozxing.Writer, format gozxing.BarcodeFormat, contents string, style BarcodeStyle) (*image.Gray, error) {
	// Height 1 yields one row of modules; scaling is done here.
	bm, err := w.Encode(contents, format, 0, 1, nil)
	if err != nil {
		return nil, err
	}

	modules := bm.GetWidth()
	width := modules*style.ModuleWidth + 2*style.QuietZone
	height := style.BarHeight + 2*style.QuietZone

	img := BlankImage(width, height)
	for m := 0; m < modules; m++ {
		if !bm.Get(m, 0) {
			continue
		}
		x0 := style.QuietZone + m*style.ModuleWidth
		rect := image.Rect(x0, style.QuietZone, x0+style.ModuleWidth, style.QuietZone+style.BarHeight)
		draw.Draw(img, rect, image.NewUniform(color.Black), image.Point{}, draw.Src)
	}
	return img, nil
}

// BlankImage returns a white grayscale image.
func BlankImage(width, height int) *image.Gray {
	img := image.NewGray(image.Rect(0, 0, width, height))
	draw.Draw(img, img.Bounds(), image.NewUniform(color.White), image.Point{}, draw.Src)
	return img
}

// StackImages places images top to bottom on a white canvas separated by gap pixels.
func StackImages(gap int, imgs ...image.Image) *image.Gray {
	width, height := 0, 0
	for i, im := range imgs {
		b := im.Bounds()
		width = max(width, b.Dx())
		height += b.Dy()
		if i > 0 {
			height += gap
		}
	}

	out := BlankImage(width, height)
	y := 0
	for _, im := range imgs {
		b := im.Bounds()
		draw.Draw(out, image.Rect(0, y, b.Dx(), y+b.Dy()), im, b.Min, draw.Src)
		y += b.Dy() + gap
	}
	return out
}

// RowImages places images left to right on a white canvas separated by gap pixels.
func RowImages(gap int, imgs ...image.Image) *image.Gray {
	width, height := 0, 0
	for i, im := range imgs {
		b := im.Bounds()
		height = max(height, b.Dy())
		width += b.Dx()
		if i > 0 {
			width += gap
		}
	}

	out := BlankImage(width, height)
	x := 0
	for _, im := range imgs {
		b := im.Bounds()
		draw.Draw(out, image.Rect(x, 0, x+b.Dx(), b.Dy()), im, b.Min, draw.Src)
		x += b.Dx() + gap
	}
	return out
}

// ToRGBA copies img into an RGBA image so loaders exercise the conversion path.
func ToRGBA(img image.Image) *image.RGBA {
	b := img.Bounds()
	out := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(out, out.Bounds(), img, b.Min, draw.Src)
	return out
}
