package barcode

import (
	"context"
	"errors"
	"fmt"

	"github.com/makiuchi-d/gozxing"
)

const (
	// Regions narrower or shorter than this around a found symbol are not rescanned.
	minDimensionToRecur = 100
	maxScanDepth        = 4
)

// multiScanner finds several symbols in one bitmap. After each hit it
// rescans the regions left of, above, right of and below the symbol's
// result points, keeping one result per decoded text.
type multiScanner struct {
	ctx     context.Context
	reader  gozxing.Reader
	hints   map[gozxing.DecodeHintType]interface{}
	results []Result
}

func (m *multiScanner) scan(img *gozxing.BinaryBitmap, xOffset, yOffset, depth int) error {
	if depth > maxScanDepth {
		return nil
	}
	if err := m.ctx.Err(); err != nil {
		return err
	}

	r, err := m.reader.Decode(img, m.hints)
	if err != nil {
		var re gozxing.ReaderException
		if errors.As(err, &re) {
			return nil
		}
		return err
	}
	points := r.GetResultPoints()
	m.add(r, points, xOffset, yOffset)
	if len(points) == 0 {
		return nil
	}

	width, height := img.GetWidth(), img.GetHeight()
	minX, minY := float64(width), float64(height)
	maxX, maxY := 0.0, 0.0
	for _, p := range points {
		if p == nil {
			continue
		}
		x, y := p.GetX(), p.GetY()
		minX, maxX = min(minX, x), max(maxX, x)
		minY, maxY = min(minY, y), max(maxY, y)
	}
	left, top := clamp(int(minX), 0, width), clamp(int(minY), 0, height)
	right, bottom := clamp(int(maxX), 0, width), clamp(int(maxY), 0, height)

	if left > minDimensionToRecur {
		if err := m.crop(img, 0, 0, left, height, xOffset, yOffset, depth); err != nil {
			return err
		}
	}
	if top > minDimensionToRecur {
		if err := m.crop(img, 0, 0, width, top, xOffset, yOffset, depth); err != nil {
			return err
		}
	}
	if right < width-minDimensionToRecur {
		if err := m.crop(img, right, 0, width-right, height, xOffset+right, yOffset, depth); err != nil {
			return err
		}
	}
	if bottom < height-minDimensionToRecur {
		if err := m.crop(img, 0, bottom, width, height-bottom, xOffset, yOffset+bottom, depth); err != nil {
			return err
		}
	}
	return nil
}

func (m *multiScanner) crop(img *gozxing.BinaryBitmap, left, top, width, height, xOffset, yOffset, depth int) error {
	sub, err := img.Crop(left, top, width, height)
	if err != nil {
		return fmt.Errorf("crop %dx%d+%d+%d: %w", width, height, left, top, err)
	}
	return m.scan(sub, xOffset, yOffset, depth+1)
}

// add records r with its points translated to full-frame coordinates,
// unless a symbol with the same text was already found.
func (m *multiScanner) add(r *gozxing.Result, points []gozxing.ResultPoint, xOffset, yOffset int) {
	text := r.GetText()
	for _, existing := range m.results {
		if existing.Value == text {
			return
		}
	}

	res := Result{Type: formatFromZXing(r.GetBarcodeFormat()), Value: text}
	for _, p := range points {
		if p == nil {
			continue
		}
		res.Points = append(res.Points, Point{X: int(p.GetX()) + xOffset, Y: int(p.GetY()) + yOffset})
	}
	m.results = append(m.results, res)
}

func clamp(v, lo, hi int) int {
	return max(lo, min(v, hi))
}
