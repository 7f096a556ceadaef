package barcode

import (
	"context"
	"errors"
	"fmt"

	"github.com/makiuchi-d/gozxing"
	"github.com/makiuchi-d/gozxing/oned"
	"github.com/makiuchi-d/gozxing/qrcode"
)

// NewZXingBackend returns the gozxing-backed decoder.
func NewZXingBackend() Backend { return zxingBackend{} }

type zxingBackend struct{}

func (zxingBackend) Decode(ctx context.Context, plane Plane, opts Options) ([]Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	reader, possible, err := readerFor(opts.Formats)
	if err != nil {
		return nil, err
	}

	hints := map[gozxing.DecodeHintType]interface{}{
		gozxing.DecodeHintType_POSSIBLE_FORMATS: possible,
	}
	if opts.TryHarder {
		hints[gozxing.DecodeHintType_TRY_HARDER] = true
	}

	// Y800 is the luma plane of planar YUV, so no further conversion is needed.
	source, err := gozxing.NewPlanarYUVLuminanceSource(
		plane.Pix, plane.Width, plane.Height, 0, 0, plane.Width, plane.Height, false)
	if err != nil {
		return nil, fmt.Errorf("luminance source: %w", err)
	}
	bitmap, err := gozxing.NewBinaryBitmap(gozxing.NewHybridBinarizer(source))
	if err != nil {
		return nil, fmt.Errorf("binary bitmap: %w", err)
	}

	ms := &multiScanner{ctx: ctx, reader: reader, hints: hints}
	if err := ms.scan(bitmap, 0, 0, 0); err != nil {
		return nil, err
	}
	if ms.results == nil {
		return []Result{}, nil
	}
	return ms.results, nil
}

// anyOf tries each delegate in order and returns the first symbol found.
type anyOf []gozxing.Reader

func (r anyOf) DecodeWithoutHints(img *gozxing.BinaryBitmap) (*gozxing.Result, error) {
	return r.Decode(img, nil)
}

func (r anyOf) Decode(img *gozxing.BinaryBitmap, hints map[gozxing.DecodeHintType]interface{}) (*gozxing.Result, error) {
	for _, d := range r {
		res, err := d.Decode(img, hints)
		if err == nil {
			return res, nil
		}
		var re gozxing.ReaderException
		if !errors.As(err, &re) {
			return nil, err
		}
	}
	return nil, gozxing.NewNotFoundException("no enabled symbology matched")
}

func (r anyOf) Reset() {
	for _, d := range r {
		d.Reset()
	}
}

// upceanOrder fixes the delegate order of the UPC/EAN reader. EAN-13 comes
// first so that a UPC-A symbol read as "0"+12 digits is reported as UPC-A.
var upceanOrder = []gozxing.BarcodeFormat{
	gozxing.BarcodeFormat_EAN_13,
	gozxing.BarcodeFormat_UPC_A,
	gozxing.BarcodeFormat_EAN_8,
	gozxing.BarcodeFormat_UPC_E,
}

// readerFor builds a reader for formats and returns the gozxing formats to
// pass as POSSIBLE_FORMATS.
func readerFor(formats []Format) (anyOf, []gozxing.BarcodeFormat, error) {
	wanted := make(map[gozxing.BarcodeFormat]bool)
	for _, f := range formats {
		switch f {
		case FormatISBN13, FormatEAN13:
			// ISBN-13 is an EAN-13 with a Bookland prefix; one reader serves both.
			wanted[gozxing.BarcodeFormat_EAN_13] = true
		case FormatEAN8:
			wanted[gozxing.BarcodeFormat_EAN_8] = true
		case FormatUPCA:
			wanted[gozxing.BarcodeFormat_UPC_A] = true
		case FormatUPCE:
			wanted[gozxing.BarcodeFormat_UPC_E] = true
		case FormatCode128:
			wanted[gozxing.BarcodeFormat_CODE_128] = true
		case FormatCode39:
			wanted[gozxing.BarcodeFormat_CODE_39] = true
		case FormatQR:
			wanted[gozxing.BarcodeFormat_QR_CODE] = true
		default:
			return nil, nil, fmt.Errorf("unsupported symbology %s", f)
		}
	}

	var (
		readers  anyOf
		possible []gozxing.BarcodeFormat
		upcean   []gozxing.BarcodeFormat
	)
	for _, bf := range upceanOrder {
		if wanted[bf] {
			upcean = append(upcean, bf)
		}
	}
	if len(upcean) > 0 {
		// The reader only honors a plain []BarcodeFormat hint value.
		readers = append(readers, oned.NewMultiFormatUPCEANReader(map[gozxing.DecodeHintType]interface{}{
			gozxing.DecodeHintType_POSSIBLE_FORMATS: upcean,
		}))
		possible = append(possible, upcean...)
	}
	if wanted[gozxing.BarcodeFormat_CODE_128] {
		readers = append(readers, oned.NewCode128Reader())
		possible = append(possible, gozxing.BarcodeFormat_CODE_128)
	}
	if wanted[gozxing.BarcodeFormat_CODE_39] {
		readers = append(readers, oned.NewCode39Reader())
		possible = append(possible, gozxing.BarcodeFormat_CODE_39)
	}
	if wanted[gozxing.BarcodeFormat_QR_CODE] {
		readers = append(readers, qrcode.NewQRCodeReader())
		possible = append(possible, gozxing.BarcodeFormat_QR_CODE)
	}
	if len(readers) == 0 {
		return nil, nil, errors.New("no symbologies enabled")
	}
	return readers, possible, nil
}

func formatFromZXing(bf gozxing.BarcodeFormat) Format {
	switch bf {
	case gozxing.BarcodeFormat_EAN_13:
		return FormatEAN13
	case gozxing.BarcodeFormat_EAN_8:
		return FormatEAN8
	case gozxing.BarcodeFormat_UPC_A:
		return FormatUPCA
	case gozxing.BarcodeFormat_UPC_E:
		return FormatUPCE
	case gozxing.BarcodeFormat_CODE_128:
		return FormatCode128
	case gozxing.BarcodeFormat_CODE_39:
		return FormatCode39
	case gozxing.BarcodeFormat_QR_CODE:
		return FormatQR
	default:
		return FormatUnknown
	}
}
