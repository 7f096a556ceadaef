package barcode

import (
	"context"
	"fmt"
	"strings"
)

// Format represents a barcode symbology.
type Format int

const (
	FormatUnknown Format = iota
	FormatISBN13
	FormatEAN13
	FormatEAN8
	FormatUPCA
	FormatUPCE
	FormatCode128
	FormatCode39
	FormatQR
)

var formatNames = map[Format]string{
	FormatUnknown: "unknown",
	FormatISBN13:  "isbn13",
	FormatEAN13:   "ean13",
	FormatEAN8:    "ean8",
	FormatUPCA:    "upca",
	FormatUPCE:    "upce",
	FormatCode128: "code128",
	FormatCode39:  "code39",
	FormatQR:      "qr",
}

func (f Format) String() string {
	if s, ok := formatNames[f]; ok {
		return s
	}
	return "unknown"
}

// ParseFormat maps a symbology name such as "isbn13" or "EAN-13" to a Format.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "isbn13", "isbn-13", "isbn":
		return FormatISBN13, nil
	case "ean13", "ean-13":
		return FormatEAN13, nil
	case "ean8", "ean-8":
		return FormatEAN8, nil
	case "upca", "upc-a":
		return FormatUPCA, nil
	case "upce", "upc-e":
		return FormatUPCE, nil
	case "code128", "code-128":
		return FormatCode128, nil
	case "code39", "code-39":
		return FormatCode39, nil
	case "qr", "qrcode":
		return FormatQR, nil
	default:
		return FormatUnknown, fmt.Errorf("unknown symbology %q", s)
	}
}

// ParseFormats parses a list of symbology names, rejecting unknown ones.
func ParseFormats(names []string) ([]Format, error) {
	out := make([]Format, 0, len(names))
	for _, n := range names {
		f, err := ParseFormat(n)
		if err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	return out, nil
}

// Options controls backend decoding behavior.
type Options struct {
	// Formats constrains the set of symbologies to search.
	Formats []Format

	// TryHarder enables a more exhaustive search (slower but more robust).
	TryHarder bool
}

// Point is an integer point in image coordinates.
type Point struct {
	X int
	Y int
}

// Result is a symbol as reported by a backend.
type Result struct {
	Type   Format
	Value  string
	Points []Point
}

// Plane is a packed 8-bit luminance frame handed to a backend.
type Plane struct {
	Pix    []byte
	Width  int
	Height int
}

// Backend is a pluggable barcode decoder implementation.
// Decode returns an empty slice, not an error, when no symbol is found.
type Backend interface {
	Decode(ctx context.Context, plane Plane, opts Options) ([]Result, error)
}
