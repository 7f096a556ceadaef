// Package barcode scans 8-bit grayscale frames for barcode symbols.
//
// A Scanner is configured with the symbologies to keep. Decoding itself is
// delegated to a Backend; the default backend wraps gozxing and reads the
// frame as a planar Y800 luminance plane. EAN-13 symbols carrying the
// Bookland prefix (978 or 979) are reported as ISBN-13 when that symbology
// is enabled.
package barcode
