package imageio

import (
	"context"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"log/slog"
	"os"
	"slices"
	"strings"
	"sync"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// SupportedFormats lists the codec names the facility can enable.
// The names match those registered with image.RegisterFormat.
var SupportedFormats = []string{"png", "jpeg", "gif", "bmp", "tiff", "webp"}

// Options configures the decoding facility.
type Options struct {
	// Formats restricts decoding to these codecs. Empty means all of SupportedFormats.
	Formats []string
}

// Facility is the process-scoped image decoding facility. It must be opened
// before use and closed when the run ends.
type Facility struct {
	mu      sync.Mutex
	formats map[string]bool
	closed  bool
}

// Open initializes the facility with the enabled codecs.
func Open(opts Options) (*Facility, error) {
	names := opts.Formats
	if names == nil {
		names = SupportedFormats
	}
	if len(names) == 0 {
		return nil, &LoadError{Op: OpInit, Err: fmt.Errorf("%w: no codecs enabled", ErrUnsupportedFormat)}
	}

	formats := make(map[string]bool, len(names))
	for _, n := range names {
		n = normalizeFormat(n)
		if !slices.Contains(SupportedFormats, n) {
			return nil, &LoadError{Op: OpInit, Err: fmt.Errorf("%w: %q", ErrUnsupportedFormat, n)}
		}
		formats[n] = true
	}
	slog.Debug("Image facility initialized", "formats", names)
	return &Facility{formats: formats}, nil
}

// Close releases the facility. It is safe to call more than once.
func (f *Facility) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.closed {
		f.closed = true
		slog.Debug("Image facility released")
	}
	return nil
}

// Enabled reports whether the named codec is enabled.
func (f *Facility) Enabled(format string) bool {
	return f.formats[normalizeFormat(format)]
}

// Load opens the file at path, decodes its first frame and converts it to
// an 8-bit grayscale Buffer.
func (f *Facility) Load(ctx context.Context, path string) (*Buffer, error) {
	f.mu.Lock()
	closed := f.closed
	f.mu.Unlock()
	if closed {
		return nil, &LoadError{Op: OpInit, Path: path, Err: ErrFacilityClosed}
	}
	if err := ctx.Err(); err != nil {
		return nil, &LoadError{Op: OpOpen, Path: path, Err: err}
	}

	file, err := os.Open(path) //nolint:gosec // G304: reading a user-provided image path is the point
	if err != nil {
		return nil, &LoadError{Op: OpOpen, Path: path, Err: err}
	}
	defer func() {
		if cerr := file.Close(); cerr != nil {
			slog.Warn("Error closing image file", "path", path, "error", cerr)
		}
	}()

	// Sniff first so disabled codecs are rejected before a full decode.
	_, format, err := image.DecodeConfig(file)
	if err != nil {
		return nil, &LoadError{Op: OpDecode, Path: path, Err: err}
	}
	if !f.Enabled(format) {
		return nil, &LoadError{Op: OpDecode, Path: path, Err: fmt.Errorf("%w: %s", ErrUnsupportedFormat, format)}
	}
	if _, err := file.Seek(0, io.SeekStart); err != nil {
		return nil, &LoadError{Op: OpOpen, Path: path, Err: err}
	}

	img, _, err := image.Decode(file)
	if err != nil {
		return nil, &LoadError{Op: OpDecode, Path: path, Err: err}
	}
	if img.Bounds().Empty() {
		return nil, &LoadError{Op: OpDecode, Path: path, Err: ErrEmptyImage}
	}

	buf, err := toGray(img)
	if err != nil {
		return nil, &LoadError{Op: OpCopy, Path: path, Err: err}
	}
	buf.Format = format

	slog.Debug("Image loaded",
		"path", path,
		"format", format,
		"pixel_format", buf.PixelFormat(),
		"width", buf.Width,
		"height", buf.Height,
		"converted", buf.Converted)
	return buf, nil
}

func normalizeFormat(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	switch s {
	case "jpg":
		return "jpeg"
	case "tif":
		return "tiff"
	}
	return s
}
