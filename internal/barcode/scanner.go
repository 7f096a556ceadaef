package barcode

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/MeKo-Tech/isbnx/internal/imageio"
)

// Scan status codes carried by ScanError. All failures are negative.
const (
	StatusInternal = -1
	StatusInvalid  = -2
	StatusCanceled = -3
)

// ScanError reports a failed scan with a negative status code.
type ScanError struct {
	Status int
	Err    error
}

func (e *ScanError) Error() string {
	return fmt.Sprintf("barcode scan error(%d): %v", e.Status, e.Err)
}

func (e *ScanError) Unwrap() error { return e.Err }

// Config selects what a Scanner looks for.
type Config struct {
	Symbologies []Format
	TryHarder   bool
}

// DefaultConfig scans for ISBN-13 only.
func DefaultConfig() Config {
	return Config{Symbologies: []Format{FormatISBN13}, TryHarder: true}
}

// Symbol is a decoded barcode kept by the Scanner.
type Symbol struct {
	Type   Format
	Value  string
	Points []Point
}

// ScanResult holds the symbols kept from one scan, in backend order.
type ScanResult struct {
	Symbols []Symbol
}

// ISBNs returns the decoded text of every kept symbol.
func (r ScanResult) ISBNs() []string {
	out := make([]string, 0, len(r.Symbols))
	for _, s := range r.Symbols {
		out = append(out, s.Value)
	}
	return out
}

// Scanner detects symbols in grayscale buffers.
type Scanner struct {
	cfg     Config
	backend Backend
}

// ScannerOption customizes a Scanner.
type ScannerOption func(*Scanner)

// WithBackend replaces the default gozxing backend.
func WithBackend(b Backend) ScannerOption {
	return func(s *Scanner) { s.backend = b }
}

// NewScanner validates cfg and returns a Scanner.
func NewScanner(cfg Config, opts ...ScannerOption) (*Scanner, error) {
	if len(cfg.Symbologies) == 0 {
		return nil, errors.New("barcode: no symbologies enabled")
	}
	for _, f := range cfg.Symbologies {
		if _, ok := formatNames[f]; !ok || f == FormatUnknown {
			return nil, fmt.Errorf("barcode: unsupported symbology %d", int(f))
		}
	}
	s := &Scanner{cfg: cfg, backend: NewZXingBackend()}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Enabled reports whether f is one of the configured symbologies.
func (s *Scanner) Enabled(f Format) bool {
	return slices.Contains(s.cfg.Symbologies, f)
}

// Scan runs the backend over buf and keeps symbols of enabled symbologies.
// A failed scan returns no symbols, even if the backend produced some.
func (s *Scanner) Scan(ctx context.Context, buf *imageio.Buffer) (ScanResult, error) {
	if err := buf.Validate(); err != nil {
		return ScanResult{}, &ScanError{Status: StatusInvalid, Err: err}
	}
	if err := ctx.Err(); err != nil {
		return ScanResult{}, &ScanError{Status: StatusCanceled, Err: err}
	}

	start := time.Now()
	plane := Plane{Pix: buf.Pix, Width: buf.Width, Height: buf.Height}
	results, err := s.backend.Decode(ctx, plane, Options{Formats: s.cfg.Symbologies, TryHarder: s.cfg.TryHarder})
	if err != nil {
		status := StatusInternal
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			status = StatusCanceled
		}
		return ScanResult{}, &ScanError{Status: status, Err: err}
	}

	var res ScanResult
	for _, r := range results {
		t := s.classify(r)
		if !s.Enabled(t) {
			slog.Debug("Discarding symbol", "type", t.String(), "value", r.Value)
			continue
		}
		res.Symbols = append(res.Symbols, Symbol{Type: t, Value: r.Value, Points: r.Points})
	}

	slog.Debug("Scan complete",
		"detected", len(results),
		"kept", len(res.Symbols),
		"duration", time.Since(start))
	return res, nil
}

// classify promotes Bookland EAN-13 symbols to ISBN-13 when that symbology is enabled.
func (s *Scanner) classify(r Result) Format {
	if r.Type == FormatEAN13 && s.Enabled(FormatISBN13) && IsBookland(r.Value) {
		return FormatISBN13
	}
	return r.Type
}

// IsBookland reports whether v is a 13-digit EAN with the 978 or 979 prefix.
func IsBookland(v string) bool {
	if len(v) != 13 {
		return false
	}
	for _, c := range v {
		if c < '0' || c > '9' {
			return false
		}
	}
	return strings.HasPrefix(v, "978") || strings.HasPrefix(v, "979")
}
