package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/MeKo-Tech/isbnx/internal/barcode"
	"github.com/MeKo-Tech/isbnx/internal/imageio"
)

// Config holds configuration for the load → scan pipeline.
type Config struct {
	Image imageio.Options
	Scan  barcode.Config
}

// DefaultConfig enables every codec and scans for ISBN-13 only.
func DefaultConfig() Config {
	return Config{
		Image: imageio.Options{},
		Scan:  barcode.DefaultConfig(),
	}
}

// Builder constructs a Pipeline with fluent configuration.
type Builder struct {
	cfg     Config
	backend barcode.Backend
}

// NewBuilder creates a new pipeline builder with defaults.
func NewBuilder() *Builder { return &Builder{cfg: DefaultConfig()} }

// WithImageFormats restricts the codecs the loader accepts.
func (b *Builder) WithImageFormats(formats []string) *Builder {
	if formats != nil {
		b.cfg.Image.Formats = formats
	}
	return b
}

// WithSymbologies replaces the symbologies the scanner keeps.
func (b *Builder) WithSymbologies(formats []barcode.Format) *Builder {
	if len(formats) > 0 {
		b.cfg.Scan.Symbologies = formats
	}
	return b
}

// WithTryHarder toggles the exhaustive scan hint.
func (b *Builder) WithTryHarder(enabled bool) *Builder {
	b.cfg.Scan.TryHarder = enabled
	return b
}

// WithBackend overrides the barcode decoding backend.
func (b *Builder) WithBackend(be barcode.Backend) *Builder {
	b.backend = be
	return b
}

// Build acquires the image facility and prepares the scanner. The caller
// must Close the returned Pipeline.
func (b *Builder) Build() (*Pipeline, error) {
	var opts []barcode.ScannerOption
	if b.backend != nil {
		opts = append(opts, barcode.WithBackend(b.backend))
	}
	scanner, err := barcode.NewScanner(b.cfg.Scan, opts...)
	if err != nil {
		return nil, fmt.Errorf("init scanner: %w", err)
	}

	fac, err := imageio.Open(b.cfg.Image)
	if err != nil {
		return nil, err
	}
	return &Pipeline{cfg: b.cfg, Facility: fac, Scanner: scanner}, nil
}

// Pipeline wires the image facility to the barcode scanner.
type Pipeline struct {
	cfg      Config
	Facility *imageio.Facility
	Scanner  *barcode.Scanner
}

// Close releases the image facility.
func (p *Pipeline) Close() error {
	if p.Facility == nil {
		return nil
	}
	err := p.Facility.Close()
	p.Facility = nil
	return err
}

// Config returns the pipeline configuration.
func (p *Pipeline) Config() Config { return p.cfg }

// ProcessFile loads path, scans it and returns the kept symbols.
// The first failing stage aborts the run; nothing is retried. A context
// that is already done fails with a StatusCanceled ScanError before the
// file is opened.
func (p *Pipeline) ProcessFile(ctx context.Context, path string) (*Result, error) {
	if p.Facility == nil {
		return nil, &imageio.LoadError{Op: imageio.OpInit, Path: path, Err: imageio.ErrFacilityClosed}
	}
	if err := ctx.Err(); err != nil {
		return nil, &barcode.ScanError{Status: barcode.StatusCanceled, Err: err}
	}
	start := time.Now()

	buf, err := p.Facility.Load(ctx, path)
	if err != nil {
		slog.Debug("Load failed", "path", path, "stage", Stage(err), "input_missing", imageio.IsOp(err, imageio.OpOpen))
		return nil, err
	}
	loaded := time.Now()

	scan, err := p.Scanner.Scan(ctx, buf)
	if err != nil {
		return nil, err
	}
	done := time.Now()

	res := &Result{
		File:      path,
		Format:    buf.Format,
		Width:     buf.Width,
		Height:    buf.Height,
		Converted: buf.Converted,
		ISBNs:     scan.ISBNs(),
	}
	for _, s := range scan.Symbols {
		res.Symbols = append(res.Symbols, SymbolResult{Type: s.Type.String(), Value: s.Value})
	}
	res.Processing.LoadNs = loaded.Sub(start).Nanoseconds()
	res.Processing.ScanNs = done.Sub(loaded).Nanoseconds()
	res.Processing.TotalNs = done.Sub(start).Nanoseconds()

	slog.Debug("Pipeline finished", "path", path, "found", len(res.ISBNs), "total", done.Sub(start))
	return res, nil
}

// Stage names the pipeline step an error came from.
func Stage(err error) string {
	var le *imageio.LoadError
	if errors.As(err, &le) {
		return le.Op
	}
	var se *barcode.ScanError
	if errors.As(err, &se) {
		return "scan"
	}
	return "unknown"
}
