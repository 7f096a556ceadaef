package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/MeKo-Tech/isbnx/internal/barcode"
	"github.com/MeKo-Tech/isbnx/internal/config"
	"github.com/MeKo-Tech/isbnx/internal/imageio"
	"github.com/MeKo-Tech/isbnx/internal/metrics"
	"github.com/MeKo-Tech/isbnx/internal/pipeline"
	"github.com/MeKo-Tech/isbnx/internal/version"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

// Process exit codes.
const (
	ExitSuccess = 0
	ExitFailure = 1
)

var errUsage = errors.New("usage: isbnx <input>")

// NewRootCommand builds the isbnx command with its own configuration
// loader, so each invocation starts from a clean state.
func NewRootCommand() *cobra.Command {
	loader := config.NewLoader()
	var cfgFile, envFile string

	rootCmd := &cobra.Command{
		Use:   "isbnx <input>",
		Short: "Extract ISBN-13 barcodes from an image",
		Long: `isbnx decodes an image file, converts it to 8-bit grayscale and scans it
for ISBN-13 (Bookland EAN-13) barcodes.

On success it prints "Found: N" followed by one ISBN per line and exits 0,
including when no ISBN was found. Any failure exits 1.

Supported formats: PNG, JPEG, GIF, BMP, TIFF, WebP

Examples:
  isbnx book.png
  isbnx --format json cover.jpg
  ISBNX_SCAN_SYMBOLOGIES=isbn13,ean13 isbnx shelf.tiff`,
		Version:       version.String(),
		Args:          cobra.ArbitraryArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				return errUsage
			}

			loader.SetEnvFile(envFile)
			cfg, err := loader.LoadWithFile(cfgFile)
			if err != nil {
				return err
			}
			setupLogging(cmd.ErrOrStderr(), cfg)
			if len(args) > 1 {
				slog.Debug("Ignoring extra arguments", "args", args[1:])
			}

			return runScan(cmd.Context(), cmd.OutOrStdout(), cfg, args[0])
		},
	}

	defaults := config.DefaultConfig()
	flags := rootCmd.Flags()
	flags.StringVar(&cfgFile, "config", "", "config file (default is search in ., $HOME, $HOME/.config/isbnx, /etc/isbnx)")
	flags.StringVar(&envFile, "env-file", "", "read ISBNX_* variables from a dotenv file before loading config")
	flags.BoolP("verbose", "v", false, "verbose output (equivalent to --log-level=debug)")
	flags.String("log-level", defaults.LogLevel, "log level (debug, info, warn, error)")
	flags.String("format", defaults.Output.Format, "output format (text, json)")
	flags.Bool("try-harder", defaults.Scan.TryHarder, "spend more time looking for barcodes")
	flags.StringSlice("symbology", defaults.Scan.Symbologies, "symbologies to report (isbn13, ean13, ean8, upca, upce, code128, code39, qr)")
	flags.String("metrics-textfile", "", "write Prometheus metrics for this run to the given file")

	v := loader.GetViper()
	_ = v.BindPFlag("verbose", flags.Lookup("verbose"))
	_ = v.BindPFlag("log_level", flags.Lookup("log-level"))
	_ = v.BindPFlag("output.format", flags.Lookup("format"))
	_ = v.BindPFlag("scan.try_harder", flags.Lookup("try-harder"))
	_ = v.BindPFlag("scan.symbologies", flags.Lookup("symbology"))
	_ = v.BindPFlag("metrics.textfile", flags.Lookup("metrics-textfile"))

	return rootCmd
}

// setupLogging installs a JSON slog handler on stderr, tagged with a fresh
// run ID. Stdout is reserved for results.
func setupLogging(w io.Writer, cfg *config.Config) {
	var logLevel slog.Level
	if cfg.Verbose {
		logLevel = slog.LevelDebug
	} else {
		switch cfg.LogLevel {
		case "debug":
			logLevel = slog.LevelDebug
		case "info":
			logLevel = slog.LevelInfo
		case "error":
			logLevel = slog.LevelError
		default:
			logLevel = slog.LevelWarn
		}
	}

	logger := slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level: logLevel,
	})).With("run_id", uuid.NewString())
	slog.SetDefault(logger)
}

// runScan acquires the pipeline for the duration of one file and prints
// the result. The image facility is released on every return path.
func runScan(ctx context.Context, stdout io.Writer, cfg *config.Config, path string) (err error) {
	if cfg.Metrics.Textfile != "" {
		rec := metrics.NewRecorder()
		var res *pipeline.Result
		defer func() {
			if err != nil {
				rec.ObserveFailure(pipeline.Stage(err))
			} else {
				rec.ObserveResult(res)
			}
			if werr := rec.WriteTextfile(cfg.Metrics.Textfile); werr != nil {
				slog.Warn("Failed to write metrics textfile", "path", cfg.Metrics.Textfile, "error", werr)
			}
		}()
		res, err = process(ctx, cfg, path)
		if err != nil {
			return err
		}
		return pipeline.Write(stdout, res, cfg.Output.Format)
	}

	res, err := process(ctx, cfg, path)
	if err != nil {
		return err
	}
	return pipeline.Write(stdout, res, cfg.Output.Format)
}

func process(ctx context.Context, cfg *config.Config, path string) (*pipeline.Result, error) {
	pcfg, err := cfg.ToPipelineConfig()
	if err != nil {
		return nil, err
	}

	p, err := pipeline.NewBuilder().
		WithImageFormats(pcfg.Image.Formats).
		WithSymbologies(pcfg.Scan.Symbologies).
		WithTryHarder(pcfg.Scan.TryHarder).
		Build()
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := p.Close(); cerr != nil {
			slog.Warn("Failed to release image facility", "error", cerr)
		}
	}()
	slog.Debug("Pipeline ready",
		"version", version.Version,
		"symbologies", p.Config().Scan.Symbologies,
		"try_harder", p.Config().Scan.TryHarder)

	return p.ProcessFile(ctx, path)
}

// describeError turns a pipeline error into the message printed on stderr.
func describeError(err error) string {
	var le *imageio.LoadError
	if errors.As(err, &le) {
		cause := le.Err
		var pe *fs.PathError
		if errors.As(cause, &pe) {
			cause = pe.Err
		}
		switch le.Op {
		case imageio.OpInit:
			return fmt.Sprintf("Failed to initialize image decoder: %v", cause)
		case imageio.OpOpen:
			return fmt.Sprintf("Failed to open %s: %v", le.Path, cause)
		case imageio.OpDecode:
			return fmt.Sprintf("Failed to decode %s: %v", le.Path, cause)
		case imageio.OpCopy:
			return fmt.Sprintf("Failed to copy pixels from %s: %v", le.Path, cause)
		}
	}

	var se *barcode.ScanError
	if errors.As(err, &se) {
		return se.Error()
	}
	return err.Error()
}

// Run executes isbnx with args and returns the process exit code.
func Run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	rootCmd := NewRootCommand()
	rootCmd.SetArgs(args)
	rootCmd.SetOut(stdout)
	rootCmd.SetErr(stderr)

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		_, _ = fmt.Fprintln(stderr, describeError(err))
		return ExitFailure
	}
	return ExitSuccess
}

// Execute runs isbnx against the process arguments and exits.
// This is called by main.main().
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := Run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}
