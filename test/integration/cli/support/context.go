package support

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/MeKo-Tech/isbnx/cmd/isbnx/cmd"
)

// TestContext holds the state for integration tests.
type TestContext struct {
	// Command execution state
	LastArgs     []string
	LastStdout   string
	LastStderr   string
	LastExitCode int

	// Outputs of earlier runs in the same scenario, oldest first
	PreviousStdout []string

	// Test environment
	TempDir string
	Files   map[string]string
}

// NewTestContext creates a new test context with its own temp directory.
func NewTestContext() (*TestContext, error) {
	tempDir, err := os.MkdirTemp("", "isbnx-test-*")
	if err != nil {
		return nil, fmt.Errorf("failed to create temp directory: %w", err)
	}

	return &TestContext{
		TempDir: tempDir,
		Files:   map[string]string{},
	}, nil
}

// Cleanup removes the scenario's temp directory.
func (testCtx *TestContext) Cleanup() error {
	if err := os.RemoveAll(testCtx.TempDir); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove temp directory %s: %w", testCtx.TempDir, err)
	}
	return nil
}

// Path returns the absolute path of a scenario file by name.
func (testCtx *TestContext) Path(name string) string {
	if p, ok := testCtx.Files[name]; ok {
		return p
	}
	return filepath.Join(testCtx.TempDir, name)
}

// expand replaces {name} placeholders in s with scenario file paths.
func (testCtx *TestContext) expand(s string) string {
	for name, p := range testCtx.Files {
		s = strings.ReplaceAll(s, "{"+name+"}", p)
	}
	return strings.ReplaceAll(s, "{tmp}", testCtx.TempDir)
}

// run executes the isbnx command in-process and records its outcome.
func (testCtx *TestContext) run(args []string) {
	if testCtx.LastArgs != nil {
		testCtx.PreviousStdout = append(testCtx.PreviousStdout, testCtx.LastStdout)
	}

	var stdout, stderr bytes.Buffer
	testCtx.LastArgs = args
	testCtx.LastExitCode = cmd.Run(context.Background(), args, &stdout, &stderr)
	testCtx.LastStdout = stdout.String()
	testCtx.LastStderr = stderr.String()
}
