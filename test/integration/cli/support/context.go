// Package support holds shared state and step definitions for the CLI
// feature tests.
package support

import (
	"fmt"
	"os"
)

// TestContext holds the state for integration tests.
type TestContext struct {
	// Command execution state
	LastOutput string
	LastError  error

	// Test environment
	TempDir string

	// Test artifacts
	CreatedFiles []string
}

// NewTestContext creates a new test context.
func NewTestContext() (*TestContext, error) {
	tempDir, err := os.MkdirTemp("", "cutout-test-*")
	if err != nil {
		return nil, fmt.Errorf("failed to create temp directory: %w", err)
	}

	return &TestContext{
		TempDir:      tempDir,
		CreatedFiles: []string{},
	}, nil
}

// Cleanup removes all temporary files and directories created during tests.
func (testCtx *TestContext) Cleanup() error {
	if testCtx.TempDir != "" {
		if err := os.RemoveAll(testCtx.TempDir); err != nil {
			return fmt.Errorf("failed to remove temp directory: %w", err)
		}
	}
	return nil
}
