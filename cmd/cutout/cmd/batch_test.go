package cmd

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBatchCommand(t *testing.T) {
	dir := t.TempDir()
	writeTestImage(t, dir)
	outDir := filepath.Join(dir, "out")

	out, err := runCommand(t, "batch", dir,
		"--pieces", "2", "--seed", "42", "--output-dir", outDir, "--workers", "1")
	require.NoError(t, err)
	assert.Contains(t, out, "1 ok")

	entries, err := os.ReadDir(outDir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "subject.json", entries[0].Name())
}

func TestBatchCommand_NoInputs(t *testing.T) {
	dir := t.TempDir()
	_, err := runCommand(t, "batch", dir, "--output-dir", "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no image files found")
}
