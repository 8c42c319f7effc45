package utils

import (
	"image/color"
	"path/filepath"
	"testing"

	"github.com/MeKo-Tech/cutout/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsSupportedImage(t *testing.T) {
	tests := []struct {
		path string
		want bool
	}{
		{"photo.jpg", true},
		{"photo.JPEG", true},
		{"mask.png", true},
		{"scan.bmp", true},
		{"doc.pdf", false},
		{"noext", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, IsSupportedImage(tt.path), tt.path)
	}
}

func TestLoadImage_Errors(t *testing.T) {
	_, _, err := LoadImage("")
	require.Error(t, err)
	var perr *ImageProcessingError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, "load", perr.Operation)

	_, _, err = LoadImage("missing.png")
	assert.Error(t, err)

	_, _, err = LoadImage("unsupported.gif")
	assert.Error(t, err)
}

func TestSaveAndLoadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out.png")

	img := testutil.NewCircleImage(32, 24, 16, 12, 8, color.Black, color.White)
	require.NoError(t, SavePNG(path, img))

	loaded, meta, err := LoadImage(path)
	require.NoError(t, err)
	assert.Equal(t, "png", meta.Format)
	assert.Equal(t, 32, meta.Width)
	assert.Equal(t, 24, meta.Height)
	assert.InDelta(t, 32.0/24.0, meta.AspectRatio, 1e-9)
	assert.Positive(t, meta.SizeBytes)
	assert.Equal(t, 32, loaded.Bounds().Dx())
}

func TestSaveImage_ByExtension(t *testing.T) {
	dir := t.TempDir()
	img := testutil.NewUniformImage(8, 8, color.White)

	require.NoError(t, SaveImage(filepath.Join(dir, "a.png"), img))
	require.NoError(t, SaveImage(filepath.Join(dir, "b.jpg"), img))
}
