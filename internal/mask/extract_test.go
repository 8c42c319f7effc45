package mask

import (
	"image"
	"image/color"
	"math"
	"testing"

	"github.com/MeKo-Tech/cutout/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtract_AllWhiteImage(t *testing.T) {
	img := testutil.NewUniformImage(64, 64, color.White)
	_, err := Extract(img, DefaultConfig())
	require.ErrorIs(t, err, ErrNoSubjectDetected)
}

func TestExtract_CircleOnWhite(t *testing.T) {
	img := testutil.NewCircleImage(128, 128, 64, 64, 40, color.Black, color.White)
	m, err := Extract(img, DefaultConfig())
	require.NoError(t, err)
	require.Equal(t, 128, m.W)
	require.Equal(t, 128, m.H)

	// Dilation with radius 2 grows the circle to roughly radius 42.
	expected := math.Pi * 42 * 42
	count := float64(m.Count())
	assert.InDelta(t, expected, count, 0.1*expected)
	assert.True(t, m.At(64, 64), "circle center is subject")
	assert.False(t, m.At(2, 2), "corner is background")
}

func TestExtract_ToleranceExtremes(t *testing.T) {
	img := testutil.NewCircleImage(64, 64, 32, 32, 20, color.Black, color.White)
	for _, tol := range []int{0, 50, 100} {
		cfg := DefaultConfig()
		cfg.BackgroundTolerance = tol
		m, err := Extract(img, cfg)
		require.NoError(t, err, "tolerance %d", tol)
		assert.True(t, m.At(32, 32), "tolerance %d", tol)
	}
}

func TestExtract_InvalidConfig(t *testing.T) {
	img := testutil.NewUniformImage(8, 8, color.White)
	cfg := DefaultConfig()
	cfg.BackgroundTolerance = 150
	_, err := Extract(img, cfg)
	assert.Error(t, err)

	cfg = DefaultConfig()
	cfg.DilationRadius = -1
	_, err = Extract(img, cfg)
	assert.Error(t, err)
}

func TestAdaptiveThreshold_UniformBorder(t *testing.T) {
	img := testutil.NewUniformImage(64, 64, color.White)
	bg := estimateBackground(img, 64, 64)
	thr := adaptiveThreshold(img, 64, 64, bg, 50)
	// mean 0, std 0, offset 10 clamps to the minimum.
	assert.InDelta(t, thresholdMin, thr, 1e-9)

	// Tolerance shifts the threshold by 1.5 per unit above the midpoint.
	thr = adaptiveThreshold(img, 64, 64, bg, 100)
	assert.InDelta(t, thresholdMin+75, thr, 1e-9)
}

func TestEstimateBackground(t *testing.T) {
	img := testutil.NewUniformImage(32, 32, color.NRGBA{R: 200, G: 100, B: 50, A: 255})
	bg := estimateBackground(img, 32, 32)
	assert.InDelta(t, 200, bg.r, 1e-9)
	assert.InDelta(t, 100, bg.g, 1e-9)
	assert.InDelta(t, 50, bg.b, 1e-9)
}

func TestRGBToHSV(t *testing.T) {
	tests := []struct {
		name          string
		c             rgb
		hue, sat, val float64
	}{
		{"black", rgb{0, 0, 0}, 0, 0, 0},
		{"white", rgb{255, 255, 255}, 0, 0, 1},
		{"red", rgb{255, 0, 0}, 0, 1, 1},
		{"green", rgb{0, 255, 0}, 120, 1, 1},
		{"blue", rgb{0, 0, 255}, 240, 1, 1},
		{"mid gray", rgb{128, 128, 128}, 0, 0, 128.0 / 255},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, s, v := rgbToHSV(tt.c)
			assert.InDelta(t, tt.hue, h, 1e-9)
			assert.InDelta(t, tt.sat, s, 1e-9)
			assert.InDelta(t, tt.val, v, 1e-9)
		})
	}
}

func TestIncludeInterior_MarksSaturatedPixels(t *testing.T) {
	// Saturated red block on a gray background close to it in RGB space.
	bg := color.NRGBA{R: 128, G: 128, B: 128, A: 255}
	img := testutil.NewRectImage(64, 64, image.Rect(16, 16, 48, 48),
		color.NRGBA{R: 200, G: 60, B: 60, A: 255}, bg)

	m := New(64, 64)
	includeInterior(img, m, rgb{128, 128, 128}, 200)
	// 32x32 block = 1024 pixels, above the noise floor of max(100, 40).
	assert.True(t, m.At(32, 32))
	assert.False(t, m.At(4, 4))
}

func TestIncludeInterior_DiscardsNoise(t *testing.T) {
	bg := color.NRGBA{R: 128, G: 128, B: 128, A: 255}
	// 5x5 saturated block = 25 pixels, below the floor of 100.
	img := testutil.NewRectImage(64, 64, image.Rect(30, 30, 35, 35),
		color.NRGBA{R: 200, G: 60, B: 60, A: 255}, bg)

	m := New(64, 64)
	includeInterior(img, m, rgb{128, 128, 128}, 200)
	assert.Equal(t, 0, m.Count())
}

func TestDilate(t *testing.T) {
	m := New(16, 16)
	m.Set(8, 8, true)
	dilate(m, 2)
	assert.Equal(t, 25, m.Count(), "radius 2 marks a 5x5 square")
	assert.True(t, m.At(6, 6))
	assert.True(t, m.At(10, 10))
	assert.False(t, m.At(11, 8))
}

func TestDilate_ZeroRadiusNoop(t *testing.T) {
	m := New(8, 8)
	m.Set(4, 4, true)
	dilate(m, 0)
	assert.Equal(t, 1, m.Count())
}
