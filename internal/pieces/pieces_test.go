package pieces

import (
	"encoding/json"
	"image"
	"image/color"
	"math/rand"
	"regexp"
	"testing"

	"github.com/MeKo-Tech/cutout/internal/geometry"
	"github.com/MeKo-Tech/cutout/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testPolys() [][]geometry.Point {
	return [][]geometry.Point{
		{{X: 0, Y: 0}, {X: 0.5, Y: 0}, {X: 0.5, Y: 1}, {X: 0, Y: 1}},
		{{X: 0.5, Y: 0}, {X: 1, Y: 0}, {X: 1, Y: 1}, {X: 0.5, Y: 1}},
	}
}

func TestAssemble(t *testing.T) {
	ps := Assemble(testPolys(), rand.New(rand.NewSource(1)))
	require.Len(t, ps, 2)

	hexColor := regexp.MustCompile(`^#[0-9a-f]{6}$`)
	for i, p := range ps {
		assert.Equal(t, i+1, p.ID, "IDs are sequential from 1")
		assert.Regexp(t, hexColor, p.Color)
		assert.GreaterOrEqual(t, p.Start.X, 0.0)
		assert.LessOrEqual(t, p.Start.X, 1.0)
		assert.GreaterOrEqual(t, p.Start.Y, 0.0)
		assert.LessOrEqual(t, p.Start.Y, 1.0)
	}
	assert.NotEqual(t, ps[0].Color, ps[1].Color)
}

func TestAssemble_Reproducible(t *testing.T) {
	a := Assemble(testPolys(), rand.New(rand.NewSource(9)))
	b := Assemble(testPolys(), rand.New(rand.NewSource(9)))
	assert.Equal(t, a, b)
}

func TestHSLToRGB(t *testing.T) {
	r, g, b := hslToRGB(0, 1, 0.5)
	assert.Equal(t, [3]uint8{255, 0, 0}, [3]uint8{r, g, b})

	r, g, b = hslToRGB(120, 1, 0.5)
	assert.Equal(t, [3]uint8{0, 255, 0}, [3]uint8{r, g, b})

	r, g, b = hslToRGB(240, 1, 0.5)
	assert.Equal(t, [3]uint8{0, 0, 255}, [3]uint8{r, g, b})
}

func TestNewDocument_RoundsCoordinates(t *testing.T) {
	ps := []Piece{{
		ID:      1,
		Color:   "#ff0000",
		Start:   geometry.Point{X: 0.123456, Y: 0.98765},
		Polygon: []geometry.Point{{X: 0.000449, Y: 0.9995}, {X: 0.5, Y: 0.25}, {X: 1.0 / 3.0, Y: 2.0 / 3.0}},
	}}
	doc := NewDocument(ps, 640, 480, true)

	assert.Equal(t, 640, doc.Width)
	assert.Equal(t, 480, doc.Height)
	assert.Equal(t, 1, doc.Count)
	assert.True(t, doc.Degraded)

	pd := doc.Pieces[0]
	assert.Equal(t, [2]float64{0.123, 0.988}, pd.Start)
	assert.Equal(t, [2]float64{0, 1}, pd.Polygon[0])
	assert.Equal(t, [2]float64{0.5, 0.25}, pd.Polygon[1])
	assert.Equal(t, [2]float64{0.333, 0.667}, pd.Polygon[2])
}

func TestDocument_MarshalRoundTrip(t *testing.T) {
	ps := Assemble(testPolys(), rand.New(rand.NewSource(2)))
	doc := NewDocument(ps, 100, 100, false)

	data, err := doc.MarshalIndent()
	require.NoError(t, err)

	var back Document
	require.NoError(t, json.Unmarshal(data, &back))
	assert.Equal(t, doc.Count, back.Count)
	assert.Len(t, back.Pieces, 2)
}

func TestCropRect(t *testing.T) {
	p := Piece{Polygon: []geometry.Point{{X: 0.25, Y: 0.25}, {X: 0.75, Y: 0.25}, {X: 0.5, Y: 0.75}}}
	r := CropRect(p, 100, 200)
	assert.Equal(t, image.Rect(25, 50, 75, 150), r)
}

func TestCropRect_ClampsToImage(t *testing.T) {
	p := Piece{Polygon: []geometry.Point{{X: 0, Y: 0}, {X: 1, Y: 0}, {X: 1, Y: 1}, {X: 0, Y: 1}}}
	r := CropRect(p, 64, 64)
	assert.Equal(t, image.Rect(0, 0, 64, 64), r)
}

func TestCropImage(t *testing.T) {
	img := testutil.NewUniformImage(100, 100, color.White)
	p := Piece{Polygon: []geometry.Point{{X: 0.1, Y: 0.1}, {X: 0.5, Y: 0.1}, {X: 0.5, Y: 0.5}, {X: 0.1, Y: 0.5}}}
	out := CropImage(img, p)
	assert.Equal(t, 40, out.Bounds().Dx())
	assert.Equal(t, 40, out.Bounds().Dy())
}
