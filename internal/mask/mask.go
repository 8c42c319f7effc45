// Package mask turns a decoded raster into a binary subject mask via
// background-color estimation, adaptive thresholding and border flood
// fill, and cleans it up for contour tracing.
package mask

import (
	"image"

	"github.com/disintegration/imaging"
)

// Mask is a width x height grid of subject flags stored as a flat buffer
// indexed by y*W+x. It is mutable during construction and treated as
// immutable once returned from Extract or LargestRegion.
type Mask struct {
	W, H int
	Bits []bool
}

// New creates an all-background mask of the given dimensions.
func New(w, h int) *Mask {
	return &Mask{W: w, H: h, Bits: make([]bool, w*h)}
}

// At reports whether (x, y) is a subject pixel. Out-of-bounds
// coordinates are background.
func (m *Mask) At(x, y int) bool {
	if x < 0 || y < 0 || x >= m.W || y >= m.H {
		return false
	}
	return m.Bits[y*m.W+x]
}

// Set marks (x, y) as subject or background.
func (m *Mask) Set(x, y int, v bool) {
	if x < 0 || y < 0 || x >= m.W || y >= m.H {
		return
	}
	m.Bits[y*m.W+x] = v
}

// Count returns the number of subject pixels.
func (m *Mask) Count() int {
	n := 0
	for _, b := range m.Bits {
		if b {
			n++
		}
	}
	return n
}

// Clone returns a deep copy of the mask.
func (m *Mask) Clone() *Mask {
	out := &Mask{W: m.W, H: m.H, Bits: make([]bool, len(m.Bits))}
	copy(out.Bits, m.Bits)
	return out
}

// ToImage renders the mask as a grayscale image (subject white,
// background black) for debug output.
func (m *Mask) ToImage() *image.Gray {
	img := image.NewGray(image.Rect(0, 0, m.W, m.H))
	for i, b := range m.Bits {
		if b {
			img.Pix[i] = 0xff
		}
	}
	return img
}

// Import thresholds for externally supplied mask rasters.
const (
	importMinAlpha      = 40
	importMaxBrightness = 240
)

// FromImage builds a mask from a pre-thresholded mask raster supplied by
// the caller: a pixel is subject when it is sufficiently opaque (alpha
// above 40) and darker than near-white (mean RGB below 240). This covers
// both transparent-background and white-background mask images.
func FromImage(img image.Image) *Mask {
	nrgba := imaging.Clone(img)
	w := nrgba.Bounds().Dx()
	h := nrgba.Bounds().Dy()
	m := New(w, h)
	for y := range h {
		for x := range w {
			o := nrgba.PixOffset(x, y)
			r := int(nrgba.Pix[o])
			g := int(nrgba.Pix[o+1])
			b := int(nrgba.Pix[o+2])
			a := int(nrgba.Pix[o+3])
			brightness := (r + g + b) / 3
			if a > importMinAlpha && brightness < importMaxBrightness {
				m.Bits[y*w+x] = true
			}
		}
	}
	return m
}
