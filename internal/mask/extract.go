package mask

import (
	"container/list"
	"errors"
	"image"
	"math"

	"github.com/MeKo-Tech/cutout/internal/mempool"
	"github.com/disintegration/imaging"
)

// ErrNoSubjectDetected is returned when the border flood fill reaches
// every pixel, i.e. the raster contains no foreground to trace.
var ErrNoSubjectDetected = errors.New("no subject detected in image")

// Config holds settings for mask extraction.
type Config struct {
	// BackgroundTolerance biases threshold sensitivity on a 0-100 scale.
	// The midpoint 50 contributes no adjustment.
	BackgroundTolerance int
	// UseInteriorSampling enables the interior color pass that recovers
	// saturated subject pixels whose RGB distance to the background
	// estimate is small.
	UseInteriorSampling bool
	// DilationRadius is the Chebyshev radius used to close small gaps
	// from anti-aliased edges.
	DilationRadius int
}

// DefaultConfig returns the default mask extraction configuration.
func DefaultConfig() Config {
	return Config{
		BackgroundTolerance: 50,
		UseInteriorSampling: false,
		DilationRadius:      2,
	}
}

// Validate checks configuration bounds.
func (c Config) Validate() error {
	if c.BackgroundTolerance < 0 || c.BackgroundTolerance > 100 {
		return errors.New("background tolerance must be in [0, 100]")
	}
	if c.DilationRadius < 0 {
		return errors.New("dilation radius must be non-negative")
	}
	return nil
}

// Threshold calculation constants.
const (
	borderRingSamples  = 12
	borderGridDivisor  = 24
	thresholdStdWeight = 1.5
	thresholdOffset    = 10.0
	toleranceScale     = 1.5
	thresholdMin       = 10.0
	thresholdMax       = 200.0
	thresholdFallback  = 40.0
)

// Interior inclusion constants.
const (
	interiorMargin        = 0.05
	interiorMinDistance   = 15.0
	interiorMinSaturation = 0.28
	interiorMinValue      = 0.1
	interiorMaxValue      = 0.98
)

type rgb struct {
	r, g, b float64
}

func colorDistance(a, b rgb) float64 {
	dr := a.r - b.r
	dg := a.g - b.g
	db := a.b - b.b
	return math.Sqrt(dr*dr + dg*dg + db*db)
}

// Extract produces a binary subject mask for the raster using
// background-color sampling, adaptive thresholding, border flood fill,
// optional interior color inclusion and morphological dilation.
// Returns ErrNoSubjectDetected when no foreground pixel survives.
func Extract(img image.Image, cfg Config) (*Mask, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	nrgba := imaging.Clone(img)
	w := nrgba.Bounds().Dx()
	h := nrgba.Bounds().Dy()
	if w == 0 || h == 0 {
		return nil, ErrNoSubjectDetected
	}

	bg := estimateBackground(nrgba, w, h)
	threshold := adaptiveThreshold(nrgba, w, h, bg, cfg.BackgroundTolerance)

	m, err := floodBackground(nrgba, w, h, bg, threshold)
	if err != nil {
		return nil, err
	}

	if cfg.UseInteriorSampling {
		includeInterior(nrgba, m, bg, threshold)
	}

	dilate(m, cfg.DilationRadius)
	return m, nil
}

func pixelAt(img *image.NRGBA, x, y int) rgb {
	o := img.PixOffset(x, y)
	return rgb{r: float64(img.Pix[o]), g: float64(img.Pix[o+1]), b: float64(img.Pix[o+2])}
}

// estimateBackground averages the color over a fixed ring of 12 sample
// points around the raster border: the four corners plus two
// quarter-points per edge.
func estimateBackground(img *image.NRGBA, w, h int) rgb {
	xs := []int{0, w / 4, 3 * w / 4, w - 1}
	ys := []int{0, h / 4, 3 * h / 4, h - 1}
	pts := [borderRingSamples][2]int{
		{xs[0], ys[0]}, {xs[3], ys[0]}, {xs[0], ys[3]}, {xs[3], ys[3]},
		{xs[1], ys[0]}, {xs[2], ys[0]},
		{xs[1], ys[3]}, {xs[2], ys[3]},
		{xs[0], ys[1]}, {xs[0], ys[2]},
		{xs[3], ys[1]}, {xs[3], ys[2]},
	}
	var sum rgb
	for _, p := range pts {
		c := pixelAt(img, p[0], p[1])
		sum.r += c.r
		sum.g += c.g
		sum.b += c.b
	}
	n := float64(len(pts))
	return rgb{r: sum.r / n, g: sum.g / n, b: sum.b / n}
}

// adaptiveThreshold samples colors along a coarse grid on the four border
// edges and derives a color-distance threshold from their spread around
// the background estimate. The tolerance input (0-100) shifts the result;
// 50 is neutral.
func adaptiveThreshold(img *image.NRGBA, w, h int, bg rgb, tolerance int) float64 {
	strideX := max(1, w/borderGridDivisor)
	strideY := max(1, h/borderGridDivisor)

	var dists []float64
	for x := 0; x < w; x += strideX {
		dists = append(dists, colorDistance(pixelAt(img, x, 0), bg))
		dists = append(dists, colorDistance(pixelAt(img, x, h-1), bg))
	}
	for y := 0; y < h; y += strideY {
		dists = append(dists, colorDistance(pixelAt(img, 0, y), bg))
		dists = append(dists, colorDistance(pixelAt(img, w-1, y), bg))
	}
	if len(dists) == 0 {
		return thresholdFallback
	}

	var sum float64
	for _, d := range dists {
		sum += d
	}
	mean := sum / float64(len(dists))
	var variance float64
	for _, d := range dists {
		diff := d - mean
		variance += diff * diff
	}
	variance /= float64(len(dists))
	std := math.Sqrt(variance)

	t := mean + thresholdStdWeight*std + thresholdOffset +
		float64(tolerance-50)*toleranceScale
	return math.Min(thresholdMax, math.Max(thresholdMin, t))
}

// floodBackground runs a 4-connected BFS flood fill seeded from every
// border pixel whose color distance to the background estimate is within
// the threshold. Reached pixels are background; everything unreached is
// subject. Returns ErrNoSubjectDetected when nothing is left.
func floodBackground(img *image.NRGBA, w, h int, bg rgb, threshold float64) (*Mask, error) {
	isBackground := func(x, y int) bool {
		return colorDistance(pixelAt(img, x, y), bg) <= threshold
	}

	reached := mempool.GetBool(w * h)
	defer mempool.PutBool(reached)

	q := list.New()
	seed := func(x, y int) {
		idx := y*w + x
		if !reached[idx] && isBackground(x, y) {
			reached[idx] = true
			q.PushBack(idx)
		}
	}
	for x := range w {
		seed(x, 0)
		seed(x, h-1)
	}
	for y := range h {
		seed(0, y)
		seed(w-1, y)
	}

	dirs := [][2]int{{1, 0}, {-1, 0}, {0, 1}, {0, -1}}
	for q.Len() > 0 {
		e := q.Front()
		q.Remove(e)
		ci, ok := e.Value.(int)
		if !ok {
			continue
		}
		cx, cy := ci%w, ci/w
		for _, d := range dirs {
			nx, ny := cx+d[0], cy+d[1]
			if nx < 0 || ny < 0 || nx >= w || ny >= h {
				continue
			}
			ni := ny*w + nx
			if !reached[ni] && isBackground(nx, ny) {
				reached[ni] = true
				q.PushBack(ni)
			}
		}
	}

	m := New(w, h)
	subject := 0
	for i := range m.Bits {
		if !reached[i] {
			m.Bits[i] = true
			subject++
		}
	}
	if subject == 0 {
		return nil, ErrNoSubjectDetected
	}
	return m, nil
}

// includeInterior marks margin-trimmed interior pixels as subject when
// they are either clearly distant from the background color or visually
// saturated in HSV terms. The pass is discarded as noise when it marks
// fewer than max(100, 1% of pixels).
func includeInterior(img *image.NRGBA, m *Mask, bg rgb, threshold float64) {
	w, h := m.W, m.H
	x0 := int(float64(w) * interiorMargin)
	y0 := int(float64(h) * interiorMargin)
	x1 := w - x0
	y1 := h - y0

	distThreshold := math.Max(interiorMinDistance, threshold+interiorMinDistance)

	marked := mempool.GetBool(w * h)
	defer mempool.PutBool(marked)

	count := 0
	for y := y0; y < y1; y++ {
		for x := x0; x < x1; x++ {
			c := pixelAt(img, x, y)
			if colorDistance(c, bg) > distThreshold {
				marked[y*w+x] = true
				count++
				continue
			}
			_, s, v := rgbToHSV(c)
			if s >= interiorMinSaturation && v >= interiorMinValue && v <= interiorMaxValue {
				marked[y*w+x] = true
				count++
			}
		}
	}

	noiseFloor := max(100, w*h/100)
	if count < noiseFloor {
		return
	}
	for i, b := range marked {
		if b {
			m.Bits[i] = true
		}
	}
}

// rgbToHSV converts 0-255 RGB channels to hue (degrees), saturation and
// value, the latter two in [0, 1].
func rgbToHSV(c rgb) (hue, sat, val float64) {
	r := c.r / 255
	g := c.g / 255
	b := c.b / 255
	maxC := math.Max(r, math.Max(g, b))
	minC := math.Min(r, math.Min(g, b))
	delta := maxC - minC

	val = maxC
	if maxC > 0 {
		sat = delta / maxC
	}
	if delta == 0 {
		return 0, sat, val
	}
	switch maxC {
	case r:
		hue = 60 * math.Mod((g-b)/delta, 6)
	case g:
		hue = 60 * ((b-r)/delta + 2)
	default:
		hue = 60 * ((r-g)/delta + 4)
	}
	if hue < 0 {
		hue += 360
	}
	return hue, sat, val
}

// dilate expands subject pixels by the given Chebyshev radius in place.
func dilate(m *Mask, radius int) {
	if radius <= 0 {
		return
	}
	w, h := m.W, m.H
	src := mempool.GetBool(w * h)
	defer mempool.PutBool(src)
	copy(src, m.Bits)

	for y := range h {
		for x := range w {
			if !src[y*w+x] {
				continue
			}
			for dy := -radius; dy <= radius; dy++ {
				for dx := -radius; dx <= radius; dx++ {
					nx, ny := x+dx, y+dy
					if nx >= 0 && ny >= 0 && nx < w && ny < h {
						m.Bits[ny*w+nx] = true
					}
				}
			}
		}
	}
}
