// Package pipeline ties the segmentation, tracing, simplification and
// decomposition stages into one configurable run.
package pipeline

import (
	"fmt"
	"image"
	"log/slog"
	"math/rand"
	"time"

	"github.com/MeKo-Tech/cutout/internal/contour"
	"github.com/MeKo-Tech/cutout/internal/decompose"
	"github.com/MeKo-Tech/cutout/internal/geometry"
	"github.com/MeKo-Tech/cutout/internal/mask"
	"github.com/MeKo-Tech/cutout/internal/pieces"
	"github.com/disintegration/imaging"
)

// Config holds configuration for the full cut-out pipeline.
type Config struct {
	// Mask holds the extraction settings.
	Mask mask.Config
	// SimplifyTolerance is the Douglas-Peucker tolerance in normalized
	// units.
	SimplifyTolerance float64
	// PieceCount is the target number of pieces.
	PieceCount int
	// Seed seeds the decomposition RNG. Zero seeds from the clock.
	Seed int64
	// MaxDimension caps the working resolution; larger images are
	// scaled down before masking. Zero disables scaling.
	MaxDimension int
}

// DefaultConfig returns a default pipeline config with component defaults.
func DefaultConfig() Config {
	return Config{
		Mask:              mask.DefaultConfig(),
		SimplifyTolerance: geometry.DefaultSimplifyTolerance,
		PieceCount:        12,
		Seed:              0,
		MaxDimension:      1024,
	}
}

// Validate checks pipeline configuration bounds.
func (c Config) Validate() error {
	if err := c.Mask.Validate(); err != nil {
		return fmt.Errorf("mask config: %w", err)
	}
	if c.SimplifyTolerance < 0 {
		return fmt.Errorf("simplify tolerance must be non-negative, got %g", c.SimplifyTolerance)
	}
	if c.PieceCount < 1 {
		return fmt.Errorf("piece count must be at least 1, got %d", c.PieceCount)
	}
	if c.MaxDimension < 0 {
		return fmt.Errorf("max dimension must be non-negative, got %d", c.MaxDimension)
	}
	return nil
}

// Builder constructs a Pipeline with fluent configuration.
type Builder struct {
	cfg Config
}

// NewBuilder creates a new pipeline builder with defaults.
func NewBuilder() *Builder { return &Builder{cfg: DefaultConfig()} }

// WithPieceCount sets the target piece count.
func (b *Builder) WithPieceCount(n int) *Builder {
	if n > 0 {
		b.cfg.PieceCount = n
	}
	return b
}

// WithBackgroundTolerance sets the 0-100 extraction tolerance.
func (b *Builder) WithBackgroundTolerance(t int) *Builder {
	b.cfg.Mask.BackgroundTolerance = t
	return b
}

// WithInteriorSampling toggles the interior color inclusion pass.
func (b *Builder) WithInteriorSampling(enabled bool) *Builder {
	b.cfg.Mask.UseInteriorSampling = enabled
	return b
}

// WithSimplifyTolerance sets the Douglas-Peucker tolerance.
func (b *Builder) WithSimplifyTolerance(t float64) *Builder {
	if t >= 0 {
		b.cfg.SimplifyTolerance = t
	}
	return b
}

// WithSeed fixes the decomposition RNG seed for reproducible output.
func (b *Builder) WithSeed(seed int64) *Builder {
	b.cfg.Seed = seed
	return b
}

// WithMaxDimension caps the working resolution.
func (b *Builder) WithMaxDimension(d int) *Builder {
	if d >= 0 {
		b.cfg.MaxDimension = d
	}
	return b
}

// WithConfig replaces the whole configuration.
func (b *Builder) WithConfig(cfg Config) *Builder {
	b.cfg = cfg
	return b
}

// Build validates the configuration and returns the pipeline.
func (b *Builder) Build() (*Pipeline, error) {
	if err := b.cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid pipeline config: %w", err)
	}
	return &Pipeline{cfg: b.cfg}, nil
}

// Pipeline runs the full image-to-pieces flow. It is stateless between
// runs; each run owns its buffers exclusively.
type Pipeline struct {
	cfg Config
}

// Config returns the pipeline configuration.
func (p *Pipeline) Config() Config { return p.cfg }

// StageTiming records per-stage wall-clock durations.
type StageTiming struct {
	Extract   time.Duration
	Trace     time.Duration
	Simplify  time.Duration
	Decompose time.Duration
	Total     time.Duration
}

// Result holds everything one pipeline run produced.
type Result struct {
	// Width and Height are the working raster dimensions.
	Width  int
	Height int
	// Mask is the cleaned subject mask.
	Mask *mask.Mask
	// Silhouette is the simplified normalized contour.
	Silhouette []geometry.Point
	// Pieces are the decomposed puzzle pieces.
	Pieces []pieces.Piece
	// Achieved is the produced piece count; Degraded is true when it
	// fell short of the target.
	Achieved int
	Degraded bool
	Timing   StageTiming
}

// Process runs segmentation, tracing, simplification and decomposition
// on the image. Errors from the mask and contour stages abort the run;
// a decomposition shortfall does not.
func (p *Pipeline) Process(img image.Image) (*Result, error) {
	start := time.Now()
	img = p.scale(img)
	w := img.Bounds().Dx()
	h := img.Bounds().Dy()

	t := time.Now()
	m, err := mask.Extract(img, p.cfg.Mask)
	if err != nil {
		return nil, fmt.Errorf("mask extraction: %w", err)
	}
	m = mask.LargestRegion(m)
	extractDur := time.Since(t)

	res, err := p.processMask(m, extractDur)
	if err != nil {
		return nil, err
	}
	res.Width = w
	res.Height = h
	res.Timing.Total = time.Since(start)
	p.logResult(res)
	return res, nil
}

// ProcessMask runs the pipeline from a caller-supplied mask, as used by
// the import-mask path. The mask is taken as-is apart from largest
// region selection.
func (p *Pipeline) ProcessMask(m *mask.Mask) (*Result, error) {
	start := time.Now()
	if m.Count() == 0 {
		return nil, fmt.Errorf("imported mask: %w", mask.ErrNoSubjectDetected)
	}
	m = mask.LargestRegion(m)

	res, err := p.processMask(m, 0)
	if err != nil {
		return nil, err
	}
	res.Width = m.W
	res.Height = m.H
	res.Timing.Total = time.Since(start)
	p.logResult(res)
	return res, nil
}

func (p *Pipeline) processMask(m *mask.Mask, extractDur time.Duration) (*Result, error) {
	t := time.Now()
	traced, err := contour.Trace(m)
	if err != nil {
		return nil, fmt.Errorf("contour tracing: %w", err)
	}
	traceDur := time.Since(t)

	t = time.Now()
	silhouette := geometry.SimplifyPolygon(traced, p.cfg.SimplifyTolerance)
	simplifyDur := time.Since(t)

	t = time.Now()
	rng := p.newRNG()
	decomposed := decompose.Decompose(silhouette, p.cfg.PieceCount, rng)
	assembled := pieces.Assemble(decomposed.Polygons, rng)
	decomposeDur := time.Since(t)

	return &Result{
		Mask:       m,
		Silhouette: silhouette,
		Pieces:     assembled,
		Achieved:   decomposed.Achieved,
		Degraded:   decomposed.Degraded,
		Timing: StageTiming{
			Extract:   extractDur,
			Trace:     traceDur,
			Simplify:  simplifyDur,
			Decompose: decomposeDur,
		},
	}, nil
}

func (p *Pipeline) newRNG() *rand.Rand {
	seed := p.cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return rand.New(rand.NewSource(seed))
}

func (p *Pipeline) scale(img image.Image) image.Image {
	maxDim := p.cfg.MaxDimension
	if maxDim <= 0 {
		return img
	}
	b := img.Bounds()
	if b.Dx() <= maxDim && b.Dy() <= maxDim {
		return img
	}
	return imaging.Fit(img, maxDim, maxDim, imaging.Lanczos)
}

func (p *Pipeline) logResult(res *Result) {
	slog.Debug("pipeline run complete",
		"width", res.Width,
		"height", res.Height,
		"silhouette_points", len(res.Silhouette),
		"pieces", res.Achieved,
		"degraded", res.Degraded,
		"extract", res.Timing.Extract,
		"trace", res.Timing.Trace,
		"simplify", res.Timing.Simplify,
		"decompose", res.Timing.Decompose,
		"total", res.Timing.Total,
	)
	if res.Degraded {
		slog.Warn("decomposition fell short of target",
			"achieved", res.Achieved, "target", p.cfg.PieceCount)
	}
}
