// Package testutil provides synthetic raster generators for exercising
// the segmentation and tracing pipeline in tests.
package testutil

import (
	"image"
	"image/color"
	"image/draw"
	"math"
)

// NewUniformImage creates a w x h image filled with a single color.
func NewUniformImage(w, h int, c color.Color) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	draw.Draw(img, img.Bounds(), &image.Uniform{c}, image.Point{}, draw.Src)
	return img
}

// NewCircleImage creates a w x h image with background bg and a filled
// circle of the given center and radius in fg.
func NewCircleImage(w, h, cx, cy, radius int, fg, bg color.Color) *image.NRGBA {
	img := NewUniformImage(w, h, bg)
	r2 := float64(radius) * float64(radius)
	for y := range h {
		for x := range w {
			dx := float64(x - cx)
			dy := float64(y - cy)
			if dx*dx+dy*dy <= r2 {
				img.Set(x, y, fg)
			}
		}
	}
	return img
}

// NewRectImage creates a w x h image with background bg and a filled
// axis-aligned rectangle in fg.
func NewRectImage(w, h int, rect image.Rectangle, fg, bg color.Color) *image.NRGBA {
	img := NewUniformImage(w, h, bg)
	draw.Draw(img, rect, &image.Uniform{fg}, image.Point{}, draw.Src)
	return img
}

// NewTwoBlobsImage creates an image with two disjoint filled circles: a
// large one and a small one. Useful for largest-region selection tests.
func NewTwoBlobsImage(w, h int, fg, bg color.Color) *image.NRGBA {
	img := NewUniformImage(w, h, bg)
	drawCircle(img, w/3, h/2, min(w, h)/5, fg)
	drawCircle(img, 5*w/6, h/6, min(w, h)/16, fg)
	return img
}

func drawCircle(img *image.NRGBA, cx, cy, radius int, c color.Color) {
	r2 := float64(radius) * float64(radius)
	b := img.Bounds()
	for y := cy - radius; y <= cy+radius; y++ {
		for x := cx - radius; x <= cx+radius; x++ {
			if !image.Pt(x, y).In(b) {
				continue
			}
			dx := float64(x - cx)
			dy := float64(y - cy)
			if dx*dx+dy*dy <= r2 {
				img.Set(x, y, c)
			}
		}
	}
}

// RegularPolygon returns the vertices of a regular n-gon centered at
// (cx, cy) with the given radius, in counter-clockwise order for a
// y-down coordinate system.
func RegularPolygon(n int, cx, cy, radius float64) [][2]float64 {
	pts := make([][2]float64, n)
	for i := range pts {
		a := 2 * math.Pi * float64(i) / float64(n)
		pts[i] = [2]float64{cx + radius*math.Cos(a), cy + radius*math.Sin(a)}
	}
	return pts
}
