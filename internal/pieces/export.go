package pieces

import (
	"encoding/json"
	"image"
	"math"

	"github.com/MeKo-Tech/cutout/internal/geometry"
	"github.com/disintegration/imaging"
)

// Document is the persisted representation of one decomposition run.
type Document struct {
	Width    int             `json:"width"`
	Height   int             `json:"height"`
	Count    int             `json:"count"`
	Degraded bool            `json:"degraded,omitempty"`
	Pieces   []PieceDocument `json:"pieces"`
}

// PieceDocument is one piece in the persisted format. Vertex coordinates
// are rounded to three decimal places.
type PieceDocument struct {
	ID      int          `json:"id"`
	Color   string       `json:"color"`
	Start   [2]float64   `json:"start"`
	Polygon [][2]float64 `json:"polygon"`
}

// round3 rounds a normalized coordinate to three decimal places for the
// persisted format.
func round3(v float64) float64 {
	return math.Round(v*1000) / 1000
}

// NewDocument builds the persisted document for a piece set derived from
// an image of the given pixel dimensions.
func NewDocument(ps []Piece, width, height int, degraded bool) Document {
	doc := Document{
		Width:    width,
		Height:   height,
		Count:    len(ps),
		Degraded: degraded,
		Pieces:   make([]PieceDocument, 0, len(ps)),
	}
	for _, p := range ps {
		doc.Pieces = append(doc.Pieces, NewPieceDocument(p))
	}
	return doc
}

// NewPieceDocument builds the persisted form of a single piece.
func NewPieceDocument(p Piece) PieceDocument {
	pd := PieceDocument{
		ID:      p.ID,
		Color:   p.Color,
		Start:   [2]float64{round3(p.Start.X), round3(p.Start.Y)},
		Polygon: make([][2]float64, 0, len(p.Polygon)),
	}
	for _, v := range p.Polygon {
		pd.Polygon = append(pd.Polygon, [2]float64{round3(v.X), round3(v.Y)})
	}
	return pd
}

// MarshalIndent renders the document as indented JSON.
func (d Document) MarshalIndent() ([]byte, error) {
	return json.MarshalIndent(d, "", "  ")
}

// CropRect maps a piece's normalized bounding box back to pixel bounds
// within an image of the given dimensions.
func CropRect(p Piece, width, height int) image.Rectangle {
	b := geometry.BoundingBox(p.Polygon)
	scaled := geometry.Box{
		MinX: b.MinX * float64(width),
		MinY: b.MinY * float64(height),
		MaxX: b.MaxX * float64(width),
		MaxY: b.MaxY * float64(height),
	}
	return scaled.ToRect(image.Rect(0, 0, width, height))
}

// CropImage cuts the piece's bounding region out of the source image.
func CropImage(img image.Image, p Piece) image.Image {
	r := CropRect(p, img.Bounds().Dx(), img.Bounds().Dy())
	return imaging.Crop(img, r)
}
