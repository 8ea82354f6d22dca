// Package annotation decodes per-image text annotations.
//
// A label is a JSON array in the PaddleOCR detection format:
//
//	[{"transcription": "HELLO", "points": [[10,10],[50,10],[50,30],[10,30]]}, ...]
//
// Transcriptions "*" and "###" mark unreadable text; those annotations are
// kept with Ignore set so the map builders can exclude them from the loss.
package annotation

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/ironsheep/textdet-labels/internal/geometry"
)

// ErrEmptyLabel is returned when a label decodes to no annotations.
var ErrEmptyLabel = errors.New("label contains no annotations")

// Annotation is one text instance in an image.
type Annotation struct {
	Polygon geometry.Polygon `json:"polygon"`
	Text    string           `json:"text"`
	Ignore  bool             `json:"ignore"`
}

type rawAnnotation struct {
	Points        [][]float64 `json:"points"`
	Transcription string      `json:"transcription"`
}

// IsIgnoreText reports whether a transcription is an unreadable-text placeholder.
func IsIgnoreText(text string) bool {
	return text == "*" || text == "###"
}

// Decode parses a JSON label into annotations.
//
// Errors:
//   - JSON syntax or type errors
//   - a point that is not an (x, y) pair
//   - a polygon with fewer than 3 points (wraps geometry.ErrTooFewPoints)
//   - ErrEmptyLabel when the array is empty
func Decode(label string) ([]Annotation, error) {
	var raw []rawAnnotation
	if err := json.Unmarshal([]byte(label), &raw); err != nil {
		return nil, fmt.Errorf("failed to decode label: %w", err)
	}
	if len(raw) == 0 {
		return nil, ErrEmptyLabel
	}

	anns := make([]Annotation, 0, len(raw))
	for i, r := range raw {
		poly := make(geometry.Polygon, 0, len(r.Points))
		for j, pt := range r.Points {
			if len(pt) != 2 {
				return nil, fmt.Errorf("annotation %d point %d: want 2 coordinates, got %d", i, j, len(pt))
			}
			poly = append(poly, geometry.Point{X: pt[0], Y: pt[1]})
		}
		if err := poly.Validate(); err != nil {
			return nil, fmt.Errorf("annotation %d: %w", i, err)
		}
		anns = append(anns, Annotation{
			Polygon: poly,
			Text:    r.Transcription,
			Ignore:  IsIgnoreText(r.Transcription),
		})
	}
	return anns, nil
}

// Encode renders annotations back into the JSON label format.
func Encode(anns []Annotation) (string, error) {
	raw := make([]rawAnnotation, len(anns))
	for i, a := range anns {
		pts := make([][]float64, len(a.Polygon))
		for j, p := range a.Polygon {
			pts[j] = []float64{p.X, p.Y}
		}
		raw[i] = rawAnnotation{Points: pts, Transcription: a.Text}
	}
	data, err := json.Marshal(raw)
	if err != nil {
		return "", fmt.Errorf("failed to encode label: %w", err)
	}
	return string(data), nil
}

// Polygons returns the polygon of every annotation.
func Polygons(anns []Annotation) []geometry.Polygon {
	out := make([]geometry.Polygon, len(anns))
	for i, a := range anns {
		out[i] = a.Polygon
	}
	return out
}

// Cared returns the annotations whose Ignore flag is not set.
func Cared(anns []Annotation) []Annotation {
	out := make([]Annotation, 0, len(anns))
	for _, a := range anns {
		if !a.Ignore {
			out = append(out, a)
		}
	}
	return out
}

// OrderClockwise orders a four-point box as top-left, top-right,
// bottom-right, bottom-left using coordinate sums and differences.
// Input with a length other than 4 is returned unchanged.
func OrderClockwise(box geometry.Polygon) geometry.Polygon {
	if len(box) != 4 {
		return box.Clone()
	}

	minSum, maxSum := 0, 0
	for i, p := range box {
		if p.X+p.Y < box[minSum].X+box[minSum].Y {
			minSum = i
		}
		if p.X+p.Y > box[maxSum].X+box[maxSum].Y {
			maxSum = i
		}
	}

	var rest []geometry.Point
	for i, p := range box {
		if i != minSum && i != maxSum {
			rest = append(rest, p)
		}
	}

	// Smallest y-x is top-right, largest is bottom-left.
	tr, bl := rest[0], rest[1]
	if rest[0].Y-rest[0].X > rest[1].Y-rest[1].X {
		tr, bl = rest[1], rest[0]
	}
	return geometry.Polygon{box[minSum], tr, box[maxSum], bl}
}
