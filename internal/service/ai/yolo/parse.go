package yolo

import (
	"fmt"
	"image"
)

// Candidate is a box that passed the confidence filter, before NMS.
type Candidate struct {
	ClassID int
	Score   float32
	Box     image.Rectangle // corners in source image pixels
}

// Geometry relates the network input size to the source image size.
type Geometry struct {
	InputWidth  int
	InputHeight int
	ImageWidth  int
	ImageHeight int
}

// Parse decodes a YOLOv8 output tensor. data is laid out attribute-major,
// [attrs][n]: rows 0-3 hold cx, cy, w, h in input pixels and rows 4.. hold
// one score per class. Candidates scoring below threshold are dropped.
func Parse(data []float32, attrs, n int, threshold float32, geo Geometry) ([]Candidate, error) {
	if attrs <= 4 || n <= 0 {
		return nil, fmt.Errorf("unexpected output shape [%d, %d]", attrs, n)
	}
	if len(data) < attrs*n {
		return nil, fmt.Errorf("output has %d values, shape [%d, %d] needs %d", len(data), attrs, n, attrs*n)
	}
	if geo.InputWidth <= 0 || geo.InputHeight <= 0 {
		return nil, fmt.Errorf("invalid input size %dx%d", geo.InputWidth, geo.InputHeight)
	}

	scaleX := float32(geo.ImageWidth) / float32(geo.InputWidth)
	scaleY := float32(geo.ImageHeight) / float32(geo.InputHeight)
	bounds := image.Rect(0, 0, geo.ImageWidth, geo.ImageHeight)

	var out []Candidate
	for i := 0; i < n; i++ {
		best := float32(0)
		bestClass := -1
		for c := 4; c < attrs; c++ {
			if score := data[c*n+i]; score > best {
				best = score
				bestClass = c - 4
			}
		}
		if bestClass < 0 || best < threshold {
			continue
		}

		cx, cy := data[i], data[n+i]
		w, h := data[2*n+i], data[3*n+i]

		box := image.Rect(
			int((cx-w/2)*scaleX),
			int((cy-h/2)*scaleY),
			int((cx+w/2)*scaleX),
			int((cy+h/2)*scaleY),
		).Intersect(bounds)
		if box.Empty() {
			continue
		}

		out = append(out, Candidate{ClassID: bestClass, Score: best, Box: box})
	}
	return out, nil
}
