package dto

import "fmt"

// DetectionResult is one object found in a frame. Coordinates are corners in
// source-frame pixels.
type DetectionResult struct {
	Label      string  `json:"label"`
	ClassID    int     `json:"class_id"`
	Confidence float64 `json:"confidence"`
	X1         int     `json:"x1"`
	Y1         int     `json:"y1"`
	X2         int     `json:"x2"`
	Y2         int     `json:"y2"`
}

func (d DetectionResult) Width() int  { return d.X2 - d.X1 }
func (d DetectionResult) Height() int { return d.Y2 - d.Y1 }

// Tag is the text drawn in the label chip, e.g. "person  87%".
func (d DetectionResult) Tag() string {
	return fmt.Sprintf("%s  %.0f%%", d.Label, d.Confidence*100)
}
