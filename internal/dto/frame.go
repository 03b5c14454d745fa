package dto

import "time"

// Frame is an annotated image ready for display. It is produced once by the
// capture worker and consumed once by the presentation loop.
type Frame struct {
	Sequence   uint64
	RunID      string
	CapturedAt time.Time
	Data       []byte // JPEG, already resized to the display size
	Detections []DetectionResult
	// Size of the camera frame the detection boxes refer to; zero when unknown.
	SourceWidth  int
	SourceHeight int
	FPS        float64
	Model      string
	Confidence float64 // threshold the detections were computed with
}

// Objects returns the number of detections drawn on the frame.
func (f Frame) Objects() int {
	return len(f.Detections)
}
