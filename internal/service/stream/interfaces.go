package stream

import (
	"context"

	"livedetect/internal/dto"
)

// Logger is the leveled logger used across the pipeline.
type Logger interface {
	Info(format string, v ...interface{})
	Warning(format string, v ...interface{})
	Error(format string, v ...interface{})
}

// Camera is an open capture device. Read returns the next frame as JPEG.
type Camera interface {
	Read() ([]byte, error)
	Close() error
}

// CameraOpener opens the capture device at a fixed index.
type CameraOpener interface {
	Open(index int) (Camera, error)
}

// CameraOpenerFunc adapts a function to CameraOpener.
type CameraOpenerFunc func(index int) (Camera, error)

func (f CameraOpenerFunc) Open(index int) (Camera, error) {
	return f(index)
}

// Detector runs object detection on a JPEG frame. Only detections with a
// confidence at or above threshold are returned.
type Detector interface {
	Detect(frame []byte, threshold float64) ([]dto.DetectionResult, error)
	Close() error
}

// ModelLoader builds a Detector for a model variant, fetching the artifact if needed.
type ModelLoader interface {
	Load(ctx context.Context, model string) (Detector, error)
}

// Annotator renders detections and the fps reading onto a copy of frame and
// returns the display-ready JPEG.
type Annotator interface {
	Annotate(frame []byte, detections []dto.DetectionResult, fps float64) ([]byte, error)
}

// Display receives frames from the presentation loop. ShowFrame must not block.
type Display interface {
	ShowFrame(frame dto.Frame)
}
