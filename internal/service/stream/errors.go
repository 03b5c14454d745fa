package stream

import (
	"errors"
	"fmt"
)

var (
	// ErrNoFrame is returned when a screenshot is requested before any frame was displayed.
	ErrNoFrame = errors.New("no frame is currently displayed")
	// ErrStopTimeout is returned when the worker does not exit within the stop timeout.
	// The worker still releases the camera once its current cycle completes.
	ErrStopTimeout = errors.New("timed out waiting for capture worker to stop")
)

// CaptureError reports that the camera could not be opened or read.
type CaptureError struct {
	Op  string // "open" or "read"
	Err error
}

func (e *CaptureError) Error() string {
	return fmt.Sprintf("camera %s failed: %v", e.Op, e.Err)
}

func (e *CaptureError) Unwrap() error {
	return e.Err
}

// ModelLoadError reports that a model artifact is unknown, missing, corrupt or unreachable.
type ModelLoadError struct {
	Model string
	Err   error
}

func (e *ModelLoadError) Error() string {
	return fmt.Sprintf("could not load model %s: %v", e.Model, e.Err)
}

func (e *ModelLoadError) Unwrap() error {
	return e.Err
}

// SaveError reports that a screenshot could not be written.
type SaveError struct {
	Path string
	Err  error
}

func (e *SaveError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("could not save screenshot: %v", e.Err)
	}
	return fmt.Sprintf("could not save screenshot %s: %v", e.Path, e.Err)
}

func (e *SaveError) Unwrap() error {
	return e.Err
}
