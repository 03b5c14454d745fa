package ai

import (
	"fmt"
	"sync"

	"gocv.io/x/gocv"

	"livedetect/internal/service/stream"
)

// Webcam is an opened local capture device producing JPEG frames.
type Webcam struct {
	capture *gocv.VideoCapture
	frame   gocv.Mat
	index   int
	mu      sync.Mutex
	closed  bool
}

// OpenWebcam opens device index and requests the given resolution. The driver
// may not honour the resolution exactly.
func OpenWebcam(index, width, height int) (*Webcam, error) {
	capture, err := gocv.OpenVideoCapture(index)
	if err != nil {
		return nil, fmt.Errorf("failed to open camera %d: %w", index, err)
	}
	if !capture.IsOpened() {
		capture.Close()
		return nil, fmt.Errorf("cannot open webcam (device index %d), make sure no other application is using it", index)
	}

	capture.Set(gocv.VideoCaptureFrameWidth, float64(width))
	capture.Set(gocv.VideoCaptureFrameHeight, float64(height))
	capture.Set(gocv.VideoCaptureBufferSize, 1) // flush stale frames fast

	return &Webcam{
		capture: capture,
		frame:   gocv.NewMat(),
		index:   index,
	}, nil
}

// Read grabs the next frame and returns it JPEG-encoded.
func (w *Webcam) Read() ([]byte, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return nil, fmt.Errorf("camera %d is closed", w.index)
	}
	if ok := w.capture.Read(&w.frame); !ok {
		return nil, fmt.Errorf("camera %d stopped delivering frames", w.index)
	}
	if w.frame.Empty() {
		return nil, fmt.Errorf("camera %d returned an empty frame", w.index)
	}

	buf, err := gocv.IMEncode(".jpg", w.frame)
	if err != nil {
		return nil, fmt.Errorf("failed to encode frame: %w", err)
	}
	defer buf.Close()

	data := make([]byte, len(buf.GetBytes()))
	copy(data, buf.GetBytes())
	return data, nil
}

// Close releases the device. It is safe to call more than once.
func (w *Webcam) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return nil
	}
	w.closed = true
	w.frame.Close()
	return w.capture.Close()
}

// NewCameraOpener returns an opener that opens webcams at the given resolution.
func NewCameraOpener(width, height int) stream.CameraOpener {
	return stream.CameraOpenerFunc(func(index int) (stream.Camera, error) {
		cam, err := OpenWebcam(index, width, height)
		if err != nil {
			return nil, err
		}
		return cam, nil
	})
}
