package stream

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"livedetect/internal/config"
	"livedetect/internal/dto"
	"livedetect/internal/logger"
)

func newTestLogger(t *testing.T) *logger.Logger {
	t.Helper()
	l := logger.NewLogger(&config.Config{LogDirectory: t.TempDir()})
	t.Cleanup(func() { l.Close() })
	return l
}

func newTestSettings(t *testing.T, confidence float64) *Settings {
	t.Helper()
	s, err := NewSettings(Snapshot{Model: "yolov8n", Confidence: confidence, QueueDepth: 2, PollInterval: time.Millisecond})
	if err != nil {
		t.Fatalf("NewSettings: %v", err)
	}
	return s
}

// fakeCamera serves frames from a channel, or generated frames when feed is nil.
type fakeCamera struct {
	feed    chan []byte
	failAt  int32 // Read number that fails, 0 = never
	reads   atomic.Int32
	closed  atomic.Bool
	closeCh chan struct{}
	once    sync.Once
}

func newFakeCamera() *fakeCamera {
	return &fakeCamera{closeCh: make(chan struct{})}
}

func (c *fakeCamera) Read() ([]byte, error) {
	n := c.reads.Add(1)
	if c.failAt != 0 && n >= c.failAt {
		return nil, errors.New("device disconnected")
	}
	if c.feed != nil {
		select {
		case f := <-c.feed:
			return f, nil
		case <-c.closeCh:
			return nil, errors.New("camera closed")
		}
	}
	return []byte{byte(n)}, nil
}

func (c *fakeCamera) Close() error {
	c.closed.Store(true)
	c.once.Do(func() { close(c.closeCh) })
	return nil
}

// fakeDetector returns the candidates at or above the threshold.
type fakeDetector struct {
	candidates []dto.DetectionResult
	entered    chan struct{} // signalled when Detect starts, if set
	release    chan struct{} // Detect waits on it, if set
	closed     atomic.Bool

	mu         sync.Mutex
	thresholds []float64
}

func (d *fakeDetector) Detect(frame []byte, threshold float64) ([]dto.DetectionResult, error) {
	d.mu.Lock()
	d.thresholds = append(d.thresholds, threshold)
	d.mu.Unlock()

	if d.entered != nil {
		select {
		case d.entered <- struct{}{}:
		default:
		}
	}
	if d.release != nil {
		<-d.release
	}

	var out []dto.DetectionResult
	for _, c := range d.candidates {
		if c.Confidence >= threshold {
			out = append(out, c)
		}
	}
	return out, nil
}

func (d *fakeDetector) Close() error {
	d.closed.Store(true)
	return nil
}

type fakeAnnotator struct{}

func (fakeAnnotator) Annotate(frame []byte, detections []dto.DetectionResult, fps float64) ([]byte, error) {
	out := append([]byte{}, frame...)
	return append(out, byte(len(detections))), nil
}

type recordingDisplay struct {
	mu     sync.Mutex
	frames []dto.Frame
}

func (d *recordingDisplay) ShowFrame(frame dto.Frame) {
	d.mu.Lock()
	d.frames = append(d.frames, frame)
	d.mu.Unlock()
}

func (d *recordingDisplay) count() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.frames)
}

var sampleCandidates = []dto.DetectionResult{
	{Label: "person", Confidence: 0.97, X1: 10, Y1: 10, X2: 100, Y2: 200},
	{Label: "dog", Confidence: 0.62, X1: 120, Y1: 80, X2: 220, Y2: 160},
	{Label: "cup", Confidence: 0.35, X1: 300, Y1: 40, X2: 330, Y2: 90},
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}
