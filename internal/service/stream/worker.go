package stream

import (
	"bytes"
	"image"
	_ "image/jpeg"
	"math"
	"sync"
	"sync/atomic"
	"time"

	"livedetect/internal/dto"
)

// Worker owns the camera and detector for one capture run. It loops
// read -> detect -> annotate -> enqueue until stopped or until the camera fails.
// The stop signal is observed between cycles only, an in-flight detection
// always completes first.
type Worker struct {
	camera    Camera
	detector  Detector
	annotator Annotator
	settings  *Settings
	queue     *FrameQueue
	logger    Logger
	model     string
	runID     string
	now       func() time.Time

	fps      *fpsMeter
	fpsBits  atomic.Uint64
	sequence uint64

	quit     chan struct{}
	done     chan struct{}
	stopOnce sync.Once
	startMu  sync.Mutex
	started  bool
	err      error
}

// WorkerOptions bundles the collaborators of a Worker.
type WorkerOptions struct {
	Camera    Camera
	Detector  Detector
	Annotator Annotator
	Settings  *Settings
	Queue     *FrameQueue
	Logger    Logger
	Model     string
	RunID     string
	Now       func() time.Time
}

func NewWorker(opts WorkerOptions) *Worker {
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &Worker{
		camera:    opts.Camera,
		detector:  opts.Detector,
		annotator: opts.Annotator,
		settings:  opts.Settings,
		queue:     opts.Queue,
		logger:    opts.Logger,
		model:     opts.Model,
		runID:     opts.RunID,
		now:       now,
		fps:       newFPSMeter(now),
		quit:      make(chan struct{}),
		done:      make(chan struct{}),
	}
}

// Start launches the capture loop. onExit, if set, runs after the camera and
// detector have been released, with the error that ended the loop (nil on a
// requested stop). Start is a no-op when called twice.
func (w *Worker) Start(onExit func(err error)) {
	w.startMu.Lock()
	defer w.startMu.Unlock()
	if w.started {
		return
	}
	w.started = true
	go w.run(onExit)
}

// Stop asks the loop to exit after the current cycle. It does not wait; use Done.
func (w *Worker) Stop() {
	w.stopOnce.Do(func() { close(w.quit) })
}

// Done is closed once the loop has exited and all resources are released.
func (w *Worker) Done() <-chan struct{} {
	return w.done
}

// Err returns the error that ended the loop. Only meaningful after Done is closed.
func (w *Worker) Err() error {
	<-w.done
	return w.err
}

// FPS returns the most recent frame rate reading.
func (w *Worker) FPS() float64 {
	return math.Float64frombits(w.fpsBits.Load())
}

func (w *Worker) RunID() string {
	return w.runID
}

// Model returns the variant the worker was started with.
func (w *Worker) Model() string {
	return w.model
}

func (w *Worker) run(onExit func(err error)) {
	var err error
	defer func() {
		w.release()
		w.err = err
		close(w.done)
		if onExit != nil {
			onExit(err)
		}
	}()

	w.logger.Info("Capture worker %s started with model %s", w.runID, w.model)
	for {
		select {
		case <-w.quit:
			w.logger.Info("Capture worker %s stopping", w.runID)
			return
		default:
		}

		if err = w.cycle(); err != nil {
			w.logger.Error("Capture worker %s: %v", w.runID, err)
			return
		}
	}
}

// cycle runs one read -> detect -> annotate -> enqueue iteration. Only camera
// failures end the loop; a frame that cannot be processed is skipped.
func (w *Worker) cycle() error {
	raw, err := w.camera.Read()
	if err != nil {
		return &CaptureError{Op: "read", Err: err}
	}
	capturedAt := w.now()

	// The snapshot is taken once the frame is in hand so a threshold change
	// made while the camera was blocking applies to this frame.
	snap := w.settings.Snapshot()

	fps := w.fps.Tick()
	w.fpsBits.Store(math.Float64bits(fps))

	detections, err := w.detector.Detect(raw, snap.Confidence)
	if err != nil {
		w.logger.Warning("Detection failed, frame skipped: %v", err)
		return nil
	}

	annotated, err := w.annotator.Annotate(raw, detections, fps)
	if err != nil {
		w.logger.Warning("Annotation failed, frame skipped: %v", err)
		return nil
	}

	w.sequence++
	frame := dto.Frame{
		Sequence:   w.sequence,
		RunID:      w.runID,
		CapturedAt: capturedAt,
		Data:       annotated,
		Detections: detections,
		FPS:        fps,
		Model:      w.model,
		Confidence: snap.Confidence,
	}
	if src, _, err := image.DecodeConfig(bytes.NewReader(raw)); err == nil {
		frame.SourceWidth, frame.SourceHeight = src.Width, src.Height
	}
	// A run stopped mid-inference must not leave its last frame behind.
	select {
	case <-w.quit:
		return nil
	default:
	}
	w.queue.Push(frame)
	return nil
}

// release closes the camera and the detector. It runs on every exit path.
func (w *Worker) release() {
	if err := w.camera.Close(); err != nil {
		w.logger.Warning("Failed to release camera: %v", err)
	}
	if err := w.detector.Close(); err != nil {
		w.logger.Warning("Failed to release detector: %v", err)
	}
	w.logger.Info("Capture worker %s released camera", w.runID)
}
