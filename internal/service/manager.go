package service

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"livedetect/internal/config"
	"livedetect/internal/dto"
	"livedetect/internal/logger"
	"livedetect/internal/service/modelstore"
	"livedetect/internal/service/stream"
)

// Screenshotter persists a displayed frame and returns the written path.
type Screenshotter interface {
	Save(frame dto.Frame) (string, error)
}

// Broadcaster delivers viewer messages without blocking.
type Broadcaster interface {
	Broadcast(message []byte) bool
	GetClientCount() int
}

// ModelCatalog lists the model variants and whether they are cached.
type ModelCatalog interface {
	List() []modelstore.ModelInfo
}

// ManagerDeps bundles the collaborators of a Manager. Screenshots, Hub and
// Models may be nil.
type ManagerDeps struct {
	Loader      stream.ModelLoader
	Cameras     stream.CameraOpener
	Annotator   stream.Annotator
	Screenshots Screenshotter
	Hub         Broadcaster
	Models      ModelCatalog
}

// Manager is the control surface of the pipeline. It is the only writer of
// the session settings and owns the Idle <-> Running transitions.
type Manager struct {
	settings  *stream.Settings
	queue     *stream.FrameQueue
	log       *stream.DetectionLog
	presenter *stream.Presenter

	loader      stream.ModelLoader
	cameras     stream.CameraOpener
	annotator   stream.Annotator
	screenshots Screenshotter
	hub         Broadcaster
	models      ModelCatalog
	logger      *logger.Logger

	stopTimeout time.Duration
	newRunID    func() string

	opMu      sync.Mutex // serialises Start and Stop
	mu        sync.RWMutex
	worker    *stream.Worker
	stopping  *stream.Worker // stopped but still holding the camera
	lastError string
}

// NewManager builds the pipeline from configuration. It fails when the
// configured default model is not a known variant.
func NewManager(cfg *config.Config, deps ManagerDeps, logger *logger.Logger) (*Manager, error) {
	settings, err := stream.NewSettings(stream.Snapshot{
		Model:        cfg.DefaultModel,
		Confidence:   cfg.DefaultConfidence,
		CameraIndex:  cfg.CameraIndex,
		QueueDepth:   cfg.QueueSize,
		PollInterval: cfg.PollInterval,
	})
	if err != nil {
		return nil, fmt.Errorf("invalid session configuration: %w", err)
	}

	snap := settings.Snapshot()
	m := &Manager{
		settings:    settings,
		queue:       stream.NewFrameQueue(snap.QueueDepth),
		log:         stream.NewDetectionLog(cfg.DetectionLogSize),
		loader:      deps.Loader,
		cameras:     deps.Cameras,
		annotator:   deps.Annotator,
		screenshots: deps.Screenshots,
		hub:         deps.Hub,
		models:      deps.Models,
		logger:      logger,
		stopTimeout: cfg.WorkerStopTimeout,
		newRunID:    uuid.NewString,
	}
	if m.stopTimeout <= 0 {
		m.stopTimeout = 3 * time.Second
	}
	m.presenter = stream.NewPresenter(m.queue, m, m.log, snap.PollInterval)

	m.logger.Info("Manager ready - model %s, confidence %.2f, queue depth %d, poll %v",
		snap.Model, snap.Confidence, snap.QueueDepth, snap.PollInterval)
	return m, nil
}

// Run drives the presentation loop until ctx is cancelled, then stops any
// running capture so the camera is released.
func (m *Manager) Run(ctx context.Context) error {
	err := m.presenter.Run(ctx)
	if stopErr := m.Stop(); stopErr != nil {
		m.logger.Warning("Capture did not stop cleanly on shutdown: %v", stopErr)
	}
	return err
}

// Start loads the selected model, opens the camera and launches a worker.
// It is a no-op while running. On failure the manager stays idle and every
// resource acquired so far is released.
func (m *Manager) Start(ctx context.Context) error {
	m.opMu.Lock()
	defer m.opMu.Unlock()

	if m.running() {
		return nil
	}

	if err := m.awaitStopping(); err != nil {
		m.fail("Camera unavailable", err)
		return err
	}

	snap := m.settings.Snapshot()

	detector, err := m.loader.Load(ctx, snap.Model)
	if err != nil {
		var loadErr *stream.ModelLoadError
		if !errors.As(err, &loadErr) {
			err = &stream.ModelLoadError{Model: snap.Model, Err: err}
		}
		m.fail("Model load failed", err)
		return err
	}

	camera, err := m.cameras.Open(snap.CameraIndex)
	if err != nil {
		if closeErr := detector.Close(); closeErr != nil {
			m.logger.Warning("Failed to release detector: %v", closeErr)
		}
		var capErr *stream.CaptureError
		if !errors.As(err, &capErr) {
			err = &stream.CaptureError{Op: "open", Err: err}
		}
		m.fail("Camera unavailable", err)
		return err
	}

	runID := m.newRunID()
	m.queue.Clear()
	m.presenter.Begin(runID)

	w := stream.NewWorker(stream.WorkerOptions{
		Camera:    camera,
		Detector:  detector,
		Annotator: m.annotator,
		Settings:  m.settings,
		Queue:     m.queue,
		Logger:    m.logger,
		Model:     snap.Model,
		RunID:     runID,
	})

	m.mu.Lock()
	m.worker = w
	m.lastError = ""
	m.mu.Unlock()

	w.Start(func(err error) { m.workerExited(w, err) })

	m.notify("info", "Capture started", fmt.Sprintf("Camera %d with %s", snap.CameraIndex, snap.Model))
	m.publishStatus()
	return nil
}

// Stop signals the worker and waits up to the stop timeout for it to
// release the camera. Stopping an idle manager does nothing.
func (m *Manager) Stop() error {
	m.opMu.Lock()
	defer m.opMu.Unlock()

	m.mu.Lock()
	w := m.worker
	m.worker = nil
	m.mu.Unlock()

	if w == nil {
		return nil
	}

	w.Stop()

	m.presenter.Clear()

	var err error
	select {
	case <-w.Done():
	case <-time.After(m.stopTimeout):
		err = stream.ErrStopTimeout
		m.logger.Warning("Capture worker %s still busy after %v", w.RunID(), m.stopTimeout)
		m.mu.Lock()
		m.stopping = w
		m.mu.Unlock()
	}

	m.queue.Clear()

	m.notify("info", "Capture stopped", "")
	m.publishStatus()
	return err
}

// awaitStopping waits for a worker whose Stop timed out to release the
// camera. It fails with a CaptureError if it is still busy after the stop timeout.
func (m *Manager) awaitStopping() error {
	m.mu.RLock()
	prev := m.stopping
	m.mu.RUnlock()
	if prev == nil {
		return nil
	}

	select {
	case <-prev.Done():
	case <-time.After(m.stopTimeout):
		return &stream.CaptureError{
			Op:  "open",
			Err: fmt.Errorf("run %s is still releasing the camera: %w", prev.RunID(), stream.ErrStopTimeout),
		}
	}

	m.mu.Lock()
	if m.stopping == prev {
		m.stopping = nil
	}
	m.mu.Unlock()
	return nil
}

// workerExited handles a worker that ended on its own, e.g. after a camera failure.
func (m *Manager) workerExited(w *stream.Worker, err error) {
	m.mu.Lock()
	if m.stopping == w {
		m.stopping = nil
	}
	if m.worker != w {
		// Stopped through Stop, which does its own cleanup.
		m.mu.Unlock()
		return
	}
	m.worker = nil
	if err != nil {
		m.lastError = err.Error()
	}
	m.mu.Unlock()

	m.presenter.Clear()
	m.queue.Clear()

	if err != nil {
		m.notify("error", "Camera error", err.Error())
	}
	m.publishStatus()
}

// fail records a start failure and tells viewers about it.
func (m *Manager) fail(title string, err error) {
	m.mu.Lock()
	m.lastError = err.Error()
	m.mu.Unlock()

	m.notify("error", title, err.Error())
	m.publishStatus()
}

func (m *Manager) running() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.worker != nil
}

// SetModel selects the variant used by the next Start.
func (m *Manager) SetModel(name string) error {
	if err := m.settings.SetModel(name); err != nil {
		return err
	}
	m.logger.Info("Model set to %s", name)
	if m.running() {
		m.notify("info", "Model selected", fmt.Sprintf("%s will be used after restarting capture", name))
	}
	m.publishStatus()
	return nil
}

// SetConfidence clamps and stores the detection threshold. It applies from the
// next inference cycle; frames already rendered keep their threshold.
func (m *Manager) SetConfidence(value float64) float64 {
	stored := m.settings.SetConfidence(value)
	m.logger.Info("Confidence threshold set to %.2f", stored)
	m.publishStatus()
	return stored
}

// SaveScreenshot writes the frame currently on display. A failed write is
// reported as a SaveError and leaves capture running.
func (m *Manager) SaveScreenshot() (string, error) {
	frame, ok := m.presenter.Current()
	if !ok {
		return "", stream.ErrNoFrame
	}
	if m.screenshots == nil {
		return "", &stream.SaveError{Err: errors.New("screenshot storage is not configured")}
	}

	path, err := m.screenshots.Save(frame)
	if err != nil {
		saveErr := &stream.SaveError{Path: path, Err: err}
		m.logger.Error("%v", saveErr)
		m.notify("warning", "Screenshot failed", saveErr.Error())
		return "", saveErr
	}

	m.notify("info", "Screenshot saved", path)
	return path, nil
}

// Status reports the current pipeline state.
func (m *Manager) Status() dto.Status {
	snap := m.settings.Snapshot()

	status := dto.Status{
		State:       dto.StateIdle,
		Model:       snap.Model,
		Confidence:  snap.Confidence,
		QueueLength: m.queue.Len(),
		QueueDepth:  m.queue.Cap(),
		Dropped:     m.queue.Dropped(),
	}
	if m.hub != nil {
		status.Viewers = m.hub.GetClientCount()
	}

	m.mu.RLock()
	w := m.worker
	status.LastError = m.lastError
	m.mu.RUnlock()

	if w != nil {
		status.State = dto.StateRunning
		status.RunID = w.RunID()
		status.FPS = w.FPS()
		status.ActiveModel = w.Model()
	}
	if frame, ok := m.presenter.Current(); ok {
		status.Objects = frame.Objects()
	}
	return status
}

// DetectionLog returns the log entries, oldest first.
func (m *Manager) DetectionLog() []dto.LogEntry {
	return m.log.Entries()
}

// ClearDetectionLog empties the detection log.
func (m *Manager) ClearDetectionLog() {
	m.log.Clear()
}

// Models lists the known variants, smallest first.
func (m *Manager) Models() []modelstore.ModelInfo {
	if m.models != nil {
		return m.models.List()
	}
	infos := make([]modelstore.ModelInfo, 0, len(modelstore.Variants))
	for _, v := range modelstore.Variants {
		infos = append(infos, modelstore.ModelInfo{Name: v})
	}
	return infos
}

// ShowFrame publishes a displayed frame to viewers. It is called by the
// presentation loop and must not block.
func (m *Manager) ShowFrame(frame dto.Frame) {
	detections := frame.Detections
	if detections == nil {
		detections = []dto.DetectionResult{}
	}
	m.broadcast(dto.ViewerMessage{
		Type: dto.MessageFrame,
		Frame: &dto.FramePayload{
			Image:      base64.StdEncoding.EncodeToString(frame.Data),
			Sequence:   frame.Sequence,
			RunID:      frame.RunID,
			Model:      frame.Model,
			Confidence: frame.Confidence,
			FPS:        frame.FPS,
			Objects:    frame.Objects(),
			Detections: detections,
		},
	})
}

// StatusMessage wraps the current status for a viewer.
func (m *Manager) StatusMessage() dto.ViewerMessage {
	status := m.Status()
	return dto.ViewerMessage{Type: dto.MessageStatus, Status: &status}
}

func (m *Manager) publishStatus() {
	m.broadcast(m.StatusMessage())
}

func (m *Manager) notify(level, title, message string) {
	switch level {
	case "error":
		m.logger.Error("%s: %s", title, message)
	case "warning":
		m.logger.Warning("%s: %s", title, message)
	default:
		m.logger.Info("%s %s", title, message)
	}
	m.broadcast(dto.ViewerMessage{
		Type:   dto.MessageNotice,
		Notice: &dto.Notice{Level: level, Title: title, Message: message},
	})
}

func (m *Manager) broadcast(msg dto.ViewerMessage) {
	if m.hub == nil {
		return
	}
	data, err := json.Marshal(msg)
	if err != nil {
		m.logger.Error("Failed to encode %s message: %v", msg.Type, err)
		return
	}
	m.hub.Broadcast(data)
}
