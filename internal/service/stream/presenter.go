package stream

import (
	"context"
	"sync"
	"time"

	"livedetect/internal/dto"
)

// Presenter is the fixed-interval presentation loop. Each tick it takes at
// most one frame from the queue without blocking, shows it and records it in
// the detection log. Only frames of the run passed to Begin are shown.
type Presenter struct {
	queue    *FrameQueue
	display  Display
	log      *DetectionLog
	interval time.Duration
	now      func() time.Time

	mu      sync.RWMutex
	run     string
	active  bool
	current *dto.Frame
	shown   uint64
}

func NewPresenter(queue *FrameQueue, display Display, log *DetectionLog, interval time.Duration) *Presenter {
	if interval <= 0 {
		interval = 15 * time.Millisecond
	}
	return &Presenter{
		queue:    queue,
		display:  display,
		log:      log,
		interval: interval,
		now:      time.Now,
	}
}

// Run polls the queue every interval until ctx is cancelled.
func (p *Presenter) Run(ctx context.Context) error {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			p.Poll()
		}
	}
}

// Poll performs one tick. It reports whether a frame was shown. Frames from
// any run other than the active one are discarded.
func (p *Presenter) Poll() bool {
	frame, ok := p.queue.TryPop()
	if !ok {
		return false
	}

	// Held through ShowFrame so nothing is shown once Clear has returned.
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.active || frame.RunID != p.run {
		return false
	}
	p.current = &frame
	p.shown++

	if p.display != nil {
		p.display.ShowFrame(frame)
	}
	if frame.Objects() > 0 && p.log != nil {
		p.log.Append(dto.NewLogEntry(frame, p.now()))
	}
	return true
}

// Current returns the frame currently on display.
func (p *Presenter) Current() (dto.Frame, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.current == nil {
		return dto.Frame{}, false
	}
	return *p.current, true
}

// Shown returns how many frames have been displayed.
func (p *Presenter) Shown() uint64 {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.shown
}

// Begin clears the display and starts accepting frames of runID.
func (p *Presenter) Begin(runID string) {
	p.mu.Lock()
	p.run = runID
	p.active = true
	p.current = nil
	p.mu.Unlock()
}

// Clear resets the display to its placeholder state and stops accepting
// frames until the next Begin.
func (p *Presenter) Clear() {
	p.mu.Lock()
	p.active = false
	p.current = nil
	p.mu.Unlock()
}
