package stream

import (
	"fmt"
	"math"
	"sync"
	"time"

	"livedetect/internal/service/modelstore"
)

// Confidence threshold bounds exposed to users.
const (
	MinConfidence = 0.05
	MaxConfidence = 0.95
)

// Snapshot is an immutable copy of the session configuration. The worker
// takes one at the start of every inference cycle.
type Snapshot struct {
	Model        string
	Confidence   float64
	CameraIndex  int
	QueueDepth   int
	PollInterval time.Duration
}

// Settings holds the mutable session configuration.
type Settings struct {
	mu      sync.RWMutex
	current Snapshot
}

// NewSettings validates initial and returns the settings store.
func NewSettings(initial Snapshot) (*Settings, error) {
	if !modelstore.IsVariant(initial.Model) {
		return nil, fmt.Errorf("%w: %q", modelstore.ErrUnknownVariant, initial.Model)
	}
	if initial.QueueDepth < 1 {
		initial.QueueDepth = 1
	}
	if initial.PollInterval <= 0 {
		initial.PollInterval = 15 * time.Millisecond
	}
	initial.Confidence = ClampConfidence(initial.Confidence)
	return &Settings{current: initial}, nil
}

// Snapshot returns the current configuration.
func (s *Settings) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

// SetModel selects the model variant used by the next capture start.
func (s *Settings) SetModel(name string) error {
	if !modelstore.IsVariant(name) {
		return fmt.Errorf("%w: %q", modelstore.ErrUnknownVariant, name)
	}
	s.mu.Lock()
	s.current.Model = name
	s.mu.Unlock()
	return nil
}

// SetConfidence clamps value into range, stores it and returns the stored value.
func (s *Settings) SetConfidence(value float64) float64 {
	value = ClampConfidence(value)
	s.mu.Lock()
	s.current.Confidence = value
	s.mu.Unlock()
	return value
}

// ClampConfidence bounds value to [MinConfidence, MaxConfidence]. NaN maps to MinConfidence.
func ClampConfidence(value float64) float64 {
	if math.IsNaN(value) {
		return MinConfidence
	}
	return math.Max(MinConfidence, math.Min(MaxConfidence, value))
}
