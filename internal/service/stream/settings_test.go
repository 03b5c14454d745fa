package stream

import (
	"errors"
	"math"
	"testing"

	"livedetect/internal/service/modelstore"
)

func TestClampConfidence(t *testing.T) {
	tests := []struct {
		in, want float64
	}{
		{0.5, 0.5},
		{0.0, MinConfidence},
		{-1, MinConfidence},
		{0.99, MaxConfidence},
		{1.5, MaxConfidence},
		{0.05, 0.05},
		{0.95, 0.95},
		{math.NaN(), MinConfidence},
	}
	for _, tt := range tests {
		if got := ClampConfidence(tt.in); got != tt.want {
			t.Errorf("ClampConfidence(%v) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestSettings_SnapshotIsACopy(t *testing.T) {
	s := newTestSettings(t, 0.5)

	snap := s.Snapshot()
	s.SetConfidence(0.8)

	if snap.Confidence != 0.5 {
		t.Errorf("earlier snapshot changed to %v", snap.Confidence)
	}
	if s.Snapshot().Confidence != 0.8 {
		t.Errorf("expected 0.8, got %v", s.Snapshot().Confidence)
	}
}

func TestSettings_SetModel(t *testing.T) {
	s := newTestSettings(t, 0.5)

	if err := s.SetModel("yolov8x"); err != nil {
		t.Fatalf("SetModel: %v", err)
	}
	if s.Snapshot().Model != "yolov8x" {
		t.Errorf("expected yolov8x, got %s", s.Snapshot().Model)
	}

	err := s.SetModel("resnet50")
	if !errors.Is(err, modelstore.ErrUnknownVariant) {
		t.Errorf("expected ErrUnknownVariant, got %v", err)
	}
	if s.Snapshot().Model != "yolov8x" {
		t.Errorf("model changed after rejected update: %s", s.Snapshot().Model)
	}
}

func TestNewSettings_Validation(t *testing.T) {
	if _, err := NewSettings(Snapshot{Model: "nope"}); err == nil {
		t.Error("expected error for unknown model")
	}

	s, err := NewSettings(Snapshot{Model: "yolov8s", Confidence: 2, QueueDepth: 0})
	if err != nil {
		t.Fatalf("NewSettings: %v", err)
	}
	snap := s.Snapshot()
	if snap.Confidence != MaxConfidence {
		t.Errorf("expected clamped confidence, got %v", snap.Confidence)
	}
	if snap.QueueDepth != 1 {
		t.Errorf("expected queue depth 1, got %d", snap.QueueDepth)
	}
	if snap.PollInterval <= 0 {
		t.Error("expected a default poll interval")
	}
}
