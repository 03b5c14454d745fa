package stream

import (
	"context"
	"testing"
	"time"

	"livedetect/internal/dto"
)

func TestPresenter_PollEmptyQueue(t *testing.T) {
	display := &recordingDisplay{}
	p := NewPresenter(NewFrameQueue(2), display, NewDetectionLog(10), time.Millisecond)

	if p.Poll() {
		t.Error("expected nothing to show")
	}
	if display.count() != 0 {
		t.Error("display called on empty tick")
	}
	if _, ok := p.Current(); ok {
		t.Error("expected no current frame")
	}
}

func TestPresenter_ShowsOneFramePerTick(t *testing.T) {
	queue := NewFrameQueue(2)
	queue.Push(dto.Frame{Sequence: 1, RunID: "run-1", Detections: sampleCandidates[:1]})
	queue.Push(dto.Frame{Sequence: 2, RunID: "run-1"})

	display := &recordingDisplay{}
	log := NewDetectionLog(10)
	p := NewPresenter(queue, display, log, time.Millisecond)
	p.Begin("run-1")

	if !p.Poll() {
		t.Fatal("expected a frame")
	}
	if queue.Len() != 1 {
		t.Errorf("expected one frame left, got %d", queue.Len())
	}
	cur, ok := p.Current()
	if !ok || cur.Sequence != 1 {
		t.Errorf("expected frame 1 on display, got %d", cur.Sequence)
	}
	if log.Len() != 1 {
		t.Errorf("expected a log entry for a frame with detections, got %d", log.Len())
	}

	p.Poll()
	if cur, _ := p.Current(); cur.Sequence != 2 {
		t.Errorf("expected frame 2 on display, got %d", cur.Sequence)
	}
	if log.Len() != 1 {
		t.Errorf("frames without detections must not be logged, got %d entries", log.Len())
	}
	if display.count() != 2 || p.Shown() != 2 {
		t.Errorf("expected 2 frames shown, got %d/%d", display.count(), p.Shown())
	}
}

func TestPresenter_Clear(t *testing.T) {
	queue := NewFrameQueue(1)
	queue.Push(dto.Frame{Sequence: 1, RunID: "run-1"})
	p := NewPresenter(queue, nil, nil, time.Millisecond)
	p.Begin("run-1")

	p.Poll()
	p.Clear()
	if _, ok := p.Current(); ok {
		t.Error("expected display to be cleared")
	}

	// A frame still in flight when the run was cleared is not shown.
	queue.Push(dto.Frame{Sequence: 2, RunID: "run-1"})
	if p.Poll() {
		t.Error("frame shown after Clear")
	}
	if _, ok := p.Current(); ok {
		t.Error("expected display to stay cleared")
	}
}

func TestPresenter_DiscardsFramesOfOtherRuns(t *testing.T) {
	queue := NewFrameQueue(2)
	display := &recordingDisplay{}
	p := NewPresenter(queue, display, NewDetectionLog(10), time.Millisecond)
	p.Begin("run-2")

	queue.Push(dto.Frame{Sequence: 9, RunID: "run-1"})
	queue.Push(dto.Frame{Sequence: 1, RunID: "run-2"})

	if p.Poll() {
		t.Error("frame of a previous run was shown")
	}
	if !p.Poll() {
		t.Fatal("expected the active run's frame")
	}
	if cur, _ := p.Current(); cur.Sequence != 1 || display.count() != 1 {
		t.Errorf("expected only frame 1 shown, got seq %d, %d shown", cur.Sequence, display.count())
	}
}

func TestPresenter_ClearRacingPoll(t *testing.T) {
	queue := NewFrameQueue(1)
	display := &recordingDisplay{}
	p := NewPresenter(queue, display, nil, time.Millisecond)

	for i := 0; i < 200; i++ {
		p.Begin("run-1")
		queue.Push(dto.Frame{Sequence: uint64(i + 1), RunID: "run-1"})

		polled := make(chan struct{})
		go func() {
			p.Poll()
			close(polled)
		}()
		p.Clear()
		queue.Clear()
		<-polled

		if _, ok := p.Current(); ok {
			t.Fatalf("iteration %d: frame on display after Clear", i)
		}
	}
}

func TestPresenter_RunDrainsQueue(t *testing.T) {
	queue := NewFrameQueue(2)
	display := &recordingDisplay{}
	p := NewPresenter(queue, display, NewDetectionLog(10), time.Millisecond)
	p.Begin("run-1")

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		p.Run(ctx)
		close(done)
	}()

	queue.Push(dto.Frame{Sequence: 1, RunID: "run-1"})
	queue.Push(dto.Frame{Sequence: 2, RunID: "run-1"})
	waitFor(t, "frames to be shown", func() bool { return display.count() == 2 })

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("presenter did not stop")
	}
}
