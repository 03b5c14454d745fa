package stream

import (
	"testing"

	"livedetect/internal/dto"
)

func frameSeq(n uint64) dto.Frame {
	return dto.Frame{Sequence: n}
}

func sequences(frames []dto.Frame) []uint64 {
	out := make([]uint64, len(frames))
	for i, f := range frames {
		out[i] = f.Sequence
	}
	return out
}

func TestFrameQueue_NeverExceedsDepth(t *testing.T) {
	for depth := 1; depth <= 6; depth++ {
		q := NewFrameQueue(depth)
		for i := uint64(1); i <= 20; i++ {
			q.Push(frameSeq(i))
			if q.Len() > depth {
				t.Fatalf("depth %d: queue holds %d frames", depth, q.Len())
			}
		}
		if q.Len() != depth {
			t.Errorf("depth %d: expected full queue, got %d", depth, q.Len())
		}
	}
}

func TestFrameQueue_DropsOldest(t *testing.T) {
	q := NewFrameQueue(2)

	if q.Push(frameSeq(1)) || q.Push(frameSeq(2)) {
		t.Fatal("no eviction expected before the queue is full")
	}
	if !q.Push(frameSeq(3)) {
		t.Fatal("expected eviction on full queue")
	}

	got := sequences(q.Items())
	if len(got) != 2 || got[0] != 2 || got[1] != 3 {
		t.Errorf("expected [2 3], got %v", got)
	}
	if q.Dropped() != 1 {
		t.Errorf("expected 1 dropped frame, got %d", q.Dropped())
	}
}

func TestFrameQueue_EvictsExactlyTheOldest(t *testing.T) {
	q := NewFrameQueue(3)
	for i := uint64(1); i <= 3; i++ {
		q.Push(frameSeq(i))
	}
	// Consume one so the ring head moves, then refill past capacity.
	if f, ok := q.TryPop(); !ok || f.Sequence != 1 {
		t.Fatalf("expected frame 1, got %v %v", f.Sequence, ok)
	}
	q.Push(frameSeq(4))
	q.Push(frameSeq(5))

	got := sequences(q.Items())
	want := []uint64{3, 4, 5}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, got)
		}
	}
}

func TestFrameQueue_TryPopEmpty(t *testing.T) {
	q := NewFrameQueue(2)
	if _, ok := q.TryPop(); ok {
		t.Error("expected empty queue")
	}
}

func TestFrameQueue_FIFO(t *testing.T) {
	q := NewFrameQueue(4)
	for i := uint64(1); i <= 4; i++ {
		q.Push(frameSeq(i))
	}
	for i := uint64(1); i <= 4; i++ {
		f, ok := q.TryPop()
		if !ok || f.Sequence != i {
			t.Fatalf("pop %d: got %d, %v", i, f.Sequence, ok)
		}
	}
}

func TestFrameQueue_MinimumDepth(t *testing.T) {
	q := NewFrameQueue(0)
	if q.Cap() != 1 {
		t.Errorf("expected depth 1, got %d", q.Cap())
	}
	q.Push(frameSeq(1))
	q.Push(frameSeq(2))
	if got := sequences(q.Items()); len(got) != 1 || got[0] != 2 {
		t.Errorf("expected [2], got %v", got)
	}
}

func TestFrameQueue_Clear(t *testing.T) {
	q := NewFrameQueue(2)
	q.Push(frameSeq(1))
	q.Push(frameSeq(2))

	if n := q.Clear(); n != 2 {
		t.Errorf("expected 2 cleared, got %d", n)
	}
	if q.Len() != 0 {
		t.Errorf("expected empty queue, got %d", q.Len())
	}
	q.Push(frameSeq(3))
	if f, _ := q.TryPop(); f.Sequence != 3 {
		t.Errorf("expected frame 3 after clear, got %d", f.Sequence)
	}
}
