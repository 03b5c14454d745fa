package stream

import (
	"sync"

	"livedetect/internal/dto"
)

// FrameQueue is a fixed-capacity FIFO between the capture worker and the
// presentation loop. Push never blocks: when the queue is full the oldest
// frame is evicted to make room.
type FrameQueue struct {
	mu      sync.Mutex
	items   []dto.Frame
	head    int
	size    int
	dropped uint64
}

// NewFrameQueue creates a queue holding at most depth frames. Depths below 1 are raised to 1.
func NewFrameQueue(depth int) *FrameQueue {
	if depth < 1 {
		depth = 1
	}
	return &FrameQueue{items: make([]dto.Frame, depth)}
}

// Push appends frame, evicting the oldest buffered frame if the queue is full.
// It reports whether an eviction happened.
func (q *FrameQueue) Push(frame dto.Frame) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	evicted := false
	if q.size == len(q.items) {
		q.items[q.head] = dto.Frame{}
		q.head = (q.head + 1) % len(q.items)
		q.size--
		q.dropped++
		evicted = true
	}

	q.items[(q.head+q.size)%len(q.items)] = frame
	q.size++
	return evicted
}

// TryPop removes and returns the oldest frame without blocking.
func (q *FrameQueue) TryPop() (dto.Frame, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.size == 0 {
		return dto.Frame{}, false
	}

	frame := q.items[q.head]
	q.items[q.head] = dto.Frame{}
	q.head = (q.head + 1) % len(q.items)
	q.size--
	return frame, true
}

// Items returns the buffered frames, oldest first, without removing them.
func (q *FrameQueue) Items() []dto.Frame {
	q.mu.Lock()
	defer q.mu.Unlock()

	out := make([]dto.Frame, 0, q.size)
	for i := 0; i < q.size; i++ {
		out = append(out, q.items[(q.head+i)%len(q.items)])
	}
	return out
}

// Clear drops all buffered frames and returns how many were removed.
func (q *FrameQueue) Clear() int {
	q.mu.Lock()
	defer q.mu.Unlock()

	n := q.size
	for i := range q.items {
		q.items[i] = dto.Frame{}
	}
	q.head = 0
	q.size = 0
	return n
}

func (q *FrameQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.size
}

func (q *FrameQueue) Cap() int {
	return len(q.items)
}

// Dropped returns how many frames have been evicted since the queue was created.
func (q *FrameQueue) Dropped() uint64 {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.dropped
}
