package stream

import (
	"sync"

	"livedetect/internal/dto"
)

// DetectionLog keeps the most recent detection summaries. When full, the
// oldest entry is evicted.
type DetectionLog struct {
	mu      sync.RWMutex
	entries []dto.LogEntry
	limit   int
}

func NewDetectionLog(limit int) *DetectionLog {
	if limit < 1 {
		limit = 1
	}
	return &DetectionLog{entries: make([]dto.LogEntry, 0, limit), limit: limit}
}

func (l *DetectionLog) Append(entry dto.LogEntry) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if len(l.entries) == l.limit {
		copy(l.entries, l.entries[1:])
		l.entries = l.entries[:l.limit-1]
	}
	l.entries = append(l.entries, entry)
}

// Entries returns a copy of the log, oldest first.
func (l *DetectionLog) Entries() []dto.LogEntry {
	l.mu.RLock()
	defer l.mu.RUnlock()

	out := make([]dto.LogEntry, len(l.entries))
	copy(out, l.entries)
	return out
}

func (l *DetectionLog) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.entries)
}

func (l *DetectionLog) Clear() {
	l.mu.Lock()
	l.entries = l.entries[:0]
	l.mu.Unlock()
}
