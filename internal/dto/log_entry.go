package dto

import (
	"fmt"
	"strings"
	"time"
)

// LogItem is a single label/confidence pair in a detection log entry.
type LogItem struct {
	Label      string  `json:"label"`
	Confidence float64 `json:"confidence"`
}

// LogEntry summarises the detections of one displayed frame.
type LogEntry struct {
	Time     time.Time `json:"time"`
	Sequence uint64    `json:"sequence"`
	Items    []LogItem `json:"items"`
}

// NewLogEntry builds a log entry from a displayed frame.
func NewLogEntry(frame Frame, at time.Time) LogEntry {
	items := make([]LogItem, 0, len(frame.Detections))
	for _, det := range frame.Detections {
		items = append(items, LogItem{Label: det.Label, Confidence: det.Confidence})
	}
	return LogEntry{Time: at, Sequence: frame.Sequence, Items: items}
}

// String renders the entry the way the sidebar shows it:
//
//	[15:04:05]
//	  person: 87.12%
func (e LogEntry) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "[%s]\n", e.Time.Format("15:04:05"))
	for _, item := range e.Items {
		fmt.Fprintf(&b, "  %s: %.2f%%\n", item.Label, item.Confidence*100)
	}
	return b.String()
}
