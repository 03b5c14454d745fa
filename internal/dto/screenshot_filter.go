package dto

import "time"

// ScreenshotFilters narrow the stored screenshot list.
type ScreenshotFilters struct {
	Model      string
	Object     string
	RunID      string
	DateAfter  time.Time
	DateBefore time.Time
	Limit      int
	Offset     int
}
