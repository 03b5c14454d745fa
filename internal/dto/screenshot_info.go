package dto

import (
	"encoding/json"
	"time"
)

// ScreenshotInfo is the listing payload for a stored screenshot.
type ScreenshotInfo struct {
	Name       string    `json:"name"`
	Date       time.Time `json:"date"`
	TimeOfDay  time.Time `json:"timeOfDay"`
	Model      string    `json:"model"`
	Confidence float64   `json:"confidence"`
	RunID      string    `json:"runId"`
	Width      int       `json:"width"`
	Height     int       `json:"height"`
	Objects    []string  `json:"objects"` // Distinct labels detected in the frame
}

// MarshalJSON customizes JSON output for ScreenshotInfo to format date and time-of-day.
func (p ScreenshotInfo) MarshalJSON() ([]byte, error) {
	type Alias ScreenshotInfo
	return json.Marshal(&struct {
		Date      string `json:"date"`
		TimeOfDay string `json:"timeOfDay"`
		Alias
	}{
		Date:      p.Date.Format("02-01-2006"),
		TimeOfDay: p.TimeOfDay.Format("15:04:05"),
		Alias:     (Alias)(p),
	})
}

// ScreenshotsData is a paginated response payload for the screenshot list.
type ScreenshotsData struct {
	Screenshots []ScreenshotInfo `json:"screenshots"`
	Directory   string           `json:"directory"`
	Total       int              `json:"total"`
	Limit       int              `json:"limit"`
	Offset      int              `json:"offset"`
}
