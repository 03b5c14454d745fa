package model

import "time"

// Screenshot is a saved frame on disk.
type Screenshot struct {
	ID         int64     `json:"id"`
	Filename   string    `json:"filename"`
	FilePath   string    `json:"filepath"`
	FileSize   int64     `json:"filesize"`
	Width      int       `json:"width"`
	Height     int       `json:"height"`
	Model      string    `json:"model"`
	Confidence float64   `json:"confidence"`
	RunID      string    `json:"run_id"`
	Timestamp  time.Time `json:"timestamp"`
}

// ScreenshotStats summarises stored screenshots.
type ScreenshotStats struct {
	TotalScreenshots int            `json:"total_screenshots"`
	TotalSizeBytes   int64          `json:"total_size_bytes"`
	PerModel         map[string]int `json:"per_model"`
	ObjectCounts     map[string]int `json:"object_counts"`
}
