package repository

import (
	"livedetect/internal/dto"
	"livedetect/internal/model"
)

// ScreenshotRepository defines the interface for screenshot records.
type ScreenshotRepository interface {
	// Create operations
	Insert(s *model.Screenshot) (int64, error)

	// Read operations
	GetByID(id int64) (*model.Screenshot, error)
	GetByFilename(filename string) (*model.Screenshot, error)
	GetAll(filter *dto.ScreenshotFilters) ([]model.Screenshot, error)
	GetTotalCount(filter *dto.ScreenshotFilters) (int, error)
	GetStats() (*model.ScreenshotStats, error)

	// Delete operations
	DeleteByFilename(filename string) error
}

// DetectionRepository defines the interface for detections stored with screenshots.
type DetectionRepository interface {
	// Create operations
	InsertBatch(detections []model.Detection) error

	// Read operations
	GetByScreenshotID(screenshotID int64) ([]model.Detection, error)
	GetObjectNamesByScreenshotID(screenshotID int64) ([]string, error)
	GetAllObjectNames() ([]string, error)
}
