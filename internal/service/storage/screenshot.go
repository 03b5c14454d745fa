package storage

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"math"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/disintegration/imaging"

	"livedetect/internal/config"
	"livedetect/internal/dto"
	"livedetect/internal/logger"
	"livedetect/internal/model"
	"livedetect/internal/repository"
)

const (
	// ScreenshotPrefix starts every screenshot filename.
	ScreenshotPrefix = "detection_"
	// ScreenshotExt is the format screenshots are written in.
	ScreenshotExt = ".png"

	screenshotTimeLayout = "20060102_150405.000"
	defaultListLimit     = 50
)

// ErrInvalidName is returned for names that are not screenshots this service wrote.
var ErrInvalidName = errors.New("invalid screenshot name")

// ScreenshotService writes displayed frames to disk and indexes them.
type ScreenshotService struct {
	dir            string
	logger         *logger.Logger
	screenshotRepo repository.ScreenshotRepository
	detectionRepo  repository.DetectionRepository
	now            func() time.Time
}

// NewScreenshotService creates a ScreenshotService. The repositories may be nil,
// in which case screenshots are only written to disk.
func NewScreenshotService(config *config.Config, logger *logger.Logger, screenshotRepo repository.ScreenshotRepository, detectionRepo repository.DetectionRepository) *ScreenshotService {
	return &ScreenshotService{
		dir:            config.ScreenshotDirectory,
		logger:         logger,
		screenshotRepo: screenshotRepo,
		detectionRepo:  detectionRepo,
		now:            time.Now,
	}
}

// Directory returns where screenshots are written.
func (s *ScreenshotService) Directory() string {
	return s.dir
}

// FileName builds the screenshot name for a capture time.
func FileName(at time.Time) string {
	stamp := strings.Replace(at.Format(screenshotTimeLayout), ".", "_", 1)
	return ScreenshotPrefix + stamp + ScreenshotExt
}

// Save writes frame as a PNG and records it. The returned path is set even
// when writing fails so callers can report where the write was attempted.
func (s *ScreenshotService) Save(frame dto.Frame) (string, error) {
	at := s.now()
	name := FileName(at)
	fullpath := filepath.Join(s.dir, name)

	img, err := imaging.Decode(bytes.NewReader(frame.Data))
	if err != nil {
		return fullpath, fmt.Errorf("failed to decode frame: %w", err)
	}

	if err := os.MkdirAll(s.dir, 0755); err != nil {
		return fullpath, fmt.Errorf("failed to create screenshot directory: %w", err)
	}

	fullpath = s.uniquePath(name)
	name = filepath.Base(fullpath)

	if err := imaging.Save(img, fullpath); err != nil {
		return fullpath, fmt.Errorf("failed to write screenshot: %w", err)
	}

	var size int64
	if info, err := os.Stat(fullpath); err == nil {
		size = info.Size()
	}

	s.logger.Info("Saved screenshot %s (%d objects)", name, frame.Objects())
	s.record(name, fullpath, size, img.Bounds(), frame, at)

	return fullpath, nil
}

// uniquePath avoids overwriting a screenshot taken within the same millisecond.
func (s *ScreenshotService) uniquePath(name string) string {
	fullpath := filepath.Join(s.dir, name)
	base := strings.TrimSuffix(name, ScreenshotExt)
	for i := 1; ; i++ {
		if _, err := os.Stat(fullpath); os.IsNotExist(err) {
			return fullpath
		}
		fullpath = filepath.Join(s.dir, fmt.Sprintf("%s_%d%s", base, i, ScreenshotExt))
	}
}

// record indexes a written screenshot. Index failures are logged; the file stays.
func (s *ScreenshotService) record(name, fullpath string, size int64, bounds image.Rectangle, frame dto.Frame, at time.Time) {
	if s.screenshotRepo == nil {
		return
	}

	id, err := s.screenshotRepo.Insert(&model.Screenshot{
		Filename:   name,
		FilePath:   fullpath,
		FileSize:   size,
		Width:      bounds.Dx(),
		Height:     bounds.Dy(),
		Model:      frame.Model,
		Confidence: frame.Confidence,
		RunID:      frame.RunID,
		Timestamp:  at.UTC(),
	})
	if err != nil {
		s.logger.Error("Error saving screenshot to database %s: %v", name, err)
		return
	}

	if s.detectionRepo == nil || len(frame.Detections) == 0 {
		return
	}

	dbDetections := make([]model.Detection, 0, len(frame.Detections))
	for _, det := range frame.Detections {
		det = scaleDetection(det, frame.SourceWidth, frame.SourceHeight, bounds.Dx(), bounds.Dy())
		dbDetections = append(dbDetections, model.Detection{
			ScreenshotID: id,
			ObjectName:   det.Label,
			X1:           det.X1,
			Y1:           det.Y1,
			X2:           det.X2,
			Y2:           det.Y2,
			Confidence:   det.Confidence,
		})
	}
	if err := s.detectionRepo.InsertBatch(dbDetections); err != nil {
		s.logger.Error("Error saving detections to database: %v", err)
	}
}

// scaleDetection maps a box from source-frame pixels to the saved image size.
// Boxes are left alone when the source size is unknown.
func scaleDetection(det dto.DetectionResult, srcW, srcH, dstW, dstH int) dto.DetectionResult {
	if srcW <= 0 || srcH <= 0 || (srcW == dstW && srcH == dstH) {
		return det
	}
	sx := float64(dstW) / float64(srcW)
	sy := float64(dstH) / float64(srcH)
	det.X1 = int(math.Round(float64(det.X1) * sx))
	det.X2 = int(math.Round(float64(det.X2) * sx))
	det.Y1 = int(math.Round(float64(det.Y1) * sy))
	det.Y2 = int(math.Round(float64(det.Y2) * sy))
	return det
}

// List returns the indexed screenshots matching filter, newest first.
func (s *ScreenshotService) List(filter dto.ScreenshotFilters) (*dto.ScreenshotsData, error) {
	if filter.Limit <= 0 {
		filter.Limit = defaultListLimit
	}
	if filter.Offset < 0 {
		filter.Offset = 0
	}

	data := &dto.ScreenshotsData{
		Screenshots: []dto.ScreenshotInfo{},
		Directory:   s.dir,
		Limit:       filter.Limit,
		Offset:      filter.Offset,
	}
	if s.screenshotRepo == nil {
		return data, nil
	}

	total, err := s.screenshotRepo.GetTotalCount(&filter)
	if err != nil {
		return nil, err
	}
	data.Total = total

	rows, err := s.screenshotRepo.GetAll(&filter)
	if err != nil {
		return nil, err
	}

	for _, row := range rows {
		info := dto.ScreenshotInfo{
			Name:       row.Filename,
			Date:       row.Timestamp.Local(),
			TimeOfDay:  row.Timestamp.Local(),
			Model:      row.Model,
			Confidence: row.Confidence,
			RunID:      row.RunID,
			Width:      row.Width,
			Height:     row.Height,
			Objects:    []string{},
		}
		if s.detectionRepo != nil {
			objects, err := s.detectionRepo.GetObjectNamesByScreenshotID(row.ID)
			if err != nil {
				s.logger.Warning("Could not load objects for %s: %v", row.Filename, err)
			} else if objects != nil {
				info.Objects = objects
			}
		}
		data.Screenshots = append(data.Screenshots, info)
	}

	return data, nil
}

// Stats summarises stored screenshots.
func (s *ScreenshotService) Stats() (*model.ScreenshotStats, error) {
	if s.screenshotRepo == nil {
		return &model.ScreenshotStats{PerModel: map[string]int{}, ObjectCounts: map[string]int{}}, nil
	}
	return s.screenshotRepo.GetStats()
}

// Objects returns every object name recorded across screenshots.
func (s *ScreenshotService) Objects() ([]string, error) {
	if s.detectionRepo == nil {
		return []string{}, nil
	}
	return s.detectionRepo.GetAllObjectNames()
}

// Path resolves a screenshot name to its file, rejecting anything outside
// the screenshot directory.
func (s *ScreenshotService) Path(name string) (string, error) {
	if !validName(name) {
		return "", ErrInvalidName
	}
	fullpath := filepath.Join(s.dir, name)
	if _, err := os.Stat(fullpath); err != nil {
		return "", err
	}
	return fullpath, nil
}

// Thumbnail returns a JPEG of the screenshot scaled to fit width x height.
func (s *ScreenshotService) Thumbnail(name string, width, height int) ([]byte, error) {
	fullpath, err := s.Path(name)
	if err != nil {
		return nil, err
	}

	img, err := imaging.Open(fullpath)
	if err != nil {
		return nil, fmt.Errorf("failed to open screenshot: %w", err)
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, imaging.Fit(img, width, height, imaging.Lanczos), imaging.JPEG, imaging.JPEGQuality(80)); err != nil {
		return nil, fmt.Errorf("failed to encode thumbnail: %w", err)
	}
	return buf.Bytes(), nil
}

// Delete removes a screenshot file and its index rows.
func (s *ScreenshotService) Delete(name string) error {
	if !validName(name) {
		return ErrInvalidName
	}

	fullpath := filepath.Join(s.dir, name)
	if err := os.Remove(fullpath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete %s: %w", name, err)
	}

	if s.screenshotRepo != nil {
		if err := s.screenshotRepo.DeleteByFilename(name); err != nil {
			return err
		}
	}

	s.logger.Info("Deleted screenshot %s", name)
	return nil
}

func validName(name string) bool {
	return name != "" &&
		filepath.Base(name) == name &&
		strings.HasPrefix(name, ScreenshotPrefix) &&
		strings.HasSuffix(name, ScreenshotExt)
}
