package storage

import (
	"bytes"
	"errors"
	"image/color"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/disintegration/imaging"

	"livedetect/internal/config"
	"livedetect/internal/dto"
	"livedetect/internal/logger"
	"livedetect/internal/repository/sqlite"
)

func jpegFrame(t *testing.T, w, h int) []byte {
	t.Helper()
	var buf bytes.Buffer
	img := imaging.New(w, h, color.NRGBA{R: 40, G: 120, B: 200, A: 255})
	if err := imaging.Encode(&buf, img, imaging.JPEG); err != nil {
		t.Fatalf("encode: %v", err)
	}
	return buf.Bytes()
}

func newTestService(t *testing.T, dir string) *ScreenshotService {
	t.Helper()
	cfg := &config.Config{
		ScreenshotDirectory: dir,
		LogDirectory:        t.TempDir(),
	}
	log := logger.NewLogger(cfg)
	t.Cleanup(func() { log.Close() })

	db, err := sqlite.New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Failed to create database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	svc := NewScreenshotService(cfg, log, sqlite.NewScreenshotRepository(db), sqlite.NewDetectionRepository(db))
	svc.now = func() time.Time { return time.Date(2024, 5, 1, 12, 30, 15, 123e6, time.Local) }
	return svc
}

func testFrame(t *testing.T) dto.Frame {
	return dto.Frame{
		Sequence:   7,
		RunID:      "run-1",
		Data:       jpegFrame(t, 80, 60),
		Model:      "yolov8s",
		Confidence: 0.4,
		Detections: []dto.DetectionResult{
			{Label: "person", ClassID: 0, Confidence: 0.91, X1: 1, Y1: 2, X2: 30, Y2: 50},
			{Label: "cup", ClassID: 41, Confidence: 0.55, X1: 40, Y1: 10, X2: 60, Y2: 30},
		},
	}
}

func TestFileName(t *testing.T) {
	at := time.Date(2024, 5, 1, 9, 5, 3, 7e6, time.UTC)
	if got, want := FileName(at), "detection_20240501_090503_007.png"; got != want {
		t.Errorf("FileName = %s, want %s", got, want)
	}
}

func TestScreenshotService_SaveWritesPNGAndIndexes(t *testing.T) {
	svc := newTestService(t, filepath.Join(t.TempDir(), "shots"))

	path, err := svc.Save(testFrame(t))
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if filepath.Base(path) != "detection_20240501_123015_123.png" {
		t.Errorf("unexpected file name %s", filepath.Base(path))
	}

	img, err := imaging.Open(path)
	if err != nil {
		t.Fatalf("open saved screenshot: %v", err)
	}
	if b := img.Bounds(); b.Dx() != 80 || b.Dy() != 60 {
		t.Errorf("saved size = %dx%d, want 80x60", b.Dx(), b.Dy())
	}

	data, err := svc.List(dto.ScreenshotFilters{})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if data.Total != 1 || len(data.Screenshots) != 1 {
		t.Fatalf("expected one screenshot, got %+v", data)
	}
	info := data.Screenshots[0]
	if info.Model != "yolov8s" || info.RunID != "run-1" || info.Confidence != 0.4 {
		t.Errorf("unexpected info: %+v", info)
	}
	if len(info.Objects) != 2 || info.Objects[0] != "cup" || info.Objects[1] != "person" {
		t.Errorf("objects = %v, want [cup person]", info.Objects)
	}

	filtered, err := svc.List(dto.ScreenshotFilters{Object: "dog"})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if filtered.Total != 0 {
		t.Errorf("expected no screenshots with dogs, got %d", filtered.Total)
	}
}

func TestScreenshotService_SaveScalesBoxesToSavedImage(t *testing.T) {
	svc := newTestService(t, t.TempDir())

	frame := testFrame(t) // 80x60 display frame
	frame.SourceWidth, frame.SourceHeight = 160, 120
	path, err := svc.Save(frame)
	if err != nil {
		t.Fatalf("Save: %v", err)
	}

	row, err := svc.screenshotRepo.GetByFilename(filepath.Base(path))
	if err != nil {
		t.Fatalf("GetByFilename: %v", err)
	}
	if row.Width != 80 || row.Height != 60 {
		t.Errorf("stored size = %dx%d, want 80x60", row.Width, row.Height)
	}

	dets, err := svc.detectionRepo.GetByScreenshotID(row.ID)
	if err != nil {
		t.Fatalf("GetByScreenshotID: %v", err)
	}
	if len(dets) != 2 {
		t.Fatalf("expected 2 detections, got %d", len(dets))
	}
	person := dets[0] // highest confidence first
	if person.X1 != 1 || person.Y1 != 1 || person.X2 != 15 || person.Y2 != 25 {
		t.Errorf("person box = (%d,%d)-(%d,%d), want (1,1)-(15,25)", person.X1, person.Y1, person.X2, person.Y2)
	}
}

func TestScaleDetection(t *testing.T) {
	det := dto.DetectionResult{X1: 100, Y1: 50, X2: 300, Y2: 250}

	tests := []struct {
		name                   string
		srcW, srcH, dstW, dstH int
		want                   [4]int
	}{
		{"unknown source", 0, 0, 800, 600, [4]int{100, 50, 300, 250}},
		{"same size", 800, 600, 800, 600, [4]int{100, 50, 300, 250}},
		{"downscale", 1600, 1200, 800, 600, [4]int{50, 25, 150, 125}},
		{"upscale", 400, 300, 800, 600, [4]int{200, 100, 600, 500}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := scaleDetection(det, tt.srcW, tt.srcH, tt.dstW, tt.dstH)
			if [4]int{got.X1, got.Y1, got.X2, got.Y2} != tt.want {
				t.Errorf("got (%d,%d)-(%d,%d), want %v", got.X1, got.Y1, got.X2, got.Y2, tt.want)
			}
		})
	}
}

func TestScreenshotService_SaveSameMillisecond(t *testing.T) {
	svc := newTestService(t, t.TempDir())

	first, err := svc.Save(testFrame(t))
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	second, err := svc.Save(testFrame(t))
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if first == second {
		t.Errorf("second save overwrote %s", first)
	}
}

func TestScreenshotService_SaveUnwritableDirectory(t *testing.T) {
	blocker := filepath.Join(t.TempDir(), "blocker")
	if err := os.WriteFile(blocker, []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}
	svc := newTestService(t, filepath.Join(blocker, "shots"))

	path, err := svc.Save(testFrame(t))
	if err == nil {
		t.Fatal("expected error for unwritable directory")
	}
	if path == "" {
		t.Error("expected the attempted path to be reported")
	}
}

func TestScreenshotService_SaveRejectsGarbage(t *testing.T) {
	svc := newTestService(t, t.TempDir())

	if _, err := svc.Save(dto.Frame{Data: []byte("not an image")}); err == nil {
		t.Error("expected decode error")
	}
}

func TestScreenshotService_PathAndDelete(t *testing.T) {
	svc := newTestService(t, t.TempDir())

	saved, err := svc.Save(testFrame(t))
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	name := filepath.Base(saved)

	for _, bad := range []string{"", "../etc/passwd", "notes.txt", "detection_x.jpg", "sub/" + name} {
		if _, err := svc.Path(bad); !errors.Is(err, ErrInvalidName) {
			t.Errorf("Path(%q) = %v, want ErrInvalidName", bad, err)
		}
	}

	got, err := svc.Path(name)
	if err != nil || got != saved {
		t.Fatalf("Path = %s, %v", got, err)
	}

	thumb, err := svc.Thumbnail(name, 40, 40)
	if err != nil {
		t.Fatalf("Thumbnail: %v", err)
	}
	timg, err := imaging.Decode(bytes.NewReader(thumb))
	if err != nil {
		t.Fatalf("decode thumbnail: %v", err)
	}
	if b := timg.Bounds(); b.Dx() != 40 || b.Dy() != 30 {
		t.Errorf("thumbnail size = %dx%d, want 40x30", b.Dx(), b.Dy())
	}

	if err := svc.Delete(name); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := svc.Path(name); !os.IsNotExist(err) {
		t.Errorf("expected file to be gone, got %v", err)
	}
	data, err := svc.List(dto.ScreenshotFilters{})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if data.Total != 0 {
		t.Errorf("expected empty index, got %d", data.Total)
	}

	stats, err := svc.Stats()
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if stats.TotalScreenshots != 0 {
		t.Errorf("stats = %+v", stats)
	}
}
