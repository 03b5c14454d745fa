package ai

import (
	"fmt"
	"image"
	"image/color"

	"gocv.io/x/gocv"

	"livedetect/internal/dto"
	"livedetect/internal/service/ai/yolo"
)

const (
	labelScale = 0.55
	fpsScale   = 1.0
	filled     = -1
)

var (
	fpsColor    = color.RGBA{R: 100, G: 255, B: 50, A: 255}
	shadowColor = color.RGBA{A: 255}
)

// Annotator draws detection boxes, label chips and an fps reading, then
// resizes the result to the display size.
type Annotator struct {
	width  int
	height int
}

// NewAnnotator returns an annotator producing width x height frames. A zero
// size keeps the source resolution.
func NewAnnotator(width, height int) *Annotator {
	return &Annotator{width: width, height: height}
}

// Annotate renders onto a decoded copy of frame; frame itself is not modified.
func (a *Annotator) Annotate(frame []byte, detections []dto.DetectionResult, fps float64) ([]byte, error) {
	mat, err := gocv.IMDecode(frame, gocv.IMReadColor)
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}
	defer mat.Close()

	if mat.Empty() {
		return nil, fmt.Errorf("decoded image is empty")
	}

	for _, det := range detections {
		if err := drawDetection(&mat, det); err != nil {
			return nil, err
		}
	}

	fpsText := fmt.Sprintf("FPS: %5.1f", fps)
	origin := image.Pt(12, 32)
	if err := gocv.PutTextWithParams(&mat, fpsText, origin, gocv.FontHersheySimplex, fpsScale, shadowColor, 4, gocv.LineAA, false); err != nil {
		return nil, fmt.Errorf("failed to draw fps: %w", err)
	}
	if err := gocv.PutTextWithParams(&mat, fpsText, origin, gocv.FontHersheySimplex, fpsScale, fpsColor, 2, gocv.LineAA, false); err != nil {
		return nil, fmt.Errorf("failed to draw fps: %w", err)
	}

	out := mat
	if a.width > 0 && a.height > 0 && (mat.Cols() != a.width || mat.Rows() != a.height) {
		resized := gocv.NewMat()
		defer resized.Close()
		if err := gocv.Resize(mat, &resized, image.Pt(a.width, a.height), 0, 0, gocv.InterpolationLinear); err != nil {
			return nil, fmt.Errorf("failed to resize frame: %w", err)
		}
		out = resized
	}

	buf, err := gocv.IMEncode(".jpg", out)
	if err != nil {
		return nil, fmt.Errorf("failed to encode image: %w", err)
	}
	defer buf.Close()

	finalImage := make([]byte, len(buf.GetBytes()))
	copy(finalImage, buf.GetBytes())
	return finalImage, nil
}

func drawDetection(mat *gocv.Mat, det dto.DetectionResult) error {
	boxColor := yolo.ClassColor(det.ClassID)

	rect := image.Rect(det.X1, det.Y1, det.X2, det.Y2)
	if err := gocv.Rectangle(mat, rect, boxColor, 2); err != nil {
		return fmt.Errorf("failed to draw rectangle: %w", err)
	}

	tag := det.Tag()
	size, baseline := gocv.GetTextSizeWithBaseline(tag, gocv.FontHersheySimplex, labelScale, 1)
	chipTop := det.Y1 - size.Y - baseline - 6
	if chipTop < 0 {
		chipTop = 0
	}

	chip := image.Rect(det.X1, chipTop, det.X1+size.X+6, det.Y1)
	if err := gocv.Rectangle(mat, chip, boxColor, filled); err != nil {
		return fmt.Errorf("failed to draw label chip: %w", err)
	}

	pt := image.Pt(det.X1+3, det.Y1-baseline-2)
	if err := gocv.PutTextWithParams(mat, tag, pt, gocv.FontHersheySimplex, labelScale, yolo.TextColor(boxColor), 1, gocv.LineAA, false); err != nil {
		return fmt.Errorf("failed to draw text: %w", err)
	}
	return nil
}
