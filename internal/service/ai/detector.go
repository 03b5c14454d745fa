package ai

import (
	"fmt"
	"image"
	"os"
	"sync"

	"gocv.io/x/gocv"

	"livedetect/internal/dto"
	"livedetect/internal/service/ai/yolo"
)

// YOLOConfig holds YOLO detector configuration.
type YOLOConfig struct {
	ModelPath string
	InputSize int     // square network input, 640 for the stock exports
	NMSThresh float32 // IoU above which overlapping boxes are suppressed
}

// YOLODetector runs a YOLOv8 ONNX export through the OpenCV DNN module.
type YOLODetector struct {
	net       gocv.Net
	config    YOLOConfig
	mu        sync.Mutex
	inputSize image.Point
	closed    bool
}

// NewYOLO loads the network from cfg.ModelPath.
func NewYOLO(cfg YOLOConfig) (*YOLODetector, error) {
	if _, err := os.Stat(cfg.ModelPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("model file not found: %s", cfg.ModelPath)
	}
	if cfg.InputSize <= 0 {
		cfg.InputSize = 640
	}
	if cfg.NMSThresh <= 0 {
		cfg.NMSThresh = 0.45
	}

	net := gocv.ReadNetFromONNX(cfg.ModelPath)
	if net.Empty() {
		return nil, fmt.Errorf("failed to load network from %s", cfg.ModelPath)
	}

	errBackend := net.SetPreferableBackend(gocv.NetBackendDefault)
	errTarget := net.SetPreferableTarget(gocv.NetTargetCPU)
	if errBackend != nil || errTarget != nil {
		net.Close()
		return nil, fmt.Errorf("failed to set preferable backend or target")
	}

	return &YOLODetector{
		net:       net,
		config:    cfg,
		inputSize: image.Pt(cfg.InputSize, cfg.InputSize),
	}, nil
}

// Detect returns the objects in the JPEG frame scoring at least threshold.
func (d *YOLODetector) Detect(frame []byte, threshold float64) ([]dto.DetectionResult, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return nil, fmt.Errorf("detector is closed")
	}

	img, err := gocv.IMDecode(frame, gocv.IMReadColor)
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}
	defer img.Close()

	if img.Empty() {
		return nil, fmt.Errorf("decoded image is empty")
	}

	blob := gocv.BlobFromImage(img, 1.0/255.0, d.inputSize, gocv.NewScalar(0, 0, 0, 0), true, false)
	defer blob.Close()

	d.net.SetInput(blob, "")

	output := d.net.Forward("")
	defer output.Close()

	// Output shape: [1, 4+classes, anchors]
	sizes := output.Size()
	if len(sizes) != 3 {
		return nil, fmt.Errorf("unexpected output dimensions %v", sizes)
	}
	data, err := output.DataPtrFloat32()
	if err != nil {
		return nil, fmt.Errorf("failed to read output tensor: %w", err)
	}

	candidates, err := yolo.Parse(data, sizes[1], sizes[2], float32(threshold), yolo.Geometry{
		InputWidth:  d.inputSize.X,
		InputHeight: d.inputSize.Y,
		ImageWidth:  img.Cols(),
		ImageHeight: img.Rows(),
	})
	if err != nil {
		return nil, err
	}
	if len(candidates) == 0 {
		return nil, nil
	}

	boxes := make([]image.Rectangle, len(candidates))
	scores := make([]float32, len(candidates))
	for i, c := range candidates {
		boxes[i] = c.Box
		scores[i] = c.Score
	}

	indices := gocv.NMSBoxes(boxes, scores, float32(threshold), d.config.NMSThresh)

	results := make([]dto.DetectionResult, 0, len(indices))
	for _, idx := range indices {
		c := candidates[idx]
		results = append(results, dto.DetectionResult{
			Label:      yolo.ClassName(c.ClassID),
			ClassID:    c.ClassID,
			Confidence: float64(c.Score),
			X1:         c.Box.Min.X,
			Y1:         c.Box.Min.Y,
			X2:         c.Box.Max.X,
			Y2:         c.Box.Max.Y,
		})
	}
	return results, nil
}

// Close releases the network.
func (d *YOLODetector) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return nil
	}
	d.closed = true
	return d.net.Close()
}
