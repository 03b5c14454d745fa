package dto

// Viewer message types.
const (
	MessageFrame  = "frame"
	MessageStatus = "status"
	MessageNotice = "notice"
)

// ViewerMessage is the envelope of everything pushed over the viewer websocket.
type ViewerMessage struct {
	Type   string        `json:"type"`
	Frame  *FramePayload `json:"frame,omitempty"`
	Status *Status       `json:"status,omitempty"`
	Notice *Notice       `json:"notice,omitempty"`
}

// FramePayload is a displayed frame as sent to viewers.
type FramePayload struct {
	Image      string            `json:"image"` // base64 JPEG
	Sequence   uint64            `json:"sequence"`
	RunID      string            `json:"run_id"`
	Model      string            `json:"model"`
	Confidence float64           `json:"confidence"`
	FPS        float64           `json:"fps"`
	Objects    int               `json:"objects"`
	Detections []DetectionResult `json:"detections"`
}
