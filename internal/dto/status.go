package dto

// State is the capture worker state.
type State string

const (
	StateIdle    State = "idle"
	StateRunning State = "running"
)

// Status is the snapshot served by /api/status and pushed to viewers.
type Status struct {
	State       State   `json:"state"`
	Model       string  `json:"model"`                  // selected variant, used by the next start
	ActiveModel string  `json:"active_model,omitempty"` // variant of the running worker
	Confidence  float64 `json:"confidence"`
	RunID       string  `json:"run_id,omitempty"`
	FPS         float64 `json:"fps"`
	Objects     int     `json:"objects"`
	QueueLength int     `json:"queue_length"`
	QueueDepth  int     `json:"queue_depth"`
	Viewers     int     `json:"viewers"`
	Dropped     uint64  `json:"dropped"` // frames evicted from the queue before display
	LastError   string  `json:"last_error,omitempty"`
}

// Notice is a user-facing message, e.g. a camera failure.
type Notice struct {
	Level   string `json:"level"` // info, warning, error
	Title   string `json:"title"`
	Message string `json:"message"`
}
