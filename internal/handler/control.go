package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"livedetect/internal/logger"
	"livedetect/internal/service"
	"livedetect/internal/service/modelstore"
	"livedetect/internal/service/stream"
)

// writeJSON encodes v with the given status code.
func writeJSON(w http.ResponseWriter, logger *logger.Logger, code int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Error("Error encoding JSON response: %v", err)
	}
}

// writeError reports err as {"error": "..."} with the status it maps to.
func writeError(w http.ResponseWriter, logger *logger.Logger, err error) {
	writeJSON(w, logger, statusForError(err), map[string]string{"error": err.Error()})
}

// statusForError maps pipeline errors to HTTP status codes.
func statusForError(err error) int {
	var (
		loadErr    *stream.ModelLoadError
		captureErr *stream.CaptureError
		saveErr    *stream.SaveError
	)
	switch {
	case errors.As(err, &loadErr):
		return http.StatusBadGateway
	case errors.As(err, &captureErr):
		return http.StatusServiceUnavailable
	case errors.As(err, &saveErr):
		return http.StatusInternalServerError
	case errors.Is(err, stream.ErrNoFrame):
		return http.StatusConflict
	case errors.Is(err, stream.ErrStopTimeout):
		return http.StatusGatewayTimeout
	case errors.Is(err, modelstore.ErrUnknownVariant):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

func requireMethod(w http.ResponseWriter, r *http.Request, method string) bool {
	if r.Method != method {
		w.Header().Set("Allow", method)
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return false
	}
	return true
}

// StartCameraHandler handles POST /api/camera/start.
func StartCameraHandler(manager *service.Manager, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !requireMethod(w, r, http.MethodPost) {
			return
		}
		if err := manager.Start(r.Context()); err != nil {
			writeError(w, logger, err)
			return
		}
		writeJSON(w, logger, http.StatusOK, manager.Status())
	}
}

// StopCameraHandler handles POST /api/camera/stop.
func StopCameraHandler(manager *service.Manager, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !requireMethod(w, r, http.MethodPost) {
			return
		}
		if err := manager.Stop(); err != nil {
			writeError(w, logger, err)
			return
		}
		writeJSON(w, logger, http.StatusOK, manager.Status())
	}
}

// StatusHandler handles GET /api/status.
func StatusHandler(manager *service.Manager, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !requireMethod(w, r, http.MethodGet) {
			return
		}
		writeJSON(w, logger, http.StatusOK, manager.Status())
	}
}

// ModelsHandler handles GET /api/models.
func ModelsHandler(manager *service.Manager, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !requireMethod(w, r, http.MethodGet) {
			return
		}
		writeJSON(w, logger, http.StatusOK, map[string]interface{}{
			"selected": manager.Status().Model,
			"models":   manager.Models(),
		})
	}
}

type modelRequest struct {
	Model string `json:"model"`
}

// SetModelHandler handles POST /api/model with {"model": "yolov8s"}.
func SetModelHandler(manager *service.Manager, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !requireMethod(w, r, http.MethodPost) {
			return
		}
		var req modelRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Model == "" {
			http.Error(w, "Body must be {\"model\": \"<variant>\"}", http.StatusBadRequest)
			return
		}
		if err := manager.SetModel(req.Model); err != nil {
			writeError(w, logger, err)
			return
		}
		writeJSON(w, logger, http.StatusOK, manager.Status())
	}
}

type confidenceRequest struct {
	Confidence *float64 `json:"confidence"`
}

// SetConfidenceHandler handles POST /api/confidence with {"confidence": 0.4}.
// Out of range values are clamped.
func SetConfidenceHandler(manager *service.Manager, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !requireMethod(w, r, http.MethodPost) {
			return
		}
		var req confidenceRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Confidence == nil {
			http.Error(w, "Body must be {\"confidence\": <0.05-0.95>}", http.StatusBadRequest)
			return
		}
		manager.SetConfidence(*req.Confidence)
		writeJSON(w, logger, http.StatusOK, manager.Status())
	}
}

// ScreenshotHandler handles POST /api/screenshot.
func ScreenshotHandler(manager *service.Manager, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !requireMethod(w, r, http.MethodPost) {
			return
		}
		path, err := manager.SaveScreenshot()
		if err != nil {
			writeError(w, logger, err)
			return
		}
		writeJSON(w, logger, http.StatusCreated, map[string]string{"status": "saved", "path": path})
	}
}

// DetectionLogHandler serves GET /api/detections/log. With ?format=text the
// entries are rendered as the plain sidebar text; DELETE clears the log.
func DetectionLogHandler(manager *service.Manager, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
		case http.MethodDelete:
			manager.ClearDetectionLog()
			w.WriteHeader(http.StatusNoContent)
			return
		default:
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		entries := manager.DetectionLog()
		if r.URL.Query().Get("format") == "text" {
			w.Header().Set("Content-Type", "text/plain; charset=utf-8")
			for _, entry := range entries {
				w.Write([]byte(entry.String()))
			}
			return
		}
		writeJSON(w, logger, http.StatusOK, entries)
	}
}
