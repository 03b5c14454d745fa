package handler

import (
	"errors"
	"net/http"
	"os"
	"strconv"
	"time"

	"livedetect/internal/dto"
	"livedetect/internal/logger"
	"livedetect/internal/service"
	"livedetect/internal/service/storage"
)

const thumbnailSize = 320

// ListScreenshotsHandler returns the filtered, paginated screenshot index.
// Query: model, object, run, dateAfter, dateBefore (2006-01-02), page, limit.
func ListScreenshotsHandler(screenshots *storage.ScreenshotService, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !requireMethod(w, r, http.MethodGet) {
			return
		}

		q := r.URL.Query()
		page := atoiDefault(q.Get("page"), 1)
		limit := atoiDefault(q.Get("limit"), 24)

		filter := dto.ScreenshotFilters{
			Model:      q.Get("model"),
			Object:     q.Get("object"),
			RunID:      q.Get("run"),
			DateAfter:  parseDate(q.Get("dateAfter")),
			DateBefore: endOfDay(parseDate(q.Get("dateBefore"))),
			Limit:      limit,
			Offset:     (page - 1) * limit,
		}

		data, err := screenshots.List(filter)
		if err != nil {
			logger.Error("Error querying screenshots from database: %v", err)
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}
		writeJSON(w, logger, http.StatusOK, data)
	}
}

// ViewScreenshotHandler serves a stored screenshot named by ?name=. With
// ?thumb=1 a scaled JPEG is returned instead of the PNG.
func ViewScreenshotHandler(screenshots *storage.ScreenshotService, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		name := r.URL.Query().Get("name")
		if name == "" {
			http.Error(w, "Name parameter is required", http.StatusBadRequest)
			return
		}

		if r.URL.Query().Get("thumb") != "" {
			data, err := screenshots.Thumbnail(name, thumbnailSize, thumbnailSize)
			if err != nil {
				screenshotError(w, logger, err)
				return
			}
			w.Header().Set("Content-Type", "image/jpeg")
			w.Write(data)
			return
		}

		path, err := screenshots.Path(name)
		if err != nil {
			screenshotError(w, logger, err)
			return
		}
		http.ServeFile(w, r, path)
	}
}

// DeleteScreenshotHandler removes a screenshot from disk and the index.
func DeleteScreenshotHandler(screenshots *storage.ScreenshotService, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost && r.Method != http.MethodDelete {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		name := r.URL.Query().Get("name")
		if name == "" {
			http.Error(w, "Name parameter is required", http.StatusBadRequest)
			return
		}

		if err := screenshots.Delete(name); err != nil {
			screenshotError(w, logger, err)
			return
		}
		writeJSON(w, logger, http.StatusOK, map[string]string{"status": "deleted", "name": name})
	}
}

// ScreenshotFiltersHandler lists the values the screenshot filters accept.
func ScreenshotFiltersHandler(screenshots *storage.ScreenshotService, manager *service.Manager, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		objects, err := screenshots.Objects()
		if err != nil {
			logger.Error("Error loading object names: %v", err)
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}
		if objects == nil {
			objects = []string{}
		}

		models := make([]string, 0)
		for _, m := range manager.Models() {
			models = append(models, m.Name)
		}

		writeJSON(w, logger, http.StatusOK, map[string][]string{
			"objects": objects,
			"models":  models,
		})
	}
}

// ScreenshotStatsHandler returns totals per model and the most detected objects.
func ScreenshotStatsHandler(screenshots *storage.ScreenshotService, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		stats, err := screenshots.Stats()
		if err != nil {
			logger.Error("Error loading screenshot stats: %v", err)
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}
		writeJSON(w, logger, http.StatusOK, stats)
	}
}

func screenshotError(w http.ResponseWriter, logger *logger.Logger, err error) {
	switch {
	case errors.Is(err, storage.ErrInvalidName):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, os.ErrNotExist):
		http.Error(w, "Screenshot not found", http.StatusNotFound)
	default:
		logger.Error("Screenshot request failed: %v", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
	}
}

// atoiDefault converts string to int or returns a default when conversion fails or value <= 0.
func atoiDefault(s string, def int) int {
	if v, err := strconv.Atoi(s); err == nil && v > 0 {
		return v
	}
	return def
}

// parseDate parses a date string in the format "2006-01-02" (HTML input format) as local time.
func parseDate(v string) time.Time {
	if v == "" {
		return time.Time{}
	}
	t, err := time.ParseInLocation("2006-01-02", v, time.Local)
	if err != nil {
		return time.Time{}
	}
	return t.UTC()
}

// endOfDay makes an inclusive upper bound out of a parsed date.
func endOfDay(t time.Time) time.Time {
	if t.IsZero() {
		return t
	}
	return t.Add(24*time.Hour - time.Nanosecond)
}
