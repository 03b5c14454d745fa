package routes

import (
	"net/http"
	"os"
	"path/filepath"

	"livedetect/internal/handler"
	"livedetect/internal/logger"
	"livedetect/internal/middleware"
	"livedetect/internal/service"
	"livedetect/internal/service/auth"
	"livedetect/internal/service/storage"
	"livedetect/internal/service/websocket"
)

// Deps groups what the HTTP surface is built from.
type Deps struct {
	Manager     *service.Manager
	Hub         *websocket.HubService
	Screenshots *storage.ScreenshotService
	Sessions    *auth.Service
	Logger      *logger.Logger
	StaticDir   string
}

// dynamicHTMLHandler serves /path as <static>/path.html if the file exists; otherwise 404.
func dynamicHTMLHandler(staticDir string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		path := r.URL.Path

		if path == "/" {
			path = "/index"
		}

		filePath := filepath.Join(staticDir, filepath.Clean("/"+path)+".html")

		if _, err := os.Stat(filePath); os.IsNotExist(err) {
			http.NotFound(w, r)
			return
		}

		http.ServeFile(w, r, filePath)
	}
}

// SetupRoutes registers HTTP routes, static file serving, API endpoints,
// and wraps the mux with the authentication middleware.
func SetupRoutes(d Deps) http.Handler {
	mux := http.NewServeMux()
	m, log := d.Manager, d.Logger

	// Static files
	mux.Handle("/static/", http.StripPrefix("/static/", http.FileServer(http.Dir(d.StaticDir))))

	// Viewer and capture control
	mux.HandleFunc("/api/view", handler.ViewWebsocketHandler(d.Hub, m, d.Sessions, log))
	mux.HandleFunc("/api/camera/start", handler.StartCameraHandler(m, log))
	mux.HandleFunc("/api/camera/stop", handler.StopCameraHandler(m, log))
	mux.HandleFunc("/api/status", handler.StatusHandler(m, log))
	mux.HandleFunc("/api/models", handler.ModelsHandler(m, log))
	mux.HandleFunc("/api/model", handler.SetModelHandler(m, log))
	mux.HandleFunc("/api/confidence", handler.SetConfidenceHandler(m, log))
	mux.HandleFunc("/api/screenshot", handler.ScreenshotHandler(m, log))
	mux.HandleFunc("/api/detections/log", handler.DetectionLogHandler(m, log))

	// Stored screenshots
	mux.HandleFunc("/api/screenshots", handler.ListScreenshotsHandler(d.Screenshots, log))
	mux.HandleFunc("/api/screenshots/view", handler.ViewScreenshotHandler(d.Screenshots, log))
	mux.HandleFunc("/api/screenshots/delete", handler.DeleteScreenshotHandler(d.Screenshots, log))
	mux.HandleFunc("/api/screenshots/filters", handler.ScreenshotFiltersHandler(d.Screenshots, m, log))
	mux.HandleFunc("/api/screenshots/stats", handler.ScreenshotStatsHandler(d.Screenshots, log))

	// Log endpoints
	for name, file := range map[string]string{
		"info":    logger.InfoFile,
		"warning": logger.WarningFile,
		"error":   logger.ErrorFile,
	} {
		mux.HandleFunc("/logs/"+name, handler.ShowLogsHandler(log, file))
		mux.HandleFunc("/logs/"+name+"/clear", handler.ClearLogsHandler(log, file))
	}

	// Auth endpoints
	mux.HandleFunc("/auth/login", handler.LoginHandler(d.Sessions, log))
	mux.HandleFunc("/auth/logout", handler.LogoutHandler(d.Sessions))

	// Automatic HTML handler mapping for example: /login -> <static>/login.html
	mux.HandleFunc("/", dynamicHTMLHandler(d.StaticDir))

	// Apply middleware
	return middleware.AuthMiddleware(d.Sessions, mux)
}
