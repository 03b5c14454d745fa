package routes

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"livedetect/internal/config"
	"livedetect/internal/logger"
	"livedetect/internal/service"
	"livedetect/internal/service/auth"
	"livedetect/internal/service/websocket"
)

func newTestRouter(t *testing.T, password string) http.Handler {
	t.Helper()
	static := t.TempDir()
	for _, page := range []string{"index.html", "login.html"} {
		if err := os.WriteFile(filepath.Join(static, page), []byte("<html>"+page+"</html>"), 0644); err != nil {
			t.Fatal(err)
		}
	}

	cfg := &config.Config{
		LogDirectory:      t.TempDir(),
		DefaultModel:      "yolov8n",
		DefaultConfidence: 0.5,
		QueueSize:         2,
		PollInterval:      10 * time.Millisecond,
		DetectionLogSize:  10,
	}
	log := logger.NewLogger(cfg)
	t.Cleanup(func() { log.Close() })

	m, err := service.NewManager(cfg, service.ManagerDeps{}, log)
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}
	sessions, err := auth.NewService(password)
	if err != nil {
		t.Fatal(err)
	}

	return SetupRoutes(Deps{
		Manager:   m,
		Hub:       websocket.NewHubService(log),
		Sessions:  sessions,
		Logger:    log,
		StaticDir: static,
	})
}

func get(h http.Handler, path string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func TestSetupRoutes_Open(t *testing.T) {
	h := newTestRouter(t, "")

	tests := []struct {
		path string
		want int
	}{
		{"/", http.StatusOK},
		{"/login", http.StatusOK},
		{"/nothing-here", http.StatusNotFound},
		{"/api/status", http.StatusOK},
		{"/api/models", http.StatusOK},
		{"/api/detections/log", http.StatusOK},
		{"/logs/info", http.StatusOK},
	}
	for _, tt := range tests {
		if rec := get(h, tt.path); rec.Code != tt.want {
			t.Errorf("GET %s = %d, want %d", tt.path, rec.Code, tt.want)
		}
	}
}

func TestSetupRoutes_PasswordProtected(t *testing.T) {
	h := newTestRouter(t, "secret")

	if rec := get(h, "/api/status"); rec.Code != http.StatusUnauthorized {
		t.Errorf("GET /api/status = %d, want 401", rec.Code)
	}
	if rec := get(h, "/"); rec.Code != http.StatusSeeOther || rec.Header().Get("Location") != "/login" {
		t.Errorf("GET / = %d to %q, want redirect to /login", rec.Code, rec.Header().Get("Location"))
	}
	if rec := get(h, "/login"); rec.Code != http.StatusOK {
		t.Errorf("GET /login = %d, want 200", rec.Code)
	}
}
