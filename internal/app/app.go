package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/pressly/goose/v3"
	"golang.org/x/sync/errgroup"

	"livedetect/internal/config"
	"livedetect/internal/logger"
	"livedetect/internal/repository/sqlite"
	"livedetect/internal/routes"
	"livedetect/internal/service"
	"livedetect/internal/service/ai"
	"livedetect/internal/service/auth"
	"livedetect/internal/service/modelstore"
	"livedetect/internal/service/storage"
	"livedetect/internal/service/websocket"
)

const shutdownTimeout = 5 * time.Second

type App struct {
	config      *config.Config
	logger      *logger.Logger
	db          *sqlite.DB
	hubService  *websocket.HubService
	screenshots *storage.ScreenshotService
	sessions    *auth.Service
	manager     *service.Manager
}

// NewApp wires every service from the environment configuration.
func NewApp() (*App, error) {
	cfg := config.Load()
	log := logger.NewLogger(cfg)
	goose.SetLogger(log)

	if err := os.MkdirAll(filepath.Dir(cfg.DatabasePath), 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}
	db, err := sqlite.New(cfg.DatabasePath)
	if err != nil {
		return nil, err
	}

	sessions, err := auth.NewService(cfg.Password)
	if err != nil {
		db.Close()
		return nil, err
	}

	store := modelstore.NewStore(cfg.ModelDirectory, cfg.ModelBaseURL, cfg.DownloadTimeout, log)
	hub := websocket.NewHubService(log)
	screenshots := storage.NewScreenshotService(cfg, log,
		sqlite.NewScreenshotRepository(db), sqlite.NewDetectionRepository(db))

	mng, err := service.NewManager(cfg, service.ManagerDeps{
		Loader:      ai.NewLoader(store, cfg, log),
		Cameras:     ai.NewCameraOpener(cfg.DisplayWidth, cfg.DisplayHeight),
		Annotator:   ai.NewAnnotator(cfg.DisplayWidth, cfg.DisplayHeight),
		Screenshots: screenshots,
		Hub:         hub,
		Models:      store,
	}, log)
	if err != nil {
		db.Close()
		return nil, err
	}

	return &App{
		config:      cfg,
		logger:      log,
		db:          db,
		hubService:  hub,
		screenshots: screenshots,
		sessions:    sessions,
		manager:     mng,
	}, nil
}

// Run serves until ctx is cancelled. On the way out the capture worker is
// stopped so the camera is released, viewers are disconnected and the
// database is closed.
func (a *App) Run(ctx context.Context) error {
	defer a.logger.Close()
	defer a.db.Close()

	router := routes.SetupRoutes(routes.Deps{
		Manager:     a.manager,
		Hub:         a.hubService,
		Screenshots: a.screenshots,
		Sessions:    a.sessions,
		Logger:      a.logger,
		StaticDir:   a.config.StaticDirectory,
	})

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", a.config.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	a.logger.Info("Live detection server")
	a.logger.Info("URL: http://localhost:%d", a.config.Port)
	a.logger.Info("Auth: %v", a.sessions.Enabled())
	a.logger.Info("Camera: %d (%dx%d)", a.config.CameraIndex, a.config.DisplayWidth, a.config.DisplayHeight)
	a.logger.Info("Models: %s", a.config.ModelDirectory)
	a.logger.Info("Screenshots: %s", a.config.ScreenshotDirectory)

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error { return a.hubService.Run(ctx) })
	g.Go(func() error { return a.manager.Run(ctx) })
	g.Go(func() error {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		a.logger.Info("Shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
