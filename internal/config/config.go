package config

import (
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port                int
	Password            string
	StaticDirectory     string
	CameraIndex         int
	DisplayWidth        int
	DisplayHeight       int
	PollInterval        time.Duration // How often the presentation loop polls the frame queue
	QueueSize           int           // Depth of the frame queue between worker and presentation loop
	DefaultModel        string
	DefaultConfidence   float64
	ModelDirectory      string
	ModelBaseURL        string // Remote location of <variant>.onnx files, empty disables downloads
	ModelInputSize      int
	NMSThreshold        float64
	ScreenshotDirectory string
	DatabasePath        string
	LogDirectory        string
	DetectionLogSize    int
	WorkerStopTimeout   time.Duration
	DownloadTimeout     time.Duration
}

// Load reads the configuration from the environment. A .env file in the
// working directory is applied first when present.
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		Port:                getEnvAsInt("PORT", 8080),
		Password:            getEnv("PASSWORD", ""),
		StaticDirectory:     getEnv("STATIC_DIR", "static"),
		CameraIndex:         getEnvAsInt("CAMERA_INDEX", 0),
		DisplayWidth:        getEnvAsInt("DISPLAY_WIDTH", 800),
		DisplayHeight:       getEnvAsInt("DISPLAY_HEIGHT", 600),
		PollInterval:        time.Duration(getEnvAsInt("POLL_MS", 15)) * time.Millisecond, // ~67 fps upper bound
		QueueSize:           getEnvAsInt("QUEUE_SIZE", 2),                                  // Keep tiny to minimise display latency
		DefaultModel:        getEnv("MODEL", "yolov8n"),
		DefaultConfidence:   getEnvAsFloat("CONFIDENCE", 0.50),
		ModelDirectory:      getEnv("MODEL_DIR", filepath.Join(".", "models")),
		ModelBaseURL:        getEnv("MODEL_BASE_URL", ""),
		ModelInputSize:      getEnvAsInt("MODEL_INPUT_SIZE", 640),
		NMSThreshold:        getEnvAsFloat("NMS_THRESHOLD", 0.45),
		ScreenshotDirectory: getEnv("SCREENSHOT_DIR", filepath.Join(".", "screenshots")),
		DatabasePath:        getEnv("DB_PATH", filepath.Join(".", "data", "detections.db")),
		LogDirectory:        getEnv("LOG_DIR", filepath.Join(".", "logs")),
		DetectionLogSize:    getEnvAsInt("DETECTION_LOG_SIZE", 100),
		WorkerStopTimeout:   getEnvAsDuration("WORKER_STOP_TIMEOUT", 3*time.Second),
		DownloadTimeout:     getEnvAsDuration("DOWNLOAD_TIMEOUT", 5*time.Minute),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
